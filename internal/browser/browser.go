// Package browser opens URLs in the operator's desktop browser.
package browser

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Commander starts external commands
type Commander interface {
	Start(name string, args ...string) error
}

// ExecCommander starts commands with os/exec
type ExecCommander struct{}

func (ExecCommander) Start(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// Open opens url in the default browser of the running OS
func Open(url string) error {
	return OpenWith(ExecCommander{}, runtime.GOOS, url)
}

// OpenWith opens url with the launcher goos uses
func OpenWith(c Commander, goos, url string) error {
	name, args, err := command(goos, url)
	if err != nil {
		return err
	}
	if err := c.Start(name, args...); err != nil {
		return fmt.Errorf("failed to open %s: %w", url, err)
	}
	return nil
}

func command(goos, url string) (string, []string, error) {
	switch goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", []string{url}, nil
	case "darwin":
		return "open", []string{url}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}, nil
	}
	return "", nil, fmt.Errorf("unsupported platform: %s", goos)
}
