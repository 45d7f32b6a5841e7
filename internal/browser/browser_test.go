package browser

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

type recordingCommander struct {
	name string
	args []string
	err  error
}

func (r *recordingCommander) Start(name string, args ...string) error {
	r.name = name
	r.args = args
	return r.err
}

func TestOpenWith(t *testing.T) {
	const url = "http://localhost:8080/lobby/ABCD"

	tests := []struct {
		goos     string
		wantName string
		wantArgs []string
	}{
		{"linux", "xdg-open", []string{url}},
		{"freebsd", "xdg-open", []string{url}},
		{"darwin", "open", []string{url}},
		{"windows", "rundll32", []string{"url.dll,FileProtocolHandler", url}},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			rc := &recordingCommander{}
			if err := OpenWith(rc, tt.goos, url); err != nil {
				t.Fatalf("expected no error, got: %v", err)
			}
			if rc.name != tt.wantName {
				t.Errorf("expected command %q, got %q", tt.wantName, rc.name)
			}
			if !reflect.DeepEqual(rc.args, tt.wantArgs) {
				t.Errorf("expected args %v, got %v", tt.wantArgs, rc.args)
			}
		})
	}
}

func TestOpenWith_UnsupportedPlatform(t *testing.T) {
	rc := &recordingCommander{}

	err := OpenWith(rc, "plan9", "http://localhost:8080")

	if err == nil || !strings.Contains(err.Error(), "plan9") {
		t.Fatalf("expected unsupported platform error, got %v", err)
	}
	if rc.name != "" {
		t.Error("no command should be started")
	}
}

func TestOpenWith_StartError(t *testing.T) {
	startErr := errors.New("exec failed")
	rc := &recordingCommander{err: startErr}

	err := OpenWith(rc, "linux", "http://localhost:8080")

	if !errors.Is(err, startErr) {
		t.Errorf("expected wrapped start error, got %v", err)
	}
}
