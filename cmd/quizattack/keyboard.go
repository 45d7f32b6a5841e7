package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/term"

	"github.com/abrezinsky/quizattack/internal/logger"
)

// ANSI escape codes
const (
	reset  = "\033[0m"
	yellow = "\033[33m"
	red    = "\033[31m"
	green  = "\033[32m"
	cyan   = "\033[36m"
	bold   = "\033[1m"
)

// consoleWriter turns \n into \r\n while the terminal is in raw mode
type consoleWriter struct {
	out io.Writer
	raw atomic.Bool
	mu  sync.Mutex
}

func newConsoleWriter(out io.Writer) *consoleWriter {
	return &consoleWriter{out: out}
}

func (w *consoleWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.raw.Load() {
		return w.out.Write(p)
	}
	if _, err := w.out.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}

// keyboard maps single key presses to operator actions
type keyboard struct {
	out  io.Writer
	log  logger.Logger
	url  string
	open func(url string) error
	quit func()
}

// handle runs the action for key and reports whether to keep listening
func (k *keyboard) handle(key byte) bool {
	switch strings.ToLower(string(key)) {
	case "o":
		fmt.Fprintf(k.out, "%sOpening %s in browser...%s\n", cyan, k.url, reset)
		if err := k.open(k.url); err != nil {
			fmt.Fprintf(k.out, "%sError opening browser: %v%s\n", red, err, reset)
		}
	case "h":
		if k.log.IsHTTPLoggingEnabled() {
			k.log.DisableHTTPLogging()
			fmt.Fprintf(k.out, "%sHTTP logging disabled%s\n", yellow, reset)
		} else {
			k.log.EnableHTTPLogging()
			fmt.Fprintf(k.out, "%sHTTP logging enabled%s\n", green, reset)
		}
	case "l":
		next := nextLogLevel(k.log.GetLevel().String())
		k.log.SetLevel(logger.ParseLevel(next))
		fmt.Fprintf(k.out, "%sLog level: %s%s%s\n", green, yellow, next, reset)
	case "?":
		printKeyboardHelp(k.out)
	case "q", "\x03":
		fmt.Fprintf(k.out, "%sShutting down server...%s\n", yellow, reset)
		k.quit()
		return false
	}
	return true
}

// nextLogLevel cycles debug -> info -> warn -> error -> debug
func nextLogLevel(current string) string {
	switch current {
	case "DEBUG":
		return "info"
	case "INFO":
		return "warn"
	case "WARN":
		return "error"
	case "ERROR":
		return "debug"
	default:
		return "info"
	}
}

func printKeyboardHelp(out io.Writer) {
	fmt.Fprintf(out, "\n%s%s  Keyboard shortcuts:%s\n", bold, green, reset)
	fmt.Fprintf(out, "    %so%s      - Open home page in browser\n", cyan, reset)
	fmt.Fprintf(out, "    %sh%s      - Toggle HTTP request logging\n", cyan, reset)
	fmt.Fprintf(out, "    %sl%s      - Cycle log level (debug, info, warn, error)\n", cyan, reset)
	fmt.Fprintf(out, "    %sq%s      - Quit server\n", cyan, reset)
	fmt.Fprintf(out, "    %s?%s      - Show this help\n\n", cyan, reset)
}

// listen reads keys from in until handle says stop or in fails
func (k *keyboard) listen(in io.Reader) {
	buf := make([]byte, 1)
	for {
		n, err := in.Read(buf)
		if err != nil {
			return
		}
		if n == 0 {
			continue
		}
		if !k.handle(buf[0]) {
			return
		}
	}
}

// startKeyboard puts stdin in raw mode and listens for shortcuts. The
// returned func restores the terminal. Nothing happens when stdin is not a
// terminal.
func startKeyboard(k *keyboard, console *consoleWriter) func() {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		k.log.Debug("Stdin is not a terminal, keyboard shortcuts disabled")
		return func() {}
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		k.log.Warn("Failed to enable keyboard shortcuts", "error", err)
		return func() {}
	}
	console.raw.Store(true)

	var once sync.Once
	restore := func() {
		once.Do(func() {
			console.raw.Store(false)
			_ = term.Restore(fd, state)
		})
	}

	printKeyboardHelp(k.out)
	go k.listen(os.Stdin)
	return restore
}
