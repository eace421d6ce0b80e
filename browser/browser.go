// Package browser opens article URLs in the system browser.
package browser

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

var (
	ErrNoURL               = errors.New("article has no URL")
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)

// Launcher opens URLs. A non-empty Command replaces the platform opener and
// receives the URL as its only argument.
type Launcher struct {
	Command string
	GOOS    string // defaults to runtime.GOOS
}

// Args returns the program and its arguments for url.
func (l Launcher) Args(url string) (string, []string, error) {
	if strings.TrimSpace(url) == "" {
		return "", nil, ErrNoURL
	}

	if l.Command != "" {
		return l.Command, []string{url}, nil
	}

	goos := l.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}

	switch goos {
	case "darwin":
		return "open", []string{url}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", []string{url}, nil
	case "windows":
		return "cmd", []string{"/c", "start", url}, nil
	default:
		return "", nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, goos)
	}
}

// CommandLine returns the command as a single line, for --echo.
func (l Launcher) CommandLine(url string) (string, error) {
	name, args, err := l.Args(url)
	if err != nil {
		return "", err
	}
	return name + " " + strings.Join(args, " "), nil
}

// Open starts the opener and returns without waiting for the browser.
func (l Launcher) Open(url string) error {
	name, args, err := l.Args(url)
	if err != nil {
		return err
	}

	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open URL: %w", err)
	}
	go cmd.Wait()

	return nil
}
