// Package browser opens URLs in the user's default browser.
package browser

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/atotto/clipboard"
)

var (
	getRuntime = func() string { return runtime.GOOS }
	startCmd   = func(cmd *exec.Cmd) error { return cmd.Start() }
)

// command returns the platform command that opens url.
func command(goos, url string) (*exec.Cmd, error) {
	switch goos {
	case "darwin":
		return exec.Command("open", url), nil
	case "linux", "freebsd", "openbsd":
		return exec.Command("xdg-open", url), nil
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url), nil
	}
	return nil, fmt.Errorf("unsupported platform: %s", goos)
}

// Open opens the default system browser to the specified URL.
func Open(url string) error {
	cmd, err := command(getRuntime(), url)
	if err != nil {
		return err
	}
	if err := startCmd(cmd); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}

// OpenOrCopy tries to open url and falls back to the clipboard. copied
// reports whether the URL ended up on the clipboard instead.
func OpenOrCopy(url string) (copied bool, err error) {
	openErr := Open(url)
	if openErr == nil {
		return false, nil
	}
	if clipboard.Unsupported {
		return false, openErr
	}
	if err := clipboard.WriteAll(url); err != nil {
		return false, fmt.Errorf("%w (clipboard: %v)", openErr, err)
	}
	return true, nil
}
