package sso

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
)

// BrowserOpener opens URLs with the platform's default handler
type BrowserOpener struct{}

// Open launches the default browser for url. The launcher outlives the
// caller's context.
func (BrowserOpener) Open(_ context.Context, url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}
	go cmd.Wait() //nolint:errcheck
	return nil
}
