// Package clipboard copies filled contract text to the system clipboard.
package clipboard

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/atotto/clipboard"
)

// Package-level seams so tests never touch the real clipboard.
var (
	writeAll    = clipboard.WriteAll
	unsupported = func() bool { return clipboard.Unsupported }
	goos        = runtime.GOOS
)

// ClipboardError reports that no clipboard utility is installed
type ClipboardError struct {
	OS      string
	Message string
}

func (e *ClipboardError) Error() string {
	return e.Message
}

// NewClipboardError creates a ClipboardError with installation instructions
func NewClipboardError() *ClipboardError {
	return &ClipboardError{OS: goos, Message: "no clipboard utility found. " + GetInstallInstructions()}
}

// Copy writes text to the system clipboard
func Copy(text string) error {
	if unsupported() {
		return NewClipboardError()
	}
	if err := writeAll(text); err != nil {
		return fmt.Errorf("clipboard write failed: %w", err)
	}
	return nil
}

// CopyWithFallback copies text and returns a status line for the terminal
func CopyWithFallback(text string) (string, error) {
	if err := Copy(text); err != nil {
		var clipErr *ClipboardError
		if errors.As(err, &clipErr) {
			return "", err
		}
		return "", fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	return "Copied to clipboard!", nil
}

// IsClipboardAvailable checks if clipboard functionality is available
func IsClipboardAvailable() bool {
	return !unsupported()
}

// GetInstallInstructions returns installation instructions for clipboard utilities
func GetInstallInstructions() string {
	return installInstructions(goos)
}

func installInstructions(goos string) string {
	switch goos {
	case "linux":
		return "Install a clipboard utility:\n" +
			"  • Ubuntu/Debian: sudo apt install xclip\n" +
			"  • Fedora/RHEL: sudo dnf install xclip\n" +
			"  • Arch: sudo pacman -S xclip\n" +
			"  • For Wayland: install wl-clipboard"
	case "darwin":
		return "pbcopy should be available by default on macOS"
	case "windows":
		return "the Windows clipboard API is always available"
	default:
		return fmt.Sprintf("Clipboard not supported on %s", goos)
	}
}
