package renderer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

// RenderTerminal styles filled contract text for a terminal of the given width.
// Line breaks are kept as hard breaks so clause layout survives markdown rendering.
func RenderTerminal(text string, width int) (string, error) {
	if width <= 0 {
		width = 80
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create terminal renderer: %w", err)
	}

	out, err := tr.Render(strings.ReplaceAll(text, "\n", "  \n"))
	if err != nil {
		return "", fmt.Errorf("failed to render contract: %w", err)
	}
	return out, nil
}
