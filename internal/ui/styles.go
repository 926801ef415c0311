package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette holds the neutral and semantic colours for the terminal background
type Palette struct {
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Dim     lipgloss.Color
	Border  lipgloss.Color
	Surface lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color
}

// detectPalette picks colours for the terminal background.
// GLAMOUR_STYLE=light or dark overrides detection.
func detectPalette() Palette {
	switch os.Getenv("GLAMOUR_STYLE") {
	case "light":
		return lightPalette()
	case "dark":
		return darkPalette()
	}
	if lipgloss.HasDarkBackground() {
		return darkPalette()
	}
	return lightPalette()
}

func darkPalette() Palette {
	return Palette{
		Text:    lipgloss.Color("252"),
		Muted:   lipgloss.Color("244"),
		Dim:     lipgloss.Color("240"),
		Border:  lipgloss.Color("238"),
		Surface: lipgloss.Color("236"),
		Success: lipgloss.Color("10"),
		Warning: lipgloss.Color("11"),
		Error:   lipgloss.Color("9"),
		Info:    lipgloss.Color("12"),
	}
}

func lightPalette() Palette {
	return Palette{
		Text:    lipgloss.Color("232"),
		Muted:   lipgloss.Color("240"),
		Dim:     lipgloss.Color("244"),
		Border:  lipgloss.Color("248"),
		Surface: lipgloss.Color("254"),
		Success: lipgloss.Color("22"),
		Warning: lipgloss.Color("136"),
		Error:   lipgloss.Color("160"),
		Info:    lipgloss.Color("24"),
	}
}

// Theme is the set of styles for one agency's accent colour
type Theme struct {
	Accent  lipgloss.Color
	Palette Palette

	Title       lipgloss.Style
	Badge       lipgloss.Style
	Pane        lipgloss.Style
	FocusedPane lipgloss.Style
	PaneTitle   lipgloss.Style
	Help        lipgloss.Style
	Metadata    lipgloss.Style
}

// NewTheme builds the styles around accent, a hex or ANSI colour.
// An empty accent uses the default brand pink.
func NewTheme(accent string, p Palette) Theme {
	if accent == "" {
		accent = "205"
	}
	a := lipgloss.Color(accent)
	pane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Border).
		Padding(0, 1)

	return Theme{
		Accent:  a,
		Palette: p,
		Title: lipgloss.NewStyle().
			Foreground(a).
			Bold(true).
			Padding(0, 1),
		Badge: lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(a).
			Bold(true).
			Padding(0, 1),
		Pane:        pane,
		FocusedPane: pane.BorderForeground(a),
		PaneTitle:   lipgloss.NewStyle().Foreground(p.Muted).Bold(true),
		Help:        lipgloss.NewStyle().Foreground(p.Dim),
		Metadata:    lipgloss.NewStyle().Foreground(p.Dim).Padding(0, 1),
	}
}

// Header renders the agency badge followed by the screen title
func (t Theme) Header(agency, title string) string {
	return lipgloss.JoinHorizontal(lipgloss.Left, t.Badge.Render(agency), t.Title.Render(title))
}

// Status renders a one-line message coloured by kind: success, warning, error or info
func (t Theme) Status(text, kind string) string {
	style := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	switch kind {
	case "success":
		style = style.Foreground(t.Palette.Success)
	case "warning":
		style = style.Foreground(t.Palette.Warning)
	case "error":
		style = style.Foreground(t.Palette.Error)
	case "info":
		style = style.Foreground(t.Palette.Info)
	default:
		style = style.Foreground(t.Palette.Text)
	}
	return style.Render(text)
}

// Panel draws content in a bordered box of the given outer size
func (t Theme) Panel(title, content string, width, height int, focused bool) string {
	style := t.Pane
	if focused {
		style = t.FocusedPane
	}
	frameW, frameH := style.GetFrameSize()
	body := lipgloss.JoinVertical(lipgloss.Left, t.PaneTitle.Render(title), content)
	return style.
		Width(max(width-frameW, 1)).
		Height(max(height-frameH, 1)).
		MaxHeight(height).
		Render(body)
}

// ScrollHint shows where the preview is and whether more lines follow
func (t Theme) ScrollHint(atTop, atBottom bool) string {
	switch {
	case atTop && atBottom:
		return ""
	case atTop:
		return t.Metadata.Render("↓ mais")
	case atBottom:
		return t.Metadata.Render("↑ mais")
	default:
		return t.Metadata.Render("↑↓ mais")
	}
}

// Truncate cuts s to width cells, marking the cut with "..."
func Truncate(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+3 > width {
		runes = runes[:len(runes)-1]
	}
	return strings.TrimRight(string(runes), " ") + "..."
}
