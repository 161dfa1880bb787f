package render

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

const (
	DefaultStyle = "dracula"
	DefaultWidth = 80
)

// Terminal renders markdown for a terminal with a glamour standard style.
func Terminal(markdown, style string, width int) (string, error) {
	if style == "" {
		style = DefaultStyle
	}
	if width <= 0 {
		width = DefaultWidth
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}
