package ui

import (
	"charm.land/glamour/v2"
	"charm.land/glamour/v2/styles"
	"github.com/charmbracelet/lipgloss"
)

// maxReadableWidth caps the wrap width; wider lines are hard to scan.
const maxReadableWidth = 100

// RenderMarkdown renders markdown for the terminal, or returns it unchanged
// when colors are off or glamour fails.
func RenderMarkdown(markdown string) string {
	if !ShouldUseColor() {
		return markdown
	}
	width := TerminalWidth(80)
	if width > maxReadableWidth {
		width = maxReadableWidth
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(markdownStyle(lipgloss.HasDarkBackground())),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return markdown
	}
	rendered, err := renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return rendered
}

// markdownStyle picks the glamour style matching the terminal background.
func markdownStyle(dark bool) string {
	if dark {
		return styles.DarkStyle
	}
	return styles.LightStyle
}
