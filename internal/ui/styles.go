// Package ui provides terminal styling for pk output.
// Uses the Ayu color theme with adaptive light/dark mode support.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/steveyegge/pikpoint/internal/types"
)

// Ayu theme palette
var (
	ColorPass   = lipgloss.AdaptiveColor{Light: "#86b300", Dark: "#c2d94c"}
	ColorWarn   = lipgloss.AdaptiveColor{Light: "#f2ae49", Dark: "#ffb454"}
	ColorFail   = lipgloss.AdaptiveColor{Light: "#f07171", Dark: "#f07178"}
	ColorMuted  = lipgloss.AdaptiveColor{Light: "#828c99", Dark: "#6c7680"}
	ColorAccent = lipgloss.AdaptiveColor{Light: "#399ee6", Dark: "#59c2ff"}
)

var (
	PassStyle     = lipgloss.NewStyle().Foreground(ColorPass)
	WarnStyle     = lipgloss.NewStyle().Foreground(ColorWarn)
	FailStyle     = lipgloss.NewStyle().Foreground(ColorFail)
	MutedStyle    = lipgloss.NewStyle().Foreground(ColorMuted)
	AccentStyle   = lipgloss.NewStyle().Foreground(ColorAccent)
	CategoryStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
)

const (
	IconPass = "✓"
	IconWarn = "⚠"
	IconFail = "✗"
	IconSkip = "-"
)

const SeparatorLight = "──────────────────────────────────────────"

// storyPalette maps card colors to terminal colors close to the board's.
var storyPalette = map[types.Color]lipgloss.TerminalColor{
	types.ColorGrey:   lipgloss.AdaptiveColor{Light: "#828c99", Dark: "#a0a8b0"},
	types.ColorBlue:   lipgloss.AdaptiveColor{Light: "#399ee6", Dark: "#59c2ff"},
	types.ColorRed:    lipgloss.AdaptiveColor{Light: "#f07171", Dark: "#f07178"},
	types.ColorGreen:  lipgloss.AdaptiveColor{Light: "#86b300", Dark: "#c2d94c"},
	types.ColorOrange: lipgloss.AdaptiveColor{Light: "#fa8d3e", Dark: "#ff8f40"},
	types.ColorYellow: lipgloss.AdaptiveColor{Light: "#f2ae49", Dark: "#ffb454"},
	types.ColorPurple: lipgloss.AdaptiveColor{Light: "#a37acc", Dark: "#d2a6ff"},
	types.ColorTeal:   lipgloss.AdaptiveColor{Light: "#4cbf99", Dark: "#95e6cb"},
}

func RenderPass(s string) string   { return PassStyle.Render(s) }
func RenderWarn(s string) string   { return WarnStyle.Render(s) }
func RenderFail(s string) string   { return FailStyle.Render(s) }
func RenderMuted(s string) string  { return MutedStyle.Render(s) }
func RenderAccent(s string) string { return AccentStyle.Render(s) }

// RenderCategory renders a section header in uppercase.
func RenderCategory(s string) string {
	return CategoryStyle.Render(strings.ToUpper(s))
}

func RenderSeparator() string {
	return MutedStyle.Render(SeparatorLight)
}

// RenderStoryColor renders the color name in (roughly) that color.
func RenderStoryColor(c types.Color) string {
	tc, ok := storyPalette[c]
	if !ok {
		return string(c)
	}
	return lipgloss.NewStyle().Foreground(tc).Render("● " + string(c))
}
