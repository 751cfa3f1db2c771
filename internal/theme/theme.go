package theme

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue   = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen  = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite  = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for the application title bar.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// ChatPanelStyle wraps the chat viewport.
var ChatPanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// DoneStyle renders completed task titles.
var DoneStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Strikethrough(true)

// AssistantStyle renders agent replies in the chat view.
var AssistantStyle = lipgloss.NewStyle().
	Foreground(ColorGreen)

// UserStyle renders the user's own chat messages.
var UserStyle = lipgloss.NewStyle().
	Foreground(ColorBlue).
	Bold(true)

// StatusGlyph returns the checkbox glyph for a task's completion state.
func StatusGlyph(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

// PriorityStyle returns a color-coded style for the given priority name.
func PriorityStyle(priority string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch priority {
	case "high":
		return base.Foreground(ColorRed)
	case "medium":
		return base.Foreground(ColorYellow)
	case "low":
		return base.Foreground(ColorBlue)
	default:
		return base.Foreground(ColorGray)
	}
}
