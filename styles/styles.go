package styles

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Adaptive colors for light/dark themes
	AccentColor  = lipgloss.AdaptiveColor{Light: "#005f87", Dark: "#00afd7"}
	SuccessColor = lipgloss.AdaptiveColor{Light: "#008700", Dark: "#00d700"}
	WarningColor = lipgloss.AdaptiveColor{Light: "#af8700", Dark: "#ffd700"}
	ErrorColor   = lipgloss.AdaptiveColor{Light: "#ff7092", Dark: "#ff7092"}
	MutedColor   = lipgloss.AdaptiveColor{Light: "#6c757d", Dark: "#adb5bd"}
	Purple       = lipgloss.AdaptiveColor{Light: "#6920e8", Dark: "#8454fc"}
)

var BtnStyleV2 = lipgloss.
	NewStyle().
	Transform(func(text string) string { return fmt.Sprintf("[ %s ]", text) })

var PositiveBtn = BtnStyleV2.
	Background(SuccessColor).
	Foreground(lipgloss.Color("#ffffff"))

var NegativeBtn = BtnStyleV2.
	Background(ErrorColor).
	Foreground(lipgloss.Color("#ffffff"))

// PrivateTag marks private folders in the folder lists.
var PrivateTag = lipgloss.NewStyle().
	Foreground(Purple).
	Bold(true)

var Muted = lipgloss.NewStyle().Foreground(MutedColor)

var Tab = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder(), true).
	Padding(0, 2)

var ActiveTab = Tab.
	Bold(true).
	Foreground(AccentColor).
	BorderForeground(AccentColor)
