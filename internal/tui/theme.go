// Package tui renders the full-screen dashboard: paged fleet views, a
// live feed, and a command prompt wired to the bus.
//
// All colors use AdaptiveColor for light/dark terminal support, and
// CheckNoColor honors the NO_COLOR convention.
package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

//nolint:gochecknoglobals // package-level styling API
var (
	// ColorPrimary is blue, used for the active page and highlights.
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#0087AF", Dark: "#00D7FF"}

	// ColorSuccess is green, used for onboard devices and synced state.
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#008700", Dark: "#00FF87"}

	// ColorWarning is yellow, used for stale versions and pending todos.
	ColorWarning = lipgloss.AdaptiveColor{Light: "#AF8700", Dark: "#FFD700"}

	// ColorError is red, used for sync errors and offboard devices.
	ColorError = lipgloss.AdaptiveColor{Light: "#AF0000", Dark: "#FF5F5F"}

	// ColorMuted is gray, used for secondary text.
	ColorMuted = lipgloss.AdaptiveColor{Light: "#585858", Dark: "#6C6C6C"}

	styleTitle     = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	styleTabActive = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary).Underline(true)
	styleTab       = lipgloss.NewStyle().Foreground(ColorMuted)
	styleGood      = lipgloss.NewStyle().Foreground(ColorSuccess)
	styleWarn      = lipgloss.NewStyle().Foreground(ColorWarning)
	styleBad       = lipgloss.NewStyle().Foreground(ColorError)
	styleMuted     = lipgloss.NewStyle().Foreground(ColorMuted)
	stylePrompt    = lipgloss.NewStyle().Bold(true)
)

// CheckNoColor disables color output when NO_COLOR is set or the
// terminal is dumb.
func CheckNoColor() {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}
