package presentation

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	TextPrimaryColor     = lipgloss.AdaptiveColor{Light: "#333333", Dark: "#CCCCCC"}
	TextMutedColor       = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#696969"}
	TextDescriptionColor = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#999999"}
	BorderDefaultColor   = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#696969"}
	HeaderColor          = lipgloss.AdaptiveColor{Light: "#1E66F5", Dark: "#89B4FA"}
	SelectedColor        = lipgloss.AdaptiveColor{Light: "#8839EF", Dark: "#CBA6F7"}

	StatusSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	StatusWarningColor = lipgloss.AdaptiveColor{Light: "#DF8E1D", Dark: "#FECA57"}
	StatusErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}

	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(HeaderColor).Padding(0, 1)
	cellStyle     = lipgloss.NewStyle().Foreground(TextPrimaryColor).Padding(0, 1)
	mutedStyle    = lipgloss.NewStyle().Foreground(TextMutedColor).Padding(0, 1)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(SelectedColor).Padding(0, 1)
	borderStyle   = lipgloss.NewStyle().Foreground(BorderDefaultColor)

	addedStyle   = lipgloss.NewStyle().Foreground(StatusSuccessColor)
	removedStyle = lipgloss.NewStyle().Foreground(StatusErrorColor)
	contextStyle = lipgloss.NewStyle().Foreground(TextDescriptionColor)

	WarningStyle = lipgloss.NewStyle().Foreground(StatusWarningColor)
)

// SetNoColor switches all rendering to plain ASCII output.
func SetNoColor(noColor bool) {
	if noColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}
