// Package cli provides styled terminal output and the interactive
// possible-match review prompt.
package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/veridian-labs/veridian/internal/model"
)

var (
	// ClearColor indicates a CLEAR screening outcome.
	ClearColor = lipgloss.Color("#4ECDC4") // Teal
	// PossibleColor indicates a POSSIBLE_MATCH outcome needing review.
	PossibleColor = lipgloss.Color("#FFE66D") // Yellow
	// MatchColor indicates a MATCH outcome.
	MatchColor = lipgloss.Color("#FF6B6B") // Red
	// InfoColor indicates informational messages.
	InfoColor = lipgloss.Color("#95E1D3") // Light teal
	// SubtleColor indicates less prominent UI elements.
	SubtleColor = lipgloss.Color("#666666") // Gray

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(InfoColor).
			MarginBottom(1)

	// ClearStyle formats CLEAR verdicts.
	ClearStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ClearColor)

	// PossibleStyle formats POSSIBLE_MATCH verdicts.
	PossibleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PossibleColor)

	// MatchStyle formats MATCH verdicts.
	MatchStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(MatchColor)

	// SubtleStyle formats less prominent text.
	SubtleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// BoxStyle is used for bordered match evidence boxes.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(SubtleColor).
			Padding(0, 1)
)

// OutcomeStyle returns the style for a screening outcome.
func OutcomeStyle(outcome model.ScreeningOutcome) lipgloss.Style {
	switch outcome {
	case model.OutcomeMatch:
		return MatchStyle
	case model.OutcomePossibleMatch:
		return PossibleStyle
	default:
		return ClearStyle
	}
}
