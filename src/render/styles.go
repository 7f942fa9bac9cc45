package render

import (
	"github.com/charmbracelet/lipgloss"

	"angles-reporter/src/contracts"
)

// StyleConfig holds the colors used for execution output.
type StyleConfig struct {
	TextPrimary   lipgloss.Color
	TextSecondary lipgloss.Color
	Title         lipgloss.Color

	// Badge colors per step state
	Pass  lipgloss.Color
	Fail  lipgloss.Color
	Error lipgloss.Color
	Info  lipgloss.Color
}

// DefaultStyles returns the default color palette
func DefaultStyles() *StyleConfig {
	return &StyleConfig{
		TextPrimary:   lipgloss.Color("#E8EAED"),
		TextSecondary: lipgloss.Color("#9AA0A6"),
		Title:         lipgloss.Color("#8AB4F8"),
		Pass:          lipgloss.Color("#34A853"),
		Fail:          lipgloss.Color("#EA4335"),
		Error:         lipgloss.Color("#FBBC04"),
		Info:          lipgloss.Color("#24C1E0"),
	}
}

// TitleStyle is used for the execution header line.
func (s *StyleConfig) TitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.Title).
		Bold(true)
}

// MutedStyle is used for suite names, action headers and step details.
func (s *StyleConfig) MutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(s.TextSecondary)
}

// BadgeStyle returns a fixed-width bold badge colored by state.
func (s *StyleConfig) BadgeStyle(state contracts.StepState) lipgloss.Style {
	color := s.TextPrimary
	switch state {
	case contracts.StepPass:
		color = s.Pass
	case contracts.StepFail:
		color = s.Fail
	case contracts.StepError:
		color = s.Error
	case contracts.StepInfo:
		color = s.Info
	}
	return lipgloss.NewStyle().
		Foreground(color).
		Bold(true).
		Width(badgeWidth)
}
