// Package render formats reporting records for a terminal.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"angles-reporter/src/contracts"
)

const (
	badgeWidth   = 6
	defaultWidth = 100
	stepIndent   = 4
)

// Renderer formats executions and builds with a fixed style palette.
type Renderer struct {
	styles *StyleConfig
}

// New creates a renderer. A nil config selects DefaultStyles.
func New(styles *StyleConfig) *Renderer {
	if styles == nil {
		styles = DefaultStyles()
	}
	return &Renderer{styles: styles}
}

// Execution renders exec with the default palette.
func Execution(exec *contracts.Execution, width int) string {
	return New(nil).Execution(exec, width)
}

// Execution renders a title line, one line per action and one line per step.
// Every line fits in width display columns; width <= 0 selects 100.
func (r *Renderer) Execution(exec *contracts.Execution, width int) string {
	if exec == nil {
		return ""
	}
	if width <= 0 {
		width = defaultWidth
	}

	var b strings.Builder

	status := exec.Status()
	title := Truncate(exec.Title, width-badgeWidth-1)
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		r.styles.BadgeStyle(status).Render(string(status)),
		" ",
		r.styles.TitleStyle().Render(title),
	)
	b.WriteString(header)
	if exec.Suite != "" {
		if room := width - badgeWidth - 1 - VisualWidth(title) - 3; room > 0 {
			b.WriteString(r.styles.MutedStyle().Render(" [" + Truncate(exec.Suite, room) + "]"))
		}
	}
	b.WriteString("\n")

	for _, action := range exec.Actions {
		label := fmt.Sprintf("%s (%d steps)", action.Name, len(action.Steps))
		b.WriteString("  ")
		b.WriteString(r.styles.MutedStyle().Render(Truncate(label, width-2)))
		b.WriteString("\n")

		for _, step := range action.Steps {
			b.WriteString(r.step(step, width))
			b.WriteString("\n")
		}
	}

	return b.String()
}

func (r *Renderer) step(step contracts.Step, width int) string {
	room := width - stepIndent - badgeWidth - 1

	text := step.Name
	switch {
	case step.Status == contracts.StepInfo || step.Status == contracts.StepError:
		if step.Info != "" {
			text = step.Info
		}
	case step.Expected != "" || step.Actual != "":
		text = fmt.Sprintf("%s: expected %q, got %q", step.Name, step.Expected, step.Actual)
	}
	line, more := firstLine(text)
	if more {
		line += " ..."
	}
	if step.ScreenshotID != "" {
		line += " [screenshot " + step.ScreenshotID + "]"
	}

	return strings.Repeat(" ", stepIndent) +
		r.styles.BadgeStyle(step.Status).Render(string(step.Status)) +
		" " +
		Truncate(line, room)
}

// Build renders a one-line build summary.
func (r *Renderer) Build(build *contracts.Build, width int) string {
	if build == nil {
		return ""
	}
	if width <= 0 {
		width = defaultWidth
	}

	text := fmt.Sprintf("%s (%s) team=%s env=%s component=%s artifacts=%d",
		build.Name, build.ID, build.Team, build.Environment, build.Component, len(build.Artifacts))
	return r.styles.TitleStyle().Render(Truncate(text, width))
}
