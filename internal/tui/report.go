package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"linefix/internal/processor"
)

// RenderIssues lists every warning and failure of a run, warnings first.
// It returns an empty string when the run was clean.
func RenderIssues(reports []processor.FileReport) string {
	var warnings, failures []string
	for _, r := range reports {
		for _, w := range r.Warnings {
			warnings = append(warnings, fmt.Sprintf("  %s %s", bulletStyle.Render("-"), warnStyle.Render(w.String())))
		}
		if r.Outcome == processor.OutcomeFailed && r.Err != nil {
			failures = append(failures, fmt.Sprintf("  %s %s", bulletStyle.Render("-"), errorStyle.Render(r.Err.Error())))
		}
	}

	var lines []string
	if len(warnings) > 0 {
		lines = append(lines, headingStyle.Render(fmt.Sprintf("Warnings (%d)", len(warnings))))
		lines = append(lines, warnings...)
	}
	if len(failures) > 0 {
		lines = append(lines, headingStyle.Render(fmt.Sprintf("Failures (%d)", len(failures))))
		lines = append(lines, failures...)
	}
	return strings.Join(lines, "\n")
}

// RenderScan describes each file as the scan command sees it.
func RenderScan(reports []processor.FileReport) string {
	var blocks []string
	for _, r := range reports {
		lines := []string{fileStyle.Render(r.Task.RelPath)}

		if r.Outcome == processor.OutcomeFailed {
			lines = append(lines, fmt.Sprintf("  %s %s", bulletStyle.Render("-"), errorStyle.Render(errString(r.Err))))
			blocks = append(blocks, strings.Join(lines, "\n"))
			continue
		}

		charset := r.Decision.Source.Name
		if r.Decision.Fallback != "" {
			charset += dimStyle.Render(" (fallback)")
		}
		lines = append(lines,
			field("charset", charset),
			field("line endings", fmt.Sprintf("%s  lf:%d crlf:%d cr:%d", r.Style, r.Breaks.LF, r.Breaks.CRLF, r.Breaks.CR)),
		)
		if r.Decision.Target.Name != r.Decision.Source.Name {
			lines = append(lines, field("target", r.Decision.Target.Name))
		}
		status := okStyle.Render("up to date")
		if r.Outcome == processor.OutcomeChanged {
			status = warnStyle.Render("needs rewrite")
		}
		lines = append(lines, field("status", status))
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	return strings.Join(blocks, "\n\n")
}

func field(label, value string) string {
	return fmt.Sprintf("  %s %s", categoryStyle.Render(label+":"), valueStyle.Render(value))
}

func errString(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

var (
	headingStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorInk)
	fileStyle     = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	categoryStyle = lipgloss.NewStyle().Foreground(ColorAccentAlt)
	bulletStyle   = lipgloss.NewStyle().Foreground(ColorDim)
	warnStyle     = lipgloss.NewStyle().Foreground(ColorWarn)
	errorStyle    = lipgloss.NewStyle().Foreground(ColorError)
	okStyle       = lipgloss.NewStyle().Foreground(ColorSuccess)
)
