package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"linefix/internal/processor"
)

type SummaryRow struct {
	Label string
	Value string
}

// SummaryRows turns a run summary into table rows. Scan runs report files
// that would change instead of bytes written.
func SummaryRows(s processor.Summary, scan bool) []SummaryRow {
	rows := []SummaryRow{
		{Label: "Files matched", Value: fmt.Sprintf("%d", s.Total)},
		{Label: "Files processed", Value: fmt.Sprintf("%d", s.Processed)},
	}
	if scan {
		rows = append(rows, SummaryRow{Label: "Need rewrite", Value: fmt.Sprintf("%d", s.Changed)})
	} else {
		rows = append(rows,
			SummaryRow{Label: "Rewritten", Value: fmt.Sprintf("%d", s.Written)},
			SummaryRow{Label: "Bytes written", Value: humanize.Bytes(uint64(s.BytesWritten))},
		)
	}
	rows = append(rows,
		SummaryRow{Label: "Unchanged", Value: fmt.Sprintf("%d", s.Skipped)},
		SummaryRow{Label: "Charset fallbacks", Value: fmt.Sprintf("%d", s.Warnings)},
		SummaryRow{Label: "Failed", Value: fmt.Sprintf("%d", s.Failed)},
	)
	return rows
}

func RenderSummary(rows []SummaryRow) string {
	labelWidth := 0
	valueWidth := 0
	for _, row := range rows {
		if len(row.Label) > labelWidth {
			labelWidth = len(row.Label)
		}
		if len(row.Value) > valueWidth {
			valueWidth = len(row.Value)
		}
	}

	hline := strings.Repeat("-", labelWidth+valueWidth+3)
	lines := []string{hline}

	for _, row := range rows {
		label := padRight(row.Label, labelWidth)
		value := padRight(row.Value, valueWidth)
		line := fmt.Sprintf("%s | %s", labelStyle.Render(label), valueStyle.Render(value))
		lines = append(lines, line)
	}

	lines = append(lines, hline)
	return strings.Join(lines, "\n")
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

var (
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
)
