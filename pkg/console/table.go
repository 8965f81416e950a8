package console

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	tableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#BD93F9")).
				Background(lipgloss.Color("#44475A"))

	tableCellStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8F8F2"))

	tableBorderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#6272A4"))

	tableSeparatorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#44475A"))
)

// Table is a titled grid of cells.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Footer  []string // rendered after a separator when set
}

// RenderTable renders t with every column padded to its widest cell. Widths
// are measured in terminal cells, so multi-byte values line up.
func RenderTable(t Table) string {
	if len(t.Headers) == 0 {
		return ""
	}

	var output strings.Builder
	if t.Title != "" {
		output.WriteString(applyStyle(successStyle, t.Title))
		output.WriteString("\n")
	}

	widths := make([]int, len(t.Headers))
	measure := func(row []string) {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}
	measure(t.Headers)
	for _, row := range t.Rows {
		measure(row)
	}
	measure(t.Footer)

	separator := make([]string, len(widths))
	for i, w := range widths {
		separator[i] = strings.Repeat("-", w)
	}

	output.WriteString(renderRow(t.Headers, widths, tableHeaderStyle))
	output.WriteString(renderRow(separator, widths, tableSeparatorStyle))
	for _, row := range t.Rows {
		output.WriteString(renderRow(row, widths, tableCellStyle))
	}
	if len(t.Footer) > 0 {
		output.WriteString(renderRow(separator, widths, tableSeparatorStyle))
		output.WriteString(renderRow(t.Footer, widths, successStyle))
	}
	return output.String()
}

func renderRow(cells []string, widths []int, style lipgloss.Style) string {
	var row strings.Builder
	for i, w := range widths {
		var cell string
		if i < len(cells) {
			cell = cells[i]
		}
		if i > 0 {
			row.WriteString(applyStyle(tableBorderStyle, " | "))
		}
		padded := cell
		if pad := w - lipgloss.Width(cell); pad > 0 && i < len(widths)-1 {
			padded += strings.Repeat(" ", pad)
		}
		row.WriteString(applyStyle(style, padded))
	}
	row.WriteString("\n")
	return row.String()
}
