package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"finanzbuch/internal/investing"
	"finanzbuch/internal/sheets"
)

var (
	muted       = lipgloss.NewStyle().Foreground(lipgloss.Color("#7f849c"))
	warn        = lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8")).Bold(true)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#89b4fa")).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
	totalStyle  = numberStyle.Bold(true)
)

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// renderTable draws rows under headers. Columns listed in numeric are
// right-aligned.
func renderTable(headers []string, rows [][]string, numeric map[int]bool) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(muted).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case numeric[col]:
				return numberStyle
			}
			return cellStyle
		}).
		String()
}

func renderSections(plan []investing.Section) string {
	rows := make([][]string, 0, len(plan))
	for _, s := range plan {
		rows = append(rows, []string{s.Start.String(), s.End.String(), money(s.Amount), s.Interval.String()})
	}
	return renderTable([]string{"Start", "End", "Amount", "Interval"}, rows, map[int]bool{2: true})
}

// renderLedger shows the depot totals, or every row when all is set. The
// columns are those of the spreadsheet export.
func renderLedger(l investing.Ledger, all bool) string {
	exported := sheets.Rows(l)
	headers := make([]string, 0, len(exported[0]))
	for _, h := range exported[0] {
		headers = append(headers, fmt.Sprint(h))
	}

	const entryCol = 1
	var rows [][]string
	for _, cells := range exported[1:] {
		if !all && cells[entryCol] != sheets.TotalLabel {
			continue
		}
		row := make([]string, 0, len(cells))
		for _, c := range cells {
			switch v := c.(type) {
			case float64:
				row = append(row, money(v))
			default:
				row = append(row, fmt.Sprint(v))
			}
		}
		rows = append(rows, row)
	}

	numeric := make(map[int]bool, len(headers))
	for i := entryCol + 1; i < len(headers); i++ {
		numeric[i] = true
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(muted).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case numeric[col] && all && isTotal(rows, row):
				return totalStyle
			case numeric[col]:
				return numberStyle
			}
			return cellStyle
		})
	return strings.TrimRight(t.String(), "\n")
}

// isTotal reports whether the table row at index row is a depot total.
// Data rows are counted after the header row.
func isTotal(rows [][]string, row int) bool {
	i := row - table.HeaderRow - 1
	return i >= 0 && i < len(rows) && rows[i][1] == sheets.TotalLabel
}
