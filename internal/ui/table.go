package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

const (
	tableCellHorizontalPaddingConstant = 1
	headerRowIndexConstant             = table.HeaderRow
)

// MetricsTable renders labelled rows of metric values as a bordered table.
type MetricsTable struct {
	headerStyle lipgloss.Style
	cellStyle   lipgloss.Style
	borderStyle lipgloss.Style
}

// NewMetricsTable constructs a table renderer with the default palette.
func NewMetricsTable() MetricsTable {
	return MetricsTable{
		headerStyle: lipgloss.NewStyle().Bold(true).Padding(0, tableCellHorizontalPaddingConstant),
		cellStyle:   lipgloss.NewStyle().Padding(0, tableCellHorizontalPaddingConstant),
		borderStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// Render returns the table text for the supplied headers and rows.
func (renderer MetricsTable) Render(headers []string, rows [][]string) string {
	renderedTable := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(renderer.borderStyle).
		StyleFunc(func(row int, column int) lipgloss.Style {
			if row == headerRowIndexConstant {
				return renderer.headerStyle
			}
			return renderer.cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	return renderedTable.String()
}
