package format

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

const noData = "No data to display"

var (
	tableBorderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14")).Padding(0, 1)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func renderTable(data any) string {
	items := rows(data)
	if len(items) == 0 {
		return noData
	}

	keys := columns(items)
	headers := make([]string, len(keys))
	for i, key := range keys {
		headers[i] = header(key)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(tableBorderStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		}).
		Headers(headers...)

	for _, item := range items {
		row := make([]string, len(keys))
		for i, key := range keys {
			row[i] = cell(item[key])
		}
		t.Row(row...)
	}
	return t.Render()
}
