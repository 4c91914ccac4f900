package report

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/pkgtally/pkg/stats"
)

var (
	colorCyan = lipgloss.Color("36")
	colorGray = lipgloss.Color("245")
	colorDim  = lipgloss.Color("240")

	headerStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	totalStyle  = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
	cellStyle   = lipgloss.NewStyle().PaddingLeft(1).PaddingRight(1)
)

// Terminal renders t as a bordered table for interactive output.
func Terminal(t *stats.Table) string {
	registries := t.Registries()

	headers := make([]string, 0, len(registries)+2)
	headers = append(headers, "Package")
	for _, reg := range registries {
		headers = append(headers, reg.DisplayName())
	}
	headers = append(headers, "Total")

	var rows [][]string
	for _, pkg := range t.Packages() {
		row := make([]string, 0, len(headers))
		row = append(row, pkg)
		for _, reg := range registries {
			entry, ok := t.Entry(pkg, reg)
			row = append(row, FormatCount(t.Count(pkg, reg))+cellSuffix(entry, ok))
		}
		row = append(row, FormatCount(t.RowTotal(pkg)))
		rows = append(rows, row)
	}

	totals := make([]string, 0, len(headers))
	totals = append(totals, "Total")
	for _, reg := range registries {
		totals = append(totals, FormatCount(t.ColumnTotal(reg)))
	}
	totals = append(totals, FormatCount(t.GrandTotal()))
	rows = append(rows, totals)

	totalRow := len(rows) - 1
	rendered := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return cellStyle.Inherit(headerStyle)
			case row == totalRow && col > 0:
				return cellStyle.Inherit(totalStyle).AlignHorizontal(lipgloss.Right)
			case row == totalRow:
				return cellStyle.Inherit(totalStyle)
			case col > 0:
				return cellStyle.AlignHorizontal(lipgloss.Right)
			default:
				return cellStyle
			}
		})

	return rendered.Render()
}
