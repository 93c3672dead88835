package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column describes one table column. Width 0 means the default cap.
type column struct {
	Title string
	Right bool
	Width int
}

const defaultColumnWidth = 60

// renderTable draws rows under cols with rounded borders. Short rows are
// padded and extra cells dropped.
func renderTable(cols []column, rows [][]string) string {
	if len(cols) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := table.Row{}
	configs := make([]table.ColumnConfig, len(cols))
	for i, col := range cols {
		header = append(header, col.Title)
		width := col.Width
		if width <= 0 {
			width = defaultColumnWidth
		}
		configs[i] = table.ColumnConfig{Number: i + 1, AlignHeader: text.AlignLeft, WidthMax: width}
		if col.Right {
			configs[i].Align = text.AlignRight
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, cells := range rows {
		row := make(table.Row, len(cols))
		for i := range row {
			row[i] = ""
			if i < len(cells) {
				row[i] = cells[i]
			}
		}
		tw.AppendRow(row)
	}
	return tw.Render()
}
