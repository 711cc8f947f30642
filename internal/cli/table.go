package cli

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// renderTable writes rows of string cells under header.
func renderTable(w io.Writer, header []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)
	cells := make([]interface{}, len(header))
	for i, h := range header {
		cells[i] = h
	}
	table.Header(cells...)

	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}
