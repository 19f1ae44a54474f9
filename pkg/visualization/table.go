package visualization

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// Table is a model for data.
type Table struct {
	headers []string
	data    [][]string
}

// NewTable creates new model of data representation.
func NewTable(headers []string, data [][]string) *Table {
	return &Table{
		headers,
		data,
	}
}

// Headers returns the table's header row.
func (t *Table) Headers() []string {
	return t.headers
}

// Rows returns the table's data rows.
func (t *Table) Rows() [][]string {
	return t.data
}

// DrawTable draws a struct with headers and data rows.
func DrawTable(writer io.Writer, table *Table) {
	output := tablewriter.NewWriter(writer)
	output.SetHeader(table.headers)
	for _, v := range table.data {
		output.Append(v)
	}
	output.Render()
}
