// Package preview models the spreadsheet head shown on the dashboard and
// renders it as an HTML table.
package preview

import (
	"encoding/json"
	"fmt"
)

// Table is the head of a spreadsheet: column names plus rows of cell values
// in column order. It only lives for a single render.
type Table struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// IsEmpty reports whether there are no rows to show
func (t *Table) IsEmpty() bool {
	return t == nil || len(t.Rows) == 0
}

// FromRecords builds a table from array-of-records data. Columns follow the
// key order of the first record; later records are read by those columns,
// missing keys becoming empty cells.
func FromRecords(columns []string, records []map[string]any) *Table {
	t := &Table{Columns: append([]string(nil), columns...), Rows: make([][]any, 0, len(records))}
	for _, rec := range records {
		row := make([]any, len(columns))
		for i, col := range columns {
			row[i] = rec[col]
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// FromHead builds a table from column/row data whose header cells may be
// any JSON value; headers are formatted like cells.
func FromHead(columns []any, rows [][]any) *Table {
	t := &Table{Columns: make([]string, len(columns)), Rows: rows}
	for i, col := range columns {
		t.Columns[i] = FormatCell(col)
	}
	if t.Rows == nil {
		t.Rows = [][]any{}
	}
	return t
}

// FormatCell renders one cell value as text
func FormatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return fmt.Sprintf("%g", val)
	default:
		return fmt.Sprint(val)
	}
}
