// Package table holds the tabular values that generated parsers return and
// that reference files are loaded into, together with the normalisation and
// comparison rules used to decide whether a parser is correct.
//
// A Table is deliberately string-typed: every cell is compared by its text
// after normalisation, and a missing value is the empty string.
package table

import (
	"fmt"
	"strings"
)

// Table is a set of rows under named columns.
type Table struct {
	Columns []string   `json:"columns" yaml:"columns"`
	Rows    [][]string `json:"rows" yaml:"rows"`
}

// New creates an empty table with the given columns.
func New(columns ...string) Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return Table{Columns: cols, Rows: [][]string{}}
}

// Append adds a row. Cells are copied so callers may reuse their slice.
func (t *Table) Append(cells ...string) {
	row := make([]string, len(cells))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
}

// Len returns the number of rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// Column returns the index of the named column, or -1.
func (t Table) Column(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy.
func (t Table) Clone() Table {
	out := Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([][]string, len(t.Rows)),
	}
	for i, r := range t.Rows {
		out.Rows[i] = append([]string(nil), r...)
	}
	return out
}

// Shape is a (rows, columns) pair used in mismatch diagnostics.
type Shape struct {
	Rows int
	Cols int
}

// String renders the shape as "(rows, cols)".
func (s Shape) String() string {
	return fmt.Sprintf("(%d, %d)", s.Rows, s.Cols)
}

// Shape reports the table dimensions. The column count is the widest of the
// header and any row, so ragged output is visible in diagnostics.
func (t Table) Shape() Shape {
	cols := len(t.Columns)
	for _, r := range t.Rows {
		if len(r) > cols {
			cols = len(r)
		}
	}
	return Shape{Rows: len(t.Rows), Cols: cols}
}

// String renders a short human-readable summary.
func (t Table) String() string {
	return fmt.Sprintf("table%s[%s]", t.Shape(), strings.Join(t.Columns, ", "))
}
