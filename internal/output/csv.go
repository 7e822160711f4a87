package output

import (
	"bufio"
	"fmt"
	"io"

	"github.com/jmylchreest/parsegen/pkg/table"
)

// CSVWriter writes tables as CSV. Only table values are accepted.
type CSVWriter struct {
	w *bufio.Writer
}

// NewCSVWriter creates a CSV writer.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: bufio.NewWriter(w)}
}

// Write writes a table with its header row.
func (w *CSVWriter) Write(data any) error {
	switch t := data.(type) {
	case table.Table:
		return t.WriteCSV(w.w)
	case *table.Table:
		if t == nil {
			return fmt.Errorf("csv output: nil table")
		}
		return t.WriteCSV(w.w)
	default:
		return fmt.Errorf("csv output supports tables only, got %T", data)
	}
}

// Flush flushes the buffer.
func (w *CSVWriter) Flush() error {
	return w.w.Flush()
}

// Close flushes the writer.
func (w *CSVWriter) Close() error {
	return w.Flush()
}
