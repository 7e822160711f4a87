package output

import (
	"bufio"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLWriter buffers values and writes one YAML document on Flush. A table
// becomes a sequence of row mappings.
type YAMLWriter struct {
	w     *bufio.Writer
	items []any
}

// NewYAMLWriter creates a YAML writer.
func NewYAMLWriter(w io.Writer) *YAMLWriter {
	return &YAMLWriter{w: bufio.NewWriter(w), items: []any{}}
}

// Write buffers data.
func (w *YAMLWriter) Write(data any) error {
	recs, isTable, err := tableRecords(data)
	if err != nil {
		return err
	}
	if isTable {
		data = recs
	}
	w.items = append(w.items, data)
	return nil
}

// Flush encodes the buffered values with a two-space indent.
func (w *YAMLWriter) Flush() error {
	var doc any = w.items
	if len(w.items) == 1 {
		doc = w.items[0]
	}

	enc := yaml.NewEncoder(w.w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return w.w.Flush()
}

// Close flushes the writer.
func (w *YAMLWriter) Close() error {
	return w.Flush()
}
