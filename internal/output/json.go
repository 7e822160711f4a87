package output

import (
	"bufio"
	"encoding/json"
	"io"
)

// JSONWriter buffers values and writes them as one JSON document on Flush.
// A table becomes an array of row records.
type JSONWriter struct {
	w      *bufio.Writer
	pretty bool
	indent string
	items  []any
}

// NewJSONWriter creates a JSON writer.
func NewJSONWriter(w io.Writer, pretty bool, indent string) *JSONWriter {
	return &JSONWriter{w: bufio.NewWriter(w), pretty: pretty, indent: indent, items: []any{}}
}

// Write buffers data. Tables are converted to records here.
func (w *JSONWriter) Write(data any) error {
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

// Flush writes the buffered values: a single value on its own, several as
// an array.
func (w *JSONWriter) Flush() error {
	var doc any = w.items
	if len(w.items) == 1 {
		doc = w.items[0]
	}

	enc := json.NewEncoder(w.w)
	if w.pretty {
		enc.SetIndent("", w.indent)
	}
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return w.w.Flush()
}

// Close flushes the writer.
func (w *JSONWriter) Close() error {
	return w.Flush()
}

// JSONLWriter writes one JSON value per line. A table is written as one
// line per row.
type JSONLWriter struct {
	w *bufio.Writer
}

// NewJSONLWriter creates a JSONL writer.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	return &JSONLWriter{w: bufio.NewWriter(w)}
}

// Write writes data as one or more lines.
func (w *JSONLWriter) Write(data any) error {
	recs, isTable, err := tableRecords(data)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w.w)
	if !isTable {
		return enc.Encode(data)
	}
	for _, rec := range recs {
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the buffer.
func (w *JSONLWriter) Flush() error {
	return w.w.Flush()
}

// Close flushes the writer.
func (w *JSONLWriter) Close() error {
	return w.Flush()
}
