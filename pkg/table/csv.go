package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNoHeader is returned when a CSV source has no header row.
var ErrNoHeader = errors.New("csv has no header row")

// ReadOption configures ReadCSV.
type ReadOption func(*readConfig)

type readConfig struct {
	limit int
}

// WithRowLimit stops reading after n data rows. Zero or less reads all rows.
func WithRowLimit(n int) ReadOption {
	return func(c *readConfig) { c.limit = n }
}

// ReadCSV loads a CSV file with a header row. Every value is read as a string
// and the result is normalised.
func ReadCSV(path string, opts ...ReadOption) (Table, error) {
	f, err := os.Open(path) //#nosec G304 -- reference files are user supplied
	if err != nil {
		return Table{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	t, err := ReadCSVFrom(f, opts...)
	if err != nil {
		return Table{}, fmt.Errorf("read %s: %w", path, err)
	}
	return t, nil
}

// ReadCSVFrom is ReadCSV over an arbitrary reader.
func ReadCSVFrom(r io.Reader, opts ...ReadOption) (Table, error) {
	cfg := &readConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return Table{}, ErrNoHeader
	}
	if err != nil {
		return Table{}, err
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t := New(header...)
	for cfg.limit <= 0 || t.Len() < cfg.limit {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, err
		}
		t.Append(rec...)
	}
	return Normalize(t), nil
}

// WriteCSV writes the header and all rows.
func (t Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// CSV renders the table as CSV text.
func (t Table) CSV() string {
	var buf bytes.Buffer
	_ = t.WriteCSV(&buf)
	return buf.String()
}
