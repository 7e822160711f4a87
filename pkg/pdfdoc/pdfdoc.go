// Package pdfdoc is the small document API that generated parsers are allowed
// to call. It exposes the text of a PDF page by page, either as plain text or
// as rows of positioned text fragments, which is usually enough to rebuild a
// statement table.
package pdfdoc

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Document is an open PDF file.
type Document struct {
	path string
	f    *os.File
	r    *pdf.Reader
}

// Open opens the PDF at path. Callers must Close it.
func Open(path string) (*Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	return &Document{path: path, f: f, r: r}, nil
}

// Close releases the underlying file.
func (d *Document) Close() error {
	if d.f == nil {
		return nil
	}
	err := d.f.Close()
	d.f = nil
	return err
}

// NumPages returns the page count.
func (d *Document) NumPages() int {
	return d.r.NumPage()
}

func (d *Document) page(n int) (pdf.Page, error) {
	if n < 1 || n > d.NumPages() {
		return pdf.Page{}, fmt.Errorf("page %d out of range (1-%d)", n, d.NumPages())
	}
	p := d.r.Page(n)
	if p.V.IsNull() {
		return pdf.Page{}, fmt.Errorf("page %d not found", n)
	}
	return p, nil
}

// PageText returns the plain text of page n (1-based).
func (d *Document) PageText(n int) (string, error) {
	p, err := d.page(n)
	if err != nil {
		return "", err
	}
	return p.GetPlainText(nil)
}

// PageRows returns the text fragments of page n grouped into visual rows,
// top to bottom, each row ordered left to right. Empty fragments are dropped.
func (d *Document) PageRows(n int) ([][]string, error) {
	p, err := d.page(n)
	if err != nil {
		return nil, err
	}
	rows, err := p.GetTextByRow()
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", n, err)
	}

	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		var cells []string
		for _, text := range row.Content {
			if s := strings.TrimSpace(text.S); s != "" {
				cells = append(cells, s)
			}
		}
		if len(cells) > 0 {
			out = append(out, cells)
		}
	}
	return out, nil
}

// Rows returns PageRows for every page in order.
func (d *Document) Rows() ([][]string, error) {
	var all [][]string
	for n := 1; n <= d.NumPages(); n++ {
		rows, err := d.PageRows(n)
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)
	}
	return all, nil
}

// Lines returns every row of every page joined with single spaces.
func (d *Document) Lines() ([]string, error) {
	rows, err := d.Rows()
	if err != nil {
		return nil, err
	}
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = strings.Join(r, " ")
	}
	return lines, nil
}

// ExtractRows opens path, reads the rows of all pages and closes the file.
func ExtractRows(path string) ([][]string, error) {
	d, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = d.Close() }()
	return d.Rows()
}

// ExtractLines is ExtractRows with each row joined by single spaces.
func ExtractLines(path string) ([]string, error) {
	d, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = d.Close() }()
	return d.Lines()
}
