package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/parsegen/pkg/table"
)

// Record is one table row keyed by column name. Keys keep column order in
// both JSON and YAML.
type Record struct {
	keys   []string
	values []string
}

// Records converts t into one Record per row. Missing trailing cells are
// empty; cells past the last column get the key "column_<n>" (1-based).
func Records(t table.Table) []Record {
	out := make([]Record, len(t.Rows))
	for i, row := range t.Rows {
		width := len(t.Columns)
		if len(row) > width {
			width = len(row)
		}
		rec := Record{keys: make([]string, width), values: make([]string, width)}
		for j := 0; j < width; j++ {
			if j < len(t.Columns) {
				rec.keys[j] = t.Columns[j]
			} else {
				rec.keys[j] = "column_" + strconv.Itoa(j+1)
			}
			if j < len(row) {
				rec.values[j] = row[j]
			}
		}
		out[i] = rec
	}
	return out
}

// Get returns the value under key.
func (r Record) Get(key string) (string, bool) {
	for i, k := range r.keys {
		if k == key {
			return r.values[i], true
		}
	}
	return "", false
}

// MarshalJSON writes the record as an object in column order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML writes the record as a mapping in column order.
func (r Record) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for i, k := range r.keys {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: r.values[i]},
		)
	}
	return node, nil
}

// tableRecords reports whether data is a table and, if so, its records.
func tableRecords(data any) ([]Record, bool, error) {
	switch t := data.(type) {
	case table.Table:
		return Records(t), true, nil
	case *table.Table:
		if t == nil {
			return nil, true, fmt.Errorf("nil table")
		}
		return Records(*t), true, nil
	default:
		return nil, false, nil
	}
}
