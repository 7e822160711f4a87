package table

import (
	"math"
	"strconv"
)

// CompareOption configures Equal.
type CompareOption func(*compareConfig)

type compareConfig struct {
	relTol float64
}

// WithRelTol allows cells that both parse as numbers to differ by at most
// rtol relative to the expected value. Zero keeps comparison exact.
func WithRelTol(rtol float64) CompareOption {
	return func(c *compareConfig) {
		if rtol > 0 {
			c.relTol = rtol
		}
	}
}

// Equal reports whether got and want have the same columns in the same order
// and the same cell values row by row. Row order matters. Both tables should
// already be normalised.
func Equal(got, want Table, opts ...CompareOption) bool {
	cfg := &compareConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if len(got.Columns) != len(want.Columns) || len(got.Rows) != len(want.Rows) {
		return false
	}
	for i := range got.Columns {
		if got.Columns[i] != want.Columns[i] {
			return false
		}
	}
	for i := range got.Rows {
		if len(got.Rows[i]) != len(want.Rows[i]) {
			return false
		}
		for j := range got.Rows[i] {
			if !cellEqual(got.Rows[i][j], want.Rows[i][j], cfg.relTol) {
				return false
			}
		}
	}
	return true
}

func cellEqual(got, want string, relTol float64) bool {
	if got == want {
		return true
	}
	if relTol == 0 {
		return false
	}
	g, err := strconv.ParseFloat(got, 64)
	if err != nil {
		return false
	}
	w, err := strconv.ParseFloat(want, 64)
	if err != nil {
		return false
	}
	return math.Abs(g-w) <= relTol*math.Abs(w)
}
