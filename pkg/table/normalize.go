package table

// DefaultMissing lists the cell values treated as missing. It mirrors the
// tokens pandas recognises as NA when reading CSV, so reference files
// produced by pandas tooling compare the same way here.
var DefaultMissing = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
	"n/a", "nan", "null",
}

var defaultMissingSet = toSet(DefaultMissing)

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// IsMissing reports whether a cell value counts as missing.
func IsMissing(cell string) bool {
	_, ok := defaultMissingSet[cell]
	return ok
}

// Normalize returns a copy of t in which missing values are replaced by the
// empty string and rows shorter than the header are padded with empty cells.
// Rows longer than the header are kept as they are so the shape mismatch
// stays visible. Cells are not trimmed.
func Normalize(t Table) Table {
	out := Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([][]string, len(t.Rows)),
	}
	width := len(t.Columns)
	for i, r := range t.Rows {
		n := len(r)
		if n < width {
			n = width
		}
		row := make([]string, n)
		for j, cell := range r {
			if IsMissing(cell) {
				continue
			}
			row[j] = cell
		}
		out.Rows[i] = row
	}
	return out
}
