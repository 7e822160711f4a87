// Package target locates the sample input document and reference table for
// a named target.
package target

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrSampleMissing is returned when a target directory lacks the sample
// input or the reference table.
var ErrSampleMissing = errors.New("sample pair incomplete")

// Files is the sample pair for a target.
type Files struct {
	Input    string `json:"input" yaml:"input"`
	Expected string `json:"expected" yaml:"expected"`
}

// Resolve finds the first *.pdf and the first *.csv, in lexical order, in
// dir/name. Files produced by earlier runs (name_parsed.*) are skipped.
func Resolve(dir, name string) (Files, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return Files{}, fmt.Errorf("invalid target name %q", name)
	}

	targetDir := filepath.Join(dir, name)
	info, err := os.Stat(targetDir)
	if err != nil {
		return Files{}, fmt.Errorf("target %q: %w", name, err)
	}
	if !info.IsDir() {
		return Files{}, fmt.Errorf("target %q: %s is not a directory", name, targetDir)
	}

	input, err := first(targetDir, "*.pdf", "")
	if err != nil {
		return Files{}, err
	}
	expected, err := first(targetDir, "*.csv", name+"_parsed.csv")
	if err != nil {
		return Files{}, err
	}

	var missing []string
	if input == "" {
		missing = append(missing, "*.pdf")
	}
	if expected == "" {
		missing = append(missing, "*.csv")
	}
	if len(missing) > 0 {
		return Files{}, fmt.Errorf("target %q: no %s in %s: %w",
			name, strings.Join(missing, " or "), targetDir, ErrSampleMissing)
	}

	return Files{Input: input, Expected: expected}, nil
}

func first(dir, pattern, skip string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", fmt.Errorf("glob %s: %w", pattern, err)
	}
	sort.Strings(matches)
	for _, m := range matches {
		if skip != "" && filepath.Base(m) == skip {
			continue
		}
		if fi, err := os.Stat(m); err == nil && fi.Mode().IsRegular() {
			return m, nil
		}
	}
	return "", nil
}
