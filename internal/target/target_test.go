package target

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "icici", "b_statement.pdf"))
	touch(t, filepath.Join(dir, "icici", "a_statement.pdf"))
	touch(t, filepath.Join(dir, "icici", "result.csv"))
	touch(t, filepath.Join(dir, "icici", "icici_parsed.csv"))

	got, err := Resolve(dir, "icici")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	want := Files{
		Input:    filepath.Join(dir, "icici", "a_statement.pdf"),
		Expected: filepath.Join(dir, "icici", "result.csv"),
	}
	if got != want {
		t.Errorf("Resolve() = %+v, want %+v", got, want)
	}
}

func TestResolve_Missing(t *testing.T) {
	tests := []struct {
		name  string
		files []string
	}{
		{"no pdf", []string{"result.csv"}},
		{"no csv", []string{"sample.pdf"}},
		{"only previous output", []string{"sample.pdf", "sbi_parsed.csv"}},
		{"empty", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.MkdirAll(filepath.Join(dir, "sbi"), 0o750); err != nil {
				t.Fatal(err)
			}
			for _, f := range tt.files {
				touch(t, filepath.Join(dir, "sbi", f))
			}

			_, err := Resolve(dir, "sbi")
			if !errors.Is(err, ErrSampleMissing) {
				t.Errorf("Resolve() error = %v, want ErrSampleMissing", err)
			}
		})
	}
}

func TestResolve_BadTarget(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "notadir"))

	for _, name := range []string{"", "..", "a/b", "unknown", "notadir"} {
		if _, err := Resolve(dir, name); err == nil {
			t.Errorf("Resolve(%q) expected error", name)
		}
	}
}
