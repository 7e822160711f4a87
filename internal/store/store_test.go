package store

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSave_CreatesDirAndFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "custom_parsers")
	s := New(dir)

	path, err := s.Save("icici", "package main\n")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if want := filepath.Join(dir, "icici_parser.go"); path != want {
		t.Errorf("Save() path = %q, want %q", path, want)
	}

	got, err := s.Load("icici")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != "package main\n" {
		t.Errorf("Load() = %q", got)
	}
}

func TestSave_LastWriterWins(t *testing.T) {
	s := New(t.TempDir())

	for _, src := range []string{"package main // one\n", "package main // two\n", ""} {
		if _, err := s.Save("sbi", src); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		got, err := s.Load("sbi")
		if err != nil {
			t.Fatal(err)
		}
		if got != src {
			t.Errorf("Load() = %q, want %q", got, src)
		}
	}

	entries, err := os.ReadDir(s.Dir())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected exactly one candidate file, found %d", len(entries))
	}
}

func TestSave_SeparateTargets(t *testing.T) {
	s := New(t.TempDir())
	if _, err := s.Save("a", "A"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save("b", "B"); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Load("a"); got != "A" {
		t.Errorf("target a overwritten: %q", got)
	}
}

func TestSave_UnwritableDir(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "file")
	if err := os.WriteFile(blocker, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := New(filepath.Join(blocker, "sub")).Save("x", "y"); err == nil {
		t.Error("expected error when the directory cannot be created")
	}
}
