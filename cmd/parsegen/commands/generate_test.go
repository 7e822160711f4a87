package commands

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jmylchreest/parsegen/pkg/table"
)

const bankReference = "Date,Description,Amount\n01-08-2024,Salary,5000.00\n02-08-2024,Rent,-1200.00\n"

const bankCandidate = "```go\n" + `package main

import "github.com/jmylchreest/parsegen/pkg/table"

func parse(path string) (table.Table, error) {
	t := table.New("Date", "Description", "Amount")
	t.Append("01-08-2024", "Salary", "5000.00")
	t.Append("02-08-2024", "Rent", "-1200.00")
	return t, nil
}
` + "```"

const junkReply = "Sorry, I cannot write that parser."

// chatServer answers Ollama chat requests with scripted replies, repeating
// the last one, and keeps the prompts it received.
type chatServer struct {
	mu      sync.Mutex
	replies []string
	prompts []string
}

func (s *chatServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	var prompt strings.Builder
	for _, m := range req.Messages {
		prompt.WriteString(m.Content)
		prompt.WriteString("\n")
	}
	s.prompts = append(s.prompts, prompt.String())
	i := len(s.prompts) - 1
	if i >= len(s.replies) {
		i = len(s.replies) - 1
	}
	reply := s.replies[i]
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"model":       "test-model",
		"message":     map[string]string{"role": "assistant", "content": reply},
		"done_reason": "stop",
	})
}

func (s *chatServer) requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

// runGenerateCLI prepares a data dir holding the "bank" sample pair and runs
// the generate command against srv. It returns the data dir and the Execute
// error.
func runGenerateCLI(t *testing.T, srv *httptest.Server) (string, error) {
	t.Helper()
	root := t.TempDir()
	dataDir := filepath.Join(root, "data")
	bank := filepath.Join(dataDir, "bank")
	if err := os.MkdirAll(bank, 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(bank, "statement.pdf"), []byte("%PDF-1.4\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(bank, "result.csv"), []byte(bankReference), 0o600); err != nil {
		t.Fatal(err)
	}

	rootCmd.SetArgs([]string{
		"generate",
		"--quiet",
		"--target", "bank",
		"--provider", "ollama",
		"--base-url", srv.URL,
		"--in-process",
		"--data-dir", dataDir,
		"--candidates-dir", filepath.Join(root, "custom_parsers"),
		"--state-dir", filepath.Join(root, "state"),
		"--max-attempts", "3",
		"--format", "csv",
	})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	return dataDir, Execute()
}

func TestGenerate_ExhaustedBudgetFails(t *testing.T) {
	chat := &chatServer{replies: []string{junkReply}}
	srv := httptest.NewServer(chat)
	defer srv.Close()

	dataDir, err := runGenerateCLI(t, srv)
	if err == nil {
		t.Fatal("Execute() error = nil, want failure after the attempt budget")
	}
	if !strings.Contains(err.Error(), "after 3 attempts") {
		t.Errorf("Execute() error = %q, want it to mention 3 attempts", err)
	}
	if got := len(chat.requests()); got != 3 {
		t.Errorf("oracle called %d times, want 3", got)
	}
	if _, statErr := os.Stat(filepath.Join(dataDir, "bank", "bank_parsed.csv")); !os.IsNotExist(statErr) {
		t.Errorf("output written for a failed run, stat err = %v", statErr)
	}
}

func TestGenerate_SuccessWritesOutput(t *testing.T) {
	chat := &chatServer{replies: []string{junkReply, bankCandidate}}
	srv := httptest.NewServer(chat)
	defer srv.Close()

	dataDir, err := runGenerateCLI(t, srv)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	prompts := chat.requests()
	if len(prompts) != 2 {
		t.Fatalf("oracle called %d times, want 2", len(prompts))
	}
	if strings.Contains(prompts[0], "Previous error") {
		t.Error("first prompt should carry no feedback")
	}
	if !strings.Contains(prompts[1], "Previous error") {
		t.Error("second prompt should carry the first failure")
	}

	got, err := table.ReadCSV(filepath.Join(dataDir, "bank", "bank_parsed.csv"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	want, err := table.ReadCSVFrom(strings.NewReader(bankReference))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}
