package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func newViper(t *testing.T, values map[string]any) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "g-key")

	cfg, err := Load(newViper(t, nil))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Provider != "gemini" {
		t.Errorf("Provider = %q, want gemini", cfg.Provider)
	}
	if cfg.APIKey != "g-key" {
		t.Errorf("APIKey = %q, want key from GEMINI_API_KEY", cfg.APIKey)
	}
	if cfg.Model != "gemini-1.5-flash" {
		t.Errorf("Model = %q, want provider default", cfg.Model)
	}
	if cfg.MaxAttempts != DefaultMaxAttempts {
		t.Errorf("MaxAttempts = %d, want %d", cfg.MaxAttempts, DefaultMaxAttempts)
	}
	if cfg.ExecTimeout != DefaultExecTimeout {
		t.Errorf("ExecTimeout = %v, want %v", cfg.ExecTimeout, DefaultExecTimeout)
	}
	if cfg.OutputFormat != "csv" || !cfg.Journal {
		t.Errorf("unexpected defaults: format=%q journal=%v", cfg.OutputFormat, cfg.Journal)
	}
}

func TestLoad_MissingKeyIsNotAnError(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := Load(newViper(t, nil))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIKey != "" {
		t.Errorf("APIKey = %q, want empty", cfg.APIKey)
	}
}

func TestLoad_ExplicitValues(t *testing.T) {
	cfg, err := Load(newViper(t, map[string]any{
		"provider":      "Ollama",
		"model":         "llama3.2",
		"base_url":      "http://localhost:11434",
		"exec_timeout":  "5s",
		"output_format": "yml",
		"rtol":          1e-6,
	}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Provider != "ollama" || cfg.Model != "llama3.2" {
		t.Errorf("provider/model = %q/%q", cfg.Provider, cfg.Model)
	}
	if cfg.ExecTimeout != 5*time.Second {
		t.Errorf("ExecTimeout = %v, want 5s", cfg.ExecTimeout)
	}
	if cfg.OutputFormat != "yaml" {
		t.Errorf("OutputFormat = %q, want yaml", cfg.OutputFormat)
	}
	if cfg.RelTol != 1e-6 {
		t.Errorf("RelTol = %v", cfg.RelTol)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]any
		wantErr string
	}{
		{"unknown provider", map[string]any{"provider": "bard"}, "unknown provider"},
		{"zero attempts", map[string]any{"max_attempts": 0}, "MaxAttempts"},
		{"bad format", map[string]any{"output_format": "xlsx"}, "OutputFormat"},
		{"negative rtol", map[string]any{"rtol": -0.1}, "RelTol"},
		{"zero timeout", map[string]any{"exec_timeout": "0s"}, "ExecTimeout"},
		{"bad base url", map[string]any{"base_url": "not a url"}, "BaseURL"},
		{"empty data dir", map[string]any{"data_dir": ""}, "DataDir"},
		{"bad memory limit", map[string]any{"memory_limit": "lots"}, "memory_limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(newViper(t, tt.values))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestMemoryLimitBytes(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"", 0},
		{"0", 0},
		{"512MiB", 512 << 20},
		{"1GB", 1000 * 1000 * 1000},
	}
	for _, tt := range tests {
		got, err := (&Config{MemoryLimit: tt.in}).MemoryLimitBytes()
		if err != nil {
			t.Errorf("MemoryLimitBytes(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("MemoryLimitBytes(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPaths(t *testing.T) {
	cfg := &Config{
		DataDir:      "data",
		StateDir:     "state",
		OutputFormat: "csv",
		Journal:      true,
	}

	if got, want := cfg.TargetDir("icici"), filepath.Join("data", "icici"); got != want {
		t.Errorf("TargetDir() = %q, want %q", got, want)
	}
	if got, want := cfg.OutputPath("icici"), filepath.Join("data", "icici", "icici_parsed.csv"); got != want {
		t.Errorf("OutputPath() = %q, want %q", got, want)
	}
	if got, want := cfg.JournalPath(), filepath.Join("state", "parsegen.db"); got != want {
		t.Errorf("JournalPath() = %q, want %q", got, want)
	}

	cfg.Journal = false
	if got := cfg.JournalPath(); got != "" {
		t.Errorf("JournalPath() with journal off = %q, want empty", got)
	}
}

func TestProviderConfig(t *testing.T) {
	cfg := &Config{APIKey: "k", Model: "m", BaseURL: "http://x", LLMTimeout: 10 * time.Second}
	pc := cfg.ProviderConfig()
	if pc.APIKey != "k" || pc.Model != "m" || pc.BaseURL != "http://x" || pc.Timeout != 10*time.Second {
		t.Errorf("unexpected provider config: %+v", pc)
	}
	if pc.MaxRetries != 2 {
		t.Errorf("MaxRetries = %d, want default 2", pc.MaxRetries)
	}
}
