package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewProvider_Unknown(t *testing.T) {
	_, err := NewProvider("nope", ProviderConfig{})
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
	if !strings.Contains(err.Error(), "unknown provider") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewProvider_MissingKey(t *testing.T) {
	for _, name := range []string{"gemini", "anthropic", "openai", "openrouter"} {
		t.Run(name, func(t *testing.T) {
			if _, err := NewProvider(name, ProviderConfig{}); err == nil {
				t.Errorf("%s: expected error without API key", name)
			}
		})
	}
}

func TestNewProvider_DefaultModel(t *testing.T) {
	p, err := NewProvider("openai", ProviderConfig{APIKey: "k"})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	if p.Model() != DefaultModels["openai"] {
		t.Errorf("Model() = %q", p.Model())
	}
	if p.Name() != "openai" {
		t.Errorf("Name() = %q", p.Name())
	}
}

func TestNewOpenRouterProvider_Name(t *testing.T) {
	p, err := NewOpenRouterProvider(ProviderConfig{APIKey: "k", Model: "x/y"})
	if err != nil {
		t.Fatalf("NewOpenRouterProvider() error = %v", err)
	}
	if p.Name() != "openrouter" || p.Model() != "x/y" {
		t.Errorf("got %s/%s", p.Name(), p.Model())
	}
}

func TestAvailableProviders_Sorted(t *testing.T) {
	got := AvailableProviders()
	for i := 1; i < len(got); i++ {
		if got[i-1] > got[i] {
			t.Fatalf("not sorted: %v", got)
		}
	}
	for _, want := range []string{"gemini", "anthropic", "openai", "openrouter", "ollama"} {
		if !IsRegistered(want) {
			t.Errorf("%s not registered", want)
		}
	}
}

func TestDetectProvider(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		provider string
		key      string
	}{
		{"none", nil, "gemini", ""},
		{"gemini wins", map[string]string{"GEMINI_API_KEY": "g", "OPENAI_API_KEY": "o"}, "gemini", "g"},
		{"openrouter before anthropic", map[string]string{"OPENROUTER_API_KEY": "r", "ANTHROPIC_API_KEY": "a"}, "openrouter", "r"},
		{"openai only", map[string]string{"OPENAI_API_KEY": "o"}, "openai", "o"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range providerEnvKeys {
				t.Setenv(k.env, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			provider, key := DetectProvider()
			if provider != tt.provider || key != tt.key {
				t.Errorf("DetectProvider() = %q, %q; want %q, %q", provider, key, tt.provider, tt.key)
			}
		})
	}
}

func TestEnvKey(t *testing.T) {
	if EnvKey("gemini") != "GEMINI_API_KEY" {
		t.Errorf("EnvKey(gemini) = %q", EnvKey("gemini"))
	}
	if EnvKey("ollama") != "" {
		t.Errorf("EnvKey(ollama) = %q", EnvKey("ollama"))
	}
}

// --- Ollama over HTTP ---

func TestOllamaProvider_Execute(t *testing.T) {
	var got ollamaRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(ollamaResponse{
			Model:           "qwen",
			Message:         ollamaMessage{Role: "assistant", Content: "package main"},
			PromptEvalCount: 12,
			EvalCount:       3,
		})
	}))
	defer srv.Close()

	p, err := NewOllamaProvider(ProviderConfig{BaseURL: srv.URL, Model: "qwen"})
	if err != nil {
		t.Fatal(err)
	}

	resp, err := p.Execute(context.Background(), Request{
		Messages: []Message{
			{Role: RoleSystem, Content: "sys"},
			{Role: RoleUser, Content: "hi"},
		},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if resp.Content != "package main" {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.Usage.InputTokens != 12 || resp.Usage.OutputTokens != 3 {
		t.Errorf("Usage = %+v", resp.Usage)
	}
	if resp.FinishReason != "stop" {
		t.Errorf("FinishReason = %q", resp.FinishReason)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Stream {
		t.Errorf("unexpected request: %+v", got)
	}
	if got.Options.NumPredict != defaultMaxTokens {
		t.Errorf("NumPredict = %d", got.Options.NumPredict)
	}
}

func TestOllamaProvider_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	p, _ := NewOllamaProvider(ProviderConfig{BaseURL: srv.URL})
	_, err := p.Execute(context.Background(), Request{})
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("expected 404 error, got %v", err)
	}
}

// --- Observer ---

func TestMultiObserver(t *testing.T) {
	var calls []string
	m := NewMultiObserver(ObserverFunc(func(ctx context.Context, e CallEvent) {
		calls = append(calls, "a:"+e.Provider)
	}))
	m.Add(ObserverFunc(func(ctx context.Context, e CallEvent) {
		calls = append(calls, "b:"+e.Provider)
	}))

	m.OnCall(context.Background(), CallEvent{Provider: "gemini"})

	if strings.Join(calls, ",") != "a:gemini,b:gemini" {
		t.Errorf("calls = %v", calls)
	}
}
