// Package oracle asks a language model for a candidate parser.
package oracle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jmylchreest/parsegen/internal/logger"
	"github.com/jmylchreest/parsegen/pkg/llm"
	"github.com/jmylchreest/parsegen/pkg/table"
)

// SampleRows is how many reference rows are shown to the model.
const SampleRows = 5

// Request describes one generation.
type Request struct {
	Target       string
	ExpectedPath string
	Attempt      int
	PriorError   string
}

// Generated is the outcome of a generation. Valid is false when the reply
// was not parseable Go; Source is then empty and Reason explains why.
type Generated struct {
	Source string
	Valid  bool
	Reason string
}

// ProviderFactory builds the provider on first use.
type ProviderFactory func() (llm.Provider, error)

// Client generates candidate source through an llm.Provider.
type Client struct {
	factory     ProviderFactory
	observer    llm.Observer
	temperature float64
	maxTokens   int

	mu       sync.Mutex
	provider llm.Provider
}

// Option configures a Client.
type Option func(*Client)

// WithObserver reports every provider call to obs.
func WithObserver(obs llm.Observer) Option {
	return func(c *Client) { c.observer = obs }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *Client) { c.temperature = t }
}

// WithMaxTokens caps the reply length.
func WithMaxTokens(n int) Option {
	return func(c *Client) { c.maxTokens = n }
}

// New creates a client. The provider is built lazily on the first Generate
// call, so a missing credential fails that call rather than startup.
func New(factory ProviderFactory, opts ...Option) *Client {
	c := &Client{factory: factory, temperature: 0.1}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewWithProvider creates a client around an existing provider.
func NewWithProvider(p llm.Provider, opts ...Option) *Client {
	return New(func() (llm.Provider, error) { return p, nil }, opts...)
}

func (c *Client) getProvider() (llm.Provider, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.provider != nil {
		return c.provider, nil
	}
	p, err := c.factory()
	if err != nil {
		return nil, err
	}
	c.provider = p
	return p, nil
}

// Generate asks the model for a parser for req.Target. A reply that is not
// valid Go is not an error: it comes back as Generated{Valid: false}.
// Errors are reserved for failures to read the reference or reach the model.
func (c *Client) Generate(ctx context.Context, req Request) (Generated, error) {
	sample, err := table.ReadCSV(req.ExpectedPath, table.WithRowLimit(SampleRows))
	if err != nil {
		return Generated{}, fmt.Errorf("read reference sample: %w", err)
	}

	provider, err := c.getProvider()
	if err != nil {
		return Generated{}, fmt.Errorf("oracle unavailable: %w", err)
	}

	prompt := BuildPrompt(PromptInput{
		Target:     req.Target,
		Columns:    sample.Columns,
		Sample:     sample.CSV(),
		Attempt:    req.Attempt,
		PriorError: req.PriorError,
	})
	llmReq := llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: SystemPrompt},
			{Role: llm.RoleUser, Content: prompt},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	logger.Debug("oracle request",
		"target", req.Target,
		"attempt", req.Attempt,
		"provider", provider.Name(),
		"model", provider.Model(),
		"prompt_size", len(prompt),
		"has_feedback", req.PriorError != "")

	startedAt := time.Now()
	resp, err := provider.Execute(ctx, llmReq)
	if c.observer != nil {
		c.observer.OnCall(ctx, llm.CallEvent{
			Provider:  provider.Name(),
			Model:     provider.Model(),
			Attempt:   req.Attempt,
			Request:   llmReq,
			Response:  resp,
			Error:     err,
			StartedAt: startedAt,
			Duration:  time.Since(startedAt),
		})
	}
	if err != nil {
		return Generated{}, fmt.Errorf("%s request failed: %w", provider.Name(), err)
	}

	code := StripCodeFence(resp.Content)
	if err := CheckSyntax(code); err != nil {
		logger.Warn("invalid code from oracle",
			"target", req.Target,
			"attempt", req.Attempt,
			"provider", provider.Name(),
			"error", err)
		return Generated{Valid: false, Reason: err.Error()}, nil
	}
	return Generated{Source: code, Valid: true}, nil
}

// LogObserver logs each call at debug level.
func LogObserver() llm.Observer {
	return llm.ObserverFunc(func(ctx context.Context, e llm.CallEvent) {
		if e.Error != nil {
			logger.DebugContext(ctx, "oracle call failed",
				"provider", e.Provider,
				"model", e.Model,
				"attempt", e.Attempt,
				"duration", e.Duration,
				"error", e.Error)
			return
		}
		logger.DebugContext(ctx, "oracle call",
			"provider", e.Provider,
			"model", e.Response.Model,
			"attempt", e.Attempt,
			"input_tokens", e.Response.Usage.InputTokens,
			"output_tokens", e.Response.Usage.OutputTokens,
			"finish_reason", e.Response.FinishReason,
			"duration", e.Duration)
	})
}
