// Package agent drives the generate, execute and validate loop for one
// target until a candidate reproduces the reference table or the attempt
// budget runs out.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jmylchreest/parsegen/internal/executor"
	"github.com/jmylchreest/parsegen/internal/logger"
	"github.com/jmylchreest/parsegen/internal/oracle"
	"github.com/jmylchreest/parsegen/internal/output"
	"github.com/jmylchreest/parsegen/internal/validate"
)

// DefaultMaxAttempts is the attempt budget per run.
const DefaultMaxAttempts = 3

// Generator produces candidate source.
type Generator interface {
	Generate(ctx context.Context, req oracle.Request) (oracle.Generated, error)
}

// CandidateStore persists the candidate for a target.
type CandidateStore interface {
	Save(target, source string) (string, error)
}

// Validator checks a stored candidate against the reference.
type Validator interface {
	Validate(ctx context.Context, candidatePath, inputPath, expectedPath string) validate.Result
}

// Recorder receives run progress. Errors are logged and otherwise ignored.
type Recorder interface {
	StartRun(ctx context.Context, s State) error
	RecordAttempt(ctx context.Context, runID string, rec AttemptRecord) error
	FinishRun(ctx context.Context, s State) error
}

// Controller runs the retry loop.
type Controller struct {
	gen       Generator
	store     CandidateStore
	validator Validator
	exec      executor.Executor
	recorder  Recorder

	maxAttempts  int
	outputPath   func(target string) string
	outputFormat output.Format
	now          func() time.Time
}

// Option configures a Controller.
type Option func(*Controller)

// WithMaxAttempts sets the attempt budget.
func WithMaxAttempts(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithOutput materialises the table of a successful candidate at
// pathFor(target) in the given format.
func WithOutput(pathFor func(target string) string, format output.Format) Option {
	return func(c *Controller) {
		c.outputPath = pathFor
		c.outputFormat = format
	}
}

// WithRecorder reports runs and attempts to r.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// NewController wires the loop collaborators. exec is used to run the
// accepted candidate once more when output is materialised.
func NewController(gen Generator, store CandidateStore, v Validator, exec executor.Executor, opts ...Option) *Controller {
	c := &Controller{
		gen:          gen,
		store:        store,
		validator:    v,
		exec:         exec,
		maxAttempts:  DefaultMaxAttempts,
		outputFormat: output.FormatCSV,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run drives s to completion. The returned State reports success or
// failure; an error is returned only for persistence failures and
// cancellation, in which case the State is the last one reached.
func (c *Controller) Run(ctx context.Context, s State) (State, error) {
	if s.RunID == "" {
		s.RunID = uuid.NewString()
	}
	log := logger.With("target", s.Target, "run_id", s.RunID)
	log.Info("starting run", "max_attempts", c.maxAttempts, "input", s.Files.Input, "expected", s.Files.Expected)
	c.notify(ctx, "start run", func() error { return c.recorder.StartRun(ctx, s) })

	var err error
	phase := PhasePlan
	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			log.Warn("run cancelled", "phase", phase, "attempt", s.Attempt)
			c.finish(s)
			return s, ctxErr
		}

		switch phase {
		case PhasePlan:
			s = plan(s)
			phase = PhaseCodegen
		case PhaseCodegen:
			if s, err = c.codegen(ctx, s); err != nil {
				c.finish(s)
				return s, err
			}
			phase = PhaseTest
		case PhaseTest:
			if s, err = c.test(ctx, s); err != nil {
				c.finish(s)
				return s, err
			}
			phase = PhaseDecide
		case PhaseDecide:
			phase = decide(s, c.maxAttempts)
		case PhaseDone:
			log.Info("parser accepted", "attempts", s.Attempt, "candidate", s.CandidatePath, "output", s.OutputPath)
			c.finish(s)
			return s, nil
		case PhaseExhausted:
			log.Error("attempt budget exhausted", "attempts", s.Attempt, "last_error", s.LastError)
			c.finish(s)
			return s, nil
		default:
			return s, fmt.Errorf("unknown phase %q", phase)
		}
	}
}

// plan starts a new attempt.
func plan(s State) State {
	s.Attempt++
	return s
}

// decide picks the phase after a test.
func decide(s State, maxAttempts int) Phase {
	switch {
	case s.Success:
		return PhaseDone
	case s.Attempt >= maxAttempts:
		return PhaseExhausted
	default:
		return PhasePlan
	}
}

// codegen asks the oracle for a candidate and stores it. Oracle failures are
// recorded on the attempt and an empty candidate is stored in their place.
func (c *Controller) codegen(ctx context.Context, s State) (State, error) {
	rec := AttemptRecord{Attempt: s.Attempt, StartedAt: c.now()}
	logger.Info("generating parser", "target", s.Target, "attempt", s.Attempt)

	gen, err := c.gen.Generate(ctx, oracle.Request{
		Target:       s.Target,
		ExpectedPath: s.Files.Expected,
		Attempt:      s.Attempt,
		PriorError:   s.LastError,
	})
	switch {
	case err != nil:
		logger.Warn("oracle request failed", "target", s.Target, "attempt", s.Attempt, "error", err)
		rec.GenerateError = err.Error()
		gen = oracle.Generated{}
	case !gen.Valid:
		rec.GenerateError = "invalid Go source: " + gen.Reason
	default:
		rec.Generated = true
	}

	path, err := c.store.Save(s.Target, gen.Source)
	if err != nil {
		return s, fmt.Errorf("save candidate: %w", err)
	}
	s.CandidatePath = path
	rec.CandidatePath = path
	s.History = append(s.History, rec)
	return s, nil
}

// test validates the stored candidate and, on success, writes its output.
func (c *Controller) test(ctx context.Context, s State) (State, error) {
	res := c.validator.Validate(ctx, s.CandidatePath, s.Files.Input, s.Files.Expected)
	s.Success = res.Success
	if res.Success {
		s.LastError = ""
	} else {
		s.LastError = failureMessage(res.Message, s.current())
		logger.Warn("candidate rejected", "target", s.Target, "attempt", s.Attempt, "reason", s.LastError)
	}

	if res.Success && c.outputPath != nil {
		path, err := c.materialise(ctx, s)
		if err != nil {
			return s, err
		}
		s.OutputPath = path
	}

	if rec := s.current(); rec != nil {
		rec.Success = res.Success
		rec.Message = res.Message
		rec.Duration = c.now().Sub(rec.StartedAt)
		finished := *rec
		c.notify(ctx, "record attempt", func() error { return c.recorder.RecordAttempt(ctx, s.RunID, finished) })
	}
	return s, nil
}

// failureMessage is the feedback for the next attempt. A failed generation
// is named alongside the validator message so the cause is not lost behind
// the empty candidate.
func failureMessage(validation string, rec *AttemptRecord) string {
	if rec == nil || rec.GenerateError == "" {
		return validation
	}
	return validation + "\nCandidate generation failed: " + rec.GenerateError
}

func (c *Controller) materialise(ctx context.Context, s State) (string, error) {
	t, err := c.exec.Run(ctx, s.CandidatePath, s.Files.Input)
	if err != nil {
		return "", fmt.Errorf("rerun accepted candidate: %w", err)
	}
	path := c.outputPath(s.Target)
	if err := output.WriteFile(path, c.outputFormat, t); err != nil {
		return "", fmt.Errorf("write output: %w", err)
	}
	logger.Info("output written", "target", s.Target, "path", path, "rows", t.Len())
	return path, nil
}

// finish reports the final state. It runs with a fresh context so a
// cancelled run is still recorded.
func (c *Controller) finish(s State) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c.notify(ctx, "finish run", func() error { return c.recorder.FinishRun(ctx, s) })
}

func (c *Controller) notify(ctx context.Context, what string, fn func() error) {
	if c.recorder == nil {
		return
	}
	if err := fn(); err != nil {
		logger.WarnContext(ctx, "journal write failed", "op", what, "error", err)
	}
}
