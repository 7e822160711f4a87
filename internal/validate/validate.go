// Package validate decides whether a candidate parser reproduces the
// reference table.
package validate

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmylchreest/parsegen/internal/executor"
	"github.com/jmylchreest/parsegen/internal/logger"
	"github.com/jmylchreest/parsegen/pkg/table"
)

// Result is the outcome of one validation. Message is empty on success.
type Result struct {
	Success bool
	Message string
}

// Validator runs candidates and compares their output to the reference.
type Validator struct {
	exec   executor.Executor
	relTol float64
}

// Option configures a Validator.
type Option func(*Validator)

// WithRelTol allows numeric cells to differ by a relative tolerance.
func WithRelTol(rtol float64) Option {
	return func(v *Validator) { v.relTol = rtol }
}

// New creates a Validator using exec to run candidates.
func New(exec executor.Executor, opts ...Option) *Validator {
	v := &Validator{exec: exec}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate runs the candidate on inputPath and compares the result with the
// table at expectedPath. Every failure is reported in the Result, including
// a cancelled context.
func (v *Validator) Validate(ctx context.Context, candidatePath, inputPath, expectedPath string) Result {
	got, err := v.exec.Run(ctx, candidatePath, inputPath)
	if err != nil {
		if errors.Is(err, executor.ErrMissingEntryPoint) {
			return Result{Message: executor.ErrMissingEntryPoint.Error()}
		}
		return exception(err)
	}

	want, err := table.ReadCSV(expectedPath)
	if err != nil {
		return exception(err)
	}

	got = table.Normalize(got)
	var opts []table.CompareOption
	if v.relTol > 0 {
		opts = append(opts, table.WithRelTol(v.relTol))
	}
	if table.Equal(got, want, opts...) {
		return Result{Success: true}
	}

	logger.Debug("candidate output differs",
		"candidate", candidatePath,
		"got_columns", got.Columns,
		"want_columns", want.Columns,
		"got_shape", got.Shape().String(),
		"want_shape", want.Shape().String())
	return Result{Message: fmt.Sprintf("Mismatch: parsed shape %s, expected %s", got.Shape(), want.Shape())}
}

func exception(err error) Result {
	return Result{Message: "Exception during validation: " + err.Error()}
}
