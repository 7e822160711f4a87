package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"runtime/debug"

	"github.com/jmylchreest/parsegen/internal/logger"
	"github.com/jmylchreest/parsegen/pkg/table"
)

// ServeChild handles one sandbox request: it reads a Request from r, applies
// resource limits, runs the candidate with in and writes exactly one
// Response line to w. Candidate failures are reported in the Response; the
// returned error is only for a broken channel.
func ServeChild(ctx context.Context, r io.Reader, w io.Writer, in *Interpreter) error {
	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return writeResponse(w, Response{Kind: KindLoad, Error: fmt.Sprintf("decode request: %v", err)})
	}

	if err := applyCPULimit(req.CPUSeconds); err != nil {
		logger.Warn("cpu limit not applied", "seconds", req.CPUSeconds, "error", err)
	}
	if req.MemoryLimitBytes > 0 {
		debug.SetMemoryLimit(req.MemoryLimitBytes)
		if err := applyMemoryLimit(req.MemoryLimitBytes); err != nil {
			logger.Warn("address space limit not applied", "bytes", req.MemoryLimitBytes, "error", err)
		}
	}

	t, err := in.Run(ctx, req.Candidate, req.Input)
	return writeResponse(w, responseFor(t, err))
}

func responseFor(t table.Table, err error) Response {
	if err == nil {
		return Response{Table: &t}
	}

	var (
		loadErr    *LoadError
		invokeErr  *InvocationError
		timeoutErr *TimeoutError
	)
	switch {
	case errors.Is(err, ErrMissingEntryPoint):
		return Response{Kind: KindMissingEntryPoint, Error: err.Error()}
	case errors.As(err, &loadErr):
		return Response{Kind: KindLoad, Error: loadErr.Err.Error()}
	case errors.As(err, &invokeErr):
		return Response{Kind: KindInvocation, Error: invokeErr.Err.Error(), Panic: invokeErr.Panic}
	case errors.As(err, &timeoutErr):
		return Response{Kind: KindTimeout, Error: err.Error(), TimeoutMS: timeoutErr.Timeout.Milliseconds()}
	default:
		return Response{Kind: KindInvocation, Error: err.Error()}
	}
}

func writeResponse(w io.Writer, resp Response) error {
	// Encode terminates the value with a newline.
	return json.NewEncoder(w).Encode(resp)
}
