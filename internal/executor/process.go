package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/parsegen/internal/logger"
	"github.com/jmylchreest/parsegen/pkg/table"
)

// ExecCommand is the hidden CLI command that serves one sandbox request.
const ExecCommand = "__exec"

// DefaultTimeout is the wall-clock limit for one candidate run.
const DefaultTimeout = 60 * time.Second

// stderrTail caps how much child stderr is kept for error messages.
const stderrTail = 4 << 10

// Request is sent to the sandbox child on stdin.
type Request struct {
	Candidate        string `json:"candidate"`
	Input            string `json:"input"`
	CPUSeconds       int    `json:"cpu_seconds,omitempty"`
	MemoryLimitBytes int64  `json:"memory_limit_bytes,omitempty"`
}

// Error kinds carried in a Response.
const (
	KindMissingEntryPoint = "missing_entry_point"
	KindLoad              = "load"
	KindInvocation        = "invocation"
	KindTimeout           = "timeout"
)

// Response is the single JSON line the child writes to stdout.
type Response struct {
	Table *table.Table `json:"table,omitempty"`
	Error string       `json:"error,omitempty"`
	Kind  string       `json:"kind,omitempty"`
	Panic bool         `json:"panic,omitempty"`

	// TimeoutMS is the child's own limit when Kind is KindTimeout.
	TimeoutMS int64 `json:"timeout_ms,omitempty"`
}

// Process runs each candidate in a child process started from the current
// binary. The child interprets the candidate under CPU and memory limits and
// the parent kills it when the wall-clock timeout expires.
type Process struct {
	// Command is the binary to start. Defaults to os.Executable().
	Command string
	// Args defaults to []string{ExecCommand}.
	Args []string
	// Env for the child. Nil inherits the parent environment.
	Env []string

	Timeout          time.Duration
	CPUSeconds       int
	MemoryLimitBytes int64
}

// NewProcess creates a Process with the default timeout.
func NewProcess() *Process {
	return &Process{Timeout: DefaultTimeout}
}

// Run executes the candidate in a sandbox child.
func (p *Process) Run(ctx context.Context, candidatePath, inputPath string) (table.Table, error) {
	command := p.Command
	if command == "" {
		self, err := os.Executable()
		if err != nil {
			return table.Table{}, &BoundaryError{Err: fmt.Errorf("locate executable: %w", err)}
		}
		command = self
	}
	args := p.Args
	if args == nil {
		args = []string{ExecCommand}
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	req, err := json.Marshal(Request{
		Candidate:        candidatePath,
		Input:            inputPath,
		CPUSeconds:       p.CPUSeconds,
		MemoryLimitBytes: p.MemoryLimitBytes,
	})
	if err != nil {
		return table.Table{}, &BoundaryError{Err: err}
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout bytes.Buffer
	stderr := &tailBuffer{max: stderrTail}

	cmd := exec.CommandContext(runCtx, command, args...) //#nosec G204 -- re-executes our own binary
	cmd.Stdin = bytes.NewReader(req)
	cmd.Stdout = &stdout
	cmd.Stderr = stderr
	cmd.Env = p.Env
	cmd.WaitDelay = 2 * time.Second

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	if err := ctx.Err(); err != nil {
		return table.Table{}, err
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		logger.Warn("candidate timed out", "candidate", candidatePath, "timeout", timeout)
		return table.Table{}, &TimeoutError{Timeout: timeout}
	}

	logger.Debug("sandbox child finished",
		"candidate", candidatePath,
		"duration", elapsed,
		"stdout", humanize.Bytes(uint64(stdout.Len())),
		"exit_error", runErr)

	resp, decodeErr := decodeResponse(stdout.Bytes())
	if decodeErr != nil {
		cause := decodeErr
		if runErr != nil {
			cause = fmt.Errorf("child exited: %w", runErr)
		}
		return table.Table{}, &BoundaryError{Err: cause, Stderr: stderr.String()}
	}
	return resp.result(candidatePath)
}

// decodeResponse reads the last non-empty line of the child's stdout.
func decodeResponse(out []byte) (Response, error) {
	lines := bytes.Split(bytes.TrimSpace(out), []byte("\n"))
	last := bytes.TrimSpace(lines[len(lines)-1])
	if len(last) == 0 {
		return Response{}, errors.New("child wrote no response")
	}

	var resp Response
	if err := json.Unmarshal(last, &resp); err != nil {
		return Response{}, fmt.Errorf("decode child response: %w", err)
	}
	return resp, nil
}

func (r Response) result(candidatePath string) (table.Table, error) {
	switch r.Kind {
	case "":
		if r.Error != "" {
			return table.Table{}, &BoundaryError{Err: errors.New(r.Error)}
		}
		if r.Table == nil {
			return table.Table{}, &BoundaryError{Err: errors.New("child returned no table")}
		}
		return *r.Table, nil
	case KindMissingEntryPoint:
		return table.Table{}, ErrMissingEntryPoint
	case KindLoad:
		return table.Table{}, &LoadError{Path: candidatePath, Err: errors.New(r.Error)}
	case KindInvocation:
		return table.Table{}, &InvocationError{Err: errors.New(r.Error), Panic: r.Panic}
	case KindTimeout:
		return table.Table{}, &TimeoutError{Timeout: time.Duration(r.TimeoutMS) * time.Millisecond}
	default:
		return table.Table{}, &BoundaryError{Err: fmt.Errorf("unknown response kind %q: %s", r.Kind, r.Error)}
	}
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	buf []byte
	max int
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.max; over > 0 {
		b.buf = b.buf[over:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	return string(bytes.TrimSpace(b.buf))
}

var _ Executor = (*Process)(nil)
