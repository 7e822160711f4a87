package executor

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/traefik/yaegi/interp"

	"github.com/jmylchreest/parsegen/internal/logger"
	"github.com/jmylchreest/parsegen/pkg/table"
)

// EntryPoint is the function every candidate must define.
const EntryPoint = "parse"

// ParseFunc is the loaded entry point of a candidate.
type ParseFunc func(path string) (table.Table, error)

// Executor runs a candidate against an input document.
type Executor interface {
	Run(ctx context.Context, candidatePath, inputPath string) (table.Table, error)
}

// Interpreter loads candidates into a fresh yaegi interpreter and runs them
// in the current process. It is what the sandbox child uses; on its own it
// offers no isolation beyond the import allowlist.
type Interpreter struct {
	// Stdout receives anything the candidate prints. Defaults to io.Discard.
	Stdout io.Writer
	// Stderr defaults to os.Stderr.
	Stderr io.Writer
	// Timeout bounds Run when positive.
	Timeout time.Duration
}

// NewInterpreter creates an Interpreter with default settings.
func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

// Check validates candidate source without running it: it must parse, be
// package main, import only allowlisted packages and declare parse.
func Check(filename string, src []byte) error {
	if strings.TrimSpace(string(src)) == "" {
		return ErrMissingEntryPoint
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.AllErrors)
	if err != nil {
		return &LoadError{Path: filename, Err: err}
	}
	if file.Name.Name != "main" {
		return &LoadError{Path: filename, Err: fmt.Errorf("package %s, want package main", file.Name.Name)}
	}

	for _, imp := range file.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			return &LoadError{Path: filename, Err: err}
		}
		if !importAllowed(path) {
			return &LoadError{Path: filename, Err: fmt.Errorf("import %q is not allowed", path)}
		}
	}

	if declaresEntryPoint(file) {
		return nil
	}
	return ErrMissingEntryPoint
}

// declaresEntryPoint reports whether file has a top-level parse function or
// package-level parse variable. The variable's type is checked after eval.
func declaresEntryPoint(file *ast.File) bool {
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Recv == nil && d.Name.Name == EntryPoint {
				return true
			}
		case *ast.GenDecl:
			if d.Tok != token.VAR {
				continue
			}
			for _, s := range d.Specs {
				vs, ok := s.(*ast.ValueSpec)
				if !ok {
					continue
				}
				for _, name := range vs.Names {
					if name.Name == EntryPoint {
						return true
					}
				}
			}
		}
	}
	return false
}

// Load reads, checks and evaluates the candidate at path in a new
// interpreter and returns its entry point.
func (in *Interpreter) Load(path string) (ParseFunc, error) {
	src, err := os.ReadFile(path) //#nosec G304 -- candidate path comes from the store
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	logger.Debug("loading candidate", "path", path, "size", humanize.Bytes(uint64(len(src))))

	if err := Check(path, src); err != nil {
		return nil, err
	}
	return in.eval(path, string(src))
}

func (in *Interpreter) eval(path, src string) (fn ParseFunc, err error) {
	defer func() {
		if r := recover(); r != nil {
			fn, err = nil, &LoadError{Path: path, Err: fmt.Errorf("interpreter panic: %v", r)}
		}
	}()

	stdout := in.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := in.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	i := interp.New(interp.Options{Stdout: stdout, Stderr: stderr})
	if err := i.Use(Symbols()); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	if _, err := i.Eval(src); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	v, err := i.Eval("main." + EntryPoint)
	if err != nil {
		if v, err = i.Eval(EntryPoint); err != nil {
			return nil, ErrMissingEntryPoint
		}
	}
	if !v.IsValid() || !v.CanInterface() {
		return nil, ErrMissingEntryPoint
	}

	f, ok := v.Interface().(func(string) (table.Table, error))
	if !ok {
		return nil, &LoadError{Path: path, Err: fmt.Errorf(
			"%s has type %s, want func(string) (table.Table, error)", EntryPoint, v.Type())}
	}
	return f, nil
}

// Call invokes fn, turning returned errors and panics into InvocationError.
func Call(fn ParseFunc, inputPath string) (t table.Table, err error) {
	defer func() {
		if r := recover(); r != nil {
			t, err = table.Table{}, &InvocationError{Err: fmt.Errorf("%v", r), Panic: true}
		}
	}()

	t, err = fn(inputPath)
	if err != nil {
		return table.Table{}, &InvocationError{Err: err}
	}
	return t, nil
}

// Run loads the candidate and calls it on inputPath. Timeout covers both:
// evaluating the source runs package initialisers and init functions.
func (in *Interpreter) Run(ctx context.Context, candidatePath, inputPath string) (table.Table, error) {
	if in.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, in.Timeout)
		defer cancel()
	}

	type result struct {
		t   table.Table
		err error
	}
	done := make(chan result, 1)
	go func() {
		fn, err := in.Load(candidatePath)
		if err != nil {
			done <- result{err: err}
			return
		}
		t, err := Call(fn, inputPath)
		done <- result{t, err}
	}()

	select {
	case r := <-done:
		return r.t, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && in.Timeout > 0 {
			return table.Table{}, &TimeoutError{Timeout: in.Timeout}
		}
		return table.Table{}, ctx.Err()
	}
}

var _ Executor = (*Interpreter)(nil)
