package agent

import (
	"time"

	"github.com/jmylchreest/parsegen/internal/target"
)

// Phase names a step of the retry loop.
type Phase string

const (
	PhasePlan      Phase = "plan"
	PhaseCodegen   Phase = "codegen"
	PhaseTest      Phase = "test"
	PhaseDecide    Phase = "decide"
	PhaseDone      Phase = "done"
	PhaseExhausted Phase = "exhausted"
)

// AttemptRecord is the outcome of one attempt.
type AttemptRecord struct {
	Attempt       int           `json:"attempt" yaml:"attempt"`
	CandidatePath string        `json:"candidate_path" yaml:"candidate_path"`
	Generated     bool          `json:"generated" yaml:"generated"`                               // oracle returned valid Go
	GenerateError string        `json:"generate_error,omitempty" yaml:"generate_error,omitempty"` // transport or syntax failure
	Success       bool          `json:"success" yaml:"success"`
	Message       string        `json:"message,omitempty" yaml:"message,omitempty"`
	StartedAt     time.Time     `json:"started_at" yaml:"started_at"`
	Duration      time.Duration `json:"duration" yaml:"duration"`
}

// State is carried through the loop. Step functions take a State and return
// the next one.
type State struct {
	RunID         string          `json:"run_id" yaml:"run_id"`
	Target        string          `json:"target" yaml:"target"`
	Files         target.Files    `json:"files" yaml:"files"`
	Attempt       int             `json:"attempt" yaml:"attempt"`
	CandidatePath string          `json:"candidate_path,omitempty" yaml:"candidate_path,omitempty"`
	Success       bool            `json:"success" yaml:"success"`
	LastError     string          `json:"last_error,omitempty" yaml:"last_error,omitempty"`
	OutputPath    string          `json:"output_path,omitempty" yaml:"output_path,omitempty"`
	History       []AttemptRecord `json:"history,omitempty" yaml:"history,omitempty"`
}

// NewState seeds the loop for target.
func NewState(name string, files target.Files) State {
	return State{Target: name, Files: files}
}

// current returns the record of the attempt in progress, or nil.
func (s *State) current() *AttemptRecord {
	if len(s.History) == 0 || s.History[len(s.History)-1].Attempt != s.Attempt {
		return nil
	}
	return &s.History[len(s.History)-1]
}
