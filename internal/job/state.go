package job

import (
	"errors"
	"fmt"
	"time"
)

// Status is the lifecycle phase of a job slot.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusSubmitting Status = "submitting"
	StatusQueued     Status = "queued"
	StatusRunning    Status = "running"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Terminal reports whether no further transitions can happen.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Active reports whether a job is in flight on the slot.
func (s Status) Active() bool {
	switch s {
	case StatusSubmitting, StatusQueued, StatusRunning:
		return true
	}
	return false
}

// ArtifactRef identifies one output or preview artifact held by the
// remote engine.
type ArtifactRef struct {
	Filename  string `json:"filename"`
	Subfolder string `json:"subfolder,omitempty"`
	Kind      string `json:"type,omitempty"`
}

// State is the observable snapshot of a job slot. Observers receive a
// copy on every change; mutating a snapshot has no effect on the slot.
type State struct {
	JobID       string
	Status      Status
	CurrentStep int
	TotalSteps  int
	Preview     *ArtifactRef
	Outputs     []ArtifactRef
	Err         error
	SubmittedAt time.Time
}

// clone deep-copies the snapshot so observers cannot alias slot innards.
func (s State) clone() State {
	out := s
	if s.Preview != nil {
		p := *s.Preview
		out.Preview = &p
	}
	if s.Outputs != nil {
		out.Outputs = make([]ArtifactRef, len(s.Outputs))
		copy(out.Outputs, s.Outputs)
	}
	return out
}

// ErrCompletedNoOutputs marks the ambiguous outcome where the engine
// reported completion but no output could be recovered, either from the
// event itself or from the history lookup after the bounded retry. The UI
// should explain the ambiguity rather than show a generic failure.
var ErrCompletedNoOutputs = errors.New("job completed but no output was found")

// ErrJobActive rejects a submit or close while a job is still in flight.
var ErrJobActive = errors.New("a job is already in flight")

// ErrNotCancellable rejects a cancel outside Queued or Running.
var ErrNotCancellable = errors.New("no cancellable job in flight")

// RemoteError is an execution failure reported by the remote engine.
type RemoteError struct {
	Message string
	// Stage is the failing node or stage identifier when the engine
	// provided one.
	Stage string
}

func (e *RemoteError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("remote execution failed at %s: %s", e.Stage, e.Message)
	}
	return fmt.Sprintf("remote execution failed: %s", e.Message)
}
