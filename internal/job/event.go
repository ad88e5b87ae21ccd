package job

// EventKind discriminates the three shapes of remote progress events.
type EventKind int

const (
	// EventProgress carries a step counter and an optional preview.
	EventProgress EventKind = iota
	// EventComplete is terminal success, possibly with embedded outputs.
	EventComplete
	// EventError is terminal failure.
	EventError
)

// Event is one message from the remote progress stream. Multiple jobs may
// share a physical stream; consumers filter by JobID.
type Event struct {
	JobID string
	Kind  EventKind

	// Progress fields.
	Step       int
	TotalSteps int
	Preview    *ArtifactRef

	// Complete fields. A complete event without outputs triggers the
	// history fallback.
	Outputs []ArtifactRef

	// Error fields.
	Message string
	Stage   string
}

// followUp is the side effect a transition asks the orchestrator to run.
type followUp int

const (
	followNone followUp = iota

	// followFetchOutputs starts the history-fallback lookup.
	followFetchOutputs
)

// transition applies one event to a snapshot and returns the next
// snapshot plus any follow-up work. It is pure: no I/O, no clock, no
// locking. Events for other jobs and events arriving after a terminal
// state return the snapshot unchanged.
func transition(s State, ev Event) (State, followUp) {
	if ev.JobID != s.JobID || s.Status.Terminal() {
		return s, followNone
	}
	if s.Status != StatusQueued && s.Status != StatusRunning {
		// Events can only move a submitted job; a stray event while idle
		// or still submitting is dropped.
		return s, followNone
	}

	switch ev.Kind {
	case EventProgress:
		s.Status = StatusRunning
		s.CurrentStep = ev.Step
		s.TotalSteps = ev.TotalSteps
		if ev.Preview != nil {
			p := *ev.Preview
			s.Preview = &p
		}
		return s, followNone

	case EventComplete:
		if len(ev.Outputs) == 0 {
			// Completion with no embedded artifacts: stay Running and let
			// the orchestrator try the history lookup.
			s.Status = StatusRunning
			return s, followFetchOutputs
		}
		s.Status = StatusCompleted
		s.Outputs = make([]ArtifactRef, len(ev.Outputs))
		copy(s.Outputs, ev.Outputs)
		return s, followNone

	case EventError:
		s.Status = StatusFailed
		s.Err = &RemoteError{Message: ev.Message, Stage: ev.Stage}
		return s, followNone
	}

	return s, followNone
}
