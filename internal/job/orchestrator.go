package job

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/latentflow/internal/ctxlog"
	"github.com/vk/latentflow/internal/wire"
	"github.com/vk/latentflow/internal/workflow"
)

// Submitter is the remote engine boundary: one-shot submission, the
// completed-job history lookup, and the best-effort interrupt.
type Submitter interface {
	SubmitGraph(ctx context.Context, graph wire.ExecutionGraph) (jobID string, err error)
	Outputs(ctx context.Context, jobID string) ([]ArtifactRef, error)
	Interrupt(ctx context.Context, jobID string) error
}

// EventSource delivers remote progress events. Subscribe registers a
// handler and returns a release function; the handler may be invoked from
// the transport's own goroutine.
type EventSource interface {
	Subscribe(fn func(Event)) (cancel func())
}

// defaultRetryDelay spaces the two history-fallback lookups.
const defaultRetryDelay = 500 * time.Millisecond

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRetryDelay overrides the delay between the two history-fallback
// lookups. Tests shrink it.
func WithRetryDelay(d time.Duration) Option {
	return func(o *Orchestrator) { o.retryDelay = d }
}

// WithOnChange registers an observer called with a snapshot after every
// state change. The callback must not block; it runs on whichever
// goroutine applied the change.
func WithOnChange(fn func(State)) Option {
	return func(o *Orchestrator) { o.onChange = fn }
}

// Orchestrator owns one job slot: it submits an exported workflow, tracks
// the job through remote events, and recovers outputs through the history
// lookup when the stream did not carry them. A new submission replaces
// the previous terminal state.
type Orchestrator struct {
	engine Submitter
	events EventSource

	retryDelay time.Duration
	onChange   func(State)

	mu          sync.Mutex
	state       State
	unsubscribe func()
	recovering  bool
	baseCtx     context.Context
}

// New wires an orchestrator to its engine boundary. ctx is the lifetime
// context for background work (the fallback lookups); cancelling it stops
// any recovery in flight.
func New(ctx context.Context, engine Submitter, events EventSource, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		engine:     engine,
		events:     events,
		retryDelay: defaultRetryDelay,
		state:      State{Status: StatusIdle},
		baseCtx:    ctx,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns a snapshot of the slot.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.clone()
}

// Submit exports the workflow, hands it to the remote engine, and starts
// tracking the returned job. Valid from Idle or any terminal state; a
// submission-level failure lands in Failed without ever entering Queued.
func (o *Orchestrator) Submit(ctx context.Context, wf *workflow.Workflow, resolvedParams map[string]cty.Value) error {
	logger := ctxlog.FromContext(ctx)

	o.mu.Lock()
	if o.state.Status.Active() {
		o.mu.Unlock()
		return fmt.Errorf("%w: job %s is %s", ErrJobActive, o.state.JobID, o.state.Status)
	}
	o.state = State{Status: StatusSubmitting, SubmittedAt: time.Now()}
	o.recovering = false
	o.mu.Unlock()
	o.notify()

	graph, err := wire.Export(wf, resolvedParams)
	if err != nil {
		o.fail(fmt.Errorf("export workflow: %w", err))
		return err
	}

	jobID, err := o.engine.SubmitGraph(ctx, graph)
	if err != nil {
		logger.Error("Submission failed", "error", err)
		o.fail(err)
		return err
	}
	logger.Info("Workflow submitted", "jobId", jobID, "nodes", len(graph))

	o.mu.Lock()
	o.state.JobID = jobID
	o.state.Status = StatusQueued
	if o.unsubscribe == nil {
		// One stream subscription per orchestrator lifetime, released in
		// Close. Events for other jobs on the shared stream are dropped
		// by the transition filter.
		o.unsubscribe = o.events.Subscribe(o.dispatch)
	}
	o.mu.Unlock()
	o.notify()

	return nil
}

// Cancel sends a best-effort interrupt for the job in flight. Transport
// errors while cancelling are swallowed: the job may already be done, and
// the slot lands in Cancelled either way.
func (o *Orchestrator) Cancel(ctx context.Context) error {
	o.mu.Lock()
	status, jobID := o.state.Status, o.state.JobID
	o.mu.Unlock()

	if status != StatusQueued && status != StatusRunning {
		return fmt.Errorf("%w: slot is %s", ErrNotCancellable, status)
	}

	if err := o.engine.Interrupt(ctx, jobID); err != nil {
		ctxlog.FromContext(ctx).Warn("Interrupt request failed, marking cancelled anyway", "jobId", jobID, "error", err)
	}

	o.mu.Lock()
	if o.state.JobID == jobID && !o.state.Status.Terminal() {
		o.state.Status = StatusCancelled
	}
	o.mu.Unlock()
	o.notify()
	return nil
}

// Close releases the event-stream subscription. The orchestrator must not
// be used afterwards.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	unsub := o.unsubscribe
	o.unsubscribe = nil
	o.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// dispatch applies one remote event under the slot lock and runs whatever
// follow-up the transition asked for. Events arrive in stream order; the
// transition drops anything for other jobs or after a terminal state.
func (o *Orchestrator) dispatch(ev Event) {
	o.mu.Lock()
	next, follow := transition(o.state, ev)
	if follow == followFetchOutputs && o.recovering {
		// A duplicate terminal event must not start a second lookup.
		follow = followNone
	}
	o.state = next
	if follow == followFetchOutputs {
		o.recovering = true
	}
	jobID := o.state.JobID
	o.mu.Unlock()
	o.notify()

	if follow == followFetchOutputs {
		go o.recoverOutputs(jobID)
	}
}

// recoverOutputs is the history fallback: look up the job's outputs once,
// and if the history has not materialized yet, wait a short fixed delay
// and try exactly once more. An empty second answer is surfaced as the
// distinct completed-but-no-output failure rather than hanging the slot.
func (o *Orchestrator) recoverOutputs(jobID string) {
	ctx := o.baseCtx
	logger := ctxlog.FromContext(ctx).With("jobId", jobID)
	logger.Debug("Completion event carried no outputs, falling back to history lookup")

	outputs, err := o.engine.Outputs(ctx, jobID)
	if err == nil && len(outputs) == 0 {
		select {
		case <-time.After(o.retryDelay):
		case <-ctx.Done():
			o.settleRecovery(jobID, nil, ctx.Err())
			return
		}
		outputs, err = o.engine.Outputs(ctx, jobID)
	}

	switch {
	case err != nil:
		logger.Warn("History lookup failed", "error", err)
		o.settleRecovery(jobID, nil, fmt.Errorf("history lookup: %w", err))
	case len(outputs) == 0:
		logger.Warn("History lookup returned no outputs after retry")
		o.settleRecovery(jobID, nil, ErrCompletedNoOutputs)
	default:
		logger.Info("Outputs recovered from history", "count", len(outputs))
		o.settleRecovery(jobID, outputs, nil)
	}
}

// settleRecovery lands the fallback result, unless the job was replaced
// or reached a terminal state (e.g. cancelled) in the meantime.
func (o *Orchestrator) settleRecovery(jobID string, outputs []ArtifactRef, err error) {
	o.mu.Lock()
	if o.state.JobID != jobID || o.state.Status.Terminal() {
		o.mu.Unlock()
		return
	}
	o.recovering = false
	if err != nil {
		o.state.Status = StatusFailed
		o.state.Err = err
	} else {
		o.state.Status = StatusCompleted
		o.state.Outputs = outputs
	}
	o.mu.Unlock()
	o.notify()
}

// fail records a pre-queue failure (export or submission).
func (o *Orchestrator) fail(err error) {
	o.mu.Lock()
	o.state.Status = StatusFailed
	o.state.Err = err
	o.mu.Unlock()
	o.notify()
}

// notify hands the observer a fresh snapshot, outside the lock.
func (o *Orchestrator) notify() {
	if o.onChange == nil {
		return
	}
	o.onChange(o.State())
}
