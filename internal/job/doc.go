// Package job tracks the remote lifecycle of one submitted execution
// graph: queueing, progress events, completion, error, cancellation, and
// history-based output recovery.
//
// The state-machine rules live in a pure transition function; the
// Orchestrator wraps it with the transport plumbing (submission call,
// event-stream subscription, history fallback) so the rules stay testable
// without any network machinery.
package job
