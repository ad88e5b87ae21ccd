// Package canvas layers the interactive editing protocol over a workflow:
// the pending-connection state machine used while a user drags a wire from
// an output socket, plus node selection and repositioning.
//
// Selection and connection-drawing are independent axes. Selecting a node
// does not disturb a drag in progress, and a drag does not clear the
// selection.
package canvas

import (
	"fmt"

	"github.com/vk/latentflow/internal/workflow"
)

// PendingConnection is the source socket held while a wire is being
// dragged and no target has been chosen yet.
type PendingConnection struct {
	SourceNodeID      string
	SourceOutputIndex int
}

// Session drives one workflow through interactive edits.
type Session struct {
	wf       *workflow.Workflow
	pending  *PendingConnection
	selected string
}

// NewSession wraps a workflow in an editing session.
func NewSession(wf *workflow.Workflow) *Session {
	return &Session{wf: wf}
}

// Workflow returns the document under edit.
func (s *Session) Workflow() *workflow.Workflow { return s.wf }

// Pending returns the held source socket while a connection drag is in
// progress, or nil when the session is idle.
func (s *Session) Pending() *PendingConnection {
	if s.pending == nil {
		return nil
	}
	p := *s.pending
	return &p
}

// BeginConnection starts a connection drag from the given output socket.
// Starting is legal whenever the socket exists; an output may fan out to
// any number of inputs, so no fan-out check happens here. A drag already
// in progress is replaced.
func (s *Session) BeginConnection(nodeID string, outputIndex int) error {
	n, ok := s.wf.Node(nodeID)
	if !ok {
		return fmt.Errorf("%w: %q", workflow.ErrNodeNotFound, nodeID)
	}
	if def := n.Definition(); def != nil {
		if _, ok := def.OutputAt(outputIndex); !ok {
			return fmt.Errorf("%w: node %q has no output %d", workflow.ErrUnknownSocket, nodeID, outputIndex)
		}
	} else if outputIndex < 0 {
		return fmt.Errorf("%w: negative output index %d", workflow.ErrUnknownSocket, outputIndex)
	}

	s.pending = &PendingConnection{SourceNodeID: nodeID, SourceOutputIndex: outputIndex}
	return nil
}

// CompleteConnection attempts to land the pending drag on the given input
// socket. Whatever the outcome, the session returns to idle: a rejected
// drop (type mismatch, bad socket) must not leave the drag stuck.
func (s *Session) CompleteConnection(targetNodeID, inputName string) (*workflow.Connection, error) {
	if s.pending == nil {
		return nil, fmt.Errorf("no connection in progress")
	}
	src := *s.pending
	s.pending = nil

	return s.wf.AddConnection(src.SourceNodeID, src.SourceOutputIndex, targetNodeID, inputName)
}

// CancelConnection abandons the pending drag without touching the graph.
// Safe to call at any time, from any cancellation signal.
func (s *Session) CancelConnection() {
	s.pending = nil
}

// Select marks the node as the current selection. At most one node is
// selected at a time.
func (s *Session) Select(nodeID string) error {
	if _, ok := s.wf.Node(nodeID); !ok {
		return fmt.Errorf("%w: %q", workflow.ErrNodeNotFound, nodeID)
	}
	s.selected = nodeID
	return nil
}

// Selected returns the selected node id, or "" when nothing is selected.
func (s *Session) Selected() string { return s.selected }

// ClearSelection deselects.
func (s *Session) ClearSelection() { s.selected = "" }

// MoveNode repositions a node.
func (s *Session) MoveNode(nodeID string, pos workflow.Position) error {
	return s.wf.MoveNode(nodeID, pos)
}
