package workflow

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/latentflow/internal/catalog"
)

// AddNode places a new node of the given type at the given position. The
// node starts with the definition's title and the declared default for
// every input that has one.
func (w *Workflow) AddNode(nodeType string, pos Position) (*Node, error) {
	def, ok := w.registry.Get(nodeType)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNodeType, nodeType)
	}

	n := &Node{
		ID:          w.allocateNodeID(),
		Type:        nodeType,
		Title:       def.Title,
		Position:    pos,
		InputValues: make(map[string]cty.Value),
		def:         def,
	}
	for _, in := range def.Inputs {
		if !in.Default.IsNull() {
			n.InputValues[in.Name] = in.Default
		}
	}

	w.nodes[n.ID] = n
	return n, nil
}

// RestoreNode materializes a node under a caller-chosen id, as needed when
// rebuilding a workflow from the wire format. A type the catalog does not
// know still yields a node, with a nil definition. The id must be free.
func (w *Workflow) RestoreNode(id, nodeType string) (*Node, error) {
	if _, taken := w.nodes[id]; taken {
		return nil, fmt.Errorf("node id %q already in use", id)
	}

	n := &Node{
		ID:          id,
		Type:        nodeType,
		Title:       nodeType,
		InputValues: make(map[string]cty.Value),
	}
	if def, ok := w.registry.Get(nodeType); ok {
		n.def = def
		n.Title = def.Title
	}

	w.nodes[id] = n
	return n, nil
}

// RemoveNode removes the node and cascades: every connection with this
// node as source or target goes with it, as does any parameter bound to
// one of its inputs. Removing an absent id is a no-op.
func (w *Workflow) RemoveNode(id string) {
	if _, ok := w.nodes[id]; !ok {
		return
	}
	for connID, c := range w.conns {
		if c.SourceNodeID == id || c.TargetNodeID == id {
			delete(w.conns, connID)
		}
	}
	kept := w.params[:0]
	for _, p := range w.params {
		if p.NodeID != id {
			kept = append(kept, p)
		}
	}
	w.params = kept
	delete(w.nodes, id)
}

// SetInputValue stores a literal for the named input. Connected inputs are
// driven by their upstream node, so the caller must disconnect first.
func (w *Workflow) SetInputValue(nodeID, inputName string, value cty.Value) error {
	n, ok := w.nodes[nodeID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNodeNotFound, nodeID)
	}

	if n.def != nil {
		slot, ok := n.def.InputByName(inputName)
		if !ok {
			return fmt.Errorf("%w: node %q has no input %q", ErrUnknownInput, nodeID, inputName)
		}
		if err := slot.Check(value); err != nil {
			return fmt.Errorf("%w: %s", ErrTypeMismatch, err)
		}
	}

	if _, connected := w.ConnectionTo(nodeID, inputName); connected {
		return fmt.Errorf("%w: %s.%s", ErrInputConnected, nodeID, inputName)
	}

	n.InputValues[inputName] = value
	return nil
}

// AddConnection wires a source output socket to a target input socket.
// Existence, socket validity, and type compatibility are all checked before
// anything changes. If the target input already has a connection, the old
// edge is dropped as part of the same call; on the canvas, dragging a new
// wire onto a busy input replaces the wire that was there.
func (w *Workflow) AddConnection(sourceNodeID string, outputIndex int, targetNodeID, inputName string) (*Connection, error) {
	src, ok := w.nodes[sourceNodeID]
	if !ok {
		return nil, fmt.Errorf("%w: source %q", ErrNodeNotFound, sourceNodeID)
	}
	tgt, ok := w.nodes[targetNodeID]
	if !ok {
		return nil, fmt.Errorf("%w: target %q", ErrNodeNotFound, targetNodeID)
	}

	// Nodes of unknown type have no socket schema to validate against;
	// their sockets are treated as wildcards.
	var srcType, tgtType = catalog.TypeWildcard, catalog.TypeWildcard

	if src.def != nil {
		out, ok := src.def.OutputAt(outputIndex)
		if !ok {
			return nil, fmt.Errorf("%w: node %q has no output %d", ErrUnknownSocket, sourceNodeID, outputIndex)
		}
		srcType = out.DataType
	} else if outputIndex < 0 {
		return nil, fmt.Errorf("%w: negative output index %d", ErrUnknownSocket, outputIndex)
	}

	if tgt.def != nil {
		in, ok := tgt.def.InputByName(inputName)
		if !ok {
			return nil, fmt.Errorf("%w: node %q has no input %q", ErrUnknownSocket, targetNodeID, inputName)
		}
		tgtType = in.DataType
	}

	if !tgtType.Accepts(srcType) && srcType != catalog.TypeWildcard {
		return nil, fmt.Errorf("%w: %s output cannot drive %s input %q", ErrTypeMismatch, srcType, tgtType, inputName)
	}

	if prior, connected := w.ConnectionTo(targetNodeID, inputName); connected {
		delete(w.conns, prior.ID)
	}

	c := &Connection{
		ID:                uuid.NewString(),
		SourceNodeID:      sourceNodeID,
		SourceOutputIndex: outputIndex,
		TargetNodeID:      targetNodeID,
		TargetInputName:   inputName,
	}
	w.conns[c.ID] = c
	return c, nil
}

// RemoveConnection removes a connection by id. Absent ids are a no-op.
func (w *Workflow) RemoveConnection(id string) {
	delete(w.conns, id)
}

// MoveNode overwrites the node's position. There is no collision handling;
// nodes may overlap freely on the canvas.
func (w *Workflow) MoveNode(id string, pos Position) error {
	n, ok := w.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNodeNotFound, id)
	}
	n.Position = pos
	return nil
}

// SetTitle overwrites the node's display label.
func (w *Workflow) SetTitle(id, title string) error {
	n, ok := w.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNodeNotFound, id)
	}
	n.Title = title
	return nil
}

// SetCollapsed folds or unfolds the node on the canvas.
func (w *Workflow) SetCollapsed(id string, collapsed bool) error {
	n, ok := w.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNodeNotFound, id)
	}
	n.Collapsed = collapsed
	return nil
}

// BindParameter exposes a node input under a user-facing parameter name.
// Re-binding an existing name moves the binding.
func (w *Workflow) BindParameter(name, nodeID, inputName string) error {
	n, ok := w.nodes[nodeID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNodeNotFound, nodeID)
	}
	if n.def != nil {
		if _, ok := n.def.InputByName(inputName); !ok {
			return fmt.Errorf("%w: node %q has no input %q", ErrUnknownInput, nodeID, inputName)
		}
	}

	for i, p := range w.params {
		if p.Name == name {
			w.params[i] = Parameter{Name: name, NodeID: nodeID, Input: inputName}
			return nil
		}
	}
	w.params = append(w.params, Parameter{Name: name, NodeID: nodeID, Input: inputName})
	return nil
}
