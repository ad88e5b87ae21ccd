package workflow

import "errors"

// Sentinel errors for the structural error taxonomy. Every mutation either
// succeeds or fails with one of these wrapped in context; callers branch
// with errors.Is.
var (
	// ErrUnknownNodeType means the catalog has no definition for the
	// requested node type.
	ErrUnknownNodeType = errors.New("unknown node type")

	// ErrNodeNotFound means a referenced node id is not in the workflow.
	ErrNodeNotFound = errors.New("node not found")

	// ErrUnknownInput means the named input is not declared by the node's
	// definition.
	ErrUnknownInput = errors.New("unknown input")

	// ErrUnknownSocket means an output index or input name does not exist
	// on the referenced node's definition.
	ErrUnknownSocket = errors.New("unknown socket")

	// ErrTypeMismatch means the source output type is not accepted by the
	// target input type.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrInputConnected means the input is currently driven by a
	// connection; the literal cannot be set until it is disconnected.
	ErrInputConnected = errors.New("input is connected")
)
