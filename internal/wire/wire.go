// Package wire maps workflows to and from the execution-graph JSON the
// remote generation engine consumes.
//
// The wire format is an object keyed by node id. Each entry carries the
// node's class type and an inputs map whose values are either a literal
// scalar or a two-element [sourceNodeID, sourceOutputIndex] reference to
// another node's output. Titles, positions, and other canvas state do not
// survive the trip; only topology and literals do.
package wire

import (
	"encoding/json"
	"fmt"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Node is one entry in the execution graph.
type Node struct {
	ClassType string           `json:"class_type"`
	Inputs    map[string]Input `json:"inputs"`
}

// ExecutionGraph is the submit payload, keyed by node id.
type ExecutionGraph map[string]Node

// Input is one input value on the wire: either a literal or a reference
// to an upstream output. Exactly one of the two forms is set.
type Input struct {
	// Literal holds a scalar value when the input is not connected.
	Literal cty.Value

	// Ref is non-nil when the input is driven by another node's output.
	Ref *OutputRef
}

// OutputRef points at an upstream node's output socket.
type OutputRef struct {
	NodeID      string
	OutputIndex int
}

// LiteralInput wraps a scalar value as a wire input.
func LiteralInput(v cty.Value) Input { return Input{Literal: v} }

// RefInput wraps an upstream reference as a wire input.
func RefInput(nodeID string, outputIndex int) Input {
	return Input{Ref: &OutputRef{NodeID: nodeID, OutputIndex: outputIndex}}
}

// MarshalJSON encodes a reference as the [nodeID, outputIndex] pair and a
// literal as its plain JSON value.
func (in Input) MarshalJSON() ([]byte, error) {
	if in.Ref != nil {
		return json.Marshal([2]any{in.Ref.NodeID, in.Ref.OutputIndex})
	}
	return ctyjson.SimpleJSONValue{Value: in.Literal}.MarshalJSON()
}

// UnmarshalJSON distinguishes the two forms: a two-element array whose
// first element is a string is a reference, everything else is a literal.
func (in *Input) UnmarshalJSON(data []byte) error {
	var probe []json.RawMessage
	if err := json.Unmarshal(data, &probe); err == nil && len(probe) == 2 {
		var nodeID string
		if err := json.Unmarshal(probe[0], &nodeID); err == nil {
			var idx int
			if err := json.Unmarshal(probe[1], &idx); err != nil {
				return fmt.Errorf("malformed output reference index: %w", err)
			}
			in.Ref = &OutputRef{NodeID: nodeID, OutputIndex: idx}
			in.Literal = cty.NilVal
			return nil
		}
	}

	var sv ctyjson.SimpleJSONValue
	if err := sv.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("malformed input value: %w", err)
	}
	in.Literal = sv.Value
	in.Ref = nil
	return nil
}
