package wire

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vk/latentflow/internal/catalog"
	"github.com/vk/latentflow/internal/ctxlog"
	"github.com/vk/latentflow/internal/workflow"
)

// Import rebuilds a workflow from execution-graph JSON.
//
// The import is deliberately tolerant at the node level: an entry whose
// class type the catalog does not know still materializes as a
// definition-less node, and an individual value or edge the graph layer
// rejects is skipped with a log line, so one exotic extension node cannot
// sink a whole shared workflow. Only structural damage fails the call —
// a top level that is not an object, or an entry missing class_type or
// inputs.
//
// Titles and positions are not part of the wire format; imported nodes
// come back with definition titles and zeroed positions.
func Import(ctx context.Context, data []byte, registry *catalog.Registry) (*workflow.Workflow, error) {
	logger := ctxlog.FromContext(ctx)

	var graph ExecutionGraph
	if err := json.Unmarshal(data, &graph); err != nil {
		return nil, fmt.Errorf("malformed execution graph: %w", err)
	}

	wf := workflow.New(registry)

	// Nodes first so every connection target exists.
	for id, entry := range graph {
		if entry.ClassType == "" {
			return nil, fmt.Errorf("malformed execution graph: node %q has no class_type", id)
		}
		if entry.Inputs == nil {
			return nil, fmt.Errorf("malformed execution graph: node %q has no inputs", id)
		}
		if _, err := wf.RestoreNode(id, entry.ClassType); err != nil {
			return nil, fmt.Errorf("execution graph: %w", err)
		}
	}

	for id, entry := range graph {
		for name, in := range entry.Inputs {
			if in.Ref != nil {
				if _, err := wf.AddConnection(in.Ref.NodeID, in.Ref.OutputIndex, id, name); err != nil {
					logger.Warn("Skipping unimportable connection", "node", id, "input", name, "error", err)
				}
				continue
			}
			if err := wf.SetInputValue(id, name, in.Literal); err != nil {
				logger.Warn("Skipping unimportable input value", "node", id, "input", name, "error", err)
			}
		}
	}

	return wf, nil
}
