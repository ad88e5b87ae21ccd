package wire

import (
	"fmt"
	"sort"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/latentflow/internal/workflow"
)

// Export renders the workflow as an execution graph. For each declared
// input of each node: a connected input becomes an output reference, a
// parameter-bound input takes its resolved override when one was supplied,
// and everything else falls back to the node's literal. Inputs with no
// connection, no override, and no literal are omitted; the remote engine
// applies its own defaults. The result is deterministic for a given graph
// and parameter set.
func Export(wf *workflow.Workflow, resolvedParams map[string]cty.Value) (ExecutionGraph, error) {
	graph := make(ExecutionGraph, len(wf.Nodes()))

	for _, n := range wf.Nodes() {
		entry := Node{
			ClassType: n.Type,
			Inputs:    make(map[string]Input),
		}

		for _, name := range inputNames(wf, n) {
			if conn, ok := wf.ConnectionTo(n.ID, name); ok {
				entry.Inputs[name] = RefInput(conn.SourceNodeID, conn.SourceOutputIndex)
				continue
			}

			if p, bound := wf.ParameterFor(n.ID, name); bound {
				if v, ok := resolvedParams[p.Name]; ok {
					if err := checkOverride(n, name, v); err != nil {
						return nil, err
					}
					entry.Inputs[name] = LiteralInput(v)
					continue
				}
			}

			if v, ok := n.InputValues[name]; ok {
				entry.Inputs[name] = LiteralInput(v)
			}
		}

		graph[n.ID] = entry
	}

	return graph, nil
}

// inputNames lists the input names to consider for a node: the declared
// order for known types, the stored value keys plus connected inputs for
// definition-less ones.
func inputNames(wf *workflow.Workflow, n *workflow.Node) []string {
	if def := n.Definition(); def != nil {
		names := make([]string, 0, len(def.Inputs))
		for _, in := range def.Inputs {
			names = append(names, in.Name)
		}
		return names
	}

	seen := make(map[string]bool, len(n.InputValues))
	for name := range n.InputValues {
		seen[name] = true
	}
	for _, c := range wf.Connections() {
		if c.TargetNodeID == n.ID {
			seen[c.TargetInputName] = true
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func checkOverride(n *workflow.Node, inputName string, v cty.Value) error {
	def := n.Definition()
	if def == nil {
		return nil
	}
	slot, ok := def.InputByName(inputName)
	if !ok {
		return nil
	}
	if err := slot.Check(v); err != nil {
		return fmt.Errorf("parameter override for %s.%s: %w", n.ID, inputName, err)
	}
	return nil
}
