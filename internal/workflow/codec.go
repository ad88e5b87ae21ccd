package workflow

import (
	"encoding/json"
	"fmt"

	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/vk/latentflow/internal/catalog"
)

// The document format is the full-fidelity JSON persisted by the workflow
// store. Unlike the wire format it keeps titles, positions, collapsed
// state, and parameter bindings, so a saved workflow reopens exactly as it
// was left.

type document struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Folder      string         `json:"folder,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Nodes       []documentNode `json:"nodes"`
	Connections []documentConn `json:"connections"`
	Parameters  []documentParam `json:"parameters,omitempty"`
}

type documentNode struct {
	ID        string                          `json:"id"`
	Type      string                          `json:"type"`
	Title     string                          `json:"title"`
	Position  Position                        `json:"position"`
	Size      Size                            `json:"size"`
	Collapsed bool                            `json:"collapsed,omitempty"`
	Values    map[string]ctyjson.SimpleJSONValue `json:"values,omitempty"`
}

type documentConn struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	SourceOutput int    `json:"source_output"`
	Target       string `json:"target"`
	TargetInput  string `json:"target_input"`
}

type documentParam struct {
	Name   string `json:"name"`
	NodeID string `json:"node"`
	Input  string `json:"input"`
}

// EncodeDocument renders the workflow as the persisted document format.
func EncodeDocument(w *Workflow) ([]byte, error) {
	doc := document{
		ID:     w.ID,
		Name:   w.Name,
		Folder: w.Folder,
		Tags:   w.Tags,
	}

	for _, n := range w.Nodes() {
		dn := documentNode{
			ID:        n.ID,
			Type:      n.Type,
			Title:     n.Title,
			Position:  n.Position,
			Size:      n.Size,
			Collapsed: n.Collapsed,
		}
		if len(n.InputValues) > 0 {
			dn.Values = make(map[string]ctyjson.SimpleJSONValue, len(n.InputValues))
			for name, v := range n.InputValues {
				dn.Values[name] = ctyjson.SimpleJSONValue{Value: v}
			}
		}
		doc.Nodes = append(doc.Nodes, dn)
	}

	for _, c := range w.Connections() {
		doc.Connections = append(doc.Connections, documentConn{
			ID:           c.ID,
			Source:       c.SourceNodeID,
			SourceOutput: c.SourceOutputIndex,
			Target:       c.TargetNodeID,
			TargetInput:  c.TargetInputName,
		})
	}

	for _, p := range w.params {
		doc.Parameters = append(doc.Parameters, documentParam{Name: p.Name, NodeID: p.NodeID, Input: p.Input})
	}

	return json.MarshalIndent(doc, "", "  ")
}

// DecodeDocument rebuilds a workflow from the persisted document format.
// Node types missing from the registry are restored as definition-less
// nodes rather than failing the load.
func DecodeDocument(registry *catalog.Registry, data []byte) (*Workflow, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("malformed workflow document: %w", err)
	}

	w := New(registry)
	if doc.ID != "" {
		w.ID = doc.ID
	}
	w.Name = doc.Name
	w.Folder = doc.Folder
	w.Tags = doc.Tags

	for _, dn := range doc.Nodes {
		n, err := w.RestoreNode(dn.ID, dn.Type)
		if err != nil {
			return nil, fmt.Errorf("workflow document: %w", err)
		}
		if dn.Title != "" {
			n.Title = dn.Title
		}
		n.Position = dn.Position
		n.Size = dn.Size
		n.Collapsed = dn.Collapsed
		for name, v := range dn.Values {
			n.InputValues[name] = v.Value
		}
	}

	for _, dc := range doc.Connections {
		c, err := w.AddConnection(dc.Source, dc.SourceOutput, dc.Target, dc.TargetInput)
		if err != nil {
			return nil, fmt.Errorf("workflow document connection %s: %w", dc.ID, err)
		}
		// Keep the stored id so re-saving is stable.
		delete(w.conns, c.ID)
		c.ID = dc.ID
		w.conns[dc.ID] = c
	}

	for _, dp := range doc.Parameters {
		if err := w.BindParameter(dp.Name, dp.NodeID, dp.Input); err != nil {
			return nil, fmt.Errorf("workflow document parameter %q: %w", dp.Name, err)
		}
	}

	return w, nil
}
