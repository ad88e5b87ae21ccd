package workflow

import (
	"sort"
	"strconv"

	"github.com/google/uuid"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/latentflow/internal/catalog"
)

// Position is a 2D canvas coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a node's rendered extent on the canvas.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Node is one placed computation step in a workflow.
type Node struct {
	ID        string
	Type      string
	Title     string
	Position  Position
	Size      Size
	Collapsed bool

	// InputValues holds the literal value per input name. Only inputs
	// without an incoming connection are read from here.
	InputValues map[string]cty.Value

	// def is nil when the node was imported with a type the catalog does
	// not know. Such nodes are kept editable but validated permissively.
	def *catalog.NodeDefinition
}

// Definition returns the node's catalog definition, or nil for a node of
// an unknown type.
func (n *Node) Definition() *catalog.NodeDefinition { return n.def }

// Connection is a typed edge from a source node's output socket to a
// target node's input socket.
type Connection struct {
	ID                string
	SourceNodeID      string
	SourceOutputIndex int
	TargetNodeID      string
	TargetInputName   string
}

// Parameter is a named, user-exposed binding onto one node input. The
// serializer overlays resolved parameter values onto the bound inputs at
// export time.
type Parameter struct {
	Name   string
	NodeID string
	Input  string
}

// Workflow is the editable graph document. It is owned by a single editor
// session and is not safe for concurrent mutation.
type Workflow struct {
	ID     string
	Name   string
	Folder string
	Tags   []string

	registry *catalog.Registry
	nodes    map[string]*Node
	conns    map[string]*Connection
	params   []Parameter

	nextNodeID int
}

// New creates an empty workflow validated against the given registry.
func New(registry *catalog.Registry) *Workflow {
	return &Workflow{
		ID:       uuid.NewString(),
		registry: registry,
		nodes:    make(map[string]*Node),
		conns:    make(map[string]*Connection),
	}
}

// Node returns the node with the given id.
func (w *Workflow) Node(id string) (*Node, bool) {
	n, ok := w.nodes[id]
	return n, ok
}

// Nodes returns every node, ordered by id for deterministic iteration.
func (w *Workflow) Nodes() []*Node {
	out := make([]*Node, 0, len(w.nodes))
	for _, n := range w.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return lessNodeID(out[i].ID, out[j].ID) })
	return out
}

// Connections returns every connection, ordered by id.
func (w *Workflow) Connections() []*Connection {
	out := make([]*Connection, 0, len(w.conns))
	for _, c := range w.conns {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Connection returns the connection with the given id.
func (w *Workflow) Connection(id string) (*Connection, bool) {
	c, ok := w.conns[id]
	return c, ok
}

// ConnectionTo returns the connection terminating at the given input, if
// any. At most one can exist.
func (w *Workflow) ConnectionTo(nodeID, inputName string) (*Connection, bool) {
	for _, c := range w.conns {
		if c.TargetNodeID == nodeID && c.TargetInputName == inputName {
			return c, true
		}
	}
	return nil, false
}

// ConnectionsFrom returns every connection fanning out from the given
// output socket, ordered by id.
func (w *Workflow) ConnectionsFrom(nodeID string, outputIndex int) []*Connection {
	var out []*Connection
	for _, c := range w.conns {
		if c.SourceNodeID == nodeID && c.SourceOutputIndex == outputIndex {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Parameters returns the declared parameter bindings.
func (w *Workflow) Parameters() []Parameter {
	out := make([]Parameter, len(w.params))
	copy(out, w.params)
	return out
}

// ParameterFor returns the parameter bound to the given input, if any.
func (w *Workflow) ParameterFor(nodeID, inputName string) (Parameter, bool) {
	for _, p := range w.params {
		if p.NodeID == nodeID && p.Input == inputName {
			return p, true
		}
	}
	return Parameter{}, false
}

// allocateNodeID hands out the next free small decimal id. Imported
// workflows may already occupy arbitrary keys, so taken ids are skipped.
func (w *Workflow) allocateNodeID() string {
	for {
		w.nextNodeID++
		id := strconv.Itoa(w.nextNodeID)
		if _, taken := w.nodes[id]; !taken {
			return id
		}
	}
}

// lessNodeID orders decimal ids numerically and falls back to lexical
// order for non-numeric keys.
func lessNodeID(a, b string) bool {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		return ai < bi
	}
	if (aerr == nil) != (berr == nil) {
		return aerr == nil
	}
	return a < b
}
