package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/latentflow/internal/catalog"
)

// testRegistry builds a minimal catalog: a node with one FLOAT output, a
// node with one FLOAT input defaulting to 0, and a pair of string/int
// nodes for type-gate checks.
func testRegistry(t *testing.T) *catalog.Registry {
	t.Helper()
	reg := catalog.New()
	zero := cty.Zero
	reg.Register(
		&catalog.NodeDefinition{
			Type: "FloatSource", Category: "test", Title: "Float Source",
			Outputs: []catalog.OutputSlot{{Name: "value", DataType: catalog.TypeFloat}},
		},
		&catalog.NodeDefinition{
			Type: "FloatSink", Category: "test", Title: "Float Sink",
			Inputs: []catalog.InputSlot{{Name: "x", DataType: catalog.TypeFloat, Default: zero}},
		},
		&catalog.NodeDefinition{
			Type: "TextSource", Category: "test", Title: "Text Source",
			Outputs: []catalog.OutputSlot{{Name: "text", DataType: catalog.TypeString}},
		},
		&catalog.NodeDefinition{
			Type: "IntSink", Category: "test", Title: "Int Sink",
			Inputs: []catalog.InputSlot{{Name: "n", DataType: catalog.TypeInt}},
		},
		&catalog.NodeDefinition{
			Type: "AnySink", Category: "test", Title: "Any Sink",
			Inputs: []catalog.InputSlot{{Name: "value", DataType: catalog.TypeWildcard}},
		},
	)
	return reg
}

func TestAddNode(t *testing.T) {
	w := New(testRegistry(t))

	t.Run("unknown type is rejected", func(t *testing.T) {
		_, err := w.AddNode("DoesNotExist", Position{})
		assert.ErrorIs(t, err, ErrUnknownNodeType)
		assert.Empty(t, w.Nodes())
	})

	t.Run("defaults applied", func(t *testing.T) {
		n, err := w.AddNode("FloatSink", Position{X: 10, Y: 20})
		require.NoError(t, err)
		assert.Equal(t, "Float Sink", n.Title)
		assert.Equal(t, Position{X: 10, Y: 20}, n.Position)
		v, ok := n.InputValues["x"]
		require.True(t, ok)
		assert.True(t, v.RawEquals(cty.Zero))
	})

	t.Run("ids are unique", func(t *testing.T) {
		seen := map[string]bool{}
		for range 10 {
			n, err := w.AddNode("FloatSource", Position{})
			require.NoError(t, err)
			assert.False(t, seen[n.ID], "duplicate node id %s", n.ID)
			seen[n.ID] = true
		}
	})
}

func TestRemoveNodeCascades(t *testing.T) {
	reg := testRegistry(t)
	reg.Register(&catalog.NodeDefinition{
		Type: "Relay", Category: "test", Title: "Relay",
		Inputs:  []catalog.InputSlot{{Name: "in", DataType: catalog.TypeWildcard}},
		Outputs: []catalog.OutputSlot{{Name: "out", DataType: catalog.TypeFloat}},
	})

	// Chain a -> relay -> sink, then remove the middle node.
	w := New(reg)
	a, err := w.AddNode("FloatSource", Position{})
	require.NoError(t, err)
	mid, err := w.AddNode("Relay", Position{})
	require.NoError(t, err)
	c, err := w.AddNode("FloatSink", Position{})
	require.NoError(t, err)

	_, err = w.AddConnection(a.ID, 0, mid.ID, "in")
	require.NoError(t, err)
	_, err = w.AddConnection(mid.ID, 0, c.ID, "x")
	require.NoError(t, err)
	require.Len(t, w.Connections(), 2)
	require.NoError(t, w.BindParameter("relay_in", mid.ID, "in"))
	require.NoError(t, w.BindParameter("sink_x", c.ID, "x"))

	w.RemoveNode(mid.ID)

	assert.Len(t, w.Nodes(), 2)
	assert.Empty(t, w.Connections(), "every connection touching the removed node must go")
	require.Len(t, w.Parameters(), 1, "bindings onto the removed node must go too")
	assert.Equal(t, "sink_x", w.Parameters()[0].Name)

	// Removing an absent id is a no-op.
	w.RemoveNode("nope")
	assert.Len(t, w.Nodes(), 2)
}

func TestAddConnection(t *testing.T) {
	t.Run("type mismatch does not mutate", func(t *testing.T) {
		w := New(testRegistry(t))
		src, _ := w.AddNode("TextSource", Position{})
		dst, _ := w.AddNode("IntSink", Position{})

		_, err := w.AddConnection(src.ID, 0, dst.ID, "n")
		assert.ErrorIs(t, err, ErrTypeMismatch)
		assert.Empty(t, w.Connections())
	})

	t.Run("wildcard input accepts anything", func(t *testing.T) {
		w := New(testRegistry(t))
		src, _ := w.AddNode("TextSource", Position{})
		dst, _ := w.AddNode("AnySink", Position{})

		_, err := w.AddConnection(src.ID, 0, dst.ID, "value")
		assert.NoError(t, err)
	})

	t.Run("unknown sockets", func(t *testing.T) {
		w := New(testRegistry(t))
		src, _ := w.AddNode("FloatSource", Position{})
		dst, _ := w.AddNode("FloatSink", Position{})

		_, err := w.AddConnection(src.ID, 5, dst.ID, "x")
		assert.ErrorIs(t, err, ErrUnknownSocket)

		_, err = w.AddConnection(src.ID, 0, dst.ID, "nope")
		assert.ErrorIs(t, err, ErrUnknownSocket)

		_, err = w.AddConnection("missing", 0, dst.ID, "x")
		assert.ErrorIs(t, err, ErrNodeNotFound)
	})

	t.Run("second connection to an input replaces the first", func(t *testing.T) {
		w := New(testRegistry(t))
		a, _ := w.AddNode("FloatSource", Position{})
		b, _ := w.AddNode("FloatSource", Position{})
		sink, _ := w.AddNode("FloatSink", Position{})

		first, err := w.AddConnection(a.ID, 0, sink.ID, "x")
		require.NoError(t, err)
		second, err := w.AddConnection(b.ID, 0, sink.ID, "x")
		require.NoError(t, err)

		conns := w.Connections()
		require.Len(t, conns, 1)
		assert.Equal(t, second.ID, conns[0].ID)
		assert.Equal(t, b.ID, conns[0].SourceNodeID)
		_, stillThere := w.Connection(first.ID)
		assert.False(t, stillThere)
	})

	t.Run("self-loop is representable", func(t *testing.T) {
		reg := catalog.New()
		reg.Register(&catalog.NodeDefinition{
			Type: "Loop", Category: "test", Title: "Loop",
			Inputs:  []catalog.InputSlot{{Name: "in", DataType: catalog.TypeFloat}},
			Outputs: []catalog.OutputSlot{{Name: "out", DataType: catalog.TypeFloat}},
		})
		w := New(reg)
		n, _ := w.AddNode("Loop", Position{})

		_, err := w.AddConnection(n.ID, 0, n.ID, "in")
		assert.NoError(t, err)
	})
}

func TestSetInputValue(t *testing.T) {
	w := New(testRegistry(t))
	src, _ := w.AddNode("FloatSource", Position{})
	sink, _ := w.AddNode("FloatSink", Position{})

	t.Run("unknown input", func(t *testing.T) {
		err := w.SetInputValue(sink.ID, "nope", cty.NumberFloatVal(1))
		assert.ErrorIs(t, err, ErrUnknownInput)
	})

	t.Run("node not found", func(t *testing.T) {
		err := w.SetInputValue("missing", "x", cty.NumberFloatVal(1))
		assert.ErrorIs(t, err, ErrNodeNotFound)
	})

	t.Run("wrong literal type", func(t *testing.T) {
		err := w.SetInputValue(sink.ID, "x", cty.StringVal("not a number"))
		assert.ErrorIs(t, err, ErrTypeMismatch)
	})

	t.Run("connected input rejects literals until disconnected", func(t *testing.T) {
		conn, err := w.AddConnection(src.ID, 0, sink.ID, "x")
		require.NoError(t, err)

		err = w.SetInputValue(sink.ID, "x", cty.NumberFloatVal(5))
		assert.ErrorIs(t, err, ErrInputConnected)

		w.RemoveConnection(conn.ID)
		err = w.SetInputValue(sink.ID, "x", cty.NumberFloatVal(5))
		require.NoError(t, err)

		n, _ := w.Node(sink.ID)
		assert.True(t, n.InputValues["x"].RawEquals(cty.NumberFloatVal(5)))
	})
}

func TestMoveAndDecorate(t *testing.T) {
	w := New(testRegistry(t))
	n, _ := w.AddNode("FloatSink", Position{})

	require.NoError(t, w.MoveNode(n.ID, Position{X: 300, Y: -4}))
	assert.Equal(t, Position{X: 300, Y: -4}, n.Position)

	require.NoError(t, w.SetTitle(n.ID, "denoise strength"))
	assert.Equal(t, "denoise strength", n.Title)

	require.NoError(t, w.SetCollapsed(n.ID, true))
	assert.True(t, n.Collapsed)

	assert.ErrorIs(t, w.MoveNode("missing", Position{}), ErrNodeNotFound)
}

func TestBindParameter(t *testing.T) {
	w := New(testRegistry(t))
	sink, _ := w.AddNode("FloatSink", Position{})

	require.NoError(t, w.BindParameter("strength", sink.ID, "x"))
	p, ok := w.ParameterFor(sink.ID, "x")
	require.True(t, ok)
	assert.Equal(t, "strength", p.Name)

	// Re-binding the same name moves it, not duplicates it.
	other, _ := w.AddNode("FloatSink", Position{})
	require.NoError(t, w.BindParameter("strength", other.ID, "x"))
	assert.Len(t, w.Parameters(), 1)
	_, ok = w.ParameterFor(sink.ID, "x")
	assert.False(t, ok)

	assert.ErrorIs(t, w.BindParameter("bad", sink.ID, "nope"), ErrUnknownInput)
}
