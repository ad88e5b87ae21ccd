package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestDocumentRoundTrip(t *testing.T) {
	reg := testRegistry(t)
	w := New(reg)
	w.Name = "portrait v2"
	w.Folder = "portraits"
	w.Tags = []string{"sdxl", "wip"}

	_, err := w.AddNode("FloatSource", Position{X: 1, Y: 2})
	require.NoError(t, err)
	sink, err := w.AddNode("FloatSink", Position{X: 100, Y: 50})
	require.NoError(t, err)
	require.NoError(t, w.SetTitle(sink.ID, "strength"))
	require.NoError(t, w.SetCollapsed(sink.ID, true))
	require.NoError(t, w.SetInputValue(sink.ID, "x", cty.NumberFloatVal(0.7)))

	data, err := EncodeDocument(w)
	require.NoError(t, err)

	got, err := DecodeDocument(reg, data)
	require.NoError(t, err)

	assert.Equal(t, w.ID, got.ID)
	assert.Equal(t, "portrait v2", got.Name)
	assert.Equal(t, "portraits", got.Folder)
	assert.Equal(t, []string{"sdxl", "wip"}, got.Tags)

	gotSink, ok := got.Node(sink.ID)
	require.True(t, ok)
	assert.Equal(t, "strength", gotSink.Title)
	assert.Equal(t, Position{X: 100, Y: 50}, gotSink.Position)
	assert.True(t, gotSink.Collapsed)
	assert.True(t, gotSink.InputValues["x"].RawEquals(cty.NumberFloatVal(0.7)))
}

func TestDocumentRoundTripConnectionsAndParams(t *testing.T) {
	reg := testRegistry(t)
	w := New(reg)

	src, _ := w.AddNode("FloatSource", Position{})
	sink, _ := w.AddNode("FloatSink", Position{})
	conn, err := w.AddConnection(src.ID, 0, sink.ID, "x")
	require.NoError(t, err)
	require.NoError(t, w.BindParameter("strength", sink.ID, "x"))

	data, err := EncodeDocument(w)
	require.NoError(t, err)

	got, err := DecodeDocument(reg, data)
	require.NoError(t, err)

	gotConns := got.Connections()
	require.Len(t, gotConns, 1)
	assert.Equal(t, conn.ID, gotConns[0].ID, "stored connection ids survive a save/load cycle")
	assert.Equal(t, src.ID, gotConns[0].SourceNodeID)
	assert.Equal(t, sink.ID, gotConns[0].TargetNodeID)

	p, ok := got.ParameterFor(sink.ID, "x")
	require.True(t, ok)
	assert.Equal(t, "strength", p.Name)
}

func TestDecodeDocumentUnknownType(t *testing.T) {
	reg := testRegistry(t)

	doc := []byte(`{
		"id": "w1", "name": "ext",
		"nodes": [{"id": "1", "type": "SomeCustomNode", "title": "custom", "position": {"x": 0, "y": 0}, "size": {"width": 0, "height": 0}, "values": {"mystery": 3}}],
		"connections": []
	}`)

	got, err := DecodeDocument(reg, doc)
	require.NoError(t, err)

	n, ok := got.Node("1")
	require.True(t, ok)
	assert.Nil(t, n.Definition())
	assert.Equal(t, "custom", n.Title)
	assert.True(t, n.InputValues["mystery"].RawEquals(cty.NumberIntVal(3)))
}

func TestDecodeDocumentMalformed(t *testing.T) {
	_, err := DecodeDocument(testRegistry(t), []byte(`[1, 2]`))
	assert.Error(t, err)
}
