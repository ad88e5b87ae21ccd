package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterAndGet(t *testing.T) {
	r := New()

	r.Register(&NodeDefinition{Type: "KSampler", Category: "sampling", Title: "KSampler"})

	def, ok := r.Get("KSampler")
	require.True(t, ok)
	assert.Equal(t, "KSampler", def.Title)

	_, ok = r.Get("DoesNotExist")
	assert.False(t, ok, "absence is a normal condition, not an error")
}

func TestRegistryOverwrite(t *testing.T) {
	r := New()

	r.Register(&NodeDefinition{Type: "KSampler", Category: "sampling", Title: "old"})
	r.Register(&NodeDefinition{Type: "KSampler", Category: "sampling", Title: "new"})

	def, ok := r.Get("KSampler")
	require.True(t, ok)
	assert.Equal(t, "new", def.Title)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryCategories(t *testing.T) {
	r := New()
	r.Register(
		&NodeDefinition{Type: "b", Category: "sampling"},
		&NodeDefinition{Type: "a", Category: "loaders"},
		&NodeDefinition{Type: "c", Category: "sampling"},
	)

	assert.Equal(t, []string{"sampling", "loaders"}, r.Categories(),
		"categories keep first-registration order")

	defs := r.ListByCategory("sampling")
	require.Len(t, defs, 2)
	assert.Equal(t, "b", defs[0].Type)
	assert.Equal(t, "c", defs[1].Type)

	assert.Empty(t, r.ListByCategory("nope"))
}
