package catalog

import (
	"log/slog"
	"sort"
)

// Registry holds every known node definition for a single application
// instance, keyed by type. It is populated once during startup and
// read-only afterwards.
type Registry struct {
	defs map[string]*NodeDefinition

	// categoryOrder preserves first-registration order of categories so
	// palette listings are stable across runs.
	categoryOrder []string
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		defs: make(map[string]*NodeDefinition),
	}
}

// Register merges the given definitions into the registry, keyed by Type.
// Registering a type that already exists overwrites the earlier definition,
// which lets an extension pack refine a builtin.
func (r *Registry) Register(defs ...*NodeDefinition) {
	for _, def := range defs {
		if _, exists := r.defs[def.Type]; exists {
			slog.Debug("Overwriting node definition.", "type", def.Type)
		}
		if !r.hasCategory(def.Category) {
			r.categoryOrder = append(r.categoryOrder, def.Category)
		}
		r.defs[def.Type] = def
	}
}

// Get returns the definition for the given node type, if registered.
func (r *Registry) Get(nodeType string) (*NodeDefinition, bool) {
	def, ok := r.defs[nodeType]
	return def, ok
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int {
	return len(r.defs)
}

// ListByCategory returns every definition in the given category, ordered by
// type key for stability.
func (r *Registry) ListByCategory(category string) []*NodeDefinition {
	var out []*NodeDefinition
	for _, def := range r.defs {
		if def.Category == category {
			out = append(out, def)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// Categories returns the distinct category names in first-registration order.
func (r *Registry) Categories() []string {
	out := make([]string, len(r.categoryOrder))
	copy(out, r.categoryOrder)
	return out
}

func (r *Registry) hasCategory(category string) bool {
	for _, c := range r.categoryOrder {
		if c == category {
			return true
		}
	}
	return false
}
