package catalog

import (
	"github.com/zclconf/go-cty/cty"
)

// DataType tags the kind of value a socket carries. The well-known tags
// below cover the generation primitives; any other non-empty string is
// treated as a custom tag contributed by an extension node pack and
// compares by plain equality.
type DataType string

const (
	TypeModel        DataType = "MODEL"
	TypeCLIP         DataType = "CLIP"
	TypeVAE          DataType = "VAE"
	TypeConditioning DataType = "CONDITIONING"
	TypeLatent       DataType = "LATENT"
	TypeImage        DataType = "IMAGE"
	TypeMask         DataType = "MASK"
	TypeControlNet   DataType = "CONTROL_NET"
	TypeUpscaleModel DataType = "UPSCALE_MODEL"
	TypeInt          DataType = "INT"
	TypeFloat        DataType = "FLOAT"
	TypeString       DataType = "STRING"
	TypeBoolean      DataType = "BOOLEAN"

	// TypeWildcard accepts a connection from any output type.
	TypeWildcard DataType = "*"
)

// Accepts reports whether an input socket of type t may be driven by an
// output socket of type src.
func (t DataType) Accepts(src DataType) bool {
	return t == TypeWildcard || t == src
}

// Scalar reports whether the type is a literal-capable primitive, i.e. a
// value a user can key in directly rather than wire from another node.
func (t DataType) Scalar() bool {
	switch t {
	case TypeInt, TypeFloat, TypeString, TypeBoolean:
		return true
	}
	return false
}

// InputSlot declares a single named input socket on a node definition.
type InputSlot struct {
	Name     string
	DataType DataType

	// Default is the literal used for the input when nothing is connected
	// and the user has not overridden it. cty.NilVal means no default.
	Default cty.Value

	// Min and Max bound numeric inputs; nil means unbounded.
	Min *float64
	Max *float64

	// Options restricts string inputs to an enumerated set; empty means free-form.
	Options []string
}

// OutputSlot declares a single named output socket on a node definition.
type OutputSlot struct {
	Name     string
	DataType DataType
}

// NodeDefinition is the immutable template for one node type.
type NodeDefinition struct {
	Type        string
	Category    string
	Title       string
	Description string
	Inputs      []InputSlot
	Outputs     []OutputSlot
}

// InputByName returns the declared input slot with the given name.
func (d *NodeDefinition) InputByName(name string) (InputSlot, bool) {
	for _, in := range d.Inputs {
		if in.Name == name {
			return in, true
		}
	}
	return InputSlot{}, false
}

// OutputAt returns the output slot at the given index.
func (d *NodeDefinition) OutputAt(index int) (OutputSlot, bool) {
	if index < 0 || index >= len(d.Outputs) {
		return OutputSlot{}, false
	}
	return d.Outputs[index], true
}
