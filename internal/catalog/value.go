package catalog

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// ValidateValue checks that a literal cty value is an acceptable stand-in
// for the data type. Literals are rejected at the boundary so that a bad
// value never reaches export time. Non-scalar socket types (MODEL, LATENT,
// ...) carry no literals at all; those inputs are driven by connections.
func (t DataType) ValidateValue(v cty.Value) error {
	if v.IsNull() {
		return fmt.Errorf("null value for %s input", t)
	}

	switch t {
	case TypeInt:
		if v.Type() != cty.Number {
			return fmt.Errorf("expected a number, got %s", v.Type().FriendlyName())
		}
		if bf := v.AsBigFloat(); !bf.IsInt() {
			return fmt.Errorf("expected a whole number, got %s", bf.String())
		}
	case TypeFloat:
		if v.Type() != cty.Number {
			return fmt.Errorf("expected a number, got %s", v.Type().FriendlyName())
		}
	case TypeString:
		if v.Type() != cty.String {
			return fmt.Errorf("expected a string, got %s", v.Type().FriendlyName())
		}
	case TypeBoolean:
		if v.Type() != cty.Bool {
			return fmt.Errorf("expected a bool, got %s", v.Type().FriendlyName())
		}
	case TypeWildcard:
		// Anything goes.
	default:
		return fmt.Errorf("%s inputs accept connections only, not literals", t)
	}
	return nil
}

// Check validates a literal against the full slot declaration: data type
// first, then the optional min/max bounds and option set.
func (s InputSlot) Check(v cty.Value) error {
	if err := s.DataType.ValidateValue(v); err != nil {
		return err
	}

	if (s.Min != nil || s.Max != nil) && v.Type() == cty.Number {
		f, _ := v.AsBigFloat().Float64()
		if s.Min != nil && f < *s.Min {
			return fmt.Errorf("value %v is below the minimum %v for input %q", f, *s.Min, s.Name)
		}
		if s.Max != nil && f > *s.Max {
			return fmt.Errorf("value %v is above the maximum %v for input %q", f, *s.Max, s.Name)
		}
	}

	if len(s.Options) > 0 && v.Type() == cty.String {
		got := v.AsString()
		for _, opt := range s.Options {
			if opt == got {
				return nil
			}
		}
		return fmt.Errorf("value %q is not one of the declared options for input %q", got, s.Name)
	}

	return nil
}
