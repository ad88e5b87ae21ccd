package catalog

import (
	"context"
	"testing"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func parseManifest(t *testing.T, src string) ([]*NodeDefinition, error) {
	t.Helper()
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL([]byte(src), "test.hcl")
	require.False(t, diags.HasErrors(), "test manifest must be syntactically valid: %s", diags)

	defs, diags := ParseNodeFile(context.Background(), hclFile)
	if diags.HasErrors() {
		return nil, diags
	}
	return defs, nil
}

func TestParseNodeFile(t *testing.T) {
	defs, err := parseManifest(t, `
node "KSampler" {
  category    = "sampling"
  title       = "KSampler"
  description = "Denoises a latent."

  input "model" {
    type = "MODEL"
  }
  input "steps" {
    type    = "INT"
    default = 20
    min     = 1
    max     = 10000
  }
  input "sampler_name" {
    type    = "STRING"
    default = "euler"
    options = ["euler", "ddim"]
  }

  output "LATENT" {
    type = "LATENT"
  }
}
`)
	require.NoError(t, err)
	require.Len(t, defs, 1)

	def := defs[0]
	assert.Equal(t, "KSampler", def.Type)
	assert.Equal(t, "sampling", def.Category)
	assert.Equal(t, "Denoises a latent.", def.Description)
	require.Len(t, def.Inputs, 3)

	model := def.Inputs[0]
	assert.Equal(t, TypeModel, model.DataType)
	assert.True(t, model.Default.IsNull())

	steps := def.Inputs[1]
	assert.Equal(t, TypeInt, steps.DataType)
	assert.True(t, steps.Default.RawEquals(cty.NumberIntVal(20)))
	require.NotNil(t, steps.Min)
	assert.Equal(t, 1.0, *steps.Min)
	require.NotNil(t, steps.Max)
	assert.Equal(t, 10000.0, *steps.Max)

	sampler := def.Inputs[2]
	assert.Equal(t, []string{"euler", "ddim"}, sampler.Options)

	require.Len(t, def.Outputs, 1)
	assert.Equal(t, "LATENT", def.Outputs[0].Name)
	assert.Equal(t, TypeLatent, def.Outputs[0].DataType)
}

func TestParseNodeFileTitleDefaultsToType(t *testing.T) {
	defs, err := parseManifest(t, `
node "VAEDecode" {
  category = "latent"
  output "IMAGE" {}
}
`)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "VAEDecode", defs[0].Title)
	// An output without a type attribute takes its name as the type.
	require.Len(t, defs[0].Outputs, 1)
	assert.Equal(t, TypeImage, defs[0].Outputs[0].DataType)
}

func TestParseNodeFileErrors(t *testing.T) {
	t.Run("duplicate input", func(t *testing.T) {
		_, err := parseManifest(t, `
node "N" {
  input "x" { type = "INT" }
  input "x" { type = "INT" }
}
`)
		assert.Error(t, err)
	})

	t.Run("missing input type", func(t *testing.T) {
		_, err := parseManifest(t, `
node "N" {
  input "x" { default = 1 }
}
`)
		assert.Error(t, err)
	})

	t.Run("default violating declared type", func(t *testing.T) {
		_, err := parseManifest(t, `
node "N" {
  input "x" {
    type    = "INT"
    default = "not a number"
  }
}
`)
		assert.Error(t, err)
	})
}

func TestDataTypeAccepts(t *testing.T) {
	assert.True(t, TypeLatent.Accepts(TypeLatent))
	assert.False(t, TypeLatent.Accepts(TypeImage))
	assert.True(t, TypeWildcard.Accepts(TypeModel))
	assert.True(t, DataType("AUDIO").Accepts(DataType("AUDIO")), "custom tags compare by equality")
	assert.False(t, DataType("AUDIO").Accepts(TypeImage))
}
