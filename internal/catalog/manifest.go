package catalog

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/vk/latentflow/internal/ctxlog"
	"github.com/vk/latentflow/internal/fsutil"
)

// LoadManifests walks the given path for .hcl manifest files and parses
// every 'node' block found into a NodeDefinition.
func LoadManifests(ctx context.Context, path string) ([]*NodeDefinition, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading node definition manifests.", "path", path)

	filePaths, err := fsutil.FindFilesByExtension(path, ".hcl")
	if err != nil {
		logger.Error("Failed to walk manifest directory", "path", path, "error", err)
		return nil, err
	}

	if len(filePaths) == 0 {
		logger.Warn("No .hcl manifest files found in path", "path", path)
		return nil, nil
	}

	parser := hclparse.NewParser()
	var defs []*NodeDefinition

	for _, filePath := range filePaths {
		hclFile, diags := parser.ParseHCLFile(filePath)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse manifest file %s: %w", filePath, diags)
		}

		fileDefs, diags := ParseNodeFile(ctx, hclFile)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to process node definitions in %s: %w", filePath, diags)
		}
		defs = append(defs, fileDefs...)
		logger.Debug("Loaded node definitions from manifest file", "file", filePath, "count", len(fileDefs))
	}

	logger.Info("Node definition manifests loaded.", "definitions", len(defs))
	return defs, nil
}

// nodeRootSchema describes the top level of a manifest file: one or more
// 'node' blocks.
type nodeRootSchema struct {
	Nodes []*hclNode `hcl:"node,block"`
}

// hclNode is the raw decoding target for a single 'node' block.
type hclNode struct {
	Type string   `hcl:"type,label"`
	Body hcl.Body `hcl:",remain"`
}

// nodeBodySchema describes the body of a 'node' block.
var nodeBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "category"},
		{Name: "title"},
		{Name: "description"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "input", LabelNames: []string{"name"}},
		{Type: "output", LabelNames: []string{"name"}},
	},
}

// ParseNodeFile decodes an HCL file containing one or more 'node' blocks.
func ParseNodeFile(ctx context.Context, hclFile *hcl.File) ([]*NodeDefinition, hcl.Diagnostics) {
	logger := ctxlog.FromContext(ctx)

	var allDiags hcl.Diagnostics
	if hclFile == nil {
		allDiags = append(allDiags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "HCL file is nil",
		})
		return nil, allDiags
	}

	schema := &nodeRootSchema{}
	diags := gohcl.DecodeBody(hclFile.Body, nil, schema)
	allDiags = append(allDiags, diags...)
	if diags.HasErrors() {
		return nil, allDiags
	}

	defs := make([]*NodeDefinition, 0, len(schema.Nodes))

	for _, parsed := range schema.Nodes {
		bodyContent, contentDiags := parsed.Body.Content(nodeBodySchema)
		allDiags = append(allDiags, contentDiags...)
		if contentDiags.HasErrors() {
			continue // Skip this node but keep parsing the others.
		}

		def := &NodeDefinition{Type: parsed.Type}

		for name, target := range map[string]*string{
			"category":    &def.Category,
			"title":       &def.Title,
			"description": &def.Description,
		} {
			if attr, exists := bodyContent.Attributes[name]; exists {
				allDiags = append(allDiags, gohcl.DecodeExpression(attr.Expr, nil, target)...)
			}
		}
		if def.Title == "" {
			def.Title = def.Type
		}

		var slotDiags hcl.Diagnostics
		def.Inputs, slotDiags = parseInputBlocks(bodyContent.Blocks)
		allDiags = append(allDiags, slotDiags...)

		def.Outputs, slotDiags = parseOutputBlocks(bodyContent.Blocks)
		allDiags = append(allDiags, slotDiags...)

		defs = append(defs, def)
	}

	if allDiags.HasErrors() {
		return nil, allDiags
	}

	logger.Debug("Parsed node definitions", "count", len(defs))
	return defs, allDiags
}

// inputBodySchema is the HCL schema for the body of an 'input' block.
var inputBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "type"},
		{Name: "default"},
		{Name: "min"},
		{Name: "max"},
		{Name: "options"},
	},
}

func parseInputBlocks(blocks hcl.Blocks) ([]InputSlot, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	var inputs []InputSlot
	seen := make(map[string]bool)

	for _, block := range blocks.OfType("input") {
		name := block.Labels[0]
		if seen[name] {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate input definition",
				Detail:   fmt.Sprintf("An input named '%s' has already been defined.", name),
				Subject:  block.DefRange.Ptr(),
			})
			continue
		}
		seen[name] = true

		content, contentDiags := block.Body.Content(inputBodySchema)
		diags = append(diags, contentDiags...)
		if contentDiags.HasErrors() {
			continue
		}

		slot := InputSlot{Name: name, Default: cty.NilVal}

		typeAttr, exists := content.Attributes["type"]
		if !exists {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Missing input type",
				Detail:   fmt.Sprintf("The input '%s' must declare a 'type' attribute.", name),
				Subject:  block.DefRange.Ptr(),
			})
			continue
		}
		var typeName string
		typeDiags := gohcl.DecodeExpression(typeAttr.Expr, nil, &typeName)
		diags = append(diags, typeDiags...)
		if typeDiags.HasErrors() {
			continue
		}
		slot.DataType = DataType(typeName)

		if attr, exists := content.Attributes["default"]; exists {
			val, valDiags := attr.Expr.Value(nil)
			diags = append(diags, valDiags...)
			if !valDiags.HasErrors() {
				if err := slot.DataType.ValidateValue(val); err != nil {
					diags = append(diags, &hcl.Diagnostic{
						Severity: hcl.DiagError,
						Summary:  "Invalid default value",
						Detail:   fmt.Sprintf("The default for input '%s' does not match its declared type: %s.", name, err),
						Subject:  attr.Expr.Range().Ptr(),
					})
				} else {
					slot.Default = val
				}
			}
		}

		slot.Min = decodeBound(content, "min", &diags)
		slot.Max = decodeBound(content, "max", &diags)

		if attr, exists := content.Attributes["options"]; exists {
			diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &slot.Options)...)
		}

		inputs = append(inputs, slot)
	}

	return inputs, diags
}

var outputBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "type"},
	},
}

func parseOutputBlocks(blocks hcl.Blocks) ([]OutputSlot, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	var outputs []OutputSlot

	for _, block := range blocks.OfType("output") {
		name := block.Labels[0]

		content, contentDiags := block.Body.Content(outputBodySchema)
		diags = append(diags, contentDiags...)
		if contentDiags.HasErrors() {
			continue
		}

		slot := OutputSlot{Name: name}

		typeAttr, exists := content.Attributes["type"]
		if !exists {
			// An output named after its type is the common manifest shorthand.
			slot.DataType = DataType(name)
		} else {
			var typeName string
			typeDiags := gohcl.DecodeExpression(typeAttr.Expr, nil, &typeName)
			diags = append(diags, typeDiags...)
			if typeDiags.HasErrors() {
				continue
			}
			slot.DataType = DataType(typeName)
		}

		outputs = append(outputs, slot)
	}

	return outputs, diags
}

// decodeBound reads an optional numeric attribute into a *float64.
func decodeBound(content *hcl.BodyContent, name string, diags *hcl.Diagnostics) *float64 {
	attr, exists := content.Attributes[name]
	if !exists {
		return nil
	}
	val, valDiags := attr.Expr.Value(nil)
	*diags = append(*diags, valDiags...)
	if valDiags.HasErrors() || val.Type() != cty.Number {
		return nil
	}
	var f float64
	if err := gocty.FromCtyValue(val, &f); err != nil {
		return nil
	}
	return &f
}
