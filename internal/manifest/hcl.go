package manifest

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/qobs-build/qgen/internal/field"
	"github.com/qobs-build/qgen/internal/project"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
	"github.com/zclconf/go-cty/cty/gocty"
)

// HCL manifests look like:
//
//	solution "Hello" {
//	  configurations = ["Debug", "Release"]
//	  objdir         = "obj"
//
//	  configuration {
//	    terms   = ["Debug"]
//	    defines = ["DEBUG"]
//	  }
//
//	  project "app" {
//	    files = ["src/**/*.c"]
//	  }
//	}
var hclRootSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: keySolution, LabelNames: []string{keyName}},
	},
}

// fieldSchema returns one optional attribute per registered field plus extra
func fieldSchema(extra []hcl.AttributeSchema, blocks []hcl.BlockHeaderSchema) *hcl.BodySchema {
	attrs := make([]hcl.AttributeSchema, 0, field.Count+len(extra))
	for _, d := range field.All() {
		attrs = append(attrs, hcl.AttributeSchema{Name: d.Name})
	}
	attrs = append(attrs, extra...)
	return &hcl.BodySchema{Attributes: attrs, Blocks: blocks}
}

var (
	hclSolutionSchema = fieldSchema(
		[]hcl.AttributeSchema{
			{Name: keyConfigurations, Required: true},
			{Name: keyPlatforms},
			{Name: keyLocation},
		},
		[]hcl.BlockHeaderSchema{
			{Type: keyConfiguration},
			{Type: keyProject, LabelNames: []string{keyName}},
		},
	)
	hclProjectSchema = fieldSchema(nil, []hcl.BlockHeaderSchema{{Type: keyConfiguration}})
	hclBlockSchema   = fieldSchema([]hcl.AttributeSchema{{Name: keyTerms}, {Name: keyWhen}}, nil)
)

func hclEvalContext(env ConfigEnv) *hcl.EvalContext {
	environ := cty.MapValEmpty(cty.String)
	if len(env.Environ) > 0 {
		vals := make(map[string]cty.Value, len(env.Environ))
		for k, v := range env.Environ {
			vals[k] = cty.StringVal(v)
		}
		environ = cty.MapVal(vals)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"target_os":   cty.StringVal(env.TargetOS),
			"target_arch": cty.StringVal(env.TargetArch),
			"environ":     environ,
		},
		Functions: map[string]function.Function{
			"upper":     stdlib.UpperFunc,
			"lower":     stdlib.LowerFunc,
			"trimspace": stdlib.TrimSpaceFunc,
			"join":      stdlib.JoinFunc,
			"concat":    stdlib.ConcatFunc,
		},
	}
}

func parseHCL(data []byte, m *Manifest, env ConfigEnv) error {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, m.Path)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse HCL: %w", diags)
	}

	root, diags := file.Body.Content(hclRootSchema)
	if diags.HasErrors() {
		return fmt.Errorf("failed to decode HCL: %w", diags)
	}

	ctx := hclEvalContext(env)
	for _, block := range root.Blocks {
		if err := m.loadHCLSolution(block, ctx); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manifest) loadHCLSolution(block *hcl.Block, ctx *hcl.EvalContext) error {
	sln, err := m.attachSolution(block.Labels[0])
	if err != nil {
		return err
	}

	content, diags := block.Body.Content(hclSolutionSchema)
	if diags.HasErrors() {
		return fmt.Errorf("solution %q: %w", sln.Name(), diags)
	}

	if diags := gohcl.DecodeExpression(content.Attributes[keyConfigurations].Expr, ctx, &m.Configurations); diags.HasErrors() {
		return fmt.Errorf("solution %q: %w", sln.Name(), diags)
	}
	if attr, ok := content.Attributes[keyPlatforms]; ok {
		if diags := gohcl.DecodeExpression(attr.Expr, ctx, &m.Platforms); diags.HasErrors() {
			return fmt.Errorf("solution %q: %w", sln.Name(), diags)
		}
	}
	if attr, ok := content.Attributes[keyLocation]; ok {
		if diags := gohcl.DecodeExpression(attr.Expr, ctx, &m.Location); diags.HasErrors() {
			return fmt.Errorf("solution %q: %w", sln.Name(), diags)
		}
	}

	if err := m.loadHCLScope(sln, content, ctx); err != nil {
		return err
	}

	for _, child := range content.Blocks.OfType(keyProject) {
		prj, err := m.attachProject(child.Labels[0])
		if err != nil {
			return err
		}
		prjContent, diags := child.Body.Content(hclProjectSchema)
		if diags.HasErrors() {
			return fmt.Errorf("project %q: %w", prj.Name(), diags)
		}
		if err := m.loadHCLScope(prj, prjContent, ctx); err != nil {
			return err
		}
	}
	return nil
}

// loadHCLScope mirrors loadScope: the scope's own attributes first, then
// each configuration block whose `when` guard holds
func (m *Manifest) loadHCLScope(sc *project.Scope, content *hcl.BodyContent, ctx *hcl.EvalContext) error {
	where := fmt.Sprintf("%s %q", sc.Kind(), sc.Name())

	base := project.NewBlock()
	if err := m.fillHCLBlock(base, where, content.Attributes, ctx); err != nil {
		return err
	}
	if len(base.Fields()) > 0 {
		if err := sc.AddBlock(base); err != nil {
			return err
		}
	}

	for i, cfg := range content.Blocks.OfType(keyConfiguration) {
		cfgWhere := fmt.Sprintf("%s configuration #%d", where, i+1)
		cfgContent, diags := cfg.Body.Content(hclBlockSchema)
		if diags.HasErrors() {
			return fmt.Errorf("%s: %w", cfgWhere, diags)
		}

		if attr, ok := cfgContent.Attributes[keyWhen]; ok {
			var matched bool
			if diags := gohcl.DecodeExpression(attr.Expr, ctx, &matched); diags.HasErrors() {
				return fmt.Errorf("%s: %w", cfgWhere, diags)
			}
			if !matched {
				continue
			}
		}

		var terms []string
		if attr, ok := cfgContent.Attributes[keyTerms]; ok {
			if diags := gohcl.DecodeExpression(attr.Expr, ctx, &terms); diags.HasErrors() {
				return fmt.Errorf("%s: %w", cfgWhere, diags)
			}
		}

		b := project.NewBlock(terms...)
		if err := m.fillHCLBlock(b, cfgWhere, cfgContent.Attributes, ctx); err != nil {
			return err
		}
		if err := sc.AddBlock(b); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manifest) fillHCLBlock(b *project.Block, where string, attrs hcl.Attributes, ctx *hcl.EvalContext) error {
	for _, d := range field.All() {
		attr, ok := attrs[d.Name]
		if !ok {
			continue
		}
		val, diags := attr.Expr.Value(ctx)
		if diags.HasErrors() {
			return fmt.Errorf("%s: %w", where, diags)
		}
		v, err := ctyToValue(val)
		if err != nil {
			return fmt.Errorf("%s: field %q: %w", where, d.Name, err)
		}
		if err := m.setField(b, d.ID, v); err != nil {
			return fmt.Errorf("%s: %w", where, err)
		}
	}
	return nil
}

// ctyToValue keeps the shape of the HCL value: collections become lists and
// primitives become scalars
func ctyToValue(v cty.Value) (field.Value, error) {
	if v.IsNull() {
		return field.Value{}, fmt.Errorf("value is null")
	}
	if !v.IsWhollyKnown() {
		return field.Value{}, fmt.Errorf("value is not known")
	}

	ty := v.Type()
	switch {
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		lv, err := convert.Convert(v, cty.List(cty.String))
		if err != nil {
			return field.Value{}, err
		}
		var items []string
		if err := gocty.FromCtyValue(lv, &items); err != nil {
			return field.Value{}, err
		}
		return field.List(items...), nil
	case ty.IsPrimitiveType():
		sv, err := convert.Convert(v, cty.String)
		if err != nil {
			return field.Value{}, err
		}
		return field.Scalar(sv.AsString()), nil
	default:
		return field.Value{}, fmt.Errorf("unsupported type %s", ty.FriendlyName())
	}
}
