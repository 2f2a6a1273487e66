package config

import (
	"fmt"
	"maps"
	"os"
	"slices"

	"sigs.k8s.io/yaml"

	"github.com/bakito/crd-schema-gen/internal/crd"
	"github.com/bakito/crd-schema-gen/internal/generator"
	"github.com/bakito/crd-schema-gen/internal/model"
	"github.com/bakito/crd-schema-gen/internal/override"
	"github.com/bakito/crd-schema-gen/internal/resolver"
	"github.com/bakito/crd-schema-gen/internal/schema"
)

// Load reads and merges the project files at paths. Models and resources are concatenated
// in file order.
func Load(paths ...string) (*Project, error) {
	p := &Project{}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading project file: %w", err)
		}
		f, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("error parsing project file %s: %w", path, err)
		}
		p.Models = append(p.Models, f.Models...)
		p.Resources = append(p.Resources, f.Resources...)
	}
	return p, nil
}

// Parse decodes one project file. Unknown keys are rejected.
func Parse(data []byte) (*Project, error) {
	p := &Project{}
	if err := yaml.UnmarshalStrict(data, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Registry builds the model registry of the project.
func (p *Project) Registry() (*model.Registry, error) {
	reg := model.NewRegistry()
	for i, m := range p.Models {
		if m.Name == "" {
			return nil, fmt.Errorf("models[%d]: name is required", i)
		}
		if _, ok := reg.Get(m.Name); ok {
			return nil, fmt.Errorf("models[%d]: duplicate model %s", i, m.Name)
		}
		decl, err := m.declaration()
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", m.Name, err)
		}
		reg.Add(decl)
	}
	return reg, nil
}

// Requests maps every resource of the project to a generator request. All requests share
// the project registry.
func (p *Project) Requests() ([]generator.Request, error) {
	reg, err := p.Registry()
	if err != nil {
		return nil, err
	}
	reqs := make([]generator.Request, 0, len(p.Resources))
	for i, r := range p.Resources {
		req, err := r.request(reg)
		if err != nil {
			return nil, fmt.Errorf("resources[%d] (%s): %w", i, r.Kind, err)
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

func (m Model) declaration() (*model.Model, error) {
	out := &model.Model{
		Name:                  m.Name,
		Description:           m.Description,
		PreserveUnknownFields: m.PreserveUnknownFields,
		AdditionalProperties:  m.AdditionalProperties,
	}
	for _, f := range m.Fields {
		t, err := f.declaredType()
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		out.Fields = append(out.Fields, model.Field{
			Name:        f.Name,
			JSONName:    f.JSONName,
			Type:        t,
			Optional:    f.Optional,
			Nullable:    f.Nullable,
			HasDefault:  f.HasDefault,
			Default:     f.Default,
			Format:      f.Format,
			Description: f.Description,
			Constraints: constraints(f.Constraints),
		})
	}
	return out, nil
}

func (f Field) declaredType() (model.Type, error) {
	set := 0
	for _, ok := range []bool{f.Type != "", len(f.Enum) > 0, f.Union != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return model.Type{}, fmt.Errorf("exactly one of type, enum or union must be set")
	}

	switch {
	case len(f.Enum) > 0:
		return model.EnumOf(f.Enum...), nil
	case f.Union != nil:
		variants := make([]model.Variant, 0, len(f.Union.Variants))
		for _, v := range f.Union.Variants {
			t, err := model.ParseType(v.Type)
			if err != nil {
				return model.Type{}, fmt.Errorf("union variant %s: %w", v.Tag, err)
			}
			variants = append(variants, model.Variant{Tag: v.Tag, Type: t})
		}
		return model.UnionOf(f.Union.Policy, variants...), nil
	default:
		return model.ParseType(f.Type)
	}
}

// constraints orders the declared constraints by emission order; unknown kinds follow
// sorted so the resolver reports them deterministically.
func constraints(m map[string]any) []model.Constraint {
	if len(m) == 0 {
		return nil
	}
	out := make([]model.Constraint, 0, len(m))
	for _, k := range schema.ConstraintKinds {
		if v, ok := m[k]; ok {
			out = append(out, model.Constraint{Kind: k, Value: v})
		}
	}
	for _, k := range slices.Sorted(maps.Keys(m)) {
		if !slices.Contains(schema.ConstraintKinds, k) {
			out = append(out, model.Constraint{Kind: k, Value: m[k]})
		}
	}
	return out
}

func (r Resource) request(reg *model.Registry) (generator.Request, error) {
	naming, err := parseNaming(r.Naming)
	if err != nil {
		return generator.Request{}, err
	}
	if len(r.Versions) == 0 {
		return generator.Request{}, fmt.Errorf("at least one version must be defined")
	}

	meta := crd.Metadata{
		Group:    r.Group,
		Subgroup: r.Subgroup,
		Names: crd.Names{
			Kind:       r.Kind,
			ListKind:   r.ListKind,
			Plural:     r.Plural,
			Singular:   r.Singular,
			ShortNames: r.ShortNames,
			Categories: r.Categories,
		},
		Scope:          r.Scope,
		Subresources:   crd.Subresources{Status: r.Subresources.Status},
		PrinterColumns: r.PrinterColumns,
		Labels:         r.Labels,
		Annotations:    r.Annotations,
	}
	if s := r.Subresources.Scale; s != nil {
		meta.Subresources.Scale = &crd.Scale{
			SpecReplicasPath:   s.SpecReplicasPath,
			StatusReplicasPath: s.StatusReplicasPath,
			LabelSelectorPath:  s.LabelSelectorPath,
		}
	}
	if c := r.Conversion; c != nil {
		meta.Conversion = crd.Conversion{
			Strategy:       c.Strategy,
			Webhook:        c.ClientConfig,
			ReviewVersions: c.ReviewVersions,
		}
	}

	req := generator.Request{
		Metadata:     meta,
		Registry:     reg,
		Naming:       naming,
		OmitDefaults: r.OmitDefaults,
	}
	single := len(r.Versions) == 1
	for _, v := range r.Versions {
		if v.Model == "" {
			return generator.Request{}, fmt.Errorf("version %s: model is required", v.Name)
		}
		ps, err := patches(v.Overrides)
		if err != nil {
			return generator.Request{}, fmt.Errorf("version %s: %w", v.Name, err)
		}
		req.Versions = append(req.Versions, generator.Version{
			Name:               v.Name,
			Model:              v.Model,
			Served:             boolOr(v.Served, true),
			Storage:            boolOr(v.Storage, single),
			Deprecated:         v.Deprecated,
			DeprecationWarning: v.DeprecationWarning,
			PrinterColumns:     v.PrinterColumns,
			Patches:            ps,
		})
	}
	return req, nil
}

func patches(overrides []Override) ([]override.Patch, error) {
	var out []override.Patch
	for i, o := range overrides {
		n := len(out)
		for _, k := range slices.Sorted(maps.Keys(o.Set)) {
			out = append(out, override.Patch{Path: o.Path, Op: override.SetAttribute{Key: k, Value: o.Set[k]}})
		}
		if o.PreserveUnknown {
			out = append(out, override.Patch{Path: o.Path, Op: override.MarkPreserveUnknown{}})
		}
		if o.PrinterColumn != nil {
			out = append(out, override.Patch{Path: o.Path, Op: override.AddPrinterColumn{Column: *o.PrinterColumn}})
		}
		if len(out) == n {
			return nil, fmt.Errorf("overrides[%d]: no operation defined", i)
		}
	}
	return out, nil
}

func parseNaming(s string) (resolver.Naming, error) {
	switch s {
	case "", "verbatim":
		return resolver.Verbatim, nil
	case "camelCase":
		return resolver.CamelCase, nil
	default:
		return resolver.Verbatim, fmt.Errorf("unknown naming %q, must be verbatim or camelCase", s)
	}
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
