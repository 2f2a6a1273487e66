// Package resolver turns model declarations into the intermediate schema tree.
//
// Resolution is pure: it reads the registry it is given, checks every declaration and
// returns either a fully resolved tree or the first error, carrying the field path.
package resolver

import (
	"fmt"
	"slices"
	"strings"

	"github.com/bakito/crd-schema-gen/internal/emitter"
	"github.com/bakito/crd-schema-gen/internal/model"
	"github.com/bakito/crd-schema-gen/internal/schema"
)

// Option configures Resolve.
type Option func(*options)

type options struct {
	naming Naming
}

// WithNaming sets how JSON property names are derived from field names.
func WithNaming(n Naming) Option {
	return func(o *options) {
		o.naming = n
	}
}

// Resolve resolves the model named root and every model reachable from it.
func Resolve(reg *model.Registry, root string, opts ...Option) (*schema.Object, error) {
	o := options{naming: Verbatim}
	for _, opt := range opts {
		opt(&o)
	}
	if _, ok := reg.Get(root); !ok {
		return nil, &schema.InvalidModelError{Model: root, Reason: "root model is not registered"}
	}
	r := &resolver{
		reg:      reg,
		opts:     o,
		resolved: make(map[string]*schema.Object),
	}
	return r.object(root, "")
}

type resolver struct {
	reg  *model.Registry
	opts options
	// stack holds the models currently being resolved, outermost first.
	stack    []string
	resolved map[string]*schema.Object
}

func (r *resolver) object(name, path string) (*schema.Object, error) {
	if obj, ok := r.resolved[name]; ok {
		return obj, nil
	}
	if i := slices.Index(r.stack, name); i >= 0 {
		cycle := append(slices.Clone(r.stack[i:]), name)
		return nil, &schema.RecursiveSchemaError{Path: path, Cycle: cycle}
	}
	m, ok := r.reg.Get(name)
	if !ok {
		return nil, &schema.UnsupportedTypeError{Path: path, Type: name, Reason: "no primitive or model with this name"}
	}

	r.stack = append(r.stack, name)
	defer func() { r.stack = r.stack[:len(r.stack)-1] }()

	obj := &schema.Object{
		Name:                  m.Name,
		Description:           m.Description,
		PreserveUnknownFields: m.PreserveUnknownFields,
	}

	if err := r.additional(obj, m, path); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(m.Fields))
	for _, f := range m.Fields {
		field, err := r.field(m, f, path)
		if err != nil {
			return nil, err
		}
		if seen[field.Name] {
			return nil, &schema.InvalidModelError{
				Path:   schema.Child(path, field.Name),
				Model:  m.Name,
				Reason: "duplicate field name",
			}
		}
		seen[field.Name] = true
		obj.Fields = append(obj.Fields, field)
	}

	r.resolved[name] = obj
	return obj, nil
}

func (r *resolver) additional(obj *schema.Object, m *model.Model, path string) error {
	switch strings.TrimSpace(m.AdditionalProperties) {
	case "", "forbidden", "false":
		obj.Additional = schema.Forbidden
	case "any", "true":
		obj.Additional = schema.AnyValue
	default:
		t, err := model.ParseType(m.AdditionalProperties)
		if err != nil {
			return &schema.InvalidModelError{Path: path, Model: m.Name, Reason: err.Error()}
		}
		node, err := r.node(t, schema.Values(path), "")
		if err != nil {
			return err
		}
		obj.Additional = schema.Typed
		obj.AdditionalSchema = node
	}
	return nil
}

func (r *resolver) field(m *model.Model, f model.Field, parent string) (*schema.Field, error) {
	name := f.JSONName
	if name == "" {
		name = r.opts.naming.apply(f.Name)
	}
	if name == "" {
		return nil, &schema.InvalidModelError{Path: parent, Model: m.Name, Reason: fmt.Sprintf("field %q has no name", f.Name)}
	}
	path := schema.Child(parent, name)

	node, err := r.node(f.Type, path, f.Format)
	if err != nil {
		return nil, err
	}

	constraints, err := closeConstraints(f.Constraints, path)
	if err != nil {
		return nil, err
	}
	if kind := constraints.Applicable(node); kind != "" {
		return nil, &schema.InvalidConstraintError{
			Path:       path,
			Constraint: kind,
			Reason:     "not applicable to " + describe(node),
		}
	}

	field := &schema.Field{
		Name:        name,
		Description: f.Description,
		Type:        node,
		Nullable:    f.Nullable,
		HasDefault:  f.HasDefault,
		Default:     f.Default,
		Constraints: constraints,
		Required:    !f.Optional && !f.HasDefault,
	}

	if f.HasDefault {
		field.Default = normalize(f.Default)
		if err := emitter.CheckDefault(field, path); err != nil {
			return nil, err
		}
	}
	return field, nil
}

func (r *resolver) node(t model.Type, path, format string) (schema.Node, error) {
	if format != "" && t.Kind != model.TypeNamed {
		return nil, &schema.InvalidConstraintError{Path: path, Constraint: "format", Reason: "only primitive types carry a format"}
	}
	switch t.Kind {
	case model.TypeNamed:
		return r.named(t.Name, path, format)
	case model.TypeArray:
		if t.Elem == nil {
			return nil, &schema.InvalidModelError{Path: path, Reason: "array without item type"}
		}
		items, err := r.node(*t.Elem, schema.Items(path), "")
		if err != nil {
			return nil, err
		}
		return &schema.Array{Items: items}, nil
	case model.TypeMap:
		if t.Key == nil || t.Elem == nil {
			return nil, &schema.InvalidModelError{Path: path, Reason: "map without key or value type"}
		}
		if !isStringKey(*t.Key) {
			return nil, &schema.UnsupportedTypeError{Path: path, Type: t.String(), Reason: "map keys must be strings"}
		}
		values, err := r.node(*t.Elem, schema.Values(path), "")
		if err != nil {
			return nil, err
		}
		return &schema.Map{Values: values}, nil
	case model.TypeEnum:
		return enum(t, path)
	case model.TypeUnion:
		return r.union(t, path)
	default:
		return nil, &schema.InvalidModelError{Path: path, Reason: fmt.Sprintf("unknown type kind %d", t.Kind)}
	}
}

func (r *resolver) named(name, path, format string) (schema.Node, error) {
	if reason, ok := unsupported[name]; ok {
		return nil, &schema.UnsupportedTypeError{Path: path, Type: name, Reason: reason}
	}
	if p, ok := primitive(name); ok {
		if format != "" {
			p.Format = format
		}
		return p, nil
	}
	if name == "object" {
		if format != "" {
			return nil, &schema.InvalidConstraintError{Path: path, Constraint: "format", Reason: "only primitive types carry a format"}
		}
		return &schema.Object{PreserveUnknownFields: true}, nil
	}
	if format != "" {
		return nil, &schema.InvalidConstraintError{Path: path, Constraint: "format", Reason: "only primitive types carry a format"}
	}
	return r.object(name, path)
}

func (r *resolver) union(t model.Type, path string) (schema.Node, error) {
	policy := schema.UnionPolicy(t.Policy)
	switch policy {
	case "":
		policy = schema.Reject
	case schema.Flatten, schema.Reject, schema.Structural:
	default:
		return nil, &schema.InvalidModelError{Path: path, Reason: fmt.Sprintf("unknown union policy %q", t.Policy)}
	}
	if len(t.Variants) == 0 {
		return nil, &schema.InvalidModelError{Path: path, Reason: "union without variants"}
	}
	u := &schema.Union{Policy: policy}
	tags := make(map[string]bool, len(t.Variants))
	for _, v := range t.Variants {
		if v.Tag == "" {
			return nil, &schema.InvalidModelError{Path: path, Reason: "union variant without tag"}
		}
		if tags[v.Tag] {
			return nil, &schema.InvalidModelError{Path: path, Reason: fmt.Sprintf("duplicate union tag %q", v.Tag)}
		}
		tags[v.Tag] = true
		node, err := r.node(v.Type, schema.VariantPath(path, v.Tag), "")
		if err != nil {
			return nil, err
		}
		u.Variants = append(u.Variants, schema.Variant{Tag: v.Tag, Node: node})
	}
	return u, nil
}

func enum(t model.Type, path string) (schema.Node, error) {
	if len(t.Values) == 0 {
		return nil, &schema.UnsupportedTypeError{Path: path, Type: t.String(), Reason: "enum without values"}
	}
	values := make([]any, 0, len(t.Values))
	for _, v := range t.Values {
		n := normalize(v)
		switch n.(type) {
		case string, bool, int64, float64:
		default:
			return nil, &schema.UnsupportedTypeError{Path: path, Type: t.String(), Reason: fmt.Sprintf("enum literal %v is not a string, number or boolean", v)}
		}
		for _, existing := range values {
			if literalEqual(existing, n) {
				return nil, &schema.InvalidConstraintError{Path: path, Constraint: "enum", Reason: fmt.Sprintf("duplicate literal %v", v)}
			}
		}
		values = append(values, n)
	}
	return &schema.Enum{Values: values}, nil
}

func isStringKey(t model.Type) bool {
	if t.Kind != model.TypeNamed {
		return false
	}
	p, ok := primitive(t.Name)
	return ok && p.Type == schema.String && p.Format == ""
}

func describe(n schema.Node) string {
	if p, ok := n.(*schema.Primitive); ok {
		return string(p.Type)
	}
	return n.Kind().String()
}
