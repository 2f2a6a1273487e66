// Package emitter renders a resolved schema tree as a Kubernetes OpenAPI v3 schema.
//
// The output is an ordered generic tree: properties keep their declaration order so that
// generated manifests diff cleanly.
package emitter

import (
	"fmt"
	"slices"

	"github.com/bakito/crd-schema-gen/internal/schema"
	"github.com/bakito/crd-schema-gen/internal/tree"
)

// Schema keys used by the emitter and verified after overrides.
const (
	KeyDescription          = "description"
	KeyType                 = "type"
	KeyFormat               = "format"
	KeyEnum                 = "enum"
	KeyDefault              = "default"
	KeyNullable             = "nullable"
	KeyItems                = "items"
	KeyProperties           = "properties"
	KeyRequired             = "required"
	KeyAdditionalProperties = "additionalProperties"
	KeyAnyOf                = "anyOf"
	KeyPreserveUnknown      = "x-kubernetes-preserve-unknown-fields"
	KeyIntOrString          = "x-kubernetes-int-or-string"
)

// Option configures Emit.
type Option func(*options)

type options struct {
	defaults bool
}

// WithoutDefaults drops every default from the emitted schema. The API server rewrites
// stored objects when defaults are present, some projects prefer applying them in code.
func WithoutDefaults() Option {
	return func(o *options) {
		o.defaults = false
	}
}

// Emit renders obj as the root schema of a custom resource version.
func Emit(obj *schema.Object, opts ...Option) (*tree.Map, error) {
	o := options{defaults: true}
	for _, opt := range opts {
		opt(&o)
	}
	e := &emitter{opts: o}
	out, err := e.node(obj, "")
	if err != nil {
		return nil, err
	}
	return out, Verify(out)
}

type emitter struct {
	opts options
}

func (e *emitter) node(n schema.Node, path string) (*tree.Map, error) {
	switch t := n.(type) {
	case *schema.Primitive:
		return primitive(t), nil
	case *schema.Enum:
		return enum(t, path)
	case *schema.Array:
		items, err := e.node(t.Items, schema.Items(path))
		if err != nil {
			return nil, err
		}
		return tree.Of(KeyType, "array", KeyItems, items), nil
	case *schema.Map:
		values, err := e.node(t.Values, schema.Values(path))
		if err != nil {
			return nil, err
		}
		return tree.Of(KeyType, "object", KeyAdditionalProperties, values), nil
	case *schema.Object:
		return e.object(t, path)
	case *schema.Union:
		return e.union(t, path)
	default:
		return nil, &schema.UnsupportedTypeError{Path: path, Type: fmt.Sprintf("%T", n), Reason: "unknown node"}
	}
}

func (e *emitter) object(o *schema.Object, path string) (*tree.Map, error) {
	out := tree.New()
	if o.Description != "" {
		out.Set(KeyDescription, o.Description)
	}
	out.Set(KeyType, "object")

	if o.PreserveUnknownFields {
		out.Set(KeyPreserveUnknown, true)
		return out, nil
	}

	if o.Additional != schema.Forbidden && len(o.Fields) > 0 {
		return nil, &schema.UnsupportedTypeError{
			Path:   path,
			Type:   o.Name,
			Reason: "additional properties cannot be combined with declared fields",
		}
	}
	switch o.Additional {
	case schema.Typed:
		values, err := e.node(o.AdditionalSchema, schema.Values(path))
		if err != nil {
			return nil, err
		}
		out.Set(KeyAdditionalProperties, values)
		return out, nil
	case schema.AnyValue:
		out.Set(KeyAdditionalProperties, true)
		return out, nil
	}

	if len(o.Fields) == 0 {
		return out, nil
	}

	props := tree.New()
	for _, f := range o.Fields {
		prop, err := e.field(f, schema.Child(path, f.Name))
		if err != nil {
			return nil, err
		}
		props.Set(f.Name, prop)
	}
	out.Set(KeyProperties, props)

	if required := o.Required(); len(required) > 0 {
		slices.Sort(required)
		out.Set(KeyRequired, required)
	}
	return out, nil
}

func (e *emitter) field(f *schema.Field, path string) (*tree.Map, error) {
	out, err := e.node(f.Type, path)
	if err != nil {
		return nil, err
	}

	if f.Description != "" {
		desc := f.Description
		if _, ok := f.Type.(*schema.Union); ok {
			if tags, ok := out.Get(KeyDescription); ok {
				desc += " " + tags.(string)
			}
		}
		out.Set(KeyDescription, desc)
		if err := out.MoveToFront(KeyDescription); err != nil {
			return nil, err
		}
	}
	if f.Nullable {
		out.Set(KeyNullable, true)
	}
	constraints(out, f.Constraints)
	if f.HasDefault && e.opts.defaults {
		out.Set(KeyDefault, tree.Value(f.Default))
	}
	return out, nil
}
