package emitter

import (
	"fmt"
	"strings"

	"github.com/bakito/crd-schema-gen/internal/schema"
	"github.com/bakito/crd-schema-gen/internal/tree"
)

// skeletonKeys may not appear in anyOf branches of a structural schema.
var skeletonKeys = []string{
	KeyDescription,
	KeyType,
	KeyDefault,
	KeyAdditionalProperties,
	KeyNullable,
	KeyPreserveUnknown,
	KeyIntOrString,
}

func (e *emitter) union(u *schema.Union, path string) (*tree.Map, error) {
	switch u.Policy {
	case schema.Reject:
		return nil, &schema.UnsupportedUnionError{Path: path, Tags: u.Tags(), Reason: "unions are rejected by policy"}
	case schema.Structural:
		return e.structural(u, path)
	default:
		return flatten(u), nil
	}
}

// flatten emits a permissive node that accepts every variant. Object variants become a
// free-form object, integer and string variants an int-or-string, anything else an untyped
// node that keeps its value.
func flatten(u *schema.Union) *tree.Map {
	var objects, integers, strs, others int
	for _, v := range u.Variants {
		switch n := v.Node.(type) {
		case *schema.Object, *schema.Map:
			objects++
		case *schema.Primitive:
			switch n.Type {
			case schema.Integer:
				integers++
			case schema.String:
				strs++
			default:
				others++
			}
		default:
			others++
		}
	}

	out := tree.Of(KeyDescription, variantsDescription(u))
	switch {
	case objects == len(u.Variants):
		out.Set(KeyType, "object")
		out.Set(KeyAdditionalProperties, true)
	case others == 0 && objects == 0 && integers > 0 && strs > 0:
		out.Set(KeyAnyOf, []any{tree.Of(KeyType, "integer"), tree.Of(KeyType, "string")})
		out.Set(KeyIntOrString, true)
	default:
		out.Set(KeyPreserveUnknown, true)
	}
	return out
}

func variantsDescription(u *schema.Union) string {
	return "One of: " + strings.Join(u.Tags(), ", ") + "."
}

// structural emits an object listing the properties of all variants, plus an anyOf with
// one skeleton per variant so the API server still checks which variant matched.
func (e *emitter) structural(u *schema.Union, path string) (*tree.Map, error) {
	props := tree.New()
	anyOf := make([]any, 0, len(u.Variants))
	for _, v := range u.Variants {
		vp := schema.VariantPath(path, v.Tag)
		obj, ok := v.Node.(*schema.Object)
		if !ok {
			return nil, &schema.UnsupportedUnionError{
				Path:   vp,
				Tags:   u.Tags(),
				Reason: fmt.Sprintf("structural unions need object variants, %s is a %s", v.Tag, v.Node.Kind()),
			}
		}
		if obj.PreserveUnknownFields || obj.Additional != schema.Forbidden {
			return nil, &schema.UnsupportedUnionError{
				Path:   vp,
				Tags:   u.Tags(),
				Reason: fmt.Sprintf("variant %s accepts undeclared properties", v.Tag),
			}
		}
		s, err := e.object(obj, vp)
		if err != nil {
			return nil, err
		}
		variantProps, _ := tree.Child(s, KeyProperties)
		for _, name := range tree.Keys(variantProps) {
			prop, _ := tree.Child(variantProps, name)
			if existing, ok := props.Get(name); ok && !tree.Equal(existing, prop) {
				return nil, &schema.UnsupportedUnionError{
					Path:   schema.Child(path, name),
					Tags:   u.Tags(),
					Reason: "variants declare the property with different schemas",
				}
			}
			props.Set(name, tree.Copy(prop))
		}
		anyOf = append(anyOf, skeleton(s))
	}

	out := tree.Of(KeyType, "object")
	if props.Len() > 0 {
		out.Set(KeyProperties, props)
	}
	out.Set(KeyAnyOf, anyOf)
	return out, nil
}

// skeleton returns a copy of s without the keys forbidden in anyOf branches, recursively.
func skeleton(s *tree.Map) *tree.Map {
	out := tree.Copy(s)
	strip(out)
	return out
}

func strip(m *tree.Map) {
	if _, ok := m.Get(KeyIntOrString); ok {
		m.Delete(KeyAnyOf)
	}
	for _, k := range skeletonKeys {
		m.Delete(k)
	}
	if props, ok := tree.Child(m, KeyProperties); ok {
		for p := props.Oldest(); p != nil; p = p.Next() {
			if child, ok := p.Value.(*tree.Map); ok {
				strip(child)
			}
		}
	}
	if items, ok := tree.Child(m, KeyItems); ok {
		strip(items)
	}
	if branches, ok := m.Get(KeyAnyOf); ok {
		if list, ok := branches.([]any); ok {
			for _, b := range list {
				if child, ok := b.(*tree.Map); ok {
					strip(child)
				}
			}
		}
	}
}
