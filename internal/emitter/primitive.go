package emitter

import (
	"fmt"
	"math"

	"github.com/bakito/crd-schema-gen/internal/schema"
	"github.com/bakito/crd-schema-gen/internal/tree"
)

// primitive maps a scalar node to its OpenAPI type and format.
func primitive(p *schema.Primitive) *tree.Map {
	switch p.Type {
	case schema.IntOrString:
		return tree.Of(
			KeyAnyOf, []any{tree.Of(KeyType, "integer"), tree.Of(KeyType, "string")},
			KeyIntOrString, true,
		)
	case schema.Any:
		return tree.Of(KeyPreserveUnknown, true)
	}
	out := tree.Of(KeyType, string(p.Type))
	if p.Format != "" {
		out.Set(KeyFormat, p.Format)
	}
	return out
}

// enum emits the literals in declaration order with a type inferred from them.
func enum(n *schema.Enum, path string) (*tree.Map, error) {
	typ, err := enumType(n.Values)
	if err != nil {
		return nil, &schema.UnsupportedTypeError{Path: path, Type: "enum", Reason: err.Error()}
	}
	values := make([]any, len(n.Values))
	for i, v := range n.Values {
		values[i] = tree.Value(v)
	}
	return tree.Of(KeyType, typ, KeyEnum, values), nil
}

func enumType(values []any) (string, error) {
	var typ string
	for _, v := range values {
		var t string
		switch v.(type) {
		case string:
			t = "string"
		case bool:
			t = "boolean"
		case int, int32, int64:
			t = "integer"
		case float32, float64:
			t = "number"
		default:
			return "", fmt.Errorf("literal %v of type %T", v, v)
		}
		switch {
		case typ == "":
			typ = t
		case typ == t:
		case (typ == "integer" && t == "number") || (typ == "number" && t == "integer"):
			typ = "number"
		default:
			return "", fmt.Errorf("mixed literal types %s and %s", typ, t)
		}
	}
	return typ, nil
}

// constraints sets the constraint keys of c in emission order.
func constraints(out *tree.Map, c schema.Constraints) {
	number := func(f float64) any {
		if isIntegral(f) {
			return int64(f)
		}
		return f
	}

	for _, kind := range c.Set() {
		switch kind {
		case schema.MinLength:
			out.Set(kind, *c.MinLength)
		case schema.MaxLength:
			out.Set(kind, *c.MaxLength)
		case schema.Pattern:
			out.Set(kind, c.Pattern)
		case schema.Minimum:
			out.Set(kind, number(*c.Minimum))
		case schema.ExclusiveMinimum:
			out.Set(kind, true)
		case schema.Maximum:
			out.Set(kind, number(*c.Maximum))
		case schema.ExclusiveMaximum:
			out.Set(kind, true)
		case schema.MultipleOf:
			out.Set(kind, number(*c.MultipleOf))
		case schema.MinItems:
			out.Set(kind, *c.MinItems)
		case schema.MaxItems:
			out.Set(kind, *c.MaxItems)
		case schema.UniqueItems:
			out.Set(kind, true)
		case schema.MinProperties:
			out.Set(kind, *c.MinProperties)
		case schema.MaxProperties:
			out.Set(kind, *c.MaxProperties)
		}
	}
}

func isIntegral(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f) && math.Trunc(f) == f && math.Abs(f) < 1<<53
}
