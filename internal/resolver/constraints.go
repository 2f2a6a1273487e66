package resolver

import (
	"fmt"
	"math"
	"reflect"
	"regexp"

	"github.com/bakito/crd-schema-gen/internal/model"
	"github.com/bakito/crd-schema-gen/internal/schema"
)

// closeConstraints maps declared constraints onto the closed constraint set and checks that
// each value is well formed and consistent with the others.
func closeConstraints(decls []model.Constraint, path string) (schema.Constraints, error) {
	var c schema.Constraints
	seen := make(map[string]bool, len(decls))

	invalid := func(kind, format string, args ...any) error {
		return &schema.InvalidConstraintError{Path: path, Constraint: kind, Reason: fmt.Sprintf(format, args...)}
	}

	for _, d := range decls {
		if seen[d.Kind] {
			return c, invalid(d.Kind, "declared more than once")
		}
		seen[d.Kind] = true

		switch d.Kind {
		case schema.MinLength, schema.MaxLength, schema.MinItems, schema.MaxItems, schema.MinProperties, schema.MaxProperties:
			n, ok := toNumber(d.Value)
			if !ok || !isIntegral(n) {
				return c, invalid(d.Kind, "%v is not an integer", d.Value)
			}
			if n < 0 {
				return c, invalid(d.Kind, "%v is negative", d.Value)
			}
			if n >= 1<<63 {
				return c, invalid(d.Kind, "%v exceeds the int64 range", d.Value)
			}
			v := int64(n)
			switch d.Kind {
			case schema.MinLength:
				c.MinLength = &v
			case schema.MaxLength:
				c.MaxLength = &v
			case schema.MinItems:
				c.MinItems = &v
			case schema.MaxItems:
				c.MaxItems = &v
			case schema.MinProperties:
				c.MinProperties = &v
			case schema.MaxProperties:
				c.MaxProperties = &v
			}
		case schema.Minimum, schema.Maximum, schema.MultipleOf:
			n, ok := toNumber(d.Value)
			if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
				return c, invalid(d.Kind, "%v is not a number", d.Value)
			}
			switch d.Kind {
			case schema.Minimum:
				c.Minimum = &n
			case schema.Maximum:
				c.Maximum = &n
			case schema.MultipleOf:
				if n <= 0 {
					return c, invalid(d.Kind, "%v is not positive", d.Value)
				}
				c.MultipleOf = &n
			}
		case schema.ExclusiveMinimum, schema.ExclusiveMaximum, schema.UniqueItems:
			b, ok := d.Value.(bool)
			if !ok {
				return c, invalid(d.Kind, "%v is not a boolean", d.Value)
			}
			switch d.Kind {
			case schema.ExclusiveMinimum:
				c.ExclusiveMinimum = b
			case schema.ExclusiveMaximum:
				c.ExclusiveMaximum = b
			case schema.UniqueItems:
				c.UniqueItems = b
			}
		case schema.Pattern:
			s, ok := d.Value.(string)
			if !ok || s == "" {
				return c, invalid(d.Kind, "%v is not a regular expression", d.Value)
			}
			if _, err := regexp.Compile(s); err != nil {
				return c, invalid(d.Kind, "%v", err)
			}
			c.Pattern = s
		default:
			return c, invalid(d.Kind, "unsupported constraint kind")
		}
	}

	return c, consistent(c, path)
}

func consistent(c schema.Constraints, path string) error {
	invalid := func(kind, reason string) error {
		return &schema.InvalidConstraintError{Path: path, Constraint: kind, Reason: reason}
	}
	bounds := []struct {
		min, max *int64
		kind     string
	}{
		{c.MinLength, c.MaxLength, schema.MinLength},
		{c.MinItems, c.MaxItems, schema.MinItems},
		{c.MinProperties, c.MaxProperties, schema.MinProperties},
	}
	for _, b := range bounds {
		if b.min != nil && b.max != nil && *b.min > *b.max {
			return invalid(b.kind, fmt.Sprintf("%d is greater than the maximum %d", *b.min, *b.max))
		}
	}
	if c.ExclusiveMinimum && c.Minimum == nil {
		return invalid(schema.ExclusiveMinimum, "set without minimum")
	}
	if c.ExclusiveMaximum && c.Maximum == nil {
		return invalid(schema.ExclusiveMaximum, "set without maximum")
	}
	if c.Minimum != nil && c.Maximum != nil {
		if *c.Minimum > *c.Maximum {
			return invalid(schema.Minimum, fmt.Sprintf("%v is greater than the maximum %v", *c.Minimum, *c.Maximum))
		}
		if *c.Minimum == *c.Maximum && (c.ExclusiveMinimum || c.ExclusiveMaximum) {
			return invalid(schema.Minimum, "exclusive bounds leave an empty range")
		}
	}
	return nil
}

// toNumber converts any Go numeric value to float64.
func toNumber(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch {
	case rv.CanInt():
		return float64(rv.Int()), true
	case rv.CanUint():
		return float64(rv.Uint()), true
	case rv.CanFloat():
		return rv.Float(), true
	}
	return 0, false
}

func isIntegral(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f) && math.Trunc(f) == f
}
