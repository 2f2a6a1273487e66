package schema

// Constraint kinds accepted on fields. The set is closed, anything else fails resolution.
const (
	MinLength        = "minLength"
	MaxLength        = "maxLength"
	Pattern          = "pattern"
	Minimum          = "minimum"
	Maximum          = "maximum"
	ExclusiveMinimum = "exclusiveMinimum"
	ExclusiveMaximum = "exclusiveMaximum"
	MultipleOf       = "multipleOf"
	MinItems         = "minItems"
	MaxItems         = "maxItems"
	UniqueItems      = "uniqueItems"
	MinProperties    = "minProperties"
	MaxProperties    = "maxProperties"
)

// ConstraintKinds lists the supported constraint kinds in emission order.
var ConstraintKinds = []string{
	MinLength, MaxLength, Pattern,
	Minimum, ExclusiveMinimum, Maximum, ExclusiveMaximum, MultipleOf,
	MinItems, MaxItems, UniqueItems,
	MinProperties, MaxProperties,
}

// Constraints is the closed set of validations attached to a field.
type Constraints struct {
	MinLength *int64
	MaxLength *int64
	Pattern   string

	Minimum          *float64
	Maximum          *float64
	ExclusiveMinimum bool
	ExclusiveMaximum bool
	MultipleOf       *float64

	MinItems    *int64
	MaxItems    *int64
	UniqueItems bool

	MinProperties *int64
	MaxProperties *int64
}

// IsZero reports whether no constraint is set.
func (c Constraints) IsZero() bool {
	return c == Constraints{}
}

// Set returns the kinds that are set, in emission order.
func (c Constraints) Set() []string {
	var kinds []string
	add := func(ok bool, kind string) {
		if ok {
			kinds = append(kinds, kind)
		}
	}
	add(c.MinLength != nil, MinLength)
	add(c.MaxLength != nil, MaxLength)
	add(c.Pattern != "", Pattern)
	add(c.Minimum != nil, Minimum)
	add(c.ExclusiveMinimum, ExclusiveMinimum)
	add(c.Maximum != nil, Maximum)
	add(c.ExclusiveMaximum, ExclusiveMaximum)
	add(c.MultipleOf != nil, MultipleOf)
	add(c.MinItems != nil, MinItems)
	add(c.MaxItems != nil, MaxItems)
	add(c.UniqueItems, UniqueItems)
	add(c.MinProperties != nil, MinProperties)
	add(c.MaxProperties != nil, MaxProperties)
	return kinds
}

// Applicable returns the first constraint kind that cannot be used on node, or "".
func (c Constraints) Applicable(node Node) string {
	var allowString, allowNumeric, allowItems, allowProperties bool
	switch n := node.(type) {
	case *Primitive:
		allowString = n.Type == String
		allowNumeric = n.Type == Integer || n.Type == Number
	case *Array:
		allowItems = true
	case *Map, *Object:
		allowProperties = true
	}
	for _, kind := range c.Set() {
		switch {
		case kind == MinLength || kind == MaxLength || kind == Pattern:
			if !allowString {
				return kind
			}
		case kind == MinItems || kind == MaxItems || kind == UniqueItems:
			if !allowItems {
				return kind
			}
		case kind == MinProperties || kind == MaxProperties:
			if !allowProperties {
				return kind
			}
		default:
			if !allowNumeric {
				return kind
			}
		}
	}
	return ""
}
