// Package schema defines the language-neutral intermediate tree built by the resolver and
// consumed by the emitter. Nodes are immutable once resolved.
package schema

// Kind identifies an intermediate node type.
type Kind int

const (
	KindPrimitive Kind = iota
	KindObject
	KindArray
	KindMap
	KindEnum
	KindUnion
)

func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	case KindEnum:
		return "enum"
	case KindUnion:
		return "union"
	default:
		return "unknown"
	}
}

// Node is the intermediate tree node interface.
type Node interface {
	Kind() Kind
}

// PrimitiveType is the scalar type of a primitive node.
type PrimitiveType string

const (
	String      PrimitiveType = "string"
	Integer     PrimitiveType = "integer"
	Number      PrimitiveType = "number"
	Boolean     PrimitiveType = "boolean"
	IntOrString PrimitiveType = "int-or-string"
	Any         PrimitiveType = "any"
)

// Primitive is a scalar value with an optional OpenAPI format.
type Primitive struct {
	Type   PrimitiveType
	Format string
}

func (*Primitive) Kind() Kind { return KindPrimitive }

// Array is a list of items sharing one schema.
type Array struct {
	Items Node
}

func (*Array) Kind() Kind { return KindArray }

// Map is a string keyed map with values sharing one schema.
type Map struct {
	Values Node
}

func (*Map) Kind() Kind { return KindMap }

// Enum is an ordered set of literal values.
type Enum struct {
	Values []any
}

func (*Enum) Kind() Kind { return KindEnum }

// UnionPolicy decides how a union is represented in the Kubernetes dialect.
type UnionPolicy string

const (
	// Flatten emits a permissive object and lists the variant tags in the description.
	Flatten UnionPolicy = "flatten"
	// Reject fails generation with an UnsupportedUnionError.
	Reject UnionPolicy = "reject"
	// Structural merges the variant properties and emits an anyOf of variant skeletons.
	Structural UnionPolicy = "structural"
)

// Variant is one tagged alternative of a union.
type Variant struct {
	Tag  string
	Node Node
}

// Union is a tagged set of alternative nodes.
type Union struct {
	Variants []Variant
	Policy   UnionPolicy
}

func (*Union) Kind() Kind { return KindUnion }

// Tags returns the variant tags in declaration order.
func (u *Union) Tags() []string {
	tags := make([]string, len(u.Variants))
	for i, v := range u.Variants {
		tags[i] = v.Tag
	}
	return tags
}

// AdditionalProperties is the policy for keys not declared as fields.
type AdditionalProperties int

const (
	// Forbidden drops undeclared keys.
	Forbidden AdditionalProperties = iota
	// Typed accepts undeclared keys whose values match Object.AdditionalSchema.
	Typed
	// AnyValue accepts undeclared keys with any value.
	AnyValue
)

// Object is a record with ordered fields.
type Object struct {
	// Name is the model the object was resolved from. Empty for inline objects.
	Name                  string
	Description           string
	Fields                []*Field
	PreserveUnknownFields bool
	Additional            AdditionalProperties
	AdditionalSchema      Node
}

func (*Object) Kind() Kind { return KindObject }

// Field returns the field with the given name.
func (o *Object) Field(name string) (*Field, bool) {
	for _, f := range o.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// Required returns the names of the required fields in declaration order.
func (o *Object) Required() []string {
	var names []string
	for _, f := range o.Fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

// Field is a named member of an Object.
type Field struct {
	Name        string
	Description string
	Type        Node
	Required    bool
	Nullable    bool
	// HasDefault distinguishes an explicit null default from no default.
	HasDefault  bool
	Default     any
	Constraints Constraints
}
