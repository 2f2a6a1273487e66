// Package model holds the explicit model declarations that the resolver turns into schemas.
//
// Declarations are plain values: they can be built in code, decoded from a project file, or
// reflected from Go struct types with Reflect. There is no global registry; callers pass a
// Registry to the generator.
package model

import (
	"fmt"
	"slices"
)

// Model declares a record type.
type Model struct {
	Name        string
	Description string
	Fields      []Field
	// PreserveUnknownFields keeps undeclared keys instead of pruning them.
	PreserveUnknownFields bool
	// AdditionalProperties is "", "forbidden", "any" or a type expression for typed values.
	AdditionalProperties string
}

// Field declares a member of a Model.
type Field struct {
	Name string
	// JSONName overrides the property name derived from Name.
	JSONName    string
	Type        Type
	Optional    bool
	Nullable    bool
	HasDefault  bool
	Default     any
	Format      string
	Description string
	Constraints []Constraint
}

// WithDefault returns a copy of f carrying the default value v.
func (f Field) WithDefault(v any) Field {
	f.HasDefault = true
	f.Default = v
	return f
}

// Constraint is an unresolved constraint declaration. The resolver closes Kind into the
// supported set and rejects the rest.
type Constraint struct {
	Kind  string
	Value any
}

// TypeKind identifies the shape of a declared type.
type TypeKind int

const (
	// TypeNamed is a primitive name or a reference to another Model.
	TypeNamed TypeKind = iota
	TypeArray
	TypeMap
	TypeEnum
	TypeUnion
)

// Type is a declared field type.
type Type struct {
	Kind TypeKind
	// Name is set for TypeNamed.
	Name string
	// Key is the map key type, Elem the array item or map value type.
	Key  *Type
	Elem *Type
	// Values are the enum literals.
	Values []any
	// Variants and Policy describe a union.
	Variants []Variant
	Policy   string
}

// Variant is one tagged alternative of a union type.
type Variant struct {
	Tag  string
	Type Type
}

// Named returns a primitive or model reference type.
func Named(name string) Type {
	return Type{Kind: TypeNamed, Name: name}
}

// ArrayOf returns an array type.
func ArrayOf(elem Type) Type {
	return Type{Kind: TypeArray, Elem: &elem}
}

// MapOf returns a map type.
func MapOf(key, elem Type) Type {
	return Type{Kind: TypeMap, Key: &key, Elem: &elem}
}

// EnumOf returns an enum type with the given literals.
func EnumOf(values ...any) Type {
	return Type{Kind: TypeEnum, Values: values}
}

// UnionOf returns a union type.
func UnionOf(policy string, variants ...Variant) Type {
	return Type{Kind: TypeUnion, Policy: policy, Variants: variants}
}

// String renders the type in the grammar accepted by ParseType. Enums and unions use a
// descriptive form that ParseType does not read back.
func (t Type) String() string {
	switch t.Kind {
	case TypeArray:
		return "[]" + t.Elem.String()
	case TypeMap:
		return "map[" + t.Key.String() + "]" + t.Elem.String()
	case TypeEnum:
		return fmt.Sprintf("enum%v", t.Values)
	case TypeUnion:
		tags := make([]string, len(t.Variants))
		for i, v := range t.Variants {
			tags[i] = v.Tag
		}
		return fmt.Sprintf("union%v", tags)
	default:
		return t.Name
	}
}

// Registry is an explicit collection of models, addressed by name.
type Registry struct {
	models map[string]*Model
	order  []string
}

// NewRegistry returns a registry holding models. Later duplicates replace earlier ones.
func NewRegistry(models ...*Model) *Registry {
	r := &Registry{models: make(map[string]*Model)}
	for _, m := range models {
		r.Add(m)
	}
	return r
}

// Add registers m.
func (r *Registry) Add(m *Model) {
	if _, ok := r.models[m.Name]; !ok {
		r.order = append(r.order, m.Name)
	}
	r.models[m.Name] = m
}

// Get returns the model named name.
func (r *Registry) Get(name string) (*Model, bool) {
	if r == nil {
		return nil, false
	}
	m, ok := r.models[name]
	return m, ok
}

// Names returns the registered model names in registration order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	return slices.Clone(r.order)
}

// Len returns the number of registered models.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}
