package model

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	apiv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/apimachinery/pkg/util/json"
)

// TagName is the struct tag read by Reflect, next to the json tag.
//
//	Replicas *int32 `json:"replicas,omitempty" crd:"minimum=0;default=1"`
//
// Entries are separated by ';'. optional, required, nullable, default, enum (values
// separated by '|'), format, type and description are field settings; every other key is
// passed on as a constraint.
const TagName = "crd"

var (
	typeMetaType   = reflect.TypeFor[metav1.TypeMeta]()
	objectMetaType = reflect.TypeFor[metav1.ObjectMeta]()
	listMetaType   = reflect.TypeFor[metav1.ListMeta]()

	// wellKnown maps types with custom JSON encodings to their declared type.
	wellKnown = map[reflect.Type]string{
		reflect.TypeFor[metav1.Time]():          "date-time",
		reflect.TypeFor[metav1.MicroTime]():     "date-time",
		reflect.TypeFor[time.Time]():            "date-time",
		reflect.TypeFor[metav1.Duration]():      "string",
		reflect.TypeFor[intstr.IntOrString]():   "int-or-string",
		reflect.TypeFor[resource.Quantity]():    "int-or-string",
		reflect.TypeFor[apiv1.JSON]():           "any",
		reflect.TypeFor[runtime.RawExtension](): "object",
	}
)

// Reflect builds a registry from the struct type of v and every struct type reachable from
// it. It returns the registry and the name of the root model.
func Reflect(v any) (*Registry, string, error) {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, "", fmt.Errorf("reflect: expected a struct, got %v", t)
	}
	r := &reflector{
		registry: NewRegistry(),
		seen:     make(map[reflect.Type]string),
	}
	name, err := r.model(t, t.Name())
	if err != nil {
		return nil, "", err
	}
	return r.registry, name, nil
}

type reflector struct {
	registry *Registry
	seen     map[reflect.Type]string
}

func (r *reflector) model(t reflect.Type, name string) (string, error) {
	if n, ok := r.seen[t]; ok {
		return n, nil
	}
	if existing, ok := r.registry.Get(name); ok {
		return "", fmt.Errorf("reflect: model name %s of %v already used by another type (%s)", name, t, existing.Name)
	}
	m := &Model{Name: name}
	// register before walking fields so self references terminate here
	r.seen[t] = name
	r.registry.Add(m)

	fields, err := r.fields(t, name)
	if err != nil {
		return "", err
	}
	m.Fields = fields
	return name, nil
}

func (r *reflector) fields(t reflect.Type, owner string) ([]Field, error) {
	var fields []Field
	for i := range t.NumField() {
		sf := t.Field(i)
		jsonName, opts := parseJSONTag(sf.Tag.Get("json"))
		if jsonName == "-" {
			continue
		}
		if sf.Type == typeMetaType || sf.Type == objectMetaType || sf.Type == listMetaType {
			continue
		}
		if sf.Anonymous && (jsonName == "" || opts["inline"]) {
			et := sf.Type
			if et.Kind() == reflect.Pointer {
				et = et.Elem()
			}
			if et.Kind() == reflect.Struct {
				embedded, err := r.fields(et, owner)
				if err != nil {
					return nil, err
				}
				fields = append(fields, embedded...)
				continue
			}
		}
		if !sf.IsExported() {
			continue
		}
		if jsonName == "" {
			jsonName = sf.Name
		}
		f, err := r.field(sf, owner, jsonName, opts["omitempty"] || opts["omitzero"])
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func (r *reflector) field(sf reflect.StructField, owner, jsonName string, omitempty bool) (Field, error) {
	f := Field{Name: jsonName, Optional: omitempty}

	ft := sf.Type
	if ft.Kind() == reflect.Pointer {
		f.Optional = true
		ft = ft.Elem()
	}

	tag, err := parseCRDTag(sf.Tag.Get(TagName))
	if err != nil {
		return Field{}, fmt.Errorf("reflect: %s.%s: %w", owner, sf.Name, err)
	}

	if tag.typ != "" {
		f.Type, err = ParseType(tag.typ)
		if err != nil {
			return Field{}, fmt.Errorf("reflect: %s.%s: %w", owner, sf.Name, err)
		}
	} else {
		f.Type, err = r.typeOf(ft, owner+sf.Name)
		if err != nil {
			return Field{}, err
		}
	}

	if tag.optional {
		f.Optional = true
	}
	if tag.required {
		f.Optional = false
	}
	f.Nullable = tag.nullable
	f.Format = tag.format
	f.Description = tag.description
	f.Constraints = tag.constraints

	asString := ft.Kind() == reflect.String && tag.typ == ""
	if len(tag.enum) > 0 {
		values := make([]any, len(tag.enum))
		for i, raw := range tag.enum {
			values[i] = literal(raw, asString)
		}
		f.Type = EnumOf(values...)
	}
	if tag.hasDefault {
		f.HasDefault = true
		f.Default = literal(tag.defaultValue, asString)
	}
	return f, nil
}

func (r *reflector) typeOf(t reflect.Type, inlineName string) (Type, error) {
	if name, ok := wellKnown[t]; ok {
		return Named(name), nil
	}
	switch t.Kind() {
	case reflect.Pointer:
		return r.typeOf(t.Elem(), inlineName)
	case reflect.String:
		return Named("string"), nil
	case reflect.Bool:
		return Named("boolean"), nil
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Uint8, reflect.Uint16:
		return Named("int32"), nil
	case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint32, reflect.Uint64:
		return Named("int64"), nil
	case reflect.Float32:
		return Named("float32"), nil
	case reflect.Float64:
		return Named("float64"), nil
	case reflect.Interface:
		return Named("any"), nil
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return Named("byte"), nil
		}
		elem, err := r.typeOf(t.Elem(), inlineName+"Item")
		if err != nil {
			return Type{}, err
		}
		return ArrayOf(elem), nil
	case reflect.Map:
		key, err := r.typeOf(t.Key(), inlineName+"Key")
		if err != nil {
			return Type{}, err
		}
		elem, err := r.typeOf(t.Elem(), inlineName+"Value")
		if err != nil {
			return Type{}, err
		}
		return MapOf(key, elem), nil
	case reflect.Struct:
		name := t.Name()
		if name == "" {
			name = inlineName
		}
		n, err := r.model(t, name)
		if err != nil {
			return Type{}, err
		}
		return Named(n), nil
	default:
		// complex, chan, func and unsafe pointers are left to the resolver to reject
		return Named(t.Kind().String()), nil
	}
}

func parseJSONTag(tag string) (string, map[string]bool) {
	parts := strings.Split(tag, ",")
	opts := make(map[string]bool, len(parts))
	for _, p := range parts[1:] {
		opts[p] = true
	}
	return parts[0], opts
}

type crdTag struct {
	optional     bool
	required     bool
	nullable     bool
	hasDefault   bool
	defaultValue string
	enum         []string
	format       string
	typ          string
	description  string
	constraints  []Constraint
}

func parseCRDTag(tag string) (crdTag, error) {
	var t crdTag
	if strings.TrimSpace(tag) == "" {
		return t, nil
	}
	for _, entry := range strings.Split(tag, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		key, value, hasValue := strings.Cut(entry, "=")
		switch key {
		case "optional":
			t.optional = true
		case "required":
			t.required = true
		case "nullable":
			t.nullable = true
		case "default":
			t.hasDefault = true
			t.defaultValue = value
		case "enum":
			t.enum = strings.Split(value, "|")
		case "format":
			t.format = value
		case "type":
			t.typ = value
		case "description":
			t.description = value
		case "pattern":
			t.constraints = append(t.constraints, Constraint{Kind: key, Value: value})
		default:
			if !hasValue {
				// flag style constraints such as uniqueItems
				t.constraints = append(t.constraints, Constraint{Kind: key, Value: true})
				continue
			}
			t.constraints = append(t.constraints, Constraint{Kind: key, Value: literal(value, false)})
		}
	}
	if t.optional && t.required {
		return t, fmt.Errorf("tag %q sets both optional and required", tag)
	}
	return t, nil
}

// literal decodes a tag value as JSON, falling back to the raw string. asString keeps the
// raw text for string typed fields, so default=1 on a string field stays "1".
func literal(raw string, asString bool) any {
	if asString {
		return raw
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}
