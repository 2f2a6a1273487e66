package emitter

import (
	"fmt"
	"strings"

	"k8s.io/apiextensions-apiserver/pkg/apis/apiextensions"
	apiv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	structuralschema "k8s.io/apiextensions-apiserver/pkg/apiserver/schema"
	"k8s.io/apiextensions-apiserver/pkg/apiserver/schema/pruning"
	"k8s.io/apiextensions-apiserver/pkg/apiserver/validation"
	"k8s.io/apimachinery/pkg/util/json"

	"github.com/bakito/crd-schema-gen/internal/schema"
	"github.com/bakito/crd-schema-gen/internal/tree"
)

// CheckDefault validates the default of f against the schema emitted for f, the way the API
// server validates defaults of a CRD: unknown fields are pruned and reported, then the value
// is checked with the apiserver schema validator.
func CheckDefault(f *schema.Field, path string) error {
	if !f.HasDefault {
		return nil
	}
	e := &emitter{opts: options{defaults: true}}
	node, err := e.field(f, path)
	if err != nil {
		return err
	}
	return checkDefault(node, path)
}

// CheckDefaults validates every default in root against the node carrying it.
func CheckDefaults(root *tree.Map) error {
	return checkDefaults(root, "")
}

func checkDefaults(m *tree.Map, path string) error {
	if _, ok := m.Get(KeyDefault); ok {
		if err := checkDefault(m, path); err != nil {
			return err
		}
	}
	if props, ok := tree.Child(m, KeyProperties); ok {
		for pair := props.Oldest(); pair != nil; pair = pair.Next() {
			child, ok := pair.Value.(*tree.Map)
			if !ok {
				continue
			}
			if err := checkDefaults(child, schema.Child(path, pair.Key)); err != nil {
				return err
			}
		}
	}
	if items, ok := tree.Child(m, KeyItems); ok {
		if err := checkDefaults(items, schema.Items(path)); err != nil {
			return err
		}
	}
	if values, ok := tree.Child(m, KeyAdditionalProperties); ok {
		return checkDefaults(values, schema.Values(path))
	}
	return nil
}

func checkDefault(node *tree.Map, path string) error {
	value, _ := node.Get(KeyDefault)
	props, err := schemaProps(node)
	if err != nil {
		return defaultError(path, "%v", err)
	}
	if value == nil {
		if props.Nullable {
			return nil
		}
		return defaultError(path, "null default on a non-nullable field")
	}

	v, err := jsonValue(value)
	if err != nil {
		return defaultError(path, "%v", err)
	}

	s, err := structuralschema.NewStructural(props)
	if err != nil {
		return defaultError(path, "%v", err)
	}
	unknown := pruning.PruneWithOptions(v, s, false, structuralschema.UnknownFieldPathOptions{TrackUnknownFieldPaths: true})
	if len(unknown) > 0 {
		return defaultError(path, "unknown field(s) %s", strings.Join(unknown, ", "))
	}

	validator, _, err := validation.NewSchemaValidator(props)
	if err != nil {
		return defaultError(path, "%v", err)
	}
	if errs := validation.ValidateCustomResource(nil, v, validator); len(errs) > 0 {
		return defaultError(path, "%s", errs.ToAggregate().Error())
	}
	return nil
}

// schemaProps converts node without its default into the internal apiextensions schema the
// apiserver validators work on.
func schemaProps(node *tree.Map) (*apiextensions.JSONSchemaProps, error) {
	c := tree.Copy(node)
	c.Delete(KeyDefault)
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	v1 := &apiv1.JSONSchemaProps{}
	if err := json.Unmarshal(b, v1); err != nil {
		return nil, err
	}
	out := &apiextensions.JSONSchemaProps{}
	if err := apiv1.Convert_v1_JSONSchemaProps_To_apiextensions_JSONSchemaProps(v1, out, nil); err != nil {
		return nil, err
	}
	return out, nil
}

// jsonValue returns v as decoded JSON: maps, slices, int64, float64, strings and booleans.
func jsonValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func defaultError(path, format string, args ...any) error {
	return &schema.InvalidConstraintError{Path: path, Constraint: "default", Reason: fmt.Sprintf(format, args...)}
}
