// Package override applies user supplied patches on top of a generated version schema.
//
// Patches run in order against a deep copy of the target. The first failing patch aborts
// the batch and the caller keeps the untouched input.
package override

import (
	"fmt"
	"slices"

	apiv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"

	"github.com/bakito/crd-schema-gen/internal/emitter"
	"github.com/bakito/crd-schema-gen/internal/schema"
	"github.com/bakito/crd-schema-gen/internal/tree"
)

// structuralKeys carry the shape of the schema and cannot be set by SetAttribute.
var structuralKeys = []string{
	emitter.KeyType,
	emitter.KeyProperties,
	emitter.KeyRequired,
	emitter.KeyItems,
	emitter.KeyAdditionalProperties,
	emitter.KeyPreserveUnknown,
}

// Target is what a version's patches apply to.
type Target struct {
	Schema         *tree.Map
	PrinterColumns []apiv1.CustomResourceColumnDefinition
}

// Patch is an operation applied at a path of the schema. Paths use field names and array
// indexes: spec.template.containers[0].image. The empty path is the root schema.
type Patch struct {
	Path string
	Op   Op
}

// Op is a patch operation: SetAttribute, MarkPreserveUnknown or AddPrinterColumn.
type Op interface {
	apply(t *Target, path string) error
}

// SetAttribute sets a non-structural attribute such as description, default or pattern.
type SetAttribute struct {
	Key   string
	Value any
}

// MarkPreserveUnknown turns an object node into a preserve-unknown node. Its type and
// description are kept, its declared shape is dropped.
type MarkPreserveUnknown struct{}

// AddPrinterColumn appends a printer column, or replaces the column with the same name.
// The patch path is not consulted.
type AddPrinterColumn struct {
	Column apiv1.CustomResourceColumnDefinition
}

// Apply applies patches to a copy of target and returns the patched copy.
func Apply(target Target, patches []Patch) (Target, error) {
	out := Target{
		Schema:         tree.Copy(target.Schema),
		PrinterColumns: slices.Clone(target.PrinterColumns),
	}
	for i, p := range patches {
		if p.Op == nil {
			return target, &schema.InvalidOverrideError{Path: p.Path, Reason: fmt.Sprintf("patch %d has no operation", i)}
		}
		if err := p.Op.apply(&out, p.Path); err != nil {
			return target, err
		}
	}
	if out.Schema != nil {
		if err := emitter.Verify(out.Schema); err != nil {
			return target, err
		}
		if err := emitter.CheckDefaults(out.Schema); err != nil {
			return target, err
		}
	}
	return out, nil
}

func (s SetAttribute) apply(t *Target, path string) error {
	if s.Key == "" {
		return &schema.InvalidOverrideError{Path: path, Reason: "attribute key is empty"}
	}
	if slices.Contains(structuralKeys, s.Key) {
		return &schema.InvalidOverrideError{Path: path, Reason: fmt.Sprintf("%s is structural and cannot be set", s.Key)}
	}
	node, err := Lookup(t.Schema, path)
	if err != nil {
		return err
	}
	node.Set(s.Key, tree.Value(s.Value))
	return nil
}

func (MarkPreserveUnknown) apply(t *Target, path string) error {
	if path == "" {
		return &schema.InvalidOverrideError{Path: path, Reason: "the root schema cannot preserve unknown fields"}
	}
	node, err := Lookup(t.Schema, path)
	if err != nil {
		return err
	}
	typ, hasType := node.Get(emitter.KeyType)
	switch {
	case hasType && typ == "object":
	case !hasType && isTrue(node, emitter.KeyPreserveUnknown):
	default:
		return &schema.InvalidOverrideError{Path: path, Reason: "only object nodes can preserve unknown fields"}
	}
	for _, k := range []string{emitter.KeyProperties, emitter.KeyRequired, emitter.KeyAdditionalProperties, emitter.KeyAnyOf} {
		node.Delete(k)
	}
	node.Set(emitter.KeyPreserveUnknown, true)
	return nil
}

func (a AddPrinterColumn) apply(t *Target, path string) error {
	if a.Column.Name == "" {
		return &schema.InvalidOverrideError{Path: path, Reason: "printer column without name"}
	}
	i := slices.IndexFunc(t.PrinterColumns, func(c apiv1.CustomResourceColumnDefinition) bool {
		return c.Name == a.Column.Name
	})
	if i >= 0 {
		t.PrinterColumns[i] = a.Column
		return nil
	}
	t.PrinterColumns = append(t.PrinterColumns, a.Column)
	return nil
}

func isTrue(m *tree.Map, key string) bool {
	v, _ := m.Get(key)
	b, ok := v.(bool)
	return ok && b
}
