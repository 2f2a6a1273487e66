package emitter

import (
	"fmt"

	"github.com/bakito/crd-schema-gen/internal/schema"
	"github.com/bakito/crd-schema-gen/internal/tree"
)

// Verify checks the structural rules of the Kubernetes schema dialect on an emitted tree:
// every node outside anyOf branches has a type unless it preserves unknown fields or is an
// int-or-string, preserve-unknown nodes list no properties, and properties exclude
// additionalProperties. It is run on emitted schemas and again after overrides.
func Verify(root *tree.Map) error {
	return verify(root, "", false)
}

func verify(m *tree.Map, path string, branch bool) error {
	violation := func(format string, args ...any) error {
		return &schema.CRDInvariantError{Path: path, Reason: fmt.Sprintf(format, args...)}
	}

	_, hasType := m.Get(KeyType)
	preserve := isTrue(m, KeyPreserveUnknown)
	intOrString := isTrue(m, KeyIntOrString)
	props, hasProps := tree.Child(m, KeyProperties)
	_, hasRequired := m.Get(KeyRequired)
	additional, hasAdditional := m.Get(KeyAdditionalProperties)

	if !branch && !hasType && !preserve && !intOrString {
		return violation("schema node without type")
	}
	if preserve && (hasProps || hasRequired) {
		return violation("%s cannot be combined with %s or %s", KeyPreserveUnknown, KeyProperties, KeyRequired)
	}
	if hasProps && hasAdditional {
		return violation("%s cannot be combined with %s", KeyProperties, KeyAdditionalProperties)
	}
	if b, ok := additional.(bool); ok && !b {
		return violation("%s: false is not allowed, omit it instead", KeyAdditionalProperties)
	}

	for _, name := range tree.Keys(props) {
		child, ok := tree.Child(props, name)
		if !ok {
			return violation("property %s is not a schema", name)
		}
		if err := verify(child, schema.Child(path, name), branch); err != nil {
			return err
		}
	}
	for _, name := range tree.Strings(m, KeyRequired) {
		if !hasProps {
			return violation("required property %s is not declared", name)
		}
		if _, ok := props.Get(name); !ok {
			return violation("required property %s is not declared", name)
		}
	}
	if items, ok := tree.Child(m, KeyItems); ok {
		if err := verify(items, schema.Items(path), branch); err != nil {
			return err
		}
	}
	if values, ok := additional.(*tree.Map); ok {
		if err := verify(values, schema.Values(path), branch); err != nil {
			return err
		}
	}
	if branches, ok := m.Get(KeyAnyOf); ok {
		list, ok := branches.([]any)
		if !ok {
			return violation("%s is not a list", KeyAnyOf)
		}
		for i, b := range list {
			child, ok := b.(*tree.Map)
			if !ok {
				return violation("%s[%d] is not a schema", KeyAnyOf, i)
			}
			if err := verify(child, fmt.Sprintf("%s.%s[%d]", path, KeyAnyOf, i), true); err != nil {
				return err
			}
		}
	}
	return nil
}

func isTrue(m *tree.Map, key string) bool {
	v, ok := m.Get(key)
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}
