// Package tree holds the ordered generic document tree that emitted schemas and CRD manifests
// are built from. Insertion order is preserved on serialization, which keeps generated
// manifests stable across runs.
package tree

import (
	"maps"
	"math"
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Map is an insertion ordered document node.
type Map = orderedmap.OrderedMap[string, any]

// New returns an empty node.
func New() *Map {
	return orderedmap.New[string, any]()
}

// Of builds a node from alternating key/value arguments.
func Of(kv ...any) *Map {
	m := New()
	for i := 0; i+1 < len(kv); i += 2 {
		m.Set(kv[i].(string), kv[i+1])
	}
	return m
}

// Copy returns a deep copy of m. Nested nodes and slices are copied, scalars are shared.
func Copy(m *Map) *Map {
	if m == nil {
		return nil
	}
	out := New()
	for p := m.Oldest(); p != nil; p = p.Next() {
		out.Set(p.Key, copyValue(p.Value))
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case *Map:
		return Copy(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = copyValue(t[i])
		}
		return out
	case []string:
		return slices.Clone(t)
	case []*Map:
		out := make([]*Map, len(t))
		for i := range t {
			out[i] = Copy(t[i])
		}
		return out
	default:
		return v
	}
}

// Child returns the nested node stored under key.
func Child(m *Map, key string) (*Map, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.Get(key)
	if !ok {
		return nil, false
	}
	c, ok := v.(*Map)
	return c, ok
}

// Keys returns the keys of m in insertion order.
func Keys(m *Map) []string {
	if m == nil {
		return nil
	}
	keys := make([]string, 0, m.Len())
	for p := m.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	return keys
}

// Prepend inserts key at the front of m. An existing key keeps its position.
func Prepend(m *Map, key string, value any) {
	if _, ok := m.Get(key); ok {
		return
	}
	m.Set(key, value)
	_ = m.MoveToFront(key)
}

// Strings returns the string list stored under key, accepting both []string and []any.
func Strings(m *Map, key string) []string {
	v, ok := m.Get(key)
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Value converts a decoded JSON value into tree values: string keyed maps become nodes with
// sorted keys, integral floats become int64.
func Value(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := New()
		for _, k := range slices.Sorted(maps.Keys(t)) {
			out.Set(k, Value(t[k]))
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = Value(t[i])
		}
		return out
	case float64:
		if math.Trunc(t) == t && math.Abs(t) < 1<<53 {
			return int64(t)
		}
		return t
	case int:
		return int64(t)
	case int32:
		return int64(t)
	default:
		return v
	}
}
