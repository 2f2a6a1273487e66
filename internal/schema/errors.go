package schema

import (
	"fmt"
	"strings"
)

// UnsupportedTypeError is returned when a declared type has no mapping into the Kubernetes
// schema dialect.
type UnsupportedTypeError struct {
	Path   string
	Type   string
	Reason string
}

func (e *UnsupportedTypeError) Error() string {
	msg := fmt.Sprintf("%s: unsupported type %q", display(e.Path), e.Type)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// RecursiveSchemaError is returned when a model references itself, directly or transitively.
type RecursiveSchemaError struct {
	Path string
	// Cycle lists the model names from the first occurrence back to itself.
	Cycle []string
}

func (e *RecursiveSchemaError) Error() string {
	return fmt.Sprintf("%s: recursive schema %s", display(e.Path), strings.Join(e.Cycle, " -> "))
}

// InvalidConstraintError is returned for malformed or inapplicable constraints and for
// defaults that violate their own field's constraints.
type InvalidConstraintError struct {
	Path       string
	Constraint string
	Reason     string
}

func (e *InvalidConstraintError) Error() string {
	if e.Constraint == "" {
		return fmt.Sprintf("%s: %s", display(e.Path), e.Reason)
	}
	return fmt.Sprintf("%s: invalid %s: %s", display(e.Path), e.Constraint, e.Reason)
}

// UnsupportedUnionError is returned when a union cannot be represented under its policy.
type UnsupportedUnionError struct {
	Path   string
	Tags   []string
	Reason string
}

func (e *UnsupportedUnionError) Error() string {
	return fmt.Sprintf("%s: unsupported union of [%s]: %s", display(e.Path), strings.Join(e.Tags, ", "), e.Reason)
}

// OverridePathNotFoundError is returned when an override patch targets a path that does not
// exist in the generated schema.
type OverridePathNotFoundError struct {
	Path string
	// Missing is the first token that could not be resolved.
	Missing string
}

func (e *OverridePathNotFoundError) Error() string {
	return fmt.Sprintf("%s: override path not found at %q", display(e.Path), e.Missing)
}

// InvalidOverrideError is returned when an override operation is not allowed on its target.
type InvalidOverrideError struct {
	Path   string
	Reason string
}

func (e *InvalidOverrideError) Error() string {
	return fmt.Sprintf("%s: invalid override: %s", display(e.Path), e.Reason)
}

// CRDInvariantError is returned when an assembled document violates a CRD invariant.
type CRDInvariantError struct {
	Path   string
	Reason string
}

func (e *CRDInvariantError) Error() string {
	return fmt.Sprintf("%s: %s", display(e.Path), e.Reason)
}

// InvalidModelError is returned for malformed model declarations.
type InvalidModelError struct {
	Path   string
	Model  string
	Reason string
}

func (e *InvalidModelError) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("%s: model %s: %s", display(e.Path), e.Model, e.Reason)
	}
	return fmt.Sprintf("%s: %s", display(e.Path), e.Reason)
}

func display(path string) string {
	if path == "" {
		return "<root>"
	}
	return path
}
