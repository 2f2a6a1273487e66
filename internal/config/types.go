// Package config reads project files: model declarations and the resources generated from
// them.
package config

import (
	"bytes"
	"encoding/json"

	apiv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
)

// Project is the content of one or more project files.
type Project struct {
	Models    []Model    `json:"models,omitempty"`
	Resources []Resource `json:"resources,omitempty"`
}

// Model declares a record type.
type Model struct {
	Name                  string  `json:"name"`
	Description           string  `json:"description,omitempty"`
	PreserveUnknownFields bool    `json:"preserveUnknownFields,omitempty"`
	AdditionalProperties  string  `json:"additionalProperties,omitempty"`
	Fields                []Field `json:"fields,omitempty"`
}

// Field declares a model member. Exactly one of Type, Enum and Union describes its type.
type Field struct {
	Name        string         `json:"name"`
	JSONName    string         `json:"jsonName,omitempty"`
	Type        string         `json:"type,omitempty"`
	Enum        []any          `json:"enum,omitempty"`
	Union       *Union         `json:"union,omitempty"`
	Optional    bool           `json:"optional,omitempty"`
	Nullable    bool           `json:"nullable,omitempty"`
	Default     any            `json:"default,omitempty"`
	Format      string         `json:"format,omitempty"`
	Description string         `json:"description,omitempty"`
	Constraints map[string]any `json:"constraints,omitempty"`

	// HasDefault is set when the default key is present, also for an explicit null.
	HasDefault bool `json:"-"`
}

// UnmarshalJSON decodes the field strictly and records whether a default was given.
func (f *Field) UnmarshalJSON(b []byte) error {
	type plain Field
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode((*plain)(f)); err != nil {
		return err
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(b, &keys); err != nil {
		return err
	}
	_, f.HasDefault = keys["default"]
	return nil
}

// Union is a tagged union field type.
type Union struct {
	// Policy is flatten, structural or reject (the default).
	Policy   string    `json:"policy,omitempty"`
	Variants []Variant `json:"variants"`
}

// Variant is one alternative of a Union.
type Variant struct {
	Tag  string `json:"tag"`
	Type string `json:"type"`
}

// Resource declares one CRD.
type Resource struct {
	Group      string              `json:"group"`
	Subgroup   string              `json:"subgroup,omitempty"`
	Kind       string              `json:"kind"`
	ListKind   string              `json:"listKind,omitempty"`
	Plural     string              `json:"plural,omitempty"`
	Singular   string              `json:"singular,omitempty"`
	ShortNames []string            `json:"shortNames,omitempty"`
	Categories []string            `json:"categories,omitempty"`
	Scope      apiv1.ResourceScope `json:"scope,omitempty"`

	Subresources   Subresources                           `json:"subresources,omitempty"`
	PrinterColumns []apiv1.CustomResourceColumnDefinition `json:"printerColumns,omitempty"`
	Conversion     *Conversion                            `json:"conversion,omitempty"`
	Labels         map[string]string                      `json:"labels,omitempty"`
	Annotations    map[string]string                      `json:"annotations,omitempty"`

	// Naming is verbatim (the default) or camelCase.
	Naming       string    `json:"naming,omitempty"`
	OmitDefaults bool      `json:"omitDefaults,omitempty"`
	Versions     []Version `json:"versions"`
}

// Subresources of a Resource.
type Subresources struct {
	Status bool   `json:"status,omitempty"`
	Scale  *Scale `json:"scale,omitempty"`
}

// Scale configures the scale subresource.
type Scale struct {
	SpecReplicasPath   string `json:"specReplicasPath"`
	StatusReplicasPath string `json:"statusReplicasPath"`
	LabelSelectorPath  string `json:"labelSelectorPath,omitempty"`
}

// Conversion configures version conversion.
type Conversion struct {
	Strategy       apiv1.ConversionStrategyType `json:"strategy"`
	ClientConfig   *apiv1.WebhookClientConfig   `json:"clientConfig,omitempty"`
	ReviewVersions []string                     `json:"conversionReviewVersions,omitempty"`
}

// Version declares one version of a Resource.
type Version struct {
	Name               string                                 `json:"name"`
	Model              string                                 `json:"model"`
	// Served defaults to true. Storage defaults to true when the resource has one version.
	Served             *bool                                  `json:"served,omitempty"`
	Storage            *bool                                  `json:"storage,omitempty"`
	Deprecated         bool                                   `json:"deprecated,omitempty"`
	DeprecationWarning string                                 `json:"deprecationWarning,omitempty"`
	PrinterColumns     []apiv1.CustomResourceColumnDefinition `json:"printerColumns,omitempty"`
	Overrides          []Override                             `json:"overrides,omitempty"`
}

// Override is a patch on the generated version schema. Set, PreserveUnknown and
// PrinterColumn apply in that order.
type Override struct {
	Path            string                                `json:"path,omitempty"`
	Set             map[string]any                        `json:"set,omitempty"`
	PreserveUnknown bool                                  `json:"preserveUnknown,omitempty"`
	PrinterColumn   *apiv1.CustomResourceColumnDefinition `json:"printerColumn,omitempty"`
}
