// Package crd assembles versioned schemas and metadata into a CustomResourceDefinition.
package crd

import (
	"fmt"

	apiv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"

	"github.com/bakito/crd-schema-gen/internal/tree"
)

// Names are the resource names of a CRD. Empty plural, singular and list kind are derived
// from the kind.
type Names struct {
	Kind       string
	ListKind   string
	Plural     string
	Singular   string
	ShortNames []string
	Categories []string
}

// Metadata describes a CRD apart from its versions.
type Metadata struct {
	// Group is the API group, Subgroup is prefixed to it when set: apps + example.com
	// serves apps.example.com.
	Group    string
	Subgroup string
	Names    Names
	// Scope defaults to Namespaced.
	Scope        apiv1.ResourceScope
	Subresources Subresources
	// PrinterColumns are shared by all versions. Version columns with the same name win.
	PrinterColumns []apiv1.CustomResourceColumnDefinition
	Conversion     Conversion
	Labels         map[string]string
	Annotations    map[string]string
}

// Subresources enabled on every version.
type Subresources struct {
	Status bool
	Scale  *Scale
}

// Scale configures the scale subresource.
type Scale struct {
	SpecReplicasPath   string
	StatusReplicasPath string
	LabelSelectorPath  string
}

// Conversion configures how the API server converts between versions.
type Conversion struct {
	// Strategy defaults to None.
	Strategy       apiv1.ConversionStrategyType
	Webhook        *apiv1.WebhookClientConfig
	ReviewVersions []string
}

// Version is one served version of the CRD with its schema.
type Version struct {
	Name               string
	Served             bool
	Storage            bool
	Deprecated         bool
	DeprecationWarning string
	Schema             *tree.Map
	PrinterColumns     []apiv1.CustomResourceColumnDefinition
}

// Warning is a non-fatal finding of the assembler.
type Warning struct {
	Path    string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Path, w.Message)
}

// Document is an assembled CRD. Names, group, scope and conversion strategy are resolved,
// version schemas carry the apiVersion, kind and metadata scaffolding.
type Document struct {
	Metadata Metadata
	Versions []Version
}

// Name returns the CRD object name, <plural>.<group>.
func (d *Document) Name() string {
	return d.Metadata.Names.Plural + "." + d.Metadata.Group
}

// StorageVersion returns the version persisted by the API server.
func (d *Document) StorageVersion() (*Version, bool) {
	for i := range d.Versions {
		if d.Versions[i].Storage {
			return &d.Versions[i], true
		}
	}
	return nil, false
}

// Version returns the version named name.
func (d *Document) Version(name string) (*Version, bool) {
	for i := range d.Versions {
		if d.Versions[i].Name == name {
			return &d.Versions[i], true
		}
	}
	return nil, false
}
