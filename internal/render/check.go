package render

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	apiv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	"k8s.io/apimachinery/pkg/api/equality"
	"k8s.io/apimachinery/pkg/util/yaml"

	"github.com/bakito/crd-schema-gen/internal/crd"
)

// Drift is a manifest file whose content differs from the generated one.
type Drift struct {
	File   string
	Reason string
}

func (d Drift) String() string {
	return fmt.Sprintf("%s: %s", d.File, d.Reason)
}

// CheckManifests compares the generated manifests with the files in targetDir without
// writing anything.
func CheckManifests(docs []*crd.Document, targetDir string, format Format) ([]Drift, error) {
	files, err := outFiles(docs, targetDir, format)
	if err != nil {
		return nil, err
	}

	var drifts []Drift
	for i, f := range files {
		existing, err := os.ReadFile(f.name)
		if errors.Is(err, fs.ErrNotExist) {
			drifts = append(drifts, Drift{File: f.name, Reason: "missing"})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("error reading %s: %w", f.name, err)
		}
		if bytes.Equal(existing, f.content) {
			continue
		}
		drifts = append(drifts, Drift{File: f.name, Reason: reason(docs[i], existing)})
	}
	return drifts, nil
}

// reason names the first semantic difference between doc and the existing manifest.
func reason(doc *crd.Document, existing []byte) string {
	old, err := decode(existing)
	if err != nil {
		return fmt.Sprintf("not a CustomResourceDefinition: %v", err)
	}
	generated, err := doc.Typed()
	if err != nil {
		return "content differs"
	}

	if a, b := storageVersion(old), storageVersion(generated); a != b {
		return fmt.Sprintf("storage version changed from %q to %q", a, b)
	}
	for _, v := range generated.Spec.Versions {
		ov := version(old, v.Name)
		if ov == nil {
			return fmt.Sprintf("version %s added", v.Name)
		}
		if !equality.Semantic.DeepEqual(ov.Schema, v.Schema) {
			return fmt.Sprintf("schema of version %s changed", v.Name)
		}
	}
	if len(old.Spec.Versions) != len(generated.Spec.Versions) {
		return "versions removed"
	}
	if !equality.Semantic.DeepEqual(old.Spec, generated.Spec) {
		return "spec changed"
	}
	return "content differs"
}

// ReadManifest reads a CRD manifest in YAML or JSON.
func ReadManifest(path string) (*apiv1.CustomResourceDefinition, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	return decode(data)
}

func decode(data []byte) (*apiv1.CustomResourceDefinition, error) {
	out := &apiv1.CustomResourceDefinition{}
	if err := yaml.NewYAMLOrJSONDecoder(bytes.NewReader(data), 4096).Decode(out); err != nil {
		return nil, err
	}
	if out.Kind != "CustomResourceDefinition" {
		return nil, fmt.Errorf("unexpected kind %q", out.Kind)
	}
	return out, nil
}

func storageVersion(c *apiv1.CustomResourceDefinition) string {
	for _, v := range c.Spec.Versions {
		if v.Storage {
			return v.Name
		}
	}
	return ""
}

func version(c *apiv1.CustomResourceDefinition, name string) *apiv1.CustomResourceDefinitionVersion {
	for i := range c.Spec.Versions {
		if c.Spec.Versions[i].Name == name {
			return &c.Spec.Versions[i]
		}
	}
	return nil
}
