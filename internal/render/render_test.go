package render

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bakito/crd-schema-gen/internal/crd"
	"github.com/bakito/crd-schema-gen/internal/tree"
)

func document(t *testing.T, extra ...string) *crd.Document {
	t.Helper()
	props := tree.Of("replicas", tree.Of("type", "integer", "minimum", int64(0)))
	for _, name := range extra {
		props.Set(name, tree.Of("type", "string"))
	}
	s := tree.Of(
		"type", "object",
		"properties", tree.Of(
			"spec", tree.Of("type", "object", "properties", props),
			"status", tree.Of("type", "object"),
		),
	)
	doc, _, err := crd.Assemble(
		crd.Metadata{Group: "example.com", Names: crd.Names{Kind: "Widget"}, Subresources: crd.Subresources{Status: true}},
		[]crd.Version{{Name: "v1", Served: true, Storage: true, Schema: s}},
	)
	require.NoError(t, err)
	return doc
}

func TestEncodeYAML(t *testing.T) {
	doc := document(t)

	b, err := Encode(doc, YAML)
	require.NoError(t, err)

	out := string(b)
	assert.True(t, strings.HasPrefix(out, "---\napiVersion: apiextensions.k8s.io/v1\nkind: CustomResourceDefinition\nmetadata:\n  name: widgets.example.com\n"), out)
	assert.Contains(t, out, "\n  scope: Namespaced\n")
	assert.Contains(t, out, "openAPIV3Schema:")
	assert.Contains(t, out, "minimum: 0")

	again, err := Encode(doc, YAML)
	require.NoError(t, err)
	assert.Equal(t, out, string(again))
}

func TestEncodeJSON(t *testing.T) {
	b, err := Encode(document(t), JSON)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "CustomResourceDefinition", m["kind"])
	assert.True(t, strings.HasPrefix(string(b), "{\n  \"apiVersion\": \"apiextensions.k8s.io/v1\",\n"))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("YAML")
	require.NoError(t, err)
	assert.Equal(t, YAML, f)
	f, err = ParseFormat("json")
	require.NoError(t, err)
	assert.Equal(t, JSON, f)
	_, err = ParseFormat("toml")
	assert.Error(t, err)
}

func TestWriteAndReadManifests(t *testing.T) {
	testCases := []struct {
		name   string
		format Format
	}{
		{name: "yaml", format: YAML},
		{name: "json", format: JSON},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "crds")
			doc := document(t)

			require.NoError(t, WriteManifests([]*crd.Document{doc}, dir, tc.format))

			file := filepath.Join(dir, "example.com_widgets."+string(tc.format))
			assert.FileExists(t, file)

			c, err := ReadManifest(file)
			require.NoError(t, err)
			assert.Equal(t, "widgets.example.com", c.Name)
			require.Len(t, c.Spec.Versions, 1)
			assert.True(t, c.Spec.Versions[0].Storage)
			assert.NotNil(t, c.Spec.Versions[0].Subresources.Status)
			assert.Contains(t, c.Spec.Versions[0].Schema.OpenAPIV3Schema.Properties, "kind")
		})
	}
}

func TestReadManifestRejectsOtherKinds(t *testing.T) {
	file := filepath.Join(t.TempDir(), "cm.yaml")
	require.NoError(t, os.WriteFile(file, []byte("apiVersion: v1\nkind: ConfigMap\n"), 0o644))

	_, err := ReadManifest(file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ConfigMap")
}

func TestCheckManifests(t *testing.T) {
	dir := t.TempDir()
	doc := document(t)
	require.NoError(t, WriteManifests([]*crd.Document{doc}, dir, YAML))
	file := filepath.Join(dir, FileName(doc, YAML))

	drifts, err := CheckManifests([]*crd.Document{document(t)}, dir, YAML)
	require.NoError(t, err)
	assert.Empty(t, drifts)

	drifts, err = CheckManifests([]*crd.Document{document(t, "paused")}, dir, YAML)
	require.NoError(t, err)
	require.Len(t, drifts, 1)
	assert.Equal(t, Drift{File: file, Reason: "schema of version v1 changed"}, drifts[0])

	require.NoError(t, os.WriteFile(file, []byte("not: [valid"), 0o644))
	drifts, err = CheckManifests([]*crd.Document{doc}, dir, YAML)
	require.NoError(t, err)
	require.Len(t, drifts, 1)
	assert.True(t, strings.HasPrefix(drifts[0].Reason, "not a CustomResourceDefinition"))

	drifts, err = CheckManifests([]*crd.Document{doc}, t.TempDir(), YAML)
	require.NoError(t, err)
	require.Len(t, drifts, 1)
	assert.Equal(t, "missing", drifts[0].Reason)
}
