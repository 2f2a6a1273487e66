// Package render serializes assembled CRD documents and writes them to disk.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bakito/crd-schema-gen/internal/crd"
)

// Format is the manifest encoding.
type Format string

const (
	YAML Format = "yaml"
	JSON Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case YAML, JSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q, must be %s or %s", s, YAML, JSON)
	}
}

// FileName returns the manifest file name of doc: <group>_<plural>.<format>.
func FileName(doc *crd.Document, format Format) string {
	return fmt.Sprintf("%s_%s.%s", doc.Metadata.Group, doc.Metadata.Names.Plural, format)
}

// Encode renders the manifest of doc. Key order follows the manifest tree, the output is
// identical for identical documents.
func Encode(doc *crd.Document, format Format) ([]byte, error) {
	m, err := doc.Manifest()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	switch format {
	case JSON:
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(m); err != nil {
			return nil, fmt.Errorf("error encoding %s: %w", doc.Name(), err)
		}
	case YAML:
		buf.WriteString("---\n")
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return nil, fmt.Errorf("error encoding %s: %w", doc.Name(), err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("error encoding %s: %w", doc.Name(), err)
		}
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
	return buf.Bytes(), nil
}

// WriteManifests writes one manifest file per document into targetDir.
func WriteManifests(docs []*crd.Document, targetDir string, format Format) error {
	files, err := outFiles(docs, targetDir, format)
	if err != nil {
		return err
	}
	return writeFiles(files)
}

func outFiles(docs []*crd.Document, targetDir string, format Format) ([]outFile, error) {
	files := make([]outFile, 0, len(docs))
	for _, doc := range docs {
		content, err := Encode(doc, format)
		if err != nil {
			return nil, err
		}

		outputFile := filepath.Join(targetDir, FileName(doc, format))
		versions := make([]string, len(doc.Versions))
		for i, v := range doc.Versions {
			versions[i] = v.Name
		}
		files = append(files, outFile{
			name:       outputFile,
			content:    content,
			successMsg: "Successfully generated CRD",
			successArgs: []any{
				"group", doc.Metadata.Group,
				"kind", doc.Metadata.Names.Kind,
				"versions", strings.Join(versions, ","),
				"file", outputFile,
			},
		})
	}
	return files, nil
}

func writeFiles(files []outFile) error {
	for _, f := range files {
		dir := filepath.Dir(f.name)

		// Create the directory if it doesn't exist
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("error creating directory: %w", err)
		}

		if err := os.WriteFile(f.name, f.content, 0o644); err != nil {
			return fmt.Errorf("error writing output file: %w", err)
		}

		slog.With(f.successArgs...).Info(f.successMsg)
	}
	return nil
}

type outFile struct {
	name        string
	content     []byte
	successMsg  string
	successArgs []any
}
