package crd

import (
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/gobuffalo/flect"
	apiv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	"k8s.io/apimachinery/pkg/util/validation"
	"k8s.io/client-go/util/jsonpath"

	"github.com/bakito/crd-schema-gen/internal/emitter"
	"github.com/bakito/crd-schema-gen/internal/schema"
	"github.com/bakito/crd-schema-gen/internal/tree"
)

var (
	columnTypes   = []string{"integer", "number", "string", "boolean", "date"}
	columnFormats = []string{"int32", "int64", "float", "double", "byte", "date", "date-time", "password"}
)

// Assemble validates meta and versions and builds the CRD document. Versions keep the
// supplied order; their schemas are copied, the inputs are not modified.
func Assemble(meta Metadata, versions []Version) (*Document, []Warning, error) {
	meta = withDefaults(meta)

	if err := checkMetadata(meta); err != nil {
		return nil, nil, err
	}
	if len(versions) == 0 {
		return nil, nil, invariant("spec.versions", "at least one version is required")
	}

	doc := &Document{Metadata: meta}
	seen := make(map[string]bool, len(versions))
	var storage []string
	for i, v := range versions {
		path := fmt.Sprintf("spec.versions[%d]", i)
		if errs := validation.IsDNS1035Label(v.Name); len(errs) > 0 {
			return nil, nil, invariant(path+".name", fmt.Sprintf("invalid version name %q: %s", v.Name, strings.Join(errs, ", ")))
		}
		if seen[v.Name] {
			return nil, nil, invariant(path+".name", fmt.Sprintf("duplicate version %s", v.Name))
		}
		seen[v.Name] = true
		if v.Storage {
			storage = append(storage, v.Name)
		}
		if v.DeprecationWarning != "" && !v.Deprecated {
			return nil, nil, invariant(path+".deprecationWarning", "set on a version that is not deprecated")
		}

		v.Schema = tree.Copy(v.Schema)
		if err := checkSchema(meta, &v, path); err != nil {
			return nil, nil, err
		}
		v.PrinterColumns = mergeColumns(meta.PrinterColumns, v.PrinterColumns)
		if err := checkColumns(v.PrinterColumns, path+".additionalPrinterColumns"); err != nil {
			return nil, nil, err
		}
		doc.Versions = append(doc.Versions, v)
	}

	switch len(storage) {
	case 1:
	case 0:
		return nil, nil, invariant("spec.versions", "no storage version, exactly one version must be stored")
	default:
		return nil, nil, invariant("spec.versions", fmt.Sprintf("more than one storage version: %s", strings.Join(storage, ", ")))
	}

	return doc, warnings(doc), nil
}

func withDefaults(meta Metadata) Metadata {
	n := &meta.Names
	if n.Plural == "" && n.Kind != "" {
		n.Plural = strings.ToLower(flect.Pluralize(n.Kind))
	}
	if n.Singular == "" {
		n.Singular = strings.ToLower(n.Kind)
	}
	if n.ListKind == "" && n.Kind != "" {
		n.ListKind = n.Kind + "List"
	}
	if meta.Subgroup != "" {
		meta.Group = meta.Subgroup + "." + meta.Group
		meta.Subgroup = ""
	}
	if meta.Scope == "" {
		meta.Scope = apiv1.NamespaceScoped
	}
	if meta.Conversion.Strategy == "" {
		meta.Conversion.Strategy = apiv1.NoneConverter
	}
	return meta
}

func checkMetadata(meta Metadata) error {
	if errs := validation.IsDNS1123Subdomain(meta.Group); len(errs) > 0 {
		return invariant("spec.group", fmt.Sprintf("invalid group %q: %s", meta.Group, strings.Join(errs, ", ")))
	}
	if !strings.Contains(meta.Group, ".") {
		return invariant("spec.group", fmt.Sprintf("group %q must contain at least one dot", meta.Group))
	}

	n := meta.Names
	for _, k := range []struct{ path, value string }{
		{"spec.names.kind", n.Kind},
		{"spec.names.listKind", n.ListKind},
	} {
		if err := checkKind(k.path, k.value); err != nil {
			return err
		}
	}
	if n.ListKind == n.Kind {
		return invariant("spec.names.listKind", "must differ from the kind")
	}

	if err := checkLabel("spec.names.plural", n.Plural); err != nil {
		return err
	}
	if err := checkLabel("spec.names.singular", n.Singular); err != nil {
		return err
	}
	for _, list := range []struct {
		path   string
		values []string
	}{
		{"spec.names.shortNames", n.ShortNames},
		{"spec.names.categories", n.Categories},
	} {
		for i, v := range list.values {
			if err := checkLabel(fmt.Sprintf("%s[%d]", list.path, i), v); err != nil {
				return err
			}
			if slices.Index(list.values, v) != i {
				return invariant(fmt.Sprintf("%s[%d]", list.path, i), fmt.Sprintf("duplicate %s", v))
			}
		}
	}

	switch meta.Scope {
	case apiv1.NamespaceScoped, apiv1.ClusterScoped:
	default:
		return invariant("spec.scope", fmt.Sprintf("scope must be %s or %s, got %q", apiv1.NamespaceScoped, apiv1.ClusterScoped, meta.Scope))
	}

	if s := meta.Subresources.Scale; s != nil {
		if err := checkScale(s); err != nil {
			return err
		}
	}
	return checkConversion(meta.Conversion)
}

func checkKind(path, kind string) error {
	if kind == "" {
		return invariant(path, "must be set")
	}
	if !unicode.IsUpper(rune(kind[0])) {
		return invariant(path, fmt.Sprintf("%q must start with an upper case letter", kind))
	}
	if errs := validation.IsDNS1035Label(strings.ToLower(kind)); len(errs) > 0 {
		return invariant(path, fmt.Sprintf("invalid kind %q: %s", kind, strings.Join(errs, ", ")))
	}
	return nil
}

func checkLabel(path, value string) error {
	if value != strings.ToLower(value) {
		return invariant(path, fmt.Sprintf("%q must be lower case", value))
	}
	if errs := validation.IsDNS1035Label(value); len(errs) > 0 {
		return invariant(path, fmt.Sprintf("invalid name %q: %s", value, strings.Join(errs, ", ")))
	}
	return nil
}

func checkScale(s *Scale) error {
	paths := []struct {
		path, value string
		prefixes    []string
		required    bool
	}{
		{"specReplicasPath", s.SpecReplicasPath, []string{".spec."}, true},
		{"statusReplicasPath", s.StatusReplicasPath, []string{".status."}, true},
		{"labelSelectorPath", s.LabelSelectorPath, []string{".spec.", ".status."}, false},
	}
	for _, p := range paths {
		path := "spec.versions[*].subresources.scale." + p.path
		if p.value == "" {
			if p.required {
				return invariant(path, "must be set")
			}
			continue
		}
		if !slices.ContainsFunc(p.prefixes, func(prefix string) bool { return strings.HasPrefix(p.value, prefix) }) {
			return invariant(path, fmt.Sprintf("%q must start with one of %s", p.value, strings.Join(p.prefixes, ", ")))
		}
		if err := checkJSONPath(path, p.value); err != nil {
			return err
		}
	}
	return nil
}

func checkConversion(c Conversion) error {
	switch c.Strategy {
	case apiv1.NoneConverter:
		if c.Webhook != nil {
			return invariant("spec.conversion.webhook", "must not be set with the None strategy")
		}
	case apiv1.WebhookConverter:
		if c.Webhook == nil {
			return invariant("spec.conversion.webhook", "a client config is required with the Webhook strategy")
		}
		hasURL := c.Webhook.URL != nil && *c.Webhook.URL != ""
		hasService := c.Webhook.Service != nil
		if hasURL == hasService {
			return invariant("spec.conversion.webhook.clientConfig", "exactly one of url or service must be set")
		}
		if hasService && (c.Webhook.Service.Name == "" || c.Webhook.Service.Namespace == "") {
			return invariant("spec.conversion.webhook.clientConfig.service", "name and namespace must be set")
		}
		if len(c.ReviewVersions) == 0 {
			return invariant("spec.conversion.webhook.conversionReviewVersions", "at least one review version is required")
		}
	default:
		return invariant("spec.conversion.strategy", fmt.Sprintf("unknown strategy %q", c.Strategy))
	}
	return nil
}

// checkSchema adds the root scaffolding to the version schema and checks it against the
// enabled subresources.
func checkSchema(meta Metadata, v *Version, path string) error {
	path += ".schema.openAPIV3Schema"
	if v.Schema == nil {
		return invariant(path, "missing schema")
	}
	if typ, _ := v.Schema.Get(emitter.KeyType); typ != "object" {
		return invariant(path, "the root schema must be an object")
	}

	if !isTrue(v.Schema, emitter.KeyPreserveUnknown) {
		props, ok := tree.Child(v.Schema, emitter.KeyProperties)
		if !ok {
			props = tree.New()
			v.Schema.Set(emitter.KeyProperties, props)
		}
		tree.Prepend(props, "metadata", tree.Of(emitter.KeyType, "object"))
		tree.Prepend(props, "kind", tree.Of(
			emitter.KeyDescription, "Kind is a string value representing the REST resource this object represents.",
			emitter.KeyType, "string",
		))
		tree.Prepend(props, "apiVersion", tree.Of(
			emitter.KeyDescription, "APIVersion defines the versioned schema of this representation of an object.",
			emitter.KeyType, "string",
		))
	}

	if meta.Subresources.Status {
		props, _ := tree.Child(v.Schema, emitter.KeyProperties)
		if _, ok := tree.Child(props, "status"); !ok {
			return invariant(path+".properties.status", "the status subresource requires a status property")
		}
	}
	return nil
}

func checkColumns(columns []apiv1.CustomResourceColumnDefinition, path string) error {
	seen := make(map[string]bool, len(columns))
	for i, c := range columns {
		cp := fmt.Sprintf("%s[%d]", path, i)
		if c.Name == "" {
			return invariant(cp+".name", "must be set")
		}
		if seen[c.Name] {
			return invariant(cp+".name", fmt.Sprintf("duplicate column %s", c.Name))
		}
		seen[c.Name] = true
		if !slices.Contains(columnTypes, c.Type) {
			return invariant(cp+".type", fmt.Sprintf("%q must be one of %s", c.Type, strings.Join(columnTypes, ", ")))
		}
		if c.Format != "" && !slices.Contains(columnFormats, c.Format) {
			return invariant(cp+".format", fmt.Sprintf("%q must be one of %s", c.Format, strings.Join(columnFormats, ", ")))
		}
		if c.Priority < 0 {
			return invariant(cp+".priority", "must not be negative")
		}
		if !strings.HasPrefix(c.JSONPath, ".") {
			return invariant(cp+".jsonPath", fmt.Sprintf("%q must start with a dot", c.JSONPath))
		}
		if err := checkJSONPath(cp+".jsonPath", c.JSONPath); err != nil {
			return err
		}
	}
	return nil
}

func checkJSONPath(path, value string) error {
	if err := jsonpath.New(path).Parse("{" + value + "}"); err != nil {
		return invariant(path, fmt.Sprintf("invalid JSON path %q: %v", value, err))
	}
	return nil
}

// mergeColumns returns the shared columns followed by the version columns. A version column
// replaces a shared column with the same name.
func mergeColumns(shared, version []apiv1.CustomResourceColumnDefinition) []apiv1.CustomResourceColumnDefinition {
	if len(shared) == 0 {
		return slices.Clone(version)
	}
	out := slices.Clone(shared)
	for _, c := range version {
		i := slices.IndexFunc(out, func(o apiv1.CustomResourceColumnDefinition) bool { return o.Name == c.Name })
		if i >= 0 {
			out[i] = c
			continue
		}
		out = append(out, c)
	}
	return out
}

func warnings(doc *Document) []Warning {
	var w []Warning
	if len(doc.Versions) < 2 || doc.Metadata.Conversion.Strategy != apiv1.NoneConverter {
		return w
	}
	first := tree.Hash(doc.Versions[0].Schema)
	for _, v := range doc.Versions[1:] {
		if tree.Hash(v.Schema) != first {
			w = append(w, Warning{
				Path:    "spec.conversion",
				Message: "versions have different schemas but conversion strategy is None, the API server only rewrites apiVersion",
			})
			break
		}
	}
	return w
}

func invariant(path, reason string) error {
	return &schema.CRDInvariantError{Path: path, Reason: reason}
}

func isTrue(m *tree.Map, key string) bool {
	v, _ := m.Get(key)
	b, ok := v.(bool)
	return ok && b
}
