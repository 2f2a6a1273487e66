package crd

import (
	"encoding/base64"
	"fmt"
	"maps"
	"slices"
	"sync"

	apiv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/util/json"
	"sigs.k8s.io/controller-runtime/pkg/client/apiutil"

	"github.com/bakito/crd-schema-gen/internal/tree"
)

// crdGVK resolves the group, version and kind of the manifest header from the
// apiextensions scheme.
var crdGVK = sync.OnceValues(func() (schema.GroupVersionKind, error) {
	scheme := runtime.NewScheme()
	if err := apiv1.AddToScheme(scheme); err != nil {
		return schema.GroupVersionKind{}, err
	}
	return apiutil.GVKForObject(&apiv1.CustomResourceDefinition{}, scheme)
})

// Manifest renders the document as an ordered apiextensions.k8s.io/v1 manifest.
func (d *Document) Manifest() (*tree.Map, error) {
	gvk, err := crdGVK()
	if err != nil {
		return nil, fmt.Errorf("resolving CustomResourceDefinition kind: %w", err)
	}
	m := d.Metadata

	metadata := tree.Of("name", d.Name())
	if len(m.Labels) > 0 {
		metadata.Set("labels", stringMap(m.Labels))
	}
	if len(m.Annotations) > 0 {
		metadata.Set("annotations", stringMap(m.Annotations))
	}

	names := tree.Of(
		"kind", m.Names.Kind,
		"listKind", m.Names.ListKind,
		"plural", m.Names.Plural,
		"singular", m.Names.Singular,
	)
	if len(m.Names.ShortNames) > 0 {
		names.Set("shortNames", slices.Clone(m.Names.ShortNames))
	}
	if len(m.Names.Categories) > 0 {
		names.Set("categories", slices.Clone(m.Names.Categories))
	}

	versions := make([]any, 0, len(d.Versions))
	for _, v := range d.Versions {
		versions = append(versions, d.version(v))
	}

	spec := tree.Of(
		"group", m.Group,
		"names", names,
		"scope", string(m.Scope),
		"versions", versions,
		"conversion", conversion(m.Conversion),
	)

	return tree.Of(
		"apiVersion", gvk.GroupVersion().String(),
		"kind", gvk.Kind,
		"metadata", metadata,
		"spec", spec,
	), nil
}

func (d *Document) version(v Version) *tree.Map {
	out := tree.Of(
		"name", v.Name,
		"served", v.Served,
		"storage", v.Storage,
	)
	if v.Deprecated {
		out.Set("deprecated", true)
		if v.DeprecationWarning != "" {
			out.Set("deprecationWarning", v.DeprecationWarning)
		}
	}
	out.Set("schema", tree.Of("openAPIV3Schema", tree.Copy(v.Schema)))

	if sub := subresources(d.Metadata.Subresources); sub != nil {
		out.Set("subresources", sub)
	}
	if len(v.PrinterColumns) > 0 {
		columns := make([]any, 0, len(v.PrinterColumns))
		for _, c := range v.PrinterColumns {
			columns = append(columns, column(c))
		}
		out.Set("additionalPrinterColumns", columns)
	}
	return out
}

func subresources(s Subresources) *tree.Map {
	if !s.Status && s.Scale == nil {
		return nil
	}
	out := tree.New()
	if s.Scale != nil {
		scale := tree.Of(
			"specReplicasPath", s.Scale.SpecReplicasPath,
			"statusReplicasPath", s.Scale.StatusReplicasPath,
		)
		if s.Scale.LabelSelectorPath != "" {
			scale.Set("labelSelectorPath", s.Scale.LabelSelectorPath)
		}
		out.Set("scale", scale)
	}
	if s.Status {
		out.Set("status", tree.New())
	}
	return out
}

func column(c apiv1.CustomResourceColumnDefinition) *tree.Map {
	out := tree.Of("name", c.Name, "type", c.Type)
	if c.Format != "" {
		out.Set("format", c.Format)
	}
	if c.Description != "" {
		out.Set("description", c.Description)
	}
	if c.Priority > 0 {
		out.Set("priority", int64(c.Priority))
	}
	out.Set("jsonPath", c.JSONPath)
	return out
}

func conversion(c Conversion) *tree.Map {
	out := tree.Of("strategy", string(c.Strategy))
	if c.Strategy != apiv1.WebhookConverter || c.Webhook == nil {
		return out
	}
	client := tree.New()
	if c.Webhook.URL != nil {
		client.Set("url", *c.Webhook.URL)
	}
	if s := c.Webhook.Service; s != nil {
		service := tree.Of("namespace", s.Namespace, "name", s.Name)
		if s.Path != nil {
			service.Set("path", *s.Path)
		}
		if s.Port != nil {
			service.Set("port", int64(*s.Port))
		}
		client.Set("service", service)
	}
	if len(c.Webhook.CABundle) > 0 {
		client.Set("caBundle", base64.StdEncoding.EncodeToString(c.Webhook.CABundle))
	}
	out.Set("webhook", tree.Of(
		"clientConfig", client,
		"conversionReviewVersions", slices.Clone(c.ReviewVersions),
	))
	return out
}

func stringMap(m map[string]string) *tree.Map {
	out := tree.New()
	for _, k := range slices.Sorted(maps.Keys(m)) {
		out.Set(k, m[k])
	}
	return out
}

// Typed decodes the manifest into the apiextensions v1 type.
func (d *Document) Typed() (*apiv1.CustomResourceDefinition, error) {
	m, err := d.Manifest()
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	out := &apiv1.CustomResourceDefinition{}
	if err := json.Unmarshal(b, out); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	return out, nil
}
