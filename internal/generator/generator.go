// Package generator runs the schema pipeline for one CRD: resolve, emit, override, verify and
// assemble every version.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
	apiv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"

	"github.com/bakito/crd-schema-gen/internal/crd"
	"github.com/bakito/crd-schema-gen/internal/emitter"
	"github.com/bakito/crd-schema-gen/internal/model"
	"github.com/bakito/crd-schema-gen/internal/override"
	"github.com/bakito/crd-schema-gen/internal/resolver"
)

// Request describes one CRD.
type Request struct {
	Metadata crd.Metadata
	Registry *model.Registry
	Versions []Version
	// Naming derives JSON names of fields without an explicit JSON name.
	Naming resolver.Naming
	// OmitDefaults drops every default from the emitted schemas.
	OmitDefaults bool
	// Logger receives warnings. slog.Default() is used when nil.
	Logger *slog.Logger
}

// Version is one version of a Request, generated from the model named Model.
type Version struct {
	Name               string
	Model              string
	Served             bool
	Storage            bool
	Deprecated         bool
	DeprecationWarning string
	PrinterColumns     []apiv1.CustomResourceColumnDefinition
	Patches            []override.Patch
}

// Result is the outcome of a successful Request.
type Result struct {
	Document *crd.Document
	Warnings []crd.Warning
}

// Generate runs the pipeline for req.
func Generate(req Request) (*Result, error) {
	kind := req.Metadata.Names.Kind
	versions := make([]crd.Version, 0, len(req.Versions))
	for _, v := range req.Versions {
		obj, err := resolver.Resolve(req.Registry, v.Model, resolver.WithNaming(req.Naming))
		if err != nil {
			return nil, fmt.Errorf("resolving %s %s: %w", kind, v.Name, err)
		}

		var opts []emitter.Option
		if req.OmitDefaults {
			opts = append(opts, emitter.WithoutDefaults())
		}
		s, err := emitter.Emit(obj, opts...)
		if err != nil {
			return nil, fmt.Errorf("emitting %s %s: %w", kind, v.Name, err)
		}

		target, err := override.Apply(override.Target{Schema: s, PrinterColumns: v.PrinterColumns}, v.Patches)
		if err != nil {
			return nil, fmt.Errorf("applying overrides to %s %s: %w", kind, v.Name, err)
		}

		versions = append(versions, crd.Version{
			Name:               v.Name,
			Served:             v.Served,
			Storage:            v.Storage,
			Deprecated:         v.Deprecated,
			DeprecationWarning: v.DeprecationWarning,
			Schema:             target.Schema,
			PrinterColumns:     target.PrinterColumns,
		})
	}

	doc, warnings, err := crd.Assemble(req.Metadata, versions)
	if err != nil {
		return nil, fmt.Errorf("assembling %s: %w", kind, err)
	}

	if len(warnings) > 0 {
		l := req.Logger
		if l == nil {
			l = slog.Default()
		}
		apiVersion := doc.Metadata.Group
		if sv, ok := doc.StorageVersion(); ok {
			apiVersion += "/" + sv.Name
		}
		l = l.With("apiVersion", apiVersion, "kind", doc.Metadata.Names.Kind)
		for _, w := range warnings {
			l.Warn(w.Message, "path", w.Path)
		}
	}
	return &Result{Document: doc, Warnings: warnings}, nil
}

// GenerateAll runs reqs with at most parallelism concurrent runs; parallelism < 1 means no
// limit. Results are returned by index. A failed request leaves a nil result and its error
// is joined into the returned error; the other requests still run.
func GenerateAll(ctx context.Context, reqs []Request, parallelism int) ([]*Result, error) {
	results := make([]*Result, len(reqs))
	errs := make([]error, len(reqs))

	var g errgroup.Group
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}
	for i, req := range reqs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			res, err := Generate(req)
			if err != nil {
				errs[i] = err
				return nil
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	if err := errors.Join(errs...); err != nil {
		return results, err
	}
	return results, duplicates(results)
}

func duplicates(results []*Result) error {
	seen := make(map[string]int, len(results))
	for i, r := range results {
		name := r.Document.Name()
		if j, ok := seen[name]; ok {
			return fmt.Errorf("requests %d and %d both generate %s", j, i, name)
		}
		seen[name] = i
	}
	return nil
}
