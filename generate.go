//go:build generate
// +build generate

// render the testdata projects
//go:generate go run ./cmd/crd-schema-gen generate --config testdata/deployments.yaml --config testdata/multiversion.yaml --target testdata/crds

package gen
