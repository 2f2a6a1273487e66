package source

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRef(t *testing.T) {
	testCases := []struct {
		in      string
		want    Ref
		wantURL string
		wantErr bool
	}{
		{
			in:      "github.com/bakito/crd-schema-gen@v1.2.3",
			want:    Ref{Repository: "github.com/bakito/crd-schema-gen", Tag: "v1.2.3"},
			wantURL: "https://github.com/bakito/crd-schema-gen",
		},
		{
			in:      "github.com/bakito/crd-schema-gen",
			want:    Ref{Repository: "github.com/bakito/crd-schema-gen"},
			wantURL: "https://github.com/bakito/crd-schema-gen",
		},
		{
			in:      "file:///srv/git/models@main-1",
			want:    Ref{Repository: "file:///srv/git/models", Tag: "main-1"},
			wantURL: "file:///srv/git/models",
		},
		{in: "", wantErr: true},
		{in: "@v1", wantErr: true},
		{in: "github.com/bakito/crd-schema-gen@", wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseRef(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.wantURL, got.URL())
			assert.Equal(t, tc.in, got.String())
		})
	}
}

func TestCheckoutFails(t *testing.T) {
	missing := "file://" + filepath.Join(t.TempDir(), "missing")

	err := Checkout(context.Background(), Ref{Repository: missing}, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to clone repository")

	paths, cleanup, err := Fetch(context.Background(), Ref{Repository: missing}, []string{"project.yaml"})
	require.Error(t, err)
	assert.Nil(t, paths)
	assert.Nil(t, cleanup)
}
