package emitter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bakito/crd-schema-gen/internal/schema"
	"github.com/bakito/crd-schema-gen/internal/tree"
)

func TestVerify(t *testing.T) {
	testCases := []struct {
		name     string
		root     *tree.Map
		wantPath string
	}{
		{
			name: "valid",
			root: tree.Of(KeyType, "object", KeyProperties, tree.Of(
				"spec", tree.Of(KeyType, "object", KeyPreserveUnknown, true),
				"port", tree.Of(KeyIntOrString, true, KeyAnyOf, []any{tree.Of(KeyType, "integer"), tree.Of(KeyType, "string")}),
			), KeyRequired, []string{"spec"}),
		},
		{
			name: "preserve unknown with properties",
			root: tree.Of(KeyType, "object", KeyProperties, tree.Of(
				"spec", tree.Of(KeyType, "object", KeyPreserveUnknown, true, KeyProperties, tree.Of("a", tree.Of(KeyType, "string"))),
			)),
			wantPath: "spec",
		},
		{
			name: "missing type",
			root: tree.Of(KeyType, "object", KeyProperties, tree.Of(
				"items", tree.Of(KeyType, "array", KeyItems, tree.Of(KeyDescription, "untyped")),
			)),
			wantPath: "items[*]",
		},
		{
			name: "properties and additionalProperties",
			root: tree.Of(KeyType, "object",
				KeyProperties, tree.Of("a", tree.Of(KeyType, "string")),
				KeyAdditionalProperties, true),
			wantPath: "<root>",
		},
		{
			name:     "additionalProperties false",
			root:     tree.Of(KeyType, "object", KeyAdditionalProperties, false),
			wantPath: "<root>",
		},
		{
			name:     "undeclared required",
			root:     tree.Of(KeyType, "object", KeyProperties, tree.Of("a", tree.Of(KeyType, "string")), KeyRequired, []string{"b"}),
			wantPath: "<root>",
		},
		{
			name: "map values",
			root: tree.Of(KeyType, "object", KeyProperties, tree.Of(
				"labels", tree.Of(KeyType, "object", KeyAdditionalProperties, tree.Of(KeyFormat, "byte")),
			)),
			wantPath: "labels{*}",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Verify(tc.root)
			if tc.wantPath == "" {
				require.NoError(t, err)
				return
			}
			var inv *schema.CRDInvariantError
			require.True(t, errors.As(err, &inv), "got %v", err)
			assert.Contains(t, inv.Error(), tc.wantPath+":")
		})
	}
}
