package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	testCases := []struct {
		expr    string
		want    Type
		wantErr bool
	}{
		{expr: "string", want: Named("string")},
		{expr: " int-or-string ", want: Named("int-or-string")},
		{expr: "unsafe.Pointer", want: Named("unsafe.Pointer")},
		{expr: "[]Container", want: ArrayOf(Named("Container"))},
		{expr: "[][]int32", want: ArrayOf(ArrayOf(Named("int32")))},
		{expr: "map[string]int64", want: MapOf(Named("string"), Named("int64"))},
		{expr: "map[string][]string", want: MapOf(Named("string"), ArrayOf(Named("string")))},
		{expr: "map[string]map[string]Port", want: MapOf(Named("string"), MapOf(Named("string"), Named("Port")))},
		{expr: "[]map[string]any", want: ArrayOf(MapOf(Named("string"), Named("any")))},
		{expr: "", wantErr: true},
		{expr: "[]", wantErr: true},
		{expr: "map[string", wantErr: true},
		{expr: "map[]string", wantErr: true},
		{expr: "map[string]", wantErr: true},
		{expr: "string|int", wantErr: true},
		{expr: "*Port", wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.expr, func(t *testing.T) {
			got, err := ParseType(tc.expr)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTypeString(t *testing.T) {
	for _, expr := range []string{"string", "[]Container", "map[string][]int32"} {
		assert.Equal(t, expr, MustParseType(expr).String())
	}
	assert.Equal(t, "enum[a b]", EnumOf("a", "b").String())
	assert.Equal(t, "union[text number]", UnionOf("flatten",
		Variant{Tag: "text", Type: Named("string")},
		Variant{Tag: "number", Type: Named("int64")},
	).String())
}

func TestMustParseTypePanics(t *testing.T) {
	assert.Panics(t, func() { MustParseType("map[string") })
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(&Model{Name: "B"}, &Model{Name: "A"})
	r.Add(&Model{Name: "B", Description: "replaced"})

	assert.Equal(t, []string{"B", "A"}, r.Names())
	assert.Equal(t, 2, r.Len())
	b, ok := r.Get("B")
	require.True(t, ok)
	assert.Equal(t, "replaced", b.Description)
	_, ok = r.Get("C")
	assert.False(t, ok)

	var empty *Registry
	_, ok = empty.Get("A")
	assert.False(t, ok)
	assert.Zero(t, empty.Len())
	assert.Nil(t, empty.Names())
}

func TestFieldWithDefault(t *testing.T) {
	f := Field{Name: "replicas", Type: Named("int32")}
	d := f.WithDefault(1)

	assert.False(t, f.HasDefault)
	assert.True(t, d.HasDefault)
	assert.Equal(t, 1, d.Default)
}
