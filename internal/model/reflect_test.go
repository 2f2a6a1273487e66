package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
)

type Widget struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   WidgetSpec    `json:"spec"`
	Status *WidgetStatus `json:"status,omitempty"`
}

type WidgetSpec struct {
	Common `json:",inline"`

	Replicas *int32             `json:"replicas,omitempty" crd:"minimum=0;default=1"`
	Mode     string             `json:"mode,omitempty"     crd:"enum=fast|slow;default=fast"`
	Port     intstr.IntOrString `json:"port"`
	Tags     []string           `json:"tags,omitempty"     crd:"uniqueItems;maxItems=8"`
	Data     []byte             `json:"data,omitempty"`
	Labels   map[string]string  `json:"labels,omitempty"`
	Pattern  string             `json:"pattern"            crd:"pattern=^[a-z]+$;description=Matched names"`
	Parent   *WidgetSpec        `json:"parent,omitempty"`
	Nested   struct {
		Level int `json:"level"`
	} `json:"nested"`

	Ignored string `json:"-"`
	hidden  string //nolint:unused
}

type Common struct {
	Owner string `json:"owner" crd:"required;format=email"`
}

type WidgetStatus struct {
	Ready     bool        `json:"ready"`
	UpdatedAt metav1.Time `json:"updatedAt,omitempty" crd:"nullable"`
}

func TestReflect(t *testing.T) {
	reg, root, err := Reflect(&Widget{})
	require.NoError(t, err)

	assert.Equal(t, "Widget", root)
	assert.Equal(t, []string{"Widget", "WidgetSpec", "WidgetSpecNested", "WidgetStatus"}, reg.Names())

	widget, _ := reg.Get("Widget")
	assert.Equal(t, []string{"spec", "status"}, fieldNames(widget))
	status := field(t, widget, "status")
	assert.True(t, status.Optional)
	assert.Equal(t, Named("WidgetStatus"), status.Type)

	spec, _ := reg.Get("WidgetSpec")
	assert.Equal(t,
		[]string{"owner", "replicas", "mode", "port", "tags", "data", "labels", "pattern", "parent", "nested"},
		fieldNames(spec),
	)

	owner := field(t, spec, "owner")
	assert.False(t, owner.Optional)
	assert.Equal(t, "email", owner.Format)

	replicas := field(t, spec, "replicas")
	assert.True(t, replicas.Optional)
	assert.Equal(t, Named("int32"), replicas.Type)
	assert.True(t, replicas.HasDefault)
	assert.InDelta(t, 1, replicas.Default, 0)
	assert.Equal(t, []Constraint{{Kind: "minimum", Value: int64(0)}}, replicas.Constraints)

	mode := field(t, spec, "mode")
	assert.Equal(t, EnumOf("fast", "slow"), mode.Type)
	assert.Equal(t, "fast", mode.Default)

	assert.Equal(t, Named("int-or-string"), field(t, spec, "port").Type)
	assert.Equal(t, Named("byte"), field(t, spec, "data").Type)
	assert.Equal(t, MapOf(Named("string"), Named("string")), field(t, spec, "labels").Type)
	assert.Equal(t, Named("WidgetSpec"), field(t, spec, "parent").Type)
	assert.Equal(t, Named("WidgetSpecNested"), field(t, spec, "nested").Type)

	tags := field(t, spec, "tags")
	assert.Equal(t, ArrayOf(Named("string")), tags.Type)
	assert.Equal(t, []Constraint{{Kind: "uniqueItems", Value: true}, {Kind: "maxItems", Value: int64(8)}}, tags.Constraints)

	pattern := field(t, spec, "pattern")
	assert.Equal(t, "Matched names", pattern.Description)
	assert.Equal(t, []Constraint{{Kind: "pattern", Value: "^[a-z]+$"}}, pattern.Constraints)

	ws, _ := reg.Get("WidgetStatus")
	updated := field(t, ws, "updatedAt")
	assert.Equal(t, Named("date-time"), updated.Type)
	assert.True(t, updated.Nullable)
	assert.True(t, updated.Optional)
}

func TestReflectErrors(t *testing.T) {
	type both struct {
		Name string `json:"name" crd:"optional;required"`
	}
	type badType struct {
		Name string `json:"name" crd:"type=map[string"`
	}

	testCases := []struct {
		name string
		v    any
	}{
		{name: "not a struct", v: 42},
		{name: "nil", v: nil},
		{name: "optional and required", v: both{}},
		{name: "invalid type override", v: badType{}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Reflect(tc.v)
			assert.Error(t, err)
		})
	}
}

func TestParseCRDTag(t *testing.T) {
	tag, err := parseCRDTag("optional; minLength=1 ;default={\"a\":1};type=[]string")
	require.NoError(t, err)

	assert.True(t, tag.optional)
	assert.True(t, tag.hasDefault)
	assert.Equal(t, `{"a":1}`, tag.defaultValue)
	assert.Equal(t, "[]string", tag.typ)
	assert.Equal(t, []Constraint{{Kind: "minLength", Value: int64(1)}}, tag.constraints)
}

func TestLiteral(t *testing.T) {
	assert.Equal(t, "1", literal("1", true))
	assert.InDelta(t, 1.5, literal("1.5", false), 0)
	assert.Equal(t, any(true), literal("true", false))
	assert.Equal(t, "fast", literal("fast", false))
	assert.Equal(t, []any{"a"}, literal(`["a"]`, false))
}

func fieldNames(m *Model) []string {
	names := make([]string, len(m.Fields))
	for i, f := range m.Fields {
		names[i] = f.Name
	}
	return names
}

func field(t *testing.T, m *Model, name string) Field {
	t.Helper()
	for _, f := range m.Fields {
		if f.Name == name {
			return f
		}
	}
	require.Failf(t, "missing field", "%s has no field %s", m.Name, name)
	return Field{}
}
