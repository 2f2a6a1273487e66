package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_ToCamelCase(t *testing.T) {
	assert.Equal(t, "TestCase", ToCamelCase("test_case"))
	assert.Equal(t, "MaxReplicas", ToCamelCase("max-replicas"))
	assert.Equal(t, "ApiURL", ToCamelCase("api.URL"))
	assert.Empty(t, ToCamelCase("__"))
}

func Test_ToLowerCamelCase(t *testing.T) {
	assert.Equal(t, "maxReplicas", ToLowerCamelCase("max_replicas"))
	assert.Equal(t, "name", ToLowerCamelCase("name"))
	assert.Equal(t, "alreadyCamel", ToLowerCamelCase("alreadyCamel"))
	assert.Equal(t, "aB1C", ToLowerCamelCase("a_b1_c"))
	assert.Empty(t, ToLowerCamelCase(""))
}

func TestNamingApply(t *testing.T) {
	assert.Equal(t, "max_replicas", Verbatim.apply("max_replicas"))
	assert.Equal(t, "maxReplicas", CamelCase.apply("max_replicas"))
}
