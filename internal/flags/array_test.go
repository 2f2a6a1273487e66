package flags

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArrayFlags(t *testing.T) {
	testCases := []struct {
		name string
		args []string
		want ArrayFlags
	}{
		{name: "none", args: nil, want: nil},
		{name: "repeated", args: []string{"--config", "a.yaml", "--config", "b.yaml"}, want: ArrayFlags{"a.yaml", "b.yaml"}},
		{name: "comma separated", args: []string{"--config", "a.yaml, b.yaml,", "-c", "c.yaml"}, want: ArrayFlags{"a.yaml", "b.yaml", "c.yaml"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var configs ArrayFlags
			fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
			fs.VarP(&configs, "config", "c", "project file")

			require.NoError(t, fs.Parse(tc.args))
			assert.Equal(t, tc.want, configs)
			assert.Equal(t, "stringArray", fs.Lookup("config").Value.Type())
		})
	}
}

func TestArrayFlagsString(t *testing.T) {
	f := ArrayFlags{"a", "b"}
	assert.Equal(t, "[a b]", f.String())
}
