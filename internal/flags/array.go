package flags

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

var _ pflag.Value = &ArrayFlags{}

// ArrayFlags collects the values of a repeatable flag. Comma separated values are split.
type ArrayFlags []string

// String is an implementation of the flag.Value interface.
func (i *ArrayFlags) String() string {
	return fmt.Sprintf("%v", *i)
}

// Set is an implementation of the flag.Value interface.
func (i *ArrayFlags) Set(value string) error {
	for v := range strings.SplitSeq(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			*i = append(*i, v)
		}
	}
	return nil
}

// Type is an implementation of the pflag.Value interface.
func (*ArrayFlags) Type() string {
	return "stringArray"
}
