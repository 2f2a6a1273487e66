package override

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bakito/crd-schema-gen/internal/emitter"
	"github.com/bakito/crd-schema-gen/internal/schema"
	"github.com/bakito/crd-schema-gen/internal/tree"
)

// Token is one step of a patch path: a field name, an array index or a map value step.
// Index is -1 for the [*] items step.
type Token struct {
	Name     string
	Index    int
	IsIndex  bool
	IsValues bool
}

func (t Token) String() string {
	switch {
	case t.IsValues:
		return "{*}"
	case t.IsIndex && t.Index < 0:
		return "[*]"
	case t.IsIndex:
		return "[" + strconv.Itoa(t.Index) + "]"
	}
	return t.Name
}

// ParsePath splits a patch path into tokens. Besides names and indexes it accepts the [*]
// and {*} steps used in error paths.
func ParsePath(path string) ([]Token, error) {
	var tokens []Token
	if path == "" {
		return tokens, nil
	}
	for _, part := range strings.Split(path, ".") {
		name, rest := part, ""
		if i := strings.IndexAny(part, "[{"); i >= 0 {
			name, rest = part[:i], part[i:]
		}
		if name == "" && rest == "" {
			return nil, fmt.Errorf("path %q: empty segment", path)
		}
		if name != "" {
			tokens = append(tokens, Token{Name: name})
		}
		for rest != "" {
			if after, ok := strings.CutPrefix(rest, "{*}"); ok {
				tokens = append(tokens, Token{IsValues: true})
				rest = after
				continue
			}
			if rest[0] != '[' {
				return nil, fmt.Errorf("path %q: unexpected %q in %q", path, rest, part)
			}
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return nil, fmt.Errorf("path %q: unterminated index in %q", path, part)
			}
			raw := rest[1:end]
			rest = rest[end+1:]
			if raw == "*" {
				tokens = append(tokens, Token{Index: -1, IsIndex: true})
				continue
			}
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("path %q: invalid index %q", path, raw)
			}
			tokens = append(tokens, Token{Index: n, IsIndex: true})
		}
	}
	return tokens, nil
}

// Lookup returns the schema node at path. Names step into properties, or into the value
// schema of a map, indexes step into array items and {*} into the value schema of a map.
func Lookup(root *tree.Map, path string) (*tree.Map, error) {
	tokens, err := ParsePath(path)
	if err != nil {
		return nil, &schema.InvalidOverrideError{Path: path, Reason: err.Error()}
	}
	if root == nil {
		return nil, &schema.OverridePathNotFoundError{Path: path, Missing: "<root>"}
	}
	node := root
	for _, tok := range tokens {
		next, ok := step(node, tok)
		if !ok {
			return nil, &schema.OverridePathNotFoundError{Path: path, Missing: tok.String()}
		}
		node = next
	}
	return node, nil
}

func step(node *tree.Map, tok Token) (*tree.Map, bool) {
	if tok.IsValues {
		return tree.Child(node, emitter.KeyAdditionalProperties)
	}
	if tok.IsIndex {
		return tree.Child(node, emitter.KeyItems)
	}
	if props, ok := tree.Child(node, emitter.KeyProperties); ok {
		return tree.Child(props, tok.Name)
	}
	return tree.Child(node, emitter.KeyAdditionalProperties)
}
