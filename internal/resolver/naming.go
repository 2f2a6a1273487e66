package resolver

import (
	"strings"
	"unicode"
)

// Naming derives JSON property names from declared field names.
type Naming int

const (
	// Verbatim uses the declared name as is.
	Verbatim Naming = iota
	// CamelCase turns snake_case names into camelCase: max_replicas -> maxReplicas.
	CamelCase
)

func (n Naming) apply(name string) string {
	if n == CamelCase {
		return ToLowerCamelCase(name)
	}
	return name
}

// ToCamelCase convert string to CamelCase.
func ToCamelCase(s string) string {
	words := splitWords(s)

	for i, word := range words {
		if word != "" {
			words[i] = strings.ToUpper(string(word[0])) + word[1:]
		}
	}

	return strings.Join(words, "")
}

// ToLowerCamelCase keeps the first word and capitalizes the following ones.
func ToLowerCamelCase(s string) string {
	words := splitWords(s)
	if len(words) == 0 {
		return ""
	}
	return words[0] + ToCamelCase(strings.Join(words[1:], "_"))
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
