package model

import (
	"fmt"
	"strings"
	"unicode"
)

// ParseType reads a textual type expression:
//
//	string | int32 | date-time | int-or-string | any | object | ModelName
//	[]T
//	map[K]V
//
// Primitive names are not checked here; the resolver decides what a name maps to.
func ParseType(s string) (Type, error) {
	expr := strings.TrimSpace(s)
	if expr == "" {
		return Type{}, fmt.Errorf("empty type expression")
	}
	switch {
	case strings.HasPrefix(expr, "[]"):
		elem, err := ParseType(expr[2:])
		if err != nil {
			return Type{}, fmt.Errorf("array item of %q: %w", s, err)
		}
		return ArrayOf(elem), nil
	case strings.HasPrefix(expr, "map["):
		end := closingBracket(expr, len("map"))
		if end < 0 {
			return Type{}, fmt.Errorf("unbalanced brackets in %q", s)
		}
		key, err := ParseType(expr[len("map["):end])
		if err != nil {
			return Type{}, fmt.Errorf("map key of %q: %w", s, err)
		}
		elem, err := ParseType(expr[end+1:])
		if err != nil {
			return Type{}, fmt.Errorf("map value of %q: %w", s, err)
		}
		return MapOf(key, elem), nil
	}
	for _, r := range expr {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-' && r != '.' {
			return Type{}, fmt.Errorf("invalid character %q in type %q", r, s)
		}
	}
	return Named(expr), nil
}

// MustParseType is ParseType for static declarations.
func MustParseType(s string) Type {
	t, err := ParseType(s)
	if err != nil {
		panic(err)
	}
	return t
}

func closingBracket(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
