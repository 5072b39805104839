// Package string collects small helpers for cleaning request input.
package string

import (
	"strings"
	"unicode"
)

// TrimStrings trims surrounding whitespace from each string in place.
// Handlers run it on request fields before validation so padded input
// from gate terminals does not fail length checks.
func TrimStrings(ss ...*string) {
	for _, s := range ss {
		*s = strings.TrimSpace(*s)
	}
}

// TrimSlice trims every element of the slice in place.
func TrimSlice(ss []string) {
	for i := range ss {
		ss[i] = strings.TrimSpace(ss[i])
	}
}

// ToSnakeCase converts a Go field name to its snake_case wire form,
// keeping acronym runs intact (QRToken becomes qr_token).
func ToSnakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 &&
			(unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
