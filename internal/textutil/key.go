package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Key returns the case-insensitive identity of a label: trimmed, NFC normalised
// and case folded, so "Añil", "AÑIL " and "añil" share one key.
func Key(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	// cases.Caser is stateful, one per call.
	return cases.Fold().String(norm.NFC.String(value))
}

// PairKey identifies a (type, name) pair case-insensitively.
func PairKey(kind, name string) string {
	return Key(kind) + "\x00" + Key(name)
}

// SameKey reports whether two labels share the same identity.
func SameKey(a, b string) bool {
	return Key(a) == Key(b)
}

// FirstNonEmpty returns the first value that is not blank, trimmed.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
