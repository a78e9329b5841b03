package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeJSONData(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want map[string]any
	}{
		{name: "object", raw: `{"hex":"#FFF"}`, want: map[string]any{"hex": "#FFF"}},
		{name: "encoded string", raw: `"{\"hex\":\"#FFF\"}"`, want: map[string]any{"hex": "#FFF"}},
		{name: "null", raw: `null`, want: nil},
		{name: "empty string", raw: `""`, want: nil},
		{name: "not an object", raw: `[1,2]`, want: nil},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, decodeJSONData(json.RawMessage(tc.raw)), tc.name)
	}
}

func TestCanonicalPrefersPlainFields(t *testing.T) {
	t.Parallel()

	v := ProductVariant{ID: " v1 ", Name: "Red", NameVariant: "Rojo", TypeVariant: "color"}
	got := v.Canonical()
	require.Equal(t, "v1", got.ID)
	require.Equal(t, "Red", got.Name)
	require.Equal(t, "color", got.Type)
}
