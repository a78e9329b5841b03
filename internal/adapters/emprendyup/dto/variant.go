package dto

import (
	"bytes"
	"encoding/json"
	"strings"

	"emprendyup-catalog/internal/domain/model"
	"emprendyup-catalog/internal/textutil"
)

// ProductVariant accepts both field conventions the backend uses
// (name/type and nameVariant/typeVariant).
type ProductVariant struct {
	ID          string          `json:"id"`
	Name        string          `json:"name,omitempty"`
	NameVariant string          `json:"nameVariant,omitempty"`
	Type        string          `json:"type,omitempty"`
	TypeVariant string          `json:"typeVariant,omitempty"`
	JSONData    json.RawMessage `json:"jsonData,omitempty"`
}

type ProductVariantsData struct {
	ProductVariantsByProduct []ProductVariant `json:"productVariantsByProduct"`
}

type CreateVariantsData struct {
	CreateVariants []struct {
		ID string `json:"id"`
	} `json:"createVariants"`
}

type CreateVariantInput struct {
	Name      string         `json:"name"`
	Type      string         `json:"type"`
	ProductID string         `json:"productId"`
	JSONData  map[string]any `json:"jsonData,omitempty"`
}

// Canonical maps the wire record to the single internal shape.
func (v ProductVariant) Canonical() model.CanonicalVariant {
	return model.CanonicalVariant{
		ID:      strings.TrimSpace(v.ID),
		Type:    textutil.FirstNonEmpty(v.Type, v.TypeVariant),
		Name:    textutil.FirstNonEmpty(v.Name, v.NameVariant),
		AuxData: decodeJSONData(v.JSONData),
	}
}

func CanonicalVariants(in []ProductVariant) []model.CanonicalVariant {
	out := make([]model.CanonicalVariant, 0, len(in))
	for _, v := range in {
		out = append(out, v.Canonical())
	}
	return out
}

// decodeJSONData reads jsonData sent either as an object or as a JSON encoded string.
func decodeJSONData(raw json.RawMessage) map[string]any {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil || strings.TrimSpace(encoded) == "" {
			return nil
		}
		raw = []byte(encoded)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
