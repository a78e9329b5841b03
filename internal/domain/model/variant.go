package model

import "github.com/shopspring/decimal"

const (
	AxisTypeColor = "color"
	AxisTypeSize  = "size"
)

type AxisEntry struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Value   string         `json:"value"`
	AuxData map[string]any `json:"auxData,omitempty"`
}

type CustomEntry struct {
	Type string `json:"type"`
	AxisEntry
}

// AxisState is the editable form of the three axis lists.
type AxisState struct {
	Colors []AxisEntry   `json:"colors"`
	Sizes  []AxisEntry   `json:"sizes"`
	Custom []CustomEntry `json:"custom"`
}

type VariantAxis struct {
	Type    string      `json:"type"`
	Entries []AxisEntry `json:"entries"`
}

type SelectedEntry struct {
	AxisType string         `json:"axisType"`
	Name     string         `json:"name"`
	Value    string         `json:"value"`
	AuxData  map[string]any `json:"auxData,omitempty"`
}

type VariantCombination struct {
	ID                     string          `json:"id"`
	DisplayName            string          `json:"displayName"`
	SelectedEntries        []SelectedEntry `json:"selectedEntries"`
	Stock                  int             `json:"stock"`
	Price                  decimal.Decimal `json:"price"`
	PersistedStockRecordID string          `json:"persistedStockRecordId,omitempty"`
	// PriceSet marks Price as chosen for this combination. An unset zero price
	// falls back to the product's base price when saved.
	PriceSet bool `json:"priceSet,omitempty"`
}

func (c VariantCombination) IsPersisted() bool {
	return c.PersistedStockRecordID != ""
}

// CanonicalVariant is the backend record for one axis entry of one product.
type CanonicalVariant struct {
	ID      string
	Type    string
	Name    string
	AuxData map[string]any
}

type VariantInput struct {
	ProductID string
	Type      string
	Name      string
	AuxData   map[string]any
}

type CombinationInput struct {
	ProductID  string
	VariantIDs []string
	Price      decimal.Decimal
	Stock      int
}

type CombinationResult struct {
	CombinationID string
	StockPriceID  string
}

type StockUpdate struct {
	Price     decimal.Decimal
	Stock     int
	Available bool
}

type StockRecord struct {
	ID        string
	Price     decimal.Decimal
	Stock     int
	Available bool
}

// PersistedCombination is a combination as the backend returns it for a product.
type PersistedCombination struct {
	ID          string
	Variants    []CanonicalVariant
	StockPrices []StockRecord
}
