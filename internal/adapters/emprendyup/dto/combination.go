package dto

import (
	"github.com/shopspring/decimal"

	"emprendyup-catalog/internal/domain/model"
)

type StockPrice struct {
	ID        string          `json:"id"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	Available *bool           `json:"available,omitempty"`
}

type VariantCombination struct {
	ID          string           `json:"id"`
	Variants    []ProductVariant `json:"variants"`
	StockPrices []StockPrice     `json:"stockPrices"`
}

type VariantCombinationsData struct {
	VariantCombinationsByProduct []VariantCombination `json:"variantCombinationsByProduct"`
}

type CreateVariantCombinationData struct {
	CreateVariantCombination struct {
		CombinationID string `json:"combinationId"`
		StockPriceID  string `json:"stockPriceId"`
	} `json:"createVariantCombination"`
}

type UpdateStockData struct {
	UpdateStockForVariantCombination *StockPrice `json:"updateStockForVariantCombination"`
}

func (s StockPrice) Record() model.StockRecord {
	available := true
	if s.Available != nil {
		available = *s.Available
	}
	return model.StockRecord{
		ID:        s.ID,
		Price:     s.Price,
		Stock:     s.Stock,
		Available: available,
	}
}

func (c VariantCombination) Persisted() model.PersistedCombination {
	out := model.PersistedCombination{
		ID:          c.ID,
		Variants:    CanonicalVariants(c.Variants),
		StockPrices: make([]model.StockRecord, 0, len(c.StockPrices)),
	}
	for _, s := range c.StockPrices {
		out.StockPrices = append(out.StockPrices, s.Record())
	}
	return out
}
