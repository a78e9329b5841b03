package usecases

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"emprendyup-catalog/internal/app/variants"
	"emprendyup-catalog/internal/domain/model"
	"emprendyup-catalog/internal/logging"
	"emprendyup-catalog/internal/textutil"
)

// LoadPersistedCombinations reads the combinations already stored for a
// product so an edit session can reconcile against them.
type LoadPersistedCombinations struct {
	combinations CombinationService
	logger       logging.LoggerService
}

func NewLoadPersistedCombinations(combinations CombinationService, logger logging.LoggerService) *LoadPersistedCombinations {
	return &LoadPersistedCombinations{
		combinations: combinations,
		logger:       logger,
	}
}

func (u *LoadPersistedCombinations) Run(ctx context.Context, productID string) ([]model.VariantCombination, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, ErrProductIDRequired
	}

	persisted, err := u.combinations.VariantCombinationsByProduct(ctx, productID)
	if err != nil {
		if u.logger != nil {
			u.logger.LogError("Error fetch persisted combinations", err)
		}
		return nil, err
	}

	out := make([]model.VariantCombination, 0, len(persisted))
	skipped := 0
	for _, p := range persisted {
		c, ok := hydrateCombination(p)
		if !ok {
			skipped++
			if u.logger != nil {
				u.logger.LogWarning(fmt.Sprintf("Persisted combination without stock record skipped product=%s combination=%s", productID, p.ID))
			}
			continue
		}
		out = append(out, c)
	}

	if u.logger != nil {
		u.logger.Log(fmt.Sprintf("Persisted combinations loaded product=%s count=%d skipped=%d", productID, len(out), skipped))
	}
	return out, nil
}

func hydrateCombination(p model.PersistedCombination) (model.VariantCombination, bool) {
	if len(p.StockPrices) == 0 || len(p.Variants) == 0 {
		return model.VariantCombination{}, false
	}
	entries := make([]model.SelectedEntry, 0, len(p.Variants))
	for _, v := range p.Variants {
		entries = append(entries, model.SelectedEntry{
			AxisType: v.Type,
			Name:     v.Name,
			Value:    textutil.FirstNonEmpty(stringValue(v.AuxData, valueKey), v.Name),
			AuxData:  withoutKey(v.AuxData, valueKey),
		})
	}
	// Backends do not guarantee variant order; use generation order.
	sort.SliceStable(entries, func(i, j int) bool {
		return axisRank(entries[i].AxisType) < axisRank(entries[j].AxisType)
	})

	stock := p.StockPrices[0]
	return model.VariantCombination{
		ID:                     stock.ID,
		DisplayName:            variants.DisplayName(entries),
		SelectedEntries:        entries,
		Stock:                  stock.Stock,
		Price:                  stock.Price,
		PriceSet:               true,
		PersistedStockRecordID: stock.ID,
	}, true
}

func axisRank(axisType string) int {
	switch {
	case textutil.SameKey(axisType, model.AxisTypeColor):
		return 0
	case textutil.SameKey(axisType, model.AxisTypeSize):
		return 1
	}
	return 2
}

func stringValue(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func withoutKey(m map[string]any, key string) map[string]any {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if k != key {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
