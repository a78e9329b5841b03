package usecases

import (
	"context"
	"fmt"
	"sync"
	"time"

	"emprendyup-catalog/internal/domain/model"
	"emprendyup-catalog/internal/textutil"
)

type stockUpdateCall struct {
	StockID string
	Update  model.StockUpdate
}

// fakeBackend is an in-memory stand-in for the GraphQL API. Created variants
// stay invisible for hideFetches reads to mimic eventual consistency.
type fakeBackend struct {
	mu sync.Mutex

	variants    []model.CanonicalVariant
	pending     []model.CanonicalVariant
	hideFetches int
	nextID      int

	fetches          int
	createVariants   [][]model.VariantInput
	createCombos     []model.CombinationInput
	stockUpdates     []stockUpdateCall
	updateErrs       map[string]error
	createComboErr   error
	createVariantErr error
	persisted        []model.PersistedCombination
}

func (b *fakeBackend) id(prefix string) string {
	b.nextID++
	return fmt.Sprintf("%s%d", prefix, b.nextID)
}

func (b *fakeBackend) CreateVariants(_ context.Context, inputs []model.VariantInput) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.createVariants = append(b.createVariants, inputs)
	if b.createVariantErr != nil {
		return nil, b.createVariantErr
	}
	ids := make([]string, 0, len(inputs))
	for _, in := range inputs {
		v := model.CanonicalVariant{ID: b.id("v"), Type: in.Type, Name: in.Name, AuxData: in.AuxData}
		b.pending = append(b.pending, v)
		ids = append(ids, v.ID)
	}
	return ids, nil
}

func (b *fakeBackend) ProductVariantsByProduct(_ context.Context, _ string) ([]model.CanonicalVariant, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fetches++
	if b.hideFetches > 0 && len(b.pending) > 0 {
		b.hideFetches--
	} else {
		b.variants = append(b.variants, b.pending...)
		b.pending = nil
	}
	return append([]model.CanonicalVariant(nil), b.variants...), nil
}

func (b *fakeBackend) CreateVariantCombination(_ context.Context, input model.CombinationInput) (model.CombinationResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.createCombos = append(b.createCombos, input)
	if b.createComboErr != nil {
		return model.CombinationResult{}, b.createComboErr
	}
	return model.CombinationResult{CombinationID: b.id("vc"), StockPriceID: b.id("sp")}, nil
}

func (b *fakeBackend) UpdateStockForVariantCombination(_ context.Context, stockID string, update model.StockUpdate) (model.StockRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stockUpdates = append(b.stockUpdates, stockUpdateCall{StockID: stockID, Update: update})
	if err := b.updateErrs[stockID]; err != nil {
		return model.StockRecord{}, err
	}
	return model.StockRecord{ID: stockID, Price: update.Price, Stock: update.Stock, Available: update.Available}, nil
}

func (b *fakeBackend) VariantCombinationsByProduct(_ context.Context, _ string) ([]model.PersistedCombination, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.persisted, nil
}

func (b *fakeBackend) variantID(kind, name string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	all := append(append([]model.CanonicalVariant(nil), b.variants...), b.pending...)
	for _, v := range all {
		if textutil.PairKey(v.Type, v.Name) == textutil.PairKey(kind, name) {
			return v.ID
		}
	}
	return ""
}

type recordingSleep struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *recordingSleep) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}
