package wizard

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"emprendyup-catalog/internal/app/variants"
	"emprendyup-catalog/internal/domain/model"
)

var (
	// ErrRegenerateNeedsConfirmation is returned when regenerating would replace
	// existing combinations and the caller has not confirmed.
	ErrRegenerateNeedsConfirmation = errors.New("wizard: regenerating combinations needs confirmation")
	ErrCombinationNotFound         = errors.New("wizard: combination not found")
	ErrNegativeStock               = errors.New("wizard: stock must not be negative")
	ErrNegativePrice               = errors.New("wizard: price must not be negative")
)

const hexKey = "hex"

type FormDeps struct {
	IDGenerator func() string
	Clock       func() time.Time
}

// GenerateResult carries the new combinations and the existing ones that a
// regeneration discards.
type GenerateResult struct {
	Combinations []model.VariantCombination
	Dropped      []model.VariantCombination
}

// Form is the single owner of a product wizard's variant state. It is not safe
// for concurrent use.
type Form struct {
	collector    *variants.Collector
	basePrice    decimal.Decimal
	combinations []model.VariantCombination
	prior        []model.VariantCombination
	now          func() time.Time
}

func NewForm(deps FormDeps) *Form {
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	return &Form{
		collector: variants.NewCollector(variants.CollectorDeps{IDGenerator: deps.IDGenerator}),
		now:       now,
	}
}

func (f *Form) BasePrice() decimal.Decimal {
	return f.basePrice
}

func (f *Form) SetBasePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return &variants.ValidationError{Field: "basePrice", Value: price.String(), Err: ErrNegativePrice}
	}
	f.basePrice = price
	return nil
}

func (f *Form) AddColor(name, hex string) (model.AxisEntry, error) {
	candidate := variants.Candidate{Name: name, Value: hex}
	if hex != "" {
		candidate.AuxData = map[string]any{hexKey: hex}
	}
	return f.collector.AddEntry(variants.AxisColors, candidate)
}

func (f *Form) AddSize(name, value string) (model.AxisEntry, error) {
	return f.collector.AddEntry(variants.AxisSizes, variants.Candidate{Name: name, Value: value})
}

func (f *Form) AddCustom(kind, name, value string) (model.AxisEntry, error) {
	return f.collector.AddEntry(variants.AxisCustom, variants.Candidate{Type: kind, Name: name, Value: value})
}

func (f *Form) RemoveEntry(axis variants.AxisKind, id string) error {
	return f.collector.RemoveEntry(axis, id)
}

func (f *Form) UpdateEntry(axis variants.AxisKind, id, field, value string) error {
	return f.collector.UpdateEntry(axis, id, field, value)
}

func (f *Form) Entries(axis variants.AxisKind) []model.AxisEntry {
	return f.collector.Entries(axis)
}

func (f *Form) Axes() []model.VariantAxis {
	return f.collector.Axes()
}

// HasVariants reports whether the product is in variant mode.
func (f *Form) HasVariants() bool {
	return !f.collector.Empty()
}

// Generate recomputes the combinations from the current axes. When combinations
// already exist and confirm is false nothing changes and the result lists what
// a confirmed run would drop.
func (f *Form) Generate(confirm bool) (GenerateResult, error) {
	axes := f.collector.Axes()
	if err := variants.CheckCount(axes); err != nil {
		return GenerateResult{}, err
	}
	if err := variants.CheckUnique(axes); err != nil {
		return GenerateResult{}, err
	}

	generated := variants.Generate(axes, f.basePrice)
	reference := f.reference()
	dropped := variants.Dropped(generated, reference)

	if len(reference) > 0 && !confirm {
		return GenerateResult{Dropped: dropped}, ErrRegenerateNeedsConfirmation
	}

	f.combinations = variants.Reconcile(generated, reference)
	return GenerateResult{
		Combinations: f.Combinations(),
		Dropped:      dropped,
	}, nil
}

// reference is the set a regeneration reconciles against: current combinations
// first, then prior ones not already represented.
func (f *Form) reference() []model.VariantCombination {
	out := make([]model.VariantCombination, 0, len(f.combinations)+len(f.prior))
	seen := map[string]bool{}
	for _, c := range f.combinations {
		out = append(out, c)
		seen[c.ID] = true
		if c.IsPersisted() {
			seen[c.PersistedStockRecordID] = true
		}
	}
	for _, p := range f.prior {
		if seen[p.ID] || (p.IsPersisted() && seen[p.PersistedStockRecordID]) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (f *Form) Combinations() []model.VariantCombination {
	return copyCombinations(f.combinations)
}

func (f *Form) SetCombinationStock(id string, stock int) error {
	if stock < 0 {
		return &variants.ValidationError{Field: "stock", Value: id, Err: ErrNegativeStock}
	}
	i := f.indexOf(id)
	if i < 0 {
		return ErrCombinationNotFound
	}
	f.combinations[i].Stock = stock
	return nil
}

func (f *Form) SetCombinationPrice(id string, price decimal.Decimal) error {
	if price.IsNegative() {
		return &variants.ValidationError{Field: "price", Value: id, Err: ErrNegativePrice}
	}
	i := f.indexOf(id)
	if i < 0 {
		return ErrCombinationNotFound
	}
	f.combinations[i].Price = price
	f.combinations[i].PriceSet = true
	return nil
}

// MarkPersisted records the stock record id the backend assigned to a
// combination, turning later saves of it into updates.
func (f *Form) MarkPersisted(id, stockRecordID string) error {
	i := f.indexOf(id)
	if i < 0 {
		return ErrCombinationNotFound
	}
	f.combinations[i].PersistedStockRecordID = stockRecordID
	return nil
}

// LoadPersisted seeds the combinations read back from the backend in edit mode.
// They become the current combinations when none were generated yet.
func (f *Form) LoadPersisted(combinations []model.VariantCombination) {
	f.prior = copyCombinations(combinations)
	if len(f.combinations) == 0 {
		f.combinations = copyCombinations(combinations)
	}
}

func (f *Form) Prior() []model.VariantCombination {
	return copyCombinations(f.prior)
}

func (f *Form) Snapshot() model.FormSnapshot {
	return model.FormSnapshot{
		BasePrice:    f.basePrice,
		Axes:         f.collector.State(),
		Combinations: f.Combinations(),
		Prior:        f.Prior(),
		SavedAt:      f.now().UTC(),
	}
}

// Restore replaces the form state with a snapshot. On error the form is unchanged.
func (f *Form) Restore(snapshot model.FormSnapshot) error {
	if snapshot.BasePrice.IsNegative() {
		return &variants.ValidationError{Field: "basePrice", Value: snapshot.BasePrice.String(), Err: ErrNegativePrice}
	}
	if err := validateCombinations(snapshot.Combinations, snapshot.Prior); err != nil {
		return err
	}
	if err := f.collector.Restore(snapshot.Axes); err != nil {
		return err
	}
	f.basePrice = snapshot.BasePrice
	f.combinations = copyCombinations(snapshot.Combinations)
	f.prior = copyCombinations(snapshot.Prior)
	return nil
}

// ResumeCombinations takes only the combinations of a snapshot and keeps the
// form's own axes and base price. The next Generate reconciles them, so entries
// removed since the snapshot are reported as dropped instead of coming back.
func (f *Form) ResumeCombinations(snapshot model.FormSnapshot) error {
	if err := validateCombinations(snapshot.Combinations, snapshot.Prior); err != nil {
		return err
	}
	f.combinations = copyCombinations(snapshot.Combinations)
	f.prior = copyCombinations(snapshot.Prior)
	return nil
}

func validateCombinations(sets ...[]model.VariantCombination) error {
	for _, set := range sets {
		for _, c := range set {
			if c.Stock < 0 {
				return &variants.ValidationError{Field: "stock", Value: c.ID, Err: ErrNegativeStock}
			}
			if c.Price.IsNegative() {
				return &variants.ValidationError{Field: "price", Value: c.ID, Err: ErrNegativePrice}
			}
		}
	}
	return nil
}

func (f *Form) indexOf(id string) int {
	for i, c := range f.combinations {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func copyCombinations(in []model.VariantCombination) []model.VariantCombination {
	out := make([]model.VariantCombination, 0, len(in))
	for _, c := range in {
		entries := make([]model.SelectedEntry, len(c.SelectedEntries))
		copy(entries, c.SelectedEntries)
		c.SelectedEntries = entries
		out = append(out, c)
	}
	return out
}
