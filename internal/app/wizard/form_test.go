package wizard

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"emprendyup-catalog/internal/app/variants"
	"emprendyup-catalog/internal/domain/model"
)

var fixedNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func newTestForm() *Form {
	n := 0
	return NewForm(FormDeps{
		IDGenerator: func() string {
			n++
			return fmt.Sprintf("e%d", n)
		},
		Clock: func() time.Time { return fixedNow },
	})
}

func findCombination(t *testing.T, combinations []model.VariantCombination, name string) model.VariantCombination {
	t.Helper()
	for _, c := range combinations {
		if c.DisplayName == name {
			return c
		}
	}
	t.Fatalf("combination %q not found", name)
	return model.VariantCombination{}
}

func TestFormGenerateFirstTimeNeedsNoConfirmation(t *testing.T) {
	t.Parallel()

	f := newTestForm()
	require.NoError(t, f.SetBasePrice(decimal.NewFromInt(1000)))
	red, err := f.AddColor("Red", "#FF0000")
	require.NoError(t, err)
	require.Equal(t, "#FF0000", red.AuxData["hex"])
	_, err = f.AddSize("S", "S")
	require.NoError(t, err)

	res, err := f.Generate(false)
	require.NoError(t, err)
	require.Len(t, res.Combinations, 1)
	require.Empty(t, res.Dropped)

	c := res.Combinations[0]
	require.Equal(t, "Red - S", c.DisplayName)
	require.Equal(t, variants.DefaultStock, c.Stock)
	require.True(t, decimal.NewFromInt(1000).Equal(c.Price))
	require.True(t, f.HasVariants())
}

func TestFormRegenerateRequiresConfirmation(t *testing.T) {
	t.Parallel()

	f := newTestForm()
	_, _ = f.AddColor("Red", "")
	blue, _ := f.AddColor("Blue", "")
	_, _ = f.AddSize("S", "")
	_, err := f.Generate(false)
	require.NoError(t, err)

	redS := findCombination(t, f.Combinations(), "Red - S")
	require.NoError(t, f.SetCombinationStock(redS.ID, 7))

	require.NoError(t, f.RemoveEntry(variants.AxisColors, blue.ID))
	_, _ = f.AddSize("L", "")

	res, err := f.Generate(false)
	require.ErrorIs(t, err, ErrRegenerateNeedsConfirmation)
	require.Len(t, res.Dropped, 1)
	require.Equal(t, "Blue - S", res.Dropped[0].DisplayName)
	require.Len(t, f.Combinations(), 2, "state unchanged without confirmation")

	res, err = f.Generate(true)
	require.NoError(t, err)
	require.Len(t, res.Combinations, 2)
	require.Equal(t, 7, findCombination(t, res.Combinations, "Red - S").Stock)
	require.Equal(t, variants.DefaultStock, findCombination(t, res.Combinations, "Red - L").Stock)
}

func TestFormGenerateCapsCombinations(t *testing.T) {
	t.Parallel()

	f := newTestForm()
	for i := 0; i < 25; i++ {
		_, err := f.AddColor(fmt.Sprintf("C%d", i), "")
		require.NoError(t, err)
		_, err = f.AddSize(fmt.Sprintf("S%d", i), "")
		require.NoError(t, err)
	}
	_, err := f.Generate(true)
	require.ErrorIs(t, err, variants.ErrTooManyCombinations)
	require.Empty(t, f.Combinations())
}

func TestFormRejectsNegativeValues(t *testing.T) {
	t.Parallel()

	f := newTestForm()
	_, _ = f.AddSize("M", "")
	_, err := f.Generate(false)
	require.NoError(t, err)
	id := f.Combinations()[0].ID

	var verr *variants.ValidationError
	err = f.SetCombinationStock(id, -1)
	require.ErrorAs(t, err, &verr)
	require.ErrorIs(t, err, ErrNegativeStock)
	require.ErrorIs(t, f.SetCombinationPrice(id, decimal.NewFromInt(-5)), ErrNegativePrice)
	require.ErrorIs(t, f.SetBasePrice(decimal.NewFromInt(-1)), ErrNegativePrice)
	require.ErrorIs(t, f.SetCombinationStock("missing", 1), ErrCombinationNotFound)

	require.NoError(t, f.SetCombinationPrice(id, decimal.RequireFromString("12.50")))
	require.Equal(t, "12.5", f.Combinations()[0].Price.String())
}

func TestFormLoadPersistedKeepsBackendStock(t *testing.T) {
	t.Parallel()

	persisted := []model.VariantCombination{{
		ID:                     "sp-1",
		DisplayName:            "Red - S",
		SelectedEntries:        []model.SelectedEntry{{AxisType: "color", Name: "Red"}, {AxisType: "size", Name: "S"}},
		Stock:                  3,
		Price:                  decimal.NewFromInt(900),
		PersistedStockRecordID: "sp-1",
	}}

	f := newTestForm()
	f.LoadPersisted(persisted)
	require.Len(t, f.Combinations(), 1)

	_, _ = f.AddColor("Red", "")
	_, _ = f.AddSize("S", "")
	_, _ = f.AddSize("M", "")

	_, err := f.Generate(false)
	require.ErrorIs(t, err, ErrRegenerateNeedsConfirmation)

	res, err := f.Generate(true)
	require.NoError(t, err)
	redS := findCombination(t, res.Combinations, "Red - S")
	require.Equal(t, "sp-1", redS.PersistedStockRecordID)
	require.Equal(t, "sp-1", redS.ID)
	require.Equal(t, 3, redS.Stock)
	require.Empty(t, res.Dropped)
}

func TestFormMarkPersisted(t *testing.T) {
	t.Parallel()

	f := newTestForm()
	_, _ = f.AddSize("S", "")
	_, err := f.Generate(false)
	require.NoError(t, err)
	id := f.Combinations()[0].ID

	require.NoError(t, f.MarkPersisted(id, "sp-9"))
	require.True(t, f.Combinations()[0].IsPersisted())
	require.ErrorIs(t, f.MarkPersisted("nope", "x"), ErrCombinationNotFound)
}

func TestFormSnapshotRestore(t *testing.T) {
	t.Parallel()

	f := newTestForm()
	require.NoError(t, f.SetBasePrice(decimal.NewFromInt(50)))
	_, _ = f.AddColor("Red", "#FF0000")
	_, _ = f.AddCustom("Material", "Cotton", "")
	_, err := f.Generate(false)
	require.NoError(t, err)

	snap := f.Snapshot()
	require.Equal(t, fixedNow, snap.SavedAt)
	require.Len(t, snap.Combinations, 1)

	restored := newTestForm()
	require.NoError(t, restored.Restore(snap))
	require.Equal(t, f.Combinations(), restored.Combinations())
	require.Equal(t, f.Axes(), restored.Axes())
	require.True(t, decimal.NewFromInt(50).Equal(restored.BasePrice()))

	bad := snap
	bad.Combinations = []model.VariantCombination{{ID: "x", Stock: -2}}
	require.ErrorIs(t, restored.Restore(bad), ErrNegativeStock)
	require.Equal(t, f.Combinations(), restored.Combinations())
}

func TestFormWithoutAxesIsNoVariantMode(t *testing.T) {
	t.Parallel()

	f := newTestForm()
	require.False(t, f.HasVariants())
	res, err := f.Generate(false)
	require.NoError(t, err)
	require.Empty(t, res.Combinations)
}

func TestFormGenerateRejectsNamesMadeEqualByUpdate(t *testing.T) {
	t.Parallel()

	f := newTestForm()
	_, _ = f.AddColor("Red", "")
	blue, _ := f.AddColor("Blue", "")
	_, _ = f.AddSize("S", "")
	_, err := f.Generate(false)
	require.NoError(t, err)
	before := f.Combinations()

	require.NoError(t, f.UpdateEntry(variants.AxisColors, blue.ID, variants.FieldName, "red"))

	var verr *variants.ValidationError
	_, err = f.Generate(true)
	require.ErrorAs(t, err, &verr)
	require.ErrorIs(t, err, variants.ErrDuplicateEntry)
	require.Equal(t, variants.AxisColors, verr.Axis)
	require.Equal(t, before, f.Combinations(), "combinations are left untouched")

	require.NoError(t, f.UpdateEntry(variants.AxisColors, blue.ID, variants.FieldName, "Navy"))
	res, err := f.Generate(true)
	require.NoError(t, err)
	ids := map[string]bool{}
	for _, c := range res.Combinations {
		require.False(t, ids[c.ID], "duplicate id %s", c.ID)
		ids[c.ID] = true
	}
	require.Len(t, ids, 2)
}

func TestFormExplicitZeroPriceSurvivesRegeneration(t *testing.T) {
	t.Parallel()

	f := newTestForm()
	require.NoError(t, f.SetBasePrice(decimal.NewFromInt(300)))
	_, _ = f.AddSize("S", "")
	_, err := f.Generate(false)
	require.NoError(t, err)
	s := f.Combinations()[0]
	require.False(t, s.PriceSet)

	require.NoError(t, f.SetCombinationPrice(s.ID, decimal.Zero))
	_, _ = f.AddSize("M", "")
	res, err := f.Generate(true)
	require.NoError(t, err)

	got := findCombination(t, res.Combinations, "S")
	require.True(t, got.PriceSet)
	require.True(t, got.Price.IsZero())
	require.False(t, findCombination(t, res.Combinations, "M").PriceSet)
}
