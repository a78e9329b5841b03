package variants

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"emprendyup-catalog/internal/domain/model"
	"emprendyup-catalog/internal/textutil"
)

const (
	DefaultStock         = 10
	DisplayNameSeparator = " - "
	MaxCombinations      = 500

	localIDPrefix = "local:"
)

// Count returns the number of combinations Generate would produce.
func Count(axes []model.VariantAxis) int {
	if len(axes) == 0 {
		return 0
	}
	total := 1
	for _, axis := range axes {
		n := len(axis.Entries)
		if n == 0 {
			return 0
		}
		if total > math.MaxInt/n {
			return math.MaxInt
		}
		total *= n
	}
	return total
}

// CheckCount rejects axis sets whose product exceeds MaxCombinations.
func CheckCount(axes []model.VariantAxis) error {
	if n := Count(axes); n > MaxCombinations {
		return &ValidationError{Field: "combinations", Value: formatCount(n), Err: ErrTooManyCombinations}
	}
	return nil
}

// CheckUnique rejects an axis holding two entries whose names match ignoring
// case. UpdateEntry can produce such axes; generating from them would repeat
// combination ids.
func CheckUnique(axes []model.VariantAxis) error {
	for _, axis := range axes {
		seen := make(map[string]bool, len(axis.Entries))
		for _, e := range axis.Entries {
			key := textutil.Key(e.Name)
			if seen[key] {
				kind, value := axisKindOf(axis.Type), e.Name
				if kind == AxisCustom {
					value = axis.Type + ":" + e.Name
				}
				return validationErr(kind, FieldName, value, ErrDuplicateEntry)
			}
			seen[key] = true
		}
	}
	return nil
}

func axisKindOf(axisType string) AxisKind {
	switch {
	case textutil.SameKey(axisType, model.AxisTypeColor):
		return AxisColors
	case textutil.SameKey(axisType, model.AxisTypeSize):
		return AxisSizes
	}
	return AxisCustom
}

// Generate returns the cartesian product of axes with the first axis as the
// outer loop. Each combination starts with DefaultStock and basePrice. The
// result is empty when there are no axes or any axis has no entries.
func Generate(axes []model.VariantAxis, basePrice decimal.Decimal) []model.VariantCombination {
	if Count(axes) == 0 {
		return []model.VariantCombination{}
	}

	rows := cartesian(axes)
	out := make([]model.VariantCombination, 0, len(rows))
	for _, selected := range rows {
		out = append(out, model.VariantCombination{
			ID:              LocalID(selected),
			DisplayName:     DisplayName(selected),
			SelectedEntries: selected,
			Stock:           DefaultStock,
			Price:           basePrice,
		})
	}
	return out
}

func cartesian(axes []model.VariantAxis) [][]model.SelectedEntry {
	if len(axes) == 0 {
		return [][]model.SelectedEntry{{}}
	}
	rest := cartesian(axes[1:])
	out := make([][]model.SelectedEntry, 0, len(axes[0].Entries)*len(rest))
	for _, entry := range axes[0].Entries {
		head := model.SelectedEntry{
			AxisType: axes[0].Type,
			Name:     entry.Name,
			Value:    textutil.FirstNonEmpty(entry.Value, entry.Name),
			AuxData:  cloneAux(entry.AuxData),
		}
		for _, tail := range rest {
			row := make([]model.SelectedEntry, 0, len(tail)+1)
			row = append(row, head)
			row = append(row, tail...)
			out = append(out, row)
		}
	}
	return out
}

// DisplayName joins entry names in axis order.
func DisplayName(entries []model.SelectedEntry) string {
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return strings.Join(names, DisplayNameSeparator)
}

// LocalID derives a stable id from the selected entries so regenerating the
// same axes yields the same ids.
func LocalID(entries []model.SelectedEntry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, textutil.Key(e.AxisType)+"="+textutil.Key(e.Name))
	}
	return localIDPrefix + strings.Join(parts, "|")
}

func formatCount(n int) string {
	if n == math.MaxInt {
		return "overflow"
	}
	return strconv.Itoa(n)
}
