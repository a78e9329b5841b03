package variants

import (
	"sort"
	"strings"

	"emprendyup-catalog/internal/domain/model"
	"emprendyup-catalog/internal/textutil"
)

// Reconcile copies stock, price and the persisted stock record id from prior
// combinations onto matching generated ones. A match is tried by display name,
// then by (axisType, name) pairs in order, then by the same pairs as a set.
// Each prior combination matches at most once. Unmatched combinations keep
// their generated defaults.
func Reconcile(generated, prior []model.VariantCombination) []model.VariantCombination {
	matches := match(generated, prior)
	out := make([]model.VariantCombination, 0, len(generated))
	for i, c := range generated {
		if j := matches[i]; j >= 0 {
			p := prior[j]
			c.Stock = p.Stock
			c.Price = p.Price
			c.PriceSet = p.PriceSet
			c.PersistedStockRecordID = p.PersistedStockRecordID
			if p.IsPersisted() && p.ID != "" {
				c.ID = p.ID
			}
		}
		out = append(out, c)
	}
	return out
}

// Dropped lists the prior combinations that no generated combination matches.
func Dropped(generated, prior []model.VariantCombination) []model.VariantCombination {
	matches := match(generated, prior)
	used := make([]bool, len(prior))
	for _, j := range matches {
		if j >= 0 {
			used[j] = true
		}
	}
	var out []model.VariantCombination
	for j, p := range prior {
		if !used[j] {
			out = append(out, p)
		}
	}
	return out
}

type matcher func(model.VariantCombination) string

// match returns, for each generated combination, the index of its prior match or -1.
func match(generated, prior []model.VariantCombination) []int {
	result := make([]int, len(generated))
	for i := range result {
		result[i] = -1
	}
	if len(prior) == 0 {
		return result
	}

	used := make([]bool, len(prior))
	keys := []matcher{displayKey, orderedKey, unorderedKey}
	priorKeys := make([][]string, len(keys))
	for k, key := range keys {
		priorKeys[k] = make([]string, len(prior))
		for j, p := range prior {
			priorKeys[k][j] = key(p)
		}
	}

	for i, c := range generated {
		for k, key := range keys {
			want := key(c)
			if want == "" {
				continue
			}
			if j := firstUnused(priorKeys[k], used, want); j >= 0 {
				used[j] = true
				result[i] = j
				break
			}
		}
	}
	return result
}

func firstUnused(keys []string, used []bool, want string) int {
	for j, key := range keys {
		if !used[j] && key == want {
			return j
		}
	}
	return -1
}

func displayKey(c model.VariantCombination) string {
	return textutil.Key(c.DisplayName)
}

func orderedKey(c model.VariantCombination) string {
	return strings.Join(pairKeys(c.SelectedEntries), "\x01")
}

func unorderedKey(c model.VariantCombination) string {
	keys := pairKeys(c.SelectedEntries)
	sort.Strings(keys)
	return strings.Join(keys, "\x01")
}

func pairKeys(entries []model.SelectedEntry) []string {
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, textutil.PairKey(e.AxisType, e.Name))
	}
	return keys
}
