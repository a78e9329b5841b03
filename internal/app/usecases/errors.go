package usecases

import (
	"errors"
	"fmt"
	"strings"
)

const (
	PhaseUpdate       = "update"
	PhaseVariants     = "variants"
	PhasePoll         = "poll"
	PhaseCombinations = "combinations"
	PhaseUnresolved   = "unresolved"
)

var (
	ErrProductIDRequired   = errors.New("usecases: product id is required")
	ErrProductNameRequired = errors.New("usecases: product name is required")
	ErrVariantsNotVisible  = errors.New("usecases: created variants not visible after polling")
)

// CombinationFailure is one failed call of the stock update phase.
type CombinationFailure struct {
	Combination   string
	StockRecordID string
	Err           error
}

// PersistError reports the phase that stopped a variant save. Everything
// committed before it, the product included, stays saved.
type PersistError struct {
	Phase       string
	Combination string
	Lookup      string
	Failures    []CombinationFailure
	Err         error
}

func (e *PersistError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "persist variants phase=%s", e.Phase)
	if e.Combination != "" {
		fmt.Fprintf(&b, " combination=%q", e.Combination)
	}
	if e.Lookup != "" {
		fmt.Fprintf(&b, " lookup=%s", e.Lookup)
	}
	if len(e.Failures) > 0 {
		fmt.Fprintf(&b, " failed=%d", len(e.Failures))
		for _, f := range e.Failures {
			fmt.Fprintf(&b, "; %s (stock %s): %v", f.Combination, f.StockRecordID, f.Err)
		}
		return b.String()
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// UnresolvedCombination is a combination skipped because some of its entries
// have no canonical variant.
type UnresolvedCombination struct {
	ID          string
	DisplayName string
	Missing     []string
}

// UnresolvedError asks the caller to acknowledge combinations that were not saved.
type UnresolvedError struct {
	Combinations []UnresolvedCombination
}

func (e *UnresolvedError) Error() string {
	names := make([]string, 0, len(e.Combinations))
	for _, c := range e.Combinations {
		names = append(names, fmt.Sprintf("%s [%s]", c.DisplayName, strings.Join(c.Missing, ", ")))
	}
	return fmt.Sprintf("persist variants: %d combinations unresolved: %s", len(e.Combinations), strings.Join(names, "; "))
}

// UploadError aborts a submission before anything is written.
type UploadError struct {
	Image string
	Err   error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload image %s: %v", e.Image, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// VariantSaveError means the product was saved but its variants were not
// fully persisted. Retrying only the variant part is safe.
type VariantSaveError struct {
	ProductID string
	Err       error
}

func (e *VariantSaveError) Error() string {
	return fmt.Sprintf("product %s saved, variants failed: %v", e.ProductID, e.Err)
}

func (e *VariantSaveError) Unwrap() error {
	return e.Err
}
