package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	CategoryID  string
	Images      []string
	Available   bool
}

type Category struct {
	ID          string
	Name        string
	Slug        string
	Description string
}

// FormSnapshot is the autosaved state of a product wizard.
type FormSnapshot struct {
	BasePrice    decimal.Decimal      `json:"basePrice"`
	Axes         AxisState            `json:"axes"`
	Combinations []VariantCombination `json:"combinations"`
	Prior        []VariantCombination `json:"prior,omitempty"`
	SavedAt      time.Time            `json:"savedAt"`
}

const (
	SaveRunSucceeded = "succeeded"
	SaveRunFailed    = "failed"
)

// SaveRun is one journaled product submission.
type SaveRun struct {
	ID                  string
	ProductID           string
	Status              string
	Phase               string
	Error               string
	Unresolved          []string
	Updated             int
	VariantsCreated     int
	CombinationsCreated int
	CreatedAt           time.Time
}
