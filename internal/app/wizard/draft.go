package wizard

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"emprendyup-catalog/internal/app/variants"
	"emprendyup-catalog/internal/domain/model"
	"emprendyup-catalog/internal/textutil"
)

var ErrUnknownCombination = errors.New("wizard: draft references an unknown combination")

// ProductDraft is the YAML description of a product and its variant axes.
type ProductDraft struct {
	Product      ProductSection       `yaml:"product"`
	Variants     VariantSection       `yaml:"variants"`
	Combinations []CombinationSetting `yaml:"combinations"`
}

type ProductSection struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Price       float64  `yaml:"price"`
	CategoryID  string   `yaml:"categoryId"`
	Images      []string `yaml:"images"`
	Available   *bool    `yaml:"available"`
}

type VariantSection struct {
	Colors []ColorDraft  `yaml:"colors"`
	Sizes  []SizeDraft   `yaml:"sizes"`
	Custom []CustomDraft `yaml:"custom"`
}

type ColorDraft struct {
	Name string `yaml:"name"`
	Hex  string `yaml:"hex"`
}

type SizeDraft struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

type CustomDraft struct {
	Type  string `yaml:"type"`
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// CombinationSetting overrides stock or price of one generated combination,
// addressed by display name.
type CombinationSetting struct {
	Name  string   `yaml:"name"`
	Stock *int     `yaml:"stock"`
	Price *float64 `yaml:"price"`
}

func LoadDraftFile(path string) (ProductDraft, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ProductDraft{}, fmt.Errorf("read draft: %w", err)
	}
	return ParseDraft(raw)
}

func ParseDraft(raw []byte) (ProductDraft, error) {
	var draft ProductDraft
	if err := yaml.Unmarshal(raw, &draft); err != nil {
		return ProductDraft{}, fmt.Errorf("parse draft: %w", err)
	}
	if strings.TrimSpace(draft.Product.Name) == "" {
		return ProductDraft{}, errors.New("parse draft: product.name is required")
	}
	return draft, nil
}

// ProductModel maps the draft to the product record.
func (d ProductDraft) ProductModel() model.Product {
	available := true
	if d.Product.Available != nil {
		available = *d.Product.Available
	}
	return model.Product{
		ID:          strings.TrimSpace(d.Product.ID),
		Name:        strings.TrimSpace(d.Product.Name),
		Description: d.Product.Description,
		Price:       decimal.NewFromFloat(d.Product.Price),
		CategoryID:  strings.TrimSpace(d.Product.CategoryID),
		Images:      append([]string(nil), d.Product.Images...),
		Available:   available,
	}
}

// ApplyAxes sets the base price and adds every draft axis entry to the form.
// Entries already present in the form are skipped. The draft is the only source
// of axes; autosaved state is brought back with Form.ResumeCombinations.
func (d ProductDraft) ApplyAxes(f *Form) error {
	if err := f.SetBasePrice(decimal.NewFromFloat(d.Product.Price)); err != nil {
		return err
	}
	for _, c := range d.Variants.Colors {
		if _, err := f.AddColor(c.Name, c.Hex); err != nil && !isDuplicate(err) {
			return err
		}
	}
	for _, s := range d.Variants.Sizes {
		if _, err := f.AddSize(s.Name, s.Value); err != nil && !isDuplicate(err) {
			return err
		}
	}
	for _, c := range d.Variants.Custom {
		if _, err := f.AddCustom(c.Type, c.Name, c.Value); err != nil && !isDuplicate(err) {
			return err
		}
	}
	return nil
}

// ApplyOverrides writes per-combination stock and price after generation.
func (d ProductDraft) ApplyOverrides(f *Form) error {
	if len(d.Combinations) == 0 {
		return nil
	}
	byName := map[string]string{}
	for _, c := range f.Combinations() {
		byName[textutil.Key(c.DisplayName)] = c.ID
	}
	for _, o := range d.Combinations {
		id, ok := byName[textutil.Key(o.Name)]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownCombination, o.Name)
		}
		if o.Stock != nil {
			if err := f.SetCombinationStock(id, *o.Stock); err != nil {
				return err
			}
		}
		if o.Price != nil {
			if err := f.SetCombinationPrice(id, decimal.NewFromFloat(*o.Price)); err != nil {
				return err
			}
		}
	}
	return nil
}

func isDuplicate(err error) bool {
	return errors.Is(err, variants.ErrDuplicateEntry)
}
