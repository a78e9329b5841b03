package usecases

import (
	"context"

	"emprendyup-catalog/internal/domain/model"
)

type VariantService interface {
	CreateVariants(ctx context.Context, inputs []model.VariantInput) ([]string, error)
	ProductVariantsByProduct(ctx context.Context, productID string) ([]model.CanonicalVariant, error)
}

type CombinationService interface {
	CreateVariantCombination(ctx context.Context, input model.CombinationInput) (model.CombinationResult, error)
	UpdateStockForVariantCombination(ctx context.Context, stockID string, update model.StockUpdate) (model.StockRecord, error)
	VariantCombinationsByProduct(ctx context.Context, productID string) ([]model.PersistedCombination, error)
}

type ProductService interface {
	CreateProduct(ctx context.Context, product model.Product) (string, error)
	UpdateProduct(ctx context.Context, productID string, product model.Product) error
}

type DescriptionRenderer interface {
	RenderDescription(source string) (string, error)
}

type RunJournal interface {
	RecordRun(ctx context.Context, run model.SaveRun) error
}
