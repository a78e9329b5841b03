package emprendyup

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"emprendyup-catalog/internal/adapters/emprendyup/dto"
	"emprendyup-catalog/internal/domain/model"
)

// CreateVariants creates all inputs in one batch and returns the new ids.
func (c *Client) CreateVariants(ctx context.Context, inputs []model.VariantInput) ([]string, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	payload := make([]dto.CreateVariantInput, 0, len(inputs))
	for _, in := range inputs {
		if strings.TrimSpace(in.ProductID) == "" {
			return nil, errors.New("emprendyup createVariants: product id is empty")
		}
		payload = append(payload, dto.CreateVariantInput{
			Name:      in.Name,
			Type:      in.Type,
			ProductID: in.ProductID,
			JSONData:  in.AuxData,
		})
	}

	query := `
mutation createVariants($inputs: [CreateVariantInput!]!) {
	createVariants(inputs: $inputs) { id }
}`

	var data dto.CreateVariantsData
	err := c.graphqlRequest(ctx, operation{name: "createVariants", mutation: true}, query, map[string]any{
		"inputs": payload,
	}, &data)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(data.CreateVariants))
	for _, v := range data.CreateVariants {
		ids = append(ids, v.ID)
	}
	return ids, nil
}

// ProductVariantsByProduct returns the canonical variants of a product with
// both backend field conventions normalised away.
func (c *Client) ProductVariantsByProduct(ctx context.Context, productID string) ([]model.CanonicalVariant, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, errors.New("emprendyup productVariantsByProduct: product id is empty")
	}
	query := fmt.Sprintf(`
query productVariantsByProduct($productId: ID!) {
	productVariantsByProduct(productId: $productId) { %s }
}`, c.variantSelection())

	var data dto.ProductVariantsData
	err := c.graphqlRequest(ctx, operation{name: "productVariantsByProduct"}, query, map[string]any{
		"productId": productID,
	}, &data)
	if err != nil {
		return nil, err
	}
	return dto.CanonicalVariants(data.ProductVariantsByProduct), nil
}
