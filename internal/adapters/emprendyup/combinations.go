package emprendyup

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"emprendyup-catalog/internal/adapters/emprendyup/dto"
	"emprendyup-catalog/internal/domain/model"
)

func (c *Client) CreateVariantCombination(ctx context.Context, input model.CombinationInput) (model.CombinationResult, error) {
	if strings.TrimSpace(input.ProductID) == "" {
		return model.CombinationResult{}, errors.New("emprendyup createVariantCombination: product id is empty")
	}
	if len(input.VariantIDs) == 0 {
		return model.CombinationResult{}, errors.New("emprendyup createVariantCombination: no variant ids")
	}

	query := `
mutation createVariantCombination($input: CreateVariantCombinationInput!) {
	createVariantCombination(input: $input) { combinationId stockPriceId }
}`

	var data dto.CreateVariantCombinationData
	err := c.graphqlRequest(ctx, operation{name: "createVariantCombination", mutation: true}, query, map[string]any{
		"input": map[string]any{
			"productId":  input.ProductID,
			"variantIds": input.VariantIDs,
			"price":      input.Price.InexactFloat64(),
			"stock":      input.Stock,
		},
	}, &data)
	if err != nil {
		return model.CombinationResult{}, err
	}
	return model.CombinationResult{
		CombinationID: data.CreateVariantCombination.CombinationID,
		StockPriceID:  data.CreateVariantCombination.StockPriceID,
	}, nil
}

func (c *Client) UpdateStockForVariantCombination(ctx context.Context, stockID string, update model.StockUpdate) (model.StockRecord, error) {
	if strings.TrimSpace(stockID) == "" {
		return model.StockRecord{}, errors.New("emprendyup updateStockForVariantCombination: stock id is empty")
	}

	query := `
mutation updateStockForVariantCombination($stockId: ID!, $input: UpdateStockInput!) {
	updateStockForVariantCombination(stockId: $stockId, input: $input) { id price stock available }
}`

	var data dto.UpdateStockData
	err := c.graphqlRequest(ctx, operation{name: "updateStockForVariantCombination", mutation: true}, query, map[string]any{
		"stockId": stockID,
		"input": map[string]any{
			"price":     update.Price.InexactFloat64(),
			"stock":     update.Stock,
			"available": update.Available,
		},
	}, &data)
	if err != nil {
		return model.StockRecord{}, err
	}
	if data.UpdateStockForVariantCombination == nil {
		return model.StockRecord{}, fmt.Errorf("emprendyup updateStockForVariantCombination: stock %s not returned", stockID)
	}
	return data.UpdateStockForVariantCombination.Record(), nil
}

func (c *Client) VariantCombinationsByProduct(ctx context.Context, productID string) ([]model.PersistedCombination, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, errors.New("emprendyup variantCombinationsByProduct: product id is empty")
	}

	query := fmt.Sprintf(`
query variantCombinationsByProduct($productId: ID!) {
	variantCombinationsByProduct(productId: $productId) {
		id
		variants { %s }
		stockPrices { id price stock available }
	}
}`, c.variantSelection())

	var data dto.VariantCombinationsData
	err := c.graphqlRequest(ctx, operation{name: "variantCombinationsByProduct"}, query, map[string]any{
		"productId": productID,
	}, &data)
	if err != nil {
		return nil, err
	}

	out := make([]model.PersistedCombination, 0, len(data.VariantCombinationsByProduct))
	for _, combination := range data.VariantCombinationsByProduct {
		out = append(out, combination.Persisted())
	}
	return out, nil
}
