package emprendyup

import (
	"context"
	"errors"
	"strings"

	"emprendyup-catalog/internal/adapters/emprendyup/dto"
	"emprendyup-catalog/internal/domain/model"
)

// CreateProduct creates the product and returns its id.
func (c *Client) CreateProduct(ctx context.Context, product model.Product) (string, error) {
	if strings.TrimSpace(product.Name) == "" {
		return "", errors.New("emprendyup createProduct: product name is empty")
	}

	query := `
mutation createProduct($input: CreateProductInput!) {
	createProduct(input: $input) { id }
}`

	var data dto.CreateProductData
	err := c.graphqlRequest(ctx, operation{name: "createProduct", mutation: true}, query, map[string]any{
		"input": dto.NewProductInput(product),
	}, &data)
	if err != nil {
		return "", err
	}
	if data.CreateProduct == nil || strings.TrimSpace(data.CreateProduct.ID) == "" {
		return "", errors.New("emprendyup createProduct: no product id returned")
	}
	return data.CreateProduct.ID, nil
}

func (c *Client) UpdateProduct(ctx context.Context, productID string, product model.Product) error {
	if strings.TrimSpace(productID) == "" {
		return errors.New("emprendyup updateProduct: product id is empty")
	}

	query := `
mutation updateProduct($id: ID!, $input: UpdateProductInput!) {
	updateProduct(id: $id, input: $input) { id }
}`

	var data dto.UpdateProductData
	err := c.graphqlRequest(ctx, operation{name: "updateProduct", mutation: true}, query, map[string]any{
		"id":    productID,
		"input": dto.NewProductInput(product),
	}, &data)
	if err != nil {
		return err
	}
	if data.UpdateProduct == nil {
		return errors.New("emprendyup updateProduct: product not returned")
	}
	return nil
}

func (c *Client) Categories(ctx context.Context) ([]model.Category, error) {
	query := `
query categories {
	categories { id name slug description }
}`

	var data dto.CategoriesData
	if err := c.graphqlRequest(ctx, operation{name: "categories"}, query, nil, &data); err != nil {
		return nil, err
	}
	out := make([]model.Category, 0, len(data.Categories))
	for _, category := range data.Categories {
		out = append(out, category.Model())
	}
	return out, nil
}
