package dto

import "emprendyup-catalog/internal/domain/model"

type ProductInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       float64  `json:"price"`
	CategoryID  string   `json:"categoryId,omitempty"`
	Images      []string `json:"images,omitempty"`
	Available   bool     `json:"available"`
}

type ProductRef struct {
	ID string `json:"id"`
}

type CreateProductData struct {
	CreateProduct *ProductRef `json:"createProduct"`
}

type UpdateProductData struct {
	UpdateProduct *ProductRef `json:"updateProduct"`
}

type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
}

type CategoriesData struct {
	Categories []Category `json:"categories"`
}

func NewProductInput(p model.Product) ProductInput {
	return ProductInput{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.InexactFloat64(),
		CategoryID:  p.CategoryID,
		Images:      p.Images,
		Available:   p.Available,
	}
}

func (c Category) Model() model.Category {
	return model.Category{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
	}
}
