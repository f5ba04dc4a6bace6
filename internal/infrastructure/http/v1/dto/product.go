package dto

import (
	"shopledger/internal/core/types"
	"shopledger/internal/domain/catalogs/product"
)

// CreateProductRequest creates a catalog entry. Stock status is derived.
type CreateProductRequest struct {
	Name     string           `json:"name" binding:"required"`
	Category product.Category `json:"category" binding:"required"`
	Price    types.Money      `json:"price"`
	Stock    int              `json:"stock"`
	MinStock *int             `json:"minStock"`
	Supplier string           `json:"supplier"`
}

func (r *CreateProductRequest) ToDomain() *product.Product {
	minStock := product.DefaultMinStock
	if r.MinStock != nil {
		minStock = *r.MinStock
	}
	return product.NewProduct(r.Name, r.Category, r.Price, r.Stock, minStock, r.Supplier)
}

// UpdateProductRequest is a partial edit; omitted fields keep their value.
type UpdateProductRequest struct {
	Name     *string           `json:"name"`
	Category *product.Category `json:"category"`
	Price    *types.Money      `json:"price"`
	Stock    *int              `json:"stock"`
	MinStock *int              `json:"minStock"`
	Supplier *string           `json:"supplier"`
	Version  *int              `json:"version"`
}

func (r *UpdateProductRequest) ToDomain() product.UpdateInput {
	return product.UpdateInput{
		Name:     r.Name,
		Category: r.Category,
		Price:    r.Price,
		Stock:    r.Stock,
		MinStock: r.MinStock,
		Supplier: r.Supplier,
		Version:  r.Version,
	}
}

// ProductListQuery filters GET /products.
type ProductListQuery struct {
	Search   string `form:"search"`
	Category string `form:"category"`
	Status   string `form:"status"`
}

func (q ProductListQuery) ToFilter() product.ListFilter {
	return product.ListFilter{
		Search:   q.Search,
		Category: product.Category(q.Category),
		Status:   product.Status(q.Status),
	}
}
