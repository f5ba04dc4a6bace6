// Package product provides the product catalog: what the shop sells and how many are on hand.
package product

import (
	"context"
	"strings"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/entity"
	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
)

// Category is one of a fixed set of product groups.
type Category string

const (
	CategoryCasing       Category = "Casing"
	CategoryRemoteXhorse Category = "Remote_xhorse"
	CategoryRemoteKeyDiy Category = "Remote_keyDiy"
	CategoryValetKey     Category = "Valet_Key"
	CategoryKeyholder    Category = "Keyholder"
	CategoryJacket       Category = "Jacket"
	CategoryBattery      Category = "Battery"
	CategoryProgramming  Category = "Programming"
	CategoryAfterMarket  Category = "After_Market"
	CategoryWork         Category = "Work"
	CategoryBlade        Category = "Blade"
	CategoryEmulator     Category = "Emulator"
	CategoryPcb          Category = "Pcb"
	CategoryChip         Category = "Chip"
	CategoryOriginal     Category = "Original"
	CategoryKeyless      Category = "Keyless"
	CategoryOEM          Category = "OEM"
	CategoryOthers       Category = "Others"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryCasing, CategoryRemoteXhorse, CategoryRemoteKeyDiy, CategoryValetKey,
	CategoryKeyholder, CategoryJacket, CategoryBattery, CategoryProgramming,
	CategoryAfterMarket, CategoryWork, CategoryBlade, CategoryEmulator,
	CategoryPcb, CategoryChip, CategoryOriginal, CategoryKeyless, CategoryOEM,
	CategoryOthers,
}

func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Status is derived from stock on every write.
type Status string

const (
	StatusInStock    Status = "In Stock"
	StatusLowStock   Status = "Low Stock"
	StatusOutOfStock Status = "Out of Stock"
)

func (s Status) IsValid() bool {
	return s == StatusInStock || s == StatusLowStock || s == StatusOutOfStock
}

// LowStockThreshold drives Status. It is independent of MinStock,
// which only feeds the low-stock alert.
const LowStockThreshold = 10

// DefaultMinStock is applied when a product is created without one.
const DefaultMinStock = 10

// StatusFor classifies a stock level. Negative stock counts as out of stock.
func StatusFor(stock int) Status {
	switch {
	case stock <= 0:
		return StatusOutOfStock
	case stock < LowStockThreshold:
		return StatusLowStock
	default:
		return StatusInStock
	}
}

// Product is a sellable item.
type Product struct {
	entity.BaseEntity

	Name     string      `db:"name" json:"name"`
	Category Category    `db:"category" json:"category"`
	Price    types.Money `db:"price" json:"price"`
	Stock    int         `db:"stock" json:"stock"`
	MinStock int         `db:"min_stock" json:"minStock"`
	Supplier string      `db:"supplier" json:"supplier"`
	Status   Status      `db:"status" json:"status"`
}

// NewProduct creates a product with a fresh id and derived status.
func NewProduct(name string, category Category, price types.Money, stock, minStock int, supplier string) *Product {
	p := &Product{
		BaseEntity: entity.NewBaseEntity(),
		Name:       strings.TrimSpace(name),
		Category:   category,
		Price:      price,
		Stock:      stock,
		MinStock:   minStock,
		Supplier:   strings.TrimSpace(supplier),
	}
	p.RefreshStatus()
	return p
}

func (p *Product) GetID() id.ID    { return p.ID }
func (p *Product) GetVersion() int { return p.Version }

// RefreshStatus recomputes Status from Stock.
func (p *Product) RefreshStatus() {
	p.Status = StatusFor(p.Stock)
}

// Validate checks catalog invariants. Stock may only go negative through
// sales when negative stock is allowed, never through catalog edits.
func (p *Product) Validate(_ context.Context) error {
	if strings.TrimSpace(p.Name) == "" {
		return apperror.NewFieldValidation("name", "name is required")
	}
	if !p.Category.IsValid() {
		return apperror.NewFieldValidation("category", "unknown category").
			WithDetail("value", p.Category)
	}
	if p.Price.IsNegative() {
		return apperror.NewFieldValidation("price", "price must not be negative")
	}
	if p.Stock < 0 {
		return apperror.NewFieldValidation("stock", "stock must not be negative")
	}
	if p.MinStock < 0 {
		return apperror.NewFieldValidation("minStock", "minStock must not be negative")
	}
	return nil
}

// Clone returns a shallow copy.
func (p *Product) Clone() *Product {
	c := *p
	return &c
}

// ListFilter narrows List results. Zero values match everything.
type ListFilter struct {
	// Search matches name or supplier, case-insensitively
	Search   string
	Category Category
	Status   Status
}

// Matches applies the filter to one product. In-memory stores use it.
func (f ListFilter) Matches(p *Product) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.Supplier), q) {
			return false
		}
	}
	return true
}
