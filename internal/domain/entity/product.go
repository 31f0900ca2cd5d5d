package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product producto del catálogo. SKU es la clave natural e idempotente para importaciones.
type Product struct {
	ID               int64
	SKU              string
	Name             string
	Description      string
	Price            decimal.Decimal
	Cost             decimal.Decimal
	ComparePrice     decimal.Decimal
	Weight           decimal.Decimal
	Length           decimal.Decimal
	Width            decimal.Decimal
	Height           decimal.Decimal
	StockQuantity    int64
	VendorID         *int64
	VendorCategoryID *int64 // categoría de taxonomía vendor
	StoreCategoryID  *int64 // categoría de taxonomía store
	Published        bool
	Featured         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CategoryID devuelve la referencia de categoría del producto para la taxonomía dada.
func (p *Product) CategoryID(t Taxonomy) *int64 {
	if t == TaxonomyVendor {
		return p.VendorCategoryID
	}
	return p.StoreCategoryID
}

// SetCategoryID asigna la referencia de categoría para la taxonomía dada.
func (p *Product) SetCategoryID(t Taxonomy, id *int64) {
	if t == TaxonomyVendor {
		p.VendorCategoryID = id
		return
	}
	p.StoreCategoryID = id
}
