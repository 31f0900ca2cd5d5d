package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RenameProductRequest entrada para renombrar un producto.
type RenameProductRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
}

// ProductSearchRequest búsqueda de productos por subárbol de categoría.
type ProductSearchRequest struct {
	CategoryID int64  `query:"category_id" validate:"required,min=1"`
	Taxonomy   string `query:"taxonomy" validate:"omitempty,oneof=vendor store"`
	PageRequest
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID               int64           `json:"id"`
	SKU              string          `json:"sku"`
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	Price            decimal.Decimal `json:"price"`
	Cost             decimal.Decimal `json:"cost"`
	ComparePrice     decimal.Decimal `json:"compare_price"`
	Weight           decimal.Decimal `json:"weight"`
	Length           decimal.Decimal `json:"length"`
	Width            decimal.Decimal `json:"width"`
	Height           decimal.Decimal `json:"height"`
	StockQuantity    int64           `json:"stock_quantity"`
	VendorID         *int64          `json:"vendor_id"`
	VendorCategoryID *int64          `json:"vendor_category_id"`
	StoreCategoryID  *int64          `json:"store_category_id"`
	Published        bool            `json:"published"`
	Featured         bool            `json:"featured"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
