package dto

import "time"

// CreateCategoryRequest entrada para crear una categoría administrativamente.
type CreateCategoryRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=200"`
	Taxonomy string `json:"taxonomy" validate:"required,oneof=vendor store"`
	ParentID *int64 `json:"parent_id" validate:"omitempty,min=1"`
	VendorID *int64 `json:"vendor_id" validate:"omitempty,min=1"`
}

// RenameCategoryRequest solo cambia el nombre.
type RenameCategoryRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
}

// MoveCategoryRequest cambia el padre; ParentID nulo la convierte en raíz.
type MoveCategoryRequest struct {
	ParentID *int64 `json:"parent_id" validate:"omitempty,min=1"`
}

// DeleteCategoriesRequest borrado en cascada de uno o más subárboles.
type DeleteCategoriesRequest struct {
	IDs []int64 `json:"ids" validate:"required,min=1,dive,min=1"`
}

// MergeCategoriesRequest mueve los productos de Source a Target.
type MergeCategoriesRequest struct {
	SourceID int64  `json:"source_id" validate:"required,min=1"`
	TargetID int64  `json:"target_id" validate:"required,min=1"`
	Scope    string `json:"scope" validate:"omitempty,oneof=vendor store both"`
}

// CategoryResponse salida de una categoría.
type CategoryResponse struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Taxonomy       string    `json:"taxonomy"`
	ParentID       *int64    `json:"parent_id"`
	Depth          int       `json:"depth"`
	OwningVendorID *int64    `json:"owning_vendor_id,omitempty"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CategoryTreeNode nodo del listado de árbol con conteos de productos.
type CategoryTreeNode struct {
	ID                int64              `json:"id"`
	Name              string             `json:"name"`
	ParentID          *int64             `json:"parent_id"`
	Depth             int                `json:"depth"`
	DirectCount       int                `json:"direct_count"`
	HierarchicalCount int                `json:"hierarchical_count"`
	Children          []CategoryTreeNode `json:"children"`
}

// CategoryTreeResponse árbol completo de una taxonomía.
type CategoryTreeResponse struct {
	Taxonomy string             `json:"taxonomy"`
	Roots    []CategoryTreeNode `json:"roots"`
}

// DeleteCategoriesResponse resultado del borrado en cascada.
type DeleteCategoriesResponse struct {
	DeletedCount      int64   `json:"deleted_count"`
	MovedProductCount int64   `json:"moved_product_count"`
	DeletedIDs        []int64 `json:"deleted_ids"`
}

// MergeCategoriesResponse resultado de un merge.
type MergeCategoriesResponse struct {
	SourceID          int64 `json:"source_id"`
	TargetID          int64 `json:"target_id"`
	MovedProductCount int64 `json:"moved_product_count"`
}

// HierarchicalCountResponse conteo de productos de una categoría y su subárbol.
type HierarchicalCountResponse struct {
	CategoryID    int64   `json:"category_id"`
	Direct        int     `json:"direct"`
	Total         int     `json:"total"`
	DescendantIDs []int64 `json:"descendant_ids"`
}
