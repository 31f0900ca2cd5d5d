package entity

import (
	"fmt"
	"time"
)

// Taxonomy identifica uno de los dos árboles de categorías independientes.
type Taxonomy string

const (
	TaxonomyVendor Taxonomy = "vendor"
	TaxonomyStore  Taxonomy = "store"
)

// Taxonomies devuelve ambas taxonomías en orden estable.
func Taxonomies() []Taxonomy {
	return []Taxonomy{TaxonomyVendor, TaxonomyStore}
}

// Valid indica si t es una taxonomía conocida.
func (t Taxonomy) Valid() bool {
	return t == TaxonomyVendor || t == TaxonomyStore
}

// ParseTaxonomy convierte un string en Taxonomy.
func ParseTaxonomy(s string) (Taxonomy, error) {
	t := Taxonomy(s)
	if !t.Valid() {
		return "", fmt.Errorf("taxonomía desconocida %q", s)
	}
	return t, nil
}

// UncategorizedName nombre de la categoría centinela de cada taxonomía.
const UncategorizedName = "Uncategorized"

// Estados de categoría.
const (
	CategoryStatusActive   = "active"
	CategoryStatusInactive = "inactive"
)

// Category nodo de un árbol de categorías (lista de adyacencia).
// (Name, ParentID, Taxonomy) es la clave de deduplicación.
type Category struct {
	ID             int64
	Name           string
	Taxonomy       Taxonomy
	ParentID       *int64 // nil si es raíz
	Depth          int    // raíz = 1
	OwningVendorID *int64
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsRoot indica si la categoría no tiene padre.
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}

// IsSentinel indica si es la categoría "Uncategorized" de su taxonomía.
func (c *Category) IsSentinel() bool {
	return c.ParentID == nil && c.Name == UncategorizedName
}

// CategoryNode nodo del árbol armado para listados, con conteos de productos.
type CategoryNode struct {
	Category
	DirectCount       int
	HierarchicalCount int
	Children          []*CategoryNode
}
