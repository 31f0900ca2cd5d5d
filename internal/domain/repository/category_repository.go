package repository

import (
	"context"

	"github.com/jhoicas/catalogo-api/internal/domain/entity"
)

// CategoryRepository define el puerto de persistencia para Category (DIP).
// Es el único componente que muta categorías en el almacenamiento.
type CategoryRepository interface {
	// Create inserta la categoría y asigna su ID. Devuelve domain.ErrDuplicate si la clave
	// (name, parent_id, taxonomy) ya existe.
	Create(ctx context.Context, category *entity.Category) error
	GetByID(ctx context.Context, id int64) (*entity.Category, error)
	// FindByNameAndParent devuelve nil, nil si no existe.
	FindByNameAndParent(ctx context.Context, taxonomy entity.Taxonomy, name string, parentID *int64) (*entity.Category, error)
	FindChildren(ctx context.Context, id int64) ([]int64, error)
	FindByIDs(ctx context.Context, ids []int64) ([]*entity.Category, error)
	CountChildren(ctx context.Context, id int64) (int, error)
	// Rename solo toca name y updated_at.
	Rename(ctx context.Context, id int64, name string) error
	UpdateParent(ctx context.Context, id int64, parentID *int64, depth int) error
	UpdateDepth(ctx context.Context, id int64, depth int) error
	DeleteByIDs(ctx context.Context, ids []int64) (int64, error)
	// ListByTaxonomy lista las categorías de una taxonomía. Con vendorID se limita a las
	// del vendedor más las compartidas (owning_vendor_id nulo).
	ListByTaxonomy(ctx context.Context, taxonomy entity.Taxonomy, vendorID *int64) ([]*entity.Category, error)
}

// DescendantTraverser lo implementan los almacenes que resuelven la clausura de descendientes
// en una sola consulta. Sin él se usa el recorrido iterativo por niveles.
type DescendantTraverser interface {
	Descendants(ctx context.Context, ids []int64, maxDepth int) ([]int64, error)
}
