package repository

import (
	"context"

	"github.com/jhoicas/catalogo-api/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
type ProductRepository interface {
	// Create inserta y asigna ID. domain.ErrDuplicate si el SKU ya existe.
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id int64) (*entity.Product, error)
	// GetBySKU devuelve nil, nil si no existe.
	GetBySKU(ctx context.Context, sku string) (*entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	// ReassignCategories apunta al centinela de cada taxonomía todo campo de categoría que
	// referencie un id de ids. Devuelve la cantidad de productos afectados.
	ReassignCategories(ctx context.Context, ids []int64, vendorSentinelID, storeSentinelID int64) (int64, error)
	// MoveCategory cambia from por to en el campo de la taxonomía dada.
	MoveCategory(ctx context.Context, taxonomy entity.Taxonomy, fromID, toID int64) (int64, error)
	// CountByCategory cuenta productos por categoría directa en la taxonomía.
	CountByCategory(ctx context.Context, taxonomy entity.Taxonomy) (map[int64]int, error)
	CountByCategoryIDs(ctx context.Context, taxonomy entity.Taxonomy, ids []int64) (int, error)
	ListByCategoryIDs(ctx context.Context, taxonomy entity.Taxonomy, ids []int64, limit, offset int) ([]*entity.Product, error)
}
