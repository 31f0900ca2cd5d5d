package category

import (
	"context"
	"time"

	"github.com/jhoicas/catalogo-api/internal/domain/catalog"
	"github.com/jhoicas/catalogo-api/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una transacción de BD, con repositorios atados a esa tx.
// Garantiza la atomicidad del borrado en cascada, el merge y el cambio de padre.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		categoryRepo repository.CategoryRepository,
		productRepo repository.ProductRepository,
	) error) error
}

// Options parámetros del árbol de categorías.
type Options struct {
	MaxDepth      int           // niveles máximos del árbol y de la expansión
	CreateRetries int           // reintentos de búsqueda tras un conflicto de creación
	RetryBackoff  time.Duration // espera inicial; se duplica por intento, con jitter
}

// DefaultOptions valores por defecto.
func DefaultOptions() Options {
	return Options{
		MaxDepth:      catalog.DefaultMaxDepth,
		CreateRetries: 3,
		RetryBackoff:  25 * time.Millisecond,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxDepth <= 0 {
		o.MaxDepth = d.MaxDepth
	}
	if o.CreateRetries < 0 {
		o.CreateRetries = 0
	}
	return o
}
