package importer

import (
	"context"

	"github.com/jhoicas/catalogo-api/internal/domain/repository"
)

// BatchRunner abre una transacción por lote. Si fn devuelve error el lote completo se revierte.
type BatchRunner interface {
	RunBatch(ctx context.Context, fn func(tx BatchTx) error) error
}

// BatchTx transacción de un lote. Row ejecuta fn en un punto de guardado: si fn falla solo se
// deshace esa fila y la transacción del lote sigue utilizable.
type BatchTx interface {
	Row(ctx context.Context, fn func(productRepo repository.ProductRepository) error) error
}
