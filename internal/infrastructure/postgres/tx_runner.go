package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/catalogo-api/internal/application/category"
	"github.com/jhoicas/catalogo-api/internal/application/importer"
	"github.com/jhoicas/catalogo-api/internal/application/usecase"
	"github.com/jhoicas/catalogo-api/internal/domain/repository"
)

var (
	_ category.TxRunner    = (*TxRunner)(nil)
	_ usecase.TxRunner     = (*TxRunner)(nil)
	_ importer.BatchRunner = (*TxRunner)(nil)
)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	categoryRepo repository.CategoryRepository,
	productRepo repository.ProductRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", mapErr(err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewCategoryRepository(tx), NewProductRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", mapErr(err))
	}
	return nil
}

// RunBatch transacción de un lote de importación; cada fila corre en un SAVEPOINT propio.
func (r *TxRunner) RunBatch(ctx context.Context, fn func(tx importer.BatchTx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin batch: %w", mapErr(err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&batchTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit batch: %w", mapErr(err))
	}
	return nil
}

type batchTx struct {
	tx pgx.Tx
}

// Row abre un punto de guardado (Begin anidado de pgx) y lo libera o lo revierte según fn.
func (b *batchTx) Row(ctx context.Context, fn func(productRepo repository.ProductRepository) error) error {
	sp, err := b.tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("savepoint: %w", mapErr(err))
	}
	defer func() { _ = sp.Rollback(ctx) }()

	if err := fn(NewProductRepository(sp)); err != nil {
		return err
	}
	if err := sp.Commit(ctx); err != nil {
		return fmt.Errorf("release savepoint: %w", mapErr(err))
	}
	return nil
}
