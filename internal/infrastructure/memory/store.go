// Package memory implementa los puertos de persistencia en memoria, con transacciones por
// copia de estado. Lo usan los tests de aplicación y el modo sin base de datos del CLI.
// No implementa repository.DescendantTraverser, de modo que la expansión de descendientes
// recorre el árbol nivel a nivel.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/catalogo-api/internal/application/category"
	"github.com/jhoicas/catalogo-api/internal/application/importer"
	"github.com/jhoicas/catalogo-api/internal/application/usecase"
	"github.com/jhoicas/catalogo-api/internal/domain/entity"
	"github.com/jhoicas/catalogo-api/internal/domain/repository"
)

var (
	_ category.TxRunner             = (*Store)(nil)
	_ usecase.TxRunner              = (*Store)(nil)
	_ importer.BatchRunner          = (*Store)(nil)
	_ importer.BatchTx              = (*batchTx)(nil)
	_ repository.CategoryRepository = (*CategoryRepo)(nil)
	_ repository.ProductRepository  = (*ProductRepo)(nil)
)

// FaultFunc permite inyectar fallos de almacenamiento por operación ("category.create",
// "product.update", "tx.begin", ...). Un error no nulo se devuelve tal cual.
type FaultFunc func(op string) error

type state struct {
	categories     map[int64]entity.Category
	products       map[int64]entity.Product
	nextCategoryID int64
	nextProductID  int64
}

func newState() *state {
	return &state{
		categories: make(map[int64]entity.Category),
		products:   make(map[int64]entity.Product),
	}
}

func (s *state) clone() *state {
	c := &state{
		categories:     make(map[int64]entity.Category, len(s.categories)),
		products:       make(map[int64]entity.Product, len(s.products)),
		nextCategoryID: s.nextCategoryID,
		nextProductID:  s.nextProductID,
	}
	for k, v := range s.categories {
		c.categories[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	return c
}

// Store almacén en memoria. Las transacciones se serializan: Run y RunBatch toman el mutex
// durante toda la transacción, así que dentro de fn solo deben usarse los repos recibidos.
type Store struct {
	mu    sync.Mutex
	st    *state
	fault FaultFunc
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{st: newState()}
}

// SetFault instala (o quita, con nil) el inyector de fallos.
func (s *Store) SetFault(fn FaultFunc) {
	s.mu.Lock()
	s.fault = fn
	s.mu.Unlock()
}

// Categories repositorio fuera de transacción (autocommit por operación).
func (s *Store) Categories() *CategoryRepo {
	return &CategoryRepo{h: storeHandle{s}}
}

// Products repositorio fuera de transacción.
func (s *Store) Products() *ProductRepo {
	return &ProductRepo{h: storeHandle{s}}
}

// Run ejecuta fn sobre una copia del estado y la publica solo si fn no devuelve error.
func (s *Store) Run(ctx context.Context, fn func(
	categoryRepo repository.CategoryRepository,
	productRepo repository.ProductRepository,
) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("tx.begin"); err != nil {
		return err
	}
	h := &txHandle{st: s.st.clone(), fault: s.fault}
	if err := fn(&CategoryRepo{h: h}, &ProductRepo{h: h}); err != nil {
		return err
	}
	if err := s.check("tx.commit"); err != nil {
		return err
	}
	s.st = h.st
	return nil
}

// RunBatch transacción de lote; cada fila corre en su propio punto de guardado.
func (s *Store) RunBatch(ctx context.Context, fn func(tx importer.BatchTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("tx.begin"); err != nil {
		return err
	}
	tx := &batchTx{st: s.st.clone(), fault: s.fault}
	if err := fn(tx); err != nil {
		return err
	}
	if err := s.check("tx.commit"); err != nil {
		return err
	}
	s.st = tx.st
	return nil
}

func (s *Store) check(op string) error {
	if s.fault == nil {
		return nil
	}
	return s.fault(op)
}

type batchTx struct {
	st    *state
	fault FaultFunc
}

// Row ejecuta fn en un punto de guardado: si falla, solo se descarta esa fila.
func (t *batchTx) Row(ctx context.Context, fn func(productRepo repository.ProductRepository) error) error {
	h := &txHandle{st: t.st.clone(), fault: t.fault}
	if err := fn(&ProductRepo{h: h}); err != nil {
		return err
	}
	t.st = h.st
	return nil
}

// handle da acceso al estado, con o sin bloqueo según se esté o no en una transacción.
type handle interface {
	do(op string, fn func(st *state) error) error
}

type storeHandle struct{ s *Store }

func (h storeHandle) do(op string, fn func(st *state) error) error {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	if err := h.s.check(op); err != nil {
		return err
	}
	return fn(h.s.st)
}

type txHandle struct {
	st    *state
	fault FaultFunc
}

func (h *txHandle) do(op string, fn func(st *state) error) error {
	if h.fault != nil {
		if err := h.fault(op); err != nil {
			return err
		}
	}
	return fn(h.st)
}
