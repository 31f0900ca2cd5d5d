package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/catalogo-api/internal/domain"
	"github.com/jhoicas/catalogo-api/internal/domain/catalog"
	"github.com/jhoicas/catalogo-api/internal/domain/entity"
	"github.com/jhoicas/catalogo-api/internal/domain/repository"
)

var (
	_ repository.CategoryRepository  = (*CategoryRepo)(nil)
	_ repository.DescendantTraverser = (*CategoryRepo)(nil)
)

const categoryColumns = `id, name, taxonomy, parent_id, depth, owning_vendor_id, status, created_at, updated_at`

// CategoryRepo implementación del puerto CategoryRepository sobre PostgreSQL (usable con pool o tx).
type CategoryRepo struct {
	q Querier
}

// NewCategoryRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCategoryRepository(q Querier) *CategoryRepo {
	return &CategoryRepo{q: q}
}

func scanCategory(row pgx.Row) (*entity.Category, error) {
	var c entity.Category
	var taxonomy string
	if err := row.Scan(&c.ID, &c.Name, &taxonomy, &c.ParentID, &c.Depth, &c.OwningVendorID,
		&c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Taxonomy = entity.Taxonomy(taxonomy)
	return &c, nil
}

func (r *CategoryRepo) queryCategories(ctx context.Context, op, query string, args ...any) ([]*entity.Category, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}
	defer rows.Close()
	var list []*entity.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}
	return list, nil
}

// Create inserta la categoría. La violación del índice único de deduplicación es domain.ErrDuplicate.
func (r *CategoryRepo) Create(ctx context.Context, c *entity.Category) error {
	status := c.Status
	if status == "" {
		status = entity.CategoryStatusActive
	}
	query := `
		INSERT INTO categories (name, taxonomy, parent_id, depth, owning_vendor_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING id, created_at, updated_at`
	err := r.q.QueryRow(ctx, query,
		c.Name, string(c.Taxonomy), c.ParentID, c.Depth, c.OwningVendorID, status,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert category: %w", mapErr(err))
	}
	c.Status = status
	return nil
}

// GetByID obtiene una categoría por ID; nil, nil si no existe.
func (r *CategoryRepo) GetByID(ctx context.Context, id int64) (*entity.Category, error) {
	c, err := scanCategory(r.q.QueryRow(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get category: %w", mapErr(err))
	}
	return c, nil
}

// FindByNameAndParent búsqueda por la clave de deduplicación.
func (r *CategoryRepo) FindByNameAndParent(ctx context.Context, taxonomy entity.Taxonomy, name string, parentID *int64) (*entity.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories
		WHERE taxonomy = $1 AND name = $2 AND parent_id IS NOT DISTINCT FROM $3`
	c, err := scanCategory(r.q.QueryRow(ctx, query, string(taxonomy), name, parentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find category: %w", mapErr(err))
	}
	return c, nil
}

// FindChildren ids de los hijos directos.
func (r *CategoryRepo) FindChildren(ctx context.Context, id int64) ([]int64, error) {
	return r.queryIDs(ctx, "find children", `SELECT id FROM categories WHERE parent_id = $1 ORDER BY id`, id)
}

// Descendants clausura de descendientes en una sola consulta recursiva. Las semillas se
// incluyen siempre; level cuenta desde ellas (nivel 0).
func (r *CategoryRepo) Descendants(ctx context.Context, ids []int64, maxDepth int) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if maxDepth <= 0 {
		maxDepth = catalog.DefaultMaxDepth
	}
	query := `
		WITH RECURSIVE tree AS (
			SELECT seed.id, 0 AS level
			FROM unnest($1::bigint[]) AS seed(id)
			UNION
			SELECT c.id, t.level + 1
			FROM categories c
			JOIN tree t ON c.parent_id = t.id
			WHERE t.level < $2
		)
		SELECT id FROM tree GROUP BY id ORDER BY min(level), id`
	return r.queryIDs(ctx, "descendants", query, ids, maxDepth)
}

func (r *CategoryRepo) queryIDs(ctx context.Context, op, query string, args ...any) ([]int64, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}
	return ids, nil
}

// FindByIDs categorías existentes entre ids (las inexistentes se omiten).
func (r *CategoryRepo) FindByIDs(ctx context.Context, ids []int64) ([]*entity.Category, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.queryCategories(ctx, "find categories",
		`SELECT `+categoryColumns+` FROM categories WHERE id = ANY($1) ORDER BY id`, ids)
}

// CountChildren cantidad de hijos directos.
func (r *CategoryRepo) CountChildren(ctx context.Context, id int64) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM categories WHERE parent_id = $1`, id).Scan(&n); err != nil {
		return 0, fmt.Errorf("count children: %w", mapErr(err))
	}
	return n, nil
}

// Rename solo toca name y updated_at.
func (r *CategoryRepo) Rename(ctx context.Context, id int64, name string) error {
	return r.exec(ctx, "rename category",
		`UPDATE categories SET name = $2, updated_at = now() WHERE id = $1`, id, name)
}

// UpdateParent cambia padre y profundidad del nodo.
func (r *CategoryRepo) UpdateParent(ctx context.Context, id int64, parentID *int64, depth int) error {
	return r.exec(ctx, "update category parent",
		`UPDATE categories SET parent_id = $2, depth = $3, updated_at = now() WHERE id = $1`, id, parentID, depth)
}

// UpdateDepth recalcula la profundidad de un descendiente movido.
func (r *CategoryRepo) UpdateDepth(ctx context.Context, id int64, depth int) error {
	return r.exec(ctx, "update category depth",
		`UPDATE categories SET depth = $2, updated_at = now() WHERE id = $1`, id, depth)
}

func (r *CategoryRepo) exec(ctx context.Context, op, query string, args ...any) error {
	cmd, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("%s: %w", op, mapErr(err))
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteByIDs borra las categorías en una sola sentencia; las FK se verifican al final de
// la sentencia, así que un subárbol completo se borra sin ordenar.
func (r *CategoryRepo) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	cmd, err := r.q.Exec(ctx, `DELETE FROM categories WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("delete categories: %w", mapErr(err))
	}
	return cmd.RowsAffected(), nil
}

// ListByTaxonomy categorías de la taxonomía; con vendorID, las del vendedor y las compartidas.
func (r *CategoryRepo) ListByTaxonomy(ctx context.Context, taxonomy entity.Taxonomy, vendorID *int64) ([]*entity.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories
		WHERE taxonomy = $1 AND ($2::bigint IS NULL OR owning_vendor_id IS NULL OR owning_vendor_id = $2)
		ORDER BY depth, name, id`
	return r.queryCategories(ctx, "list categories", query, string(taxonomy), vendorID)
}
