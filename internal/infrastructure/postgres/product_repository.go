package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/catalogo-api/internal/domain"
	"github.com/jhoicas/catalogo-api/internal/domain/entity"
	"github.com/jhoicas/catalogo-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id, sku, name, description, price, cost, compare_price, weight, length, width, height,
	stock_quantity, vendor_id, vendor_category_id, store_category_id, published, featured, created_at, updated_at`

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// categoryColumn columna de categoría de la taxonomía. Solo valores fijos: se interpola en SQL.
func categoryColumn(t entity.Taxonomy) string {
	if t == entity.TaxonomyVendor {
		return "vendor_category_id"
	}
	return "store_category_id"
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.Price, &p.Cost, &p.ComparePrice,
		&p.Weight, &p.Length, &p.Width, &p.Height, &p.StockQuantity, &p.VendorID,
		&p.VendorCategoryID, &p.StoreCategoryID, &p.Published, &p.Featured, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create persiste un nuevo producto. SKU repetido → domain.ErrDuplicate; categoría
// inexistente → domain.ErrInvalidInput; categoría de otra taxonomía → domain.ErrTaxonomyMismatch.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	query := `
		INSERT INTO products (sku, name, description, price, cost, compare_price, weight, length, width, height,
			stock_quantity, vendor_id, vendor_category_id, store_category_id, published, featured, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		p.SKU, p.Name, p.Description, p.Price, p.Cost, p.ComparePrice, p.Weight, p.Length, p.Width, p.Height,
		p.StockQuantity, p.VendorID, p.VendorCategoryID, p.StoreCategoryID, p.Published, p.Featured,
		p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert product: %w", mapErr(err))
	}
	return nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", mapErr(err))
	}
	return p, nil
}

// GetBySKU obtiene un producto por SKU.
func (r *ProductRepo) GetBySKU(ctx context.Context, sku string) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE sku = $1`, sku))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product by sku: %w", mapErr(err))
	}
	return p, nil
}

// Update reescribe los campos editables; sku y created_at no cambian.
func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	query := `
		UPDATE products SET name = $2, description = $3, price = $4, cost = $5, compare_price = $6,
			weight = $7, length = $8, width = $9, height = $10, stock_quantity = $11, vendor_id = $12,
			vendor_category_id = $13, store_category_id = $14, published = $15, featured = $16, updated_at = $17
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		p.ID, p.Name, p.Description, p.Price, p.Cost, p.ComparePrice, p.Weight, p.Length, p.Width, p.Height,
		p.StockQuantity, p.VendorID, p.VendorCategoryID, p.StoreCategoryID, p.Published, p.Featured, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", mapErr(err))
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ReassignCategories apunta al centinela de su taxonomía cada referencia a ids.
func (r *ProductRepo) ReassignCategories(ctx context.Context, ids []int64, vendorSentinelID, storeSentinelID int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := `
		UPDATE products SET
			vendor_category_id = CASE WHEN vendor_category_id = ANY($1) THEN $2 ELSE vendor_category_id END,
			store_category_id  = CASE WHEN store_category_id  = ANY($1) THEN $3 ELSE store_category_id END,
			updated_at = now()
		WHERE vendor_category_id = ANY($1) OR store_category_id = ANY($1)`
	cmd, err := r.q.Exec(ctx, query, ids, vendorSentinelID, storeSentinelID)
	if err != nil {
		return 0, fmt.Errorf("reassign categories: %w", mapErr(err))
	}
	return cmd.RowsAffected(), nil
}

// MoveCategory cambia fromID por toID en la columna de la taxonomía.
func (r *ProductRepo) MoveCategory(ctx context.Context, taxonomy entity.Taxonomy, fromID, toID int64) (int64, error) {
	col := categoryColumn(taxonomy)
	query := fmt.Sprintf(`UPDATE products SET %s = $2, updated_at = now() WHERE %s = $1`, col, col)
	cmd, err := r.q.Exec(ctx, query, fromID, toID)
	if err != nil {
		return 0, fmt.Errorf("move category: %w", mapErr(err))
	}
	return cmd.RowsAffected(), nil
}

// CountByCategory productos por categoría directa.
func (r *ProductRepo) CountByCategory(ctx context.Context, taxonomy entity.Taxonomy) (map[int64]int, error) {
	col := categoryColumn(taxonomy)
	query := fmt.Sprintf(`SELECT %s, count(*) FROM products WHERE %s IS NOT NULL GROUP BY %s`, col, col, col)
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count by category: %w", mapErr(err))
	}
	defer rows.Close()
	out := make(map[int64]int)
	for rows.Next() {
		var id int64
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		out[id] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count by category: %w", mapErr(err))
	}
	return out, nil
}

// CountByCategoryIDs productos cuya categoría de la taxonomía está en ids.
func (r *ProductRepo) CountByCategoryIDs(ctx context.Context, taxonomy entity.Taxonomy, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := fmt.Sprintf(`SELECT count(*) FROM products WHERE %s = ANY($1)`, categoryColumn(taxonomy))
	var n int
	if err := r.q.QueryRow(ctx, query, ids).Scan(&n); err != nil {
		return 0, fmt.Errorf("count by category ids: %w", mapErr(err))
	}
	return n, nil
}

// ListByCategoryIDs productos de las categorías ids, paginados por id.
func (r *ProductRepo) ListByCategoryIDs(ctx context.Context, taxonomy entity.Taxonomy, ids []int64, limit, offset int) ([]*entity.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM products WHERE %s = ANY($1) ORDER BY id LIMIT $2 OFFSET $3`,
		productColumns, categoryColumn(taxonomy))
	rows, err := r.q.Query(ctx, query, ids, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", mapErr(err))
	}
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list products: %w", mapErr(err))
	}
	return list, nil
}
