package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/catalogo-api/internal/application/category"
	"github.com/jhoicas/catalogo-api/internal/application/dto"
	"github.com/jhoicas/catalogo-api/internal/application/ports"
	"github.com/jhoicas/catalogo-api/internal/domain"
	"github.com/jhoicas/catalogo-api/internal/domain/catalog"
	"github.com/jhoicas/catalogo-api/internal/domain/entity"
	"github.com/jhoicas/catalogo-api/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una transacción con repositorios atados a esa tx.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		categoryRepo repository.CategoryRepository,
		productRepo repository.ProductRepository,
	) error) error
}

// ProductUseCase consultas de productos y renombrado. El alta y la actualización masiva van
// por el importador.
type ProductUseCase struct {
	txRunner     TxRunner
	repo         repository.ProductRepository
	categoryRepo repository.CategoryRepository
	cache        ports.TreeCache
	maxDepth     int
	// propagateRename replica el nombre del producto en su categoría de tienda cuando esa
	// categoría es una hoja usada solo por él.
	propagateRename bool
	log             zerolog.Logger
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(
	txRunner TxRunner,
	repo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	cache ports.TreeCache,
	maxDepth int,
	propagateRename bool,
	log zerolog.Logger,
) *ProductUseCase {
	if maxDepth <= 0 {
		maxDepth = catalog.DefaultMaxDepth
	}
	if cache == nil {
		cache = ports.NoopCache{}
	}
	return &ProductUseCase{
		txRunner:        txRunner,
		repo:            repo,
		categoryRepo:    categoryRepo,
		cache:           cache,
		maxDepth:        maxDepth,
		propagateRename: propagateRename,
		log:             log.With().Str("component", "product").Logger(),
	}
}

// GetByID obtiene un producto por ID; domain.ErrNotFound si no existe.
func (uc *ProductUseCase) GetByID(ctx context.Context, id int64) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return toProductResponse(product), nil
}

// SearchByCategory productos asignados a la categoría o a cualquiera de sus descendientes.
func (uc *ProductUseCase) SearchByCategory(ctx context.Context, in dto.ProductSearchRequest) (*dto.ProductListResponse, error) {
	in.DefaultPage()
	c, err := uc.categoryRepo.GetByID(ctx, in.CategoryID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	if in.Taxonomy != "" && in.Taxonomy != string(c.Taxonomy) {
		return nil, domain.ErrTaxonomyMismatch
	}
	ids, err := category.Expand(ctx, uc.categoryRepo, []int64{c.ID}, uc.maxDepth)
	if err != nil {
		return nil, err
	}
	list, err := uc.repo.ListByCategoryIDs(ctx, c.Taxonomy, ids, in.Limit, in.Offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	total, err := uc.repo.CountByCategoryIDs(ctx, c.Taxonomy, ids)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: in.Limit, Offset: in.Offset, Total: total},
	}, nil
}

// Rename cambia el nombre del producto. Con la propagación activa también renombra su
// categoría de tienda si es una hoja que solo usa este producto; de la categoría solo se
// toca el nombre.
func (uc *ProductUseCase) Rename(ctx context.Context, id int64, name string) (*dto.ProductResponse, error) {
	name = catalog.NormalizeName(name)
	if name == "" {
		return nil, domain.ErrInvalidInput
	}
	var out *entity.Product
	renamedCategory := false
	err := uc.txRunner.Run(ctx, func(categoryRepo repository.CategoryRepository, productRepo repository.ProductRepository) error {
		product, err := productRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrNotFound
		}
		product.Name = name
		product.UpdatedAt = time.Now()
		if err := productRepo.Update(ctx, product); err != nil {
			return err
		}
		out = product

		if !uc.propagateRename || product.StoreCategoryID == nil {
			return nil
		}
		renamedCategory, err = uc.propagate(ctx, categoryRepo, productRepo, *product.StoreCategoryID, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	if renamedCategory {
		if err := uc.cache.Invalidate(ctx); err != nil {
			uc.log.Warn().Err(err).Msg("no se pudo invalidar la caché de árbol")
		}
	}
	return toProductResponse(out), nil
}

// propagate devuelve true si renombró la categoría.
func (uc *ProductUseCase) propagate(ctx context.Context, categoryRepo repository.CategoryRepository, productRepo repository.ProductRepository, categoryID int64, name string) (bool, error) {
	c, err := categoryRepo.GetByID(ctx, categoryID)
	if err != nil || c == nil || c.IsSentinel() || c.Name == name {
		return false, err
	}
	children, err := categoryRepo.CountChildren(ctx, categoryID)
	if err != nil || children > 0 {
		return false, err
	}
	users, err := productRepo.CountByCategoryIDs(ctx, entity.TaxonomyStore, []int64{categoryID})
	if err != nil || users != 1 {
		return false, err
	}
	sibling, err := categoryRepo.FindByNameAndParent(ctx, c.Taxonomy, name, c.ParentID)
	if err != nil {
		return false, err
	}
	if sibling != nil {
		uc.log.Debug().Int64("category_id", categoryID).Str("name", name).
			Msg("nombre ocupado por otra categoría, no se propaga")
		return false, nil
	}
	if err := categoryRepo.Rename(ctx, categoryID, name); err != nil {
		return false, err
	}
	return true, nil
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	return &dto.ProductResponse{
		ID:               p.ID,
		SKU:              p.SKU,
		Name:             p.Name,
		Description:      p.Description,
		Price:            p.Price,
		Cost:             p.Cost,
		ComparePrice:     p.ComparePrice,
		Weight:           p.Weight,
		Length:           p.Length,
		Width:            p.Width,
		Height:           p.Height,
		StockQuantity:    p.StockQuantity,
		VendorID:         p.VendorID,
		VendorCategoryID: p.VendorCategoryID,
		StoreCategoryID:  p.StoreCategoryID,
		Published:        p.Published,
		Featured:         p.Featured,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}
