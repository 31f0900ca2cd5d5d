package category

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jhoicas/catalogo-api/internal/application/dto"
	"github.com/jhoicas/catalogo-api/internal/domain"
	"github.com/jhoicas/catalogo-api/internal/domain/catalog"
	"github.com/jhoicas/catalogo-api/internal/domain/entity"
)

// ListTree árbol de la taxonomía con conteos directos y jerárquicos. Se sirve desde la caché
// de corta duración cuando está disponible.
func (uc *UseCase) ListTree(ctx context.Context, taxonomy entity.Taxonomy, vendorID *int64) (*dto.CategoryTreeResponse, error) {
	if !taxonomy.Valid() {
		return nil, domain.ErrInvalidInput
	}
	key := "tree:" + string(taxonomy) + ":all"
	if vendorID != nil {
		key = "tree:" + string(taxonomy) + ":" + strconv.FormatInt(*vendorID, 10)
	}
	var cached dto.CategoryTreeResponse
	if ok, err := uc.cache.Get(ctx, key, &cached); err != nil {
		uc.log.Warn().Err(err).Str("key", key).Msg("lectura de caché fallida")
	} else if ok {
		return &cached, nil
	}

	cats, err := uc.categoryRepo.ListByTaxonomy(ctx, taxonomy, vendorID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	counts, err := uc.productRepo.CountByCategory(ctx, taxonomy)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	out := &dto.CategoryTreeResponse{
		Taxonomy: string(taxonomy),
		Roots:    toTreeNodes(catalog.BuildTree(cats, counts, uc.opts.MaxDepth)),
	}
	if err := uc.cache.Set(ctx, key, out); err != nil {
		uc.log.Warn().Err(err).Str("key", key).Msg("escritura de caché fallida")
	}
	return out, nil
}

// HierarchicalCount productos asignados a la categoría (direct) y a todo su subárbol (total).
func (uc *UseCase) HierarchicalCount(ctx context.Context, id int64) (*dto.HierarchicalCountResponse, error) {
	key := "count:" + strconv.FormatInt(id, 10)
	var cached dto.HierarchicalCountResponse
	if ok, err := uc.cache.Get(ctx, key, &cached); err != nil {
		uc.log.Warn().Err(err).Str("key", key).Msg("lectura de caché fallida")
	} else if ok {
		return &cached, nil
	}

	c, err := uc.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	closure, err := uc.Expand(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	direct, err := uc.productRepo.CountByCategoryIDs(ctx, c.Taxonomy, []int64{id})
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	total, err := uc.productRepo.CountByCategoryIDs(ctx, c.Taxonomy, closure)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	out := &dto.HierarchicalCountResponse{
		CategoryID:    id,
		Direct:        direct,
		Total:         total,
		DescendantIDs: closure,
	}
	if err := uc.cache.Set(ctx, key, out); err != nil {
		uc.log.Warn().Err(err).Str("key", key).Msg("escritura de caché fallida")
	}
	return out, nil
}
