package category

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jhoicas/catalogo-api/internal/application/dto"
	"github.com/jhoicas/catalogo-api/internal/application/ports"
	"github.com/jhoicas/catalogo-api/internal/domain"
	"github.com/jhoicas/catalogo-api/internal/domain/entity"
	"github.com/jhoicas/catalogo-api/internal/domain/repository"
)

// Alcances de merge.
const (
	ScopeVendor = "vendor"
	ScopeStore  = "store"
	ScopeBoth   = "both"
)

func scopeIncludes(scope string, t entity.Taxonomy) (bool, error) {
	switch scope {
	case "", ScopeBoth:
		return true, nil
	case ScopeVendor, ScopeStore:
		return scope == string(t), nil
	default:
		return false, fmt.Errorf("alcance %q: %w", scope, domain.ErrInvalidInput)
	}
}

// Merge mueve a targetID todos los productos que referencian sourceID. La categoría origen
// no se borra. Se rechaza con domain.ErrHasChildren si el origen tiene subcategorías, sin
// mutar nada.
func (uc *UseCase) Merge(ctx context.Context, sourceID, targetID int64, scope string) (*dto.MergeCategoriesResponse, error) {
	if sourceID == targetID {
		return nil, fmt.Errorf("origen y destino iguales: %w", domain.ErrInvalidInput)
	}
	out := &dto.MergeCategoriesResponse{SourceID: sourceID, TargetID: targetID}

	err := uc.txRunner.Run(ctx, func(categoryRepo repository.CategoryRepository, productRepo repository.ProductRepository) error {
		source, err := categoryRepo.GetByID(ctx, sourceID)
		if err != nil {
			return err
		}
		target, err := categoryRepo.GetByID(ctx, targetID)
		if err != nil {
			return err
		}
		if source == nil || target == nil {
			return domain.ErrNotFound
		}
		if source.Taxonomy != target.Taxonomy {
			return domain.ErrTaxonomyMismatch
		}
		ok, err := scopeIncludes(scope, source.Taxonomy)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("alcance %q no cubre la taxonomía %s: %w", scope, source.Taxonomy, domain.ErrInvalidInput)
		}
		children, err := categoryRepo.CountChildren(ctx, sourceID)
		if err != nil {
			return err
		}
		if children > 0 {
			return domain.ErrHasChildren
		}

		moved, err := productRepo.MoveCategory(ctx, source.Taxonomy, sourceID, targetID)
		if err != nil {
			return fmt.Errorf("move products: %w", err)
		}
		out.MovedProductCount = moved
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Int64("source", sourceID).Int64("target", targetID).Int64("moved_products", out.MovedProductCount).
		Msg("categorías fusionadas")
	uc.afterMutation(ctx, ports.EventCategoryMerged, strconv.FormatInt(sourceID, 10), out)
	return out, nil
}
