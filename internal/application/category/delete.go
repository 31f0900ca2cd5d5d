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

// Delete borra en cascada las categorías ids y todos sus descendientes. Los productos que
// referencian cualquier nodo borrado pasan a la categoría "Uncategorized" de su taxonomía.
// Reasignación y borrado van en una sola transacción: si algo falla no queda nada a medias
// y se devuelve domain.ErrDeleteFailed. Las categorías centinela nunca se borran.
func (uc *UseCase) Delete(ctx context.Context, ids []int64) (*dto.DeleteCategoriesResponse, error) {
	seeds := uniqueIDs(ids)
	if len(seeds) == 0 {
		return nil, domain.ErrInvalidInput
	}

	found, err := uc.categoryRepo.FindByIDs(ctx, seeds)
	if err != nil {
		return nil, fmt.Errorf("find categories: %w", err)
	}
	if len(found) != len(seeds) {
		return nil, domain.ErrNotFound
	}

	sentinels, err := uc.Sentinels(ctx)
	if err != nil {
		return nil, fmt.Errorf("ensure sentinels: %w", err)
	}
	protected := map[int64]struct{}{
		sentinels[entity.TaxonomyVendor]: {},
		sentinels[entity.TaxonomyStore]:  {},
	}
	seeds = withoutIDs(seeds, protected)
	out := &dto.DeleteCategoriesResponse{DeletedIDs: []int64{}}
	if len(seeds) == 0 {
		return out, nil
	}

	err = uc.txRunner.Run(ctx, func(categoryRepo repository.CategoryRepository, productRepo repository.ProductRepository) error {
		closure, err := Expand(ctx, categoryRepo, seeds, uc.opts.MaxDepth)
		if err != nil {
			return err
		}
		closure = withoutIDs(closure, protected)

		moved, err := productRepo.ReassignCategories(ctx, closure,
			sentinels[entity.TaxonomyVendor], sentinels[entity.TaxonomyStore])
		if err != nil {
			return fmt.Errorf("reassign products: %w", err)
		}
		deleted, err := categoryRepo.DeleteByIDs(ctx, closure)
		if err != nil {
			return fmt.Errorf("delete categories: %w", err)
		}
		out.DeletedCount = deleted
		out.MovedProductCount = moved
		out.DeletedIDs = closure
		return nil
	})
	if err != nil {
		uc.log.Error().Err(err).Ints64("ids", seeds).Msg("borrado en cascada revertido")
		return nil, fmt.Errorf("%w: %w", domain.ErrDeleteFailed, err)
	}

	uc.log.Info().Int64("deleted", out.DeletedCount).Int64("moved_products", out.MovedProductCount).
		Msg("categorías borradas")
	uc.afterMutation(ctx, ports.EventCategoriesDeleted, strconv.FormatInt(seeds[0], 10), out)
	return out, nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func withoutIDs(ids []int64, drop map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := drop[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
