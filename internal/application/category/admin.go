package category

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/catalogo-api/internal/application/dto"
	"github.com/jhoicas/catalogo-api/internal/domain"
	"github.com/jhoicas/catalogo-api/internal/domain/catalog"
	"github.com/jhoicas/catalogo-api/internal/domain/entity"
	"github.com/jhoicas/catalogo-api/internal/domain/repository"
)

// Create crea una categoría. El padre, si se indica, debe existir y ser de la misma taxonomía.
func (uc *UseCase) Create(ctx context.Context, in dto.CreateCategoryRequest) (*dto.CategoryResponse, error) {
	taxonomy, err := entity.ParseTaxonomy(in.Taxonomy)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	name := catalog.NormalizeName(in.Name)
	if name == "" {
		return nil, domain.ErrInvalidInput
	}

	depth := 1
	if in.ParentID != nil {
		parent, err := uc.categoryRepo.GetByID(ctx, *in.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, domain.ErrNotFound
		}
		if parent.Taxonomy != taxonomy {
			return nil, domain.ErrTaxonomyMismatch
		}
		depth = parent.Depth + 1
	}
	if depth > uc.opts.MaxDepth {
		return nil, fmt.Errorf("profundidad %d supera el máximo %d: %w", depth, uc.opts.MaxDepth, domain.ErrInvalidInput)
	}

	now := time.Now()
	c := &entity.Category{
		Name:      name,
		Taxonomy:  taxonomy,
		ParentID:  in.ParentID,
		Depth:     depth,
		Status:    entity.CategoryStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if taxonomy == entity.TaxonomyVendor {
		c.OwningVendorID = in.VendorID
	}
	if err := uc.categoryRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	uc.afterMutation(ctx, "", "", nil)
	return toCategoryResponse(c), nil
}

// GetByID obtiene una categoría; domain.ErrNotFound si no existe.
func (uc *UseCase) GetByID(ctx context.Context, id int64) (*dto.CategoryResponse, error) {
	c, err := uc.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	return toCategoryResponse(c), nil
}

// Rename cambia solo el nombre. La categoría centinela no se renombra.
func (uc *UseCase) Rename(ctx context.Context, id int64, name string) (*dto.CategoryResponse, error) {
	name = catalog.NormalizeName(name)
	if name == "" {
		return nil, domain.ErrInvalidInput
	}
	c, err := uc.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	if c.IsSentinel() {
		return nil, fmt.Errorf("la categoría centinela no se renombra: %w", domain.ErrInvalidInput)
	}
	if err := uc.categoryRepo.Rename(ctx, id, name); err != nil {
		return nil, err
	}
	c.Name = name
	c.UpdatedAt = time.Now()
	uc.afterMutation(ctx, "", "", nil)
	return toCategoryResponse(c), nil
}

// Move cambia el padre de id (nil la convierte en raíz) y recalcula la profundidad de todo
// su subárbol en la misma transacción. Rechaza ciclos con domain.ErrCycle.
func (uc *UseCase) Move(ctx context.Context, id int64, newParentID *int64) (*dto.CategoryResponse, error) {
	var moved *entity.Category
	err := uc.txRunner.Run(ctx, func(categoryRepo repository.CategoryRepository, _ repository.ProductRepository) error {
		c, err := categoryRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if c == nil {
			return domain.ErrNotFound
		}
		if c.IsSentinel() {
			return fmt.Errorf("la categoría centinela no se mueve: %w", domain.ErrInvalidInput)
		}

		closure, err := Expand(ctx, categoryRepo, []int64{id}, uc.opts.MaxDepth)
		if err != nil {
			return err
		}
		if err := catalog.CheckReparent(id, newParentID, closure); err != nil {
			return err
		}

		newDepth := 1
		if newParentID != nil {
			parent, err := categoryRepo.GetByID(ctx, *newParentID)
			if err != nil {
				return err
			}
			if parent == nil {
				return domain.ErrNotFound
			}
			if parent.Taxonomy != c.Taxonomy {
				return domain.ErrTaxonomyMismatch
			}
			newDepth = parent.Depth + 1
		}

		subtree, err := categoryRepo.FindByIDs(ctx, closure)
		if err != nil {
			return err
		}
		depths, err := catalog.SubtreeDepths(id, newDepth, catalog.ChildIndex(subtree), uc.opts.MaxDepth)
		if err != nil {
			return err
		}

		if err := categoryRepo.UpdateParent(ctx, id, newParentID, newDepth); err != nil {
			return err
		}
		for _, n := range subtree {
			if n.ID == id {
				continue
			}
			if d, ok := depths[n.ID]; ok && d != n.Depth {
				if err := categoryRepo.UpdateDepth(ctx, n.ID, d); err != nil {
					return err
				}
			}
		}
		c.ParentID = newParentID
		c.Depth = newDepth
		c.UpdatedAt = time.Now()
		moved = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.afterMutation(ctx, "", "", nil)
	return toCategoryResponse(moved), nil
}
