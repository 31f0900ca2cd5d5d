package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/catalogo-api/internal/domain"
	"github.com/jhoicas/catalogo-api/internal/domain/entity"
)

// CategoryRepo implementación en memoria de repository.CategoryRepository.
type CategoryRepo struct {
	h handle
}

func sameParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func copyID(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func findDuplicate(st *state, taxonomy entity.Taxonomy, name string, parentID *int64, except int64) bool {
	for id, c := range st.categories {
		if id != except && c.Taxonomy == taxonomy && c.Name == name && sameParent(c.ParentID, parentID) {
			return true
		}
	}
	return false
}

func (r *CategoryRepo) Create(_ context.Context, category *entity.Category) error {
	return r.h.do("category.create", func(st *state) error {
		if category.ParentID != nil {
			if _, ok := st.categories[*category.ParentID]; !ok {
				return fmt.Errorf("padre %d inexistente: %w", *category.ParentID, domain.ErrInvalidInput)
			}
		}
		if findDuplicate(st, category.Taxonomy, category.Name, category.ParentID, 0) {
			return domain.ErrDuplicate
		}
		st.nextCategoryID++
		category.ID = st.nextCategoryID
		if category.CreatedAt.IsZero() {
			category.CreatedAt = time.Now()
			category.UpdatedAt = category.CreatedAt
		}
		c := *category
		c.ParentID = copyID(category.ParentID)
		c.OwningVendorID = copyID(category.OwningVendorID)
		st.categories[c.ID] = c
		return nil
	})
}

func (r *CategoryRepo) GetByID(_ context.Context, id int64) (*entity.Category, error) {
	var out *entity.Category
	err := r.h.do("category.get", func(st *state) error {
		if c, ok := st.categories[id]; ok {
			out = &c
		}
		return nil
	})
	return out, err
}

func (r *CategoryRepo) FindByNameAndParent(_ context.Context, taxonomy entity.Taxonomy, name string, parentID *int64) (*entity.Category, error) {
	var out *entity.Category
	err := r.h.do("category.find", func(st *state) error {
		for _, c := range st.categories {
			if c.Taxonomy == taxonomy && c.Name == name && sameParent(c.ParentID, parentID) {
				c := c
				out = &c
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *CategoryRepo) FindChildren(_ context.Context, id int64) ([]int64, error) {
	var out []int64
	err := r.h.do("category.children", func(st *state) error {
		for cid, c := range st.categories {
			if c.ParentID != nil && *c.ParentID == id {
				out = append(out, cid)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, err
}

func (r *CategoryRepo) FindByIDs(_ context.Context, ids []int64) ([]*entity.Category, error) {
	var out []*entity.Category
	err := r.h.do("category.find_ids", func(st *state) error {
		seen := make(map[int64]struct{}, len(ids))
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if c, ok := st.categories[id]; ok {
				c := c
				out = append(out, &c)
			}
		}
		return nil
	})
	return out, err
}

func (r *CategoryRepo) CountChildren(ctx context.Context, id int64) (int, error) {
	kids, err := r.FindChildren(ctx, id)
	return len(kids), err
}

func (r *CategoryRepo) Rename(_ context.Context, id int64, name string) error {
	return r.h.do("category.rename", func(st *state) error {
		c, ok := st.categories[id]
		if !ok {
			return domain.ErrNotFound
		}
		if findDuplicate(st, c.Taxonomy, name, c.ParentID, id) {
			return domain.ErrDuplicate
		}
		c.Name = name
		c.UpdatedAt = time.Now()
		st.categories[id] = c
		return nil
	})
}

func (r *CategoryRepo) UpdateParent(_ context.Context, id int64, parentID *int64, depth int) error {
	return r.h.do("category.update_parent", func(st *state) error {
		c, ok := st.categories[id]
		if !ok {
			return domain.ErrNotFound
		}
		if parentID != nil {
			if _, ok := st.categories[*parentID]; !ok {
				return fmt.Errorf("padre %d inexistente: %w", *parentID, domain.ErrInvalidInput)
			}
		}
		if findDuplicate(st, c.Taxonomy, c.Name, parentID, id) {
			return domain.ErrDuplicate
		}
		c.ParentID = copyID(parentID)
		c.Depth = depth
		c.UpdatedAt = time.Now()
		st.categories[id] = c
		return nil
	})
}

func (r *CategoryRepo) UpdateDepth(_ context.Context, id int64, depth int) error {
	return r.h.do("category.update_depth", func(st *state) error {
		c, ok := st.categories[id]
		if !ok {
			return domain.ErrNotFound
		}
		c.Depth = depth
		st.categories[id] = c
		return nil
	})
}

// DeleteByIDs respeta las mismas claves foráneas que el esquema SQL: no se borra una
// categoría con hijos fuera del conjunto ni una referenciada por productos.
func (r *CategoryRepo) DeleteByIDs(_ context.Context, ids []int64) (int64, error) {
	var n int64
	err := r.h.do("category.delete", func(st *state) error {
		drop := make(map[int64]struct{}, len(ids))
		for _, id := range ids {
			if _, ok := st.categories[id]; ok {
				drop[id] = struct{}{}
			}
		}
		for id, c := range st.categories {
			if _, gone := drop[id]; gone || c.ParentID == nil {
				continue
			}
			if _, parentGone := drop[*c.ParentID]; parentGone {
				return fmt.Errorf("categoría %d aún referencia a %d: %w", id, *c.ParentID, domain.ErrInvalidInput)
			}
		}
		for _, p := range st.products {
			for _, ref := range []*int64{p.VendorCategoryID, p.StoreCategoryID} {
				if ref == nil {
					continue
				}
				if _, gone := drop[*ref]; gone {
					return fmt.Errorf("producto %d aún referencia a %d: %w", p.ID, *ref, domain.ErrInvalidInput)
				}
			}
		}
		for id := range drop {
			delete(st.categories, id)
		}
		n = int64(len(drop))
		return nil
	})
	return n, err
}

func (r *CategoryRepo) ListByTaxonomy(_ context.Context, taxonomy entity.Taxonomy, vendorID *int64) ([]*entity.Category, error) {
	var out []*entity.Category
	err := r.h.do("category.list", func(st *state) error {
		for _, c := range st.categories {
			if c.Taxonomy != taxonomy {
				continue
			}
			if vendorID != nil && c.OwningVendorID != nil && *c.OwningVendorID != *vendorID {
				continue
			}
			c := c
			out = append(out, &c)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}
