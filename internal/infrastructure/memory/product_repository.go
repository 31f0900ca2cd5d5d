package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/catalogo-api/internal/domain"
	"github.com/jhoicas/catalogo-api/internal/domain/entity"
)

// ProductRepo implementación en memoria de repository.ProductRepository.
type ProductRepo struct {
	h handle
}

func checkCategoryRefs(st *state, p *entity.Product) error {
	for _, ref := range []struct {
		id       *int64
		taxonomy entity.Taxonomy
	}{
		{p.VendorCategoryID, entity.TaxonomyVendor},
		{p.StoreCategoryID, entity.TaxonomyStore},
	} {
		if ref.id == nil {
			continue
		}
		c, ok := st.categories[*ref.id]
		if !ok {
			return fmt.Errorf("categoría %s %d inexistente: %w", ref.taxonomy, *ref.id, domain.ErrInvalidInput)
		}
		if c.Taxonomy != ref.taxonomy {
			return fmt.Errorf("categoría %d es de la taxonomía %s, no %s: %w", *ref.id, c.Taxonomy, ref.taxonomy, domain.ErrTaxonomyMismatch)
		}
	}
	return nil
}

func storedProduct(p *entity.Product) entity.Product {
	c := *p
	c.VendorID = copyID(p.VendorID)
	c.VendorCategoryID = copyID(p.VendorCategoryID)
	c.StoreCategoryID = copyID(p.StoreCategoryID)
	return c
}

func (r *ProductRepo) Create(_ context.Context, product *entity.Product) error {
	return r.h.do("product.create", func(st *state) error {
		for _, p := range st.products {
			if p.SKU == product.SKU {
				return domain.ErrDuplicate
			}
		}
		if err := checkCategoryRefs(st, product); err != nil {
			return err
		}
		st.nextProductID++
		product.ID = st.nextProductID
		if product.CreatedAt.IsZero() {
			product.CreatedAt = time.Now()
			product.UpdatedAt = product.CreatedAt
		}
		st.products[product.ID] = storedProduct(product)
		return nil
	})
}

func (r *ProductRepo) GetByID(_ context.Context, id int64) (*entity.Product, error) {
	var out *entity.Product
	err := r.h.do("product.get", func(st *state) error {
		if p, ok := st.products[id]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r *ProductRepo) GetBySKU(_ context.Context, sku string) (*entity.Product, error) {
	var out *entity.Product
	err := r.h.do("product.get_sku", func(st *state) error {
		for _, p := range st.products {
			if p.SKU == sku {
				p := p
				out = &p
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *ProductRepo) Update(_ context.Context, product *entity.Product) error {
	return r.h.do("product.update", func(st *state) error {
		if _, ok := st.products[product.ID]; !ok {
			return domain.ErrNotFound
		}
		if err := checkCategoryRefs(st, product); err != nil {
			return err
		}
		product.UpdatedAt = time.Now()
		st.products[product.ID] = storedProduct(product)
		return nil
	})
}

func (r *ProductRepo) ReassignCategories(_ context.Context, ids []int64, vendorSentinelID, storeSentinelID int64) (int64, error) {
	var n int64
	err := r.h.do("product.reassign", func(st *state) error {
		drop := make(map[int64]struct{}, len(ids))
		for _, id := range ids {
			drop[id] = struct{}{}
		}
		for id, p := range st.products {
			touched := false
			if p.VendorCategoryID != nil {
				if _, ok := drop[*p.VendorCategoryID]; ok {
					p.VendorCategoryID = copyID(&vendorSentinelID)
					touched = true
				}
			}
			if p.StoreCategoryID != nil {
				if _, ok := drop[*p.StoreCategoryID]; ok {
					p.StoreCategoryID = copyID(&storeSentinelID)
					touched = true
				}
			}
			if touched {
				p.UpdatedAt = time.Now()
				st.products[id] = p
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *ProductRepo) MoveCategory(_ context.Context, taxonomy entity.Taxonomy, fromID, toID int64) (int64, error) {
	var n int64
	err := r.h.do("product.move_category", func(st *state) error {
		c, ok := st.categories[toID]
		if !ok {
			return fmt.Errorf("categoría %d inexistente: %w", toID, domain.ErrInvalidInput)
		}
		if c.Taxonomy != taxonomy {
			return fmt.Errorf("categoría %d es de la taxonomía %s: %w", toID, c.Taxonomy, domain.ErrTaxonomyMismatch)
		}
		for id, p := range st.products {
			ref := p.CategoryID(taxonomy)
			if ref == nil || *ref != fromID {
				continue
			}
			p.SetCategoryID(taxonomy, copyID(&toID))
			p.UpdatedAt = time.Now()
			st.products[id] = p
			n++
		}
		return nil
	})
	return n, err
}

func (r *ProductRepo) CountByCategory(_ context.Context, taxonomy entity.Taxonomy) (map[int64]int, error) {
	out := make(map[int64]int)
	err := r.h.do("product.count", func(st *state) error {
		for _, p := range st.products {
			if ref := p.CategoryID(taxonomy); ref != nil {
				out[*ref]++
			}
		}
		return nil
	})
	return out, err
}

func (r *ProductRepo) CountByCategoryIDs(_ context.Context, taxonomy entity.Taxonomy, ids []int64) (int, error) {
	n := 0
	err := r.h.do("product.count", func(st *state) error {
		in := make(map[int64]struct{}, len(ids))
		for _, id := range ids {
			in[id] = struct{}{}
		}
		for _, p := range st.products {
			if ref := p.CategoryID(taxonomy); ref != nil {
				if _, ok := in[*ref]; ok {
					n++
				}
			}
		}
		return nil
	})
	return n, err
}

func (r *ProductRepo) ListByCategoryIDs(_ context.Context, taxonomy entity.Taxonomy, ids []int64, limit, offset int) ([]*entity.Product, error) {
	var all []*entity.Product
	err := r.h.do("product.list", func(st *state) error {
		in := make(map[int64]struct{}, len(ids))
		for _, id := range ids {
			in[id] = struct{}{}
		}
		for _, p := range st.products {
			ref := p.CategoryID(taxonomy)
			if ref == nil {
				continue
			}
			if _, ok := in[*ref]; ok {
				p := p
				all = append(all, &p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	if offset >= len(all) {
		return []*entity.Product{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}
