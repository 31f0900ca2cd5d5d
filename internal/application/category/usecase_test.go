package category_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/catalogo-api/internal/application/category"
	"github.com/jhoicas/catalogo-api/internal/application/dto"
	"github.com/jhoicas/catalogo-api/internal/application/ports"
	"github.com/jhoicas/catalogo-api/internal/domain"
	"github.com/jhoicas/catalogo-api/internal/domain/entity"
	"github.com/jhoicas/catalogo-api/internal/infrastructure/memory"
)

// recordingPublisher guarda los eventos publicados.
type recordingPublisher struct {
	events []ports.CatalogEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev ports.CatalogEvent) error {
	p.events = append(p.events, ev)
	return nil
}

type fixture struct {
	store  *memory.Store
	uc     *category.UseCase
	events *recordingPublisher
}

func newFixture() *fixture {
	store := memory.NewStore()
	events := &recordingPublisher{}
	uc := category.NewUseCase(store, store.Categories(), store.Products(), nil, events, nil, fastOptions(), zerolog.Nop())
	return &fixture{store: store, uc: uc, events: events}
}

func (f *fixture) category(t *testing.T, tax entity.Taxonomy, name string, parent *int64) int64 {
	t.Helper()
	c, err := f.uc.Create(context.Background(), dto.CreateCategoryRequest{Name: name, Taxonomy: string(tax), ParentID: parent})
	require.NoError(t, err)
	return c.ID
}

func (f *fixture) product(t *testing.T, sku string, vendorCat, storeCat *int64) int64 {
	t.Helper()
	p := &entity.Product{SKU: sku, Name: sku, VendorCategoryID: vendorCat, StoreCategoryID: storeCat}
	require.NoError(t, f.store.Products().Create(context.Background(), p))
	return p.ID
}

func idPtr(v int64) *int64 { return &v }

// ──────────────────────────────────────────────────────────────────────────────
// Borrado en cascada: subárbol con dos niveles de hijos y 5 productos repartidos.
//
//	Electronics ─┬─ Phones ── Android
//	             └─ Laptops
// ──────────────────────────────────────────────────────────────────────────────

func TestDelete_SubarbolMueveProductosAlCentinela(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	electronics := f.category(t, entity.TaxonomyStore, "Electronics", nil)
	phones := f.category(t, entity.TaxonomyStore, "Phones", &electronics)
	android := f.category(t, entity.TaxonomyStore, "Android", &phones)
	laptops := f.category(t, entity.TaxonomyStore, "Laptops", &electronics)
	books := f.category(t, entity.TaxonomyStore, "Books", nil)
	vendorCat := f.category(t, entity.TaxonomyVendor, "Gadgets", nil)

	moved := []int64{
		f.product(t, "P1", nil, &electronics),
		f.product(t, "P2", &vendorCat, &phones),
		f.product(t, "P3", nil, &android),
		f.product(t, "P4", nil, &android),
		f.product(t, "P5", nil, &laptops),
	}
	untouched := f.product(t, "P6", nil, &books)

	res, err := f.uc.Delete(ctx, []int64{electronics})
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.DeletedCount)
	assert.Equal(t, int64(5), res.MovedProductCount)
	assert.ElementsMatch(t, []int64{electronics, phones, android, laptops}, res.DeletedIDs)

	sentinels, err := f.uc.Sentinels(ctx)
	require.NoError(t, err)
	for _, id := range moved {
		p, err := f.store.Products().GetByID(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, p.StoreCategoryID)
		assert.Equal(t, sentinels[entity.TaxonomyStore], *p.StoreCategoryID)
	}

	p2, _ := f.store.Products().GetByID(ctx, moved[1])
	assert.Equal(t, vendorCat, *p2.VendorCategoryID, "el campo de la otra taxonomía no cambia")
	p6, _ := f.store.Products().GetByID(ctx, untouched)
	assert.Equal(t, books, *p6.StoreCategoryID)

	for _, id := range res.DeletedIDs {
		c, err := f.store.Categories().GetByID(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, c)
	}
	require.Len(t, f.events.events, 1)
	assert.Equal(t, ports.EventCategoriesDeleted, f.events.events[0].Type)
}

func TestDelete_IDInexistente(t *testing.T) {
	f := newFixture()
	_, err := f.uc.Delete(context.Background(), []int64{999})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete_NoBorraElCentinela(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	sentinels, err := f.uc.Sentinels(ctx)
	require.NoError(t, err)

	res, err := f.uc.Delete(ctx, []int64{sentinels[entity.TaxonomyStore]})
	require.NoError(t, err)
	assert.Zero(t, res.DeletedCount)

	c, err := f.store.Categories().GetByID(ctx, sentinels[entity.TaxonomyStore])
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestDelete_FalloRevierteTodo(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	root := f.category(t, entity.TaxonomyStore, "Garden", nil)
	child := f.category(t, entity.TaxonomyStore, "Tools", &root)
	pid := f.product(t, "G1", nil, &child)
	_, err := f.uc.Sentinels(ctx)
	require.NoError(t, err)

	f.store.SetFault(func(op string) error {
		if op == "category.delete" {
			return errors.New("disk full")
		}
		return nil
	})
	_, err = f.uc.Delete(ctx, []int64{root})
	assert.ErrorIs(t, err, domain.ErrDeleteFailed)
	f.store.SetFault(nil)

	p, err := f.store.Products().GetByID(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, child, *p.StoreCategoryID, "sin reasignación parcial")
	c, err := f.store.Categories().GetByID(ctx, child)
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestMerge_RechazaOrigenConHijos(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	source := f.category(t, entity.TaxonomyStore, "Phones", nil)
	f.category(t, entity.TaxonomyStore, "Android", &source)
	target := f.category(t, entity.TaxonomyStore, "Mobile", nil)
	pid := f.product(t, "M1", nil, &source)

	_, err := f.uc.Merge(ctx, source, target, category.ScopeBoth)
	assert.ErrorIs(t, err, domain.ErrHasChildren)

	p, _ := f.store.Products().GetByID(ctx, pid)
	assert.Equal(t, source, *p.StoreCategoryID)
	assert.Empty(t, f.events.events)
}

func TestMerge_MueveProductosYConservaOrigen(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	source := f.category(t, entity.TaxonomyVendor, "Cellphones", nil)
	target := f.category(t, entity.TaxonomyVendor, "Phones", nil)
	a := f.product(t, "A", &source, nil)
	b := f.product(t, "B", &source, nil)
	f.product(t, "C", &target, nil)

	res, err := f.uc.Merge(ctx, source, target, category.ScopeVendor)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.MovedProductCount)

	for _, id := range []int64{a, b} {
		p, _ := f.store.Products().GetByID(ctx, id)
		assert.Equal(t, target, *p.VendorCategoryID)
	}
	src, err := f.store.Categories().GetByID(ctx, source)
	require.NoError(t, err)
	assert.NotNil(t, src, "el origen no se borra")
}

func TestMerge_Precondiciones(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	store := f.category(t, entity.TaxonomyStore, "S", nil)
	vendor := f.category(t, entity.TaxonomyVendor, "V", nil)
	store2 := f.category(t, entity.TaxonomyStore, "S2", nil)

	_, err := f.uc.Merge(ctx, store, store, category.ScopeBoth)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.Merge(ctx, store, vendor, category.ScopeBoth)
	assert.ErrorIs(t, err, domain.ErrTaxonomyMismatch)

	_, err = f.uc.Merge(ctx, store, 9999, category.ScopeBoth)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.uc.Merge(ctx, store, store2, category.ScopeVendor)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.Merge(ctx, store, store2, "everything")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMove_RechazaCiclos(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	a := f.category(t, entity.TaxonomyStore, "A", nil)
	b := f.category(t, entity.TaxonomyStore, "B", &a)
	c := f.category(t, entity.TaxonomyStore, "C", &b)

	_, err := f.uc.Move(ctx, a, &c)
	assert.ErrorIs(t, err, domain.ErrCycle)
	_, err = f.uc.Move(ctx, a, &a)
	assert.ErrorIs(t, err, domain.ErrCycle)
}

func TestMove_RecalculaProfundidadDelSubarbol(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	a := f.category(t, entity.TaxonomyStore, "A", nil)
	b := f.category(t, entity.TaxonomyStore, "B", &a)
	c := f.category(t, entity.TaxonomyStore, "C", &b)
	x := f.category(t, entity.TaxonomyStore, "X", nil)
	y := f.category(t, entity.TaxonomyStore, "Y", &x)

	res, err := f.uc.Move(ctx, b, &y)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Depth)

	moved, _ := f.store.Categories().GetByID(ctx, b)
	assert.Equal(t, y, *moved.ParentID)
	leaf, _ := f.store.Categories().GetByID(ctx, c)
	assert.Equal(t, 4, leaf.Depth)

	res, err = f.uc.Move(ctx, b, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Depth)
	leaf, _ = f.store.Categories().GetByID(ctx, c)
	assert.Equal(t, 2, leaf.Depth)
}

func TestMove_OtraTaxonomia(t *testing.T) {
	f := newFixture()
	s := f.category(t, entity.TaxonomyStore, "S", nil)
	v := f.category(t, entity.TaxonomyVendor, "V", nil)
	_, err := f.uc.Move(context.Background(), s, &v)
	assert.ErrorIs(t, err, domain.ErrTaxonomyMismatch)
}

func TestCreate_ValidaPadre(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	v := f.category(t, entity.TaxonomyVendor, "V", nil)

	_, err := f.uc.Create(ctx, dto.CreateCategoryRequest{Name: "S", Taxonomy: "store", ParentID: &v})
	assert.ErrorIs(t, err, domain.ErrTaxonomyMismatch)

	_, err = f.uc.Create(ctx, dto.CreateCategoryRequest{Name: "S", Taxonomy: "store", ParentID: idPtr(404)})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.uc.Create(ctx, dto.CreateCategoryRequest{Name: "V", Taxonomy: "vendor"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = f.uc.Create(ctx, dto.CreateCategoryRequest{Name: "X", Taxonomy: "books"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRename_SoloCambiaElNombre(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	a := f.category(t, entity.TaxonomyStore, "A", nil)
	b := f.category(t, entity.TaxonomyStore, "B", &a)
	f.category(t, entity.TaxonomyStore, "Taken", &a)

	res, err := f.uc.Rename(ctx, b, "  Renamed ")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", res.Name)
	got, _ := f.store.Categories().GetByID(ctx, b)
	assert.Equal(t, a, *got.ParentID)
	assert.Equal(t, 2, got.Depth)

	_, err = f.uc.Rename(ctx, b, "Taken")
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	sentinels, err := f.uc.Sentinels(ctx)
	require.NoError(t, err)
	_, err = f.uc.Rename(ctx, sentinels[entity.TaxonomyVendor], "Otro")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestListTreeYConteoJerarquico(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	electronics := f.category(t, entity.TaxonomyStore, "Electronics", nil)
	phones := f.category(t, entity.TaxonomyStore, "Phones", &electronics)
	android := f.category(t, entity.TaxonomyStore, "Android", &phones)
	f.product(t, "E1", nil, &electronics)
	f.product(t, "P1", nil, &phones)
	f.product(t, "A1", nil, &android)
	f.product(t, "A2", nil, &android)

	tree, err := f.uc.ListTree(ctx, entity.TaxonomyStore, nil)
	require.NoError(t, err)
	require.Len(t, tree.Roots, 1)
	root := tree.Roots[0]
	assert.Equal(t, 1, root.DirectCount)
	assert.Equal(t, 4, root.HierarchicalCount)
	require.Len(t, root.Children, 1)
	assert.Equal(t, 3, root.Children[0].HierarchicalCount)

	count, err := f.uc.HierarchicalCount(ctx, phones)
	require.NoError(t, err)
	assert.Equal(t, 1, count.Direct)
	assert.Equal(t, 3, count.Total)
	assert.ElementsMatch(t, []int64{phones, android}, count.DescendantIDs)

	_, err = f.uc.HierarchicalCount(ctx, 12345)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExpand_FallbackIterativo(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	a := f.category(t, entity.TaxonomyStore, "A", nil)
	b := f.category(t, entity.TaxonomyStore, "B", &a)
	c := f.category(t, entity.TaxonomyStore, "C", &b)
	other := f.category(t, entity.TaxonomyStore, "Other", nil)

	ids, err := f.uc.Expand(ctx, []int64{a})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{a, b, c}, ids)
	assert.NotContains(t, ids, other)
}
