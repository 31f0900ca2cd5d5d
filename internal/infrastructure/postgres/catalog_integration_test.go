package postgres_test

import (
	"context"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/catalogo-api/internal/application/category"
	"github.com/jhoicas/catalogo-api/internal/application/importer"
	"github.com/jhoicas/catalogo-api/internal/domain"
	"github.com/jhoicas/catalogo-api/internal/domain/catalog"
	"github.com/jhoicas/catalogo-api/internal/domain/entity"
	"github.com/jhoicas/catalogo-api/internal/domain/repository"
	"github.com/jhoicas/catalogo-api/internal/infrastructure/postgres"
	"github.com/jhoicas/catalogo-api/pkg/config"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers: base real en un esquema propio por test
// ──────────────────────────────────────────────────────────────────────────────

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func canDialPostgres(tb testing.TB) bool {
	tb.Helper()

	addr := net.JoinHostPort(envOr("DB_HOST", "localhost"), envOr("DB_PORT", "5432"))
	dialer := &net.Dialer{Timeout: 250 * time.Millisecond}
	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

func testDSN() string {
	port, _ := strconv.Atoi(envOr("DB_PORT", "5432"))
	return config.DBConfig{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Host:        envOr("DB_HOST", "localhost"),
		Port:        port,
		User:        envOr("DB_USER", "postgres"),
		Password:    envOr("DB_PASSWORD", "postgres"),
		DBName:      envOr("DB_NAME", "postgres"),
		SSLMode:     envOr("DB_SSLMODE", "disable"),
	}.ConnectionString()
}

// newTestPool crea un esquema vacío, aplica las migraciones en él y devuelve un pool cuyo
// search_path apunta a ese esquema. El esquema se elimina al terminar el test.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if !canDialPostgres(t) {
		if strings.TrimSpace(os.Getenv("CI")) != "" {
			t.Fatalf("postgres is not reachable (DB_HOST/DB_PORT)")
		}
		t.Skip("postgres is not reachable; skipping catalog integration test")
	}

	ctx := context.Background()
	admin, err := pgxpool.New(ctx, testDSN())
	require.NoError(t, err)
	schema := "it_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+pgx.Identifier{schema}.Sanitize())
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = admin.Exec(context.Background(), "DROP SCHEMA "+pgx.Identifier{schema}.Sanitize()+" CASCADE")
		admin.Close()
	})

	cfg, err := pgxpool.ParseConfig(testDSN())
	require.NoError(t, err)
	cfg.ConnConfig.RuntimeParams["search_path"] = schema
	cfg.MaxConns = 8
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.Migrate(ctx, pool))
	v, err := postgres.MigrationVersion(ctx, pool)
	require.NoError(t, err)
	require.Equal(t, int64(2), v)
	return pool
}

func mustCategory(t *testing.T, repo *postgres.CategoryRepo, tax entity.Taxonomy, name string, parent *int64, depth int) int64 {
	t.Helper()
	c := &entity.Category{Name: name, Taxonomy: tax, ParentID: parent, Depth: depth}
	require.NoError(t, repo.Create(context.Background(), c))
	return c.ID
}

func ref(v int64) *int64 { return &v }

// ──────────────────────────────────────────────────────────────────────────────
// Descendientes: consulta recursiva frente al recorrido iterativo
// ──────────────────────────────────────────────────────────────────────────────

func TestDescendants_CoincideConRecorridoIterativo(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewCategoryRepository(newTestPool(t))

	// Hogar > {Cocina > Ollas > Tapas, Baño}; Jardín; ciclo X > Y > X.
	home := mustCategory(t, repo, entity.TaxonomyStore, "Hogar", nil, 1)
	kitchen := mustCategory(t, repo, entity.TaxonomyStore, "Cocina", &home, 2)
	pots := mustCategory(t, repo, entity.TaxonomyStore, "Ollas", &kitchen, 3)
	mustCategory(t, repo, entity.TaxonomyStore, "Tapas", &pots, 4)
	mustCategory(t, repo, entity.TaxonomyStore, "Baño", &home, 2)
	garden := mustCategory(t, repo, entity.TaxonomyStore, "Jardín", nil, 1)
	x := mustCategory(t, repo, entity.TaxonomyStore, "X", nil, 1)
	y := mustCategory(t, repo, entity.TaxonomyStore, "Y", &x, 2)
	require.NoError(t, repo.UpdateParent(ctx, x, &y, 3))

	cases := []struct {
		name     string
		seeds    []int64
		maxDepth int
	}{
		{"subárbol completo", []int64{home}, 10},
		{"profundidad acotada", []int64{home}, 1},
		{"hoja", []int64{garden}, 10},
		{"semillas solapadas", []int64{home, kitchen, kitchen}, 10},
		{"ciclo", []int64{x}, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			native, err := repo.Descendants(ctx, tc.seeds, tc.maxDepth)
			require.NoError(t, err)
			iterative, err := catalog.Expand(ctx, tc.seeds, tc.maxDepth, repo.FindChildren)
			require.NoError(t, err)
			assert.ElementsMatch(t, iterative, native)
		})
	}

	got, err := repo.Descendants(ctx, []int64{x}, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{x, y}, got)
}

// ──────────────────────────────────────────────────────────────────────────────
// Clave de deduplicación y conflictos concurrentes
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_ClaveDeDeduplicacion(t *testing.T) {
	repo := postgres.NewCategoryRepository(newTestPool(t))

	root := mustCategory(t, repo, entity.TaxonomyStore, "Hogar", nil, 1)
	err := repo.Create(context.Background(), &entity.Category{Name: "Hogar", Taxonomy: entity.TaxonomyStore, Depth: 1})
	assert.ErrorIs(t, err, domain.ErrDuplicate, "raíces con el mismo nombre colisionan")

	mustCategory(t, repo, entity.TaxonomyVendor, "Hogar", nil, 1)
	mustCategory(t, repo, entity.TaxonomyStore, "Hogar", &root, 2)
}

func TestCreate_ConcurrenteSoloUnoGana(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewCategoryRepository(newTestPool(t))

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = repo.Create(ctx, &entity.Category{Name: "Electrónica", Taxonomy: entity.TaxonomyVendor, Depth: 1})
		}()
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrDuplicate)
	}
	assert.Equal(t, 1, created)
}

func TestResolveChain_ConcurrenteSobrePostgres(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewCategoryRepository(newTestPool(t))
	opts := category.Options{MaxDepth: 10, CreateRetries: 5, RetryBackoff: time.Millisecond}

	const workers = 6
	var wg sync.WaitGroup
	ids := make([]*int64, workers)
	errs := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Cada worker con su propia caché: todos compiten en la base.
			r := category.NewResolver(repo, nil, opts, nil, zerolog.Nop())
			ids[i], errs[i] = r.ResolveChain(ctx, entity.TaxonomyStore, "Herramientas", []string{"Eléctricas", "Taladros"}, nil)
		}()
	}
	wg.Wait()

	for i := range workers {
		require.NoError(t, errs[i])
		require.NotNil(t, ids[i])
		assert.Equal(t, *ids[0], *ids[i])
	}
	all, err := repo.ListByTaxonomy(ctx, entity.TaxonomyStore, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

// ──────────────────────────────────────────────────────────────────────────────
// Reasignación de productos
// ──────────────────────────────────────────────────────────────────────────────

func TestReassignYMoveCategory(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	cats := postgres.NewCategoryRepository(pool)
	products := postgres.NewProductRepository(pool)

	vSentinel := mustCategory(t, cats, entity.TaxonomyVendor, entity.UncategorizedName, nil, 1)
	sSentinel := mustCategory(t, cats, entity.TaxonomyStore, entity.UncategorizedName, nil, 1)
	vCat := mustCategory(t, cats, entity.TaxonomyVendor, "Gear", nil, 1)
	sCat := mustCategory(t, cats, entity.TaxonomyStore, "Shoes", nil, 1)
	sOther := mustCategory(t, cats, entity.TaxonomyStore, "Boots", nil, 1)

	p1 := &entity.Product{SKU: "R-1", Name: "uno", VendorCategoryID: ref(vCat), StoreCategoryID: ref(sCat)}
	p2 := &entity.Product{SKU: "R-2", Name: "dos", StoreCategoryID: ref(sOther)}
	require.NoError(t, products.Create(ctx, p1))
	require.NoError(t, products.Create(ctx, p2))

	n, err := products.ReassignCategories(ctx, []int64{vCat, sCat}, vSentinel, sSentinel)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	got, err := products.GetByID(ctx, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, vSentinel, *got.VendorCategoryID)
	assert.Equal(t, sSentinel, *got.StoreCategoryID)

	n, err = products.MoveCategory(ctx, entity.TaxonomyStore, sOther, sCat)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	got, err = products.GetByID(ctx, p2.ID)
	require.NoError(t, err)
	assert.Equal(t, sCat, *got.StoreCategoryID)

	_, err = products.MoveCategory(ctx, entity.TaxonomyStore, sCat, vCat)
	assert.ErrorIs(t, err, domain.ErrTaxonomyMismatch)
}

func TestProducto_CategoriaDeOtraTaxonomia(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	cats := postgres.NewCategoryRepository(pool)
	products := postgres.NewProductRepository(pool)
	shoes := mustCategory(t, cats, entity.TaxonomyStore, "Shoes", nil, 1)

	err := products.Create(ctx, &entity.Product{SKU: "X-1", Name: "cruzado", VendorCategoryID: ref(shoes)})
	assert.ErrorIs(t, err, domain.ErrTaxonomyMismatch)

	ok := &entity.Product{SKU: "X-2", Name: "correcto", StoreCategoryID: ref(shoes)}
	require.NoError(t, products.Create(ctx, ok))
	ok.VendorCategoryID = ref(shoes)
	assert.ErrorIs(t, products.Update(ctx, ok), domain.ErrTaxonomyMismatch)
}

// ──────────────────────────────────────────────────────────────────────────────
// Lotes con punto de guardado por fila
// ──────────────────────────────────────────────────────────────────────────────

func TestRunBatch_FilaFallidaSoloRevierteSuPuntoDeGuardado(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	runner := postgres.NewTxRunner(pool)

	var rowErrs []error
	err := runner.RunBatch(ctx, func(tx importer.BatchTx) error {
		for _, p := range []*entity.Product{
			{SKU: "S-1", Name: "ok"},
			{SKU: "S-2", Name: "categoría inexistente", StoreCategoryID: ref(424242)},
			{SKU: "S-1", Name: "sku repetido"},
			{SKU: "S-3", Name: "ok"},
		} {
			rowErrs = append(rowErrs, tx.Row(ctx, func(productRepo repository.ProductRepository) error {
				return productRepo.Create(ctx, p)
			}))
		}
		return nil
	})
	require.NoError(t, err)
	require.Len(t, rowErrs, 4)
	assert.NoError(t, rowErrs[0])
	assert.ErrorIs(t, rowErrs[1], domain.ErrInvalidInput)
	assert.ErrorIs(t, rowErrs[2], domain.ErrDuplicate)
	assert.NoError(t, rowErrs[3])

	products := postgres.NewProductRepository(pool)
	for sku, want := range map[string]bool{"S-1": true, "S-2": false, "S-3": true} {
		got, err := products.GetBySKU(ctx, sku)
		require.NoError(t, err)
		assert.Equal(t, want, got != nil, sku)
	}
}

func TestPipeline_SobrePostgres(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	runner := postgres.NewTxRunner(pool)
	cats := postgres.NewCategoryRepository(pool)

	csv := "sku,name,price,vendor_category,vendor_subcategory_1,store_category\n" +
		"P-1,Pixel,499.90,Electronics,Phones,Electronics\n" +
		"P-2,Galaxy,899,Electronics,Phones,Electronics\n" +
		"P-3,Moto,199.5,Electronics,Phones,Electronics\n"
	rows, err := importer.ReadCSV(strings.NewReader(csv), nil)
	require.NoError(t, err)

	p := importer.NewPipeline(runner, cats, category.Options{MaxDepth: 10}, nil, nil, nil,
		importer.Options{BatchSize: 2}, zerolog.Nop())
	job := importer.Job{ID: "it", Rows: rows, Mode: entity.ImportModeCreate}
	summary, err := p.Execute(ctx, job, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Imported)

	// Repetir el mismo archivo no duplica nada.
	summary, err = p.Execute(ctx, job, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Imported)
	assert.Equal(t, 3, summary.Skipped)

	vendor, err := cats.ListByTaxonomy(ctx, entity.TaxonomyVendor, nil)
	require.NoError(t, err)
	assert.Len(t, vendor, 2)
	store, err := cats.ListByTaxonomy(ctx, entity.TaxonomyStore, nil)
	require.NoError(t, err)
	assert.Len(t, store, 1)
}
