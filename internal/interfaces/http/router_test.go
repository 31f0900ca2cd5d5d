package http_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/catalogo-api/internal/application/category"
	"github.com/jhoicas/catalogo-api/internal/application/dto"
	"github.com/jhoicas/catalogo-api/internal/application/importer"
	"github.com/jhoicas/catalogo-api/internal/application/usecase"
	"github.com/jhoicas/catalogo-api/internal/infrastructure/memory"
	"github.com/jhoicas/catalogo-api/internal/infrastructure/metrics"
	apphttp "github.com/jhoicas/catalogo-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/catalogo-api/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

type apiFixture struct {
	app   *fiber.App
	store *memory.Store
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	store := memory.NewStore()
	catOpts := category.Options{MaxDepth: 10, CreateRetries: 3}
	reg := prometheus.NewRegistry()

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		CategoryUC:  category.NewUseCase(store, store.Categories(), store.Products(), nil, nil, nil, catOpts, zerolog.Nop()),
		ProductUC:   usecase.NewProductUseCase(store, store.Products(), store.Categories(), nil, 10, false, zerolog.Nop()),
		Importer:    importer.NewPipeline(store, store.Categories(), catOpts, nil, nil, nil, importer.Options{BatchSize: 2}, zerolog.Nop()),
		JWTSecret:   testJWTSecret,
		Gatherer:    reg,
		HTTPMetrics: metrics.NewHTTPRequests(reg),
		Log:         zerolog.Nop(),
	})
	return &apiFixture{app: app, store: store}
}

func (f *apiFixture) call(t *testing.T, method, path, role string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", tokenForRole(t, role))
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (f *apiFixture) createCategory(t *testing.T, name, taxonomy string, parent *int64) int64 {
	t.Helper()
	resp := f.call(t, http.MethodPost, "/api/categories", pkgjwt.RoleAdmin,
		dto.CreateCategoryRequest{Name: name, Taxonomy: taxonomy, ParentID: parent})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[dto.CategoryResponse](t, resp).ID
}

// ──────────────────────────────────────────────────────────────────────────────
// Categorías
// ──────────────────────────────────────────────────────────────────────────────

func TestCategories_CrearYListarArbol(t *testing.T) {
	f := newAPI(t)
	root := f.createCategory(t, "Electronics", "store", nil)
	f.createCategory(t, "Phones", "store", &root)

	resp := f.call(t, http.MethodPost, "/api/categories", pkgjwt.RoleAdmin,
		dto.CreateCategoryRequest{Name: "Phones", Taxonomy: "store", ParentID: &root})
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "clave de deduplicación repetida")

	resp = f.call(t, http.MethodGet, "/api/categories/tree?taxonomy=store", pkgjwt.RoleVendor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tree := decode[dto.CategoryTreeResponse](t, resp)
	require.Len(t, tree.Roots, 1)
	assert.Equal(t, "Electronics", tree.Roots[0].Name)
	require.Len(t, tree.Roots[0].Children, 1)
	assert.Equal(t, "Phones", tree.Roots[0].Children[0].Name)
}

func TestCategories_Validacion(t *testing.T) {
	f := newAPI(t)

	resp := f.call(t, http.MethodPost, "/api/categories", pkgjwt.RoleAdmin,
		dto.CreateCategoryRequest{Name: "X", Taxonomy: "warehouse"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "VALIDATION", body.Code)

	resp = f.call(t, http.MethodGet, "/api/categories/tree", pkgjwt.RoleAdmin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.call(t, http.MethodGet, "/api/categories/abc", pkgjwt.RoleAdmin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_ID", decode[dto.ErrorResponse](t, resp).Code)

	resp = f.call(t, http.MethodGet, "/api/categories/999", pkgjwt.RoleAdmin, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCategories_DeleteYMergeSoloAdmin(t *testing.T) {
	f := newAPI(t)
	root := f.createCategory(t, "Hogar", "store", nil)
	child := f.createCategory(t, "Cocina", "store", &root)
	other := f.createCategory(t, "Jardín", "store", nil)

	resp := f.call(t, http.MethodPost, "/api/categories/delete", pkgjwt.RoleVendor,
		dto.DeleteCategoriesRequest{IDs: []int64{root}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = f.call(t, http.MethodPost, "/api/categories/merge", pkgjwt.RoleAdmin,
		dto.MergeCategoriesRequest{SourceID: root, TargetID: other})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "HAS_CHILDREN", decode[dto.ErrorResponse](t, resp).Code)

	resp = f.call(t, http.MethodPost, "/api/categories/delete", pkgjwt.RoleAdmin,
		dto.DeleteCategoriesRequest{IDs: []int64{root}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[dto.DeleteCategoriesResponse](t, resp)
	assert.Equal(t, int64(2), out.DeletedCount)
	assert.ElementsMatch(t, []int64{root, child}, out.DeletedIDs)
}

func TestCategories_MoveCicloEsConflicto(t *testing.T) {
	f := newAPI(t)
	a := f.createCategory(t, "A", "vendor", nil)
	b := f.createCategory(t, "B", "vendor", &a)

	resp := f.call(t, http.MethodPut, "/api/categories/"+itoa(a)+"/parent", pkgjwt.RoleAdmin,
		dto.MoveCategoryRequest{ParentID: &b})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CYCLE", decode[dto.ErrorResponse](t, resp).Code)
}

func TestRutasRequierenToken(t *testing.T) {
	f := newAPI(t)
	resp := f.call(t, http.MethodGet, "/api/categories/tree?taxonomy=store", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Productos e importación
// ──────────────────────────────────────────────────────────────────────────────

const importCSV = "sku,name,price,store_category,store_subcategory_1\n" +
	"A-1,Olla,10,Hogar,Cocina\n" +
	"A-2,Sartén,12.5,Hogar,Cocina\n" +
	"A-3,Pala,8,Jardín\n"

func readEvents(t *testing.T, resp *http.Response) []dto.ImportEvent {
	t.Helper()
	defer resp.Body.Close()
	var events []dto.ImportEvent
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) == "" {
			continue
		}
		var ev dto.ImportEvent
		require.NoError(t, json.Unmarshal(sc.Bytes(), &ev))
		events = append(events, ev)
	}
	require.NoError(t, sc.Err())
	return events
}

func TestImport_StreamNDJSON(t *testing.T) {
	f := newAPI(t)
	req := httptest.NewRequest(http.MethodPost, "/api/products/import?mode=create", strings.NewReader(importCSV))
	req.Header.Set("Content-Type", "text/csv")
	req.Header.Set("Authorization", tokenForRole(t, pkgjwt.RoleAdmin))
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/x-ndjson", resp.Header.Get("Content-Type"))

	events := readEvents(t, resp)
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, dto.ImportEventComplete, last.Type)
	require.NotNil(t, last.Summary)
	assert.Equal(t, 3, last.Summary.Imported)
	for _, ev := range events[:len(events)-1] {
		assert.Equal(t, dto.ImportEventProgress, ev.Type, "solo el último evento es terminal")
	}

	// Búsqueda por subárbol sobre lo importado
	resp = f.call(t, http.MethodGet, "/api/categories/tree?taxonomy=store", pkgjwt.RoleAdmin, nil)
	tree := decode[dto.CategoryTreeResponse](t, resp)
	var hogar int64
	for _, n := range tree.Roots {
		if n.Name == "Hogar" {
			hogar = n.ID
			assert.Equal(t, 2, n.HierarchicalCount)
		}
	}
	require.NotZero(t, hogar)

	resp = f.call(t, http.MethodGet, "/api/products?category_id="+itoa(hogar), pkgjwt.RoleVendor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[dto.ProductListResponse](t, resp)
	assert.Equal(t, 2, list.Page.Total)
}

func TestImport_Multipart(t *testing.T) {
	f := newAPI(t)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "productos.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(importCSV))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/products/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", tokenForRole(t, pkgjwt.RoleAdmin))
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)

	events := readEvents(t, resp)
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	require.NotNil(t, last.Summary)
	assert.Equal(t, 3, last.Summary.Imported)
}

func TestImport_ParametrosInvalidos(t *testing.T) {
	f := newAPI(t)
	req := httptest.NewRequest(http.MethodPost, "/api/products/import?mode=upsert", strings.NewReader(importCSV))
	req.Header.Set("Authorization", tokenForRole(t, pkgjwt.RoleAdmin))
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req = httptest.NewRequest(http.MethodPost, "/api/products/import?mapping=%7Bbad", strings.NewReader(importCSV))
	req.Header.Set("Authorization", tokenForRole(t, pkgjwt.RoleAdmin))
	resp, err = f.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestImport_CSVInvalidoEsEventoDeError(t *testing.T) {
	f := newAPI(t)
	req := httptest.NewRequest(http.MethodPost, "/api/products/import", strings.NewReader("foo,bar\n1,2\n"))
	req.Header.Set("Authorization", tokenForRole(t, pkgjwt.RoleAdmin))
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)

	events := readEvents(t, resp)
	require.Len(t, events, 1)
	assert.Equal(t, dto.ImportEventError, events[0].Type)
	require.NotNil(t, events[0].Error)
	assert.Equal(t, importer.CodeInvalidCSV, events[0].Error.Code)
}

func TestProducts_SearchRequiereCategoria(t *testing.T) {
	f := newAPI(t)
	resp := f.call(t, http.MethodGet, "/api/products", pkgjwt.RoleAdmin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Métricas
// ──────────────────────────────────────────────────────────────────────────────

func TestMetricsEndpoint(t *testing.T) {
	f := newAPI(t)
	f.call(t, http.MethodGet, "/api/categories/tree?taxonomy=vendor", pkgjwt.RoleAdmin, nil)

	resp := f.call(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `http_requests_total{method="GET",path="/api/categories/tree",status="200"} 1`)
}
