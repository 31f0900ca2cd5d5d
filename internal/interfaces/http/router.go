package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/jhoicas/catalogo-api/internal/application/category"
	"github.com/jhoicas/catalogo-api/internal/application/importer"
	"github.com/jhoicas/catalogo-api/internal/application/usecase"
	"github.com/jhoicas/catalogo-api/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	CategoryUC *category.UseCase
	ProductUC  *usecase.ProductUseCase
	Importer   *importer.Pipeline
	JWTSecret  string
	// Gatherer expone /metrics; nil lo omite.
	Gatherer prometheus.Gatherer
	// HTTPMetrics observa cada petición; nil lo omite.
	HTTPMetrics requestObserver
	Log         zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.HTTPMetrics != nil {
		app.Use(RequestMetrics(deps.HTTPMetrics))
	}
	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// Todas las rutas de /api requieren Bearer Token
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))
	anyRole := RequireRole(jwt.RoleAdmin, jwt.RoleVendor)
	adminOnly := RequireRole(jwt.RoleAdmin)

	// Categories: lectura para ambos roles; mutaciones estructurales solo admin
	categories := api.Group("/categories")
	categoryHandler := NewCategoryHandler(deps.CategoryUC)
	categories.Get("/tree", anyRole, categoryHandler.Tree)
	categories.Post("/", anyRole, categoryHandler.Create)
	categories.Post("/delete", adminOnly, categoryHandler.Delete)
	categories.Post("/merge", adminOnly, categoryHandler.Merge)
	categories.Get("/:id", anyRole, categoryHandler.GetByID)
	categories.Get("/:id/count", anyRole, categoryHandler.Count)
	categories.Patch("/:id", adminOnly, categoryHandler.Rename)
	categories.Put("/:id/parent", adminOnly, categoryHandler.Move)
	categories.Delete("/:id", adminOnly, categoryHandler.DeleteOne)

	// Products
	products := api.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	importHandler := NewImportHandler(deps.Importer, deps.Log)
	products.Post("/import", anyRole, importHandler.Import)
	products.Get("/", anyRole, productHandler.Search)
	products.Get("/:id", anyRole, productHandler.GetByID)
	products.Patch("/:id", adminOnly, productHandler.Rename)
}
