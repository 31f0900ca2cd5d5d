// Package bootstrap arma los servicios compartidos por la API y catalogctl a partir de la
// configuración: pool de PostgreSQL, caché Redis, publicador Kafka, métricas y casos de uso.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jhoicas/catalogo-api/internal/application/category"
	"github.com/jhoicas/catalogo-api/internal/application/importer"
	"github.com/jhoicas/catalogo-api/internal/application/ports"
	"github.com/jhoicas/catalogo-api/internal/application/usecase"
	"github.com/jhoicas/catalogo-api/internal/infrastructure/cache"
	"github.com/jhoicas/catalogo-api/internal/infrastructure/messaging"
	"github.com/jhoicas/catalogo-api/internal/infrastructure/metrics"
	"github.com/jhoicas/catalogo-api/internal/infrastructure/postgres"
	"github.com/jhoicas/catalogo-api/pkg/config"
	"github.com/jhoicas/catalogo-api/pkg/logger"
)

// Services dependencias ya conectadas.
type Services struct {
	Pool        *pgxpool.Pool
	Categories  *category.UseCase
	Products    *usecase.ProductUseCase
	Importer    *importer.Pipeline
	Registry    *prometheus.Registry
	HTTPMetrics *metrics.HTTPRequests

	closers []func() error
}

// New conecta la infraestructura y construye los casos de uso. Redis y Kafka son opcionales:
// sin configuración (o si Redis no responde) se usan las variantes nulas.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Services, error) {
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	s := &Services{Pool: pool}
	s.closers = append(s.closers, func() error { pool.Close(); return nil })

	var treeCache ports.TreeCache
	if cfg.Redis.Enabled() {
		client, err := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis no disponible, se continúa sin caché")
		} else {
			treeCache = cache.NewRedisCache(client, cfg.Redis.TTL)
			s.closers = append(s.closers, client.Close)
			log.Info().Str("addr", cfg.Redis.Addr).Msg("caché Redis habilitada")
		}
	}

	var events ports.EventPublisher
	if cfg.Kafka.Enabled() {
		pub := messaging.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		events = pub
		s.closers = append(s.closers, pub.Close)
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("eventos Kafka habilitados")
	}

	s.Registry = prometheus.NewRegistry()
	s.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	catalogMetrics := metrics.New(s.Registry)
	s.HTTPMetrics = metrics.NewHTTPRequests(s.Registry)

	catOpts := category.Options{
		MaxDepth:      cfg.Catalog.MaxDepth,
		CreateRetries: cfg.Catalog.CreateRetries,
		RetryBackoff:  cfg.Catalog.RetryBackoff,
	}
	txRunner := postgres.NewTxRunner(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	productRepo := postgres.NewProductRepository(pool)

	s.Categories = category.NewUseCase(txRunner, categoryRepo, productRepo, treeCache, events, catalogMetrics,
		catOpts, log.Zerolog())
	s.Products = usecase.NewProductUseCase(txRunner, productRepo, categoryRepo, treeCache, cfg.Catalog.MaxDepth,
		cfg.Catalog.RenamePropagatesCategory, log.Zerolog())
	s.Importer = importer.NewPipeline(txRunner, categoryRepo, catOpts, treeCache, events, catalogMetrics,
		importer.Options{
			BatchSize:      cfg.Import.BatchSize,
			MaxErrors:      cfg.Import.MaxErrors,
			ResolveWorkers: cfg.Import.ResolveWorkers,
			ProgressBuffer: cfg.Import.ProgressBuffer,
		}, log.Zerolog())
	return s, nil
}

// Close libera las conexiones en orden inverso al de apertura.
func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i]()
	}
}
