package category

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/catalogo-api/internal/application/dto"
	"github.com/jhoicas/catalogo-api/internal/application/ports"
	"github.com/jhoicas/catalogo-api/internal/domain/entity"
	"github.com/jhoicas/catalogo-api/internal/domain/repository"
)

// UseCase operaciones administrativas sobre los árboles de categorías: alta, renombrado,
// cambio de padre, borrado en cascada, merge, listado y conteos jerárquicos.
type UseCase struct {
	txRunner     TxRunner
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
	cache        ports.TreeCache
	events       ports.EventPublisher
	metrics      ports.CatalogMetrics
	opts         Options
	log          zerolog.Logger
}

// NewUseCase construye el caso de uso. cache, events y metrics pueden ser nil.
func NewUseCase(
	txRunner TxRunner,
	categoryRepo repository.CategoryRepository,
	productRepo repository.ProductRepository,
	cache ports.TreeCache,
	events ports.EventPublisher,
	metrics ports.CatalogMetrics,
	opts Options,
	log zerolog.Logger,
) *UseCase {
	if cache == nil {
		cache = ports.NoopCache{}
	}
	if events == nil {
		events = ports.NoopPublisher{}
	}
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	return &UseCase{
		txRunner:     txRunner,
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
		cache:        cache,
		events:       events,
		metrics:      metrics,
		opts:         opts.withDefaults(),
		log:          log.With().Str("component", "category").Logger(),
	}
}

// Expand clausura de descendientes de ids sobre el pool.
func (uc *UseCase) Expand(ctx context.Context, ids []int64) ([]int64, error) {
	return Expand(ctx, uc.categoryRepo, ids, uc.opts.MaxDepth)
}

// Sentinels garantiza la categoría "Uncategorized" de ambas taxonomías.
func (uc *UseCase) Sentinels(ctx context.Context) (map[entity.Taxonomy]int64, error) {
	res := NewResolver(uc.categoryRepo, nil, uc.opts, uc.metrics, uc.log)
	out := make(map[entity.Taxonomy]int64, 2)
	for _, t := range entity.Taxonomies() {
		id, err := res.Sentinel(ctx, t)
		if err != nil {
			return nil, err
		}
		out[t] = id
	}
	return out, nil
}

// afterMutation invalida la caché de árbol y publica el evento; los fallos solo se registran.
func (uc *UseCase) afterMutation(ctx context.Context, eventType, key string, payload any) {
	if err := uc.cache.Invalidate(ctx); err != nil {
		uc.log.Warn().Err(err).Msg("no se pudo invalidar la caché de árbol")
	}
	if eventType == "" {
		return
	}
	ev := ports.CatalogEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		Key:        key,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
	if err := uc.events.Publish(ctx, ev); err != nil {
		uc.log.Warn().Err(err).Str("event", eventType).Msg("no se pudo publicar el evento")
	}
}

func toCategoryResponse(c *entity.Category) *dto.CategoryResponse {
	return &dto.CategoryResponse{
		ID:             c.ID,
		Name:           c.Name,
		Taxonomy:       string(c.Taxonomy),
		ParentID:       c.ParentID,
		Depth:          c.Depth,
		OwningVendorID: c.OwningVendorID,
		Status:         c.Status,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func toTreeNodes(nodes []*entity.CategoryNode) []dto.CategoryTreeNode {
	out := make([]dto.CategoryTreeNode, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, dto.CategoryTreeNode{
			ID:                n.ID,
			Name:              n.Name,
			ParentID:          n.ParentID,
			Depth:             n.Depth,
			DirectCount:       n.DirectCount,
			HierarchicalCount: n.HierarchicalCount,
			Children:          toTreeNodes(n.Children),
		})
	}
	return out
}
