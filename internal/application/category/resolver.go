package category

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/catalogo-api/internal/application/ports"
	"github.com/jhoicas/catalogo-api/internal/domain"
	"github.com/jhoicas/catalogo-api/internal/domain/catalog"
	"github.com/jhoicas/catalogo-api/internal/domain/entity"
	"github.com/jhoicas/catalogo-api/internal/domain/repository"
)

type resolutionKey struct {
	taxonomy entity.Taxonomy
	name     string
	parentID int64 // 0 para raíces
}

// ResolutionCache memoriza ids resueltos por (taxonomía, nombre, padre). Vive lo que dura un
// trabajo de importación o una petición; no se comparte entre trabajos.
type ResolutionCache struct {
	mu  sync.RWMutex
	ids map[resolutionKey]int64
}

// NewResolutionCache crea una caché vacía.
func NewResolutionCache() *ResolutionCache {
	return &ResolutionCache{ids: make(map[resolutionKey]int64)}
}

func (c *ResolutionCache) get(k resolutionKey) (int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.ids[k]
	return id, ok
}

func (c *ResolutionCache) put(k resolutionKey, id int64) {
	c.mu.Lock()
	c.ids[k] = id
	c.mu.Unlock()
}

// Len cantidad de nodos memorizados.
func (c *ResolutionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.ids)
}

// Resolver get-or-create de cadenas de categorías. Ante una carrera de creación confía en la
// restricción única del almacenamiento: al recibir domain.ErrDuplicate vuelve a buscar (no
// reintenta crear a ciegas) con backoff exponencial y jitter.
type Resolver struct {
	repo    repository.CategoryRepository
	cache   *ResolutionCache
	opts    Options
	metrics ports.CatalogMetrics
	log     zerolog.Logger
}

// NewResolver construye el resolver. Con cache nil se crea una propia.
func NewResolver(
	repo repository.CategoryRepository,
	cache *ResolutionCache,
	opts Options,
	metrics ports.CatalogMetrics,
	log zerolog.Logger,
) *Resolver {
	if cache == nil {
		cache = NewResolutionCache()
	}
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	return &Resolver{
		repo:    repo,
		cache:   cache,
		opts:    opts.withDefaults(),
		metrics: metrics,
		log:     log.With().Str("component", "category_resolver").Logger(),
	}
}

// Cache caché usada por el resolver.
func (r *Resolver) Cache() *ResolutionCache { return r.cache }

// ResolveChain devuelve el id del nodo más profundo de rootName > subNames, creando los que
// falten. Una raíz vacía devuelve nil (producto sin categoría en esa taxonomía).
func (r *Resolver) ResolveChain(ctx context.Context, taxonomy entity.Taxonomy, rootName string, subNames []string, vendorID *int64) (*int64, error) {
	chain, ok := catalog.NewChain(taxonomy, rootName, subNames)
	if !ok {
		return nil, nil
	}
	return r.Resolve(ctx, chain, vendorID)
}

// Resolve como ResolveChain con una cadena ya normalizada.
func (r *Resolver) Resolve(ctx context.Context, chain catalog.Chain, vendorID *int64) (*int64, error) {
	if !chain.Taxonomy.Valid() || len(chain.Names) == 0 {
		return nil, domain.ErrInvalidInput
	}
	if len(chain.Names) > r.opts.MaxDepth {
		return nil, fmt.Errorf("cadena %q supera %d niveles: %w", chain, r.opts.MaxDepth, domain.ErrCategoryResolutionFailed)
	}
	var parent *int64
	for i, name := range chain.Names {
		id, err := r.resolveNode(ctx, chain.Taxonomy, name, parent, i+1, vendorID)
		if err != nil {
			return nil, err
		}
		parent = &id
	}
	return parent, nil
}

// Sentinel devuelve el id de la categoría "Uncategorized" de la taxonomía, creándola si falta.
func (r *Resolver) Sentinel(ctx context.Context, taxonomy entity.Taxonomy) (int64, error) {
	return r.resolveNode(ctx, taxonomy, entity.UncategorizedName, nil, 1, nil)
}

func (r *Resolver) resolveNode(ctx context.Context, taxonomy entity.Taxonomy, name string, parentID *int64, depth int, vendorID *int64) (int64, error) {
	key := resolutionKey{taxonomy: taxonomy, name: name}
	if parentID != nil {
		key.parentID = *parentID
	}
	if id, ok := r.cache.get(key); ok {
		r.metrics.ObserveResolution(ports.ResolutionHit)
		return id, nil
	}

	backoff := r.opts.RetryBackoff
	for attempt := 0; ; attempt++ {
		existing, err := r.repo.FindByNameAndParent(ctx, taxonomy, name, parentID)
		if err != nil {
			return 0, fmt.Errorf("buscar categoría %q: %w", name, err)
		}
		if existing != nil {
			r.cache.put(key, existing.ID)
			r.metrics.ObserveResolution(ports.ResolutionLookup)
			return existing.ID, nil
		}

		now := time.Now()
		c := &entity.Category{
			Name:      name,
			Taxonomy:  taxonomy,
			ParentID:  parentID,
			Depth:     depth,
			Status:    entity.CategoryStatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if taxonomy == entity.TaxonomyVendor {
			c.OwningVendorID = vendorID
		}
		err = r.repo.Create(ctx, c)
		if err == nil {
			r.cache.put(key, c.ID)
			r.metrics.ObserveResolution(ports.ResolutionCreated)
			return c.ID, nil
		}
		if !errors.Is(err, domain.ErrDuplicate) {
			return 0, fmt.Errorf("crear categoría %q: %w", name, err)
		}

		r.metrics.ObserveResolution(ports.ResolutionConflict)
		if attempt >= r.opts.CreateRetries {
			r.metrics.ObserveResolution(ports.ResolutionFailed)
			r.log.Warn().Str("taxonomy", string(taxonomy)).Str("name", name).Int("attempts", attempt+1).
				Msg("resolución de categoría agotó los reintentos")
			return 0, fmt.Errorf("categoría %q tras %d intentos: %w", name, attempt+1, domain.ErrCategoryResolutionFailed)
		}
		r.log.Debug().Str("taxonomy", string(taxonomy)).Str("name", name).Int("attempt", attempt+1).
			Msg("conflicto al crear categoría, se vuelve a buscar")
		if err := sleep(ctx, jitter(backoff)); err != nil {
			return 0, err
		}
		backoff *= 2
	}
}

// jitter devuelve un valor en [d/2, d).
func jitter(d time.Duration) time.Duration {
	if d <= 1 {
		return d
	}
	half := d / 2
	return half + rand.N(d-half)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
