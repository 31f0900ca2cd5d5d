package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/catalogo-api/internal/application/category"
	"github.com/jhoicas/catalogo-api/internal/application/dto"
	"github.com/jhoicas/catalogo-api/internal/application/ports"
	"github.com/jhoicas/catalogo-api/internal/domain"
	"github.com/jhoicas/catalogo-api/internal/domain/catalog"
	"github.com/jhoicas/catalogo-api/internal/domain/entity"
	"github.com/jhoicas/catalogo-api/internal/domain/repository"
)

// Códigos de error del evento terminal.
const (
	CodeInvalidCSV         = "INVALID_CSV"
	CodeStorageUnavailable = "STORAGE_UNAVAILABLE"
	CodeCancelled          = "CANCELLED"
	CodeInternal           = "INTERNAL_ERROR"
)

// Options parámetros del pipeline.
type Options struct {
	BatchSize      int // filas por transacción
	MaxErrors      int // errores de fila retenidos en el resumen
	ResolveWorkers int // cadenas de categorías resueltas en paralelo
	ProgressBuffer int // capacidad del canal de eventos
}

// DefaultOptions valores por defecto.
func DefaultOptions() Options {
	return Options{BatchSize: 500, MaxErrors: 10, ResolveWorkers: 4, ProgressBuffer: 16}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.BatchSize <= 0 {
		o.BatchSize = d.BatchSize
	}
	if o.MaxErrors <= 0 {
		o.MaxErrors = d.MaxErrors
	}
	if o.ResolveWorkers <= 0 {
		o.ResolveWorkers = d.ResolveWorkers
	}
	if o.ProgressBuffer < 2 {
		o.ProgressBuffer = 2
	}
	return o
}

// Job trabajo de importación en memoria; no se persiste.
type Job struct {
	ID       string
	Rows     []Row
	Mode     entity.ImportMode
	VendorID *int64
}

// Pipeline importación por lotes: recepción → resolución de categorías → lotes
// transaccionales → resumen.
type Pipeline struct {
	runner       BatchRunner
	categoryRepo repository.CategoryRepository
	catOpts      category.Options
	cache        ports.TreeCache
	events       ports.EventPublisher
	metrics      ports.CatalogMetrics
	opts         Options
	log          zerolog.Logger
}

// NewPipeline construye el pipeline. categoryRepo debe operar fuera de transacción: las
// categorías resueltas quedan confirmadas antes de procesar filas.
func NewPipeline(
	runner BatchRunner,
	categoryRepo repository.CategoryRepository,
	catOpts category.Options,
	cache ports.TreeCache,
	events ports.EventPublisher,
	metrics ports.CatalogMetrics,
	opts Options,
	log zerolog.Logger,
) *Pipeline {
	if cache == nil {
		cache = ports.NoopCache{}
	}
	if events == nil {
		events = ports.NoopPublisher{}
	}
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	return &Pipeline{
		runner:       runner,
		categoryRepo: categoryRepo,
		catOpts:      catOpts,
		cache:        cache,
		events:       events,
		metrics:      metrics,
		opts:         opts.withDefaults(),
		log:          log.With().Str("component", "importer").Logger(),
	}
}

// Start recibe el CSV y ejecuta el trabajo en segundo plano. El canal entrega eventos de
// progreso (descartables si el consumidor se atrasa) y exactamente un evento terminal, tras
// el cual se cierra.
func (p *Pipeline) Start(ctx context.Context, src io.Reader, mapping Mapping, mode entity.ImportMode, vendorID *int64) <-chan dto.ImportEvent {
	job := Job{ID: uuid.NewString(), Mode: mode, VendorID: vendorID}
	ch := make(chan dto.ImportEvent, p.opts.ProgressBuffer)
	go func() {
		defer close(ch)
		rows, err := ReadCSV(src, mapping)
		if err != nil {
			p.metrics.ObserveJob(string(entity.ImportStatusFailed))
			ch <- dto.ImportEvent{
				Type:  dto.ImportEventError,
				JobID: job.ID,
				Error: &dto.ErrorResponse{Code: CodeInvalidCSV, Message: err.Error()},
			}
			return
		}
		job.Rows = rows
		p.stream(ctx, job, ch)
	}()
	return ch
}

// Run como Start con filas ya recibidas.
func (p *Pipeline) Run(ctx context.Context, job Job) <-chan dto.ImportEvent {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	ch := make(chan dto.ImportEvent, p.opts.ProgressBuffer)
	go func() {
		defer close(ch)
		p.stream(ctx, job, ch)
	}()
	return ch
}

func (p *Pipeline) stream(ctx context.Context, job Job, ch chan<- dto.ImportEvent) {
	progress := func(pr entity.ImportProgress) {
		// Se reserva siempre un hueco para el evento terminal.
		if len(ch) < cap(ch)-1 {
			ch <- dto.ImportEvent{Type: dto.ImportEventProgress, JobID: job.ID, Progress: &pr}
		}
	}
	summary, err := p.Execute(ctx, job, progress)
	if err != nil {
		ch <- dto.ImportEvent{
			Type:    dto.ImportEventError,
			JobID:   job.ID,
			Summary: summary,
			Error:   &dto.ErrorResponse{Code: errorCode(err), Message: err.Error()},
		}
		return
	}
	ch <- dto.ImportEvent{Type: dto.ImportEventComplete, JobID: job.ID, Summary: summary}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrStorageUnavailable):
		return CodeStorageUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeCancelled
	case errors.Is(err, domain.ErrInvalidInput):
		return CodeInvalidCSV
	default:
		return CodeInternal
	}
}

func isFatal(err error) bool {
	return errors.Is(err, domain.ErrStorageUnavailable) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// errorList lista acotada de errores de fila.
type errorList struct {
	max   int
	count int
	items []entity.ImportRowError
}

func (l *errorList) add(row Row, sku string, err error) {
	l.count++
	if len(l.items) < l.max {
		l.items = append(l.items, entity.ImportRowError{Row: row.Line, SKU: sku, Message: err.Error()})
	}
}

type rowFailure struct {
	plan rowPlan
	err  error
}

// resolution resultado de resolver una cadena.
type resolution struct {
	id  *int64
	err error
}

// jobRefs referencias de categoría del trabajo, preparadas antes de los lotes.
type jobRefs struct {
	chains   map[string]resolution     // por clave de cadena
	explicit map[int64]entity.Taxonomy // taxonomía de cada id explícito existente
}

// Execute ejecuta el trabajo de forma síncrona. progress se llama tras cada lote (puede ser
// nil). Devuelve error solo si el trabajo falla como un todo (almacenamiento caído o
// cancelación); el resumen parcial se devuelve igualmente.
func (p *Pipeline) Execute(ctx context.Context, job Job, progress func(entity.ImportProgress)) (*entity.ImportSummary, error) {
	if job.Mode == "" {
		job.Mode = entity.ImportModeCreate
	}
	log := p.log.With().Str("job_id", job.ID).Str("mode", string(job.Mode)).Logger()
	start := time.Now()
	summary := &entity.ImportSummary{JobID: job.ID, Total: len(job.Rows)}
	errs := &errorList{max: p.opts.MaxErrors}
	finish := func(status entity.ImportStatus) {
		summary.ErrorCount = errs.count
		summary.Errors = errs.items
		if summary.Errors == nil {
			summary.Errors = []entity.ImportRowError{}
		}
		summary.ProcessingTimeSeconds = time.Since(start).Seconds()
		p.metrics.ObserveJob(string(status))
	}
	log.Info().Int("rows", len(job.Rows)).Msg("importación iniciada")

	plans := make([]rowPlan, len(job.Rows))
	for i, row := range job.Rows {
		plans[i] = planRow(row)
	}
	refs, err := p.resolveChains(ctx, plans, job.VendorID, log)
	if err == nil {
		err = p.lookupExplicit(ctx, plans, refs)
	}
	if err != nil {
		summary.Unprocessed = len(plans)
		finish(entity.ImportStatusFailed)
		p.invalidate(ctx, log)
		log.Error().Err(err).Msg("importación fallida resolviendo categorías")
		return summary, err
	}

	processed := 0
	for lo := 0; lo < len(plans); lo += p.opts.BatchSize {
		if err := ctx.Err(); err != nil {
			summary.Unprocessed = len(plans) - processed
			finish(entity.ImportStatusFailed)
			p.invalidate(ctx, log)
			log.Warn().Err(err).Int("processed", processed).Msg("importación cancelada por el llamador")
			return summary, err
		}
		hi := min(lo+p.opts.BatchSize, len(plans))
		batch := plans[lo:hi]

		var local entity.ImportSummary
		var failures []rowFailure
		batchStart := time.Now()
		// El lote en curso termina (commit o rollback) aunque el llamador se desconecte.
		batchCtx := context.WithoutCancel(ctx)
		err := p.runner.RunBatch(batchCtx, func(tx BatchTx) error {
			local = entity.ImportSummary{}
			failures = failures[:0]
			for _, plan := range batch {
				outcome, rowErr := p.processRow(batchCtx, tx, plan, job, refs)
				if rowErr != nil && isFatal(rowErr) {
					return rowErr
				}
				switch outcome {
				case ports.RowImported:
					local.Imported++
				case ports.RowUpdated:
					local.Updated++
				case ports.RowSkipped:
					local.Skipped++
				case ports.RowFailed:
					failures = append(failures, rowFailure{plan: plan, err: rowErr})
				}
			}
			return nil
		})
		p.metrics.ObserveBatch(err == nil, time.Since(batchStart))
		processed += len(batch)

		if err != nil {
			for _, plan := range batch {
				errs.add(plan.row, plan.sku, fmt.Errorf("%w: %w", domain.ErrBatchTransactionFailed, err))
			}
			p.metrics.ObserveRows(ports.RowFailed, len(batch))
			if isFatal(err) {
				summary.Unprocessed = len(plans) - processed
				finish(entity.ImportStatusFailed)
				p.invalidate(ctx, log)
				log.Error().Err(err).Int("batch_start", lo).Msg("importación abortada: almacenamiento no disponible")
				return summary, err
			}
			log.Warn().Err(err).Int("batch_start", lo).Int("rows", len(batch)).Msg("lote revertido")
		} else {
			summary.Imported += local.Imported
			summary.Updated += local.Updated
			summary.Skipped += local.Skipped
			for _, f := range failures {
				errs.add(f.plan.row, f.plan.sku, f.err)
			}
			p.metrics.ObserveRows(ports.RowImported, local.Imported)
			p.metrics.ObserveRows(ports.RowUpdated, local.Updated)
			p.metrics.ObserveRows(ports.RowSkipped, local.Skipped)
			p.metrics.ObserveRows(ports.RowFailed, len(failures))
			log.Debug().Int("batch_start", lo).Int("rows", len(batch)).Msg("lote confirmado")
		}

		if progress != nil {
			elapsed := time.Since(start).Seconds()
			rate := 0.0
			if elapsed > 0 {
				rate = float64(processed) / elapsed
			}
			progress(entity.ImportProgress{
				ProcessedCount: processed,
				TotalCount:     len(plans),
				Imported:       summary.Imported,
				Updated:        summary.Updated,
				Skipped:        summary.Skipped,
				ErrorCount:     errs.count,
				Rate:           rate,
			})
		}
	}

	finish(entity.ImportStatusCompleted)
	log.Info().Int("imported", summary.Imported).Int("updated", summary.Updated).
		Int("skipped", summary.Skipped).Int("errors", summary.ErrorCount).
		Float64("seconds", summary.ProcessingTimeSeconds).Msg("importación completada")

	p.invalidate(ctx, log)
	ev := ports.CatalogEvent{
		ID:         uuid.NewString(),
		Type:       ports.EventImportCompleted,
		Key:        job.ID,
		OccurredAt: time.Now().UTC(),
		Payload:    summary,
	}
	if err := p.events.Publish(ctx, ev); err != nil {
		log.Warn().Err(err).Msg("no se pudo publicar el evento de importación")
	}
	return summary, nil
}

// invalidate descarta los listados cacheados; también tras un trabajo abortado, cuyos lotes
// confirmados y categorías creadas ya son visibles.
func (p *Pipeline) invalidate(ctx context.Context, log zerolog.Logger) {
	if err := p.cache.Invalidate(context.WithoutCancel(ctx)); err != nil {
		log.Warn().Err(err).Msg("no se pudo invalidar la caché de árbol")
	}
}

// lookupExplicit carga la taxonomía de los ids de categoría explícitos de las filas. Un id
// inexistente no figura en el resultado: lo rechaza el almacén al escribir la fila.
func (p *Pipeline) lookupExplicit(ctx context.Context, plans []rowPlan, refs *jobRefs) error {
	seen := make(map[int64]struct{})
	var ids []int64
	for _, plan := range plans {
		for _, ref := range plan.categories {
			if !ref.explicit || ref.id == nil {
				continue
			}
			if _, ok := seen[*ref.id]; !ok {
				seen[*ref.id] = struct{}{}
				ids = append(ids, *ref.id)
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}
	cats, err := p.categoryRepo.FindByIDs(ctx, ids)
	if err != nil {
		if isFatal(err) {
			return err
		}
		return fmt.Errorf("lookup explicit categories: %w", err)
	}
	for _, c := range cats {
		refs.explicit[c.ID] = c.Taxonomy
	}
	return nil
}

// resolveChains resuelve cada cadena distinta una sola vez, en paralelo acotado, antes de
// abrir transacciones de lote. Un fallo de resolución afecta solo a las filas de esa cadena;
// un fallo de almacenamiento aborta el trabajo.
func (p *Pipeline) resolveChains(ctx context.Context, plans []rowPlan, vendorID *int64, log zerolog.Logger) (*jobRefs, error) {
	distinct := make(map[string]catalog.Chain)
	for _, plan := range plans {
		if plan.missing != "" {
			continue
		}
		for _, c := range plan.chains() {
			distinct[c.Key()] = c
		}
	}
	refs := &jobRefs{
		chains:   make(map[string]resolution, len(distinct)),
		explicit: make(map[int64]entity.Taxonomy),
	}
	if len(distinct) == 0 {
		return refs, nil
	}

	resolver := category.NewResolver(p.categoryRepo, category.NewResolutionCache(), p.catOpts, p.metrics, log)
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.ResolveWorkers)
	for key, chain := range distinct {
		g.Go(func() error {
			id, err := resolver.Resolve(gctx, chain, vendorID)
			if err != nil && isFatal(err) {
				return err
			}
			mu.Lock()
			refs.chains[key] = resolution{id: id, err: err}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.Debug().Int("chains", len(distinct)).Int("nodes", resolver.Cache().Len()).Msg("categorías resueltas")
	return refs, nil
}

// ownedBy un trabajo sin proveedor (administrador) puede tocar cualquier producto; uno con
// proveedor solo los suyos.
func ownedBy(product *entity.Product, vendorID *int64) bool {
	if vendorID == nil {
		return true
	}
	return product.VendorID != nil && *product.VendorID == *vendorID
}

// errSkipRow deshace el punto de guardado de una fila que termina omitida.
var errSkipRow = errors.New("fila omitida")

// processRow aplica una fila dentro de su punto de guardado y devuelve el desenlace.
func (p *Pipeline) processRow(ctx context.Context, tx BatchTx, plan rowPlan, job Job, refs *jobRefs) (string, error) {
	if plan.missing != "" {
		return ports.RowSkipped, fmt.Errorf("%s: %w", plan.missing, domain.ErrValidation)
	}

	categoryIDs := make(map[entity.Taxonomy]*int64, 2)
	for t, ref := range plan.categories {
		switch {
		case ref.explicit:
			if ref.id != nil {
				if got, ok := refs.explicit[*ref.id]; ok && got != t {
					return ports.RowFailed, fmt.Errorf("categoría %d es de la taxonomía %s, no %s: %w",
						*ref.id, got, t, domain.ErrTaxonomyMismatch)
				}
			}
			categoryIDs[t] = ref.id
		case !ref.hasChain:
			categoryIDs[t] = nil
		default:
			res, ok := refs.chains[ref.chain.Key()]
			if !ok {
				return ports.RowFailed, fmt.Errorf("cadena %q sin resolver: %w", ref.chain, domain.ErrCategoryResolutionFailed)
			}
			if res.err != nil {
				return ports.RowFailed, res.err
			}
			categoryIDs[t] = res.id
		}
	}

	outcome := ports.RowFailed
	err := tx.Row(ctx, func(productRepo repository.ProductRepository) error {
		existing, err := productRepo.GetBySKU(ctx, plan.sku)
		if err != nil {
			return err
		}
		switch job.Mode {
		case entity.ImportModeUpdate:
			if existing == nil {
				return errSkipRow
			}
			if !ownedBy(existing, job.VendorID) {
				return fmt.Errorf("sku %s pertenece a otro proveedor: %w", plan.sku, domain.ErrForbidden)
			}
			applyRow(existing, plan.row, job.VendorID, false)
			for t, id := range categoryIDs {
				existing.SetCategoryID(t, id)
			}
			if err := productRepo.Update(ctx, existing); err != nil {
				return err
			}
			outcome = ports.RowUpdated
		default:
			if existing != nil {
				return errSkipRow
			}
			product := &entity.Product{SKU: plan.sku}
			applyRow(product, plan.row, job.VendorID, true)
			for t, id := range categoryIDs {
				product.SetCategoryID(t, id)
			}
			if err := productRepo.Create(ctx, product); err != nil {
				if errors.Is(err, domain.ErrDuplicate) {
					return errSkipRow
				}
				return err
			}
			outcome = ports.RowImported
		}
		return nil
	})
	if errors.Is(err, errSkipRow) {
		return ports.RowSkipped, nil
	}
	if err != nil {
		return ports.RowFailed, err
	}
	return outcome, nil
}
