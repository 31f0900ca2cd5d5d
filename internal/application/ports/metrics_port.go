package ports

import "time"

// Resultados de resolución de categorías.
const (
	ResolutionHit      = "hit"
	ResolutionLookup   = "lookup"
	ResolutionCreated  = "created"
	ResolutionConflict = "conflict"
	ResolutionFailed   = "failed"
)

// Desenlaces de fila de importación.
const (
	RowImported = "imported"
	RowUpdated  = "updated"
	RowSkipped  = "skipped"
	RowFailed   = "failed"
)

// CatalogMetrics puerto de métricas de catálogo e importación.
type CatalogMetrics interface {
	ObserveResolution(result string)
	ObserveRows(outcome string, n int)
	ObserveBatch(ok bool, elapsed time.Duration)
	ObserveJob(status string)
}

// NoopMetrics descarta las observaciones.
type NoopMetrics struct{}

func (NoopMetrics) ObserveResolution(string) {}
func (NoopMetrics) ObserveRows(string, int) {}
func (NoopMetrics) ObserveBatch(bool, time.Duration) {}
func (NoopMetrics) ObserveJob(string) {}
