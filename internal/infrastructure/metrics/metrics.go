package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jhoicas/catalogo-api/internal/application/ports"
)

var _ ports.CatalogMetrics = (*CatalogMetrics)(nil)

// CatalogMetrics colectores Prometheus de importación y resolución de categorías.
type CatalogMetrics struct {
	ImportRows          *prometheus.CounterVec
	ImportBatchDuration *prometheus.HistogramVec
	ImportJobs          *prometheus.CounterVec
	CategoryResolutions *prometheus.CounterVec
}

// New registra los colectores en reg (prometheus.DefaultRegisterer en producción).
func New(reg prometheus.Registerer) *CatalogMetrics {
	factory := promauto.With(reg)
	return &CatalogMetrics{
		// catalog_import_rows_total{outcome="imported|updated|skipped|failed"}
		ImportRows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_import_rows_total",
				Help: "Filas de importación por desenlace",
			},
			[]string{"outcome"},
		),
		ImportBatchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "catalog_import_batch_duration_seconds",
				Help:    "Duración de cada transacción de lote",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"result"},
		),
		ImportJobs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_import_jobs_total",
				Help: "Trabajos de importación por estado final",
			},
			[]string{"status"},
		),
		CategoryResolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_category_resolutions_total",
				Help: "Resoluciones de nodos de categoría por resultado",
			},
			[]string{"result"},
		),
	}
}

func (m *CatalogMetrics) ObserveResolution(result string) {
	m.CategoryResolutions.WithLabelValues(result).Inc()
}

func (m *CatalogMetrics) ObserveRows(outcome string, n int) {
	if n <= 0 {
		return
	}
	m.ImportRows.WithLabelValues(outcome).Add(float64(n))
}

func (m *CatalogMetrics) ObserveBatch(ok bool, elapsed time.Duration) {
	result := "rollback"
	if ok {
		result = "commit"
	}
	m.ImportBatchDuration.WithLabelValues(result).Observe(elapsed.Seconds())
}

func (m *CatalogMetrics) ObserveJob(status string) {
	m.ImportJobs.WithLabelValues(status).Inc()
}

// HTTPRequests contador de peticiones HTTP para el middleware del router.
type HTTPRequests struct {
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTPRequests registra http_requests_total y http_request_duration_seconds.
func NewHTTPRequests(reg prometheus.Registerer) *HTTPRequests {
	factory := promauto.With(reg)
	return &HTTPRequests{
		total: factory.NewCounterVec(
			prometheus.CounterOpts{Name: "http_requests_total", Help: "Peticiones HTTP"},
			[]string{"method", "path", "status"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duración de peticiones HTTP",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
	}
}

// Observe registra una petición terminada.
func (h *HTTPRequests) Observe(method, path string, status int, elapsed time.Duration) {
	h.total.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	h.duration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}
