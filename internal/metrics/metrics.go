package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestCounter cuenta las peticiones HTTP
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// ImportRows cuenta los productos importados por resultado (created, failed)
	ImportRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_import_rows_total",
			Help: "Rows processed by bulk imports, by outcome",
		},
		[]string{"outcome"},
	)

	// ImportImages cuenta cómo se resolvió la imagen de cada fila
	ImportImages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_import_images_total",
			Help: "Image resolution results during bulk imports",
		},
		[]string{"result"},
	)

	ImportDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "catalog_import_duration_seconds",
			Help:    "Duration of complete import batches",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		},
	)
)

// Resultados de resolución de imagen
const (
	ImageUploaded     = "uploaded"
	ImageNoHint       = "no_hint"
	ImageNotFound     = "not_found"
	ImageUploadFailed = "upload_failed"
)

var registerOnce sync.Once

// Register registra los colectores en el registro por defecto una sola vez
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCounter, RequestDuration, ImportRows, ImportImages, ImportDuration)
	})
}

// Middleware mide cada petición; usa la ruta registrada para no explotar etiquetas
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		RequestCounter.WithLabelValues(c.Request.Method, path, status).Inc()
		RequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler expone las métricas para Prometheus
func Handler() http.Handler {
	return promhttp.Handler()
}
