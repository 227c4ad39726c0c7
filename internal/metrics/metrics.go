package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Resultados posibles de un parseo de Order.
const (
	ParseOK            = "ok"
	ParseNotWellFormed = "not_well_formed"
	ParseMissingRoot   = "missing_root"
)

type Registry struct {
	reg *prometheus.Registry

	OrdersParsed       *prometheus.CounterVec
	DespatchGenerated  prometheus.Counter
	DuplicatesRejected prometheus.Counter
	Cancellations      prometheus.Counter
	PDFRendered        prometheus.Counter
	EventsFailed       prometheus.Counter
	HTTPLatencySec     *prometheus.HistogramVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	parsed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "despatch_orders_parsed_total",
		Help: "UBL Order documents parsed, by result.",
	}, []string{"result"})
	generated := prometheus.NewCounter(prometheus.CounterOpts{Name: "despatch_generated_total"})
	duplicates := prometheus.NewCounter(prometheus.CounterOpts{Name: "despatch_duplicates_rejected_total"})
	cancellations := prometheus.NewCounter(prometheus.CounterOpts{Name: "despatch_cancellations_total"})
	pdf := prometheus.NewCounter(prometheus.CounterOpts{Name: "despatch_pdf_rendered_total"})
	eventsFailed := prometheus.NewCounter(prometheus.CounterOpts{Name: "despatch_events_failed_total"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "despatch_http_request_duration_seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	r.MustRegister(parsed, generated, duplicates, cancellations, pdf, eventsFailed, latency)
	return &Registry{
		reg:                r,
		OrdersParsed:       parsed,
		DespatchGenerated:  generated,
		DuplicatesRejected: duplicates,
		Cancellations:      cancellations,
		PDFRendered:        pdf,
		EventsFailed:       eventsFailed,
		HTTPLatencySec:     latency,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

// Gatherer expone el registro privado (tests).
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// Middleware mide la latencia por ruta registrada, no por URL, para acotar
// la cardinalidad.
func (r *Registry) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		r.HTTPLatencySec.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
