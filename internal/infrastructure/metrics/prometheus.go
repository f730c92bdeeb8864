// Package metrics expone salud de sucursales, consultas remotas, caché y HTTP en formato Prometheus.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/entity"
)

const namespace = "inventarios"

// Collectors agrupa las métricas del servicio sobre un registro propio.
// Implementa branchdb.Metrics y cache.Observer.
type Collectors struct {
	Registry *prometheus.Registry

	branchUp      *prometheus.GaugeVec
	branchChecked *prometheus.GaugeVec
	queryDuration *prometheus.HistogramVec
	queryErrors   *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// New registra los colectores (más los de proceso y runtime de Go).
func New() *Collectors {
	c := &Collectors{
		Registry: prometheus.NewRegistry(),
		branchUp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "branch_up",
			Help:      "1 si la sucursal está conectada, 0 si está en error.",
		}, []string{"branch", "variant"}),
		branchChecked: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "branch_last_check_timestamp_seconds",
			Help:      "Momento del último chequeo de salud de la sucursal.",
		}, []string{"branch"}),
		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "branch_query_duration_seconds",
			Help:      "Duración de consultas contra bases de sucursal.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"branch"}),
		queryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "branch_query_errors_total",
			Help:      "Consultas de sucursal fallidas.",
		}, []string{"branch"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Búsquedas en caché por tipo y resultado.",
		}, []string{"kind", "result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Peticiones HTTP por método, ruta y código.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duración de peticiones HTTP.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	c.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.branchUp, c.branchChecked, c.queryDuration, c.queryErrors,
		c.cacheLookups, c.httpRequests, c.httpDuration,
	)
	return c
}

// ObserveHealth actualiza el gauge de la sucursal tras cada chequeo.
func (c *Collectors) ObserveHealth(b entity.Branch, h entity.BranchHealth) {
	c.branchUp.DeletePartialMatch(prometheus.Labels{"branch": b.Code})
	up := 0.0
	if h.Status == entity.BranchStatusConnected {
		up = 1
	}
	c.branchUp.WithLabelValues(b.Code, h.SchemaVariant).Set(up)
	c.branchChecked.WithLabelValues(b.Code).Set(float64(h.LastCheck.Unix()))
}

// ForgetBranch quita las series de una sucursal eliminada.
func (c *Collectors) ForgetBranch(b entity.Branch) {
	labels := prometheus.Labels{"branch": b.Code}
	c.branchUp.DeletePartialMatch(labels)
	c.branchChecked.DeletePartialMatch(labels)
	c.queryDuration.DeletePartialMatch(labels)
	c.queryErrors.DeletePartialMatch(labels)
}

// ObserveQuery registra duración y error de una consulta remota.
func (c *Collectors) ObserveQuery(branchCode string, elapsed time.Duration, err error) {
	c.queryDuration.WithLabelValues(branchCode).Observe(elapsed.Seconds())
	if err != nil {
		c.queryErrors.WithLabelValues(branchCode).Inc()
	}
}

// CacheLookup suma aciertos y fallos de caché.
func (c *Collectors) CacheLookup(kind string, hits, misses int) {
	if hits > 0 {
		c.cacheLookups.WithLabelValues(kind, "hit").Add(float64(hits))
	}
	if misses > 0 {
		c.cacheLookups.WithLabelValues(kind, "miss").Add(float64(misses))
	}
}

// ObserveHTTP registra una petición atendida.
func (c *Collectors) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
