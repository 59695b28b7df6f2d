package observability

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yungbote/learnpath-backend/internal/platform/logger"
)

// Metrics is the process-wide Prometheus recorder. Every method is a no-op on
// a nil *Metrics, so callers never need to check whether metrics are enabled.
type Metrics struct {
	registry *prom.Registry

	apiRequests *prom.CounterVec
	apiLatency  *prom.HistogramVec
	apiInflight prom.Gauge
	apiErrors   *prom.CounterVec

	synthTotal    *prom.CounterVec
	synthLatency  *prom.HistogramVec
	synthPaths    prom.Histogram
	cyclesRemoved prom.Counter
	cycleLimitHit prom.Counter

	sourceReads   *prom.CounterVec
	sourceLatency *prom.HistogramVec
	sourceUp      *prom.GaugeVec
	sourcePing    *prom.GaugeVec
	pgStats       *prom.GaugeVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Init builds the process-wide recorder once. It returns nil when disabled.
func Init(log *logger.Logger, enabled bool) *Metrics {
	if !enabled {
		return nil
	}
	initOnce.Do(func() {
		instance = New()
		if log != nil {
			log.Info("prometheus metrics enabled")
		}
	})
	return instance
}

func Current() *Metrics {
	return instance
}

// New returns a recorder on its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prom.NewRegistry(),
		apiRequests: prom.NewCounterVec(prom.CounterOpts{
			Name: "lp_api_requests_total",
			Help: "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prom.NewHistogramVec(prom.HistogramOpts{
			Name:    "lp_api_request_duration_seconds",
			Help:    "API request latency in seconds by method/route/status.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"method", "route", "status"}),
		apiInflight: prom.NewGauge(prom.GaugeOpts{
			Name: "lp_api_inflight_requests",
			Help: "In-flight API requests.",
		}),
		apiErrors: prom.NewCounterVec(prom.CounterOpts{
			Name: "lp_api_errors_total",
			Help: "API error responses by route and error code.",
		}, []string{"route", "code"}),
		synthTotal: prom.NewCounterVec(prom.CounterOpts{
			Name: "lp_synthesis_total",
			Help: "Learning path computations by strategy/outcome.",
		}, []string{"strategy", "outcome"}),
		synthLatency: prom.NewHistogramVec(prom.HistogramOpts{
			Name:    "lp_synthesis_duration_seconds",
			Help:    "End-to-end learning path computation time, including graph reads.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"outcome"}),
		synthPaths: prom.NewHistogram(prom.HistogramOpts{
			Name:    "lp_synthesis_paths",
			Help:    "Number of learning paths returned per computation.",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		}),
		cyclesRemoved: prom.NewCounter(prom.CounterOpts{
			Name: "lp_cycle_arcs_removed_total",
			Help: "Arcs removed to break prerequisite cycles.",
		}),
		cycleLimitHit: prom.NewCounter(prom.CounterOpts{
			Name: "lp_cycle_enumeration_limit_total",
			Help: "Computations where cycle enumeration hit its limit.",
		}),
		sourceReads: prom.NewCounterVec(prom.CounterOpts{
			Name: "lp_source_reads_total",
			Help: "Graph source reads by source/op/success.",
		}, []string{"source", "op", "success"}),
		sourceLatency: prom.NewHistogramVec(prom.HistogramOpts{
			Name:    "lp_source_read_seconds",
			Help:    "Graph source read latency in seconds by source/op.",
			Buckets: prom.DefBuckets,
		}, []string{"source", "op"}),
		sourceUp: prom.NewGaugeVec(prom.GaugeOpts{
			Name: "lp_source_up",
			Help: "1 when the graph source answered the last ping.",
		}, []string{"source"}),
		sourcePing: prom.NewGaugeVec(prom.GaugeOpts{
			Name: "lp_source_ping_seconds",
			Help: "Latency of the last successful graph source ping.",
		}, []string{"source"}),
		pgStats: prom.NewGaugeVec(prom.GaugeOpts{
			Name: "lp_postgres_pool",
			Help: "pgx pool statistics by stat.",
		}, []string{"stat"}),
	}
	m.registry.MustRegister(
		m.apiRequests, m.apiLatency, m.apiInflight, m.apiErrors,
		m.synthTotal, m.synthLatency, m.synthPaths, m.cyclesRemoved, m.cycleLimitHit,
		m.sourceReads, m.sourceLatency, m.sourceUp, m.sourcePing, m.pgStats,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prom.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route, status).Observe(dur.Seconds())
}

// ObserveAPIError counts one error response. code is the envelope's error
// code, or "unknown" when the handler set none.
func (m *Metrics) ObserveAPIError(route, code string) {
	if m == nil {
		return
	}
	if code == "" {
		code = "unknown"
	}
	m.apiErrors.WithLabelValues(route, code).Inc()
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

// ObserveSynthesis records one learning path computation. strategy is empty
// when the computation failed before the engine ran.
func (m *Metrics) ObserveSynthesis(strategy, outcome string, paths int, dur time.Duration) {
	if m == nil {
		return
	}
	if strategy == "" {
		strategy = "none"
	}
	m.synthTotal.WithLabelValues(strategy, outcome).Inc()
	m.synthLatency.WithLabelValues(outcome).Observe(dur.Seconds())
	if outcome == "ok" {
		m.synthPaths.Observe(float64(paths))
	}
}

func (m *Metrics) ObserveCycles(removed int, limitHit bool) {
	if m == nil {
		return
	}
	m.cyclesRemoved.Add(float64(removed))
	if limitHit {
		m.cycleLimitHit.Inc()
	}
}

func (m *Metrics) ObserveSourceRead(source, op string, success bool, dur time.Duration) {
	if m == nil {
		return
	}
	m.sourceReads.WithLabelValues(source, op, strconv.FormatBool(success)).Inc()
	m.sourceLatency.WithLabelValues(source, op).Observe(dur.Seconds())
}

// StartSourceCollector pings the graph source every interval until ctx ends.
func (m *Metrics) StartSourceCollector(ctx context.Context, log *logger.Logger, source string, interval time.Duration, ping func(context.Context) error) {
	if m == nil || ping == nil {
		return
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				pingCtx, cancel := context.WithTimeout(ctx, interval)
				err := ping(pingCtx)
				cancel()
				if err != nil {
					m.sourceUp.WithLabelValues(source).Set(0)
					if log != nil {
						log.Warn("metrics: source ping failed", "source", source, "error", err)
					}
					continue
				}
				m.sourceUp.WithLabelValues(source).Set(1)
				m.sourcePing.WithLabelValues(source).Set(time.Since(start).Seconds())
			}
		}
	}()
}

// StartPostgresCollector publishes pgx pool statistics every interval.
func (m *Metrics) StartPostgresCollector(ctx context.Context, pool *pgxpool.Pool, interval time.Duration) {
	if m == nil || pool == nil {
		return
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats := pool.Stat()
				m.pgStats.WithLabelValues("total_conns").Set(float64(stats.TotalConns()))
				m.pgStats.WithLabelValues("acquired_conns").Set(float64(stats.AcquiredConns()))
				m.pgStats.WithLabelValues("idle_conns").Set(float64(stats.IdleConns()))
				m.pgStats.WithLabelValues("max_conns").Set(float64(stats.MaxConns()))
				m.pgStats.WithLabelValues("empty_acquire_count").Set(float64(stats.EmptyAcquireCount()))
				m.pgStats.WithLabelValues("acquire_duration_seconds").Set(stats.AcquireDuration().Seconds())
			}
		}
	}()
}
