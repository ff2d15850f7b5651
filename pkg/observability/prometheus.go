package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "clusterview"

// PrometheusHooks implements every hook category with Prometheus collectors.
type PrometheusHooks struct {
	toggles         *prometheus.CounterVec // by kind
	resets          prometheus.Counter
	recomputes      prometheus.Histogram
	visibleNodes    prometheus.Gauge
	visibleLinks    prometheus.Gauge
	renders         *prometheus.CounterVec   // by format and status
	renderDuration  *prometheus.HistogramVec // by format
	cacheOps        *prometheus.CounterVec   // by key type and result
	cacheBytes      prometheus.Counter
	requests        *prometheus.CounterVec   // by method, route and code
	requestDuration *prometheus.HistogramVec // by method and route
}

// NewPrometheusHooks creates the collectors and registers them with reg.
func NewPrometheusHooks(reg prometheus.Registerer) (*PrometheusHooks, error) {
	h := &PrometheusHooks{
		toggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "state",
			Name:      "toggles_total",
			Help:      "Cluster toggles applied to sessions",
		}, []string{"kind"}),
		resets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "state",
			Name:      "resets_total",
			Help:      "Session resets",
		}),
		recomputes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "visibility",
			Name:      "recompute_duration_seconds",
			Help:      "Visibility recomputation duration in seconds",
			Buckets:   []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
		}),
		visibleNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "visibility",
			Name:      "visible_nodes",
			Help:      "Visible nodes after the last recomputation",
		}),
		visibleLinks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "visibility",
			Name:      "visible_links",
			Help:      "Visible links after the last recomputation",
		}),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "total",
			Help:      "Renders by output format and status",
		}, []string{"format", "status"}),
		renderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "duration_seconds",
			Help:      "Render duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"format"}),
		cacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "operations_total",
			Help:      "Cache lookups and writes",
		}, []string{"key_type", "result"}),
		cacheBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "written_bytes_total",
			Help:      "Bytes written to the cache",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Served HTTP requests",
		}, []string{"method", "route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	for _, c := range []prometheus.Collector{
		h.toggles, h.resets, h.recomputes, h.visibleNodes, h.visibleLinks,
		h.renders, h.renderDuration, h.cacheOps, h.cacheBytes,
		h.requests, h.requestDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// Install registers h for every hook category.
func (h *PrometheusHooks) Install() {
	SetStateHooks(h)
	SetRenderHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}

func (h *PrometheusHooks) OnToggle(_ context.Context, kind, _ string) {
	h.toggles.WithLabelValues(kind).Inc()
}

func (h *PrometheusHooks) OnReset(context.Context) { h.resets.Inc() }

func (h *PrometheusHooks) OnRecompute(_ context.Context, nodes, links int, d time.Duration) {
	h.recomputes.Observe(d.Seconds())
	h.visibleNodes.Set(float64(nodes))
	h.visibleLinks.Set(float64(links))
}

func (h *PrometheusHooks) OnRenderStart(context.Context, string) {}

func (h *PrometheusHooks) OnRenderComplete(_ context.Context, format string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	h.renders.WithLabelValues(format, status).Inc()
	h.renderDuration.WithLabelValues(format).Observe(d.Seconds())
}

func (h *PrometheusHooks) OnCacheHit(_ context.Context, keyType string) {
	h.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (h *PrometheusHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (h *PrometheusHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.cacheOps.WithLabelValues(keyType, "set").Inc()
	h.cacheBytes.Add(float64(size))
}

func (h *PrometheusHooks) OnResponse(_ context.Context, method, route string, code int, d time.Duration) {
	h.requests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	h.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ StateHooks  = (*PrometheusHooks)(nil)
	_ RenderHooks = (*PrometheusHooks)(nil)
	_ CacheHooks  = (*PrometheusHooks)(nil)
	_ HTTPHooks   = (*PrometheusHooks)(nil)
)
