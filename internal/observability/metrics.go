package observability

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yungbote/spiritanimal-backend/internal/platform/logger"
)

const namespace = "spiritanimal"

type Metrics struct {
	registry *prometheus.Registry

	apiRequests   *prometheus.CounterVec
	apiLatency    *prometheus.HistogramVec
	apiInflight   prometheus.Gauge
	stageLatency  *prometheus.HistogramVec
	providerCalls *prometheus.CounterVec
	providerTime  *prometheus.HistogramVec
	imageResults  *prometheus.CounterVec
	socialFetches *prometheus.CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Current returns the process metrics, nil until Init ran with metrics enabled. Every
// method is nil-safe.
func Current() *Metrics {
	return instance
}

func Init(log *logger.Logger, enabled bool) *Metrics {
	if !enabled {
		return nil
	}
	initOnce.Do(func() {
		m, err := NewMetrics(prometheus.NewRegistry())
		if err != nil {
			if log != nil {
				log.Warn("metrics init failed (continuing without metrics)", "error", err)
			}
			return
		}
		instance = m
	})
	return instance
}

// NewMetrics registers every collector on reg. Tests pass a fresh registry.
func NewMetrics(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "API request latency in seconds by method/route/status.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120, 240},
		}, []string{"method", "route", "status"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_inflight_requests",
			Help:      "In-flight API requests.",
		}),
		stageLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage latency by stage/outcome.",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}, []string{"stage", "outcome"}),
		providerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_calls_total",
			Help:      "Outbound provider calls by provider/operation/outcome.",
		}, []string{"provider", "operation", "outcome"}),
		providerTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_call_duration_seconds",
			Help:      "Outbound provider call latency.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}, []string{"provider", "operation"}),
		imageResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_results_total",
			Help:      "Image generation outcomes by provider/outcome (succeeded|skipped|failed).",
		}, []string{"provider", "outcome"}),
		socialFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "social_fetches_total",
			Help:      "Social profile fetches by platform/outcome (ok|error|cached|unsupported).",
		}, []string{"platform", "outcome"}),
	}
	cs := []prometheus.Collector{
		m.apiRequests, m.apiLatency, m.apiInflight, m.stageLatency,
		m.providerCalls, m.providerTime, m.imageResults, m.socialFetches,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}
	return m, nil
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	method = orUnknown(strings.ToUpper(method))
	route = orUnknown(route)
	if status == "" {
		status = "0"
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route, status).Observe(dur.Seconds())
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

func (m *Metrics) ObserveStage(stage, outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	m.stageLatency.WithLabelValues(orUnknown(stage), orUnknown(outcome)).Observe(dur.Seconds())
}

func (m *Metrics) ObserveProviderCall(provider, operation, outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	provider = orUnknown(provider)
	operation = orUnknown(operation)
	m.providerCalls.WithLabelValues(provider, operation, orUnknown(outcome)).Inc()
	if dur > 0 {
		m.providerTime.WithLabelValues(provider, operation).Observe(dur.Seconds())
	}
}

func (m *Metrics) IncImageResult(provider, outcome string) {
	if m == nil {
		return
	}
	m.imageResults.WithLabelValues(orUnknown(provider), orUnknown(outcome)).Inc()
}

func (m *Metrics) IncSocialFetch(platform, outcome string) {
	if m == nil {
		return
	}
	m.socialFetches.WithLabelValues(orUnknown(platform), orUnknown(outcome)).Inc()
}

func orUnknown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "unknown"
	}
	return s
}
