package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace           = "pcms"
	upstreamLatencyName = namespace + "_upstream_request_duration_seconds"
)

// ConsoleMetrics exposes counters/histograms for upstream API calls, the
// per-session query cache and sign-in attempts.
type ConsoleMetrics struct {
	upstreamTotal   *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
	cacheTotal      *prometheus.CounterVec
	signInTotal     *prometheus.CounterVec
	workspaces      prometheus.Gauge
}

func NewConsoleMetrics(reg prometheus.Registerer) *ConsoleMetrics {
	m := &ConsoleMetrics{
		upstreamTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Total requests sent to the business API",
		}, []string{"entity", "method", "status"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Latency of business API requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"entity", "method"}),
		cacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "querycache",
			Name:      "lookups_total",
			Help:      "Query cache lookups by result",
		}, []string{"entity", "result"}),
		signInTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "identity",
			Name:      "sign_in_total",
			Help:      "Sign-in attempts by outcome and persistence mode",
		}, []string{"outcome", "persistence"}),
		workspaces: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "appstate",
			Name:      "workspaces_mounted",
			Help:      "Signed-in sessions with a mounted workspace",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.upstreamTotal, m.upstreamLatency, m.cacheTotal, m.signInTotal, m.workspaces)
	return m
}

// ObserveUpstream records one business API call. status 0 means the request
// never produced a response.
func (m *ConsoleMetrics) ObserveUpstream(entity, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.upstreamTotal.WithLabelValues(entity, method, label).Inc()
	m.upstreamLatency.WithLabelValues(entity, method).Observe(elapsed.Seconds())
}

func (m *ConsoleMetrics) ObserveCache(entity string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheTotal.WithLabelValues(entity, result).Inc()
}

func (m *ConsoleMetrics) ObserveSignIn(outcome, persistence string) {
	if m == nil {
		return
	}
	m.signInTotal.WithLabelValues(outcome, persistence).Inc()
}

func (m *ConsoleMetrics) SetWorkspaces(n int) {
	if m == nil {
		return
	}
	m.workspaces.Set(float64(n))
}
