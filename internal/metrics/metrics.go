// Package metrics provides Prometheus metrics for the policy assistant
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors. Each instance owns its registry so
// several can coexist in one process.
type Metrics struct {
	Registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Policy store metrics
	StoreOperationsTotal *prometheus.CounterVec
	PersistFailuresTotal prometheus.Counter
	PoliciesTotal        prometheus.Gauge
	PremiumTotal         prometheus.Gauge

	// Chat metrics
	ChatTurnsTotal    *prometheus.CounterVec
	AssistantDuration *prometheus.HistogramVec

	// Event metrics
	EventsPublishedTotal *prometheus.CounterVec

	ServerStartTime time.Time
}

// NewMetrics creates and registers all metrics on a fresh registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		Registry:        reg,
		ServerStartTime: time.Now(),
	}

	m.HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "policy_assistant_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	m.HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "policy_assistant_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	m.StoreOperationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "policy_assistant_store_operations_total",
			Help: "Total number of policy store operations",
		},
		[]string{"operation", "outcome"},
	)

	m.PersistFailuresTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "policy_assistant_persist_failures_total",
			Help: "Total number of failed writes to durable storage",
		},
	)

	m.PoliciesTotal = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "policy_assistant_policies",
			Help: "Number of policies currently held by the store",
		},
	)

	m.PremiumTotal = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "policy_assistant_premium_total",
			Help: "Sum of premiums across all policies",
		},
	)

	m.ChatTurnsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "policy_assistant_chat_turns_total",
			Help: "Total number of chat turns by outcome",
		},
		[]string{"outcome"},
	)

	m.AssistantDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "policy_assistant_assistant_request_duration_seconds",
			Help:    "Duration of remote assistant calls in seconds",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 20, 40, 60},
		},
		[]string{"provider"},
	)

	m.EventsPublishedTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "policy_assistant_events_published_total",
			Help: "Total number of policy events published",
		},
		[]string{"type", "status"},
	)

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "policy_assistant_uptime_seconds",
			Help: "Server uptime in seconds",
		},
		func() float64 { return time.Since(m.ServerStartTime).Seconds() },
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// RecordHTTPRequest records a served HTTP request
func (m *Metrics) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordStoreOperation records a policy store operation
func (m *Metrics) RecordStoreOperation(operation, outcome string) {
	m.StoreOperationsTotal.WithLabelValues(operation, outcome).Inc()
}

// UpdatePortfolio updates the policy count and premium gauges
func (m *Metrics) UpdatePortfolio(count int, premium float64) {
	m.PoliciesTotal.Set(float64(count))
	m.PremiumTotal.Set(premium)
}

// RecordChatTurn records a completed chat turn
func (m *Metrics) RecordChatTurn(outcome string) {
	m.ChatTurnsTotal.WithLabelValues(outcome).Inc()
}

// RecordAssistantCall records the latency of a remote assistant call
func (m *Metrics) RecordAssistantCall(provider string, duration time.Duration) {
	m.AssistantDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordEvent records a published policy event
func (m *Metrics) RecordEvent(eventType, status string) {
	m.EventsPublishedTotal.WithLabelValues(eventType, status).Inc()
}
