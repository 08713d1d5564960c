package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	ProviderSearches    *prometheus.CounterVec
	ProviderLatency     *prometheus.HistogramVec
	CircuitTransitions  *prometheus.CounterVec
	BatchItemsProcessed *prometheus.CounterVec
	BatchJobsFinished   *prometheus.CounterVec
	MonitoringChecks    *prometheus.CounterVec
	NotificationsSent   *prometheus.CounterVec
	HTTPRequests        *prometheus.CounterVec
	HTTPDuration        *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		ProviderSearches: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "personlens_provider_searches_total",
			Help: "Provider search attempts by provider and outcome",
		}, []string{"provider", "outcome"}),
		ProviderLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "personlens_provider_search_duration_seconds",
			Help:    "Provider search latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		CircuitTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "personlens_circuit_transitions_total",
			Help: "Circuit breaker state transitions by service and target state",
		}, []string{"service", "to"}),
		BatchItemsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "personlens_batch_items_processed_total",
			Help: "Batch items processed by terminal item status",
		}, []string{"status"}),
		BatchJobsFinished: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "personlens_batch_jobs_finished_total",
			Help: "Batch jobs reaching a terminal state",
		}, []string{"status"}),
		MonitoringChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "personlens_monitoring_checks_total",
			Help: "Monitoring subscription checks by outcome",
		}, []string{"outcome"}),
		NotificationsSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "personlens_notifications_published_total",
			Help: "Notifications handed to the notification collaborator",
		}, []string{"type"}),
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "personlens_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status"}),
		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "personlens_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// RecordProviderSearch counts one provider attempt outcome.
func (m *Metrics) RecordProviderSearch(provider, outcome string) {
	m.ProviderSearches.WithLabelValues(provider, outcome).Inc()
}

// ObserveProviderLatency records one provider call duration in seconds.
func (m *Metrics) ObserveProviderLatency(provider string, seconds float64) {
	m.ProviderLatency.WithLabelValues(provider).Observe(seconds)
}

// RecordCircuitTransition counts one breaker state transition.
func (m *Metrics) RecordCircuitTransition(service, to string) {
	m.CircuitTransitions.WithLabelValues(service, to).Inc()
}

// RecordBatchItem counts one processed batch item.
func (m *Metrics) RecordBatchItem(status string) {
	m.BatchItemsProcessed.WithLabelValues(status).Inc()
}

// RecordBatchJob counts one terminal batch job.
func (m *Metrics) RecordBatchJob(status string) {
	m.BatchJobsFinished.WithLabelValues(status).Inc()
}

// RecordMonitoringCheck counts one subscription check.
func (m *Metrics) RecordMonitoringCheck(outcome string) {
	m.MonitoringChecks.WithLabelValues(outcome).Inc()
}

// RecordNotification counts one emitted notification.
func (m *Metrics) RecordNotification(kind string) {
	m.NotificationsSent.WithLabelValues(kind).Inc()
}

// ObserveHTTPRequest records one completed HTTP request.
func (m *Metrics) ObserveHTTPRequest(method, route, status string, seconds float64) {
	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(seconds)
}
