package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	LabelsTotal     *prometheus.CounterVec
	LabelDuration   *prometheus.HistogramVec
	ProviderErrors  *prometheus.CounterVec
	RateShopWins    *prometheus.CounterVec
	CredentialSaves *prometheus.CounterVec
}

// NewMetrics creates and registers Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		LabelsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "labelrun_labels_total",
				Help: "Total label orchestrations by outcome",
			},
			[]string{"status"},
		),
		LabelDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "labelrun_label_duration_seconds",
				Help:    "Label orchestration duration in seconds by outcome",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		ProviderErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "labelrun_provider_errors_total",
				Help: "Total provider API errors by provider and operation",
			},
			[]string{"provider", "operation"},
		),
		RateShopWins: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "labelrun_rate_shop_wins_total",
				Help: "Times each provider offered the cheapest label",
			},
			[]string{"provider"},
		),
		CredentialSaves: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "labelrun_credential_saves_total",
				Help: "Credential save attempts by provider and outcome",
			},
			[]string{"provider", "status"},
		),
	}
}

// RecordLabel records the outcome and duration of one orchestration.
func (m *Metrics) RecordLabel(status string, seconds float64) {
	m.LabelsTotal.WithLabelValues(status).Inc()
	m.LabelDuration.WithLabelValues(status).Observe(seconds)
}

// RecordProviderError records a provider API error.
func (m *Metrics) RecordProviderError(provider, operation string) {
	m.ProviderErrors.WithLabelValues(provider, operation).Inc()
}

// RecordWin records which provider supplied the cheapest label.
func (m *Metrics) RecordWin(provider string) {
	m.RateShopWins.WithLabelValues(provider).Inc()
}

// RecordCredentialSave records a credential save attempt.
func (m *Metrics) RecordCredentialSave(provider, status string) {
	m.CredentialSaves.WithLabelValues(provider, status).Inc()
}
