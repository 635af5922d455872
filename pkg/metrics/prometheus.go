package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	cycleDuration prometheus.Histogram
	symbolsScored prometheus.Gauge
	rejections    *prometheus.CounterVec
	riskScore     *prometheus.GaugeVec
	errorsTotal   *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		cycleDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cascadewatch_cycle_duration_seconds",
				Help:    "Duration of a full scoring cycle in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		symbolsScored: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "cascadewatch_symbols_scored",
				Help: "Number of symbols scored in the last cycle",
			},
		),
		rejections: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cascadewatch_validation_rejections_total",
				Help: "Records rejected by the validation gate",
			},
			[]string{"exchange", "rule"},
		),
		riskScore: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cascadewatch_risk_score",
				Help: "Last cascade risk score per symbol",
			},
			[]string{"symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cascadewatch_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cascadewatch_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordCycle records the duration and breadth of one scoring cycle.
func (r *Recorder) RecordCycle(seconds float64, symbolsScored int) {
	r.cycleDuration.Observe(seconds)
	r.symbolsScored.Set(float64(symbolsScored))
}

// RecordRejection records a validation rejection by exchange and rule.
func (r *Recorder) RecordRejection(exchange, rule string) {
	r.rejections.WithLabelValues(exchange, rule).Inc()
}

// RecordRiskScore records the latest risk score for a symbol.
func (r *Recorder) RecordRiskScore(symbol string, score float64) {
	r.riskScore.WithLabelValues(symbol).Set(score)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
