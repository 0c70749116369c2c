package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for PredictionCount
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeLimited  = "rate_limited"
	OutcomeError    = "error"
)

type Metrics struct {
	PredictionCount *prometheus.CounterVec
	PredictionValue prometheus.Histogram
	CacheLookups    *prometheus.CounterVec
	EventFailures   prometheus.Counter
	RequestDuration *prometheus.HistogramVec
}

// New creates the service metrics and registers them on reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PredictionCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bike_predictions_total",
				Help: "Total number of prediction requests by outcome",
			},
			[]string{"outcome"},
		),
		PredictionValue: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bike_prediction_value",
				Help:    "Distribution of predicted rental counts",
				Buckets: []float64{0, 100, 250, 500, 750, 1000, 1500, 2000},
			},
		),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bike_prediction_cache_lookups_total",
				Help: "Prediction cache lookups by result",
			},
			[]string{"result"},
		),
		EventFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "bike_prediction_event_failures_total",
				Help: "Prediction events that could not be published",
			},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bike_http_request_duration_seconds",
				Help:    "HTTP request latency by route and status",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}

	reg.MustRegister(
		m.PredictionCount,
		m.PredictionValue,
		m.CacheLookups,
		m.EventFailures,
		m.RequestDuration,
	)
	return m
}

// ObserveRequest records one served HTTP request
func (m *Metrics) ObserveRequest(method, route string, status int, seconds float64) {
	m.RequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(seconds)
}

// CacheResult records a cache hit or miss
func (m *Metrics) CacheResult(hit bool) {
	if hit {
		m.CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.CacheLookups.WithLabelValues("miss").Inc()
}
