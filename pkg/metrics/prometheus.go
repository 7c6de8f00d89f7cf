package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	samplesCollected *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	lastPrice        *prometheus.GaugeVec
	volatility       *prometheus.GaugeVec
	lambda           *prometheus.GaugeVec
	latency          *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		samplesCollected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zkrisk_price_samples_total",
				Help: "Total number of price samples appended to history",
			},
			[]string{"symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zkrisk_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "zkrisk_last_price",
				Help: "Last collected price for a symbol",
			},
			[]string{"symbol"},
		),
		volatility: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "zkrisk_volatility",
				Help: "Latest volatility estimate per symbol and method",
			},
			[]string{"symbol", "method"},
		),
		lambda: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "zkrisk_lambda",
				Help: "Latest risk lambda per symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "zkrisk_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordSampleCollected records a sample appended for a symbol.
func (r *Recorder) RecordSampleCollected(symbol string) {
	r.samplesCollected.WithLabelValues(symbol).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordVolatility records a volatility estimate.
func (r *Recorder) RecordVolatility(symbol, method string, v float64) {
	r.volatility.WithLabelValues(symbol, method).Set(v)
}

// RecordLambda records the latest lambda for a symbol.
func (r *Recorder) RecordLambda(symbol string, l float64) {
	r.lambda.WithLabelValues(symbol).Set(l)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
