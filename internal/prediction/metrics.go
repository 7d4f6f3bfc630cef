package prediction

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks predictor behaviour. Labels: target is milk|disease, mode
// is model|heuristic|mock.
type Metrics struct {
	Predictions       *prometheus.CounterVec
	InferenceDuration *prometheus.HistogramVec
	Fallbacks         *prometheus.CounterVec
	CacheHits         prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Predictions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "herdwatch_predictions_total",
			Help: "Predictions served, by target and mode.",
		}, []string{"target", "mode"}),
		InferenceDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "herdwatch_prediction_duration_seconds",
			Help:    "Time spent producing a prediction.",
			Buckets: prometheus.DefBuckets,
		}, []string{"target"}),
		Fallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "herdwatch_prediction_fallbacks_total",
			Help: "Predictions that fell back to the heuristic.",
		}, []string{"target"}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "herdwatch_prediction_cache_hits_total",
			Help: "Predictions served from the cache.",
		}),
	}
}
