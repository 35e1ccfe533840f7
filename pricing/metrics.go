package pricing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	retrainRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parking_pricing_retrain_runs_total",
		Help: "Retraining pipeline runs by outcome.",
	}, []string{"status"})
	retrainSamples = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "parking_pricing_model_samples",
		Help: "Sample count of the last successfully trained model.",
	})
	retrainDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "parking_pricing_retrain_duration_seconds",
		Help:    "Duration of a full retraining run.",
		Buckets: []float64{0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
	})
	predictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parking_pricing_predictions_total",
		Help: "Price predictions by outcome.",
	}, []string{"status"})
	modelLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parking_pricing_model_loads_total",
		Help: "Model load attempts by outcome.",
	}, []string{"status"})
)
