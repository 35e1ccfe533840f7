package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	framesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parking_vision_frames_total",
		Help: "Frames received by the occupancy detector, by outcome.",
	}, []string{"status"})

	slotStatuses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parking_vision_slot_status_total",
		Help: "Slot classifications by status.",
	}, []string{"status"})

	inferenceDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "parking_vision_inference_seconds",
		Help:    "Per-slot inference latency.",
		Buckets: prometheus.DefBuckets,
	})

	notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parking_vision_notifications_total",
		Help: "Slot status batches handed to the notifier, by outcome.",
	}, []string{"status"})
)
