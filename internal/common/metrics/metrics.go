package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FusionRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fusion_requests_total",
			Help: "Total number of fusion requests by algorithm and outcome",
		},
		[]string{"algorithm", "outcome"},
	)

	FusionFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fusion_fallback_total",
			Help: "Total number of single-producer fallback responses by failed producer",
		},
		[]string{"producer"},
	)

	FusionCheckpointBoosts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fusion_checkpoint_boost_total",
			Help: "Total number of responses that received a checkpoint confidence boost",
		},
	)

	ProducerLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "producer_latency_seconds",
			Help:    "Latency of producer calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"producer"},
	)

	FusionConfidence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fusion_confidence",
			Help:    "Distribution of final fused confidence values",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)
)
