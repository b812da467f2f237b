package recognition

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recognitionRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recognition_requests_total",
		Help: "Recognition service calls by outcome.",
	}, []string{"status"})

	recognitionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "recognition_request_duration_seconds",
		Help:    "Latency of recognition service calls.",
		Buckets: prometheus.DefBuckets,
	})
)
