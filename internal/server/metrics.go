// internal/server/metrics.go
package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	analysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gait_analysis_duration_seconds",
		Help:    "Duration of full analysis runs in seconds",
		Buckets: prometheus.ExponentialBuckets(1, 2.0, 10), // 1s .. ~8.5min
	})

	analysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gait_analyses_total",
		Help: "Number of analysis runs by outcome",
	}, []string{"status"})

	uploadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gait_uploads_total",
		Help: "Number of accepted video uploads",
	})

	uploadBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gait_upload_bytes_total",
		Help: "Total bytes of accepted video uploads",
	})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gait_http_requests_total",
		Help: "HTTP requests by method and status code",
	}, []string{"method", "code"})
)

func recordAnalysis(duration time.Duration, status string) {
	analysisDuration.Observe(duration.Seconds())
	analysesTotal.WithLabelValues(status).Inc()
}

func recordUpload(size int64) {
	uploadsTotal.Inc()
	uploadBytes.Add(float64(size))
}
