// Package metrics declares the Prometheus collectors of catiq.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AnswersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catiq_answers_total",
			Help: "Total number of answers by intent and generation path",
		},
		[]string{"intent", "path"},
	)

	AnswerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catiq_answer_duration_seconds",
			Help:    "Duration of answer requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	SQLQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catiq_sql_queries_total",
			Help: "Total number of restricted SQL queries by outcome",
		},
		[]string{"outcome"},
	)

	ToolRounds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "catiq_tool_rounds",
			Help:    "Number of tool-calling rounds per model loop",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 7, 8, 10, 15, 20},
		},
	)

	ModelRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catiq_model_requests_total",
			Help: "Total number of external model requests by outcome",
		},
		[]string{"outcome"},
	)

	SnapshotCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catiq_snapshot_cache_total",
			Help: "Snapshot cache lookups by result (hit, persisted, load, error)",
		},
		[]string{"result"},
	)
)

// Serve exposes /metrics on addr until the server fails.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}
