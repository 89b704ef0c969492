package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	CrawlAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "court_watcher_crawl_attempts_total",
		Help: "Attempts of the entry/search condition steps per category",
	}, []string{"category"})

	CrawlFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "court_watcher_crawl_failures_total",
		Help: "Category crawls that ended with an error",
	}, []string{"category"})

	CrawlDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "court_watcher_crawl_duration_seconds",
		Help:    "Duration of a category crawl",
		Buckets: []float64{5, 10, 20, 40, 80, 160, 320},
	}, []string{"category"})

	DiffsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "court_watcher_diffs_total",
		Help: "Boundary crossings detected per court",
	}, []string{"court"})

	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "court_watcher_runs_total",
		Help: "Checker runs by outcome",
	}, []string{"outcome"})
)

// Run outcomes
const (
	OutcomeNoDiff      = "no_diff"
	OutcomeDiff        = "diff"
	OutcomeError       = "error"
	OutcomeMaintenance = "maintenance"
)

// Serve exposes /metrics on addr until the server fails
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info().Str("addr", addr).Msg("📈 Metrics server listening")
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
