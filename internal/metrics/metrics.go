// Package metrics exposes Prometheus collectors for the catalog pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	worksImportedTotal       *prometheus.CounterVec
	importFailuresTotal      *prometheus.CounterVec
	charactersCollectedTotal *prometheus.CounterVec
	sourceRequestsTotal      *prometheus.CounterVec
	sourceRetriesTotal       *prometheus.CounterVec
	rateLimitDelaySeconds    *prometheus.HistogramVec
	crawlQueueDepth          *prometheus.GaugeVec
	httpRequestDuration      *prometheus.HistogramVec

	once sync.Once
)

// Init registers the Prometheus collectors. Safe to call multiple times.
func Init() {
	once.Do(func() {
		worksImportedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "charabase_works_imported_total",
				Help: "Total works imported, labeled by work type and source.",
			},
			[]string{"type", "source"},
		)

		importFailuresTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "charabase_import_failures_total",
				Help: "Total failed work imports, labeled by work type and source.",
			},
			[]string{"type", "source"},
		)

		charactersCollectedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "charabase_characters_collected_total",
				Help: "Total characters collected, labeled by work type.",
			},
			[]string{"type"},
		)

		sourceRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "charabase_source_requests_total",
				Help: "Total outbound source API requests, labeled by source and status.",
			},
			[]string{"source", "status"},
		)

		sourceRetriesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "charabase_source_retries_total",
				Help: "Total retried source API calls, labeled by source.",
			},
			[]string{"source"},
		)

		rateLimitDelaySeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "charabase_rate_limit_delay_seconds",
				Help:    "Histogram of delays imposed by the per-source rate limiter.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"source"},
		)

		crawlQueueDepth = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "charabase_crawl_queue_depth",
				Help: "Current crawl queue depth, labeled by work type.",
			},
			[]string{"type"},
		)

		httpRequestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "charabase_http_request_duration_seconds",
				Help:    "Histogram of HTTP request durations, labeled by method, route, and status.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		)
	})
}

// ObserveWorkImported increments the imported-works counter.
func ObserveWorkImported(workType, source string) {
	Init()
	worksImportedTotal.WithLabelValues(workType, source).Inc()
}

// ObserveImportFailure increments the failed-imports counter.
func ObserveImportFailure(workType, source string) {
	Init()
	importFailuresTotal.WithLabelValues(workType, source).Inc()
}

// ObserveCharactersCollected adds to the collected-characters counter.
func ObserveCharactersCollected(workType string, n int) {
	Init()
	charactersCollectedTotal.WithLabelValues(workType).Add(float64(n))
}

// ObserveSourceRequest increments the outbound-request counter.
func ObserveSourceRequest(source, status string) {
	Init()
	sourceRequestsTotal.WithLabelValues(source, status).Inc()
}

// ObserveSourceRetry increments the retry counter for a source.
func ObserveSourceRetry(source string) {
	Init()
	sourceRetriesTotal.WithLabelValues(source).Inc()
}

// ObserveRateLimitDelay records a delay imposed by the rate limiter.
func ObserveRateLimitDelay(source string, d time.Duration) {
	Init()
	rateLimitDelaySeconds.WithLabelValues(source).Observe(d.Seconds())
}

// SetCrawlQueueDepth records the current queue depth for a work type.
func SetCrawlQueueDepth(workType string, depth int) {
	Init()
	crawlQueueDepth.WithLabelValues(workType).Set(float64(depth))
}

// ObserveHTTPRequest records one served HTTP request.
func ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	Init()
	httpRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}
