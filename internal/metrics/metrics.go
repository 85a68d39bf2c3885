// Package metrics exposes Prometheus collectors for the events scraper.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	fetchTotal                 *prometheus.CounterVec
	fetchBytesTotal            *prometheus.CounterVec
	recordsExtractedTotal      *prometheus.CounterVec
	upsertsTotal               *prometheus.CounterVec
	sourceFailuresTotal        *prometheus.CounterVec
	runsTotal                  *prometheus.CounterVec
	runDurationSeconds         prometheus.Histogram
	lastRunTimestamp           prometheus.Gauge
	rateLimitDelaySeconds      *prometheus.HistogramVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Upsert outcomes recorded by ObserveUpsert.
const (
	ResultInserted = "inserted"
	ResultUpdated  = "updated"
	ResultFailed   = "failed"
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		fetchTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_fetch_total",
				Help: "Total number of listing page fetches, labeled by site and status class.",
			},
			[]string{"site", "status"},
		)

		fetchBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_fetch_bytes_total",
				Help: "Total number of bytes fetched, labeled by site.",
			},
			[]string{"site"},
		)

		recordsExtractedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_records_extracted_total",
				Help: "Total number of raw event records extracted, labeled by source.",
			},
			[]string{"source"},
		)

		upsertsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_upserts_total",
				Help: "Total number of event upserts, labeled by source and result.",
			},
			[]string{"source", "result"},
		)

		sourceFailuresTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_source_failures_total",
				Help: "Total number of sources whose scrape aborted, labeled by source.",
			},
			[]string{"source"},
		)

		runsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_runs_total",
				Help: "Total number of scrape runs, labeled by status.",
			},
			[]string{"status"},
		)

		runDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "scraper_run_duration_seconds",
				Help:    "Histogram of full scrape run durations.",
				Buckets: []float64{5, 15, 30, 60, 120, 300, 600},
			},
		)

		lastRunTimestamp = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "scraper_last_run_timestamp_seconds",
				Help: "Unix time the last scrape run finished.",
			},
		)

		rateLimitDelaySeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scraper_rate_limit_delay_seconds",
				Help:    "Time spent waiting on the per-host rate limiter.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"site"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

// ObserveFetch records one page fetch.
func ObserveFetch(rawURL string, status string, bytesFetched int) {
	Init()
	site := SanitizeSite(rawURL)
	fetchTotal.WithLabelValues(site, status).Inc()
	if bytesFetched > 0 {
		fetchBytesTotal.WithLabelValues(site).Add(float64(bytesFetched))
	}
}

// ObserveExtracted adds n extracted records for source.
func ObserveExtracted(source string, n int) {
	Init()
	recordsExtractedTotal.WithLabelValues(source).Add(float64(n))
}

// ObserveUpsert records one upsert outcome.
func ObserveUpsert(source, result string) {
	Init()
	upsertsTotal.WithLabelValues(source, result).Inc()
}

// ObserveSourceFailure counts a source-level failure.
func ObserveSourceFailure(source string) {
	Init()
	sourceFailuresTotal.WithLabelValues(source).Inc()
}

// ObserveRun records a finished scrape run.
func ObserveRun(status string, duration time.Duration, finishedAt time.Time) {
	Init()
	runsTotal.WithLabelValues(status).Inc()
	runDurationSeconds.Observe(duration.Seconds())
	lastRunTimestamp.Set(float64(finishedAt.Unix()))
}

// ObserveRateLimitDelay records time spent blocked on the rate limiter.
func ObserveRateLimitDelay(site string, d time.Duration) {
	Init()
	rateLimitDelaySeconds.WithLabelValues(site).Observe(d.Seconds())
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
