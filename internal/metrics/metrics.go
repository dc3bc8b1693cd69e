// Package metrics exposes Prometheus collectors for the ingest pipeline and
// the chat API.
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
	crawlPagesTotal        *prometheus.CounterVec
	documentsUploadedTotal *prometheus.CounterVec
	graphUpsertsTotal      *prometheus.CounterVec
	chatRequestsTotal      *prometheus.CounterVec
	chatDurationSeconds    *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus collectors. Safe to call more than once.
func Init() {
	once.Do(func() {
		crawlPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recipechat_crawl_pages_total",
				Help: "Total pages processed by the crawler, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		documentsUploadedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recipechat_documents_uploaded_total",
				Help: "Total documents submitted to the vector index, labeled by status.",
			},
			[]string{"status"},
		)

		graphUpsertsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recipechat_graph_upserts_total",
				Help: "Total recipe upserts against the graph backend, labeled by status.",
			},
			[]string{"status"},
		)

		chatRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recipechat_chat_requests_total",
				Help: "Total chat requests, labeled by routing target and HTTP code.",
			},
			[]string{"target", "code"},
		)

		chatDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "recipechat_chat_duration_seconds",
				Help:    "Chat request latency, labeled by routing target.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"target"},
		)
	})
}

// ObserveCrawlPage records one processed page.
func ObserveCrawlPage(outcome string) {
	if crawlPagesTotal != nil {
		crawlPagesTotal.WithLabelValues(outcome).Inc()
	}
}

// ObserveUpload records vector-index upload results.
func ObserveUpload(status string, n int) {
	if documentsUploadedTotal != nil {
		documentsUploadedTotal.WithLabelValues(status).Add(float64(n))
	}
}

// ObserveGraphUpsert records one graph upsert attempt.
func ObserveGraphUpsert(status string) {
	if graphUpsertsTotal != nil {
		graphUpsertsTotal.WithLabelValues(status).Inc()
	}
}

// ObserveChat records one chat request.
func ObserveChat(target string, code int, elapsed time.Duration) {
	if chatRequestsTotal != nil {
		chatRequestsTotal.WithLabelValues(target, strconv.Itoa(code)).Inc()
	}
	if chatDurationSeconds != nil {
		chatDurationSeconds.WithLabelValues(target).Observe(elapsed.Seconds())
	}
}

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
