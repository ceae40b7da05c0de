package observability

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

// Metrics tracks operational counters for the crawl engine. All
// counters are monotonic for the process lifetime; rates and deltas
// belong to whatever scrapes them.
type Metrics struct {
	// Crawl metrics
	CrawlsTotal  atomic.Int64
	CrawlsFailed atomic.Int64

	// Metadata extraction metrics
	MetadataTotal   atomic.Int64
	MetadataStatic  atomic.Int64
	MetadataBrowser atomic.Int64

	// Review metrics
	ReviewsExtracted atomic.Int64
	ReviewsInserted  atomic.Int64
	ReviewsSkipped   atomic.Int64
}

// NewMetrics creates a Metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// ServeHTTP serves the counters in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	metrics := []struct {
		name  string
		help  string
		value int64
	}{
		{"reviewscope_crawls_total", "Total review crawls started", m.CrawlsTotal.Load()},
		{"reviewscope_crawls_failed_total", "Total review crawls that failed", m.CrawlsFailed.Load()},
		{"reviewscope_metadata_total", "Total metadata extractions", m.MetadataTotal.Load()},
		{"reviewscope_metadata_static_total", "Metadata extractions served by the static fast path", m.MetadataStatic.Load()},
		{"reviewscope_metadata_browser_total", "Metadata extractions that needed a browser render", m.MetadataBrowser.Load()},
		{"reviewscope_reviews_extracted_total", "Total review records extracted", m.ReviewsExtracted.Load()},
		{"reviewscope_reviews_inserted_total", "Total review records newly persisted", m.ReviewsInserted.Load()},
		{"reviewscope_reviews_skipped_total", "Total review records skipped as duplicates", m.ReviewsSkipped.Load()},
	}

	for _, metric := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s counter\n", metric.name)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}
}

// Snapshot returns all counters as a map, for end-of-run log lines.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"crawls_total":      m.CrawlsTotal.Load(),
		"crawls_failed":     m.CrawlsFailed.Load(),
		"metadata_total":    m.MetadataTotal.Load(),
		"metadata_static":   m.MetadataStatic.Load(),
		"metadata_browser":  m.MetadataBrowser.Load(),
		"reviews_extracted": m.ReviewsExtracted.Load(),
		"reviews_inserted":  m.ReviewsInserted.Load(),
		"reviews_skipped":   m.ReviewsSkipped.Load(),
	}
}
