package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSnapshot(t *testing.T) {
	m := NewMetrics()
	m.CrawlsTotal.Add(3)
	m.CrawlsFailed.Add(1)
	m.ReviewsExtracted.Add(42)

	snap := m.Snapshot()
	want := map[string]int64{
		"crawls_total":      3,
		"crawls_failed":     1,
		"reviews_extracted": 42,
		"reviews_inserted":  0,
	}
	for key, val := range want {
		if snap[key] != val {
			t.Errorf("Snapshot()[%q] = %d, want %d", key, snap[key], val)
		}
	}
	if len(snap) != 8 {
		t.Errorf("Snapshot() has %d counters, want 8", len(snap))
	}
}

func TestServeHTTPExposition(t *testing.T) {
	m := NewMetrics()
	m.MetadataTotal.Add(5)
	m.MetadataStatic.Add(4)

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	for _, line := range []string{
		"# TYPE reviewscope_metadata_total counter",
		"reviewscope_metadata_total 5",
		"reviewscope_metadata_static_total 4",
		"reviewscope_crawls_total 0",
	} {
		if !strings.Contains(body, line) {
			t.Errorf("exposition missing %q", line)
		}
	}
}
