package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/", "200", time.Millisecond)
	m.ObserveStage("interpret", "ok", time.Millisecond)
	m.IncImageResult("openai", "succeeded")
	m.IncSocialFetch("reddit", "ok")
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("nil handler status: want=%d got=%d", http.StatusServiceUnavailable, rec.Code)
	}
}

func TestMetricsCountAndExpose(t *testing.T) {
	m, err := NewMetrics(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	m.IncImageResult("none", "skipped")
	m.IncImageResult("none", "skipped")
	m.ObserveStage("interpret", "ok", 20*time.Millisecond)

	if got := testutil.ToFloat64(m.imageResults.WithLabelValues("none", "skipped")); got != 2 {
		t.Fatalf("image results: want=2 got=%v", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	for _, name := range []string{"spiritanimal_image_results_total", "spiritanimal_stage_duration_seconds"} {
		if !strings.Contains(body, name) {
			t.Fatalf("exposition missing %s", name)
		}
	}
}

func TestParseHeaders(t *testing.T) {
	h := ParseHeaders("x-api-key=abc, bad ,x-team = core")
	if len(h) != 2 || h["x-api-key"] != "abc" || h["x-team"] != "core" {
		t.Fatalf("headers: got=%v", h)
	}
	if ParseHeaders("") != nil {
		t.Fatalf("empty headers should be nil")
	}
}
