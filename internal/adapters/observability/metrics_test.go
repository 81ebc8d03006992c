package observability_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"review_enrichment/internal/adapters/observability"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	// record samples so the vectors have children
	observability.ObserveHTTP("/test", "GET", 200, 12*time.Millisecond)
	observability.ObserveExternal("yelp", "business", 200, 40*time.Millisecond)
	observability.ObserveIngest("review", "inserted")
	observability.ObserveEnrichment("partial")
	observability.SetBreakerState("vision", 0)

	mh := observability.MetricsHandler(reg)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	mh.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	for _, name := range []string{
		"enrich_http_requests_total",
		"enrich_external_requests_total",
		"enrich_records_ingested_total",
		"enrich_review_enrichments_total",
		"enrich_circuit_breaker_state",
	} {
		if !strings.Contains(out, name) {
			t.Fatalf("expected %s in output", name)
		}
	}
}

func TestServe_ExposesAppRegistry(t *testing.T) {
	reg := observability.InitRegistry()
	observability.ObserveIngest("business", "inserted")

	srv := observability.Serve("127.0.0.1:0", reg)
	if srv == nil {
		t.Fatal("expected a metrics server")
	}
	t.Cleanup(func() { _ = srv.Close() })

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `enrich_records_ingested_total{kind="business",result="inserted"}`) {
		t.Fatalf("app metrics missing from served registry:\n%s", rr.Body.String())
	}
}

func TestServe_DisabledWithoutAddr(t *testing.T) {
	if srv := observability.Serve("", observability.InitRegistry()); srv != nil {
		t.Fatal("empty addr must not start a listener")
	}
}
