package observability

import (
	"strings"
	"testing"
	"time"
)

func TestEnabledParsing(t *testing.T) {
	cases := map[string]bool{
		"":     false,
		"0":    false,
		"off":  false,
		"1":    true,
		"true": true,
		"TRUE": true,
		"yes":  true,
	}
	for v, want := range cases {
		t.Setenv("METRICS_ENABLED", v)
		if got := Enabled(); got != want {
			t.Fatalf("Enabled() with %q = %v, want %v", v, got, want)
		}
	}
}

func TestInitDisabledReturnsNil(t *testing.T) {
	t.Setenv("METRICS_ENABLED", "")
	if m := Init(nil); m != nil {
		t.Fatalf("Init with metrics disabled = %v, want nil", m)
	}
	// Nil receivers must be safe at every call site.
	var m *Metrics
	m.ObserveAPI("GET", "/healthcheck", "200", time.Millisecond)
	m.ObserveLLMRequest("model", "/v1/messages", "200", time.Millisecond)
	m.ObserveDocumentStoreOperation("search_similar", "success", time.Millisecond)
	m.ApiInflightInc()
	m.ApiInflightDec()
	if err := m.WritePrometheus(&strings.Builder{}); err != nil {
		t.Fatalf("nil WritePrometheus: %v", err)
	}
}

func TestMetricsObserveAndExport(t *testing.T) {
	t.Setenv("METRICS_ENABLED", "true")
	m := Init(nil)
	if m == nil {
		t.Fatal("Init returned nil with metrics enabled")
	}

	m.ObserveAPI("POST", "/api/coach", "200", 120*time.Millisecond)
	m.ObserveLLMRequest("test-model", "/v1/messages", "200", time.Second)
	m.ObserveDocumentStoreOperation("search_similar", "success", 10*time.Millisecond)
	m.ObserveDocumentStoreOperation("search_similar", "error", 5*time.Millisecond)

	if got := m.documentStoreOps.Value("search_similar", "success"); got != 1 {
		t.Fatalf("document store success counter = %f, want 1", got)
	}
	if got := m.documentStoreOps.Value("search_similar", "error"); got != 1 {
		t.Fatalf("document store error counter = %f, want 1", got)
	}

	var b strings.Builder
	if err := m.WritePrometheus(&b); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := b.String()
	for _, want := range []string{
		`ss_api_requests_total{method="POST",route="/api/coach",status="200"} 1`,
		`ss_llm_requests_total{model="test-model",endpoint="/v1/messages",status="200"} 1`,
		`ss_document_store_operations_total{operation="search_similar",status="success"} 1`,
		"ss_api_request_duration_seconds_bucket",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("exposition missing %q:\n%s", want, out)
		}
	}
}

func TestObserveUnknownLabels(t *testing.T) {
	t.Setenv("METRICS_ENABLED", "true")
	m := Init(nil)
	if m == nil {
		t.Fatal("Init returned nil with metrics enabled")
	}

	m.ObserveLLMRequest("", "", "", time.Millisecond)
	if got := m.llmRequests.Value("unknown", "unknown", "unknown"); got < 1 {
		t.Fatalf("blank labels not normalized to unknown: %f", got)
	}
}
