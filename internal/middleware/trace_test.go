package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/JacksonLee45/stride-sync-sub000/internal/requestdata"
)

func newTraceRouter() (*gin.Engine, *requestdata.TraceData) {
	gin.SetMode(gin.TestMode)
	captured := &requestdata.TraceData{}
	r := gin.New()
	r.Use(AttachTraceContext())
	r.GET("/ping", func(c *gin.Context) {
		if td := requestdata.GetTraceData(c.Request.Context()); td != nil {
			*captured = *td
		}
		c.Status(http.StatusOK)
	})
	return r, captured
}

func TestAttachTraceContextGeneratesIDs(t *testing.T) {
	r, captured := newTraceRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/ping", nil))

	if captured.TraceID == "" || captured.RequestID == "" {
		t.Fatalf("trace data not populated: %+v", captured)
	}
	if got := w.Header().Get("X-Trace-Id"); got != captured.TraceID {
		t.Fatalf("X-Trace-Id header = %q, want %q", got, captured.TraceID)
	}
	if got := w.Header().Get("X-Request-Id"); got != captured.RequestID {
		t.Fatalf("X-Request-Id header = %q, want %q", got, captured.RequestID)
	}
}

func TestAttachTraceContextPreservesInboundIDs(t *testing.T) {
	r, captured := newTraceRouter()

	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set("X-Trace-Id", "trace-abc")
	req.Header.Set("X-Request-Id", "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if captured.TraceID != "trace-abc" || captured.RequestID != "req-123" {
		t.Fatalf("inbound IDs not preserved: %+v", captured)
	}
}

func TestMetricsMiddlewareNilPassThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics(nil))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/ping", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}
