package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/JacksonLee45/stride-sync-sub000/internal/platform/logger"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func newTestClient(rt roundTripperFunc) Client {
	return NewClientWithHTTPClient(logger.NewNop(), "https://api.test", "test-key", "test-embed", &http.Client{Transport: rt})
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func TestEmbedReturnsVectorsInInputOrder(t *testing.T) {
	var gotBody embeddingsRequest
	c := newTestClient(func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		// Out of order on purpose; index wins.
		return jsonResponse(200, `{"data":[
			{"index":1,"embedding":[0.3,0.4]},
			{"index":0,"embedding":[0.1,0.2]}
		]}`), nil
	})

	vecs, err := c.Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("Embed returned %v", err)
	}
	if gotBody.Model != "test-embed" {
		t.Fatalf("model = %q", gotBody.Model)
	}
	if len(vecs) != 2 {
		t.Fatalf("vectors = %d, want 2", len(vecs))
	}
	if vecs[0][0] != 0.1 || vecs[1][0] != 0.3 {
		t.Fatalf("vectors out of order: %v", vecs)
	}
}

func TestEmbedEmptyInput(t *testing.T) {
	c := newTestClient(func(r *http.Request) (*http.Response, error) {
		t.Fatal("no request expected for empty input")
		return nil, nil
	})

	vecs, err := c.Embed(context.Background(), nil)
	if err != nil {
		t.Fatalf("Embed returned %v", err)
	}
	if len(vecs) != 0 {
		t.Fatalf("vectors = %v, want empty", vecs)
	}
}

func TestEmbedUpstreamError(t *testing.T) {
	c := newTestClient(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(429, `{"error":{"message":"Rate limit reached","type":"rate_limit_error"}}`), nil
	})

	_, err := c.Embed(context.Background(), []string{"text"})
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("err = %v, want *HTTPError", err)
	}
	if httpErr.StatusCode != 429 {
		t.Fatalf("status = %d", httpErr.StatusCode)
	}
	if httpErr.Message != "Rate limit reached" {
		t.Fatalf("message = %q", httpErr.Message)
	}
}

func TestEmbedMissingVector(t *testing.T) {
	c := newTestClient(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(200, `{"data":[{"index":0,"embedding":[0.1]}]}`), nil
	})

	if _, err := c.Embed(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatal("expected an error when the upstream drops a vector")
	}
}
