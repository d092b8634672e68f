package leaguesite

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rbakker/trmnl-standings/internal/platform/logging"
	"github.com/rbakker/trmnl-standings/internal/platform/resilience"
	"github.com/rbakker/trmnl-standings/internal/usecase"
)

const tinyPage = `<html><body><table><tr><td>1</td></tr></table></body></html>`

func newTestClient(server *httptest.Server, maxRetries int, breaker resilience.CircuitBreakerConfig) *Client {
	return NewClient(ClientConfig{
		HTTPClient:     server.Client(),
		Timeout:        5 * time.Second,
		UserAgent:      "standings-test/1.0",
		MaxRetries:     maxRetries,
		Logger:         logging.NewNop(),
		CircuitBreaker: breaker,
	})
}

func TestClient_FetchDocument_SetsUserAgent(t *testing.T) {
	t.Parallel()

	var gotAgent atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent.Store(r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(tinyPage))
	}))
	defer server.Close()

	client := newTestClient(server, 0, resilience.CircuitBreakerConfig{})
	doc, err := client.FetchDocument(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("FetchDocument error: %v", err)
	}
	if doc.Find("td").Length() != 1 {
		t.Fatalf("expected parsed document with one cell")
	}
	if agent, _ := gotAgent.Load().(string); agent != "standings-test/1.0" {
		t.Fatalf("unexpected user agent %q", agent)
	}
}

func TestClient_FetchDocument_RetriesServerErrors(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(tinyPage))
	}))
	defer server.Close()

	client := newTestClient(server, 1, resilience.CircuitBreakerConfig{})
	if _, err := client.FetchDocument(context.Background(), server.URL); err != nil {
		t.Fatalf("FetchDocument error: %v", err)
	}
	if got := requests.Load(); got != 2 {
		t.Fatalf("expected 2 requests, got %d", got)
	}
}

func TestClient_FetchDocument_NoRetryOnClientError(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server, 3, resilience.CircuitBreakerConfig{})
	_, err := client.FetchDocument(context.Background(), server.URL)
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
	if got := requests.Load(); got != 1 {
		t.Fatalf("expected a single request for status 404, got %d", got)
	}
}

func TestClient_FetchDocument_CircuitOpensAfterFailures(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(server, 0, resilience.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 1,
		OpenTimeout:      time.Minute,
		HalfOpenMaxReq:   1,
	})

	if _, err := client.FetchDocument(context.Background(), server.URL); !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
	seen := requests.Load()

	// The breaker is open now, so the next call must not reach the server.
	if _, err := client.FetchDocument(context.Background(), server.URL); !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable while open, got %v", err)
	}
	if got := requests.Load(); got != seen {
		t.Fatalf("expected no request while circuit is open, got %d after %d", got, seen)
	}
}

func TestClient_FetchDocument_ContextCancelledDuringBackoff(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	client := newTestClient(server, 3, resilience.CircuitBreakerConfig{})
	_, err := client.FetchDocument(ctx, server.URL)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context deadline error, got %v", err)
	}
}
