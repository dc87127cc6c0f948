package chatservice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/studybuddy-ai/chat-core/model"
)

// fastLimiter removes rate limiter pacing from transport tests
var fastLimiter = RateLimiterConfig{MaxTokens: 1000, RefillRate: 1000, MinInterval: 0}

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	return NewClient(Config{
		BaseURL:           server.URL,
		Tokens:            StaticToken("test-token"),
		RetryConfig:       &RetryConfig{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxBackoff: 10 * time.Millisecond},
		RateLimiterConfig: &fastLimiter,
		HTTPClient:        server.Client(),
		StreamingClient:   server.Client(),
	})
}

func writeEnvelope(w http.ResponseWriter, status int, data interface{}) {
	raw, _ := json.Marshal(data)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":   status < 400,
		"data":      json.RawMessage(raw),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func TestClassify(t *testing.T) {
	tests := []struct {
		status int
		scope  errScope
		want   Code
	}{
		{401, scopeSession, CodeUnauthenticated},
		{404, scopeSession, CodeSessionNotFound},
		{404, scopeMessage, CodeMessageNotFound},
		{429, scopeSession, CodeRateLimitExceeded},
		{400, scopeSession, CodeInvalidSessionData},
		{422, scopeMessage, CodeInvalidMessageData},
		{500, scopeSession, CodeUnknown},
	}

	for _, tt := range tests {
		if got := classify(tt.status, tt.scope); got != tt.want {
			t.Errorf("classify(%d, %v) = %s, want %s", tt.status, tt.scope, got, tt.want)
		}
	}
}

func TestGetSessionNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "Session not found",
		})
	}))
	defer server.Close()

	client := newTestClient(t, server)
	_, err := client.GetSession(context.Background(), "missing")
	if !IsCode(err, CodeSessionNotFound) {
		t.Fatalf("expected SESSION_NOT_FOUND, got %v", err)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "Session not found" {
		t.Errorf("server message should be preserved, got %v", err)
	}
}

func TestListSessionsConvertsPageToOffset(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		writeEnvelope(w, http.StatusOK, SessionPage{
			Sessions:   []model.ChatSession{{ID: "s1"}},
			Pagination: PaginationMeta{Total: 41, Limit: 20, Offset: 40, HasMore: false},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server)
	page, err := client.ListSessions(context.Background(), 3, 20, "")
	if err != nil {
		t.Fatalf("ListSessions returned error: %v", err)
	}

	if gotQuery != "limit=20&offset=40" {
		t.Errorf("page 3 should request offset 40, got query %q", gotQuery)
	}
	if len(page.Sessions) != 1 || page.Pagination.HasMore {
		t.Errorf("unexpected page decode: %+v", page)
	}
}

func TestDoGetRetriesTransientFailures(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeEnvelope(w, http.StatusOK, model.ChatSession{ID: "s1"})
	}))
	defer server.Close()

	client := newTestClient(t, server)
	session, err := client.GetSession(context.Background(), "s1")
	if err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	if session.ID != "s1" {
		t.Errorf("unexpected session: %+v", session)
	}
}

func TestDoGetDoesNotRetryClientErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(t, server)
	if _, err := client.GetSession(context.Background(), "missing"); err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Errorf("404 must not be retried, got %d attempts", attempts)
	}
}

func TestSendsAreNeverRetried(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server)
	if _, err := client.CreateSession(context.Background(), CreateSessionRequest{Title: "t"}); err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Errorf("writes must not be retried, got %d attempts", attempts)
	}
}

func TestRateLimitResponseCarriesRetryAfter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(t, server)
	_, err := client.CreateSession(context.Background(), CreateSessionRequest{})
	if !IsCode(err, CodeRateLimitExceeded) {
		t.Fatalf("expected RATE_LIMIT_EXCEEDED, got %v", err)
	}

	if ra, ok := retryAfterOf(err); !ok || ra != 7*time.Second {
		t.Errorf("expected Retry-After of 7s, got %v (ok=%v)", ra, ok)
	}
}

func TestTokenSourceFailureShortCircuits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not reach the server without a token")
	}))
	defer server.Close()

	client := NewClient(Config{
		BaseURL:           server.URL,
		Tokens:            StaticToken(""),
		RateLimiterConfig: &fastLimiter,
		HTTPClient:        server.Client(),
	})

	_, err := client.GetSession(context.Background(), "s1")
	if !IsCode(err, CodeUnauthenticated) {
		t.Fatalf("expected UNAUTHENTICATED, got %v", err)
	}
}

func TestCalculateBackoff(t *testing.T) {
	config := RetryConfig{InitialBackoff: 500 * time.Millisecond, MaxBackoff: 30 * time.Second}

	if got := CalculateBackoff(0, config); got != 500*time.Millisecond {
		t.Errorf("attempt 0: got %v", got)
	}
	if got := CalculateBackoff(1, config); got != time.Second {
		t.Errorf("attempt 1: got %v", got)
	}
	if got := CalculateBackoff(10, config); got != 30*time.Second {
		t.Errorf("attempt 10 should cap at MaxBackoff, got %v", got)
	}
}

func TestIsRetryableStatusCode(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503} {
		if !IsRetryableStatusCode(code) {
			t.Errorf("%d should be retryable", code)
		}
	}
	for _, code := range []int{200, 400, 401, 404, 422} {
		if IsRetryableStatusCode(code) {
			t.Errorf("%d should not be retryable", code)
		}
	}
}
