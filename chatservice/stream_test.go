package chatservice

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/studybuddy-ai/chat-core/model"
)

func sseServer(t *testing.T, lines []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/messages/stream" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Accept"); got != "text/event-stream" {
			t.Errorf("missing event-stream Accept header, got %q", got)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, line := range lines {
			fmt.Fprintf(w, "%s\n", line)
		}
	}))
}

func TestStreamMessageDispatchesTokensAndComplete(t *testing.T) {
	server := sseServer(t, []string{
		`data: {"type":"token","content":"Hello"}`,
		"",
		`data: {"type":"token","content":" world"}`,
		`data: {"type":"complete","message":{"id":"m1","role":"assistant","content":"Hello world","status":"completed"}}`,
		`data: [DONE]`,
	})
	defer server.Close()

	client := newTestClient(t, server)

	var tokens []string
	var completed *model.ChatMessage
	err := client.StreamMessage(context.Background(), SendMessageRequest{SessionID: "s1", Content: "hi"}, StreamCallbacks{
		OnToken:    func(token string) { tokens = append(tokens, token) },
		OnComplete: func(m *model.ChatMessage) { completed = m },
	})
	if err != nil {
		t.Fatalf("StreamMessage returned error: %v", err)
	}

	if got := strings.Join(tokens, ""); got != "Hello world" {
		t.Errorf("tokens do not rebuild reply: %q", got)
	}
	if completed == nil || completed.Content != "Hello world" {
		t.Errorf("complete event not dispatched: %+v", completed)
	}
	if completed != nil && completed.Status != model.MessageStatusCompleted {
		t.Errorf("unexpected status on completed message: %s", completed.Status)
	}
}

func TestStreamMessageSkipsNoiseLines(t *testing.T) {
	server := sseServer(t, []string{
		`: keepalive`,
		`event: token`,
		`data: {not json`,
		`data: {"type":"token","content":"ok"}`,
		`data: {"type":"mystery","content":"ignored"}`,
		`data: [DONE]`,
	})
	defer server.Close()

	client := newTestClient(t, server)

	var tokens []string
	err := client.StreamMessage(context.Background(), SendMessageRequest{SessionID: "s1", Content: "hi"}, StreamCallbacks{
		OnToken: func(token string) { tokens = append(tokens, token) },
	})
	if err != nil {
		t.Fatalf("noise lines must not abort the stream, got %v", err)
	}
	if len(tokens) != 1 || tokens[0] != "ok" {
		t.Errorf("expected exactly one token, got %v", tokens)
	}
}

func TestStreamMessageBodyCloseWithoutDone(t *testing.T) {
	server := sseServer(t, []string{
		`data: {"type":"token","content":"partial"}`,
	})
	defer server.Close()

	client := newTestClient(t, server)

	var tokens []string
	err := client.StreamMessage(context.Background(), SendMessageRequest{SessionID: "s1", Content: "hi"}, StreamCallbacks{
		OnToken: func(token string) { tokens = append(tokens, token) },
	})
	if err != nil {
		t.Fatalf("body close without sentinel should be a clean end, got %v", err)
	}
	if len(tokens) != 1 {
		t.Errorf("dispatched tokens should survive the truncated stream, got %v", tokens)
	}
}

func TestStreamMessageInBandError(t *testing.T) {
	server := sseServer(t, []string{
		`data: {"type":"token","content":"He"}`,
		`data: {"type":"error","error":"model backend unavailable"}`,
		`data: [DONE]`,
	})
	defer server.Close()

	client := newTestClient(t, server)

	var errFromCallback error
	err := client.StreamMessage(context.Background(), SendMessageRequest{SessionID: "s1", Content: "hi"}, StreamCallbacks{
		OnError: func(e error) { errFromCallback = e },
	})
	if err == nil {
		t.Fatal("expected error from in-band error event")
	}
	if !strings.Contains(err.Error(), "model backend unavailable") {
		t.Errorf("error should carry the event message, got %v", err)
	}
	if errFromCallback == nil {
		t.Error("OnError callback was not invoked")
	}
}

func TestStreamMessageNon200IsClassified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"success":false,"message":"Session not found"}`)
	}))
	defer server.Close()

	client := newTestClient(t, server)
	err := client.StreamMessage(context.Background(), SendMessageRequest{SessionID: "missing", Content: "hi"}, StreamCallbacks{})
	if !IsCode(err, CodeMessageNotFound) {
		t.Fatalf("expected MESSAGE_NOT_FOUND classification for stream 404, got %v", err)
	}
}

func TestStreamMessageCancelledContext(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"type\":\"token\",\"content\":\"x\"}\n")
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := newTestClient(t, server)

	ctx, cancel := context.WithCancel(context.Background())
	err := client.StreamMessage(ctx, SendMessageRequest{SessionID: "s1", Content: "hi"}, StreamCallbacks{
		OnToken: func(string) { cancel() },
	})
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if !strings.Contains(err.Error(), "cancel") {
		t.Errorf("expected a cancellation error, got %v", err)
	}
}
