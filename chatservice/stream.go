package chatservice

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/studybuddy-ai/chat-core/utils/sse"
)

// maxStreamLineSize bounds one SSE data line. A complete event carries a
// whole message record, so the cap is well above any token fragment.
const maxStreamLineSize = 1 << 20

// StreamMessage opens the streaming send endpoint and dispatches decoded
// events to the callbacks. The read loop:
//
//   - buffers partial lines across network chunks (bufio handles frames
//     split mid-line),
//   - skips blank lines and ": comment" keepalives,
//   - parses "data: " payloads, logging and skipping malformed JSON so a
//     single bad line cannot abort the stream,
//   - stops cleanly on the literal [DONE] sentinel,
//   - checks ctx before dispatching each line, so a cancelled caller stops
//     receiving callbacks immediately.
//
// The returned error is also delivered to callbacks.OnError when set.
func (c *Client) StreamMessage(ctx context.Context, req SendMessageRequest, callbacks StreamCallbacks) error {
	err := c.streamMessage(ctx, req, callbacks)
	if err != nil && callbacks.OnError != nil {
		callbacks.OnError(err)
	}
	return err
}

func (c *Client) streamMessage(ctx context.Context, req SendMessageRequest, callbacks StreamCallbacks) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait cancelled: %w", err)
	}

	jsonBody, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/messages/stream", bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	token, err := c.tokens.Token()
	if err != nil {
		return fmt.Errorf("failed to obtain auth token: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	// Streaming client: no client-level timeout, the stream runs until the
	// server closes it or ctx is cancelled.
	resp, err := c.streamingClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("stream request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode == http.StatusTooManyRequests {
			c.rateLimiter.SetBackoffMultiplier(2.0)
		}
		return decodeAPIError(resp.StatusCode, body, scopeMessage, ParseRetryAfter(resp))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxStreamLineSize)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("stream cancelled: %w", err)
		}

		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		data := strings.TrimPrefix(line, "data: ")
		if data == sse.DoneSentinel {
			return nil
		}

		var event StreamEvent
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			log.Printf("Warning: [STREAM] skipping malformed event line: %v", err)
			continue
		}

		switch event.Type {
		case "token":
			if callbacks.OnToken != nil {
				callbacks.OnToken(event.Content)
			}
		case "complete":
			if event.Message != nil && callbacks.OnComplete != nil {
				callbacks.OnComplete(event.Message)
			}
		case "error":
			msg := event.Error
			if msg == "" {
				msg = event.Content
			}
			return &APIError{StatusCode: http.StatusOK, Code: CodeUnknown, Message: msg}
		default:
			log.Printf("Warning: [STREAM] unknown event type %q", event.Type)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stream read error: %w", err)
	}

	// Server closed the body without a [DONE] sentinel. The events seen so
	// far were already dispatched, so treat it as a clean end.
	return nil
}
