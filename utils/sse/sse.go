package sse

import (
	"bufio"
	"encoding/json"
	"fmt"
)

// DoneSentinel is the literal data line that terminates a chat stream.
const DoneSentinel = "[DONE]"

// Event represents an SSE event to be sent to clients
type Event struct {
	// Event is the SSE event type. If empty, no "event:" line is written;
	// chat streaming relies on the JSON "type" discriminant instead.
	Event string

	// Data is the payload to send (will be JSON-encoded if not a string)
	Data interface{}

	// ID is an optional event ID for reconnection support
	ID string

	// Retry is an optional reconnection time in milliseconds
	Retry int
}

// Send writes an SSE event to the given writer and flushes immediately
func Send(w *bufio.Writer, event Event) error {
	// Write event ID if provided
	if event.ID != "" {
		if _, err := fmt.Fprintf(w, "id: %s\n", event.ID); err != nil {
			return fmt.Errorf("failed to write event ID: %w", err)
		}
	}

	// Write retry time if provided
	if event.Retry > 0 {
		if _, err := fmt.Fprintf(w, "retry: %d\n", event.Retry); err != nil {
			return fmt.Errorf("failed to write retry: %w", err)
		}
	}

	// Write event type if provided
	if event.Event != "" {
		if _, err := fmt.Fprintf(w, "event: %s\n", event.Event); err != nil {
			return fmt.Errorf("failed to write event type: %w", err)
		}
	}

	// Write data
	var dataStr string
	switch v := event.Data.(type) {
	case string:
		dataStr = v
	case []byte:
		dataStr = string(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal event data: %w", err)
		}
		dataStr = string(data)
	}

	if _, err := fmt.Fprintf(w, "data: %s\n\n", dataStr); err != nil {
		return fmt.Errorf("failed to write event data: %w", err)
	}

	return w.Flush()
}

// SendToken sends one incremental content fragment
func SendToken(w *bufio.Writer, content string) error {
	return Send(w, Event{
		Data: map[string]interface{}{
			"type":    "token",
			"content": content,
		},
	})
}

// SendComplete sends the authoritative completed message record
func SendComplete(w *bufio.Writer, message interface{}) error {
	return Send(w, Event{
		Data: map[string]interface{}{
			"type":    "complete",
			"message": message,
		},
	})
}

// SendStreamError sends an in-band error event; the stream should be
// terminated with SendDone afterwards.
func SendStreamError(w *bufio.Writer, message string) error {
	return Send(w, Event{
		Data: map[string]interface{}{
			"type":  "error",
			"error": message,
		},
	})
}

// SendDone terminates the stream with the literal sentinel
func SendDone(w *bufio.Writer) error {
	return Send(w, Event{Data: DoneSentinel})
}

// SendKeepAlive sends a comment (: ping) to keep the connection alive
// Useful for long-running operations to prevent proxy timeouts
func SendKeepAlive(w *bufio.Writer) error {
	if _, err := fmt.Fprintf(w, ": ping\n\n"); err != nil {
		return fmt.Errorf("failed to write keepalive: %w", err)
	}
	return w.Flush()
}
