package chatstore

import "github.com/studybuddy-ai/chat-core/model"

// Message wraps a chat message with client-side streaming state. An
// optimistic (not yet server-confirmed) message carries a client-generated
// CorrelationID; once the authoritative record replaces it the correlation
// id is dropped. In-flight patches match on the correlation id, never on
// list position or id string conventions.
type Message struct {
	model.ChatMessage

	// CorrelationID is the client-generated id pairing an optimistic
	// message with its in-flight send. Empty once confirmed.
	CorrelationID string `json:"-"`

	// Typing is true on an assistant placeholder until its first token
	// arrives.
	Typing bool `json:"-"`
}

// Pending reports whether the message is still optimistic
func (m Message) Pending() bool {
	return m.CorrelationID != ""
}

// confirmed wraps server records as confirmed messages
func confirmed(records []model.ChatMessage) []Message {
	out := make([]Message, len(records))
	for i, r := range records {
		out[i] = Message{ChatMessage: r}
	}
	return out
}
