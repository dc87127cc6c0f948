package chatservice

import (
	"encoding/json"

	"github.com/studybuddy-ai/chat-core/model"
)

// Envelope is the standard response wrapper every non-streaming endpoint
// returns. Data is decoded lazily into the operation's result type.
type Envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Timestamp string          `json:"timestamp"`
	Message   string          `json:"message,omitempty"`
	Errors    []FieldError    `json:"errors,omitempty"`
}

// PaginationMeta mirrors the server's offset-based pagination block.
type PaginationMeta struct {
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	HasMore bool  `json:"has_more"`
}

// SessionPage is one page of session summaries.
type SessionPage struct {
	Sessions   []model.ChatSession `json:"sessions"`
	Pagination PaginationMeta      `json:"pagination"`
}

// MessagePage is one page of messages for a session.
type MessagePage struct {
	Messages   []model.ChatMessage `json:"messages"`
	Pagination PaginationMeta      `json:"pagination"`
}

// CreateSessionRequest creates a new session. Title may be empty; the
// server derives one from the first message.
type CreateSessionRequest struct {
	Title       string            `json:"title,omitempty"`
	Subject     string            `json:"subject,omitempty"`
	SessionType model.SessionType `json:"session_type,omitempty"`
}

// UpdateSessionRequest patches session fields. Nil pointers are left
// untouched by the server.
type UpdateSessionRequest struct {
	Title     *string `json:"title,omitempty"`
	Subject   *string `json:"subject,omitempty"`
	IsStarred *bool   `json:"is_starred,omitempty"`
}

// SendMessageRequest starts a streaming exchange on a session.
type SendMessageRequest struct {
	SessionID   string            `json:"session_id"`
	Content     string            `json:"content"`
	Attachments model.Attachments `json:"attachments,omitempty"`
}

// StreamEvent is one decoded SSE data frame. Type discriminates between
// incremental token fragments and the final authoritative message.
type StreamEvent struct {
	Type    string             `json:"type"` // "token", "complete" or "error"
	Content string             `json:"content,omitempty"`
	Message *model.ChatMessage `json:"message,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// StreamCallbacks receives stream lifecycle events. Any callback may be
// nil; the read loop skips what the caller did not wire.
type StreamCallbacks struct {
	OnToken    func(content string)
	OnComplete func(message *model.ChatMessage)
	OnError    func(err error)
}

// FeedbackRequest marks a message liked or disliked. The two flags are
// mutually exclusive; the server stores them in message metadata.
type FeedbackRequest struct {
	Liked    bool `json:"liked"`
	Disliked bool `json:"disliked"`
}

// SuggestionsResponse carries prompt suggestions for an empty input box.
type SuggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
	Timestamp   string   `json:"timestamp"`
}

// ConversationExport is a rendered conversation in one of the supported
// formats (json, markdown, txt). Content is empty for json exports; the
// structured fields carry the data instead.
type ConversationExport struct {
	Session    *model.ChatSession  `json:"session"`
	Messages   []model.ChatMessage `json:"messages"`
	Format     string              `json:"format"`
	Content    string              `json:"content,omitempty"`
	ExportedAt string              `json:"exported_at"`
}
