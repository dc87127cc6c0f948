package chatservice

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/studybuddy-ai/chat-core/model"
)

// CreateSession creates a new chat session
func (c *Client) CreateSession(ctx context.Context, req CreateSessionRequest) (*model.ChatSession, error) {
	var session model.ChatSession
	if err := c.doRequest(ctx, http.MethodPost, "/chat/sessions", req, &session, scopeSession); err != nil {
		return nil, err
	}
	return &session, nil
}

// GetSession fetches one session's metadata
func (c *Client) GetSession(ctx context.Context, sessionID string) (*model.ChatSession, error) {
	var session model.ChatSession
	endpoint := "/chat/sessions/" + url.PathEscape(sessionID)
	if err := c.doGet(ctx, endpoint, &session, scopeSession); err != nil {
		return nil, err
	}
	return &session, nil
}

// ListSessions fetches one page of session summaries, optionally filtered
// by session type. page is 1-based.
func (c *Client) ListSessions(ctx context.Context, page, limit int, sessionType model.SessionType) (*SessionPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	q := url.Values{}
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("offset", fmt.Sprintf("%d", (page-1)*limit))
	if sessionType != "" {
		q.Set("session_type", string(sessionType))
	}

	var result SessionPage
	if err := c.doGet(ctx, "/chat/sessions?"+q.Encode(), &result, scopeSession); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateSession patches session fields and returns the updated record
func (c *Client) UpdateSession(ctx context.Context, sessionID string, req UpdateSessionRequest) (*model.ChatSession, error) {
	var session model.ChatSession
	endpoint := "/chat/sessions/" + url.PathEscape(sessionID)
	if err := c.doRequest(ctx, http.MethodPut, endpoint, req, &session, scopeSession); err != nil {
		return nil, err
	}
	return &session, nil
}

// DeleteSession removes a session and all its messages
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	endpoint := "/chat/sessions/" + url.PathEscape(sessionID)
	return c.doRequest(ctx, http.MethodDelete, endpoint, nil, nil, scopeSession)
}

// StarSession marks a session as starred
func (c *Client) StarSession(ctx context.Context, sessionID string) (*model.ChatSession, error) {
	var session model.ChatSession
	endpoint := "/chat/sessions/" + url.PathEscape(sessionID) + "/star"
	if err := c.doRequest(ctx, http.MethodPost, endpoint, nil, &session, scopeSession); err != nil {
		return nil, err
	}
	return &session, nil
}

// UnstarSession removes a session's star
func (c *Client) UnstarSession(ctx context.Context, sessionID string) (*model.ChatSession, error) {
	var session model.ChatSession
	endpoint := "/chat/sessions/" + url.PathEscape(sessionID) + "/star"
	if err := c.doRequest(ctx, http.MethodDelete, endpoint, nil, &session, scopeSession); err != nil {
		return nil, err
	}
	return &session, nil
}

// SearchSessions runs a server-side title/subject search
func (c *Client) SearchSessions(ctx context.Context, query string) (*SessionPage, error) {
	q := url.Values{}
	q.Set("q", query)

	var result SessionPage
	if err := c.doGet(ctx, "/chat/sessions/search?"+q.Encode(), &result, scopeSession); err != nil {
		return nil, err
	}
	return &result, nil
}

// ExportConversation renders a full conversation in the requested format
// (json, markdown or txt).
func (c *Client) ExportConversation(ctx context.Context, sessionID, format string) (*ConversationExport, error) {
	q := url.Values{}
	if format != "" {
		q.Set("format", format)
	}

	var result ConversationExport
	endpoint := "/chat/sessions/" + url.PathEscape(sessionID) + "/export?" + q.Encode()
	if err := c.doGet(ctx, endpoint, &result, scopeSession); err != nil {
		return nil, err
	}
	return &result, nil
}
