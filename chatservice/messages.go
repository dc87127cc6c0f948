package chatservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/studybuddy-ai/chat-core/model"
)

// ListMessages fetches one page of a session's messages, oldest first
// within the page. page is 1-based; page 1 holds the most recent window.
func (c *Client) ListMessages(ctx context.Context, sessionID string, page, limit int) (*MessagePage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}

	q := url.Values{}
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("offset", fmt.Sprintf("%d", (page-1)*limit))

	var result MessagePage
	endpoint := "/chat/sessions/" + url.PathEscape(sessionID) + "/messages?" + q.Encode()
	if err := c.doGet(ctx, endpoint, &result, scopeMessage); err != nil {
		return nil, err
	}
	return &result, nil
}

// SearchMessages runs a server-side content search within one session
func (c *Client) SearchMessages(ctx context.Context, sessionID, query string) (*MessagePage, error) {
	q := url.Values{}
	q.Set("q", query)

	var result MessagePage
	endpoint := "/chat/sessions/" + url.PathEscape(sessionID) + "/messages/search?" + q.Encode()
	if err := c.doGet(ctx, endpoint, &result, scopeMessage); err != nil {
		return nil, err
	}
	return &result, nil
}

// SubmitFeedback records a liked/disliked flag on a message
func (c *Client) SubmitFeedback(ctx context.Context, messageID string, liked, disliked bool) (*model.ChatMessage, error) {
	var message model.ChatMessage
	endpoint := "/chat/messages/" + url.PathEscape(messageID) + "/feedback"
	req := FeedbackRequest{Liked: liked, Disliked: disliked}
	if err := c.doRequest(ctx, http.MethodPost, endpoint, req, &message, scopeMessage); err != nil {
		return nil, err
	}
	return &message, nil
}

// RegenerateMessage asks the server to produce a fresh assistant reply for
// an existing message and returns the rewritten record.
func (c *Client) RegenerateMessage(ctx context.Context, messageID string) (*model.ChatMessage, error) {
	var message model.ChatMessage
	endpoint := "/chat/messages/" + url.PathEscape(messageID) + "/regenerate"
	if err := c.doRequest(ctx, http.MethodPost, endpoint, nil, &message, scopeMessage); err != nil {
		return nil, err
	}
	return &message, nil
}

// Suggestions fetches prompt suggestions, optionally scoped to a session's
// recent conversation.
func (c *Client) Suggestions(ctx context.Context, sessionID string) ([]string, error) {
	q := url.Values{}
	if sessionID != "" {
		q.Set("session_id", sessionID)
	}

	var result SuggestionsResponse
	if err := c.doGet(ctx, "/chat/suggestions?"+q.Encode(), &result, scopeSession); err != nil {
		return nil, err
	}
	return result.Suggestions, nil
}

// UploadAttachment uploads a file to attach to a future message. The
// server validates PDFs (size, page count) before storing.
func (c *Client) UploadAttachment(ctx context.Context, filename string, content []byte) (*model.Attachment, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait cancelled: %w", err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, fmt.Errorf("failed to write file content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/attachments", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	token, err := c.tokens.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to obtain auth token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeAPIError(resp.StatusCode, respBody, scopeMessage, ParseRetryAfter(resp))
	}

	var env Envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, fmt.Errorf("failed to decode response envelope: %w", err)
	}

	var attachment model.Attachment
	if err := json.Unmarshal(env.Data, &attachment); err != nil {
		return nil, fmt.Errorf("failed to decode attachment: %w", err)
	}
	return &attachment, nil
}
