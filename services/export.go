package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/studybuddy-ai/chat-core/model"
)

// Export formats supported by ExportConversation
const (
	ExportFormatJSON     = "json"
	ExportFormatMarkdown = "markdown"
	ExportFormatText     = "txt"
)

var ErrUnsupportedExportFormat = fmt.Errorf("unsupported export format")

// ConversationExport is a rendered conversation. Content is empty for
// json exports; the structured fields carry the data instead.
type ConversationExport struct {
	Session    *model.ChatSession  `json:"session"`
	Messages   []model.ChatMessage `json:"messages"`
	Format     string              `json:"format"`
	Content    string              `json:"content,omitempty"`
	ExportedAt string              `json:"exported_at"`
}

// ExportConversation renders a full conversation in json, markdown or
// txt. Messages are loaded in chronological order without pagination.
func (s *ChatService) ExportConversation(ctx context.Context, sessionID, userID, format string) (*ConversationExport, error) {
	if format == "" {
		format = ExportFormatJSON
	}

	session, err := s.GetSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	var messages []model.ChatMessage
	if err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch messages for export: %w", err)
	}

	export := &ConversationExport{
		Session:    session,
		Messages:   messages,
		Format:     format,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
	}

	switch format {
	case ExportFormatJSON:
		// Structured fields are the payload.
	case ExportFormatMarkdown:
		export.Content = renderMarkdownExport(session, messages)
	case ExportFormatText:
		export.Content = renderTextExport(session, messages)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedExportFormat, format)
	}

	return export, nil
}

func renderMarkdownExport(session *model.ChatSession, messages []model.ChatMessage) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", session.Title)
	if session.Subject != "" {
		fmt.Fprintf(&b, "**Subject:** %s\n\n", session.Subject)
	}
	fmt.Fprintf(&b, "**Created:** %s\n\n", session.CreatedAt.Format("2006-01-02 15:04"))
	b.WriteString("---\n\n")

	for _, message := range messages {
		role := "Assistant"
		if message.Role == model.MessageRoleUser {
			role = "You"
		}
		fmt.Fprintf(&b, "## %s\n", role)
		fmt.Fprintf(&b, "*%s*\n\n", message.CreatedAt.Format("2006-01-02 15:04"))
		b.WriteString(message.Content)
		b.WriteString("\n\n")
	}

	return b.String()
}

func renderTextExport(session *model.ChatSession, messages []model.ChatMessage) string {
	var b strings.Builder

	b.WriteString(session.Title + "\n")
	b.WriteString(strings.Repeat("=", 50) + "\n")
	if session.Subject != "" {
		fmt.Fprintf(&b, "Subject: %s\n", session.Subject)
	}
	fmt.Fprintf(&b, "Created: %s\n\n", session.CreatedAt.Format("2006-01-02 15:04"))

	for _, message := range messages {
		fmt.Fprintf(&b, "%s (%s):\n", strings.ToUpper(string(message.Role)), message.CreatedAt.Format("2006-01-02 15:04"))
		b.WriteString(message.Content + "\n")
		b.WriteString(strings.Repeat("-", 30) + "\n")
	}

	return b.String()
}
