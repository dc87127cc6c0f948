package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/studybuddy-ai/chat-core/model"
	"gorm.io/gorm"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrMessageNotFound = errors.New("message not found")
)

// ChatService owns session and message persistence plus the reply
// generation behind the streaming endpoint.
type ChatService struct {
	db    *gorm.DB
	model ReplyModel
}

// ReplyModel produces the assistant's reply for one conversation turn.
// The default is the deterministic dev model; production wires a real
// LLM client behind the same interface.
type ReplyModel interface {
	Reply(ctx context.Context, session *model.ChatSession, history []model.ChatMessage, content string) (string, error)
}

// NewChatService creates a new chat service with the dev reply model
func NewChatService(db *gorm.DB) *ChatService {
	return &ChatService{db: db, model: DevModel{}}
}

// NewChatServiceWithModel creates a chat service with a custom reply model
func NewChatServiceWithModel(db *gorm.DB, replyModel ReplyModel) *ChatService {
	return &ChatService{db: db, model: replyModel}
}

// CreateSessionInput describes a new session
type CreateSessionInput struct {
	UserID      string
	Title       string
	Subject     string
	SessionType model.SessionType
}

// CreateSession creates a new chat session
func (s *ChatService) CreateSession(ctx context.Context, input CreateSessionInput) (*model.ChatSession, error) {
	sessionType := input.SessionType
	if sessionType == "" {
		sessionType = model.SessionTypeChat
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = "New Chat"
	}

	now := time.Now()
	session := model.ChatSession{
		UserID:       input.UserID,
		Title:        title,
		Subject:      input.Subject,
		SessionType:  sessionType,
		Status:       model.SessionStatusActive,
		LastActivity: &now,
	}

	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &session, nil
}

// ListSessions returns one page of a user's sessions, most recently
// active first, optionally filtered by session type.
func (s *ChatService) ListSessions(ctx context.Context, userID string, sessionType model.SessionType, limit, offset int) ([]model.ChatSession, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.ChatSession{}).Where("user_id = ?", userID)
	if sessionType != "" {
		query = query.Where("session_type = ?", sessionType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count sessions: %w", err)
	}

	var sessions []model.ChatSession
	if err := query.
		Order("last_activity DESC NULLS LAST, created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&sessions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch sessions: %w", err)
	}

	return sessions, total, nil
}

// GetSession fetches one of the user's sessions by id
func (s *ChatService) GetSession(ctx context.Context, sessionID, userID string) (*model.ChatSession, error) {
	var session model.ChatSession
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", sessionID, userID).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to fetch session: %w", err)
	}
	return &session, nil
}

// UpdateSessionInput patches session fields; nil pointers are untouched
type UpdateSessionInput struct {
	Title     *string
	Subject   *string
	IsStarred *bool
}

// UpdateSession patches a session and returns the updated record
func (s *ChatService) UpdateSession(ctx context.Context, sessionID, userID string, input UpdateSessionInput) (*model.ChatSession, error) {
	session, err := s.GetSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Title != nil {
		updates["title"] = strings.TrimSpace(*input.Title)
	}
	if input.Subject != nil {
		updates["subject"] = *input.Subject
	}
	if input.IsStarred != nil {
		updates["is_starred"] = *input.IsStarred
	}
	if len(updates) == 0 {
		return session, nil
	}

	if err := s.db.WithContext(ctx).Model(session).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}
	return session, nil
}

// SetStarred stars or unstars a session
func (s *ChatService) SetStarred(ctx context.Context, sessionID, userID string, starred bool) (*model.ChatSession, error) {
	return s.UpdateSession(ctx, sessionID, userID, UpdateSessionInput{IsStarred: &starred})
}

// DeleteSession soft-deletes a session and its messages
func (s *ChatService) DeleteSession(ctx context.Context, sessionID, userID string) error {
	session, err := s.GetSession(ctx, sessionID, userID)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", session.ID).Delete(&model.ChatMessage{}).Error; err != nil {
			return fmt.Errorf("failed to delete session messages: %w", err)
		}
		if err := tx.Delete(session).Error; err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
		return nil
	})
}

// SearchSessions finds a user's sessions by title or subject
func (s *ChatService) SearchSessions(ctx context.Context, userID, query string, limit, offset int) ([]model.ChatSession, int64, error) {
	pattern := "%" + strings.TrimSpace(query) + "%"
	dbQuery := s.db.WithContext(ctx).Model(&model.ChatSession{}).
		Where("user_id = ?", userID).
		Where("title ILIKE ? OR subject ILIKE ?", pattern, pattern)

	var total int64
	if err := dbQuery.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count search results: %w", err)
	}

	var sessions []model.ChatSession
	if err := dbQuery.
		Order("last_activity DESC NULLS LAST, created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&sessions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to search sessions: %w", err)
	}

	return sessions, total, nil
}

// GetSessionMessages returns one page of a session's messages. Offset 0
// is the most recent window; within a page messages run oldest first so
// the client can prepend older pages while scrolling up.
func (s *ChatService) GetSessionMessages(ctx context.Context, sessionID, userID string, limit, offset int) ([]model.ChatMessage, int64, error) {
	if _, err := s.GetSession(ctx, sessionID, userID); err != nil {
		return nil, 0, err
	}

	query := s.db.WithContext(ctx).Model(&model.ChatMessage{}).Where("session_id = ?", sessionID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	var messages []model.ChatMessage
	if err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch messages: %w", err)
	}

	// Reverse into chronological order within the page.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, total, nil
}

// SearchMessages finds messages by content within one session
func (s *ChatService) SearchMessages(ctx context.Context, sessionID, userID, query string, limit, offset int) ([]model.ChatMessage, int64, error) {
	if _, err := s.GetSession(ctx, sessionID, userID); err != nil {
		return nil, 0, err
	}

	pattern := "%" + strings.TrimSpace(query) + "%"
	dbQuery := s.db.WithContext(ctx).Model(&model.ChatMessage{}).
		Where("session_id = ?", sessionID).
		Where("content ILIKE ?", pattern)

	var total int64
	if err := dbQuery.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count search results: %w", err)
	}

	var messages []model.ChatMessage
	if err := dbQuery.
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to search messages: %w", err)
	}

	return messages, total, nil
}

// GetMessage fetches one of the user's messages by id
func (s *ChatService) GetMessage(ctx context.Context, messageID, userID string) (*model.ChatMessage, error) {
	var message model.ChatMessage
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", messageID, userID).
		First(&message).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to fetch message: %w", err)
	}
	return &message, nil
}

// SubmitFeedback stores liked/disliked flags in the message metadata
func (s *ChatService) SubmitFeedback(ctx context.Context, messageID, userID string, liked, disliked bool) (*model.ChatMessage, error) {
	message, err := s.GetMessage(ctx, messageID, userID)
	if err != nil {
		return nil, err
	}

	message.SetFeedback(liked, disliked)
	if err := s.db.WithContext(ctx).Model(message).Update("metadata", message.Metadata).Error; err != nil {
		return nil, fmt.Errorf("failed to store feedback: %w", err)
	}
	return message, nil
}

// StreamReplyInput starts one conversation turn
type StreamReplyInput struct {
	SessionID   string
	UserID      string
	Content     string
	Attachments model.Attachments
}

// StreamReply persists the user's message, generates the assistant reply
// and emits it token by token through onToken, then persists the
// completed assistant message and updates the session rollups. The
// returned record is the authoritative message the complete event carries.
func (s *ChatService) StreamReply(ctx context.Context, input StreamReplyInput, onToken func(token string) error) (*model.ChatMessage, error) {
	session, err := s.GetSession(ctx, input.SessionID, input.UserID)
	if err != nil {
		return nil, err
	}

	history, _, err := s.GetSessionMessages(ctx, session.ID, input.UserID, 20, 0)
	if err != nil {
		return nil, err
	}

	userMessage := model.ChatMessage{
		SessionID:   session.ID,
		UserID:      input.UserID,
		Role:        model.MessageRoleUser,
		Content:     input.Content,
		Status:      model.MessageStatusCompleted,
		Attachments: input.Attachments,
	}
	if err := s.db.WithContext(ctx).Create(&userMessage).Error; err != nil {
		return nil, fmt.Errorf("failed to persist user message: %w", err)
	}

	reply, err := s.model.Reply(ctx, session, history, input.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to generate reply: %w", err)
	}

	for _, token := range SplitTokens(reply) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := onToken(token); err != nil {
			return nil, fmt.Errorf("failed to emit token: %w", err)
		}
	}

	assistantMessage := model.ChatMessage{
		SessionID:  session.ID,
		UserID:     input.UserID,
		Role:       model.MessageRoleAssistant,
		Content:    reply,
		Status:     model.MessageStatusCompleted,
		IsStreamed: true,
	}
	if err := s.db.WithContext(ctx).Create(&assistantMessage).Error; err != nil {
		return nil, fmt.Errorf("failed to persist assistant message: %w", err)
	}

	if err := s.touchSession(ctx, session, input.Content, reply, len(history) == 0); err != nil {
		return nil, err
	}

	return &assistantMessage, nil
}

// RegenerateMessage produces a fresh reply for an existing assistant
// message and patches its content in place.
func (s *ChatService) RegenerateMessage(ctx context.Context, messageID, userID string) (*model.ChatMessage, error) {
	message, err := s.GetMessage(ctx, messageID, userID)
	if err != nil {
		return nil, err
	}
	if message.Role != model.MessageRoleAssistant {
		return nil, ErrMessageNotFound
	}

	session, err := s.GetSession(ctx, message.SessionID, userID)
	if err != nil {
		return nil, err
	}

	// The turn being regenerated is the user message preceding this reply.
	var prompt model.ChatMessage
	err = s.db.WithContext(ctx).
		Where("session_id = ? AND role = ? AND created_at <= ?", session.ID, model.MessageRoleUser, message.CreatedAt).
		Order("created_at DESC").
		First(&prompt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to find prompt message: %w", err)
	}

	history, _, err := s.GetSessionMessages(ctx, session.ID, userID, 20, 0)
	if err != nil {
		return nil, err
	}

	reply, err := s.model.Reply(ctx, session, history, prompt.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to generate reply: %w", err)
	}

	message.Content = reply
	message.Status = model.MessageStatusCompleted
	if err := s.db.WithContext(ctx).Model(message).Updates(map[string]interface{}{
		"content": reply,
		"status":  model.MessageStatusCompleted,
	}).Error; err != nil {
		return nil, fmt.Errorf("failed to store regenerated reply: %w", err)
	}

	return message, nil
}

// touchSession updates the session rollups after a completed turn
func (s *ChatService) touchSession(ctx context.Context, session *model.ChatSession, userContent, reply string, firstTurn bool) error {
	updates := map[string]interface{}{
		"last_message":  model.DeriveSessionTitle(reply),
		"last_activity": time.Now(),
		"message_count": gorm.Expr("message_count + ?", 2),
	}
	if firstTurn && (session.Title == "" || session.Title == "New Chat") {
		updates["title"] = model.DeriveSessionTitle(userContent)
	}

	if err := s.db.WithContext(ctx).Model(session).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update session rollups: %w", err)
	}
	return nil
}

// SplitTokens cuts a reply into the word-sized fragments the stream
// emits. Whitespace stays attached to the preceding word so the client
// rebuilds the reply by plain concatenation.
func SplitTokens(reply string) []string {
	if reply == "" {
		return nil
	}

	var tokens []string
	var current strings.Builder
	inSpace := false

	for _, r := range reply {
		isSpace := r == ' ' || r == '\n' || r == '\t'
		if inSpace && !isSpace && current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
		current.WriteRune(r)
		inSpace = isSpace
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}
