package chatstore

import (
	"context"
	"log"

	"github.com/studybuddy-ai/chat-core/chatservice"
	"github.com/studybuddy-ai/chat-core/model"
)

// SendMessageInput is the payload for a streaming send.
type SendMessageInput struct {
	Content     string
	Attachments model.Attachments

	// Subject and SessionType only apply when CreateSessionAndSend
	// creates the session.
	Subject     string
	SessionType model.SessionType
}

// SendMessage runs the full optimistic send/stream cycle:
//
//  1. Requires a current session (ErrNoActiveSession otherwise) and
//     rejects a second concurrent send (ErrSendInFlight).
//  2. Appends an optimistic user message (pending) and an assistant
//     placeholder (streaming, typing) in one atomic update.
//  3. Streams the reply; each token appends to the placeholder's content,
//     matched by correlation id, and the first token drops the typing flag.
//  4. The complete event replaces the placeholder wholesale at its
//     position and completes the paired user message.
//  5. On any stream error both optimistic messages are removed - no
//     half-written bubble survives - and the classified error is re-raised.
//
// Returns the authoritative assistant message, or the optimistic user
// message when the stream ended via [DONE] without a complete event.
func (s *Store) SendMessage(ctx context.Context, input SendMessageInput, onToken func(token string)) (*model.ChatMessage, error) {
	s.mu.Lock()
	if s.state.CurrentSession == nil {
		s.state.LastError = ErrNoActiveSession.Message
		s.mu.Unlock()
		s.notify.Error("No active chat session. Start a new chat first.")
		return nil, ErrNoActiveSession
	}
	if s.state.IsSending {
		s.mu.Unlock()
		s.notify.Warning("Please wait for the current response to finish.")
		return nil, ErrSendInFlight
	}

	sessionID := s.state.CurrentSession.ID
	userCorr := s.newID()
	assistantCorr := s.newID()
	now := s.now()

	userMessage := Message{
		ChatMessage: model.ChatMessage{
			ID:          userCorr,
			SessionID:   sessionID,
			Role:        model.MessageRoleUser,
			Content:     input.Content,
			Status:      model.MessageStatusPending,
			Attachments: input.Attachments,
			CreatedAt:   now,
		},
		CorrelationID: userCorr,
	}
	placeholder := Message{
		ChatMessage: model.ChatMessage{
			ID:        assistantCorr,
			SessionID: sessionID,
			Role:      model.MessageRoleAssistant,
			Status:    model.MessageStatusStreaming,
			CreatedAt: now,
		},
		CorrelationID: assistantCorr,
		Typing:        true,
	}

	s.state.CurrentMessages = append(s.state.CurrentMessages, userMessage, placeholder)
	s.state.IsSending = true
	s.state.IsTyping = true
	s.state.HasStartedChat = true
	s.state.LastError = ""
	s.mu.Unlock()

	var completed *model.ChatMessage

	callbacks := chatservice.StreamCallbacks{
		OnToken: func(token string) {
			s.mu.Lock()
			if i := s.indexByCorrelationLocked(assistantCorr); i >= 0 {
				m := &s.state.CurrentMessages[i]
				if m.SessionID == sessionID {
					m.Content += token
					m.Typing = false
					s.state.IsTyping = false
				}
			}
			s.mu.Unlock()

			if onToken != nil {
				onToken(token)
			}
		},
		OnComplete: func(message *model.ChatMessage) {
			s.mu.Lock()
			if i := s.indexByCorrelationLocked(assistantCorr); i >= 0 {
				s.state.CurrentMessages[i] = Message{ChatMessage: *message}
			}
			if i := s.indexByCorrelationLocked(userCorr); i >= 0 {
				s.state.CurrentMessages[i].Status = model.MessageStatusCompleted
				s.state.CurrentMessages[i].CorrelationID = ""
			}
			s.state.IsTyping = false
			s.state.IsSending = false

			preview := model.DeriveSessionTitle(message.Content)
			if s.state.CurrentSession != nil && s.state.CurrentSession.ID == sessionID {
				s.state.CurrentSession.LastMessage = preview
			}
			for i := range s.state.Sessions {
				if s.state.Sessions[i].ID == sessionID {
					s.state.Sessions[i].LastMessage = preview
					break
				}
			}

			completed = message
			s.mu.Unlock()
		},
	}

	err := s.service.StreamMessage(ctx, chatservice.SendMessageRequest{
		SessionID:   sessionID,
		Content:     input.Content,
		Attachments: input.Attachments,
	}, callbacks)

	s.mu.Lock()
	if err != nil {
		s.removeByCorrelationLocked(userCorr, assistantCorr)
	}
	s.state.IsSending = false
	s.state.IsTyping = false
	s.mu.Unlock()

	if err != nil {
		return nil, s.fail("send message", err)
	}

	s.persist()
	if completed != nil {
		return completed, nil
	}

	// Stream ended via [DONE] without a complete event; hand back the
	// optimistic user message as a best-effort result.
	fallback := userMessage.ChatMessage
	return &fallback, nil
}

// CreateSessionAndSend creates a session titled from the first message
// and returns it immediately while the send streams in the background,
// so callers can navigate to the new conversation before the (slower)
// model response begins. Background send failures are reported through
// the toast sink only; they never roll back the created session.
func (s *Store) CreateSessionAndSend(ctx context.Context, input SendMessageInput) (*model.ChatSession, error) {
	session, err := s.CreateSession(ctx, CreateSessionInput{
		Title:       model.DeriveSessionTitle(input.Content),
		Subject:     input.Subject,
		SessionType: input.SessionType,
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.state.HasStartedChat = true
	s.mu.Unlock()

	// The background send must outlive the caller's request-scoped context.
	bg := context.WithoutCancel(ctx)
	go func() {
		if _, err := s.SendMessage(bg, input, nil); err != nil {
			log.Printf("Warning: background send for new session %s failed: %v", session.ID, err)
		}
	}()

	return session, nil
}
