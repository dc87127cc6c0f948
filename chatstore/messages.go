package chatstore

import (
	"context"

	"github.com/studybuddy-ai/chat-core/chatservice"
	"github.com/studybuddy-ai/chat-core/model"
)

// LoadMessages fetches one page of a session's history. refresh resets
// the cursor and replaces the conversation; older pages are prepended,
// matching upward scroll, while newly sent messages append downward.
func (s *Store) LoadMessages(ctx context.Context, sessionID string, refresh bool) error {
	s.clearError()
	s.setLoading(true)
	defer s.setLoading(false)

	s.mu.Lock()
	page := s.state.MessagesPage
	if refresh {
		page = 1
	}
	s.mu.Unlock()

	result, err := s.service.ListMessages(ctx, sessionID, page, s.pageSize)
	if err != nil {
		return s.fail("load messages", err)
	}

	s.mu.Lock()
	loaded := confirmed(result.Messages)
	if refresh {
		s.state.CurrentMessages = loaded
	} else {
		s.state.CurrentMessages = append(loaded, s.state.CurrentMessages...)
	}
	s.state.MessagesPage = page + 1
	s.state.HasMoreMessages = result.Pagination.HasMore
	s.state.HasStartedChat = len(s.state.CurrentMessages) > 0
	s.mu.Unlock()

	return nil
}

// LoadMoreMessages loads the next (older) history page. No-op without an
// active session, without further pages, or while a load is in flight.
func (s *Store) LoadMoreMessages(ctx context.Context) error {
	s.mu.Lock()
	if s.state.CurrentSession == nil || !s.state.HasMoreMessages || s.state.IsLoading {
		s.mu.Unlock()
		return nil
	}
	sessionID := s.state.CurrentSession.ID
	s.mu.Unlock()

	return s.LoadMessages(ctx, sessionID, false)
}

// SearchMessages replaces the conversation view with server-side search
// results for the current session.
func (s *Store) SearchMessages(ctx context.Context, query string) error {
	s.clearError()

	s.mu.Lock()
	if s.state.CurrentSession == nil {
		s.state.LastError = ErrNoActiveSession.Message
		s.mu.Unlock()
		return ErrNoActiveSession
	}
	sessionID := s.state.CurrentSession.ID
	s.mu.Unlock()

	result, err := s.service.SearchMessages(ctx, sessionID, query)
	if err != nil {
		return s.fail("search messages", err)
	}

	s.mu.Lock()
	s.state.CurrentMessages = confirmed(result.Messages)
	s.state.MessagesPage = 2
	s.state.HasMoreMessages = result.Pagination.HasMore
	s.mu.Unlock()

	return nil
}

// CopyMessage puts a message's content on the clipboard
func (s *Store) CopyMessage(messageID string) error {
	s.mu.Lock()
	i := s.indexByIDLocked(messageID)
	var content string
	if i >= 0 {
		content = s.state.CurrentMessages[i].Content
	}
	s.mu.Unlock()

	if i < 0 {
		s.notify.Error("Message not found")
		return &StoreError{Code: string(chatservice.CodeMessageNotFound), Message: "message not found"}
	}

	if err := s.clipboard.WriteText(content); err != nil {
		s.notify.Error("Failed to copy message")
		return err
	}

	s.notify.Success("Copied to clipboard")
	return nil
}

// LikeMessage records positive feedback: the metadata flags are patched
// optimistically, then persisted remotely; a failed submit reverts them.
func (s *Store) LikeMessage(ctx context.Context, messageID string) error {
	return s.submitFeedback(ctx, messageID, true, false)
}

// DislikeMessage records negative feedback
func (s *Store) DislikeMessage(ctx context.Context, messageID string) error {
	return s.submitFeedback(ctx, messageID, false, true)
}

func (s *Store) submitFeedback(ctx context.Context, messageID string, liked, disliked bool) error {
	s.clearError()

	s.mu.Lock()
	i := s.indexByIDLocked(messageID)
	var previous model.JSONMap
	if i >= 0 {
		previous = s.state.CurrentMessages[i].Metadata
		patched := s.state.CurrentMessages[i]
		patched.Metadata = clonedMetadata(previous)
		patched.SetFeedback(liked, disliked)
		s.state.CurrentMessages[i] = patched
	}
	s.mu.Unlock()

	message, err := s.service.SubmitFeedback(ctx, messageID, liked, disliked)
	if err != nil {
		s.mu.Lock()
		if j := s.indexByIDLocked(messageID); j >= 0 {
			s.state.CurrentMessages[j].Metadata = previous
		}
		s.mu.Unlock()
		return s.fail("submit feedback", err)
	}

	s.mu.Lock()
	if j := s.indexByIDLocked(messageID); j >= 0 {
		s.state.CurrentMessages[j] = Message{ChatMessage: *message}
	}
	s.mu.Unlock()

	return nil
}

// RegenerateMessage asks the server for a fresh reply and patches the
// message's content in place by id. The typing flag is up for the
// duration of the call.
func (s *Store) RegenerateMessage(ctx context.Context, messageID string) error {
	s.clearError()

	s.mu.Lock()
	s.state.IsTyping = true
	s.mu.Unlock()

	message, err := s.service.RegenerateMessage(ctx, messageID)

	s.mu.Lock()
	s.state.IsTyping = false
	if err == nil {
		if i := s.indexByIDLocked(messageID); i >= 0 {
			s.state.CurrentMessages[i] = Message{ChatMessage: *message}
		}
	}
	s.mu.Unlock()

	if err != nil {
		return s.fail("regenerate message", err)
	}
	return nil
}

func clonedMetadata(src model.JSONMap) model.JSONMap {
	out := model.JSONMap{}
	for k, v := range src {
		out[k] = v
	}
	return out
}
