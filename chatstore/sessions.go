package chatstore

import (
	"context"

	"github.com/studybuddy-ai/chat-core/chatservice"
	"github.com/studybuddy-ai/chat-core/model"
)

// CreateSessionInput describes a new session. Empty fields take server
// defaults.
type CreateSessionInput struct {
	Title       string
	Subject     string
	SessionType model.SessionType
}

// UpdateSessionInput patches session fields; nil pointers are untouched.
type UpdateSessionInput struct {
	Title     *string
	Subject   *string
	IsStarred *bool
}

// CreateSession creates an empty session, sets it active and prepends it
// to the session list. On failure state is unchanged beyond the loading
// flag and the error binding.
func (s *Store) CreateSession(ctx context.Context, input CreateSessionInput) (*model.ChatSession, error) {
	s.clearError()
	s.setLoading(true)
	defer s.setLoading(false)

	session, err := s.service.CreateSession(ctx, chatservice.CreateSessionRequest{
		Title:       input.Title,
		Subject:     input.Subject,
		SessionType: input.SessionType,
	})
	if err != nil {
		return nil, s.fail("create session", err)
	}

	s.mu.Lock()
	s.state.CurrentSession = session
	s.state.Sessions = append([]model.ChatSession{*session}, s.state.Sessions...)
	s.state.CurrentMessages = nil
	s.state.MessagesPage = 1
	s.state.HasMoreMessages = false
	s.state.HasStartedChat = false
	s.mu.Unlock()

	s.persist()
	return session, nil
}

// LoadSession fetches session metadata and makes it current. Message
// history is reloaded only when the session differs from the cached one
// or no messages are cached yet, so revisiting the same session does not
// refetch. On failure the current session is cleared and the error
// propagates; callers redirect away from the invalid id.
func (s *Store) LoadSession(ctx context.Context, sessionID string) error {
	s.clearError()
	s.setLoading(true)
	defer s.setLoading(false)

	session, err := s.service.GetSession(ctx, sessionID)
	if err != nil {
		s.mu.Lock()
		s.state.CurrentSession = nil
		s.mu.Unlock()
		return s.fail("load session", err)
	}

	s.mu.Lock()
	cached := s.state.CurrentSession != nil &&
		s.state.CurrentSession.ID == sessionID &&
		len(s.state.CurrentMessages) > 0
	s.state.CurrentSession = session
	s.state.Sessions = mergeSessions(s.state.Sessions, []model.ChatSession{*session})
	s.mu.Unlock()

	if !cached {
		if err := s.LoadMessages(ctx, sessionID, true); err != nil {
			return err
		}
	}

	s.persist()
	return nil
}

// LoadSessions fetches one page of session summaries. refresh resets the
// cursor to 1 and replaces the list; otherwise the next page is merged
// in. Duplicate ids keep their first-seen position with the freshly
// fetched data winning. The cursor always advances by one.
func (s *Store) LoadSessions(ctx context.Context, refresh bool, filterType model.SessionType) error {
	s.clearError()
	s.setLoading(true)
	defer s.setLoading(false)

	s.mu.Lock()
	page := s.state.SessionsPage
	if refresh {
		page = 1
	}
	s.mu.Unlock()

	result, err := s.service.ListSessions(ctx, page, s.pageSize, filterType)
	if err != nil {
		return s.fail("load sessions", err)
	}

	s.mu.Lock()
	existing := s.state.Sessions
	if refresh {
		existing = nil
	}
	s.state.Sessions = mergeSessions(existing, result.Sessions)
	s.state.SessionsPage = page + 1
	s.state.HasMoreSessions = result.Pagination.HasMore
	s.mu.Unlock()

	s.persist()
	return nil
}

// UpdateSession performs the remote mutation then patches the local
// session list entry and the current session in place.
func (s *Store) UpdateSession(ctx context.Context, sessionID string, input UpdateSessionInput) (*model.ChatSession, error) {
	s.clearError()

	session, err := s.service.UpdateSession(ctx, sessionID, chatservice.UpdateSessionRequest{
		Title:     input.Title,
		Subject:   input.Subject,
		IsStarred: input.IsStarred,
	})
	if err != nil {
		return nil, s.fail("update session", err)
	}

	s.applySessionPatch(session)
	s.persist()
	s.notify.Success("Session updated")
	return session, nil
}

// DeleteSession removes the session remotely and locally. Deleting the
// current session clears the active conversation.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	s.clearError()

	if err := s.service.DeleteSession(ctx, sessionID); err != nil {
		return s.fail("delete session", err)
	}

	s.mu.Lock()
	kept := s.state.Sessions[:0]
	for _, session := range s.state.Sessions {
		if session.ID != sessionID {
			kept = append(kept, session)
		}
	}
	s.state.Sessions = kept

	if s.state.CurrentSession != nil && s.state.CurrentSession.ID == sessionID {
		s.state.CurrentSession = nil
		s.state.CurrentMessages = nil
		s.state.MessagesPage = 1
		s.state.HasMoreMessages = false
		s.state.HasStartedChat = false
	}
	s.mu.Unlock()

	s.persist()
	s.notify.Success("Session deleted")
	return nil
}

// StarSession stars a session, reusing the update patch path locally
func (s *Store) StarSession(ctx context.Context, sessionID string) error {
	s.clearError()

	session, err := s.service.StarSession(ctx, sessionID)
	if err != nil {
		return s.fail("star session", err)
	}

	s.applySessionPatch(session)
	s.persist()
	s.notify.Success("Session starred")
	return nil
}

// UnstarSession removes a session's star
func (s *Store) UnstarSession(ctx context.Context, sessionID string) error {
	s.clearError()

	session, err := s.service.UnstarSession(ctx, sessionID)
	if err != nil {
		return s.fail("unstar session", err)
	}

	s.applySessionPatch(session)
	s.persist()
	s.notify.Success("Star removed")
	return nil
}

// SearchSessions replaces the session list with server-side search
// results. Pagination is reset from the response; no further pages are
// fetched automatically.
func (s *Store) SearchSessions(ctx context.Context, query string) error {
	s.clearError()
	s.setLoading(true)
	defer s.setLoading(false)

	result, err := s.service.SearchSessions(ctx, query)
	if err != nil {
		return s.fail("search sessions", err)
	}

	s.mu.Lock()
	s.state.Sessions = result.Sessions
	s.state.SessionsPage = 2
	s.state.HasMoreSessions = result.Pagination.HasMore
	s.mu.Unlock()

	return nil
}

// applySessionPatch replaces the list entry and current session matching
// the updated record.
func (s *Store) applySessionPatch(session *model.ChatSession) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.state.Sessions {
		if s.state.Sessions[i].ID == session.ID {
			s.state.Sessions[i] = *session
			break
		}
	}
	if s.state.CurrentSession != nil && s.state.CurrentSession.ID == session.ID {
		cp := *session
		s.state.CurrentSession = &cp
	}
}
