package chatstore

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/studybuddy-ai/chat-core/chatservice"
	"github.com/studybuddy-ai/chat-core/model"
	"github.com/studybuddy-ai/chat-core/utils/clipboard"
)

// DefaultPageSize is the page size for session and message pagination.
const DefaultPageSize = 20

// State is everything the UI binds to. Snapshot returns a copy; all
// mutation happens inside the store's actions under one mutex, so each
// action's state change is a single atomic transition.
type State struct {
	CurrentSession  *model.ChatSession
	CurrentMessages []Message
	Sessions        []model.ChatSession

	SessionsPage    int
	MessagesPage    int
	HasMoreSessions bool
	HasMoreMessages bool

	IsLoading      bool
	IsSending      bool
	IsTyping       bool
	HasStartedChat bool
	LastError      string
}

// Config wires the store's collaborators. Service is required; the rest
// default to no-op or log-backed implementations.
type Config struct {
	Service   Service
	Auth      AuthProvider
	Notify    Notifier
	Clipboard clipboard.Clipboard

	// Snapshots, when set, persists the durable subset of state across
	// restarts (sessions, current session, selection - never transient
	// flags or in-flight buffers).
	Snapshots SnapshotStore

	// PageSize overrides DefaultPageSize.
	PageSize int

	// Clock and NewID are injected in tests for determinism.
	Clock func() time.Time
	NewID func() string
}

// Store owns all client-visible chat state and coordinates every
// operation against the remote chat service. It is the single writer of
// its own state; callers read through Snapshot and mutate through the
// action methods.
type Store struct {
	mu sync.Mutex

	service   Service
	auth      AuthProvider
	notify    Notifier
	clipboard clipboard.Clipboard
	snapshots SnapshotStore

	pageSize int
	now      func() time.Time
	newID    func() string

	state State
}

// New creates a store and restores the persisted snapshot when a
// SnapshotStore is configured.
func New(cfg Config) *Store {
	if cfg.Service == nil {
		panic("chatstore: Config.Service is required")
	}

	s := &Store{
		service:   cfg.Service,
		auth:      cfg.Auth,
		notify:    cfg.Notify,
		clipboard: cfg.Clipboard,
		snapshots: cfg.Snapshots,
		pageSize:  cfg.PageSize,
		now:       cfg.Clock,
		newID:     cfg.NewID,
	}
	if s.notify == nil {
		s.notify = LogNotifier{}
	}
	if s.clipboard == nil {
		s.clipboard = &clipboard.Memory{}
	}
	if s.pageSize <= 0 {
		s.pageSize = DefaultPageSize
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}

	s.state.SessionsPage = 1
	s.state.MessagesPage = 1

	s.restore()
	return s
}

// Snapshot returns a copy of the current state. Slices and the current
// session are copied so callers cannot mutate store internals.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyStateLocked()
}

func (s *Store) copyStateLocked() State {
	out := s.state
	out.Sessions = append([]model.ChatSession(nil), s.state.Sessions...)
	out.CurrentMessages = append([]Message(nil), s.state.CurrentMessages...)
	if s.state.CurrentSession != nil {
		cp := *s.state.CurrentSession
		out.CurrentSession = &cp
	}
	return out
}

// fail records err on the state, routes it to the toast sink by error
// class, and returns the wrapped error for the caller to re-raise.
// UNAUTHENTICATED additionally forces a logout - the one error class with
// a side effect beyond the originating call.
func (s *Store) fail(operation string, err error) error {
	wrapped := fmt.Errorf("failed to %s: %w", operation, err)

	display := wrapped.Error()
	var apiErr *chatservice.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		display = apiErr.Message
	}

	s.mu.Lock()
	s.state.LastError = display
	s.mu.Unlock()

	switch chatservice.ErrorCode(err) {
	case chatservice.CodeRateLimitExceeded:
		s.notify.Warning("You're sending requests too quickly. Please wait a moment and try again.")
	case chatservice.CodeUnauthenticated:
		s.notify.Error("Your session has expired. Please sign in again.")
		if s.auth != nil {
			s.auth.Logout()
		}
	default:
		s.notify.Error(display)
	}

	return wrapped
}

// clearError resets the error binding at the start of a new action
func (s *Store) clearError() {
	s.mu.Lock()
	s.state.LastError = ""
	s.mu.Unlock()
}

func (s *Store) setLoading(loading bool) {
	s.mu.Lock()
	s.state.IsLoading = loading
	s.mu.Unlock()
}

// indexByCorrelationLocked finds an optimistic message by correlation id
func (s *Store) indexByCorrelationLocked(correlationID string) int {
	for i := range s.state.CurrentMessages {
		if s.state.CurrentMessages[i].CorrelationID == correlationID {
			return i
		}
	}
	return -1
}

// indexByIDLocked finds a message by its (server or optimistic) id
func (s *Store) indexByIDLocked(messageID string) int {
	for i := range s.state.CurrentMessages {
		if s.state.CurrentMessages[i].ID == messageID {
			return i
		}
	}
	return -1
}

// removeByCorrelationLocked drops optimistic messages by correlation id
func (s *Store) removeByCorrelationLocked(correlationIDs ...string) {
	drop := make(map[string]bool, len(correlationIDs))
	for _, id := range correlationIDs {
		drop[id] = true
	}

	kept := s.state.CurrentMessages[:0]
	for _, m := range s.state.CurrentMessages {
		if m.CorrelationID == "" || !drop[m.CorrelationID] {
			kept = append(kept, m)
		}
	}
	s.state.CurrentMessages = kept
}

// mergeSessions merges incoming into existing, deduplicated by id.
// Policy: last-write-wins data at first-seen position.
func mergeSessions(existing, incoming []model.ChatSession) []model.ChatSession {
	out := append([]model.ChatSession(nil), existing...)
	index := make(map[string]int, len(out))
	for i := range out {
		index[out[i].ID] = i
	}

	for _, session := range incoming {
		if i, ok := index[session.ID]; ok {
			out[i] = session
		} else {
			index[session.ID] = len(out)
			out = append(out, session)
		}
	}
	return out
}

// persist saves the durable subset of state. Best effort: a failed save
// is logged, never surfaced, and never blocks the action that caused it.
func (s *Store) persist() {
	if s.snapshots == nil {
		return
	}

	s.mu.Lock()
	snap := &Snapshot{
		Sessions: append([]model.ChatSession(nil), s.state.Sessions...),
		SavedAt:  s.now(),
	}
	if s.state.CurrentSession != nil {
		cp := *s.state.CurrentSession
		snap.CurrentSession = &cp
		snap.SelectedSessionID = cp.ID
	}
	s.mu.Unlock()

	if err := s.snapshots.Save(snap); err != nil {
		log.Printf("Warning: failed to persist chat snapshot: %v", err)
	}
}

// restore loads the persisted subset. Transient flags and in-flight
// buffers are never restored - a restart cannot resume a stream.
func (s *Store) restore() {
	if s.snapshots == nil {
		return
	}

	snap, err := s.snapshots.Load()
	if err != nil {
		log.Printf("Warning: failed to restore chat snapshot: %v", err)
		return
	}
	if snap == nil {
		return
	}

	s.mu.Lock()
	s.state.Sessions = snap.Sessions
	s.state.CurrentSession = snap.CurrentSession
	s.mu.Unlock()
}
