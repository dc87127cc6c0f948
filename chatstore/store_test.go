package chatstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/studybuddy-ai/chat-core/chatservice"
	"github.com/studybuddy-ai/chat-core/model"
	"github.com/studybuddy-ai/chat-core/utils/clipboard"
)

// fakeService scripts the remote transport per test. Unscripted methods
// return empty results so incidental calls (like the message load after
// opening a session) do not fail the test.
type fakeService struct {
	createSession  func(req chatservice.CreateSessionRequest) (*model.ChatSession, error)
	getSession     func(sessionID string) (*model.ChatSession, error)
	listSessions   func(page, limit int) (*chatservice.SessionPage, error)
	updateSession  func(sessionID string, req chatservice.UpdateSessionRequest) (*model.ChatSession, error)
	deleteSession  func(sessionID string) error
	starSession    func(sessionID string) (*model.ChatSession, error)
	unstarSession  func(sessionID string) (*model.ChatSession, error)
	searchSessions func(query string) (*chatservice.SessionPage, error)
	listMessages   func(sessionID string, page, limit int) (*chatservice.MessagePage, error)
	searchMessages func(sessionID, query string) (*chatservice.MessagePage, error)
	submitFeedback func(messageID string, liked, disliked bool) (*model.ChatMessage, error)
	regenerate     func(messageID string) (*model.ChatMessage, error)
	stream         func(ctx context.Context, req chatservice.SendMessageRequest, callbacks chatservice.StreamCallbacks) error
}

func (f *fakeService) CreateSession(_ context.Context, req chatservice.CreateSessionRequest) (*model.ChatSession, error) {
	if f.createSession == nil {
		return &model.ChatSession{ID: "session-1", Title: req.Title}, nil
	}
	return f.createSession(req)
}

func (f *fakeService) GetSession(_ context.Context, sessionID string) (*model.ChatSession, error) {
	if f.getSession == nil {
		return &model.ChatSession{ID: sessionID}, nil
	}
	return f.getSession(sessionID)
}

func (f *fakeService) ListSessions(_ context.Context, page, limit int, _ model.SessionType) (*chatservice.SessionPage, error) {
	if f.listSessions == nil {
		return &chatservice.SessionPage{}, nil
	}
	return f.listSessions(page, limit)
}

func (f *fakeService) UpdateSession(_ context.Context, sessionID string, req chatservice.UpdateSessionRequest) (*model.ChatSession, error) {
	if f.updateSession == nil {
		return &model.ChatSession{ID: sessionID}, nil
	}
	return f.updateSession(sessionID, req)
}

func (f *fakeService) DeleteSession(_ context.Context, sessionID string) error {
	if f.deleteSession == nil {
		return nil
	}
	return f.deleteSession(sessionID)
}

func (f *fakeService) StarSession(_ context.Context, sessionID string) (*model.ChatSession, error) {
	if f.starSession == nil {
		return &model.ChatSession{ID: sessionID, IsStarred: true}, nil
	}
	return f.starSession(sessionID)
}

func (f *fakeService) UnstarSession(_ context.Context, sessionID string) (*model.ChatSession, error) {
	if f.unstarSession == nil {
		return &model.ChatSession{ID: sessionID}, nil
	}
	return f.unstarSession(sessionID)
}

func (f *fakeService) SearchSessions(_ context.Context, query string) (*chatservice.SessionPage, error) {
	if f.searchSessions == nil {
		return &chatservice.SessionPage{}, nil
	}
	return f.searchSessions(query)
}

func (f *fakeService) ListMessages(_ context.Context, sessionID string, page, limit int) (*chatservice.MessagePage, error) {
	if f.listMessages == nil {
		return &chatservice.MessagePage{}, nil
	}
	return f.listMessages(sessionID, page, limit)
}

func (f *fakeService) SearchMessages(_ context.Context, sessionID, query string) (*chatservice.MessagePage, error) {
	if f.searchMessages == nil {
		return &chatservice.MessagePage{}, nil
	}
	return f.searchMessages(sessionID, query)
}

func (f *fakeService) SubmitFeedback(_ context.Context, messageID string, liked, disliked bool) (*model.ChatMessage, error) {
	if f.submitFeedback == nil {
		return &model.ChatMessage{ID: messageID}, nil
	}
	return f.submitFeedback(messageID, liked, disliked)
}

func (f *fakeService) RegenerateMessage(_ context.Context, messageID string) (*model.ChatMessage, error) {
	if f.regenerate == nil {
		return &model.ChatMessage{ID: messageID}, nil
	}
	return f.regenerate(messageID)
}

func (f *fakeService) StreamMessage(ctx context.Context, req chatservice.SendMessageRequest, callbacks chatservice.StreamCallbacks) error {
	if f.stream == nil {
		return nil
	}
	return f.stream(ctx, req, callbacks)
}

// recordingNotifier collects toasts for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) record(level, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, level+": "+message)
}

func (n *recordingNotifier) Success(message string) { n.record("success", message) }
func (n *recordingNotifier) Error(message string)   { n.record("error", message) }
func (n *recordingNotifier) Warning(message string) { n.record("warning", message) }
func (n *recordingNotifier) Info(message string)    { n.record("info", message) }

func (n *recordingNotifier) contains(t *testing.T, substr string) bool {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, e := range n.events {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}

type fakeAuth struct {
	loggedOut bool
}

func (a *fakeAuth) Token() (string, error) { return "test-token", nil }
func (a *fakeAuth) Logout()                { a.loggedOut = true }

func sequentialIDs() func() string {
	var n int
	return func() string {
		n++
		return fmt.Sprintf("gen-%d", n)
	}
}

func newTestStore(service *fakeService) (*Store, *recordingNotifier) {
	notifier := &recordingNotifier{}
	store := New(Config{
		Service: service,
		Notify:  notifier,
		Clock:   func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) },
		NewID:   sequentialIDs(),
	})
	return store, notifier
}

// openSession creates and activates a session on the store.
func openSession(t *testing.T, store *Store) *model.ChatSession {
	t.Helper()
	session, err := store.CreateSession(context.Background(), CreateSessionInput{Title: "Test chat"})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	return session
}

func TestSendMessageOptimisticCycle(t *testing.T) {
	service := &fakeService{}
	var store *Store

	authoritative := &model.ChatMessage{
		ID:        "srv-assistant",
		SessionID: "session-1",
		Role:      model.MessageRoleAssistant,
		Content:   "Hello world",
		Status:    model.MessageStatusCompleted,
	}

	service.stream = func(_ context.Context, req chatservice.SendMessageRequest, callbacks chatservice.StreamCallbacks) error {
		if req.SessionID != "session-1" {
			t.Errorf("stream request carries session %q", req.SessionID)
		}

		// Both optimistic messages must be visible before the first token.
		state := store.Snapshot()
		if len(state.CurrentMessages) != 2 {
			t.Fatalf("expected optimistic pair before streaming, got %d messages", len(state.CurrentMessages))
		}
		user, placeholder := state.CurrentMessages[0], state.CurrentMessages[1]
		if user.Role != model.MessageRoleUser || user.Status != model.MessageStatusPending || !user.Pending() {
			t.Errorf("unexpected optimistic user message: %+v", user)
		}
		if placeholder.Role != model.MessageRoleAssistant || placeholder.Status != model.MessageStatusStreaming || !placeholder.Typing {
			t.Errorf("unexpected assistant placeholder: %+v", placeholder)
		}
		if !state.IsSending || !state.IsTyping {
			t.Errorf("expected sending+typing flags, got sending=%v typing=%v", state.IsSending, state.IsTyping)
		}

		callbacks.OnToken("Hello")

		state = store.Snapshot()
		if state.CurrentMessages[1].Content != "Hello" {
			t.Errorf("token not accumulated, content %q", state.CurrentMessages[1].Content)
		}
		if state.CurrentMessages[1].Typing || state.IsTyping {
			t.Error("first token should drop the typing flag")
		}

		callbacks.OnToken(" world")
		callbacks.OnComplete(authoritative)

		// The complete event clears both transient flags, not just typing.
		state = store.Snapshot()
		if state.IsSending || state.IsTyping {
			t.Errorf("complete event must clear flags, got sending=%v typing=%v", state.IsSending, state.IsTyping)
		}
		return nil
	}

	store, _ = newTestStore(service)
	openSession(t, store)

	var tokens []string
	result, err := store.SendMessage(context.Background(), SendMessageInput{Content: "hi"}, func(token string) {
		tokens = append(tokens, token)
	})
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if result.ID != "srv-assistant" {
		t.Errorf("expected authoritative message back, got %+v", result)
	}
	if len(tokens) != 2 {
		t.Errorf("onToken saw %d tokens, want 2", len(tokens))
	}

	state := store.Snapshot()
	if len(state.CurrentMessages) != 2 {
		t.Fatalf("expected 2 messages after completion, got %d", len(state.CurrentMessages))
	}
	if state.CurrentMessages[0].Status != model.MessageStatusCompleted || state.CurrentMessages[0].Pending() {
		t.Errorf("user message not confirmed: %+v", state.CurrentMessages[0])
	}
	if state.CurrentMessages[1].ID != "srv-assistant" || state.CurrentMessages[1].Pending() {
		t.Errorf("placeholder not replaced by authoritative record: %+v", state.CurrentMessages[1])
	}
	if state.IsSending || state.IsTyping {
		t.Error("send flags must clear after completion")
	}
	if state.CurrentSession.LastMessage != "Hello world" {
		t.Errorf("session preview not updated, got %q", state.CurrentSession.LastMessage)
	}
}

func TestSendMessageErrorRollsBackOptimisticPair(t *testing.T) {
	service := &fakeService{
		stream: func(context.Context, chatservice.SendMessageRequest, chatservice.StreamCallbacks) error {
			return &chatservice.APIError{StatusCode: http.StatusInternalServerError, Code: chatservice.CodeUnknown, Message: "model backend unavailable"}
		},
	}
	store, notifier := newTestStore(service)
	openSession(t, store)

	_, err := store.SendMessage(context.Background(), SendMessageInput{Content: "hi"}, nil)
	if err == nil {
		t.Fatal("expected error from failed stream")
	}

	state := store.Snapshot()
	if len(state.CurrentMessages) != 0 {
		t.Errorf("optimistic messages must be rolled back, still have %d", len(state.CurrentMessages))
	}
	if state.IsSending || state.IsTyping {
		t.Error("send flags must clear after failure")
	}
	if state.LastError == "" {
		t.Error("LastError should carry the failure")
	}
	if !notifier.contains(t, "model backend unavailable") {
		t.Errorf("expected error toast, got %v", notifier.events)
	}
}

func TestSendMessageRequiresActiveSession(t *testing.T) {
	store, notifier := newTestStore(&fakeService{})

	_, err := store.SendMessage(context.Background(), SendMessageInput{Content: "hi"}, nil)

	var storeErr *StoreError
	if !errors.As(err, &storeErr) || storeErr.Code != CodeNoActiveSession {
		t.Fatalf("expected NO_ACTIVE_SESSION, got %v", err)
	}
	if !notifier.contains(t, "No active chat session") {
		t.Errorf("expected toast, got %v", notifier.events)
	}
}

func TestSendMessageRejectsConcurrentSend(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	service := &fakeService{
		stream: func(context.Context, chatservice.SendMessageRequest, chatservice.StreamCallbacks) error {
			close(entered)
			<-release
			return nil
		},
	}
	store, _ := newTestStore(service)
	openSession(t, store)

	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		store.SendMessage(context.Background(), SendMessageInput{Content: "first"}, nil)
	}()
	<-entered

	_, err := store.SendMessage(context.Background(), SendMessageInput{Content: "second"}, nil)

	var storeErr *StoreError
	if !errors.As(err, &storeErr) || storeErr.Code != CodeSendInFlight {
		t.Fatalf("expected SEND_IN_FLIGHT, got %v", err)
	}

	close(release)
	<-firstDone
}

func TestLoadSessionSkipsReloadWhenCached(t *testing.T) {
	historyFetches := 0
	service := &fakeService{
		listMessages: func(sessionID string, page, limit int) (*chatservice.MessagePage, error) {
			historyFetches++
			return &chatservice.MessagePage{
				Messages: []model.ChatMessage{{ID: "m1", Content: "hello"}},
			}, nil
		},
	}
	store, _ := newTestStore(service)

	ctx := context.Background()
	if err := store.LoadSession(ctx, "session-1"); err != nil {
		t.Fatalf("first LoadSession failed: %v", err)
	}
	if historyFetches != 1 {
		t.Fatalf("first load should fetch history once, got %d", historyFetches)
	}

	// Revisiting the same session must not refetch the cached history.
	if err := store.LoadSession(ctx, "session-1"); err != nil {
		t.Fatalf("second LoadSession failed: %v", err)
	}
	if historyFetches != 1 {
		t.Errorf("cached session reload fetched history again, got %d fetches", historyFetches)
	}

	// A different session id does reload.
	if err := store.LoadSession(ctx, "session-2"); err != nil {
		t.Fatalf("third LoadSession failed: %v", err)
	}
	if historyFetches != 2 {
		t.Errorf("switching sessions should fetch history, got %d fetches", historyFetches)
	}
}

func TestCreateSessionAndSendReturnsBeforeStreamEnds(t *testing.T) {
	streamStarted := make(chan chatservice.SendMessageRequest, 1)
	release := make(chan struct{})
	streamDone := make(chan struct{})

	service := &fakeService{
		createSession: func(req chatservice.CreateSessionRequest) (*model.ChatSession, error) {
			return &model.ChatSession{ID: "session-1", Title: req.Title}, nil
		},
		stream: func(_ context.Context, req chatservice.SendMessageRequest, _ chatservice.StreamCallbacks) error {
			streamStarted <- req
			<-release
			close(streamDone)
			return nil
		},
	}
	store, _ := newTestStore(service)

	content := "Explain recursion with a concrete example from everyday life please"
	session, err := store.CreateSessionAndSend(context.Background(), SendMessageInput{Content: content})
	if err != nil {
		t.Fatalf("CreateSessionAndSend failed: %v", err)
	}

	// The session comes back before the background stream finishes, titled
	// from the first message.
	if session.Title != model.DeriveSessionTitle(content) {
		t.Errorf("session title %q, want %q", session.Title, model.DeriveSessionTitle(content))
	}

	state := store.Snapshot()
	if state.CurrentSession == nil || state.CurrentSession.ID != "session-1" {
		t.Errorf("created session not set current: %+v", state.CurrentSession)
	}
	if !state.HasStartedChat {
		t.Error("HasStartedChat must be true immediately after create")
	}

	// The background send reaches the transport without blocking the caller.
	select {
	case req := <-streamStarted:
		if req.SessionID != "session-1" || req.Content != content {
			t.Errorf("unexpected background send request: %+v", req)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("background send never reached the transport")
	}

	close(release)
	select {
	case <-streamDone:
	case <-time.After(2 * time.Second):
		t.Fatal("background stream did not finish")
	}
}

func TestLoadSessionsMergesPagesWithoutDuplicates(t *testing.T) {
	pages := map[int][]model.ChatSession{
		1: {{ID: "a", Title: "A"}, {ID: "b", Title: "B"}},
		2: {{ID: "b", Title: "B updated"}, {ID: "c", Title: "C"}},
	}
	service := &fakeService{
		listSessions: func(page, limit int) (*chatservice.SessionPage, error) {
			return &chatservice.SessionPage{
				Sessions:   pages[page],
				Pagination: chatservice.PaginationMeta{HasMore: page == 1},
			}, nil
		},
	}
	store, _ := newTestStore(service)

	ctx := context.Background()
	if err := store.LoadSessions(ctx, true, ""); err != nil {
		t.Fatalf("first page: %v", err)
	}
	state := store.Snapshot()
	if !state.HasMoreSessions || state.SessionsPage != 2 {
		t.Errorf("after page 1: hasMore=%v cursor=%d", state.HasMoreSessions, state.SessionsPage)
	}

	if err := store.LoadSessions(ctx, false, ""); err != nil {
		t.Fatalf("second page: %v", err)
	}
	state = store.Snapshot()

	if len(state.Sessions) != 3 {
		t.Fatalf("expected 3 deduplicated sessions, got %d", len(state.Sessions))
	}
	if state.Sessions[1].ID != "b" || state.Sessions[1].Title != "B updated" {
		t.Errorf("duplicate must keep first position with fresh data: %+v", state.Sessions[1])
	}
	if state.HasMoreSessions {
		t.Error("final page should clear HasMoreSessions")
	}
}

func TestLoadMoreMessagesPrependsOlderPage(t *testing.T) {
	pages := map[int][]model.ChatMessage{
		1: {{ID: "m3", Content: "third"}, {ID: "m4", Content: "fourth"}},
		2: {{ID: "m1", Content: "first"}, {ID: "m2", Content: "second"}},
	}
	service := &fakeService{
		listMessages: func(sessionID string, page, limit int) (*chatservice.MessagePage, error) {
			return &chatservice.MessagePage{
				Messages:   pages[page],
				Pagination: chatservice.PaginationMeta{HasMore: page == 1},
			}, nil
		},
	}
	store, _ := newTestStore(service)

	ctx := context.Background()
	if err := store.LoadSession(ctx, "session-1"); err != nil {
		t.Fatalf("LoadSession failed: %v", err)
	}
	if err := store.LoadMoreMessages(ctx); err != nil {
		t.Fatalf("LoadMoreMessages failed: %v", err)
	}

	state := store.Snapshot()
	want := []string{"m1", "m2", "m3", "m4"}
	if len(state.CurrentMessages) != len(want) {
		t.Fatalf("expected %d messages, got %d", len(want), len(state.CurrentMessages))
	}
	for i, id := range want {
		if state.CurrentMessages[i].ID != id {
			t.Errorf("position %d: got %s, want %s", i, state.CurrentMessages[i].ID, id)
		}
	}

	// No further pages: another call is a no-op.
	if err := store.LoadMoreMessages(ctx); err != nil {
		t.Fatalf("no-op LoadMoreMessages returned error: %v", err)
	}
	if n := len(store.Snapshot().CurrentMessages); n != 4 {
		t.Errorf("exhausted pagination must not refetch, got %d messages", n)
	}
}

func TestUnauthenticatedForcesLogout(t *testing.T) {
	service := &fakeService{
		getSession: func(string) (*model.ChatSession, error) {
			return nil, &chatservice.APIError{StatusCode: http.StatusUnauthorized, Code: chatservice.CodeUnauthenticated, Message: "Invalid or expired token"}
		},
	}
	auth := &fakeAuth{}
	notifier := &recordingNotifier{}
	store := New(Config{Service: service, Auth: auth, Notify: notifier})

	if err := store.LoadSession(context.Background(), "session-1"); err == nil {
		t.Fatal("expected error")
	}
	if !auth.loggedOut {
		t.Error("401 must force a logout")
	}
	if !notifier.contains(t, "expired") {
		t.Errorf("expected session-expired toast, got %v", notifier.events)
	}
	if store.Snapshot().CurrentSession != nil {
		t.Error("failed load must clear the current session")
	}
}

func TestFeedbackRevertsOnFailure(t *testing.T) {
	service := &fakeService{
		listMessages: func(string, int, int) (*chatservice.MessagePage, error) {
			return &chatservice.MessagePage{
				Messages: []model.ChatMessage{{ID: "m1", Role: model.MessageRoleAssistant, Content: "answer"}},
			}, nil
		},
		submitFeedback: func(string, bool, bool) (*model.ChatMessage, error) {
			return nil, &chatservice.APIError{StatusCode: http.StatusInternalServerError, Code: chatservice.CodeUnknown, Message: "server error"}
		},
	}
	store, _ := newTestStore(service)
	if err := store.LoadMessages(context.Background(), "session-1", true); err != nil {
		t.Fatalf("LoadMessages failed: %v", err)
	}

	if err := store.LikeMessage(context.Background(), "m1"); err == nil {
		t.Fatal("expected error from failed feedback submit")
	}

	state := store.Snapshot()
	if state.CurrentMessages[0].Liked() {
		t.Error("optimistic like must be reverted after a failed submit")
	}
}

func TestFeedbackAppliesAuthoritativeRecord(t *testing.T) {
	liked := model.ChatMessage{ID: "m1", Role: model.MessageRoleAssistant, Content: "answer"}
	liked.SetFeedback(true, false)

	service := &fakeService{
		listMessages: func(string, int, int) (*chatservice.MessagePage, error) {
			return &chatservice.MessagePage{
				Messages: []model.ChatMessage{{ID: "m1", Role: model.MessageRoleAssistant, Content: "answer"}},
			}, nil
		},
		submitFeedback: func(messageID string, wantLiked, wantDisliked bool) (*model.ChatMessage, error) {
			if !wantLiked || wantDisliked {
				return nil, fmt.Errorf("unexpected feedback flags liked=%v disliked=%v", wantLiked, wantDisliked)
			}
			cp := liked
			return &cp, nil
		},
	}
	store, _ := newTestStore(service)
	if err := store.LoadMessages(context.Background(), "session-1", true); err != nil {
		t.Fatalf("LoadMessages failed: %v", err)
	}

	if err := store.LikeMessage(context.Background(), "m1"); err != nil {
		t.Fatalf("LikeMessage failed: %v", err)
	}
	if !store.Snapshot().CurrentMessages[0].Liked() {
		t.Error("like not applied")
	}
}

func TestCopyMessage(t *testing.T) {
	service := &fakeService{
		listMessages: func(string, int, int) (*chatservice.MessagePage, error) {
			return &chatservice.MessagePage{
				Messages: []model.ChatMessage{{ID: "m1", Content: "copy me"}},
			}, nil
		},
	}
	mem := &clipboard.Memory{}
	notifier := &recordingNotifier{}
	store := New(Config{Service: service, Notify: notifier, Clipboard: mem})

	if err := store.LoadMessages(context.Background(), "session-1", true); err != nil {
		t.Fatalf("LoadMessages failed: %v", err)
	}

	if err := store.CopyMessage("m1"); err != nil {
		t.Fatalf("CopyMessage failed: %v", err)
	}
	if mem.Text() != "copy me" {
		t.Errorf("clipboard holds %q", mem.Text())
	}

	err := store.CopyMessage("missing")
	var storeErr *StoreError
	if !errors.As(err, &storeErr) || storeErr.Code != string(chatservice.CodeMessageNotFound) {
		t.Errorf("expected MESSAGE_NOT_FOUND for unknown id, got %v", err)
	}
}

func TestDeleteCurrentSessionClearsConversation(t *testing.T) {
	store, _ := newTestStore(&fakeService{})
	session := openSession(t, store)

	if err := store.DeleteSession(context.Background(), session.ID); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}

	state := store.Snapshot()
	if state.CurrentSession != nil {
		t.Error("deleting the current session must clear it")
	}
	if len(state.Sessions) != 0 {
		t.Errorf("session list should be empty, got %d", len(state.Sessions))
	}
	if state.HasStartedChat {
		t.Error("HasStartedChat should reset")
	}
}

func TestSnapshotPersistsAcrossRestart(t *testing.T) {
	snapshots := &MemorySnapshots{}
	service := &fakeService{
		createSession: func(req chatservice.CreateSessionRequest) (*model.ChatSession, error) {
			return &model.ChatSession{ID: "session-1", Title: "Persisted"}, nil
		},
	}

	first := New(Config{Service: service, Notify: &recordingNotifier{}, Snapshots: snapshots})
	if _, err := first.CreateSession(context.Background(), CreateSessionInput{Title: "Persisted"}); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	second := New(Config{Service: service, Notify: &recordingNotifier{}, Snapshots: snapshots})
	state := second.Snapshot()

	if len(state.Sessions) != 1 || state.Sessions[0].Title != "Persisted" {
		t.Errorf("session list not restored: %+v", state.Sessions)
	}
	if state.CurrentSession == nil || state.CurrentSession.ID != "session-1" {
		t.Errorf("current session not restored: %+v", state.CurrentSession)
	}
	if state.IsSending || state.IsTyping || len(state.CurrentMessages) != 0 {
		t.Error("transient state must not be restored")
	}
}

func TestMergeSessionsPolicy(t *testing.T) {
	existing := []model.ChatSession{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}}
	incoming := []model.ChatSession{{ID: "b", Title: "B2"}, {ID: "c", Title: "C"}}

	out := mergeSessions(existing, incoming)

	if len(out) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(out))
	}
	if out[0].ID != "a" || out[1].ID != "b" || out[2].ID != "c" {
		t.Errorf("unexpected order: %v", []string{out[0].ID, out[1].ID, out[2].ID})
	}
	if out[1].Title != "B2" {
		t.Errorf("duplicate data should be last-write-wins, got %q", out[1].Title)
	}
}
