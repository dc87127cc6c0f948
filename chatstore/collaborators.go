package chatstore

import (
	"context"
	"log"

	"github.com/studybuddy-ai/chat-core/chatservice"
	"github.com/studybuddy-ai/chat-core/model"
	"github.com/studybuddy-ai/chat-core/utils/auth"
)

// Service is the remote transport the store drives. *chatservice.Client
// satisfies it; tests inject an in-process fake.
type Service interface {
	CreateSession(ctx context.Context, req chatservice.CreateSessionRequest) (*model.ChatSession, error)
	GetSession(ctx context.Context, sessionID string) (*model.ChatSession, error)
	ListSessions(ctx context.Context, page, limit int, sessionType model.SessionType) (*chatservice.SessionPage, error)
	UpdateSession(ctx context.Context, sessionID string, req chatservice.UpdateSessionRequest) (*model.ChatSession, error)
	DeleteSession(ctx context.Context, sessionID string) error
	StarSession(ctx context.Context, sessionID string) (*model.ChatSession, error)
	UnstarSession(ctx context.Context, sessionID string) (*model.ChatSession, error)
	SearchSessions(ctx context.Context, query string) (*chatservice.SessionPage, error)

	ListMessages(ctx context.Context, sessionID string, page, limit int) (*chatservice.MessagePage, error)
	SearchMessages(ctx context.Context, sessionID, query string) (*chatservice.MessagePage, error)
	SubmitFeedback(ctx context.Context, messageID string, liked, disliked bool) (*model.ChatMessage, error)
	RegenerateMessage(ctx context.Context, messageID string) (*model.ChatMessage, error)
	StreamMessage(ctx context.Context, req chatservice.SendMessageRequest, callbacks chatservice.StreamCallbacks) error
}

// AuthProvider supplies the bearer token and handles the forced-logout
// side effect when the server rejects it.
type AuthProvider interface {
	chatservice.TokenSource
	Logout()
}

// Notifier is the fire-and-forget toast sink. Calls are never awaited
// for control flow.
type Notifier interface {
	Success(message string)
	Error(message string)
	Warning(message string)
	Info(message string)
}

// StaticAuth is an AuthProvider holding a fixed token; Logout only logs.
// Used by dev tooling against a local server.
type StaticAuth struct {
	AccessToken string
}

// Token returns the fixed token
func (a *StaticAuth) Token() (string, error) {
	if a.AccessToken == "" {
		return "", chatservice.ErrNotAuthenticated
	}
	return a.AccessToken, nil
}

// Logout logs the forced logout; a static credential has nothing to clear
func (a *StaticAuth) Logout() {
	log.Println("[AUTH] logout requested for static credential")
}

// JWTAuth is an AuthProvider that checks local token expiry before every
// request, so an expired credential fails fast without a round trip.
type JWTAuth struct {
	AccessToken string
	OnLogout    func()
}

// Token returns the token unless it is missing or locally expired
func (a *JWTAuth) Token() (string, error) {
	if a.AccessToken == "" || auth.IsTokenExpired(a.AccessToken) {
		return "", chatservice.ErrNotAuthenticated
	}
	return a.AccessToken, nil
}

// Logout clears the credential and runs the caller's logout hook
func (a *JWTAuth) Logout() {
	a.AccessToken = ""
	if a.OnLogout != nil {
		a.OnLogout()
	}
}

// LogNotifier writes toasts to the process log. The default sink for
// headless tooling.
type LogNotifier struct{}

func (LogNotifier) Success(message string) { log.Printf("[NOTIFY] success: %s", message) }
func (LogNotifier) Error(message string)   { log.Printf("[NOTIFY] error: %s", message) }
func (LogNotifier) Warning(message string) { log.Printf("[NOTIFY] warning: %s", message) }
func (LogNotifier) Info(message string)    { log.Printf("[NOTIFY] info: %s", message) }
