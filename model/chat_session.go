package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionType categorizes what kind of learning activity a session drives
type SessionType string

const (
	SessionTypeChat         SessionType = "chat"
	SessionTypeFlashcards   SessionType = "flashcards"
	SessionTypeQuiz         SessionType = "quiz"
	SessionTypePresentation SessionType = "presentation"
	SessionTypePodcast      SessionType = "podcast"
)

// Valid reports whether t is one of the known session types
func (t SessionType) Valid() bool {
	switch t {
	case SessionTypeChat, SessionTypeFlashcards, SessionTypeQuiz, SessionTypePresentation, SessionTypePodcast:
		return true
	}
	return false
}

// SessionStatus represents the lifecycle state of a session
type SessionStatus string

const (
	SessionStatusActive   SessionStatus = "active"
	SessionStatusArchived SessionStatus = "archived"
)

// ChatSession represents a conversation session between a user and the assistant
type ChatSession struct {
	ID           string         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       string         `gorm:"type:uuid;not null;index" json:"user_id"`
	Title        string         `gorm:"type:varchar(255)" json:"title"`
	LastMessage  string         `gorm:"type:text" json:"last_message"`
	Subject      string         `gorm:"type:varchar(255)" json:"subject"`
	SessionType  SessionType    `gorm:"type:varchar(20);default:'chat';index" json:"session_type"`
	Status       SessionStatus  `gorm:"type:varchar(20);default:'active'" json:"status"`
	IsStarred    bool           `gorm:"default:false" json:"is_starred"`
	MessageCount int            `gorm:"default:0" json:"message_count"`
	TotalTokens  int            `gorm:"default:0" json:"total_tokens"`
	LastActivity *time.Time     `json:"last_activity"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User     User          `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Messages []ChatMessage `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}

// TableName specifies the table name for ChatSession
func (ChatSession) TableName() string {
	return "chat_sessions"
}

// BeforeCreate assigns a server id when none was provided
func (s *ChatSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// IsActive returns true if the session has not been archived
func (s *ChatSession) IsActive() bool {
	return s.Status == SessionStatusActive
}

// Touch records activity on the session
func (s *ChatSession) Touch(at time.Time) {
	s.LastActivity = &at
}

// SessionTitleMaxLength is the longest derived session title, in runes,
// before the ellipsis is appended.
const SessionTitleMaxLength = 50

// DeriveSessionTitle builds a session title from the first message.
// Long content is cut at SessionTitleMaxLength runes, backing up to the
// last word boundary, with an ellipsis appended.
func DeriveSessionTitle(content string) string {
	title := strings.TrimSpace(content)
	if title == "" {
		return "New Chat"
	}

	runes := []rune(title)
	if len(runes) <= SessionTitleMaxLength {
		return title
	}

	cut := string(runes[:SessionTitleMaxLength])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}
