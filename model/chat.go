package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MessageRole represents the role of the message sender
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleSystem    MessageRole = "system"
)

// MessageStatus represents the delivery state of a message
type MessageStatus string

const (
	MessageStatusPending   MessageStatus = "pending"   // Sent by the user, not yet acknowledged
	MessageStatusStreaming MessageStatus = "streaming" // Assistant reply still arriving token by token
	MessageStatusCompleted MessageStatus = "completed" // Fully delivered
	MessageStatusFailed    MessageStatus = "failed"    // Delivery aborted before completion
)

// Attachment describes a file attached to a message
type Attachment struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	URL         string `json:"url"`
	PageCount   int    `json:"page_count,omitempty"`
}

// Attachments is a custom type for storing attachment data as JSONB
type Attachments []Attachment

// JSONMap is a custom type for storing JSON data as JSONB
type JSONMap map[string]interface{}

// Scan implements the sql.Scanner interface for reading from database
func (j *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*j = JSONMap{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONMap value")
	}

	if len(bytes) == 0 {
		*j = JSONMap{}
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Value implements the driver.Valuer interface for writing to database
func (j JSONMap) Value() (driver.Value, error) {
	if len(j) == 0 {
		return []byte("{}"), nil // Return empty JSON object instead of nil
	}
	return json.Marshal(j)
}

// Scan implements the sql.Scanner interface for reading from database
func (a *Attachments) Scan(value interface{}) error {
	if value == nil {
		*a = Attachments{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal attachments value")
	}

	return json.Unmarshal(bytes, a)
}

// Value implements the driver.Valuer interface for writing to database
func (a Attachments) Value() (driver.Value, error) {
	if len(a) == 0 {
		return []byte("[]"), nil // Return empty JSON array instead of nil
	}
	return json.Marshal(a)
}

// ChatMessage represents a single message in a chat conversation
type ChatMessage struct {
	ID          string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	SessionID   string         `gorm:"type:uuid;not null;index" json:"session_id"`
	UserID      string         `gorm:"type:uuid;not null;index" json:"user_id"`
	Role        MessageRole    `gorm:"type:varchar(20);not null" json:"role"`
	Content     string         `gorm:"type:text;not null" json:"content"`
	Status      MessageStatus  `gorm:"type:varchar(20);default:'completed'" json:"status"`
	Attachments Attachments    `gorm:"type:jsonb" json:"attachments,omitempty"`
	Metadata    JSONMap        `gorm:"type:jsonb;default:'{}'" json:"metadata,omitempty"`
	TokensUsed  int            `gorm:"default:0" json:"tokens_used"`
	ModelUsed   string         `gorm:"type:varchar(100)" json:"model_used,omitempty"`
	IsStreamed  bool           `gorm:"default:false" json:"is_streamed"`

	// Relationships
	Session ChatSession `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"session,omitempty"`
	User    User        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

// TableName specifies the table name for ChatMessage
func (ChatMessage) TableName() string {
	return "chat_messages"
}

// BeforeCreate assigns a server id when none was provided
func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// IsFinal returns true once the message can no longer change
func (m *ChatMessage) IsFinal() bool {
	return m.Status == MessageStatusCompleted || m.Status == MessageStatusFailed
}

// Liked reports the feedback flag stored in metadata
func (m *ChatMessage) Liked() bool {
	v, _ := m.Metadata["liked"].(bool)
	return v
}

// Disliked reports the feedback flag stored in metadata
func (m *ChatMessage) Disliked() bool {
	v, _ := m.Metadata["disliked"].(bool)
	return v
}

// SetFeedback records mutually exclusive liked/disliked flags
func (m *ChatMessage) SetFeedback(liked, disliked bool) {
	if m.Metadata == nil {
		m.Metadata = JSONMap{}
	}
	m.Metadata["liked"] = liked
	m.Metadata["disliked"] = disliked
}

// MarkCompleted finalizes the message content
func (m *ChatMessage) MarkCompleted() {
	m.Status = MessageStatusCompleted
}
