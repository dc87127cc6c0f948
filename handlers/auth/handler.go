package auth

import (
	"time"

	"github.com/studybuddy-ai/chat-core/utils/auth"
	"github.com/studybuddy-ai/chat-core/utils/validation"
	"gorm.io/gorm"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	db          *gorm.DB
	jwtManager  *auth.JWTManager
	validator   *validation.Validator
	tokenExpiry time.Duration
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(db *gorm.DB, jwtManager *auth.JWTManager, tokenExpiry time.Duration) *AuthHandler {
	return &AuthHandler{
		db:          db,
		jwtManager:  jwtManager,
		validator:   validation.NewValidator(),
		tokenExpiry: tokenExpiry,
	}
}

// UserResponse is the user shape returned by auth endpoints
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
