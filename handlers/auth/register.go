package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/studybuddy-ai/chat-core/model"
	"github.com/studybuddy-ai/chat-core/utils/auth"
	"github.com/studybuddy-ai/chat-core/utils/response"
	"github.com/studybuddy-ai/chat-core/utils/validation"
	"gorm.io/gorm"
)

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required,min=1,max=100"`
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	var existing model.User
	err := h.db.Where("email = ?", req.Email).First(&existing).Error
	if err == nil {
		return response.Error(c, fiber.StatusConflict, "Email is already registered")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return response.InternalServerError(c, "Failed to check existing user")
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return response.InternalServerError(c, "Failed to hash password")
	}

	user := model.User{
		Email:        req.Email,
		PasswordHash: passwordHash,
		Name:         validation.SanitizeString(req.Name),
	}
	if err := h.db.Create(&user).Error; err != nil {
		return response.InternalServerError(c, "Failed to create user")
	}

	accessToken, err := h.jwtManager.GenerateToken(user.ID, user.Email)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate access token")
	}

	return response.Created(c, LoginResponse{
		User: UserResponse{
			ID:        user.ID,
			Email:     user.Email,
			Name:      user.Name,
			CreatedAt: user.CreatedAt,
			UpdatedAt: user.UpdatedAt,
		},
		AccessToken: accessToken,
		ExpiresIn:   int(h.tokenExpiry.Seconds()),
	})
}
