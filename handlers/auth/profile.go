package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/studybuddy-ai/chat-core/utils/middleware"
	"github.com/studybuddy-ai/chat-core/utils/response"
)

// Profile handles GET /api/v1/auth/profile
func (h *AuthHandler) Profile(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	return response.Success(c, UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	})
}
