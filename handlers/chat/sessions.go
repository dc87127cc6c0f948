package chat

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/studybuddy-ai/chat-core/model"
	"github.com/studybuddy-ai/chat-core/services"
	"github.com/studybuddy-ai/chat-core/services/storage"
	"github.com/studybuddy-ai/chat-core/utils/middleware"
	"github.com/studybuddy-ai/chat-core/utils/response"
	"github.com/studybuddy-ai/chat-core/utils/validation"
)

// ChatHandler handles chat-related requests
type ChatHandler struct {
	chatService *services.ChatService
	attachments storage.AttachmentStore
	validator   *validation.Validator
}

// NewChatHandler creates a new chat handler. attachments may be nil when
// no blob store is configured; uploads then return 503.
func NewChatHandler(chatService *services.ChatService, attachments storage.AttachmentStore) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		attachments: attachments,
		validator:   validation.NewValidator(),
	}
}

// CreateSessionRequest represents the request to create a chat session
type CreateSessionRequest struct {
	Title       string `json:"title" validate:"omitempty,max=255"`
	Subject     string `json:"subject" validate:"omitempty,max=255"`
	SessionType string `json:"session_type" validate:"omitempty,oneof=chat flashcards quiz presentation podcast"`
}

// UpdateSessionRequest patches session fields; absent fields stay untouched
type UpdateSessionRequest struct {
	Title     *string `json:"title" validate:"omitempty,max=255"`
	Subject   *string `json:"subject" validate:"omitempty,max=255"`
	IsStarred *bool   `json:"is_starred"`
}

// CreateSession handles POST /api/v1/chat/sessions
func (h *ChatHandler) CreateSession(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req CreateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	session, err := h.chatService.CreateSession(c.Context(), services.CreateSessionInput{
		UserID:      userID,
		Title:       validation.SanitizeString(req.Title),
		Subject:     validation.SanitizeString(req.Subject),
		SessionType: model.SessionType(req.SessionType),
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to create session")
	}

	return response.Created(c, session)
}

// ListSessions handles GET /api/v1/chat/sessions
func (h *ChatHandler) ListSessions(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	limit, offset := pageParams(c, 20)
	sessionType := model.SessionType(c.Query("session_type", ""))

	sessions, total, err := h.chatService.ListSessions(c.Context(), userID, sessionType, limit, offset)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch sessions")
	}

	return response.Paginated(c, "sessions", sessions,
		response.CalculatePagination(limit, offset, len(sessions), total))
}

// GetSession handles GET /api/v1/chat/sessions/:id
func (h *ChatHandler) GetSession(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	session, err := h.chatService.GetSession(c.Context(), c.Params("id"), userID)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return response.NotFound(c, "Session not found")
		}
		return response.InternalServerError(c, "Failed to fetch session")
	}

	return response.Success(c, session)
}

// UpdateSession handles PUT /api/v1/chat/sessions/:id
func (h *ChatHandler) UpdateSession(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req UpdateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	session, err := h.chatService.UpdateSession(c.Context(), c.Params("id"), userID, services.UpdateSessionInput{
		Title:     req.Title,
		Subject:   req.Subject,
		IsStarred: req.IsStarred,
	})
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return response.NotFound(c, "Session not found")
		}
		return response.InternalServerError(c, "Failed to update session")
	}

	return response.Success(c, session)
}

// DeleteSession handles DELETE /api/v1/chat/sessions/:id
func (h *ChatHandler) DeleteSession(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	if err := h.chatService.DeleteSession(c.Context(), c.Params("id"), userID); err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return response.NotFound(c, "Session not found")
		}
		return response.InternalServerError(c, "Failed to delete session")
	}

	return response.SuccessWithMessage(c, "Session deleted", nil)
}

// StarSession handles POST /api/v1/chat/sessions/:id/star
func (h *ChatHandler) StarSession(c *fiber.Ctx) error {
	return h.setStarred(c, true)
}

// UnstarSession handles DELETE /api/v1/chat/sessions/:id/star
func (h *ChatHandler) UnstarSession(c *fiber.Ctx) error {
	return h.setStarred(c, false)
}

func (h *ChatHandler) setStarred(c *fiber.Ctx, starred bool) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	session, err := h.chatService.SetStarred(c.Context(), c.Params("id"), userID, starred)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return response.NotFound(c, "Session not found")
		}
		return response.InternalServerError(c, "Failed to update session")
	}

	return response.Success(c, session)
}

// SearchSessions handles GET /api/v1/chat/sessions/search
func (h *ChatHandler) SearchSessions(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	query := c.Query("q", "")
	if query == "" {
		return response.BadRequest(c, "Query parameter 'q' is required")
	}

	limit, offset := pageParams(c, 20)
	sessions, total, err := h.chatService.SearchSessions(c.Context(), userID, query, limit, offset)
	if err != nil {
		return response.InternalServerError(c, "Failed to search sessions")
	}

	return response.Paginated(c, "sessions", sessions,
		response.CalculatePagination(limit, offset, len(sessions), total))
}

// ExportConversation handles GET /api/v1/chat/sessions/:id/export
func (h *ChatHandler) ExportConversation(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	export, err := h.chatService.ExportConversation(c.Context(), c.Params("id"), userID, c.Query("format", "json"))
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return response.NotFound(c, "Session not found")
		}
		if errors.Is(err, services.ErrUnsupportedExportFormat) {
			return response.BadRequest(c, "Unsupported export format")
		}
		return response.InternalServerError(c, "Failed to export conversation")
	}

	return response.Success(c, export)
}

// pageParams reads limit/offset query parameters with bounds applied
func pageParams(c *fiber.Ctx, defaultLimit int) (int, int) {
	limit, _ := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultLimit)))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	if limit < 1 {
		limit = defaultLimit
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
