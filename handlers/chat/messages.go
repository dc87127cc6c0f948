package chat

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/studybuddy-ai/chat-core/model"
	"github.com/studybuddy-ai/chat-core/services"
	"github.com/studybuddy-ai/chat-core/services/storage"
	"github.com/studybuddy-ai/chat-core/utils/middleware"
	"github.com/studybuddy-ai/chat-core/utils/pdfvalidation"
	"github.com/studybuddy-ai/chat-core/utils/response"
)

// FeedbackRequest marks a message liked or disliked
type FeedbackRequest struct {
	Liked    bool `json:"liked"`
	Disliked bool `json:"disliked"`
}

// ListMessages handles GET /api/v1/chat/sessions/:id/messages
func (h *ChatHandler) ListMessages(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	limit, offset := pageParams(c, 50)
	messages, total, err := h.chatService.GetSessionMessages(c.Context(), c.Params("id"), userID, limit, offset)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return response.NotFound(c, "Session not found")
		}
		return response.InternalServerError(c, "Failed to fetch messages")
	}

	return response.Paginated(c, "messages", messages,
		response.CalculatePagination(limit, offset, len(messages), total))
}

// SearchMessages handles GET /api/v1/chat/sessions/:id/messages/search
func (h *ChatHandler) SearchMessages(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	query := c.Query("q", "")
	if query == "" {
		return response.BadRequest(c, "Query parameter 'q' is required")
	}

	limit, offset := pageParams(c, 50)
	messages, total, err := h.chatService.SearchMessages(c.Context(), c.Params("id"), userID, query, limit, offset)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return response.NotFound(c, "Session not found")
		}
		return response.InternalServerError(c, "Failed to search messages")
	}

	return response.Paginated(c, "messages", messages,
		response.CalculatePagination(limit, offset, len(messages), total))
}

// SubmitFeedback handles POST /api/v1/chat/messages/:id/feedback
func (h *ChatHandler) SubmitFeedback(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req FeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Liked && req.Disliked {
		return response.BadRequest(c, "A message cannot be liked and disliked at once")
	}

	message, err := h.chatService.SubmitFeedback(c.Context(), c.Params("id"), userID, req.Liked, req.Disliked)
	if err != nil {
		if errors.Is(err, services.ErrMessageNotFound) {
			return response.NotFound(c, "Message not found")
		}
		return response.InternalServerError(c, "Failed to store feedback")
	}

	return response.Success(c, message)
}

// RegenerateMessage handles POST /api/v1/chat/messages/:id/regenerate
func (h *ChatHandler) RegenerateMessage(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	message, err := h.chatService.RegenerateMessage(c.Context(), c.Params("id"), userID)
	if err != nil {
		if errors.Is(err, services.ErrMessageNotFound) {
			return response.NotFound(c, "Message not found")
		}
		return response.InternalServerError(c, "Failed to regenerate message")
	}

	return response.Success(c, message)
}

// Suggestions handles GET /api/v1/chat/suggestions
func (h *ChatHandler) Suggestions(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	suggestions, err := h.chatService.Suggestions(c.Context(), c.Query("session_id", ""), userID)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return response.NotFound(c, "Session not found")
		}
		return response.InternalServerError(c, "Failed to fetch suggestions")
	}

	return response.Success(c, fiber.Map{
		"suggestions": suggestions,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	})
}

// UploadAttachment handles POST /api/v1/chat/attachments. PDFs are
// validated for size and page count before they reach blob storage.
func (h *ChatHandler) UploadAttachment(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	if h.attachments == nil {
		return response.Error(c, fiber.StatusServiceUnavailable, "Attachment storage is not configured")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, "Missing file upload")
	}

	result, err := pdfvalidation.ValidatePDFFile(file, pdfvalidation.AttachmentLimits)
	if err != nil {
		return response.InternalServerError(c, "Failed to validate file")
	}
	if !result.Valid {
		return response.BadRequest(c, result.Error)
	}

	src, err := file.Open()
	if err != nil {
		return response.InternalServerError(c, "Failed to read file")
	}
	defer src.Close()

	key := storage.AttachmentKey(userID, file.Filename)
	url, err := h.attachments.Upload(c.Context(), key, src, storage.ContentTypeFor(file.Filename))
	if err != nil {
		return response.InternalServerError(c, "Failed to store attachment")
	}

	attachment := model.Attachment{
		ID:          uuid.NewString(),
		Filename:    file.Filename,
		ContentType: storage.ContentTypeFor(file.Filename),
		Size:        file.Size,
		URL:         url,
		PageCount:   result.PageCount,
	}

	return response.Created(c, attachment)
}
