package chat

import (
	"bufio"
	"context"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/studybuddy-ai/chat-core/model"
	"github.com/studybuddy-ai/chat-core/services"
	"github.com/studybuddy-ai/chat-core/utils/middleware"
	"github.com/studybuddy-ai/chat-core/utils/response"
	"github.com/studybuddy-ai/chat-core/utils/sse"
	"github.com/studybuddy-ai/chat-core/utils/validation"
)

// streamTimeout bounds one full reply generation
const streamTimeout = 5 * time.Minute

// SendMessageRequest starts a streaming exchange on a session
type SendMessageRequest struct {
	SessionID   string            `json:"session_id" validate:"required"`
	Content     string            `json:"content" validate:"required,min=1,max=10000"`
	Attachments model.Attachments `json:"attachments" validate:"omitempty,max=5"`
}

// StreamMessage handles POST /api/v1/chat/messages/stream. The response
// is an SSE stream of token events, one complete event carrying the
// authoritative assistant message, and the [DONE] sentinel. Failures
// before any byte is written get a regular error envelope; failures
// mid-stream are reported as an in-band error event.
func (h *ChatHandler) StreamMessage(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	// Resolve the session before committing to the stream so a bad id
	// still gets a clean 404 envelope.
	if _, err := h.chatService.GetSession(c.Context(), req.SessionID, userID); err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return response.NotFound(c, "Session not found")
		}
		return response.InternalServerError(c, "Failed to fetch session")
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	// The request context dies with this handler; the stream writer runs
	// after it returns, so the write loop keeps its own context.
	input := services.StreamReplyInput{
		SessionID:   req.SessionID,
		UserID:      userID,
		Content:     validation.SanitizeString(req.Content),
		Attachments: req.Attachments,
	}

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ctx, cancel := context.WithTimeout(context.Background(), streamTimeout)
		defer cancel()

		message, err := h.chatService.StreamReply(ctx, input, func(token string) error {
			return sse.SendToken(w, token)
		})
		if err != nil {
			log.Printf("Warning: [STREAM] reply for session %s failed: %v", input.SessionID, err)
			sse.SendStreamError(w, "Failed to generate response")
			sse.SendDone(w)
			return
		}

		if err := sse.SendComplete(w, message); err != nil {
			log.Printf("Warning: [STREAM] failed to send complete event: %v", err)
			return
		}
		sse.SendDone(w)
	})

	return nil
}
