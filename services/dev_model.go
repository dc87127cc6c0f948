package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/studybuddy-ai/chat-core/model"
)

// DevModel is the deterministic reply generator used in development and
// tests. It echoes the prompt back inside a session-type specific frame
// so streamed output is predictable without an upstream LLM.
type DevModel struct{}

func (DevModel) Reply(ctx context.Context, session *model.ChatSession, history []model.ChatMessage, content string) (string, error) {
	prompt := strings.TrimSpace(content)
	if prompt == "" {
		prompt = "your question"
	}

	switch session.SessionType {
	case model.SessionTypeQuiz:
		return fmt.Sprintf("Let's turn that into a quiz. Based on %q, here is question 1: what is the key idea behind it?", prompt), nil
	case model.SessionTypeFlashcards:
		return fmt.Sprintf("Here is a flashcard set for %q. Card 1: define the main term. Card 2: give one example.", prompt), nil
	case model.SessionTypePresentation:
		return fmt.Sprintf("Outline for a presentation on %q: 1. Introduction. 2. Core concepts. 3. Examples. 4. Summary.", prompt), nil
	case model.SessionTypePodcast:
		return fmt.Sprintf("Podcast script for %q. Host: welcome back! Today we explore this topic step by step.", prompt), nil
	default:
		if len(history) > 0 {
			return fmt.Sprintf("Continuing our conversation: regarding %q, the key thing to understand is the underlying principle. Let me break it down step by step.", prompt), nil
		}
		return fmt.Sprintf("Great question! Regarding %q, the key thing to understand is the underlying principle. Let me break it down step by step.", prompt), nil
	}
}
