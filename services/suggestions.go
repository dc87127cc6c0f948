package services

import (
	"context"
	"fmt"
)

// defaultSuggestions is served when there is no session context to
// tailor prompts from.
var defaultSuggestions = []string{
	"Help me brainstorm ideas for my project",
	"Explain a complex concept in simple terms",
	"Review and improve my writing",
	"Help me solve a problem step by step",
	"Generate creative content or stories",
}

// Suggestions returns starter prompts for an empty input box. With a
// session id the suggestions are tailored to the session's subject;
// otherwise (or when the session has no subject) the defaults apply.
func (s *ChatService) Suggestions(ctx context.Context, sessionID, userID string) ([]string, error) {
	if sessionID == "" {
		return defaultSuggestions, nil
	}

	session, err := s.GetSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.Subject == "" {
		return defaultSuggestions, nil
	}

	return []string{
		fmt.Sprintf("Explain a key concept from %s in simple terms", session.Subject),
		fmt.Sprintf("Quiz me on %s", session.Subject),
		fmt.Sprintf("Summarize what we have covered about %s so far", session.Subject),
		fmt.Sprintf("Give me practice problems for %s", session.Subject),
		fmt.Sprintf("What should I study next in %s?", session.Subject),
	}, nil
}
