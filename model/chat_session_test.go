package model

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestDeriveSessionTitle(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "short content used as-is",
			content: "Explain recursion",
			want:    "Explain recursion",
		},
		{
			name:    "whitespace trimmed",
			content: "  Explain recursion  ",
			want:    "Explain recursion",
		},
		{
			name:    "empty content falls back",
			content: "",
			want:    "New Chat",
		},
		{
			name:    "whitespace-only content falls back",
			content: "   \n\t ",
			want:    "New Chat",
		},
		{
			name:    "long content cut at word boundary with ellipsis",
			content: "Explain the difference between depth-first search and breadth-first search in graphs",
			want:    "Explain the difference between depth-first search...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveSessionTitle(tt.content)
			if got != tt.want {
				t.Errorf("DeriveSessionTitle(%q) = %q, want %q", tt.content, got, tt.want)
			}
		})
	}
}

func TestDeriveSessionTitleLength(t *testing.T) {
	long := strings.Repeat("word ", 40)
	title := DeriveSessionTitle(long)

	if n := utf8.RuneCountInString(title); n > SessionTitleMaxLength+3 {
		t.Errorf("derived title has %d runes, want at most %d plus ellipsis", n, SessionTitleMaxLength)
	}
	if !strings.HasSuffix(title, "...") {
		t.Errorf("long content should end with ellipsis, got %q", title)
	}
}

func TestDeriveSessionTitleMultibyte(t *testing.T) {
	long := strings.Repeat("日本語の勉強 ", 20)
	title := DeriveSessionTitle(long)

	if !utf8.ValidString(title) {
		t.Errorf("derived title is not valid UTF-8: %q", title)
	}
}

func TestSetFeedback(t *testing.T) {
	var m ChatMessage

	m.SetFeedback(true, false)
	if !m.Liked() || m.Disliked() {
		t.Errorf("after like: liked=%v disliked=%v", m.Liked(), m.Disliked())
	}

	m.SetFeedback(false, true)
	if m.Liked() || !m.Disliked() {
		t.Errorf("after dislike: liked=%v disliked=%v", m.Liked(), m.Disliked())
	}
}
