package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/studybuddy-ai/chat-core/model"
	"github.com/studybuddy-ai/chat-core/utils/auth"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// RunSeeds runs all seed functions
func RunSeeds(db *gorm.DB) error {
	return NewSeeder(db).SeedAll()
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	log.Println("Starting database seeding...")

	if err := s.SeedDevUser(); err != nil {
		return fmt.Errorf("failed to seed dev user: %w", err)
	}

	if err := s.SeedSampleSessions(); err != nil {
		return fmt.Errorf("failed to seed sample sessions: %w", err)
	}

	log.Println("Database seeding completed successfully!")
	return nil
}

// SeedDevUser creates the default development user from DEV_USER_EMAIL
// and DEV_USER_PASSWORD. Skipped when they are unset or the user exists.
func (s *Seeder) SeedDevUser() error {
	email := os.Getenv("DEV_USER_EMAIL")
	password := os.Getenv("DEV_USER_PASSWORD")

	if email == "" || password == "" {
		log.Println("DEV_USER_EMAIL and DEV_USER_PASSWORD not set, skipping dev user creation")
		return nil
	}

	var count int64
	if err := s.db.Model(&model.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("Dev user already exists, skipping...")
		return nil
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash dev user password: %w", err)
	}

	user := model.User{
		Email:        email,
		PasswordHash: passwordHash,
		Name:         "Dev User",
	}
	if err := s.db.Create(&user).Error; err != nil {
		return err
	}

	log.Printf("Created dev user %s (id=%s)", email, user.ID)
	return nil
}

// SeedSampleSessions creates a few conversations for the dev user so the
// client has something to paginate against.
func (s *Seeder) SeedSampleSessions() error {
	email := os.Getenv("DEV_USER_EMAIL")
	if email == "" {
		return nil
	}

	var user model.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return err
	}

	var count int64
	if err := s.db.Model(&model.ChatSession{}).Where("user_id = ?", user.ID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("Sample sessions already exist, skipping...")
		return nil
	}

	samples := []struct {
		Title       string
		Subject     string
		SessionType model.SessionType
		Question    string
		Answer      string
	}{
		{
			Title:       "Explain recursion",
			Subject:     "Computer Science",
			SessionType: model.SessionTypeChat,
			Question:    "Explain recursion with a simple example",
			Answer:      "Recursion is a technique where a function calls itself on a smaller input until it reaches a base case.",
		},
		{
			Title:       "Photosynthesis quiz",
			Subject:     "Biology",
			SessionType: model.SessionTypeQuiz,
			Question:    "Quiz me on photosynthesis",
			Answer:      "Question 1: Which organelle carries out photosynthesis?",
		},
		{
			Title:       "French vocabulary flashcards",
			Subject:     "French",
			SessionType: model.SessionTypeFlashcards,
			Question:    "Make flashcards for basic French greetings",
			Answer:      "Card 1: Bonjour - Hello. Card 2: Merci - Thank you.",
		},
	}

	for _, sample := range samples {
		now := time.Now()
		session := model.ChatSession{
			UserID:       user.ID,
			Title:        sample.Title,
			Subject:      sample.Subject,
			SessionType:  sample.SessionType,
			LastMessage:  model.DeriveSessionTitle(sample.Answer),
			MessageCount: 2,
			LastActivity: &now,
		}
		if err := s.db.Create(&session).Error; err != nil {
			return err
		}

		messages := []model.ChatMessage{
			{
				SessionID: session.ID,
				UserID:    user.ID,
				Role:      model.MessageRoleUser,
				Content:   sample.Question,
				Status:    model.MessageStatusCompleted,
			},
			{
				SessionID:  session.ID,
				UserID:     user.ID,
				Role:       model.MessageRoleAssistant,
				Content:    sample.Answer,
				Status:     model.MessageStatusCompleted,
				IsStreamed: true,
			},
		}
		if err := s.db.Create(&messages).Error; err != nil {
			return err
		}
	}

	log.Printf("Created %d sample sessions for %s", len(samples), email)
	return nil
}
