package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/studybuddy-ai/chat-core/database"
	"gorm.io/gorm"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	// Initialize database connection using GORM
	store, err := database.StartGORM()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := store.Init(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	gormDB := store.GetDB().(*gorm.DB)

	separator := strings.Repeat("=", 60)
	fmt.Println(separator)
	fmt.Println("StudyBuddy Chat - Database Seeding")
	fmt.Println(separator)
	fmt.Println()

	if err := database.RunSeeds(gormDB); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	fmt.Println()
	fmt.Println(separator)
	fmt.Println("Seeding completed successfully!")
	fmt.Println(separator)
	fmt.Println()
	fmt.Println("Dev user created from DEV_USER_EMAIL and DEV_USER_PASSWORD environment variables.")
	fmt.Println("If not set, dev user creation is skipped.")
	fmt.Println()
}
