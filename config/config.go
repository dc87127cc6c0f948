package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadENV loads variables from .env unless GO_ENV says we are past development.
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		err := godotenv.Load()
		if err != nil {
			return err
		}
	}

	return nil
}

type EnvironmentVariable struct {
	// All variables
	GO_ENV       string
	DB_USER_NAME string
	DB_PASSWORD  string
	DB_NAME      string
	DB_HOST      string
	DB_PORT      string
	DB_SSL_MODE  string
	PORT         int
	// JWT Configuration
	JWT_SECRET string
	JWT_ISSUER string
	// Redis Configuration
	REDIS_URL string
	// Attachment storage (S3-compatible Spaces)
	SPACES_KEY      string
	SPACES_SECRET   string
	SPACES_BUCKET   string
	SPACES_REGION   string
	SPACES_ENDPOINT string
	// Client SDK configuration
	CHAT_API_URL  string
	CHAT_TOKEN    string
	SNAPSHOT_PATH string
}

func Get() (*EnvironmentVariable, error) {

	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		port = 3003
	}

	// Database defaults
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}

	dbPort := os.Getenv("DB_PORT")
	if dbPort == "" {
		dbPort = "5432"
	}

	apiURL := os.Getenv("CHAT_API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:3003/api/v1"
	}

	envVariables := &EnvironmentVariable{
		GO_ENV:       os.Getenv("GO_ENV"),
		DB_USER_NAME: os.Getenv("DB_USER_NAME"),
		DB_PASSWORD:  os.Getenv("DB_PASSWORD"),
		DB_NAME:      os.Getenv("DB_NAME"),
		DB_HOST:      dbHost,
		DB_PORT:      dbPort,
		DB_SSL_MODE:  os.Getenv("DB_SSL_MODE"),
		PORT:         port,
		// JWT
		JWT_SECRET: os.Getenv("JWT_SECRET"),
		JWT_ISSUER: os.Getenv("JWT_ISSUER"),
		// Redis
		REDIS_URL: os.Getenv("REDIS_URL"),
		// Spaces
		SPACES_KEY:      os.Getenv("SPACES_KEY"),
		SPACES_SECRET:   os.Getenv("SPACES_SECRET"),
		SPACES_BUCKET:   os.Getenv("SPACES_BUCKET"),
		SPACES_REGION:   os.Getenv("SPACES_REGION"),
		SPACES_ENDPOINT: os.Getenv("SPACES_ENDPOINT"),
		// Client SDK
		CHAT_API_URL:  apiURL,
		CHAT_TOKEN:    os.Getenv("CHAT_TOKEN"),
		SNAPSHOT_PATH: os.Getenv("SNAPSHOT_PATH"),
	}

	return envVariables, nil
}
