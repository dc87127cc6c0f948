package router

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/studybuddy-ai/chat-core/database"
	"github.com/studybuddy-ai/chat-core/handlers"
	auth_handlers "github.com/studybuddy-ai/chat-core/handlers/auth"
	chat_handlers "github.com/studybuddy-ai/chat-core/handlers/chat"
	"github.com/studybuddy-ai/chat-core/services"
	"github.com/studybuddy-ai/chat-core/services/storage"
	"github.com/studybuddy-ai/chat-core/utils"
	"github.com/studybuddy-ai/chat-core/utils/auth"
	"github.com/studybuddy-ai/chat-core/utils/cache"
	"github.com/studybuddy-ai/chat-core/utils/middleware"
	"gorm.io/gorm"
)

const accessTokenExpiry = 24 * time.Hour

func SetupRoutes(app *fiber.App, store database.Storage) {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := os.Getenv("JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "studybuddy-chat-api"
	}

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret: jwtSecret,
		Expiry: accessTokenExpiry,
		Issuer: jwtIssuer,
	})

	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	// Redis backs the streaming send throttle. The API still works
	// without it, minus throttling.
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}
	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Stream throttling will be disabled.", err)
	}

	var streamThrottle *middleware.StreamThrottle
	if redisCache != nil {
		streamThrottle = middleware.NewStreamThrottle(redisCache, 20, 5)
	}

	// Attachment storage is optional; uploads return 503 without it.
	var attachments storage.AttachmentStore
	if os.Getenv("SPACES_KEY") != "" {
		spaces, err := storage.NewSpacesClient(storage.SpacesConfig{
			AccessKey: os.Getenv("SPACES_KEY"),
			SecretKey: os.Getenv("SPACES_SECRET"),
			Bucket:    os.Getenv("SPACES_BUCKET"),
			Region:    os.Getenv("SPACES_REGION"),
			Endpoint:  os.Getenv("SPACES_ENDPOINT"),
			CDNURL:    os.Getenv("SPACES_CDN_URL"),
		})
		if err != nil {
			log.Printf("Warning: Failed to create Spaces client: %v. Attachment uploads will be disabled.", err)
		} else {
			attachments = spaces
		}
	}

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)
	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, accessTokenExpiry)

	chatService := services.NewChatService(db)
	chatHandler := chat_handlers.NewChatHandler(chatService, attachments)

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:3001"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,
		RateLimitWindow:   1 * time.Minute,
	})

	// Health check endpoint (public)
	app.Get("/ping", utils.MakeHTTPHandleFunc(handlers.HandleCheckHealth, store))

	// API v1 group
	api := app.Group("/api/v1")

	// Auth routes
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Get("/profile", authMiddleware.Required(), authHandler.Profile)

	// Chat routes (all protected)
	chat := api.Group("/chat", authMiddleware.Required())

	// Session management
	chat.Get("/sessions", chatHandler.ListSessions)
	chat.Post("/sessions", chatHandler.CreateSession)
	chat.Get("/sessions/search", chatHandler.SearchSessions)
	chat.Get("/sessions/:id", chatHandler.GetSession)
	chat.Put("/sessions/:id", chatHandler.UpdateSession)
	chat.Delete("/sessions/:id", chatHandler.DeleteSession)
	chat.Post("/sessions/:id/star", chatHandler.StarSession)
	chat.Delete("/sessions/:id/star", chatHandler.UnstarSession)
	chat.Get("/sessions/:id/export", chatHandler.ExportConversation)

	// Message management
	chat.Get("/sessions/:id/messages", chatHandler.ListMessages)
	chat.Get("/sessions/:id/messages/search", chatHandler.SearchMessages)
	chat.Post("/messages/:id/feedback", chatHandler.SubmitFeedback)
	chat.Post("/messages/:id/regenerate", chatHandler.RegenerateMessage)

	// Streaming send, throttled when Redis is available
	if streamThrottle != nil {
		chat.Post("/messages/stream", streamThrottle.Limit(), chatHandler.StreamMessage)
	} else {
		chat.Post("/messages/stream", chatHandler.StreamMessage)
	}

	// Suggestions and attachments
	chat.Get("/suggestions", chatHandler.Suggestions)
	chat.Post("/attachments", chatHandler.UploadAttachment)
}
