package main

import (
	"log"
	"strings"
	"time"

	"edumatch.id/studybuddy/internal/config"
	"edumatch.id/studybuddy/internal/handler"
	"edumatch.id/studybuddy/internal/middleware"
	"edumatch.id/studybuddy/internal/model"
	"edumatch.id/studybuddy/internal/repository"
	"edumatch.id/studybuddy/internal/service"
	"edumatch.id/studybuddy/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db := database.Connect()
	if err := migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	redisClient := database.ConnectRedis()

	userRepo := repository.NewUserRepository(db)
	matchRepo := repository.NewMatchRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	authService := service.NewAuthService(userRepo)
	authHandler := handler.NewAuthHandler(authService)

	profileService := service.NewProfileService(userRepo)
	profileHandler := handler.NewProfileHandler(profileService)

	matchService := service.NewMatchService(matchRepo, userRepo)
	matchHandler := handler.NewMatchHandler(matchService)

	chatService := service.NewChatService(messageRepo, matchService, redisClient)
	chatHandler := handler.NewChatHandler(chatService, redisClient)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	setupCORS(router, cfg.AllowedOrigins)

	authMiddleware := middleware.NewAuthMiddleware()

	api := router.Group("/api")

	// Public routes (no auth required)
	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	// Protected routes
	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.GET("/auth/me", authHandler.Me)

		// Profile routes
		protected.GET("/profile", profileHandler.GetProfile)
		protected.PUT("/profile", profileHandler.UpdateProfile)
		protected.POST("/profile/onboarding", profileHandler.CompleteOnboarding)

		// Matching routes
		protected.GET("/potential-matches", matchHandler.GetPotentialMatches)
		protected.GET("/matches", matchHandler.GetMatches)
		protected.POST("/matches/:user_id", matchHandler.ActOnMatch)
		protected.GET("/match-requests", matchHandler.GetMatchRequests)

		// Chat routes
		protected.GET("/chat/:user_id/messages", chatHandler.GetHistory)
		protected.GET("/ws/chat/:room", chatHandler.HandleWebSocket)
	}

	log.Printf("starting server on :%s (env=%s)", cfg.Port, cfg.AppEnv)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Profile{},
		&model.Match{},
		&model.ChatMessage{},
	)
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	var origins []string
	if allowedOrigins != "" {
		origins = strings.Split(allowedOrigins, ",")
	} else {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
