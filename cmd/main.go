package main

import (
	"fmt"
	"os"
	"time"

	"github.com/vistascan/vistascan-backend/internal/db"
	"github.com/vistascan/vistascan-backend/internal/handlers"
	"github.com/vistascan/vistascan-backend/internal/logger"
	"github.com/vistascan/vistascan-backend/internal/middleware"
	"github.com/vistascan/vistascan-backend/internal/repos"
	"github.com/vistascan/vistascan-backend/internal/server"
	"github.com/vistascan/vistascan-backend/internal/services"
	"github.com/vistascan/vistascan-backend/internal/utils"
	"github.com/vistascan/vistascan-backend/internal/ws"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	modelAutoComplete := utils.GetEnvAsBool("MODEL_AUTO_COMPLETE", true, log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	consultationRepo := repos.NewConsultationRepo(thePG, log)

	// Notification hub
	log.Info("Setting up notification hub now...")
	hub := ws.NewHub(log)

	// Services
	log.Info("Setting up services from main...")
	bucketService, err := services.NewBucketService(log)
	if err != nil {
		log.Error("Could not init BucketService", "error", err)
		os.Exit(1)
	}
	modelClient := services.NewReportModelClient(log)
	notifier := services.NewConsultationNotifier(log, hub)
	authService := services.NewAuthService(thePG, log, userRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second)
	consultationService := services.NewConsultationService(thePG, log, consultationRepo, userRepo, bucketService, modelClient, notifier, modelAutoComplete)
	adminService := services.NewAdminService(thePG, log, userRepo, consultationService)

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(log, authService)
	consultationHandler := handlers.NewConsultationHandler(log, consultationService)
	adminHandler := handlers.NewAdminHandler(log, adminService)
	wsHandler := handlers.NewWSHandler(log, hub, authService, userRepo)
	healthHandler := handlers.NewHealthHandler(modelClient)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:         authHandler,
		AuthMiddleware:      authMiddleware,
		ConsultationHandler: consultationHandler,
		AdminHandler:        adminHandler,
		WSHandler:           wsHandler,
		HealthHandler:       healthHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}
}
