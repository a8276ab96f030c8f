package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/vistascan/vistascan-backend/internal/handlers"
	"github.com/vistascan/vistascan-backend/internal/middleware"
	"github.com/vistascan/vistascan-backend/internal/types"
)

type RouterConfig struct {
	AuthHandler         *handlers.AuthHandler
	AuthMiddleware      *middleware.AuthMiddleware
	ConsultationHandler *handlers.ConsultationHandler
	AdminHandler        *handlers.AdminHandler
	WSHandler           *handlers.WSHandler
	HealthHandler       *handlers.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5173",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// Public
	router.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	router.POST("/api/register", cfg.AuthHandler.Register)
	router.POST("/api/login", cfg.AuthHandler.Login)
	// The websocket endpoint authenticates its own token query param.
	router.GET("/ws", cfg.WSHandler.Connect)

	// Protected
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())
	{
		api.POST("/consultations", cfg.ConsultationHandler.Create)
		api.GET("/consultations", cfg.ConsultationHandler.List)
		api.GET("/consultations/:id", cfg.ConsultationHandler.GetByID)
		api.POST("/consultations/:id/assign", cfg.ConsultationHandler.Assign)
		api.POST("/consultations/:id/report", cfg.ConsultationHandler.SubmitReport)
		api.POST("/consultations/:id/generate-report", cfg.ConsultationHandler.GenerateReport)
	}

	// Admin
	admin := router.Group("/api/admin")
	admin.Use(cfg.AuthMiddleware.RequireAuth(), cfg.AuthMiddleware.RequireRole(types.RoleAdmin))
	{
		admin.GET("/users", cfg.AdminHandler.ListUsers)
		admin.GET("/consultations", cfg.AdminHandler.ListConsultations)
		admin.PATCH("/users/:id", cfg.AdminHandler.UpdateUser)
		admin.DELETE("/users/:id", cfg.AdminHandler.DeleteUser)
		admin.DELETE("/consultations/:id", cfg.AdminHandler.DeleteConsultation)
	}

	return router
}
