package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vistascan/vistascan-backend/internal/services"
)

type HealthHandler struct {
	model services.ReportModelClient
}

func NewHealthHandler(model services.ReportModelClient) *HealthHandler {
	return &HealthHandler{model: model}
}

// GET /healthcheck
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	status := gin.H{"status": "ok"}
	if h.model != nil {
		status["model_service"] = h.model.HealthCheck(c.Request.Context())
	}
	c.JSON(http.StatusOK, status)
}
