package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vistascan/vistascan-backend/internal/logger"
	"github.com/vistascan/vistascan-backend/internal/services"
)

type AdminHandler struct {
	log          *logger.Logger
	adminService services.AdminService
}

func NewAdminHandler(log *logger.Logger, adminService services.AdminService) *AdminHandler {
	return &AdminHandler{log: log.With("handler", "AdminHandler"), adminService: adminService}
}

// GET /api/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.adminService.GetAllUsers(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, users)
}

// GET /api/admin/consultations
func (h *AdminHandler) ListConsultations(c *gin.Context) {
	consultations, err := h.adminService.GetAllConsultations(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, consultations)
}

// PATCH /api/admin/users/:id
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	userID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req services.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	user, err := h.adminService.UpdateUser(c.Request.Context(), userID, req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, user)
}

// DELETE /api/admin/users/:id
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	userID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.adminService.DeleteUser(c.Request.Context(), userID); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DELETE /api/admin/consultations/:id
func (h *AdminHandler) DeleteConsultation(c *gin.Context) {
	consultationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.adminService.DeleteConsultation(c.Request.Context(), consultationID); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
