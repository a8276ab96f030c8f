package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vistascan/vistascan-backend/internal/logger"
	"github.com/vistascan/vistascan-backend/internal/requestdata"
	"github.com/vistascan/vistascan-backend/internal/services"
	"github.com/vistascan/vistascan-backend/internal/types"
)

const maxUploadBytes = 32 << 20

type ConsultationHandler struct {
	log                 *logger.Logger
	consultationService services.ConsultationService
}

func NewConsultationHandler(log *logger.Logger, consultationService services.ConsultationService) *ConsultationHandler {
	return &ConsultationHandler{
		log:                 log.With("handler", "ConsultationHandler"),
		consultationService: consultationService,
	}
}

// POST /api/consultations
// Multipart upload of an imaging study; the authenticated user is the patient.
func (h *ConsultationHandler) Create(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing identity"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("file is required: %w", err))
		return
	}
	if fileHeader.Size > maxUploadBytes {
		RespondError(c, http.StatusRequestEntityTooLarge, "too_large", fmt.Errorf("file exceeds %d bytes", maxUploadBytes))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	dto, err := h.consultationService.Create(
		c.Request.Context(),
		rd.UserID,
		data,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
	)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto)
}

// POST /api/consultations/:id/assign
func (h *ConsultationHandler) Assign(c *gin.Context) {
	consultationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		ExpertID string `json:"expert_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	expertID, err := uuid.Parse(req.ExpertID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid expert_id"))
		return
	}
	dto, err := h.consultationService.Assign(c.Request.Context(), consultationID, expertID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, dto)
}

// POST /api/consultations/:id/report
// The authenticated user must be the assigned expert.
func (h *ConsultationHandler) SubmitReport(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing identity"))
		return
	}
	consultationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	dto, err := h.consultationService.Annotate(c.Request.Context(), consultationID, req.Content, rd.UserID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, dto)
}

// POST /api/consultations/:id/generate-report
func (h *ConsultationHandler) GenerateReport(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing identity"))
		return
	}
	consultationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	result, err := h.consultationService.GenerateDraftReport(c.Request.Context(), consultationID, rd.UserID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, result)
}

// GET /api/consultations/:id
func (h *ConsultationHandler) GetByID(c *gin.Context) {
	consultationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	dto, err := h.consultationService.GetByID(c.Request.Context(), consultationID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, dto)
}

// GET /api/consultations
// Patients see their own; experts see their assignments; admins may filter by
// status or get everything.
func (h *ConsultationHandler) List(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing identity"))
		return
	}

	if status := c.Query("status"); status != "" && rd.Role == types.RoleAdmin {
		dtos, err := h.consultationService.GetByStatus(c.Request.Context(), types.ConsultationStatus(status))
		if err != nil {
			RespondDomainError(c, err)
			return
		}
		RespondOK(c, dtos)
		return
	}

	var (
		dtos []*services.ConsultationDTO
		err  error
	)
	switch rd.Role {
	case types.RoleExpert:
		dtos, err = h.consultationService.GetByExpert(c.Request.Context(), rd.UserID)
	case types.RoleAdmin:
		dtos, err = h.consultationService.GetAll(c.Request.Context())
	default:
		dtos, err = h.consultationService.GetByPatient(c.Request.Context(), rd.UserID)
	}
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, dtos)
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid %s", name))
		return uuid.Nil, false
	}
	return id, true
}
