package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vistascan/vistascan-backend/internal/logger"
	"github.com/vistascan/vistascan-backend/internal/repos"
	"github.com/vistascan/vistascan-backend/internal/types"
)

const (
	aiReportHeader     = "AI-Generated Report:\n\n"
	aiReportDisclaimer = "\n\n[This report was automatically generated by AI and should be reviewed by a qualified radiologist.]"
)

type ImagingStudyDTO struct {
	FilePath    string    `json:"file_path"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	UploadDate  time.Time `json:"upload_date"`
}

type ReportDTO struct {
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
	ExpertID       string    `json:"expert_id"`
	ConsultationID string    `json:"consultation_id"`
}

// ConsultationDTO is the read-only projection returned to callers; the live
// entity never leaves the service.
type ConsultationDTO struct {
	ID           string          `json:"id"`
	PatientID    string          `json:"patient_id"`
	ImagingStudy ImagingStudyDTO `json:"imaging_study"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	Report       *ReportDTO      `json:"report,omitempty"`
	ExpertID     string          `json:"expert_id,omitempty"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	DownloadURL  string          `json:"download_url,omitempty"`
}

// DraftReportResult is the structured outcome of AI generation. Provider
// failures land here as Success=false instead of an error.
type DraftReportResult struct {
	Success      bool             `json:"success"`
	Message      string           `json:"message"`
	Draft        string           `json:"draft,omitempty"`
	Consultation *ConsultationDTO `json:"consultation,omitempty"`
}

// ConsultationService drives the consultation workflow: it validates
// preconditions, runs the entity transitions, coordinates storage,
// persistence and the model service, and emits notifications.
type ConsultationService interface {
	Create(ctx context.Context, patientID uuid.UUID, data []byte, filename, contentType string) (*ConsultationDTO, error)
	Assign(ctx context.Context, consultationID, expertID uuid.UUID) (*ConsultationDTO, error)
	Annotate(ctx context.Context, consultationID uuid.UUID, content string, expertID uuid.UUID) (*ConsultationDTO, error)
	GenerateDraftReport(ctx context.Context, consultationID, requesterID uuid.UUID) (*DraftReportResult, error)
	GetByID(ctx context.Context, consultationID uuid.UUID) (*ConsultationDTO, error)
	GetByPatient(ctx context.Context, patientID uuid.UUID) ([]*ConsultationDTO, error)
	GetByExpert(ctx context.Context, expertID uuid.UUID) ([]*ConsultationDTO, error)
	GetByStatus(ctx context.Context, status types.ConsultationStatus) ([]*ConsultationDTO, error)
	GetAll(ctx context.Context) ([]*ConsultationDTO, error)
	Delete(ctx context.Context, consultationID uuid.UUID) error
}

type consultationService struct {
	db               *gorm.DB
	log              *logger.Logger
	consultationRepo repos.ConsultationRepo
	userRepo         repos.UserRepo
	bucket           BucketService
	model            ReportModelClient
	notifier         ConsultationNotifier
	// autoComplete controls whether a successful AI draft completes the
	// consultation immediately or is returned for human confirmation.
	autoComplete bool
}

func NewConsultationService(
	db *gorm.DB,
	log *logger.Logger,
	consultationRepo repos.ConsultationRepo,
	userRepo repos.UserRepo,
	bucket BucketService,
	model ReportModelClient,
	notifier ConsultationNotifier,
	autoComplete bool,
) ConsultationService {
	return &consultationService{
		db:               db,
		log:              log.With("service", "ConsultationService"),
		consultationRepo: consultationRepo,
		userRepo:         userRepo,
		bucket:           bucket,
		model:            model,
		notifier:         notifier,
		autoComplete:     autoComplete,
	}
}

func (cs *consultationService) Create(ctx context.Context, patientID uuid.UUID, data []byte, filename, contentType string) (*ConsultationDTO, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: uploaded file is empty", types.ErrValidation)
	}
	if filename == "" {
		return nil, fmt.Errorf("%w: filename is required", types.ErrValidation)
	}

	patient, err := cs.userRepo.GetByID(ctx, nil, patientID)
	if err != nil {
		cs.log.Error("Failed to load patient", "patient_id", patientID, "error", err)
		return nil, fmt.Errorf("%w: patient %s", types.ErrNotFound, patientID)
	}
	if patient == nil {
		return nil, fmt.Errorf("%w: patient %s", types.ErrNotFound, patientID)
	}

	path, size, err := cs.bucket.Upload(ctx, data, filename, contentType, patientID)
	if err != nil {
		cs.log.Error("Failed to upload imaging study", "patient_id", patientID, "error", err)
		return nil, fmt.Errorf("%w: upload failed: %v", types.ErrDependency, err)
	}

	now := time.Now()
	study := types.ImagingStudy{
		FilePath:    path,
		FileName:    filename,
		ContentType: contentType,
		Size:        size,
		UploadDate:  now,
	}
	consultation := types.NewConsultation(patientID, study, now)

	saved, err := cs.consultationRepo.Create(ctx, nil, consultation)
	if err != nil {
		cs.log.Error("Failed to save consultation, cleaning up uploaded object", "consultation_id", consultation.ID, "error", err)
		// Best-effort compensation: a failed cleanup leaves an orphaned blob,
		// which is preferable to masking the primary failure.
		if _, delErr := cs.bucket.Delete(ctx, path); delErr != nil {
			cs.log.Warn("Failed to delete uploaded object after save failure", "key", path, "error", delErr)
		}
		return nil, fmt.Errorf("%w: failed to save consultation: %v", types.ErrDependency, err)
	}

	cs.log.Info("Consultation created", "consultation_id", saved.ID, "patient_id", patientID)
	cs.notifier.ConsultationCreated(saved.ID, saved.PatientID)
	return cs.toDTO(saved), nil
}

func (cs *consultationService) Assign(ctx context.Context, consultationID, expertID uuid.UUID) (*ConsultationDTO, error) {
	consultation, err := cs.loadConsultation(ctx, consultationID)
	if err != nil {
		return nil, err
	}

	expert, err := cs.userRepo.GetByID(ctx, nil, expertID)
	if err != nil {
		cs.log.Error("Failed to load expert", "expert_id", expertID, "error", err)
		return nil, fmt.Errorf("%w: expert %s", types.ErrNotFound, expertID)
	}
	if expert == nil {
		return nil, fmt.Errorf("%w: expert %s", types.ErrNotFound, expertID)
	}
	if !expert.CanReview() {
		return nil, fmt.Errorf("%w: user %s has role %s", types.ErrNotAnExpert, expertID, expert.Role)
	}

	if err := consultation.AssignToExpert(expertID); err != nil {
		return nil, err
	}

	updated, err := cs.consultationRepo.Update(ctx, nil, consultation)
	if err != nil {
		return nil, cs.wrapUpdateError(consultationID, err)
	}

	cs.log.Info("Consultation assigned", "consultation_id", consultationID, "expert_id", expertID)
	cs.notifier.ConsultationAssigned(updated.ID, updated.PatientID, expertID)
	return cs.toDTO(updated), nil
}

func (cs *consultationService) Annotate(ctx context.Context, consultationID uuid.UUID, content string, expertID uuid.UUID) (*ConsultationDTO, error) {
	if content == "" {
		return nil, fmt.Errorf("%w: report content is required", types.ErrValidation)
	}

	consultation, err := cs.loadConsultation(ctx, consultationID)
	if err != nil {
		return nil, err
	}

	report := types.Report{
		Content:        content,
		CreatedAt:      time.Now(),
		ExpertID:       expertID,
		ConsultationID: consultationID,
	}
	if err := consultation.Annotate(report); err != nil {
		return nil, err
	}

	updated, err := cs.consultationRepo.Update(ctx, nil, consultation)
	if err != nil {
		return nil, cs.wrapUpdateError(consultationID, err)
	}

	cs.log.Info("Consultation annotated", "consultation_id", consultationID, "expert_id", expertID)
	cs.notifier.ConsultationCompleted(updated.ID, updated.PatientID, expertID)
	return cs.toDTO(updated), nil
}

func (cs *consultationService) GenerateDraftReport(ctx context.Context, consultationID, requesterID uuid.UUID) (*DraftReportResult, error) {
	consultation, err := cs.loadConsultation(ctx, consultationID)
	if err != nil {
		return nil, err
	}

	if consultation.PatientID != requesterID {
		return nil, fmt.Errorf("%w: user %s may not generate a report for consultation %s", types.ErrUnauthorized, requesterID, consultationID)
	}
	if consultation.Status == types.StatusCompleted {
		return nil, fmt.Errorf("%w: consultation %s is already completed", types.ErrInvalidTransition, consultationID)
	}

	imageData, err := cs.bucket.Get(ctx, consultation.ImagingStudy.FilePath)
	if err != nil {
		cs.log.Error("Failed to retrieve imaging study", "consultation_id", consultationID, "error", err)
		return nil, fmt.Errorf("%w: failed to retrieve imaging study: %v", types.ErrDependency, err)
	}
	if len(imageData) == 0 {
		return nil, fmt.Errorf("%w: imaging study for consultation %s", types.ErrNotFound, consultationID)
	}

	result := cs.model.GenerateReport(ctx, imageData, consultation.ImagingStudy.FileName)
	if result == nil || !result.Success {
		message := "AI report generation failed"
		if result != nil && result.Message != "" {
			message = result.Message
		}
		cs.log.Error("AI report generation failed", "consultation_id", consultationID, "message", message)
		return &DraftReportResult{Success: false, Message: message}, nil
	}

	now := time.Now()
	content := aiReportHeader + result.Report + aiReportDisclaimer

	if !cs.autoComplete {
		cs.log.Info("AI draft generated for human confirmation", "consultation_id", consultationID)
		return &DraftReportResult{Success: true, Message: "Draft generated", Draft: content}, nil
	}

	report := types.Report{
		Content:        content,
		CreatedAt:      now,
		ExpertID:       requesterID,
		ConsultationID: consultationID,
	}
	if err := consultation.CompleteWithDraft(report); err != nil {
		return nil, err
	}

	updated, err := cs.consultationRepo.Update(ctx, nil, consultation)
	if err != nil {
		return nil, cs.wrapUpdateError(consultationID, err)
	}

	cs.log.Info("AI report generated", "consultation_id", consultationID, "requester_id", requesterID)
	cs.notifier.ConsultationCompleted(updated.ID, updated.PatientID, requesterID)
	return &DraftReportResult{
		Success:      true,
		Message:      "AI report generated",
		Consultation: cs.toDTO(updated),
	}, nil
}

func (cs *consultationService) GetByID(ctx context.Context, consultationID uuid.UUID) (*ConsultationDTO, error) {
	consultation, err := cs.loadConsultation(ctx, consultationID)
	if err != nil {
		return nil, err
	}
	return cs.toDTO(consultation), nil
}

func (cs *consultationService) GetByPatient(ctx context.Context, patientID uuid.UUID) ([]*ConsultationDTO, error) {
	consultations, err := cs.consultationRepo.GetByPatient(ctx, nil, patientID)
	if err != nil {
		cs.log.Error("Failed to list consultations by patient", "patient_id", patientID, "error", err)
		return []*ConsultationDTO{}, nil
	}
	return cs.toDTOs(consultations), nil
}

func (cs *consultationService) GetByExpert(ctx context.Context, expertID uuid.UUID) ([]*ConsultationDTO, error) {
	consultations, err := cs.consultationRepo.GetByExpert(ctx, nil, expertID)
	if err != nil {
		cs.log.Error("Failed to list consultations by expert", "expert_id", expertID, "error", err)
		return []*ConsultationDTO{}, nil
	}
	return cs.toDTOs(consultations), nil
}

func (cs *consultationService) GetByStatus(ctx context.Context, status types.ConsultationStatus) ([]*ConsultationDTO, error) {
	consultations, err := cs.consultationRepo.GetByStatus(ctx, nil, status)
	if err != nil {
		cs.log.Error("Failed to list consultations by status", "status", status, "error", err)
		return []*ConsultationDTO{}, nil
	}
	return cs.toDTOs(consultations), nil
}

func (cs *consultationService) GetAll(ctx context.Context) ([]*ConsultationDTO, error) {
	consultations, err := cs.consultationRepo.GetAll(ctx, nil)
	if err != nil {
		cs.log.Error("Failed to list consultations", "error", err)
		return []*ConsultationDTO{}, nil
	}
	return cs.toDTOs(consultations), nil
}

// Delete removes the persisted record first and only then the blob, so a
// failed record delete never leaves a record pointing at a missing object.
func (cs *consultationService) Delete(ctx context.Context, consultationID uuid.UUID) error {
	consultation, err := cs.loadConsultation(ctx, consultationID)
	if err != nil {
		return err
	}

	deleted, err := cs.consultationRepo.DeleteByID(ctx, nil, consultationID)
	if err != nil {
		cs.log.Error("Failed to delete consultation", "consultation_id", consultationID, "error", err)
		return fmt.Errorf("%w: failed to delete consultation: %v", types.ErrDependency, err)
	}
	if !deleted {
		return fmt.Errorf("%w: consultation %s", types.ErrNotFound, consultationID)
	}

	if _, delErr := cs.bucket.Delete(ctx, consultation.ImagingStudy.FilePath); delErr != nil {
		cs.log.Warn("Failed to delete imaging study object", "key", consultation.ImagingStudy.FilePath, "error", delErr)
	}

	cs.log.Info("Consultation deleted", "consultation_id", consultationID)
	cs.notifier.ConsultationDeleted(consultationID, consultation.PatientID)
	return nil
}

func (cs *consultationService) loadConsultation(ctx context.Context, consultationID uuid.UUID) (*types.Consultation, error) {
	consultation, err := cs.consultationRepo.GetByID(ctx, nil, consultationID)
	if err != nil {
		cs.log.Error("Failed to load consultation", "consultation_id", consultationID, "error", err)
		return nil, fmt.Errorf("%w: consultation %s", types.ErrNotFound, consultationID)
	}
	if consultation == nil {
		return nil, fmt.Errorf("%w: consultation %s", types.ErrNotFound, consultationID)
	}
	return consultation, nil
}

func (cs *consultationService) wrapUpdateError(consultationID uuid.UUID, err error) error {
	if errors.Is(err, types.ErrConflict) {
		cs.log.Warn("Concurrent update detected", "consultation_id", consultationID)
		return fmt.Errorf("%w: consultation %s", types.ErrConflict, consultationID)
	}
	cs.log.Error("Failed to update consultation", "consultation_id", consultationID, "error", err)
	return fmt.Errorf("%w: failed to update consultation: %v", types.ErrDependency, err)
}

// toDTO builds the caller-facing projection. The download URL is minted fresh
// on every call because signed URLs expire independently of persisted state.
func (cs *consultationService) toDTO(c *types.Consultation) *ConsultationDTO {
	downloadURL, err := cs.bucket.GetDownloadURL(c.ImagingStudy.FilePath)
	if err != nil {
		cs.log.Warn("Failed to mint download URL", "consultation_id", c.ID, "error", err)
		downloadURL = ""
	}

	dto := &ConsultationDTO{
		ID:        c.ID.String(),
		PatientID: c.PatientID.String(),
		ImagingStudy: ImagingStudyDTO{
			FilePath:    c.ImagingStudy.FilePath,
			FileName:    c.ImagingStudy.FileName,
			ContentType: c.ImagingStudy.ContentType,
			Size:        c.ImagingStudy.Size,
			UploadDate:  c.ImagingStudy.UploadDate,
		},
		Status:      string(c.Status),
		CreatedAt:   c.CreatedAt,
		CompletedAt: c.CompletedAt,
		DownloadURL: downloadURL,
	}
	if c.ExpertID != nil {
		dto.ExpertID = c.ExpertID.String()
	}
	if c.Report != nil {
		dto.Report = &ReportDTO{
			Content:        c.Report.Content,
			CreatedAt:      c.Report.CreatedAt,
			ExpertID:       c.Report.ExpertID.String(),
			ConsultationID: c.Report.ConsultationID.String(),
		}
	}
	return dto
}

func (cs *consultationService) toDTOs(consultations []*types.Consultation) []*ConsultationDTO {
	dtos := make([]*ConsultationDTO, 0, len(consultations))
	for _, c := range consultations {
		dtos = append(dtos, cs.toDTO(c))
	}
	return dtos
}
