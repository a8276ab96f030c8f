package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConsultationStatus string

const (
	StatusPending   ConsultationStatus = "PENDING"
	StatusInReview  ConsultationStatus = "IN_REVIEW"
	StatusCompleted ConsultationStatus = "COMPLETED"
)

// ImagingStudy is the uploaded image owned by exactly one consultation.
// Immutable once created.
type ImagingStudy struct {
	FilePath    string    `gorm:"column:file_path;not null" json:"file_path"`
	FileName    string    `gorm:"column:file_name;not null" json:"file_name"`
	ContentType string    `gorm:"column:content_type;not null" json:"content_type"`
	Size        int64     `gorm:"column:size;not null" json:"size"`
	UploadDate  time.Time `gorm:"column:upload_date;not null" json:"upload_date"`
}

// Report is attached to a consultation when review completes. ConsultationID
// is denormalized and must always equal the owning consultation's id.
type Report struct {
	Content        string    `gorm:"column:content" json:"content"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
	ExpertID       uuid.UUID `gorm:"column:expert_id;type:uuid" json:"expert_id"`
	ConsultationID uuid.UUID `gorm:"column:consultation_id;type:uuid" json:"consultation_id"`
}

// Consultation tracks the review lifecycle of one imaging study:
// PENDING -> IN_REVIEW -> COMPLETED, forward-only.
type Consultation struct {
	ID           uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	PatientID    uuid.UUID          `gorm:"type:uuid;not null;index" json:"patient_id"`
	ImagingStudy ImagingStudy       `gorm:"embedded;embeddedPrefix:study_" json:"imaging_study"`
	Status       ConsultationStatus `gorm:"not null;index" json:"status"`
	CreatedAt    time.Time          `gorm:"not null" json:"created_at"`
	Report       *Report            `gorm:"embedded;embeddedPrefix:report_" json:"report,omitempty"`
	ExpertID     *uuid.UUID         `gorm:"type:uuid;index" json:"expert_id,omitempty"`
	CompletedAt  *time.Time         `json:"completed_at,omitempty"`
	// Version guards load-mutate-save cycles against concurrent writers.
	Version int64 `gorm:"not null;default:0" json:"-"`
}

func (Consultation) TableName() string {
	return "consultation"
}

func NewConsultation(patientID uuid.UUID, study ImagingStudy, now time.Time) *Consultation {
	return &Consultation{
		ID:           uuid.New(),
		PatientID:    patientID,
		ImagingStudy: study,
		Status:       StatusPending,
		CreatedAt:    now,
	}
}

// AssignToExpert moves the consultation into review. Re-assignment while
// IN_REVIEW is allowed; a completed consultation cannot be reassigned.
func (c *Consultation) AssignToExpert(expertID uuid.UUID) error {
	if c.Status == StatusCompleted {
		return fmt.Errorf("%w: consultation %s is already completed", ErrInvalidTransition, c.ID)
	}
	id := expertID
	c.ExpertID = &id
	c.Status = StatusInReview
	return nil
}

// Annotate attaches the report and completes the consultation. The report
// author must be the currently assigned expert.
func (c *Consultation) Annotate(report Report) error {
	if c.Status == StatusCompleted {
		return fmt.Errorf("%w: consultation %s is already completed", ErrInvalidTransition, c.ID)
	}
	if report.ConsultationID != c.ID {
		return fmt.Errorf("%w: report references consultation %s, not %s", ErrValidation, report.ConsultationID, c.ID)
	}
	if c.ExpertID == nil || *c.ExpertID != report.ExpertID {
		return fmt.Errorf("%w: consultation %s is not assigned to expert %s", ErrUnauthorized, c.ID, report.ExpertID)
	}
	r := report
	c.Report = &r
	c.Status = StatusCompleted
	completedAt := report.CreatedAt
	c.CompletedAt = &completedAt
	return nil
}

// CompleteWithDraft collapses assignment and annotation into one transition
// for AI-generated reports: the requesting user becomes the authoring expert
// regardless of any prior assignment.
func (c *Consultation) CompleteWithDraft(report Report) error {
	if c.Status == StatusCompleted {
		return fmt.Errorf("%w: consultation %s is already completed", ErrInvalidTransition, c.ID)
	}
	if report.ConsultationID != c.ID {
		return fmt.Errorf("%w: report references consultation %s, not %s", ErrValidation, report.ConsultationID, c.ID)
	}
	r := report
	author := report.ExpertID
	c.Report = &r
	c.ExpertID = &author
	c.Status = StatusCompleted
	completedAt := report.CreatedAt
	c.CompletedAt = &completedAt
	return nil
}

// AfterFind normalizes nullable embedded columns: a consultation that is not
// COMPLETED has no report, and a PENDING one has no expert.
func (c *Consultation) AfterFind(tx *gorm.DB) error {
	if c.Status != StatusCompleted {
		c.Report = nil
		c.CompletedAt = nil
	}
	if c.Status == StatusPending {
		c.ExpertID = nil
	}
	return nil
}
