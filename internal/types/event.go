package types

import (
	"time"

	"github.com/google/uuid"
)

type NotificationEventType string

const (
	EventConsultationCreated       NotificationEventType = "consultation_created"
	EventConsultationAssigned      NotificationEventType = "consultation_assigned"
	EventConsultationStatusChanged NotificationEventType = "consultation_status_changed"
	EventConsultationCompleted     NotificationEventType = "consultation_completed"
	EventConsultationDeleted       NotificationEventType = "consultation_deleted"
)

// NotificationEvent is an ephemeral payload built at the moment a transition
// commits and handed straight to the fan-out hub. It is never persisted.
type NotificationEvent struct {
	EventType      NotificationEventType `json:"event_type"`
	ConsultationID string                `json:"consultation_id"`
	PatientID      string                `json:"patient_id"`
	ExpertID       string                `json:"expert_id,omitempty"`
	OldStatus      string                `json:"old_status,omitempty"`
	NewStatus      string                `json:"new_status,omitempty"`
	Message        string                `json:"message"`
	Timestamp      time.Time             `json:"timestamp"`
}

func NewConsultationCreatedEvent(consultationID, patientID uuid.UUID) NotificationEvent {
	return NotificationEvent{
		EventType:      EventConsultationCreated,
		ConsultationID: consultationID.String(),
		PatientID:      patientID.String(),
		Message:        "New consultation submitted and ready for review",
		Timestamp:      time.Now(),
	}
}

func NewConsultationAssignedEvent(consultationID, patientID, expertID uuid.UUID) NotificationEvent {
	return NotificationEvent{
		EventType:      EventConsultationAssigned,
		ConsultationID: consultationID.String(),
		PatientID:      patientID.String(),
		ExpertID:       expertID.String(),
		OldStatus:      string(StatusPending),
		NewStatus:      string(StatusInReview),
		Message:        "Consultation has been assigned to an expert for review",
		Timestamp:      time.Now(),
	}
}

func NewConsultationStatusChangedEvent(consultationID, patientID, expertID uuid.UUID, oldStatus, newStatus ConsultationStatus) NotificationEvent {
	expert := ""
	if expertID != uuid.Nil {
		expert = expertID.String()
	}
	return NotificationEvent{
		EventType:      EventConsultationStatusChanged,
		ConsultationID: consultationID.String(),
		PatientID:      patientID.String(),
		ExpertID:       expert,
		OldStatus:      string(oldStatus),
		NewStatus:      string(newStatus),
		Message:        "Consultation status updated to " + string(newStatus),
		Timestamp:      time.Now(),
	}
}

func NewConsultationCompletedEvent(consultationID, patientID, expertID uuid.UUID) NotificationEvent {
	return NotificationEvent{
		EventType:      EventConsultationCompleted,
		ConsultationID: consultationID.String(),
		PatientID:      patientID.String(),
		ExpertID:       expertID.String(),
		OldStatus:      string(StatusInReview),
		NewStatus:      string(StatusCompleted),
		Message:        "Consultation has been completed - report is now available",
		Timestamp:      time.Now(),
	}
}

func NewConsultationDeletedEvent(consultationID, patientID uuid.UUID) NotificationEvent {
	return NotificationEvent{
		EventType:      EventConsultationDeleted,
		ConsultationID: consultationID.String(),
		PatientID:      patientID.String(),
		Message:        "Consultation has been deleted by administrator",
		Timestamp:      time.Now(),
	}
}
