package services

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/vistascan/vistascan-backend/internal/logger"
	"github.com/vistascan/vistascan-backend/internal/types"
)

// NotificationHub is the fan-out surface the notifier needs; satisfied by
// *ws.Hub.
type NotificationHub interface {
	SendTo(userID uuid.UUID, payload []byte)
	BroadcastToRoles(payload []byte, roles []types.UserRole)
	BroadcastToAll(payload []byte)
}

// ConsultationNotifier fans committed workflow transitions out to connected
// clients. One method per event kind; each builds a complete payload.
type ConsultationNotifier interface {
	ConsultationCreated(consultationID, patientID uuid.UUID)
	ConsultationAssigned(consultationID, patientID, expertID uuid.UUID)
	ConsultationStatusChanged(consultationID, patientID, expertID uuid.UUID, oldStatus, newStatus types.ConsultationStatus)
	ConsultationCompleted(consultationID, patientID, expertID uuid.UUID)
	ConsultationDeleted(consultationID, patientID uuid.UUID)
}

// deliveryPolicy is the fixed event-to-recipient mapping. New event kinds get
// a table entry, not new branching.
type deliveryPolicy struct {
	all       bool
	roles     []types.UserRole
	toPatient bool
}

var deliveryPolicies = map[types.NotificationEventType]deliveryPolicy{
	types.EventConsultationCreated:       {roles: []types.UserRole{types.RoleExpert, types.RoleAdmin}},
	types.EventConsultationAssigned:      {roles: []types.UserRole{types.RoleExpert, types.RoleAdmin}, toPatient: true},
	types.EventConsultationStatusChanged: {all: true},
	types.EventConsultationCompleted:     {all: true},
	types.EventConsultationDeleted:       {all: true},
}

type consultationNotifier struct {
	log *logger.Logger
	hub NotificationHub
}

func NewConsultationNotifier(log *logger.Logger, hub NotificationHub) ConsultationNotifier {
	return &consultationNotifier{
		log: log.With("service", "ConsultationNotifier"),
		hub: hub,
	}
}

func (n *consultationNotifier) ConsultationCreated(consultationID, patientID uuid.UUID) {
	n.dispatch(types.NewConsultationCreatedEvent(consultationID, patientID))
}

func (n *consultationNotifier) ConsultationAssigned(consultationID, patientID, expertID uuid.UUID) {
	n.dispatch(types.NewConsultationAssignedEvent(consultationID, patientID, expertID))
}

// ConsultationStatusChanged redirects COMPLETED transitions through the
// completed policy so clients never see two contradictory messages.
func (n *consultationNotifier) ConsultationStatusChanged(consultationID, patientID, expertID uuid.UUID, oldStatus, newStatus types.ConsultationStatus) {
	if newStatus == types.StatusCompleted {
		n.ConsultationCompleted(consultationID, patientID, expertID)
		return
	}
	n.dispatch(types.NewConsultationStatusChangedEvent(consultationID, patientID, expertID, oldStatus, newStatus))
}

func (n *consultationNotifier) ConsultationCompleted(consultationID, patientID, expertID uuid.UUID) {
	n.dispatch(types.NewConsultationCompletedEvent(consultationID, patientID, expertID))
}

func (n *consultationNotifier) ConsultationDeleted(consultationID, patientID uuid.UUID) {
	n.dispatch(types.NewConsultationDeletedEvent(consultationID, patientID))
}

func (n *consultationNotifier) dispatch(event types.NotificationEvent) {
	if n == nil || n.hub == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		n.log.Warn("Failed to marshal notification event", "event_type", event.EventType, "error", err)
		return
	}
	policy, ok := deliveryPolicies[event.EventType]
	if !ok {
		n.log.Warn("No delivery policy for event", "event_type", event.EventType)
		return
	}
	if policy.all {
		n.hub.BroadcastToAll(payload)
	} else if len(policy.roles) > 0 {
		n.hub.BroadcastToRoles(payload, policy.roles)
	}
	if policy.toPatient {
		if patientID, err := uuid.Parse(event.PatientID); err == nil {
			n.hub.SendTo(patientID, payload)
		}
	}
}
