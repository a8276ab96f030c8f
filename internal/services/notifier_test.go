package services

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	"github.com/vistascan/vistascan-backend/internal/logger"
	"github.com/vistascan/vistascan-backend/internal/types"
)

type hubCall struct {
	kind    string
	userID  uuid.UUID
	roles   []types.UserRole
	payload []byte
}

type fakeHub struct {
	calls []hubCall
}

func (f *fakeHub) SendTo(userID uuid.UUID, payload []byte) {
	f.calls = append(f.calls, hubCall{kind: "send_to", userID: userID, payload: payload})
}

func (f *fakeHub) BroadcastToRoles(payload []byte, roles []types.UserRole) {
	f.calls = append(f.calls, hubCall{kind: "roles", roles: roles, payload: payload})
}

func (f *fakeHub) BroadcastToAll(payload []byte) {
	f.calls = append(f.calls, hubCall{kind: "all", payload: payload})
}

func newTestNotifier(t *testing.T) (ConsultationNotifier, *fakeHub) {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	hub := &fakeHub{}
	return NewConsultationNotifier(log, hub), hub
}

func decodeEvent(t *testing.T, payload []byte) types.NotificationEvent {
	t.Helper()
	var event types.NotificationEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	return event
}

func TestCreatedGoesToReviewerRoles(t *testing.T) {
	notifier, hub := newTestNotifier(t)
	consultationID, patientID := uuid.New(), uuid.New()

	notifier.ConsultationCreated(consultationID, patientID)

	if len(hub.calls) != 1 {
		t.Fatalf("hub calls: want=1 got=%d", len(hub.calls))
	}
	call := hub.calls[0]
	if call.kind != "roles" {
		t.Fatalf("delivery kind: want=roles got=%s", call.kind)
	}
	if len(call.roles) != 2 || call.roles[0] != types.RoleExpert || call.roles[1] != types.RoleAdmin {
		t.Fatalf("roles: want=[EXPERT ADMIN] got=%v", call.roles)
	}
	event := decodeEvent(t, call.payload)
	if event.EventType != types.EventConsultationCreated {
		t.Fatalf("event type: want=%s got=%s", types.EventConsultationCreated, event.EventType)
	}
	if event.ConsultationID != consultationID.String() || event.PatientID != patientID.String() {
		t.Fatalf("event ids mismatch: got=%+v", event)
	}
}

func TestAssignedGoesToReviewersAndPatient(t *testing.T) {
	notifier, hub := newTestNotifier(t)
	consultationID, patientID, expertID := uuid.New(), uuid.New(), uuid.New()

	notifier.ConsultationAssigned(consultationID, patientID, expertID)

	if len(hub.calls) != 2 {
		t.Fatalf("hub calls: want=2 got=%d", len(hub.calls))
	}
	if hub.calls[0].kind != "roles" {
		t.Fatalf("first delivery kind: want=roles got=%s", hub.calls[0].kind)
	}
	if hub.calls[1].kind != "send_to" || hub.calls[1].userID != patientID {
		t.Fatalf("second delivery: want=send_to patient got=%s %s", hub.calls[1].kind, hub.calls[1].userID)
	}
	event := decodeEvent(t, hub.calls[0].payload)
	if event.OldStatus != string(types.StatusPending) || event.NewStatus != string(types.StatusInReview) {
		t.Fatalf("status fields: got=%+v", event)
	}
}

func TestCompletedBroadcastsToAll(t *testing.T) {
	notifier, hub := newTestNotifier(t)

	notifier.ConsultationCompleted(uuid.New(), uuid.New(), uuid.New())

	if len(hub.calls) != 1 || hub.calls[0].kind != "all" {
		t.Fatalf("completed delivery: want=one broadcast to all got=%+v", hub.calls)
	}
	event := decodeEvent(t, hub.calls[0].payload)
	if event.EventType != types.EventConsultationCompleted {
		t.Fatalf("event type: want=%s got=%s", types.EventConsultationCompleted, event.EventType)
	}
}

func TestStatusChangedBroadcastsToAll(t *testing.T) {
	notifier, hub := newTestNotifier(t)

	notifier.ConsultationStatusChanged(uuid.New(), uuid.New(), uuid.New(), types.StatusPending, types.StatusInReview)

	if len(hub.calls) != 1 || hub.calls[0].kind != "all" {
		t.Fatalf("status change delivery: want=one broadcast to all got=%+v", hub.calls)
	}
	event := decodeEvent(t, hub.calls[0].payload)
	if event.EventType != types.EventConsultationStatusChanged {
		t.Fatalf("event type: want=%s got=%s", types.EventConsultationStatusChanged, event.EventType)
	}
}

// A status change landing on COMPLETED must be redirected through the
// completed policy so clients see exactly one message.
func TestStatusChangedToCompletedRedirects(t *testing.T) {
	notifier, hub := newTestNotifier(t)

	notifier.ConsultationStatusChanged(uuid.New(), uuid.New(), uuid.New(), types.StatusInReview, types.StatusCompleted)

	if len(hub.calls) != 1 || hub.calls[0].kind != "all" {
		t.Fatalf("redirected delivery: want=one broadcast to all got=%+v", hub.calls)
	}
	event := decodeEvent(t, hub.calls[0].payload)
	if event.EventType != types.EventConsultationCompleted {
		t.Fatalf("event type: want=%s got=%s", types.EventConsultationCompleted, event.EventType)
	}
}

func TestDeletedBroadcastsToAll(t *testing.T) {
	notifier, hub := newTestNotifier(t)

	notifier.ConsultationDeleted(uuid.New(), uuid.New())

	if len(hub.calls) != 1 || hub.calls[0].kind != "all" {
		t.Fatalf("deleted delivery: want=one broadcast to all got=%+v", hub.calls)
	}
	event := decodeEvent(t, hub.calls[0].payload)
	if event.EventType != types.EventConsultationDeleted {
		t.Fatalf("event type: want=%s got=%s", types.EventConsultationDeleted, event.EventType)
	}
}
