package ws

import (
	"sync"

	"github.com/google/uuid"

	"github.com/vistascan/vistascan-backend/internal/logger"
	"github.com/vistascan/vistascan-backend/internal/types"
)

// Channel is one client's delivery endpoint. The transport layer owns the
// underlying connection; the hub only pushes payloads through it.
type Channel interface {
	Send(payload []byte) error
}

type registration struct {
	channel Channel
	role    types.UserRole
}

// Hub is the process-wide connection registry. All mutation goes through
// Register/Unregister/SendTo/Broadcast*; the map is never exposed.
type Hub struct {
	mu    sync.RWMutex
	log   *logger.Logger
	conns map[uuid.UUID]*registration
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:   log.With("component", "NotificationHub"),
		conns: make(map[uuid.UUID]*registration),
	}
}

// Register adds a connection for the user. A second registration for the same
// user replaces the first, covering reconnects without a clean disconnect.
func (h *Hub) Register(userID uuid.UUID, role types.UserRole, channel Channel) {
	h.mu.Lock()
	h.conns[userID] = &registration{channel: channel, role: role}
	h.mu.Unlock()
	h.log.Info("Connection registered", "user_id", userID, "role", role)
}

// Unregister removes the user's connection. No-op for unknown ids.
func (h *Hub) Unregister(userID uuid.UUID) {
	h.mu.Lock()
	_, ok := h.conns[userID]
	delete(h.conns, userID)
	h.mu.Unlock()
	if ok {
		h.log.Info("Connection unregistered", "user_id", userID)
	}
}

// UnregisterChannel removes the registration only if it still points at the
// given channel, so a reconnect that raced the removal is not torn down.
func (h *Hub) UnregisterChannel(userID uuid.UUID, channel Channel) {
	h.mu.Lock()
	if reg, ok := h.conns[userID]; ok && reg.channel == channel {
		delete(h.conns, userID)
	}
	h.mu.Unlock()
}

// SendTo delivers to a single user if registered. A delivery failure is
// treated as an implicit disconnect.
func (h *Hub) SendTo(userID uuid.UUID, payload []byte) {
	h.mu.RLock()
	reg, ok := h.conns[userID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	if err := reg.channel.Send(payload); err != nil {
		h.log.Warn("Delivery failed, dropping connection", "user_id", userID, "error", err)
		h.UnregisterChannel(userID, reg.channel)
	}
}

// BroadcastToRoles delivers to every registered connection whose role is in
// the set. Failing targets are dropped independently; the broadcast goes on.
func (h *Hub) BroadcastToRoles(payload []byte, roles []types.UserRole) {
	wanted := make(map[types.UserRole]bool, len(roles))
	for _, r := range roles {
		wanted[r] = true
	}
	for _, t := range h.snapshot() {
		if !wanted[t.role] {
			continue
		}
		h.deliver(t, payload)
	}
}

// BroadcastToAll delivers to every registered connection with the same
// per-target failure isolation as BroadcastToRoles.
func (h *Hub) BroadcastToAll(payload []byte) {
	for _, t := range h.snapshot() {
		h.deliver(t, payload)
	}
}

// ActiveConnections reports the current registry size.
func (h *Hub) ActiveConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

type target struct {
	userID  uuid.UUID
	role    types.UserRole
	channel Channel
}

// snapshot copies the registry under the read lock so delivery happens
// without holding it.
func (h *Hub) snapshot() []target {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]target, 0, len(h.conns))
	for id, reg := range h.conns {
		out = append(out, target{userID: id, role: reg.role, channel: reg.channel})
	}
	return out
}

func (h *Hub) deliver(t target, payload []byte) {
	if err := t.channel.Send(payload); err != nil {
		h.log.Warn("Delivery failed, dropping connection", "user_id", t.userID, "error", err)
		h.UnregisterChannel(t.userID, t.channel)
	}
}
