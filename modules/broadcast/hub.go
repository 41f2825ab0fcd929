package broadcast

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/aman-wadhwa/FocusSphere/domain/protocol"
	"github.com/aman-wadhwa/FocusSphere/modules/presence"
)

// ErrTargetOffline is returned when a user-targeted frame has no live
// connection to land on.
var ErrTargetOffline = errors.New("target user has no live connection")

// Hub tracks room membership and fans frames out to sockets. It holds no
// connections itself: the presence registry is the single owner of the
// user-to-connection mapping, and the hub resolves handles per delivery so
// a reconnected user receives frames on their newest socket.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[string]bool // roomID -> set of userIDs

	registry *presence.Registry
}

// NewHub creates a hub over the given presence registry.
func NewHub(registry *presence.Registry) *Hub {
	return &Hub{
		rooms:    make(map[string]map[string]bool),
		registry: registry,
	}
}

// JoinRoom adds a user to a room's delivery set.
func (h *Hub) JoinRoom(roomID, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[string]bool)
	}
	h.rooms[roomID][userID] = true
	log.Printf("[hub] User %s joined room %s", userID, roomID)
}

// LeaveRoom removes a user from a room's delivery set.
func (h *Hub) LeaveRoom(roomID, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[roomID] == nil {
		return
	}
	delete(h.rooms[roomID], userID)
	if len(h.rooms[roomID]) == 0 {
		delete(h.rooms, roomID)
	}
	log.Printf("[hub] User %s left room %s", userID, roomID)
}

// ClearRoom drops a room's delivery set entirely.
func (h *Hub) ClearRoom(roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms, roomID)
}

// LeaveAll removes a user from every room. Disconnects do not call this:
// membership survives a dropped connection so an offline member shows up as
// undelivered, and is cleared only on explicit leave or session end.
func (h *Hub) LeaveAll(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for roomID, members := range h.rooms {
		delete(members, userID)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// RoomMembers returns the users in a room's delivery set.
func (h *Hub) RoomMembers(roomID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members := make([]string, 0, len(h.rooms[roomID]))
	for userID := range h.rooms[roomID] {
		members = append(members, userID)
	}
	return members
}

// RoomCount returns the number of rooms with members.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// SendToUser delivers one frame to a user's live connection.
func (h *Hub) SendToUser(userID string, env protocol.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal frame: %w", err)
	}
	return h.sendRaw(userID, data)
}

// BroadcastRoom delivers one frame to every member of a room and reports
// the members it could not reach. Delivery is per-recipient: one dead
// socket never blocks the other participant's copy.
func (h *Hub) BroadcastRoom(roomID string, env protocol.Envelope) ([]string, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal frame: %w", err)
	}

	var undelivered []string
	for _, userID := range h.RoomMembers(roomID) {
		if err := h.sendRaw(userID, data); err != nil {
			undelivered = append(undelivered, userID)
		}
	}
	return undelivered, nil
}

func (h *Hub) sendRaw(userID string, data []byte) error {
	handle, ok := h.registry.Lookup(userID)
	if !ok {
		return ErrTargetOffline
	}
	if err := handle.Send(data); err != nil {
		log.Printf("[hub] Failed to send to user %s: %v", userID, err)
		return fmt.Errorf("%w: write failed", ErrTargetOffline)
	}
	return nil
}
