package chat

import (
	"sync"

	"github.com/aman-wadhwa/FocusSphere/domain/study"
)

// defaultMaxHistory is the per-room message cap.
const defaultMaxHistory = 100

// HistoryStore keeps a bounded per-room message log. Appends are
// idempotent on message ID: the store feeds from the event bus, and a
// redelivered event must not duplicate a message.
type HistoryStore struct {
	mu         sync.RWMutex
	messages   map[string][]study.ChatMessage // roomID -> ordered messages
	seen       map[string]map[string]bool     // roomID -> message ID set
	maxHistory int
}

// NewHistoryStore creates a history store with the given per-room cap.
func NewHistoryStore(maxHistory int) *HistoryStore {
	if maxHistory <= 0 {
		maxHistory = defaultMaxHistory
	}
	return &HistoryStore{
		messages:   make(map[string][]study.ChatMessage),
		seen:       make(map[string]map[string]bool),
		maxHistory: maxHistory,
	}
}

// Add appends a message to its room's history, trimming to the cap.
// A message ID already present in the room is ignored.
func (s *HistoryStore) Add(msg study.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.seen[msg.RoomID]
	if ids == nil {
		ids = make(map[string]bool)
		s.seen[msg.RoomID] = ids
	}
	if ids[msg.ID] {
		return
	}
	ids[msg.ID] = true

	messages := append(s.messages[msg.RoomID], msg)
	if len(messages) > s.maxHistory {
		for _, dropped := range messages[:len(messages)-s.maxHistory] {
			delete(ids, dropped.ID)
		}
		messages = messages[len(messages)-s.maxHistory:]
	}
	s.messages[msg.RoomID] = messages
}

// Recent returns the last limit messages of a room, oldest first.
// limit <= 0 means everything retained.
func (s *HistoryStore) Recent(roomID string, limit int) []study.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages := s.messages[roomID]
	if limit <= 0 || limit > len(messages) {
		limit = len(messages)
	}

	start := len(messages) - limit
	result := make([]study.ChatMessage, limit)
	copy(result, messages[start:])
	return result
}

// ClearRoom drops a room's history once its session ends.
func (s *HistoryStore) ClearRoom(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.messages, roomID)
	delete(s.seen, roomID)
}

// RoomCount returns the number of rooms with retained history.
func (s *HistoryStore) RoomCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}
