package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aman-wadhwa/FocusSphere/domain/study"
	"github.com/aman-wadhwa/FocusSphere/events"
)

var (
	// ErrNotFound is returned for unknown sessions or rooms. Callers polling
	// right after match confirmation should retry with backoff; partner
	// visibility is eventually consistent, not read-after-write.
	ErrNotFound = errors.New("session not found")
	// ErrNotParticipant is returned when a user acts on a room they are not
	// a member of.
	ErrNotParticipant = errors.New("user is not a session participant")
	// ErrRoomConflict indicates a corrupted invariant: two sessions claiming
	// the same room id. Processing for that room halts.
	ErrRoomConflict = errors.New("room id already claimed by another session")
)

// Notifier receives session lifecycle notifications. The module implements
// it by publishing events on the bus; tests substitute a recorder.
type Notifier interface {
	PartnerLeft(events.PartnerLeftEvent)
	PartnerOffline(events.PartnerOfflineEvent)
	SessionEnded(events.SessionEndedEvent)
}

// PresenceChecker answers whether a user currently has a live connection.
type PresenceChecker interface {
	IsOnline(userID string) bool
}

// sessionState pairs a session with its own lock; membership mutation is
// serialized per session, not globally.
type sessionState struct {
	mu      sync.Mutex
	s       study.Session
	members map[string]bool // users currently joined to the room
}

// Manager owns the session lifecycle: created -> active -> ended.
type Manager struct {
	mu       sync.Mutex
	byID     map[string]*sessionState
	byRoom   map[string]string // roomID -> sessionID
	byUser   map[string]string // userID -> active sessionID
	notify   Notifier
	presence PresenceChecker
}

// NewManager creates a session manager.
func NewManager(notify Notifier, presence PresenceChecker) *Manager {
	return &Manager{
		byID:     make(map[string]*sessionState),
		byRoom:   make(map[string]string),
		byUser:   make(map[string]string),
		notify:   notify,
		presence: presence,
	}
}

// Create starts a session for two participants. Only the invitation
// coordinator calls this, on the Accepted transition. The room id is minted
// here and propagated to both sides in the same match-confirmed event.
func (m *Manager) Create(participantA, participantB string) (study.Session, error) {
	s := study.Session{
		ID:           uuid.New().String(),
		RoomID:       uuid.New().String()[:8],
		Participants: []string{participantA, participantB},
		StartedAt:    time.Now(),
		Status:       study.SessionActive,
		Timer: study.TimerState{
			Mode:             study.ModeFocus,
			RemainingSeconds: study.FocusDurationSeconds,
			Running:          false,
		},
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.byRoom[s.RoomID]; taken {
		return study.Session{}, fmt.Errorf("create session: %w", ErrRoomConflict)
	}

	st := &sessionState{
		s: s,
		members: map[string]bool{
			participantA: true,
			participantB: true,
		},
	}
	m.byID[s.ID] = st
	m.byRoom[s.RoomID] = s.ID
	m.byUser[participantA] = s.ID
	m.byUser[participantB] = s.ID

	return snapshot(st), nil
}

// Get returns a copy of the session.
func (m *Manager) Get(sessionID string) (study.Session, error) {
	st, err := m.stateByID(sessionID)
	if err != nil {
		return study.Session{}, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return snapshot(st), nil
}

// GetByRoom returns a copy of the session owning a room.
func (m *Manager) GetByRoom(roomID string) (study.Session, error) {
	st, err := m.stateByRoom(roomID)
	if err != nil {
		return study.Session{}, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return snapshot(st), nil
}

// GetPartner returns the other participant of a room. Callers may see
// ErrNotFound briefly after match confirmation and should retry.
func (m *Manager) GetPartner(roomID, userID string) (Partner, error) {
	st, err := m.stateByRoom(roomID)
	if err != nil {
		return Partner{}, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	for _, p := range st.s.Participants {
		if p != userID {
			return Partner{UserID: p, SessionID: st.s.ID, Online: st.members[p]}, nil
		}
	}
	return Partner{}, ErrNotParticipant
}

// Join marks a participant as present in the room. Re-joining after a
// reconnect is idempotent.
func (m *Manager) Join(roomID, userID string) (study.Session, error) {
	st, err := m.stateByRoom(roomID)
	if err != nil {
		return study.Session{}, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if !isParticipant(&st.s, userID) {
		return study.Session{}, ErrNotParticipant
	}
	st.members[userID] = true
	return snapshot(st), nil
}

// Leave removes a participant from the room. An explicit leave ends the
// session: the remaining partner is notified first so their client can
// surface "partner left" instead of hanging.
func (m *Manager) Leave(roomID, userID string) error {
	st, err := m.stateByRoom(roomID)
	if err != nil {
		return err
	}

	st.mu.Lock()
	if !isParticipant(&st.s, userID) {
		st.mu.Unlock()
		return ErrNotParticipant
	}
	delete(st.members, userID)
	partner := otherParticipant(&st.s, userID)
	partnerPresent := st.members[partner]
	roomID = st.s.RoomID
	sessionID := st.s.ID
	st.mu.Unlock()

	if partner != "" && partnerPresent {
		m.notify.PartnerLeft(events.PartnerLeftEvent{
			RoomID:        roomID,
			SessionID:     sessionID,
			LeftUserID:    userID,
			PartnerUserID: partner,
		})
	}

	return m.End(sessionID, -1)
}

// End finishes a session and records the pomodoro count. Idempotent: a
// second End for an already-Ended session is a no-op success, because
// disconnect cleanup and explicit leave can race. A negative count keeps
// whatever the timer bookkeeping accumulated.
func (m *Manager) End(sessionID string, pomodoroCount int) error {
	st, err := m.stateByID(sessionID)
	if err != nil {
		return err
	}

	st.mu.Lock()
	if st.s.Status == study.SessionEnded {
		st.mu.Unlock()
		return nil
	}
	now := time.Now()
	st.s.EndedAt = &now
	st.s.Status = study.SessionEnded
	if pomodoroCount >= 0 {
		st.s.PomodoroCount = pomodoroCount
	}
	ended := events.SessionEndedEvent{
		SessionID:     st.s.ID,
		RoomID:        st.s.RoomID,
		Participants:  append([]string(nil), st.s.Participants...),
		StartedAt:     st.s.StartedAt,
		EndedAt:       now,
		PomodoroCount: st.s.PomodoroCount,
	}
	st.mu.Unlock()

	m.mu.Lock()
	if m.byRoom[ended.RoomID] == sessionID {
		delete(m.byRoom, ended.RoomID)
	}
	for _, p := range ended.Participants {
		if m.byUser[p] == sessionID {
			delete(m.byUser, p)
		}
	}
	m.mu.Unlock()

	m.notify.SessionEnded(ended)
	return nil
}

// HandleDisconnect reacts to a bare connection drop. The session stays
// active and the partner is only marked offline; it ends when both sides
// are gone or on an explicit leave.
func (m *Manager) HandleDisconnect(userID string) {
	m.mu.Lock()
	sessionID, ok := m.byUser[userID]
	m.mu.Unlock()
	if !ok {
		return
	}

	st, err := m.stateByID(sessionID)
	if err != nil {
		return
	}

	st.mu.Lock()
	delete(st.members, userID)
	partner := otherParticipant(&st.s, userID)
	roomID := st.s.RoomID
	bothGone := len(st.members) == 0
	st.mu.Unlock()

	if !bothGone && partner != "" && m.presence != nil && m.presence.IsOnline(partner) {
		m.notify.PartnerOffline(events.PartnerOfflineEvent{
			RoomID:        roomID,
			SessionID:     sessionID,
			OfflineUserID: userID,
			PartnerUserID: partner,
		})
		return
	}

	_ = m.End(sessionID, -1)
}

// ActiveSessionFor returns the user's current active session, if any.
func (m *Manager) ActiveSessionFor(userID string) (study.Session, bool) {
	m.mu.Lock()
	sessionID, ok := m.byUser[userID]
	m.mu.Unlock()
	if !ok {
		return study.Session{}, false
	}
	s, err := m.Get(sessionID)
	if err != nil {
		return study.Session{}, false
	}
	return s, true
}

// Members returns the users currently joined to a room.
func (m *Manager) Members(roomID string) ([]string, error) {
	st, err := m.stateByRoom(roomID)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	members := make([]string, 0, len(st.members))
	for userID := range st.members {
		members = append(members, userID)
	}
	return members, nil
}

// TimerState returns the authoritative timer state for a room.
func (m *Manager) TimerState(roomID string) (study.TimerState, error) {
	st, err := m.stateByRoom(roomID)
	if err != nil {
		return study.TimerState{}, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.s.Timer, nil
}

// ApplyTimer stores the relayed timer state on the session.
func (m *Manager) ApplyTimer(roomID string, state study.TimerState) error {
	st, err := m.stateByRoom(roomID)
	if err != nil {
		return err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.Timer = state
	return nil
}

// IncrementPomodoro bumps the session's finished-focus counter.
func (m *Manager) IncrementPomodoro(roomID string) (int, error) {
	st, err := m.stateByRoom(roomID)
	if err != nil {
		return 0, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.PomodoroCount++
	return st.s.PomodoroCount, nil
}

func (m *Manager) stateByID(sessionID string) (*sessionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.byID[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return st, nil
}

func (m *Manager) stateByRoom(roomID string) (*sessionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sessionID, ok := m.byRoom[roomID]
	if !ok {
		return nil, ErrNotFound
	}
	st, ok := m.byID[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return st, nil
}

func snapshot(st *sessionState) study.Session {
	s := st.s
	s.Participants = append([]string(nil), st.s.Participants...)
	return s
}

func isParticipant(s *study.Session, userID string) bool {
	for _, p := range s.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

func otherParticipant(s *study.Session, userID string) string {
	for _, p := range s.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}
