package timer

import (
	"errors"
	"fmt"
	"time"

	"github.com/aman-wadhwa/FocusSphere/domain/study"
	"github.com/aman-wadhwa/FocusSphere/events"
)

// Timer actions accepted from clients. Last writer wins: whichever
// participant acted most recently sets the authoritative state for the room.
const (
	ActionStart   = "start"
	ActionPause   = "pause"
	ActionReset   = "reset"
	ActionSkip    = "skip"
	ActionSetMode = "set_mode"
)

var (
	// ErrInvalidAction is returned for an unknown action verb.
	ErrInvalidAction = errors.New("unknown timer action")
	// ErrInvalidMode is returned when the requested mode is not a known one.
	ErrInvalidMode = errors.New("unknown timer mode")
)

// SessionStore is the slice of the session manager the relay needs.
type SessionStore interface {
	TimerState(roomID string) (study.TimerState, error)
	ApplyTimer(roomID string, state study.TimerState) error
	IncrementPomodoro(roomID string) (int, error)
}

// Notifier receives the authoritative post-action state for room fan-out.
type Notifier interface {
	TimerUpdated(events.TimerUpdatedEvent)
}

// Synchronizer relays timer actions between the two participants of a room.
// The server never ticks the countdown itself; clients tick locally and the
// relay only normalizes and re-broadcasts state transitions.
type Synchronizer struct {
	sessions SessionStore
	notify   Notifier
}

// NewSynchronizer creates a relay over the given session store.
func NewSynchronizer(sessions SessionStore, notify Notifier) *Synchronizer {
	return &Synchronizer{sessions: sessions, notify: notify}
}

// Apply validates an action against the room's stored state, normalizes the
// resulting state, persists it and notifies the room. The client supplies
// its local view in requested; only the fields the action needs are read.
func (s *Synchronizer) Apply(roomID, senderID, action string, requested study.TimerState) (study.TimerState, error) {
	current, err := s.sessions.TimerState(roomID)
	if err != nil {
		return study.TimerState{}, err
	}

	next, err := normalize(current, action, requested)
	if err != nil {
		return study.TimerState{}, err
	}

	// A set_mode leaving an exhausted focus block is the one place a
	// completed pomodoro can be observed, so the count is bumped here
	// rather than on any client-side claim.
	if action == ActionSetMode && current.Mode == study.ModeFocus && current.RemainingSeconds == 0 {
		if _, err := s.sessions.IncrementPomodoro(roomID); err != nil {
			return study.TimerState{}, fmt.Errorf("failed to record completed pomodoro: %w", err)
		}
	}

	if err := s.sessions.ApplyTimer(roomID, next); err != nil {
		return study.TimerState{}, err
	}

	s.notify.TimerUpdated(events.TimerUpdatedEvent{
		RoomID:    roomID,
		SenderID:  senderID,
		Action:    action,
		State:     next,
		Timestamp: time.Now(),
	})

	return next, nil
}

// normalize computes the authoritative state for an action. Reset and skip
// ignore the client's remaining-seconds claim entirely so both clients land
// on the canonical value regardless of local drift.
func normalize(current study.TimerState, action string, requested study.TimerState) (study.TimerState, error) {
	switch action {
	case ActionStart:
		next := current
		if requested.Mode.Valid() {
			next.Mode = requested.Mode
		}
		if requested.RemainingSeconds > 0 && requested.RemainingSeconds <= study.FullDurationSeconds(next.Mode) {
			next.RemainingSeconds = requested.RemainingSeconds
		}
		next.Running = true
		return next, nil

	case ActionPause:
		next := current
		if requested.RemainingSeconds >= 0 && requested.RemainingSeconds <= study.FullDurationSeconds(next.Mode) {
			next.RemainingSeconds = requested.RemainingSeconds
		}
		next.Running = false
		return next, nil

	case ActionReset:
		return study.TimerState{
			Mode:             current.Mode,
			RemainingSeconds: study.FullDurationSeconds(current.Mode),
			Running:          false,
		}, nil

	case ActionSkip:
		return study.TimerState{
			Mode:             current.Mode,
			RemainingSeconds: 0,
			Running:          false,
		}, nil

	case ActionSetMode:
		if !requested.Mode.Valid() {
			return study.TimerState{}, fmt.Errorf("%w: %q", ErrInvalidMode, requested.Mode)
		}
		return study.TimerState{
			Mode:             requested.Mode,
			RemainingSeconds: study.FullDurationSeconds(requested.Mode),
			Running:          false,
		}, nil

	default:
		return study.TimerState{}, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}
}
