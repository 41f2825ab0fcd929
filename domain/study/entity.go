package study

import "time"

// SessionStatus is the lifecycle state of a study session.
type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionEnded  SessionStatus = "ended"
)

// TimerMode is one of the pomodoro timer modes.
type TimerMode string

const (
	ModeFocus      TimerMode = "focus"
	ModeShortBreak TimerMode = "short_break"
	ModeLongBreak  TimerMode = "long_break"
)

// Canonical full durations per mode, in seconds.
const (
	FocusDurationSeconds      = 25 * 60
	ShortBreakDurationSeconds = 5 * 60
	LongBreakDurationSeconds  = 15 * 60
)

// Valid reports whether m is a known timer mode.
func (m TimerMode) Valid() bool {
	switch m {
	case ModeFocus, ModeShortBreak, ModeLongBreak:
		return true
	}
	return false
}

// FullDurationSeconds returns the canonical full duration for a mode.
// A reset must always carry this value so both clients land on 0% elapsed.
func FullDurationSeconds(mode TimerMode) int {
	switch mode {
	case ModeShortBreak:
		return ShortBreakDurationSeconds
	case ModeLongBreak:
		return LongBreakDurationSeconds
	default:
		return FocusDurationSeconds
	}
}

// TimerState is the authoritative timer snapshot owned by a session.
// It is relayed verbatim between participants; the server never ticks it.
type TimerState struct {
	Mode             TimerMode `json:"mode"`
	RemainingSeconds int       `json:"remaining_seconds"`
	Running          bool      `json:"running"`
}

// Session represents one active paired study room.
type Session struct {
	ID            string        `json:"id"`
	RoomID        string        `json:"room_id"`
	Participants  []string      `json:"participants"`
	StartedAt     time.Time     `json:"started_at"`
	EndedAt       *time.Time    `json:"ended_at,omitempty"`
	PomodoroCount int           `json:"pomodoro_count"`
	Status        SessionStatus `json:"status"`
	Timer         TimerState    `json:"timer"`
}

// ChatMessage is immutable once created. The ID is server-assigned and
// stable so clients can collapse optimistic inserts with the server echo.
type ChatMessage struct {
	ID         string    `json:"id"`
	RoomID     string    `json:"room_id"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// Candidate is a ranked match produced by the matching collaborator.
// Score and justification are opaque to the invitation flow.
type Candidate struct {
	UserID        string  `json:"user_id"`
	Score         float64 `json:"score"`
	Justification string  `json:"justification"`
}
