package stats

import "time"

// SessionRecord is the persisted outcome of one ended study session.
// SessionID is the primary key so a redelivered end event inserts nothing.
type SessionRecord struct {
	SessionID     string    `gorm:"primaryKey" json:"session_id"`
	RoomID        string    `json:"room_id"`
	ParticipantA  string    `gorm:"index" json:"participant_a"`
	ParticipantB  string    `gorm:"index" json:"participant_b"`
	StartedAt     time.Time `json:"started_at"`
	EndedAt       time.Time `json:"ended_at"`
	PomodoroCount int       `json:"pomodoro_count"`
}

// UserTotals summarises a user's accumulated study history.
type UserTotals struct {
	UserID       string `json:"user_id"`
	Sessions     int64  `json:"sessions"`
	Pomodoros    int64  `json:"pomodoros"`
	TotalSeconds int64  `json:"total_seconds"`
}
