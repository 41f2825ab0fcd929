package gateway

import (
	"time"

	"github.com/aman-wadhwa/FocusSphere/domain/study"
)

// RegisterPayload is the first frame every connection must send.
type RegisterPayload struct {
	Token     string `json:"token"`
	StudyGoal string `json:"study_goal,omitempty"`
}

// RegistrationConfirmed acknowledges a successful registration. When the
// user reconnects into a still-active session it is carried along so the
// client can restore its room view without an extra round trip.
type RegistrationConfirmed struct {
	UserID        string         `json:"user_id"`
	DisplayName   string         `json:"display_name"`
	ActiveSession *study.Session `json:"active_session,omitempty"`
}

// InvitePayload asks to invite another user.
type InvitePayload struct {
	InviteeID string `json:"invitee_id"`
}

// InvitationIssued acknowledges a pending invitation to the inviter.
type InvitationIssued struct {
	InvitationID string    `json:"invitation_id"`
	InviteeID    string    `json:"invitee_id"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// InviteResolvePayload accepts or declines an invitation, addressed by the
// inviter since a user holds at most one pending invitation.
type InviteResolvePayload struct {
	InviterID string `json:"inviter_id"`
}

// RoomPayload addresses a room for join and leave.
type RoomPayload struct {
	RoomID string `json:"room_id"`
}

// TimerPayload carries a timer action and the sender's local state view.
// RoomID may be omitted when the sender has exactly one active session.
type TimerPayload struct {
	RoomID string           `json:"room_id,omitempty"`
	Action string           `json:"action"`
	State  study.TimerState `json:"state"`
}

// MessagePayload carries an outbound chat message.
type MessagePayload struct {
	RoomID  string `json:"room_id,omitempty"`
	Content string `json:"content"`
}

// ErrorResponse is the REST error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// TokenRequest mints a development credential.
type TokenRequest struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// TokenResponse carries the minted credential.
type TokenResponse struct {
	Token string `json:"token"`
}
