package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"

	"github.com/aman-wadhwa/FocusSphere/domain/study"
)

// InviteReceivedEvent is emitted when an invitation is issued; delivered to
// the invitee's connection.
type InviteReceivedEvent struct {
	InvitationID string    `json:"invitation_id"`
	InviterID    string    `json:"inviter_id"`
	InviterName  string    `json:"inviter_name"`
	StudyGoal    string    `json:"study_goal"`
	InviteeID    string    `json:"invitee_id"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// InviteResolvedEvent carries a terminal invitation transition. The same
// shape serves declined, expired and cancelled notifications; the event
// name distinguishes them.
type InviteResolvedEvent struct {
	InvitationID string `json:"invitation_id"`
	InviterID    string `json:"inviter_id"`
	InviteeID    string `json:"invitee_id"`
}

// MatchConfirmedEvent is emitted when an invitation resolves to Accepted.
// Both parties receive the identical room and session identifiers.
type MatchConfirmedEvent struct {
	RoomID    string    `json:"room_id"`
	SessionID string    `json:"session_id"`
	InviterID string    `json:"inviter_id"`
	InviteeID string    `json:"invitee_id"`
	Timestamp time.Time `json:"timestamp"`
}

// PartnerLeftEvent is emitted when a participant explicitly leaves a room.
type PartnerLeftEvent struct {
	RoomID        string `json:"room_id"`
	SessionID     string `json:"session_id"`
	LeftUserID    string `json:"left_user_id"`
	PartnerUserID string `json:"partner_user_id"`
}

// PartnerOfflineEvent is emitted when a participant's connection drops
// while the session stays active.
type PartnerOfflineEvent struct {
	RoomID        string `json:"room_id"`
	SessionID     string `json:"session_id"`
	OfflineUserID string `json:"offline_user_id"`
	PartnerUserID string `json:"partner_user_id"`
}

// SessionEndedEvent is emitted exactly once per session end; the stats
// module consumes it as the persistence sink.
type SessionEndedEvent struct {
	SessionID     string    `json:"session_id"`
	RoomID        string    `json:"room_id"`
	Participants  []string  `json:"participants"`
	StartedAt     time.Time `json:"started_at"`
	EndedAt       time.Time `json:"ended_at"`
	PomodoroCount int       `json:"pomodoro_count"`
}

// TimerUpdatedEvent carries the authoritative post-action timer state,
// relayed verbatim to the room.
type TimerUpdatedEvent struct {
	RoomID    string           `json:"room_id"`
	SenderID  string           `json:"sender_id"`
	Action    string           `json:"action"`
	State     study.TimerState `json:"state"`
	Timestamp time.Time        `json:"timestamp"`
}

// MessageSentEvent is emitted when a chat message is accepted; the room
// broadcast (sender echo included) and the history store both consume it.
type MessageSentEvent struct {
	Message study.ChatMessage `json:"message"`
}

// Event definitions for the study-session protocol.
var (
	InviteReceivedV1 = helper.EventDefinition[InviteReceivedEvent](
		"invite",
		"InviteReceived",
		"v1",
	)

	InviteDeclinedV1 = helper.EventDefinition[InviteResolvedEvent](
		"invite",
		"InviteDeclined",
		"v1",
	)

	InviteExpiredV1 = helper.EventDefinition[InviteResolvedEvent](
		"invite",
		"InviteExpired",
		"v1",
	)

	InviteCancelledV1 = helper.EventDefinition[InviteResolvedEvent](
		"invite",
		"InviteCancelled",
		"v1",
	)

	MatchConfirmedV1 = helper.EventDefinition[MatchConfirmedEvent](
		"invite",
		"MatchConfirmed",
		"v1",
	)

	PartnerLeftV1 = helper.EventDefinition[PartnerLeftEvent](
		"session",
		"PartnerLeft",
		"v1",
	)

	PartnerOfflineV1 = helper.EventDefinition[PartnerOfflineEvent](
		"session",
		"PartnerOffline",
		"v1",
	)

	SessionEndedV1 = helper.EventDefinition[SessionEndedEvent](
		"session",
		"SessionEnded",
		"v1",
	)

	TimerUpdatedV1 = helper.EventDefinition[TimerUpdatedEvent](
		"timer",
		"TimerUpdated",
		"v1",
	)

	MessageSentV1 = helper.EventDefinition[MessageSentEvent](
		"chat",
		"MessageSent",
		"v1",
	)
)
