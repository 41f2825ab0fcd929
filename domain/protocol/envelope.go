package protocol

import "encoding/json"

// Inbound event types.
const (
	TypeRegisterConnection = "register_connection"
	TypeIssueInvitation    = "issue_invitation"
	TypeAcceptInvitation   = "accept_invitation"
	TypeDeclineInvitation  = "decline_invitation"
	TypeJoinRoom           = "join_room"
	TypeLeaveRoom          = "leave_room"
	TypeTimerAction        = "timer_action"
	TypeSendMessage        = "send_message"
)

// Outbound event types.
const (
	TypeRegistrationConfirmed = "registration_confirmed"
	TypeRegistrationFailed    = "registration_failed"
	TypeInvitationIssued      = "invitation_issued"
	TypeInviteReceived        = "invite_received"
	TypeInviteDeclined        = "invite_declined"
	TypeInviteExpired         = "invite_expired"
	TypeInviteCancelled       = "invite_cancelled"
	TypeMatchConfirmed        = "match_confirmed"
	TypePartnerLeft           = "partner_left"
	TypePartnerOffline        = "partner_offline"
	TypeTimerUpdate           = "timer_update"
	TypeReceiveMessage        = "receive_message"
	TypeSessionEnded          = "session_ended"
	TypeError                 = "error"
)

// Envelope is the wire frame exchanged over a connection. Every inbound
// frame is self-contained; the transport carries no per-frame state.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   *ErrorBody      `json:"error,omitempty"`
}

// ErrorBody is the structured error attached to an error envelope.
type ErrorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// NewEnvelope marshals payload into an envelope of the given type.
func NewEnvelope(msgType string, payload any) (Envelope, error) {
	if payload == nil {
		return Envelope{Type: msgType}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: msgType, Payload: data}, nil
}

// ErrorEnvelope builds an error envelope from a kind and message.
func ErrorEnvelope(kind, message string) Envelope {
	return Envelope{
		Type:  TypeError,
		Error: &ErrorBody{Kind: kind, Message: message},
	}
}
