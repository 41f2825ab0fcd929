package session

import "github.com/aman-wadhwa/FocusSphere/domain/study"

// Partner describes the other participant of a room.
type Partner struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	Online    bool   `json:"online"`
}

// GetPartnerRequest is the request for the get-partner service.
type GetPartnerRequest struct {
	RoomID string `json:"room_id"`
	UserID string `json:"user_id"`
}

// GetPartnerResponse is the response for the get-partner service.
type GetPartnerResponse struct {
	Found   bool    `json:"found"`
	Partner Partner `json:"partner,omitempty"`
}

// GetSessionRequest is the request for the get-session service.
type GetSessionRequest struct {
	SessionID string `json:"session_id"`
}

// GetSessionResponse is the response for the get-session service.
type GetSessionResponse struct {
	Found   bool          `json:"found"`
	Session study.Session `json:"session,omitempty"`
}
