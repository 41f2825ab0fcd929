package presence

// IsOnlineRequest is the request for the is-online service.
type IsOnlineRequest struct {
	UserID string `json:"user_id"`
}

// IsOnlineResponse is the response for the is-online service.
type IsOnlineResponse struct {
	UserID string `json:"user_id"`
	Online bool   `json:"online"`
}
