package auth

// ValidateTokenRequest is the request for the validate-token service.
type ValidateTokenRequest struct {
	Token string `json:"token"`
}

// ValidateTokenResponse is the response for the validate-token service.
// Validation failures are reported in-band, not as service errors.
type ValidateTokenResponse struct {
	Valid       bool   `json:"valid"`
	UserID      string `json:"user_id,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Error       string `json:"error,omitempty"`
}

// IssueTokenRequest is the request for the issue-token service.
type IssueTokenRequest struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// IssueTokenResponse is the response for the issue-token service.
type IssueTokenResponse struct {
	Token string `json:"token"`
}
