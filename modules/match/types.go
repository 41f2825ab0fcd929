package match

import "github.com/aman-wadhwa/FocusSphere/domain/study"

// FindCandidatesRequest asks for ranked partner candidates.
type FindCandidatesRequest struct {
	UserID string `json:"user_id"`
	Goal   string `json:"goal"`
	Limit  int    `json:"limit"`
}

// FindCandidatesResponse carries the ranked candidates, best first.
type FindCandidatesResponse struct {
	Candidates []study.Candidate `json:"candidates"`
}
