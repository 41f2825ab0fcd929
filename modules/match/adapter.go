package match

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/aman-wadhwa/FocusSphere/domain/study"
)

// MatchPort defines the candidate lookup interface for other modules.
type MatchPort interface {
	FindCandidates(ctx context.Context, userID, goal string, limit int) ([]study.Candidate, error)
}

// MatchAdapter implements MatchPort using the service container.
type MatchAdapter struct {
	container mono.ServiceContainer
}

// NewMatchAdapter creates a new MatchAdapter.
func NewMatchAdapter(container mono.ServiceContainer) MatchPort {
	if container == nil {
		panic("match: ServiceContainer is nil")
	}
	return &MatchAdapter{container: container}
}

// FindCandidates returns ranked candidates for a user.
func (a *MatchAdapter) FindCandidates(ctx context.Context, userID, goal string, limit int) ([]study.Candidate, error) {
	req := FindCandidatesRequest{UserID: userID, Goal: goal, Limit: limit}
	var resp FindCandidatesResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"find-candidates",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to find candidates: %w", err)
	}
	return resp.Candidates, nil
}
