package stats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// StatsPort defines the stats query interface for other modules.
type StatsPort interface {
	UserStats(ctx context.Context, userID string, recentLimit int) (*UserStatsResponse, error)
}

// StatsAdapter implements StatsPort using the service container.
type StatsAdapter struct {
	container mono.ServiceContainer
}

// NewStatsAdapter creates a new StatsAdapter.
func NewStatsAdapter(container mono.ServiceContainer) StatsPort {
	if container == nil {
		panic("stats: ServiceContainer is nil")
	}
	return &StatsAdapter{container: container}
}

// UserStats returns a user's totals and recent sessions.
func (a *StatsAdapter) UserStats(ctx context.Context, userID string, recentLimit int) (*UserStatsResponse, error) {
	req := UserStatsRequest{UserID: userID, RecentLimit: recentLimit}
	var resp UserStatsResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"user-stats",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to get user stats: %w", err)
	}
	return &resp, nil
}
