package presence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// PresencePort defines the presence query interface for other modules.
type PresencePort interface {
	IsOnline(ctx context.Context, userID string) (bool, error)
}

// PresenceAdapter implements PresencePort using the service container.
type PresenceAdapter struct {
	container mono.ServiceContainer
}

// NewPresenceAdapter creates a new PresenceAdapter.
func NewPresenceAdapter(container mono.ServiceContainer) PresencePort {
	if container == nil {
		panic("presence: ServiceContainer is nil")
	}
	return &PresenceAdapter{container: container}
}

// IsOnline reports whether a user currently has a live connection.
func (a *PresenceAdapter) IsOnline(ctx context.Context, userID string) (bool, error) {
	req := IsOnlineRequest{UserID: userID}
	var resp IsOnlineResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"is-online",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return false, fmt.Errorf("failed to query presence: %w", err)
	}
	return resp.Online, nil
}
