package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/aman-wadhwa/FocusSphere/domain/study"
)

// SessionPort defines the session lookup interface for other modules.
type SessionPort interface {
	GetPartner(ctx context.Context, roomID, userID string) (Partner, error)
	GetSession(ctx context.Context, sessionID string) (study.Session, error)
}

// SessionAdapter implements SessionPort using the service container.
type SessionAdapter struct {
	container mono.ServiceContainer
}

// NewSessionAdapter creates a new SessionAdapter.
func NewSessionAdapter(container mono.ServiceContainer) SessionPort {
	if container == nil {
		panic("session: ServiceContainer is nil")
	}
	return &SessionAdapter{container: container}
}

// GetPartner looks up the other participant of a room. Returns ErrNotFound
// while the session is not yet queryable; callers retry with backoff.
func (a *SessionAdapter) GetPartner(ctx context.Context, roomID, userID string) (Partner, error) {
	req := GetPartnerRequest{RoomID: roomID, UserID: userID}
	var resp GetPartnerResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"get-partner",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return Partner{}, fmt.Errorf("failed to get partner: %w", err)
	}
	if !resp.Found {
		return Partner{}, ErrNotFound
	}
	return resp.Partner, nil
}

// GetSession looks up a session by id.
func (a *SessionAdapter) GetSession(ctx context.Context, sessionID string) (study.Session, error) {
	req := GetSessionRequest{SessionID: sessionID}
	var resp GetSessionResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"get-session",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return study.Session{}, fmt.Errorf("failed to get session: %w", err)
	}
	if !resp.Found {
		return study.Session{}, ErrNotFound
	}
	return resp.Session, nil
}
