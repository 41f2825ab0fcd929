package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// Identity is a validated credential identity.
type Identity struct {
	UserID      string
	DisplayName string
}

// AuthPort defines the credential interface consumed by the gateway.
type AuthPort interface {
	ValidateToken(ctx context.Context, token string) (Identity, error)
	IssueToken(ctx context.Context, userID, displayName string) (string, error)
}

// AuthAdapter implements AuthPort using the service container.
type AuthAdapter struct {
	container mono.ServiceContainer
}

// NewAuthAdapter creates a new AuthAdapter.
func NewAuthAdapter(container mono.ServiceContainer) AuthPort {
	if container == nil {
		panic("auth: ServiceContainer is nil")
	}
	return &AuthAdapter{container: container}
}

// ValidateToken validates a session credential.
func (a *AuthAdapter) ValidateToken(ctx context.Context, token string) (Identity, error) {
	req := ValidateTokenRequest{Token: token}
	var resp ValidateTokenResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"validate-token",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return Identity{}, fmt.Errorf("failed to validate token: %w", err)
	}

	if !resp.Valid {
		if resp.Error == "token expired" {
			return Identity{}, ErrExpiredToken
		}
		return Identity{}, ErrInvalidToken
	}

	return Identity{UserID: resp.UserID, DisplayName: resp.DisplayName}, nil
}

// IssueToken mints a session credential.
func (a *AuthAdapter) IssueToken(ctx context.Context, userID, displayName string) (string, error) {
	req := IssueTokenRequest{UserID: userID, DisplayName: displayName}
	var resp IssueTokenResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"issue-token",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	if resp.Token == "" {
		return "", errors.New("issue-token returned an empty token")
	}
	return resp.Token, nil
}
