package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// Module validates the session credentials presented at connection
// registration. Credential issuance and account storage live outside the
// core; the issue-token service exists so the system can be exercised end
// to end.
type Module struct {
	jwtManager *JWTManager
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.ServiceProviderModule = (*Module)(nil)

// NewModule creates a new auth module.
func NewModule() *Module {
	return &Module{
		jwtManager: NewJWTManager(loadJWTConfig()),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "auth"
}

// Start initializes the auth module.
func (m *Module) Start(_ context.Context) error {
	log.Println("[auth] Module started")
	return nil
}

// Stop shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	log.Println("[auth] Module stopped")
	return nil
}

// RegisterServices registers request-reply services in the service container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		"validate-token",
		json.Unmarshal,
		json.Marshal,
		m.handleValidateToken,
	); err != nil {
		return fmt.Errorf("failed to register validate-token service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		"issue-token",
		json.Unmarshal,
		json.Marshal,
		m.handleIssueToken,
	); err != nil {
		return fmt.Errorf("failed to register issue-token service: %w", err)
	}

	log.Println("[auth] Registered services: validate-token, issue-token")
	return nil
}

// handleValidateToken handles credential validation.
func (m *Module) handleValidateToken(_ context.Context, req ValidateTokenRequest, _ *mono.Msg) (ValidateTokenResponse, error) {
	claims, err := m.jwtManager.ValidateToken(req.Token)
	if err != nil {
		errMsg := "invalid token"
		if errors.Is(err, ErrExpiredToken) {
			errMsg = "token expired"
		}
		return ValidateTokenResponse{
			Valid: false,
			Error: errMsg,
		}, nil // Return response, not error, for validation failures
	}

	return ValidateTokenResponse{
		Valid:       true,
		UserID:      claims.UserID,
		DisplayName: claims.DisplayName,
	}, nil
}

// handleIssueToken mints a credential for a known identity.
func (m *Module) handleIssueToken(_ context.Context, req IssueTokenRequest, _ *mono.Msg) (IssueTokenResponse, error) {
	if req.UserID == "" {
		return IssueTokenResponse{}, fmt.Errorf("user_id is required")
	}

	token, err := m.jwtManager.GenerateToken(req.UserID, req.DisplayName)
	if err != nil {
		return IssueTokenResponse{}, fmt.Errorf("failed to generate token: %w", err)
	}

	return IssueTokenResponse{Token: token}, nil
}

// loadJWTConfig loads JWT configuration from environment variables.
func loadJWTConfig() JWTConfig {
	config := DefaultJWTConfig()

	if secret := os.Getenv("FOCUSSPHERE_JWT_SECRET"); secret != "" {
		config.SecretKey = secret
	}
	if issuer := os.Getenv("FOCUSSPHERE_JWT_ISSUER"); issuer != "" {
		config.Issuer = issuer
	}

	return config
}
