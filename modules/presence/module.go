package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// Module exposes the presence registry to the rest of the application and
// serves the is-online query used outside the core protocol path.
type Module struct {
	registry *Registry
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.ServiceProviderModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new presence module.
func NewModule() *Module {
	return &Module{
		registry: NewRegistry(),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "presence"
}

// Start initializes the presence module.
func (m *Module) Start(_ context.Context) error {
	log.Println("[presence] Module started")
	return nil
}

// Stop shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	log.Printf("[presence] Module stopped - %d users were online", m.registry.Count())
	return nil
}

// Health returns the health status of the module.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"online_users": m.registry.Count(),
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		"is-online",
		json.Unmarshal,
		json.Marshal,
		m.handleIsOnline,
	); err != nil {
		return fmt.Errorf("failed to register is-online service: %w", err)
	}

	log.Println("[presence] Registered services: is-online")
	return nil
}

// handleIsOnline answers the presence query backed by the registry.
func (m *Module) handleIsOnline(_ context.Context, req IsOnlineRequest, _ *mono.Msg) (IsOnlineResponse, error) {
	return IsOnlineResponse{
		UserID: req.UserID,
		Online: m.registry.IsOnline(req.UserID),
	}, nil
}

// Registry returns the underlying registry for direct wiring by the gateway.
func (m *Module) Registry() *Registry {
	return m.registry
}
