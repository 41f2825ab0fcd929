package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/aman-wadhwa/FocusSphere/events"
)

// Module wraps the session manager, publishes its lifecycle events and
// serves the partner/session lookup services.
type Module struct {
	manager  *Manager
	eventBus mono.EventBus
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ Notifier                   = (*Module)(nil)
)

// NewModule creates a new session module.
func NewModule(presence PresenceChecker) *Module {
	m := &Module{}
	m.manager = NewManager(m, presence)
	return m
}

// Name returns the module name.
func (m *Module) Name() string {
	return "session"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.PartnerLeftV1.ToBase(),
		events.PartnerOfflineV1.ToBase(),
		events.SessionEndedV1.ToBase(),
	}
}

// Start initializes the session module.
func (m *Module) Start(_ context.Context) error {
	log.Println("[session] Module started")
	return nil
}

// Stop shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	log.Println("[session] Module stopped")
	return nil
}

// RegisterServices registers request-reply services in the service container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		"get-partner",
		json.Unmarshal,
		json.Marshal,
		m.handleGetPartner,
	); err != nil {
		return fmt.Errorf("failed to register get-partner service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		"get-session",
		json.Unmarshal,
		json.Marshal,
		m.handleGetSession,
	); err != nil {
		return fmt.Errorf("failed to register get-session service: %w", err)
	}

	log.Println("[session] Registered services: get-partner, get-session")
	return nil
}

// handleGetPartner serves the partner lookup. Not-found is reported in-band
// so callers can distinguish "retry with backoff" from transport failures.
func (m *Module) handleGetPartner(_ context.Context, req GetPartnerRequest, _ *mono.Msg) (GetPartnerResponse, error) {
	partner, err := m.manager.GetPartner(req.RoomID, req.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotParticipant) {
			return GetPartnerResponse{Found: false}, nil
		}
		return GetPartnerResponse{}, err
	}
	return GetPartnerResponse{Found: true, Partner: partner}, nil
}

// handleGetSession serves session lookups.
func (m *Module) handleGetSession(_ context.Context, req GetSessionRequest, _ *mono.Msg) (GetSessionResponse, error) {
	s, err := m.manager.Get(req.SessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return GetSessionResponse{Found: false}, nil
		}
		return GetSessionResponse{}, err
	}
	return GetSessionResponse{Found: true, Session: s}, nil
}

// Manager returns the session manager for direct wiring.
func (m *Module) Manager() *Manager {
	return m.manager
}

// PartnerLeft publishes a partner-left notification.
func (m *Module) PartnerLeft(event events.PartnerLeftEvent) {
	m.publish("PartnerLeft", func() error {
		return events.PartnerLeftV1.Publish(m.eventBus, event, nil)
	})
}

// PartnerOffline publishes a partner-offline notification.
func (m *Module) PartnerOffline(event events.PartnerOfflineEvent) {
	m.publish("PartnerOffline", func() error {
		return events.PartnerOfflineV1.Publish(m.eventBus, event, nil)
	})
}

// SessionEnded publishes the end-of-session record for the stats sink and
// the room broadcast.
func (m *Module) SessionEnded(event events.SessionEndedEvent) {
	m.publish("SessionEnded", func() error {
		return events.SessionEndedV1.Publish(m.eventBus, event, nil)
	})
}

func (m *Module) publish(name string, fn func() error) {
	if m.eventBus == nil {
		log.Printf("[session] Dropping %s event: bus not ready", name)
		return
	}
	if err := fn(); err != nil {
		log.Printf("[session] Failed to publish %s event: %v", name, err)
	}
}
