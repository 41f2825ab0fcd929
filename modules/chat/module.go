package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/aman-wadhwa/FocusSphere/events"
)

// Module implements the chat relay with EventBus integration. History is
// fed by consuming the module's own MessageSent events, so the retained
// log always matches what was actually fanned out.
type Module struct {
	relay    *Relay
	history  *HistoryStore
	eventBus mono.EventBus
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.EventConsumerModule   = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
	_ Notifier                   = (*Module)(nil)
)

// NewModule creates a new chat module.
func NewModule(members Membership) *Module {
	m := &Module{history: NewHistoryStore(defaultMaxHistory)}
	m.relay = NewRelay(members, m)
	return m
}

// Name returns the module name.
func (m *Module) Name() string {
	return "chat"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.MessageSentV1.ToBase(),
	}
}

// RegisterEventConsumers subscribes history maintenance: accepted messages
// are retained, and a room's log is dropped when its session ends.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry,
		events.MessageSentV1,
		m.handleMessageSent,
		m,
	); err != nil {
		return fmt.Errorf("failed to register MessageSent consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry,
		events.SessionEndedV1,
		m.handleSessionEnded,
		m,
	); err != nil {
		return fmt.Errorf("failed to register SessionEnded consumer: %w", err)
	}

	return nil
}

func (m *Module) handleMessageSent(_ context.Context, event events.MessageSentEvent, _ *mono.Msg) error {
	m.history.Add(event.Message)
	return nil
}

func (m *Module) handleSessionEnded(_ context.Context, event events.SessionEndedEvent, _ *mono.Msg) error {
	m.history.ClearRoom(event.RoomID)
	return nil
}

// RegisterServices exposes the history lookup to other modules.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	return helper.RegisterTypedRequestReplyService(
		container,
		"chat-history",
		json.Unmarshal,
		json.Marshal,
		m.handleGetHistory,
	)
}

func (m *Module) handleGetHistory(_ context.Context, req GetHistoryRequest, _ *mono.Msg) (GetHistoryResponse, error) {
	return GetHistoryResponse{
		Messages: m.history.Recent(req.RoomID, req.Limit),
	}, nil
}

// Start initializes the chat module.
func (m *Module) Start(_ context.Context) error {
	log.Println("[chat] Module started")
	return nil
}

// Stop shuts down the chat module.
func (m *Module) Stop(_ context.Context) error {
	log.Println("[chat] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"rooms_with_history": m.history.RoomCount(),
		},
	}
}

// Relay returns the relay for direct wiring by the gateway.
func (m *Module) Relay() *Relay {
	return m.relay
}

// History returns the history store.
func (m *Module) History() *HistoryStore {
	return m.history
}

// MessageSent publishes an accepted message for fan-out and retention.
func (m *Module) MessageSent(event events.MessageSentEvent) {
	if m.eventBus == nil {
		log.Println("[chat] Dropping MessageSent event: bus not ready")
		return
	}
	if err := events.MessageSentV1.Publish(m.eventBus, event, nil); err != nil {
		log.Printf("[chat] Failed to publish MessageSent event: %v", err)
	}
}
