package invite

import (
	"context"
	"log"

	"github.com/go-monolith/mono"

	"github.com/aman-wadhwa/FocusSphere/events"
)

// Module wraps the coordinator and publishes its lifecycle events.
type Module struct {
	coordinator *Coordinator
	eventBus    mono.EventBus
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
	_ Notifier                   = (*Module)(nil)
)

// NewModule creates a new invitation module.
func NewModule(presence PresenceChecker, sessions SessionCreator) *Module {
	m := &Module{}
	m.coordinator = NewCoordinator(presence, sessions, m)
	return m
}

// Name returns the module name.
func (m *Module) Name() string {
	return "invite"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.InviteReceivedV1.ToBase(),
		events.InviteDeclinedV1.ToBase(),
		events.InviteExpiredV1.ToBase(),
		events.InviteCancelledV1.ToBase(),
		events.MatchConfirmedV1.ToBase(),
	}
}

// Start initializes the invitation module.
func (m *Module) Start(_ context.Context) error {
	log.Println("[invite] Module started")
	return nil
}

// Stop cancels outstanding expiry timers.
func (m *Module) Stop(_ context.Context) error {
	m.coordinator.Shutdown()
	log.Println("[invite] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"pending_invitations": m.coordinator.PendingCount(),
		},
	}
}

// Coordinator returns the coordinator for direct wiring by the gateway.
func (m *Module) Coordinator() *Coordinator {
	return m.coordinator
}

// InviteReceived publishes the invitee notification.
func (m *Module) InviteReceived(event events.InviteReceivedEvent) {
	m.publish("InviteReceived", func() error {
		return events.InviteReceivedV1.Publish(m.eventBus, event, nil)
	})
}

// InviteDeclined publishes the inviter notification.
func (m *Module) InviteDeclined(event events.InviteResolvedEvent) {
	m.publish("InviteDeclined", func() error {
		return events.InviteDeclinedV1.Publish(m.eventBus, event, nil)
	})
}

// InviteExpired publishes the inviter notification.
func (m *Module) InviteExpired(event events.InviteResolvedEvent) {
	m.publish("InviteExpired", func() error {
		return events.InviteExpiredV1.Publish(m.eventBus, event, nil)
	})
}

// InviteCancelled publishes the invitee notification.
func (m *Module) InviteCancelled(event events.InviteResolvedEvent) {
	m.publish("InviteCancelled", func() error {
		return events.InviteCancelledV1.Publish(m.eventBus, event, nil)
	})
}

// MatchConfirmed publishes the match-confirmed signal for both parties.
func (m *Module) MatchConfirmed(event events.MatchConfirmedEvent) {
	m.publish("MatchConfirmed", func() error {
		return events.MatchConfirmedV1.Publish(m.eventBus, event, nil)
	})
}

func (m *Module) publish(name string, fn func() error) {
	if m.eventBus == nil {
		log.Printf("[invite] Dropping %s event: bus not ready", name)
		return
	}
	if err := fn(); err != nil {
		log.Printf("[invite] Failed to publish %s event: %v", name, err)
	}
}
