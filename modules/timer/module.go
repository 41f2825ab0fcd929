package timer

import (
	"context"
	"log"

	"github.com/go-monolith/mono"

	"github.com/aman-wadhwa/FocusSphere/events"
)

// Module wraps the synchronizer and publishes timer updates for fan-out.
type Module struct {
	synchronizer *Synchronizer
	eventBus     mono.EventBus
}

// Compile-time interface checks.
var (
	_ mono.Module              = (*Module)(nil)
	_ mono.EventBusAwareModule = (*Module)(nil)
	_ mono.EventEmitterModule  = (*Module)(nil)
	_ Notifier                 = (*Module)(nil)
)

// NewModule creates a new timer module.
func NewModule(sessions SessionStore) *Module {
	m := &Module{}
	m.synchronizer = NewSynchronizer(sessions, m)
	return m
}

// Name returns the module name.
func (m *Module) Name() string {
	return "timer"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TimerUpdatedV1.ToBase(),
	}
}

// Start initializes the timer module.
func (m *Module) Start(_ context.Context) error {
	log.Println("[timer] Module started")
	return nil
}

// Stop shuts down the timer module.
func (m *Module) Stop(_ context.Context) error {
	log.Println("[timer] Module stopped")
	return nil
}

// Synchronizer returns the relay for direct wiring by the gateway.
func (m *Module) Synchronizer() *Synchronizer {
	return m.synchronizer
}

// TimerUpdated publishes the authoritative post-action state.
func (m *Module) TimerUpdated(event events.TimerUpdatedEvent) {
	if m.eventBus == nil {
		log.Println("[timer] Dropping TimerUpdated event: bus not ready")
		return
	}
	if err := events.TimerUpdatedV1.Publish(m.eventBus, event, nil); err != nil {
		log.Printf("[timer] Failed to publish TimerUpdated event: %v", err)
	}
}
