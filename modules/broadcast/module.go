package broadcast

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/aman-wadhwa/FocusSphere/domain/protocol"
	"github.com/aman-wadhwa/FocusSphere/events"
	"github.com/aman-wadhwa/FocusSphere/modules/presence"
)

// Module consumes every protocol event and fans it out to the sockets that
// should see it. It is the only place bus events become wire frames.
type Module struct {
	hub *Hub
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventConsumerModule   = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new broadcast module.
func NewModule(registry *presence.Registry) *Module {
	return &Module{hub: NewHub(registry)}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "broadcast"
}

// Start initializes the broadcast module.
func (m *Module) Start(_ context.Context) error {
	log.Println("[broadcast] Module started")
	return nil
}

// Stop shuts down the broadcast module.
func (m *Module) Stop(_ context.Context) error {
	log.Println("[broadcast] Module stopped")
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"active_rooms": m.hub.RoomCount(),
		},
	}
}

// Hub returns the hub for direct wiring by the gateway.
func (m *Module) Hub() *Hub {
	return m.hub
}

// RegisterEventConsumers subscribes the fan-out handlers.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	consumers := []struct {
		name     string
		register func() error
	}{
		{"InviteReceived", func() error {
			return helper.RegisterTypedEventConsumer(registry, events.InviteReceivedV1, m.handleInviteReceived, m)
		}},
		{"InviteDeclined", func() error {
			return helper.RegisterTypedEventConsumer(registry, events.InviteDeclinedV1, m.handleInviteDeclined, m)
		}},
		{"InviteExpired", func() error {
			return helper.RegisterTypedEventConsumer(registry, events.InviteExpiredV1, m.handleInviteExpired, m)
		}},
		{"InviteCancelled", func() error {
			return helper.RegisterTypedEventConsumer(registry, events.InviteCancelledV1, m.handleInviteCancelled, m)
		}},
		{"MatchConfirmed", func() error {
			return helper.RegisterTypedEventConsumer(registry, events.MatchConfirmedV1, m.handleMatchConfirmed, m)
		}},
		{"PartnerLeft", func() error {
			return helper.RegisterTypedEventConsumer(registry, events.PartnerLeftV1, m.handlePartnerLeft, m)
		}},
		{"PartnerOffline", func() error {
			return helper.RegisterTypedEventConsumer(registry, events.PartnerOfflineV1, m.handlePartnerOffline, m)
		}},
		{"SessionEnded", func() error {
			return helper.RegisterTypedEventConsumer(registry, events.SessionEndedV1, m.handleSessionEnded, m)
		}},
		{"TimerUpdated", func() error {
			return helper.RegisterTypedEventConsumer(registry, events.TimerUpdatedV1, m.handleTimerUpdated, m)
		}},
		{"MessageSent", func() error {
			return helper.RegisterTypedEventConsumer(registry, events.MessageSentV1, m.handleMessageSent, m)
		}},
	}

	for _, c := range consumers {
		if err := c.register(); err != nil {
			return fmt.Errorf("failed to register %s consumer: %w", c.name, err)
		}
	}
	return nil
}

func (m *Module) handleInviteReceived(_ context.Context, event events.InviteReceivedEvent, _ *mono.Msg) error {
	m.sendToUser(event.InviteeID, protocol.TypeInviteReceived, event)
	return nil
}

func (m *Module) handleInviteDeclined(_ context.Context, event events.InviteResolvedEvent, _ *mono.Msg) error {
	m.sendToUser(event.InviterID, protocol.TypeInviteDeclined, event)
	return nil
}

func (m *Module) handleInviteExpired(_ context.Context, event events.InviteResolvedEvent, _ *mono.Msg) error {
	m.sendToUser(event.InviterID, protocol.TypeInviteExpired, event)
	return nil
}

func (m *Module) handleInviteCancelled(_ context.Context, event events.InviteResolvedEvent, _ *mono.Msg) error {
	m.sendToUser(event.InviteeID, protocol.TypeInviteCancelled, event)
	return nil
}

// handleMatchConfirmed seats both parties in the room before either frame
// goes out, so a fast follow-up (a timer action on arrival) already has a
// complete delivery set.
func (m *Module) handleMatchConfirmed(_ context.Context, event events.MatchConfirmedEvent, _ *mono.Msg) error {
	m.hub.JoinRoom(event.RoomID, event.InviterID)
	m.hub.JoinRoom(event.RoomID, event.InviteeID)

	m.sendToUser(event.InviterID, protocol.TypeMatchConfirmed, event)
	m.sendToUser(event.InviteeID, protocol.TypeMatchConfirmed, event)
	return nil
}

func (m *Module) handlePartnerLeft(_ context.Context, event events.PartnerLeftEvent, _ *mono.Msg) error {
	m.hub.LeaveRoom(event.RoomID, event.LeftUserID)
	m.sendToUser(event.PartnerUserID, protocol.TypePartnerLeft, event)
	return nil
}

func (m *Module) handlePartnerOffline(_ context.Context, event events.PartnerOfflineEvent, _ *mono.Msg) error {
	m.sendToUser(event.PartnerUserID, protocol.TypePartnerOffline, event)
	return nil
}

func (m *Module) handleSessionEnded(_ context.Context, event events.SessionEndedEvent, _ *mono.Msg) error {
	env, err := protocol.NewEnvelope(protocol.TypeSessionEnded, event)
	if err != nil {
		return err
	}
	if _, err := m.hub.BroadcastRoom(event.RoomID, env); err != nil {
		log.Printf("[broadcast] Failed to broadcast session end for room %s: %v", event.RoomID, err)
	}
	m.hub.ClearRoom(event.RoomID)
	return nil
}

func (m *Module) handleTimerUpdated(_ context.Context, event events.TimerUpdatedEvent, _ *mono.Msg) error {
	m.broadcastWithReport(event.RoomID, event.SenderID, protocol.TypeTimerUpdate, event)
	return nil
}

func (m *Module) handleMessageSent(_ context.Context, event events.MessageSentEvent, _ *mono.Msg) error {
	m.broadcastWithReport(event.Message.RoomID, event.Message.SenderID, protocol.TypeReceiveMessage, event.Message)
	return nil
}

func (m *Module) sendToUser(userID, msgType string, payload any) {
	env, err := protocol.NewEnvelope(msgType, payload)
	if err != nil {
		log.Printf("[broadcast] Failed to build %s frame: %v", msgType, err)
		return
	}
	if err := m.hub.SendToUser(userID, env); err != nil {
		log.Printf("[broadcast] Could not deliver %s to %s: %v", msgType, userID, err)
	}
}

// broadcastWithReport fans a frame out to the room and, when anyone was
// unreachable, tells the originating sender the delivery was partial.
func (m *Module) broadcastWithReport(roomID, senderID, msgType string, payload any) {
	env, err := protocol.NewEnvelope(msgType, payload)
	if err != nil {
		log.Printf("[broadcast] Failed to build %s frame: %v", msgType, err)
		return
	}

	undelivered, err := m.hub.BroadcastRoom(roomID, env)
	if err != nil {
		log.Printf("[broadcast] Failed to broadcast %s to room %s: %v", msgType, roomID, err)
		return
	}

	// Only partners count as missed recipients; the sender's own dead
	// socket is not a partial delivery.
	missed := undelivered[:0]
	for _, userID := range undelivered {
		if userID != senderID {
			missed = append(missed, userID)
		}
	}
	if len(missed) == 0 {
		return
	}

	report := protocol.ErrorEnvelope(
		protocol.KindPartialDelivery,
		fmt.Sprintf("%s not delivered to: %s", msgType, strings.Join(missed, ", ")),
	)
	if err := m.hub.SendToUser(senderID, report); err != nil {
		log.Printf("[broadcast] Could not report partial delivery to %s: %v", senderID, err)
	}
}
