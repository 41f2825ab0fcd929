package gateway

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/aman-wadhwa/FocusSphere/domain/protocol"
	"github.com/aman-wadhwa/FocusSphere/domain/study"
	"github.com/aman-wadhwa/FocusSphere/modules/broadcast"
	"github.com/aman-wadhwa/FocusSphere/modules/chat"
	"github.com/aman-wadhwa/FocusSphere/modules/invite"
	"github.com/aman-wadhwa/FocusSphere/modules/match"
	"github.com/aman-wadhwa/FocusSphere/modules/presence"
	"github.com/aman-wadhwa/FocusSphere/modules/session"
	"github.com/aman-wadhwa/FocusSphere/modules/timer"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []protocol.Envelope
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	var env protocol.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	c.mu.Lock()
	c.frames = append(c.frames, env)
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) framesOfType(msgType string) []protocol.Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []protocol.Envelope
	for _, f := range c.frames {
		if f.Type == msgType {
			out = append(out, f)
		}
	}
	return out
}

func (c *fakeConn) lastErrorKind(t *testing.T) string {
	t.Helper()
	errs := c.framesOfType(protocol.TypeError)
	if len(errs) == 0 {
		t.Fatal("no error frames written")
	}
	return errs[len(errs)-1].Error.Kind
}

// testGateway wires the real collaborators behind a gateway module the way
// main.go does, minus the transport and the event bus.
func newTestGateway() *Module {
	registry := presence.NewRegistry()
	sessionMod := session.NewModule(registry)
	manager := sessionMod.Manager()
	inviteMod := invite.NewModule(registry, manager)
	timerMod := timer.NewModule(manager)
	chatMod := chat.NewModule(manager)
	matchMod := match.NewModule(registry)

	gw := NewModule()
	gw.SetCollaborators(Collaborators{
		Presence: registry,
		Invites:  inviteMod.Coordinator(),
		Sessions: manager,
		Timer:    timerMod.Synchronizer(),
		Chat:     chatMod.Relay(),
		Hub:      broadcast.NewHub(registry),
		Matcher:  matchMod.Matcher(),
	})
	return gw
}

// connectClient registers a user the way a completed handshake would.
func connectClient(t *testing.T, gw *Module, userID, displayName string) (*client, *fakeConn) {
	t.Helper()
	conn := &fakeConn{}
	handle := presence.NewHandle(userID+"-conn", conn)
	if err := gw.collab.Presence.Register(userID, handle); err != nil {
		t.Fatalf("Register(%s) error = %v", userID, err)
	}
	return &client{
		gw:          gw,
		handle:      handle,
		userID:      userID,
		displayName: displayName,
		limiter:     newRateLimiter(burstSize, messagesPerSecond),
		logger:      slog.Default(),
	}, conn
}

func frame(t *testing.T, msgType string, payload any) protocol.Envelope {
	t.Helper()
	env, err := protocol.NewEnvelope(msgType, payload)
	if err != nil {
		t.Fatalf("failed to build %s frame: %v", msgType, err)
	}
	return env
}

func TestDispatch_InviteAcceptStartsSession(t *testing.T) {
	gw := newTestGateway()
	alice, aliceConn := connectClient(t, gw, "alice", "Alice")
	bob, _ := connectClient(t, gw, "bob", "Bob")

	alice.dispatch(frame(t, protocol.TypeIssueInvitation, InvitePayload{InviteeID: "bob"}))

	issued := aliceConn.framesOfType(protocol.TypeInvitationIssued)
	if len(issued) != 1 {
		t.Fatalf("invitation_issued frames = %d, want 1", len(issued))
	}
	var ack InvitationIssued
	if err := json.Unmarshal(issued[0].Payload, &ack); err != nil {
		t.Fatalf("bad invitation_issued payload: %v", err)
	}
	if ack.InvitationID == "" || ack.InviteeID != "bob" || ack.ExpiresAt.IsZero() {
		t.Errorf("invitation_issued = %+v", ack)
	}

	bob.dispatch(frame(t, protocol.TypeAcceptInvitation, InviteResolvePayload{InviterID: "alice"}))

	// Both users now share one active session with the same room.
	sa, okA := gw.collab.Sessions.ActiveSessionFor("alice")
	sb, okB := gw.collab.Sessions.ActiveSessionFor("bob")
	if !okA || !okB {
		t.Fatalf("active sessions: alice=%v bob=%v, want both", okA, okB)
	}
	if sa.RoomID != sb.RoomID || sa.ID != sb.ID {
		t.Errorf("sessions differ: %s/%s vs %s/%s", sa.ID, sa.RoomID, sb.ID, sb.RoomID)
	}
}

func TestDispatch_InviteErrorsSurfaceAsKinds(t *testing.T) {
	gw := newTestGateway()
	alice, aliceConn := connectClient(t, gw, "alice", "Alice")
	connectClient(t, gw, "bob", "Bob")

	// Offline invitee.
	alice.dispatch(frame(t, protocol.TypeIssueInvitation, InvitePayload{InviteeID: "ghost"}))
	if kind := aliceConn.lastErrorKind(t); kind != protocol.KindInviteeOffline {
		t.Errorf("error kind = %q, want %q", kind, protocol.KindInviteeOffline)
	}

	// Second pending invitation.
	alice.dispatch(frame(t, protocol.TypeIssueInvitation, InvitePayload{InviteeID: "bob"}))
	alice.dispatch(frame(t, protocol.TypeIssueInvitation, InvitePayload{InviteeID: "bob"}))
	if kind := aliceConn.lastErrorKind(t); kind != protocol.KindAlreadyPending {
		t.Errorf("error kind = %q, want %q", kind, protocol.KindAlreadyPending)
	}
}

func TestDispatch_StaleAcceptIsNotFound(t *testing.T) {
	gw := newTestGateway()
	bob, bobConn := connectClient(t, gw, "bob", "Bob")

	bob.dispatch(frame(t, protocol.TypeAcceptInvitation, InviteResolvePayload{InviterID: "alice"}))
	if kind := bobConn.lastErrorKind(t); kind != protocol.KindNotFound {
		t.Errorf("error kind = %q, want %q", kind, protocol.KindNotFound)
	}
}

func TestDispatch_MalformedFramesAreBadRequests(t *testing.T) {
	gw := newTestGateway()
	alice, aliceConn := connectClient(t, gw, "alice", "Alice")

	tests := []struct {
		name string
		env  protocol.Envelope
	}{
		{name: "unknown type", env: protocol.Envelope{Type: "do_something"}},
		{name: "invite without invitee", env: frame(t, protocol.TypeIssueInvitation, InvitePayload{})},
		{name: "accept without inviter", env: frame(t, protocol.TypeAcceptInvitation, InviteResolvePayload{})},
		{name: "join without room", env: frame(t, protocol.TypeJoinRoom, RoomPayload{})},
		{name: "timer without action", env: frame(t, protocol.TypeTimerAction, TimerPayload{})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alice.dispatch(tt.env)
			if kind := aliceConn.lastErrorKind(t); kind != protocol.KindBadRequest {
				t.Errorf("error kind = %q, want %q", kind, protocol.KindBadRequest)
			}
		})
	}
}

func TestDispatch_TimerActionUpdatesSessionState(t *testing.T) {
	gw := newTestGateway()
	alice, _ := connectClient(t, gw, "alice", "Alice")
	bob, _ := connectClient(t, gw, "bob", "Bob")

	alice.dispatch(frame(t, protocol.TypeIssueInvitation, InvitePayload{InviteeID: "bob"}))
	bob.dispatch(frame(t, protocol.TypeAcceptInvitation, InviteResolvePayload{InviterID: "alice"}))

	s, _ := gw.collab.Sessions.ActiveSessionFor("alice")

	// Room id omitted: the active session resolves it.
	alice.dispatch(frame(t, protocol.TypeTimerAction, TimerPayload{
		Action: timer.ActionStart,
		State:  study.TimerState{Mode: study.ModeFocus, RemainingSeconds: study.FocusDurationSeconds},
	}))

	state, err := gw.collab.Sessions.TimerState(s.RoomID)
	if err != nil {
		t.Fatalf("TimerState() error = %v", err)
	}
	if !state.Running {
		t.Errorf("timer state = %+v, want running", state)
	}
}

func TestDispatch_SendMessageRejectedOutsideSession(t *testing.T) {
	gw := newTestGateway()
	alice, aliceConn := connectClient(t, gw, "alice", "Alice")

	alice.dispatch(frame(t, protocol.TypeSendMessage, MessagePayload{Content: "hello?"}))
	if kind := aliceConn.lastErrorKind(t); kind != protocol.KindNotFound {
		t.Errorf("error kind = %q, want %q (no active session)", kind, protocol.KindNotFound)
	}
}

func TestDispatch_LeaveRoomEndsSession(t *testing.T) {
	gw := newTestGateway()
	alice, _ := connectClient(t, gw, "alice", "Alice")
	bob, _ := connectClient(t, gw, "bob", "Bob")

	alice.dispatch(frame(t, protocol.TypeIssueInvitation, InvitePayload{InviteeID: "bob"}))
	bob.dispatch(frame(t, protocol.TypeAcceptInvitation, InviteResolvePayload{InviterID: "alice"}))
	s, _ := gw.collab.Sessions.ActiveSessionFor("alice")

	alice.dispatch(frame(t, protocol.TypeLeaveRoom, RoomPayload{RoomID: s.RoomID}))

	ended, err := gw.collab.Sessions.Get(s.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ended.Status != study.SessionEnded {
		t.Errorf("session status = %v, want %v after explicit leave", ended.Status, study.SessionEnded)
	}
	if _, ok := gw.collab.Sessions.ActiveSessionFor("bob"); ok {
		t.Error("bob still has an active session after partner left")
	}
}

func TestCleanup_DisconnectCancelsPendingInvite(t *testing.T) {
	gw := newTestGateway()
	alice, _ := connectClient(t, gw, "alice", "Alice")
	connectClient(t, gw, "bob", "Bob")

	alice.dispatch(frame(t, protocol.TypeIssueInvitation, InvitePayload{InviteeID: "bob"}))
	gw.cleanupConnection(alice)

	if _, pending := gw.collab.Invites.PendingFor("alice"); pending {
		t.Error("invitation still pending after inviter disconnect")
	}
}

func TestCleanup_SupersededConnectionLeavesFreshOneAlone(t *testing.T) {
	gw := newTestGateway()
	oldClient, _ := connectClient(t, gw, "alice", "Alice")
	connectClient(t, gw, "bob", "Bob")

	// Reconnect: a fresh handle supersedes the old one.
	connectClient(t, gw, "alice", "Alice")

	oldClient.dispatch(frame(t, protocol.TypeIssueInvitation, InvitePayload{InviteeID: "bob"}))
	gw.cleanupConnection(oldClient)

	if !gw.collab.Presence.IsOnline("alice") {
		t.Error("fresh connection evicted by stale cleanup")
	}
	if _, pending := gw.collab.Invites.PendingFor("alice"); !pending {
		t.Error("pending invitation cancelled by stale cleanup")
	}
}

func TestDispatch_FullScenario(t *testing.T) {
	gw := newTestGateway()
	alice, _ := connectClient(t, gw, "alice", "Alice")
	bob, _ := connectClient(t, gw, "bob", "Bob")

	alice.dispatch(frame(t, protocol.TypeIssueInvitation, InvitePayload{InviteeID: "bob"}))
	bob.dispatch(frame(t, protocol.TypeAcceptInvitation, InviteResolvePayload{InviterID: "alice"}))
	s, ok := gw.collab.Sessions.ActiveSessionFor("alice")
	if !ok {
		t.Fatal("no session after accept")
	}

	// A full focus block: start, run down, switch to break.
	alice.dispatch(frame(t, protocol.TypeTimerAction, TimerPayload{
		RoomID: s.RoomID,
		Action: timer.ActionStart,
		State:  study.TimerState{Mode: study.ModeFocus, RemainingSeconds: study.FocusDurationSeconds},
	}))
	bob.dispatch(frame(t, protocol.TypeTimerAction, TimerPayload{
		RoomID: s.RoomID,
		Action: timer.ActionSkip,
	}))
	alice.dispatch(frame(t, protocol.TypeTimerAction, TimerPayload{
		RoomID: s.RoomID,
		Action: timer.ActionSetMode,
		State:  study.TimerState{Mode: study.ModeShortBreak},
	}))

	// Some chat both ways.
	alice.dispatch(frame(t, protocol.TypeSendMessage, MessagePayload{RoomID: s.RoomID, Content: "good focus block"}))
	bob.dispatch(frame(t, protocol.TypeSendMessage, MessagePayload{RoomID: s.RoomID, Content: "one pomodoro down"}))

	// Bob wraps up.
	bob.dispatch(frame(t, protocol.TypeLeaveRoom, RoomPayload{RoomID: s.RoomID}))

	ended, err := gw.collab.Sessions.Get(s.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ended.Status != study.SessionEnded {
		t.Fatalf("session status = %v, want ended", ended.Status)
	}
	if ended.PomodoroCount != 1 {
		t.Errorf("PomodoroCount = %d, want 1 (skip + mode switch)", ended.PomodoroCount)
	}
}

func TestDispatch_RateLimitTripsOnFlood(t *testing.T) {
	gw := newTestGateway()
	alice, aliceConn := connectClient(t, gw, "alice", "Alice")
	bob, _ := connectClient(t, gw, "bob", "Bob")

	alice.dispatch(frame(t, protocol.TypeIssueInvitation, InvitePayload{InviteeID: "bob"}))
	bob.dispatch(frame(t, protocol.TypeAcceptInvitation, InviteResolvePayload{InviterID: "alice"}))
	s, _ := gw.collab.Sessions.ActiveSessionFor("alice")

	for i := 0; i < burstSize+5; i++ {
		alice.dispatch(frame(t, protocol.TypeSendMessage, MessagePayload{
			RoomID:  s.RoomID,
			Content: fmt.Sprintf("message %d", i),
		}))
	}

	if kind := aliceConn.lastErrorKind(t); kind != protocol.KindBadRequest {
		t.Errorf("error kind = %q, want %q for rate limit", kind, protocol.KindBadRequest)
	}
}
