package broadcast

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/aman-wadhwa/FocusSphere/domain/protocol"
	"github.com/aman-wadhwa/FocusSphere/modules/presence"
)

type fakeConn struct {
	mu       sync.Mutex
	frames   [][]byte
	writeErr error
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	c.frames = append(c.frames, buf)
	return nil
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) frameCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func (c *fakeConn) lastFrame(t *testing.T) protocol.Envelope {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.frames) == 0 {
		t.Fatal("no frames written")
	}
	var env protocol.Envelope
	if err := json.Unmarshal(c.frames[len(c.frames)-1], &env); err != nil {
		t.Fatalf("frame is not an envelope: %v", err)
	}
	return env
}

// connect registers a user with a fake socket and returns the socket.
func connect(t *testing.T, registry *presence.Registry, userID string) *fakeConn {
	t.Helper()
	conn := &fakeConn{}
	h := presence.NewHandle(userID+"-conn", conn)
	if err := registry.Register(userID, h); err != nil {
		t.Fatalf("Register(%s) error = %v", userID, err)
	}
	return conn
}

func TestHub_SendToUser(t *testing.T) {
	registry := presence.NewRegistry()
	hub := NewHub(registry)
	alice := connect(t, registry, "alice")

	env, _ := protocol.NewEnvelope(protocol.TypeInviteReceived, map[string]string{"inviter_id": "bob"})
	if err := hub.SendToUser("alice", env); err != nil {
		t.Fatalf("SendToUser() error = %v", err)
	}

	got := alice.lastFrame(t)
	if got.Type != protocol.TypeInviteReceived {
		t.Errorf("frame type = %q, want %q", got.Type, protocol.TypeInviteReceived)
	}
}

func TestHub_SendToUserOffline(t *testing.T) {
	hub := NewHub(presence.NewRegistry())

	env, _ := protocol.NewEnvelope(protocol.TypePartnerLeft, nil)
	if err := hub.SendToUser("nobody", env); !errors.Is(err, ErrTargetOffline) {
		t.Errorf("SendToUser() error = %v, want ErrTargetOffline", err)
	}
}

func TestHub_SendToUserWriteFailure(t *testing.T) {
	registry := presence.NewRegistry()
	hub := NewHub(registry)
	conn := connect(t, registry, "alice")
	conn.writeErr = errors.New("broken pipe")

	env, _ := protocol.NewEnvelope(protocol.TypeTimerUpdate, nil)
	if err := hub.SendToUser("alice", env); !errors.Is(err, ErrTargetOffline) {
		t.Errorf("SendToUser() error = %v, want ErrTargetOffline", err)
	}
}

func TestHub_BroadcastRoomReachesAllMembers(t *testing.T) {
	registry := presence.NewRegistry()
	hub := NewHub(registry)
	alice := connect(t, registry, "alice")
	bob := connect(t, registry, "bob")
	carol := connect(t, registry, "carol")

	hub.JoinRoom("room1", "alice")
	hub.JoinRoom("room1", "bob")

	env, _ := protocol.NewEnvelope(protocol.TypeReceiveMessage, map[string]string{"content": "hi"})
	undelivered, err := hub.BroadcastRoom("room1", env)
	if err != nil {
		t.Fatalf("BroadcastRoom() error = %v", err)
	}

	if len(undelivered) != 0 {
		t.Errorf("undelivered = %v, want none", undelivered)
	}
	if alice.frameCount() != 1 || bob.frameCount() != 1 {
		t.Errorf("frames alice=%d bob=%d, want 1 each", alice.frameCount(), bob.frameCount())
	}
	if carol.frameCount() != 0 {
		t.Errorf("non-member carol got %d frames, want 0", carol.frameCount())
	}
}

func TestHub_BroadcastRoomReportsUndelivered(t *testing.T) {
	registry := presence.NewRegistry()
	hub := NewHub(registry)
	alice := connect(t, registry, "alice")

	hub.JoinRoom("room1", "alice")
	hub.JoinRoom("room1", "bob") // bob has no connection

	env, _ := protocol.NewEnvelope(protocol.TypeTimerUpdate, nil)
	undelivered, err := hub.BroadcastRoom("room1", env)
	if err != nil {
		t.Fatalf("BroadcastRoom() error = %v", err)
	}

	if len(undelivered) != 1 || undelivered[0] != "bob" {
		t.Errorf("undelivered = %v, want [bob]", undelivered)
	}
	// The reachable member still got their copy.
	if alice.frameCount() != 1 {
		t.Errorf("alice frames = %d, want 1", alice.frameCount())
	}
}

func TestHub_ReconnectedUserGetsNewestSocket(t *testing.T) {
	registry := presence.NewRegistry()
	hub := NewHub(registry)
	old := connect(t, registry, "alice")
	hub.JoinRoom("room1", "alice")

	// Reconnect: presence now points at a fresh socket.
	fresh := connect(t, registry, "alice")

	env, _ := protocol.NewEnvelope(protocol.TypeTimerUpdate, nil)
	if _, err := hub.BroadcastRoom("room1", env); err != nil {
		t.Fatalf("BroadcastRoom() error = %v", err)
	}

	if old.frameCount() != 0 {
		t.Errorf("stale socket got %d frames, want 0", old.frameCount())
	}
	if fresh.frameCount() != 1 {
		t.Errorf("fresh socket got %d frames, want 1", fresh.frameCount())
	}
}

func TestHub_LeaveRoomStopsDelivery(t *testing.T) {
	registry := presence.NewRegistry()
	hub := NewHub(registry)
	alice := connect(t, registry, "alice")

	hub.JoinRoom("room1", "alice")
	hub.LeaveRoom("room1", "alice")

	env, _ := protocol.NewEnvelope(protocol.TypeReceiveMessage, nil)
	_, _ = hub.BroadcastRoom("room1", env)

	if alice.frameCount() != 0 {
		t.Errorf("alice frames = %d after leave, want 0", alice.frameCount())
	}
	if hub.RoomCount() != 0 {
		t.Errorf("RoomCount() = %d, want 0 once last member left", hub.RoomCount())
	}
}

func TestHub_ClearRoom(t *testing.T) {
	registry := presence.NewRegistry()
	hub := NewHub(registry)
	connect(t, registry, "alice")
	connect(t, registry, "bob")

	hub.JoinRoom("room1", "alice")
	hub.JoinRoom("room1", "bob")
	hub.ClearRoom("room1")

	if members := hub.RoomMembers("room1"); len(members) != 0 {
		t.Errorf("RoomMembers() = %v after clear, want none", members)
	}
}

func TestHub_LeaveAll(t *testing.T) {
	registry := presence.NewRegistry()
	hub := NewHub(registry)
	connect(t, registry, "alice")

	hub.JoinRoom("room1", "alice")
	hub.JoinRoom("room2", "alice")
	hub.LeaveAll("alice")

	if hub.RoomCount() != 0 {
		t.Errorf("RoomCount() = %d after LeaveAll, want 0", hub.RoomCount())
	}
}
