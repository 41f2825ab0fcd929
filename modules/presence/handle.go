package presence

import (
	"sync"
	"time"
)

// Conn is the minimal surface of a websocket connection the registry needs.
// *websocket.Conn satisfies it; tests substitute fakes.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// textMessage mirrors websocket.TextMessage without importing the transport.
const textMessage = 1

// Handle represents one live connection. It is created by the gateway when
// a socket is accepted and destroyed when the socket closes. UserID is set
// only after a successful registration.
type Handle struct {
	ID          string
	ConnectedAt time.Time

	conn    Conn
	writeMu sync.Mutex

	mu     sync.Mutex
	userID string
}

// NewHandle wraps a connection in a handle.
func NewHandle(id string, conn Conn) *Handle {
	return &Handle{
		ID:          id,
		ConnectedAt: time.Now(),
		conn:        conn,
	}
}

// UserID returns the registered user id, or "" before registration.
func (h *Handle) UserID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.userID
}

func (h *Handle) setUserID(userID string) {
	h.mu.Lock()
	h.userID = userID
	h.mu.Unlock()
}

// Send writes a text frame. Writes are serialized; fiber websocket
// connections do not tolerate concurrent writers.
func (h *Handle) Send(data []byte) error {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	return h.conn.WriteMessage(textMessage, data)
}

// Close closes the underlying connection.
func (h *Handle) Close() error {
	return h.conn.Close()
}
