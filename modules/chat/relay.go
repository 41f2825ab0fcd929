package chat

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/aman-wadhwa/FocusSphere/domain/study"
	"github.com/aman-wadhwa/FocusSphere/events"
)

// MaxMessageLength bounds a single chat message.
const MaxMessageLength = 2000

var (
	ErrMessageEmpty   = errors.New("message content cannot be empty")
	ErrMessageTooLong = errors.New("message exceeds maximum length")
	ErrMessageInvalid = errors.New("message contains invalid characters")
	// ErrNotInRoom is returned when the sender is not a room participant.
	ErrNotInRoom = errors.New("sender is not a participant of the room")
)

// ValidateContent validates message content.
func ValidateContent(content string) error {
	if content == "" {
		return ErrMessageEmpty
	}
	if len(content) > MaxMessageLength {
		return ErrMessageTooLong
	}
	if !utf8.ValidString(content) {
		return ErrMessageInvalid
	}
	return nil
}

// Membership answers who belongs to a room right now.
type Membership interface {
	Members(roomID string) ([]string, error)
}

// Notifier receives accepted messages for room fan-out and history.
type Notifier interface {
	MessageSent(events.MessageSentEvent)
}

// Relay accepts chat messages for a room. The message ID is assigned here,
// before fan-out, so the sender's echo and the partner's copy carry the same
// identity and clients can collapse duplicates.
type Relay struct {
	members Membership
	notify  Notifier
}

// NewRelay creates a chat relay over the given membership view.
func NewRelay(members Membership, notify Notifier) *Relay {
	return &Relay{members: members, notify: notify}
}

// Accept validates and stamps a message, then notifies the room.
func (r *Relay) Accept(roomID, senderID, senderName, content string) (study.ChatMessage, error) {
	if err := ValidateContent(content); err != nil {
		return study.ChatMessage{}, err
	}

	members, err := r.members.Members(roomID)
	if err != nil {
		return study.ChatMessage{}, fmt.Errorf("failed to resolve room members: %w", err)
	}
	if !contains(members, senderID) {
		return study.ChatMessage{}, ErrNotInRoom
	}

	msg := study.ChatMessage{
		ID:         uuid.New().String(),
		RoomID:     roomID,
		SenderID:   senderID,
		SenderName: senderName,
		Content:    content,
		CreatedAt:  time.Now(),
	}

	r.notify.MessageSent(events.MessageSentEvent{Message: msg})
	return msg, nil
}

func contains(members []string, userID string) bool {
	for _, m := range members {
		if m == userID {
			return true
		}
	}
	return false
}
