package invite

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aman-wadhwa/FocusSphere/domain/study"
	"github.com/aman-wadhwa/FocusSphere/events"
)

// State is the invitation lifecycle state. Terminal states are final; a
// resolved invitation is never reused.
type State string

const (
	StatePending   State = "pending"
	StateAccepted  State = "accepted"
	StateDeclined  State = "declined"
	StateExpired   State = "expired"
	StateCancelled State = "cancelled"
)

// PendingTimeout is how long an invitation waits for a resolution.
const PendingTimeout = 15 * time.Second

var (
	// ErrAlreadyPending is returned when an inviter already has an
	// unresolved invitation.
	ErrAlreadyPending = errors.New("inviter already has a pending invitation")
	// ErrInviteeOffline is returned when the invitee has no live connection.
	ErrInviteeOffline = errors.New("invitee is not online")
	// ErrNotFound is returned when no matching pending invitation exists;
	// the invite already resolved, clients must treat this as "too late".
	ErrNotFound = errors.New("no matching pending invitation")
)

// Notifier receives invitation lifecycle notifications. The module
// implements it by publishing events; tests substitute a recorder.
type Notifier interface {
	InviteReceived(events.InviteReceivedEvent)
	InviteDeclined(events.InviteResolvedEvent)
	InviteExpired(events.InviteResolvedEvent)
	InviteCancelled(events.InviteResolvedEvent)
	MatchConfirmed(events.MatchConfirmedEvent)
}

// PresenceChecker answers whether a user currently has a live connection.
type PresenceChecker interface {
	IsOnline(userID string) bool
}

// SessionCreator starts a session for two participants on acceptance.
type SessionCreator interface {
	Create(participantA, participantB string) (study.Session, error)
}

// Invitation is a single outstanding invite. All transitions on one
// invitation are serialized by its own mutex so the accept/decline/timeout
// race resolves exactly once; unrelated invitations proceed independently.
type Invitation struct {
	ID          string
	InviterID   string
	InviterName string
	StudyGoal   string
	InviteeID   string
	CreatedAt   time.Time

	mu    sync.Mutex
	state State
	timer *time.Timer
}

// State returns the current lifecycle state.
func (inv *Invitation) State() State {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.state
}

// transition applies a terminal state if the invitation is still pending.
// It reports whether this call won the resolution race.
func (inv *Invitation) transition(to State) bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if inv.state != StatePending {
		return false
	}
	inv.state = to
	if inv.timer != nil {
		inv.timer.Stop()
	}
	return true
}

// Coordinator owns the per-inviter pending index and the invitation FSM.
type Coordinator struct {
	mu        sync.Mutex
	byInviter map[string]*Invitation // inviterID -> pending invitation

	presence PresenceChecker
	sessions SessionCreator
	notify   Notifier
	timeout  time.Duration
}

// NewCoordinator creates a coordinator with the standard 15s timeout.
func NewCoordinator(presence PresenceChecker, sessions SessionCreator, notify Notifier) *Coordinator {
	return NewCoordinatorWithTimeout(presence, sessions, notify, PendingTimeout)
}

// NewCoordinatorWithTimeout allows tests to shrink the expiry window.
func NewCoordinatorWithTimeout(presence PresenceChecker, sessions SessionCreator, notify Notifier, timeout time.Duration) *Coordinator {
	return &Coordinator{
		byInviter: make(map[string]*Invitation),
		presence:  presence,
		sessions:  sessions,
		notify:    notify,
		timeout:   timeout,
	}
}

// Issue creates a pending invitation from inviter to invitee and starts
// the expiry countdown. The invitee is notified on success.
func (c *Coordinator) Issue(inviterID, inviterName, studyGoal, inviteeID string) (*Invitation, error) {
	if !c.presence.IsOnline(inviteeID) {
		return nil, ErrInviteeOffline
	}

	inv := &Invitation{
		ID:          uuid.New().String(),
		InviterID:   inviterID,
		InviterName: inviterName,
		StudyGoal:   studyGoal,
		InviteeID:   inviteeID,
		CreatedAt:   time.Now(),
		state:       StatePending,
	}

	c.mu.Lock()
	if existing, ok := c.byInviter[inviterID]; ok && existing.State() == StatePending {
		c.mu.Unlock()
		return nil, ErrAlreadyPending
	}
	c.byInviter[inviterID] = inv
	c.mu.Unlock()

	inv.mu.Lock()
	inv.timer = time.AfterFunc(c.timeout, func() { c.expire(inv) })
	inv.mu.Unlock()

	c.notify.InviteReceived(events.InviteReceivedEvent{
		InvitationID: inv.ID,
		InviterID:    inviterID,
		InviterName:  inviterName,
		StudyGoal:    studyGoal,
		InviteeID:    inviteeID,
		ExpiresAt:    inv.CreatedAt.Add(c.timeout),
	})

	return inv, nil
}

// Accept resolves a pending invitation to Accepted and creates the session.
// Both parties are notified with identical room and session identifiers in
// the same event so neither side can observe a partial match.
func (c *Coordinator) Accept(inviterID, inviteeID string) (study.Session, error) {
	inv := c.pendingMatch(inviterID, inviteeID)
	if inv == nil {
		return study.Session{}, ErrNotFound
	}

	// The terminal transition happens before session creation so a failed
	// Create cannot leave a live pending invitation. The invitation is
	// spent either way: the accept caller gets the error, and the inviter
	// is freed to issue a new invite.
	if !inv.transition(StateAccepted) {
		return study.Session{}, ErrNotFound
	}
	c.removeIfCurrent(inv)

	s, err := c.sessions.Create(inv.InviterID, inv.InviteeID)
	if err != nil {
		return study.Session{}, err
	}

	c.notify.MatchConfirmed(events.MatchConfirmedEvent{
		RoomID:    s.RoomID,
		SessionID: s.ID,
		InviterID: inv.InviterID,
		InviteeID: inv.InviteeID,
		Timestamp: time.Now(),
	})

	return s, nil
}

// Decline resolves a pending invitation to Declined. The inviter is
// notified so their client clears the waiting state and can issue a new
// invite immediately.
func (c *Coordinator) Decline(inviterID, inviteeID string) error {
	inv := c.pendingMatch(inviterID, inviteeID)
	if inv == nil {
		return ErrNotFound
	}
	if !inv.transition(StateDeclined) {
		return ErrNotFound
	}
	c.removeIfCurrent(inv)

	c.notify.InviteDeclined(events.InviteResolvedEvent{
		InvitationID: inv.ID,
		InviterID:    inv.InviterID,
		InviteeID:    inv.InviteeID,
	})
	return nil
}

// CancelByInviter cancels the inviter's pending invitation, if any. Called
// from disconnect cleanup; cancelling nothing is benign.
func (c *Coordinator) CancelByInviter(inviterID string) {
	c.mu.Lock()
	inv := c.byInviter[inviterID]
	c.mu.Unlock()
	if inv == nil {
		return
	}
	if !inv.transition(StateCancelled) {
		return
	}
	c.removeIfCurrent(inv)

	c.notify.InviteCancelled(events.InviteResolvedEvent{
		InvitationID: inv.ID,
		InviterID:    inv.InviterID,
		InviteeID:    inv.InviteeID,
	})
}

// expire fires from the countdown. The state guard makes it a no-op when
// accept, decline or cancel already won.
func (c *Coordinator) expire(inv *Invitation) {
	if !inv.transition(StateExpired) {
		return
	}
	c.removeIfCurrent(inv)

	c.notify.InviteExpired(events.InviteResolvedEvent{
		InvitationID: inv.ID,
		InviterID:    inv.InviterID,
		InviteeID:    inv.InviteeID,
	})
}

// PendingFor returns the inviter's pending invitation, if one exists.
func (c *Coordinator) PendingFor(inviterID string) (*Invitation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	inv, ok := c.byInviter[inviterID]
	if !ok || inv.State() != StatePending {
		return nil, false
	}
	return inv, true
}

// PendingCount returns the number of unresolved invitations.
func (c *Coordinator) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for _, inv := range c.byInviter {
		if inv.State() == StatePending {
			count++
		}
	}
	return count
}

// Shutdown stops all outstanding expiry timers.
func (c *Coordinator) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, inv := range c.byInviter {
		inv.mu.Lock()
		if inv.timer != nil {
			inv.timer.Stop()
		}
		inv.mu.Unlock()
	}
}

// pendingMatch returns the pending invitation from inviter to invitee, or
// nil when the pair does not match or the invite already resolved.
func (c *Coordinator) pendingMatch(inviterID, inviteeID string) *Invitation {
	c.mu.Lock()
	defer c.mu.Unlock()
	inv, ok := c.byInviter[inviterID]
	if !ok || inv.InviteeID != inviteeID {
		return nil
	}
	return inv
}

// removeIfCurrent drops the pending-index entry owned by inv. A newer
// invitation from the same inviter must not be evicted.
func (c *Coordinator) removeIfCurrent(inv *Invitation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.byInviter[inv.InviterID] == inv {
		delete(c.byInviter, inv.InviterID)
	}
}
