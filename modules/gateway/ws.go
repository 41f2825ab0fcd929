package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"github.com/aman-wadhwa/FocusSphere/domain/protocol"
	"github.com/aman-wadhwa/FocusSphere/modules/chat"
	"github.com/aman-wadhwa/FocusSphere/modules/invite"
	"github.com/aman-wadhwa/FocusSphere/modules/presence"
	"github.com/aman-wadhwa/FocusSphere/modules/session"
	"github.com/aman-wadhwa/FocusSphere/modules/timer"
)

// client is one registered connection's dispatch state. It exists only
// after a successful register_connection handshake.
type client struct {
	gw          *Module
	handle      *presence.Handle
	userID      string
	displayName string
	limiter     *rateLimiter
	logger      *slog.Logger
}

// HandleSocket owns one websocket connection from accept to close.
func (m *Module) HandleSocket(c *websocket.Conn) {
	handle := presence.NewHandle(uuid.New().String(), c)
	logger := slog.Default().With("connID", handle.ID)

	logger.Info("WebSocket connected")

	cl, ok := m.awaitRegistration(c, handle, logger)
	if !ok {
		_ = handle.Close()
		logger.Info("WebSocket closed before registration")
		return
	}

	defer m.cleanupConnection(cl)

	for {
		_, frame, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				cl.logger.Error("WebSocket error", "error", err)
			}
			break
		}

		var env protocol.Envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			cl.sendError(protocol.KindBadRequest, "invalid frame: not a JSON envelope")
			continue
		}

		cl.dispatch(env)
	}

	cl.logger.Info("WebSocket disconnected")
}

// awaitRegistration enforces the first-frame contract: nothing is accepted
// before a valid register_connection, and a failed registration closes the
// socket after an explicit failure frame.
func (m *Module) awaitRegistration(conn *websocket.Conn, handle *presence.Handle, logger *slog.Logger) (*client, bool) {
	_, frame, err := conn.ReadMessage()
	if err != nil {
		return nil, false
	}

	var env protocol.Envelope
	if err := json.Unmarshal(frame, &env); err != nil || env.Type != protocol.TypeRegisterConnection {
		m.sendRegistrationFailed(handle, protocol.KindAuthRequired, "first frame must be register_connection")
		return nil, false
	}

	var payload RegisterPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil || payload.Token == "" {
		m.sendRegistrationFailed(handle, protocol.KindAuthRequired, "register_connection requires a token")
		return nil, false
	}

	ctx, cancel := context.WithTimeout(context.Background(), authCallTimeout)
	defer cancel()

	identity, err := m.authPort.ValidateToken(ctx, payload.Token)
	if err != nil {
		kind := protocol.KindAuthRequired
		if errors.Is(err, context.DeadlineExceeded) {
			kind = protocol.KindTimeout
		}
		m.sendRegistrationFailed(handle, kind, "credential rejected")
		return nil, false
	}

	if err := m.collab.Presence.Register(identity.UserID, handle); err != nil {
		m.sendRegistrationFailed(handle, protocol.KindAuthRequired, err.Error())
		return nil, false
	}
	m.collab.Matcher.SetGoal(identity.UserID, payload.StudyGoal)

	cl := &client{
		gw:          m,
		handle:      handle,
		userID:      identity.UserID,
		displayName: identity.DisplayName,
		limiter:     newRateLimiter(burstSize, messagesPerSecond),
		logger:      logger.With("userID", identity.UserID),
	}

	confirmed := RegistrationConfirmed{
		UserID:      identity.UserID,
		DisplayName: identity.DisplayName,
	}
	// A reconnect into a live session resumes room delivery immediately.
	if s, ok := m.collab.Sessions.ActiveSessionFor(identity.UserID); ok {
		m.collab.Hub.JoinRoom(s.RoomID, identity.UserID)
		if rejoined, err := m.collab.Sessions.Join(s.RoomID, identity.UserID); err == nil {
			s = rejoined
		}
		confirmed.ActiveSession = &s
	}

	cl.send(protocol.TypeRegistrationConfirmed, confirmed)
	cl.logger.Info("Connection registered")
	return cl, true
}

// cleanupConnection tears down per-user state, but only when this handle
// is still the user's current one: a superseded socket's cleanup must not
// touch the fresh connection's session or invitations.
func (m *Module) cleanupConnection(cl *client) {
	m.collab.Presence.Unregister(cl.handle)
	_ = cl.handle.Close()

	if m.collab.Presence.IsOnline(cl.userID) {
		return
	}

	m.collab.Matcher.ClearGoal(cl.userID)
	m.collab.Invites.CancelByInviter(cl.userID)
	m.collab.Sessions.HandleDisconnect(cl.userID)
}

func (cl *client) dispatch(env protocol.Envelope) {
	switch env.Type {
	case protocol.TypeRegisterConnection:
		// Idempotent: the connection is already registered.
		cl.send(protocol.TypeRegistrationConfirmed, RegistrationConfirmed{
			UserID:      cl.userID,
			DisplayName: cl.displayName,
		})
	case protocol.TypeIssueInvitation:
		cl.handleIssueInvitation(env.Payload)
	case protocol.TypeAcceptInvitation:
		cl.handleAcceptInvitation(env.Payload)
	case protocol.TypeDeclineInvitation:
		cl.handleDeclineInvitation(env.Payload)
	case protocol.TypeJoinRoom:
		cl.handleJoinRoom(env.Payload)
	case protocol.TypeLeaveRoom:
		cl.handleLeaveRoom(env.Payload)
	case protocol.TypeTimerAction:
		cl.handleTimerAction(env.Payload)
	case protocol.TypeSendMessage:
		cl.handleSendMessage(env.Payload)
	default:
		cl.sendError(protocol.KindBadRequest, "unknown frame type: "+env.Type)
	}
}

func (cl *client) handleIssueInvitation(payload json.RawMessage) {
	var req InvitePayload
	if err := json.Unmarshal(payload, &req); err != nil || req.InviteeID == "" {
		cl.sendError(protocol.KindBadRequest, "issue_invitation requires invitee_id")
		return
	}

	goal := cl.gw.collab.Matcher.Goal(cl.userID)
	inv, err := cl.gw.collab.Invites.Issue(cl.userID, cl.displayName, goal, req.InviteeID)
	if err != nil {
		cl.sendError(kindFor(err), err.Error())
		return
	}

	cl.send(protocol.TypeInvitationIssued, InvitationIssued{
		InvitationID: inv.ID,
		InviteeID:    inv.InviteeID,
		ExpiresAt:    inv.CreatedAt.Add(invite.PendingTimeout),
	})
}

func (cl *client) handleAcceptInvitation(payload json.RawMessage) {
	var req InviteResolvePayload
	if err := json.Unmarshal(payload, &req); err != nil || req.InviterID == "" {
		cl.sendError(protocol.KindBadRequest, "accept_invitation requires inviter_id")
		return
	}

	// Success needs no direct reply: match_confirmed reaches both parties
	// through the room fan-out with identical identifiers.
	if _, err := cl.gw.collab.Invites.Accept(req.InviterID, cl.userID); err != nil {
		cl.sendError(kindFor(err), err.Error())
	}
}

func (cl *client) handleDeclineInvitation(payload json.RawMessage) {
	var req InviteResolvePayload
	if err := json.Unmarshal(payload, &req); err != nil || req.InviterID == "" {
		cl.sendError(protocol.KindBadRequest, "decline_invitation requires inviter_id")
		return
	}

	if err := cl.gw.collab.Invites.Decline(req.InviterID, cl.userID); err != nil {
		cl.sendError(kindFor(err), err.Error())
	}
}

func (cl *client) handleJoinRoom(payload json.RawMessage) {
	var req RoomPayload
	if err := json.Unmarshal(payload, &req); err != nil || req.RoomID == "" {
		cl.sendError(protocol.KindBadRequest, "join_room requires room_id")
		return
	}

	if _, err := cl.gw.collab.Sessions.Join(req.RoomID, cl.userID); err != nil {
		cl.sendError(kindFor(err), err.Error())
		return
	}
	cl.gw.collab.Hub.JoinRoom(req.RoomID, cl.userID)
}

func (cl *client) handleLeaveRoom(payload json.RawMessage) {
	var req RoomPayload
	if err := json.Unmarshal(payload, &req); err != nil || req.RoomID == "" {
		cl.sendError(protocol.KindBadRequest, "leave_room requires room_id")
		return
	}

	cl.gw.collab.Hub.LeaveRoom(req.RoomID, cl.userID)
	if err := cl.gw.collab.Sessions.Leave(req.RoomID, cl.userID); err != nil {
		cl.sendError(kindFor(err), err.Error())
	}
}

func (cl *client) handleTimerAction(payload json.RawMessage) {
	var req TimerPayload
	if err := json.Unmarshal(payload, &req); err != nil || req.Action == "" {
		cl.sendError(protocol.KindBadRequest, "timer_action requires an action")
		return
	}

	roomID, ok := cl.resolveRoom(req.RoomID)
	if !ok {
		return
	}

	if _, err := cl.gw.collab.Timer.Apply(roomID, cl.userID, req.Action, req.State); err != nil {
		cl.sendError(kindFor(err), err.Error())
	}
}

func (cl *client) handleSendMessage(payload json.RawMessage) {
	if !cl.limiter.allow() {
		cl.sendError(protocol.KindBadRequest, "rate limit exceeded, slow down")
		return
	}

	var req MessagePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		cl.sendError(protocol.KindBadRequest, "invalid send_message payload")
		return
	}

	roomID, ok := cl.resolveRoom(req.RoomID)
	if !ok {
		return
	}

	if _, err := cl.gw.collab.Chat.Accept(roomID, cl.userID, cl.displayName, req.Content); err != nil {
		cl.sendError(kindFor(err), err.Error())
	}
}

// resolveRoom defaults an omitted room id to the sender's active session.
func (cl *client) resolveRoom(roomID string) (string, bool) {
	if roomID != "" {
		return roomID, true
	}
	s, ok := cl.gw.collab.Sessions.ActiveSessionFor(cl.userID)
	if !ok {
		cl.sendError(protocol.KindNotFound, "no active session for user")
		return "", false
	}
	return s.RoomID, true
}

func (cl *client) send(msgType string, payload any) {
	env, err := protocol.NewEnvelope(msgType, payload)
	if err != nil {
		cl.logger.Error("Failed to build frame", "type", msgType, "error", err)
		return
	}
	cl.sendEnvelope(env)
}

func (cl *client) sendError(kind, message string) {
	cl.sendEnvelope(protocol.ErrorEnvelope(kind, message))
}

func (cl *client) sendEnvelope(env protocol.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		cl.logger.Error("Failed to marshal frame", "error", err)
		return
	}
	if err := cl.handle.Send(data); err != nil {
		cl.logger.Error("Failed to send frame", "error", err)
	}
}

func (m *Module) sendRegistrationFailed(handle *presence.Handle, kind, message string) {
	env := protocol.Envelope{
		Type:  protocol.TypeRegistrationFailed,
		Error: &protocol.ErrorBody{Kind: kind, Message: message},
	}
	data, err := json.Marshal(env)
	if err != nil {
		return
	}
	_ = handle.Send(data)
}

// kindFor maps module sentinel errors to protocol error kinds.
func kindFor(err error) string {
	switch {
	case errors.Is(err, invite.ErrAlreadyPending):
		return protocol.KindAlreadyPending
	case errors.Is(err, invite.ErrInviteeOffline):
		return protocol.KindInviteeOffline
	case errors.Is(err, invite.ErrNotFound),
		errors.Is(err, session.ErrNotFound):
		return protocol.KindNotFound
	case errors.Is(err, session.ErrNotParticipant),
		errors.Is(err, chat.ErrNotInRoom),
		errors.Is(err, chat.ErrMessageEmpty),
		errors.Is(err, chat.ErrMessageTooLong),
		errors.Is(err, chat.ErrMessageInvalid),
		errors.Is(err, timer.ErrInvalidAction),
		errors.Is(err, timer.ErrInvalidMode):
		return protocol.KindBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return protocol.KindTimeout
	default:
		return protocol.KindOf(err)
	}
}
