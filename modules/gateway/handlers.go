package gateway

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/aman-wadhwa/FocusSphere/modules/auth"
	"github.com/aman-wadhwa/FocusSphere/modules/session"
)

// handleHealth handles health check requests (GET /health).
func (m *Module) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":       "healthy",
		"service":      "focussphere",
		"online_users": m.collab.Presence.Count(),
	})
}

// handleIssueToken mints a development credential (POST /api/v1/auth/token).
// There is no account store; the caller names their own identity.
func (m *Module) handleIssueToken(c *fiber.Ctx) error {
	var req TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request body",
		})
	}
	if req.UserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "user_id is required",
		})
	}
	if req.DisplayName == "" {
		req.DisplayName = req.UserID
	}

	token, err := m.authPort.IssueToken(c.UserContext(), req.UserID, req.DisplayName)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "server_error",
			Message: "Failed to issue token",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(TokenResponse{Token: token})
}

// handleGetPartner handles partner lookup (GET /api/v1/rooms/:id/partner).
// Returns 404 while the session is not yet queryable; clients poll with
// backoff after match confirmation.
func (m *Module) handleGetPartner(c *fiber.Ctx) error {
	identity, ok := c.Locals(UserContextKey).(auth.Identity)
	if !ok {
		return fiber.ErrUnauthorized
	}

	partner, err := m.sessionPort.GetPartner(c.UserContext(), c.Params("id"), identity.UserID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Error:   "not_found",
				Message: "No session for this room yet; retry shortly",
			})
		}
		return fiber.ErrInternalServerError
	}
	return c.JSON(partner)
}

// handleRoomHistory handles chat history lookup (GET /api/v1/rooms/:id/history).
func (m *Module) handleRoomHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit > 100 {
		limit = 100
	}

	messages, err := m.historyPort.GetHistory(c.UserContext(), c.Params("id"), limit)
	if err != nil {
		return fiber.ErrInternalServerError
	}
	return c.JSON(fiber.Map{
		"room_id":  c.Params("id"),
		"messages": messages,
		"total":    len(messages),
	})
}

// handleGetSession handles session lookup (GET /api/v1/sessions/:id).
func (m *Module) handleGetSession(c *fiber.Ctx) error {
	s, err := m.sessionPort.GetSession(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Error:   "not_found",
				Message: "Session not found",
			})
		}
		return fiber.ErrInternalServerError
	}
	return c.JSON(s)
}

// handleIsOnline handles presence queries (GET /api/v1/users/:id/online).
func (m *Module) handleIsOnline(c *fiber.Ctx) error {
	online, err := m.presencePort.IsOnline(c.UserContext(), c.Params("id"))
	if err != nil {
		return fiber.ErrInternalServerError
	}
	return c.JSON(fiber.Map{
		"user_id": c.Params("id"),
		"online":  online,
	})
}

// handleUserStats handles study-history lookup (GET /api/v1/users/:id/stats).
func (m *Module) handleUserStats(c *fiber.Ctx) error {
	resp, err := m.statsPort.UserStats(c.UserContext(), c.Params("id"), c.QueryInt("recent", 10))
	if err != nil {
		return fiber.ErrInternalServerError
	}
	return c.JSON(resp)
}

// handleFindCandidates handles candidate ranking (GET /api/v1/match/candidates).
func (m *Module) handleFindCandidates(c *fiber.Ctx) error {
	identity, ok := c.Locals(UserContextKey).(auth.Identity)
	if !ok {
		return fiber.ErrUnauthorized
	}

	goal := c.Query("goal")
	if goal == "" {
		goal = m.collab.Matcher.Goal(identity.UserID)
	}

	candidates, err := m.matchPort.FindCandidates(c.UserContext(), identity.UserID, goal, c.QueryInt("limit", 10))
	if err != nil {
		return fiber.ErrInternalServerError
	}
	return c.JSON(fiber.Map{
		"candidates": candidates,
		"total":      len(candidates),
	})
}
