package gateway

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-monolith/mono"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/aman-wadhwa/FocusSphere/modules/auth"
	"github.com/aman-wadhwa/FocusSphere/modules/broadcast"
	"github.com/aman-wadhwa/FocusSphere/modules/chat"
	"github.com/aman-wadhwa/FocusSphere/modules/invite"
	"github.com/aman-wadhwa/FocusSphere/modules/match"
	"github.com/aman-wadhwa/FocusSphere/modules/presence"
	"github.com/aman-wadhwa/FocusSphere/modules/session"
	"github.com/aman-wadhwa/FocusSphere/modules/stats"
	"github.com/aman-wadhwa/FocusSphere/modules/timer"
)

// Collaborators are the hot-path pieces the websocket loop calls directly;
// a socket frame must not pay a request-reply round trip per dispatch. The
// REST surface goes through service-container adapters instead.
type Collaborators struct {
	Presence *presence.Registry
	Invites  *invite.Coordinator
	Sessions *session.Manager
	Timer    *timer.Synchronizer
	Chat     *chat.Relay
	Hub      *broadcast.Hub
	Matcher  *match.OnlineMatcher
}

// Module is the connection gateway: the websocket endpoint plus the REST
// query surface.
type Module struct {
	app    *fiber.App
	port   string
	collab Collaborators

	authPort     auth.AuthPort
	sessionPort  session.SessionPort
	presencePort presence.PresencePort
	matchPort    match.MatchPort
	statsPort    stats.StatsPort
	historyPort  chat.HistoryPort
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.DependentModule       = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new gateway module.
func NewModule() *Module {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	return &Module{port: port}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "gateway"
}

// Dependencies returns the list of module dependencies.
func (m *Module) Dependencies() []string {
	return []string{"auth", "presence", "session", "match", "stats", "chat"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *Module) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.authPort = auth.NewAuthAdapter(container)
	case "presence":
		m.presencePort = presence.NewPresenceAdapter(container)
	case "session":
		m.sessionPort = session.NewSessionAdapter(container)
	case "match":
		m.matchPort = match.NewMatchAdapter(container)
	case "stats":
		m.statsPort = stats.NewStatsAdapter(container)
	case "chat":
		m.historyPort = chat.NewHistoryAdapter(container)
	}
}

// SetCollaborators wires the direct references (called from main.go).
func (m *Module) SetCollaborators(c Collaborators) {
	m.collab = c
}

// Start initializes the Fiber server.
func (m *Module) Start(_ context.Context) error {
	if m.authPort == nil {
		return fmt.Errorf("auth adapter dependency not set")
	}
	if m.collab.Presence == nil || m.collab.Invites == nil || m.collab.Sessions == nil ||
		m.collab.Timer == nil || m.collab.Chat == nil || m.collab.Hub == nil || m.collab.Matcher == nil {
		return fmt.Errorf("gateway collaborators not set")
	}

	m.app = fiber.New(fiber.Config{
		AppName:               "FocusSphere",
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          60 * time.Second,
		IdleTimeout:           120 * time.Second,
	})

	m.app.Use(recover.New())
	m.app.Use(loggerMiddleware())

	allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:8080"
	}
	m.app.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))

	m.setupRoutes()

	go func() {
		if err := m.app.Listen(":" + m.port); err != nil {
			log.Printf("[gateway] HTTP server error: %v", err)
		}
	}()

	log.Printf("[gateway] Server started on :%s", m.port)
	return nil
}

// Stop shuts down the Fiber server.
func (m *Module) Stop(ctx context.Context) error {
	if m.app == nil {
		return nil
	}
	log.Println("[gateway] Shutting down server...")
	return m.app.ShutdownWithContext(ctx)
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"port":         m.port,
			"online_users": m.collab.Presence.Count(),
		},
	}
}

// setupRoutes registers the websocket endpoint and the REST surface.
func (m *Module) setupRoutes() {
	m.app.Get("/health", m.handleHealth)

	m.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	m.app.Get("/ws", websocket.New(m.HandleSocket))

	api := m.app.Group("/api/v1")
	api.Post("/auth/token", m.handleIssueToken)

	protected := api.Group("", AuthMiddleware(m.authPort))
	protected.Get("/rooms/:id/partner", m.handleGetPartner)
	protected.Get("/rooms/:id/history", m.handleRoomHistory)
	protected.Get("/sessions/:id", m.handleGetSession)
	protected.Get("/users/:id/online", m.handleIsOnline)
	protected.Get("/users/:id/stats", m.handleUserStats)
	protected.Get("/match/candidates", m.handleFindCandidates)
}

// customErrorHandler handles Fiber errors.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   "server_error",
		Message: message,
	})
}

// loggerMiddleware returns a Fiber middleware for request logging.
func loggerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Skip logging for WebSocket upgrade requests
		if c.Get("Upgrade") == "websocket" {
			return c.Next()
		}
		err := c.Next()
		log.Printf("[gateway] %s %s %d", c.Method(), c.Path(), c.Response().StatusCode())
		return err
	}
}
