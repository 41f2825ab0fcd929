package main

import (
	"context"
	"log"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"

	"github.com/aman-wadhwa/FocusSphere/modules/auth"
	"github.com/aman-wadhwa/FocusSphere/modules/broadcast"
	"github.com/aman-wadhwa/FocusSphere/modules/chat"
	"github.com/aman-wadhwa/FocusSphere/modules/gateway"
	"github.com/aman-wadhwa/FocusSphere/modules/invite"
	"github.com/aman-wadhwa/FocusSphere/modules/match"
	"github.com/aman-wadhwa/FocusSphere/modules/presence"
	"github.com/aman-wadhwa/FocusSphere/modules/session"
	"github.com/aman-wadhwa/FocusSphere/modules/stats"
	"github.com/aman-wadhwa/FocusSphere/modules/timer"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== FocusSphere - Paired Study Sessions ===")

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Create modules. Constructor injection wires the in-process collaborators;
	// the event bus and service containers are wired by the framework.
	presenceModule := presence.NewModule()
	registry := presenceModule.Registry()

	sessionModule := session.NewModule(registry)
	manager := sessionModule.Manager()

	authModule := auth.NewModule()
	inviteModule := invite.NewModule(registry, manager)
	timerModule := timer.NewModule(manager)
	chatModule := chat.NewModule(manager)
	matchModule := match.NewModule(registry)
	statsModule := stats.NewModule()
	broadcastModule := broadcast.NewModule(registry)

	gatewayModule := gateway.NewModule()
	gatewayModule.SetCollaborators(gateway.Collaborators{
		Presence: registry,
		Invites:  inviteModule.Coordinator(),
		Sessions: manager,
		Timer:    timerModule.Synchronizer(),
		Chat:     chatModule.Relay(),
		Hub:      broadcastModule.Hub(),
		Matcher:  matchModule.Matcher(),
	})

	// Register modules with the framework.
	// Order: providers first, then consumers, then the driving adapter.
	app.Register(authModule)      // Token mint + validation service
	app.Register(presenceModule)  // Connection registry + presence service
	app.Register(sessionModule)   // Session lifecycle + event emitter
	app.Register(inviteModule)    // Invitation state machine + event emitter
	app.Register(timerModule)     // Timer relay + event emitter
	app.Register(chatModule)      // Message relay + history service
	app.Register(matchModule)     // Candidate ranking service
	app.Register(statsModule)     // Study history persistence (SQLite)
	app.Register(broadcastModule) // WebSocket fan-out (event consumer)
	app.Register(gatewayModule)   // HTTP/WebSocket API

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	dbPath := os.Getenv("FOCUSSPHERE_DB_PATH")
	if dbPath == "" {
		dbPath = "focussphere.db"
	}

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("Architecture:")
	log.Println("  - HTTP Framework: Fiber with WebSocket support")
	log.Println("  - Event Bus: NATS JetStream (internal pubsub)")
	log.Printf("  - Study history: SQLite (%s)", dbPath)
	log.Println("")
	log.Println("Event-Driven Coordination:")
	log.Println("  - Invitation events -> broadcast module -> WebSocket clients")
	log.Println("  - Timer/chat events -> broadcast module -> both participants")
	log.Println("  - SessionEnded events -> stats module -> SQLite")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", port)
	log.Println("  GET    /health                       - Health check")
	log.Println("  POST   /api/v1/auth/token            - Issue a dev token")
	log.Println("  GET    /api/v1/rooms/:id/partner     - Partner lookup")
	log.Println("  GET    /api/v1/rooms/:id/history     - Chat history")
	log.Println("  GET    /api/v1/sessions/:id          - Session details")
	log.Println("  GET    /api/v1/users/:id/online      - Presence check")
	log.Println("  GET    /api/v1/users/:id/stats       - Study history")
	log.Println("  GET    /api/v1/match/candidates      - Partner suggestions")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost:%s/ws):", port)
	log.Println("  First frame must be register_connection with a bearer token")
	log.Println("  Message types: register_connection, issue_invitation, accept_invitation,")
	log.Println("                 decline_invitation, join_room, leave_room, timer_action, send_message")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
