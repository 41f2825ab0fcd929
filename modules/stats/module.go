package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/aman-wadhwa/FocusSphere/events"
)

// Module persists ended sessions via GORM + SQLite. It is a write-only sink
// from the core's perspective: it consumes SessionEnded events and answers
// aggregate queries, and nothing in the live session path depends on it.
type Module struct {
	db     *gorm.DB
	repo   *Repository
	dbPath string
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventConsumerModule   = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new stats module.
func NewModule() *Module {
	dbPath := os.Getenv("FOCUSSPHERE_DB_PATH")
	if dbPath == "" {
		dbPath = "focussphere.db"
	}
	return &Module{dbPath: dbPath}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "stats"
}

// Start initializes the database connection and runs migrations.
func (m *Module) Start(_ context.Context) error {
	log.Printf("[stats] Connecting to SQLite database: %s", m.dbPath)

	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "true" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	m.db = db

	if err := m.db.AutoMigrate(&SessionRecord{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	m.repo = NewRepository(m.db)

	log.Println("[stats] Module started")
	return nil
}

// Stop gracefully closes the database connection.
func (m *Module) Stop(_ context.Context) error {
	if m.db == nil {
		return nil
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	log.Println("[stats] Module stopped")
	return nil
}

// Health performs a health check on the stats module.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get sql.DB: %v", err),
		}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver": "sqlite",
			"path":   m.dbPath,
		},
	}
}

// RegisterEventConsumers subscribes the persistence sink.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry,
		events.SessionEndedV1,
		m.handleSessionEnded,
		m,
	); err != nil {
		return fmt.Errorf("failed to register SessionEnded consumer: %w", err)
	}
	return nil
}

func (m *Module) handleSessionEnded(_ context.Context, event events.SessionEndedEvent, _ *mono.Msg) error {
	record := &SessionRecord{
		SessionID:     event.SessionID,
		RoomID:        event.RoomID,
		StartedAt:     event.StartedAt,
		EndedAt:       event.EndedAt,
		PomodoroCount: event.PomodoroCount,
	}
	if len(event.Participants) > 0 {
		record.ParticipantA = event.Participants[0]
	}
	if len(event.Participants) > 1 {
		record.ParticipantB = event.Participants[1]
	}

	if err := m.repo.Record(record); err != nil {
		log.Printf("[stats] Failed to record session %s: %v", event.SessionID, err)
		return err
	}
	return nil
}

// RegisterServices exposes the aggregate queries to other modules.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	return helper.RegisterTypedRequestReplyService(
		container,
		"user-stats",
		json.Unmarshal,
		json.Marshal,
		m.handleUserStats,
	)
}

func (m *Module) handleUserStats(_ context.Context, req UserStatsRequest, _ *mono.Msg) (UserStatsResponse, error) {
	totals, err := m.repo.TotalsForUser(req.UserID)
	if err != nil {
		return UserStatsResponse{}, err
	}
	recent, err := m.repo.RecentForUser(req.UserID, req.RecentLimit)
	if err != nil {
		return UserStatsResponse{}, err
	}
	resp := UserStatsResponse{Totals: *totals}
	for _, r := range recent {
		resp.Recent = append(resp.Recent, *r)
	}
	return resp, nil
}

// Repo returns the repository; nil before Start.
func (m *Module) Repo() *Repository {
	return m.repo
}
