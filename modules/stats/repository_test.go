package stats

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to open test database")
	require.NoError(t, db.AutoMigrate(&SessionRecord{}), "failed to migrate test database")

	return db
}

func makeRecord(a, b string, pomodoros int, duration time.Duration) *SessionRecord {
	ended := time.Now().Truncate(time.Second)
	return &SessionRecord{
		SessionID:     uuid.New().String(),
		RoomID:        uuid.New().String()[:8],
		ParticipantA:  a,
		ParticipantB:  b,
		StartedAt:     ended.Add(-duration),
		EndedAt:       ended,
		PomodoroCount: pomodoros,
	}
}

func TestRepository_Record(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	record := makeRecord("alice", "bob", 3, 50*time.Minute)

	require.NoError(t, repo.Record(record))

	found, err := repo.FindBySessionID(record.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 3, found.PomodoroCount)
	assert.Equal(t, "alice", found.ParticipantA)
	assert.Equal(t, "bob", found.ParticipantB)
}

func TestRepository_RecordIsIdempotent(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	record := makeRecord("alice", "bob", 3, 50*time.Minute)

	require.NoError(t, repo.Record(record))

	// A redelivered event must not overwrite or duplicate.
	dup := *record
	dup.PomodoroCount = 99
	require.NoError(t, repo.Record(&dup), "duplicate Record() should be a no-op success")

	found, err := repo.FindBySessionID(record.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 3, found.PomodoroCount, "original row must survive redelivery")

	totals, err := repo.TotalsForUser("alice")
	require.NoError(t, err)
	assert.EqualValues(t, 1, totals.Sessions)
}

func TestRepository_FindBySessionIDNotFound(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	_, err := repo.FindBySessionID("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_TotalsForUser(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	// Alice appears on both sides of different sessions.
	records := []*SessionRecord{
		makeRecord("alice", "bob", 2, 30*time.Minute),
		makeRecord("carol", "alice", 1, 15*time.Minute),
		makeRecord("bob", "carol", 5, time.Hour),
	}
	for _, r := range records {
		require.NoError(t, repo.Record(r))
	}

	totals, err := repo.TotalsForUser("alice")
	require.NoError(t, err)

	assert.EqualValues(t, 2, totals.Sessions)
	assert.EqualValues(t, 3, totals.Pomodoros)
	wantSeconds := int64((30*time.Minute + 15*time.Minute) / time.Second)
	// julianday arithmetic can land one second off.
	assert.InDelta(t, wantSeconds, totals.TotalSeconds, 2)
}

func TestRepository_TotalsForUnknownUserIsZero(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	totals, err := repo.TotalsForUser("nobody")
	require.NoError(t, err)
	assert.EqualValues(t, 0, totals.Sessions)
	assert.EqualValues(t, 0, totals.Pomodoros)
	assert.EqualValues(t, 0, totals.TotalSeconds)
}

func TestRepository_RecentForUser(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	base := time.Now().Truncate(time.Second)
	for i := 0; i < 5; i++ {
		r := makeRecord("alice", "bob", i, 10*time.Minute)
		r.EndedAt = base.Add(time.Duration(i) * time.Hour)
		r.StartedAt = r.EndedAt.Add(-10 * time.Minute)
		require.NoError(t, repo.Record(r))
	}

	recent, err := repo.RecentForUser("alice", 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	// Newest first.
	assert.Equal(t, 4, recent[0].PomodoroCount)
	assert.Equal(t, 2, recent[2].PomodoroCount)
}

func TestModule_UserStatsHandler(t *testing.T) {
	mod := &Module{repo: NewRepository(setupTestDB(t))}
	require.NoError(t, mod.repo.Record(makeRecord("alice", "bob", 2, 25*time.Minute)))

	resp, err := mod.handleUserStats(context.Background(), UserStatsRequest{UserID: "alice", RecentLimit: 5}, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, resp.Totals.Sessions)
	assert.EqualValues(t, 2, resp.Totals.Pomodoros)
	require.Len(t, resp.Recent, 1)
	assert.Equal(t, "bob", resp.Recent[0].ParticipantB)
}
