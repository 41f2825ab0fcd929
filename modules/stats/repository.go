package stats

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when no record exists for a session.
var ErrNotFound = errors.New("session record not found")

// Repository provides access to session record storage.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new stats repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Record persists a session outcome. Inserting an already-recorded session
// id is a no-op, so event redelivery cannot double-count.
func (r *Repository) Record(record *SessionRecord) error {
	err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(record).Error
	if err != nil {
		return fmt.Errorf("failed to record session: %w", err)
	}
	return nil
}

// FindBySessionID retrieves a session record by its id.
func (r *Repository) FindBySessionID(sessionID string) (*SessionRecord, error) {
	var record SessionRecord
	if err := r.db.First(&record, "session_id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find session record: %w", err)
	}
	return &record, nil
}

// TotalsForUser aggregates a user's sessions, pomodoros and studied time.
// A user with no history gets zero totals, not an error.
func (r *Repository) TotalsForUser(userID string) (*UserTotals, error) {
	var row struct {
		Sessions     int64
		Pomodoros    int64
		TotalSeconds int64
	}

	err := r.db.Model(&SessionRecord{}).
		Select(
			"COUNT(*) AS sessions, "+
				"COALESCE(SUM(pomodoro_count), 0) AS pomodoros, "+
				"COALESCE(SUM(CAST((julianday(ended_at) - julianday(started_at)) * 86400 AS INTEGER)), 0) AS total_seconds",
		).
		Where("participant_a = ? OR participant_b = ?", userID, userID).
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate totals: %w", err)
	}

	return &UserTotals{
		UserID:       userID,
		Sessions:     row.Sessions,
		Pomodoros:    row.Pomodoros,
		TotalSeconds: row.TotalSeconds,
	}, nil
}

// RecentForUser returns a user's most recent session records, newest first.
func (r *Repository) RecentForUser(userID string, limit int) ([]*SessionRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var records []*SessionRecord
	err := r.db.
		Where("participant_a = ? OR participant_b = ?", userID, userID).
		Order("ended_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list session records: %w", err)
	}
	return records, nil
}
