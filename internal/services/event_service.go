package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/kochbuch-be/internal/models"
	"github.com/pkg/errors"
)

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	CreateEvent(ctx context.Context, eventType, level, message string, userID *string) error
	GetRecentEventsForUser(ctx context.Context, userID string, limit int) ([]models.Event, error)
	PruneEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// EventService records account activity.
type EventService struct {
	store
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB, timeout time.Duration) *EventService {
	return &EventService{store{db: db, timeout: timeout}}
}

// CreateEvent logs a new event to the database.
func (s *EventService) CreateEvent(ctx context.Context, eventType, level, message string, userID *string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO events (id, type, level, message, user_id, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		uuid.NewString(), eventType, level, message, userID, time.Now().UTC())
	return errors.Wrap(err, "insert event")
}

// GetRecentEventsForUser retrieves the most recent events of one account.
func (s *EventService) GetRecentEventsForUser(ctx context.Context, userID string, limit int) ([]models.Event, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, level, message, user_id, created_at FROM events
		WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query events")
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var event models.Event
		if err := rows.Scan(&event.ID, &event.Type, &event.Level, &event.Message, &event.UserID, &event.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan event")
		}
		events = append(events, event)
	}
	return events, errors.Wrap(rows.Err(), "iterate events")
}

// PruneEventsBefore deletes events created before cutoff and reports how many
// were removed.
func (s *EventService) PruneEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx, "DELETE FROM events WHERE created_at < ?", cutoff.UTC())
	if err != nil {
		return 0, errors.Wrap(err, "prune events")
	}
	return res.RowsAffected()
}
