package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/cuongbtq/cleaning-scheduler/internal/events"
)

// DefaultListLimit caps ListEvents when the caller passes a non-positive limit
const DefaultListLimit = 100

const schema = `
CREATE TABLE IF NOT EXISTS job_events (
	event_id    UUID PRIMARY KEY,
	event_type  TEXT        NOT NULL,
	job_id      TEXT        NOT NULL,
	payload     JSONB,
	occurred_at TIMESTAMPTZ NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_job_events_job_id_occurred_at
	ON job_events (job_id, occurred_at DESC);
`

// Entry is one recorded job event
type Entry struct {
	EventID    string    `db:"event_id"`
	EventType  string    `db:"event_type"`
	JobID      string    `db:"job_id"`
	Payload    []byte    `db:"payload"`
	OccurredAt time.Time `db:"occurred_at"`
	RecordedAt time.Time `db:"recorded_at"`
}

// Repository stores the audit trail of job mutations in PostgreSQL
type Repository struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewRepository creates a new Repository instance
func NewRepository(db *sqlx.DB, logger *slog.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// EnsureSchema creates the job_events table and its index if missing
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create job_events schema: %w", err)
	}
	return nil
}

// RecordEvent inserts event. Redelivered events with a known event_id are
// ignored and reported as not inserted.
func (r *Repository) RecordEvent(ctx context.Context, event events.JobEvent) (bool, error) {
	query := `
		INSERT INTO job_events (event_id, event_type, job_id, payload, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (event_id) DO NOTHING
	`

	var payload []byte
	if event.Job != nil {
		var err error
		payload, err = json.Marshal(event.Job)
		if err != nil {
			return false, fmt.Errorf("failed to marshal job snapshot: %w", err)
		}
	}

	result, err := r.db.ExecContext(ctx, query, event.EventID, event.Type, event.JobID, payload, event.OccurredAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert job event: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		r.logger.Info("Job event already recorded",
			slog.String("event_id", event.EventID),
			slog.String("job_id", event.JobID),
		)
		return false, nil
	}

	return true, nil
}

// ListEvents returns up to limit events for jobID, newest first.
//
// Job ids are reused once the highest id is deleted, so only events from the
// latest job.created for jobID onwards are returned. Ids with no recorded
// creation return everything stored for them.
func (r *Repository) ListEvents(ctx context.Context, jobID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `
		SELECT event_id, event_type, job_id, payload, occurred_at, recorded_at
		FROM job_events
		WHERE job_id = $1
		  AND occurred_at >= COALESCE(
			(SELECT MAX(occurred_at) FROM job_events WHERE job_id = $1 AND event_type = $2),
			'-infinity'::timestamptz
		  )
		ORDER BY occurred_at DESC, recorded_at DESC
		LIMIT $3
	`

	entries := []Entry{}
	if err := r.db.SelectContext(ctx, &entries, query, jobID, events.TypeJobCreated, limit); err != nil {
		return nil, fmt.Errorf("failed to list job events: %w", err)
	}

	return entries, nil
}
