package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cuongbtq/cleaning-scheduler/internal/api/domain"
)

// Event types double as routing keys on the topic exchange
const (
	TypeJobCreated = "job.created"
	TypeJobUpdated = "job.updated"
	TypeJobDeleted = "job.deleted"
)

// ContentType of every published event body
const ContentType = "application/json"

var (
	ErrInvalidEventID   = errors.New("event_id must be a UUID")
	ErrUnknownEventType = errors.New("unknown event type")
	ErrMissingJobID     = errors.New("job_id is required")
)

// JobEvent records one successful mutation of a job. Job holds the stored
// state after the change and is omitted for deletions.
type JobEvent struct {
	EventID    string      `json:"event_id"`
	Type       string      `json:"type"`
	JobID      string      `json:"job_id"`
	Job        *domain.Job `json:"job,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// NewJobEvent stamps a fresh event for job. job may be nil for deletions.
func NewJobEvent(eventType, jobID string, job *domain.Job) JobEvent {
	return JobEvent{
		EventID:    uuid.NewString(),
		Type:       eventType,
		JobID:      jobID,
		Job:        job,
		OccurredAt: time.Now().UTC(),
	}
}

// Validate checks the fields a consumer relies on
func (e JobEvent) Validate() error {
	if _, err := uuid.Parse(e.EventID); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidEventID, e.EventID)
	}

	switch e.Type {
	case TypeJobCreated, TypeJobUpdated, TypeJobDeleted:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEventType, e.Type)
	}

	if e.JobID == "" {
		return ErrMissingJobID
	}

	return nil
}
