package history

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuongbtq/cleaning-scheduler/internal/api/domain"
	"github.com/cuongbtq/cleaning-scheduler/internal/events"
)

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRepository(sqlx.NewDb(db, "postgres"), logger), mock
}

func TestRepository_EnsureSchema(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS job_events")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_RecordEvent(t *testing.T) {
	job := &domain.Job{JobID: "4", CustomerName: "Ana"}
	event := events.NewJobEvent(events.TypeJobCreated, "4", job)

	tests := []struct {
		name         string
		event        events.JobEvent
		rowsAffected int64
		execErr      error
		wantInserted bool
		wantErr      bool
	}{
		{name: "new event", event: event, rowsAffected: 1, wantInserted: true},
		{name: "duplicate event", event: event, rowsAffected: 0, wantInserted: false},
		{name: "delete event without snapshot", event: events.NewJobEvent(events.TypeJobDeleted, "4", nil), rowsAffected: 1, wantInserted: true},
		{name: "database error", event: event, execErr: errors.New("connection refused"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepository(t)

			exec := mock.ExpectExec(regexp.QuoteMeta("INSERT INTO job_events")).
				WithArgs(tt.event.EventID, tt.event.Type, tt.event.JobID, sqlmock.AnyArg(), sqlmock.AnyArg())
			if tt.execErr != nil {
				exec.WillReturnError(tt.execErr)
			} else {
				exec.WillReturnResult(sqlmock.NewResult(0, tt.rowsAffected))
			}

			inserted, err := repo.RecordEvent(context.Background(), tt.event)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.execErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantInserted, inserted)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_ListEvents(t *testing.T) {
	repo, mock := newMockRepository(t)

	occurred := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"event_id", "event_type", "job_id", "payload", "occurred_at", "recorded_at"}).
		AddRow("b3c1f9a2-1d4e-4f6a-9c1b-2e3d4f5a6b7c", events.TypeJobUpdated, "4", []byte(`{"job_id":"4"}`), occurred.Add(time.Hour), occurred.Add(time.Hour)).
		AddRow("a1b2c3d4-0000-4000-8000-000000000001", events.TypeJobCreated, "4", []byte(`{"job_id":"4"}`), occurred, occurred)

	mock.ExpectQuery(regexp.QuoteMeta("FROM job_events")).
		WithArgs("4", events.TypeJobCreated, 20).
		WillReturnRows(rows)

	entries, err := repo.ListEvents(context.Background(), "4", 20)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, events.TypeJobUpdated, entries[0].EventType)
	assert.Equal(t, events.TypeJobCreated, entries[1].EventType)
	assert.JSONEq(t, `{"job_id":"4"}`, string(entries[1].Payload))
	assert.True(t, entries[1].OccurredAt.Equal(occurred))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListEvents_DefaultLimit(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM job_events")).
		WithArgs("9", events.TypeJobCreated, DefaultListLimit).
		WillReturnRows(sqlmock.NewRows([]string{"event_id", "event_type", "job_id", "payload", "occurred_at", "recorded_at"}))

	entries, err := repo.ListEvents(context.Background(), "9", 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NotNil(t, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListEvents_Error(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM job_events")).
		WillReturnError(errors.New("relation does not exist"))

	entries, err := repo.ListEvents(context.Background(), "1", 10)
	require.Error(t, err)
	assert.Nil(t, entries)
}

func TestRepository_ListEvents_ReusedID(t *testing.T) {
	repo, mock := newMockRepository(t)

	// job "3" was deleted and a new job then received id "3"
	recreated := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"event_id", "event_type", "job_id", "payload", "occurred_at", "recorded_at"}).
		AddRow("c0ffee00-0000-4000-8000-000000000003", events.TypeJobCreated, "3", []byte(`{"job_id":"3","customer_name":"New"}`), recreated, recreated)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT MAX(occurred_at) FROM job_events WHERE job_id = $1 AND event_type = $2")).
		WithArgs("3", events.TypeJobCreated, 50).
		WillReturnRows(rows)

	entries, err := repo.ListEvents(context.Background(), "3", 50)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, events.TypeJobCreated, entries[0].EventType)
	assert.JSONEq(t, `{"job_id":"3","customer_name":"New"}`, string(entries[0].Payload))
	assert.NoError(t, mock.ExpectationsWereMet())
}
