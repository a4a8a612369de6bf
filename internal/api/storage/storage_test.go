package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"sync"
	"testing"

	"github.com/cuongbtq/cleaning-scheduler/internal/api/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memTable mimics a sheet: rows[0] sits at FirstDataRow.
type memTable struct {
	mu        sync.Mutex
	rows      [][]string
	readErr   error
	writeErr  error
	writes    []int
	deletions []int
}

func newMemTable(ids ...string) *memTable {
	t := &memTable{}
	for _, id := range ids {
		t.rows = append(t.rows, EncodeRow(domain.Job{
			JobID:        id,
			ServiceType:  domain.ServiceResidential,
			CustomerName: "Customer " + id,
			Address:      id + " Main St",
			Phone:        "555-000" + id,
			JobStatus:    domain.JobStatusPending,
		}))
	}
	return t
}

func (t *memTable) ReadRows(ctx context.Context) ([][]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.readErr != nil {
		return nil, t.readErr
	}
	out := make([][]string, len(t.rows))
	for i, r := range t.rows {
		out[i] = append([]string(nil), r...)
	}
	return out, nil
}

func (t *memTable) AppendRow(ctx context.Context, row []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.writeErr != nil {
		return t.writeErr
	}
	t.rows = append(t.rows, append([]string(nil), row...))
	return nil
}

func (t *memTable) WriteRow(ctx context.Context, position int, row []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.writeErr != nil {
		return t.writeErr
	}
	idx := position - FirstDataRow
	if idx < 0 || idx >= len(t.rows) {
		return fmt.Errorf("row %d out of range", position)
	}
	t.rows[idx] = append([]string(nil), row...)
	t.writes = append(t.writes, position)
	return nil
}

func (t *memTable) DeleteRow(ctx context.Context, position int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.writeErr != nil {
		return t.writeErr
	}
	idx := position - FirstDataRow
	if idx < 0 || idx >= len(t.rows) {
		return fmt.Errorf("row %d out of range", position)
	}
	t.rows = append(t.rows[:idx], t.rows[idx+1:]...)
	t.deletions = append(t.deletions, position)
	return nil
}

func (t *memTable) ids() []string {
	ids := make([]string, len(t.rows))
	for i, r := range t.rows {
		ids[i] = r[0]
	}
	return ids
}

func newTestStorage(table *memTable) *Storage {
	return NewStorage(table, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newJob(name string) domain.Job {
	return domain.Job{
		ServiceType:   domain.ServiceDeepClean,
		CustomerName:  name,
		Address:       "12 High St",
		Phone:         "555-0199",
		JobStatus:     domain.JobStatusPending,
		PaymentStatus: domain.PaymentStatusUnpaid,
	}
}

func strPtr(s string) *string { return &s }

func TestStorage_CreateJob_SequentialIDs(t *testing.T) {
	table := newMemTable()
	s := newTestStorage(table)
	ctx := context.Background()

	for i, want := range []string{"1", "2", "3", "4"} {
		job, err := s.CreateJob(ctx, newJob(fmt.Sprintf("customer %d", i)))
		require.NoError(t, err)
		assert.Equal(t, want, job.JobID)
	}

	assert.Equal(t, []string{"1", "2", "3", "4"}, table.ids())
}

func TestStorage_CreateJob_AssignsMaxPlusOne(t *testing.T) {
	tests := []struct {
		name string
		ids  []string
		want string
	}{
		{name: "empty store", ids: nil, want: "1"},
		{name: "gaps after manual deletions", ids: []string{"1", "2", "5"}, want: "6"},
		{name: "unordered ids", ids: []string{"9", "3", "4"}, want: "10"},
		{name: "non-numeric ids count as zero", ids: []string{"abc", "", "x7"}, want: "1"},
		{name: "mixed ids", ids: []string{"abc", "4", "02"}, want: "5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStorage(newMemTable(tt.ids...))

			job, err := s.CreateJob(context.Background(), newJob("Dana"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, job.JobID)
		})
	}
}

func TestStorage_CreateJob_MaxIntID(t *testing.T) {
	table := newMemTable("1", strconv.Itoa(math.MaxInt))
	s := newTestStorage(table)

	job, err := s.CreateJob(context.Background(), newJob("Finn"))
	require.Error(t, err)
	assert.Nil(t, job)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Len(t, table.rows, 2)
}

func TestStorage_CreateJob_IgnoresClientID(t *testing.T) {
	table := newMemTable("1")
	s := newTestStorage(table)

	input := newJob("Eve")
	input.JobID = "999"

	job, err := s.CreateJob(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "2", job.JobID)
	assert.Equal(t, "Eve", job.CustomerName)
	assert.Equal(t, EncodeRow(*job), table.rows[1])
}

func TestStorage_CreateJob_Concurrent(t *testing.T) {
	table := newMemTable()
	s := newTestStorage(table)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.CreateJob(context.Background(), newJob(fmt.Sprintf("c%d", i)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, id := range table.ids() {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, 20)
}

func TestStorage_ListJobs(t *testing.T) {
	table := newMemTable("3", "1", "2")
	table.rows = append(table.rows, []string{}, []string{"  "})
	s := newTestStorage(table)

	jobs, err := s.ListJobs(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 3)

	assert.Equal(t, "3", jobs[0].JobID)
	assert.Equal(t, "1", jobs[1].JobID)
	assert.Equal(t, "2", jobs[2].JobID)
}

func TestStorage_ListJobs_StoreUnavailable(t *testing.T) {
	table := newMemTable()
	table.readErr = errors.New("403 permission denied")
	s := newTestStorage(table)

	jobs, err := s.ListJobs(context.Background())
	require.Error(t, err)
	assert.Nil(t, jobs)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "403 permission denied")
}

func TestStorage_UpdateJob(t *testing.T) {
	table := newMemTable("1", "2", "3")
	before := table.ids()
	row1 := append([]string(nil), table.rows[0]...)
	row3 := append([]string(nil), table.rows[2]...)
	s := newTestStorage(table)

	job, err := s.UpdateJob(context.Background(), "2", domain.JobUpdate{
		JobStatus: strPtr(domain.JobStatusCompleted),
	})
	require.NoError(t, err)
	require.NotNil(t, job)

	assert.Equal(t, "2", job.JobID)
	assert.Equal(t, domain.JobStatusCompleted, job.JobStatus)
	assert.Equal(t, "Customer 2", job.CustomerName)

	assert.Equal(t, []int{3}, table.writes)
	assert.Equal(t, before, table.ids())
	assert.Equal(t, row1, table.rows[0])
	assert.Equal(t, row3, table.rows[2])
	assert.Equal(t, EncodeRow(*job), table.rows[1])
}

func TestStorage_UpdateJob_TrimsID(t *testing.T) {
	table := newMemTable("1", "2")
	s := newTestStorage(table)

	job, err := s.UpdateJob(context.Background(), "  2 ", domain.JobUpdate{Price: strPtr("120")})
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, "120", job.Price)
	assert.Equal(t, []int{3}, table.writes)
}

func TestStorage_UpdateJob_NotFound(t *testing.T) {
	tests := []struct {
		name  string
		jobID string
	}{
		{name: "absent id", jobID: "42"},
		{name: "leading zero is a different id", jobID: "01"},
		{name: "blank id", jobID: "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := newMemTable("1", "2")
			s := newTestStorage(table)

			job, err := s.UpdateJob(context.Background(), tt.jobID, domain.JobUpdate{Notes: strPtr("x")})
			require.NoError(t, err)
			assert.Nil(t, job)
			assert.Empty(t, table.writes)
		})
	}
}

func TestStorage_UpdateJob_WriteFails(t *testing.T) {
	table := newMemTable("1")
	table.writeErr = errors.New("quota exceeded")
	s := newTestStorage(table)

	job, err := s.UpdateJob(context.Background(), "1", domain.JobUpdate{Notes: strPtr("x")})
	require.Error(t, err)
	assert.Nil(t, job)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestStorage_DeleteJob(t *testing.T) {
	table := newMemTable("1", "2", "3")
	row1 := append([]string(nil), table.rows[0]...)
	row3 := append([]string(nil), table.rows[2]...)
	s := newTestStorage(table)

	deleted, err := s.DeleteJob(context.Background(), "2")
	require.NoError(t, err)
	assert.True(t, deleted)

	assert.Equal(t, []int{3}, table.deletions)
	assert.Equal(t, []string{"1", "3"}, table.ids())
	assert.Equal(t, row1, table.rows[0])
	// "3" now sits at row 3, the position "2" used to occupy
	assert.Equal(t, row3, table.rows[1])

	jobs, err := s.ListJobs(context.Background())
	require.NoError(t, err)
	for _, j := range jobs {
		assert.NotEqual(t, "2", j.JobID)
	}
}

func TestStorage_BlankRowsKeepPositions(t *testing.T) {
	newTable := func() *memTable {
		table := newMemTable("1")
		table.rows = append(table.rows, []string{}, EncodeRow(domain.Job{JobID: "2", CustomerName: "Gus"}))
		return table
	}

	t.Run("update", func(t *testing.T) {
		table := newTable()
		s := newTestStorage(table)

		job, err := s.UpdateJob(context.Background(), "2", domain.JobUpdate{Notes: strPtr("gate code 1234")})
		require.NoError(t, err)
		require.NotNil(t, job)
		assert.Equal(t, []int{4}, table.writes)
		assert.Equal(t, "gate code 1234", DecodeRow(table.rows[2]).Notes)
		assert.Empty(t, table.rows[1])
	})

	t.Run("delete", func(t *testing.T) {
		table := newTable()
		s := newTestStorage(table)

		deleted, err := s.DeleteJob(context.Background(), "2")
		require.NoError(t, err)
		assert.True(t, deleted)
		assert.Equal(t, []int{4}, table.deletions)
		require.Len(t, table.rows, 2)
		assert.Empty(t, table.rows[1])
	})
}

func TestStorage_DeleteMaxThenCreateReusesID(t *testing.T) {
	table := newMemTable("1", "2", "3")
	s := newTestStorage(table)

	deleted, err := s.DeleteJob(context.Background(), "3")
	require.NoError(t, err)
	require.True(t, deleted)

	job, err := s.CreateJob(context.Background(), newJob("Hana"))
	require.NoError(t, err)
	assert.Equal(t, "3", job.JobID)
}

func TestStorage_DeleteJob_NotFound(t *testing.T) {
	table := newMemTable("1", "2")
	s := newTestStorage(table)

	deleted, err := s.DeleteJob(context.Background(), "7")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Empty(t, table.deletions)
	assert.Equal(t, []string{"1", "2"}, table.ids())
}

func TestStorage_DeleteJob_StoreUnavailable(t *testing.T) {
	table := newMemTable("1")
	table.writeErr = errors.New("backend error")
	s := newTestStorage(table)

	deleted, err := s.DeleteJob(context.Background(), "1")
	require.Error(t, err)
	assert.False(t, deleted)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestStorage_GetJobByID(t *testing.T) {
	s := newTestStorage(newMemTable("1", "7", "12"))
	ctx := context.Background()

	job, err := s.GetJobByID(ctx, "7")
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, "Customer 7", job.CustomerName)

	job, err = s.GetJobByID(ctx, "07")
	require.NoError(t, err)
	assert.Nil(t, job)

	job, err = s.GetJobByID(ctx, "99")
	require.NoError(t, err)
	assert.Nil(t, job)
}
