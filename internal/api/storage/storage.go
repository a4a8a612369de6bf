package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cuongbtq/cleaning-scheduler/internal/api/domain"
	"github.com/cuongbtq/cleaning-scheduler/internal/metrics"
)

// RowStore is the tabular backend holding one job per row.
// Positions are 1-based sheet rows; ReadRows returns rows starting at FirstDataRow.
type RowStore interface {
	ReadRows(ctx context.Context) ([][]string, error)
	AppendRow(ctx context.Context, row []string) error
	WriteRow(ctx context.Context, position int, row []string) error
	DeleteRow(ctx context.Context, position int) error
}

// Storage resolves job ids to row positions by scanning every row.
//
// Create, update and delete hold mu for their whole read-then-write cycle so
// that requests served by one process cannot hand out the same id or write to
// a row that a concurrent delete has shifted. Other processes writing to the
// same spreadsheet are not coordinated.
type Storage struct {
	rows   RowStore
	logger *slog.Logger
	mu     sync.Mutex
}

func NewStorage(rows RowStore, logger *slog.Logger) *Storage {
	return &Storage{
		rows:   rows,
		logger: logger,
	}
}

// scannedJob is a decoded row together with its index in the data range.
type scannedJob struct {
	index int
	job   domain.Job
}

func (s *Storage) scan(ctx context.Context) ([]scannedJob, error) {
	rows, err := s.rows.ReadRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read rows: %w", domain.ErrStoreUnavailable, err)
	}

	jobs := make([]scannedJob, len(rows))
	for i, row := range rows {
		jobs[i] = scannedJob{index: i, job: DecodeRow(row)}
	}

	return jobs, nil
}

func find(jobs []scannedJob, jobID string) (scannedJob, bool) {
	id := strings.TrimSpace(jobID)
	if id == "" {
		return scannedJob{}, false
	}

	for _, sj := range jobs {
		if sj.job.JobID == id {
			return sj, true
		}
	}

	return scannedJob{}, false
}

func rowPosition(index int) int {
	return index + FirstDataRow
}

// errIDSpaceExhausted is returned when the highest stored id is math.MaxInt
var errIDSpaceExhausted = errors.New("no job id left after the highest stored id")

// nextJobID returns max(numeric ids)+1. Ids that do not parse count as 0.
func nextJobID(jobs []scannedJob) (string, error) {
	maxID := 0
	for _, sj := range jobs {
		n, err := strconv.Atoi(sj.job.JobID)
		if err != nil {
			continue
		}
		if n > maxID {
			maxID = n
		}
	}

	if maxID == math.MaxInt {
		return "", errIDSpaceExhausted
	}

	return strconv.Itoa(maxID + 1), nil
}

func observe(operation string, start time.Time, err error) {
	metrics.ObserveStoreOperation(operation, time.Since(start), err == nil)
}

// ListJobs returns every stored job in sheet order. Rows with a blank job_id
// are skipped.
func (s *Storage) ListJobs(ctx context.Context) (jobs []domain.Job, err error) {
	start := time.Now()
	defer func() { observe("list", start, err) }()

	scanned, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}

	jobs = make([]domain.Job, 0, len(scanned))
	for _, sj := range scanned {
		if sj.job.JobID == "" {
			continue
		}
		jobs = append(jobs, sj.job)
	}

	return jobs, nil
}

// GetJobByID returns the job with exactly this id, or nil when there is none.
func (s *Storage) GetJobByID(ctx context.Context, jobID string) (job *domain.Job, err error) {
	start := time.Now()
	defer func() { observe("get", start, err) }()

	scanned, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}

	sj, ok := find(scanned, jobID)
	if !ok {
		return nil, nil
	}

	return &sj.job, nil
}

// CreateJob assigns the next id, appends the job as a new row and returns it.
// Any JobID set on the argument is replaced.
func (s *Storage) CreateJob(ctx context.Context, job domain.Job) (created *domain.Job, err error) {
	start := time.Now()
	defer func() { observe("create", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	scanned, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}

	nextID, err := nextJobID(scanned)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	job.JobID = nextID

	if err := s.rows.AppendRow(ctx, EncodeRow(job)); err != nil {
		return nil, fmt.Errorf("%w: failed to append job: %w", domain.ErrStoreUnavailable, err)
	}

	s.logger.Info("Job created",
		slog.String("job_id", job.JobID),
		slog.Int("row", rowPosition(len(scanned))),
	)

	return &job, nil
}

// UpdateJob merges update into the stored job and overwrites its whole row.
// It returns nil without error when no job has this id.
func (s *Storage) UpdateJob(ctx context.Context, jobID string, update domain.JobUpdate) (updated *domain.Job, err error) {
	start := time.Now()
	defer func() { observe("update", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	scanned, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}

	sj, ok := find(scanned, jobID)
	if !ok {
		s.logger.Debug("Job not found for update", slog.String("job_id", jobID))
		return nil, nil
	}

	merged := sj.job.Merge(update)
	position := rowPosition(sj.index)

	if err := s.rows.WriteRow(ctx, position, EncodeRow(merged)); err != nil {
		return nil, fmt.Errorf("%w: failed to write row %d: %w", domain.ErrStoreUnavailable, position, err)
	}

	s.logger.Info("Job updated",
		slog.String("job_id", merged.JobID),
		slog.Int("row", position),
	)

	return &merged, nil
}

// DeleteJob removes the job's row, shifting later rows up by one.
// It returns false without error when no job has this id.
func (s *Storage) DeleteJob(ctx context.Context, jobID string) (deleted bool, err error) {
	start := time.Now()
	defer func() { observe("delete", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	scanned, err := s.scan(ctx)
	if err != nil {
		return false, err
	}

	sj, ok := find(scanned, jobID)
	if !ok {
		s.logger.Debug("Job not found for delete", slog.String("job_id", jobID))
		return false, nil
	}

	position := rowPosition(sj.index)
	if err := s.rows.DeleteRow(ctx, position); err != nil {
		return false, fmt.Errorf("%w: failed to delete row %d: %w", domain.ErrStoreUnavailable, position, err)
	}

	s.logger.Info("Job deleted",
		slog.String("job_id", sj.job.JobID),
		slog.Int("row", position),
	)

	return true, nil
}
