package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/cleaning-scheduler/internal/api/domain"
	"github.com/cuongbtq/cleaning-scheduler/internal/api/dto"
	"github.com/cuongbtq/cleaning-scheduler/internal/events"
)

const dateLayout = "2006-01-02"

// ListJobs handles GET /api/jobs
func (h *JobHandler) ListJobs(c *gin.Context) {
	jobs, err := h.store.ListJobs(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list jobs", slog.String("error", err.Error()))
		respondError(c, http.StatusInternalServerError, "Failed to fetch jobs")
		return
	}

	if jobs == nil {
		jobs = []domain.Job{}
	}

	respondOK(c, http.StatusOK, jobs)
}

// CreateJob handles POST /api/jobs
// The store assigns the id; any job_id in the body is ignored.
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req dto.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid create job request", slog.String("error", err.Error()))
		respondError(c, http.StatusBadRequest, bindingMessage(err))
		return
	}

	job := req.ToJob()
	job.ApplyDefaults()

	created, err := h.store.CreateJob(c.Request.Context(), job)
	if err != nil {
		h.logger.Error("Failed to create job", slog.String("error", err.Error()))
		respondError(c, http.StatusInternalServerError, "Failed to add job")
		return
	}

	h.publish(c, events.NewJobEvent(events.TypeJobCreated, created.JobID, created))

	respondOK(c, http.StatusCreated, created)
}

// GetJob handles GET /api/jobs/:job_id
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID := c.Param("job_id")

	job, err := h.store.GetJobByID(c.Request.Context(), jobID)
	if err != nil {
		h.logger.Error("Failed to get job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		respondError(c, http.StatusInternalServerError, "Failed to fetch job")
		return
	}

	if job == nil {
		respondNotFound(c, jobID)
		return
	}

	respondOK(c, http.StatusOK, job)
}

// UpdateJob handles PUT and PATCH /api/jobs/:job_id
// Both methods merge the supplied fields into the stored job.
func (h *JobHandler) UpdateJob(c *gin.Context) {
	jobID := c.Param("job_id")

	var req dto.UpdateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid update job request",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		respondError(c, http.StatusBadRequest, bindingMessage(err))
		return
	}

	updated, err := h.store.UpdateJob(c.Request.Context(), jobID, req.ToUpdate())
	if err != nil {
		h.logger.Error("Failed to update job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		respondError(c, http.StatusInternalServerError, "Failed to update job")
		return
	}

	if updated == nil {
		respondNotFound(c, jobID)
		return
	}

	h.publish(c, events.NewJobEvent(events.TypeJobUpdated, updated.JobID, updated))

	respondOK(c, http.StatusOK, updated)
}

// DeleteJob handles DELETE /api/jobs/:job_id
func (h *JobHandler) DeleteJob(c *gin.Context) {
	jobID := strings.TrimSpace(c.Param("job_id"))

	deleted, err := h.store.DeleteJob(c.Request.Context(), jobID)
	if err != nil {
		h.logger.Error("Failed to delete job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		respondError(c, http.StatusInternalServerError, "Failed to delete job")
		return
	}

	if !deleted {
		respondNotFound(c, jobID)
		return
	}

	h.publish(c, events.NewJobEvent(events.TypeJobDeleted, jobID, nil))

	respondOK(c, http.StatusOK, nil)
}

// Calendar handles GET /api/jobs/calendar
// Jobs without a parseable scheduled_at are left out.
func (h *JobHandler) Calendar(c *gin.Context) {
	var req dto.CalendarRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid date range")
		return
	}

	from, to, ok := parseDateRange(req.From, req.To)
	if !ok {
		respondError(c, http.StatusBadRequest, "Invalid date range")
		return
	}

	jobs, err := h.store.ListJobs(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list jobs for calendar", slog.String("error", err.Error()))
		respondError(c, http.StatusInternalServerError, "Failed to fetch jobs")
		return
	}

	calendar := domain.CalendarEvents(jobs, from, to)
	out := make([]dto.CalendarEventDTO, len(calendar))
	for i, e := range calendar {
		layout := domain.FloatingLayout
		if e.Zoned {
			layout = time.RFC3339
		}
		out[i] = dto.CalendarEventDTO{
			JobID:       e.JobID,
			Title:       e.Title,
			Start:       e.Start.Format(layout),
			End:         e.End.Format(layout),
			JobStatus:   e.JobStatus,
			ServiceType: e.ServiceType,
		}
	}

	respondOK(c, http.StatusOK, out)
}

func parseDateRange(fromStr, toStr string) (from, to time.Time, ok bool) {
	var err error
	if fromStr != "" {
		if from, err = time.Parse(dateLayout, fromStr); err != nil {
			return time.Time{}, time.Time{}, false
		}
	}
	if toStr != "" {
		if to, err = time.Parse(dateLayout, toStr); err != nil {
			return time.Time{}, time.Time{}, false
		}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// GetJobHistory handles GET /api/jobs/:job_id/history
func (h *JobHandler) GetJobHistory(c *gin.Context) {
	jobID := strings.TrimSpace(c.Param("job_id"))

	var req dto.HistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondError(c, http.StatusBadRequest, bindingMessage(err))
		return
	}

	entries, err := h.history.ListEvents(c.Request.Context(), jobID, req.Limit)
	if err != nil {
		h.logger.Error("Failed to list job history",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		respondError(c, http.StatusInternalServerError, "Failed to fetch job history")
		return
	}

	out := make([]dto.JobEventDTO, len(entries))
	for i, e := range entries {
		out[i] = dto.JobEventDTO{
			EventID:    e.EventID,
			Type:       e.EventType,
			JobID:      e.JobID,
			OccurredAt: e.OccurredAt.UTC().Format(time.RFC3339),
			RecordedAt: e.RecordedAt.UTC().Format(time.RFC3339),
		}
		if len(e.Payload) > 0 {
			var job domain.Job
			if err := json.Unmarshal(e.Payload, &job); err != nil {
				h.logger.Warn("Skipping unreadable job snapshot",
					slog.String("event_id", e.EventID),
					slog.String("error", err.Error()),
				)
				continue
			}
			out[i].Job = &job
		}
	}

	respondOK(c, http.StatusOK, out)
}
