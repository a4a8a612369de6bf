package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/cuongbtq/cleaning-scheduler/internal/api/auth"
	"github.com/cuongbtq/cleaning-scheduler/internal/api/domain"
	"github.com/cuongbtq/cleaning-scheduler/internal/api/dto"
	"github.com/cuongbtq/cleaning-scheduler/internal/events"
	"github.com/cuongbtq/cleaning-scheduler/internal/history"
)

// JobStore is the job persistence used by the handlers. Lookups that find
// nothing return a nil job or false without an error.
type JobStore interface {
	ListJobs(ctx context.Context) ([]domain.Job, error)
	GetJobByID(ctx context.Context, jobID string) (*domain.Job, error)
	CreateJob(ctx context.Context, job domain.Job) (*domain.Job, error)
	UpdateJob(ctx context.Context, jobID string, update domain.JobUpdate) (*domain.Job, error)
	DeleteJob(ctx context.Context, jobID string) (bool, error)
}

// HistoryReader reads the recorded events of a job
type HistoryReader interface {
	ListEvents(ctx context.Context, jobID string, limit int) ([]history.Entry, error)
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger  *slog.Logger
	Store   JobStore
	Events  events.Publisher
	History HistoryReader // nil when the history database is disabled
	Auth    *auth.Manager
}

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	logger  *slog.Logger
	store   JobStore
	events  events.Publisher
	history HistoryReader
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	publisher := deps.Events
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}

	return &JobHandler{
		logger:  deps.Logger,
		store:   deps.Store,
		events:  publisher,
		history: deps.History,
	}
}

// AuthHandler handles login and logout
type AuthHandler struct {
	logger *slog.Logger
	auth   *auth.Manager
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(deps *Dependencies) *AuthHandler {
	return &AuthHandler{
		logger: deps.Logger,
		auth:   deps.Auth,
	}
}

func respondOK(c *gin.Context, status int, data any) {
	c.JSON(status, dto.Response{Success: true, Data: data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, dto.Response{Success: false, Error: message})
}

// respondNotFound answers 404 and records ErrJobNotFound on the context for
// the request logger
func respondNotFound(c *gin.Context, jobID string) {
	_ = c.Error(fmt.Errorf("%w: %q", domain.ErrJobNotFound, jobID)).SetType(gin.ErrorTypePublic)
	respondError(c, http.StatusNotFound, "Job not found")
}

// bindingMessage turns a binding failure into a client-facing message
func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Tag() == "required" {
			return snakeCase(fe.Field()) + " is required"
		}
		return snakeCase(fe.Field()) + " is invalid"
	}
	return "Invalid request body"
}

func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// publish announces a mutation. Failures are logged only: the change is
// already stored.
func (h *JobHandler) publish(c *gin.Context, event events.JobEvent) {
	if err := h.events.Publish(c.Request.Context(), event); err != nil {
		h.logger.Error("Failed to publish job event",
			slog.String("event_id", event.EventID),
			slog.String("type", event.Type),
			slog.String("job_id", event.JobID),
			slog.String("error", err.Error()),
		)
	}
}
