package dto

import "github.com/cuongbtq/cleaning-scheduler/internal/api/domain"

// Response is the envelope of every /api response
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

type CreateJobRequest struct {
	ServiceType   string `json:"service_type" binding:"required"`
	CustomerName  string `json:"customer_name" binding:"required"`
	Address       string `json:"address" binding:"required"`
	Phone         string `json:"phone" binding:"required"`
	JobStatus     string `json:"job_status"`
	ScheduledAt   string `json:"scheduled_at"`
	Price         string `json:"price"`
	PaymentStatus string `json:"payment_status"`
	Notes         string `json:"notes"`
	Email         string `json:"email"`
}

// ToJob converts the request into a job without an id
func (r CreateJobRequest) ToJob() domain.Job {
	return domain.Job{
		ServiceType:   r.ServiceType,
		CustomerName:  r.CustomerName,
		Address:       r.Address,
		Phone:         r.Phone,
		JobStatus:     r.JobStatus,
		ScheduledAt:   r.ScheduledAt,
		Price:         r.Price,
		PaymentStatus: r.PaymentStatus,
		Notes:         r.Notes,
		Email:         r.Email,
	}
}

// UpdateJobRequest is a partial update. Absent fields stay unchanged and any
// job_id in the body is ignored.
type UpdateJobRequest struct {
	ServiceType   *string `json:"service_type"`
	CustomerName  *string `json:"customer_name"`
	Address       *string `json:"address"`
	Phone         *string `json:"phone"`
	JobStatus     *string `json:"job_status"`
	ScheduledAt   *string `json:"scheduled_at"`
	Price         *string `json:"price"`
	PaymentStatus *string `json:"payment_status"`
	Notes         *string `json:"notes"`
	Email         *string `json:"email"`
}

func (r UpdateJobRequest) ToUpdate() domain.JobUpdate {
	return domain.JobUpdate{
		ServiceType:   r.ServiceType,
		CustomerName:  r.CustomerName,
		Address:       r.Address,
		Phone:         r.Phone,
		JobStatus:     r.JobStatus,
		ScheduledAt:   r.ScheduledAt,
		Price:         r.Price,
		PaymentStatus: r.PaymentStatus,
		Notes:         r.Notes,
		Email:         r.Email,
	}
}

type CalendarRequest struct {
	From string `form:"from"`
	To   string `form:"to"`
}

type CalendarEventDTO struct {
	JobID       string `json:"job_id"`
	Title       string `json:"title"`
	Start       string `json:"start"`
	End         string `json:"end"`
	JobStatus   string `json:"job_status"`
	ServiceType string `json:"service_type"`
}

type HistoryRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
}

type JobEventDTO struct {
	EventID    string      `json:"event_id"`
	Type       string      `json:"type"`
	JobID      string      `json:"job_id"`
	Job        *domain.Job `json:"job,omitempty"`
	OccurredAt string      `json:"occurred_at"`
	RecordedAt string      `json:"recorded_at"`
}
