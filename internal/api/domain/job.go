package domain

// Job status values
const (
	JobStatusPending    = "pending"
	JobStatusInProgress = "in_progress"
	JobStatusCompleted  = "completed"
	JobStatusCancelled  = "cancelled"
)

// Payment status values
const (
	PaymentStatusUnpaid  = "unpaid"
	PaymentStatusPartial = "partial"
	PaymentStatusPaid    = "paid"
)

// Service types offered by the business. The server stores whatever the
// client sends; this list only drives display names.
const (
	ServiceResidential      = "residential"
	ServiceShortTermRental  = "short_term_rental"
	ServiceCommercial       = "commercial"
	ServiceDeepClean        = "deep_clean"
	ServiceEndOfTenancy     = "end_of_tenancy"
	ServicePostConstruction = "post_construction"
	ServiceEventClean       = "event_clean"
	ServiceOther            = "other"
)

var serviceTypeNames = map[string]string{
	ServiceResidential:      "Residential",
	ServiceShortTermRental:  "Short-Term Rental",
	ServiceCommercial:       "Commercial",
	ServiceDeepClean:        "Deep Clean",
	ServiceEndOfTenancy:     "End of Tenancy",
	ServicePostConstruction: "Post Construction",
	ServiceEventClean:       "Event Clean",
	ServiceOther:            "Other",
}

// ServiceTypeName returns the display name for a service type, or the raw
// value when it is not one of the known types.
func ServiceTypeName(serviceType string) string {
	if name, ok := serviceTypeNames[serviceType]; ok {
		return name
	}
	return serviceType
}

// Job is a single cleaning appointment. Every field is stored as text.
type Job struct {
	JobID         string `json:"job_id"`
	ServiceType   string `json:"service_type"`
	CustomerName  string `json:"customer_name"`
	Address       string `json:"address"`
	Phone         string `json:"phone"`
	JobStatus     string `json:"job_status"`
	ScheduledAt   string `json:"scheduled_at"`
	Price         string `json:"price"`
	PaymentStatus string `json:"payment_status"`
	Notes         string `json:"notes"`
	Email         string `json:"email"`
}

// JobUpdate carries a partial update. Nil fields keep the current value.
// There is no JobID field: ids never change after creation.
type JobUpdate struct {
	ServiceType   *string
	CustomerName  *string
	Address       *string
	Phone         *string
	JobStatus     *string
	ScheduledAt   *string
	Price         *string
	PaymentStatus *string
	Notes         *string
	Email         *string
}

// ApplyDefaults fills the status fields a new job starts with.
func (j *Job) ApplyDefaults() {
	if j.JobStatus == "" {
		j.JobStatus = JobStatusPending
	}
	if j.PaymentStatus == "" {
		j.PaymentStatus = PaymentStatusUnpaid
	}
}

// Merge returns a copy of j with every non-nil field of u applied.
func (j Job) Merge(u JobUpdate) Job {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}

	merged := j
	set(&merged.ServiceType, u.ServiceType)
	set(&merged.CustomerName, u.CustomerName)
	set(&merged.Address, u.Address)
	set(&merged.Phone, u.Phone)
	set(&merged.JobStatus, u.JobStatus)
	set(&merged.ScheduledAt, u.ScheduledAt)
	set(&merged.Price, u.Price)
	set(&merged.PaymentStatus, u.PaymentStatus)
	set(&merged.Notes, u.Notes)
	set(&merged.Email, u.Email)
	merged.JobID = j.JobID

	return merged
}
