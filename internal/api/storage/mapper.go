package storage

import (
	"strings"

	"github.com/cuongbtq/cleaning-scheduler/internal/api/domain"
)

const (
	// ColumnCount is the number of cells in a job row (columns A through K)
	ColumnCount = 11
	// LastColumn is the letter of the last job column
	LastColumn = "K"
	// FirstDataRow is the 1-based sheet row holding the first job; row 1 is the header
	FirstDataRow = 2
)

// DecodeRow converts a raw sheet row into a Job. Short rows are padded with
// empty strings and every cell is trimmed.
func DecodeRow(row []string) domain.Job {
	cell := func(i int) string {
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	return domain.Job{
		JobID:         cell(0),
		ServiceType:   cell(1),
		CustomerName:  cell(2),
		Address:       cell(3),
		Phone:         cell(4),
		JobStatus:     cell(5),
		ScheduledAt:   cell(6),
		Price:         cell(7),
		PaymentStatus: cell(8),
		Notes:         cell(9),
		Email:         cell(10),
	}
}

// EncodeRow converts a Job into exactly ColumnCount cells in sheet column order.
func EncodeRow(job domain.Job) []string {
	return []string{
		job.JobID,
		job.ServiceType,
		job.CustomerName,
		job.Address,
		job.Phone,
		job.JobStatus,
		job.ScheduledAt,
		job.Price,
		job.PaymentStatus,
		job.Notes,
		job.Email,
	}
}
