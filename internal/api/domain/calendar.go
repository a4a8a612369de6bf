package domain

import (
	"strings"
	"time"
)

// CalendarEventDuration is the fixed length given to every scheduled job
const CalendarEventDuration = time.Hour

// FloatingLayout formats times that were scheduled without a zone
const FloatingLayout = "2006-01-02T15:04:05"

var scheduleLayouts = []struct {
	layout string
	zoned  bool
}{
	{time.RFC3339, true},
	{FloatingLayout, false},
	{"2006-01-02T15:04", false}, // HTML datetime-local
	{"2006-01-02 15:04", false},
	{"2006-01-02", false},
}

// CalendarEvent is a job placed on the calendar
type CalendarEvent struct {
	JobID       string
	Title       string
	Start       time.Time
	End         time.Time
	Zoned       bool
	JobStatus   string
	ServiceType string
}

// ParseScheduledAt parses a stored scheduled_at value. zoned is false when
// the value carries no offset; the result is then expressed in UTC.
func ParseScheduledAt(value string) (t time.Time, zoned bool, ok bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false, false
	}

	for _, l := range scheduleLayouts {
		if t, err := time.Parse(l.layout, value); err == nil {
			return t, l.zoned, true
		}
	}

	return time.Time{}, false, false
}

// CalendarEvents turns jobs with a parseable scheduled_at into calendar
// events. from and to bound the start date inclusively; a zero value leaves
// that side open.
func CalendarEvents(jobs []Job, from, to time.Time) []CalendarEvent {
	out := make([]CalendarEvent, 0, len(jobs))
	for _, job := range jobs {
		start, zoned, ok := ParseScheduledAt(job.ScheduledAt)
		if !ok {
			continue
		}

		day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
		if !from.IsZero() && day.Before(from) {
			continue
		}
		if !to.IsZero() && day.After(to) {
			continue
		}

		out = append(out, CalendarEvent{
			JobID:       job.JobID,
			Title:       job.CustomerName + " - " + ServiceTypeName(job.ServiceType),
			Start:       start,
			End:         start.Add(CalendarEventDuration),
			Zoned:       zoned,
			JobStatus:   job.JobStatus,
			ServiceType: job.ServiceType,
		})
	}

	return out
}
