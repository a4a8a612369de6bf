package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/cleaning-scheduler/internal/metrics"
	"github.com/cuongbtq/cleaning-scheduler/internal/worker/domain"
)

// processEvent records one event in the history store. Store failures are
// returned as RetryableError so the delivery is requeued.
func (w *Worker) processEvent(ctx context.Context, msg *domain.EventMessage) error {
	event := msg.Event

	eventCtx := ctx
	if w.eventTimeout > 0 {
		var cancel context.CancelFunc
		eventCtx, cancel = context.WithTimeout(ctx, w.eventTimeout)
		defer cancel()
	}

	recorded, err := w.recorder.RecordEvent(eventCtx, event)
	if err != nil {
		metrics.IncEventProcessed("failed")
		return domain.NewRetryableError(fmt.Errorf("failed to record event %s: %w", event.EventID, err))
	}

	if !recorded {
		metrics.IncEventProcessed("duplicate")
		w.logger.Info("Event already recorded, skipping",
			slog.String("event_id", event.EventID),
			slog.String("job_id", event.JobID),
		)
		return nil
	}

	metrics.IncEventProcessed("recorded")
	w.logger.Info("Event recorded",
		slog.String("event_id", event.EventID),
		slog.String("type", event.Type),
		slog.String("job_id", event.JobID),
	)

	return nil
}
