package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/cleaning-scheduler/internal/metrics"
)

// Publisher announces job mutations to interested consumers
type Publisher interface {
	Publish(ctx context.Context, event JobEvent) error
}

// broker is the subset of the RabbitMQ client used for publishing
type broker interface {
	PublishWithRetry(ctx context.Context, routingKey string, body []byte, contentType string) error
}

// RabbitPublisher publishes events as JSON, routed by event type
type RabbitPublisher struct {
	broker  broker
	logger  *slog.Logger
	timeout time.Duration
}

func NewRabbitPublisher(broker broker, logger *slog.Logger) *RabbitPublisher {
	return &RabbitPublisher{
		broker: broker,
		logger: logger,
	}
}

// WithTimeout bounds each Publish call, retries included
func (p *RabbitPublisher) WithTimeout(d time.Duration) *RabbitPublisher {
	p.timeout = d
	return p
}

func (p *RabbitPublisher) Publish(ctx context.Context, event JobEvent) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	body, err := json.Marshal(event)
	if err != nil {
		metrics.IncEventPublished(event.Type, false)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.broker.PublishWithRetry(ctx, event.Type, body, ContentType); err != nil {
		metrics.IncEventPublished(event.Type, false)
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}

	metrics.IncEventPublished(event.Type, true)
	p.logger.Debug("Job event published",
		slog.String("event_id", event.EventID),
		slog.String("type", event.Type),
		slog.String("job_id", event.JobID),
	)

	return nil
}

// NoopPublisher drops every event. Used when RabbitMQ is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, JobEvent) error { return nil }
