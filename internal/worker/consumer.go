package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/cuongbtq/cleaning-scheduler/internal/events"
	"github.com/cuongbtq/cleaning-scheduler/internal/metrics"
	"github.com/cuongbtq/cleaning-scheduler/internal/worker/domain"
)

// setupConsumer sets the prefetch window and returns the delivery channel
func (w *Worker) setupConsumer() (<-chan amqp.Delivery, error) {
	if w.prefetchCount > 0 {
		if err := w.broker.SetPrefetch(w.prefetchCount); err != nil {
			return nil, fmt.Errorf("failed to set QoS: %w", err)
		}

		w.logger.Info("RabbitMQ QoS configured",
			slog.Int("prefetch_count", w.prefetchCount),
		)
	}

	// manual acknowledgment, consumer tag is the worker id
	deliveries, err := w.broker.Consume(w.workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	w.logger.Info("RabbitMQ consumer started",
		slog.String("consumer_tag", w.workerID),
		slog.String("queue", w.queueName),
	)

	return deliveries, nil
}

// decodeEvent parses and validates a delivery body
func decodeEvent(body []byte) (events.JobEvent, error) {
	var event events.JobEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return events.JobEvent{}, fmt.Errorf("%w: %v", domain.ErrInvalidEvent, err)
	}

	if err := event.Validate(); err != nil {
		return events.JobEvent{}, fmt.Errorf("%w: %v", domain.ErrInvalidEvent, err)
	}

	return event, nil
}

// startMessageDispatcher decodes deliveries and hands them to the worker pool
func (w *Worker) startMessageDispatcher(ctx context.Context, deliveries <-chan amqp.Delivery) {
	w.logger.Info("Message dispatcher started",
		slog.String("worker_id", w.workerID),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Message dispatcher stopped - context canceled")
			return

		case delivery, ok := <-deliveries:
			if !ok {
				w.logger.Warn("RabbitMQ delivery channel closed")
				return
			}

			event, err := decodeEvent(delivery.Body)
			if err != nil {
				w.logger.Error("Dropping invalid job event",
					slog.String("error", err.Error()),
					slog.String("routing_key", delivery.RoutingKey),
					slog.String("body", string(delivery.Body)),
				)
				metrics.IncEventProcessed("invalid")
				// malformed events are never requeued
				if nackErr := delivery.Nack(false, false); nackErr != nil {
					w.logger.Error("Failed to NACK invalid event",
						slog.String("error", nackErr.Error()),
					)
				}
				continue
			}

			msg := &domain.EventMessage{
				Event:    event,
				Delivery: delivery,
			}

			select {
			case w.eventsChan <- msg:
				w.logger.Debug("Event dispatched to worker pool",
					slog.String("event_id", event.EventID),
					slog.Uint64("delivery_tag", delivery.DeliveryTag),
				)
			case <-ctx.Done():
				w.logger.Info("Message dispatcher stopped while dispatching event")
				if nackErr := delivery.Nack(false, true); nackErr != nil {
					w.logger.Error("Failed to NACK event on shutdown",
						slog.String("error", nackErr.Error()),
					)
				}
				return
			}
		}
	}
}
