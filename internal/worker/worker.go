package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/cuongbtq/cleaning-scheduler/internal/events"
	"github.com/cuongbtq/cleaning-scheduler/internal/worker/domain"
)

// EventRecorder persists job events. It reports false for an event id that
// was already recorded.
type EventRecorder interface {
	RecordEvent(ctx context.Context, event events.JobEvent) (bool, error)
}

// Broker is the queue side of the RabbitMQ client
type Broker interface {
	SetPrefetch(count int) error
	Consume(consumerTag string) (<-chan amqp.Delivery, error)
}

// Config holds worker configuration
type Config struct {
	Logger        *slog.Logger
	Recorder      EventRecorder
	Broker        Broker
	WorkerID      string
	QueueName     string
	Concurrency   int
	PrefetchCount int
	EventTimeout  time.Duration
}

// Worker consumes job events from RabbitMQ and records them in the history store
type Worker struct {
	logger        *slog.Logger
	recorder      EventRecorder
	broker        Broker
	workerID      string
	queueName     string
	concurrency   int
	prefetchCount int
	eventTimeout  time.Duration
	eventsChan    chan *domain.EventMessage
	wg            sync.WaitGroup
	stopChan      chan struct{}
	stopOnce      sync.Once
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	workerID := cfg.WorkerID
	if workerID == "" {
		workerID = "history-worker-" + uuid.NewString()[:8]
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	return &Worker{
		logger:        cfg.Logger,
		recorder:      cfg.Recorder,
		broker:        cfg.Broker,
		workerID:      workerID,
		queueName:     cfg.QueueName,
		concurrency:   concurrency,
		prefetchCount: cfg.PrefetchCount,
		eventTimeout:  cfg.EventTimeout,
		eventsChan:    make(chan *domain.EventMessage, concurrency),
		stopChan:      make(chan struct{}),
	}
}

// Start consumes deliveries until ctx is canceled or the broker closes the
// delivery channel. It returns once every worker goroutine has exited.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Duration("event_timeout", w.eventTimeout),
	)

	deliveries, err := w.setupConsumer()
	if err != nil {
		return err
	}

	w.spawnWorkerPool(ctx)
	w.startMessageDispatcher(ctx, deliveries)

	close(w.eventsChan)
	w.wg.Wait()

	if ctx.Err() == nil {
		return domain.ErrDeliveriesClosed
	}

	w.logger.Info("Worker context canceled, stopped consuming")
	return nil
}

// Stop signals worker goroutines to exit and waits for them
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	w.stopOnce.Do(func() { close(w.stopChan) })
	w.wg.Wait()
	w.logger.Info("Worker stopped")
}
