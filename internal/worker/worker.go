package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/24p11/predict-api/internal/classifier"
	"github.com/24p11/predict-api/internal/queue"
)

const (
	// DefaultMaxBatchSize is the batch ceiling when none is configured
	DefaultMaxBatchSize = 16

	// DefaultDrainInterval is the pause between empty pops while a batch is still open
	DefaultDrainInterval = 20 * time.Millisecond

	// DefaultPingInterval paces broker pings while reconnecting
	DefaultPingInterval = 100 * time.Millisecond
)

// Config holds worker configuration
type Config struct {
	Logger     *slog.Logger
	Queue      queue.WorkQueue
	Sink       Dispatcher
	Classifier classifier.Classifier

	WorkerID     string
	QueueName    string
	MaxBatchSize int

	// Timeout keeps a batch open after the first message while the queue is
	// momentarily empty. Zero closes the batch on the first empty pop.
	Timeout       time.Duration
	DrainInterval time.Duration
	PingInterval  time.Duration
}

// Worker consumes one queue, classifying its jobs in batches
type Worker struct {
	logger     *slog.Logger
	queue      queue.WorkQueue
	sink       Dispatcher
	classifier classifier.Classifier

	workerID      string
	queueName     string
	maxBatchSize  int
	timeout       time.Duration
	drainInterval time.Duration
	pingInterval  time.Duration
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	w := &Worker{
		logger:        cfg.Logger,
		queue:         cfg.Queue,
		sink:          cfg.Sink,
		classifier:    cfg.Classifier,
		workerID:      cfg.WorkerID,
		queueName:     cfg.QueueName,
		maxBatchSize:  cfg.MaxBatchSize,
		timeout:       cfg.Timeout,
		drainInterval: cfg.DrainInterval,
		pingInterval:  cfg.PingInterval,
	}

	if w.maxBatchSize <= 0 {
		w.maxBatchSize = DefaultMaxBatchSize
	}
	if w.drainInterval <= 0 {
		w.drainInterval = DefaultDrainInterval
	}
	if w.pingInterval <= 0 {
		w.pingInterval = DefaultPingInterval
	}
	if w.workerID != "" {
		w.logger = w.logger.With(slog.String("worker_id", w.workerID))
	}

	return w
}

// Run processes batches until ctx is cancelled. Broker connection errors
// put the worker in a reconnect wait; any other failure of an iteration is
// logged and the loop goes on.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("queue", w.queueName),
		slog.Int("max_batch_size", w.maxBatchSize),
		slog.Duration("timeout", w.timeout),
	)

	for {
		if ctx.Err() != nil {
			break
		}

		err := w.safeRunOnce(ctx)
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		if queue.IsConnectionError(err) {
			w.logger.Warn("Lost connection to broker",
				slog.String("error", err.Error()),
			)
			if err := w.waitForBroker(ctx); err != nil {
				break
			}
			continue
		}

		w.logger.Error("Worker iteration failed",
			slog.String("error", err.Error()),
		)
	}

	w.logger.Info("Worker context canceled, stopping...")
	return nil
}

// RunOnce runs one iteration: wait for a first job, drain a batch, classify
// it and dispatch the results
func (w *Worker) RunOnce(ctx context.Context) error {
	batch, err := w.collectBatch(ctx)
	if len(batch) > 0 {
		// popped jobs are dispatched even when the pop loop was interrupted
		if dispatchErr := w.processBatch(context.WithoutCancel(ctx), batch); err == nil {
			err = dispatchErr
		}
	}
	return err
}

func (w *Worker) safeRunOnce(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in worker iteration: %v", r)
		}
	}()

	return w.RunOnce(ctx)
}

// waitForBroker pings the broker until it answers or ctx is cancelled
func (w *Worker) waitForBroker(ctx context.Context) error {
	limiter := rate.NewLimiter(rate.Every(w.pingInterval), 1)

	for attempt := 1; ; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}

		err := w.queue.Ping(ctx)
		if err == nil {
			w.logger.Info("Broker connection restored",
				slog.Int("attempts", attempt),
			)
			return nil
		}

		w.logger.Debug("Broker not ready",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
	}
}
