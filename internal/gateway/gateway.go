// Package gateway submits classification jobs to the work queue and reads
// their results back, either by polling the result store or from the
// durable prediction record.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/24p11/predict-api/internal/codec"
	"github.com/24p11/predict-api/internal/domain"
	"github.com/24p11/predict-api/internal/queue"
)

const (
	// DefaultPollInterval is the pause between result store reads
	DefaultPollInterval = 10 * time.Millisecond

	// DefaultPollTimeout bounds a synchronous submission
	DefaultPollTimeout = 30 * time.Second

	// DefaultPageSize and MaxPageSize bound a listing page
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Task is a named classification pipeline
type Task struct {
	Name       string
	Queue      string
	LabelField string
}

// Input is one document to classify. An empty ID is generated.
type Input struct {
	ID   string
	Text string
}

// Result is the state of one submitted job
type Result struct {
	ID           string
	Labels       []string
	ErrorMessage string
	Status       string

	// CreatedAt is only known for durable records
	CreatedAt time.Time
}

// PredictionStore persists the durable records of asynchronous jobs
type PredictionStore interface {
	CreatePredictions(ctx context.Context, task string, ids []string) error
	GetPrediction(ctx context.Context, id string) (*domain.Prediction, error)
	ListPredictions(ctx context.Context, filter domain.PredictionFilter) ([]domain.Prediction, error)
	DeletePredictions(ctx context.Context, ids []string) error
}

// Config holds gateway configuration
type Config struct {
	Logger       *slog.Logger
	Queue        queue.WorkQueue
	Results      queue.ResultStore
	Store        PredictionStore
	Tasks        []Task
	PollInterval time.Duration
	PollTimeout  time.Duration

	// NewID generates ids for inputs without one, uuid.NewString by default
	NewID func() string
}

// Gateway submits jobs and collects their results
type Gateway struct {
	logger       *slog.Logger
	queue        queue.WorkQueue
	results      queue.ResultStore
	store        PredictionStore
	tasks        map[string]Task
	pollInterval time.Duration
	pollTimeout  time.Duration
	newID        func() string
}

// New creates a gateway
func New(cfg *Config) *Gateway {
	tasks := make(map[string]Task, len(cfg.Tasks))
	for _, t := range cfg.Tasks {
		tasks[t.Name] = t
	}

	g := &Gateway{
		logger:       cfg.Logger,
		queue:        cfg.Queue,
		results:      cfg.Results,
		store:        cfg.Store,
		tasks:        tasks,
		pollInterval: cfg.PollInterval,
		pollTimeout:  cfg.PollTimeout,
		newID:        cfg.NewID,
	}

	if g.pollInterval <= 0 {
		g.pollInterval = DefaultPollInterval
	}
	if g.pollTimeout <= 0 {
		g.pollTimeout = DefaultPollTimeout
	}
	if g.newID == nil {
		g.newID = uuid.NewString
	}

	return g
}

// Task looks up a pipeline by name
func (g *Gateway) Task(name string) (Task, error) {
	task, ok := g.tasks[name]
	if !ok {
		return Task{}, fmt.Errorf("%w: %s", domain.ErrUnknownTask, name)
	}
	return task, nil
}

// Submit enqueues inputs on the task's queue. Synchronous submissions wait
// for every result; asynchronous ones create queued prediction records and
// return right away.
func (g *Gateway) Submit(ctx context.Context, taskName string, inputs []Input, async bool) ([]Result, error) {
	task, err := g.Task(taskName)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(inputs))
	messages := make([][]byte, len(inputs))
	for i, input := range inputs {
		id := input.ID
		if id == "" {
			id = g.newID()
		}
		ids[i] = id

		envelope := domain.Envelope{ID: id, Text: input.Text, Meta: map[string]any{}}
		if async {
			envelope.Meta[domain.MetaPersist] = true
		}

		messages[i], err = codec.EncodeEnvelope(envelope)
		if err != nil {
			return nil, err
		}
	}

	if async {
		// records must exist before a worker can complete them
		if err := g.store.CreatePredictions(ctx, task.Name, ids); err != nil {
			return nil, fmt.Errorf("failed to create predictions: %w", err)
		}
	}

	if err := g.queue.Push(ctx, task.Queue, messages...); err != nil {
		if async {
			g.discardRecords(ctx, task.Name, ids)
		}
		return nil, fmt.Errorf("failed to enqueue jobs: %w", err)
	}

	g.logger.Info("Jobs submitted",
		slog.String("task", task.Name),
		slog.String("queue", task.Queue),
		slog.Int("count", len(ids)),
		slog.Bool("async", async),
	)

	if async {
		results := make([]Result, len(ids))
		for i, id := range ids {
			results[i] = Result{ID: id, Status: domain.StatusQueued}
		}
		return results, nil
	}

	return g.wait(ctx, ids)
}

// wait polls the result store until every id has a result
func (g *Gateway) wait(ctx context.Context, ids []string) ([]Result, error) {
	ctx, cancel := context.WithTimeout(ctx, g.pollTimeout)
	defer cancel()

	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()

	for {
		values, err := g.results.MGet(ctx, ids...)
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("failed to read results: %w", err)
		}

		if err == nil && complete(values) {
			return decodeResults(ids, values)
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w after %s", domain.ErrResultTimeout, g.pollTimeout)
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func complete(values [][]byte) bool {
	for _, v := range values {
		if v == nil {
			return false
		}
	}
	return true
}

func decodeResults(ids []string, values [][]byte) ([]Result, error) {
	results := make([]Result, len(ids))
	for i, id := range ids {
		outcome, err := codec.DecodeOutcome(values[i])
		if err != nil {
			return nil, fmt.Errorf("result %s: %w", id, err)
		}
		results[i] = Result{
			ID:           id,
			Labels:       outcome.Labels,
			ErrorMessage: outcome.ErrorMessage,
			Status:       outcome.Status(),
		}
	}
	return results, nil
}

// Prediction reads the durable record of an asynchronous job.
// A record belonging to another task is reported as not found.
func (g *Gateway) Prediction(ctx context.Context, taskName, id string) (Result, error) {
	task, err := g.Task(taskName)
	if err != nil {
		return Result{}, err
	}

	prediction, err := g.store.GetPrediction(ctx, id)
	if err != nil {
		return Result{}, err
	}

	if prediction.Task != task.Name {
		return Result{}, fmt.Errorf("%w: %s", domain.ErrPredictionNotFound, id)
	}

	return recordResult(prediction), nil
}

// Predictions lists one page of a task's durable records. The returned
// cursor is nil on the last page.
func (g *Gateway) Predictions(ctx context.Context, taskName string, filter domain.PredictionFilter) ([]Result, *domain.PredictionCursor, error) {
	task, err := g.Task(taskName)
	if err != nil {
		return nil, nil, err
	}
	filter.Task = task.Name

	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	// one extra record tells whether another page exists
	filter.PageSize = pageSize + 1

	predictions, err := g.store.ListPredictions(ctx, filter)
	if err != nil {
		return nil, nil, err
	}

	var next *domain.PredictionCursor
	if len(predictions) > pageSize {
		predictions = predictions[:pageSize]
		last := predictions[len(predictions)-1]
		next = &domain.PredictionCursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}

	results := make([]Result, len(predictions))
	for i := range predictions {
		results[i] = recordResult(&predictions[i])
	}

	return results, next, nil
}

func recordResult(prediction *domain.Prediction) Result {
	result := Result{
		ID:        prediction.ID,
		Labels:    prediction.Labels(),
		Status:    prediction.Status,
		CreatedAt: prediction.CreatedAt,
	}
	if prediction.ErrorMessage != nil {
		result.ErrorMessage = *prediction.ErrorMessage
	}
	return result
}

// discardRecords removes queued records whose jobs never reached the queue
func (g *Gateway) discardRecords(ctx context.Context, task string, ids []string) {
	if err := g.store.DeletePredictions(context.WithoutCancel(ctx), ids); err != nil {
		g.logger.Error("Failed to remove records of unqueued jobs",
			slog.String("task", task),
			slog.Any("ids", ids),
			slog.String("error", err.Error()),
		)
	}
}
