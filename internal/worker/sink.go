package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/24p11/predict-api/internal/codec"
	"github.com/24p11/predict-api/internal/domain"
	"github.com/24p11/predict-api/internal/queue"
)

// Dispatcher delivers a job outcome to wherever its submitter will read it
type Dispatcher interface {
	Dispatch(ctx context.Context, id string, outcome domain.Outcome, meta map[string]any) error
}

// PredictionCompleter finalizes durable prediction records
type PredictionCompleter interface {
	CompletePrediction(ctx context.Context, id string, outcome domain.Outcome) error
}

// SinkConfig holds result sink configuration
type SinkConfig struct {
	Logger  *slog.Logger
	Results queue.ResultStore
	Records PredictionCompleter

	// DeadLetter receives persisted outcomes whose record is missing.
	// Nothing is dead-lettered when DeadLetterQueue is empty.
	DeadLetter      queue.WorkQueue
	DeadLetterQueue string
}

// Sink routes outcomes to the ephemeral result store or to the durable
// prediction record, depending on the job's persist flag
type Sink struct {
	logger          *slog.Logger
	results         queue.ResultStore
	records         PredictionCompleter
	deadLetter      queue.WorkQueue
	deadLetterQueue string
}

// NewSink creates a result sink
func NewSink(cfg *SinkConfig) *Sink {
	return &Sink{
		logger:          cfg.Logger,
		results:         cfg.Results,
		records:         cfg.Records,
		deadLetter:      cfg.DeadLetter,
		deadLetterQueue: cfg.DeadLetterQueue,
	}
}

type deadLetter struct {
	ID      string          `json:"id"`
	Outcome json.RawMessage `json:"outcome"`
	Reason  string          `json:"reason"`
}

// Dispatch stores outcome under id
func (s *Sink) Dispatch(ctx context.Context, id string, outcome domain.Outcome, meta map[string]any) error {
	if !domain.Truthy(meta[domain.MetaPersist]) {
		encoded, err := codec.EncodeOutcome(outcome)
		if err != nil {
			return err
		}
		return s.results.Set(ctx, id, encoded)
	}

	err := s.records.CompletePrediction(ctx, id, outcome)
	if err == nil {
		return nil
	}

	if errors.Is(err, domain.ErrPredictionNotFound) {
		s.logger.Error("Prediction record not found, result not persisted",
			slog.String("job_id", id),
			slog.String("status", outcome.Status()),
		)
		if dlErr := s.sendToDeadLetter(ctx, id, outcome, err.Error()); dlErr != nil {
			return errors.Join(err, dlErr)
		}
	}

	return err
}

func (s *Sink) sendToDeadLetter(ctx context.Context, id string, outcome domain.Outcome, reason string) error {
	if s.deadLetter == nil || s.deadLetterQueue == "" {
		return nil
	}

	encoded, err := codec.EncodeOutcome(outcome)
	if err != nil {
		return err
	}

	body, err := json.Marshal(deadLetter{ID: id, Outcome: encoded, Reason: reason})
	if err != nil {
		return fmt.Errorf("failed to marshal dead letter: %w", err)
	}

	if err := s.deadLetter.Push(ctx, s.deadLetterQueue, body); err != nil {
		return fmt.Errorf("failed to push dead letter: %w", err)
	}

	s.logger.Warn("Result sent to dead letter queue",
		slog.String("job_id", id),
		slog.String("queue", s.deadLetterQueue),
	)

	return nil
}
