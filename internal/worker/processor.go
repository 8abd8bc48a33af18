package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/24p11/predict-api/internal/domain"
	"github.com/24p11/predict-api/internal/queue"
)

// processBatch classifies the batch in one call and dispatches every result.
// A dispatch failure only affects its own job; a broker connection error is
// returned once the whole batch has been attempted.
func (w *Worker) processBatch(ctx context.Context, batch []domain.Envelope) error {
	texts := make([]string, len(batch))
	for i, envelope := range batch {
		texts[i] = envelope.Text
	}

	started := time.Now()
	outcomes, err := w.classify(ctx, texts)
	if err != nil {
		w.logger.Error("Classifier failed, failing whole batch",
			slog.Int("batch_size", len(batch)),
			slog.String("error", err.Error()),
		)
		outcomes = failBatch(len(batch))
	} else {
		w.logger.Info("Batch classified",
			slog.Int("batch_size", len(batch)),
			slog.Duration("duration", time.Since(started)),
		)
	}

	var connErr error
	for i, envelope := range batch {
		err := w.sink.Dispatch(ctx, envelope.ID, outcomes[i], envelope.Meta)
		if err == nil {
			continue
		}

		w.logger.Error("Failed to dispatch result",
			slog.String("job_id", envelope.ID),
			slog.Bool("persist", envelope.Persist()),
			slog.String("error", err.Error()),
		)

		if connErr == nil && queue.IsConnectionError(err) {
			connErr = err
		}
	}

	return connErr
}

// classify runs the classifier once over texts. A returned error, a panic
// or a misaligned answer is reported as ErrClassifierFailure.
func (w *Worker) classify(ctx context.Context, texts []string) (outcomes []domain.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcomes, err = nil, fmt.Errorf("%w: panic: %v", domain.ErrClassifierFailure, r)
		}
	}()

	predicted, err := w.classifier.Predict(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrClassifierFailure, err)
	}

	if len(predicted) != len(texts) {
		return nil, fmt.Errorf("%w: %d outcomes for %d texts", domain.ErrClassifierFailure, len(predicted), len(texts))
	}

	return predicted, nil
}

func failBatch(n int) []domain.Outcome {
	outcomes := make([]domain.Outcome, n)
	for i := range outcomes {
		outcomes[i] = domain.FailedOutcome(domain.ClassifierFailureMessage)
	}
	return outcomes
}
