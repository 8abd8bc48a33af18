package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/24p11/predict-api/internal/codec"
	"github.com/24p11/predict-api/internal/domain"
	"github.com/24p11/predict-api/internal/queue"
)

// collectBatch blocks for the first job then drains the queue into a batch.
// A batch returned with an error holds jobs popped before the failure.
func (w *Worker) collectBatch(ctx context.Context) ([]domain.Envelope, error) {
	raw, err := w.queue.BlockingPop(ctx, w.queueName)
	if err != nil {
		return nil, err
	}
	started := time.Now()

	first, ok := w.decode(raw)
	if !ok {
		return nil, nil
	}

	batch := make([]domain.Envelope, 0, w.maxBatchSize)
	batch = append(batch, first)

	for len(batch) < w.maxBatchSize {
		raw, err := w.queue.NonBlockingPop(ctx, w.queueName)
		if errors.Is(err, queue.ErrEmpty) {
			if w.timeout > 0 && time.Since(started) < w.timeout {
				if !sleep(ctx, w.drainInterval) {
					break
				}
				continue
			}
			break
		}
		if err != nil {
			w.logger.Warn("Failed to drain queue, dispatching partial batch",
				slog.Int("batch_size", len(batch)),
				slog.String("error", err.Error()),
			)
			return batch, err
		}

		if envelope, ok := w.decode(raw); ok {
			batch = append(batch, envelope)
		}
	}

	w.logger.Debug("Batch collected",
		slog.Int("batch_size", len(batch)),
		slog.Duration("elapsed", time.Since(started)),
	)

	return batch, nil
}

// decode logs and discards messages that are not valid job envelopes
func (w *Worker) decode(raw []byte) (domain.Envelope, bool) {
	envelope, err := codec.Decode(raw)
	if err != nil {
		w.logger.Error("Discarding badly formatted message",
			slog.String("error", err.Error()),
			slog.String("body", string(raw)),
		)
		return domain.Envelope{}, false
	}
	return envelope, true
}

// sleep pauses for d, returning false when ctx ends first
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
