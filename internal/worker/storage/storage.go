package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/24p11/predict-api/internal/domain"
)

// Storage handles the prediction record writes made by the worker
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

// GetPredictionByID retrieves a prediction record by its ID
func (s *Storage) GetPredictionByID(ctx context.Context, id string) (*domain.Prediction, error) {
	query := `
		SELECT id, task, label_string, error_message, status, created_at, updated_at
		FROM predictions
		WHERE id = $1
	`

	var prediction domain.Prediction
	err := s.db.GetContext(ctx, &prediction, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPredictionNotFound
		}
		return nil, fmt.Errorf("failed to get prediction: %w", err)
	}

	return &prediction, nil
}

// CompletePrediction moves a queued prediction to its terminal status.
// A record is only ever completed once: a missing record yields
// ErrPredictionNotFound and a completed one ErrPredictionFinalized.
func (s *Storage) CompletePrediction(ctx context.Context, id string, outcome domain.Outcome) error {
	query := `
		UPDATE predictions
		SET label_string = $1,
		    error_message = $2,
		    status = $3,
		    updated_at = NOW()
		WHERE id = $4
		  AND status = $5
	`

	var errorMessage *string
	if outcome.ErrorMessage != "" {
		errorMessage = &outcome.ErrorMessage
	}

	result, err := s.db.ExecContext(ctx, query,
		domain.JoinLabels(outcome.Labels),
		errorMessage,
		outcome.Status(),
		id,
		domain.StatusQueued,
	)
	if err != nil {
		return fmt.Errorf("failed to complete prediction: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		existing, err := s.GetPredictionByID(ctx, id)
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: %s is %s", domain.ErrPredictionFinalized, id, existing.Status)
	}

	s.logger.Debug("Prediction completed",
		slog.String("id", id),
		slog.String("status", outcome.Status()),
	)

	return nil
}
