package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/24p11/predict-api/internal/domain"
	"github.com/24p11/predict-api/shared/postgresql"
)

type Storage struct {
	db *sqlx.DB
}

func NewStorage(pg *postgresql.Client) *Storage {
	return &Storage{
		db: pg.GetDB(),
	}
}

// NewStorageFromDB wraps an existing handle
func NewStorageFromDB(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}

// EnsureSchema creates the predictions table when it does not exist yet
func (s *Storage) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS predictions (
			id            TEXT PRIMARY KEY,
			task          TEXT NOT NULL,
			label_string  TEXT,
			error_message TEXT,
			status        TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS predictions_task_created_idx
			ON predictions (task, created_at DESC, id DESC);
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// CreatePredictions inserts one queued record per id, all or nothing
func (s *Storage) CreatePredictions(ctx context.Context, task string, ids []string) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO predictions (
			id, task, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, NOW(), NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err = stmt.ExecContext(ctx, id, task, domain.StatusQueued); err != nil {
			return fmt.Errorf("failed to create prediction %s: %w", id, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit predictions: %w", err)
	}

	return nil
}

// DeletePredictions removes records that are still queued
func (s *Storage) DeletePredictions(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := sqlx.In(`
		DELETE FROM predictions
		WHERE status = ? AND id IN (?)
	`, domain.StatusQueued, ids)
	if err != nil {
		return fmt.Errorf("failed to build delete: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to delete predictions: %w", err)
	}

	return nil
}

func (s *Storage) GetPrediction(ctx context.Context, id string) (*domain.Prediction, error) {
	var prediction domain.Prediction
	query := `
		SELECT
			id, task, label_string, error_message,
			status, created_at, updated_at
		FROM predictions
		WHERE id = $1
	`

	err := s.db.GetContext(ctx, &prediction, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrPredictionNotFound, id)
		}
		return nil, fmt.Errorf("failed to get prediction: %w", err)
	}

	return &prediction, nil
}

func (s *Storage) ListPredictions(ctx context.Context, filter domain.PredictionFilter) ([]domain.Prediction, error) {
	query := `
        SELECT
            id, task, label_string, error_message,
            status, created_at, updated_at
        FROM predictions
        WHERE task = $1
    `
	args := []interface{}{filter.Task}
	argIdx := 2

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.ID)
		argIdx += 2
	}

	// Order by created_at DESC, id DESC for consistent pagination
	query += " ORDER BY created_at DESC, id DESC"
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, filter.PageSize)

	var predictions []domain.Prediction
	err := s.db.SelectContext(ctx, &predictions, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}

	return predictions, nil
}
