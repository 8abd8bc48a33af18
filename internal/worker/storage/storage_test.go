package storage

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/24p11/predict-api/internal/domain"
)

func newTestStorage(t *testing.T) (*Storage, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewStorage(sqlx.NewDb(db, "postgres"), logger), mock
}

var predictionColumns = []string{"id", "task", "label_string", "error_message", "status", "created_at", "updated_at"}

func TestStorage_GetPredictionByID(t *testing.T) {
	s, mock := newTestStorage(t)
	now := time.Now()

	mock.ExpectQuery("SELECT id, task, label_string, error_message, status, created_at, updated_at FROM predictions").
		WithArgs("my-id").
		WillReturnRows(sqlmock.NewRows(predictionColumns).AddRow("my-id", "ccam", "A,F", nil, "done", now, now))

	p, err := s.GetPredictionByID(context.Background(), "my-id")
	require.NoError(t, err)
	assert.Equal(t, "ccam", p.Task)
	assert.Equal(t, []string{"A", "F"}, p.Labels())
	assert.Nil(t, p.ErrorMessage)
	assert.Equal(t, domain.StatusDone, p.Status)

	mock.ExpectQuery("SELECT (.+) FROM predictions").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err = s.GetPredictionByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrPredictionNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStorage_CompletePrediction(t *testing.T) {
	errMsg := "wrong document format"
	now := time.Now()

	tests := []struct {
		name    string
		outcome domain.Outcome
		setup   func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name:    "done outcome",
			outcome: domain.Outcome{Labels: []string{"A", "F"}},
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("UPDATE predictions").
					WithArgs("A,F", nil, domain.StatusDone, "job-1", domain.StatusQueued).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name:    "error outcome",
			outcome: domain.FailedOutcome(errMsg),
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("UPDATE predictions").
					WithArgs("ERROR", errMsg, domain.StatusError, "job-1", domain.StatusQueued).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name:    "empty labels stored as null",
			outcome: domain.Outcome{Labels: []string{}},
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("UPDATE predictions").
					WithArgs(nil, nil, domain.StatusDone, "job-1", domain.StatusQueued).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name:    "missing record",
			outcome: domain.Outcome{Labels: []string{"A"}},
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("UPDATE predictions").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery("SELECT (.+) FROM predictions").
					WithArgs("job-1").
					WillReturnError(sql.ErrNoRows)
			},
			wantErr: domain.ErrPredictionNotFound,
		},
		{
			name:    "already finalized",
			outcome: domain.Outcome{Labels: []string{"A"}},
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("UPDATE predictions").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery("SELECT (.+) FROM predictions").
					WithArgs("job-1").
					WillReturnRows(sqlmock.NewRows(predictionColumns).AddRow("job-1", "ccam", "B", nil, "done", now, now))
			},
			wantErr: domain.ErrPredictionFinalized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newTestStorage(t)
			tt.setup(mock)

			err := s.CompletePrediction(context.Background(), "job-1", tt.outcome)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStorage_CompletePredictionExecError(t *testing.T) {
	s, mock := newTestStorage(t)

	mock.ExpectExec("UPDATE predictions").WillReturnError(errors.New("connection reset"))

	err := s.CompletePrediction(context.Background(), "job-1", domain.Outcome{Labels: []string{"A"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to complete prediction")
}
