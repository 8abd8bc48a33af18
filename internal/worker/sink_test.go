package worker

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/24p11/predict-api/internal/domain"
)

func TestSink_Dispatch(t *testing.T) {
	outcome := domain.Outcome{Labels: []string{"A", "F"}}

	tests := []struct {
		name           string
		meta           map[string]any
		deadLetter     string
		completeErr    error
		wantErr        error
		wantEphemeral  bool
		wantDeadLetter bool
	}{
		{
			name:          "no persist flag goes to result store",
			meta:          map[string]any{},
			wantEphemeral: true,
		},
		{
			name:          "falsy persist flag goes to result store",
			meta:          map[string]any{"persist": float64(0)},
			wantEphemeral: true,
		},
		{
			name: "persisted result",
			meta: map[string]any{"persist": true},
		},
		{
			name:           "missing record is dead-lettered",
			meta:           map[string]any{"persist": true},
			deadLetter:     "predictions_dead_letter",
			completeErr:    domain.ErrPredictionNotFound,
			wantErr:        domain.ErrPredictionNotFound,
			wantDeadLetter: true,
		},
		{
			name:        "missing record without dead letter queue is dropped",
			meta:        map[string]any{"persist": true},
			completeErr: domain.ErrPredictionNotFound,
			wantErr:     domain.ErrPredictionNotFound,
		},
		{
			name:        "finalized record is not dead-lettered",
			meta:        map[string]any{"persist": true},
			deadLetter:  "predictions_dead_letter",
			completeErr: fmt.Errorf("%w: job-1 is done", domain.ErrPredictionFinalized),
			wantErr:     domain.ErrPredictionFinalized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()

			if domain.Truthy(tt.meta["persist"]) {
				env.records.EXPECT().CompletePrediction(gomock.Any(), "job-1", outcome).Return(tt.completeErr)
			}

			sink := NewSink(&SinkConfig{
				Logger:          discardLogger(),
				Results:         env.queue,
				Records:         env.records,
				DeadLetter:      env.queue,
				DeadLetterQueue: tt.deadLetter,
			})

			err := sink.Dispatch(ctx, "job-1", outcome, tt.meta)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, tt.wantEphemeral, env.mr.Exists("job-1"))

			if tt.wantDeadLetter {
				letters, err := env.mr.List(tt.deadLetter)
				require.NoError(t, err)
				require.Len(t, letters, 1)
				assert.JSONEq(t,
					`{"id":"job-1","outcome":{"labels":["A","F"],"status":"done"},"reason":"prediction not found"}`,
					letters[0],
				)
			} else {
				assert.False(t, env.mr.Exists("predictions_dead_letter"))
			}
		})
	}
}
