package handler

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/24p11/predict-api/internal/domain"
)

func TestPredictionCursor_RoundTrip(t *testing.T) {
	cursor := &domain.PredictionCursor{
		CreatedAt: time.Date(2026, 3, 1, 12, 30, 0, 123456789, time.UTC),
		ID:        "5f0c|odd-id",
	}

	decoded, err := DecodePredictionCursor(EncodePredictionCursor(cursor))
	require.NoError(t, err)
	assert.True(t, cursor.CreatedAt.Equal(decoded.CreatedAt))
	assert.Equal(t, cursor.ID, decoded.ID)
}

func TestDecodePredictionCursor(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantNil bool
		wantErr bool
	}{
		{name: "empty is first page", input: "", wantNil: true},
		{name: "not base64", input: "!!", wantErr: true},
		{name: "no separator", input: base64.RawURLEncoding.EncodeToString([]byte("123")), wantErr: true},
		{name: "no id", input: base64.RawURLEncoding.EncodeToString([]byte("123|")), wantErr: true},
		{name: "bad timestamp", input: base64.RawURLEncoding.EncodeToString([]byte("yesterday|p1")), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cursor, err := DecodePredictionCursor(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, cursor)
			}
		})
	}
}
