package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutcome_Status(t *testing.T) {
	assert.Equal(t, StatusDone, Outcome{Labels: []string{"X"}}.Status())
	assert.Equal(t, StatusError, Outcome{Labels: []string{"ERROR"}, ErrorMessage: "boom"}.Status())
	assert.Equal(t, StatusError, FailedOutcome(ClassifierFailureMessage).Status())
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{name: "nil", value: nil, want: false},
		{name: "true", value: true, want: true},
		{name: "false", value: false, want: false},
		{name: "one", value: float64(1), want: true},
		{name: "zero", value: float64(0), want: false},
		{name: "string true", value: "true", want: true},
		{name: "string false", value: "false", want: true},
		{name: "string zero", value: "0", want: true},
		{name: "empty string", value: "", want: false},
		{name: "empty list", value: []any{}, want: false},
		{name: "object", value: map[string]any{"a": 1}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truthy(tt.value))
		})
	}
}

func TestEnvelope_Persist(t *testing.T) {
	assert.False(t, Envelope{ID: "1", Text: "t"}.Persist())
	assert.True(t, Envelope{ID: "1", Text: "t", Meta: map[string]any{MetaPersist: true}}.Persist())
}

func TestPrediction_Labels(t *testing.T) {
	p := &Prediction{LabelString: JoinLabels([]string{"A", "F"})}
	assert.Equal(t, []string{"A", "F"}, p.Labels())

	empty := &Prediction{}
	assert.Equal(t, []string{}, empty.Labels())
	assert.Nil(t, JoinLabels(nil))
}

func TestMissingFieldError(t *testing.T) {
	err := NewMissingFieldError("text")
	assert.True(t, errors.Is(err, ErrMissingField))
	assert.Equal(t, "missing key: text", err.Error())

	var mfe *MissingFieldError
	assert.True(t, errors.As(err, &mfe))
	assert.Equal(t, "text", mfe.Field)
}
