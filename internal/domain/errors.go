package domain

import "errors"

var (
	// ErrMalformedPayload is returned when a queue message is not a JSON object
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrMissingField is returned when a mandatory envelope field is absent
	ErrMissingField = errors.New("missing field")

	// ErrClassifierFailure is returned when the batched prediction call fails
	ErrClassifierFailure = errors.New("classifier failure")

	// ErrPredictionNotFound is returned when a durable prediction record does not exist
	ErrPredictionNotFound = errors.New("prediction not found")

	// ErrPredictionFinalized is returned when a prediction record already left the queued state
	ErrPredictionFinalized = errors.New("prediction already in terminal status")

	// ErrResultTimeout is returned when a synchronous caller gives up waiting for results
	ErrResultTimeout = errors.New("timed out waiting for prediction results")

	// ErrUnknownTask is returned for a task tag with no configured pipeline
	ErrUnknownTask = errors.New("unknown task")
)

// MissingFieldError names the absent envelope key
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return "missing key: " + e.Field
}

func (e *MissingFieldError) Unwrap() error {
	return ErrMissingField
}

// NewMissingFieldError creates a new MissingFieldError
func NewMissingFieldError(field string) error {
	return &MissingFieldError{Field: field}
}
