package domain

// Prediction status constants
const (
	StatusQueued = "queued"
	StatusDone   = "done"
	StatusError  = "error"
)

// Task tags identifying the classification pipeline
const (
	TaskCCAM     = "ccam"
	TaskSeverity = "severity"
)

const (
	// ErrorLabel is the single label reported for a failed job
	ErrorLabel = "ERROR"

	// ClassifierFailureMessage is reported for every job of a batch whose classifier call failed
	ClassifierFailureMessage = "classifier raised an unexpected exception"

	// WrongFormatMessage is reported for inputs the classifier can not interpret
	WrongFormatMessage = "wrong document format"

	// MetaPersist is the envelope field requesting a durable result
	MetaPersist = "persist"
)
