package domain

// Envelope is one unit of classification work as carried on the work queue
type Envelope struct {
	ID   string
	Text string
	Meta map[string]any
}

// Persist reports whether the result must go to the durable prediction record
func (e Envelope) Persist() bool {
	return Truthy(e.Meta[MetaPersist])
}

// Outcome is the per-job classification result
type Outcome struct {
	Labels       []string
	ErrorMessage string
}

// Status derives the job status from the presence of an error message
func (o Outcome) Status() string {
	if o.ErrorMessage != "" {
		return StatusError
	}
	return StatusDone
}

// FailedOutcome builds an outcome carrying the error label and message
func FailedOutcome(message string) Outcome {
	return Outcome{
		Labels:       []string{ErrorLabel},
		ErrorMessage: message,
	}
}

// Truthy applies loose truthiness to a decoded JSON value
func Truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case float64:
		return val != 0
	case int:
		return val != 0
	case string:
		// any non-empty string counts, "false" and "0" included
		return val != ""
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		return true
	}
}
