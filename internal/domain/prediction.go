package domain

import (
	"strings"
	"time"
)

// Prediction is the durable record tracking an asynchronous job
type Prediction struct {
	ID           string    `db:"id"`
	Task         string    `db:"task"`
	LabelString  *string   `db:"label_string"`
	ErrorMessage *string   `db:"error_message"`
	Status       string    `db:"status"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Labels splits the stored comma-joined labels
func (p *Prediction) Labels() []string {
	if p.LabelString == nil || *p.LabelString == "" {
		return []string{}
	}
	return strings.Split(*p.LabelString, ",")
}

// JoinLabels renders labels the way they are stored on the prediction record
func JoinLabels(labels []string) *string {
	if len(labels) == 0 {
		return nil
	}
	s := strings.Join(labels, ",")
	return &s
}

// PredictionCursor marks the last record of a listing page
type PredictionCursor struct {
	CreatedAt time.Time
	ID        string
}

// PredictionFilter selects a page of prediction records, newest first
type PredictionFilter struct {
	Task     string
	Status   string
	PageSize int
	Cursor   *PredictionCursor
}
