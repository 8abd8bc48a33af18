package handler

import (
	"context"
	"log/slog"

	"github.com/24p11/predict-api/internal/domain"
	"github.com/24p11/predict-api/internal/gateway"
)

// PredictionService submits jobs and reads their results
type PredictionService interface {
	Task(name string) (gateway.Task, error)
	Submit(ctx context.Context, task string, inputs []gateway.Input, async bool) ([]gateway.Result, error)
	Prediction(ctx context.Context, task, id string) (gateway.Result, error)
	Predictions(ctx context.Context, task string, filter domain.PredictionFilter) ([]gateway.Result, *domain.PredictionCursor, error)
}

// HealthChecker is a backing service probed by /health
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger       *slog.Logger
	Service      PredictionService
	HealthChecks map[string]HealthChecker
}

// PredictionHandler handles prediction-related HTTP requests
type PredictionHandler struct {
	logger       *slog.Logger
	service      PredictionService
	healthChecks map[string]HealthChecker
}

// NewPredictionHandler creates a new PredictionHandler instance
func NewPredictionHandler(deps *Dependencies) *PredictionHandler {
	return &PredictionHandler{
		logger:       deps.Logger,
		service:      deps.Service,
		healthChecks: deps.HealthChecks,
	}
}
