package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/24p11/predict-api/internal/api/dto"
	"github.com/24p11/predict-api/internal/domain"
	"github.com/24p11/predict-api/internal/gateway"
)

const healthCheckTimeout = 2 * time.Second

// Predict handles POST /predict/:task/
// Enqueues the inputs and either waits for their labels or returns them as queued
func (h *PredictionHandler) Predict(c *gin.Context) {
	taskName := c.Param("task")

	h.logger.Info("Predict called",
		slog.String("task", taskName),
		slog.String("query", c.Request.URL.RawQuery),
	)

	var query dto.PredictQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.logger.Error("Invalid query parameters", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "asynch must be 0 or 1",
		})
		return
	}

	task, err := h.service.Task(taskName)
	if err != nil {
		h.writeError(c, err, "Unknown task")
		return
	}

	var req dto.PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	inputs := make([]gateway.Input, len(req.Inputs))
	for i, in := range req.Inputs {
		inputs[i] = gateway.Input{ID: in.ID, Text: *in.Text}
	}

	async := query.Asynch == 1
	results, err := h.service.Submit(c.Request.Context(), task.Name, inputs, async)
	if err != nil {
		h.writeError(c, err, "Failed to submit predictions")
		return
	}

	predictions := make([]gin.H, len(results))
	for i, r := range results {
		if async {
			predictions[i] = gin.H{
				"id":     r.ID,
				"status": r.Status,
			}
			continue
		}

		p := gin.H{
			"id":            r.ID,
			task.LabelField: labelsOrEmpty(r.Labels),
			"status":        r.Status,
		}
		if r.ErrorMessage != "" {
			p["error_message"] = r.ErrorMessage
		}
		predictions[i] = p
	}

	c.JSON(http.StatusOK, gin.H{
		"predictions": predictions,
	})
}

// GetPrediction handles GET /predict/:task/:id/
// Returns the durable record of an asynchronous job
func (h *PredictionHandler) GetPrediction(c *gin.Context) {
	taskName := c.Param("task")
	id := c.Param("id")

	h.logger.Info("GetPrediction called",
		slog.String("task", taskName),
		slog.String("id", id),
	)

	task, err := h.service.Task(taskName)
	if err != nil {
		h.writeError(c, err, "Unknown task")
		return
	}

	result, err := h.service.Prediction(c.Request.Context(), task.Name, id)
	if err != nil {
		h.writeError(c, err, "Failed to get prediction")
		return
	}

	c.JSON(http.StatusOK, recordResponse(task, result))
}

// ListPredictions handles GET /predict/:task/
// Lists a task's durable records newest first with cursor pagination
func (h *PredictionHandler) ListPredictions(c *gin.Context) {
	taskName := c.Param("task")

	h.logger.Info("ListPredictions called",
		slog.String("task", taskName),
		slog.String("query", c.Request.URL.RawQuery),
	)

	var req dto.ListPredictionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Error("Invalid query parameters", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	cursor, err := DecodePredictionCursor(req.Cursor)
	if err != nil {
		h.logger.Error("Invalid cursor", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid cursor",
		})
		return
	}

	task, err := h.service.Task(taskName)
	if err != nil {
		h.writeError(c, err, "Unknown task")
		return
	}

	results, next, err := h.service.Predictions(c.Request.Context(), task.Name, domain.PredictionFilter{
		Status:   req.Status,
		PageSize: req.PageSize,
		Cursor:   cursor,
	})
	if err != nil {
		h.writeError(c, err, "Failed to list predictions")
		return
	}

	predictions := make([]gin.H, len(results))
	for i, r := range results {
		p := recordResponse(task, r)
		p["created_at"] = r.CreatedAt.Format(time.RFC3339)
		predictions[i] = p
	}

	resp := gin.H{
		"predictions": predictions,
	}
	if next != nil {
		resp["next_cursor"] = EncodePredictionCursor(next)
	}

	c.JSON(http.StatusOK, resp)
}

// Health handles GET /health
// Probes every backing service
func (h *PredictionHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	failures := gin.H{}
	for name, check := range h.healthChecks {
		if err := check.HealthCheck(ctx); err != nil {
			h.logger.Error("Health check failed",
				slog.String("dependency", name),
				slog.String("error", err.Error()),
			)
			failures[name] = err.Error()
		}
	}

	if len(failures) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"checks": failures,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "predict-api",
	})
}

// recordResponse renders a durable record; error_message is null when unset
func recordResponse(task gateway.Task, r gateway.Result) gin.H {
	var errorMessage *string
	if r.ErrorMessage != "" {
		errorMessage = &r.ErrorMessage
	}

	return gin.H{
		"id":            r.ID,
		task.LabelField: labelsOrEmpty(r.Labels),
		"error_message": errorMessage,
		"status":        r.Status,
	}
}

func labelsOrEmpty(labels []string) []string {
	if labels == nil {
		return []string{}
	}
	return labels
}

// writeError maps domain errors to HTTP status codes
func (h *PredictionHandler) writeError(c *gin.Context, err error, message string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrUnknownTask):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrPredictionNotFound):
		status = http.StatusNotFound
		message = "Prediction not found"
	case errors.Is(err, domain.ErrResultTimeout):
		status = http.StatusGatewayTimeout
		message = "Timed out waiting for predictions"
	}

	if status == http.StatusInternalServerError {
		h.logger.Error(message, slog.String("error", err.Error()))
	} else {
		h.logger.Warn(message, slog.String("error", err.Error()))
	}

	c.JSON(status, gin.H{
		"error": message,
	})
}
