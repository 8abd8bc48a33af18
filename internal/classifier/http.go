package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/24p11/predict-api/internal/domain"
)

// DefaultHTTPTimeout bounds one model server call when none is configured
const DefaultHTTPTimeout = 5 * time.Minute

// HTTP delegates prediction to a model server
type HTTP struct {
	URL  string
	HTTP *http.Client
}

// NewHTTP creates a model server client
func NewHTTP(url string, timeout time.Duration) *HTTP {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	return &HTTP{
		URL:  url,
		HTTP: &http.Client{Timeout: timeout},
	}
}

type httpRequest struct {
	Inputs []string `json:"inputs"`
}

type httpPrediction struct {
	Labels       []string `json:"labels"`
	ErrorMessage string   `json:"error_message,omitempty"`
}

type httpResponse struct {
	Predictions []httpPrediction `json:"predictions"`
}

// Predict posts the batch and maps the answer back in input order
func (c *HTTP) Predict(ctx context.Context, texts []string) ([]domain.Outcome, error) {
	data, err := json.Marshal(httpRequest{Inputs: texts})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewBuffer(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("model server error (status %d): %s", resp.StatusCode, string(body))
	}

	var res httpResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("failed to decode model server response: %w", err)
	}

	outcomes := make([]domain.Outcome, len(res.Predictions))
	for i, p := range res.Predictions {
		outcomes[i] = domain.Outcome{Labels: p.Labels, ErrorMessage: p.ErrorMessage}
	}

	if err := checkLength("http", outcomes, len(texts)); err != nil {
		return nil, err
	}

	return outcomes, nil
}
