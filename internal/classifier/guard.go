package classifier

import (
	"context"
	"strings"

	"github.com/24p11/predict-api/internal/domain"
)

// Guard rejects blank documents before they reach the wrapped classifier
type Guard struct {
	next Classifier
}

// NewGuard wraps next with input validation
func NewGuard(next Classifier) *Guard {
	return &Guard{next: next}
}

// Predict answers blank texts with a wrong-format error and forwards the rest
func (g *Guard) Predict(ctx context.Context, texts []string) ([]domain.Outcome, error) {
	outcomes := make([]domain.Outcome, len(texts))

	valid := make([]string, 0, len(texts))
	positions := make([]int, 0, len(texts))
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			outcomes[i] = domain.FailedOutcome(domain.WrongFormatMessage)
			continue
		}
		valid = append(valid, text)
		positions = append(positions, i)
	}

	if len(valid) == 0 {
		return outcomes, nil
	}

	predicted, err := g.next.Predict(ctx, valid)
	if err != nil {
		return nil, err
	}
	if err := checkLength("guarded", predicted, len(valid)); err != nil {
		return nil, err
	}

	for j, pos := range positions {
		outcomes[pos] = predicted[j]
	}

	return outcomes, nil
}
