package classifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/24p11/predict-api/internal/domain"
)

// Routed classifies in two phases: the router picks a category per text
// (its first label), then each category's texts go to that category's
// classifier in one call.
type Routed struct {
	router Classifier
	routes map[string]Classifier
	logger *slog.Logger
}

// NewRouted creates a two-phase classifier
func NewRouted(router Classifier, routes map[string]Classifier, logger *slog.Logger) *Routed {
	return &Routed{
		router: router,
		routes: routes,
		logger: logger,
	}
}

// Predict routes texts by category and reassembles outcomes in input order
func (r *Routed) Predict(ctx context.Context, texts []string) ([]domain.Outcome, error) {
	categories, err := r.router.Predict(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("router: %w", err)
	}
	if err := checkLength("router", categories, len(texts)); err != nil {
		return nil, err
	}

	outcomes := make([]domain.Outcome, len(texts))

	// groups keep first-seen category order and input order within a category
	var order []string
	groups := make(map[string][]int)
	for i, c := range categories {
		if c.ErrorMessage != "" {
			outcomes[i] = c
			continue
		}

		category := ""
		if len(c.Labels) > 0 {
			category = c.Labels[0]
		}

		if _, ok := r.routes[category]; !ok {
			outcomes[i] = domain.FailedOutcome("no model for category " + category)
			continue
		}

		if _, seen := groups[category]; !seen {
			order = append(order, category)
		}
		groups[category] = append(groups[category], i)
	}

	for _, category := range order {
		positions := groups[category]

		groupTexts := make([]string, len(positions))
		for j, pos := range positions {
			groupTexts[j] = texts[pos]
		}

		r.logger.Debug("Classifying category group",
			slog.String("category", category),
			slog.Int("size", len(groupTexts)),
		)

		predicted, err := r.routes[category].Predict(ctx, groupTexts)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", category, err)
		}
		if err := checkLength(category, predicted, len(groupTexts)); err != nil {
			return nil, err
		}

		for j, pos := range positions {
			outcomes[pos] = predicted[j]
		}
	}

	return outcomes, nil
}
