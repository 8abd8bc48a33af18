// Package classifier defines the batch prediction contract used by the
// worker and the classifier variants selectable from configuration.
package classifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/24p11/predict-api/internal/config"
	"github.com/24p11/predict-api/internal/domain"
)

// Classifier predicts one Outcome per text, in input order
type Classifier interface {
	Predict(ctx context.Context, texts []string) ([]domain.Outcome, error)
}

// Func adapts a function to the Classifier interface
type Func func(ctx context.Context, texts []string) ([]domain.Outcome, error)

// Predict calls f
func (f Func) Predict(ctx context.Context, texts []string) ([]domain.Outcome, error) {
	return f(ctx, texts)
}

// New builds the classifier tree described by cfg behind an input Guard
func New(cfg config.ClassifierConfig, logger *slog.Logger) (Classifier, error) {
	c, err := build(cfg, logger)
	if err != nil {
		return nil, err
	}
	return NewGuard(c), nil
}

func build(cfg config.ClassifierConfig, logger *slog.Logger) (Classifier, error) {
	switch cfg.Kind {
	case config.ClassifierStatic:
		return NewStatic(cfg.Labels...), nil

	case config.ClassifierHTTP:
		return NewHTTP(cfg.URL, cfg.Timeout), nil

	case config.ClassifierRouted:
		if cfg.Router == nil {
			return nil, fmt.Errorf("routed classifier needs a router")
		}
		router, err := build(*cfg.Router, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to build router: %w", err)
		}

		routes := make(map[string]Classifier, len(cfg.Routes))
		for category, routeCfg := range cfg.Routes {
			route, err := build(routeCfg, logger)
			if err != nil {
				return nil, fmt.Errorf("failed to build route %s: %w", category, err)
			}
			routes[category] = route
		}

		return NewRouted(router, routes, logger), nil

	default:
		return nil, fmt.Errorf("unknown classifier kind: %q", cfg.Kind)
	}
}

// checkLength guards against classifiers returning a misaligned batch
func checkLength(name string, outcomes []domain.Outcome, want int) error {
	if len(outcomes) != want {
		return fmt.Errorf("%s classifier returned %d outcomes for %d texts", name, len(outcomes), want)
	}
	return nil
}
