package worker

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Pool runs several independent worker loops on the same queue
type Pool struct {
	logger  *slog.Logger
	workers []*Worker
}

// NewPool creates concurrency workers sharing cfg's clients
func NewPool(cfg *Config, concurrency int) *Pool {
	if concurrency <= 0 {
		concurrency = 1
	}

	workers := make([]*Worker, concurrency)
	for i := range workers {
		workerCfg := *cfg
		workerCfg.WorkerID = fmt.Sprintf("%s-%d", cfg.WorkerID, i)
		workers[i] = NewWorker(&workerCfg)
	}

	return &Pool{
		logger:  cfg.Logger,
		workers: workers,
	}
}

// Run starts every worker and waits until all of them have stopped
func (p *Pool) Run(ctx context.Context) error {
	p.logger.Info("Spawning worker pool",
		slog.Int("concurrency", len(p.workers)),
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, w := range p.workers {
		g.Go(func() error {
			return w.Run(ctx)
		})
	}

	err := g.Wait()

	p.logger.Info("Worker pool stopped")
	return err
}
