package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StaleSweeper é o pedaço do SearchRepository que o sweep usa.
type StaleSweeper interface {
	FailStale(ctx context.Context, startedBefore time.Time) ([]string, error)
}

// StaleSearchWorker marca como failed as buscas presas em running, por exemplo
// quando o host caiu no meio da execução.
type StaleSearchWorker struct {
	searches     StaleSweeper
	staleAfter   time.Duration
	tickInterval time.Duration
	now          func() time.Time
	logger       *zap.Logger
}

func NewStaleSearchWorker(searches StaleSweeper, staleAfter, tickInterval time.Duration, logger *zap.Logger) *StaleSearchWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tickInterval <= 0 {
		tickInterval = time.Minute
	}
	return &StaleSearchWorker{
		searches:     searches,
		staleAfter:   staleAfter,
		tickInterval: tickInterval,
		now:          time.Now,
		logger:       logger,
	}
}

func (w *StaleSearchWorker) Start(ctx context.Context) {
	w.logger.Info("stale search worker started",
		zap.Duration("stale_after", w.staleAfter), zap.Duration("interval", w.tickInterval))

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stale search worker stopped")
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep roda uma passada e devolve os ids marcados como failed.
func (w *StaleSearchWorker) Sweep(ctx context.Context) []string {
	cutoff := w.now().Add(-w.staleAfter)

	ids, err := w.searches.FailStale(ctx, cutoff)
	if err != nil {
		w.logger.Error("stale search sweep failed", zap.Error(err))
		return nil
	}

	for _, id := range ids {
		w.logger.Warn("search stuck in running marked failed",
			zap.String("search_id", id), zap.Time("started_before", cutoff))
	}
	if len(ids) > 0 {
		w.logger.Info("stale searches failed", zap.Int("count", len(ids)))
	}
	return ids
}
