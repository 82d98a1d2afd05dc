package worker

import (
	"context"
	"log/slog"
	"time"
)

// MarketRefresher defines the interface for refreshing market-wide figures.
type MarketRefresher interface {
	RefreshMarkets(ctx context.Context) error
}

// MarketWorker periodically refreshes market rates and liquidity.
type MarketWorker struct {
	refresher MarketRefresher
	interval  time.Duration
}

// NewMarketWorker creates a new MarketWorker.
func NewMarketWorker(refresher MarketRefresher, interval time.Duration) *MarketWorker {
	return &MarketWorker{
		refresher: refresher,
		interval:  interval,
	}
}

// Run starts the market worker loop. It blocks until the context is cancelled.
func (w *MarketWorker) Run(ctx context.Context) {
	slog.Info("MarketWorker: starting")

	// Refresh immediately on startup
	if err := w.refresher.RefreshMarkets(ctx); err != nil {
		slog.Error("MarketWorker: initial refresh failed", "error", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("MarketWorker: shutting down")
			return
		case <-ticker.C:
			if err := w.refresher.RefreshMarkets(ctx); err != nil {
				slog.Error("MarketWorker: refresh failed", "error", err)
			}
		}
	}
}
