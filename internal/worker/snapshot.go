package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mtlprog/lendstat/internal/domain"
	"github.com/mtlprog/lendstat/internal/snapshot"
)

// SnapshotGenerator defines the interface for generating snapshots.
type SnapshotGenerator interface {
	Generate(ctx context.Context, account string, date time.Time) (domain.Portfolio, error)
}

// AfterSnapshotHook is called after each successful snapshot generation.
type AfterSnapshotHook interface {
	Export(ctx context.Context, p domain.Portfolio) error
}

// SnapshotWorker periodically stores the portfolio of every tracked account.
type SnapshotWorker struct {
	generator SnapshotGenerator
	accounts  []string
	interval  time.Duration
	hook      AfterSnapshotHook // optional
}

// NewSnapshotWorker creates a new SnapshotWorker. hook may be nil.
func NewSnapshotWorker(generator SnapshotGenerator, accounts []string, interval time.Duration, hook AfterSnapshotHook) *SnapshotWorker {
	return &SnapshotWorker{
		generator: generator,
		accounts:  accounts,
		interval:  interval,
		hook:      hook,
	}
}

// utcDate returns the current date normalized to midnight UTC.
func utcDate() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// runOnce generates a snapshot per account and returns how many succeeded.
func (w *SnapshotWorker) runOnce(ctx context.Context) int {
	date := utcDate()
	ok := 0
	for _, account := range w.accounts {
		if ctx.Err() != nil {
			break
		}

		p, err := w.generator.Generate(ctx, account, date)
		if errors.Is(err, snapshot.ErrIncomplete) {
			slog.Warn("SnapshotWorker: markets still loading, skipping", "account", account, "error", err)
			continue
		}
		if err != nil {
			slog.Error("SnapshotWorker: generation failed", "account", account, "error", err)
			continue
		}
		ok++

		if w.hook == nil {
			continue
		}
		if err := w.hook.Export(ctx, p); err != nil {
			slog.Error("SnapshotWorker: export hook failed", "account", account, "error", err)
		}
	}
	return ok
}

// Run starts the snapshot worker loop. It blocks until the context is cancelled.
func (w *SnapshotWorker) Run(ctx context.Context) {
	slog.Info("SnapshotWorker: starting", "accounts", len(w.accounts), "interval", w.interval)

	// Generate immediately on startup
	n := w.runOnce(ctx)
	slog.Info("SnapshotWorker: initial generation completed", "stored", n, "accounts", len(w.accounts))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("SnapshotWorker: shutting down")
			return
		case <-ticker.C:
			n := w.runOnce(ctx)
			slog.Info("SnapshotWorker: generation completed", "stored", n, "accounts", len(w.accounts))
		}
	}
}
