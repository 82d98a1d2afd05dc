package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/mtlprog/lendstat/internal/api"
	"github.com/mtlprog/lendstat/internal/export"
	"github.com/mtlprog/lendstat/internal/metrics"
	"github.com/mtlprog/lendstat/internal/snapshot"
	"github.com/mtlprog/lendstat/internal/worker"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "run the HTTP API and background workers",
		Action: serve,
	}
}

func serve(c *cli.Context) error {
	ctx := c.Context

	a, err := newApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	// Snapshots need a database; without one the API serves live data only.
	var snapshots api.SnapshotService
	var snapshotSvc *snapshot.Service
	if a.cfg.DatabaseURL != "" {
		pool, err := connectDB(ctx, a.cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		snapshotSvc = snapshot.NewService(a.portfolios, snapshot.NewPgRepository(pool), a.network.Name)
		snapshots = snapshotSvc
	} else {
		slog.Warn("DATABASE_URL not set, snapshots disabled")
	}

	writers, err := exportWriters(ctx, a.cfg)
	if err != nil {
		return err
	}
	exporter := export.NewService(writers...)

	// Start workers
	metricsSvc := metrics.NewService(a.portfolios, prometheus.DefaultRegisterer)
	go worker.NewMarketWorker(metricsSvc, a.cfg.MarketInterval).Run(ctx)

	switch {
	case snapshotSvc == nil:
	case len(a.cfg.Accounts) == 0:
		slog.Warn("ACCOUNTS not set, snapshot worker disabled")
	default:
		var hook worker.AfterSnapshotHook
		if exporter.Enabled() {
			hook = exporter
		}
		go worker.NewSnapshotWorker(snapshotSvc, a.cfg.Accounts, a.cfg.SnapshotInterval, hook).Run(ctx)
	}

	if a.cfg.AdminAPIKey == "" {
		slog.Warn("ADMIN_API_KEY not set, generate endpoint is unprotected")
	}

	srv := api.NewServer(a.cfg.HTTPPort, a.portfolios, snapshots, prometheus.DefaultGatherer, a.cfg.AdminAPIKey)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", a.cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		return err
	}
	slog.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
	return nil
}
