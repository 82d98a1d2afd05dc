package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v2"

	"github.com/mtlprog/lendstat/internal/chain"
	"github.com/mtlprog/lendstat/internal/config"
	"github.com/mtlprog/lendstat/internal/database"
	"github.com/mtlprog/lendstat/internal/domain"
	"github.com/mtlprog/lendstat/internal/export"
	"github.com/mtlprog/lendstat/internal/portfolio"
)

// app holds the services shared by every command.
type app struct {
	cfg        config.Config
	network    domain.Network
	rpc        *ethclient.Client
	portfolios *portfolio.Service
}

func newApp(c *cli.Context) (*app, error) {
	cfg := config.Load()
	if name := c.String("network"); name != "" {
		cfg.Network = name
	}
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("RPC_URL is required")
	}

	network, err := config.LoadNetwork(cfg.Network, cfg.NetworksFile)
	if err != nil {
		return nil, fmt.Errorf("loading network: %w", err)
	}

	rpc, err := chain.Dial(c.Context, cfg.RPCURL, network.ChainID)
	if err != nil {
		return nil, err
	}

	client := chain.NewClient(rpc, cfg.RPCRateLimit, cfg.RPCRetryMax, cfg.RPCRetryBaseDelay)
	network, err = client.ResolveNetwork(c.Context, network)
	if err != nil {
		rpc.Close()
		return nil, fmt.Errorf("resolving network %s: %w", cfg.Network, err)
	}
	slog.Info("network resolved", "network", network.Name, "markets", len(network.Markets), "oracle", network.PriceOracle)

	reader := chain.NewReader(client, network, cfg.ReadCacheTTL)
	return &app{
		cfg:        cfg,
		network:    network,
		rpc:        rpc,
		portfolios: portfolio.NewService(reader, network),
	}, nil
}

func (a *app) Close() {
	a.rpc.Close()
}

// connectDB opens the pool and applies embedded migrations.
func connectDB(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := database.Connect(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	migrations, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating migrations sub-fs: %w", err)
	}
	if err := database.RunMigrations(ctx, pool, migrations); err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return pool, nil
}

// exportWriters builds the configured export destinations.
func exportWriters(ctx context.Context, cfg config.Config) ([]export.SheetWriter, error) {
	var writers []export.SheetWriter
	if cfg.ExportXLSXPath != "" {
		writers = append(writers, export.NewXLSXWriter(cfg.ExportXLSXPath))
	}
	if cfg.GoogleSheetsID != "" && cfg.GoogleCredentialsJSON != "" {
		sw, err := export.NewSheetsWriter(ctx, cfg.GoogleSheetsID, cfg.GoogleCredentialsJSON)
		if err != nil {
			return nil, fmt.Errorf("creating sheets writer: %w", err)
		}
		writers = append(writers, sw)
	}
	return writers, nil
}
