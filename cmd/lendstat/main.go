package main

import (
	"context"
	"embed"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/lendstat/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}

	app := &cli.App{
		Name:  "lendstat",
		Usage: "money-market portfolio statistics",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "network",
				Usage:   "network name from the networks file",
				EnvVars: []string{"NETWORK"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			portfolioCommand(),
			marketsCommand(),
			previewCommand(),
			exportCommand(),
		},
		DefaultCommand: "serve",
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatalf("lendstat: %v", err)
	}
}
