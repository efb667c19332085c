package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/andresuchdata/retail-signals/backend-go/internal/config"
	"github.com/andresuchdata/retail-signals/backend-go/internal/ingest"
	"github.com/andresuchdata/retail-signals/backend-go/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func newDBURLFlag(cfg *config.Config) *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "db-url",
		Usage:   "Database connection string; runs are persisted only when set",
		Value:   cfg.Database.URL,
		EnvVars: []string{"DATABASE_URL"},
	}
}

func inputFlags(cfg *config.Config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "input-dir",
			Usage:   "Directory holding sales, stock, products and buzz inputs",
			Value:   cfg.App.InputDir,
			EnvVars: []string{"SIGNALS_INPUT_DIR"},
		},
		&cli.StringFlag{
			Name:    "drive-folder-id",
			Usage:   "Google Drive folder to download inputs from",
			Value:   cfg.Drive.FolderID,
			EnvVars: []string{"GOOGLE_DRIVE_FOLDER_ID"},
		},
		&cli.StringFlag{
			Name:  "s3-input-prefix",
			Usage: "Object prefix to download inputs from (requires S3_ENABLED)",
			Value: cfg.Storage.InputPrefix,
		},
	}
}

func newApp(cfg *config.Config) *cli.App {
	runFlags := append(inputFlags(cfg),
		newDBURLFlag(cfg),
		&cli.StringFlag{
			Name:    "output-dir",
			Usage:   "Directory the output tables are written to",
			Value:   cfg.App.OutputDir,
			EnvVars: []string{"SIGNALS_OUTPUT_DIR"},
		},
		&cli.StringFlag{
			Name:  "s3-output-prefix",
			Usage: "Object prefix the output tables are published under (requires S3_ENABLED)",
			Value: cfg.Storage.OutputPrefix,
		},
		&cli.Int64Flag{
			Name:  "buzz-seed",
			Usage: "Seed for synthetic social buzz",
			Value: cfg.Signals.BuzzSeed,
		},
		&cli.StringFlag{
			Name:  "as-of",
			Usage: "Reference date for expiry alerts (YYYY-MM-DD), defaults to today",
		},
		&cli.BoolFlag{
			Name:  "capacity-constrained-transfers",
			Usage: "Decrement store capacity after each transfer suggestion",
			Value: cfg.Signals.CapacityConstrainedTransfers,
		},
		&cli.BoolFlag{
			Name:  "skip-fetch",
			Usage: "Use the input directory as is, without pulling from Drive or S3",
		},
	)

	return &cli.App{
		Name:  "signals",
		Usage: "Derive retail inventory signals from sales and stock snapshots",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   cfg.Log.Level,
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			logger.Configure(c.String("log-level"), cfg.Log.Format)
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Fetch inputs, derive every signal table, export and persist them",
				Flags:  runFlags,
				Action: runSignals(cfg),
			},
			{
				Name:   "fetch",
				Usage:  "Only pull inputs from Drive or S3 into the input directory",
				Flags:  inputFlags(cfg),
				Action: fetchInputs(cfg),
			},
			{
				Name:   "migrate",
				Usage:  "Apply the database migrations",
				Flags:  []cli.Flag{newDBURLFlag(cfg)},
				Action: migrate(cfg),
			},
		},
	}
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Debug().Err(err).Msg("No .env file loaded")
	}

	cfg := config.Load()
	logger.Configure(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp(cfg).RunContext(ctx, os.Args); err != nil {
		logger.Log.Error().Err(err).Msg("signals failed")
		stop()
		os.Exit(exitCode(err))
	}
}

// exitCode maps input schema errors to 2 and everything else to 1.
func exitCode(err error) int {
	var coder cli.ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	if ingest.IsSchemaError(err) {
		return 2
	}
	return 1
}
