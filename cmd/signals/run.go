package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/andresuchdata/retail-signals/backend-go/internal/cache"
	"github.com/andresuchdata/retail-signals/backend-go/internal/config"
	"github.com/andresuchdata/retail-signals/backend-go/internal/drive"
	"github.com/andresuchdata/retail-signals/backend-go/internal/pipeline"
	"github.com/andresuchdata/retail-signals/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/retail-signals/backend-go/internal/signals"
	"github.com/andresuchdata/retail-signals/backend-go/internal/storage"
	"github.com/andresuchdata/retail-signals/backend-go/pkg/logger"
	"github.com/urfave/cli/v2"
)

const asOfLayout = "2006-01-02"

// runOptions are the per-invocation settings resolved from flags.
type runOptions struct {
	InputDir      string
	OutputDir     string
	DBURL         string
	DriveFolderID string
	InputPrefix   string
	OutputPrefix  string
	BuzzSeed      int64
	AsOf          time.Time
	Capacity      bool
	SkipFetch     bool
}

func optionsFromContext(c *cli.Context, cfg *config.Config) (runOptions, error) {
	opts := runOptions{
		InputDir:      c.String("input-dir"),
		OutputDir:     c.String("output-dir"),
		DBURL:         strings.TrimSpace(c.String("db-url")),
		DriveFolderID: strings.TrimSpace(c.String("drive-folder-id")),
		InputPrefix:   c.String("s3-input-prefix"),
		OutputPrefix:  c.String("s3-output-prefix"),
		BuzzSeed:      c.Int64("buzz-seed"),
		AsOf:          cfg.Signals.AsOf,
		Capacity:      c.Bool("capacity-constrained-transfers"),
		SkipFetch:     c.Bool("skip-fetch"),
	}

	if raw := strings.TrimSpace(c.String("as-of")); raw != "" {
		asOf, err := time.Parse(asOfLayout, raw)
		if err != nil {
			return opts, cli.Exit(fmt.Sprintf("invalid --as-of %q: expected YYYY-MM-DD", raw), 2)
		}
		opts.AsOf = asOf
	}
	if opts.InputDir == "" {
		return opts, cli.Exit("--input-dir is required", 2)
	}
	return opts, nil
}

// engineConfig merges configured thresholds with the flag overrides.
func engineConfig(sc config.SignalsConfig, opts runOptions) signals.Config {
	return signals.Config{
		ReorderLevel:                 sc.ReorderLevel,
		OverstockThreshold:           sc.OverstockThreshold,
		FastMovingMin:                sc.FastMovingMin,
		SlowMovingMax:                sc.SlowMovingMax,
		ForecastHorizonDays:          sc.ForecastHorizonDays,
		TrailingWindowDays:           sc.TrailingWindowDays,
		SafetyFactor:                 sc.SafetyFactor,
		TransferBufferDays:           sc.TransferBufferDays,
		SurplusThreshold:             sc.SurplusThreshold,
		ShortageThreshold:            sc.ShortageThreshold,
		CapacityConstrainedTransfers: opts.Capacity,
		ExpiryWarningDays:            sc.ExpiryWarningDays,
		AsOf:                         opts.AsOf,
	}
}

// resources collects what a command opened so it can be released in one place.
type resources struct {
	closers []func() error
}

func (r *resources) add(fn func() error) {
	r.closers = append(r.closers, fn)
}

func (r *resources) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// sources builds the input sources enabled by configuration and flags.
func sources(ctx context.Context, cfg *config.Config, opts runOptions) ([]pipeline.Source, storage.ObjectStorage, error) {
	var out []pipeline.Source

	if opts.DriveFolderID != "" {
		svc, err := drive.NewServiceFromFile(ctx, cfg.Drive.CredentialsFile)
		if err != nil {
			return nil, nil, fmt.Errorf("init google drive: %w", err)
		}
		out = append(out, &pipeline.DriveSource{
			Downloader: drive.NewDownloader(svc, logger.Component("drive")),
			FolderID:   opts.DriveFolderID,
		})
	}

	var store storage.ObjectStorage
	if cfg.Storage.Enabled {
		client, err := storage.NewS3Client(storage.S3Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			UseSSL:    cfg.Storage.UseSSL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("init object storage: %w", err)
		}
		store = client
		if opts.InputPrefix != "" {
			out = append(out, &pipeline.StorageSource{Store: client, Prefix: opts.InputPrefix})
		}
	}

	return out, store, nil
}

func buildRunner(ctx context.Context, cfg *config.Config, opts runOptions, res *resources) (*pipeline.Runner, error) {
	engine := signals.NewEngine(
		engineConfig(cfg.Signals, opts),
		signals.SeededBuzz{Seed: opts.BuzzSeed},
		logger.Component("signals"),
	)

	srcs, store, err := sources(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}

	var runnerOpts []pipeline.Option
	if !opts.SkipFetch {
		runnerOpts = append(runnerOpts, pipeline.WithSources(srcs...))
	}
	if store != nil && opts.OutputPrefix != "" {
		runnerOpts = append(runnerOpts, pipeline.WithPublisher(store))
	}

	if opts.DBURL != "" {
		dbCfg := cfg.Database
		dbCfg.URL = opts.DBURL
		db, err := postgres.NewDB(&dbCfg)
		if err != nil {
			return nil, err
		}
		res.add(db.Close)
		runnerOpts = append(runnerOpts, pipeline.WithRepository(postgres.NewSignalsRepository(db)))
	}

	if cfg.Cache.Enabled {
		c, err := cache.NewSignalsCache(ctx, cfg.Cache)
		if err != nil {
			// Stale entries expire on their own TTL.
			logger.Log.Warn().Err(err).Msg("Redis unavailable, cached tables will not be invalidated")
		} else {
			res.add(c.Close)
			runnerOpts = append(runnerOpts, pipeline.WithCache(c))
		}
	}

	runnerCfg := pipeline.RunnerConfig{
		InputDir:     opts.InputDir,
		OutputDir:    opts.OutputDir,
		OutputPrefix: opts.OutputPrefix,
		BuzzSeed:     opts.BuzzSeed,
	}
	return pipeline.NewRunner(runnerCfg, engine, logger.Component("pipeline"), runnerOpts...), nil
}

func runSignals(cfg *config.Config) cli.ActionFunc {
	return func(c *cli.Context) error {
		opts, err := optionsFromContext(c, cfg)
		if err != nil {
			return err
		}
		if opts.OutputDir == "" {
			return cli.Exit("--output-dir is required", 2)
		}

		res := &resources{}
		defer func() {
			if err := res.Close(); err != nil {
				logger.Log.Warn().Err(err).Msg("Failed to release resources")
			}
		}()

		runner, err := buildRunner(c.Context, cfg, opts, res)
		if err != nil {
			return err
		}

		result, err := runner.Run(c.Context)
		if err != nil {
			return err
		}

		fmt.Fprintf(c.App.Writer, "run %d completed: %d products, %d transfers, %d undated sales, %d tables in %s\n",
			result.Run.ID, result.Run.Products, result.Run.Transfers, result.Run.UndatedSales,
			len(result.Files), opts.OutputDir)
		for _, key := range result.Published {
			fmt.Fprintf(c.App.Writer, "published %s\n", key)
		}
		return nil
	}
}

func fetchInputs(cfg *config.Config) cli.ActionFunc {
	return func(c *cli.Context) error {
		opts, err := optionsFromContext(c, cfg)
		if err != nil {
			return err
		}

		srcs, _, err := sources(c.Context, cfg, opts)
		if err != nil {
			return err
		}
		if len(srcs) == 0 {
			return cli.Exit("no input source configured: set --drive-folder-id or S3_ENABLED with --s3-input-prefix", 2)
		}

		runner := pipeline.NewRunner(pipeline.RunnerConfig{InputDir: opts.InputDir}, nil,
			logger.Component("pipeline"), pipeline.WithSources(srcs...))
		paths, err := runner.Fetch(c.Context)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintln(c.App.Writer, p)
		}
		return nil
	}
}

func migrate(cfg *config.Config) cli.ActionFunc {
	return func(c *cli.Context) error {
		dbCfg := cfg.Database
		if url := strings.TrimSpace(c.String("db-url")); url != "" {
			dbCfg.URL = url
		}

		db, err := postgres.NewDB(&dbCfg)
		if err != nil {
			return err
		}
		defer db.Close()

		applied, err := db.Migrate(c.Context)
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			fmt.Fprintln(c.App.Writer, "database is up to date")
			return nil
		}
		for _, v := range applied {
			fmt.Fprintf(c.App.Writer, "applied %s\n", v)
		}
		return nil
	}
}
