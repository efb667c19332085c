package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/retail-signals/backend-go/internal/cache"
	"github.com/andresuchdata/retail-signals/backend-go/internal/domain"
	"github.com/andresuchdata/retail-signals/backend-go/internal/export"
	"github.com/andresuchdata/retail-signals/backend-go/internal/ingest"
	"github.com/andresuchdata/retail-signals/backend-go/internal/repository"
	"github.com/andresuchdata/retail-signals/backend-go/internal/signals"
	"github.com/andresuchdata/retail-signals/backend-go/internal/storage"
	"github.com/rs/zerolog"
)

// Runner executes one signals batch: fetch, ingest, derive, export, persist, publish.
// Persistence, publishing and caching are optional.
type Runner struct {
	cfg     RunnerConfig
	engine  *signals.Engine
	loader  *ingest.Loader
	writer  *export.Writer
	sources []Source
	repo    repository.SignalsRepository
	store   storage.ObjectStorage
	cache   cache.SignalsCache
	log     zerolog.Logger
	now     func() time.Time
}

// Option configures optional Runner dependencies.
type Option func(*Runner)

func WithSources(sources ...Source) Option {
	return func(r *Runner) { r.sources = append(r.sources, sources...) }
}

func WithRepository(repo repository.SignalsRepository) Option {
	return func(r *Runner) { r.repo = repo }
}

func WithPublisher(store storage.ObjectStorage) Option {
	return func(r *Runner) { r.store = store }
}

func WithCache(c cache.SignalsCache) Option {
	return func(r *Runner) { r.cache = c }
}

// NewRunner creates a new runner
func NewRunner(cfg RunnerConfig, engine *signals.Engine, logger zerolog.Logger, opts ...Option) *Runner {
	r := &Runner{
		cfg:    cfg,
		engine: engine,
		loader: ingest.NewLoader(logger),
		writer: export.NewWriter(cfg.OutputDir, logger),
		log:    logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.cache == nil {
		r.cache = cache.NewNoopSignalsCache()
	}
	return r
}

// Fetch pulls inputs from every configured source into the input directory.
func (r *Runner) Fetch(ctx context.Context) ([]string, error) {
	var fetched []string
	for _, src := range r.sources {
		paths, err := src.Fetch(ctx, r.cfg.InputDir)
		if err != nil {
			return nil, fmt.Errorf("fetch from %s: %w", src.Name(), err)
		}
		r.log.Info().Str("source", src.Name()).Int("files", len(paths)).Msg("Inputs fetched")
		fetched = append(fetched, paths...)
	}
	return fetched, nil
}

// Run processes the inputs end to end. On failure the run is recorded as failed
// and the error returned.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	start := r.now()

	run := &domain.SignalRun{
		Status:    domain.RunStatusPending,
		BuzzSeed:  r.cfg.BuzzSeed,
		AsOf:      r.engine.Config().AsOf,
		StartedAt: start.UTC(),
	}
	if err := r.createRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create signals run: %w", err)
	}

	result := &Result{Run: run}
	r.log.Info().Int64("run_id", run.ID).Msg("Signals run started")

	if _, err := r.Fetch(ctx); err != nil {
		return nil, r.fail(ctx, run, err)
	}

	// Update run status to processing
	run.Status = domain.RunStatusProcessing
	if err := r.updateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to update signals run: %w", err)
	}

	ds, report, err := r.loader.LoadDir(r.cfg.InputDir)
	if err != nil {
		return nil, r.fail(ctx, run, err)
	}
	result.Report = report

	tables, stats, err := r.engine.Run(ctx, ds)
	if err != nil {
		return nil, r.fail(ctx, run, err)
	}
	result.Stats = stats
	run.SalesRows = stats.SalesRows
	run.StockRows = stats.StockRows
	run.UndatedSales = stats.UndatedSales
	run.Products = stats.Products
	run.Transfers = stats.Transfers

	files, err := r.writer.WriteAll(tables)
	if err != nil {
		return nil, r.fail(ctx, run, err)
	}
	result.Files = files

	if r.repo != nil {
		if err := r.repo.SaveTables(ctx, run.ID, tables); err != nil {
			return nil, r.fail(ctx, run, fmt.Errorf("persist tables: %w", err))
		}
	}

	if r.store != nil {
		prefix := storage.RunPrefix(r.cfg.OutputPrefix, run.ID)
		keys, err := storage.UploadFiles(ctx, r.store, prefix, files)
		if err != nil {
			return nil, r.fail(ctx, run, fmt.Errorf("publish tables: %w", err))
		}
		result.Published = keys
		r.log.Info().Str("prefix", prefix).Int("objects", len(keys)).Msg("Tables published")
	}

	// Mark run as completed
	run.Status = domain.RunStatusCompleted
	completed := r.now().UTC()
	run.CompletedAt = &completed
	if err := r.updateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to complete signals run: %w", err)
	}

	if err := r.cache.InvalidateAll(ctx); err != nil {
		r.log.Warn().Err(err).Msg("signals: cache invalidate failed")
	}

	result.Duration = r.now().Sub(start)
	r.log.Info().
		Int64("run_id", run.ID).
		Int("products", run.Products).
		Int("transfers", run.Transfers).
		Int("files", len(files)).
		Dur("duration", result.Duration).
		Msg("Signals run completed")

	return result, nil
}

// createRun records the run. Without a repository the start time in
// milliseconds serves as the run id so published prefixes stay unique.
func (r *Runner) createRun(ctx context.Context, run *domain.SignalRun) error {
	if r.repo == nil {
		run.ID = run.StartedAt.UnixMilli()
		return nil
	}
	return r.repo.CreateRun(ctx, run)
}

func (r *Runner) updateRun(ctx context.Context, run *domain.SignalRun) error {
	if r.repo == nil {
		return nil
	}
	return r.repo.UpdateRun(ctx, run)
}

// fail marks the run as failed and returns cause. The status write survives
// cancellation of ctx.
func (r *Runner) fail(ctx context.Context, run *domain.SignalRun, cause error) error {
	run.Status = domain.RunStatusFailed
	run.ErrorMessage = cause.Error()
	now := r.now().UTC()
	run.CompletedAt = &now

	if err := r.updateRun(context.WithoutCancel(ctx), run); err != nil {
		r.log.Error().Err(err).Int64("run_id", run.ID).Msg("Failed to record run failure")
	}

	r.log.Error().Err(cause).Int64("run_id", run.ID).Msg("Signals run failed")
	return cause
}
