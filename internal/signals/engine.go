package signals

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/retail-signals/backend-go/internal/domain"
)

// RunStats summarizes the inputs and outputs of one engine run.
type RunStats struct {
	SalesRows    int
	StockRows    int
	UndatedSales int
	Products     int
	Transfers    int
}

// Engine sequences the signal derivations over one dataset.
type Engine struct {
	cfg  Config
	buzz BuzzProvider
	log  zerolog.Logger
}

// NewEngine creates an engine. A nil buzz provider falls back to SeededBuzz with seed 0.
func NewEngine(cfg Config, buzz BuzzProvider, logger zerolog.Logger) *Engine {
	if buzz == nil {
		buzz = SeededBuzz{}
	}
	return &Engine{cfg: cfg.withDefaults(), buzz: buzz, log: logger}
}

// Config returns the effective configuration, defaults applied.
func (e *Engine) Config() Config {
	return e.cfg
}

// Run derives every output table from ds. Aggregation runs first; the branches
// that only read its metrics then run concurrently, each filling its own tables.
func (e *Engine) Run(ctx context.Context, ds *domain.Dataset) (*domain.Tables, *RunStats, error) {
	if ds == nil {
		return nil, nil, fmt.Errorf("signals: nil dataset")
	}

	metrics := Aggregate(ds.Sales, ds.Stock)
	if metrics.UndatedSales > 0 {
		e.log.Warn().
			Int("undated_sales", metrics.UndatedSales).
			Msg("Sales without a usable date were left out of aggregation")
	}

	buzz := e.buzz
	if len(ds.Buzz) > 0 {
		buzz = StaticBuzz{Scores: ds.Buzz, Fallback: e.buzz}
	}

	classifier := NewClassifier(e.cfg)
	forecaster := NewForecaster(e.cfg)
	scorer := NewPriorityScorer(e.cfg, buzz)
	matcher := NewRebalancingMatcher(e.cfg)

	tables := &domain.Tables{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		tables.ProductAlerts = classifier.ProductAlerts(metrics)
		tables.StoreAlerts = classifier.StoreAlerts(metrics, ds.Products)
		return gctx.Err()
	})

	g.Go(func() error {
		tables.ExpiryAlerts = classifier.ExpiryAlerts(ds.Stock)
		return gctx.Err()
	})

	g.Go(func() error {
		tables.HistoricalAnalysis = HistoricalAnalysis(metrics)
		tables.SeasonalDiscounts = SeasonalDiscounts(tables.HistoricalAnalysis)
		return gctx.Err()
	})

	g.Go(func() error {
		summary, daily := forecaster.Forecast(metrics)
		tables.ForecastSummary = summary
		tables.ForecastDaily = daily

		forecasts := make(map[string]domain.ForecastResult, len(summary))
		movements := make(map[string]domain.Movement, len(summary))
		for _, fc := range summary {
			forecasts[fc.ProductID] = fc
			movements[fc.ProductID] = classifier.Movement(metrics.productAvg(fc.ProductID))
		}
		if err := gctx.Err(); err != nil {
			return err
		}

		tables.ProductRankings = scorer.Rankings(metrics)
		tables.SocialTrends = scorer.Trends(tables.ProductRankings, forecasts, movements)
		tables.TrendRecommendations = scorer.TrendRecommendations(tables.SocialTrends)
		tables.BuyingRecommendations = scorer.BuyingRecommendations(summary, tables.SocialTrends, movements)
		return gctx.Err()
	})

	g.Go(func() error {
		tables.TransferSuggestions = matcher.Match(metrics)
		return gctx.Err()
	})

	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("signals run: %w", err)
	}

	stats := &RunStats{
		SalesRows:    len(ds.Sales),
		StockRows:    len(ds.Stock),
		UndatedSales: metrics.UndatedSales,
		Products:     len(metrics.AllProducts()),
		Transfers:    len(tables.TransferSuggestions),
	}

	e.log.Info().
		Int("sales_rows", stats.SalesRows).
		Int("stock_rows", stats.StockRows).
		Int("products", stats.Products).
		Int("transfers", stats.Transfers).
		Bool("capacity_constrained", e.cfg.CapacityConstrainedTransfers).
		Msg("Signals derived")

	return tables, stats, nil
}
