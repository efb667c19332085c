package pipeline

import (
	"context"
	"time"

	"github.com/andresuchdata/retail-signals/backend-go/internal/domain"
	"github.com/andresuchdata/retail-signals/backend-go/internal/ingest"
	"github.com/andresuchdata/retail-signals/backend-go/internal/signals"
)

// InputStems are the input files a run looks for.
var InputStems = []string{ingest.SalesFile, ingest.StockFile, ingest.ProductsFile, ingest.BuzzFile}

// Source pulls run inputs into a local directory.
type Source interface {
	// Name identifies the source in logs
	Name() string

	// Fetch downloads the inputs into dir and returns the local paths written
	Fetch(ctx context.Context, dir string) ([]string, error)
}

// RunnerConfig holds configuration for a runner instance
type RunnerConfig struct {
	InputDir     string
	OutputDir    string
	OutputPrefix string // object key prefix for published tables
	BuzzSeed     int64  // recorded on the run
}

// DefaultRunnerConfig returns sensible defaults
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		InputDir:     "data/input",
		OutputDir:    "data/output",
		OutputPrefix: "signals/",
	}
}

// Result summarizes a finished run.
type Result struct {
	Run       *domain.SignalRun
	Report    *ingest.Report
	Stats     *signals.RunStats
	Files     []string // local CSV outputs
	Published []string // object keys
	Duration  time.Duration
}
