package main

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/andresuchdata/retail-signals/backend-go/internal/config"
	"github.com/andresuchdata/retail-signals/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func testConfig() *config.Config {
	return &config.Config{
		App:     config.AppConfig{InputDir: "data/input", OutputDir: "data/output"},
		Storage: config.StorageConfig{InputPrefix: "inputs/", OutputPrefix: "signals/"},
		Signals: config.SignalsConfig{
			ReorderLevel:       10,
			OverstockThreshold: 60,
			SafetyFactor:       1.5,
			BuzzSeed:           42,
			ExpiryWarningDays:  7,
		},
		Log: config.LogConfig{Level: "info", Format: "console"},
	}
}

// parseRun runs the app with the run action swapped for one capturing the options.
func parseRun(t *testing.T, cfg *config.Config, args ...string) (runOptions, error) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	app := newApp(cfg)
	app.Writer = &bytes.Buffer{}
	app.ExitErrHandler = func(*cli.Context, error) {}

	var opts runOptions
	for _, cmd := range app.Commands {
		if cmd.Name == "run" {
			cmd.Action = func(c *cli.Context) error {
				var err error
				opts, err = optionsFromContext(c, cfg)
				return err
			}
		}
	}

	err := app.Run(append([]string{"signals", "run"}, args...))
	return opts, err
}

func TestRunFlagsDefaultToConfig(t *testing.T) {
	opts, err := parseRun(t, testConfig())
	require.NoError(t, err)

	assert.Equal(t, "data/input", opts.InputDir)
	assert.Equal(t, "data/output", opts.OutputDir)
	assert.Equal(t, "inputs/", opts.InputPrefix)
	assert.Equal(t, "signals/", opts.OutputPrefix)
	assert.Equal(t, int64(42), opts.BuzzSeed)
	assert.True(t, opts.AsOf.IsZero())
	assert.False(t, opts.Capacity)
	assert.Empty(t, opts.DBURL)
}

func TestRunFlagsOverride(t *testing.T) {
	opts, err := parseRun(t, testConfig(),
		"--input-dir", "/tmp/in",
		"--buzz-seed", "7",
		"--as-of", "2024-03-10",
		"--capacity-constrained-transfers",
		"--db-url", " postgres://localhost/signals ",
		"--skip-fetch",
	)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/in", opts.InputDir)
	assert.Equal(t, int64(7), opts.BuzzSeed)
	assert.Equal(t, time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC), opts.AsOf)
	assert.True(t, opts.Capacity)
	assert.True(t, opts.SkipFetch)
	assert.Equal(t, "postgres://localhost/signals", opts.DBURL)
}

func TestRunRejectsBadAsOf(t *testing.T) {
	_, err := parseRun(t, testConfig(), "--as-of", "10/03/2024")

	var coder cli.ExitCoder
	require.ErrorAs(t, err, &coder)
	assert.Equal(t, 2, coder.ExitCode())
	assert.Contains(t, err.Error(), "YYYY-MM-DD")
}

func TestEngineConfig(t *testing.T) {
	asOf := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)
	got := engineConfig(testConfig().Signals, runOptions{AsOf: asOf, Capacity: true})

	assert.Equal(t, 10.0, got.ReorderLevel)
	assert.Equal(t, 60.0, got.OverstockThreshold)
	assert.Equal(t, 1.5, got.SafetyFactor)
	assert.Equal(t, 7, got.ExpiryWarningDays)
	assert.Equal(t, asOf, got.AsOf)
	assert.True(t, got.CapacityConstrainedTransfers)
}

func TestExitCode(t *testing.T) {
	schema := fmt.Errorf("load sales: %w", &domain.MissingColumnError{Table: "sales", Column: "product_id"})

	assert.Equal(t, 2, exitCode(schema))
	assert.Equal(t, 3, exitCode(cli.Exit("boom", 3)))
	assert.Equal(t, 1, exitCode(errors.New("connection refused")))
}

func TestResourcesCloseInReverse(t *testing.T) {
	var order []int
	res := &resources{}
	res.add(func() error { order = append(order, 1); return nil })
	res.add(func() error { order = append(order, 2); return errors.New("redis closed") })

	err := res.Close()
	assert.EqualError(t, err, "redis closed")
	assert.Equal(t, []int{2, 1}, order)
}
