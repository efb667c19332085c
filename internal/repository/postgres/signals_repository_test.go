package postgres

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/andresuchdata/retail-signals/backend-go/internal/config"
	"github.com/andresuchdata/retail-signals/backend-go/internal/domain"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func transferRows(n int) []domain.Row {
	rows := make([]domain.Row, n)
	for i := range rows {
		rows[i] = domain.TransferSuggestion{FromStore: "S1", ToStore: "S2", ProductID: "P1", Quantity: i + 1}
	}
	return rows
}

func TestInsertBatches(t *testing.T) {
	batches := insertBatches(domain.TableTransferSuggestions, 7, transferRows(5), 2)
	require.Len(t, batches, 3)

	assert.Equal(t,
		"INSERT INTO transfer_suggestions (run_id, ord, from_store, to_store, product_id, qty_transfer) VALUES "+
			"($1, $2, $3, $4, $5, $6), ($7, $8, $9, $10, $11, $12)",
		batches[0].query)
	assert.Equal(t, []any{int64(7), 0, "S1", "S2", "P1", 1, int64(7), 1, "S1", "S2", "P1", 2}, batches[0].args)

	assert.Len(t, batches[2].args, 6)
	assert.Equal(t, 4, batches[2].args[1])
}

func TestInsertBatchesCapsBindParameters(t *testing.T) {
	rows := transferRows(maxBindParams/6 + 1)
	batches := insertBatches(domain.TableTransferSuggestions, 1, rows, 0)
	require.Len(t, batches, 2)
	assert.LessOrEqual(t, len(batches[0].args), maxBindParams)
	assert.Len(t, batches[1].args, 6)
}

func TestInsertBatchesEmpty(t *testing.T) {
	assert.Empty(t, insertBatches(domain.TableProductAlerts, 1, nil, 10))
}

func TestBuildTableQuery(t *testing.T) {
	query, args, err := buildTableQuery(domain.TableQuery{RunID: 3, Table: domain.TableProductRankings})
	require.NoError(t, err)
	assert.Equal(t, "SELECT product_id, total_sales, rank, category FROM product_rankings WHERE run_id = $1 ORDER BY ord", query)
	assert.Equal(t, []any{int64(3)}, args)

	query, args, err = buildTableQuery(domain.TableQuery{
		RunID:      3,
		Table:      domain.TableStoreAlerts,
		ProductIDs: []string{"P1"},
		StoreIDs:   []string{"S1", "S2"},
	})
	require.NoError(t, err)
	assert.Contains(t, query, "run_id = $1 AND product_id = ANY($2::text[]) AND store_id = ANY($3::text[])")
	assert.Equal(t, pq.Array([]string{"S1", "S2"}), args[2])

	query, _, err = buildTableQuery(domain.TableQuery{RunID: 3, Table: domain.TableTransferSuggestions, StoreIDs: []string{"S1"}})
	require.NoError(t, err)
	assert.Contains(t, query, "(from_store = ANY($2::text[]) OR to_store = ANY($2::text[]))")

	query, args, err = buildTableQuery(domain.TableQuery{RunID: 3, Table: domain.TableForecastSummary, StoreIDs: []string{"S1"}})
	require.NoError(t, err)
	assert.NotContains(t, query, "store")
	assert.Len(t, args, 1)

	_, _, err = buildTableQuery(domain.TableQuery{RunID: 3, Table: "nope"})
	assert.ErrorIs(t, err, domain.ErrTableNotFound)
}

func TestMigrationsEmbedded(t *testing.T) {
	migrations, err := Migrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)
	assert.Equal(t, "001_signals.sql", migrations[0].Version)

	for _, name := range domain.AllTables {
		assert.Contains(t, migrations[0].SQL, "CREATE TABLE IF NOT EXISTS "+string(name)+" (")
		for _, col := range domain.TableColumns[name] {
			assert.True(t, strings.Contains(migrations[0].SQL, "    "+col+" "), "%s.%s missing from schema", name, col)
		}
	}
}

// TestSignalsRepositoryRoundTrip runs against a real database when TEST_DATABASE_URL is set.
func TestSignalsRepositoryRoundTrip(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := NewDB(&config.DatabaseConfig{URL: dsn})
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Migrate(ctx)
	require.NoError(t, err)

	repo := NewSignalsRepository(db)
	run := &domain.SignalRun{
		Status:    domain.RunStatusProcessing,
		AsOf:      time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		StartedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.CreateRun(ctx, run))
	require.NotZero(t, run.ID)

	avg := 2.5
	tables := &domain.Tables{
		ProductAlerts: []domain.ProductAlert{
			{ProductID: "P1", CurrentStock: 4, AvgDailySales: &avg, Movement: domain.MovementNormal, Status: domain.StockLow, ReorderTarget: 20, ReorderSuggestion: 16},
			{ProductID: "P2", CurrentStock: 80, Movement: domain.MovementUnknown, Status: domain.StockOverstock, ReorderTarget: 20},
		},
		TransferSuggestions: []domain.TransferSuggestion{{FromStore: "S1", ToStore: "S2", ProductID: "P1", Quantity: 17}},
	}
	require.NoError(t, repo.SaveTables(ctx, run.ID, tables))

	now := time.Now().UTC()
	run.Status = domain.RunStatusCompleted
	run.CompletedAt = &now
	require.NoError(t, repo.UpdateRun(ctx, run))

	latest, err := repo.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, run.ID, latest.ID)

	rows, err := repo.QueryTable(ctx, domain.TableQuery{RunID: run.ID, Table: domain.TableProductAlerts})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, tables.ProductAlerts[0], rows[0])
	assert.Nil(t, rows[1].(domain.ProductAlert).AvgDailySales)

	rows, err = repo.QueryTable(ctx, domain.TableQuery{RunID: run.ID, Table: domain.TableTransferSuggestions, StoreIDs: []string{"S2"}})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
