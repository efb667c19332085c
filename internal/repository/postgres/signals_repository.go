package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/andresuchdata/retail-signals/backend-go/internal/domain"
	"github.com/andresuchdata/retail-signals/backend-go/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// Postgres caps a statement at 65535 bind parameters.
const maxBindParams = 65535

const runColumns = `id, status, sales_rows, stock_rows, undated_sales, products, transfers,
		buzz_seed, as_of, started_at, completed_at, COALESCE(error_message, '') AS error_message`

type signalsRepository struct {
	db        *DB
	batchRows int
}

func NewSignalsRepository(db *DB) repository.SignalsRepository {
	return &signalsRepository{db: db, batchRows: 1000}
}

func (r *signalsRepository) CreateRun(ctx context.Context, run *domain.SignalRun) error {
	query := `
		INSERT INTO signal_runs (
			status, sales_rows, stock_rows, undated_sales, products, transfers,
			buzz_seed, as_of, started_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	err := r.db.QueryRowContext(
		ctx, query,
		run.Status, run.SalesRows, run.StockRows, run.UndatedSales, run.Products, run.Transfers,
		run.BuzzSeed, run.AsOf, run.StartedAt,
	).Scan(&run.ID)
	if err != nil {
		return fmt.Errorf("create signal run: %w", err)
	}

	return nil
}

func (r *signalsRepository) UpdateRun(ctx context.Context, run *domain.SignalRun) error {
	query := `
		UPDATE signal_runs
		SET status = $1, sales_rows = $2, stock_rows = $3, undated_sales = $4,
		    products = $5, transfers = $6, completed_at = $7, error_message = NULLIF($8, '')
		WHERE id = $9
	`

	res, err := r.db.ExecContext(
		ctx, query,
		run.Status, run.SalesRows, run.StockRows, run.UndatedSales,
		run.Products, run.Transfers, run.CompletedAt, run.ErrorMessage, run.ID,
	)
	if err != nil {
		return fmt.Errorf("update signal run %d: %w", run.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update signal run %d: %w", run.ID, domain.ErrRunNotFound)
	}

	return nil
}

// SaveTables replaces the rows of every derived table for the run in one transaction.
func (r *signalsRepository) SaveTables(ctx context.Context, runID int64, tables *domain.Tables) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, name := range domain.AllTables {
			if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE run_id = $1", name), runID); err != nil {
				return fmt.Errorf("clear %s: %w", name, err)
			}

			rows := tables.Rows(name)
			for _, batch := range insertBatches(name, runID, rows, r.batchRows) {
				if _, err := tx.ExecContext(ctx, batch.query, batch.args...); err != nil {
					return fmt.Errorf("insert %s: %w", name, err)
				}
			}

			log.Debug().Str("table", string(name)).Int("rows", len(rows)).Int64("run_id", runID).Msg("table saved")
		}
		return nil
	})
}

type insertBatch struct {
	query string
	args  []any
}

// insertBatches builds multi-row INSERT statements. Each row carries run_id and
// its position so reads can restore the computed order.
func insertBatches(name domain.TableName, runID int64, rows []domain.Row, batchRows int) []insertBatch {
	columns := append([]string{"run_id", "ord"}, domain.TableColumns[name]...)
	perRow := len(columns)
	if limit := maxBindParams / perRow; batchRows <= 0 || batchRows > limit {
		batchRows = limit
	}

	prefix := fmt.Sprintf("INSERT INTO %s (%s) VALUES ", name, strings.Join(columns, ", "))

	var batches []insertBatch
	for start := 0; start < len(rows); start += batchRows {
		end := min(start+batchRows, len(rows))

		var sb strings.Builder
		sb.WriteString(prefix)
		args := make([]any, 0, (end-start)*perRow)
		for i := start; i < end; i++ {
			if i > start {
				sb.WriteString(", ")
			}
			sb.WriteString("(")
			for c := 0; c < perRow; c++ {
				if c > 0 {
					sb.WriteString(", ")
				}
				fmt.Fprintf(&sb, "$%d", len(args)+c+1)
			}
			sb.WriteString(")")

			args = append(args, runID, i)
			args = append(args, rows[i].Values()...)
		}

		batches = append(batches, insertBatch{query: sb.String(), args: args})
	}

	return batches
}

func (r *signalsRepository) GetRun(ctx context.Context, id int64) (*domain.SignalRun, error) {
	var run domain.SignalRun
	err := r.db.GetContext(ctx, &run, `SELECT `+runColumns+` FROM signal_runs WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get signal run %d: %w", id, err)
	}
	return &run, nil
}

func (r *signalsRepository) LatestRun(ctx context.Context) (*domain.SignalRun, error) {
	query := `SELECT ` + runColumns + `
		FROM signal_runs
		WHERE status = $1
		ORDER BY id DESC
		LIMIT 1`

	var run domain.SignalRun
	err := r.db.GetContext(ctx, &run, query, domain.RunStatusCompleted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("get latest signal run: %w", err)
	}
	return &run, nil
}

func (r *signalsRepository) ListRuns(ctx context.Context, limit int) ([]domain.SignalRun, error) {
	if limit <= 0 {
		limit = 20
	}

	var runs []domain.SignalRun
	query := `SELECT ` + runColumns + ` FROM signal_runs ORDER BY id DESC LIMIT $1`
	if err := r.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("list signal runs: %w", err)
	}
	return runs, nil
}

func (r *signalsRepository) QueryTable(ctx context.Context, q domain.TableQuery) ([]domain.Row, error) {
	query, args, err := buildTableQuery(q)
	if err != nil {
		return nil, err
	}

	switch q.Table {
	case domain.TableProductAlerts:
		return selectRows[domain.ProductAlert](ctx, r.db, query, args)
	case domain.TableStoreAlerts:
		return selectRows[domain.StoreAlert](ctx, r.db, query, args)
	case domain.TableExpiryAlerts:
		return selectRows[domain.ExpiryAlert](ctx, r.db, query, args)
	case domain.TableHistoricalAnalysis:
		return selectRows[domain.HistoricalSummary](ctx, r.db, query, args)
	case domain.TableProductRankings:
		return selectRows[domain.ProductRanking](ctx, r.db, query, args)
	case domain.TableSeasonalDiscounts:
		return selectRows[domain.SeasonalDiscount](ctx, r.db, query, args)
	case domain.TableForecastDaily:
		return selectRows[domain.DailyForecast](ctx, r.db, query, args)
	case domain.TableForecastSummary:
		return selectRows[domain.ForecastResult](ctx, r.db, query, args)
	case domain.TableSocialTrends:
		return selectRows[domain.SocialTrend](ctx, r.db, query, args)
	case domain.TableTrendRecommendations:
		return selectRows[domain.TrendRecommendation](ctx, r.db, query, args)
	case domain.TableBuyingRecommendations:
		return selectRows[domain.BuyingRecommendation](ctx, r.db, query, args)
	case domain.TableTransferSuggestions:
		return selectRows[domain.TransferSuggestion](ctx, r.db, query, args)
	}

	return nil, domain.ErrTableNotFound
}

// buildTableQuery renders the SELECT for q. The store filter applies to tables
// with a store column; for transfers it matches either end.
func buildTableQuery(q domain.TableQuery) (string, []any, error) {
	columns, ok := domain.TableColumns[q.Table]
	if !ok {
		return "", nil, domain.ErrTableNotFound
	}

	args := []any{q.RunID}
	conditions := []string{"run_id = $1"}

	if len(q.ProductIDs) > 0 {
		args = append(args, pq.Array(q.ProductIDs))
		conditions = append(conditions, fmt.Sprintf("product_id = ANY($%d::text[])", len(args)))
	}

	if len(q.StoreIDs) > 0 {
		switch {
		case slices.Contains(columns, "store_id"):
			args = append(args, pq.Array(q.StoreIDs))
			conditions = append(conditions, fmt.Sprintf("store_id = ANY($%d::text[])", len(args)))
		case slices.Contains(columns, "from_store"):
			args = append(args, pq.Array(q.StoreIDs))
			conditions = append(conditions, fmt.Sprintf("(from_store = ANY($%d::text[]) OR to_store = ANY($%d::text[]))", len(args), len(args)))
		}
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY ord",
		strings.Join(columns, ", "), q.Table, strings.Join(conditions, " AND "))

	return query, args, nil
}

func selectRows[T domain.Row](ctx context.Context, db *DB, query string, args []any) ([]domain.Row, error) {
	var dest []T
	if err := db.SelectContext(ctx, &dest, query, args...); err != nil {
		return nil, fmt.Errorf("query table: %w", err)
	}

	rows := make([]domain.Row, len(dest))
	for i, row := range dest {
		rows[i] = row
	}
	return rows, nil
}
