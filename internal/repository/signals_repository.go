// backend-go/internal/repository/signals_repository.go
package repository

import (
	"context"

	"github.com/andresuchdata/retail-signals/backend-go/internal/domain"
)

// SignalsRepository persists signals runs and the derived tables they produce.
type SignalsRepository interface {
	CreateRun(ctx context.Context, run *domain.SignalRun) error
	UpdateRun(ctx context.Context, run *domain.SignalRun) error
	// SaveTables stores every derived table of a run atomically.
	SaveTables(ctx context.Context, runID int64, tables *domain.Tables) error
	GetRun(ctx context.Context, id int64) (*domain.SignalRun, error)
	// LatestRun returns the most recent completed run, or domain.ErrNoRuns.
	LatestRun(ctx context.Context) (*domain.SignalRun, error)
	ListRuns(ctx context.Context, limit int) ([]domain.SignalRun, error)
	QueryTable(ctx context.Context, q domain.TableQuery) ([]domain.Row, error)
}
