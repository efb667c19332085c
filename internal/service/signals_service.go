package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/andresuchdata/retail-signals/backend-go/internal/cache"
	"github.com/andresuchdata/retail-signals/backend-go/internal/domain"
	"github.com/andresuchdata/retail-signals/backend-go/internal/repository"
	"github.com/rs/zerolog/log"
)

// TableResult is one derived table of a run, rows already JSON encoded.
type TableResult struct {
	RunID   int64            `json:"run_id"`
	Table   domain.TableName `json:"table"`
	Columns []string         `json:"columns"`
	Rows    json.RawMessage  `json:"rows"`
}

type SignalsService struct {
	repo  repository.SignalsRepository
	cache cache.SignalsCache
}

func NewSignalsService(repo repository.SignalsRepository, cacheImpl cache.SignalsCache) *SignalsService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopSignalsCache()
	}
	return &SignalsService{repo: repo, cache: cacheImpl}
}

func (s *SignalsService) LatestRun(ctx context.Context) (*domain.SignalRun, error) {
	if run, ok, err := s.cache.GetLatestRun(ctx); err == nil && ok {
		return run, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("signals: cache get latest run failed")
	}

	run, err := s.repo.LatestRun(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetLatestRun(ctx, run); err != nil {
		log.Warn().Err(err).Msg("signals: cache set latest run failed")
	}

	return run, nil
}

func (s *SignalsService) GetRun(ctx context.Context, id int64) (*domain.SignalRun, error) {
	return s.repo.GetRun(ctx, id)
}

func (s *SignalsService) ListRuns(ctx context.Context, limit int) ([]domain.SignalRun, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.ListRuns(ctx, limit)
}

// GetTable returns the rows of a derived table. A zero RunID selects the latest completed run.
func (s *SignalsService) GetTable(ctx context.Context, q domain.TableQuery) (*TableResult, error) {
	columns, ok := domain.TableColumns[q.Table]
	if !ok {
		return nil, domain.ErrTableNotFound
	}

	if q.RunID == 0 {
		run, err := s.LatestRun(ctx)
		if err != nil {
			return nil, err
		}
		q.RunID = run.ID
	}

	result := &TableResult{RunID: q.RunID, Table: q.Table, Columns: columns}

	if payload, ok, err := s.cache.GetTable(ctx, q); err == nil && ok {
		result.Rows = payload
		return result, nil
	} else if err != nil {
		log.Warn().Err(err).Str("table", string(q.Table)).Msg("signals: cache get table failed")
	}

	rows, err := s.repo.QueryTable(ctx, q)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = make([]domain.Row, 0)
	}

	payload, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("encode %s rows: %w", q.Table, err)
	}

	if err := s.cache.SetTable(ctx, q, payload); err != nil {
		log.Warn().Err(err).Str("table", string(q.Table)).Msg("signals: cache set table failed")
	}

	result.Rows = payload
	return result, nil
}
