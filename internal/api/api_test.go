package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andresuchdata/retail-signals/backend-go/internal/domain"
	"github.com/andresuchdata/retail-signals/backend-go/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubReader struct {
	latest  *domain.SignalRun
	err     error
	queries []domain.TableQuery
}

func (s *stubReader) LatestRun(context.Context) (*domain.SignalRun, error) {
	if s.latest == nil {
		return nil, domain.ErrNoRuns
	}
	return s.latest, s.err
}

func (s *stubReader) GetRun(_ context.Context, id int64) (*domain.SignalRun, error) {
	if s.latest == nil || s.latest.ID != id {
		return nil, domain.ErrRunNotFound
	}
	return s.latest, nil
}

func (s *stubReader) ListRuns(context.Context, int) ([]domain.SignalRun, error) {
	if s.latest == nil {
		return nil, nil
	}
	return []domain.SignalRun{*s.latest}, nil
}

func (s *stubReader) GetTable(_ context.Context, q domain.TableQuery) (*service.TableResult, error) {
	s.queries = append(s.queries, q)
	if s.err != nil {
		return nil, s.err
	}
	return &service.TableResult{
		RunID:   7,
		Table:   q.Table,
		Columns: domain.TableColumns[q.Table],
		Rows:    json.RawMessage(`[{"from_store":"S1","to_store":"S2","product_id":"P1","qty_transfer":17}]`),
	}, nil
}

func serve(t *testing.T, reader *stubReader, target string) *httptest.ResponseRecorder {
	t.Helper()
	router := NewRouter(&Services{Signals: reader}, nil)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := serve(t, &stubReader{}, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestLatestRun(t *testing.T) {
	w := serve(t, &stubReader{}, "/api/v1/signals/runs/latest")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(t, &stubReader{latest: &domain.SignalRun{ID: 7, Status: domain.RunStatusCompleted}}, "/api/v1/signals/runs/latest")
	require.Equal(t, http.StatusOK, w.Code)

	var run domain.SignalRun
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))
	assert.Equal(t, int64(7), run.ID)
	assert.Equal(t, domain.RunStatusCompleted, run.Status)
}

func TestGetRun(t *testing.T) {
	reader := &stubReader{latest: &domain.SignalRun{ID: 7}}

	assert.Equal(t, http.StatusOK, serve(t, reader, "/api/v1/signals/runs/7").Code)
	assert.Equal(t, http.StatusNotFound, serve(t, reader, "/api/v1/signals/runs/8").Code)
	assert.Equal(t, http.StatusBadRequest, serve(t, reader, "/api/v1/signals/runs/abc").Code)
}

func TestListRunsEmpty(t *testing.T) {
	w := serve(t, &stubReader{}, "/api/v1/signals/runs")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"runs":[]}`, w.Body.String())
}

func TestGetTableParsesFilters(t *testing.T) {
	reader := &stubReader{}
	w := serve(t, reader, "/api/v1/signals/tables/transfer_suggestions.csv?store_id=S1,S2&store_id=S1&product_id=P1&run_id=7")
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, reader.queries, 1)
	assert.Equal(t, domain.TableQuery{
		RunID:      7,
		Table:      domain.TableTransferSuggestions,
		ProductIDs: []string{"P1"},
		StoreIDs:   []string{"S1", "S2"},
	}, reader.queries[0])

	var body struct {
		RunID   int64            `json:"run_id"`
		Columns []string         `json:"columns"`
		Rows    []map[string]any `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(7), body.RunID)
	assert.Equal(t, []string{"from_store", "to_store", "product_id", "qty_transfer"}, body.Columns)
	assert.Equal(t, float64(17), body.Rows[0]["qty_transfer"])
}

func TestGetTableErrors(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, serve(t, &stubReader{}, "/api/v1/signals/tables/nope").Code)
	assert.Equal(t, http.StatusBadRequest, serve(t, &stubReader{}, "/api/v1/signals/tables/ai_alerts?run_id=x").Code)

	w := serve(t, &stubReader{err: errors.New("db down")}, "/api/v1/signals/tables/ai_alerts")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "db down")

	w = serve(t, &stubReader{err: domain.ErrNoRuns}, "/api/v1/signals/tables/ai_alerts")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListTables(t *testing.T) {
	w := serve(t, &stubReader{}, "/api/v1/signals/tables")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Tables []struct {
			Name    string   `json:"name"`
			Columns []string `json:"columns"`
		} `json:"tables"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Tables, len(domain.AllTables))
	assert.Equal(t, "ai_alerts", body.Tables[0].Name)
}

func TestCORSAllowAll(t *testing.T) {
	router := NewRouter(&Services{Signals: &stubReader{}}, []string{"*"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	router.ServeHTTP(w, req)

	assert.Equal(t, "https://dashboard.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestNormalizeAllowedOrigins(t *testing.T) {
	origins, all := normalizeAllowedOrigins([]string{"https://a.example.com, https://b.example.com", ""})
	assert.False(t, all)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, origins)

	_, all = normalizeAllowedOrigins([]string{"*"})
	assert.True(t, all)
}
