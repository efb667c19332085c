package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/andresuchdata/retail-signals/backend-go/internal/domain"
	"github.com/andresuchdata/retail-signals/backend-go/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// SignalsReader is the read side the handler depends on.
type SignalsReader interface {
	LatestRun(ctx context.Context) (*domain.SignalRun, error)
	GetRun(ctx context.Context, id int64) (*domain.SignalRun, error)
	ListRuns(ctx context.Context, limit int) ([]domain.SignalRun, error)
	GetTable(ctx context.Context, q domain.TableQuery) (*service.TableResult, error)
}

type SignalsHandler struct {
	service SignalsReader
}

func NewSignalsHandler(service SignalsReader) *SignalsHandler {
	return &SignalsHandler{service: service}
}

func (h *SignalsHandler) GetLatestRun(c *gin.Context) {
	run, err := h.service.LatestRun(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to fetch latest run")
		return
	}

	c.JSON(http.StatusOK, run)
}

func (h *SignalsHandler) GetRun(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
		return
	}

	run, err := h.service.GetRun(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to fetch run")
		return
	}

	c.JSON(http.StatusOK, run)
}

func (h *SignalsHandler) ListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 200 {
		limit = 20
	}

	runs, err := h.service.ListRuns(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err, "failed to list runs")
		return
	}
	if runs == nil {
		runs = make([]domain.SignalRun, 0)
	}

	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// ListTables returns the derived table names and their columns.
func (h *SignalsHandler) ListTables(c *gin.Context) {
	tables := make([]gin.H, 0, len(domain.AllTables))
	for _, name := range domain.AllTables {
		tables = append(tables, gin.H{"name": name, "columns": domain.TableColumns[name]})
	}
	c.JSON(http.StatusOK, gin.H{"tables": tables})
}

func (h *SignalsHandler) GetTable(c *gin.Context) {
	name, ok := domain.ParseTableName(c.Param("table"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown table", "table": c.Param("table")})
		return
	}

	q := domain.TableQuery{
		Table:      name,
		ProductIDs: parseList(c, "product_id"),
		StoreIDs:   parseList(c, "store_id"),
	}

	if raw := strings.TrimSpace(c.Query("run_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run_id"})
			return
		}
		q.RunID = id
	}

	result, err := h.service.GetTable(c.Request.Context(), q)
	if err != nil {
		respondError(c, err, "failed to fetch table")
		return
	}

	c.JSON(http.StatusOK, result)
}

// parseList accepts both repeated params and comma-separated values:
//
//	?store_id=S1&store_id=S2
//	?store_id=S1,S2
func parseList(c *gin.Context, param string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, raw := range c.QueryArray(param) {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if _, ok := seen[part]; ok {
				continue
			}
			seen[part] = struct{}{}
			out = append(out, part)
		}
	}
	return out
}

func respondError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, domain.ErrNoRuns), errors.Is(err, domain.ErrRunNotFound), errors.Is(err, domain.ErrTableNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg(message)
		c.JSON(http.StatusInternalServerError, gin.H{"error": message, "details": err.Error()})
	}
}
