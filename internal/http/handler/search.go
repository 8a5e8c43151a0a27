package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"vibez.app/engine/core/config"
	"vibez.app/engine/internal/engine"
	"vibez.app/engine/internal/http/dto"
	"vibez.app/engine/internal/model"
)

type SearchEngine interface {
	Search(ctx context.Context, now time.Time, query string, days, limit int) ([]model.Message, error)
}

type SearchHandler struct {
	engine SearchEngine
	cfg    config.DashboardConfig
}

func NewSearchHandler(eng SearchEngine, cfg config.DashboardConfig) *SearchHandler {
	return &SearchHandler{engine: eng, cfg: cfg}
}

func (h *SearchHandler) Search(c *gin.Context) {
	ctx := c.Request.Context()
	now := time.Now().UTC()

	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}
	days := engine.ParseLookback(c.Query("days"), h.cfg.SearchLookbackDays)
	limit := intQuery(c, "limit", 0)

	results, err := h.engine.Search(ctx, now, query, days, limit)
	if err != nil {
		// Degrade to an empty result list rather than erroring the page.
		slog.ErrorContext(ctx, "search failed", "error", err, "query", query)
		results = []model.Message{}
	}

	c.JSON(http.StatusOK, dto.ToSearchResponse(query, results))
}
