package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vibez.app/engine/internal/http/dto"
	"vibez.app/engine/internal/model"
)

type ReportEngine interface {
	LatestReport(ctx context.Context) (*model.Report, error)
	PreviousReport(ctx context.Context, date string) (*model.Report, error)
}

type ReportHandler struct {
	engine ReportEngine
}

func NewReportHandler(eng ReportEngine) *ReportHandler {
	return &ReportHandler{engine: eng}
}

// Latest returns the most recent daily report, or null when none exists.
func (h *ReportHandler) Latest(c *gin.Context) {
	ctx := c.Request.Context()

	report, err := h.engine.LatestReport(ctx)
	if err != nil {
		// Degrade to null so the page renders "no report yet".
		slog.ErrorContext(ctx, "loading latest report failed", "error", err)
		report = nil
	}
	c.JSON(http.StatusOK, gin.H{"report": dto.ToReportResponse(report)})
}

// Previous returns the report before the given date (default today), or
// null when no earlier report exists.
func (h *ReportHandler) Previous(c *gin.Context) {
	ctx := c.Request.Context()

	date := c.Query("date")
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	report, err := h.engine.PreviousReport(ctx, date)
	if err != nil {
		slog.ErrorContext(ctx, "loading previous report failed", "error", err, "date", date)
		report = nil
	}
	c.JSON(http.StatusOK, gin.H{"report": dto.ToReportResponse(report)})
}
