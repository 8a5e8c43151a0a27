package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"vibez.app/engine/core/config"
	"vibez.app/engine/internal/engine"
	"vibez.app/engine/internal/model"
)

// DashboardEngine is the aggregation surface the dashboard endpoints
// serve from.
type DashboardEngine interface {
	Contributions(ctx context.Context, now time.Time, days, limit int) (*model.ContributionDashboard, error)
	Radar(ctx context.Context, now time.Time, windowHours int) (*model.RadarSnapshot, error)
	Stats(ctx context.Context, now time.Time, days int) (*model.StatsSnapshot, error)
}

// DashboardHandler serves the dashboard snapshots. Aggregation failures
// degrade to an empty snapshot with a 200 rather than erroring the whole
// dashboard: a blank panel beats a broken page.
type DashboardHandler struct {
	engine DashboardEngine
	cfg    config.DashboardConfig
}

func NewDashboardHandler(eng DashboardEngine, cfg config.DashboardConfig) *DashboardHandler {
	return &DashboardHandler{engine: eng, cfg: cfg}
}

func (h *DashboardHandler) Contributions(c *gin.Context) {
	ctx := c.Request.Context()
	now := time.Now().UTC()

	days := engine.ParseLookback(c.Query("days"), h.cfg.ContribLookbackDays)
	limit := intQuery(c, "limit", 0)

	dash, err := h.engine.Contributions(ctx, now, days, limit)
	if err != nil {
		slog.ErrorContext(ctx, "contribution dashboard failed", "error", err, "lookback_days", days)
		dash = emptyContributions(now, days)
	}
	c.JSON(http.StatusOK, dash)
}

func (h *DashboardHandler) Radar(c *gin.Context) {
	ctx := c.Request.Context()
	now := time.Now().UTC()

	windowHours := intQuery(c, "hours", 0)

	radar, err := h.engine.Radar(ctx, now, windowHours)
	if err != nil {
		slog.ErrorContext(ctx, "radar failed", "error", err, "hours", windowHours)
		radar = nil
	}
	// A nil radar (no report yet, or nothing happened) serializes as
	// null so clients can render "no radar yet" instead of zeros.
	c.JSON(http.StatusOK, gin.H{"radar": radar})
}

func (h *DashboardHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()
	now := time.Now().UTC()

	days := engine.ParseLookback(c.Query("days"), h.cfg.StatsLookbackDays)

	stats, err := h.engine.Stats(ctx, now, days)
	if err != nil {
		slog.ErrorContext(ctx, "stats dashboard failed", "error", err, "days", days)
		stats = &model.StatsSnapshot{
			Days:        days,
			GeneratedAt: now,
			Rooms:       []model.RoomStats{},
			Platforms:   []model.PlatformStats{},
		}
	}
	c.JSON(http.StatusOK, stats)
}

func emptyContributions(now time.Time, days int) *model.ContributionDashboard {
	w := engine.NewWindow(days, now)
	return &model.ContributionDashboard{
		WindowStart:     w.Start,
		WindowEnd:       w.End,
		GeneratedAt:     now,
		AxisSummary:     []model.TagCount{},
		NeedSummary:     []model.TagCount{},
		RecurringThemes: []model.RecurringTheme{},
		Opportunities:   []model.Opportunity{},
		Sections:        []model.Section{},
	}
}

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
