package engine

import (
	"context"
	"fmt"
	"time"

	"vibez.app/engine/internal/model"
	"vibez.app/engine/internal/store"
)

// LatestReport returns the most recent daily report, or nil when none
// has been generated yet.
func (e *Engine) LatestReport(ctx context.Context) (*model.Report, error) {
	report, err := e.reports.Latest(ctx)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("loading latest report: %w", err)
	}
	return report, nil
}

// PreviousReport returns the most recent report dated strictly before
// date (YYYY-MM-DD), or nil when no earlier report exists.
func (e *Engine) PreviousReport(ctx context.Context, date string) (*model.Report, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("parsing report date %q: %w", date, err)
	}
	report, err := e.reports.Before(ctx, date)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("loading previous report: %w", err)
	}
	return report, nil
}
