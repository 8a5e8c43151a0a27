package engine_test

import (
	"context"
	"time"

	"vibez.app/engine/core/config"
	"vibez.app/engine/internal/model"
	"vibez.app/engine/internal/store"
)

func testConfig() config.DashboardConfig {
	return config.DashboardConfig{
		ContribLookbackDays: 45,
		ContribLimit:        600,
		RadarWindowHours:    48,
		RadarMinMentions:    2,
		StatsLookbackDays:   90,
		SearchLookbackDays:  7,
		SearchLimit:         50,
		ActNowMaxAge:        24 * time.Hour,
		ActNowMinRelevance:  8,
		AgingRiskMinAge:     120 * time.Hour,
		ThemeProximity:      72 * time.Hour,
		ScanRowLimit:        20000,
	}
}

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

type mockMessageStore struct {
	listFn            func(ctx context.Context, filter store.MessageFilter, limit, offset int) ([]model.Message, error)
	countFn           func(ctx context.Context, filter store.MessageFilter) (int, error)
	distinctSendersFn func(ctx context.Context, from, to time.Time) (int, error)
}

func (m *mockMessageStore) List(ctx context.Context, filter store.MessageFilter, limit, offset int) ([]model.Message, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter, limit, offset)
	}
	return nil, nil
}

func (m *mockMessageStore) Count(ctx context.Context, filter store.MessageFilter) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, filter)
	}
	return 0, nil
}

func (m *mockMessageStore) DistinctSenders(ctx context.Context, from, to time.Time) (int, error) {
	if m.distinctSendersFn != nil {
		return m.distinctSendersFn(ctx, from, to)
	}
	return 0, nil
}

type mockRoomStore struct {
	listFn func(ctx context.Context, from, to time.Time) ([]model.Room, error)
}

func (m *mockRoomStore) List(ctx context.Context, from, to time.Time) ([]model.Room, error) {
	if m.listFn != nil {
		return m.listFn(ctx, from, to)
	}
	return nil, nil
}

type mockReportStore struct {
	latestFn func(ctx context.Context) (*model.Report, error)
	beforeFn func(ctx context.Context, date string) (*model.Report, error)
	getFn    func(ctx context.Context, date string) (*model.Report, error)
	upsertFn func(ctx context.Context, report *model.Report) error
}

func (m *mockReportStore) Latest(ctx context.Context) (*model.Report, error) {
	if m.latestFn != nil {
		return m.latestFn(ctx)
	}
	return nil, store.ErrNotFound
}

func (m *mockReportStore) Before(ctx context.Context, date string) (*model.Report, error) {
	if m.beforeFn != nil {
		return m.beforeFn(ctx, date)
	}
	return nil, store.ErrNotFound
}

func (m *mockReportStore) Get(ctx context.Context, date string) (*model.Report, error) {
	if m.getFn != nil {
		return m.getFn(ctx, date)
	}
	return nil, store.ErrNotFound
}

func (m *mockReportStore) Upsert(ctx context.Context, report *model.Report) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, report)
	}
	return nil
}
