package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vibez.app/engine/internal/model"
)

type reportStore struct {
	pool *pgxpool.Pool
}

func newReportStore(pool *pgxpool.Pool) ReportStore {
	return &reportStore{pool: pool}
}

const reportColumns = `id, report_date, daily_memo, briefing_md, briefing, contributions, trends, links, generated_at`

func (s *reportStore) Latest(ctx context.Context) (*model.Report, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM daily_reports ORDER BY report_date DESC LIMIT 1", reportColumns)
	return s.queryOne(ctx, query)
}

func (s *reportStore) Before(ctx context.Context, date string) (*model.Report, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM daily_reports WHERE report_date < $1 ORDER BY report_date DESC LIMIT 1", reportColumns)
	return s.queryOne(ctx, query, date)
}

func (s *reportStore) Get(ctx context.Context, date string) (*model.Report, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM daily_reports WHERE report_date = $1", reportColumns)
	return s.queryOne(ctx, query, date)
}

func (s *reportStore) Upsert(ctx context.Context, report *model.Report) error {
	briefingJSON, err := json.Marshal(report.Briefing)
	if err != nil {
		return fmt.Errorf("encoding briefing: %w", err)
	}
	contributionsJSON, err := json.Marshal(report.Contributions)
	if err != nil {
		return fmt.Errorf("encoding contributions: %w", err)
	}
	trendsJSON, err := json.Marshal(report.Trends)
	if err != nil {
		return fmt.Errorf("encoding trends: %w", err)
	}
	linksJSON, err := json.Marshal(report.Links)
	if err != nil {
		return fmt.Errorf("encoding links: %w", err)
	}

	query := `
		INSERT INTO daily_reports (id, report_date, daily_memo, briefing_md, briefing, contributions, trends, links, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (report_date) DO UPDATE SET
			daily_memo    = EXCLUDED.daily_memo,
			briefing_md   = EXCLUDED.briefing_md,
			briefing      = EXCLUDED.briefing,
			contributions = EXCLUDED.contributions,
			trends        = EXCLUDED.trends,
			links         = EXCLUDED.links,
			generated_at  = NOW()
		RETURNING generated_at`

	if err := s.pool.QueryRow(ctx, query,
		report.ID,
		report.Date,
		report.DailyMemo,
		report.BriefingMD,
		briefingJSON,
		contributionsJSON,
		trendsJSON,
		linksJSON,
	).Scan(&report.GeneratedAt); err != nil {
		return fmt.Errorf("upserting report %s: %w", report.Date, err)
	}
	return nil
}

func (s *reportStore) queryOne(ctx context.Context, query string, args ...any) (*model.Report, error) {
	var (
		report           model.Report
		reportDate       time.Time
		briefingRaw      []byte
		contributionsRaw []byte
		trendsRaw        []byte
		linksRaw         []byte
	)
	err := s.pool.QueryRow(ctx, query, args...).Scan(
		&report.ID,
		&reportDate,
		&report.DailyMemo,
		&report.BriefingMD,
		&briefingRaw,
		&contributionsRaw,
		&trendsRaw,
		&linksRaw,
		&report.GeneratedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetching report: %w", err)
	}
	report.Date = reportDate.Format("2006-01-02")

	if err := decodeJSON(briefingRaw, &report.Briefing); err != nil {
		return nil, fmt.Errorf("decoding briefing for %s: %w", report.Date, err)
	}
	if err := decodeJSON(contributionsRaw, &report.Contributions); err != nil {
		return nil, fmt.Errorf("decoding contributions for %s: %w", report.Date, err)
	}
	if err := decodeJSON(trendsRaw, &report.Trends); err != nil {
		return nil, fmt.Errorf("decoding trends for %s: %w", report.Date, err)
	}
	if err := decodeJSON(linksRaw, &report.Links); err != nil {
		return nil, fmt.Errorf("decoding links for %s: %w", report.Date, err)
	}
	return &report, nil
}

func decodeJSON(raw []byte, target any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, target)
}
