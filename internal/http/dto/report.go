package dto

import (
	"time"

	"vibez.app/engine/internal/model"
)

type ReportResponse struct {
	ID            int64                  `json:"id,string"`
	Date          string                 `json:"date"`
	DailyMemo     string                 `json:"daily_memo"`
	BriefingMD    string                 `json:"briefing_md"`
	Briefing      []model.BriefingThread `json:"briefing"`
	Contributions []model.Contribution   `json:"contributions"`
	Trends        model.Trends           `json:"trends"`
	Links         []model.SharedLink     `json:"links"`
	GeneratedAt   time.Time              `json:"generated_at"`
}

func ToReportResponse(r *model.Report) *ReportResponse {
	if r == nil {
		return nil
	}
	return &ReportResponse{
		ID:            r.ID,
		Date:          r.Date,
		DailyMemo:     r.DailyMemo,
		BriefingMD:    r.BriefingMD,
		Briefing:      r.Briefing,
		Contributions: r.Contributions,
		Trends:        r.Trends,
		Links:         r.Links,
		GeneratedAt:   r.GeneratedAt,
	}
}

type ChatRequest struct {
	Question     string `json:"question" binding:"required,min=1,max=2000"`
	LookbackDays int    `json:"lookback_days" binding:"omitempty,min=1,max=90"`
}

type ChatResponse struct {
	Answer string `json:"answer"`
}

type RunSynthesisRequest struct {
	// Date defaults to today (UTC) when omitted.
	Date string `json:"date" binding:"omitempty,datetime=2006-01-02"`
}

type RunSynthesisResponse struct {
	Date     string `json:"date"`
	Enqueued bool   `json:"enqueued"`
}
