package model

import "time"

// TrendDirection classifies a topic's movement between the prior and
// current radar windows.
type TrendDirection string

const (
	TrendRising  TrendDirection = "rising"
	TrendFlat    TrendDirection = "flat"
	TrendFalling TrendDirection = "falling"
)

// TopicTrend is one radar entry: a slug-normalized topic with mention
// counts from the two adjacent windows.
type TopicTrend struct {
	Label        string         `json:"label"`
	CurrentCount int            `json:"current_count"`
	PriorCount   int            `json:"prior_count"`
	Trend        TrendDirection `json:"trend"`
}

// RadarSnapshot is the trending-topics view over two adjacent short
// windows. Ephemeral, recomputed per request.
type RadarSnapshot struct {
	WindowStart time.Time    `json:"window_start"`
	WindowEnd   time.Time    `json:"window_end"`
	GeneratedAt time.Time    `json:"generated_at"`
	Topics      []TopicTrend `json:"topics"`
}
