package model

import "time"

// UrgencyStatus buckets an opportunity for the contribution dashboard.
// Precedence during bucketing: blocked, act_now, aging_risk, high_leverage.
type UrgencyStatus string

const (
	StatusBlocked      UrgencyStatus = "blocked"
	StatusActNow       UrgencyStatus = "act_now"
	StatusAgingRisk    UrgencyStatus = "aging_risk"
	StatusHighLeverage UrgencyStatus = "high_leverage"
	// StatusNone marks candidates that clear no urgency bar; they are
	// listed but excluded from the urgent totals.
	StatusNone UrgencyStatus = ""
)

// Opportunity is a contribution-flagged message (or a merged cluster of
// near-duplicates) promoted to actionable status. Computed fresh per
// request, never persisted.
type Opportunity struct {
	Message     Message       `json:"message"` // representative (most relevant, then newest)
	MergedIDs   []string      `json:"merged_ids,omitempty"`
	Axis        string        `json:"axis"`
	Need        string        `json:"need"`
	Status      UrgencyStatus `json:"status"`
	Age         time.Duration `json:"age"`
	Occurrences int           `json:"occurrences"`
}

// RecurringTheme records a merge of near-duplicate candidates instead of
// silently discarding them.
type RecurringTheme struct {
	Label    string    `json:"label"`
	RoomName string    `json:"room_name"`
	Axis     string    `json:"axis"`
	Need     string    `json:"need"`
	Count    int       `json:"count"`
	LastSeen time.Time `json:"last_seen"`
}

// TagCount is one row of an axis or need summary.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// ContributionTotals aggregates the dashboard counters. The bucket counts
// sum to at most Opportunities, which is at most MessagesScanned.
type ContributionTotals struct {
	MessagesScanned int `json:"messages_scanned"`
	Opportunities   int `json:"opportunities"`
	ActNow          int `json:"act_now"`
	HighLeverage    int `json:"high_leverage"`
	AgingRisk       int `json:"aging_risk"`
	Blocked         int `json:"blocked"`
}

// Section groups opportunities by axis for UI rendering.
type Section struct {
	Axis          string        `json:"axis"`
	Opportunities []Opportunity `json:"opportunities"`
}

// ContributionDashboard is the contribution aggregator's snapshot.
type ContributionDashboard struct {
	WindowStart     time.Time          `json:"window_start"`
	WindowEnd       time.Time          `json:"window_end"`
	GeneratedAt     time.Time          `json:"generated_at"`
	Totals          ContributionTotals `json:"totals"`
	AxisSummary     []TagCount         `json:"axis_summary"`
	NeedSummary     []TagCount         `json:"need_summary"`
	RecurringThemes []RecurringTheme   `json:"recurring_themes"`
	Opportunities   []Opportunity      `json:"opportunities"`
	Sections        []Section          `json:"sections"`
}
