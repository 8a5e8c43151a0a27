package model

import "time"

// BriefingThread is one key-thread entry of a daily briefing.
type BriefingThread struct {
	Title        string   `json:"title"`
	Participants []string `json:"participants"`
	Insights     string   `json:"insights"`
	Links        []string `json:"links"`
}

// Contribution is one suggested contribution in a daily report.
type Contribution struct {
	Theme        string   `json:"theme"`
	Type         string   `json:"type"`      // "reply" or "create"
	Freshness    string   `json:"freshness"` // hot, warm, cool, archive
	Channel      string   `json:"channel"`
	ReplyTo      string   `json:"reply_to"`
	Threads      []string `json:"threads"`
	Why          string   `json:"why"`
	Action       string   `json:"action"`
	DraftMessage string   `json:"draft_message"`
	MessageCount int      `json:"message_count"`
}

// Trends summarizes week-over-week topic movement as judged by synthesis.
type Trends struct {
	Emerging []string `json:"emerging"`
	Fading   []string `json:"fading"`
	Shifts   string   `json:"shifts"`
}

// SharedLink is a link surfaced from the day's messages.
type SharedLink struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	Category  string `json:"category"` // tool, repo, article, discussion
	Relevance string `json:"relevance"`
}

// Report is one daily synthesis report. Written once per day by the
// worker; keyed by calendar date.
type Report struct {
	ID            int64            `json:"id"`
	Date          string           `json:"date"` // YYYY-MM-DD
	DailyMemo     string           `json:"daily_memo"`
	BriefingMD    string           `json:"briefing_md"`
	Briefing      []BriefingThread `json:"briefing"`
	Contributions []Contribution   `json:"contributions"`
	Trends        Trends           `json:"trends"`
	Links         []SharedLink     `json:"links"`
	GeneratedAt   time.Time        `json:"generated_at"`
}
