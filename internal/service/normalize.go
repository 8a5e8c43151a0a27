package service

import (
	"fmt"
	"strings"

	"vibez.app/engine/internal/model"
)

// Length caps keeping report fields scannable. The prompt asks for pithy
// output; these enforce it when the model rambles anyway.
const (
	memoMax         = 520
	titleMax        = 68
	participantMax  = 30
	insightsMax     = 160
	themeMax        = 48
	channelMax      = 72
	replyToMax      = 220
	threadRefMax    = 64
	whyMax          = 140
	actionMax       = 110
	draftMax        = 320
	trendMax        = 56
	shiftsMax       = 120
	linkTitleMax    = 96
	linkCategoryMax = 24
	linkWhyMax      = 90

	maxThreads       = 5
	maxContributions = 5
	maxParticipants  = 6
	maxThreadRefs    = 4
	maxTrendItems    = 5
	maxLinks         = 10
)

// normalize converts raw synthesis output into a report, clamping field
// lengths and list sizes and coercing invalid enum values to their
// defaults.
func (s *SynthesisService) normalize(raw synthesisResponse) *model.Report {
	report := &model.Report{
		DailyMemo:     compactText(raw.DailyMemo, memoMax),
		Briefing:      []model.BriefingThread{},
		Contributions: []model.Contribution{},
		Links:         []model.SharedLink{},
	}

	for _, thread := range capSlice(raw.Briefing, maxThreads) {
		report.Briefing = append(report.Briefing, model.BriefingThread{
			Title:        compactTextOr(thread.Title, titleMax, "Untitled"),
			Participants: compactAll(capSlice(thread.Participants, maxParticipants), participantMax),
			Insights:     compactText(thread.Insights, insightsMax),
			Links:        capSlice(thread.Links, maxTrendItems),
		})
	}

	for _, contrib := range capSlice(raw.Contributions, maxContributions) {
		ctype := contrib.Type
		if ctype != "reply" && ctype != "create" {
			ctype = "reply"
		}
		freshness := contrib.Freshness
		switch freshness {
		case "hot", "warm", "cool", "archive":
		default:
			freshness = "warm"
		}

		report.Contributions = append(report.Contributions, model.Contribution{
			Theme:        compactText(contrib.Theme, themeMax),
			Type:         ctype,
			Freshness:    freshness,
			Channel:      compactText(contrib.Channel, channelMax),
			ReplyTo:      compactText(contrib.ReplyTo, replyToMax),
			Threads:      compactAll(capSlice(contrib.Threads, maxThreadRefs), threadRefMax),
			Why:          compactText(contrib.Why, whyMax),
			Action:       compactText(contrib.Action, actionMax),
			DraftMessage: compactText(contrib.DraftMessage, draftMax),
			MessageCount: contrib.MessageCount,
		})
	}

	report.Trends = model.Trends{
		Emerging: compactAll(capSlice(raw.Trends.Emerging, maxTrendItems), trendMax),
		Fading:   compactAll(capSlice(raw.Trends.Fading, maxTrendItems), trendMax),
		Shifts:   compactText(raw.Trends.Shifts, shiftsMax),
	}

	for _, link := range capSlice(raw.Links, maxLinks) {
		report.Links = append(report.Links, model.SharedLink{
			URL:       link.URL,
			Title:     compactText(link.Title, linkTitleMax),
			Category:  compactText(link.Category, linkCategoryMax),
			Relevance: compactText(link.Relevance, linkWhyMax),
		})
	}
	return report
}

// compactText collapses whitespace and trims to max runes, breaking on a
// word boundary with a trailing ellipsis. Rune-wise so a cap inside a
// multibyte character never emits invalid UTF-8.
func compactText(value string, max int) string {
	text := strings.Join(strings.Fields(value), " ")
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	clipped := string(runes[:max])
	if i := strings.LastIndex(clipped, " "); i > 0 {
		clipped = clipped[:i]
	}
	clipped = strings.TrimRight(clipped, " ,;:-")
	if clipped == "" {
		clipped = strings.TrimRight(string(runes[:max]), " ,;:-")
	}
	return clipped + "..."
}

func compactTextOr(value string, max int, fallback string) string {
	if text := compactText(value, max); text != "" {
		return text
	}
	return fallback
}

func compactAll(values []string, max int) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, compactText(v, max))
	}
	return out
}

func capSlice[T any](s []T, max int) []T {
	if len(s) > max {
		return s[:max]
	}
	return s
}

func clip(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// renderBriefingMarkdown renders the report as the human-readable daily
// briefing document.
func renderBriefingMarkdown(report *model.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Daily Briefing — %s\n\n", report.Date)

	if report.DailyMemo != "" {
		b.WriteString("## Daily Memo\n\n")
		b.WriteString(report.DailyMemo + "\n\n")
	}

	if len(report.Briefing) > 0 {
		b.WriteString("## Key Threads\n\n")
		for i, thread := range report.Briefing {
			fmt.Fprintf(&b, "### %d. %s\n", i+1, thread.Title)
			if len(thread.Participants) > 0 {
				fmt.Fprintf(&b, "**Participants:** %s\n", strings.Join(thread.Participants, ", "))
			}
			fmt.Fprintf(&b, "\n%s\n", thread.Insights)
			for _, link := range thread.Links {
				fmt.Fprintf(&b, "- %s\n", link)
			}
			b.WriteString("\n")
		}
	}

	if len(report.Contributions) > 0 {
		b.WriteString("## Contribution Opportunities\n\n")
		for _, c := range report.Contributions {
			fmt.Fprintf(&b, "### [%s] [%s] %s\n", strings.ToUpper(c.Type), c.Freshness, c.Theme)
			if len(c.Threads) > 0 {
				fmt.Fprintf(&b, "**Related threads:** %s\n", strings.Join(c.Threads, ", "))
			}
			fmt.Fprintf(&b, "\n%s\n", c.Why)
			fmt.Fprintf(&b, "\n**Action:** %s\n", c.Action)
			if c.DraftMessage != "" {
				fmt.Fprintf(&b, "\n**Draft message:**\n> %s\n", c.DraftMessage)
			}
			if c.MessageCount > 0 {
				fmt.Fprintf(&b, "*(%d messages on this theme)*\n", c.MessageCount)
			}
			b.WriteString("\n")
		}
	}

	if len(report.Trends.Emerging) > 0 || len(report.Trends.Fading) > 0 || report.Trends.Shifts != "" {
		b.WriteString("## Trends\n\n")
		if len(report.Trends.Emerging) > 0 {
			fmt.Fprintf(&b, "**Emerging:** %s\n", strings.Join(report.Trends.Emerging, ", "))
		}
		if len(report.Trends.Fading) > 0 {
			fmt.Fprintf(&b, "**Fading:** %s\n", strings.Join(report.Trends.Fading, ", "))
		}
		if report.Trends.Shifts != "" {
			fmt.Fprintf(&b, "\n%s\n", report.Trends.Shifts)
		}
		b.WriteString("\n")
	}

	if len(report.Links) > 0 {
		b.WriteString("## Links Shared\n\n")
		for _, link := range report.Links {
			title := link.Title
			if title == "" {
				title = link.URL
			}
			fmt.Fprintf(&b, "- [%s](%s) (%s) — %s\n", title, link.URL, link.Category, link.Relevance)
		}
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}
