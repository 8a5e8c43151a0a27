package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"vibez.app/engine/common/id"
	"vibez.app/engine/common/llm"
	"vibez.app/engine/internal/model"
	"vibez.app/engine/internal/store"
)

// EventPublisher notifies downstream consumers that a briefing exists.
type EventPublisher interface {
	BriefingGenerated(ctx context.Context, date string) error
}

type synthesisResponse struct {
	DailyMemo     string               `json:"daily_memo" jsonschema_description:"3-5 sentence analysis of how conversations are evolving across groups"`
	Briefing      []briefingThreadJSON `json:"briefing" jsonschema_description:"Top 3-5 key threads of the day"`
	Contributions []contributionJSON   `json:"contributions" jsonschema_description:"Top 3-5 contribution opportunities clustered by theme"`
	Trends        trendsJSON           `json:"trends"`
	Links         []sharedLinkJSON     `json:"links" jsonschema_description:"Links shared in the day's messages"`
}

type briefingThreadJSON struct {
	Title        string   `json:"title"`
	Participants []string `json:"participants"`
	Insights     string   `json:"insights" jsonschema_description:"1-2 sentence summary of what happened or was decided"`
	Links        []string `json:"links"`
}

type contributionJSON struct {
	Theme        string   `json:"theme" jsonschema_description:"Contribution theme slug, e.g. multi-agent-orchestration"`
	Type         string   `json:"type" jsonschema:"enum=reply,enum=create"`
	Freshness    string   `json:"freshness" jsonschema:"enum=hot,enum=warm,enum=cool,enum=archive"`
	Channel      string   `json:"channel" jsonschema_description:"Exact room name where this contribution should go"`
	ReplyTo      string   `json:"reply_to" jsonschema_description:"Who to reply to and what they said, with enough detail to find the message"`
	Threads      []string `json:"threads" jsonschema_description:"Related thread titles from the briefing"`
	Why          string   `json:"why"`
	Action       string   `json:"action"`
	DraftMessage string   `json:"draft_message" jsonschema_description:"Ready-to-send message in the subject's voice, 2-4 sentences"`
	MessageCount int      `json:"message_count"`
}

type trendsJSON struct {
	Emerging []string `json:"emerging"`
	Fading   []string `json:"fading"`
	Shifts   string   `json:"shifts" jsonschema_description:"One sentence on what changed this week"`
}

type sharedLinkJSON struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	Category  string `json:"category" jsonschema:"enum=tool,enum=repo,enum=article,enum=discussion"`
	Relevance string `json:"relevance"`
}

var synthesisSchema = llm.GenerateSchema[synthesisResponse]()

// SynthesisService generates the daily briefing: it reads the last day of
// classified messages, asks the LLM for a structured report, normalizes
// it to scannable lengths and persists it keyed by calendar date.
type SynthesisService struct {
	messages store.MessageStore
	reports  store.ReportStore
	llm      llm.Client
	events   EventPublisher
	subject  string
	dossier  string
	scanCap  int
}

func NewSynthesisService(messages store.MessageStore, reports store.ReportStore, client llm.Client, events EventPublisher, subject, dossier string, scanCap int) *SynthesisService {
	if subject == "" {
		subject = "the subject"
	}
	return &SynthesisService{
		messages: messages,
		reports:  reports,
		llm:      client,
		events:   events,
		subject:  subject,
		dossier:  dossier,
		scanCap:  scanCap,
	}
}

// Run synthesizes the report for the 24 hours ending at now. Returns nil
// without error when there were no messages to synthesize.
func (s *SynthesisService) Run(ctx context.Context, now time.Time) (*model.Report, error) {
	reportDate := now.Format("2006-01-02")
	messages, err := s.messages.List(ctx, store.MessageFilter{
		From: now.Add(-24 * time.Hour),
		To:   now,
	}, s.scanCap, 0)
	if err != nil {
		return nil, fmt.Errorf("loading day messages: %w", err)
	}
	if len(messages) == 0 {
		slog.InfoContext(ctx, "no messages in the last 24 hours, skipping synthesis", "report_date", reportDate)
		return nil, nil
	}

	// Store order is newest-first; the prompt wants chronology.
	sort.Slice(messages, func(i, j int) bool {
		if !messages[i].Timestamp.Equal(messages[j].Timestamp) {
			return messages[i].Timestamp.Before(messages[j].Timestamp)
		}
		return messages[i].ID < messages[j].ID
	})

	previous := ""
	if prev, err := s.reports.Latest(ctx); err == nil {
		previous = compactText(prev.BriefingMD, 1000)
	} else if err != store.ErrNotFound {
		return nil, fmt.Errorf("loading previous briefing: %w", err)
	}

	var response synthesisResponse
	req := llm.Request{
		SystemPrompt: s.systemPrompt(),
		UserPrompt:   s.buildPrompt(messages, previous),
		SchemaName:   "daily_briefing",
		Schema:       synthesisSchema,
		Temperature:  llm.Temp(0.3),
	}

	// Transient provider failures are common on long generations; retry
	// with backoff before giving up on the day's report.
	var llmResp *llm.Response
	for attempt := 0; attempt < 3; attempt++ {
		llmResp, err = s.llm.Chat(ctx, req, &response)
		if err == nil {
			break
		}
		slog.WarnContext(ctx, "synthesis retry",
			"report_date", reportDate,
			"attempt", attempt+1,
			"error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(1<<attempt) * time.Second):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("synthesis after 3 attempts: %w", err)
	}

	report := s.normalize(response)
	report.ID = id.New()
	report.Date = reportDate
	report.GeneratedAt = now
	report.BriefingMD = renderBriefingMarkdown(report)

	if err := s.reports.Upsert(ctx, report); err != nil {
		return nil, fmt.Errorf("saving report %s: %w", reportDate, err)
	}
	if s.events != nil {
		if err := s.events.BriefingGenerated(ctx, reportDate); err != nil {
			slog.ErrorContext(ctx, "failed to publish briefing event", "report_date", reportDate, "error", err)
		}
	}

	slog.InfoContext(ctx, "daily synthesis complete",
		"report_date", reportDate,
		"threads", len(report.Briefing),
		"contributions", len(report.Contributions),
		"prompt_tokens", llmResp.PromptTokens,
		"completion_tokens", llmResp.CompletionTokens)
	return report, nil
}

func (s *SynthesisService) systemPrompt() string {
	return fmt.Sprintf(`You are %s's daily intelligence analyst for their group-chat ecosystem.
You produce structured daily briefings that help %s stay engaged with minimal reading.
Always respond with valid JSON only. No prose outside the JSON structure.`, s.subject, s.subject)
}

func (s *SynthesisService) buildPrompt(messages []model.Message, previous string) string {
	rooms := make(map[string]bool)
	var block strings.Builder
	for _, m := range messages {
		flag := ""
		if m.ContributionFlag {
			flag = " [CONTRIBUTION OPP]"
		}
		fmt.Fprintf(&block, "  [%s] [%s] %s (rel=%d%s): %s\n",
			m.Timestamp.Format("15:04"), m.RoomName, m.SenderName,
			m.Relevance(), flag, clip(m.Body, 500))
		rooms[m.RoomName] = true
	}

	themes := themeCounts(messages)
	themesBlock := "  (none flagged yet)\n"
	if len(themes) > 0 {
		var b strings.Builder
		for _, tc := range themes {
			fmt.Fprintf(&b, "  %s: %d messages\n", tc.Tag, tc.Count)
		}
		themesBlock = b.String()
	}

	previousBlock := ""
	if previous != "" {
		previousBlock = fmt.Sprintf("Yesterday's key threads (for continuity):\n%s\n\n", previous)
	}

	dossierBlock := ""
	if s.dossier != "" {
		dossierBlock = fmt.Sprintf("About %s (for voice and relevance):\n%s\n\n",
			s.subject, compactText(s.dossier, 1000))
	}

	return fmt.Sprintf(`Generate today's briefing from %d messages across %d groups.

%s%sMessages (chronological, with classifications):
%s

CONTRIBUTION THEMES from classifier (cluster these):
%s

CONTRIBUTION RULES:
- Cluster contribution opportunities by THEME, not individual messages.
- A theme with many recent messages is higher priority than one with a single old message.
- "reply" type: fresh threads (<3 days) where %s can jump in with a direct response.
- "create" type: recurring themes that warrant a dedicated share even if individual messages are older.
- "channel" MUST be the exact room name from the messages.
- "reply_to" should identify the specific message: person's name + what they said + approximate time.
- Focus on the top 3-5 most important threads and top 3-5 contribution themes.

PITHY STYLE RULES (important):
- Keep wording tight and high-signal.
- "insights": max 1-2 short sentences, ~160 chars.
- "daily_memo": 3-5 short sentences, ~520 chars.
- "why": one short sentence, ~140 chars.
- "action": one short sentence, ~110 chars.
- "shifts": one short sentence, ~120 chars.
- "draft_message": 2-3 short sentences, ~320 chars, written as %s would actually type.`,
		len(messages), len(rooms), dossierBlock, previousBlock, block.String(), themesBlock, s.subject, s.subject)
}

func themeCounts(messages []model.Message) []model.TagCount {
	counts := make(map[string]int)
	for _, m := range messages {
		if !m.ContributionFlag {
			continue
		}
		for _, topic := range m.Topics {
			counts[topic]++
		}
	}

	themes := make([]model.TagCount, 0, len(counts))
	for topic, n := range counts {
		themes = append(themes, model.TagCount{Tag: topic, Count: n})
	}
	sort.Slice(themes, func(i, j int) bool {
		if themes[i].Count != themes[j].Count {
			return themes[i].Count > themes[j].Count
		}
		return themes[i].Tag < themes[j].Tag
	})
	return themes
}
