package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"vibez.app/engine/common/llm"
	"vibez.app/engine/internal/model"
	"vibez.app/engine/internal/service"
	"vibez.app/engine/internal/store"
)

var _ = Describe("Daily Synthesis", func() {
	var (
		ctx       context.Context
		now       time.Time
		messages  *mockMessageStore
		reports   *mockReportStore
		client    *mockLLM
		publisher *mockPublisher
		svc       *service.SynthesisService
	)

	dayMessage := func(id, room, sender, body string, age time.Duration, flagged bool, topics ...string) model.Message {
		rel := 6
		return model.Message{
			ID:               id,
			RoomID:           "r-" + room,
			RoomName:         room,
			SenderName:       sender,
			Body:             body,
			Timestamp:        now.Add(-age),
			RelevanceScore:   &rel,
			Topics:           topics,
			ContributionFlag: flagged,
		}
	}

	respond := func(resp map[string]any) {
		client.chatFn = func(_ context.Context, _ llm.Request, result any) (*llm.Response, error) {
			raw, err := json.Marshal(resp)
			Expect(err).NotTo(HaveOccurred())
			Expect(json.Unmarshal(raw, result)).To(Succeed())
			return &llm.Response{PromptTokens: 100, CompletionTokens: 50}, nil
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		now = time.Date(2025, 6, 1, 7, 0, 0, 0, time.UTC)
		messages = &mockMessageStore{}
		reports = &mockReportStore{}
		client = &mockLLM{}
		publisher = &mockPublisher{}
		svc = service.NewSynthesisService(messages, reports, client, publisher, "Quinn", "", 20000)
	})

	It("skips the run when there were no messages", func() {
		called := false
		client.chatFn = func(context.Context, llm.Request, any) (*llm.Response, error) {
			called = true
			return &llm.Response{}, nil
		}

		report, err := svc.Run(ctx, now)
		Expect(err).NotTo(HaveOccurred())
		Expect(report).To(BeNil())
		Expect(called).To(BeFalse())
	})

	It("builds the prompt from the day's messages in chronological order", func() {
		messages.listFn = func(_ context.Context, filter store.MessageFilter, _, _ int) ([]model.Message, error) {
			Expect(filter.From).To(Equal(now.Add(-24 * time.Hour)))
			Expect(filter.To).To(Equal(now))
			return []model.Message{
				dayMessage("m2", "AI Builders", "alice", "newer message", 1*time.Hour, true, "agents"),
				dayMessage("m1", "AI Builders", "bob", "older message", 5*time.Hour, true, "agents"),
			}, nil
		}

		var prompt string
		client.chatFn = func(_ context.Context, req llm.Request, result any) (*llm.Response, error) {
			prompt = req.UserPrompt
			return &llm.Response{}, nil
		}

		_, err := svc.Run(ctx, now)
		Expect(err).NotTo(HaveOccurred())
		Expect(prompt).To(ContainSubstring("2 messages across 1 groups"))
		Expect(prompt).To(ContainSubstring("agents: 2 messages"))
		Expect(prompt).To(MatchRegexp(`(?s)older message.*newer message`), "messages appear oldest first")
		Expect(prompt).To(ContainSubstring("[CONTRIBUTION OPP]"))
	})

	It("includes the previous briefing for continuity", func() {
		messages.listFn = func(context.Context, store.MessageFilter, int, int) ([]model.Message, error) {
			return []model.Message{dayMessage("m1", "Founders", "alice", "hello", time.Hour, false)}, nil
		}
		reports.latestFn = func(context.Context) (*model.Report, error) {
			return &model.Report{Date: "2025-05-31", BriefingMD: "# Daily Briefing\nagents thread continued"}, nil
		}

		var prompt string
		client.chatFn = func(_ context.Context, req llm.Request, _ any) (*llm.Response, error) {
			prompt = req.UserPrompt
			return &llm.Response{}, nil
		}

		_, err := svc.Run(ctx, now)
		Expect(err).NotTo(HaveOccurred())
		Expect(prompt).To(ContainSubstring("Yesterday's key threads"))
		Expect(prompt).To(ContainSubstring("agents thread continued"))
	})

	It("includes the subject dossier when configured", func() {
		svc = service.NewSynthesisService(messages, reports, client, publisher,
			"Quinn", "Quinn builds agent infrastructure and invests in dev tools.", 20000)
		messages.listFn = func(context.Context, store.MessageFilter, int, int) ([]model.Message, error) {
			return []model.Message{dayMessage("m1", "Founders", "alice", "hello", time.Hour, false)}, nil
		}

		var prompt string
		client.chatFn = func(_ context.Context, req llm.Request, _ any) (*llm.Response, error) {
			prompt = req.UserPrompt
			return &llm.Response{}, nil
		}

		_, err := svc.Run(ctx, now)
		Expect(err).NotTo(HaveOccurred())
		Expect(prompt).To(ContainSubstring("About Quinn"))
		Expect(prompt).To(ContainSubstring("agent infrastructure"))
	})

	It("persists the normalized report and publishes the event", func() {
		messages.listFn = func(context.Context, store.MessageFilter, int, int) ([]model.Message, error) {
			return []model.Message{dayMessage("m1", "Founders", "alice", "we closed the round", time.Hour, true, "funding")}, nil
		}
		respond(map[string]any{
			"daily_memo": "Funding chatter is heating up.",
			"briefing": []map[string]any{
				{"title": "Round closed", "participants": []string{"alice"}, "insights": "The round closed.", "links": []string{}},
			},
			"contributions": []map[string]any{
				{"theme": "funding", "type": "invalid-type", "freshness": "nope", "channel": "Founders",
					"reply_to": "alice's message about the round", "threads": []string{}, "why": "w", "action": "a",
					"draft_message": "congrats!", "message_count": 1},
			},
			"trends": map[string]any{"emerging": []string{"funding"}, "fading": []string{}, "shifts": "money moved"},
			"links":  []map[string]any{},
		})

		var saved *model.Report
		reports.upsertFn = func(_ context.Context, report *model.Report) error {
			saved = report
			return nil
		}
		var published string
		publisher.briefingGeneratedFn = func(_ context.Context, date string) error {
			published = date
			return nil
		}

		report, err := svc.Run(ctx, now)
		Expect(err).NotTo(HaveOccurred())
		Expect(saved).To(BeIdenticalTo(report))
		Expect(report.Date).To(Equal("2025-06-01"))
		Expect(report.ID).NotTo(BeZero())
		Expect(report.GeneratedAt).To(Equal(now))
		Expect(report.DailyMemo).To(Equal("Funding chatter is heating up."))
		Expect(report.Contributions[0].Type).To(Equal("reply"), "invalid enums coerce to defaults")
		Expect(report.Contributions[0].Freshness).To(Equal("warm"))
		Expect(report.BriefingMD).To(ContainSubstring("# Daily Briefing — 2025-06-01"))
		Expect(report.BriefingMD).To(ContainSubstring("Round closed"))
		Expect(published).To(Equal("2025-06-01"))
	})

	It("retries transient LLM failures before giving up", func() {
		messages.listFn = func(context.Context, store.MessageFilter, int, int) ([]model.Message, error) {
			return []model.Message{dayMessage("m1", "Founders", "alice", "hello", time.Hour, false)}, nil
		}

		attempts := 0
		client.chatFn = func(context.Context, llm.Request, any) (*llm.Response, error) {
			attempts++
			if attempts < 3 {
				return nil, errors.New("overloaded")
			}
			return &llm.Response{}, nil
		}

		_, err := svc.Run(ctx, now)
		Expect(err).NotTo(HaveOccurred())
		Expect(attempts).To(Equal(3))
	})

	It("surfaces a persistent LLM failure", func() {
		messages.listFn = func(context.Context, store.MessageFilter, int, int) ([]model.Message, error) {
			return []model.Message{dayMessage("m1", "Founders", "alice", "hello", time.Hour, false)}, nil
		}
		client.chatFn = func(context.Context, llm.Request, any) (*llm.Response, error) {
			return nil, errors.New("overloaded")
		}

		_, err := svc.Run(ctx, now)
		Expect(err).To(MatchError(ContainSubstring("after 3 attempts")))
	})
})
