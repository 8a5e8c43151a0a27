package service_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"vibez.app/engine/common/llm"
	"vibez.app/engine/internal/model"
	"vibez.app/engine/internal/service"
)

var _ = Describe("Chat Agent", func() {
	var (
		ctx    context.Context
		now    time.Time
		intel  *mockIntelligence
		client *mockLLM
		svc    *service.ChatService
	)

	BeforeEach(func() {
		ctx = context.Background()
		now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		intel = &mockIntelligence{}
		client = &mockLLM{}
		svc = service.NewChatService(intel, client, 7)
	})

	It("defaults the lookback when none is given", func() {
		var gotDays int
		intel.searchFn = func(_ context.Context, _ time.Time, _ string, days, _ int) ([]model.Message, error) {
			gotDays = days
			return nil, nil
		}
		client.completeFn = func(context.Context, llm.Request) (string, error) {
			return "nothing happened", nil
		}

		_, err := svc.Ask(ctx, now, "anything new?", 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(gotDays).To(Equal(7))
	})

	It("grounds the prompt in retrieved messages and the latest briefing", func() {
		intel.searchFn = func(_ context.Context, _ time.Time, query string, days, _ int) ([]model.Message, error) {
			Expect(query).To(Equal("what happened with funding?"))
			Expect(days).To(Equal(7))
			return []model.Message{{
				RoomName:   "Founders",
				SenderName: "alice",
				Body:       "our round closed yesterday",
				Timestamp:  now.Add(-2 * time.Hour),
			}}, nil
		}
		intel.latestReportFn = func(context.Context) (*model.Report, error) {
			return &model.Report{Date: "2025-06-01", BriefingMD: "# Daily Briefing\nfunding wrapped"}, nil
		}

		var prompt string
		client.completeFn = func(_ context.Context, req llm.Request) (string, error) {
			prompt = req.UserPrompt
			return "Alice's round closed yesterday.", nil
		}

		answer, err := svc.Ask(ctx, now, "what happened with funding?", 7)
		Expect(err).NotTo(HaveOccurred())
		Expect(answer).To(Equal("Alice's round closed yesterday."))
		Expect(prompt).To(ContainSubstring("Question: what happened with funding?"))
		Expect(prompt).To(ContainSubstring("[Founders] alice: our round closed yesterday"))
		Expect(prompt).To(ContainSubstring("Latest briefing (2025-06-01)"))
	})

	It("tells the model when nothing matched", func() {
		var prompt string
		client.completeFn = func(_ context.Context, req llm.Request) (string, error) {
			prompt = req.UserPrompt
			return "I don't have enough context.", nil
		}

		_, err := svc.Ask(ctx, now, "anything about quantum gardening?", 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(prompt).To(ContainSubstring("(no matching messages found)"))
	})

	It("works without a briefing", func() {
		client.completeFn = func(_ context.Context, req llm.Request) (string, error) {
			Expect(req.UserPrompt).NotTo(ContainSubstring("Latest briefing"))
			return "ok", nil
		}

		_, err := svc.Ask(ctx, now, "what's new?", 0)
		Expect(err).NotTo(HaveOccurred())
	})

	It("propagates retrieval failures", func() {
		intel.searchFn = func(context.Context, time.Time, string, int, int) ([]model.Message, error) {
			return nil, errors.New("index down")
		}

		_, err := svc.Ask(ctx, now, "anything?", 0)
		Expect(err).To(MatchError(ContainSubstring("index down")))
	})
})
