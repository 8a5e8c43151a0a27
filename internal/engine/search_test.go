package engine_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"vibez.app/engine/internal/engine"
	"vibez.app/engine/internal/model"
	"vibez.app/engine/internal/store"
)

var _ = Describe("Message Search", func() {
	var (
		ctx      context.Context
		now      time.Time
		messages *mockMessageStore
		eng      *engine.Engine
	)

	msg := func(id, body string, age time.Duration) model.Message {
		return model.Message{
			ID:         id,
			RoomID:     "r1",
			RoomName:   "AI Builders",
			SenderName: "alice",
			Body:       body,
			Timestamp:  now.Add(-age),
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		messages = &mockMessageStore{}
		eng = engine.New(messages, &mockRoomStore{}, &mockReportStore{}, testConfig())
	})

	It("passes extracted keywords to the store", func() {
		var captured store.MessageFilter
		messages.listFn = func(_ context.Context, filter store.MessageFilter, _, _ int) ([]model.Message, error) {
			captured = filter
			return nil, nil
		}

		_, err := eng.Search(ctx, now, "Who is working on funding rounds?", 7, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(captured.TextKeywords).To(Equal([]string{"who", "working", "funding", "rounds"}))
		Expect(captured.From).To(Equal(now.Add(-7 * 24 * time.Hour)))
	})

	It("searches all time when days is zero", func() {
		var captured store.MessageFilter
		messages.listFn = func(_ context.Context, filter store.MessageFilter, _, _ int) ([]model.Message, error) {
			captured = filter
			return nil, nil
		}

		_, err := eng.Search(ctx, now, "funding", 0, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(captured.From.IsZero()).To(BeTrue(), "unbounded window start")
		Expect(captured.To).To(Equal(now))
	})

	It("returns an empty slice when nothing matches", func() {
		results, err := eng.Search(ctx, now, "quantum gardening", 0, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).NotTo(BeNil())
		Expect(results).To(BeEmpty())
	})

	It("ranks messages matching more keywords first", func() {
		messages.listFn = func(_ context.Context, _ store.MessageFilter, _, _ int) ([]model.Message, error) {
			return []model.Message{
				msg("m1", "funding news", 1*time.Hour),
				msg("m2", "our funding round closed, more funding soon", 5*time.Hour),
				msg("m3", "round two", 2*time.Hour),
			}, nil
		}

		results, err := eng.Search(ctx, now, "funding round", 0, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(3))
		Expect(results[0].ID).To(Equal("m2"), "matches both keywords")
		Expect(results[1].ID).To(Equal("m1"), "newer of the single-keyword matches")
		Expect(results[2].ID).To(Equal("m3"))
	})

	It("falls back to recent high-relevance messages for unusable queries", func() {
		var captured store.MessageFilter
		messages.listFn = func(_ context.Context, filter store.MessageFilter, _, _ int) ([]model.Message, error) {
			captured = filter
			return []model.Message{msg("m1", "hello", time.Hour)}, nil
		}

		results, err := eng.Search(ctx, now, "go? ai", 0, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(1))
		Expect(captured.TextKeywords).To(BeEmpty())
		Expect(captured.MinRelevance).NotTo(BeNil())
		Expect(*captured.MinRelevance).To(Equal(7))
		Expect(captured.OrderByRelevance).To(BeTrue())
	})

	It("caps results at the limit after ranking", func() {
		messages.listFn = func(_ context.Context, _ store.MessageFilter, _, _ int) ([]model.Message, error) {
			return []model.Message{
				msg("m1", "funding", 3*time.Hour),
				msg("m2", "funding funding", 2*time.Hour),
				msg("m3", "funding", 1*time.Hour),
			}, nil
		}

		results, err := eng.Search(ctx, now, "funding", 0, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(2))
		Expect(results[0].ID).To(Equal("m2"), "more occurrences outrank recency")
		Expect(results[1].ID).To(Equal("m3"))
	})
})
