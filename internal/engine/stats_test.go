package engine_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"vibez.app/engine/internal/engine"
	"vibez.app/engine/internal/model"
)

var _ = Describe("Stats Dashboard", func() {
	var (
		ctx      context.Context
		now      time.Time
		messages *mockMessageStore
		rooms    *mockRoomStore
		eng      *engine.Engine
	)

	BeforeEach(func() {
		ctx = context.Background()
		now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		messages = &mockMessageStore{}
		rooms = &mockRoomStore{}
		eng = engine.New(messages, rooms, &mockReportStore{}, testConfig())
	})

	It("returns zero totals for an empty store", func() {
		stats, err := eng.Stats(ctx, now, 90)
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.Days).To(Equal(90))
		Expect(stats.TotalMessages).To(BeZero())
		Expect(stats.TotalRooms).To(BeZero())
		Expect(stats.TotalPeople).To(BeZero())
		Expect(stats.Rooms).To(BeEmpty())
		Expect(stats.Platforms).To(BeEmpty())
	})

	It("queries all time when days is zero", func() {
		var gotFrom, gotTo time.Time
		rooms.listFn = func(_ context.Context, from, to time.Time) ([]model.Room, error) {
			gotFrom, gotTo = from, to
			return nil, nil
		}

		stats, err := eng.Stats(ctx, now, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(gotFrom.IsZero()).To(BeTrue(), "unbounded window start")
		Expect(gotTo).To(Equal(now))
		Expect(stats.Days).To(BeZero())
	})

	It("aggregates rooms and platforms", func() {
		rooms.listFn = func(_ context.Context, from, to time.Time) ([]model.Room, error) {
			Expect(from).To(Equal(now.Add(-30 * 24 * time.Hour)))
			Expect(to).To(Equal(now))
			return []model.Room{
				{ID: "r1", Name: "AI Builders", Platform: model.PlatformMatrix, MessageCount: 120, SenderCount: 14, LastSeen: now.Add(-time.Hour)},
				{ID: "r2", Name: "Founders", Platform: model.PlatformMatrix, MessageCount: 80, SenderCount: 9, LastSeen: now.Add(-2 * time.Hour)},
				{ID: "r3", Name: "announce", Platform: model.PlatformGoogleGroups, MessageCount: 30, SenderCount: 6, LastSeen: now.Add(-3 * time.Hour)},
			}, nil
		}
		messages.distinctSendersFn = func(context.Context, time.Time, time.Time) (int, error) {
			return 22, nil
		}

		stats, err := eng.Stats(ctx, now, 30)
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.Days).To(Equal(30))
		Expect(stats.TotalMessages).To(Equal(230))
		Expect(stats.TotalRooms).To(Equal(3))
		Expect(stats.TotalPeople).To(Equal(22), "distinct senders, not the sum of per-room counts")

		Expect(stats.Rooms).To(HaveLen(3))
		Expect(stats.Rooms[0].RoomName).To(Equal("AI Builders"))
		Expect(stats.Rooms[0].People).To(Equal(14))

		Expect(stats.Platforms).To(Equal([]model.PlatformStats{
			{Platform: model.PlatformMatrix, Messages: 200, Rooms: 2},
			{Platform: model.PlatformGoogleGroups, Messages: 30, Rooms: 1},
		}))
	})
})
