package engine_test

import (
	"context"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"vibez.app/engine/internal/engine"
	"vibez.app/engine/internal/model"
	"vibez.app/engine/internal/store"
)

var _ = Describe("Contribution Dashboard", func() {
	var (
		ctx      context.Context
		now      time.Time
		messages *mockMessageStore
		eng      *engine.Engine
	)

	candidate := func(id, room string, age time.Duration, relevance int, axis, need string) model.Message {
		msg := model.Message{
			ID:               id,
			RoomID:           room,
			RoomName:         "Room " + room,
			Platform:         model.PlatformMatrix,
			SenderName:       "sender-" + id,
			Body:             "body " + id,
			Timestamp:        now.Add(-age),
			RelevanceScore:   intPtr(relevance),
			ContributionFlag: true,
		}
		if axis != "" {
			msg.Axis = strPtr(axis)
		}
		if need != "" {
			msg.Need = strPtr(need)
		}
		return msg
	}

	BeforeEach(func() {
		ctx = context.Background()
		now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		messages = &mockMessageStore{}
		eng = engine.New(messages, &mockRoomStore{}, &mockReportStore{}, testConfig())
	})

	It("requests only contribution-flagged messages in the window", func() {
		var captured store.MessageFilter
		messages.listFn = func(_ context.Context, filter store.MessageFilter, _, _ int) ([]model.Message, error) {
			captured = filter
			return nil, nil
		}

		_, err := eng.Contributions(ctx, now, 45, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(captured.ContributionOnly).To(BeTrue())
		Expect(captured.From).To(Equal(now.Add(-45 * 24 * time.Hour)))
		Expect(captured.To).To(Equal(now))
	})

	It("buckets a fresh relevant candidate as act_now and a stale one as aging_risk", func() {
		messages.listFn = func(_ context.Context, _ store.MessageFilter, _, _ int) ([]model.Message, error) {
			return []model.Message{
				candidate("m1", "r1", 1*time.Hour, 9, "intro", ""),
				candidate("m2", "r2", 6*24*time.Hour, 9, "intro", ""),
			}, nil
		}

		dash, err := eng.Contributions(ctx, now, 45, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(dash.Opportunities).To(HaveLen(2))
		Expect(dash.Opportunities[0].Message.ID).To(Equal("m1"))
		Expect(dash.Opportunities[0].Status).To(Equal(model.StatusActNow))
		Expect(dash.Opportunities[1].Status).To(Equal(model.StatusAgingRisk))
		Expect(dash.Totals.ActNow).To(Equal(1))
		Expect(dash.Totals.AgingRisk).To(Equal(1))
	})

	It("prefers blocked over every other bucket", func() {
		messages.listFn = func(_ context.Context, _ store.MessageFilter, _, _ int) ([]model.Message, error) {
			return []model.Message{
				candidate("m1", "r1", 1*time.Hour, 10, "blocked", ""),
			}, nil
		}

		dash, err := eng.Contributions(ctx, now, 45, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(dash.Opportunities[0].Status).To(Equal(model.StatusBlocked))
		Expect(dash.Totals.Blocked).To(Equal(1))
		Expect(dash.Totals.ActNow).To(BeZero())
	})

	It("leaves unurgent candidates listed but uncounted", func() {
		messages.listFn = func(_ context.Context, _ store.MessageFilter, _, _ int) ([]model.Message, error) {
			return []model.Message{
				candidate("m1", "r1", 48*time.Hour, 4, "share", ""),
			}, nil
		}

		dash, err := eng.Contributions(ctx, now, 45, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(dash.Opportunities).To(HaveLen(1))
		Expect(dash.Opportunities[0].Status).To(Equal(model.StatusNone))
		Expect(dash.Totals.Opportunities).To(Equal(1))
		Expect(dash.Totals.ActNow + dash.Totals.HighLeverage + dash.Totals.AgingRisk + dash.Totals.Blocked).To(BeZero())
	})

	Describe("theme merging", func() {
		It("merges same room, axis and need within the proximity gap", func() {
			messages.listFn = func(_ context.Context, _ store.MessageFilter, _, _ int) ([]model.Message, error) {
				return []model.Message{
					candidate("m1", "r1", 2*time.Hour, 7, "connect", "hiring"),
					candidate("m2", "r1", 40*time.Hour, 9, "connect", "hiring"),
				}, nil
			}

			dash, err := eng.Contributions(ctx, now, 45, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(dash.Opportunities).To(HaveLen(1))

			opp := dash.Opportunities[0]
			Expect(opp.Occurrences).To(Equal(2))
			Expect(opp.Message.ID).To(Equal("m2"), "most relevant member represents the cluster")
			Expect(opp.MergedIDs).To(ConsistOf("m1", "m2"))
			Expect(opp.Age).To(Equal(2*time.Hour), "age tracks the newest occurrence")

			Expect(dash.RecurringThemes).To(HaveLen(1))
			Expect(dash.RecurringThemes[0].Label).To(Equal("connect-hiring"))
			Expect(dash.RecurringThemes[0].Count).To(Equal(2))
			Expect(dash.RecurringThemes[0].LastSeen).To(Equal(now.Add(-2 * time.Hour)))
		})

		It("does not merge across the proximity gap", func() {
			messages.listFn = func(_ context.Context, _ store.MessageFilter, _, _ int) ([]model.Message, error) {
				return []model.Message{
					candidate("m1", "r1", 1*time.Hour, 9, "intro", ""),
					candidate("m2", "r1", 6*24*time.Hour, 9, "intro", ""),
				}, nil
			}

			dash, err := eng.Contributions(ctx, now, 45, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(dash.Opportunities).To(HaveLen(2))
			Expect(dash.RecurringThemes).To(BeEmpty())
		})

		It("does not merge across rooms", func() {
			messages.listFn = func(_ context.Context, _ store.MessageFilter, _, _ int) ([]model.Message, error) {
				return []model.Message{
					candidate("m1", "r1", 1*time.Hour, 9, "intro", ""),
					candidate("m2", "r2", 2*time.Hour, 9, "intro", ""),
				}, nil
			}

			dash, err := eng.Contributions(ctx, now, 45, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(dash.Opportunities).To(HaveLen(2))
		})
	})

	It("summarizes axes and needs over all candidates before capping", func() {
		messages.listFn = func(_ context.Context, _ store.MessageFilter, _, _ int) ([]model.Message, error) {
			var out []model.Message
			for i := 0; i < 5; i++ {
				out = append(out, candidate(fmt.Sprintf("m%d", i), fmt.Sprintf("r%d", i), time.Duration(i)*time.Hour, 9, "connect", "hiring"))
			}
			return out, nil
		}

		dash, err := eng.Contributions(ctx, now, 45, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(dash.Opportunities).To(HaveLen(2))
		Expect(dash.Totals.Opportunities).To(Equal(2))
		Expect(dash.Totals.MessagesScanned).To(Equal(5))
		Expect(dash.AxisSummary).To(Equal([]model.TagCount{{Tag: "connect", Count: 5}}))
		Expect(dash.NeedSummary).To(Equal([]model.TagCount{{Tag: "hiring", Count: 5}}))
	})

	It("orders by relevance, then recency, then id", func() {
		messages.listFn = func(_ context.Context, _ store.MessageFilter, _, _ int) ([]model.Message, error) {
			tied := candidate("m2", "r2", 3*time.Hour, 9, "intro", "")
			tiedLater := candidate("m1", "r1", 3*time.Hour, 9, "share", "")
			return []model.Message{
				candidate("m3", "r3", 1*time.Hour, 5, "intro", ""),
				tied,
				tiedLater,
				candidate("m4", "r4", 2*time.Hour, 9, "ask", ""),
			}, nil
		}

		dash, err := eng.Contributions(ctx, now, 45, 0)
		Expect(err).NotTo(HaveOccurred())

		var ids []string
		for _, opp := range dash.Opportunities {
			ids = append(ids, opp.Message.ID)
		}
		Expect(ids).To(Equal([]string{"m4", "m1", "m2", "m3"}))
	})

	It("groups sections by axis, largest first", func() {
		messages.listFn = func(_ context.Context, _ store.MessageFilter, _, _ int) ([]model.Message, error) {
			return []model.Message{
				candidate("m1", "r1", 1*time.Hour, 9, "intro", ""),
				candidate("m2", "r2", 2*time.Hour, 8, "connect", ""),
				candidate("m3", "r3", 3*time.Hour, 7, "connect", ""),
				candidate("m4", "r4", 4*time.Hour, 6, "", ""),
			}, nil
		}

		dash, err := eng.Contributions(ctx, now, 45, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(dash.Sections).To(HaveLen(3))
		Expect(dash.Sections[0].Axis).To(Equal("connect"))
		Expect(dash.Sections[0].Opportunities).To(HaveLen(2))
		Expect(dash.Sections[1].Axis).To(Equal("general"))
		Expect(dash.Sections[2].Axis).To(Equal("intro"))
	})

	It("produces identical output on repeated runs over the same messages", func() {
		messages.listFn = func(_ context.Context, _ store.MessageFilter, _, _ int) ([]model.Message, error) {
			return []model.Message{
				candidate("m1", "r1", 1*time.Hour, 9, "intro", "feedback"),
				candidate("m2", "r1", 2*time.Hour, 8, "intro", "feedback"),
				candidate("m3", "r2", 3*time.Hour, 7, "share", ""),
			}, nil
		}

		first, err := eng.Contributions(ctx, now, 45, 0)
		Expect(err).NotTo(HaveOccurred())
		second, err := eng.Contributions(ctx, now, 45, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(second).To(Equal(first))
	})

	It("returns an empty dashboard when nothing is flagged", func() {
		dash, err := eng.Contributions(ctx, now, 45, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(dash.Totals).To(Equal(model.ContributionTotals{}))
		Expect(dash.Opportunities).To(BeEmpty())
		Expect(dash.GeneratedAt).To(Equal(now))
	})
})
