package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"vibez.app/engine/common"
	"vibez.app/engine/internal/model"
	"vibez.app/engine/internal/store"
)

// Radar builds the trending-topics view anchored on the latest report:
// two adjacent windows of windowHours each, ending at the report's
// generation time. Returns (nil, nil) when no report exists yet or when
// both windows are empty, so the caller renders "no radar yet" instead
// of a zeroed chart.
func (e *Engine) Radar(ctx context.Context, now time.Time, windowHours int) (*model.RadarSnapshot, error) {
	anchor, err := e.reports.Latest(ctx)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("loading radar anchor: %w", err)
	}

	if windowHours <= 0 {
		windowHours = e.cfg.RadarWindowHours
	}
	span := time.Duration(windowHours) * time.Hour

	end := anchor.GeneratedAt
	if end.IsZero() {
		end = now
	}
	split := end.Add(-span)

	messages, err := e.messages.List(ctx, store.MessageFilter{
		From: end.Add(-2 * span),
		To:   end,
	}, e.cfg.ScanRowLimit, 0)
	if err != nil {
		return nil, fmt.Errorf("loading radar messages: %w", err)
	}
	if len(messages) == 0 {
		return nil, nil
	}

	current := make(map[string]int)
	prior := make(map[string]int)
	for _, msg := range messages {
		counts := prior
		if !msg.Timestamp.Before(split) {
			counts = current
		}
		for _, topic := range msg.Topics {
			slug, err := common.Slugify(topic, "")
			if err != nil {
				continue
			}
			counts[slug]++
		}
	}

	var topics []model.TopicTrend
	for slug, cur := range current {
		topics = append(topics, model.TopicTrend{
			Label:        slug,
			CurrentCount: cur,
			PriorCount:   prior[slug],
			Trend:        trend(cur, prior[slug]),
		})
	}
	for slug, prev := range prior {
		if _, ok := current[slug]; ok {
			continue
		}
		topics = append(topics, model.TopicTrend{
			Label:      slug,
			PriorCount: prev,
			Trend:      model.TrendFalling,
		})
	}

	filtered := topics[:0]
	for _, t := range topics {
		if t.CurrentCount >= e.cfg.RadarMinMentions || t.PriorCount >= e.cfg.RadarMinMentions {
			filtered = append(filtered, t)
		}
	}
	topics = filtered

	sort.Slice(topics, func(i, j int) bool {
		if topics[i].CurrentCount != topics[j].CurrentCount {
			return topics[i].CurrentCount > topics[j].CurrentCount
		}
		if topics[i].PriorCount != topics[j].PriorCount {
			return topics[i].PriorCount > topics[j].PriorCount
		}
		return topics[i].Label < topics[j].Label
	})

	return &model.RadarSnapshot{
		WindowStart: split,
		WindowEnd:   end,
		GeneratedAt: now,
		Topics:      topics,
	}, nil
}

func trend(current, prior int) model.TrendDirection {
	switch {
	case current > prior:
		return model.TrendRising
	case current < prior:
		return model.TrendFalling
	}
	return model.TrendFlat
}
