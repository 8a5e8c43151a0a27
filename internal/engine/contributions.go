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

// Contributions builds the contribution dashboard for the lookback window
// ending at now. days <= 0 means all time; limit <= 0 uses the configured
// cap. Near-duplicate candidates (same room, axis and need, close in
// time) merge into one opportunity and surface as a recurring theme.
func (e *Engine) Contributions(ctx context.Context, now time.Time, days, limit int) (*model.ContributionDashboard, error) {
	if limit <= 0 {
		limit = e.cfg.ContribLimit
	}
	w := NewWindow(days, now)

	candidates, err := e.messages.List(ctx, store.MessageFilter{
		From:             w.Start,
		To:               w.End,
		ContributionOnly: true,
		OrderByRelevance: true,
	}, e.cfg.ScanRowLimit, 0)
	if err != nil {
		return nil, fmt.Errorf("loading contribution candidates: %w", err)
	}

	dash := &model.ContributionDashboard{
		WindowStart: w.Start,
		WindowEnd:   w.End,
		GeneratedAt: now,
	}
	dash.Totals.MessagesScanned = len(candidates)

	// Summaries cover every candidate, including ones the cap drops.
	dash.AxisSummary = tagSummary(candidates, model.Message.AxisTag)
	dash.NeedSummary = tagSummary(candidates, model.Message.NeedTag)

	opportunities, themes := e.mergeThemes(candidates, now)
	for i := range opportunities {
		opportunities[i].Status = e.bucket(opportunities[i])
	}
	sortOpportunities(opportunities)
	if len(opportunities) > limit {
		opportunities = opportunities[:limit]
	}

	dash.Totals.Opportunities = len(opportunities)
	for _, opp := range opportunities {
		switch opp.Status {
		case model.StatusBlocked:
			dash.Totals.Blocked++
		case model.StatusActNow:
			dash.Totals.ActNow++
		case model.StatusAgingRisk:
			dash.Totals.AgingRisk++
		case model.StatusHighLeverage:
			dash.Totals.HighLeverage++
		}
	}

	dash.RecurringThemes = themes
	dash.Opportunities = opportunities
	dash.Sections = sectionize(opportunities)
	return dash, nil
}

type themeKey struct {
	roomID string
	axis   string
	need   string
}

// mergeThemes clusters candidates sharing a room, axis and need when each
// sits within the proximity gap of the previous one. Clusters of two or
// more collapse into a single opportunity and record a recurring theme.
func (e *Engine) mergeThemes(candidates []model.Message, now time.Time) ([]model.Opportunity, []model.RecurringTheme) {
	groups := make(map[themeKey][]model.Message)
	for _, msg := range candidates {
		key := themeKey{roomID: msg.RoomID, axis: msg.AxisTag(), need: msg.NeedTag()}
		groups[key] = append(groups[key], msg)
	}

	var (
		opportunities []model.Opportunity
		themes        []model.RecurringTheme
	)
	for key, group := range groups {
		sort.Slice(group, func(i, j int) bool {
			if !group[i].Timestamp.Equal(group[j].Timestamp) {
				return group[i].Timestamp.After(group[j].Timestamp)
			}
			return group[i].ID < group[j].ID
		})

		start := 0
		for i := 1; i <= len(group); i++ {
			if i < len(group) && group[i-1].Timestamp.Sub(group[i].Timestamp) <= e.cfg.ThemeProximity {
				continue
			}
			cluster := group[start:i]
			start = i

			opp := model.Opportunity{
				Message:     representative(cluster),
				Axis:        key.axis,
				Need:        key.need,
				Age:         now.Sub(cluster[0].Timestamp),
				Occurrences: len(cluster),
			}
			if len(cluster) > 1 {
				for _, m := range cluster {
					opp.MergedIDs = append(opp.MergedIDs, m.ID)
				}
				themes = append(themes, model.RecurringTheme{
					Label:    themeLabel(key.axis, key.need, cluster[0].RoomName),
					RoomName: cluster[0].RoomName,
					Axis:     key.axis,
					Need:     key.need,
					Count:    len(cluster),
					LastSeen: cluster[0].Timestamp,
				})
			}
			opportunities = append(opportunities, opp)
		}
	}

	sort.Slice(themes, func(i, j int) bool {
		if themes[i].Count != themes[j].Count {
			return themes[i].Count > themes[j].Count
		}
		if !themes[i].LastSeen.Equal(themes[j].LastSeen) {
			return themes[i].LastSeen.After(themes[j].LastSeen)
		}
		return themes[i].Label < themes[j].Label
	})
	return opportunities, themes
}

// representative picks the cluster member to display: most relevant,
// then newest, then lowest id.
func representative(cluster []model.Message) model.Message {
	best := cluster[0]
	for _, m := range cluster[1:] {
		if m.Relevance() != best.Relevance() {
			if m.Relevance() > best.Relevance() {
				best = m
			}
			continue
		}
		if !m.Timestamp.Equal(best.Timestamp) {
			if m.Timestamp.After(best.Timestamp) {
				best = m
			}
			continue
		}
		if m.ID < best.ID {
			best = m
		}
	}
	return best
}

func (e *Engine) bucket(opp model.Opportunity) model.UrgencyStatus {
	switch {
	case opp.Axis == "blocked" || opp.Need == "blocked":
		return model.StatusBlocked
	case opp.Age <= e.cfg.ActNowMaxAge && opp.Message.Relevance() >= e.cfg.ActNowMinRelevance:
		return model.StatusActNow
	case opp.Age > e.cfg.AgingRiskMinAge:
		return model.StatusAgingRisk
	case opp.Message.Relevance() >= e.cfg.ActNowMinRelevance:
		return model.StatusHighLeverage
	}
	return model.StatusNone
}

func sortOpportunities(opportunities []model.Opportunity) {
	sort.Slice(opportunities, func(i, j int) bool {
		a, b := opportunities[i].Message, opportunities[j].Message
		if a.Relevance() != b.Relevance() {
			return a.Relevance() > b.Relevance()
		}
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		return a.ID < b.ID
	})
}

func tagSummary(candidates []model.Message, tag func(model.Message) string) []model.TagCount {
	counts := make(map[string]int)
	for _, msg := range candidates {
		if t := tag(msg); t != "" {
			counts[t]++
		}
	}

	summary := make([]model.TagCount, 0, len(counts))
	for t, n := range counts {
		summary = append(summary, model.TagCount{Tag: t, Count: n})
	}
	sort.Slice(summary, func(i, j int) bool {
		if summary[i].Count != summary[j].Count {
			return summary[i].Count > summary[j].Count
		}
		return summary[i].Tag < summary[j].Tag
	})
	return summary
}

func sectionize(opportunities []model.Opportunity) []model.Section {
	index := make(map[string]int)
	var sections []model.Section
	for _, opp := range opportunities {
		axis := opp.Axis
		if axis == "" {
			axis = "general"
		}
		i, ok := index[axis]
		if !ok {
			i = len(sections)
			index[axis] = i
			sections = append(sections, model.Section{Axis: axis})
		}
		sections[i].Opportunities = append(sections[i].Opportunities, opp)
	}

	sort.Slice(sections, func(i, j int) bool {
		if len(sections[i].Opportunities) != len(sections[j].Opportunities) {
			return len(sections[i].Opportunities) > len(sections[j].Opportunities)
		}
		return sections[i].Axis < sections[j].Axis
	})
	return sections
}

func themeLabel(axis, need, roomName string) string {
	label, err := common.Slugify(axis+" "+need, roomName)
	if err != nil {
		return "general"
	}
	return label
}
