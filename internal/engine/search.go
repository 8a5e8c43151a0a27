package engine

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"vibez.app/engine/core/config"
	"vibez.app/engine/internal/model"
	"vibez.app/engine/internal/store"
)

// Searcher retrieves messages for a free-text query within a window.
// Implementations rank however they like but must be deterministic for
// a fixed corpus and query.
type Searcher interface {
	Search(ctx context.Context, query string, w Window, limit int) ([]model.Message, error)
}

const (
	maxKeywords   = 5
	minKeywordLen = 3

	// When a query yields no usable keywords we fall back to recent
	// highly relevant messages rather than returning nothing.
	fallbackMinRelevance = 7
)

// Search runs a keyword search over the lookback window ending at now.
// days <= 0 means all time; limit <= 0 uses the configured default. No
// matches is an empty slice, not an error.
func (e *Engine) Search(ctx context.Context, now time.Time, query string, days, limit int) ([]model.Message, error) {
	if limit <= 0 {
		limit = e.cfg.SearchLimit
	}
	results, err := e.searcher.Search(ctx, query, NewWindow(days, now), limit)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []model.Message{}
	}
	return results, nil
}

// storeSearcher matches extracted keywords against the message store
// with LIKE filters and ranks in memory: messages matching more distinct
// keywords first, then more total occurrences, then newer.
type storeSearcher struct {
	messages  store.MessageStore
	scanLimit int
}

func newStoreSearcher(messages store.MessageStore, cfg config.DashboardConfig) *storeSearcher {
	return &storeSearcher{messages: messages, scanLimit: cfg.ScanRowLimit}
}

func (s *storeSearcher) Search(ctx context.Context, query string, w Window, limit int) ([]model.Message, error) {
	keywords := ExtractKeywords(query)
	if len(keywords) == 0 {
		minRel := fallbackMinRelevance
		fallback, err := s.messages.List(ctx, store.MessageFilter{
			From:             w.Start,
			To:               w.End,
			MinRelevance:     &minRel,
			OrderByRelevance: true,
		}, limit, 0)
		if err != nil {
			return nil, fmt.Errorf("searching messages: %w", err)
		}
		return fallback, nil
	}

	matches, err := s.messages.List(ctx, store.MessageFilter{
		From:         w.Start,
		To:           w.End,
		TextKeywords: keywords,
	}, s.scanLimit, 0)
	if err != nil {
		return nil, fmt.Errorf("searching messages: %w", err)
	}

	rankMatches(matches, keywords)
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

var keywordSplit = regexp.MustCompile(`[^a-z0-9]+`)

// ExtractKeywords lowercases the query and keeps the first few words
// long enough to be selective. Short queries ("go?") produce none.
func ExtractKeywords(query string) []string {
	words := keywordSplit.Split(strings.ToLower(query), -1)

	var keywords []string
	seen := make(map[string]bool)
	for _, word := range words {
		if len(word) < minKeywordLen || seen[word] {
			continue
		}
		seen[word] = true
		keywords = append(keywords, word)
		if len(keywords) == maxKeywords {
			break
		}
	}
	return keywords
}

func rankMatches(matches []model.Message, keywords []string) {
	type score struct {
		distinct int
		total    int
	}
	scores := make(map[string]score, len(matches))
	for _, msg := range matches {
		haystack := strings.ToLower(msg.Body + " " + msg.SenderName + " " + msg.RoomName)
		var sc score
		for _, kw := range keywords {
			if n := strings.Count(haystack, kw); n > 0 {
				sc.distinct++
				sc.total += n
			}
		}
		scores[msg.ID] = sc
	}

	sort.Slice(matches, func(i, j int) bool {
		a, b := scores[matches[i].ID], scores[matches[j].ID]
		if a.distinct != b.distinct {
			return a.distinct > b.distinct
		}
		if a.total != b.total {
			return a.total > b.total
		}
		if !matches[i].Timestamp.Equal(matches[j].Timestamp) {
			return matches[i].Timestamp.After(matches[j].Timestamp)
		}
		return matches[i].ID < matches[j].ID
	})
}
