// Package engine computes the dashboard views. Every aggregator reads
// messages through the store, derives its snapshot in memory and returns
// it; nothing here writes. Callers pass a single evaluation instant so
// all windows and ages within one request line up.
package engine

import (
	"vibez.app/engine/core/config"
	"vibez.app/engine/internal/store"
)

type Engine struct {
	messages store.MessageStore
	rooms    store.RoomStore
	reports  store.ReportStore
	searcher Searcher
	cfg      config.DashboardConfig
}

func New(messages store.MessageStore, rooms store.RoomStore, reports store.ReportStore, cfg config.DashboardConfig) *Engine {
	return &Engine{
		messages: messages,
		rooms:    rooms,
		reports:  reports,
		searcher: newStoreSearcher(messages, cfg),
		cfg:      cfg,
	}
}

// UseSearcher swaps the default store-backed searcher, e.g. for the
// Typesense index. Call before serving requests.
func (e *Engine) UseSearcher(s Searcher) {
	e.searcher = s
}
