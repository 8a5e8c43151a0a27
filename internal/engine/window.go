package engine

import (
	"strconv"
	"strings"
	"time"
)

// Window is a half-open [Start, End) interval anchored at the evaluation
// instant. A zero Start means unbounded ("all time").
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow returns the lookback window ending at now. days <= 0 yields
// an unbounded window.
func NewWindow(days int, now time.Time) Window {
	w := Window{End: now}
	if days > 0 {
		w.Start = now.Add(-time.Duration(days) * 24 * time.Hour)
	}
	return w
}

func (w Window) Contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	return t.Before(w.End)
}

// ParseLookback resolves a client-supplied lookback: a positive day
// count, or "all" for unbounded (0). Anything else falls back.
func ParseLookback(raw string, fallback int) int {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" {
		return fallback
	}
	if raw == "all" {
		return 0
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		return fallback
	}
	return days
}
