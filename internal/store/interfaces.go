package store

import (
	"context"
	"errors"
	"time"

	"vibez.app/engine/internal/model"
)

var ErrNotFound = errors.New("not found")

// MessageFilter narrows a message query. From/To form a half-open
// [From, To) interval; zero To means unbounded.
type MessageFilter struct {
	Room             *string
	MinRelevance     *int
	ContributionOnly bool
	From             time.Time
	To               time.Time

	// TextKeywords are OR-matched case-insensitively against body, sender
	// name and room name.
	TextKeywords []string

	// OrderByRelevance orders relevance DESC, timestamp DESC instead of
	// the default timestamp DESC, id ASC.
	OrderByRelevance bool
}

type MessageStore interface {
	List(ctx context.Context, filter MessageFilter, limit, offset int) ([]model.Message, error)
	Count(ctx context.Context, filter MessageFilter) (int, error)
	// DistinctSenders counts unique sender names within [from, to).
	DistinctSenders(ctx context.Context, from, to time.Time) (int, error)
}

type RoomStore interface {
	// List recomputes room aggregates from messages within [from, to).
	List(ctx context.Context, from, to time.Time) ([]model.Room, error)
}

type ReportStore interface {
	Latest(ctx context.Context) (*model.Report, error)
	// Before returns the most recent report dated strictly before date.
	Before(ctx context.Context, date string) (*model.Report, error)
	Get(ctx context.Context, date string) (*model.Report, error)
	Upsert(ctx context.Context, report *model.Report) error
}
