// Package queue carries the redis streams between server and worker:
// on-demand synthesis requests flowing in, briefing-generated events
// flowing out.
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RequestMessage asks the worker to synthesize a report for a date.
type RequestMessage struct {
	Date    string // YYYY-MM-DD
	TraceID string
	Attempt int
}

type Producer interface {
	Enqueue(ctx context.Context, msg RequestMessage) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewRedisProducer(client *redis.Client, stream string, logger *slog.Logger) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisProducer{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (p *redisProducer) Enqueue(ctx context.Context, msg RequestMessage) error {
	attempt := msg.Attempt
	if attempt <= 0 {
		attempt = 1
	}

	fields := map[string]any{
		"report_date": msg.Date,
		"attempt":     attempt,
	}
	if msg.TraceID != "" {
		fields["trace_id"] = msg.TraceID
	}

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: fields,
	}).Err(); err != nil {
		return fmt.Errorf("enqueue synthesis request: %w", err)
	}

	p.logger.InfoContext(ctx, "enqueued synthesis request", "report_date", msg.Date, "attempt", attempt)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}

// Events publishes lifecycle notifications for downstream consumers
// (dashboard refreshers, notifiers). Fire-and-forget from the caller's
// point of view.
type Events struct {
	client *redis.Client
	stream string
}

func NewEvents(client *redis.Client, stream string) *Events {
	return &Events{client: client, stream: stream}
}

func (e *Events) BriefingGenerated(ctx context.Context, date string) error {
	if err := e.client.XAdd(ctx, &redis.XAddArgs{
		Stream: e.stream,
		Values: map[string]any{
			"event":       "vibez.briefing.generated",
			"key":         fmt.Sprintf("briefing-%s", date),
			"report_date": date,
			"emitted_at":  time.Now().UTC().Format(time.RFC3339),
		},
	}).Err(); err != nil {
		return fmt.Errorf("publish briefing event: %w", err)
	}
	return nil
}
