package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"vibez.app/engine/common/logger"
)

type ConsumerConfig struct {
	Stream      string        // Redis stream name
	Group       string        // Redis consumer group name
	Consumer    string        // Redis consumer name
	BatchSize   int64         // Number of messages to read per batch
	Block       time.Duration // How long to block waiting for new messages
	MaxAttempts int           // Attempts before a request is dropped
}

// Message is one parsed synthesis request from the stream.
type Message struct {
	ID      string
	Date    string
	TraceID string
	Attempt int
	Raw     redis.XMessage
}

type RedisConsumer struct {
	client *redis.Client
	cfg    ConsumerConfig
}

func NewRedisConsumer(client *redis.Client, cfg ConsumerConfig) (*RedisConsumer, error) {
	consumer := &RedisConsumer{
		client: client,
		cfg:    cfg,
	}

	if err := consumer.ensureGroup(context.Background()); err != nil { //nolint:contextcheck
		return nil, err
	}

	return consumer, nil
}

func (c *RedisConsumer) ensureGroup(ctx context.Context) error {
	// Starting the group at "0" instead of "$" means requests enqueued
	// while the worker was down are still picked up after a restart.
	if err := c.client.XGroupCreateMkStream(ctx, c.cfg.Stream, c.cfg.Group, "0").Err(); err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		return fmt.Errorf("creating consumer group: %w", err)
	}
	return nil
}

func (c *RedisConsumer) Read(ctx context.Context) ([]Message, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "engine.queue.consumer",
	})

	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.cfg.Group,
		Consumer: c.cfg.Consumer,
		// > = new messages not yet delivered to any consumer in the group.
		Streams: []string{c.cfg.Stream, ">"},
		Count:   c.cfg.BatchSize,
		Block:   c.cfg.Block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []Message{}, nil
		}
		return nil, fmt.Errorf("reading from stream: %w", err)
	}

	var messages []Message
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			parsed, parseErr := ParseMessage(msg)
			if parseErr != nil {
				// A malformed request can never succeed; ack it out of
				// the pending list instead of redelivering forever.
				slog.ErrorContext(ctx, "failed to parse synthesis request",
					"error", parseErr,
					"raw_message_id", msg.ID,
					"stream", c.cfg.Stream)
				_ = c.Ack(ctx, Message{ID: msg.ID, Raw: msg})
				continue
			}
			messages = append(messages, parsed)
		}
	}

	if len(messages) > 0 {
		slog.DebugContext(ctx, "read synthesis requests",
			"count", len(messages),
			"stream", c.cfg.Stream,
			"consumer", c.cfg.Consumer)
	}

	return messages, nil
}

func (c *RedisConsumer) Ack(ctx context.Context, msg Message) error {
	if err := c.client.XAck(ctx, c.cfg.Stream, c.cfg.Group, msg.ID).Err(); err != nil {
		return fmt.Errorf("xack (stream=%s): %w", c.cfg.Stream, err)
	}

	slog.DebugContext(ctx, "synthesis request acknowledged", "stream", c.cfg.Stream)
	return nil
}

// Requeue acks the failed request and re-adds it with a bumped attempt
// counter. Requests past MaxAttempts are dropped with an error log.
func (c *RedisConsumer) Requeue(ctx context.Context, msg Message, errMsg string) error {
	if err := c.Ack(ctx, msg); err != nil {
		return fmt.Errorf("acking failed request for requeue: %w", err)
	}

	attempt := msg.Attempt + 1
	if c.cfg.MaxAttempts > 0 && attempt > c.cfg.MaxAttempts {
		slog.ErrorContext(ctx, "synthesis request dropped after max attempts",
			"report_date", msg.Date,
			"attempts", msg.Attempt,
			"last_error", errMsg)
		return nil
	}

	values := map[string]any{
		"report_date": msg.Date,
		"attempt":     attempt,
	}
	if msg.TraceID != "" {
		values["trace_id"] = msg.TraceID
	}
	if errMsg != "" {
		values["last_error"] = errMsg
	}

	if err := c.client.XAdd(ctx, &redis.XAddArgs{
		Stream: c.cfg.Stream,
		Values: values,
	}).Err(); err != nil {
		return fmt.Errorf("xadd requeue: %w", err)
	}

	slog.InfoContext(ctx, "synthesis request requeued",
		"report_date", msg.Date,
		"next_attempt", attempt,
		"reason", errMsg)
	return nil
}

func ParseMessage(msg redis.XMessage) (Message, error) {
	date, err := requireString(msg.Values, "report_date")
	if err != nil {
		return Message{}, err
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return Message{}, fmt.Errorf("invalid report_date %q: %w", date, err)
	}

	traceID, err := optionalString(msg.Values, "trace_id")
	if err != nil {
		return Message{}, err
	}
	attempt, err := optionalInt(msg.Values, "attempt")
	if err != nil {
		return Message{}, err
	}
	if attempt <= 0 {
		attempt = 1
	}

	return Message{
		ID:      msg.ID,
		Date:    date,
		TraceID: traceID,
		Attempt: attempt,
		Raw:     msg,
	}, nil
}

func requireString(values map[string]any, key string) (string, error) {
	s, err := optionalString(values, key)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", fmt.Errorf("missing field %q", key)
	}
	return s, nil
}

func optionalString(values map[string]any, key string) (string, error) {
	v, ok := values[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %q is not a string", key)
	}
	return s, nil
}

func optionalInt(values map[string]any, key string) (int, error) {
	s, err := optionalString(values, key)
	if err != nil || s == "" {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("field %q is not an integer: %w", key, err)
	}
	return n, nil
}
