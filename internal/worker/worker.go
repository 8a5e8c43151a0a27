// Package worker runs the background side of the engine: the daily
// synthesis schedule, on-demand synthesis requests from the stream, and
// the search index refresh.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"vibez.app/engine/common/logger"
	"vibez.app/engine/internal/model"
	"vibez.app/engine/internal/queue"
	"vibez.app/engine/internal/store"
)

// Synthesizer runs one daily synthesis as of the given instant.
type Synthesizer interface {
	Run(ctx context.Context, now time.Time) (*model.Report, error)
}

// Indexer keeps the search collection in step with the message store.
type Indexer interface {
	EnsureCollection(ctx context.Context) error
	Index(ctx context.Context, messages []model.Message) error
}

type Config struct {
	SynthesisHour int           // UTC hour of the scheduled daily run
	IndexInterval time.Duration // how often to refresh the search index
	IndexLookback time.Duration // how far back each refresh reaches
	IndexBatch    int
}

type Worker struct {
	consumer    *queue.RedisConsumer
	synthesizer Synthesizer
	messages    store.MessageStore
	indexer     Indexer // nil when search indexing is disabled
	cfg         Config

	nextRun   time.Time
	nextIndex time.Time

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(consumer *queue.RedisConsumer, synthesizer Synthesizer, messages store.MessageStore, indexer Indexer, cfg Config) *Worker {
	if cfg.IndexInterval <= 0 {
		cfg.IndexInterval = 5 * time.Minute
	}
	if cfg.IndexLookback <= 0 {
		cfg.IndexLookback = 2 * cfg.IndexInterval
	}
	if cfg.IndexBatch <= 0 {
		cfg.IndexBatch = 1000
	}
	return &Worker{
		consumer:    consumer,
		synthesizer: synthesizer,
		messages:    messages,
		indexer:     indexer,
		cfg:         cfg,
		stopCh:      make(chan struct{}),
		stoppedCh:   make(chan struct{}),
	}
}

func (w *Worker) Run(ctx context.Context) error {
	defer close(w.stoppedCh)

	slog.InfoContext(ctx, "worker started", "synthesis_hour", w.cfg.SynthesisHour)

	if w.indexer != nil {
		if err := w.indexer.EnsureCollection(ctx); err != nil {
			return fmt.Errorf("preparing search collection: %w", err)
		}
	}
	w.nextRun = nextDailyRun(time.Now().UTC(), w.cfg.SynthesisHour)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			slog.InfoContext(ctx, "worker stopping")
			return nil
		default:
		}

		now := time.Now().UTC()
		if now.After(w.nextRun) {
			w.runScheduled(ctx, now)
			w.nextRun = nextDailyRun(now, w.cfg.SynthesisHour)
		}
		if w.indexer != nil && now.After(w.nextIndex) {
			w.indexRecent(ctx, now)
			w.nextIndex = now.Add(w.cfg.IndexInterval)
		}

		// Read blocks up to the configured duration, so this loop idles
		// on redis rather than spinning.
		if err := w.processOneBatch(ctx); err != nil {
			slog.ErrorContext(ctx, "batch processing error", "error", err)
			time.Sleep(time.Second)
		}
	}
}

func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.stoppedCh
}

func (w *Worker) runScheduled(ctx context.Context, now time.Time) {
	slog.InfoContext(ctx, "running scheduled synthesis", "report_date", now.Format("2006-01-02"))
	if _, err := w.synthesizer.Run(ctx, now); err != nil {
		slog.ErrorContext(ctx, "scheduled synthesis failed", "error", err)
	}
}

func (w *Worker) processOneBatch(ctx context.Context) error {
	messages, err := w.consumer.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading from stream: %w", err)
	}

	for _, msg := range messages {
		if err := w.processMessageSafe(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "synthesis request failed",
				"error", err,
				"message_id", msg.ID,
				"report_date", msg.Date)
			if requeueErr := w.consumer.Requeue(ctx, msg, err.Error()); requeueErr != nil {
				slog.ErrorContext(ctx, "failed to requeue request", "error", requeueErr)
			}
		}
	}

	return nil
}

func (w *Worker) processMessageSafe(ctx context.Context, msg queue.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in synthesis request",
				"panic", r,
				"message_id", msg.ID)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.ProcessMessage(ctx, msg)
}

// ProcessMessage runs one on-demand synthesis request. Requests for past
// dates synthesize as of the end of that date.
func (w *Worker) ProcessMessage(ctx context.Context, msg queue.Message) error {
	sc := logger.StartSpanFromTraceID(ctx, msg.TraceID, "worker.synthesis_request",
		trace.WithSpanKind(trace.SpanKindConsumer))
	defer sc.End()
	ctx = sc.Context()

	slog.InfoContext(ctx, "processing synthesis request",
		"message_id", msg.ID,
		"report_date", msg.Date,
		"attempt", msg.Attempt)

	runAt := time.Now().UTC()
	if msg.Date != runAt.Format("2006-01-02") {
		day, err := time.Parse("2006-01-02", msg.Date)
		if err != nil {
			// Parse already validated the date; treat this as malformed
			// and drop it rather than retry.
			if ackErr := w.consumer.Ack(ctx, msg); ackErr != nil {
				slog.WarnContext(ctx, "failed to ack malformed request", "error", ackErr)
			}
			return nil
		}
		runAt = day.Add(24*time.Hour - time.Second)
	}

	if _, err := w.synthesizer.Run(ctx, runAt); err != nil {
		err = fmt.Errorf("synthesizing %s: %w", msg.Date, err)
		sc.RecordError(err)
		return err
	}

	if err := w.consumer.Ack(ctx, msg); err != nil {
		// Redelivery after a successful run is safe: Upsert makes the
		// report write idempotent per date.
		slog.WarnContext(ctx, "failed to ack request", "error", err, "message_id", msg.ID)
	}
	return nil
}

func (w *Worker) indexRecent(ctx context.Context, now time.Time) {
	recent, err := w.messages.List(ctx, store.MessageFilter{
		From: now.Add(-w.cfg.IndexLookback),
		To:   now,
	}, w.cfg.IndexBatch, 0)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load messages for indexing", "error", err)
		return
	}
	if err := w.indexer.Index(ctx, recent); err != nil {
		slog.ErrorContext(ctx, "failed to index messages", "error", err)
	}
}

// nextDailyRun returns the next instant at hour o'clock UTC strictly
// after now.
func nextDailyRun(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}
