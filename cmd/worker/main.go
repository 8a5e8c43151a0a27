package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"vibez.app/engine/common/id"
	"vibez.app/engine/common/llm"
	"vibez.app/engine/common/logger"
	"vibez.app/engine/common/otel"
	"vibez.app/engine/core/config"
	"vibez.app/engine/core/db"
	"vibez.app/engine/internal/engine"
	"vibez.app/engine/internal/queue"
	"vibez.app/engine/internal/search"
	"vibez.app/engine/internal/service"
	"vibez.app/engine/internal/store"
	"vibez.app/engine/internal/worker"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeWorker)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	fmt.Printf("%s\n", banner)
	logger.Setup(cfg)

	slog.InfoContext(ctx, "engine worker starting",
		"env", cfg.Env,
		"consumer_group", cfg.Events.RequestGroup,
		"consumer_name", cfg.Events.RequestConsumer)

	// Different node ID than the server so snowflake IDs never collide.
	if err := id.Init(2); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	redisOpts, err := redis.ParseURL(cfg.Events.RedisURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Events.RequestStream)

	consumer, err := queue.NewRedisConsumer(redisClient, queue.ConsumerConfig{
		Stream:      cfg.Events.RequestStream,
		Group:       cfg.Events.RequestGroup,
		Consumer:    cfg.Events.RequestConsumer,
		BatchSize:   1, // one synthesis run at a time
		Block:       5 * time.Second,
		MaxAttempts: 3,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create consumer", "error", err)
		os.Exit(1)
	}

	if !cfg.SynthesisLLM.Enabled() {
		slog.ErrorContext(ctx, "synthesis llm not configured, set SYNTHESIS_LLM_API_KEY")
		os.Exit(1)
	}
	synLLM, err := llm.New(llm.Config{
		Provider:  cfg.SynthesisLLM.Provider,
		APIKey:    cfg.SynthesisLLM.APIKey,
		BaseURL:   cfg.SynthesisLLM.BaseURL,
		Model:     cfg.SynthesisLLM.Model,
		MaxTokens: cfg.SynthesisLLM.MaxTokens,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create synthesis llm client", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "synthesis model ready", "model", synLLM.Model())

	stores := store.NewStores(database.Pool())
	eng := engine.New(stores.Messages(), stores.Rooms(), stores.Reports(), cfg.Dashboards)
	events := queue.NewEvents(redisClient, cfg.Events.EventStream)
	services := service.NewServices(stores, eng, nil, synLLM, events, cfg)

	var indexer worker.Indexer
	if cfg.Typesense.Enabled() {
		indexer = search.New(cfg.Typesense.URL, cfg.Typesense.APIKey, cfg.Typesense.Collection)
		slog.InfoContext(ctx, "typesense indexing enabled", "url", cfg.Typesense.URL)
	}

	w := worker.New(consumer, services.Synthesis(), stores.Messages(), indexer, worker.Config{
		SynthesisHour: cfg.Synthesis.Hour,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- w.Run(ctx)
	}()

	slog.InfoContext(ctx, "worker initialized and running", "synthesis_hour", cfg.Synthesis.Hour)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	w.Stop()

	select {
	case <-shutdownCtx.Done():
		slog.WarnContext(ctx, "shutdown timeout exceeded")
	case err := <-errCh:
		if err != nil {
			slog.ErrorContext(ctx, "worker error during shutdown", "error", err)
		}
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(ctx, "worker shutdown complete")
}

const banner = `
██╗   ██╗██╗██████╗ ███████╗███████╗    ██╗    ██╗ ██████╗ ██████╗ ██╗  ██╗███████╗██████╗
██║   ██║██║██╔══██╗██╔════╝╚══███╔╝    ██║    ██║██╔═══██╗██╔══██╗██║ ██╔╝██╔════╝██╔══██╗
██║   ██║██║██████╔╝█████╗    ███╔╝     ██║ █╗ ██║██║   ██║██████╔╝█████╔╝ █████╗  ██████╔╝
╚██╗ ██╔╝██║██╔══██╗██╔══╝   ███╔╝      ██║███╗██║██║   ██║██╔══██╗██╔═██╗ ██╔══╝  ██╔══██╗
 ╚████╔╝ ██║██████╔╝███████╗███████╗    ╚███╔███╔╝╚██████╔╝██║  ██║██║  ██╗███████╗██║  ██║
  ╚═══╝  ╚═╝╚═════╝ ╚══════╝╚══════╝     ╚══╝╚══╝  ╚═════╝ ╚═╝  ╚═╝╚═╝  ╚═╝╚══════╝╚═╝  ╚═╝
`
