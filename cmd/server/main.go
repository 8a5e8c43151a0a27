package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"vibez.app/engine/common/id"
	"vibez.app/engine/common/llm"
	"vibez.app/engine/common/logger"
	"vibez.app/engine/common/otel"
	"vibez.app/engine/core/config"
	"vibez.app/engine/core/db"
	"vibez.app/engine/internal/engine"
	"vibez.app/engine/internal/http/middleware"
	httprouter "vibez.app/engine/internal/http/router"
	"vibez.app/engine/internal/queue"
	"vibez.app/engine/internal/search"
	"vibez.app/engine/internal/service"
	"vibez.app/engine/internal/store"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		// Can't use slog yet — OTel failed before logger setup
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "engine starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	if err := id.Init(1); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
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

	producer := queue.NewRedisProducer(redisClient, cfg.Events.RequestStream, nil)
	defer producer.Close()

	stores := store.NewStores(database.Pool())

	eng := engine.New(stores.Messages(), stores.Rooms(), stores.Reports(), cfg.Dashboards)
	if cfg.Typesense.Enabled() {
		eng.UseSearcher(search.New(cfg.Typesense.URL, cfg.Typesense.APIKey, cfg.Typesense.Collection))
		slog.InfoContext(ctx, "typesense search enabled", "url", cfg.Typesense.URL)
	} else {
		slog.InfoContext(ctx, "typesense not configured, using store-backed search")
	}

	var chatLLM llm.Client
	if cfg.ChatLLM.Enabled() {
		chatLLM, err = llm.New(llm.Config{
			Provider:  cfg.ChatLLM.Provider,
			APIKey:    cfg.ChatLLM.APIKey,
			BaseURL:   cfg.ChatLLM.BaseURL,
			Model:     cfg.ChatLLM.Model,
			MaxTokens: cfg.ChatLLM.MaxTokens,
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to create chat llm client", "error", err)
			os.Exit(1)
		}
		slog.InfoContext(ctx, "chat model ready", "model", chatLLM.Model())
	} else {
		slog.WarnContext(ctx, "chat llm not configured, /v1/chat will return errors")
	}

	services := service.NewServices(stores, eng, chatLLM, nil, queue.NewEvents(redisClient, cfg.Events.EventStream), cfg)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, eng, services, producer)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupRouter(cfg config.Config, eng *engine.Engine, services *service.Services, producer queue.Producer) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, eng, services, producer, httprouter.RouterConfig{
		Dashboards: cfg.Dashboards,
	})

	return router
}

const banner = `
██╗   ██╗██╗██████╗ ███████╗███████╗    ███████╗███╗   ██╗ ██████╗ ██╗███╗   ██╗███████╗
██║   ██║██║██╔══██╗██╔════╝╚══███╔╝    ██╔════╝████╗  ██║██╔════╝ ██║████╗  ██║██╔════╝
██║   ██║██║██████╔╝█████╗    ███╔╝     █████╗  ██╔██╗ ██║██║  ███╗██║██╔██╗ ██║█████╗
╚██╗ ██╔╝██║██╔══██╗██╔══╝   ███╔╝      ██╔══╝  ██║╚██╗██║██║   ██║██║██║╚██╗██║██╔══╝
 ╚████╔╝ ██║██████╔╝███████╗███████╗    ███████╗██║ ╚████║╚██████╔╝██║██║ ╚████║███████╗
  ╚═══╝  ╚═╝╚═════╝ ╚══════╝╚══════╝    ╚══════╝╚═╝  ╚═══╝ ╚═════╝ ╚═╝╚═╝  ╚═══╝╚══════╝
`
