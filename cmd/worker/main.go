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

	"basegraph.app/mergebot/common/id"
	"basegraph.app/mergebot/common/logger"
	"basegraph.app/mergebot/common/otel"
	"basegraph.app/mergebot/common/retry"
	"basegraph.app/mergebot/core/config"
	"basegraph.app/mergebot/core/db"
	"basegraph.app/mergebot/internal/bot"
	"basegraph.app/mergebot/internal/queue"
	"basegraph.app/mergebot/internal/service"
	"basegraph.app/mergebot/internal/service/platform"
	"basegraph.app/mergebot/internal/store"
	"basegraph.app/mergebot/internal/worker"
)

const startupTimeout = 2 * time.Minute

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

	slog.InfoContext(ctx, "mergebot worker starting",
		"env", cfg.Env,
		"consumer_group", cfg.Pipeline.RedisGroup,
		"consumer_name", cfg.Pipeline.RedisConsumer)

	// Different node ID than the server
	if err := id.Init(2); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	if err := retry.UntilReady(ctx, "postgres", startupTimeout, database.Ping); err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "database connected")

	redisOpts, err := redis.ParseURL(cfg.Pipeline.RedisURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()
	if err := retry.UntilReady(ctx, "redis", startupTimeout, func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	}); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Pipeline.RedisStream)

	registry := service.NewRegistry(
		store.NewRepositoryStore(database.Conn()),
		platform.NewGitLabFactory(cfg.GitLab.BaseURL),
		service.RegistryConfig{ConfigPath: cfg.Repos.ConfigPath},
	)
	if err := registry.Reload(ctx); err != nil {
		// Repositories are also loaded lazily, so a failed warm-up is not fatal.
		slog.WarnContext(ctx, "initial repository load failed", "error", err)
	}

	dispatcher := bot.NewDispatcher(registry, bot.Config{
		BotUsername: cfg.GitLab.BotUsername,
		RegistryTTL: cfg.Worker.RegistryTTL,
	})

	consumer, err := queue.NewRedisConsumer(ctx, redisClient, queue.ConsumerConfig{
		Stream:       cfg.Pipeline.RedisStream,
		Group:        cfg.Pipeline.RedisGroup,
		Consumer:     cfg.Pipeline.RedisConsumer,
		DLQStream:    cfg.Pipeline.RedisDLQStream,
		BatchSize:    10,
		Block:        5 * time.Second,
		RequeueDelay: cfg.Worker.RequeueDelay,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create consumer", "error", err)
		os.Exit(1)
	}

	w := worker.New(consumer, dispatcher, worker.Config{
		MaxAttempts:     cfg.Worker.MaxAttempts,
		RefreshInterval: cfg.Worker.RefreshInterval,
		ReclaimInterval: cfg.Worker.ReclaimInterval,
		ReclaimMinIdle:  cfg.Worker.ReclaimMinIdle,
		NewID:           id.New,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- w.Run(ctx)
	}()

	slog.InfoContext(ctx, "worker initialized and running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()

	select {
	case <-shutdownCtx.Done():
		slog.WarnContext(ctx, "shutdown timeout exceeded")
	case <-stopped:
		if err := <-errCh; err != nil {
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
                                 _           _
 _ __ ___   ___ _ __ __ _  ___  | |__   ___ | |_
| '_ ` + "`" + ` _ \ / _ \ '__/ _` + "`" + ` |/ _ \ | '_ \ / _ \| __|
| | | | | |  __/ | | (_| |  __/ | |_) | (_) | |_
|_| |_| |_|\___|_|  \__, |\___| |_.__/ \___/ \__|  worker
                    |___/
`
