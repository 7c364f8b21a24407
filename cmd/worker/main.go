package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/stackfinder/stackfinder/internal/config"
	"github.com/stackfinder/stackfinder/internal/logger"
	"github.com/stackfinder/stackfinder/internal/seo"
	"github.com/stackfinder/stackfinder/internal/server"
	"github.com/stackfinder/stackfinder/internal/tasks"
	"github.com/stackfinder/stackfinder/internal/textutil"
	"github.com/stackfinder/stackfinder/internal/workers"
)

var version = "dev" // Will be set during build with -ldflags

// defaultSitemapSchedule rebuilds the sitemap nightly.
const defaultSitemapSchedule = "0 3 * * *"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init("worker", cfg.Logging.Level, cfg.Logging.Format)
	log := logger.GetLogger()

	log.Info().Str("version", version).Msg("Starting StackFinder worker")

	// Initialize database (reuse server's database initialization)
	srv, err := server.New(cfg, log, version)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize server (needed for DB)")
	}
	db := srv.GetDB()

	// Asynq client for enqueueing scheduled tasks
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr: cfg.Redis.Address,
	})
	defer asynqClient.Close()

	sitemapCache := seo.NewCache(cfg.Redis.Address)
	defer sitemapCache.Close()

	imageHosts := textutil.DefaultImageHosts()

	asynqServer := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr: cfg.Redis.Address,
		},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			Logger: &asynqLogger{log: log},
		},
	)

	// Register task handlers
	mux := asynq.NewServeMux()

	mux.HandleFunc(tasks.TypeSitemapRebuild, func(ctx context.Context, t *asynq.Task) error {
		return workers.HandleSitemapRebuild(ctx, t, db, sitemapCache, cfg.Site.BaseURL, log)
	})
	mux.HandleFunc(tasks.TypeImageAudit, func(ctx context.Context, t *asynq.Task) error {
		return workers.HandleImageAudit(ctx, t, db, imageHosts, log)
	})

	// Nightly sitemap rebuild
	schedule := os.Getenv("SITEMAP_SCHEDULE")
	if schedule == "" {
		schedule = defaultSitemapSchedule
	}
	go workers.StartSitemapScheduler(asynqClient, schedule, log)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Msg("Starting Asynq worker server...")
		if err := asynqServer.Run(mux); err != nil {
			log.Fatal().Err(err).Msg("Asynq worker server failed")
		}
	}()

	<-sigChan
	log.Info().Msg("Received shutdown signal, shutting down gracefully...")

	asynqServer.Shutdown()

	log.Info().Msg("Worker shutdown complete")
}

// asynqLogger is a wrapper to make zerolog compatible with Asynq's logger interface
type asynqLogger struct {
	log zerolog.Logger
}

func (l *asynqLogger) Debug(args ...interface{}) {
	l.log.Debug().Msg(fmt.Sprint(args...))
}

func (l *asynqLogger) Info(args ...interface{}) {
	l.log.Info().Msg(fmt.Sprint(args...))
}

func (l *asynqLogger) Warn(args ...interface{}) {
	l.log.Warn().Msg(fmt.Sprint(args...))
}

func (l *asynqLogger) Error(args ...interface{}) {
	l.log.Error().Msg(fmt.Sprint(args...))
}

func (l *asynqLogger) Fatal(args ...interface{}) {
	l.log.Fatal().Msg(fmt.Sprint(args...))
}
