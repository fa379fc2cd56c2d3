package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/venuepulse/venuepulse/common/logging"
	"github.com/venuepulse/venuepulse/common/scores"
	"github.com/venuepulse/venuepulse/common/stream"
	"github.com/venuepulse/venuepulse/worker/internal/config"
	"github.com/venuepulse/venuepulse/worker/internal/pipeline"
	"github.com/venuepulse/venuepulse/worker/internal/quarantine"
	"github.com/venuepulse/venuepulse/worker/internal/reclaim"
	"github.com/venuepulse/venuepulse/worker/internal/repository"
	"github.com/venuepulse/venuepulse/worker/internal/retry"
	"github.com/venuepulse/venuepulse/worker/internal/score"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize structured logging
	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("worker"))
	logging.SetDefault(logger)

	slog.Info("Starting worker service",
		slog.String("stream", cfg.Stream.Key),
		slog.String("group", cfg.Stream.Group),
		slog.Int64("max_retries", cfg.Pipeline.MaxRetries),
		slog.String("log_level", cfg.Logging.Level),
	)
	if *configPath != "" {
		slog.Info("Loaded configuration", slog.String("config_path", *configPath))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Redis
	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		log.Fatalf("Invalid Redis URL: %v", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	// Connect Postgres
	repo, err := repository.NewPostgres(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	// Stream store and consumer group
	store := stream.New(rdb, cfg.Stream.Key, cfg.Stream.Group)
	if err := store.EnsureGroup(ctx); err != nil {
		log.Fatalf("Failed to create consumer group: %v", err)
	}

	consumer := cfg.Stream.Consumer
	if consumer == "" {
		hostname, _ := os.Hostname()
		consumer = fmt.Sprintf("%s-%d", hostname, os.Getpid())
	}
	slog.Info("Consumer identity", slog.String("consumer", consumer))

	// Quarantine backend
	var quarantineWriter quarantine.Writer
	switch cfg.Quarantine.Backend {
	case "redis-list", "":
		quarantineWriter = quarantine.NewListQueue(rdb, cfg.Quarantine.ListKey)
		log.Printf("Quarantine enabled (backend: redis-list, key: %s)", cfg.Quarantine.ListKey)
	case "jetstream":
		jsQueue, err := quarantine.NewJetStreamQueue(ctx, cfg.Quarantine.NATSURL)
		if err != nil {
			log.Fatalf("Failed to initialize JetStream quarantine: %v", err)
		}
		defer jsQueue.Close()
		quarantineWriter = jsQueue
		log.Printf("Quarantine enabled (backend: jetstream, nats: %s)", cfg.Quarantine.NATSURL)
	default:
		log.Fatalf("Unknown quarantine backend: %s (supported: redis-list, jetstream)", cfg.Quarantine.Backend)
	}

	// Score pipeline
	calculator := score.NewCalculator(repo, score.Config{
		Window:        cfg.Score.Window,
		ScalingFactor: cfg.Score.ScalingFactor,
		VirtualTime:   cfg.Score.VirtualTime,
	})
	publisher := scores.NewPublisher(rdb, "")
	processor := pipeline.NewProcessor(repo, calculator, publisher, logger)

	worker := pipeline.New(store, retry.NewCounter(rdb), quarantineWriter, processor, pipeline.Config{
		Consumer:   consumer,
		MaxRetries: cfg.Pipeline.MaxRetries,
		Block:      cfg.Pipeline.Block,
		Backoff:    cfg.Pipeline.Backoff,
	}, logger)

	sweeper := reclaim.New(store, worker.HandleEntry, reclaim.Config{
		Consumer: consumer,
		Interval: cfg.Reclaim.Interval,
		MinIdle:  cfg.Reclaim.MinIdle,
		Batch:    cfg.Reclaim.Batch,
	}, logger)

	// Metrics and health endpoints
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := repo.Ping(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		if err := rdb.Ping(r.Context()).Err(); err != nil {
			http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler: mux,
	}
	go func() {
		log.Printf("Metrics listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Metrics server error: %v", err)
		}
	}()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := worker.Run(ctx); err != nil {
			slog.Error("Worker loop exited", slog.String("error", err.Error()))
		}
	}()
	go func() {
		defer wg.Done()
		if err := sweeper.Run(ctx); err != nil {
			slog.Error("Reclaim sweep exited", slog.String("error", err.Error()))
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down worker...")
	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Metrics server forced to shutdown: %v", err)
	}

	log.Println("Worker stopped")
}
