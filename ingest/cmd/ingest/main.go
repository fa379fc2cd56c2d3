package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/venuepulse/venuepulse/common/logging"
	"github.com/venuepulse/venuepulse/common/stream"
	"github.com/venuepulse/venuepulse/ingest/internal/config"
	"github.com/venuepulse/venuepulse/ingest/internal/handlers"
	"github.com/venuepulse/venuepulse/ingest/internal/ratelimit"
	"github.com/venuepulse/venuepulse/ingest/internal/repository"
	"github.com/venuepulse/venuepulse/ingest/internal/server"
)

type redisPinger struct{ rdb *redis.Client }

func (p redisPinger) Ping(ctx context.Context) error { return p.rdb.Ping(ctx).Err() }

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
	).With(logging.Service("ingest"))
	logging.SetDefault(logger)

	slog.Info("Starting ingestion gateway",
		slog.Int("port", cfg.Server.Port),
		slog.String("stream", cfg.Stream.Key),
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

	// The gateway only appends; the worker owns the consumer group.
	store := stream.New(rdb, cfg.Stream.Key, "")

	// Initialize rate limiter
	var limiter ratelimit.RateLimiter
	if cfg.Ingestion.RateLimitEnabled {
		limiter = ratelimit.NewRedisRateLimiter(rdb, cfg.Ingestion.RateLimitRequests, cfg.Ingestion.RateLimitWindow)
		log.Printf("Rate limiting enabled: %d requests per %s per venue", cfg.Ingestion.RateLimitRequests, cfg.Ingestion.RateLimitWindow)
	} else {
		limiter = &ratelimit.NoOpRateLimiter{}
		log.Println("Rate limiting disabled in configuration")
	}

	// Initialize HTTP handlers
	handler := handlers.NewIngestHandler(repo, store, limiter, cfg.Ingestion.MaxBodySize, logger)
	ready := handlers.NewReadyHandler(map[string]handlers.Pinger{
		"database": repo,
		"redis":    redisPinger{rdb: rdb},
	})
	router := server.NewRouter(handler, ready)

	// Create server with config values
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Ingestion gateway listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
