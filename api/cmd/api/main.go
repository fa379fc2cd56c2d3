package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/redis/go-redis/v9"

	"github.com/venuepulse/venuepulse/api/internal/config"
	"github.com/venuepulse/venuepulse/api/internal/handlers"
	apimw "github.com/venuepulse/venuepulse/api/internal/middleware"
	"github.com/venuepulse/venuepulse/api/internal/relay"
	"github.com/venuepulse/venuepulse/api/internal/repository"
	"github.com/venuepulse/venuepulse/api/internal/server"
	"github.com/venuepulse/venuepulse/api/internal/service"
	"github.com/venuepulse/venuepulse/api/pkg/tokens"
	"github.com/venuepulse/venuepulse/common/logging"
	"github.com/venuepulse/venuepulse/common/middleware"
	"github.com/venuepulse/venuepulse/common/scores"
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
	).With(logging.Service("api"))
	logging.SetDefault(logger)

	slog.Info("Starting API service",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Logging.Level),
		slog.String("log_format", cfg.Logging.Format),
	)
	if *configPath != "" {
		slog.Info("Loaded configuration", slog.String("config_path", *configPath))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect PostgreSQL
	repo, err := repository.NewPostgresRepository(ctx, cfg.Database.URL)
	if err != nil {
		slog.Error("Failed to connect to PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("Connected to PostgreSQL")

	// Run database migrations
	if cfg.Migrations.Enabled {
		slog.Info("Running database migrations", slog.String("path", cfg.Migrations.Path))
		m, err := migrate.New(
			"file://"+cfg.Migrations.Path,
			cfg.Database.URL,
		)
		if err != nil {
			slog.Error("Failed to initialize migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}

		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			slog.Error("Failed to run migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}

		version, dirty, err := m.Version()
		if err != nil {
			slog.Warn("Could not get migration version", slog.String("error", err.Error()))
		} else {
			slog.Info("Database migration complete",
				slog.Uint64("version", uint64(version)),
				slog.Bool("dirty", dirty),
			)
		}
	}

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

	// Initialize service layer
	tokenGen := tokens.NewTokenGenerator(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authService := service.NewAuthService(repo, tokenGen)
	authMW := apimw.NewAuthMiddleware(authService)

	// Broadcast relay
	hub := relay.NewHub(rdb, scores.DefaultChannel, logger)
	go func() {
		if err := hub.Run(ctx); err != nil {
			slog.Error("Relay exited", slog.String("error", err.Error()))
		}
	}()

	// Initialize HTTP handlers
	authHandler := handlers.NewAuthHandler(authService, logger)
	venueHandler := handlers.NewVenueHandler(repo, rdb, cfg.Analytics.CacheTTL, logger)
	eventsHandler := handlers.NewEventsHandler(hub, logger)
	healthHandler := handlers.NewHealthHandler(map[string]handlers.Pinger{
		"database": repo,
		"redis":    redisPinger{rdb: rdb},
	})

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.CORS.AllowedOrigins) > 0 {
		corsConfig.AllowedOrigins = cfg.CORS.AllowedOrigins
	}

	router := server.NewRouter(authHandler, venueHandler, eventsHandler, healthHandler, authMW, corsConfig)

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
		slog.Info("API service listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	slog.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("Server stopped gracefully")
}
