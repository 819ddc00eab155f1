package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/neexbeast/travel-vibes/internal/api"
	"github.com/neexbeast/travel-vibes/internal/auth"
	"github.com/neexbeast/travel-vibes/internal/cache"
	"github.com/neexbeast/travel-vibes/internal/config"
	"github.com/neexbeast/travel-vibes/internal/places"
	"github.com/neexbeast/travel-vibes/internal/storage"
)

const (
	geocodeCachePrefix = "places:geocode:"
	imageCachePrefix   = "places:image:"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "err", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: config.Level(cfg.LogLevel)}))
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx := context.Background()

	// Connect to PostgreSQL.
	pool, err := storage.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	if err := storage.Migrate(ctx, pool, log); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// Connect to Redis.
	redisClient, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() { _ = redisClient.Close() }()

	if cfg.GeocodeAPIKey == "" || cfg.ImageAccessKey == "" {
		log.Warn("provider keys not set, place search will fail upstream",
			"geocode_key_set", cfg.GeocodeAPIKey != "", "image_key_set", cfg.ImageAccessKey != "")
	}

	// Wire dependencies.
	repo := storage.NewRepository(pool)
	placesSvc := places.NewService(
		places.NewGeocodeClient(cfg.GeocodeBaseURL, cfg.GeocodeAPIKey),
		places.NewImageClient(cfg.ImageBaseURL, cfg.ImageAccessKey),
		cache.NewCache(redisClient, geocodeCachePrefix, cfg.CacheTTL),
		cache.NewCache(redisClient, imageCachePrefix, cfg.CacheTTL),
		log,
	)
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	handlers := api.NewHandlers(repo, repo, placesSvc, tokens, log)

	router := api.NewRouter(handlers, tokens, pool, &redisPingerAdapter{client: redisClient},
		api.RouterConfig{CORSOrigins: cfg.CORSOrigins, RateLimitPerMinute: cfg.RateLimitPerMinute}, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("server goroutine panicked", "recover", r)
				errCh <- fmt.Errorf("server panicked: %v", r)
			}
		}()
		log.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listening: %w", err)
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown signal received", "signal", sig)
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("server shut down cleanly")
	return nil
}

// redisPingerAdapter adapts redis.Client to the health check's pinger.
type redisPingerAdapter struct {
	client *redis.Client
}

func (r *redisPingerAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
