// Command vibes is a terminal client for the travel-vibes API. It keeps the
// session and the offline favorites list in Redis.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/neexbeast/travel-vibes/internal/cache"
	"github.com/neexbeast/travel-vibes/internal/config"
)

func main() {
	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintln(os.Stderr, "vibes:", err)
		os.Exit(1)
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: config.Level(cfg.LogLevel)}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Args[1:], log); err != nil {
		log.Debug("command failed", "err", err)
		fmt.Fprintln(os.Stderr, "vibes:", describe(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.ClientConfig, args []string, log *slog.Logger) error {
	rdb, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connecting to client storage: %w", err)
	}
	defer func() { _ = rdb.Close() }()

	a := newApp(cfg, cache.NewStorage(rdb, cfg.StoragePrefix), os.Stdout, log)
	return a.dispatch(ctx, args)
}
