// Command dashwatch follows the admin dashboard from the outside: it keeps
// the live stream open, treats every event as a hint, and reconciles the
// counts, recent notifications and today's holidays by full re-fetch.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/cmlabs-hris/schedule-core/internal/pkg/dashclient"
)

type options struct {
	baseURL     string
	token       string
	interval    time.Duration
	recentLimit int
}

func loadOptions() (options, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return options{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	opts := options{
		baseURL: getEnv("DASHWATCH_BASE_URL", "http://localhost:8080"),
		token:   os.Getenv("DASHWATCH_TOKEN"),
	}
	if opts.token == "" {
		return options{}, fmt.Errorf("DASHWATCH_TOKEN is required")
	}

	interval, err := time.ParseDuration(getEnv("DASHWATCH_RECONCILE_INTERVAL", "1m"))
	if err != nil || interval <= 0 {
		return options{}, fmt.Errorf("invalid DASHWATCH_RECONCILE_INTERVAL: %v", err)
	}
	opts.interval = interval

	limit, err := strconv.Atoi(getEnv("DASHWATCH_RECENT_LIMIT", "20"))
	if err != nil {
		return options{}, fmt.Errorf("invalid DASHWATCH_RECENT_LIMIT: %w", err)
	}
	opts.recentLimit = limit
	return opts, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(slog.String("app", "dashwatch"))
	slog.SetDefault(logger)

	opts, err := loadOptions()
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, logger); err != nil {
		logger.Error("dashwatch stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, logger *slog.Logger) error {
	client := dashclient.NewClient(opts.baseURL, opts.token)
	client.Logger = logger
	board := dashclient.NewBoard()

	// Coalesces hints; one pending reconcile is enough.
	refresh := make(chan struct{}, 1)
	requestRefresh := func() {
		select {
		case refresh <- struct{}{}:
		default:
		}
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return client.Watch(gCtx, func(h dashclient.Hint) {
			if n, ok := dashclient.NotificationOf(h); ok && board.ApplyNotification(n) {
				logger.Info("live notification",
					slog.String("event", h.Event),
					slog.String("id", n.ID),
					slog.String("category", string(n.Category)),
					slog.String("title", n.Title))
			}
			requestRefresh()
		})
	})

	g.Go(func() error {
		ticker := time.NewTicker(opts.interval)
		defer ticker.Stop()

		requestRefresh()
		for {
			select {
			case <-gCtx.Done():
				return nil
			case <-ticker.C:
			case <-refresh:
			}

			snap, err := client.Reconcile(gCtx, opts.recentLimit)
			if err != nil {
				if gCtx.Err() != nil {
					return nil
				}
				// Keep the last good board; the next tick or hint retries.
				logger.Warn("reconcile failed", slog.String("error", err.Error()))
				continue
			}
			board.ApplySnapshot(snap)

			counts := board.Counts()
			logger.Info("dashboard reconciled",
				slog.Int("leave", counts.Leave),
				slog.Int("schedule", counts.Schedule),
				slog.Int("makeup", counts.Makeup),
				slog.Int("holiday", counts.Holiday),
				slog.Int("total", counts.Total),
				slog.Int("recent", len(board.Recent())),
				slog.Int("holidays_today", len(board.Holidays().Holidays)))
		}
	})

	return g.Wait()
}
