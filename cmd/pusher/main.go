package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amirstm/tsetmc-pusher/internal/broker"
	"github.com/amirstm/tsetmc-pusher/internal/config"
	"github.com/amirstm/tsetmc-pusher/internal/feed"
	"github.com/amirstm/tsetmc-pusher/internal/repository"
	"github.com/amirstm/tsetmc-pusher/internal/timing"
	"github.com/amirstm/tsetmc-pusher/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/pusher.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting pusher",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"feed_url", cfg.Feed.URL(),
		"instruments", len(cfg.Market.Instruments),
	)

	// Serving stops at the configured market end time.
	endOfDay, err := timing.ParseTimeOfDay(cfg.Market.EndTime)
	if err != nil {
		logger.Error("bad market end time", "error", err)
		os.Exit(1)
	}
	sessionEnd := timing.SessionEnd(time.Now(), endOfDay)

	ctx, cancel := context.WithDeadline(context.Background(), sessionEnd)
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Canonical market state: repository owns every instrument record.
	repo := repository.New(logger)

	// Downstream broker: hub receives repository change notifications.
	hub := broker.NewHub(repo, logger)
	repo.RegisterChangeSink(hub)

	server := broker.NewServer(broker.ServerConfig{Addr: cfg.Broker.Addr()}, hub, logger)
	if err := server.Start(ctx); err != nil {
		logger.Error("failed to start broker", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		server.Stop(shutdownCtx)
	}()

	// Health endpoint.
	healthServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Health.Port),
		Handler: createHealthHandler(repo, hub),
	}
	go func() {
		logger.Info("starting health server", "port", cfg.Health.Port)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	// Upstream ingestion with supervised reconnection.
	go superviseFeed(ctx, cfg, repo, logger)

	logger.Info("pusher running",
		"instance_id", cfg.Instance.ID,
		"broker_addr", cfg.Broker.Addr(),
		"session_end", sessionEnd,
	)

	// Wait for shutdown (signal or market end).
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	healthServer.Shutdown(shutdownCtx)

	logger.Info("pusher stopped")
}

// superviseFeed keeps one upstream connection alive until ctx ends,
// reconnecting with exponential backoff.
func superviseFeed(ctx context.Context, cfg *config.PusherConfig, repo *repository.Repository, logger *slog.Logger) {
	feedCfg := feed.Config{
		URL:              cfg.Feed.URL(),
		HandshakeTimeout: cfg.Feed.HandshakeTimeout,
		WriteTimeout:     cfg.Feed.WriteTimeout,
	}

	delay := cfg.Feed.ReconnectBaseDelay

	for ctx.Err() == nil {
		client := feed.NewClient(feedCfg, repo, cfg.Market.Instruments, logger)

		err := runFeed(ctx, client)
		if ctx.Err() != nil {
			return
		}

		logger.Warn("upstream feed disconnected", "error", err, "retry_in", delay)

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		delay *= 2
		if delay > cfg.Feed.ReconnectMaxDelay {
			delay = cfg.Feed.ReconnectMaxDelay
		}
	}
}

func runFeed(ctx context.Context, client *feed.Client) error {
	if err := client.Connect(ctx); err != nil {
		return err
	}
	defer client.Close()

	if err := client.Subscribe(); err != nil {
		return err
	}
	return client.Run(ctx)
}

// createHealthHandler creates the HTTP handler for health checks.
func createHealthHandler(repo *repository.Repository, hub *broker.Hub) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		stats := hub.Stats()

		health := struct {
			Status     string         `json:"status"`
			Components map[string]any `json:"components"`
		}{
			Status: "healthy",
			Components: map[string]any{
				"repository": map[string]any{"instruments": repo.Len()},
				"broker": map[string]any{
					"channels":      stats.Channels,
					"subscriptions": stats.Subscriptions,
				},
			},
		}

		if repo.Len() == 0 {
			health.Status = "degraded"
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(health)
	})

	return mux
}
