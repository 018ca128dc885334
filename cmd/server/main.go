package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"github.com/lysyi3m/podcast-digest/app/api"
	"github.com/lysyi3m/podcast-digest/app/cfg"
	"github.com/lysyi3m/podcast-digest/app/database"
	"github.com/lysyi3m/podcast-digest/app/feed"
	"github.com/lysyi3m/podcast-digest/app/gemini"
	"github.com/lysyi3m/podcast-digest/app/library"
	"github.com/lysyi3m/podcast-digest/app/media"
	"github.com/lysyi3m/podcast-digest/app/summary"
	"github.com/lysyi3m/podcast-digest/app/tasks"
)

// Ephemeral copies older than this are leftovers from a crashed run.
const staleCacheAge = 24 * time.Hour

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	setupLogger(appCfg.Debug)

	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

func run() error {
	appCfg := cfg.Get()
	slog.Info("Starting Podcast Digest", "version", appCfg.Version)

	dataDir := filepath.Dir(appCfg.DBPath)
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	lock := flock.New(filepath.Join(dataDir, "podcast-digest.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire instance lock: %w", err)
	}
	if !locked {
		return errors.New("another podcast-digest instance is using this data directory")
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			slog.Warn("Failed to release instance lock", "error", err)
		}
	}()

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	slog.Info("Database ready", "path", appCfg.DBPath)

	if err := os.MkdirAll(appCfg.MediaDir, 0o755); err != nil {
		return fmt.Errorf("failed to create media directory: %w", err)
	}

	cache, err := media.NewCache(appCfg.CacheDir)
	if err != nil {
		return err
	}
	if removed, err := cache.CleanStale(staleCacheAge); err != nil {
		slog.Warn("Failed to clean audio cache", "dir", cache.Dir(), "error", err)
	} else if removed > 0 {
		slog.Info("Removed stale cache files", "count", removed)
	}

	configCache := feed.NewConfigCache(appCfg.FeedsDir)
	if err := configCache.Run(); err != nil {
		return fmt.Errorf("failed to load feed configurations: %w", err)
	}
	slog.Info("Feed configurations loaded", "count", configCache.GetConfigCount(), "dir", appCfg.FeedsDir)

	fetchPool := tasks.NewPool("fetch", appCfg.WorkerCount, 100)
	fetchPool.Start()
	defer fetchPool.Stop()

	fetcher := tasks.NewFeedFetcher(
		fetchPool,
		feed.NewClient(appCfg.FeedTimeoutDuration(), appCfg.UserAgent),
		feed.NewParser(),
		appCfg.FeedHardTimeoutDuration(),
	)
	lib := library.New(db, fetcher)

	provisioner := media.NewProvisioner(
		database.NewEpisodeRepository(db),
		media.NewDownloader(appCfg.UserAgent, appCfg.DownloadIdleTimeoutDuration()),
		cache,
		appCfg.MediaDir,
	)

	aiClient := gemini.NewClient(gemini.Config{
		APIKey:  appCfg.GeminiAPIKey,
		BaseURL: appCfg.GeminiBaseURL,
		Model:   appCfg.GeminiModel,
	})
	if !aiClient.Configured() {
		slog.Warn("Summary generation disabled (GEMINI_API_KEY not set)")
	}
	orchestrator := summary.NewOrchestrator(db, provisioner, aiClient, summary.Options{})

	scheduler := tasks.NewScheduler(configCache, lib, appCfg.SchedulerIntervalDuration(), appCfg.WorkerCount)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(lib, provisioner, orchestrator, configCache, appCfg.Version)
	server := api.NewServer(handler, api.ServerOptions{
		APIAccessKey: appCfg.APIAccessKey,
		RateLimit:    appCfg.RateLimit,
		RateBurst:    appCfg.RateBurst,
	})

	// Summaries upload and wait on remote processing, so writes get a long budget.
	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case runErr = <-serverErrChan:
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	return runErr
}
