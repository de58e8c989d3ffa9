package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/smolin/newswatch/app/alert"
	"github.com/smolin/newswatch/app/announce"
	"github.com/smolin/newswatch/app/api"
	"github.com/smolin/newswatch/app/cfg"
	"github.com/smolin/newswatch/app/database"
	"github.com/smolin/newswatch/app/feed"
	"github.com/smolin/newswatch/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	setupLogger(appCfg.Debug)

	slog.Info("Starting newswatch", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", version, "dirty", dirty)

	settings := alert.NewSettingsStore(appCfg.SettingsFile)
	if err := settings.Load(); err != nil {
		slog.Error("Failed to load alert settings", "file", appCfg.SettingsFile, "error", err)
		os.Exit(1)
	}
	currentSettings := settings.Get()
	slog.Info("Alert settings loaded", "file", appCfg.SettingsFile,
		"keywords", len(currentSettings.Keywords), "focus_tag", currentSettings.FocusTag)

	sourceCache := feed.NewSourceCache(appCfg.SourcesDir)
	if err := sourceCache.Run(); err != nil {
		slog.Error("Failed to load source configurations", "dir", appCfg.SourcesDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Source configurations loaded", "count", sourceCache.GetConfigCount())

	itemRepo := database.NewItemRepository(db)
	alertRepo := database.NewAlertRepository(db)

	httpClient := &http.Client{Timeout: 30 * time.Second}

	client := feed.NewClient(httpClient, appCfg.TelegraphURL, appCfg.TelegraphChannel, appCfg.UserAgent)
	normalizer := feed.NewNormalizer(currentSettings.FocusTag)
	parser := feed.NewParser(currentSettings.FocusTag)
	extractor := feed.NewContentExtractor()

	engine := alert.NewEngine()

	notifiers := []announce.Notifier{announce.NewLogNotifier()}
	if appCfg.TelegramToken != "" && appCfg.TelegramChatID != "" {
		notifiers = append(notifiers, announce.NewTelegramNotifier(appCfg.TelegramToken, appCfg.TelegramChatID))
		slog.Info("Telegram notifications enabled", "chat_id", appCfg.TelegramChatID)
	}

	dispatcher := announce.NewDispatcher(
		announce.NewExecSoundPlayer(appCfg.PlayerCommand, appCfg.SoundsDir),
		announce.NewExecSpeaker(appCfg.SpeechCommand),
		notifiers,
	)
	defer dispatcher.Stop()

	pipeline := tasks.NewPipeline()

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount, "poll_interval", appCfg.PollInterval)
	scheduler := tasks.NewScheduler(pipeline, client, normalizer, parser, extractor,
		engine, settings, dispatcher, itemRepo, alertRepo, sourceCache, httpClient)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(engine, settings, itemRepo, alertRepo, sourceCache,
		feed.NewGenerator(), scheduler, pipeline)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	slog.Info("newswatch started")

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	// Scheduler and dispatcher are stopped via defer
	slog.Info("Shutdown complete")
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}
