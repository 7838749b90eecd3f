package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gearitforward/gearscout-sync/internal/config"
	"github.com/gearitforward/gearscout-sync/internal/database"
	"github.com/gearitforward/gearscout-sync/internal/gearscout"
	server "github.com/gearitforward/gearscout-sync/internal/http"
	"github.com/gearitforward/gearscout-sync/internal/metrics"
	"github.com/gearitforward/gearscout-sync/internal/notifier"
	"github.com/gearitforward/gearscout-sync/internal/notifier/slack"
	"github.com/gearitforward/gearscout-sync/internal/queue"
	"github.com/gearitforward/gearscout-sync/internal/schedule"
	"github.com/gearitforward/gearscout-sync/internal/shellcache"
	"github.com/gearitforward/gearscout-sync/internal/storage"
	"github.com/gearitforward/gearscout-sync/internal/submission"
)

func main() {
	// Start profiling timer
	startTime := time.Now()
	cfg := config.Load()
	if logFile := setupLogging(cfg.Log); logFile != nil {
		defer logFile.Close()
	}

	db, dbTeardown, err := database.InitDB(cfg.DBName, cfg.Turso.PrimaryURL, cfg.Turso.AuthToken)
	dbInitDuration := time.Since(startTime)
	log.Info("Database initialization time recorded", "duration_ms", dbInitDuration.Milliseconds())
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer func() {
		log.Info("Closing database connection")
		dbTeardown()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsSvc := metrics.NewService()
	metricsHandler := metrics.NewMetricsHandler()
	counters := metrics.New(db)

	durable := storage.NewDurable(db, cfg.StorageQuotaBytes)
	session := storage.NewSession()
	matchQueue := queue.New(durable)
	apiClient := gearscout.NewClient(cfg.API.BaseURL, cfg.API.Timeout)

	feed := notifier.NewFeed(notifier.DefaultFeedSize)
	notifiers := notifier.Multi{feed}
	switch {
	case cfg.Slack.BotToken != "" && cfg.Slack.ChannelID != "":
		notifiers = append(notifiers, slack.NewNotifier(cfg.Slack.BotToken, cfg.Slack.ChannelID, metricsSvc))
	case cfg.Slack.WebhookURL != "":
		notifiers = append(notifiers, slack.NewWebhookNotifier(cfg.Slack.WebhookURL, metricsSvc))
	}

	pipeline := submission.New(matchQueue, apiClient, notifiers, metricsSvc, counters, submission.Options{
		GameYear:          cfg.API.GameYear,
		AuthRedirectDelay: cfg.Queue.AuthRedirectDelay,
		MaxRejections:     cfg.Queue.MaxRejections,
	})
	scheduleCache := schedule.New(apiClient, session, notifiers, metricsSvc, schedule.Options{
		Debounce: cfg.Schedule.Debounce,
		GameYear: cfg.API.GameYear,
		Timeout:  cfg.API.Timeout,
	})

	appShell := http.FileServer(http.Dir(cfg.Shell.Dir))
	hub := shellcache.NewHub()
	container := shellcache.NewContainer(shellcache.NewStorage(db), shellcache.HandlerFetcher{Handler: appShell}, metricsSvc, hub)
	hub.OnMessage(container.HandleMessage)
	watcher := startShellCache(ctx, cfg.Shell.ManifestPath, container)

	s := server.NewServer(cfg, server.Deps{
		Durable:        durable,
		Session:        session,
		Queue:          matchQueue,
		Submitter:      pipeline,
		Schedule:       scheduleCache,
		Feed:           feed,
		Shell:          container,
		Hub:            hub,
		Metrics:        metricsSvc,
		MetricsHandler: metricsHandler,
		Counters:       counters,
		AppShell:       appShell,
	})

	if cfg.Queue.RetryInterval > 0 {
		go retryPending(ctx, cfg.Queue.RetryInterval, session, matchQueue, pipeline)
	}

	// --- Record startup time ---
	startupDuration := time.Since(startTime)
	metricsSvc.SetStartupTime(startupDuration.Seconds())
	log.Info("Startup time recorded", "duration_ms", startupDuration.Milliseconds())

	// --- Graceful shutdown setup ---
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: s,
	}

	// Channel to listen for errors coming from the server
	serverErrors := make(chan error, 1)

	go func() {
		log.Info("Server started", "port", cfg.Port)
		serverErrors <- srv.ListenAndServe()
	}()

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	case <-ctx.Done():
		log.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Server shutdown failed", "error", err)
		} else {
			log.Info("Server gracefully stopped")
		}
	}

	if watcher != nil {
		if err := watcher.Stop(); err != nil {
			log.Warn("Failed to stop manifest watcher", "error", err)
		}
	}
	log.Info("Server process shutting down")
}

// startShellCache registers the current app shell and watches its manifest
// for new releases. The agent still serves the API if either step fails.
func startShellCache(ctx context.Context, manifestPath string, container *shellcache.Container) *shellcache.Watcher {
	m, err := shellcache.LoadManifest(manifestPath)
	if err != nil {
		log.Warn("App shell cache disabled", "manifest", manifestPath, "error", err)
		return nil
	}
	if err := container.Register(ctx, m); err != nil {
		log.Error("Failed to register app shell", "version", m.Version, "error", err)
	}

	watcher, err := shellcache.NewWatcher(manifestPath, container)
	if err != nil {
		log.Warn("Manifest watcher disabled", "error", err)
		return nil
	}
	watcher.Start(ctx)
	return watcher
}

// retryPending submits queued matches on a fixed interval while someone is
// logged in.
func retryPending(ctx context.Context, interval time.Duration, session storage.Store, q queue.Queue, p *submission.Pipeline) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			id, ok := storage.LoadIdentity(session)
			if !ok || p.InFlight() || len(q.Pending(id)) == 0 {
				continue
			}
			log.Info("Retrying pending matches")
			p.SubmitAll(ctx, id, false)
		}
	}
}
