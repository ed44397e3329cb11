package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"OptionSentinel/internal/analysis"
	"OptionSentinel/internal/broadcast"
	"OptionSentinel/internal/collector"
	"OptionSentinel/internal/config"
	"OptionSentinel/internal/logger"
	"OptionSentinel/internal/metrics"
	"OptionSentinel/internal/notifier"
	"OptionSentinel/internal/scheduler"
	"OptionSentinel/internal/state"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config validation: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Get()
	log.Infow("OptionSentinel starting", "env", cfg.App.Env, "config", cfgPath)

	metrics.Init()

	registry, err := cfg.Registry()
	if err != nil {
		log.Fatalf("build instrument registry: %v", err)
	}
	targets, err := cfg.Targets()
	if err != nil {
		log.Fatalf("resolve polled instruments: %v", err)
	}

	// Init fetcher
	var fetcher collector.Fetcher
	switch cfg.DataSource.Kind {
	case config.SourceFyers:
		fetcher = collector.NewFyersFetcher(collector.FyersOptions{
			BaseURL:     cfg.DataSource.BaseURL,
			AppID:       cfg.DataSource.AppID,
			AccessToken: cfg.DataSource.AccessToken,
			StrikeCount: cfg.DataSource.StrikeCount,
			RateLimit:   cfg.DataSource.RateLimit,
			Timeout:     cfg.DataSource.Timeout,
			Proxy:       cfg.Proxy,
		})
	default:
		fetcher = collector.NewMockFetcher(time.Now().UnixNano())
	}
	log.Infow("data source ready", "source", fetcher.Name())

	// Init notifier
	var (
		notify notifier.Notifier = notifier.NoopNotifier{}
		tn     *notifier.TelegramNotifier
	)
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
		notify = tn
	} else {
		log.Info("telegram not configured, alerts disabled")
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := broadcast.NewHub(log)
	go hub.Run(ctx)

	store := state.NewStore(log)
	analyzer := analysis.NewAnalyzer(store, registry, log)

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, scheduler.Options{
		Analyzer:  analyzer,
		Fetcher:   fetcher,
		Registry:  registry,
		Notifier:  notify,
		Publisher: hub,
		Targets:   targets,
		Interval:  cfg.Polling.Interval,
		Logger:    log,
	})
	if err := sched.RegisterAll(); err != nil {
		log.Fatalf("register poll jobs: %v", err)
	}
	sched.Start()

	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Infow("http server listening", "addr", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw("http server failed", "error", err)
			cancel()
		}
	}()

	// Start Telegram polling
	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info("telegram polling started")
	}

	// Optional: run immediately on start
	if cfg.Polling.RunOnStart {
		log.Info("RUN_ON_START enabled, running one cycle per instrument now")
		go sched.RunAllNow()
	}

	log.Infow("OptionSentinel is running", "instruments", sched.Instruments(), "interval", cfg.Polling.Interval)

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		log.Info("shutdown signal received, stopping...")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnw("http shutdown", "error", err)
	}
	sched.Stop()
	log.Info("OptionSentinel stopped")
}
