package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/me/interviewd/internal/config"
	"github.com/me/interviewd/internal/engine"
	"github.com/me/interviewd/internal/logging"
	"github.com/me/interviewd/internal/notify"
	"github.com/me/interviewd/internal/server"
	"github.com/me/interviewd/internal/store"
)

func main() {
	configFile := flag.String("config", "", "Path to YAML config file")
	addr := flag.String("addr", "", "Listen address (overrides config)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "", "Log format (text, json)")
	dbPath := flag.String("db", "", "Database path (default ~/.interviewd/interviewd.db)")
	debug := flag.Bool("debug", false, "Shorthand for --log-level=debug")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *logLevel != "" {
		cfg.Server.LogLevel = *logLevel
	}
	if *logFormat != "" {
		cfg.Server.LogFormat = *logFormat
	}
	if *dbPath != "" {
		cfg.Server.DBPath = *dbPath
	}
	if *debug {
		cfg.Server.LogLevel = "debug"
	}

	logger := logging.New(logging.ParseLevel(cfg.Server.LogLevel), cfg.Server.LogFormat)

	// Resolve database path.
	path := cfg.Server.DBPath
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot determine home directory: %v\n", err)
			os.Exit(1)
		}
		dir := filepath.Join(home, ".interviewd")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "cannot create %s: %v\n", dir, err)
			os.Exit(1)
		}
		path = filepath.Join(dir, "interviewd.db")
	}

	// Open store and run migrations.
	st, err := store.NewSQLiteStore(path, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.Migrate(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "migrate database: %v\n", err)
		os.Exit(1)
	}
	logger.Info("database ready", "path", path)

	// Outbound events go to webhooks when configured, otherwise to the log.
	var emitter notify.Emitter
	if cfg.Webhooks.Calendar != "" || cfg.Webhooks.Alerting != "" || cfg.Webhooks.ATS != "" {
		emitter = notify.NewWebhook(cfg.Webhooks, logger)
		logger.Info("webhook emitter ready",
			"calendar", cfg.Webhooks.Calendar != "",
			"alerting", cfg.Webhooks.Alerting != "",
			"ats", cfg.Webhooks.ATS != "")
	} else {
		emitter = notify.NewLog(logger)
	}

	eng, err := engine.New(st, cfg.Engine, emitter, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create engine: %v\n", err)
		os.Exit(1)
	}

	srv := server.New(cfg.Server, st, eng, logger)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Handler(),
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start the coordination loop in background.
	srv.StartEngine(ctx)

	go func() {
		logger.Info("server starting", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	// Stop the engine before the HTTP server.
	if err := eng.Stop(); err != nil {
		logger.Error("engine stop error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
