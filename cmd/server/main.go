package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/platformbuilds/vigil-core/internal/api"
	"github.com/platformbuilds/vigil-core/internal/config"
	"github.com/platformbuilds/vigil-core/internal/monitoring"
	"github.com/platformbuilds/vigil-core/pkg/cache"
	"github.com/platformbuilds/vigil-core/pkg/clock"
	"github.com/platformbuilds/vigil-core/pkg/logger"
	"github.com/platformbuilds/vigil-core/pkg/notifier"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel)
	logger.Info("Starting VIGIL-CORE", "environment", cfg.Environment)

	clk := clock.New()

	// Shared block-state store: Valkey when configured, process-local
	// fallback otherwise
	var kv cache.Store
	if cfg.Cache.Enabled {
		kv, err = cache.NewValkeySingle(cfg.Cache.Node, cfg.Cache.DB, cfg.Cache.Password)
		if err != nil {
			logger.Warn("Valkey unavailable, falling back to in-memory block state", "error", err)
			kv = cache.NewMemory(clk)
		} else {
			logger.Info("Valkey block-state store initialized", "node", cfg.Cache.Node)
		}
	} else {
		kv = cache.NewMemory(clk)
	}

	// Notification sink
	var sink notifier.Notifier = notifier.Noop{}
	if cfg.Notifier.WebhookURL != "" {
		sink = notifier.NewMulti(logger, map[string]notifier.Notifier{
			"webhook": notifier.NewWebhook(cfg.Notifier.WebhookURL, time.Duration(cfg.Notifier.TimeoutSeconds)*time.Second),
		})
	}

	// Assemble the monitoring engine
	mc, err := monitoring.New(cfg, logger, kv, sink, clk, monitoring.Hooks{})
	if err != nil {
		logger.Fatal("Failed to initialize monitoring context", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mc.Start(ctx)
	defer mc.Shutdown()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Info("Shutdown signal received")
		cancel()
	}()

	// Start API server
	apiServer := api.NewServer(cfg, logger, mc)
	if err := apiServer.Start(ctx); err != nil {
		logger.Fatal("Server failed", "error", err)
	}

	logger.Info("VIGIL-CORE shutdown complete")
}
