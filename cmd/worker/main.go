package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"catalogsync/internal/app"
	"catalogsync/internal/config"
	"catalogsync/internal/logger"
	"catalogsync/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel, cfg.Env)
	defer logger.Sync()

	if !cfg.KafkaEnabled() {
		logger.Fatal("KAFKA_BROKERS is required for the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize: %v", err)
	}
	defer application.Close()

	// Initialize worker
	w := worker.New(cfg, application.Syncer, logger)

	// Start worker
	logger.Info("Starting worker...")
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	<-ctx.Done()
	<-done

	logger.Info("Shutting down worker...")
	w.Stop()
}
