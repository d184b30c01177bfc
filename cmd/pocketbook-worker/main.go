package main

import (
	"context"
	"errors"
	"os"
	"time"

	"pocketbook/internal/amqp"
	"pocketbook/internal/cli"
	"pocketbook/internal/log"
	"pocketbook/internal/mirror"
	gsheet "pocketbook/internal/mirror/google"
	"pocketbook/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(log.ComponentWorker)
	logger.Info("Starting pocketbook-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker; nothing to consume without it")
		os.Exit(1)
	}

	// Storage backend, read-only here: snapshots read the persisted document
	result := cli.InitStorage(context.Background(), logger, cfg)
	defer func() {
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Storage cleanup failed", "error", err)
			}
		}
	}()

	// Google Sheets mirror is optional
	var appender mirror.ExpenseAppender
	if cfg.GoogleSpreadsheetID != "" {
		sheetsClient, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		appender = sheetsClient
		logger.Info("Google Sheets mirror initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets mirror disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	// Snapshot backups are optional
	var snapshots mirror.SnapshotWriter
	if cfg.BackupDir != "" {
		snapshots = mirror.NewFileSnapshotWriter(cfg.BackupDir)
		logger.Info("Snapshot backups enabled", "dir", cfg.BackupDir, "interval", cfg.SnapshotInterval.String())
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	mirrorWorker := worker.NewMirrorWorker(amqpClient, appender, snapshots, result.Storage, cfg.SnapshotInterval)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	logger.Info("Consuming change feed", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	if err := mirrorWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
