package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	"fintrack/internal/export"
	gsheet "fintrack/internal/export/google"
	mem "fintrack/internal/export/memory"
	"fintrack/internal/storage"
	"fintrack/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting export-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	var appender export.TransactionAppender
	switch cfg.ExportBackend {
	case "sheets":
		cli, err := gsheet.NewFromEnv(ctx)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		appender = cli
		logger.Info("Initialized Google Sheets export backend",
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"sheet", cfg.GoogleSheetName)
	default:
		appender = mem.New()
		logger.Info("Initialized memory export backend")
	}

	var consumer worker.SyncConsumer
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, running sweep-only", "error", err)
		} else {
			defer amqpClient.Close()
			consumer = amqpClient
			logger.Info("AMQP consumer initialized", "queue", cfg.AMQPQueue)
		}
	}

	w := worker.NewExportWorker(repo, consumer, appender, worker.Config{
		SweepInterval:  cfg.ExportSweepInterval,
		SweepBatchSize: cfg.ExportBatchSize,
	})

	logger.Info("Export worker configured",
		"sweep_interval", cfg.ExportSweepInterval,
		"batch_size", cfg.ExportBatchSize)

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Export worker failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Export-worker stopped")
}
