// Package worker runs the background export pipeline: it consumes sync
// messages from RabbitMQ and appends the referenced transactions to the
// external ledger, with a periodic sweep that repairs rows whose messages
// were lost.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/export"
	"fintrack/internal/storage"
)

// ExportStore is the slice of storage the export worker needs.
type ExportStore interface {
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	GetPendingSyncTransactions(ctx context.Context, limit int) ([]storage.PendingSyncTransaction, error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncError(ctx context.Context, id int64) error
}

// SyncConsumer delivers sync messages until the context is cancelled.
type SyncConsumer interface {
	ConsumeTransactionSync(ctx context.Context, handler func(*amqp.TransactionSyncMessage) error) error
}

// Config tunes the export worker.
type Config struct {
	// SweepInterval is how often pending rows are re-checked (default 1m).
	SweepInterval time.Duration

	// SweepBatchSize is the max rows repaired per sweep (default 25).
	SweepBatchSize int

	// ConsumeRetryBase is the initial backoff after a broken consume loop
	// (default 1s, doubling up to 30s).
	ConsumeRetryBase time.Duration
}

func DefaultConfig() Config {
	return Config{
		SweepInterval:    time.Minute,
		SweepBatchSize:   25,
		ConsumeRetryBase: time.Second,
	}
}

// ExportWorker exports transactions to the configured appender.
type ExportWorker struct {
	store    ExportStore
	consumer SyncConsumer
	appender export.TransactionAppender
	cfg      Config
}

// NewExportWorker creates a worker. The consumer may be nil, in which case
// only the repair sweep runs.
func NewExportWorker(store ExportStore, consumer SyncConsumer, appender export.TransactionAppender, cfg Config) *ExportWorker {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultConfig().SweepInterval
	}
	if cfg.SweepBatchSize <= 0 {
		cfg.SweepBatchSize = DefaultConfig().SweepBatchSize
	}
	if cfg.ConsumeRetryBase <= 0 {
		cfg.ConsumeRetryBase = DefaultConfig().ConsumeRetryBase
	}
	return &ExportWorker{store: store, consumer: consumer, appender: appender, cfg: cfg}
}

// Run blocks until the context is cancelled, running the consume loop and the
// repair sweep concurrently.
func (w *ExportWorker) Run(ctx context.Context) error {
	if w.store == nil || w.appender == nil {
		return errors.New("export worker not properly initialized")
	}

	g, ctx := errgroup.WithContext(ctx)

	if w.consumer != nil {
		g.Go(func() error { return w.consumeLoop(ctx) })
	}
	g.Go(func() error { return w.sweepLoop(ctx) })

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// consumeLoop keeps the AMQP consumer alive, backing off when the broker
// drops the delivery channel.
func (w *ExportWorker) consumeLoop(ctx context.Context) error {
	backoff := w.cfg.ConsumeRetryBase
	for {
		err := w.consumer.ConsumeTransactionSync(ctx, func(msg *amqp.TransactionSyncMessage) error {
			return w.handleMessage(ctx, msg)
		})
		if ctx.Err() != nil {
			return ctx.Err()
		}

		slog.ErrorContext(ctx, "Consume loop stopped, retrying",
			"error", err,
			"backoff", backoff)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > 30*time.Second {
			backoff = 30 * time.Second
		}
	}
}

// handleMessage exports the transaction a sync message refers to. A missing
// row means it was deleted before export; the message is dropped. An append
// failure leaves the row marked with an error and acks the message, so a
// broken ledger cannot spin the queue.
func (w *ExportWorker) handleMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	err := w.exportOne(ctx, msg.ID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		slog.WarnContext(ctx, "Transaction gone before export, dropping message",
			"id", msg.ID, "message_id", msg.MessageID)
		return nil
	case errors.Is(err, errAppendFailed):
		return nil
	default:
		return err
	}
}

// sweepLoop periodically exports rows still marked pending. It catches rows
// whose sync message never made it to the broker.
func (w *ExportWorker) sweepLoop(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.SweepInterval)
	defer ticker.Stop()

	w.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExportWorker) sweep(ctx context.Context) {
	pending, err := w.store.GetPendingSyncTransactions(ctx, w.cfg.SweepBatchSize)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list pending transactions", "error", err)
		return
	}
	if len(pending) == 0 {
		return
	}

	slog.InfoContext(ctx, "Repair sweep found pending transactions", "count", len(pending))
	for _, p := range pending {
		if ctx.Err() != nil {
			return
		}
		if err := w.exportOne(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Repair sweep export failed", "id", p.ID, "error", err)
		}
	}
}

var errAppendFailed = errors.New("append failed")

// exportOne appends a single transaction and records the outcome on its row.
func (w *ExportWorker) exportOne(ctx context.Context, id int64) error {
	tx, err := w.store.GetTransaction(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return err
		}
		return fmt.Errorf("load transaction %d: %w", id, err)
	}

	ref, err := w.appender.Append(ctx, tx)
	if err != nil {
		if markErr := w.store.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to record sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("%w: transaction %d: %v", errAppendFailed, id, err)
	}

	if err := w.store.MarkSynced(ctx, id); err != nil {
		return fmt.Errorf("mark transaction %d synced: %w", id, err)
	}

	slog.InfoContext(ctx, "Transaction exported", "id", id, "row_ref", ref)
	return nil
}
