package services

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
)

// TransactionStore is the slice of storage the transaction service needs.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, tx core.Transaction) (int64, error)
	DeleteTransaction(ctx context.Context, id int64) error
}

// SyncPublisher hands a saved transaction to the export pipeline. A nil
// publisher disables export; local writes never depend on the broker.
type SyncPublisher interface {
	PublishTransactionSync(ctx context.Context, id, version int64) error
}

// TransactionService orchestrates transaction writes across SQLite and AMQP.
type TransactionService struct {
	store     TransactionStore
	publisher SyncPublisher
}

func NewTransactionService(store TransactionStore, publisher SyncPublisher) *TransactionService {
	return &TransactionService{store: store, publisher: publisher}
}

// Create saves a transaction locally and publishes a sync message.
func (s *TransactionService) Create(ctx context.Context, tx core.Transaction) (int64, error) {
	id, err := s.store.CreateTransaction(ctx, tx)
	if err != nil {
		return 0, fmt.Errorf("save transaction: %w", err)
	}

	// Export is async and best-effort; the local write already succeeded.
	s.publishSync(ctx, id)

	return id, nil
}

// Delete removes a transaction locally.
func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

func (s *TransactionService) publishSync(ctx context.Context, id int64) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "Sync publisher not configured, skipping sync message", "id", id)
		return
	}
	if err := s.publisher.PublishTransactionSync(ctx, id, 1); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message", "id", id, "error", err)
	}
}
