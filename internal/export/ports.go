package export

import (
	"context"

	"fintrack/internal/core"
)

// Ports for outbound export adapters.
type (
	// TransactionAppender writes a transaction to the external ledger and
	// returns a reference to where it landed.
	TransactionAppender interface {
		Append(ctx context.Context, tx core.Transaction) (rowRef string, err error)
	}
)
