// Package memory provides an in-memory transaction appender for tests and
// local development without Google credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
	ports "fintrack/internal/export"
)

type Appender struct {
	mu   sync.Mutex
	rows []core.Transaction
	err  error
}

var _ ports.TransactionAppender = (*Appender)(nil)

func New() *Appender {
	return &Appender{}
}

// Fail makes every subsequent Append return err.
func (a *Appender) Fail(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.err = err
}

func (a *Appender) Append(ctx context.Context, tx core.Transaction) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return "", a.err
	}
	a.rows = append(a.rows, tx)
	return fmt.Sprintf("memory!A%d", len(a.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (a *Appender) Rows() []core.Transaction {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]core.Transaction, len(a.rows))
	copy(out, a.rows)
	return out
}
