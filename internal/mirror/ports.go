// Package mirror defines the outbound ports of the change-feed worker:
// somewhere to append expense rows and somewhere to drop full snapshots.
package mirror

import (
	"context"

	"pocketbook/internal/core"
)

type (
	// ExpenseAppender receives one row per created expense.
	ExpenseAppender interface {
		AppendExpense(ctx context.Context, e core.Expense) (rowRef string, err error)
	}

	// SnapshotWriter receives periodic full-document backups.
	SnapshotWriter interface {
		WriteSnapshot(ctx context.Context, payload []byte) error
	}
)
