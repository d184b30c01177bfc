package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"pocketbook/internal/amqp"
	"pocketbook/internal/mirror"
	"pocketbook/internal/store"
)

// ChangeConsumer is the inbound side of the change feed; the AMQP client
// implements it.
type ChangeConsumer interface {
	ConsumeChanges(ctx context.Context, handler func(*amqp.ChangeMessage) error) error
}

// MirrorWorker reacts to the change feed: created expenses are appended to
// the configured mirror, and the full document is snapshotted periodically
// as a backup trail.
type MirrorWorker struct {
	feed      ChangeConsumer
	appender  mirror.ExpenseAppender // nil disables row mirroring
	snapshots mirror.SnapshotWriter  // nil disables snapshots
	storage   store.Storage
	interval  time.Duration
}

func NewMirrorWorker(feed ChangeConsumer, appender mirror.ExpenseAppender, snapshots mirror.SnapshotWriter, storage store.Storage, snapshotInterval time.Duration) *MirrorWorker {
	return &MirrorWorker{
		feed:      feed,
		appender:  appender,
		snapshots: snapshots,
		storage:   storage,
		interval:  snapshotInterval,
	}
}

// Run consumes the feed and snapshots in parallel until ctx is cancelled.
func (w *MirrorWorker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return w.feed.ConsumeChanges(ctx, func(msg *amqp.ChangeMessage) error {
			return w.HandleChange(ctx, msg)
		})
	})

	if w.snapshots != nil && w.interval > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(w.interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
					if err := w.Snapshot(ctx); err != nil {
						slog.ErrorContext(ctx, "Snapshot failed", "error", err)
					}
				}
			}
		})
	}

	return g.Wait()
}

// HandleChange processes one change event. Only expense creations produce a
// mirror row; every other mutation is covered by the periodic snapshot.
func (w *MirrorWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	switch msg.Kind {
	case amqp.ChangeExpenseAdded:
		if w.appender == nil {
			return nil
		}
		if msg.Expense == nil {
			slog.WarnContext(ctx, "Change event without expense payload, skipping",
				"expense_id", msg.ExpenseID)
			return nil
		}
		ref, err := w.appender.AppendExpense(ctx, *msg.Expense)
		if err != nil {
			return fmt.Errorf("mirror expense %d: %w", msg.ExpenseID, err)
		}
		slog.InfoContext(ctx, "Mirrored expense",
			"expense_id", msg.ExpenseID, "row_ref", ref)
		return nil
	default:
		slog.DebugContext(ctx, "Change event needs no mirroring",
			"kind", string(msg.Kind), "revision", msg.Revision)
		return nil
	}
}

// Snapshot writes the current persisted document to the snapshot sink.
func (w *MirrorWorker) Snapshot(ctx context.Context) error {
	payload, found, err := w.storage.Get(ctx, store.DocumentKey)
	if err != nil {
		return fmt.Errorf("read document for snapshot: %w", err)
	}
	if !found {
		slog.DebugContext(ctx, "No document to snapshot yet")
		return nil
	}
	if err := w.snapshots.WriteSnapshot(ctx, payload); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
