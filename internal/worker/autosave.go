// Package worker holds the tracker's background loops: the periodic
// autosave and the change-feed mirror worker.
package worker

import (
	"context"
	"log/slog"
	"time"
)

// Saver is what the autosaver drives; the tracker service implements it.
type Saver interface {
	Save(ctx context.Context) bool
}

// Autosaver persists the document on a fixed interval, on top of the
// per-mutation saves the service already performs. It exists so a session
// that sits idle after a failed mutation save still gets retried.
type Autosaver struct {
	saver    Saver
	interval time.Duration
}

func NewAutosaver(saver Saver, interval time.Duration) *Autosaver {
	return &Autosaver{saver: saver, interval: interval}
}

// Run ticks until ctx is cancelled, then performs one final save before
// returning ctx.Err().
func (a *Autosaver) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "Autosave started", "interval", a.interval.String())
	for {
		select {
		case <-ctx.Done():
			if a.saver.Save(context.WithoutCancel(ctx)) {
				slog.InfoContext(ctx, "Final save on shutdown complete")
			} else {
				slog.ErrorContext(ctx, "Final save on shutdown failed")
			}
			return ctx.Err()
		case <-ticker.C:
			if !a.saver.Save(ctx) {
				slog.WarnContext(ctx, "Periodic save failed, will retry next tick")
			}
		}
	}
}
