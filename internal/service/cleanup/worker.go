package cleanup

import (
	"context"
	"time"

	"github.com/iamasit07/drop4/pkg/logger"
)

// IdleSweeper removes sessions that have been idle for longer than ttl.
type IdleSweeper interface {
	CleanupIdleSessions(ttl time.Duration) int
}

type Worker struct {
	Sessions IdleSweeper
	Interval time.Duration
	IdleTTL  time.Duration
}

func NewWorker(sessions IdleSweeper, interval, idleTTL time.Duration) *Worker {
	return &Worker{Sessions: sessions, Interval: interval, IdleTTL: idleTTL}
}

// Start runs a sweep every Interval until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.Interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.runCleanup()
			case <-ctx.Done():
				logger.Info("CLEANUP", "Background worker stopped")
				return
			}
		}
	}()
	logger.Info("CLEANUP", "Background worker started (every %s, idle ttl %s)", w.Interval, w.IdleTTL)
}

func (w *Worker) runCleanup() int {
	removed := w.Sessions.CleanupIdleSessions(w.IdleTTL)
	if removed > 0 {
		logger.Info("CLEANUP", "Removed %d idle games", removed)
	} else {
		logger.Debug("CLEANUP", "No idle games")
	}
	return removed
}
