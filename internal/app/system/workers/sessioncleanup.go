// internal/app/system/workers/sessioncleanup.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/hakbangquest/hakbangweb/internal/app/system/metrics"
	"github.com/hakbangquest/hakbangweb/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// SessionStore is the slice of the identity session store the worker needs.
// DeleteExpired removes sessions whose expiry is at or before now;
// CountActive counts the rest.
type SessionStore interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	CountActive(ctx context.Context, now time.Time) (int64, error)
}

// SessionCleanup is a background worker that purges expired identity
// sessions. The TTL index does the same eventually; this keeps the
// collection tight on servers where TTL monitoring is slow or disabled.
type SessionCleanup struct {
	sessions SessionStore
	log      *zap.Logger
	interval time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewSessionCleanup creates a new session cleanup worker.
//
// Parameters:
//   - sessions: the identity session store
//   - logger: zap logger for logging
//   - interval: how often to run cleanup (e.g., 10 minutes)
func NewSessionCleanup(sessions SessionStore, logger *zap.Logger, interval time.Duration) *SessionCleanup {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionCleanup{
		sessions: sessions,
		log:      logger,
		interval: interval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background cleanup loop.
func (w *SessionCleanup) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("session cleanup worker started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish. Safe to call
// more than once.
func (w *SessionCleanup) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
	w.log.Info("session cleanup worker stopped")
}

// RunOnce performs a single cleanup pass, publishes the remaining session
// count to metrics and returns how many sessions were removed.
func (w *SessionCleanup) RunOnce(ctx context.Context) (int64, error) {
	now := w.now()
	count, err := w.sessions.DeleteExpired(ctx, now)
	if err != nil {
		w.log.Error("failed to delete expired sessions", zap.Error(err))
		return 0, err
	}
	if count > 0 {
		w.log.Info("deleted expired sessions", zap.Int64("count", count))
	}

	active, err := w.sessions.CountActive(ctx, now)
	if err != nil {
		w.log.Warn("failed to count active sessions", zap.Error(err))
		return count, nil
	}
	metrics.ActiveSessions(active)
	return count, nil
}

func (w *SessionCleanup) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := timeouts.WithTimeout(context.Background(), timeouts.Long(), w.log, "session cleanup")
			_, _ = w.RunOnce(ctx)
			cancel()
		}
	}
}
