// Package worker hosts background loops started from main.
package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/prepkit/prepkit-backend/internal/session"
)

// AutosaveWorker periodically persists every live session through the
// session manager. The engine itself never polls; this is the external
// scheduler the auto-save contract expects.
type AutosaveWorker struct {
	manager  *session.Manager
	interval time.Duration
	log      zerolog.Logger
}

// NewAutosaveWorker creates the worker. Intervals below one second are
// clamped to one second.
func NewAutosaveWorker(manager *session.Manager, interval time.Duration, log zerolog.Logger) *AutosaveWorker {
	if interval < time.Second {
		interval = time.Second
	}
	return &AutosaveWorker{
		manager:  manager,
		interval: interval,
		log:      log.With().Str("component", "autosave_worker").Logger(),
	}
}

// Start begins the ticker loop. Call in a goroutine; returns when ctx is
// cancelled, after one final save pass.
func (w *AutosaveWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("Worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping, final save pass")
			w.manager.AutoSaveAll(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			w.manager.AutoSaveAll(ctx)
		}
	}
}
