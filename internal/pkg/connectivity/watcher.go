// Package connectivity tracks whether the backend is reachable and
// raises offline→online transitions so queued punches sync promptly.
package connectivity

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Prober answers whether the backend responds right now.
type Prober interface {
	Ping(ctx context.Context) error
}

// Watcher polls the backend heartbeat. Online state is readable at any
// time; offline→online transitions are delivered on Restored.
type Watcher struct {
	prober   Prober
	interval time.Duration
	online   atomic.Bool
	restored chan struct{}
}

func NewWatcher(prober Prober, interval time.Duration) *Watcher {
	return &Watcher{
		prober:   prober,
		interval: interval,
		restored: make(chan struct{}, 1),
	}
}

// Online reports the last observed connectivity state.
func (w *Watcher) Online() bool {
	return w.online.Load()
}

// Restored delivers one signal per offline→online transition. The
// channel is buffered; a transition during a slow consumer is not lost,
// repeated transitions coalesce into one pending signal.
func (w *Watcher) Restored() <-chan struct{} {
	return w.restored
}

// Run polls until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.probe(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.probe(ctx)
		}
	}
}

func (w *Watcher) probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, w.interval)
	defer cancel()

	err := w.prober.Ping(probeCtx)
	nowOnline := err == nil
	wasOnline := w.online.Swap(nowOnline)

	switch {
	case nowOnline && !wasOnline:
		slog.Info("connectivity restored")
		select {
		case w.restored <- struct{}{}:
		default:
		}
	case !nowOnline && wasOnline:
		slog.Warn("connectivity lost", "error", err)
	}
}
