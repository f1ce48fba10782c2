// internal/app/system/workers/reconcilesweep.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/disciplo/disciplo/internal/app/system/reconcile"
	"go.uber.org/zap"
)

// ReconcileSweep is a background worker that periodically repairs
// membership drift between the local store and Telegram.
type ReconcileSweep struct {
	reconciler *reconcile.Reconciler
	log        *zap.Logger
	interval   time.Duration
	stopCh     chan struct{}
	wg         sync.WaitGroup
}

// NewReconcileSweep creates the sweep worker. interval is how often the
// sweep runs (e.g. 15 minutes).
func NewReconcileSweep(reconciler *reconcile.Reconciler, logger *zap.Logger, interval time.Duration) *ReconcileSweep {
	return &ReconcileSweep{
		reconciler: reconciler,
		log:        logger,
		interval:   interval,
		stopCh:     make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (w *ReconcileSweep) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("reconcile sweep worker started",
		zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *ReconcileSweep) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("reconcile sweep worker stopped")
}

func (w *ReconcileSweep) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *ReconcileSweep) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := w.reconciler.Sweep(ctx); err != nil {
		w.log.Error("membership sweep failed", zap.Error(err))
	}
}
