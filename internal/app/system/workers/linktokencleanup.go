// internal/app/system/workers/linktokencleanup.go
package workers

import (
	"context"
	"sync"
	"time"

	linktokenstore "github.com/disciplo/disciplo/internal/app/store/linktokens"
	"go.uber.org/zap"
)

// LinkTokenCleanup is a background worker that deletes expired Telegram
// link tokens. Expired tokens already fail to redeem; this just keeps
// the collection from growing without bound.
type LinkTokenCleanup struct {
	tokens   *linktokenstore.Store
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewLinkTokenCleanup creates the cleanup worker.
func NewLinkTokenCleanup(tokens *linktokenstore.Store, logger *zap.Logger, interval time.Duration) *LinkTokenCleanup {
	return &LinkTokenCleanup{
		tokens:   tokens,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background cleanup loop.
func (w *LinkTokenCleanup) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("link token cleanup worker started",
		zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *LinkTokenCleanup) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("link token cleanup worker stopped")
}

func (w *LinkTokenCleanup) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.cleanup()
		}
	}
}

func (w *LinkTokenCleanup) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := w.tokens.DeleteExpired(ctx)
	if err != nil {
		w.log.Error("failed to delete expired link tokens", zap.Error(err))
		return
	}
	if count > 0 {
		w.log.Info("deleted expired link tokens", zap.Int64("count", count))
	}
}
