package workers

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const gcDiscardRatio = 0.5

// ValueLogGCWorker periodically reclaims space in badger's value log.
// The durable log only grows, but overwritten key bundles and users leave
// stale values behind.
type ValueLogGCWorker struct {
	log      *slog.Logger
	db       *badger.DB
	interval time.Duration
}

func NewValueLogGCWorker(log *slog.Logger, db *badger.DB, interval time.Duration) *ValueLogGCWorker {
	return &ValueLogGCWorker{log: log, db: db, interval: interval}
}

func (w *ValueLogGCWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := w.collect(ctx); err != nil {
				return err
			}
		}
	}
}

// collect rewrites value log files until badger reports nothing left to do.
func (w *ValueLogGCWorker) collect(ctx context.Context) error {
	rewritten := 0
	for ctx.Err() == nil {
		err := w.db.RunValueLogGC(gcDiscardRatio)
		if err == nil {
			rewritten++
			continue
		}
		if stderrors.Is(err, badger.ErrNoRewrite) || stderrors.Is(err, badger.ErrRejected) {
			break
		}
		return err
	}
	if rewritten > 0 {
		w.log.Info("Value log garbage collected", "files", rewritten)
	}
	return nil
}
