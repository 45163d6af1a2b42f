package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"cloudtab/internal/blob"
	"cloudtab/internal/store"
	cloudtab_errors "cloudtab/pkg/errors"
	"cloudtab/pkg/logger"
)

// Sweeper periodically walks the session store and reads every session; the
// expiry-checked read does the cleanup for expired ones. It then removes
// blob directories that have no matching record, the debris of partial
// failures in ingestion or completion.
type Sweeper struct {
	sessions *SessionService
	store    store.Store
	blobs    blob.Store
	interval time.Duration
	stopChan chan struct{}
	wg       sync.WaitGroup
	log      *logger.Logger
}

func NewSweeper(sessions *SessionService, st store.Store, blobs blob.Store, interval time.Duration, l *logger.Logger) *Sweeper {
	return &Sweeper{
		sessions: sessions,
		store:    st,
		blobs:    blobs,
		interval: interval,
		stopChan: make(chan struct{}),
		log:      l,
	}
}

// Start begins the sweep loop.
func (w *Sweeper) Start() {
	w.wg.Add(1)
	go w.run()
}

// Stop gracefully shuts down.
func (w *Sweeper) Stop() {
	close(w.stopChan)
	w.wg.Wait()
}

func (w *Sweeper) run() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			w.Sweep(context.Background())
		}
	}
}

// Sweep runs one pass. Exported so a pass can be forced in tests and at
// startup.
func (w *Sweeper) Sweep(ctx context.Context) {
	codes, err := w.store.ListCodes(ctx)
	if err != nil {
		if w.log != nil {
			w.log.Errorf("sweep: list sessions: %s", err)
		}
		return
	}

	expired := 0
	for _, code := range codes {
		_, err := w.sessions.Get(ctx, code)
		if errors.Is(err, cloudtab_errors.ErrSessionNotFound) {
			expired++
			continue
		}
		if err != nil && w.log != nil {
			w.log.Errorf("sweep: session %s: %s", code, err)
		}
	}

	orphans := w.sweepOrphans(ctx)
	if w.log != nil && (expired > 0 || orphans > 0) {
		w.log.Infof("sweep: cleaned up %d expired sessions, %d orphaned directories", expired, orphans)
	}
}

func (w *Sweeper) sweepOrphans(ctx context.Context) int {
	owners, err := w.blobs.Owners(ctx)
	if err != nil {
		if w.log != nil {
			w.log.Errorf("sweep: list blob owners: %s", err)
		}
		return 0
	}
	if len(owners) == 0 {
		return 0
	}

	codes, err := w.store.ListCodes(ctx)
	if err != nil {
		if w.log != nil {
			w.log.Errorf("sweep: relist sessions: %s", err)
		}
		return 0
	}
	live := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		live[code] = struct{}{}
	}

	removed := 0
	for _, owner := range owners {
		if _, ok := live[owner]; ok {
			continue
		}
		if err := w.blobs.DeleteAll(ctx, owner); err != nil {
			if w.log != nil {
				w.log.Errorf("sweep: erase orphaned directory %s: %s", owner, err)
			}
			continue
		}
		removed++
	}
	return removed
}
