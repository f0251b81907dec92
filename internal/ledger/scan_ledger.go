package ledger

import (
	"context"
	"sync"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/cespare/xxhash/v2"
	"go.uber.org/atomic"

	"qrd/internal/models"
	"qrd/internal/providers"
	"qrd/internal/qr"
	"qrd/internal/store"
)

// ScanLedger appends verification events and drives per-record counter
// updates. Replay safety: each event id is hashed into a compact seen-set, so
// re-appending a previously seen id is a no-op with respect to counters.
// The seen-set keys on the 64-bit xxhash of the event id, not the id itself:
// a hash collision between two distinct ids drops the later event. Collision
// probability stays under 1e-6 up to roughly six million ledgered events,
// which buys a bitmap compact enough to rebuild from the store on every start.
// Counter updates themselves serialize per record inside the store, never
// behind a ledger-wide lock.
type ScanLedger struct {
	store  store.Store
	logger providers.Logger

	mu   sync.Mutex
	seen *roaring64.Bitmap

	appended atomic.Int64
}

func NewScanLedger(st store.Store, logger providers.Logger) *ScanLedger {
	return &ScanLedger{
		store:  st,
		logger: logger,
		seen:   roaring64.New(),
	}
}

// Warm seeds the seen-set from the already persisted event history so replay
// protection survives restarts.
func (l *ScanLedger) Warm(ctx context.Context) error {
	ids, err := l.store.EventIDs(ctx)
	if err != nil {
		return qr.NewStoreUnavailableError(err)
	}
	l.mu.Lock()
	for _, id := range ids {
		l.seen.Add(xxhash.Sum64String(id))
	}
	l.mu.Unlock()
	return nil
}

// Append records one verification attempt. Returns false when the event id
// was seen before (idempotent replay). For resolved events it atomically bumps
// the record's scan counters; a counter failure after the event committed is
// reported but the event is not rolled back.
func (l *ScanLedger) Append(ctx context.Context, event *models.ScanEvent) (bool, error) {
	key := xxhash.Sum64String(event.EventID)

	l.mu.Lock()
	if l.seen.Contains(key) {
		l.mu.Unlock()
		return false, nil
	}
	l.seen.Add(key)
	l.mu.Unlock()

	if err := l.store.AppendScanEvent(ctx, event); err != nil {
		// The event never committed; release the id so a retry can land it.
		l.mu.Lock()
		l.seen.Remove(key)
		l.mu.Unlock()
		return false, qr.NewStoreUnavailableError(err)
	}
	l.appended.Inc()

	if event.RecordID != "" {
		delta := models.CounterDelta{
			ScanInc:    1,
			VerifierID: event.VerifierID,
			SeenAt:     event.Timestamp,
		}
		if err := l.store.IncrementCounters(ctx, event.RecordID, delta); err != nil {
			l.logger.Errorf(providers.TypeApp, "counter update for record %s failed after event %s committed: %s",
				event.RecordID, event.EventID, err)
			return true, qr.NewStoreUnavailableError(err)
		}
	}
	return true, nil
}

// EventsAppended reports how many events this process has committed.
func (l *ScanLedger) EventsAppended() int64 {
	return l.appended.Load()
}
