package store

import (
	"context"

	"qrd/internal/models"
)

// RecordStore persists issued codes. Lookups return (nil, nil) when no record
// matches; absence is a reportable outcome, not an error. IncrementCounters
// must be atomic per record id: concurrent deltas for the same record may
// never lose updates.
type RecordStore interface {
	Get(ctx context.Context, id string) (*models.CodeRecord, error)
	GetByFingerprint(ctx context.Context, fingerprint string) (*models.CodeRecord, error)
	GetByAssetID(ctx context.Context, assetID string) (*models.CodeRecord, error)
	Put(ctx context.Context, rec *models.CodeRecord) error
	IncrementCounters(ctx context.Context, id string, delta models.CounterDelta) error
}

// ScanEventStore is the append-only verification log. Events are never
// mutated or deleted. ScanEvents returns events in append order; recordID ""
// selects the unresolved ones.
type ScanEventStore interface {
	AppendScanEvent(ctx context.Context, event *models.ScanEvent) error
	ScanEvents(ctx context.Context, recordID string) ([]*models.ScanEvent, error)
	EventIDs(ctx context.Context) ([]string, error)
}

// Store is the full persistence surface a backend provides.
type Store interface {
	RecordStore
	ScanEventStore
	Count(ctx context.Context) (int, error)
}
