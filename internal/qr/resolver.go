package qr

import (
	"context"

	"qrd/internal/models"
	"qrd/internal/store"
)

// DedupResolver maps a decoded fingerprint back to the previously issued
// record: exact fingerprint match first, then the secondary identifying field
// from the payload. A nil record with nil error means unresolved, which is a
// reportable outcome rather than an error.
type DedupResolver struct {
	records store.RecordStore
}

func NewDedupResolver(records store.RecordStore) *DedupResolver {
	return &DedupResolver{records: records}
}

func (r *DedupResolver) Resolve(ctx context.Context, fingerprint, assetID string) (*models.CodeRecord, error) {
	rec, err := r.records.GetByFingerprint(ctx, fingerprint)
	if err != nil {
		return nil, NewStoreUnavailableError(err)
	}
	if rec != nil {
		return rec, nil
	}
	if assetID == "" {
		return nil, nil
	}
	rec, err = r.records.GetByAssetID(ctx, assetID)
	if err != nil {
		return nil, NewStoreUnavailableError(err)
	}
	return rec, nil
}
