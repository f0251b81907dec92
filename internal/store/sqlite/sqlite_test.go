package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qrd/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "qrd.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db)
}

func record(id, fingerprint, assetID string) *models.CodeRecord {
	return &models.CodeRecord{
		ID:               id,
		PayloadCanonical: []byte(`{"asset_id":"` + assetID + `"}`),
		Fingerprint:      fingerprint,
		AssetID:          assetID,
		TemplateID:       "standard",
		TemplateVersion:  1,
		Settings:         models.RenderSettings{Size: 256, Level: "M", Format: "PNG"},
		QualityScore:     0.85,
		Raster:           []byte{0x89, 0x50, 0x4E, 0x47},
		CreatedAt:        time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestPutAndGet(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Put(context.Background(), record("QR_1", "fp-1", "A1")))

	rec, err := s.Get(context.Background(), "QR_1")
	assert.NoError(t, err)
	assert.NotNil(t, rec)
	assert.Equal(t, "fp-1", rec.Fingerprint)
	assert.Equal(t, "A1", rec.AssetID)
	assert.Equal(t, "standard", rec.TemplateID)
	assert.Equal(t, models.RenderSettings{Size: 256, Level: "M", Format: "PNG"}, rec.Settings)
	assert.Equal(t, 0.85, rec.QualityScore)
	assert.Equal(t, []byte{0x89, 0x50, 0x4E, 0x47}, rec.Raster)
	assert.Equal(t, time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC), rec.CreatedAt)
	assert.True(t, rec.FirstSeenAt.IsZero())

	missing, err := s.Get(context.Background(), "QR_404")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPut_DuplicateIDFails(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Put(context.Background(), record("QR_1", "fp-1", "A1")))
	assert.Error(t, s.Put(context.Background(), record("QR_1", "fp-2", "A2")))
}

func TestLookupIndexes(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Put(context.Background(), record("QR_1", "fp-1", "A1")))

	byFp, err := s.GetByFingerprint(context.Background(), "fp-1")
	assert.NoError(t, err)
	assert.Equal(t, "QR_1", byFp.ID)

	byAsset, err := s.GetByAssetID(context.Background(), "A1")
	assert.NoError(t, err)
	assert.Equal(t, "QR_1", byAsset.ID)

	none, err := s.GetByAssetID(context.Background(), "")
	assert.NoError(t, err)
	assert.Nil(t, none)
}

func TestIncrementCounters(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Put(context.Background(), record("QR_1", "fp-1", "A1")))

	t1 := time.Date(2026, 9, 1, 11, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	assert.NoError(t, s.IncrementCounters(context.Background(), "QR_1",
		models.CounterDelta{ScanInc: 1, VerifierID: "v1", SeenAt: t1}))
	assert.NoError(t, s.IncrementCounters(context.Background(), "QR_1",
		models.CounterDelta{ScanInc: 1, VerifierID: "v1", SeenAt: t2}))
	assert.NoError(t, s.IncrementCounters(context.Background(), "QR_1",
		models.CounterDelta{ScanInc: 1, VerifierID: "v2", SeenAt: t2}))

	rec, err := s.Get(context.Background(), "QR_1")
	assert.NoError(t, err)
	assert.Equal(t, 3, rec.ScanCount)
	assert.Equal(t, 2, rec.UniqueVerifierCount)
	assert.Equal(t, t1, rec.FirstSeenAt)
	assert.Equal(t, t2, rec.LastSeenAt)
}

func TestIncrementCounters_UnknownRecord(t *testing.T) {
	s := newTestStore(t)
	err := s.IncrementCounters(context.Background(), "QR_404", models.CounterDelta{ScanInc: 1})
	assert.Error(t, err)
}

func TestScanEvents_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ts := time.Date(2026, 9, 1, 9, 30, 0, 0, time.UTC)

	assert.NoError(t, s.AppendScanEvent(context.Background(), &models.ScanEvent{
		EventID:       "S1",
		RecordID:      "QR_1",
		Fingerprint:   "fp-1",
		DecodedBytes:  []byte(`{"asset_id":"A1"}`),
		DecodeQuality: 0.92,
		VerifierID:    "v1",
		Timestamp:     ts,
		Location:      &models.Location{Latitude: 51.5, Longitude: -0.12},
		Device: models.DeviceInfo{
			UserAgent:  "Mozilla/5.0 Mobile",
			Platform:   "Android",
			RemoteAddr: "10.0.0.1:1234",
		},
	}))

	events, err := s.ScanEvents(context.Background(), "QR_1")
	assert.NoError(t, err)
	assert.Len(t, events, 1)

	e := events[0]
	assert.Equal(t, "S1", e.EventID)
	assert.Equal(t, "fp-1", e.Fingerprint)
	assert.Equal(t, 0.92, e.DecodeQuality)
	assert.Equal(t, ts, e.Timestamp)
	assert.NotNil(t, e.Location)
	assert.Equal(t, 51.5, e.Location.Latitude)
	assert.Equal(t, "Android", e.Device.Platform)
}

func TestScanEvents_OrderAndFilter(t *testing.T) {
	s := newTestStore(t)
	for i, recID := range []string{"QR_1", "QR_2", "QR_1", ""} {
		assert.NoError(t, s.AppendScanEvent(context.Background(), &models.ScanEvent{
			EventID:   fmt.Sprintf("S%d", i),
			RecordID:  recID,
			Timestamp: time.Now().UTC(),
		}))
	}

	qr1, err := s.ScanEvents(context.Background(), "QR_1")
	assert.NoError(t, err)
	assert.Len(t, qr1, 2)
	assert.Equal(t, "S0", qr1[0].EventID)
	assert.Equal(t, "S2", qr1[1].EventID)

	unresolved, err := s.ScanEvents(context.Background(), "")
	assert.NoError(t, err)
	assert.Len(t, unresolved, 1)

	ids, err := s.EventIDs(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, []string{"S0", "S1", "S2", "S3"}, ids)
}

func TestAppendScanEvent_DuplicateIDFails(t *testing.T) {
	s := newTestStore(t)
	e := &models.ScanEvent{EventID: "S1", Timestamp: time.Now().UTC()}
	assert.NoError(t, s.AppendScanEvent(context.Background(), e))
	assert.Error(t, s.AppendScanEvent(context.Background(), e))
}

func TestCount(t *testing.T) {
	s := newTestStore(t)
	n, err := s.Count(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0, n)

	assert.NoError(t, s.Put(context.Background(), record("QR_1", "fp-1", "A1")))
	assert.NoError(t, s.Put(context.Background(), record("QR_2", "fp-2", "A2")))
	n, _ = s.Count(context.Background())
	assert.Equal(t, 2, n)
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "qrd.db")

	db, err := Open(context.Background(), path)
	require.NoError(t, err)
	s := NewStore(db)
	assert.NoError(t, s.Put(context.Background(), record("QR_1", "fp-1", "A1")))
	assert.NoError(t, db.Close())

	db2, err := Open(context.Background(), path)
	require.NoError(t, err)
	defer db2.Close()
	rec, err := NewStore(db2).Get(context.Background(), "QR_1")
	assert.NoError(t, err)
	assert.NotNil(t, rec)
}
