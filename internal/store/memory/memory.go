package memory

import (
	"context"
	"fmt"
	"sync"

	json "github.com/goccy/go-json"

	"qrd/internal/models"
)

// entry pairs a record with its distinct-verifier set. Counter updates
// serialize on the entry mutex, so two concurrent scans of the same record
// never race, while scans of different records proceed in parallel.
type entry struct {
	mu        sync.Mutex
	rec       models.CodeRecord
	verifiers map[string]struct{}
}

// Store is the in-memory backend. Periodic snapshots make it survive
// restarts; the snapshot format is versioned JSON handled by the persistence
// scheduler.
type Store struct {
	mu            sync.RWMutex
	records       map[string]*entry
	byFingerprint map[string]string
	byAsset       map[string]string

	eventsMu sync.Mutex
	events   []*models.ScanEvent
}

func NewStore() *Store {
	return &Store{
		records:       make(map[string]*entry),
		byFingerprint: make(map[string]string),
		byAsset:       make(map[string]string),
	}
}

func (s *Store) Get(_ context.Context, id string) (*models.CodeRecord, error) {
	s.mu.RLock()
	e, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return e.copyRecord(), nil
}

func (s *Store) GetByFingerprint(ctx context.Context, fingerprint string) (*models.CodeRecord, error) {
	s.mu.RLock()
	id, ok := s.byFingerprint[fingerprint]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return s.Get(ctx, id)
}

func (s *Store) GetByAssetID(ctx context.Context, assetID string) (*models.CodeRecord, error) {
	if assetID == "" {
		return nil, nil
	}
	s.mu.RLock()
	id, ok := s.byAsset[assetID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return s.Get(ctx, id)
}

func (s *Store) Put(_ context.Context, rec *models.CodeRecord) error {
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("record must carry an id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[rec.ID]; exists {
		return fmt.Errorf("record %s already exists", rec.ID)
	}
	s.records[rec.ID] = &entry{rec: *rec, verifiers: make(map[string]struct{})}
	s.byFingerprint[rec.Fingerprint] = rec.ID
	if rec.AssetID != "" {
		s.byAsset[rec.AssetID] = rec.ID
	}
	return nil
}

func (s *Store) IncrementCounters(_ context.Context, id string, delta models.CounterDelta) error {
	s.mu.RLock()
	e, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("record %s not found", id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.rec.ScanCount += delta.ScanInc
	if delta.VerifierID != "" {
		e.verifiers[delta.VerifierID] = struct{}{}
	}
	e.rec.UniqueVerifierCount = len(e.verifiers)
	if !delta.SeenAt.IsZero() {
		if e.rec.FirstSeenAt.IsZero() {
			e.rec.FirstSeenAt = delta.SeenAt
		}
		if delta.SeenAt.After(e.rec.LastSeenAt) {
			e.rec.LastSeenAt = delta.SeenAt
		}
	}
	return nil
}

func (s *Store) AppendScanEvent(_ context.Context, event *models.ScanEvent) error {
	if event == nil || event.EventID == "" {
		return fmt.Errorf("event must carry an id")
	}
	cp := *event
	s.eventsMu.Lock()
	s.events = append(s.events, &cp)
	s.eventsMu.Unlock()
	return nil
}

func (s *Store) ScanEvents(_ context.Context, recordID string) ([]*models.ScanEvent, error) {
	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()
	out := make([]*models.ScanEvent, 0)
	for _, e := range s.events {
		if e.RecordID == recordID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *Store) EventIDs(_ context.Context) ([]string, error) {
	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()
	ids := make([]string, 0, len(s.events))
	for _, e := range s.events {
		ids = append(ids, e.EventID)
	}
	return ids, nil
}

func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Store) EventCount() int {
	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()
	return len(s.events)
}

// recordSnapshot is the persisted form of one record plus its verifier set.
type recordSnapshot struct {
	Record    models.CodeRecord `json:"record"`
	Verifiers []string          `json:"verifiers"`
}

// snapshot is the versioned on-disk envelope.
type snapshot struct {
	Version int                 `json:"version"`
	Records []recordSnapshot    `json:"records"`
	Events  []*models.ScanEvent `json:"events"`
}

const snapshotVersion = 1

// SnapshotJSON serializes the full store state for the persistence scheduler.
func (s *Store) SnapshotJSON() ([]byte, error) {
	s.mu.RLock()
	records := make([]recordSnapshot, 0, len(s.records))
	for _, e := range s.records {
		e.mu.Lock()
		rs := recordSnapshot{Record: e.rec, Verifiers: make([]string, 0, len(e.verifiers))}
		for v := range e.verifiers {
			rs.Verifiers = append(rs.Verifiers, v)
		}
		e.mu.Unlock()
		records = append(records, rs)
	}
	s.mu.RUnlock()

	s.eventsMu.Lock()
	events := make([]*models.ScanEvent, len(s.events))
	copy(events, s.events)
	s.eventsMu.Unlock()

	return json.Marshal(&snapshot{Version: snapshotVersion, Records: records, Events: events})
}

// RestoreJSON replaces the store state from a snapshot.
func (s *Store) RestoreJSON(data []byte) error {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("unreadable snapshot: %w", err)
	}

	s.mu.Lock()
	s.records = make(map[string]*entry, len(snap.Records))
	s.byFingerprint = make(map[string]string, len(snap.Records))
	s.byAsset = make(map[string]string)
	for _, rs := range snap.Records {
		e := &entry{rec: rs.Record, verifiers: make(map[string]struct{}, len(rs.Verifiers))}
		for _, v := range rs.Verifiers {
			e.verifiers[v] = struct{}{}
		}
		s.records[rs.Record.ID] = e
		s.byFingerprint[rs.Record.Fingerprint] = rs.Record.ID
		if rs.Record.AssetID != "" {
			s.byAsset[rs.Record.AssetID] = rs.Record.ID
		}
	}
	s.mu.Unlock()

	s.eventsMu.Lock()
	s.events = snap.Events
	s.eventsMu.Unlock()
	return nil
}

func (e *entry) copyRecord() *models.CodeRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	cp := e.rec
	return &cp
}
