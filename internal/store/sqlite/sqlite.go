package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"qrd/internal/models"
)

// Open prepares the sqlite backend: WAL, busy timeout and a single connection
// so counter updates serialize at the driver without SQLITE_BUSY churn.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		path = "./data/qrd.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf(
		"file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)",
		path,
	)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS code_records (
  id TEXT PRIMARY KEY,
  payload_canonical BLOB NOT NULL,
  fingerprint TEXT NOT NULL,
  asset_id TEXT,
  template_id TEXT,
  template_version INTEGER NOT NULL DEFAULT 0,
  settings TEXT NOT NULL,
  quality_score REAL NOT NULL,
  raster BLOB NOT NULL,
  created_at_ms INTEGER NOT NULL,
  scan_count INTEGER NOT NULL DEFAULT 0,
  unique_verifier_count INTEGER NOT NULL DEFAULT 0,
  first_seen_at_ms INTEGER,
  last_seen_at_ms INTEGER
);
CREATE INDEX IF NOT EXISTS idx_code_records_fingerprint ON code_records(fingerprint);
CREATE INDEX IF NOT EXISTS idx_code_records_asset ON code_records(asset_id);

CREATE TABLE IF NOT EXISTS scan_events (
  event_id TEXT PRIMARY KEY,
  record_id TEXT NOT NULL DEFAULT '',
  fingerprint TEXT,
  decoded_bytes BLOB,
  decode_quality REAL NOT NULL,
  verifier_id TEXT,
  timestamp_ms INTEGER NOT NULL,
  latitude REAL,
  longitude REAL,
  user_agent TEXT,
  platform TEXT,
  remote_addr TEXT,
  seq INTEGER
);
CREATE INDEX IF NOT EXISTS idx_scan_events_record ON scan_events(record_id);

CREATE TABLE IF NOT EXISTS scan_verifiers (
  record_id TEXT NOT NULL,
  verifier_id TEXT NOT NULL,
  PRIMARY KEY (record_id, verifier_id)
);
`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Store is the sqlite-backed implementation of store.Store.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context, id string) (*models.CodeRecord, error) {
	return s.queryOne(ctx, `SELECT `+recordColumns+` FROM code_records WHERE id = ?;`, id)
}

func (s *Store) GetByFingerprint(ctx context.Context, fingerprint string) (*models.CodeRecord, error) {
	return s.queryOne(ctx, `SELECT `+recordColumns+` FROM code_records WHERE fingerprint = ? ORDER BY created_at_ms LIMIT 1;`, fingerprint)
}

func (s *Store) GetByAssetID(ctx context.Context, assetID string) (*models.CodeRecord, error) {
	if assetID == "" {
		return nil, nil
	}
	return s.queryOne(ctx, `SELECT `+recordColumns+` FROM code_records WHERE asset_id = ? ORDER BY created_at_ms LIMIT 1;`, assetID)
}

const recordColumns = `id, payload_canonical, fingerprint, asset_id, template_id, template_version,
settings, quality_score, raster, created_at_ms, scan_count, unique_verifier_count,
first_seen_at_ms, last_seen_at_ms`

func (s *Store) queryOne(ctx context.Context, query string, arg interface{}) (*models.CodeRecord, error) {
	row := s.db.QueryRowContext(ctx, query, arg)

	var rec models.CodeRecord
	var assetID, templateID sql.NullString
	var settingsJSON string
	var createdMs int64
	var firstMs, lastMs sql.NullInt64

	err := row.Scan(
		&rec.ID, &rec.PayloadCanonical, &rec.Fingerprint, &assetID, &templateID,
		&rec.TemplateVersion, &settingsJSON, &rec.QualityScore, &rec.Raster,
		&createdMs, &rec.ScanCount, &rec.UniqueVerifierCount, &firstMs, &lastMs,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("record scan: %w", err)
	}

	rec.AssetID = assetID.String
	rec.TemplateID = templateID.String
	rec.CreatedAt = time.UnixMilli(createdMs).UTC()
	if firstMs.Valid {
		rec.FirstSeenAt = time.UnixMilli(firstMs.Int64).UTC()
	}
	if lastMs.Valid {
		rec.LastSeenAt = time.UnixMilli(lastMs.Int64).UTC()
	}
	if err := json.Unmarshal([]byte(settingsJSON), &rec.Settings); err != nil {
		return nil, fmt.Errorf("record settings decode: %w", err)
	}
	return &rec, nil
}

func (s *Store) Put(ctx context.Context, rec *models.CodeRecord) error {
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("record must carry an id")
	}
	settingsJSON, err := json.Marshal(rec.Settings)
	if err != nil {
		return fmt.Errorf("record settings encode: %w", err)
	}
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO code_records(
  id, payload_canonical, fingerprint, asset_id, template_id, template_version,
  settings, quality_score, raster, created_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`,
		rec.ID, rec.PayloadCanonical, rec.Fingerprint, nullable(rec.AssetID),
		nullable(rec.TemplateID), rec.TemplateVersion, string(settingsJSON),
		rec.QualityScore, rec.Raster, created.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record insert: %w", err)
	}
	return nil
}

// IncrementCounters applies one scan's delta inside a transaction. The
// distinct-verifier set is the scan_verifiers table; INSERT OR IGNORE tells us
// whether this verifier is new without re-querying the whole set.
func (s *Store) IncrementCounters(ctx context.Context, id string, delta models.CounterDelta) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("counters begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	verifierInc := 0
	if delta.VerifierID != "" {
		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO scan_verifiers(record_id, verifier_id) VALUES (?, ?);`,
			id, delta.VerifierID)
		if err != nil {
			return fmt.Errorf("verifier insert: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			verifierInc = 1
		}
	}

	seenAt := delta.SeenAt
	if seenAt.IsZero() {
		seenAt = time.Now()
	}
	seenMs := seenAt.UTC().UnixMilli()
	res, err := tx.ExecContext(ctx, `
UPDATE code_records SET
  scan_count = scan_count + ?,
  unique_verifier_count = unique_verifier_count + ?,
  first_seen_at_ms = COALESCE(first_seen_at_ms, ?),
  last_seen_at_ms = MAX(COALESCE(last_seen_at_ms, 0), ?)
WHERE id = ?;
`, delta.ScanInc, verifierInc, seenMs, seenMs, id)
	if err != nil {
		return fmt.Errorf("counters update: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("record %s not found", id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("counters commit: %w", err)
	}
	return nil
}

func (s *Store) AppendScanEvent(ctx context.Context, event *models.ScanEvent) error {
	if event == nil || event.EventID == "" {
		return fmt.Errorf("event must carry an id")
	}
	var lat, lon interface{}
	if event.Location != nil {
		lat = event.Location.Latitude
		lon = event.Location.Longitude
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO scan_events(
  event_id, record_id, fingerprint, decoded_bytes, decode_quality,
  verifier_id, timestamp_ms, latitude, longitude, user_agent, platform, remote_addr, seq
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
  (SELECT COALESCE(MAX(seq), 0) + 1 FROM scan_events));
`,
		event.EventID, event.RecordID, nullable(event.Fingerprint), event.DecodedBytes,
		event.DecodeQuality, nullable(event.VerifierID), event.Timestamp.UTC().UnixMilli(),
		lat, lon, nullable(event.Device.UserAgent), nullable(event.Device.Platform),
		nullable(event.Device.RemoteAddr),
	)
	if err != nil {
		return fmt.Errorf("event insert: %w", err)
	}
	return nil
}

func (s *Store) ScanEvents(ctx context.Context, recordID string) ([]*models.ScanEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT event_id, record_id, fingerprint, decoded_bytes, decode_quality,
       verifier_id, timestamp_ms, latitude, longitude, user_agent, platform, remote_addr
FROM scan_events WHERE record_id = ? ORDER BY seq;
`, recordID)
	if err != nil {
		return nil, fmt.Errorf("events query: %w", err)
	}
	defer rows.Close()

	var out []*models.ScanEvent
	for rows.Next() {
		var e models.ScanEvent
		var fingerprint, verifier, userAgent, platform, remoteAddr sql.NullString
		var tsMs int64
		var lat, lon sql.NullFloat64
		if err := rows.Scan(
			&e.EventID, &e.RecordID, &fingerprint, &e.DecodedBytes, &e.DecodeQuality,
			&verifier, &tsMs, &lat, &lon, &userAgent, &platform, &remoteAddr,
		); err != nil {
			return nil, fmt.Errorf("event scan: %w", err)
		}
		e.Fingerprint = fingerprint.String
		e.VerifierID = verifier.String
		e.Timestamp = time.UnixMilli(tsMs).UTC()
		if lat.Valid && lon.Valid {
			e.Location = &models.Location{Latitude: lat.Float64, Longitude: lon.Float64}
		}
		e.Device = models.DeviceInfo{
			UserAgent:  userAgent.String,
			Platform:   platform.String,
			RemoteAddr: remoteAddr.String,
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (s *Store) EventIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT event_id FROM scan_events ORDER BY seq;`)
	if err != nil {
		return nil, fmt.Errorf("event ids query: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("event id scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM code_records;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("record count: %w", err)
	}
	return n, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
