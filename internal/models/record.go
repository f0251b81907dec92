package models

import "time"

// RenderSettings is the resolved snapshot of the settings a code was actually
// rendered with, after template defaults and overrides were applied.
type RenderSettings struct {
	Size       int    `json:"size"`
	Level      string `json:"level"`
	Format     string `json:"format"`
	Foreground string `json:"foreground"`
	Background string `json:"background"`
	Margin     bool   `json:"margin"`
}

// CodeRecord is one issued code. Everything except the scan counters is
// immutable after creation; the counters are only touched by the scan ledger
// through the store's atomic increment.
type CodeRecord struct {
	ID               string         `json:"id"`
	PayloadCanonical []byte         `json:"payload_canonical"`
	Fingerprint      string         `json:"fingerprint"`
	AssetID          string         `json:"asset_id,omitempty"`
	TemplateID       string         `json:"template_id,omitempty"`
	TemplateVersion  int            `json:"template_version,omitempty"`
	Settings         RenderSettings `json:"settings"`
	QualityScore     float64        `json:"quality_score"`
	Raster           []byte         `json:"raster"`
	CreatedAt        time.Time      `json:"created_at"`

	ScanCount           int       `json:"scan_count"`
	UniqueVerifierCount int       `json:"unique_verifier_count"`
	FirstSeenAt         time.Time `json:"first_seen_at"`
	LastSeenAt          time.Time `json:"last_seen_at"`
}

// CounterDelta describes one scan's contribution to a record's counters.
// The store applies it atomically per record id.
type CounterDelta struct {
	ScanInc    int
	VerifierID string
	SeenAt     time.Time
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type DeviceInfo struct {
	UserAgent  string `json:"user_agent,omitempty"`
	Platform   string `json:"platform,omitempty"`
	RemoteAddr string `json:"remote_addr,omitempty"`
}

// ScanEvent is one verification attempt, recorded append-only whether or not
// the decode succeeded or the record resolved.
type ScanEvent struct {
	EventID       string     `json:"event_id"`
	RecordID      string     `json:"record_id,omitempty"`
	Fingerprint   string     `json:"fingerprint,omitempty"`
	DecodedBytes  []byte     `json:"decoded_bytes,omitempty"`
	DecodeQuality float64    `json:"decode_quality"`
	VerifierID    string     `json:"verifier_id,omitempty"`
	Timestamp     time.Time  `json:"timestamp"`
	Location      *Location  `json:"location,omitempty"`
	Device        DeviceInfo `json:"device"`
}

// Resolved reports whether the event was matched to an issued record.
func (e *ScanEvent) Resolved() bool {
	return e.RecordID != ""
}
