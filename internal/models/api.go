package models

import "time"

// GenerateRequestBody is the POST /generate payload. Render fields are
// optional overrides; unset ones fall back to template then server defaults.
type GenerateRequestBody struct {
	Payload    map[string]interface{} `json:"payload"`
	TemplateID string                 `json:"template_id"`
	Size       int                    `json:"size"`
	Level      string                 `json:"level"`
	Format     string                 `json:"format"`
	Foreground string                 `json:"foreground"`
	Background string                 `json:"background"`
	Margin     *bool                  `json:"margin"`
}

// ScanRequestBody is the POST /scan payload. ImageData is base64, with or
// without a data-URL prefix; ImageURL is used when ImageData is empty.
type ScanRequestBody struct {
	ImageData  string    `json:"image_data"`
	ImageURL   string    `json:"image_url"`
	EventID    string    `json:"event_id"`
	VerifierID string    `json:"verifier_id"`
	Location   *Location `json:"location"`
}

type GenerateResponse struct {
	ID           string         `json:"id"`
	ImageData    string         `json:"image_data"`
	ImageDataURL string         `json:"image_data_url"`
	QualityScore float64        `json:"quality_score"`
	Fingerprint  string         `json:"fingerprint"`
	Settings     RenderSettings `json:"settings"`
	Template     string         `json:"template"`
	Warnings     []string       `json:"warnings,omitempty"`
}

type ScanResponse struct {
	ScanID       string                 `json:"scan_id"`
	Resolved     bool                   `json:"resolved"`
	Payload      map[string]interface{} `json:"payload"`
	Fingerprint  string                 `json:"fingerprint"`
	ScanQuality  float64                `json:"scan_quality"`
	Record       *CodeRecordView        `json:"record,omitempty"`
	AssetDetails map[string]interface{} `json:"asset_details,omitempty"`
}

// CodeRecordView is the API projection of a record. The raster stays out of
// responses that did not ask for the image.
type CodeRecordView struct {
	ID                  string         `json:"id"`
	Fingerprint         string         `json:"fingerprint"`
	AssetID             string         `json:"asset_id,omitempty"`
	TemplateID          string         `json:"template_id,omitempty"`
	TemplateVersion     int            `json:"template_version,omitempty"`
	Settings            RenderSettings `json:"settings"`
	QualityScore        float64        `json:"quality_score"`
	CreatedAt           time.Time      `json:"created_at"`
	ScanCount           int            `json:"scan_count"`
	UniqueVerifierCount int            `json:"unique_verifier_count"`
	FirstSeenAt         *time.Time     `json:"first_seen_at,omitempty"`
	LastSeenAt          *time.Time     `json:"last_seen_at,omitempty"`
}

func NewCodeRecordView(rec *CodeRecord) *CodeRecordView {
	if rec == nil {
		return nil
	}
	view := &CodeRecordView{
		ID:                  rec.ID,
		Fingerprint:         rec.Fingerprint,
		AssetID:             rec.AssetID,
		TemplateID:          rec.TemplateID,
		TemplateVersion:     rec.TemplateVersion,
		Settings:            rec.Settings,
		QualityScore:        rec.QualityScore,
		CreatedAt:           rec.CreatedAt,
		ScanCount:           rec.ScanCount,
		UniqueVerifierCount: rec.UniqueVerifierCount,
	}
	if !rec.FirstSeenAt.IsZero() {
		t := rec.FirstSeenAt
		view.FirstSeenAt = &t
	}
	if !rec.LastSeenAt.IsZero() {
		t := rec.LastSeenAt
		view.LastSeenAt = &t
	}
	return view
}

type ScanEventView struct {
	EventID       string     `json:"event_id"`
	DecodeQuality float64    `json:"decode_quality"`
	VerifierID    string     `json:"verifier_id,omitempty"`
	Timestamp     time.Time  `json:"timestamp"`
	Location      *Location  `json:"location,omitempty"`
	Device        DeviceInfo `json:"device"`
}

func NewScanEventView(event *ScanEvent) *ScanEventView {
	return &ScanEventView{
		EventID:       event.EventID,
		DecodeQuality: event.DecodeQuality,
		VerifierID:    event.VerifierID,
		Timestamp:     event.Timestamp,
		Location:      event.Location,
		Device:        event.Device,
	}
}

type CodeDetailResponse struct {
	Record       *CodeRecordView  `json:"record"`
	ImageDataURL string           `json:"image_data_url,omitempty"`
	Scans        []*ScanEventView `json:"scans,omitempty"`
	Analytics    interface{}      `json:"analytics,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
