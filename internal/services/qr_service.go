package services

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"qrd/internal/ledger"
	"qrd/internal/models"
	"qrd/internal/providers"
	"qrd/internal/qr"
	"qrd/internal/registry"
	"qrd/internal/store"
)

type GenerateParams struct {
	Payload    map[string]interface{}
	TemplateID string
	Size       int
	Level      string
	Format     string
	Foreground string
	Background string
	Margin     *bool
}

type GenerateResult struct {
	CodeID       string
	ImageBase64  string
	ImageDataURL string
	QualityScore float64
	Fingerprint  string
	Settings     models.RenderSettings
	TemplateUsed string
	Warnings     []string
}

type ScanParams struct {
	ImageBytes []byte
	ImageURL   string
	EventID    string
	VerifierID string
	AuthToken  string
	Location   *models.Location
	Device     models.DeviceInfo
}

type ScanResult struct {
	ScanID       string
	Payload      models.Payload
	Fingerprint  string
	Resolved     bool
	Record       *models.CodeRecord
	ScanQuality  float64
	AssetDetails map[string]interface{}
}

type QRServiceInterface interface {
	Generate(ctx context.Context, params GenerateParams) (*GenerateResult, error)
	Scan(ctx context.Context, params ScanParams) (*ScanResult, error)
	GetRecord(ctx context.Context, id string) (*models.CodeRecord, error)
	RecentScans(ctx context.Context, recordID string, limit int) ([]*models.ScanEvent, error)
	Analytics(ctx context.Context, recordID string) (*ledger.Report, error)
	RecordCount(ctx context.Context) int
}

type QRService struct {
	encoder    *qr.Encoder
	decoder    *qr.Decoder
	resolver   *qr.DedupResolver
	ledger     *ledger.ScanLedger
	aggregator *ledger.Aggregator
	store      store.Store
	cache      providers.CacheProviderInterface
	registry   registry.Client
	metrics    providers.MetricsProviderInterface
	logger     providers.Logger
}

func NewQRService(
	encoder *qr.Encoder,
	decoder *qr.Decoder,
	resolver *qr.DedupResolver,
	scanLedger *ledger.ScanLedger,
	aggregator *ledger.Aggregator,
	st store.Store,
	cache providers.CacheProviderInterface,
	registryClient registry.Client,
	metrics providers.MetricsProviderInterface,
	logger providers.Logger,
) QRServiceInterface {
	return &QRService{
		encoder:    encoder,
		decoder:    decoder,
		resolver:   resolver,
		ledger:     scanLedger,
		aggregator: aggregator,
		store:      st,
		cache:      cache,
		registry:   registryClient,
		metrics:    metrics,
		logger:     logger,
	}
}

// Generate runs the full issue pipeline: encode, persist, cache. The encoder
// itself is side-effect free; nothing is considered created unless the store
// write succeeds.
func (s *QRService) Generate(ctx context.Context, params GenerateParams) (*GenerateResult, error) {
	payload := models.StructuredPayload(params.Payload)

	encoded, err := s.encoder.Encode(qr.GenerateRequest{
		Payload:    payload,
		TemplateID: params.TemplateID,
		Size:       params.Size,
		Level:      params.Level,
		Format:     params.Format,
		Foreground: params.Foreground,
		Background: params.Background,
		Margin:     params.Margin,
	})
	if err != nil {
		return nil, err
	}

	rec := &models.CodeRecord{
		ID:               newCodeID(),
		PayloadCanonical: encoded.Canonical,
		Fingerprint:      encoded.Fingerprint,
		AssetID:          payload.AssetID(),
		TemplateID:       params.TemplateID,
		Settings:         encoded.Settings,
		QualityScore:     encoded.Quality,
		Raster:           encoded.Raster,
		CreatedAt:        time.Now().UTC(),
	}
	templateUsed := "Standard"
	if encoded.Template != nil {
		rec.TemplateVersion = encoded.Template.Version
		if encoded.Template.DisplayName != "" {
			templateUsed = encoded.Template.DisplayName
		}
	}

	if err := s.store.Put(ctx, rec); err != nil {
		return nil, qr.NewStoreUnavailableError(err)
	}
	s.cacheRecord(rec)
	s.metrics.IncCodesGenerated()
	s.logger.Infof(providers.TypeApp, "Code generated: %s, size: %d bytes", rec.ID, len(rec.Raster))

	return &GenerateResult{
		CodeID:       rec.ID,
		ImageBase64:  base64.StdEncoding.EncodeToString(rec.Raster),
		ImageDataURL: qr.DataURL(rec.Settings.Format, rec.Raster),
		QualityScore: rec.QualityScore,
		Fingerprint:  rec.Fingerprint,
		Settings:     rec.Settings,
		TemplateUsed: templateUsed,
		Warnings:     encoded.Warnings,
	}, nil
}

// Scan runs the verification pipeline. A failed decode is still recorded in
// the ledger with no record id so failure analytics see it; the NoCodeFound
// error then propagates to the caller.
func (s *QRService) Scan(ctx context.Context, params ScanParams) (*ScanResult, error) {
	imageBytes := params.ImageBytes
	if len(imageBytes) == 0 && params.ImageURL != "" {
		fetched, err := s.decoder.Fetch(ctx, params.ImageURL)
		if err != nil {
			return nil, err
		}
		imageBytes = fetched
	}
	if len(imageBytes) == 0 {
		return nil, qr.NewValidationError("either image bytes or an image url is required")
	}

	scanID := params.EventID
	if scanID == "" {
		scanID = newScanID()
	}
	now := time.Now().UTC()

	decoded, err := s.decoder.Decode(imageBytes)
	if err != nil {
		if qr.IsKind(err, qr.KindNoCodeFound) {
			event := &models.ScanEvent{
				EventID:    scanID,
				VerifierID: params.VerifierID,
				Timestamp:  now,
				Location:   params.Location,
				Device:     params.Device,
			}
			if _, appendErr := s.ledger.Append(ctx, event); appendErr != nil {
				s.logger.Warnf(providers.TypeApp, "failed to record no-code scan %s: %s", scanID, appendErr)
			}
			s.metrics.IncScans("no_code")
		}
		return nil, err
	}

	rec, err := s.resolveRecord(ctx, decoded)
	if err != nil {
		return nil, err
	}

	event := &models.ScanEvent{
		EventID:       scanID,
		Fingerprint:   decoded.Fingerprint,
		DecodedBytes:  decoded.Canonical,
		DecodeQuality: decoded.Confidence,
		VerifierID:    params.VerifierID,
		Timestamp:     now,
		Location:      params.Location,
		Device:        params.Device,
	}
	if rec != nil {
		event.RecordID = rec.ID
	}
	if _, err := s.ledger.Append(ctx, event); err != nil {
		return nil, err
	}

	result := &ScanResult{
		ScanID:      scanID,
		Payload:     decoded.Payload,
		Fingerprint: decoded.Fingerprint,
		Resolved:    rec != nil,
		ScanQuality: decoded.Confidence,
	}
	if rec != nil {
		s.metrics.IncScans("resolved")
		// Re-read so the response reflects the counters this scan just bumped.
		if fresh, err := s.store.Get(ctx, rec.ID); err == nil && fresh != nil {
			rec = fresh
		}
		result.Record = rec
		result.AssetDetails = s.fetchAssetDetails(ctx, rec.AssetID, params.AuthToken)
	} else {
		s.metrics.IncScans("unresolved")
	}

	s.logger.Infof(providers.TypeApp, "Code scanned: %s, quality: %.2f, resolved: %t", scanID, decoded.Confidence, rec != nil)
	return result, nil
}

func (s *QRService) GetRecord(ctx context.Context, id string) (*models.CodeRecord, error) {
	if data, ok := s.cache.Get("rec:" + id); ok {
		var rec models.CodeRecord
		if err := json.Unmarshal(data, &rec); err == nil {
			return &rec, nil
		}
	}
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, qr.NewStoreUnavailableError(err)
	}
	if rec != nil {
		s.cacheRecord(rec)
	}
	return rec, nil
}

func (s *QRService) RecentScans(ctx context.Context, recordID string, limit int) ([]*models.ScanEvent, error) {
	events, err := s.store.ScanEvents(ctx, recordID)
	if err != nil {
		return nil, qr.NewStoreUnavailableError(err)
	}
	// Newest first.
	out := make([]*models.ScanEvent, 0, limit)
	for i := len(events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, events[i])
	}
	return out, nil
}

func (s *QRService) Analytics(ctx context.Context, recordID string) (*ledger.Report, error) {
	return s.aggregator.Aggregate(ctx, recordID, time.Now().UTC())
}

func (s *QRService) RecordCount(ctx context.Context) int {
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0
	}
	return n
}

// resolveRecord consults the cache before the dedup resolver. The cache only
// answers identity; callers re-read the store for fresh counters.
func (s *QRService) resolveRecord(ctx context.Context, decoded *qr.Decoded) (*models.CodeRecord, error) {
	if data, ok := s.cache.Get("fp:" + decoded.Fingerprint); ok {
		var rec models.CodeRecord
		if err := json.Unmarshal(data, &rec); err == nil {
			return &rec, nil
		}
	}
	rec, err := s.resolver.Resolve(ctx, decoded.Fingerprint, decoded.Payload.AssetID())
	if err != nil {
		return nil, err
	}
	if rec != nil {
		s.cacheRecord(rec)
	}
	return rec, nil
}

func (s *QRService) fetchAssetDetails(ctx context.Context, assetID, authToken string) map[string]interface{} {
	if assetID == "" {
		return nil
	}
	details, err := s.registry.FetchAssetDetails(ctx, assetID, authToken)
	if err != nil {
		s.logger.Warnf(providers.TypeApp, "asset registry lookup for %s failed: %s", assetID, err)
		return nil
	}
	return details
}

func (s *QRService) cacheRecord(rec *models.CodeRecord) {
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	s.cache.Set("rec:"+rec.ID, data)
	s.cache.Set("fp:"+rec.Fingerprint, data)
}

func newCodeID() string {
	return "QR_" + shortID()
}

func newScanID() string {
	return "SCAN_" + shortID()
}

func shortID() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:16]
}
