package controllers

import (
	"encoding/base64"
	"net/http"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"qrd/internal/models"
	"qrd/internal/providers"
	"qrd/internal/qr"
	"qrd/internal/services"
)

const (
	maxRequestBodySize     = 1 << 20  // 1 MB
	maxScanRequestBodySize = 50 << 20 // 50 MB, base64 image payloads are bulky
	defaultRecentScans     = 20
)

type ApiController struct {
	logger  providers.Logger
	service services.QRServiceInterface
	cache   providers.CacheProviderInterface
}

func NewApiController(logger providers.Logger, service services.QRServiceInterface, cache providers.CacheProviderInterface) *ApiController {
	return &ApiController{
		logger:  logger,
		service: service,
		cache:   cache,
	}
}

func (ac *ApiController) Generate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var body models.GenerateRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		ac.writeError(w, qr.NewValidationError("request body is not valid JSON"))
		return
	}

	result, err := ac.service.Generate(r.Context(), services.GenerateParams{
		Payload:    body.Payload,
		TemplateID: body.TemplateID,
		Size:       body.Size,
		Level:      body.Level,
		Format:     body.Format,
		Foreground: body.Foreground,
		Background: body.Background,
		Margin:     body.Margin,
	})
	if err != nil {
		ac.writeError(w, err)
		return
	}

	ac.writeJSON(w, http.StatusCreated, &models.GenerateResponse{
		ID:           result.CodeID,
		ImageData:    result.ImageBase64,
		ImageDataURL: result.ImageDataURL,
		QualityScore: result.QualityScore,
		Fingerprint:  result.Fingerprint,
		Settings:     result.Settings,
		Template:     result.TemplateUsed,
		Warnings:     result.Warnings,
	})
}

func (ac *ApiController) Scan(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxScanRequestBodySize)
	var body models.ScanRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		ac.writeError(w, qr.NewValidationError("request body is not valid JSON"))
		return
	}

	imageBytes, err := decodeImageData(body.ImageData)
	if err != nil {
		ac.writeError(w, err)
		return
	}

	result, err := ac.service.Scan(r.Context(), services.ScanParams{
		ImageBytes: imageBytes,
		ImageURL:   body.ImageURL,
		EventID:    body.EventID,
		VerifierID: body.VerifierID,
		AuthToken:  r.Header.Get("Authorization"),
		Location:   body.Location,
		Device:     deviceFromRequest(r),
	})
	if err != nil {
		ac.writeError(w, err)
		return
	}

	ac.writeJSON(w, http.StatusOK, &models.ScanResponse{
		ScanID:       result.ScanID,
		Resolved:     result.Resolved,
		Payload:      result.Payload.View(),
		Fingerprint:  result.Fingerprint,
		ScanQuality:  result.ScanQuality,
		Record:       models.NewCodeRecordView(result.Record),
		AssetDetails: result.AssetDetails,
	})
}

func (ac *ApiController) GetCode(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		ac.writeError(w, qr.NewValidationError("id query parameter is required"))
		return
	}

	rec, err := ac.service.GetRecord(r.Context(), id)
	if err != nil {
		ac.writeError(w, err)
		return
	}
	if rec == nil {
		ac.writeJSON(w, http.StatusNotFound, &models.ErrorResponse{
			Error:   "not_found",
			Message: "no code with id " + id,
		})
		return
	}

	resp := &models.CodeDetailResponse{Record: models.NewCodeRecordView(rec)}
	if boolParam(r, "include_image") {
		resp.ImageDataURL = qr.DataURL(rec.Settings.Format, rec.Raster)
	}
	if boolParam(r, "include_scans") {
		events, err := ac.service.RecentScans(r.Context(), id, scanLimit(r))
		if err != nil {
			ac.writeError(w, err)
			return
		}
		views := make([]*models.ScanEventView, 0, len(events))
		for _, event := range events {
			views = append(views, models.NewScanEventView(event))
		}
		resp.Scans = views
	}
	if boolParam(r, "include_analytics") {
		report, err := ac.service.Analytics(r.Context(), id)
		if err != nil {
			ac.writeError(w, err)
			return
		}
		resp.Analytics = report
	}

	ac.writeJSON(w, http.StatusOK, resp)
}

func (ac *ApiController) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		ac.writeError(w, qr.NewValidationError("id query parameter is required"))
		return
	}
	ac.serveFromCacheOrCompute(w, r, "analytics:"+id, func() (any, error) {
		return ac.service.Analytics(r.Context(), id)
	})
}

// serveFromCacheOrCompute answers from the response cache when it can,
// otherwise computes, caches and writes the result.
func (ac *ApiController) serveFromCacheOrCompute(w http.ResponseWriter, r *http.Request, cacheKey string, compute func() (any, error)) {
	if data, ok := ac.cache.Get(cacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	result, err := compute()
	if err != nil {
		ac.writeError(w, err)
		return
	}

	gson, err := json.Marshal(result)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	ac.cache.Set(cacheKey, gson)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

func (ac *ApiController) writeJSON(w http.ResponseWriter, status int, body any) {
	gson, err := json.Marshal(body)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}

func (ac *ApiController) writeError(w http.ResponseWriter, err error) {
	kind := qr.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case qr.KindValidation, qr.KindNoCodeFound:
		status = http.StatusBadRequest
	case qr.KindTemplateNotFound:
		status = http.StatusNotFound
	case qr.KindStoreUnavailable:
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		ac.logger.Errorf(providers.TypeApp, "request failed: %s", err)
		kind = "internal_error"
	}
	ac.writeJSON(w, status, &models.ErrorResponse{Error: string(kind), Message: err.Error()})
}

// decodeImageData accepts plain base64 or a full data URL.
func decodeImageData(data string) ([]byte, error) {
	if data == "" {
		return nil, nil
	}
	if idx := strings.Index(data, ","); idx >= 0 && strings.HasPrefix(data, "data:") {
		data = data[idx+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, qr.NewValidationError("image_data is not valid base64")
	}
	return raw, nil
}

func deviceFromRequest(r *http.Request) models.DeviceInfo {
	return models.DeviceInfo{
		UserAgent:  r.Header.Get("User-Agent"),
		Platform:   strings.Trim(r.Header.Get("Sec-CH-UA-Platform"), `"`),
		RemoteAddr: r.RemoteAddr,
	}
}

func boolParam(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return v
}

func scanLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return defaultRecentScans
	}
	return n
}
