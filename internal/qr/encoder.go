package qr

import (
	"bytes"
	"image"
	"image/png"

	qrcode "github.com/skip2/go-qrcode"

	"qrd/internal/models"
	"qrd/internal/providers"
	"qrd/internal/structures"
)

const (
	minSize = 64
	maxSize = 4096
)

// levelRank orders error-correction levels by resilience.
var levelRank = map[string]int{"L": 0, "M": 1, "Q": 2, "H": 3}

// levelCapacity is the binary-mode payload capacity per level (version 40).
var levelCapacity = map[string]int{"L": 2953, "M": 2331, "Q": 1663, "H": 1273}

var recoveryLevels = map[string]qrcode.RecoveryLevel{
	"L": qrcode.Low,
	"M": qrcode.Medium,
	"Q": qrcode.High,
	"H": qrcode.Highest,
}

// GenerateRequest carries a structured payload plus optional template
// reference and override settings. Zero-valued settings mean "not requested".
type GenerateRequest struct {
	Payload    models.Payload
	TemplateID string
	Size       int
	Level      string
	Format     string
	Foreground string
	Background string
	Margin     *bool
}

// Encoded is the result of one encode: raster bytes plus everything the
// caller needs to persist the record. The encoder itself has no side effects.
type Encoded struct {
	Canonical   []byte
	Fingerprint string
	Raster      []byte
	Quality     float64
	Settings    models.RenderSettings
	Template    *models.TemplateDescriptor
	Warnings    []string
}

type Encoder struct {
	conf      *structures.Config
	templates TemplateProvider
	scorer    *QualityScorer
	logger    providers.Logger
}

func NewEncoder(conf *structures.Config, templates TemplateProvider, scorer *QualityScorer, logger providers.Logger) *Encoder {
	return &Encoder{
		conf:      conf,
		templates: templates,
		scorer:    scorer,
		logger:    logger,
	}
}

// Encode validates the request, resolves settings (overrides > template
// defaults > system defaults), renders the code, optionally applies the
// template composition and scores the result. Composition failures degrade to
// the undecorated raster with a recorded warning.
func (e *Encoder) Encode(req GenerateRequest) (*Encoded, error) {
	if req.Payload.Empty() {
		return nil, NewValidationError("payload must not be empty")
	}
	if req.Payload.IsStructured() && !hasIdentifyingField(req.Payload) {
		return nil, NewValidationError("payload must carry at least one non-empty identifying field")
	}
	if req.Size != 0 && (req.Size < minSize || req.Size > maxSize) {
		return nil, NewValidationError("size %d outside supported range [%d,%d]", req.Size, minSize, maxSize)
	}
	if req.Level != "" {
		if _, ok := levelRank[req.Level]; !ok {
			return nil, NewValidationError("unsupported error-correction level %q", req.Level)
		}
	}
	if req.Format != "" && req.Format != "PNG" && req.Format != "png" {
		return nil, NewValidationError("unsupported output format %q", req.Format)
	}

	canonical, err := req.Payload.Canonical()
	if err != nil {
		return nil, NewValidationError("payload cannot be canonicalized: %s", err)
	}

	var template *models.TemplateDescriptor
	if req.TemplateID != "" {
		template = e.templates.Resolve(req.TemplateID)
		if template == nil {
			return nil, NewTemplateNotFoundError(req.TemplateID)
		}
	}

	settings := e.resolveSettings(req, template, len(canonical))

	if len(canonical) > levelCapacity[settings.Level] {
		return nil, NewValidationError(
			"payload of %d bytes exceeds level %s capacity of %d bytes",
			len(canonical), settings.Level, levelCapacity[settings.Level])
	}

	code, err := qrcode.New(string(canonical), recoveryLevels[settings.Level])
	if err != nil {
		return nil, NewValidationError("payload cannot be encoded: %s", err)
	}
	code.ForegroundColor = parseColor(settings.Foreground, defaultForeground)
	code.BackgroundColor = parseColor(settings.Background, defaultBackground)
	code.DisableBorder = !settings.Margin

	img := code.Image(settings.Size)

	var warnings []string
	if template != nil && template.CustomDesign {
		composed, composeErr := ComposeTemplate(img, template)
		if composeErr != nil {
			e.logger.Warnf(providers.TypeApp, "template %s composition failed, falling back to base raster: %s", template.ID, composeErr)
			warnings = append(warnings, "template composition failed, base raster used")
		} else {
			img = composed
		}
	}

	raster, err := encodePNG(img)
	if err != nil {
		return nil, NewValidationError("raster encoding failed: %s", err)
	}

	return &Encoded{
		Canonical:   canonical,
		Fingerprint: Fingerprint(canonical),
		Raster:      raster,
		Quality:     e.scorer.ScoreImage(img),
		Settings:    settings,
		Template:    template,
		Warnings:    warnings,
	}, nil
}

// resolveSettings applies the resolution order and, when the caller did not
// request a level, escalates error correction as a deterministic step
// function of canonical payload length.
func (e *Encoder) resolveSettings(req GenerateRequest, template *models.TemplateDescriptor, payloadLen int) models.RenderSettings {
	settings := models.RenderSettings{
		Size:       e.conf.Encoder.DefaultSize,
		Level:      e.conf.Encoder.DefaultLevel,
		Format:     "PNG",
		Foreground: e.conf.Encoder.DefaultForeground,
		Background: e.conf.Encoder.DefaultBackground,
		Margin:     true,
	}
	if settings.Size == 0 {
		settings.Size = 400
	}
	if settings.Level == "" {
		settings.Level = "M"
	}

	if template != nil {
		if template.Level != "" {
			settings.Level = template.Level
		}
		if template.Foreground != "" {
			settings.Foreground = template.Foreground
		}
		if template.Background != "" {
			settings.Background = template.Background
		}
	}

	if req.Level != "" {
		settings.Level = req.Level
	} else {
		settings.Level = maxLevel(settings.Level, autoLevel(payloadLen))
	}
	if req.Size != 0 {
		settings.Size = req.Size
	}
	if req.Foreground != "" {
		settings.Foreground = req.Foreground
	}
	if req.Background != "" {
		settings.Background = req.Background
	}
	if req.Margin != nil {
		settings.Margin = *req.Margin
	}

	return settings
}

// autoLevel maps payload length to a minimum error-correction level. The
// thresholds are monotone: longer payloads never select a lower level.
func autoLevel(payloadLen int) string {
	switch {
	case payloadLen > 1024:
		return "H"
	case payloadLen > 256:
		return "Q"
	default:
		return "M"
	}
}

func maxLevel(a, b string) string {
	if levelRank[b] > levelRank[a] {
		return b
	}
	return a
}

func hasIdentifyingField(p models.Payload) bool {
	if p.AssetID() != "" {
		return true
	}
	for _, v := range p.Fields {
		if s, ok := v.(string); ok && s != "" {
			return true
		}
	}
	return false
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
