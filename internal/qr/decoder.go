package qr

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/draw"
	"io"
	"net/http"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/makiuchi-d/gozxing"
	zxqrcode "github.com/makiuchi-d/gozxing/qrcode"
	xdraw "golang.org/x/image/draw"

	"qrd/internal/models"
	"qrd/internal/providers"
	"qrd/internal/structures"
)

const (
	defaultMaxWorkingDim = 800
	maxRemoteImageBytes  = 16 << 20
)

// Decoded is the outcome of one successful decode attempt.
type Decoded struct {
	Payload     models.Payload
	Canonical   []byte
	Fingerprint string
	Confidence  float64
}

// Decoder turns a captured raster back into a payload. Side-effect free and
// safe for concurrent use; only the remote-image fetch can block.
type Decoder struct {
	conf   *structures.Config
	logger providers.Logger
	client *http.Client
}

func NewDecoder(conf *structures.Config, logger providers.Logger) *Decoder {
	timeout := conf.Decoder.FetchTimeout
	return &Decoder{
		conf:   conf,
		logger: logger,
		client: &http.Client{Timeout: timeout},
	}
}

// Decode normalizes the input image, locates and decodes the code region and
// derives geometric confidence from the detected corner points.
func (d *Decoder) Decode(imageBytes []byte) (*Decoded, error) {
	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, NewValidationError("unreadable image: %s", err)
	}

	gray := d.normalize(img)

	bmp, err := gozxing.NewBinaryBitmapFromImage(gray)
	if err != nil {
		return nil, NewNoCodeFoundError(err)
	}

	result, err := zxqrcode.NewQRCodeReader().Decode(bmp, nil)
	if err != nil {
		return nil, NewNoCodeFoundError(err)
	}

	payload := models.ParsePayload([]byte(result.GetText()))
	canonical, err := payload.Canonical()
	if err != nil {
		// Structured parse succeeded but canonicalization did not; keep the
		// raw bytes so the event is still attributable.
		payload = models.Payload{Raw: []byte(result.GetText())}
		canonical = payload.Raw
	}

	return &Decoded{
		Payload:     payload,
		Canonical:   canonical,
		Fingerprint: Fingerprint(canonical),
		Confidence:  confidenceFromResult(result),
	}, nil
}

// Fetch downloads a remote image reference for decoding.
func (d *Decoder) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, NewValidationError("bad image url: %s", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, NewValidationError("image fetch failed: %s", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, NewValidationError("image fetch returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteImageBytes))
	if err != nil {
		return nil, NewValidationError("image fetch read failed: %s", err)
	}
	return data, nil
}

// normalize bounds the working dimension and converts to single-channel
// intensity before localization.
func (d *Decoder) normalize(img image.Image) *image.Gray {
	maxDim := d.conf.Decoder.MaxWorkingDim
	if maxDim <= 0 {
		maxDim = defaultMaxWorkingDim
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > maxDim || h > maxDim {
		scale := float64(maxDim) / float64(max(w, h))
		dw := int(float64(w) * scale)
		dh := int(float64(h) * scale)
		scaled := image.NewRGBA(image.Rect(0, 0, dw, dh))
		xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, b, xdraw.Src, nil)
		img = scaled
		b = img.Bounds()
	}

	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

func confidenceFromResult(result *gozxing.Result) float64 {
	pts := result.GetResultPoints()
	points := make([][2]float64, 0, len(pts))
	for _, p := range pts {
		if p == nil {
			continue
		}
		points = append(points, [2]float64{p.GetX(), p.GetY()})
	}
	return GeometricConfidence(points)
}

// DataURL renders raster bytes as an inline data URL for immediate display.
func DataURL(format string, raster []byte) string {
	return fmt.Sprintf("data:image/%s;base64,%s",
		strings.ToLower(format), base64.StdEncoding.EncodeToString(raster))
}
