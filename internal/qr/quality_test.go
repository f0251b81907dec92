package qr

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"

	"qrd/internal/providers"
)

// local test logger to avoid an import cycle with testutil
type qrTestLogger struct{}

func (m *qrTestLogger) Errorf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *qrTestLogger) Warnf(_ providers.TypeEnum, _ string, _ ...interface{})  {}
func (m *qrTestLogger) Debugf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *qrTestLogger) Infof(_ providers.TypeEnum, _ string, _ ...interface{})  {}
func (m *qrTestLogger) Fatalf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *qrTestLogger) Close()                                                  {}

func uniformImage(c color.Color, w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func checkerboard(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}
	return img
}

func TestScoreImage_UniformImage(t *testing.T) {
	qs := NewQualityScorer(&qrTestLogger{})
	// No deviation, no dynamic range: only the noise term contributes.
	assert.InDelta(t, 0.33, qs.ScoreImage(uniformImage(color.White, 16, 16)), 0.001)
}

func TestScoreImage_Checkerboard(t *testing.T) {
	qs := NewQualityScorer(&qrTestLogger{})
	// Full sharpness and contrast, saturated noise ratio.
	assert.InDelta(t, 0.67, qs.ScoreImage(checkerboard(16, 16)), 0.001)
}

func TestScoreImage_Deterministic(t *testing.T) {
	qs := NewQualityScorer(&qrTestLogger{})
	img := checkerboard(32, 32)
	assert.Equal(t, qs.ScoreImage(img), qs.ScoreImage(img))
}

func TestScoreImage_EmptyBoundsUsesNeutral(t *testing.T) {
	qs := NewQualityScorer(&qrTestLogger{})
	assert.Equal(t, 0.8, qs.ScoreImage(image.NewRGBA(image.Rect(0, 0, 0, 0))))
}

func TestScore_UndecodableRasterUsesNeutral(t *testing.T) {
	qs := NewQualityScorer(&qrTestLogger{})
	assert.Equal(t, 0.8, qs.Score([]byte("not an image")))
}

func TestScoreImage_WithinRange(t *testing.T) {
	qs := NewQualityScorer(&qrTestLogger{})
	for _, img := range []image.Image{
		uniformImage(color.Black, 8, 8),
		uniformImage(color.RGBA{R: 120, G: 90, B: 200, A: 255}, 8, 8),
		checkerboard(9, 9),
	} {
		score := qs.ScoreImage(img)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
	}
}

func TestGeometricConfidence_TooFewPoints(t *testing.T) {
	assert.Equal(t, 0.1, GeometricConfidence(nil))
	assert.Equal(t, 0.1, GeometricConfidence([][2]float64{{0, 0}, {1, 1}}))
}

func TestGeometricConfidence_Square(t *testing.T) {
	points := [][2]float64{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	assert.Equal(t, 1.0, GeometricConfidence(points))
}

func TestGeometricConfidence_SkewLowersConfidence(t *testing.T) {
	square := GeometricConfidence([][2]float64{{0, 0}, {10, 0}, {10, 10}, {0, 10}})
	skewed := GeometricConfidence([][2]float64{{0, 0}, {10, 0}, {10, 30}, {0, 10}})
	assert.Less(t, skewed, square)
	assert.GreaterOrEqual(t, skewed, 0.1)
}

func TestGeometricConfidence_CoincidentPoints(t *testing.T) {
	points := [][2]float64{{5, 5}, {5, 5}, {5, 5}}
	assert.Equal(t, 0.1, GeometricConfidence(points))
}
