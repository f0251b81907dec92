package qr

import (
	"bytes"
	"image"
	"math"

	"qrd/internal/providers"
)

// neutralQuality is substituted whenever scoring cannot run; quality scoring
// degrading must never block generation or verification.
const neutralQuality = 0.8

// QualityScorer derives a [0,1] legibility score from a raster. It never
// fails: any internal error logs a warning and yields the neutral default.
type QualityScorer struct {
	logger providers.Logger
}

func NewQualityScorer(logger providers.Logger) *QualityScorer {
	return &QualityScorer{logger: logger}
}

// Score decodes raster bytes and scores the resulting image.
func (qs *QualityScorer) Score(raster []byte) float64 {
	img, _, err := image.Decode(bytes.NewReader(raster))
	if err != nil {
		qs.logger.Warnf(providers.TypeApp, "quality scoring failed, using neutral default: %s", err)
		return neutralQuality
	}
	return qs.ScoreImage(img)
}

// ScoreImage combines three sub-scores over the grayscale intensity plane:
// sharpness (normalized deviation), contrast (normalized dynamic range) and
// noise (normalized deviation-to-mean ratio). The result is deterministic for
// identical pixels, clamped to [0,1] and rounded to two decimals.
func (qs *QualityScorer) ScoreImage(img image.Image) float64 {
	mean, stddev, minV, maxV, n := intensityStats(img)
	if n == 0 {
		qs.logger.Warnf(providers.TypeApp, "quality scoring saw an empty image, using neutral default")
		return neutralQuality
	}

	sharpness := math.Min(1.0, stddev/50.0)
	contrast := math.Min(1.0, (maxV-minV)/255.0)
	noise := 1.0
	if mean > 0 {
		noise = math.Min(1.0, (stddev/mean)*2.0)
	}

	score := (sharpness + contrast + (1.0 - noise)) / 3.0
	return round2(clamp(score, 0.0, 1.0))
}

// intensityStats walks the image once, converting to 8-bit grayscale.
func intensityStats(img image.Image) (mean, stddev, minV, maxV float64, n int) {
	bounds := img.Bounds()
	minV = 255.0

	var sum, sumSq float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			// ITU-R BT.601 luma over 16-bit channels, scaled to 8-bit.
			v := (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 257.0
			sum += v
			sumSq += v * v
			if v < minV {
				minV = v
			}
			if v > maxV {
				maxV = v
			}
			n++
		}
	}
	if n == 0 {
		return 0, 0, 0, 0, 0
	}
	mean = sum / float64(n)
	variance := sumSq/float64(n) - mean*mean
	if variance < 0 {
		variance = 0
	}
	stddev = math.Sqrt(variance)
	return mean, stddev, minV, maxV, n
}

// GeometricConfidence derives decode confidence from the consistency of the
// detected corner points. A perfectly square detection keeps confidence at
// 1.0; growing deviation between the pairwise point distances lowers it, with
// a floor of 0.1.
func GeometricConfidence(points [][2]float64) float64 {
	if len(points) < 3 {
		return 0.1
	}

	dists := make([]float64, 0, len(points))
	for i := range points {
		next := points[(i+1)%len(points)]
		dx := points[i][0] - next[0]
		dy := points[i][1] - next[1]
		dists = append(dists, math.Hypot(dx, dy))
	}

	var sum float64
	for _, d := range dists {
		sum += d
	}
	meanDist := sum / float64(len(dists))
	if meanDist <= 0 {
		return 0.1
	}

	var dev float64
	for _, d := range dists {
		dev += math.Abs(d - meanDist)
	}
	dev /= float64(len(dists)) * meanDist

	return clamp(1.0-dev, 0.1, 1.0)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
