package ledger

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"qrd/internal/models"
	"qrd/internal/qr"
	"qrd/internal/store"
)

// frequencyWindow is the trailing window for the scans-per-day rate.
const frequencyWindow = 30 * 24 * time.Hour

// Report is the on-demand analytics view over a record's scan history.
type Report struct {
	TotalScans           int             `json:"total_scans"`
	UniqueVerifiers      int             `json:"unique_verifiers"`
	AverageScanQuality   float64         `json:"average_scan_quality"`
	ScansPerDay          float64         `json:"scans_per_day"`
	DeviceDistribution   map[string]int  `json:"device_distribution"`
	LocationDistribution map[string]int  `json:"location_distribution"`
	HourlyDistribution   map[int]int     `json:"hourly_distribution"`
}

// Aggregator derives usage statistics from the scan event history. Read-only:
// it works off the store's event snapshot and is safe to run concurrently
// with ledger writers.
type Aggregator struct {
	events store.ScanEventStore
}

func NewAggregator(events store.ScanEventStore) *Aggregator {
	return &Aggregator{events: events}
}

func (a *Aggregator) Aggregate(ctx context.Context, recordID string, now time.Time) (*Report, error) {
	events, err := a.events.ScanEvents(ctx, recordID)
	if err != nil {
		return nil, qr.NewStoreUnavailableError(err)
	}

	report := &Report{
		TotalScans:           len(events),
		DeviceDistribution:   make(map[string]int),
		LocationDistribution: make(map[string]int),
		HourlyDistribution:   make(map[int]int),
	}

	verifiers := make(map[string]struct{})
	var qualitySum float64
	var recent int
	windowStart := now.Add(-frequencyWindow)

	for _, e := range events {
		if e.VerifierID != "" {
			verifiers[e.VerifierID] = struct{}{}
		}
		qualitySum += e.DecodeQuality
		if !e.Timestamp.Before(windowStart) {
			recent++
		}
		report.DeviceDistribution[classifyDevice(e.Device.UserAgent)]++
		if e.Location != nil {
			report.LocationDistribution[locationBucket(e.Location)]++
		}
		report.HourlyDistribution[e.Timestamp.UTC().Hour()]++
	}

	report.UniqueVerifiers = len(verifiers)
	if len(events) > 0 {
		report.AverageScanQuality = qualitySum / cast.ToFloat64(len(events))
	}
	report.ScansPerDay = float64(recent) / (frequencyWindow.Hours() / 24)

	return report, nil
}

// classifyDevice maps a user-agent string to a coarse device class.
func classifyDevice(userAgent string) string {
	ua := strings.ToLower(userAgent)
	switch {
	case strings.Contains(ua, "mobile"):
		return "mobile"
	case strings.Contains(ua, "tablet"):
		return "tablet"
	case strings.Contains(ua, "desktop"):
		return "desktop"
	default:
		return "unknown"
	}
}

// locationBucket rounds coordinates to two decimal places, roughly a
// kilometer of spatial resolution.
func locationBucket(loc *models.Location) string {
	lat := strconv.Itoa(int(roundCoord(loc.Latitude)))
	lon := strconv.Itoa(int(roundCoord(loc.Longitude)))
	return lat + "," + lon
}

func roundCoord(v float64) float64 {
	if v < 0 {
		return float64(int(v*100 - 0.5))
	}
	return float64(int(v*100 + 0.5))
}
