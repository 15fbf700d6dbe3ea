package mapview

import (
	"math"
	"time"

	"github.com/couchcryptid/sightings/internal/domain"
)

// StatsGridSize is the cell size in degrees used for activity statistics.
// It is a separate grouping from marker clustering and the two may
// disagree about what counts as "nearby".
const StatsGridSize = 0.01

// Stats summarizes activity across the visible reports.
type Stats struct {
	Hotspots     int `json:"hotspots"`
	TotalReports int `json:"total_reports"`
	AvgIntensity int `json:"avg_intensity"`
}

type cell struct{ lat, lon int64 }

// ComputeStats snaps reports to a 0.01 degree grid. Reports dated after now
// or with unreadable timestamps are ignored. A hotspot is a cell with two or
// more reports; AvgIntensity is the mean reports per occupied cell times ten,
// rounded.
func ComputeStats(reports []domain.Report, now time.Time) Stats {
	cells := make(map[cell]int)
	total := 0
	for _, r := range reports {
		t, ok := r.Time()
		if !ok || t.After(now) {
			continue
		}
		total++
		cells[cell{lat: roundHalfUp(r.Latitude / StatsGridSize), lon: roundHalfUp(r.Longitude / StatsGridSize)}]++
	}
	if total == 0 {
		return Stats{}
	}

	hotspots := 0
	for _, n := range cells {
		if n >= 2 {
			hotspots++
		}
	}
	mean := float64(total) / float64(len(cells))
	return Stats{
		Hotspots:     hotspots,
		TotalReports: total,
		AvgIntensity: int(roundHalfUp(mean * 10)),
	}
}

// roundHalfUp rounds halves toward positive infinity.
func roundHalfUp(x float64) int64 {
	return int64(math.Floor(x + 0.5))
}
