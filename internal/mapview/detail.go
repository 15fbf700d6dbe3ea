package mapview

import (
	"github.com/couchcryptid/sightings/internal/domain"
	"github.com/couchcryptid/sightings/internal/gallery"
)

// MaxNearby is the number of other cluster members listed in a detail panel.
const MaxNearby = 2

// AreaSummary describes a multi-report cluster.
type AreaSummary struct {
	TotalReports int    `json:"total_reports"`
	Level        string `json:"level"`
	Color        string `json:"color"`
}

// Detail is the panel shown when a marker is selected.
type Detail struct {
	Report      domain.Report       `json:"report"`
	Coordinates string              `json:"coordinates"`
	Color       string              `json:"color"`
	Summary     *AreaSummary        `json:"summary,omitempty"`
	Nearby      []domain.Report     `json:"nearby"`
	MoreNearby  int                 `json:"more_nearby,omitempty"`
	Photos      []gallery.Thumbnail `json:"photos"`
	PhotoCount  int                 `json:"photo_count"`
}

// NewDetail builds the detail panel for a cluster.
func NewDetail(c Cluster) Detail {
	rep := c.Representative()
	d := Detail{
		Report:      rep,
		Coordinates: domain.CoordinateLabel(rep.Latitude, rep.Longitude),
		Color:       c.Style.Color,
		Nearby:      []domain.Report{},
		Photos:      gallery.Thumbnails(rep.Images),
		PhotoCount:  len(rep.Images),
	}
	if c.Count() > 1 {
		d.Summary = &AreaSummary{TotalReports: c.Count(), Level: c.Style.Level, Color: c.Style.Color}
		others := c.Members[1:]
		d.Nearby = append(d.Nearby, others[:min(len(others), MaxNearby)]...)
		d.MoreNearby = max(len(others)-MaxNearby, 0)
	}
	return d
}
