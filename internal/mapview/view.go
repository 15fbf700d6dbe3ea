// Package mapview turns stored reports into map layers: a weighted heat
// layer, proximity clustered markers with detail panels, and grid based
// activity statistics.
package mapview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/sightings/internal/domain"
	"github.com/couchcryptid/sightings/internal/observability"
)

// Mode selects the map layer.
type Mode string

// Map layers.
const (
	ModeHeat    Mode = "heat"
	ModeMarkers Mode = "markers"
)

// FallbackMessage accompanies sample data shown when the store is down.
const FallbackMessage = "Using fallback map data"

// ErrDisabled is returned when no map API key is configured.
var ErrDisabled = errors.New("map visualization is not configured")

// ParseMode reads a mode query value. Empty selects the heat layer.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeHeat:
		return ModeHeat, nil
	case ModeMarkers:
		return ModeMarkers, nil
	default:
		return "", fmt.Errorf("unknown map mode %q", s)
	}
}

// Source lists reports in a date range.
type Source interface {
	List(ctx context.Context, r domain.DateRange) domain.ListResult
}

// Marker is one clustered map marker.
type Marker struct {
	ID        string  `json:"id"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Title     string  `json:"title"`
	Count     int     `json:"count"`
	HasImages bool    `json:"has_images"`
	Style     Style   `json:"style"`
	Detail    Detail  `json:"detail"`
}

// View is everything the map needs to render one date range.
type View struct {
	Mode     Mode            `json:"mode"`
	Settings Settings        `json:"settings"`
	Reports  []domain.Report `json:"reports"`
	Heat     *HeatLayer      `json:"heat,omitempty"`
	Markers  []Marker        `json:"markers,omitempty"`
	Stats    Stats           `json:"stats"`
	Sample   bool            `json:"sample"`
	Error    string          `json:"error,omitempty"`
}

// Service builds map views.
type Service struct {
	source   Source
	settings Settings
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewService creates a map view service.
func NewService(source Source, settings Settings, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{source: source, settings: settings, clock: clock, logger: logger, metrics: metrics}
}

// Settings returns the map settings.
func (s *Service) Settings() Settings { return s.settings }

// Build assembles the view for r in the requested mode. An empty store
// yields sample reports; an unreachable store yields fallback reports and
// FallbackMessage.
func (s *Service) Build(ctx context.Context, r domain.DateRange, mode Mode) (View, error) {
	if !s.settings.Enabled {
		return View{}, ErrDisabled
	}
	if err := r.Validate(); err != nil {
		return View{}, err
	}

	now := s.clock.Now()
	res := s.source.List(ctx, r)
	s.metrics.ListResults.WithLabelValues("map", res.Status.String()).Inc()

	v := View{Mode: mode, Settings: s.settings, Reports: res.Reports}
	switch res.Status {
	case domain.ListEmpty:
		v.Reports = domain.SampleReports(now)
		v.Sample = true
	case domain.ListUnavailable:
		s.logger.Warn("map data unavailable, using fallback", "error", res.Err)
		v.Reports = domain.FallbackReports(now)
		v.Sample = true
		v.Error = FallbackMessage
	}

	switch mode {
	case ModeMarkers:
		v.Markers = Markers(v.Reports)
	default:
		v.Mode = ModeHeat
		heat := NewHeatLayer(v.Reports)
		v.Heat = &heat
	}
	v.Stats = ComputeStats(v.Reports, now)
	return v, nil
}

// Markers clusters reports and renders one marker per cluster.
func Markers(reports []domain.Report) []Marker {
	clusters := BuildClusters(reports, ClusterThreshold)
	markers := make([]Marker, len(clusters))
	for i, c := range clusters {
		rep := c.Representative()
		markers[i] = Marker{
			ID:        rep.ID,
			Lat:       rep.Latitude,
			Lng:       rep.Longitude,
			Title:     rep.Location,
			Count:     c.Count(),
			HasImages: rep.HasImages(),
			Style:     c.Style,
			Detail:    NewDetail(c),
		}
	}
	return markers
}
