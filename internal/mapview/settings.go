package mapview

import "github.com/couchcryptid/sightings/internal/config"

// Default map position (Los Angeles).
const (
	DefaultCenterLat = 34.0522
	DefaultCenterLon = -118.2437
	DefaultZoom      = 9
)

// LatLng is a map coordinate.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Settings configures the client-side map. Without an API key the map is
// disabled while reporting stays available.
type Settings struct {
	APIKey  string `json:"api_key,omitempty"`
	Enabled bool   `json:"enabled"`
	Center  LatLng `json:"center"`
	Zoom    int    `json:"zoom"`
}

// NewSettings derives map settings from the service configuration.
func NewSettings(cfg *config.Config) Settings {
	s := Settings{
		APIKey: cfg.MapAPIKey,
		Center: LatLng{Lat: cfg.MapCenterLat, Lng: cfg.MapCenterLon},
		Zoom:   cfg.MapZoom,
	}
	if s.Center == (LatLng{}) {
		s.Center = LatLng{Lat: DefaultCenterLat, Lng: DefaultCenterLon}
	}
	if s.Zoom <= 0 {
		s.Zoom = DefaultZoom
	}
	s.Enabled = s.APIKey != ""
	return s
}
