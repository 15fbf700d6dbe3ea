package domain

import "context"

// Place is a geocoding result.
type Place struct {
	Lat              float64
	Lon              float64
	FormattedAddress string
	PlaceName        string
	Confidence       float64 // 0.0–1.0 provider confidence score
}

// Geocoder resolves coordinates to place labels and back.
type Geocoder interface {
	// ForwardGeocode converts a free-text location to coordinates.
	ForwardGeocode(ctx context.Context, query string) (Place, error)

	// ReverseGeocode converts coordinates to place details.
	ReverseGeocode(ctx context.Context, lat, lon float64) (Place, error)
}
