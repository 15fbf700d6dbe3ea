package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/couchcryptid/sightings/internal/domain"
)

var (
	// ErrGeocodingDisabled is returned by Resolve when no geocoder is configured.
	ErrGeocodingDisabled = errors.New("place search is not configured")
	// ErrNoMatch is returned by Resolve when the geocoder finds nothing.
	ErrNoMatch = errors.New("no place matches that search")
)

// Location is a resolved "use current location" result.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Label     string  `json:"label"`
	Resolved  bool    `json:"resolved"`
}

// Locate validates coordinates and resolves a human-readable label. Without
// a geocoder, or when the geocoder has no match, the label is the
// coordinate pair.
func (s *Service) Locate(ctx context.Context, lat, lon float64) (Location, error) {
	if err := domain.ValidateCoordinates(lat, lon); err != nil {
		return Location{}, err
	}
	loc := Location{Latitude: lat, Longitude: lon, Label: domain.CoordinateLabel(lat, lon)}
	if s.geocoder == nil {
		return loc, nil
	}

	place, err := s.geocoder.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		s.logger.Warn("reverse geocode failed", "lat", lat, "lon", lon, "error", err)
		return Location{}, fmt.Errorf("could not resolve your current location: %w", err)
	}
	if place.FormattedAddress != "" {
		loc.Label = place.FormattedAddress
		loc.Resolved = true
	}
	return loc, nil
}

// Resolve looks up a typed place name and returns its coordinates, so a
// reporter can fill the form from a search instead of the browser position.
func (s *Service) Resolve(ctx context.Context, query string) (Location, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		verr := &domain.ValidationError{}
		verr.Add("q", "Search text is required")
		return Location{}, verr
	}
	if s.geocoder == nil {
		return Location{}, ErrGeocodingDisabled
	}

	place, err := s.geocoder.ForwardGeocode(ctx, query)
	if err != nil {
		s.logger.Warn("forward geocode failed", "query", query, "error", err)
		return Location{}, fmt.Errorf("could not search for %q: %w", query, err)
	}
	if place.FormattedAddress == "" {
		return Location{}, ErrNoMatch
	}
	return Location{
		Latitude:  place.Lat,
		Longitude: place.Lon,
		Label:     place.FormattedAddress,
		Resolved:  true,
	}, nil
}
