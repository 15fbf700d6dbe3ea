package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the canonical serialized form of report timestamps.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Field bounds for report input.
const (
	MinLocationLen    = 3
	MinDescriptionLen = 10
	MaxDescriptionLen = 500
)

// ErrMissingField is returned by gateways when a required field is empty.
var ErrMissingField = errors.New("missing required field")

// ErrNotFound is returned when a report id does not resolve to a record.
var ErrNotFound = errors.New("report not found")

// Report is a persisted sighting.
type Report struct {
	ID          string   `json:"id"`
	Location    string   `json:"location"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	Description string   `json:"description"`
	Timestamp   string   `json:"timestamp"`
	Images      []string `json:"images"`
}

// HasImages reports whether the report carries at least one image URL.
func (r Report) HasImages() bool { return len(r.Images) > 0 }

// Time parses the report timestamp. The second return is false when the
// timestamp cannot be parsed.
func (r Report) Time() (time.Time, bool) {
	t, err := ParseTimestamp(r.Timestamp)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ReportInput is the pre-persistence shape of a report. Images holds URLs
// already returned by the media gateway; local files travel separately
// until they are uploaded.
type ReportInput struct {
	Location    string   `json:"location" validate:"required,min=3"`
	Latitude    float64  `json:"latitude" validate:"min=-90,max=90"`
	Longitude   float64  `json:"longitude" validate:"min=-180,max=180"`
	Description string   `json:"description" validate:"required,min=10,max=500"`
	Timestamp   string   `json:"timestamp,omitempty"`
	Images      []string `json:"images,omitempty" validate:"omitempty,dive,url"`
}

// Normalized returns a copy with surrounding whitespace removed from the
// text fields.
func (in ReportInput) Normalized() ReportInput {
	in.Location = strings.TrimSpace(in.Location)
	in.Description = strings.TrimSpace(in.Description)
	in.Timestamp = strings.TrimSpace(in.Timestamp)
	return in
}

// ParseTimestamp accepts RFC 3339 with or without fractional seconds.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

// FormatTimestamp renders t in the canonical layout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// NormalizeTimestamp returns the canonical form of s, or of now when s is
// empty.
func NormalizeTimestamp(s string, now time.Time) (string, error) {
	if strings.TrimSpace(s) == "" {
		return FormatTimestamp(now), nil
	}
	t, err := ParseTimestamp(s)
	if err != nil {
		return "", err
	}
	return FormatTimestamp(t), nil
}

// DateRange bounds a report listing. Zero values are open ends.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Validate rejects inverted ranges.
func (r DateRange) Validate() error {
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return errors.New("date range end is before its start")
	}
	return nil
}

// IsZero reports whether both ends are open.
func (r DateRange) IsZero() bool { return r.From.IsZero() && r.To.IsZero() }

// CoordinateLabel formats a coordinate pair to four decimals.
func CoordinateLabel(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', 4, 64) + ", " + strconv.FormatFloat(lon, 'f', 4, 64)
}
