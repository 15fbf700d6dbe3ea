// Package domain models community sighting reports.
//
// # Reports
//
// A report is an immutable record of an observed sighting: a human-readable
// location label, WGS-84 coordinates, a free-text description, a timestamp,
// and zero or more image URLs. Reports are created once and never edited or
// deleted; the store assigns the identifier.
//
// Field bounds:
//
//	location     trimmed, at least 3 characters
//	latitude     -90..90
//	longitude    -180..180
//	description  trimmed, 10..500 characters
//	images       URLs returned by the media upload gateway, in display order
//
// # Timestamps
//
// Timestamps travel as ISO-8601 strings. They are normalized to UTC with
// millisecond precision ("2006-01-02T15:04:05.000Z", the layout browsers emit
// from Date.toISOString) so that lexical order in the document store matches
// chronological order and date-range filters can run as string comparisons.
// The timestamp is supplied by the submitter and echoed back; when absent the
// submission time is used. It is not server-authoritative.
//
// # List results
//
// Read paths return a [ListResult] tagged Ok, Empty, or Unavailable instead of
// substituting sample data. Each caller decides what an empty store or an
// unreachable store should look like: the map falls back to [SampleReports],
// the recent feed shows [SampleRecentReports] for an empty store and an error
// state when the store is unavailable.
package domain
