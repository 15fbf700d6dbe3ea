package domain

import "time"

type sample struct {
	id          string
	location    string
	lat, lon    float64
	description string
	age         time.Duration
	images      []string
}

var sampleReports = []sample{
	{
		id: "mock-1", location: "Downtown LA - Union Station", lat: 34.056, lon: -118.2368,
		description: "Multiple ICE vehicles observed in the parking structure. Officers checking IDs of passengers.",
		age:         2 * time.Hour,
		images:      []string{"https://picsum.photos/800/600?random=1001", "https://picsum.photos/800/600?random=1002"},
	},
	{
		id: "mock-2", location: "East LA - Whittier Blvd & Atlantic", lat: 34.0242, lon: -118.1739,
		description: "Checkpoint setup on major boulevard. Multiple unmarked vehicles conducting stops.",
		age:         7 * time.Hour,
		images:      []string{"https://picsum.photos/800/600?random=1013", "https://picsum.photos/800/600?random=1014"},
	},
	{
		id: "mock-3", location: "Hollywood - Highland & Sunset", lat: 34.1016, lon: -118.339,
		description: "ICE presence near Metro station. Two vehicles with officers observing foot traffic.",
		age:         15 * time.Hour,
	},
	{
		id: "mock-4", location: "South LA - Crenshaw & Slauson", lat: 33.9898, lon: -118.3351,
		description: "Officers stationed outside community center during ESL classes.",
		age:         10 * time.Hour,
		images:      []string{"https://picsum.photos/800/600?random=1022"},
	},
	{
		id: "mock-5", location: "Koreatown - Wilshire & Western", lat: 34.0619, lon: -118.309,
		description: "ICE activity at apartment complex. Residents report officers asking for documentation.",
		age:         14 * time.Hour,
	},
}

var sampleRecent = []sample{
	{
		id: "mock-recent-1", location: "Downtown LA - Union Station", lat: 34.056, lon: -118.2368,
		description: "Multiple ICE vehicles observed in the parking structure. Officers checking IDs of passengers.",
		age:         2 * time.Hour,
		images:      []string{"https://picsum.photos/800/600?random=1001"},
	},
	{
		id: "mock-recent-2", location: "East LA - Whittier Blvd & Atlantic", lat: 34.0242, lon: -118.1739,
		description: "Checkpoint setup on major boulevard. Multiple unmarked vehicles conducting stops.",
		age:         7 * time.Hour,
		images:      []string{"https://picsum.photos/800/600?random=1013"},
	},
}

// SampleReports returns the fixed sample set shown on the map when the store
// is empty. Timestamps are relative to now.
func SampleReports(now time.Time) []Report {
	return materialize(sampleReports, now)
}

// SampleRecentReports returns the fixed sample set shown in the recent feed
// when the store is empty.
func SampleRecentReports(now time.Time) []Report {
	return materialize(sampleRecent, now)
}

// FallbackReports returns the single placeholder record shown on the map when
// the store cannot be reached. It sits on the default map center.
func FallbackReports(now time.Time) []Report {
	return []Report{{
		ID:          "fallback-1",
		Location:    "Fallback Data (Error)",
		Latitude:    34.0522,
		Longitude:   -118.2437,
		Description: "Fallback data due to a report store error.",
		Timestamp:   FormatTimestamp(now),
		Images:      []string{},
	}}
}

// FindSample looks up a sample or fallback record by id.
func FindSample(id string, now time.Time) (Report, bool) {
	for _, set := range [][]Report{SampleReports(now), SampleRecentReports(now), FallbackReports(now)} {
		for _, r := range set {
			if r.ID == id {
				return r, true
			}
		}
	}
	return Report{}, false
}

func materialize(samples []sample, now time.Time) []Report {
	out := make([]Report, 0, len(samples))
	for _, s := range samples {
		images := make([]string, len(s.images))
		copy(images, s.images)
		out = append(out, Report{
			ID:          s.id,
			Location:    s.location,
			Latitude:    s.lat,
			Longitude:   s.lon,
			Description: s.description,
			Timestamp:   FormatTimestamp(now.Add(-s.age)),
			Images:      images,
		})
	}
	return out
}
