package mapview

import (
	"math"

	"github.com/couchcryptid/sightings/internal/domain"
)

// ClusterThreshold is the grouping distance in degrees (about 500m).
const ClusterThreshold = 0.005

// Cluster is a group of nearby reports drawn as one marker. Members[0] is
// the report that seeded the cluster.
type Cluster struct {
	Members []domain.Report
	Style   Style
}

// Representative returns the seed report.
func (c Cluster) Representative() domain.Report { return c.Members[0] }

// Count returns the number of reports in the cluster.
func (c Cluster) Count() int { return len(c.Members) }

// BuildClusters partitions reports by proximity. Each report not yet
// assigned seeds a cluster holding every other unassigned report within
// threshold degrees of it, so every report lands in exactly one cluster.
// Input order decides which report seeds each cluster.
func BuildClusters(reports []domain.Report, threshold float64) []Cluster {
	assigned := make([]bool, len(reports))
	var clusters []Cluster
	for i, seed := range reports {
		if assigned[i] {
			continue
		}
		assigned[i] = true
		members := []domain.Report{seed}
		for j := i + 1; j < len(reports); j++ {
			if assigned[j] {
				continue
			}
			if distance(seed, reports[j]) <= threshold {
				assigned[j] = true
				members = append(members, reports[j])
			}
		}
		clusters = append(clusters, Cluster{Members: members, Style: StyleFor(len(members))})
	}
	return clusters
}

// distance is the Euclidean distance in degree space.
func distance(a, b domain.Report) float64 {
	return math.Hypot(a.Latitude-b.Latitude, a.Longitude-b.Longitude)
}
