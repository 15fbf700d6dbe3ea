package mapview

import "github.com/couchcryptid/sightings/internal/domain"

// HeatGradient runs from transparent blue to dark red.
var HeatGradient = []string{
	"rgba(0, 122, 255, 0)",
	"rgba(0, 122, 255, 0.7)",
	"rgba(48, 209, 88, 0.7)",
	"rgba(255, 159, 10, 0.7)",
	"rgba(255, 107, 53, 0.7)",
	"rgba(255, 69, 58, 0.7)",
	"rgba(191, 10, 10, 0.8)",
}

// Heat layer rendering options.
const (
	HeatRadius  = 20
	HeatOpacity = 0.8
)

// HeatPoint is one weighted heat layer sample.
type HeatPoint struct {
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lng"`
	Weight float64 `json:"weight"`
}

// HeatLayer is the heatmap data plus its rendering options.
type HeatLayer struct {
	Points   []HeatPoint `json:"points"`
	Radius   int         `json:"radius"`
	Opacity  float64     `json:"opacity"`
	Gradient []string    `json:"gradient"`
}

// HeatPoints emits one point of weight 1 per report.
func HeatPoints(reports []domain.Report) []HeatPoint {
	points := make([]HeatPoint, len(reports))
	for i, r := range reports {
		points[i] = HeatPoint{Lat: r.Latitude, Lon: r.Longitude, Weight: 1}
	}
	return points
}

// NewHeatLayer builds the heat layer for reports.
func NewHeatLayer(reports []domain.Report) HeatLayer {
	return HeatLayer{
		Points:   HeatPoints(reports),
		Radius:   HeatRadius,
		Opacity:  HeatOpacity,
		Gradient: HeatGradient,
	}
}
