package mapview

import "math"

// Palette colors from lowest to highest intensity.
var Palette = [5]string{"#007AFF", "#30D158", "#FF9F0A", "#FF6B35", "#FF453A"}

// Levels names each palette step.
var Levels = [5]string{"Very Low", "Low", "Medium", "High", "Very High"}

// Marker sizing in pixels.
const (
	MinMarkerSize  = 24
	MarkerSizeStep = 10
	SaturationSize = 5 // cluster size at which intensity and marker size stop growing
)

// Style is the visual encoding of a cluster.
type Style struct {
	Intensity float64 `json:"intensity"`
	Color     string  `json:"color"`
	Level     string  `json:"level"`
	Size      int     `json:"size"`
}

// StyleFor encodes a cluster of count reports.
func StyleFor(count int) Style {
	i := Intensity(count)
	return Style{
		Intensity: i,
		Color:     IntensityColor(i),
		Level:     IntensityLevel(i),
		Size:      MarkerSize(count),
	}
}

// Intensity normalizes a cluster size to [0, 1].
func Intensity(count int) float64 {
	return math.Min(float64(count)/SaturationSize, 1)
}

func step(intensity float64) int {
	switch {
	case intensity <= 0.2:
		return 0
	case intensity <= 0.4:
		return 1
	case intensity <= 0.6:
		return 2
	case intensity <= 0.8:
		return 3
	default:
		return 4
	}
}

// IntensityColor maps intensity to a palette color.
func IntensityColor(intensity float64) string { return Palette[step(intensity)] }

// IntensityLevel maps intensity to its label.
func IntensityLevel(intensity float64) string { return Levels[step(intensity)] }

// MarkerSize grows linearly from 24px for a single report to 64px at
// SaturationSize reports.
func MarkerSize(count int) int {
	c := min(max(count, 1), SaturationSize)
	return MinMarkerSize + MarkerSizeStep*(c-1)
}
