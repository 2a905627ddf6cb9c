package calculus

import (
	"math"

	"github.com/verte-zerg/calcviz/internal/model"
)

var (
	// DefaultMinColor marks the smallest value of a series.
	DefaultMinColor = model.RGB{R: 0, G: 0, B: 255}
	// DefaultMaxColor marks the largest value of a series.
	DefaultMaxColor = model.RGB{R: 255, G: 0, B: 0}
)

// GradientColors maps each value to a color between minColor and maxColor,
// normalized against the finite min and max of values. A constant series,
// and any non-finite value, gets the midpoint of the two stops.
func GradientColors(values []float64, minColor, maxColor model.RGB) []model.RGB {
	out := make([]model.RGB, len(values))
	if len(values) == 0 {
		return out
	}
	lo, hi, ok := FiniteRange(values)
	span := hi - lo
	mid := blend(minColor, maxColor, 0.5)
	for i, v := range values {
		if !ok || span == 0 || !isFinite(v) {
			out[i] = mid
			continue
		}
		out[i] = blend(minColor, maxColor, (v-lo)/span)
	}
	return out
}

// GradientStrings is GradientColors formatted as rgb(r, g, b) strings.
func GradientStrings(values []float64, minColor, maxColor model.RGB) []string {
	colors := GradientColors(values, minColor, maxColor)
	out := make([]string, len(colors))
	for i, c := range colors {
		out[i] = c.String()
	}
	return out
}

// blend interpolates each channel in 0-255 space and rounds half away
// from zero.
func blend(from, to model.RGB, t float64) model.RGB {
	return model.RGB{R: channel(from.R, to.R, t), G: channel(from.G, to.G, t), B: channel(from.B, to.B, t)}
}

func channel(lo, hi uint8, t float64) uint8 {
	v := math.Round(float64(lo) + t*(float64(hi)-float64(lo)))
	return uint8(math.Max(0, math.Min(255, v)))
}
