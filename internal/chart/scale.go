package chart

import (
	"math"

	"github.com/verte-zerg/calcviz/internal/calculus"
	"github.com/verte-zerg/calcviz/internal/model"
)

// RangePadding is the fraction of the value span added above and below.
const RangePadding = 0.1

// Margin is the space around the plot area, in device units.
type Margin struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// Layout is the size of the drawing surface.
type Layout struct {
	Width  float64
	Height float64
	Margin Margin
}

// DefaultLayout is an 800x500 surface.
func DefaultLayout() Layout {
	return Layout{
		Width:  800,
		Height: 500,
		Margin: Margin{Top: 40, Right: 40, Bottom: 60, Left: 60},
	}
}

// InnerWidth is the plot area width.
func (l Layout) InnerWidth() float64 {
	return math.Max(1, l.Width-l.Margin.Left-l.Margin.Right)
}

// InnerHeight is the plot area height.
func (l Layout) InnerHeight() float64 {
	return math.Max(1, l.Height-l.Margin.Top-l.Margin.Bottom)
}

// Scale maps the interval [D0, D1] linearly onto [R0, R1].
type Scale struct {
	D0, D1 float64
	R0, R1 float64
}

// Map converts a data value to device units.
func (s Scale) Map(v float64) float64 {
	if s.D1 == s.D0 {
		return s.R0
	}
	return s.R0 + (v-s.D0)/(s.D1-s.D0)*(s.R1-s.R0)
}

// Invert converts device units back to a data value.
func (s Scale) Invert(px float64) float64 {
	if s.R1 == s.R0 {
		return s.D0
	}
	return s.D0 + (px-s.R0)/(s.R1-s.R0)*(s.D1-s.D0)
}

// XScale maps the domain onto the plot area width.
func XScale(d model.Domain, l Layout) Scale {
	return Scale{D0: d.XMin, D1: d.XMax, R0: l.Margin.Left, R1: l.Margin.Left + l.InnerWidth()}
}

// YScale maps [lo, hi] onto the plot area height, inverted so larger values
// sit higher.
func YScale(lo, hi float64, l Layout) Scale {
	return Scale{D0: lo, D1: hi, R0: l.Margin.Top + l.InnerHeight(), R1: l.Margin.Top}
}

// ValueRange returns the padded range over the finite values of series.
// A flat series is widened by one unit each way; no finite values yields
// [-1, 1].
func ValueRange(series ...[]float64) (lo, hi float64) {
	lo, hi, ok := calculus.FiniteRange(series...)
	if !ok {
		return -1, 1
	}
	if math.Abs(hi-lo) < 1e-12 {
		return lo - 1, hi + 1
	}
	pad := (hi - lo) * RangePadding
	return lo - pad, hi + pad
}

// Point is a position in data coordinates.
type Point struct {
	X float64
	Y float64
}

// ClipSegment clips a-b to the box [x0, x1]x[y0, y1] (Liang-Barsky). ok is
// false when nothing of the segment is inside.
func ClipSegment(a, b Point, x0, x1, y0, y1 float64) (Point, Point, bool) {
	dx := b.X - a.X
	dy := b.Y - a.Y
	t0, t1 := 0.0, 1.0
	edges := [4][2]float64{
		{-dx, a.X - x0},
		{dx, x1 - a.X},
		{-dy, a.Y - y0},
		{dy, y1 - a.Y},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return a, b, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return a, b, false
			}
			if r > t0 {
				t0 = r
			}
		} else {
			if r < t0 {
				return a, b, false
			}
			if r < t1 {
				t1 = r
			}
		}
	}
	return Point{X: a.X + t0*dx, Y: a.Y + t0*dy}, Point{X: a.X + t1*dx, Y: a.Y + t1*dy}, true
}
