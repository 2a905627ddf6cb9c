package chart

import (
	"fmt"
	"math"
	"strconv"

	"github.com/verte-zerg/calcviz/internal/calculus"
	"github.com/verte-zerg/calcviz/internal/model"
)

// TangentHalfLength is the half-width of the tangent segment in domain units.
const TangentHalfLength = 2.0

// Cursor is the pointer read-out at an exact, unsampled x.
type Cursor struct {
	X     float64
	Y     float64
	Slope float64
	// PX and PY are device coordinates of (X, Y).
	PX float64
	PY float64
	// Tangent spans X ± TangentHalfLength with slope Slope.
	Tangent [2]Point
}

// Finite reports whether the read-out can be drawn.
func (c Cursor) Finite() bool {
	return isFinite(c.Y) && isFinite(c.Slope)
}

// Frame is everything needed to draw one chart.
type Frame struct {
	State    State
	Layout   Layout
	Equation string

	Function         calculus.Series
	Slopes           []float64
	Derivative       calculus.Series
	SecondDerivative calculus.Series
	Integral         calculus.Series
	// Colors holds one gradient color per sample when Gradient is on.
	Colors []model.RGB

	X      Scale
	Y      Scale
	Cursor *Cursor
}

// Compute samples the selected function and derives every visible series,
// the scales and the pointer read-out. Nothing is cached between calls.
func Compute(s State, reg *calculus.Registry, layout Layout) (Frame, error) {
	entry, err := reg.Lookup(s.Function)
	if err != nil {
		return Frame{}, err
	}
	if err := calculus.ValidateDomain(s.Domain); err != nil {
		return Frame{}, err
	}
	steps := clampInt(s.Steps, calculus.DefaultSteps, calculus.MaxSteps)
	subdivisions := clampInt(s.Subdivisions, calculus.DefaultIntegralSubdivisions, calculus.MaxSubdivisions)
	f := entry.Func(s.Params)

	fr := Frame{State: s, Layout: layout, Equation: entry.Equation(s.Params)}
	if fr.Function, err = calculus.FunctionPoints(f, s.Domain, steps); err != nil {
		return Frame{}, err
	}
	slopes, err := calculus.DerivativePoints(f, s.Domain, steps)
	if err != nil {
		return Frame{}, err
	}
	fr.Slopes = slopes.Y
	visible := [][]float64{fr.Function.Y}
	if s.Has(ShowDerivative) {
		fr.Derivative = slopes
		visible = append(visible, slopes.Y)
	}
	if s.Has(ShowSecondDerivative) {
		if fr.SecondDerivative, err = calculus.SecondDerivativePoints(f, s.Domain, steps); err != nil {
			return Frame{}, err
		}
		visible = append(visible, fr.SecondDerivative.Y)
	}
	if s.Has(ShowIntegral) {
		if fr.Integral, err = calculus.IntegralPoints(f, s.Domain, steps, subdivisions); err != nil {
			return Frame{}, err
		}
		visible = append(visible, fr.Integral.Y)
	}
	if s.Has(ShowArea) {
		visible = append(visible, []float64{0})
	}
	if s.Has(Gradient) {
		fr.Colors = calculus.GradientColors(fr.Slopes, calculus.DefaultMinColor, calculus.DefaultMaxColor)
	}

	lo, hi := ValueRange(visible...)
	fr.X = XScale(s.Domain, layout)
	fr.Y = YScale(lo, hi, layout)

	if s.HasPointer {
		c := pointerCursor(f, s.Domain, fr.X, fr.Y, s.PointerX)
		fr.Cursor = &c
	}
	return fr, nil
}

func pointerCursor(f calculus.Func, d model.Domain, xs, ys Scale, px float64) Cursor {
	x := d.Clamp(xs.Invert(px))
	y := f(x)
	slope := calculus.Derivative(f, x, calculus.DefaultStep)
	c := Cursor{
		X:     x,
		Y:     y,
		Slope: slope,
		PX:    xs.Map(x),
		PY:    ys.Map(y),
		Tangent: [2]Point{
			{X: x - TangentHalfLength, Y: y - TangentHalfLength*slope},
			{X: x + TangentHalfLength, Y: y + TangentHalfLength*slope},
		},
	}
	return c
}

// TangentInView returns the tangent segment clipped to the visible area.
func (fr Frame) TangentInView() (Point, Point, bool) {
	if fr.Cursor == nil || !fr.Cursor.Finite() {
		return Point{}, Point{}, false
	}
	return ClipSegment(fr.Cursor.Tangent[0], fr.Cursor.Tangent[1],
		fr.X.D0, fr.X.D1, fr.Y.D0, fr.Y.D1)
}

func clampInt(v, def, maxVal int) int {
	if v <= 0 {
		return def
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ReadOut formats the cursor values for display.
func ReadOut(c Cursor) string {
	return fmt.Sprintf("x = %s   f(x) = %s   f'(x) = %s", formatValue(c.X), formatValue(c.Y), formatValue(c.Slope))
}

func formatValue(v float64) string {
	if !isFinite(v) {
		return "undefined"
	}
	return strconv.FormatFloat(v, 'f', 3, 64)
}
