package calculus

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/verte-zerg/calcviz/internal/model"
)

const (
	// DefaultSteps is the number of grid intervals used when steps <= 0.
	DefaultSteps = 200
	// DefaultIntegralSubdivisions is the inner trapezoid count per grid point
	// for cumulative integrals.
	DefaultIntegralSubdivisions = 100
	// MaxSteps bounds configurable grid sizes.
	MaxSteps = 5000
	// MaxSubdivisions bounds configurable inner integration counts. The
	// cumulative integral costs O(steps * subdivisions) evaluations.
	MaxSubdivisions = 5000
)

// ErrInvalidDomain is returned when xMin >= xMax or a bound is not finite.
var ErrInvalidDomain = errors.New("invalid domain")

// Series is a sampled curve. X is strictly increasing and shared between
// the function, derivative and integral series of one chart.
type Series struct {
	X []float64
	Y []float64
}

// Len returns the number of samples.
func (s Series) Len() int {
	return len(s.X)
}

// ValidateDomain rejects degenerate or non-finite domains.
func ValidateDomain(d model.Domain) error {
	if math.IsNaN(d.XMin) || math.IsNaN(d.XMax) || math.IsInf(d.XMin, 0) || math.IsInf(d.XMax, 0) {
		return fmt.Errorf("%w: bounds must be finite (got %g, %g)", ErrInvalidDomain, d.XMin, d.XMax)
	}
	if d.XMin >= d.XMax {
		return fmt.Errorf("%w: x-min %g must be less than x-max %g", ErrInvalidDomain, d.XMin, d.XMax)
	}
	return nil
}

// Grid returns steps+1 evenly spaced points covering d, both ends included.
func Grid(d model.Domain, steps int) ([]float64, error) {
	if err := ValidateDomain(d); err != nil {
		return nil, err
	}
	if steps <= 0 {
		steps = DefaultSteps
	}
	return floats.Span(make([]float64, steps+1), d.XMin, d.XMax), nil
}

// FunctionPoints samples f on the grid of d.
func FunctionPoints(f Func, d model.Domain, steps int) (Series, error) {
	return sampleWith(d, steps, f)
}

// DerivativePoints samples the forward-difference derivative of f.
func DerivativePoints(f Func, d model.Domain, steps int) (Series, error) {
	return sampleWith(d, steps, func(x float64) float64 {
		return Derivative(f, x, DefaultStep)
	})
}

// SecondDerivativePoints samples the central second difference of f.
func SecondDerivativePoints(f Func, d model.Domain, steps int) (Series, error) {
	return sampleWith(d, steps, func(x float64) float64 {
		return SecondDerivative(f, x, DefaultSecondStep)
	})
}

// IntegralPoints samples the cumulative integral of f from d.XMin to each
// grid point. Every point is integrated from scratch with subdivisions
// trapezoids.
func IntegralPoints(f Func, d model.Domain, steps, subdivisions int) (Series, error) {
	if subdivisions <= 0 {
		subdivisions = DefaultIntegralSubdivisions
	}
	return sampleWith(d, steps, func(x float64) float64 {
		return Integrate(f, d.XMin, x, subdivisions)
	})
}

func sampleWith(d model.Domain, steps int, eval Func) (Series, error) {
	xs, err := Grid(d, steps)
	if err != nil {
		return Series{}, err
	}
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = eval(x)
	}
	return Series{X: xs, Y: ys}, nil
}

// FiniteRange returns the min and max over the finite values of all given
// slices. ok is false when no finite value exists.
func FiniteRange(values ...[]float64) (minVal, maxVal float64, ok bool) {
	minVal = math.Inf(1)
	maxVal = math.Inf(-1)
	for _, vs := range values {
		for _, v := range vs {
			if !isFinite(v) {
				continue
			}
			if v < minVal {
				minVal = v
			}
			if v > maxVal {
				maxVal = v
			}
			ok = true
		}
	}
	if !ok {
		return 0, 0, false
	}
	return minVal, maxVal, true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
