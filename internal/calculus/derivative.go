package calculus

import "gonum.org/v1/gonum/diff/fd"

const (
	// DefaultStep is the forward-difference step used when h is zero.
	DefaultStep = 1e-4
	// DefaultSecondStep is the central-difference step for f''.
	DefaultSecondStep = 1e-3
)

// Derivative estimates f'(x) with the forward difference (f(x+h) - f(x)) / h.
// A zero h selects DefaultStep. Poles and discontinuities produce large or
// non-finite results; callers decide how to present them.
func Derivative(f Func, x, h float64) float64 {
	if h == 0 {
		h = DefaultStep
	}
	return fd.Derivative(f, x, &fd.Settings{
		Formula: fd.Forward,
		Step:    h,
	})
}

// SecondDerivative estimates f''(x) with the central second difference
// (f(x+h) - 2f(x) + f(x-h)) / h². A zero h selects DefaultSecondStep.
func SecondDerivative(f Func, x, h float64) float64 {
	if h == 0 {
		h = DefaultSecondStep
	}
	return fd.Derivative(f, x, &fd.Settings{
		Formula: fd.Central2nd,
		Step:    h,
	})
}
