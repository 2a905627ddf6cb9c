package calculus

// DefaultSubdivisions is the trapezoid count used when n <= 0.
const DefaultSubdivisions = 1000

// Integrate estimates the definite integral of f over [a, b] with the
// composite trapezoidal rule on n equal subintervals. Endpoints carry weight
// 0.5 and interior points weight 1. Swapping a and b negates the result.
func Integrate(f Func, a, b float64, n int) float64 {
	if n <= 0 {
		n = DefaultSubdivisions
	}
	step := (b - a) / float64(n)
	sum := 0.5 * (f(a) + f(b))
	for i := 1; i < n; i++ {
		sum += f(a + float64(i)*step)
	}
	return sum * step
}
