package termplot

import (
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/verte-zerg/calcviz/internal/chart"
)

// RenderASCII draws the visible series of fr as a plain line chart. Series
// share one y axis; non-finite samples become gaps.
func RenderASCII(fr chart.Frame, width, height int) string {
	data := [][]float64{gaps(fr.Function.Y)}
	colors := []asciigraph.AnsiColor{asciigraph.Blue}
	names := []string{"f(x)"}
	if fr.Derivative.Len() > 0 {
		data = append(data, gaps(fr.Derivative.Y))
		colors = append(colors, asciigraph.Red)
		names = append(names, "f'(x)")
	}
	if fr.SecondDerivative.Len() > 0 {
		data = append(data, gaps(fr.SecondDerivative.Y))
		colors = append(colors, asciigraph.Purple)
		names = append(names, "f''(x)")
	}
	if fr.Integral.Len() > 0 {
		data = append(data, gaps(fr.Integral.Y))
		colors = append(colors, asciigraph.Green)
		names = append(names, "∫f(x)dx")
	}
	if !anyFinite(data) {
		return fr.Equation + "\n(no finite values in domain)"
	}
	opts := []asciigraph.Option{
		asciigraph.Height(height),
		asciigraph.Caption(fr.Equation + "   [" + strings.Join(names, ", ") + "]"),
		asciigraph.SeriesColors(colors...),
		asciigraph.LowerBound(fr.Y.D0),
		asciigraph.UpperBound(fr.Y.D1),
		asciigraph.Precision(2),
	}
	if width > 0 {
		opts = append(opts, asciigraph.Width(width))
	}
	return asciigraph.PlotMany(data, opts...)
}

func gaps(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if isFinite(v) {
			out[i] = v
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

func anyFinite(data [][]float64) bool {
	for _, series := range data {
		for _, v := range series {
			if isFinite(v) {
				return true
			}
		}
	}
	return false
}
