// Package termplot draws chart frames as braille text for terminals.
package termplot

import (
	"fmt"
	"math"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/verte-zerg/calcviz/internal/calculus"
	"github.com/verte-zerg/calcviz/internal/chart"
	"github.com/verte-zerg/calcviz/internal/model"
)

type lineStyle struct {
	period int
	on     int
}

var (
	solid   = lineStyle{period: 1, on: 1}
	dashed  = lineStyle{period: 6, on: 3}
	dotted  = lineStyle{period: 4, on: 1}
	sparse  = lineStyle{period: 2, on: 1}
	dashdot = lineStyle{period: 8, on: 3}
)

const (
	minPlotWidth        = 10
	labelWidth          = 9
	axisSeparator       = " │ "
	terminalWidthBackup = 80
)

type terminalPalette struct {
	axis       string
	grid       string
	derivative string
	second     string
	integral   string
	area       string
	function   string
	cursor     string
	tangent    string
}

var (
	lightColors = terminalPalette{
		axis: "#6E6E6E", grid: "#4A4A4A", derivative: "#DC2626", second: "#9333EA",
		integral: "#16A34A", area: "#2563EB", function: "#2563EB", cursor: "#8C8C8C", tangent: "#F59E0B",
	}
	darkColors = terminalPalette{
		axis: "#8C8C8C", grid: "#374151", derivative: "#F87171", second: "#C084FC",
		integral: "#4ADE80", area: "#60A5FA", function: "#60A5FA", cursor: "#B0B0B0", tangent: "#C89A3A",
	}
)

// PlotOffset is the number of columns left of the braille area.
func PlotOffset() int {
	return labelWidth + utf8.RuneCountInString(axisSeparator)
}

// LayoutFor returns a chart layout whose device units are braille dots of
// a cols x rows cell grid.
func LayoutFor(cols, rows int) chart.Layout {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return chart.Layout{Width: float64(cols * 2), Height: float64(rows * 4)}
}

// ColumnToPointer converts a terminal column into a device x coordinate for
// a frame built with LayoutFor.
func ColumnToPointer(col int) float64 {
	return float64((col-PlotOffset())*2) + 0.5
}

// Canvas is a grid of braille cells, each holding up to 2x4 dots and one
// color.
type Canvas struct {
	cols   int
	rows   int
	cells  [][]uint8
	colors [][]string
}

// NewCanvas allocates an empty canvas.
func NewCanvas(cols, rows int) *Canvas {
	c := &Canvas{cols: cols, rows: rows}
	c.cells = make([][]uint8, rows)
	c.colors = make([][]string, rows)
	for y := 0; y < rows; y++ {
		c.cells[y] = make([]uint8, cols)
		c.colors[y] = make([]string, cols)
	}
	return c
}

// Set turns on dot (x, y); the cell takes color.
func (c *Canvas) Set(x, y int, color string) {
	if y < 0 || x < 0 {
		return
	}
	cellY := y / 4
	cellX := x / 2
	if cellY >= c.rows || cellX >= c.cols {
		return
	}
	c.cells[cellY][cellX] |= brailleDotMask(x%2, y%4)
	if color != "" {
		c.colors[cellY][cellX] = color
	}
}

// Line draws from (x0, y0) to (x1, y1) in dot coordinates.
func (c *Canvas) Line(x0, y0, x1, y1 int, style lineStyle, color string) {
	drawLine(x0, y0, x1, y1, func(x, y int) {
		if style.shouldPlot(x + y) {
			c.Set(x, y, color)
		}
	})
}

// Rows renders each cell row as a string.
func (c *Canvas) Rows(useColor bool) []string {
	styles := map[string]lipgloss.Style{}
	out := make([]string, c.rows)
	for y := 0; y < c.rows; y++ {
		var row strings.Builder
		for x := 0; x < c.cols; x++ {
			ch := string(brailleFromMask(c.cells[y][x]))
			color := c.colors[y][x]
			if !useColor || color == "" || c.cells[y][x] == 0 {
				row.WriteString(ch)
				continue
			}
			st, ok := styles[color]
			if !ok {
				st = lipgloss.NewStyle().Foreground(lipgloss.Color(color))
				styles[color] = st
			}
			row.WriteString(st.Render(ch))
		}
		out[y] = row.String()
	}
	return out
}

// Render draws fr on a cols x rows braille grid with a value axis on the
// left and the domain bounds underneath. fr must come from LayoutFor with
// the same size.
func Render(fr chart.Frame, cols, rows int, useColor bool) string {
	if cols < 1 || rows < 1 {
		return ""
	}
	pal := lightColors
	if fr.State.Has(chart.DarkMode) {
		pal = darkColors
	}
	c := NewCanvas(cols, rows)
	w, h := cols*2, rows*4
	dx := func(x float64) int { return clampDot(fr.X.Map(x), w) }
	dy := func(y float64) int { return clampDot(fr.Y.Map(y), h) }

	if fr.State.Has(chart.ShowGrid) {
		for i := 1; i < 4; i++ {
			gx := w * i / 4
			gy := h * i / 4
			c.Line(gx, 0, gx, h-1, dotted, pal.grid)
			c.Line(0, gy, w-1, gy, dotted, pal.grid)
		}
	}
	if fr.Y.D0 < 0 && fr.Y.D1 > 0 {
		zy := dy(0)
		c.Line(0, zy, w-1, zy, sparse, pal.axis)
	}
	if fr.X.D0 < 0 && fr.X.D1 > 0 {
		zx := dx(0)
		c.Line(zx, 0, zx, h-1, sparse, pal.axis)
	}
	if fr.State.Has(chart.ShowArea) {
		zy := dy(0)
		for i, x := range fr.Function.X {
			if isFinite(fr.Function.Y[i]) {
				c.Line(dx(x), zy, dx(x), dy(fr.Function.Y[i]), sparse, pal.area)
			}
		}
	}

	plotSeries(c, fr.Integral, dx, dy, solid, fixedColor(pal.integral))
	plotSeries(c, fr.SecondDerivative, dx, dy, dashdot, fixedColor(pal.second))
	plotSeries(c, fr.Derivative, dx, dy, dashed, fixedColor(pal.derivative))
	fnColor := fixedColor(pal.function)
	if len(fr.Colors) == fr.Function.Len() && len(fr.Colors) > 0 {
		fnColor = func(i int) string { return hexOf(fr.Colors[i]) }
	}
	plotSeries(c, fr.Function, dx, dy, solid, fnColor)

	if fr.State.Has(chart.ShowPoints) {
		for i, x := range fr.Function.X {
			if isFinite(fr.Function.Y[i]) {
				c.Set(dx(x), dy(fr.Function.Y[i]), pal.function)
			}
		}
	}
	if fr.Cursor != nil && fr.Cursor.Finite() {
		cx, cy := dx(fr.Cursor.X), dy(fr.Cursor.Y)
		c.Line(cx, 0, cx, h-1, dotted, pal.cursor)
		if fr.State.Has(chart.ShowTangent) {
			if a, b, ok := fr.TangentInView(); ok {
				c.Line(dx(a.X), dy(a.Y), dx(b.X), dy(b.Y), solid, pal.tangent)
			}
		}
		for _, d := range [][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
			c.Set(cx+d[0], cy+d[1], pal.tangent)
		}
	}

	labels := axisLabels(fr.Y.D0, fr.Y.D1, rows)
	axisStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(pal.axis))
	lines := make([]string, 0, rows+1)
	for y, body := range c.Rows(useColor) {
		prefix := fmt.Sprintf("%*s%s", labelWidth, labels[y], axisSeparator)
		if useColor {
			prefix = axisStyle.Render(prefix)
		}
		lines = append(lines, prefix+body)
	}
	lines = append(lines, xAxisLine(fr.X.D0, fr.X.D1, cols))
	return strings.Join(lines, "\n")
}

// Legend lists the visible curves with their line style.
func Legend(fr chart.Frame, useColor bool) string {
	pal := lightColors
	if fr.State.Has(chart.DarkMode) {
		pal = darkColors
	}
	type entry struct {
		label string
		color string
	}
	entries := []entry{{"━ f(x)", pal.function}}
	if fr.Derivative.Len() > 0 {
		entries = append(entries, entry{"╌ f'(x)", pal.derivative})
	}
	if fr.SecondDerivative.Len() > 0 {
		entries = append(entries, entry{"┅ f''(x)", pal.second})
	}
	if fr.Integral.Len() > 0 {
		entries = append(entries, entry{"━ ∫f(x)dx", pal.integral})
	}
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		if useColor {
			parts = append(parts, lipgloss.NewStyle().Foreground(lipgloss.Color(e.color)).Render(e.label))
		} else {
			parts = append(parts, e.label)
		}
	}
	return "Legend: " + strings.Join(parts, "  ")
}

func plotSeries(c *Canvas, s calculus.Series, dx, dy func(float64) int, style lineStyle, color func(int) string) {
	xs, ys := s.X, s.Y
	prevX, prevY := -1, -1
	for i := range xs {
		if !isFinite(ys[i]) {
			prevX, prevY = -1, -1
			continue
		}
		px, py := dx(xs[i]), dy(ys[i])
		if prevX >= 0 {
			// segment takes the color of its left endpoint
			c.Line(prevX, prevY, px, py, style, color(i-1))
		} else {
			c.Set(px, py, color(i))
		}
		prevX, prevY = px, py
	}
}

func fixedColor(hex string) func(int) string {
	return func(int) string { return hex }
}

func hexOf(c model.RGB) string {
	return c.Hex()
}

func clampDot(v float64, size int) int {
	if math.IsNaN(v) {
		return 0
	}
	d := int(math.Floor(v))
	if d < 0 {
		return 0
	}
	if d >= size {
		return size - 1
	}
	return d
}

func axisLabels(lo, hi float64, rows int) []string {
	labels := make([]string, rows)
	if rows <= 0 {
		return labels
	}
	labels[0] = shortNumber(hi)
	if rows > 2 {
		labels[rows/2] = shortNumber((lo + hi) / 2)
	}
	if rows > 1 {
		labels[rows-1] = shortNumber(lo)
	}
	return labels
}

func xAxisLine(lo, hi float64, cols int) string {
	left := shortNumber(lo)
	right := shortNumber(hi)
	gap := cols - utf8.RuneCountInString(left) - utf8.RuneCountInString(right)
	if gap < 1 {
		gap = 1
	}
	return strings.Repeat(" ", PlotOffset()) + left + strings.Repeat(" ", gap) + right
}

func shortNumber(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	if utf8.RuneCountInString(s) > labelWidth {
		s = fmt.Sprintf("%.2g", v)
	}
	return s
}

// PlotWidthFor computes a plot width that fits within the total available width.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	plotWidth := totalWidth - PlotOffset()
	if plotWidth < minPlotWidth {
		plotWidth = minPlotWidth
	}
	return plotWidth
}

// TerminalWidth returns the stdout width, or 80 when it is not a terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

// ShouldUseColor reports whether f is a color-capable terminal.
func ShouldUseColor(f *os.File, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	return term.IsTerminal(int(f.Fd()))
}

func (ls lineStyle) shouldPlot(x int) bool {
	if ls.period <= 1 {
		return true
	}
	if x < 0 {
		x = -x
	}
	return x%ls.period < ls.on
}

func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := int(math.Abs(float64(x1 - x0)))
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -int(math.Abs(float64(y1 - y0)))
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			if x0 == x1 {
				break
			}
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			if y0 == y1 {
				break
			}
			err += dx
			y0 += sy
		}
	}
}

func brailleDotMask(x, y int) uint8 {
	switch {
	case x == 0 && y == 0:
		return 0x01
	case x == 0 && y == 1:
		return 0x02
	case x == 0 && y == 2:
		return 0x04
	case x == 0 && y == 3:
		return 0x40
	case x == 1 && y == 0:
		return 0x08
	case x == 1 && y == 1:
		return 0x10
	case x == 1 && y == 2:
		return 0x20
	case x == 1 && y == 3:
		return 0x80
	default:
		return 0
	}
}

func brailleFromMask(mask uint8) rune {
	return rune(0x2800 + int(mask))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
