package chart

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgsvg"

	"github.com/verte-zerg/calcviz/internal/model"
)

type palette struct {
	background color.Color
	foreground color.Color
	grid       color.Color
	function   color.Color
	derivative color.Color
	second     color.Color
	integral   color.Color
	area       color.Color
	cursor     color.Color
	tangent    color.Color
}

var (
	lightPalette = palette{
		background: mustHex("#ffffff"),
		foreground: mustHex("#1f2937"),
		grid:       mustHex("#e5e7eb"),
		function:   mustHex("#2563eb"),
		derivative: mustHex("#dc2626"),
		second:     mustHex("#9333ea"),
		integral:   mustHex("#16a34a"),
		area:       color.NRGBA{R: 37, G: 99, B: 235, A: 48},
		cursor:     mustHex("#6b7280"),
		tangent:    mustHex("#f59e0b"),
	}
	darkPalette = palette{
		background: mustHex("#111827"),
		foreground: mustHex("#f0f0f0"),
		grid:       mustHex("#374151"),
		function:   mustHex("#60a5fa"),
		derivative: mustHex("#f87171"),
		second:     mustHex("#c084fc"),
		integral:   mustHex("#4ade80"),
		area:       color.NRGBA{R: 96, G: 165, B: 250, A: 56},
		cursor:     mustHex("#9ca3af"),
		tangent:    mustHex("#c89a3a"),
	}
)

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(fmt.Sprintf("invalid palette color %q: %v", s, err))
	}
	return c
}

func paletteFor(s State) palette {
	if s.Has(DarkMode) {
		return darkPalette
	}
	return lightPalette
}

// Render builds a plot of fr. Axis ranges come from the frame's scales.
func Render(fr Frame) *plot.Plot {
	pal := paletteFor(fr.State)
	p := plot.New()
	p.Title.Text = fr.Equation
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	styleAxes(p, pal)

	if fr.State.Has(ShowGrid) {
		grid := plotter.NewGrid()
		grid.Vertical.Color = pal.grid
		grid.Horizontal.Color = pal.grid
		p.Add(grid)
	}
	if fr.State.Has(ShowArea) {
		p.Add(area{xs: fr.Function.X, ys: fr.Function.Y, fill: pal.area})
	}

	fn := curve{xs: fr.Function.X, ys: fr.Function.Y, style: lineStyle(pal.function, 3), colors: toColors(fr.Colors)}
	p.Add(fn)
	p.Legend.Add("f(x)", fn)
	if fr.Derivative.Len() > 0 {
		d := curve{xs: fr.Derivative.X, ys: fr.Derivative.Y, style: lineStyle(pal.derivative, 2, 5, 5)}
		p.Add(d)
		p.Legend.Add("f'(x)", d)
	}
	if fr.SecondDerivative.Len() > 0 {
		d2 := curve{xs: fr.SecondDerivative.X, ys: fr.SecondDerivative.Y, style: lineStyle(pal.second, 1.5, 2, 3)}
		p.Add(d2)
		p.Legend.Add("f''(x)", d2)
	}
	if fr.Integral.Len() > 0 {
		in := curve{xs: fr.Integral.X, ys: fr.Integral.Y, style: lineStyle(pal.integral, 2)}
		p.Add(in)
		p.Legend.Add("∫f(x)dx", in)
	}
	if fr.State.Has(ShowPoints) {
		p.Add(samples{xs: fr.Function.X, ys: fr.Function.Y, color: pal.function})
	}
	if fr.Cursor != nil {
		p.Add(cursorOverlay{frame: fr, pal: pal})
	}

	p.Legend.Top = true
	p.Legend.TextStyle.Color = pal.foreground
	p.X.Min, p.X.Max = fr.X.D0, fr.X.D1
	p.Y.Min, p.Y.Max = fr.Y.D0, fr.Y.D1
	return p
}

// WriteSVG serializes the drawing of fr as an SVG document.
func WriteSVG(w io.Writer, fr Frame) error {
	p := Render(fr)
	c := vgsvg.New(vg.Points(fr.Layout.Width), vg.Points(fr.Layout.Height))
	dc := draw.New(c)
	dc.SetColor(paletteFor(fr.State).background)
	dc.Fill(dc.Rectangle.Path())
	p.Draw(dc)
	if _, err := c.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write svg: %w", err)
	}
	return nil
}

// SaveSVG writes fr to path, creating parent directories as needed.
func SaveSVG(path string, fr Frame) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create export dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()
	return WriteSVG(f, fr)
}

func styleAxes(p *plot.Plot, pal palette) {
	p.BackgroundColor = pal.background
	p.Title.TextStyle.Color = pal.foreground
	for _, ax := range []*plot.Axis{&p.X, &p.Y} {
		ax.Color = pal.foreground
		ax.Label.TextStyle.Color = pal.foreground
		ax.Tick.Color = pal.foreground
		ax.Tick.Label.Color = pal.foreground
	}
}

func lineStyle(c color.Color, width float64, dashes ...float64) draw.LineStyle {
	sty := draw.LineStyle{Color: c, Width: vg.Points(width)}
	for _, d := range dashes {
		sty.Dashes = append(sty.Dashes, vg.Points(d))
	}
	return sty
}

func toColors(rgbs []model.RGB) []color.Color {
	if len(rgbs) == 0 {
		return nil
	}
	out := make([]color.Color, len(rgbs))
	for i, c := range rgbs {
		out[i] = color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
	}
	return out
}

// finiteRuns splits ys into maximal [start, end) runs of finite values.
func finiteRuns(ys []float64) [][2]int {
	var runs [][2]int
	start := -1
	for i, y := range ys {
		if isFinite(y) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			runs = append(runs, [2]int{start, i})
			start = -1
		}
	}
	if start >= 0 {
		runs = append(runs, [2]int{start, len(ys)})
	}
	return runs
}

// curve strokes a sampled series, skipping non-finite samples. With one
// color per sample each segment takes the color of its left endpoint.
type curve struct {
	xs     []float64
	ys     []float64
	style  draw.LineStyle
	colors []color.Color
}

func (cv curve) Plot(c draw.Canvas, p *plot.Plot) {
	trX, trY := p.Transforms(&c)
	if len(cv.colors) > 0 && len(cv.colors) == len(cv.xs) {
		for i := 0; i+1 < len(cv.xs); i++ {
			if !isFinite(cv.ys[i]) || !isFinite(cv.ys[i+1]) {
				continue
			}
			sty := cv.style
			sty.Color = cv.colors[i]
			c.StrokeLine2(sty, trX(cv.xs[i]), trY(cv.ys[i]), trX(cv.xs[i+1]), trY(cv.ys[i+1]))
		}
		return
	}
	for _, run := range finiteRuns(cv.ys) {
		pts := make([]vg.Point, 0, run[1]-run[0])
		for i := run[0]; i < run[1]; i++ {
			pts = append(pts, vg.Point{X: trX(cv.xs[i]), Y: trY(cv.ys[i])})
		}
		c.StrokeLines(cv.style, c.ClipLinesXY(pts)...)
	}
}

func (cv curve) Thumbnail(c *draw.Canvas) {
	y := c.Center().Y
	c.StrokeLine2(cv.style, c.Min.X, y, c.Max.X, y)
}

// area fills the region between the curve and y = 0.
type area struct {
	xs   []float64
	ys   []float64
	fill color.Color
}

func (a area) Plot(c draw.Canvas, p *plot.Plot) {
	trX, trY := p.Transforms(&c)
	zero := trY(0)
	for _, run := range finiteRuns(a.ys) {
		pts := make([]vg.Point, 0, run[1]-run[0]+2)
		pts = append(pts, vg.Point{X: trX(a.xs[run[0]]), Y: zero})
		for i := run[0]; i < run[1]; i++ {
			pts = append(pts, vg.Point{X: trX(a.xs[i]), Y: trY(a.ys[i])})
		}
		pts = append(pts, vg.Point{X: trX(a.xs[run[1]-1]), Y: zero})
		c.FillPolygon(a.fill, c.ClipPolygonXY(pts))
	}
}

// samples marks every finite grid point.
type samples struct {
	xs    []float64
	ys    []float64
	color color.Color
}

func (s samples) Plot(c draw.Canvas, p *plot.Plot) {
	trX, trY := p.Transforms(&c)
	glyph := draw.GlyphStyle{Color: s.color, Radius: vg.Points(1.5), Shape: draw.CircleGlyph{}}
	for i := range s.xs {
		if !isFinite(s.ys[i]) {
			continue
		}
		pt := vg.Point{X: trX(s.xs[i]), Y: trY(s.ys[i])}
		if c.Contains(pt) {
			c.DrawGlyph(glyph, pt)
		}
	}
}

// cursorOverlay draws the pointer guides, tangent and read-out.
type cursorOverlay struct {
	frame Frame
	pal   palette
}

func (o cursorOverlay) Plot(c draw.Canvas, p *plot.Plot) {
	cur := o.frame.Cursor
	if cur == nil || !cur.Finite() {
		return
	}
	trX, trY := p.Transforms(&c)
	x, y := trX(cur.X), trY(cur.Y)
	guide := lineStyle(o.pal.cursor, 1, 3, 3)
	c.StrokeLine2(guide, x, c.Min.Y, x, c.Max.Y)
	c.StrokeLine2(guide, c.Min.X, y, c.Max.X, y)
	if o.frame.State.Has(ShowTangent) {
		if a, b, ok := o.frame.TangentInView(); ok {
			c.StrokeLine2(lineStyle(o.pal.tangent, 2), trX(a.X), trY(a.Y), trX(b.X), trY(b.Y))
		}
	}
	c.DrawGlyph(draw.GlyphStyle{Color: o.pal.tangent, Radius: vg.Points(4), Shape: draw.CircleGlyph{}}, vg.Point{X: x, Y: y})

	sty := p.Legend.TextStyle
	sty.Color = o.pal.foreground
	c.FillText(sty, vg.Point{X: c.Min.X + vg.Points(6), Y: c.Max.Y - vg.Points(14)}, ReadOut(*cur))
}
