package termplot

import (
	"strings"
	"testing"

	"github.com/verte-zerg/calcviz/internal/calculus"
	"github.com/verte-zerg/calcviz/internal/chart"
	"github.com/verte-zerg/calcviz/internal/model"
)

func testFrame(t *testing.T, function string, flags chart.Flag, cols, rows int) chart.Frame {
	t.Helper()
	s := chart.NewState(model.ChartConfig{
		Function: function,
		Domain:   model.Domain{XMin: -4, XMax: 4},
		Params:   model.DefaultParams(),
		Steps:    40,
		Flags:    uint32(flags),
	})
	fr, err := chart.Compute(s, calculus.NewRegistry(), LayoutFor(cols, rows))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	return fr
}

func TestBrailleDotMask(t *testing.T) {
	var mask uint8
	for x := 0; x < 2; x++ {
		for y := 0; y < 4; y++ {
			mask |= brailleDotMask(x, y)
		}
	}
	if mask != 0xFF {
		t.Fatalf("expected all dots set, got %#x", mask)
	}
	if got := brailleFromMask(0); got != '⠀' {
		t.Fatalf("expected blank braille, got %q", got)
	}
}

func TestCanvasLineAndRows(t *testing.T) {
	c := NewCanvas(3, 1)
	c.Line(0, 0, 5, 0, solid, "")
	rows := c.Rows(false)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	want := strings.Repeat(string(brailleFromMask(0x01|0x08)), 3)
	if rows[0] != want {
		t.Fatalf("expected %q, got %q", want, rows[0])
	}
}

func TestCanvasIgnoresOutOfBounds(t *testing.T) {
	c := NewCanvas(1, 1)
	c.Set(-1, 0, "")
	c.Set(2, 0, "")
	c.Set(0, 4, "")
	if c.Rows(false)[0] != string(brailleFromMask(0)) {
		t.Fatalf("expected empty cell")
	}
}

func TestLineStylePattern(t *testing.T) {
	on := 0
	for i := 0; i < 12; i++ {
		if dashed.shouldPlot(i) {
			on++
		}
	}
	if on != 6 {
		t.Fatalf("expected 6 dashed dots in 12, got %d", on)
	}
	if !solid.shouldPlot(-3) {
		t.Fatalf("solid should always plot")
	}
}

func TestRenderShape(t *testing.T) {
	const cols, rows = 30, 8
	fr := testFrame(t, "sine", chart.DefaultFlags, cols, rows)
	out := Render(fr, cols, rows, false)
	lines := strings.Split(out, "\n")
	if len(lines) != rows+1 {
		t.Fatalf("expected %d lines, got %d", rows+1, len(lines))
	}
	for i := 0; i < rows; i++ {
		if !strings.Contains(lines[i], axisSeparator) {
			t.Fatalf("line %d missing axis separator: %q", i, lines[i])
		}
	}
	if !strings.Contains(lines[rows], "-4.00") || !strings.Contains(lines[rows], "4.00") {
		t.Fatalf("expected domain bounds on last line, got %q", lines[rows])
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected no ANSI sequences without color")
	}
}

func TestRenderDrawsCursor(t *testing.T) {
	const cols, rows = 20, 6
	fr := testFrame(t, "quadratic", chart.ShowTangent, cols, rows)
	without := Render(fr, cols, rows, false)
	s, err := fr.State.Apply(chart.PointerMove{X: 20})
	if err != nil {
		t.Fatalf("pointer: %v", err)
	}
	fr, err = chart.Compute(s, calculus.NewRegistry(), LayoutFor(cols, rows))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if fr.Cursor == nil {
		t.Fatalf("expected cursor")
	}
	with := Render(fr, cols, rows, false)
	if with == without {
		t.Fatalf("expected cursor to change the canvas")
	}
}

func TestRenderNonFiniteFunction(t *testing.T) {
	const cols, rows = 20, 5
	fr := testFrame(t, "logarithm", chart.DefaultFlags|chart.ShowArea, cols, rows)
	out := Render(fr, cols, rows, true)
	if out == "" {
		t.Fatalf("expected output")
	}
}

func TestColumnToPointerMatchesLayout(t *testing.T) {
	const cols, rows = 40, 10
	fr := testFrame(t, "sine", 0, cols, rows)
	px := ColumnToPointer(PlotOffset() + cols/2)
	x := fr.X.Invert(px)
	if x < -0.25 || x > 0.25 {
		t.Fatalf("expected middle column near x=0, got %f", x)
	}
}

func TestLegendListsVisibleSeries(t *testing.T) {
	fr := testFrame(t, "sine", chart.ShowDerivative, 10, 4)
	legend := Legend(fr, false)
	if !strings.Contains(legend, "f'(x)") {
		t.Fatalf("expected derivative in legend: %q", legend)
	}
	if strings.Contains(legend, "∫") {
		t.Fatalf("integral should be hidden: %q", legend)
	}
}

func TestPlotWidthFor(t *testing.T) {
	if got := PlotWidthFor(0); got != minPlotWidth {
		t.Fatalf("expected min width, got %d", got)
	}
	if got := PlotWidthFor(100); got != 100-PlotOffset() {
		t.Fatalf("expected %d, got %d", 100-PlotOffset(), got)
	}
}

func TestRenderASCII(t *testing.T) {
	fr := testFrame(t, "sine", chart.ShowDerivative, 10, 4)
	out := RenderASCII(fr, 40, 8)
	if !strings.Contains(out, "sin(x)") {
		t.Fatalf("expected caption with equation, got %q", out)
	}
}
