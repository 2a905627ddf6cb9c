package chart

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/verte-zerg/calcviz/internal/calculus"
	"github.com/verte-zerg/calcviz/internal/model"
)

func TestComputeSineDerivative(t *testing.T) {
	s := NewState(model.ChartConfig{
		Function: "sine",
		Domain:   model.Domain{XMin: -math.Pi, XMax: math.Pi},
		Params:   model.DefaultParams(),
		Steps:    200,
	})
	s = mustApply(t, s, Toggle{Flag: ShowDerivative})
	fr, err := Compute(s, calculus.NewRegistry(), DefaultLayout())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if fr.Derivative.Len() != 201 {
		t.Fatalf("expected 201 derivative samples, got %d", fr.Derivative.Len())
	}
	for i, x := range fr.Derivative.X {
		if math.Abs(fr.Derivative.Y[i]-math.Cos(x)) > calculus.DefaultStep {
			t.Fatalf("f'(%g) = %g, want ≈ %g", x, fr.Derivative.Y[i], math.Cos(x))
		}
	}
	if fr.Integral.Len() != 0 {
		t.Fatalf("integral must stay hidden")
	}
	if fr.Colors != nil {
		t.Fatalf("gradient is off, expected no colors")
	}
}

func TestComputeHidesDerivativeButKeepsSlopes(t *testing.T) {
	s := NewState(model.ChartConfig{
		Function: "quadratic",
		Domain:   model.Domain{XMin: -1, XMax: 1},
		Params:   model.DefaultParams(),
		Steps:    10,
		Flags:    uint32(Gradient),
	})
	fr, err := Compute(s, calculus.NewRegistry(), DefaultLayout())
	if err != nil {
		t.Fatal(err)
	}
	if fr.Derivative.Len() != 0 {
		t.Fatalf("derivative should be hidden")
	}
	if len(fr.Slopes) != 11 || len(fr.Colors) != 11 {
		t.Fatalf("expected 11 slopes and colors, got %d/%d", len(fr.Slopes), len(fr.Colors))
	}
	if fr.Colors[0] != calculus.DefaultMinColor || fr.Colors[10] != calculus.DefaultMaxColor {
		t.Fatalf("gradient should span the stops, got %v .. %v", fr.Colors[0], fr.Colors[10])
	}
}

func TestComputeYRangePadding(t *testing.T) {
	s := NewState(model.ChartConfig{
		Function: "sine",
		Domain:   model.Domain{XMin: -math.Pi, XMax: math.Pi},
		Params:   model.DefaultParams(),
		Steps:    4,
	})
	fr, err := Compute(s, calculus.NewRegistry(), DefaultLayout())
	if err != nil {
		t.Fatal(err)
	}
	lo, hi, _ := calculus.FiniteRange(fr.Function.Y)
	pad := (hi - lo) * RangePadding
	if math.Abs(fr.Y.D0-(lo-pad)) > 1e-12 || math.Abs(fr.Y.D1-(hi+pad)) > 1e-12 {
		t.Fatalf("unexpected y range %g..%g", fr.Y.D0, fr.Y.D1)
	}
	layout := DefaultLayout()
	if got := fr.Y.Map(fr.Y.D0); got != layout.Height-layout.Margin.Bottom {
		t.Fatalf("y minimum should map to plot bottom, got %g", got)
	}
}

func TestComputeNonFiniteStaysRenderable(t *testing.T) {
	s := NewState(model.ChartConfig{
		Function: "logarithm",
		Domain:   model.Domain{XMin: -2, XMax: 2},
		Params:   model.DefaultParams(),
		Steps:    8,
		Flags:    uint32(DefaultFlags | ShowSecondDerivative | ShowArea),
	})
	fr, err := Compute(s, calculus.NewRegistry(), DefaultLayout())
	if err != nil {
		t.Fatal(err)
	}
	if !isFinite(fr.Y.D0) || !isFinite(fr.Y.D1) || fr.Y.D0 >= fr.Y.D1 {
		t.Fatalf("y range must be finite, got %g..%g", fr.Y.D0, fr.Y.D1)
	}
	for _, c := range fr.Colors {
		if strings.Contains(c.String(), "NaN") {
			t.Fatalf("non-finite color %s", c)
		}
	}
	var buf bytes.Buffer
	if err := WriteSVG(&buf, fr); err != nil {
		t.Fatalf("write svg: %v", err)
	}
}

func TestComputeUnknownFunction(t *testing.T) {
	s := testState()
	s.Function = "nope"
	if _, err := Compute(s, calculus.NewRegistry(), DefaultLayout()); err == nil {
		t.Fatalf("expected error for unknown function")
	}
}

func TestPointerCursor(t *testing.T) {
	layout := DefaultLayout()
	s := NewState(model.ChartConfig{
		Function: "quadratic",
		Domain:   model.Domain{XMin: -4, XMax: 4},
		Params:   model.DefaultParams(),
		Steps:    40,
		Flags:    uint32(ShowTangent),
	})
	// Center of the plot area is x = 0; a quarter to the right is x = 2.
	px := layout.Margin.Left + layout.InnerWidth()*0.75
	s = mustApply(t, s, PointerMove{X: px})
	fr, err := Compute(s, calculus.NewRegistry(), layout)
	if err != nil {
		t.Fatal(err)
	}
	c := fr.Cursor
	if c == nil {
		t.Fatalf("expected cursor")
	}
	if math.Abs(c.X-2) > 1e-9 || math.Abs(c.Y-4) > 1e-8 {
		t.Fatalf("unexpected cursor (%g, %g)", c.X, c.Y)
	}
	if math.Abs(c.Slope-4) > 1e-3 {
		t.Fatalf("expected slope ≈ 4, got %g", c.Slope)
	}
	if c.Tangent[0].X != 0 || c.Tangent[1].X != 4 {
		t.Fatalf("tangent must span x ± 2, got %+v", c.Tangent)
	}
	if math.Abs(c.Tangent[1].Y-(c.Y+2*c.Slope)) > 1e-12 {
		t.Fatalf("tangent end off the line: %+v", c.Tangent)
	}
	if math.Abs(c.PX-px) > 1e-9 {
		t.Fatalf("cursor px %g, want %g", c.PX, px)
	}
	a, b, ok := fr.TangentInView()
	if !ok || a.Y < fr.Y.D0-1e-9 || b.Y > fr.Y.D1+1e-9 {
		t.Fatalf("tangent not clipped to view: %+v %+v", a, b)
	}
}

func TestPointerOutsidePlotClamps(t *testing.T) {
	s := mustApply(t, testState(), PointerMove{X: -500})
	fr, err := Compute(s, calculus.NewRegistry(), DefaultLayout())
	if err != nil {
		t.Fatal(err)
	}
	if fr.Cursor.X != s.Domain.XMin {
		t.Fatalf("expected clamp to %g, got %g", s.Domain.XMin, fr.Cursor.X)
	}
	s = mustApply(t, s, PointerLeave{})
	if fr, _ = Compute(s, calculus.NewRegistry(), DefaultLayout()); fr.Cursor != nil {
		t.Fatalf("cursor should be gone after leave")
	}
}

func TestWriteSVG(t *testing.T) {
	s := mustApply(t, testState(), Toggle{Flag: ShowGrid}, Toggle{Flag: ShowPoints}, Toggle{Flag: DarkMode}, PointerMove{X: 300})
	fr, err := Compute(s, calculus.NewRegistry(), DefaultLayout())
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WriteSVG(&buf, fr); err != nil {
		t.Fatalf("write svg: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "<svg") {
		t.Fatalf("expected svg document")
	}
}

func TestSaveSVGCreatesDirs(t *testing.T) {
	fr, err := Compute(testState(), calculus.NewRegistry(), DefaultLayout())
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "a", "b", "chart.svg")
	if err := SaveSVG(path, fr); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "<svg") {
		t.Fatalf("expected svg file")
	}
}

func TestReadOutUndefined(t *testing.T) {
	out := ReadOut(Cursor{X: -1, Y: math.NaN(), Slope: math.Inf(1)})
	if !strings.Contains(out, "f(x) = undefined") || !strings.Contains(out, "x = -1.000") {
		t.Fatalf("unexpected read-out %q", out)
	}
}

func TestPaletteColorsParse(t *testing.T) {
	r, g, b, a := lightPalette.function.RGBA()
	if r>>8 != 0x25 || g>>8 != 0x63 || b>>8 != 0xeb || a != 0xffff {
		t.Fatalf("unexpected function color %x %x %x %x", r, g, b, a)
	}
	r, g, b, _ = darkPalette.background.RGBA()
	if r>>8 != 0x11 || g>>8 != 0x18 || b>>8 != 0x27 {
		t.Fatalf("unexpected dark background %x %x %x", r, g, b)
	}
}

func TestMustHexPanicsOnBadInput(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for malformed color")
		}
	}()
	mustHex("#zzz")
}
