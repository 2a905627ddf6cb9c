package chart

import (
	"math"
	"testing"

	"github.com/verte-zerg/calcviz/internal/model"
)

func TestScaleInvertRoundTrip(t *testing.T) {
	s := XScale(model.Domain{XMin: -10, XMax: 10}, DefaultLayout())
	for _, x := range []float64{-10, -3.5, 0, 7} {
		if got := s.Invert(s.Map(x)); math.Abs(got-x) > 1e-12 {
			t.Fatalf("round trip %g -> %g", x, got)
		}
	}
}

func TestValueRange(t *testing.T) {
	lo, hi := ValueRange([]float64{0, 10})
	if lo != -1 || hi != 11 {
		t.Fatalf("expected -1..11, got %g..%g", lo, hi)
	}
	lo, hi = ValueRange([]float64{2, 2})
	if lo != 1 || hi != 3 {
		t.Fatalf("flat series: expected 1..3, got %g..%g", lo, hi)
	}
	lo, hi = ValueRange([]float64{math.NaN(), math.Inf(1)})
	if lo != -1 || hi != 1 {
		t.Fatalf("no finite values: expected -1..1, got %g..%g", lo, hi)
	}
}

func TestClipSegment(t *testing.T) {
	a, b, ok := ClipSegment(Point{X: -2, Y: -2}, Point{X: 2, Y: 2}, -1, 1, -1, 1)
	if !ok || a != (Point{X: -1, Y: -1}) || b != (Point{X: 1, Y: 1}) {
		t.Fatalf("unexpected clip %+v %+v %v", a, b, ok)
	}
	if _, _, ok := ClipSegment(Point{X: 2, Y: 2}, Point{X: 3, Y: 3}, -1, 1, -1, 1); ok {
		t.Fatalf("segment outside the box must be rejected")
	}
}
