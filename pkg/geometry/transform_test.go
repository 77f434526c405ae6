package geometry

import (
	"math"
	"testing"
)

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func approxPoint(a, b Point) bool {
	return approxEqual(a.X, b.X) && approxEqual(a.Y, b.Y)
}

func TestTranslationApply(t *testing.T) {
	tr := Translation(5, -3)
	got := tr.Apply(Point{X: 1, Y: 2})
	if !approxPoint(got, Point{X: 6, Y: -1}) {
		t.Errorf("Translation.Apply = %+v, want (6,-1)", got)
	}
}

func TestRotationQuarterTurn(t *testing.T) {
	tr := Rotation(90)
	got := tr.Apply(Point{X: 1, Y: 0})
	if !approxPoint(got, Point{X: 0, Y: 1}) {
		t.Errorf("90 degree rotation of (1,0) = %+v, want (0,1)", got)
	}
}

func TestRotationAboutCenter(t *testing.T) {
	center := Point{X: 10, Y: 10}
	tr := RotationAbout(180, center)

	got := tr.Apply(Point{X: 12, Y: 10})
	if !approxPoint(got, Point{X: 8, Y: 10}) {
		t.Errorf("180 about (10,10) of (12,10) = %+v, want (8,10)", got)
	}
	// Center must be a fixed point.
	if got := tr.Apply(center); !approxPoint(got, center) {
		t.Errorf("rotation moved its own center: %+v", got)
	}
}

func TestInverseRoundTrip(t *testing.T) {
	tr := RotationAbout(37, Point{X: 3, Y: 4}).Compose(Translation(2, 9))
	inv, ok := tr.Inverse()
	if !ok {
		t.Fatal("transform reported as singular")
	}

	p := Point{X: -7.5, Y: 12.25}
	got := inv.Apply(tr.Apply(p))
	if !approxPoint(got, p) {
		t.Errorf("inverse round trip = %+v, want %+v", got, p)
	}
}

func TestComposeOrder(t *testing.T) {
	// Compose applies the right-hand transform first: scale then translate.
	tr := Translation(10, 0).Compose(Scaling(2, 2))
	got := tr.Apply(Point{X: 1, Y: 1})
	if !approxPoint(got, Point{X: 12, Y: 2}) {
		t.Errorf("translate∘scale of (1,1) = %+v, want (12,2)", got)
	}
}

func TestRectContains(t *testing.T) {
	r := NewRect(10, 20, 30, 40)
	tests := []struct {
		name string
		p    Point
		want bool
	}{
		{"inside", Point{X: 25, Y: 40}, true},
		{"on edge", Point{X: 10, Y: 20}, true},
		{"left of", Point{X: 9.9, Y: 40}, false},
		{"below", Point{X: 25, Y: 60.1}, false},
	}
	for _, tt := range tests {
		if got := r.Contains(tt.p); got != tt.want {
			t.Errorf("%s: Contains(%+v) = %v, want %v", tt.name, tt.p, got, tt.want)
		}
	}
}

func TestRectNormalized(t *testing.T) {
	r := Rect{X: 10, Y: 10, Width: -4, Height: -6}.Normalized()
	want := Rect{X: 6, Y: 4, Width: 4, Height: 6}
	if r != want {
		t.Errorf("Normalized = %+v, want %+v", r, want)
	}
}

func TestBoundingBox(t *testing.T) {
	pts := []Point{{1, 5}, {-2, 3}, {4, -1}}
	box := BoundingBox(pts)
	want := Rect{X: -2, Y: -1, Width: 6, Height: 6}
	if box != want {
		t.Errorf("BoundingBox = %+v, want %+v", box, want)
	}
}
