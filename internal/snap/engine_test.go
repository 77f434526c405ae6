package snap

import (
	"math"
	"testing"

	"printlayout/internal/paper"
	"printlayout/internal/scene"
	"printlayout/pkg/geometry"
)

func testLayout() *scene.Layout {
	return scene.NewLayout(paper.SizeA4)
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestGridSnapMove(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Siblings = false
	cfg.PageCenter = false
	cfg.Margins = false
	eng := New(cfg)

	lay := testLayout()
	proposed := geometry.Rect{X: 10.8, Y: 40.3, Width: 20, Height: 20}
	res := eng.AdjustMove(proposed, lay, nil, 1)

	if !res.SnappedX || !approx(res.Rect.X, 10) {
		t.Errorf("x: snapped=%v got %.3f, want 10", res.SnappedX, res.Rect.X)
	}
	if !res.SnappedY || !approx(res.Rect.Y, 40.3+(-0.3)) {
		t.Errorf("y: snapped=%v got %.3f, want 40", res.SnappedY, res.Rect.Y)
	}
	if res.KindX != KindGrid {
		t.Errorf("kind = %v, want KindGrid", res.KindX)
	}
}

func TestSiblingSnapUsesEdgesAndCenter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GridEnabled = false
	cfg.PageCenter = false
	cfg.Margins = false
	eng := New(cfg)

	lay := testLayout()
	sib := lay.AddImage("sib.png", 300, 300)
	if err := lay.SetGeometry(sib.ID, geometry.Rect{X: 50, Y: 50, Width: 30, Height: 30}); err != nil {
		t.Fatal(err)
	}

	// Left edge 0.5mm from the sibling's left edge.
	proposed := geometry.Rect{X: 50.5, Y: 120, Width: 10, Height: 10}
	res := eng.AdjustMove(proposed, lay, nil, 1)
	if !res.SnappedX || !approx(res.Rect.X, 50) {
		t.Errorf("got x=%.3f snapped=%v, want 50", res.Rect.X, res.SnappedX)
	}
	if res.KindX != KindSibling {
		t.Errorf("kind = %v, want KindSibling", res.KindX)
	}

	// Center 0.4mm from the sibling's center (65).
	proposed = geometry.Rect{X: 60.4, Y: 120, Width: 10, Height: 10}
	res = eng.AdjustMove(proposed, lay, nil, 1)
	if !res.SnappedX || !approx(res.Rect.X+res.Rect.Width/2, 65) {
		t.Errorf("center = %.3f, want 65", res.Rect.X+res.Rect.Width/2)
	}
}

func TestExcludedImagesContributeNoCandidates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GridEnabled = false
	cfg.PageCenter = false
	cfg.Margins = false
	eng := New(cfg)

	lay := testLayout()
	sib := lay.AddImage("sib.png", 300, 300)
	if err := lay.SetGeometry(sib.ID, geometry.Rect{X: 50, Y: 50, Width: 30, Height: 30}); err != nil {
		t.Fatal(err)
	}

	proposed := geometry.Rect{X: 50.5, Y: 50.5, Width: 30, Height: 30}
	res := eng.AdjustMove(proposed, lay, map[string]bool{sib.ID: true}, 1)
	if res.SnappedX || res.SnappedY {
		t.Errorf("snapped against excluded image: %+v", res)
	}
}

func TestTieBreakPrefersGridOverSibling(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PageCenter = false
	cfg.Margins = false
	eng := New(cfg)

	lay := testLayout()
	sib := lay.AddImage("sib.png", 300, 300)
	// Sibling left edge exactly on the 50mm grid line.
	if err := lay.SetGeometry(sib.ID, geometry.Rect{X: 50, Y: 150, Width: 30, Height: 30}); err != nil {
		t.Fatal(err)
	}

	proposed := geometry.Rect{X: 50.5, Y: 10, Width: 7, Height: 7}
	res := eng.AdjustMove(proposed, lay, nil, 1)
	if !res.SnappedX || !approx(res.Rect.X, 50) {
		t.Fatalf("got x=%.3f snapped=%v, want 50", res.Rect.X, res.SnappedX)
	}
	if res.KindX != KindGrid {
		t.Errorf("kind = %v, want KindGrid to win the tie", res.KindX)
	}
}

func TestThresholdShrinksWithZoom(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Siblings = false
	cfg.PageCenter = false
	cfg.Margins = false
	eng := New(cfg)

	lay := testLayout()
	// 0.8mm off grid: inside the ~1.59mm radius at zoom 1, outside the
	// ~0.40mm radius at zoom 4.
	proposed := geometry.Rect{X: 10.8, Y: 10.8, Width: 20, Height: 20}

	if res := eng.AdjustMove(proposed, lay, nil, 1); !res.SnappedX {
		t.Error("expected snap at zoom 1")
	}
	if res := eng.AdjustMove(proposed, lay, nil, 4); res.SnappedX {
		t.Error("unexpected snap at zoom 4")
	}
}

func TestPageCenterAndMarginSnap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GridEnabled = false
	cfg.Siblings = false
	eng := New(cfg)

	lay := testLayout() // A4 portrait, 210mm wide, default 25.4mm margins

	// Rect center 0.5mm off the page center line at 105mm.
	proposed := geometry.Rect{X: 95.5, Y: 100, Width: 20, Height: 20}
	res := eng.AdjustMove(proposed, lay, nil, 1)
	if !res.SnappedX || !approx(res.Rect.X+res.Rect.Width/2, 105) {
		t.Errorf("center = %.3f, want 105", res.Rect.X+res.Rect.Width/2)
	}
	if res.KindX != KindPageCenter {
		t.Errorf("kind = %v, want KindPageCenter", res.KindX)
	}

	// Left edge 0.6mm from the left margin boundary at 25.4mm.
	proposed = geometry.Rect{X: 26, Y: 100, Width: 10, Height: 10}
	res = eng.AdjustMove(proposed, lay, nil, 1)
	if !res.SnappedX || !approx(res.Rect.X, 25.4) {
		t.Errorf("x = %.3f, want 25.4", res.Rect.X)
	}
	if res.KindX != KindMargin {
		t.Errorf("kind = %v, want KindMargin", res.KindX)
	}
}

func TestAdjustResizeMovesOnlyTheActiveEdge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Siblings = false
	cfg.PageCenter = false
	cfg.Margins = false
	eng := New(cfg)

	lay := testLayout()
	proposed := geometry.Rect{X: 15, Y: 15, Width: 34.3, Height: 20}

	res := eng.AdjustResize(proposed, Edges{Right: true}, lay, nil, 1)
	if !res.SnappedX {
		t.Fatal("expected a right-edge snap")
	}
	if !approx(res.Rect.X, 15) {
		t.Errorf("left edge moved to %.3f", res.Rect.X)
	}
	if !approx(res.Rect.X+res.Rect.Width, 50) {
		t.Errorf("right edge = %.3f, want 50", res.Rect.X+res.Rect.Width)
	}

	res = eng.AdjustResize(geometry.Rect{X: 10.4, Y: 15, Width: 30, Height: 20}, Edges{Left: true}, lay, nil, 1)
	if !approx(res.Rect.X, 10) || !approx(res.Rect.X+res.Rect.Width, 40.4) {
		t.Errorf("left resize got %+v", res.Rect)
	}
}

func TestAllCategoriesDisabled(t *testing.T) {
	eng := New(Config{ThresholdPx: DefaultThresholdPx})
	lay := testLayout()
	proposed := geometry.Rect{X: 10.2, Y: 10.2, Width: 20, Height: 20}
	res := eng.AdjustMove(proposed, lay, nil, 1)
	if res.SnappedX || res.SnappedY {
		t.Errorf("snap with everything disabled: %+v", res)
	}
	if res.Rect != proposed {
		t.Errorf("rect changed: %+v", res.Rect)
	}
}
