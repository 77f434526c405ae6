package interact

import (
	"math"
	"math/rand"
	"testing"

	"printlayout/internal/paper"
	"printlayout/internal/scene"
	"printlayout/internal/snap"
	"printlayout/pkg/geometry"
)

func newFixture(t *testing.T) (*scene.Layout, *Machine) {
	t.Helper()
	lay := scene.NewLayout(paper.SizeA4)
	return lay, NewMachine(lay, nil)
}

func placeAt(t *testing.T, lay *scene.Layout, r geometry.Rect) *scene.PlacedImage {
	t.Helper()
	img := lay.AddImage("img.png", 1000, 1000)
	if err := lay.SetGeometry(img.ID, r); err != nil {
		t.Fatal(err)
	}
	return img
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestMoveSelectedImage(t *testing.T) {
	lay, m := newFixture(t)
	img := placeAt(t, lay, geometry.Rect{X: 50, Y: 50, Width: 40, Height: 20})

	m.PointerDown(geometry.Point{X: 60, Y: 55}, Modifiers{}, 1)
	if m.Mode() != ModeMove {
		t.Fatalf("mode = %v, want ModeMove", m.Mode())
	}
	if !img.Selected {
		t.Error("pointer down should select the hit image")
	}
	m.PointerMove(geometry.Point{X: 70, Y: 60}, Modifiers{}, 1)
	if changed := m.PointerUp(geometry.Point{X: 70, Y: 60}, Modifiers{}, 1); !changed {
		t.Error("move should report a change")
	}
	if !approx(img.XMM, 60) || !approx(img.YMM, 55) {
		t.Errorf("moved to (%.2f, %.2f), want (60, 55)", img.XMM, img.YMM)
	}
}

func TestMultiSelectMoveSkipsLocked(t *testing.T) {
	lay, m := newFixture(t)
	a := placeAt(t, lay, geometry.Rect{X: 30, Y: 30, Width: 20, Height: 20})
	b := placeAt(t, lay, geometry.Rect{X: 100, Y: 100, Width: 20, Height: 20})
	lay.Select(a.ID, false)
	lay.Select(b.ID, true)
	lay.SetLocked(b.ID, true)

	m.PointerDown(geometry.Point{X: 35, Y: 35}, Modifiers{}, 1)
	m.PointerMove(geometry.Point{X: 45, Y: 40}, Modifiers{}, 1)
	m.PointerUp(geometry.Point{X: 45, Y: 40}, Modifiers{}, 1)

	if !approx(a.XMM, 40) || !approx(a.YMM, 35) {
		t.Errorf("a at (%.2f, %.2f), want (40, 35)", a.XMM, a.YMM)
	}
	if !approx(b.XMM, 100) || !approx(b.YMM, 100) {
		t.Errorf("locked image moved to (%.2f, %.2f)", b.XMM, b.YMM)
	}
}

func TestMultiSelectMoveAllLockedUnchanged(t *testing.T) {
	lay, m := newFixture(t)
	a := placeAt(t, lay, geometry.Rect{X: 30, Y: 30, Width: 20, Height: 20})
	b := placeAt(t, lay, geometry.Rect{X: 100, Y: 100, Width: 20, Height: 20})
	lay.Select(a.ID, false)
	lay.Select(b.ID, true)
	lay.SetLocked(a.ID, true)
	lay.SetLocked(b.ID, true)

	m.PointerDown(geometry.Point{X: 35, Y: 35}, Modifiers{}, 1)
	m.PointerMove(geometry.Point{X: 40, Y: 40}, Modifiers{}, 1)
	if changed := m.PointerUp(geometry.Point{X: 40, Y: 40}, Modifiers{}, 1); changed {
		t.Error("dragging locked images should not report a change")
	}

	if !approx(a.XMM, 30) || !approx(a.YMM, 30) {
		t.Errorf("locked a moved to (%.2f, %.2f)", a.XMM, a.YMM)
	}
	if !approx(b.XMM, 100) || !approx(b.YMM, 100) {
		t.Errorf("locked b moved to (%.2f, %.2f)", b.XMM, b.YMM)
	}
}

func TestMultiSelectResizeAppliesToAll(t *testing.T) {
	lay, m := newFixture(t)
	a := placeAt(t, lay, geometry.Rect{X: 30, Y: 30, Width: 20, Height: 20})
	b := placeAt(t, lay, geometry.Rect{X: 100, Y: 100, Width: 20, Height: 20})
	c := placeAt(t, lay, geometry.Rect{X: 150, Y: 150, Width: 20, Height: 20})
	lay.Select(a.ID, false)
	lay.Select(b.ID, true)
	lay.Select(c.ID, true)
	lay.SetLocked(c.ID, true)

	// Bottom-right handle of a.
	m.PointerDown(geometry.Point{X: 50, Y: 50}, Modifiers{}, 1)
	if m.Mode() != ModeResize || m.ActiveHandle() != HandleBottomRight {
		t.Fatalf("mode=%v handle=%v, want resize on bottom-right", m.Mode(), m.ActiveHandle())
	}
	m.PointerMove(geometry.Point{X: 60, Y: 55}, Modifiers{}, 1)
	if changed := m.PointerUp(geometry.Point{X: 60, Y: 55}, Modifiers{}, 1); !changed {
		t.Error("resize should report a change")
	}

	if !approx(a.WidthMM, 30) || !approx(a.HeightMM, 25) {
		t.Errorf("a size = %.2fx%.2f, want 30x25", a.WidthMM, a.HeightMM)
	}
	if !approx(b.WidthMM, 30) || !approx(b.HeightMM, 25) {
		t.Errorf("b size = %.2fx%.2f, want 30x25", b.WidthMM, b.HeightMM)
	}
	if !approx(a.XMM, 30) || !approx(b.XMM, 100) {
		t.Errorf("origins moved: a.X=%.2f b.X=%.2f", a.XMM, b.XMM)
	}
	if !approx(c.WidthMM, 20) || !approx(c.HeightMM, 20) {
		t.Errorf("locked c resized to %.2fx%.2f", c.WidthMM, c.HeightMM)
	}
}

func TestResizeBottomRight(t *testing.T) {
	lay, m := newFixture(t)
	img := placeAt(t, lay, geometry.Rect{X: 50, Y: 50, Width: 40, Height: 20})
	lay.Select(img.ID, false)

	m.PointerDown(geometry.Point{X: 90, Y: 70}, Modifiers{}, 1)
	if m.Mode() != ModeResize || m.ActiveHandle() != HandleBottomRight {
		t.Fatalf("mode=%v handle=%v", m.Mode(), m.ActiveHandle())
	}
	m.PointerMove(geometry.Point{X: 100, Y: 75}, Modifiers{}, 1)
	m.PointerUp(geometry.Point{X: 100, Y: 75}, Modifiers{}, 1)

	if !approx(img.WidthMM, 50) || !approx(img.HeightMM, 25) {
		t.Errorf("size = %.2fx%.2f, want 50x25", img.WidthMM, img.HeightMM)
	}
	if !approx(img.XMM, 50) || !approx(img.YMM, 50) {
		t.Errorf("origin moved to (%.2f, %.2f)", img.XMM, img.YMM)
	}
}

func TestResizeLeftKeepsRightEdge(t *testing.T) {
	lay, m := newFixture(t)
	img := placeAt(t, lay, geometry.Rect{X: 50, Y: 50, Width: 40, Height: 20})
	lay.Select(img.ID, false)

	m.PointerDown(geometry.Point{X: 50, Y: 60}, Modifiers{}, 1)
	if m.ActiveHandle() != HandleLeft {
		t.Fatalf("handle = %v, want HandleLeft", m.ActiveHandle())
	}
	m.PointerMove(geometry.Point{X: 45, Y: 60}, Modifiers{}, 1)
	m.PointerUp(geometry.Point{X: 45, Y: 60}, Modifiers{}, 1)

	if !approx(img.XMM, 45) || !approx(img.WidthMM, 45) {
		t.Errorf("got x=%.2f w=%.2f, want x=45 w=45", img.XMM, img.WidthMM)
	}
	if !approx(img.XMM+img.WidthMM, 90) {
		t.Errorf("right edge = %.2f, want 90", img.XMM+img.WidthMM)
	}
}

func TestResizeClampsToMinimumSilently(t *testing.T) {
	lay, m := newFixture(t)
	img := placeAt(t, lay, geometry.Rect{X: 50, Y: 50, Width: 40, Height: 20})
	lay.Select(img.ID, false)

	m.PointerDown(geometry.Point{X: 90, Y: 70}, Modifiers{}, 1)
	// Drag the bottom-right corner far past the top-left.
	m.PointerMove(geometry.Point{X: 10, Y: 10}, Modifiers{}, 1)
	m.PointerUp(geometry.Point{X: 10, Y: 10}, Modifiers{}, 1)

	if !approx(img.WidthMM, MinSizeMM) || !approx(img.HeightMM, MinSizeMM) {
		t.Errorf("size = %.2fx%.2f, want %vx%v", img.WidthMM, img.HeightMM, MinSizeMM, MinSizeMM)
	}
	if !approx(img.XMM, 50) || !approx(img.YMM, 50) {
		t.Errorf("anchored edge moved: (%.2f, %.2f)", img.XMM, img.YMM)
	}
}

func TestAspectLockPreservesRatio(t *testing.T) {
	lay, m := newFixture(t)
	img := placeAt(t, lay, geometry.Rect{X: 50, Y: 50, Width: 40, Height: 20})
	lay.Select(img.ID, false)

	rng := rand.New(rand.NewSource(1))
	m.PointerDown(geometry.Point{X: 90, Y: 70}, Modifiers{AspectLock: true}, 1)
	for i := 0; i < 12; i++ {
		dx := rng.Float64()*40 - 10
		dy := rng.Float64()*40 - 10
		m.PointerMove(geometry.Point{X: 90 + dx, Y: 70 + dy}, Modifiers{AspectLock: true}, 1)
		ratio := img.WidthMM / img.HeightMM
		if math.Abs(ratio-2) > 1e-6 {
			t.Fatalf("step %d: ratio = %.6f, want 2", i, ratio)
		}
		if !approx(img.XMM, 50) || !approx(img.YMM, 50) {
			t.Fatalf("step %d: anchor corner moved to (%.2f, %.2f)", i, img.XMM, img.YMM)
		}
	}
	m.PointerUp(geometry.Point{X: 90, Y: 70}, Modifiers{AspectLock: true}, 1)
}

func TestEscapeRevertsGeometryAndRotation(t *testing.T) {
	lay, m := newFixture(t)
	img := placeAt(t, lay, geometry.Rect{X: 50, Y: 50, Width: 40, Height: 20})

	m.PointerDown(geometry.Point{X: 60, Y: 55}, Modifiers{}, 1)
	m.PointerMove(geometry.Point{X: 120, Y: 130}, Modifiers{}, 1)
	m.Cancel()

	if !approx(img.XMM, 50) || !approx(img.YMM, 50) {
		t.Errorf("position not reverted: (%.2f, %.2f)", img.XMM, img.YMM)
	}
	if m.Dragging() {
		t.Error("session still active after cancel")
	}
}

func TestSelectionBoxSelectsIntersecting(t *testing.T) {
	lay, m := newFixture(t)
	a := placeAt(t, lay, geometry.Rect{X: 30, Y: 30, Width: 20, Height: 20})
	b := placeAt(t, lay, geometry.Rect{X: 80, Y: 80, Width: 20, Height: 20})
	c := placeAt(t, lay, geometry.Rect{X: 160, Y: 200, Width: 20, Height: 20})

	m.PointerDown(geometry.Point{X: 10, Y: 10}, Modifiers{}, 1)
	if m.Mode() != ModeSelectionBox {
		t.Fatalf("mode = %v, want ModeSelectionBox", m.Mode())
	}
	m.PointerMove(geometry.Point{X: 110, Y: 110}, Modifiers{}, 1)
	m.PointerUp(geometry.Point{X: 110, Y: 110}, Modifiers{}, 1)

	if !a.Selected || !b.Selected {
		t.Error("images inside the band should be selected")
	}
	if c.Selected {
		t.Error("image outside the band should not be selected")
	}
}

func TestRotateViaGrip(t *testing.T) {
	lay, m := newFixture(t)
	img := placeAt(t, lay, geometry.Rect{X: 50, Y: 50, Width: 40, Height: 20})
	lay.Select(img.ID, false)

	// The grip sits above the top-center handle; at zoom 1 the 20px
	// offset is about 5.29mm.
	grip := geometry.Point{X: 70, Y: 50 - 20.0/96.0*25.4}
	m.PointerDown(grip, Modifiers{}, 1)
	if m.Mode() != ModeRotate {
		t.Fatalf("mode = %v, want ModeRotate", m.Mode())
	}

	// Swing the pointer from straight up to straight right of the
	// center (70, 60): a quarter turn clockwise.
	m.PointerMove(geometry.Point{X: 100, Y: 60}, Modifiers{}, 1)
	m.PointerUp(geometry.Point{X: 100, Y: 60}, Modifiers{}, 1)

	if !approx(img.RotationDeg, 90) {
		t.Errorf("rotation = %.3f, want 90", img.RotationDeg)
	}
}

func TestRotateSnapsToFifteenDegreeSteps(t *testing.T) {
	lay, m := newFixture(t)
	img := placeAt(t, lay, geometry.Rect{X: 50, Y: 50, Width: 40, Height: 20})
	lay.Select(img.ID, false)

	grip := geometry.Point{X: 70, Y: 50 - 20.0/96.0*25.4}
	m.PointerDown(grip, Modifiers{AspectLock: true}, 1)
	// Just shy of 45 degrees from the start.
	m.PointerMove(geometry.Point{X: 85, Y: 46}, Modifiers{AspectLock: true}, 1)
	m.PointerUp(geometry.Point{X: 85, Y: 46}, Modifiers{AspectLock: true}, 1)

	if rem := math.Mod(img.RotationDeg, 15); !approx(rem, 0) && !approx(rem, 15) {
		t.Errorf("rotation %.3f is not a multiple of 15", img.RotationDeg)
	}
}

func TestMoveSnapAndDisableSnap(t *testing.T) {
	lay := scene.NewLayout(paper.SizeA4)
	cfg := snap.Config{GridEnabled: true, GridSpacingMM: 10, ThresholdPx: snap.DefaultThresholdPx}
	m := NewMachine(lay, snap.New(cfg))
	img := placeAt(t, lay, geometry.Rect{X: 50, Y: 50, Width: 20, Height: 20})

	m.PointerDown(geometry.Point{X: 55, Y: 55}, Modifiers{}, 1)
	m.PointerMove(geometry.Point{X: 55.4, Y: 55}, Modifiers{}, 1)
	if !approx(img.XMM, 50) {
		t.Errorf("x = %.3f, want snap back to 50", img.XMM)
	}
	m.PointerMove(geometry.Point{X: 55.4, Y: 55}, Modifiers{DisableSnap: true}, 1)
	if !approx(img.XMM, 50.4) {
		t.Errorf("x = %.3f, want 50.4 with snapping disabled", img.XMM)
	}
	m.PointerUp(geometry.Point{X: 55.4, Y: 55}, Modifiers{DisableSnap: true}, 1)
}

func TestAdditiveClickTogglesWithoutDragging(t *testing.T) {
	lay, m := newFixture(t)
	img := placeAt(t, lay, geometry.Rect{X: 150, Y: 150, Width: 20, Height: 20})
	lay.Select(img.ID, false)

	m.PointerDown(geometry.Point{X: 160, Y: 160}, Modifiers{Additive: true}, 1)
	if img.Selected {
		t.Error("additive click on a selected image should deselect it")
	}
	if m.Dragging() {
		t.Error("deselection must not start a drag")
	}
}

func TestPanReportsDeltas(t *testing.T) {
	lay, m := newFixture(t)
	_ = lay

	var dx, dy float64
	m.OnPan = func(x, y float64) { dx += x; dy += y }

	m.PointerDown(geometry.Point{X: 10, Y: 10}, Modifiers{Pan: true}, 1)
	m.PointerMove(geometry.Point{X: 15, Y: 12}, Modifiers{Pan: true}, 1)
	m.PointerMove(geometry.Point{X: 22, Y: 20}, Modifiers{Pan: true}, 1)
	m.PointerUp(geometry.Point{X: 22, Y: 20}, Modifiers{Pan: true}, 1)

	if !approx(dx, 12) || !approx(dy, 10) {
		t.Errorf("pan total = (%.2f, %.2f), want (12, 10)", dx, dy)
	}
}
