// Package interact implements the pointer interaction state machine for
// the canvas: selection, moving, resizing via eight handles, rotation,
// panning, and rubber-band selection. All coordinates are page
// millimeters; the UI converts from screen pixels before calling in.
package interact

import (
	"printlayout/internal/snap"
	"printlayout/pkg/geometry"
)

// Handle identifies one of the eight resize handles on a selected image.
type Handle int

const (
	HandleNone Handle = iota
	HandleTopLeft
	HandleTop
	HandleTopRight
	HandleRight
	HandleBottomRight
	HandleBottom
	HandleBottomLeft
	HandleLeft
)

// HandleSizePx is the drawn size of a handle square on screen.
const HandleSizePx = 8.0

// HandleCatchPx is the pointer catch radius around a handle center.
const HandleCatchPx = 6.0

// RotateHandleOffsetPx is how far above the top-center handle the
// rotation grip sits, in screen pixels.
const RotateHandleOffsetPx = 20.0

var allHandles = [8]Handle{
	HandleTopLeft, HandleTop, HandleTopRight, HandleRight,
	HandleBottomRight, HandleBottom, HandleBottomLeft, HandleLeft,
}

// Position returns the handle center for an unrotated rectangle. The
// renderer rotates these along with the image outline.
func (h Handle) Position(r geometry.Rect) geometry.Point {
	cx := r.X + r.Width/2
	cy := r.Y + r.Height/2
	switch h {
	case HandleTopLeft:
		return geometry.Point{X: r.X, Y: r.Y}
	case HandleTop:
		return geometry.Point{X: cx, Y: r.Y}
	case HandleTopRight:
		return geometry.Point{X: r.X + r.Width, Y: r.Y}
	case HandleRight:
		return geometry.Point{X: r.X + r.Width, Y: cy}
	case HandleBottomRight:
		return geometry.Point{X: r.X + r.Width, Y: r.Y + r.Height}
	case HandleBottom:
		return geometry.Point{X: cx, Y: r.Y + r.Height}
	case HandleBottomLeft:
		return geometry.Point{X: r.X, Y: r.Y + r.Height}
	case HandleLeft:
		return geometry.Point{X: r.X, Y: cy}
	}
	return geometry.Point{}
}

// HandlePositions returns all eight handle centers in handle order.
func HandlePositions(r geometry.Rect) [8]geometry.Point {
	var out [8]geometry.Point
	for i, h := range allHandles {
		out[i] = h.Position(r)
	}
	return out
}

// HandleAt returns the handle whose center lies within radiusMM of the
// point, or HandleNone. Corners are tested first so they win over the
// adjacent edge midpoints at rect sizes near the catch radius.
func HandleAt(r geometry.Rect, p geometry.Point, radiusMM float64) Handle {
	order := [8]Handle{
		HandleTopLeft, HandleTopRight, HandleBottomRight, HandleBottomLeft,
		HandleTop, HandleRight, HandleBottom, HandleLeft,
	}
	for _, h := range order {
		if h.Position(r).Distance(p) <= radiusMM {
			return h
		}
	}
	return HandleNone
}

// edges reports which rectangle edges the handle moves, for snapping.
func (h Handle) edges() snap.Edges {
	var e snap.Edges
	switch h {
	case HandleTopLeft:
		e.Left, e.Top = true, true
	case HandleTop:
		e.Top = true
	case HandleTopRight:
		e.Right, e.Top = true, true
	case HandleRight:
		e.Right = true
	case HandleBottomRight:
		e.Right, e.Bottom = true, true
	case HandleBottom:
		e.Bottom = true
	case HandleBottomLeft:
		e.Left, e.Bottom = true, true
	case HandleLeft:
		e.Left = true
	}
	return e
}

// isCorner reports whether the handle moves two edges at once.
func (h Handle) isCorner() bool {
	switch h {
	case HandleTopLeft, HandleTopRight, HandleBottomRight, HandleBottomLeft:
		return true
	}
	return false
}
