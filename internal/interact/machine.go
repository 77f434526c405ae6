package interact

import (
	"math"

	"printlayout/internal/scene"
	"printlayout/internal/snap"
	"printlayout/internal/units"
	"printlayout/pkg/geometry"
)

// MinSizeMM is the smallest width or height a resize can produce. The
// clamp is silent; the drag just stops shrinking.
const MinSizeMM = 1.0

// Modifiers are the keyboard states that alter a drag.
type Modifiers struct {
	// AspectLock preserves the aspect ratio during a resize and snaps
	// rotation to 15 degree steps.
	AspectLock bool
	// DisableSnap suppresses the snap engine for this event.
	DisableSnap bool
	// Pan turns the drag into a viewport pan.
	Pan bool
	// Additive toggles membership instead of replacing the selection.
	Additive bool
}

// Machine routes pointer events into drag sessions against a layout.
// It is not safe for concurrent use; the UI drives it from one goroutine.
type Machine struct {
	layout  *scene.Layout
	snapper *snap.Engine

	// OnPan receives pan deltas in millimeters. Callers must supply
	// pointer positions in a frame that does not itself move with the
	// pan, or apply the delta only on pointer up.
	OnPan func(dxMM, dyMM float64)

	sess *session
}

// NewMachine creates a machine over the layout. snapper may be nil to
// disable snapping entirely.
func NewMachine(layout *scene.Layout, snapper *snap.Engine) *Machine {
	return &Machine{layout: layout, snapper: snapper}
}

// Mode returns the kind of drag in progress, or ModeIdle.
func (m *Machine) Mode() Mode {
	if m.sess == nil {
		return ModeIdle
	}
	return m.sess.mode
}

// Dragging reports whether a drag session is active.
func (m *Machine) Dragging() bool {
	return m.sess != nil
}

// ActiveHandle returns the handle of an in-progress resize.
func (m *Machine) ActiveHandle() Handle {
	if m.sess == nil || m.sess.mode != ModeResize {
		return HandleNone
	}
	return m.sess.handle
}

// SelectionBox returns the current rubber-band rectangle.
func (m *Machine) SelectionBox() (geometry.Rect, bool) {
	if m.sess == nil || m.sess.mode != ModeSelectionBox {
		return geometry.Rect{}, false
	}
	return m.sess.box.Normalized(), true
}

// PointerDown starts a drag session. zoom scales pixel-based catch radii
// into millimeters.
func (m *Machine) PointerDown(p geometry.Point, mods Modifiers, zoom float64) {
	if m.sess != nil {
		return
	}
	if mods.Pan {
		m.sess = &session{mode: ModePan, anchor: p, lastPan: p}
		return
	}

	// Grips are tested topmost first, matching hit-test precedence.
	sel := m.layout.SelectedImages()
	for i := len(sel) - 1; i >= 0; i-- {
		img := sel[i]
		if !img.Visible || img.Locked {
			continue
		}
		mode, h, ok := m.hitGrip(img, p, zoom)
		if !ok {
			continue
		}
		originals := map[string]imageState{
			img.ID: {bounds: img.Bounds(), rotation: img.RotationDeg},
		}
		if mode == ModeResize {
			// A resize grabbed on one handle applies to every selected,
			// unlocked image.
			for _, other := range sel {
				if other.Locked {
					continue
				}
				originals[other.ID] = imageState{bounds: other.Bounds(), rotation: other.RotationDeg}
			}
		}
		m.sess = &session{
			mode:      mode,
			anchor:    p,
			primary:   img.ID,
			handle:    h,
			originals: originals,
		}
		if mode == ModeRotate {
			m.sess.startAngle = pointerAngle(img.Center(), p)
		}
		return
	}

	if hit := m.layout.HitTest(p); hit != nil {
		if mods.Additive {
			m.layout.Select(hit.ID, true)
			if !hit.Selected {
				return
			}
		} else if !hit.Selected {
			m.layout.Select(hit.ID, false)
		}
		originals := make(map[string]imageState)
		for _, img := range m.layout.SelectedImages() {
			originals[img.ID] = imageState{bounds: img.Bounds(), rotation: img.RotationDeg}
		}
		m.sess = &session{mode: ModeMove, anchor: p, primary: hit.ID, originals: originals}
		return
	}

	if !mods.Additive {
		m.layout.ClearSelection()
	}
	m.sess = &session{
		mode:   ModeSelectionBox,
		anchor: p,
		box:    geometry.Rect{X: p.X, Y: p.Y},
	}
}

// hitGrip tests the rotation grip and the eight resize handles of an
// image, in the image's unrotated local frame.
func (m *Machine) hitGrip(img *scene.PlacedImage, p geometry.Point, zoom float64) (Mode, Handle, bool) {
	local := m.toLocal(img, p)
	r := img.Bounds()
	dpi := units.ZoomDPI(zoom)
	radius := units.ToMM(HandleCatchPx, dpi)

	grip := geometry.Point{
		X: r.X + r.Width/2,
		Y: r.Y - units.ToMM(RotateHandleOffsetPx, dpi),
	}
	if grip.Distance(local) <= radius {
		return ModeRotate, HandleNone, true
	}
	if h := HandleAt(r, local, radius); h != HandleNone {
		return ModeResize, h, true
	}
	return ModeIdle, HandleNone, false
}

// toLocal maps a page point into the image's unrotated frame.
func (m *Machine) toLocal(img *scene.PlacedImage, p geometry.Point) geometry.Point {
	if img.RotationDeg == 0 {
		return p
	}
	return geometry.RotationAbout(-img.RotationDeg, img.Center()).Apply(p)
}

// PointerMove advances the active session.
func (m *Machine) PointerMove(p geometry.Point, mods Modifiers, zoom float64) {
	if m.sess == nil {
		return
	}
	switch m.sess.mode {
	case ModeMove:
		m.applyMove(p, mods, zoom)
	case ModeResize:
		m.applyResize(p, mods, zoom)
	case ModeRotate:
		m.applyRotate(p, mods)
	case ModePan:
		if m.OnPan != nil {
			m.OnPan(p.X-m.sess.lastPan.X, p.Y-m.sess.lastPan.Y)
		}
		m.sess.lastPan = p
	case ModeSelectionBox:
		m.sess.box = geometry.Rect{
			X:      m.sess.anchor.X,
			Y:      m.sess.anchor.Y,
			Width:  p.X - m.sess.anchor.X,
			Height: p.Y - m.sess.anchor.Y,
		}
		m.layout.SelectWithin(m.sess.box)
	}
}

func (m *Machine) applyMove(p geometry.Point, mods Modifiers, zoom float64) {
	s := m.sess
	delta := p.Sub(s.anchor)

	orig, ok := s.originals[s.primary]
	if !ok {
		return
	}
	proposed := orig.bounds
	proposed.X += delta.X
	proposed.Y += delta.Y

	if m.snapper != nil && !mods.DisableSnap {
		exclude := make(map[string]bool, len(s.originals))
		for id := range s.originals {
			exclude[id] = true
		}
		res := m.snapper.AdjustMove(proposed, m.layout, exclude, zoom)
		delta.X = res.Rect.X - orig.bounds.X
		delta.Y = res.Rect.Y - orig.bounds.Y
	}

	for id, st := range s.originals {
		r := st.bounds
		r.X += delta.X
		r.Y += delta.Y
		if err := m.layout.SetGeometry(id, r); err == nil {
			s.changed = true
		}
	}
}

func (m *Machine) applyResize(p geometry.Point, mods Modifiers, zoom float64) {
	s := m.sess
	orig, ok := s.originals[s.primary]
	if !ok {
		return
	}

	// Deltas are taken in the handle image's unrotated frame so handles
	// behave the same at any rotation.
	var delta geometry.Point
	if orig.rotation != 0 {
		inv := geometry.RotationAbout(-orig.rotation, orig.bounds.Center())
		delta = inv.Apply(p).Sub(inv.Apply(s.anchor))
	} else {
		delta = p.Sub(s.anchor)
	}

	r := resizeRect(orig.bounds, s.handle, delta, mods.AspectLock)
	r = clampMin(r, orig.bounds, s.handle)

	// Snapping only applies to axis-aligned images; a rotated edge has no
	// matching page-space line.
	if m.snapper != nil && !mods.DisableSnap && orig.rotation == 0 && !mods.AspectLock {
		exclude := make(map[string]bool, len(s.originals))
		for id := range s.originals {
			exclude[id] = true
		}
		res := m.snapper.AdjustResize(r, s.handle.edges(), m.layout, exclude, zoom)
		r = clampMin(res.Rect, orig.bounds, s.handle)
	}

	if err := m.layout.SetGeometry(s.primary, r); err == nil {
		s.changed = true
	}

	if len(s.originals) == 1 {
		return
	}

	// The rest of the selection follows the handle image's final edge
	// movement, so a snapped primary drags the others by the snapped
	// amount.
	e := s.handle.edges()
	if e.Left {
		delta.X = r.X - orig.bounds.X
	} else if e.Right {
		delta.X = r.Width - orig.bounds.Width
	}
	if e.Top {
		delta.Y = r.Y - orig.bounds.Y
	} else if e.Bottom {
		delta.Y = r.Height - orig.bounds.Height
	}
	for id, st := range s.originals {
		if id == s.primary {
			continue
		}
		or := resizeRect(st.bounds, s.handle, delta, mods.AspectLock)
		or = clampMin(or, st.bounds, s.handle)
		if err := m.layout.SetGeometry(id, or); err == nil {
			s.changed = true
		}
	}
}

// resizeRect applies the handle-specific edge movement to the original
// rectangle.
func resizeRect(o geometry.Rect, h Handle, d geometry.Point, aspect bool) geometry.Rect {
	r := o
	e := h.edges()
	if e.Left {
		r.X = o.X + d.X
		r.Width = o.Width - d.X
	}
	if e.Right {
		r.Width = o.Width + d.X
	}
	if e.Top {
		r.Y = o.Y + d.Y
		r.Height = o.Height - d.Y
	}
	if e.Bottom {
		r.Height = o.Height + d.Y
	}
	if !aspect || o.Width <= 0 || o.Height <= 0 {
		return r
	}
	return lockAspect(o, r, h)
}

// lockAspect restores the original aspect ratio. Corner handles keep the
// opposite corner fixed and follow the dominant axis; edge handles derive
// the other dimension and stay centered on the cross axis.
func lockAspect(o, r geometry.Rect, h Handle) geometry.Rect {
	ratio := o.Width / o.Height
	w, ht := r.Width, r.Height

	if h.isCorner() {
		if math.Abs(w/o.Width-1) >= math.Abs(ht/o.Height-1) {
			ht = w / ratio
		} else {
			w = ht * ratio
		}
		out := geometry.Rect{Width: w, Height: ht}
		switch h {
		case HandleTopLeft:
			out.X = o.X + o.Width - w
			out.Y = o.Y + o.Height - ht
		case HandleTopRight:
			out.X = o.X
			out.Y = o.Y + o.Height - ht
		case HandleBottomLeft:
			out.X = o.X + o.Width - w
			out.Y = o.Y
		case HandleBottomRight:
			out.X = o.X
			out.Y = o.Y
		}
		return out
	}

	switch h {
	case HandleLeft, HandleRight:
		ht = w / ratio
		out := geometry.Rect{Width: w, Height: ht}
		out.Y = o.Y + (o.Height-ht)/2
		if h == HandleLeft {
			out.X = o.X + o.Width - w
		} else {
			out.X = o.X
		}
		return out
	default: // HandleTop, HandleBottom
		w = ht * ratio
		out := geometry.Rect{Width: w, Height: ht}
		out.X = o.X + (o.Width-w)/2
		if h == HandleTop {
			out.Y = o.Y + o.Height - ht
		} else {
			out.Y = o.Y
		}
		return out
	}
}

// clampMin enforces the minimum size, keeping the edge opposite the
// active handle anchored.
func clampMin(r, o geometry.Rect, h Handle) geometry.Rect {
	e := h.edges()
	if r.Width < MinSizeMM {
		if e.Left {
			r.X = o.X + o.Width - MinSizeMM
		}
		r.Width = MinSizeMM
	}
	if r.Height < MinSizeMM {
		if e.Top {
			r.Y = o.Y + o.Height - MinSizeMM
		}
		r.Height = MinSizeMM
	}
	return r
}

func (m *Machine) applyRotate(p geometry.Point, mods Modifiers) {
	s := m.sess
	img, ok := m.layout.Image(s.primary)
	if !ok {
		return
	}
	orig := s.originals[s.primary]
	angle := pointerAngle(orig.bounds.Center(), p)
	deg := orig.rotation + angle - s.startAngle
	if mods.AspectLock {
		deg = math.Round(deg/15) * 15
	}
	if err := m.layout.SetRotation(img.ID, deg); err == nil {
		s.changed = true
	}
}

// pointerAngle is the clockwise angle in degrees from the center to the
// point, matching the y-down rotation convention.
func pointerAngle(center, p geometry.Point) float64 {
	return math.Atan2(p.Y-center.Y, p.X-center.X) * 180 / math.Pi
}

// PointerUp ends the session and reports whether the layout changed.
func (m *Machine) PointerUp(p geometry.Point, mods Modifiers, zoom float64) bool {
	if m.sess == nil {
		return false
	}
	m.PointerMove(p, mods, zoom)
	if m.sess.mode == ModeSelectionBox {
		m.layout.SelectWithin(m.sess.box)
	}
	changed := m.sess.changed
	m.sess = nil
	return changed
}

// Cancel aborts the session and restores every touched image to its
// pre-drag geometry and rotation.
func (m *Machine) Cancel() {
	if m.sess == nil {
		return
	}
	for id, st := range m.sess.originals {
		if img, ok := m.layout.Image(id); ok {
			img.SetBounds(st.bounds)
			img.RotationDeg = st.rotation
		}
	}
	m.sess = nil
}
