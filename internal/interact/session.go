package interact

import (
	"printlayout/pkg/geometry"
)

// Mode is the kind of drag in progress.
type Mode int

const (
	ModeIdle Mode = iota
	ModeMove
	ModeResize
	ModeRotate
	ModePan
	ModeSelectionBox
)

// imageState is the pre-drag snapshot of one image, restored on cancel.
type imageState struct {
	bounds   geometry.Rect
	rotation float64
}

// session carries the state of one drag from pointer down to pointer up.
type session struct {
	mode    Mode
	anchor  geometry.Point
	primary string
	handle  Handle

	// originals snapshots every image the drag may mutate, keyed by id.
	originals map[string]imageState

	// startAngle is the pointer angle at drag start for rotation, in
	// degrees about the primary image center.
	startAngle float64

	// box is the current rubber-band rectangle, unnormalized.
	box geometry.Rect

	// lastPan is the previous pointer position during a pan.
	lastPan geometry.Point

	changed bool
}
