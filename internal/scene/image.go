package scene

import (
	"math"

	"github.com/google/uuid"

	"printlayout/internal/units"
	"printlayout/pkg/geometry"
)

// PlacedImage is a single placed instance of a source image. Position and
// size are in millimeters; position may leave the page during a drag.
type PlacedImage struct {
	ID   string `json:"id"`
	Path string `json:"path"`

	XMM      float64 `json:"x_mm"`
	YMM      float64 `json:"y_mm"`
	WidthMM  float64 `json:"width_mm"`
	HeightMM float64 `json:"height_mm"`

	// RotationDeg is normalized to [0,360), positive clockwise.
	RotationDeg float64 `json:"rotation_degrees"`
	FlipH       bool    `json:"flip_horizontal"`
	FlipV       bool    `json:"flip_vertical"`
	Opacity     float64 `json:"opacity"`

	Z       int  `json:"z_index"`
	Locked  bool `json:"locked"`
	Visible bool `json:"visible"`

	OriginalWidthPx  int `json:"original_width_px"`
	OriginalHeightPx int `json:"original_height_px"`

	// Selected is interaction state, not part of the persisted snapshot.
	Selected bool `json:"-"`
}

// NewPlacedImage creates a placed image with a fresh id and neutral
// transform state. Geometry is assigned by Layout.AddImage.
func NewPlacedImage(path string, originalWidthPx, originalHeightPx int) *PlacedImage {
	return &PlacedImage{
		ID:               uuid.NewString(),
		Path:             path,
		Opacity:          1.0,
		Visible:          true,
		OriginalWidthPx:  originalWidthPx,
		OriginalHeightPx: originalHeightPx,
	}
}

// Bounds returns the unrotated bounding rectangle in millimeters.
func (pi *PlacedImage) Bounds() geometry.Rect {
	return geometry.NewRect(pi.XMM, pi.YMM, pi.WidthMM, pi.HeightMM)
}

// SetBounds replaces position and size from a rectangle.
func (pi *PlacedImage) SetBounds(r geometry.Rect) {
	pi.XMM = r.X
	pi.YMM = r.Y
	pi.WidthMM = r.Width
	pi.HeightMM = r.Height
}

// Center returns the center of the image in millimeters. Rotation is
// about this point, so it is rotation-invariant.
func (pi *PlacedImage) Center() geometry.Point {
	return pi.Bounds().Center()
}

// EffectiveDPI returns the lower of the horizontal and vertical print
// resolutions this placement achieves.
func (pi *PlacedImage) EffectiveDPI() float64 {
	dx := units.EffectiveDPI(pi.OriginalWidthPx, pi.WidthMM)
	dy := units.EffectiveDPI(pi.OriginalHeightPx, pi.HeightMM)
	return math.Min(dx, dy)
}

// ContainsPoint reports whether the point (in millimeters) lies inside
// the image, accounting for rotation: the query point is mapped into the
// image's unrotated local frame before the bounds comparison.
func (pi *PlacedImage) ContainsPoint(p geometry.Point) bool {
	if pi.RotationDeg != 0 {
		p = geometry.RotationAbout(-pi.RotationDeg, pi.Center()).Apply(p)
	}
	return pi.Bounds().Contains(p)
}

// RotatedCorners returns the four page-space corners of the image after
// rotation, clockwise from the local top-left.
func (pi *PlacedImage) RotatedCorners() [4]geometry.Point {
	if pi.RotationDeg == 0 {
		return pi.Bounds().Corners()
	}
	return geometry.RotationAbout(pi.RotationDeg, pi.Center()).ApplyRect(pi.Bounds())
}

// RotateQuarter rotates the image 90 degrees about its center, swapping
// width and height as the original toolbar rotation does. cw selects the
// direction.
func (pi *PlacedImage) RotateQuarter(cw bool) {
	center := pi.Center()
	pi.WidthMM, pi.HeightMM = pi.HeightMM, pi.WidthMM
	pi.XMM = center.X - pi.WidthMM/2
	pi.YMM = center.Y - pi.HeightMM/2
	step := 90.0
	if !cw {
		step = 270.0
	}
	pi.RotationDeg = NormalizeRotation(pi.RotationDeg + step)
}

// Clone returns a deep copy.
func (pi *PlacedImage) Clone() *PlacedImage {
	cp := *pi
	return &cp
}

// NormalizeRotation maps any angle in degrees into [0,360).
func NormalizeRotation(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
