package scene

import (
	"sort"

	"printlayout/internal/paper"
	"printlayout/pkg/geometry"
)

// Layout owns one page and the ordered set of placed images. Images are
// kept sorted by ascending z-order; z values are unique but gaps are
// allowed after deletion.
type Layout struct {
	Page   *Page
	Images []*PlacedImage

	nextZ int
}

// NewLayout creates an empty layout on the given paper size.
func NewLayout(size paper.Size) *Layout {
	return &Layout{Page: NewPage(size)}
}

// Restore rebuilds a layout from persisted state, recomputing the z
// counter from the highest stored z-order.
func Restore(page *Page, images []*PlacedImage) *Layout {
	l := &Layout{Page: page, Images: images}
	for _, img := range images {
		if img.Z >= l.nextZ {
			l.nextZ = img.Z + 1
		}
	}
	l.sortByZ()
	return l
}

func (l *Layout) sortByZ() {
	sort.SliceStable(l.Images, func(i, j int) bool {
		return l.Images[i].Z < l.Images[j].Z
	})
}

// Image returns the image with the given id.
func (l *Layout) Image(id string) (*PlacedImage, bool) {
	for _, img := range l.Images {
		if img.ID == id {
			return img, true
		}
	}
	return nil, false
}

// AddImage places a new image on the page. The default size fits within
// 80% of the printable area preserving aspect ratio; placement is
// centered, cascading by a small offset for each image already present.
func (l *Layout) AddImage(path string, originalWidthPx, originalHeightPx int) *PlacedImage {
	img := NewPlacedImage(path, originalWidthPx, originalHeightPx)

	aspect := 1.0
	if originalWidthPx > 0 && originalHeightPx > 0 {
		aspect = float64(originalHeightPx) / float64(originalWidthPx)
	}
	w := 100.0
	h := w * aspect

	printable := l.Page.PrintableArea()
	maxW := printable.Width * 0.8
	maxH := printable.Height * 0.8
	if maxW > 0 && w > maxW {
		h *= maxW / w
		w = maxW
	}
	if maxH > 0 && h > maxH {
		w *= maxH / h
		h = maxH
	}

	offset := float64(len(l.Images)%8) * 6.0
	center := printable.Center()
	img.XMM = center.X - w/2 + offset
	img.YMM = center.Y - h/2 + offset
	img.WidthMM = w
	img.HeightMM = h

	img.Z = l.nextZ
	l.nextZ++
	l.Images = append(l.Images, img)
	return img
}

// RemoveImage deletes an image. Remaining z-orders are left untouched;
// gaps are allowed.
func (l *Layout) RemoveImage(id string) error {
	for i, img := range l.Images {
		if img.ID == id {
			l.Images = append(l.Images[:i], l.Images[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// Clear removes every image from the document.
func (l *Layout) Clear() {
	l.Images = nil
	l.nextZ = 0
}

// Duplicate copies an image with a fresh id, slightly offset and on top.
func (l *Layout) Duplicate(id string) (*PlacedImage, error) {
	src, ok := l.Image(id)
	if !ok {
		return nil, ErrNotFound
	}
	cp := src.Clone()
	cp.ID = NewPlacedImage(src.Path, 0, 0).ID
	cp.XMM += 5
	cp.YMM += 5
	cp.Selected = false
	cp.Z = l.nextZ
	l.nextZ++
	l.Images = append(l.Images, cp)
	return cp, nil
}

// SetGeometry replaces an image's position and size. Locked images are
// not mutated and the call is a silent no-op. Non-positive sizes fail
// with ErrOutOfRange.
func (l *Layout) SetGeometry(id string, r geometry.Rect) error {
	img, ok := l.Image(id)
	if !ok {
		return ErrNotFound
	}
	if img.Locked {
		return nil
	}
	if r.Width <= 0 || r.Height <= 0 {
		return ErrOutOfRange
	}
	img.SetBounds(r)
	return nil
}

// SetRotation sets an image's rotation in degrees, normalized to [0,360).
func (l *Layout) SetRotation(id string, degrees float64) error {
	img, ok := l.Image(id)
	if !ok {
		return ErrNotFound
	}
	if img.Locked {
		return nil
	}
	img.RotationDeg = NormalizeRotation(degrees)
	return nil
}

// SetFlip sets the horizontal and vertical mirror flags.
func (l *Layout) SetFlip(id string, horizontal, vertical bool) error {
	img, ok := l.Image(id)
	if !ok {
		return ErrNotFound
	}
	if img.Locked {
		return nil
	}
	img.FlipH = horizontal
	img.FlipV = vertical
	return nil
}

// SetOpacity sets an image's opacity. Fails with ErrOutOfRange outside
// [0,1]; the image is unchanged on failure.
func (l *Layout) SetOpacity(id string, value float64) error {
	img, ok := l.Image(id)
	if !ok {
		return ErrNotFound
	}
	if value < 0 || value > 1 {
		return ErrOutOfRange
	}
	if img.Locked {
		return nil
	}
	img.Opacity = value
	return nil
}

// SetLocked sets the lock flag. Locking is allowed on locked images.
func (l *Layout) SetLocked(id string, locked bool) error {
	img, ok := l.Image(id)
	if !ok {
		return ErrNotFound
	}
	img.Locked = locked
	return nil
}

// SetVisible sets the visibility flag.
func (l *Layout) SetVisible(id string, visible bool) error {
	img, ok := l.Image(id)
	if !ok {
		return ErrNotFound
	}
	img.Visible = visible
	return nil
}

// BringToFront moves an image above all others.
func (l *Layout) BringToFront(id string) error {
	img, ok := l.Image(id)
	if !ok {
		return ErrNotFound
	}
	img.Z = l.nextZ
	l.nextZ++
	l.sortByZ()
	return nil
}

// SendToBack moves an image below all others.
func (l *Layout) SendToBack(id string) error {
	img, ok := l.Image(id)
	if !ok {
		return ErrNotFound
	}
	minZ := img.Z
	for _, other := range l.Images {
		if other.Z < minZ {
			minZ = other.Z
		}
	}
	img.Z = minZ - 1
	l.sortByZ()
	return nil
}

// Raise swaps an image's z-order with its next-higher neighbor. The
// topmost image is unchanged.
func (l *Layout) Raise(id string) error {
	idx := l.indexOf(id)
	if idx < 0 {
		return ErrNotFound
	}
	if idx == len(l.Images)-1 {
		return nil
	}
	a, b := l.Images[idx], l.Images[idx+1]
	a.Z, b.Z = b.Z, a.Z
	l.sortByZ()
	return nil
}

// Lower swaps an image's z-order with its next-lower neighbor. The
// bottom image is unchanged.
func (l *Layout) Lower(id string) error {
	idx := l.indexOf(id)
	if idx < 0 {
		return ErrNotFound
	}
	if idx == 0 {
		return nil
	}
	a, b := l.Images[idx], l.Images[idx-1]
	a.Z, b.Z = b.Z, a.Z
	l.sortByZ()
	return nil
}

func (l *Layout) indexOf(id string) int {
	for i, img := range l.Images {
		if img.ID == id {
			return i
		}
	}
	return -1
}

// HitTest returns the visible image with the highest z-order whose
// rotated bounds contain the point, or nil when none does.
func (l *Layout) HitTest(p geometry.Point) *PlacedImage {
	for i := len(l.Images) - 1; i >= 0; i-- {
		img := l.Images[i]
		if !img.Visible {
			continue
		}
		if img.ContainsPoint(p) {
			return img
		}
	}
	return nil
}

// Select marks an image selected. With additive false, any previous
// selection is cleared first; with additive true the flag is toggled.
func (l *Layout) Select(id string, additive bool) error {
	img, ok := l.Image(id)
	if !ok {
		return ErrNotFound
	}
	if additive {
		img.Selected = !img.Selected
		return nil
	}
	for _, other := range l.Images {
		other.Selected = other == img
	}
	return nil
}

// SelectWithin selects every visible image whose rotated bounds intersect
// the rectangle. Replaces the prior selection.
func (l *Layout) SelectWithin(r geometry.Rect) {
	r = r.Normalized()
	for _, img := range l.Images {
		box := geometry.BoundingBox(cornersSlice(img.RotatedCorners()))
		img.Selected = img.Visible && r.Intersects(box)
	}
}

func cornersSlice(c [4]geometry.Point) []geometry.Point {
	return []geometry.Point{c[0], c[1], c[2], c[3]}
}

// ClearSelection deselects every image.
func (l *Layout) ClearSelection() {
	for _, img := range l.Images {
		img.Selected = false
	}
}

// SelectedImages returns the selected images in ascending z-order.
func (l *Layout) SelectedImages() []*PlacedImage {
	var out []*PlacedImage
	for _, img := range l.Images {
		if img.Selected {
			out = append(out, img)
		}
	}
	return out
}

// SelectedIDs returns the ids of selected images in ascending z-order.
func (l *Layout) SelectedIDs() []string {
	var out []string
	for _, img := range l.Images {
		if img.Selected {
			out = append(out, img.ID)
		}
	}
	return out
}

// Clone returns a deep copy of the layout, used as a stable snapshot for
// rendering and printing.
func (l *Layout) Clone() *Layout {
	cp := &Layout{
		Page:  l.Page.Clone(),
		nextZ: l.nextZ,
	}
	cp.Images = make([]*PlacedImage, len(l.Images))
	for i, img := range l.Images {
		cp.Images[i] = img.Clone()
	}
	return cp
}
