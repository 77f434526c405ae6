// Package scene holds the layout data model: the page, the placed images,
// and the document that owns both. All geometry is stored in millimeters;
// pixel conversion happens only at render time.
package scene

import (
	"printlayout/internal/paper"
	"printlayout/pkg/geometry"
)

// DefaultMarginMM is one inch, the default margin on every side.
const DefaultMarginMM = 25.4

// Page describes the physical medium the layout is composed on.
type Page struct {
	WidthMM  float64 `json:"width_mm"`
	HeightMM float64 `json:"height_mm"`

	MarginTopMM    float64 `json:"margin_top_mm"`
	MarginBottomMM float64 `json:"margin_bottom_mm"`
	MarginLeftMM   float64 `json:"margin_left_mm"`
	MarginRightMM  float64 `json:"margin_right_mm"`

	Size        paper.Size        `json:"paper_size"`
	Media       paper.Type        `json:"paper_type"`
	Orientation paper.Orientation `json:"orientation"`
	Borderless  bool              `json:"borderless"`

	// SavedMargins holds the margins that were in effect before borderless
	// was enabled, so disabling it restores them without data loss.
	// Order: top, bottom, left, right.
	SavedMargins *[4]float64 `json:"saved_margins,omitempty"`
}

// NewPage creates a page of the given size with default one-inch margins.
func NewPage(size paper.Size) *Page {
	w, h, ok := size.Dimensions()
	if !ok {
		w, h, _ = paper.SizeA4.Dimensions()
		size = paper.SizeA4
	}
	return &Page{
		WidthMM:        w,
		HeightMM:       h,
		MarginTopMM:    DefaultMarginMM,
		MarginBottomMM: DefaultMarginMM,
		MarginLeftMM:   DefaultMarginMM,
		MarginRightMM:  DefaultMarginMM,
		Size:           size,
		Media:          paper.TypePlain,
		Orientation:    paper.Portrait,
	}
}

// NewCustomPage creates a page with explicit dimensions.
func NewCustomPage(widthMM, heightMM float64) *Page {
	p := NewPage(paper.SizeA4)
	p.Size = paper.SizeCustom
	p.WidthMM = widthMM
	p.HeightMM = heightMM
	return p
}

// Bounds returns the full page rectangle in millimeters.
func (p *Page) Bounds() geometry.Rect {
	return geometry.NewRect(0, 0, p.WidthMM, p.HeightMM)
}

// PrintableArea returns the page rectangle minus margins.
func (p *Page) PrintableArea() geometry.Rect {
	return p.Bounds().Inset(p.MarginTopMM, p.MarginBottomMM, p.MarginLeftMM, p.MarginRightMM)
}

// SetMargins replaces all four margins. Fails with ErrInvalidMargins when
// any margin is negative or opposing margins meet or cross; the page is
// left unchanged on failure.
func (p *Page) SetMargins(top, bottom, left, right float64) error {
	if top < 0 || bottom < 0 || left < 0 || right < 0 {
		return ErrInvalidMargins
	}
	if top+bottom >= p.HeightMM || left+right >= p.WidthMM {
		return ErrInvalidMargins
	}
	p.MarginTopMM = top
	p.MarginBottomMM = bottom
	p.MarginLeftMM = left
	p.MarginRightMM = right
	if top != 0 || bottom != 0 || left != 0 || right != 0 {
		p.Borderless = false
	}
	return nil
}

// ToggleBorderless flips borderless mode. Enabling it zeroes all margins
// after snapshotting them; disabling restores the snapshot, or default
// margins when none was taken.
func (p *Page) ToggleBorderless() {
	if !p.Borderless {
		p.SavedMargins = &[4]float64{p.MarginTopMM, p.MarginBottomMM, p.MarginLeftMM, p.MarginRightMM}
		p.MarginTopMM = 0
		p.MarginBottomMM = 0
		p.MarginLeftMM = 0
		p.MarginRightMM = 0
		p.Borderless = true
		return
	}
	m := [4]float64{DefaultMarginMM, DefaultMarginMM, DefaultMarginMM, DefaultMarginMM}
	if p.SavedMargins != nil {
		m = *p.SavedMargins
	}
	p.MarginTopMM, p.MarginBottomMM, p.MarginLeftMM, p.MarginRightMM = m[0], m[1], m[2], m[3]
	p.Borderless = false
}

// SetPaperSize switches to a standard paper size, keeping the current
// orientation. SizeCustom is ignored here; use SetCustomSize.
func (p *Page) SetPaperSize(size paper.Size) {
	w, h, ok := size.Dimensions()
	if !ok {
		return
	}
	p.Size = size
	p.WidthMM, p.HeightMM = p.Orientation.Oriented(w, h)
}

// SetCustomSize switches to explicit page dimensions.
func (p *Page) SetCustomSize(widthMM, heightMM float64) error {
	if widthMM <= 0 || heightMM <= 0 {
		return ErrOutOfRange
	}
	p.Size = paper.SizeCustom
	p.WidthMM = widthMM
	p.HeightMM = heightMM
	return nil
}

// SetOrientation swaps width and height as needed. Setting the current
// orientation again is a no-op.
func (p *Page) SetOrientation(o paper.Orientation) {
	p.Orientation = o
	p.WidthMM, p.HeightMM = o.Oriented(p.WidthMM, p.HeightMM)
}

// Clone returns a deep copy of the page.
func (p *Page) Clone() *Page {
	cp := *p
	if p.SavedMargins != nil {
		saved := *p.SavedMargins
		cp.SavedMargins = &saved
	}
	return &cp
}
