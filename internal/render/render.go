// Package render rasterizes a layout: the interactive canvas frame at
// the current zoom, and the flattened print composite at printer
// resolution. Both paths share the same millimeter-to-pixel conversion
// and the same image transform cache, so screen and paper agree.
package render

import (
	"context"
	"image"
	"image/color"
	"log"
	"math"

	"golang.org/x/image/draw"

	"printlayout/internal/imagestore"
	"printlayout/internal/interact"
	"printlayout/internal/scene"
	"printlayout/internal/units"
	"printlayout/pkg/geometry"
)

// LowDPIThreshold is the effective print resolution below which an
// image gets a warning outline.
const LowDPIThreshold = 150.0

var (
	pageColor      = color.RGBA{255, 255, 255, 255}
	borderColor    = color.RGBA{120, 120, 120, 255}
	marginColor    = color.RGBA{170, 200, 230, 255}
	gridColor      = color.RGBA{225, 225, 225, 255}
	selectionColor = color.RGBA{30, 110, 220, 255}
	handleFill     = color.RGBA{255, 255, 255, 255}
	warnColor      = color.RGBA{230, 140, 20, 255}
	missingColor   = color.RGBA{200, 200, 200, 255}
)

// Options controls the interactive frame.
type Options struct {
	Zoom          float64
	ShowGrid      bool
	GridSpacingMM float64
	ShowMargins   bool
	ShowSelection bool

	// LowDPIWarnings outlines images whose effective resolution falls
	// below LowDPIThreshold.
	LowDPIWarnings bool

	// SelectionBox, when non-nil, is the rubber band to draw.
	SelectionBox *geometry.Rect
}

// Frame renders the page at the interactive zoom level. Images that fail
// to load are drawn as placeholders; the frame itself still succeeds.
func Frame(lay *scene.Layout, store *imagestore.Store, opts Options) *image.RGBA {
	if opts.Zoom <= 0 {
		opts.Zoom = 1
	}
	dpi := units.ZoomDPI(opts.Zoom)

	dst := newPage(lay, dpi)
	if opts.ShowGrid && opts.GridSpacingMM > 0 {
		drawGrid(dst, lay, dpi, opts.GridSpacingMM)
	}
	if opts.ShowMargins {
		strokeRect(dst, pxRect(lay.Page.PrintableArea(), dpi), marginColor)
	}

	composite(context.Background(), dst, lay, store, dpi)

	if opts.LowDPIWarnings {
		for _, img := range lay.Images {
			if !img.Visible {
				continue
			}
			if d := img.EffectiveDPI(); d > 0 && d < LowDPIThreshold {
				drawOutline(dst, img.RotatedCorners(), dpi, warnColor)
			}
		}
	}
	if opts.ShowSelection {
		for _, img := range lay.Images {
			if !img.Selected || !img.Visible {
				continue
			}
			drawOutline(dst, img.RotatedCorners(), dpi, selectionColor)
			drawHandles(dst, img, dpi)
		}
	}
	if opts.SelectionBox != nil {
		strokeRect(dst, pxRect(opts.SelectionBox.Normalized(), dpi), selectionColor)
	}

	strokeRect(dst, dst.Bounds(), borderColor)
	return dst
}

// PrintComposite flattens the layout at printer resolution: white page,
// visible images in z-order, no guides or selection chrome. A missing
// source image fails the whole composite; prints never silently drop
// content.
func PrintComposite(ctx context.Context, lay *scene.Layout, store *imagestore.Store, dpi float64) (*image.RGBA, error) {
	if dpi <= 0 {
		dpi = units.PrintDPI
	}
	dst := newPage(lay, dpi)
	if err := compositeStrict(ctx, dst, lay, store, dpi); err != nil {
		return nil, err
	}
	return dst, nil
}

func newPage(lay *scene.Layout, dpi float64) *image.RGBA {
	w := int(math.Round(units.ToPixels(lay.Page.WidthMM, dpi)))
	h := int(math.Round(units.ToPixels(lay.Page.HeightMM, dpi)))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	fillRect(dst, dst.Bounds(), pageColor)
	return dst
}

// composite draws every visible image in ascending z-order, substituting
// a placeholder when a source cannot be loaded.
func composite(ctx context.Context, dst *image.RGBA, lay *scene.Layout, store *imagestore.Store, dpi float64) {
	lease := store.Lease()
	defer lease.Release()

	for _, img := range lay.Images {
		if !img.Visible {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		bmp, err := leaseTransform(lease, img, dpi)
		if err != nil {
			log.Printf("render: %s: %v", img.Path, err)
			drawPlaceholder(dst, img, dpi)
			continue
		}
		blit(dst, bmp, img, dpi)
	}
}

func compositeStrict(ctx context.Context, dst *image.RGBA, lay *scene.Layout, store *imagestore.Store, dpi float64) error {
	lease := store.Lease()
	defer lease.Release()

	for _, img := range lay.Images {
		if !img.Visible {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		bmp, err := leaseTransform(lease, img, dpi)
		if err != nil {
			return err
		}
		blit(dst, bmp, img, dpi)
	}
	return nil
}

func leaseTransform(lease *imagestore.Lease, img *scene.PlacedImage, dpi float64) (*image.RGBA, error) {
	key := imagestore.TransformKey{
		Path:        img.Path,
		WidthPx:     int(math.Round(units.ToPixels(img.WidthMM, dpi))),
		HeightPx:    int(math.Round(units.ToPixels(img.HeightMM, dpi))),
		RotationDeg: img.RotationDeg,
		FlipH:       img.FlipH,
		FlipV:       img.FlipV,
		Opacity:     img.Opacity,
	}
	return lease.Transformed(key, func() (*image.RGBA, error) {
		src, err := lease.Source(img.Path)
		if err != nil {
			return nil, err
		}
		return transformImage(src.Image, key), nil
	})
}

// blit centers the transformed bitmap on the image's center point. The
// bitmap may be larger than the placed rect when rotated.
func blit(dst *image.RGBA, bmp *image.RGBA, img *scene.PlacedImage, dpi float64) {
	c := img.Center()
	cx := int(math.Round(units.ToPixels(c.X, dpi)))
	cy := int(math.Round(units.ToPixels(c.Y, dpi)))
	b := bmp.Bounds()
	origin := image.Pt(cx-b.Dx()/2, cy-b.Dy()/2)
	draw.Draw(dst, image.Rectangle{Min: origin, Max: origin.Add(b.Size())}, bmp, b.Min, draw.Over)
}

func drawPlaceholder(dst *image.RGBA, img *scene.PlacedImage, dpi float64) {
	r := pxRect(img.Bounds(), dpi)
	fillRect(dst, r, missingColor)
	strokeRect(dst, r, borderColor)
	drawLine(dst, r.Min.X, r.Min.Y, r.Max.X-1, r.Max.Y-1, borderColor)
	drawLine(dst, r.Max.X-1, r.Min.Y, r.Min.X, r.Max.Y-1, borderColor)
}

func drawGrid(dst *image.RGBA, lay *scene.Layout, dpi, spacingMM float64) {
	b := dst.Bounds()
	for x := spacingMM; x < lay.Page.WidthMM; x += spacingMM {
		px := int(math.Round(units.ToPixels(x, dpi)))
		drawLine(dst, px, b.Min.Y, px, b.Max.Y-1, gridColor)
	}
	for y := spacingMM; y < lay.Page.HeightMM; y += spacingMM {
		py := int(math.Round(units.ToPixels(y, dpi)))
		drawLine(dst, b.Min.X, py, b.Max.X-1, py, gridColor)
	}
}

// drawOutline strokes the quad through the four corners.
func drawOutline(dst *image.RGBA, corners [4]geometry.Point, dpi float64, c color.RGBA) {
	var px [4]image.Point
	for i, p := range corners {
		px[i] = image.Pt(
			int(math.Round(units.ToPixels(p.X, dpi))),
			int(math.Round(units.ToPixels(p.Y, dpi))))
	}
	for i := 0; i < 4; i++ {
		j := (i + 1) % 4
		drawLine(dst, px[i].X, px[i].Y, px[j].X, px[j].Y, c)
	}
}

// drawHandles draws the eight resize handles at their rotated positions.
func drawHandles(dst *image.RGBA, img *scene.PlacedImage, dpi float64) {
	half := int(interact.HandleSizePx) / 2
	rot := geometry.Identity()
	if img.RotationDeg != 0 {
		rot = geometry.RotationAbout(img.RotationDeg, img.Center())
	}
	for _, p := range interact.HandlePositions(img.Bounds()) {
		p = rot.Apply(p)
		cx := int(math.Round(units.ToPixels(p.X, dpi)))
		cy := int(math.Round(units.ToPixels(p.Y, dpi)))
		r := image.Rect(cx-half, cy-half, cx+half+1, cy+half+1)
		fillRect(dst, r, handleFill)
		strokeRect(dst, r, selectionColor)
	}
}

func pxRect(r geometry.Rect, dpi float64) image.Rectangle {
	return image.Rect(
		int(math.Round(units.ToPixels(r.X, dpi))),
		int(math.Round(units.ToPixels(r.Y, dpi))),
		int(math.Round(units.ToPixels(r.X+r.Width, dpi))),
		int(math.Round(units.ToPixels(r.Y+r.Height, dpi))))
}

func fillRect(dst *image.RGBA, r image.Rectangle, c color.RGBA) {
	r = r.Intersect(dst.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			dst.SetRGBA(x, y, c)
		}
	}
}

func strokeRect(dst *image.RGBA, r image.Rectangle, c color.RGBA) {
	if r.Empty() {
		return
	}
	drawLine(dst, r.Min.X, r.Min.Y, r.Max.X-1, r.Min.Y, c)
	drawLine(dst, r.Min.X, r.Max.Y-1, r.Max.X-1, r.Max.Y-1, c)
	drawLine(dst, r.Min.X, r.Min.Y, r.Min.X, r.Max.Y-1, c)
	drawLine(dst, r.Max.X-1, r.Min.Y, r.Max.X-1, r.Max.Y-1, c)
}

// drawLine is a basic Bresenham stroke clipped to the image bounds.
func drawLine(dst *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	b := dst.Bounds()
	for {
		if image.Pt(x0, y0).In(b) {
			dst.SetRGBA(x0, y0, c)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
