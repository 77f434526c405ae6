package render

import (
	"image"
	"math"

	"golang.org/x/image/draw"

	"printlayout/internal/imagestore"
)

// transformImage produces the bitmap for one cached transform key:
// resample to the target pixel size, mirror, rotate about the center
// into an expanded canvas, then apply opacity. The result is what gets
// composited onto the page.
func transformImage(src image.Image, key imagestore.TransformKey) *image.RGBA {
	w, h := key.WidthPx, key.HeightPx
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	scaled := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), src, src.Bounds(), draw.Src, nil)

	if key.FlipH {
		flipHorizontal(scaled)
	}
	if key.FlipV {
		flipVertical(scaled)
	}

	out := scaled
	if key.RotationDeg != 0 {
		out = rotate(scaled, key.RotationDeg)
	}
	if key.Opacity < 1 {
		applyOpacity(out, key.Opacity)
	}
	return out
}

func flipHorizontal(img *image.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]
		for l, r := 0, len(row)-4; l < r; l, r = l+4, r-4 {
			for i := 0; i < 4; i++ {
				row[l+i], row[r+i] = row[r+i], row[l+i]
			}
		}
	}
}

func flipVertical(img *image.RGBA) {
	b := img.Bounds()
	rowLen := (b.Max.X - b.Min.X) * 4
	tmp := make([]byte, rowLen)
	for top, bot := b.Min.Y, b.Max.Y-1; top < bot; top, bot = top+1, bot-1 {
		a := img.Pix[img.PixOffset(b.Min.X, top) : img.PixOffset(b.Min.X, top)+rowLen]
		c := img.Pix[img.PixOffset(b.Min.X, bot) : img.PixOffset(b.Min.X, bot)+rowLen]
		copy(tmp, a)
		copy(a, c)
		copy(c, tmp)
	}
}

// rotate maps each pixel of an expanded destination canvas back through
// the inverse rotation and samples the source. Uncovered pixels stay
// transparent. Angles are clockwise in the y-down raster frame.
func rotate(src *image.RGBA, degrees float64) *image.RGBA {
	rad := degrees * math.Pi / 180
	sin, cos := math.Sincos(rad)

	sb := src.Bounds()
	sw := float64(sb.Dx())
	sh := float64(sb.Dy())
	// The epsilon keeps exact quarter turns from ceiling up a pixel.
	dw := int(math.Ceil(math.Abs(sw*cos) + math.Abs(sh*sin) - 1e-9))
	dh := int(math.Ceil(math.Abs(sw*sin) + math.Abs(sh*cos) - 1e-9))
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))

	scx := sw / 2
	scy := sh / 2
	dcx := float64(dw) / 2
	dcy := float64(dh) / 2

	for y := 0; y < dh; y++ {
		dy := float64(y) + 0.5 - dcy
		for x := 0; x < dw; x++ {
			dx := float64(x) + 0.5 - dcx
			// inverse of the clockwise rotation
			sx := cos*dx + sin*dy + scx
			sy := -sin*dx + cos*dy + scy
			ix := int(math.Floor(sx))
			iy := int(math.Floor(sy))
			if ix < 0 || iy < 0 || ix >= int(sw) || iy >= int(sh) {
				continue
			}
			so := src.PixOffset(sb.Min.X+ix, sb.Min.Y+iy)
			do := dst.PixOffset(x, y)
			copy(dst.Pix[do:do+4], src.Pix[so:so+4])
		}
	}
	return dst
}

// applyOpacity multiplies the premultiplied RGBA channels in place.
func applyOpacity(img *image.RGBA, opacity float64) {
	if opacity < 0 {
		opacity = 0
	}
	m := uint32(opacity * 256)
	for i := range img.Pix {
		img.Pix[i] = uint8(uint32(img.Pix[i]) * m / 256)
	}
}
