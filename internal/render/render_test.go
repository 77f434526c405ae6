package render

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"printlayout/internal/imagestore"
	"printlayout/internal/paper"
	"printlayout/internal/scene"
	"printlayout/pkg/geometry"
)

func writePNG(t *testing.T, dir, name string, w, h int, c color.RGBA) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

var red = color.RGBA{255, 0, 0, 255}

// place puts one image at (25.4, 25.4) sized 25.4mm square, which maps
// to the pixel rect (96,96)-(192,192) at zoom 1.
func place(t *testing.T, lay *scene.Layout, path string) *scene.PlacedImage {
	t.Helper()
	img := lay.AddImage(path, 10, 10)
	if err := lay.SetGeometry(img.ID, geometry.Rect{X: 25.4, Y: 25.4, Width: 25.4, Height: 25.4}); err != nil {
		t.Fatal(err)
	}
	return img
}

func TestFramePageSizeAndBackground(t *testing.T) {
	lay := scene.NewLayout(paper.SizeA4)
	store := imagestore.New(imagestore.Config{})

	frame := Frame(lay, store, Options{Zoom: 1})
	b := frame.Bounds()
	if b.Dx() != 794 || b.Dy() != 1123 {
		t.Errorf("frame is %dx%d, want 794x1123", b.Dx(), b.Dy())
	}
	if got := frame.RGBAAt(b.Dx()/2, b.Dy()/2); got != pageColor {
		t.Errorf("page center = %v, want white", got)
	}
	if got := frame.RGBAAt(0, 0); got != borderColor {
		t.Errorf("corner = %v, want border color", got)
	}
}

func TestFrameCompositesImage(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "red.png", 10, 10, red)

	lay := scene.NewLayout(paper.SizeA4)
	store := imagestore.New(imagestore.Config{})
	place(t, lay, path)

	frame := Frame(lay, store, Options{Zoom: 1})
	if got := frame.RGBAAt(144, 144); got != red {
		t.Errorf("image center = %v, want red", got)
	}
	// Outside the placed rect the page shows through.
	if got := frame.RGBAAt(300, 300); got != pageColor {
		t.Errorf("outside image = %v, want white", got)
	}
}

func TestFrameHiddenImageSkipped(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "red.png", 10, 10, red)

	lay := scene.NewLayout(paper.SizeA4)
	store := imagestore.New(imagestore.Config{})
	img := place(t, lay, path)
	lay.SetVisible(img.ID, false)

	frame := Frame(lay, store, Options{Zoom: 1})
	if got := frame.RGBAAt(144, 144); got != pageColor {
		t.Errorf("hidden image drawn: %v", got)
	}
}

func TestFrameMissingFileDrawsPlaceholder(t *testing.T) {
	lay := scene.NewLayout(paper.SizeA4)
	store := imagestore.New(imagestore.Config{})
	place(t, lay, "/nonexistent/missing.png")

	frame := Frame(lay, store, Options{Zoom: 1})
	if got := frame.RGBAAt(150, 120); got != missingColor {
		t.Errorf("placeholder fill = %v, want %v", got, missingColor)
	}
}

func TestFrameOpacityBlendsWithPage(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "red.png", 10, 10, red)

	lay := scene.NewLayout(paper.SizeA4)
	store := imagestore.New(imagestore.Config{})
	img := place(t, lay, path)
	if err := lay.SetOpacity(img.ID, 0.5); err != nil {
		t.Fatal(err)
	}

	frame := Frame(lay, store, Options{Zoom: 1})
	got := frame.RGBAAt(144, 144)
	if got.R < 250 {
		t.Errorf("red channel = %d, want near 255", got.R)
	}
	if got.G < 115 || got.G > 140 {
		t.Errorf("green channel = %d, want near 128 for 50%% over white", got.G)
	}
}

func TestFrameLowDPIWarningOutline(t *testing.T) {
	dir := t.TempDir()
	// 10px across 25.4mm is 10 DPI, far below the warning threshold.
	path := writePNG(t, dir, "red.png", 10, 10, red)

	lay := scene.NewLayout(paper.SizeA4)
	store := imagestore.New(imagestore.Config{})
	place(t, lay, path)

	frame := Frame(lay, store, Options{Zoom: 1, LowDPIWarnings: true})
	if got := frame.RGBAAt(96, 96); got != warnColor {
		t.Errorf("corner = %v, want warning outline", got)
	}
}

func TestFrameSelectionHandles(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "red.png", 1000, 1000, red)

	lay := scene.NewLayout(paper.SizeA4)
	store := imagestore.New(imagestore.Config{})
	img := place(t, lay, path)
	lay.Select(img.ID, false)

	frame := Frame(lay, store, Options{Zoom: 1, ShowSelection: true})
	// Handle centers are filled white over the image.
	if got := frame.RGBAAt(96, 96); got != handleFill {
		t.Errorf("top-left handle = %v, want %v", got, handleFill)
	}
	if got := frame.RGBAAt(144, 96); got != handleFill {
		t.Errorf("top-center handle = %v, want %v", got, handleFill)
	}
}

func TestPrintCompositeAt300DPI(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "red.png", 10, 10, red)

	lay := scene.NewLayout(paper.SizeA4)
	store := imagestore.New(imagestore.Config{})
	place(t, lay, path)

	out, err := PrintComposite(context.Background(), lay, store, 300)
	if err != nil {
		t.Fatal(err)
	}
	b := out.Bounds()
	if b.Dx() != 2480 || b.Dy() != 3508 {
		t.Errorf("composite is %dx%d, want 2480x3508", b.Dx(), b.Dy())
	}
	// 38.1mm at 300 DPI is pixel 450, the center of the placed image.
	if got := out.RGBAAt(450, 450); got != red {
		t.Errorf("image center = %v, want red", got)
	}
	if got := out.RGBAAt(50, 50); got != pageColor {
		t.Errorf("page = %v, want white", got)
	}
}

func TestPrintCompositeFailsOnMissingSource(t *testing.T) {
	lay := scene.NewLayout(paper.SizeA4)
	store := imagestore.New(imagestore.Config{})
	place(t, lay, "/nonexistent/missing.png")

	if _, err := PrintComposite(context.Background(), lay, store, 300); err == nil {
		t.Fatal("expected an error for a missing source image")
	}
}

func TestPrintCompositeHonorsCancellation(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "red.png", 10, 10, red)

	lay := scene.NewLayout(paper.SizeA4)
	store := imagestore.New(imagestore.Config{})
	place(t, lay, path)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := PrintComposite(ctx, lay, store, 300); err != context.Canceled {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestTransformFlipHorizontal(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	src.SetRGBA(0, 0, color.RGBA{255, 0, 0, 255})
	src.SetRGBA(1, 0, color.RGBA{0, 0, 255, 255})

	out := transformImage(src, imagestore.TransformKey{WidthPx: 2, HeightPx: 1, FlipH: true, Opacity: 1})
	if got := out.RGBAAt(0, 0); got.B != 255 {
		t.Errorf("left pixel = %v, want blue", got)
	}
	if got := out.RGBAAt(1, 0); got.R != 255 {
		t.Errorf("right pixel = %v, want red", got)
	}
}

func TestTransformRotate90SwapsDimensions(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			src.SetRGBA(x, y, red)
		}
	}
	out := transformImage(src, imagestore.TransformKey{WidthPx: 4, HeightPx: 2, RotationDeg: 90, Opacity: 1})
	b := out.Bounds()
	if b.Dx() != 2 || b.Dy() != 4 {
		t.Errorf("rotated bounds %dx%d, want 2x4", b.Dx(), b.Dy())
	}
	if got := out.RGBAAt(1, 2); got != red {
		t.Errorf("rotated interior = %v, want red", got)
	}
}
