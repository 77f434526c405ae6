// Package units converts between millimeters and device pixels. The same
// conversion is used for interactive rendering (screen DPI scaled by zoom)
// and print rendering (fixed DPI), so the preview matches the printed page.
package units

const (
	// MMPerInch is the number of millimeters in one inch.
	MMPerInch = 25.4

	// ScreenDPI is the assumed screen resolution for interactive rendering.
	ScreenDPI = 96.0

	// PrintDPI is the default resolution for print composites.
	PrintDPI = 300.0
)

// ToPixels converts a length in millimeters to pixels at the given DPI.
func ToPixels(mm, dpi float64) float64 {
	return mm / MMPerInch * dpi
}

// ToMM converts a length in pixels to millimeters at the given DPI.
func ToMM(px, dpi float64) float64 {
	return px * MMPerInch / dpi
}

// ZoomDPI returns the effective DPI for interactive rendering at a zoom level.
func ZoomDPI(zoom float64) float64 {
	return ScreenDPI * zoom
}

// EffectiveDPI returns the print resolution an image achieves when a source
// of originalPx pixels is placed across sizeMM millimeters. Returns 0 when
// the placed size is not positive.
func EffectiveDPI(originalPx int, sizeMM float64) float64 {
	if sizeMM <= 0 {
		return 0
	}
	return float64(originalPx) / (sizeMM / MMPerInch)
}
