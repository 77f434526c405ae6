// Package canvas provides the page canvas with pan, zoom, and direct
// manipulation of placed images.
package canvas

import (
	"image"
	"image/draw"

	"printlayout/internal/app"
	"printlayout/internal/interact"
	"printlayout/internal/units"
	"printlayout/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const (
	minZoom  = 0.1
	maxZoom  = 8.0
	zoomStep = 1.25
)

// workAreaGray fills the surround behind the page.
const workAreaGray = 0x55

// LayoutCanvas displays the composed page and routes pointer input to the
// interaction machine. The page is rendered in page pixels at the current
// zoom; pointer positions are converted back to millimeters before they
// reach the model.
type LayoutCanvas struct {
	widget.BaseWidget

	state *app.State

	raster  *fynecanvas.Raster
	scroll  *zoomScroll
	content *draggableContent
	imgSize fyne.Size

	// mods mirrors the keyboard modifier state tracked by the main window.
	mods interact.Modifiers

	fitToWindow    bool
	lastScrollSize fyne.Size

	onZoomChange func(zoom float64)
}

// zoomScroll wraps a scroll container but intercepts the wheel for zoom.
type zoomScroll struct {
	widget.BaseWidget
	scroll *container.Scroll
	canvas *LayoutCanvas
}

func newZoomScroll(content fyne.CanvasObject, canvas *LayoutCanvas) *zoomScroll {
	scroll := container.NewScroll(content)
	scroll.Direction = container.ScrollBoth
	zs := &zoomScroll{scroll: scroll, canvas: canvas}
	zs.ExtendBaseWidget(zs)
	return zs
}

func (zs *zoomScroll) Scrolled(ev *fyne.ScrollEvent) {
	// Wheel zooms, it does not scroll.
	if ev.Scrolled.DY > 0 {
		zs.canvas.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		zs.canvas.ZoomOut()
	}
}

func (zs *zoomScroll) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(zs.scroll)
}

// Offset returns the scroll container's current offset.
func (zs *zoomScroll) Offset() fyne.Position {
	return zs.scroll.Offset
}

// ScrollBy moves the viewport by the given amount in pixels.
func (zs *zoomScroll) ScrollBy(dx, dy float32) {
	zs.scroll.Offset = fyne.Position{
		X: zs.scroll.Offset.X + dx,
		Y: zs.scroll.Offset.Y + dy,
	}
	zs.scroll.Refresh()
}

func (zs *zoomScroll) Size() fyne.Size {
	return zs.scroll.Size()
}

func (zs *zoomScroll) Refresh() {
	zs.scroll.Refresh()
	zs.BaseWidget.Refresh()
}

func (zs *zoomScroll) Resize(size fyne.Size) {
	zs.scroll.Resize(size)
	zs.BaseWidget.Resize(size)
}

// draggableContent wraps the raster to receive mouse events.
type draggableContent struct {
	widget.BaseWidget
	canvas *LayoutCanvas
	raster *fynecanvas.Raster

	dragging bool
	lastPos  fyne.Position
}

func newDraggableContent(lc *LayoutCanvas, raster *fynecanvas.Raster) *draggableContent {
	dc := &draggableContent{canvas: lc, raster: raster}
	dc.ExtendBaseWidget(dc)
	return dc
}

func (dc *draggableContent) CreateRenderer() fyne.WidgetRenderer {
	return &draggableContentRenderer{content: dc}
}

func (dc *draggableContent) MinSize() fyne.Size {
	return dc.raster.MinSize()
}

func (dc *draggableContent) Dragged(ev *fyne.DragEvent) {
	st := dc.canvas.state
	pos := dc.canvas.contentPosition(ev.Position)

	if !dc.dragging {
		dc.dragging = true
		// The first drag event carries the distance already travelled
		// from the pointer-down point, so recover the start position.
		start := fyne.Position{
			X: ev.Position.X - ev.Dragged.DX,
			Y: ev.Position.Y - ev.Dragged.DY,
		}
		st.Machine.PointerDown(dc.canvas.toMM(dc.canvas.contentPosition(start)), dc.canvas.mods, st.Zoom)
		st.Emit(app.EventSelectionChanged, nil)
	}

	st.Machine.PointerMove(dc.canvas.toMM(pos), dc.canvas.mods, st.Zoom)
	dc.lastPos = pos
	dc.canvas.Refresh()
}

func (dc *draggableContent) DragEnd() {
	if !dc.dragging {
		return
	}
	dc.dragging = false

	st := dc.canvas.state
	changed := st.Machine.PointerUp(dc.canvas.toMM(dc.lastPos), dc.canvas.mods, st.Zoom)
	if changed {
		st.SetModified(true)
		st.Emit(app.EventLayoutChanged, nil)
	}
	st.Emit(app.EventSelectionChanged, nil)
	dc.canvas.Refresh()
}

func (dc *draggableContent) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY > 0 {
		dc.canvas.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		dc.canvas.ZoomOut()
	}
}

// Tapped handles plain clicks: selection without a drag.
func (dc *draggableContent) Tapped(ev *fyne.PointEvent) {
	// Workaround for a Fyne quirk: reject clicks outside the widget.
	size := dc.Size()
	if ev.Position.X < 0 || ev.Position.Y < 0 ||
		ev.Position.X > size.Width || ev.Position.Y > size.Height {
		return
	}

	st := dc.canvas.state
	p := dc.canvas.toMM(dc.canvas.contentPosition(ev.Position))
	st.Machine.PointerDown(p, dc.canvas.mods, st.Zoom)
	st.Machine.PointerUp(p, dc.canvas.mods, st.Zoom)
	st.Emit(app.EventSelectionChanged, nil)
	dc.canvas.Refresh()
}

// TappedSecondary clears the selection.
func (dc *draggableContent) TappedSecondary(ev *fyne.PointEvent) {
	st := dc.canvas.state
	st.Layout.ClearSelection()
	st.Emit(app.EventSelectionChanged, nil)
	dc.canvas.Refresh()
}

type draggableContentRenderer struct {
	content *draggableContent
}

func (r *draggableContentRenderer) Layout(size fyne.Size) {
	r.content.raster.Resize(size)
}

func (r *draggableContentRenderer) MinSize() fyne.Size {
	return r.content.raster.MinSize()
}

func (r *draggableContentRenderer) Refresh() {
	r.content.raster.Refresh()
}

func (r *draggableContentRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.content.raster}
}

func (r *draggableContentRenderer) Destroy() {}

// NewLayoutCanvas creates the canvas bound to the application state.
func NewLayoutCanvas(st *app.State) *LayoutCanvas {
	lc := &LayoutCanvas{
		state:   st,
		imgSize: fyne.NewSize(400, 300),
	}

	lc.raster = fynecanvas.NewRaster(lc.draw)
	lc.raster.ScaleMode = fynecanvas.ImageScalePixels

	lc.content = newDraggableContent(lc, lc.raster)
	lc.scroll = newZoomScroll(lc.content, lc)

	lc.bindMachine()
	st.On(app.EventProjectLoaded, func(interface{}) {
		// Loading a project replaces the interaction machine.
		lc.bindMachine()
		lc.updateContentSize()
	})
	st.On(app.EventPageChanged, func(interface{}) { lc.updateContentSize() })
	st.On(app.EventLayoutChanged, func(interface{}) { lc.Refresh() })
	st.On(app.EventImagesInvalidated, func(interface{}) { lc.Refresh() })
	st.On(app.EventZoomChanged, func(interface{}) { lc.updateContentSize() })

	lc.ExtendBaseWidget(lc)
	lc.updateContentSize()
	return lc
}

func (lc *LayoutCanvas) bindMachine() {
	lc.state.Machine.OnPan = func(dxMM, dyMM float64) {
		dpi := units.ZoomDPI(lc.state.Zoom)
		lc.scroll.ScrollBy(float32(-units.ToPixels(dxMM, dpi)), float32(-units.ToPixels(dyMM, dpi)))
	}
}

// Container returns the canvas container for embedding in layouts.
func (lc *LayoutCanvas) Container() fyne.CanvasObject {
	return lc.scroll
}

// SetModifiers updates the modifier state applied to pointer events.
func (lc *LayoutCanvas) SetModifiers(mods interact.Modifiers) {
	lc.mods = mods
}

// Modifiers returns the current modifier state.
func (lc *LayoutCanvas) Modifiers() interact.Modifiers {
	return lc.mods
}

// contentPosition corrects a viewport-relative event position by the
// scroll offset.
func (lc *LayoutCanvas) contentPosition(pos fyne.Position) fyne.Position {
	off := lc.scroll.Offset()
	return fyne.Position{X: pos.X + off.X, Y: pos.Y + off.Y}
}

// toMM converts a content position in pixels to page millimeters.
func (lc *LayoutCanvas) toMM(pos fyne.Position) geometry.Point {
	dpi := units.ZoomDPI(lc.state.Zoom)
	return geometry.Point{
		X: units.ToMM(float64(pos.X), dpi),
		Y: units.ToMM(float64(pos.Y), dpi),
	}
}

// SetZoom sets the zoom level.
func (lc *LayoutCanvas) SetZoom(zoom float64) {
	if zoom < minZoom {
		zoom = minZoom
	}
	if zoom > maxZoom {
		zoom = maxZoom
	}
	lc.state.SetZoom(zoom)
	lc.updateContentSize()

	if lc.onZoomChange != nil {
		lc.onZoomChange(zoom)
	}
}

// Zoom returns the current zoom level.
func (lc *LayoutCanvas) Zoom() float64 {
	return lc.state.Zoom
}

// ZoomIn increases the zoom level.
func (lc *LayoutCanvas) ZoomIn() {
	lc.SetZoom(lc.state.Zoom * zoomStep)
}

// ZoomOut decreases the zoom level.
func (lc *LayoutCanvas) ZoomOut() {
	lc.SetZoom(lc.state.Zoom / zoomStep)
}

// FitToWindow adjusts zoom so the whole page fits the visible area.
func (lc *LayoutCanvas) FitToWindow() {
	page := lc.state.Layout.Page
	if page.WidthMM <= 0 || page.HeightMM <= 0 {
		return
	}
	viewSize := lc.scroll.Size()
	if viewSize.Width <= 0 || viewSize.Height <= 0 {
		return
	}

	pageW := units.ToPixels(page.WidthMM, units.ScreenDPI)
	pageH := units.ToPixels(page.HeightMM, units.ScreenDPI)
	zoomX := float64(viewSize.Width) / pageW
	zoomY := float64(viewSize.Height) / pageH

	zoom := zoomX
	if zoomY < zoomX {
		zoom = zoomY
	}
	lc.SetZoom(zoom * 0.95)
}

// GetFitToWindow reports whether auto-fit on resize is enabled.
func (lc *LayoutCanvas) GetFitToWindow() bool {
	return lc.fitToWindow
}

// SetFitToWindow enables or disables auto-fit on resize.
func (lc *LayoutCanvas) SetFitToWindow(fit bool) {
	lc.fitToWindow = fit
	if fit {
		lc.FitToWindow()
	}
}

// CheckResize auto-fits when the scroll container was resized.
func (lc *LayoutCanvas) CheckResize(size fyne.Size) {
	if !lc.fitToWindow {
		return
	}
	if size.Width > 0 && size.Height > 0 && size != lc.lastScrollSize {
		lc.lastScrollSize = size
		lc.FitToWindow()
	}
}

// OnZoomChange sets a callback for zoom changes.
func (lc *LayoutCanvas) OnZoomChange(callback func(zoom float64)) {
	lc.onZoomChange = callback
}

// Refresh redraws the page.
func (lc *LayoutCanvas) Refresh() {
	lc.raster.Refresh()
}

// updateContentSize sizes the raster to the page at the current zoom.
func (lc *LayoutCanvas) updateContentSize() {
	page := lc.state.Layout.Page
	dpi := units.ZoomDPI(lc.state.Zoom)
	width := float32(units.ToPixels(page.WidthMM, dpi))
	height := float32(units.ToPixels(page.HeightMM, dpi))
	if width <= 0 || height <= 0 {
		lc.imgSize = fyne.NewSize(400, 300)
	} else {
		lc.imgSize = fyne.NewSize(width, height)
	}

	lc.raster.SetMinSize(lc.imgSize)
	lc.raster.Resize(lc.imgSize)
	if lc.content != nil {
		lc.content.Resize(lc.imgSize)
		lc.content.Refresh()
	}
	lc.raster.Refresh()
	if lc.scroll != nil {
		lc.scroll.Refresh()
	}
}

// draw is the raster drawing function.
func (lc *LayoutCanvas) draw(w, h int) image.Image {
	currentSize := fyne.NewSize(float32(w), float32(h))
	if lc.fitToWindow && currentSize != lc.lastScrollSize && w > 0 && h > 0 {
		lc.lastScrollSize = currentSize
		go lc.FitToWindow()
	}

	output := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(output.Pix); i += 4 {
		output.Pix[i] = workAreaGray
		output.Pix[i+1] = workAreaGray
		output.Pix[i+2] = workAreaGray
		output.Pix[i+3] = 0xff
	}

	frame := lc.state.Frame()
	draw.Draw(output, frame.Bounds(), frame, image.Point{}, draw.Src)
	return output
}

// CreateRenderer implements fyne.Widget.
func (lc *LayoutCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &layoutCanvasRenderer{canvas: lc}
}

type layoutCanvasRenderer struct {
	canvas *LayoutCanvas
}

func (r *layoutCanvasRenderer) Layout(size fyne.Size) {
	if r.canvas.scroll != nil {
		r.canvas.scroll.Resize(size)
	}
	r.canvas.CheckResize(size)
}

func (r *layoutCanvasRenderer) MinSize() fyne.Size {
	return fyne.NewSize(100, 100)
}

func (r *layoutCanvasRenderer) Refresh() {
	r.canvas.raster.Refresh()
}

func (r *layoutCanvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.canvas.scroll}
}

func (r *layoutCanvasRenderer) Destroy() {}
