package panels

import (
	"fmt"
	"path/filepath"
	"strconv"

	"printlayout/internal/app"
	"printlayout/internal/render"
	"printlayout/internal/scene"
	"printlayout/pkg/geometry"
	"printlayout/ui/canvas"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// PropertiesPanel edits the geometry and appearance of the selected image.
// With no selection, or more than one image selected, the fields are
// disabled.
type PropertiesPanel struct {
	state     *app.State
	canvas    *canvas.LayoutCanvas
	container fyne.CanvasObject

	nameLabel *widget.Label
	dpiLabel  *widget.Label

	xEntry        *widget.Entry
	yEntry        *widget.Entry
	widthEntry    *widget.Entry
	heightEntry   *widget.Entry
	rotationEntry *widget.Entry
	applyButton   *widget.Button
	statusLabel   *widget.Label

	opacitySlider *widget.Slider
	flipHCheck    *widget.Check
	flipVCheck    *widget.Check
	lockCheck     *widget.Check
	visibleCheck  *widget.Check
	rotateCWBtn   *widget.Button
	rotateCCWBtn  *widget.Button

	// syncing suppresses widget callbacks while the fields are being
	// refreshed from the model.
	syncing bool
}

// NewPropertiesPanel creates the properties panel.
func NewPropertiesPanel(state *app.State, cvs *canvas.LayoutCanvas) *PropertiesPanel {
	pp := &PropertiesPanel{state: state, canvas: cvs}

	pp.nameLabel = widget.NewLabel("No selection")
	pp.nameLabel.Wrapping = fyne.TextWrapWord
	pp.dpiLabel = widget.NewLabel("")
	pp.statusLabel = widget.NewLabel("")

	pp.xEntry = widget.NewEntry()
	pp.yEntry = widget.NewEntry()
	pp.widthEntry = widget.NewEntry()
	pp.heightEntry = widget.NewEntry()
	pp.rotationEntry = widget.NewEntry()
	pp.applyButton = widget.NewButton("Apply", func() { pp.onApply() })

	pp.opacitySlider = widget.NewSlider(0, 100)
	pp.opacitySlider.OnChanged = func(val float64) {
		pp.withSelected(func(img *scene.PlacedImage) {
			pp.state.Layout.SetOpacity(img.ID, val/100.0)
		})
	}

	pp.flipHCheck = widget.NewCheck("Flip Horizontal", func(checked bool) {
		pp.withSelected(func(img *scene.PlacedImage) {
			pp.state.Layout.SetFlip(img.ID, checked, img.FlipV)
		})
	})
	pp.flipVCheck = widget.NewCheck("Flip Vertical", func(checked bool) {
		pp.withSelected(func(img *scene.PlacedImage) {
			pp.state.Layout.SetFlip(img.ID, img.FlipH, checked)
		})
	})
	pp.lockCheck = widget.NewCheck("Locked", func(checked bool) {
		pp.withSelected(func(img *scene.PlacedImage) {
			pp.state.Layout.SetLocked(img.ID, checked)
		})
	})
	pp.visibleCheck = widget.NewCheck("Visible", func(checked bool) {
		pp.withSelected(func(img *scene.PlacedImage) {
			pp.state.Layout.SetVisible(img.ID, checked)
		})
	})

	pp.rotateCWBtn = widget.NewButton("Rotate 90° CW", func() {
		pp.withSelected(func(img *scene.PlacedImage) {
			img.RotateQuarter(true)
		})
	})
	pp.rotateCCWBtn = widget.NewButton("Rotate 90° CCW", func() {
		pp.withSelected(func(img *scene.PlacedImage) {
			img.RotateQuarter(false)
		})
	})

	geometryGrid := container.NewGridWithColumns(2,
		widget.NewLabel("X (mm)"), pp.xEntry,
		widget.NewLabel("Y (mm)"), pp.yEntry,
		widget.NewLabel("Width (mm)"), pp.widthEntry,
		widget.NewLabel("Height (mm)"), pp.heightEntry,
		widget.NewLabel("Rotation (°)"), pp.rotationEntry,
	)

	pp.container = container.NewVBox(
		widget.NewCard("Selection", "", container.NewVBox(
			pp.nameLabel,
			pp.dpiLabel,
		)),
		widget.NewCard("Geometry", "", container.NewVBox(
			geometryGrid,
			pp.applyButton,
			container.NewGridWithColumns(2, pp.rotateCWBtn, pp.rotateCCWBtn),
			pp.statusLabel,
		)),
		widget.NewCard("Appearance", "", container.NewVBox(
			widget.NewLabel("Opacity:"),
			pp.opacitySlider,
			pp.flipHCheck,
			pp.flipVCheck,
			pp.lockCheck,
			pp.visibleCheck,
		)),
	)

	state.On(app.EventSelectionChanged, func(interface{}) { pp.sync() })
	state.On(app.EventLayoutChanged, func(interface{}) { pp.sync() })
	state.On(app.EventProjectLoaded, func(interface{}) { pp.sync() })
	pp.sync()

	return pp
}

// Container returns the panel container.
func (pp *PropertiesPanel) Container() fyne.CanvasObject {
	return pp.container
}

// selected returns the image the panel edits: exactly one selected image.
func (pp *PropertiesPanel) selected() *scene.PlacedImage {
	sel := pp.state.Layout.SelectedImages()
	if len(sel) != 1 {
		return nil
	}
	return sel[0]
}

// withSelected runs an edit against the selected image and refreshes.
func (pp *PropertiesPanel) withSelected(edit func(img *scene.PlacedImage)) {
	if pp.syncing {
		return
	}
	img := pp.selected()
	if img == nil {
		return
	}
	edit(img)
	pp.state.SetModified(true)
	pp.state.Emit(app.EventLayoutChanged, nil)
	pp.canvas.Refresh()
}

func (pp *PropertiesPanel) onApply() {
	img := pp.selected()
	if img == nil {
		return
	}

	x, err1 := strconv.ParseFloat(pp.xEntry.Text, 64)
	y, err2 := strconv.ParseFloat(pp.yEntry.Text, 64)
	w, err3 := strconv.ParseFloat(pp.widthEntry.Text, 64)
	h, err4 := strconv.ParseFloat(pp.heightEntry.Text, 64)
	rot, err5 := strconv.ParseFloat(pp.rotationEntry.Text, 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
		pp.statusLabel.SetText("Values must be numbers")
		return
	}

	if err := pp.state.Layout.SetGeometry(img.ID, geometry.NewRect(x, y, w, h)); err != nil {
		pp.statusLabel.SetText("Size must be positive")
		return
	}
	if err := pp.state.Layout.SetRotation(img.ID, rot); err != nil {
		pp.statusLabel.SetText("Rotation rejected")
		return
	}

	pp.statusLabel.SetText("")
	pp.state.SetModified(true)
	pp.state.Emit(app.EventLayoutChanged, nil)
	pp.canvas.Refresh()
}

// sync refreshes the fields from the selected image.
func (pp *PropertiesPanel) sync() {
	pp.syncing = true
	defer func() { pp.syncing = false }()

	img := pp.selected()
	if img == nil {
		n := len(pp.state.Layout.SelectedImages())
		if n > 1 {
			pp.nameLabel.SetText(fmt.Sprintf("%d images selected", n))
		} else {
			pp.nameLabel.SetText("No selection")
		}
		pp.dpiLabel.SetText("")
		pp.setEnabled(false)
		return
	}

	pp.setEnabled(true)
	pp.nameLabel.SetText(filepath.Base(img.Path))

	dpi := img.EffectiveDPI()
	if dpi > 0 && dpi < render.LowDPIThreshold {
		pp.dpiLabel.SetText(fmt.Sprintf("%.0f DPI (low)", dpi))
	} else {
		pp.dpiLabel.SetText(fmt.Sprintf("%.0f DPI", dpi))
	}

	pp.xEntry.SetText(formatMM(img.XMM))
	pp.yEntry.SetText(formatMM(img.YMM))
	pp.widthEntry.SetText(formatMM(img.WidthMM))
	pp.heightEntry.SetText(formatMM(img.HeightMM))
	pp.rotationEntry.SetText(formatMM(img.RotationDeg))

	pp.opacitySlider.Value = img.Opacity * 100
	pp.opacitySlider.Refresh()
	pp.flipHCheck.Checked = img.FlipH
	pp.flipHCheck.Refresh()
	pp.flipVCheck.Checked = img.FlipV
	pp.flipVCheck.Refresh()
	pp.lockCheck.Checked = img.Locked
	pp.lockCheck.Refresh()
	pp.visibleCheck.Checked = img.Visible
	pp.visibleCheck.Refresh()
}

func (pp *PropertiesPanel) setEnabled(enabled bool) {
	widgets := []fyne.Disableable{
		pp.xEntry, pp.yEntry, pp.widthEntry, pp.heightEntry,
		pp.rotationEntry, pp.applyButton, pp.flipHCheck, pp.flipVCheck,
		pp.lockCheck, pp.visibleCheck, pp.rotateCWBtn, pp.rotateCCWBtn,
	}
	for _, w := range widgets {
		if enabled {
			w.Enable()
		} else {
			w.Disable()
		}
	}
}
