package panels

import (
	"fmt"
	"log"
	"path/filepath"

	"printlayout/internal/app"
	"printlayout/internal/scene"
	"printlayout/ui/canvas"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

// imageExtensions lists the file types the decoder understands.
var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tiff", ".tif", ".webp"}

// ImagesPanel lists the placed images in stacking order, topmost first.
type ImagesPanel struct {
	state     *app.State
	canvas    *canvas.LayoutCanvas
	window    fyne.Window
	container fyne.CanvasObject

	list *widget.List

	// rows caches the display order for list callbacks.
	rows []*scene.PlacedImage
}

// NewImagesPanel creates the image list panel.
func NewImagesPanel(state *app.State, cvs *canvas.LayoutCanvas) *ImagesPanel {
	ip := &ImagesPanel{state: state, canvas: cvs}

	ip.list = widget.NewList(
		func() int { return len(ip.rows) },
		func() fyne.CanvasObject {
			return widget.NewLabel("image")
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			if id >= len(ip.rows) {
				return
			}
			img := ip.rows[id]
			name := filepath.Base(img.Path)
			if !img.Visible {
				name = name + " (hidden)"
			}
			if img.Locked {
				name = name + " (locked)"
			}
			obj.(*widget.Label).SetText(name)
		},
	)
	ip.list.OnSelected = func(id widget.ListItemID) {
		if id >= len(ip.rows) {
			return
		}
		if err := state.Layout.Select(ip.rows[id].ID, false); err != nil {
			log.Printf("panels: select failed: %v", err)
			return
		}
		state.Emit(app.EventSelectionChanged, nil)
		cvs.Refresh()
	}

	addButton := widget.NewButton("Add Image...", func() { ip.onAddImage() })
	removeButton := widget.NewButton("Remove", func() { ip.onRemove() })
	duplicateButton := widget.NewButton("Duplicate", func() { ip.forSelected(state.DuplicateImage) })

	raiseButton := widget.NewButton("Raise", func() { ip.reorder(state.Layout.Raise) })
	lowerButton := widget.NewButton("Lower", func() { ip.reorder(state.Layout.Lower) })
	frontButton := widget.NewButton("To Front", func() { ip.reorder(state.Layout.BringToFront) })
	backButton := widget.NewButton("To Back", func() { ip.reorder(state.Layout.SendToBack) })

	ip.container = container.NewBorder(
		container.NewVBox(
			addButton,
			container.NewGridWithColumns(2, removeButton, duplicateButton),
			container.NewGridWithColumns(2, raiseButton, lowerButton),
			container.NewGridWithColumns(2, frontButton, backButton),
		),
		nil, nil, nil,
		ip.list,
	)

	state.On(app.EventLayoutChanged, func(interface{}) { ip.refresh() })
	state.On(app.EventSelectionChanged, func(interface{}) { ip.refresh() })
	state.On(app.EventProjectLoaded, func(interface{}) { ip.refresh() })
	ip.refresh()

	return ip
}

// Container returns the panel container.
func (ip *ImagesPanel) Container() fyne.CanvasObject {
	return ip.container
}

// SetWindow sets the parent window for dialogs.
func (ip *ImagesPanel) SetWindow(w fyne.Window) {
	ip.window = w
}

func (ip *ImagesPanel) onAddImage() {
	if ip.window == nil {
		return
	}
	fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil || rc == nil {
			return
		}
		path := rc.URI().Path()
		rc.Close()
		if _, err := ip.state.AddImage(path); err != nil {
			dialog.ShowError(fmt.Errorf("cannot add %s: %w", filepath.Base(path), err), ip.window)
			return
		}
		ip.canvas.Refresh()
	}, ip.window)
	fd.SetFilter(storage.NewExtensionFileFilter(imageExtensions))
	fd.Show()
}

func (ip *ImagesPanel) onRemove() {
	for _, img := range ip.state.Layout.SelectedImages() {
		if err := ip.state.RemoveImage(img.ID); err != nil {
			log.Printf("panels: remove failed: %v", err)
		}
	}
	ip.canvas.Refresh()
}

// reorder applies a z-order operation to every selected image.
func (ip *ImagesPanel) reorder(op func(id string) error) {
	for _, img := range ip.state.Layout.SelectedImages() {
		if err := op(img.ID); err != nil {
			log.Printf("panels: reorder failed: %v", err)
		}
	}
	ip.state.SetModified(true)
	ip.state.Emit(app.EventLayoutChanged, nil)
	ip.canvas.Refresh()
}

func (ip *ImagesPanel) forSelected(op func(id string) error) {
	for _, img := range ip.state.Layout.SelectedImages() {
		if err := op(img.ID); err != nil {
			log.Printf("panels: operation failed: %v", err)
		}
	}
	ip.canvas.Refresh()
}

// refresh rebuilds the display rows, topmost image first.
func (ip *ImagesPanel) refresh() {
	images := ip.state.Layout.Images
	ip.rows = ip.rows[:0]
	for i := len(images) - 1; i >= 0; i-- {
		ip.rows = append(ip.rows, images[i])
	}
	ip.list.Refresh()
}
