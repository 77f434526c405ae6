// Package panels provides the side panel sections of the main window.
package panels

import (
	"printlayout/internal/app"
	"printlayout/ui/canvas"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
)

// SidePanel groups the page, image list, and property sections into tabs.
type SidePanel struct {
	state     *app.State
	container *container.AppTabs

	pagePanel   *PagePanel
	imagesPanel *ImagesPanel
	propsPanel  *PropertiesPanel
}

// NewSidePanel creates the side panel bound to the application state.
func NewSidePanel(state *app.State, cvs *canvas.LayoutCanvas) *SidePanel {
	sp := &SidePanel{state: state}

	sp.pagePanel = NewPagePanel(state)
	sp.imagesPanel = NewImagesPanel(state, cvs)
	sp.propsPanel = NewPropertiesPanel(state, cvs)

	sp.container = container.NewAppTabs(
		container.NewTabItem("Page", sp.pagePanel.Container()),
		container.NewTabItem("Images", sp.imagesPanel.Container()),
		container.NewTabItem("Properties", sp.propsPanel.Container()),
	)
	return sp
}

// Container returns the panel container.
func (sp *SidePanel) Container() fyne.CanvasObject {
	return sp.container
}

// SetWindow sets the parent window for dialogs.
func (sp *SidePanel) SetWindow(w fyne.Window) {
	sp.imagesPanel.SetWindow(w)
}
