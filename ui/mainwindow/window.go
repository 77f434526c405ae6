// Package mainwindow provides the main application window.
package mainwindow

import (
	"fmt"
	"log"
	"path/filepath"

	"printlayout/internal/app"
	"printlayout/internal/config"
	"printlayout/internal/project"
	"printlayout/internal/version"
	"printlayout/ui/canvas"
	"printlayout/ui/dialogs"
	"printlayout/ui/panels"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

const appTitle = "Print Layout"

// imageExtensions lists the file types the decoder understands.
var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tiff", ".tif", ".webp"}

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app       fyne.App
	state     *app.State
	canvas    *canvas.LayoutCanvas
	sidePanel *panels.SidePanel
	statusBar *widget.Label
	zoomLabel *widget.Label

	fitToWindowItem *fyne.MenuItem
	recentMenu      *fyne.Menu
}

// New creates the main window.
func New(fyneApp fyne.App, state *app.State) *MainWindow {
	win := fyneApp.NewWindow(appTitle)

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		state:  state,
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()
	mw.setupKeys()
	mw.updateTitle()

	prefs := state.Config.Get()
	win.Resize(fyne.NewSize(float32(prefs.WindowWidth), float32(prefs.WindowHeight)))

	return mw
}

// setupUI creates the main layout.
func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.NewLayoutCanvas(mw.state)

	mw.sidePanel = panels.NewSidePanel(mw.state, mw.canvas)
	mw.sidePanel.SetWindow(mw.Window)

	mw.statusBar = widget.NewLabel("Ready")
	mw.zoomLabel = widget.NewLabel("100%")

	toolbar := mw.createToolbar()

	canvasArea := container.NewBorder(
		toolbar,
		nil, nil, nil,
		mw.canvas.Container(),
	)

	split := container.NewHSplit(
		mw.sidePanel.Container(),
		canvasArea,
	)
	split.SetOffset(0.25)

	statusRow := container.NewBorder(nil, nil, nil, mw.zoomLabel, mw.statusBar)
	content := container.NewBorder(
		nil,
		container.NewPadded(statusRow),
		nil, nil,
		split,
	)

	mw.SetContent(content)
}

// createToolbar creates the toolbar with the common actions.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	addBtn := widget.NewButton("Add Image", mw.onAddImage)
	printBtn := widget.NewButton("Print", mw.onPrint)

	zoomOutBtn := widget.NewButton("-", mw.onZoomOut)
	zoomInBtn := widget.NewButton("+", mw.onZoomIn)
	fitBtn := widget.NewButton("Fit", mw.onToggleFitToWindow)
	actualBtn := widget.NewButton("1:1", mw.onActualSize)

	return container.NewHBox(
		addBtn,
		printBtn,
		widget.NewSeparator(),
		widget.NewLabel("Zoom:"),
		zoomOutBtn,
		zoomInBtn,
		fitBtn,
		actualBtn,
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	mw.recentMenu = fyne.NewMenu("Open Recent")
	mw.rebuildRecentMenu()

	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("New Project", mw.onNewProject),
		fyne.NewMenuItem("Open Project...", mw.onOpenProject),
		mw.recentMenuItem(),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Add Image...", mw.onAddImage),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save Project", mw.onSaveProject),
		fyne.NewMenuItem("Save Project As...", mw.onSaveProjectAs),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Print...", mw.onPrint),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { mw.app.Quit() }),
	)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Delete", mw.onDeleteSelected),
		fyne.NewMenuItem("Duplicate", mw.onDuplicateSelected),
		fyne.NewMenuItem("Deselect All", mw.onDeselectAll),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Preferences...", mw.onPreferences),
	)

	mw.fitToWindowItem = fyne.NewMenuItem("  Fit to Window", mw.onToggleFitToWindow)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", mw.onZoomIn),
		fyne.NewMenuItem("Zoom Out", mw.onZoomOut),
		mw.fitToWindowItem,
		fyne.NewMenuItem("Actual Size", mw.onActualSize),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Toggle Grid", mw.onToggleGrid),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mainMenu := fyne.NewMainMenu(fileMenu, editMenu, viewMenu, helpMenu)
	mw.SetMainMenu(mainMenu)
}

// recentMenuItem wraps the recent-files submenu in a menu item.
func (mw *MainWindow) recentMenuItem() *fyne.MenuItem {
	item := fyne.NewMenuItem("Open Recent", nil)
	item.ChildMenu = mw.recentMenu
	return item
}

// rebuildRecentMenu refreshes the recent-files submenu from preferences.
func (mw *MainWindow) rebuildRecentMenu() {
	recent := mw.state.Config.Get().RecentFiles
	items := make([]*fyne.MenuItem, 0, len(recent))
	for _, path := range recent {
		p := path
		items = append(items, fyne.NewMenuItem(filepath.Base(p), func() {
			mw.openProject(p)
		}))
	}
	if len(items) == 0 {
		empty := fyne.NewMenuItem("(empty)", nil)
		empty.Disabled = true
		items = append(items, empty)
	}
	mw.recentMenu.Items = items
	mw.recentMenu.Refresh()
}

// setupEventHandlers registers for application events.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventProjectLoaded, func(data interface{}) {
		mw.updateTitle()
		mw.rebuildRecentMenu()
		if path, ok := data.(string); ok {
			mw.updateStatus("Opened " + filepath.Base(path))
		}
		mw.canvas.Refresh()
	})

	mw.state.On(app.EventProjectSaved, func(data interface{}) {
		mw.updateTitle()
		mw.rebuildRecentMenu()
		if path, ok := data.(string); ok {
			mw.updateStatus("Saved " + filepath.Base(path))
		}
	})

	mw.state.On(app.EventModified, func(interface{}) {
		mw.updateTitle()
	})

	mw.state.On(app.EventZoomChanged, func(data interface{}) {
		if zoom, ok := data.(float64); ok {
			mw.zoomLabel.SetText(fmt.Sprintf("%.0f%%", zoom*100))
		}
	})

	mw.state.On(app.EventSelectionChanged, func(interface{}) {
		sel := mw.state.Layout.SelectedImages()
		switch len(sel) {
		case 0:
			mw.updateStatus("Ready")
		case 1:
			mw.updateStatus(fmt.Sprintf("%s  %.1f x %.1f mm",
				filepath.Base(sel[0].Path), sel[0].WidthMM, sel[0].HeightMM))
		default:
			mw.updateStatus(fmt.Sprintf("%d images selected", len(sel)))
		}
	})

	mw.state.On(app.EventPrintSubmitted, func(data interface{}) {
		mw.updateStatus("Print job submitted")
	})

	mw.SetCloseIntercept(mw.onClose)
}

// setupKeys tracks keyboard modifiers for the canvas and binds editing
// shortcuts.
func (mw *MainWindow) setupKeys() {
	applyKey := func(name fyne.KeyName, down bool) {
		mods := mw.canvas.Modifiers()
		switch name {
		case desktop.KeyShiftLeft, desktop.KeyShiftRight:
			mods.AspectLock = down
		case desktop.KeyControlLeft, desktop.KeyControlRight:
			mods.Additive = down
		case desktop.KeyAltLeft, desktop.KeyAltRight:
			mods.DisableSnap = down
		case fyne.KeySpace:
			mods.Pan = down
		default:
			return
		}
		mw.canvas.SetModifiers(mods)
	}

	if deskCanvas, ok := mw.Canvas().(desktop.Canvas); ok {
		deskCanvas.SetOnKeyDown(func(ev *fyne.KeyEvent) {
			applyKey(ev.Name, true)
		})
		deskCanvas.SetOnKeyUp(func(ev *fyne.KeyEvent) {
			applyKey(ev.Name, false)
		})
	}

	mw.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeyEscape:
			mw.state.Machine.Cancel()
			mw.canvas.Refresh()
		case fyne.KeyDelete, fyne.KeyBackspace:
			mw.onDeleteSelected()
		}
	})
}

// OfferRestart prompts to restart into a freshly built binary. The
// current document is snapshotted first so nothing is lost either way.
func (mw *MainWindow) OfferRestart(reloader *app.Reloader) {
	mw.state.SaveRecoverySnapshot()
	dialog.ShowConfirm("New Version Available",
		"The application binary has been updated.\nRestart now?",
		func(restart bool) {
			if !restart {
				reloader.ResetBaseline()
				reloader.Start()
				return
			}
			mw.state.SaveRecoverySnapshot()
			if err := reloader.Restart(); err != nil {
				log.Printf("mainwindow: restart failed: %v", err)
			}
		}, mw.Window)
}

// CheckRecovery offers to restore an auto-saved document. Called once
// after the window is shown.
func (mw *MainWindow) CheckRecovery() {
	if !mw.state.HasRecovery() {
		return
	}
	dialog.ShowConfirm("Recover Document",
		"An auto-saved document from a previous session was found.\nRestore it?",
		func(restore bool) {
			if !restore {
				mw.state.DiscardRecovery()
				return
			}
			if err := mw.state.LoadRecovery(); err != nil {
				dialog.ShowError(err, mw.Window)
				return
			}
			mw.updateTitle()
			mw.canvas.Refresh()
			mw.updateStatus("Recovered auto-saved document")
		}, mw.Window)
}

func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// updateTitle reflects the project name and modified marker.
func (mw *MainWindow) updateTitle() {
	title := appTitle + " - " + mw.state.ProjectName
	if mw.state.Modified {
		title += " *"
	}
	mw.SetTitle(title)
}

func (mw *MainWindow) getLastDir() fyne.ListableURI {
	recent := mw.state.Config.Get().RecentFiles
	if len(recent) == 0 {
		return nil
	}
	uri := storage.NewFileURI(filepath.Dir(recent[0]))
	listable, err := storage.ListerForURI(uri)
	if err != nil {
		return nil
	}
	return listable
}

// Menu action handlers

func (mw *MainWindow) onNewProject() {
	mw.confirmDiscard(func() {
		mw.state.NewProject()
		mw.updateTitle()
		mw.canvas.Refresh()
		mw.updateStatus("New project")
	})
}

// confirmDiscard runs the action, asking first when unsaved changes
// would be lost.
func (mw *MainWindow) confirmDiscard(action func()) {
	if !mw.state.Modified {
		action()
		return
	}
	dialog.ShowConfirm("Unsaved Changes",
		"The current project has unsaved changes. Discard them?",
		func(discard bool) {
			if discard {
				action()
			}
		}, mw.Window)
}

func (mw *MainWindow) onOpenProject() {
	mw.confirmDiscard(func() {
		fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
			if err != nil || reader == nil {
				return
			}
			path := reader.URI().Path()
			reader.Close()
			mw.openProject(path)
		}, mw.Window)
		fd.SetFilter(storage.NewExtensionFileFilter([]string{project.FileExt}))
		if loc := mw.getLastDir(); loc != nil {
			fd.SetLocation(loc)
		}
		fd.Show()
	})
}

func (mw *MainWindow) openProject(path string) {
	if err := mw.state.LoadProject(path); err != nil {
		dialog.ShowError(err, mw.Window)
	}
}

func (mw *MainWindow) onAddImage() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()
		if _, err := mw.state.AddImage(path); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.canvas.Refresh()
		mw.updateStatus("Added " + filepath.Base(path))
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter(imageExtensions))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onSaveProject() {
	if mw.state.ProjectPath == "" {
		mw.onSaveProjectAs()
		return
	}
	if err := mw.state.SaveProject(mw.state.ProjectPath); err != nil {
		dialog.ShowError(err, mw.Window)
	}
}

func (mw *MainWindow) onSaveProjectAs() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		path := writer.URI().Path()
		writer.Close()
		if filepath.Ext(path) != project.FileExt {
			path += project.FileExt
		}
		if err := mw.state.SaveProject(path); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFileName("layout" + project.FileExt)
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onPrint() {
	dialogs.NewPrintDialog(mw.state, mw.Window).Show()
}

func (mw *MainWindow) onDeleteSelected() {
	for _, img := range mw.state.Layout.SelectedImages() {
		if err := mw.state.RemoveImage(img.ID); err != nil {
			log.Printf("mainwindow: remove %s: %v", img.ID, err)
		}
	}
	mw.canvas.Refresh()
}

func (mw *MainWindow) onDuplicateSelected() {
	for _, img := range mw.state.Layout.SelectedImages() {
		if err := mw.state.DuplicateImage(img.ID); err != nil {
			log.Printf("mainwindow: duplicate %s: %v", img.ID, err)
		}
	}
	mw.canvas.Refresh()
}

func (mw *MainWindow) onDeselectAll() {
	mw.state.Layout.ClearSelection()
	mw.state.Emit(app.EventSelectionChanged, nil)
	mw.canvas.Refresh()
}

func (mw *MainWindow) onPreferences() {
	dialogs.NewPreferencesDialog(mw.state, mw.Window).Show()
}

func (mw *MainWindow) onZoomIn() {
	mw.disableFitToWindow()
	mw.canvas.ZoomIn()
}

func (mw *MainWindow) onZoomOut() {
	mw.disableFitToWindow()
	mw.canvas.ZoomOut()
}

func (mw *MainWindow) onToggleFitToWindow() {
	enabled := !mw.canvas.GetFitToWindow()
	mw.canvas.SetFitToWindow(enabled)

	if enabled {
		mw.fitToWindowItem.Label = "✓ Fit to Window"
	} else {
		mw.fitToWindowItem.Label = "  Fit to Window"
	}
}

func (mw *MainWindow) onActualSize() {
	mw.disableFitToWindow()
	mw.canvas.SetZoom(1.0)
}

func (mw *MainWindow) disableFitToWindow() {
	if mw.canvas.GetFitToWindow() {
		mw.canvas.SetFitToWindow(false)
		mw.fitToWindowItem.Label = "  Fit to Window"
	}
}

func (mw *MainWindow) onToggleGrid() {
	if err := mw.state.Config.Update(func(p *config.Preferences) {
		p.ShowGrid = !p.ShowGrid
	}); err != nil {
		log.Printf("mainwindow: save preferences: %v", err)
	}
	mw.canvas.Refresh()
}

func (mw *MainWindow) onClose() {
	mw.saveWindowSize()
	if !mw.state.Modified {
		mw.Close()
		return
	}
	dialog.ShowConfirm("Unsaved Changes",
		"The current project has unsaved changes. Quit anyway?",
		func(quit bool) {
			if quit {
				mw.Close()
			}
		}, mw.Window)
}

func (mw *MainWindow) saveWindowSize() {
	size := mw.Canvas().Size()
	if size.Width <= 0 || size.Height <= 0 {
		return
	}
	if err := mw.state.Config.Update(func(p *config.Preferences) {
		p.WindowWidth = int(size.Width)
		p.WindowHeight = int(size.Height)
	}); err != nil {
		log.Printf("mainwindow: save window size: %v", err)
	}
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About "+appTitle,
		fmt.Sprintf("%s v%s\n\n"+
			"Compose and print multiple images on a single page.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			appTitle, version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}
