// Package app owns the live application state: the layout being edited,
// the services around it, and the event fan-out the UI subscribes to.
package app

import (
	"context"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	"printlayout/internal/config"
	"printlayout/internal/imagestore"
	"printlayout/internal/interact"
	"printlayout/internal/paper"
	"printlayout/internal/printing"
	"printlayout/internal/project"
	"printlayout/internal/render"
	"printlayout/internal/scene"
	"printlayout/internal/snap"
	"printlayout/internal/units"
	"printlayout/pkg/geometry"
)

// EventType identifies different application events.
type EventType int

const (
	EventProjectLoaded EventType = iota
	EventProjectSaved
	EventLayoutChanged
	EventSelectionChanged
	EventPageChanged
	EventModified
	EventZoomChanged
	EventPrintSubmitted
	EventImagesInvalidated
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// State holds the document being edited and every service around it.
type State struct {
	mu sync.RWMutex

	ProjectPath string
	ProjectName string
	Modified    bool
	createdAt   time.Time

	Layout  *scene.Layout
	Machine *interact.Machine
	Snapper *snap.Engine
	Store   *imagestore.Store
	Watcher *imagestore.Watcher
	Printer *printing.Client
	Config  *config.Manager

	Zoom float64

	autoSaver *project.AutoSaver
	autoPath  string

	listeners map[EventType][]EventListener
}

// NewState builds a fresh state from the saved preferences.
func NewState(cfg *config.Manager) *State {
	prefs := cfg.Load()

	s := &State{
		ProjectName: "Untitled",
		Config:      cfg,
		Store:       imagestore.New(imagestore.Config{}),
		Printer:     printing.NewClient(),
		Zoom:        prefs.Zoom,
		createdAt:   time.Now().UTC(),
		listeners:   make(map[EventType][]EventListener),
	}
	s.Snapper = snap.New(snapConfig(prefs))
	s.Layout = newLayoutFromPrefs(prefs)
	s.Machine = interact.NewMachine(s.Layout, s.Snapper)

	watcher, err := imagestore.NewWatcher(s.Store, func(path string) {
		s.Emit(EventImagesInvalidated, path)
	})
	if err != nil {
		log.Printf("app: file watching disabled: %v", err)
	} else {
		s.Watcher = watcher
	}

	if path, err := project.AutoSavePath(); err == nil {
		s.autoPath = path
	} else {
		log.Printf("app: auto-save disabled: %v", err)
	}
	return s
}

func newLayoutFromPrefs(prefs config.Preferences) *scene.Layout {
	lay := scene.NewLayout(prefs.DefaultPaperSize)
	lay.Page.SetOrientation(prefs.DefaultOrientation)
	m := prefs.DefaultMarginMM
	if err := lay.Page.SetMargins(m, m, m, m); err != nil {
		log.Printf("app: default margins rejected: %v", err)
	}
	return lay
}

func snapConfig(prefs config.Preferences) snap.Config {
	return snap.Config{
		GridEnabled:   prefs.SnapToGrid,
		GridSpacingMM: prefs.GridSpacingMM,
		Siblings:      true,
		PageCenter:    true,
		Margins:       true,
		ThresholdPx:   snap.DefaultThresholdPx,
	}
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// SetModified marks the document as modified and emits an event.
func (s *State) SetModified(modified bool) {
	s.mu.Lock()
	s.Modified = modified
	s.mu.Unlock()
	s.Emit(EventModified, modified)
}

// AddImage decodes the file header for its pixel dimensions and places
// the image on the page with the default size and cascade position.
func (s *State) AddImage(path string) (*scene.PlacedImage, error) {
	w, h, err := s.Store.Dimensions(path)
	if err != nil {
		return nil, fmt.Errorf("app: add %s: %w", path, err)
	}
	img := s.Layout.AddImage(path, w, h)
	if s.Watcher != nil {
		if err := s.Watcher.Watch(path); err != nil {
			log.Printf("app: watch %s: %v", path, err)
		}
	}
	s.SetModified(true)
	s.Emit(EventLayoutChanged, nil)
	return img, nil
}

// RemoveImage deletes a placed image, dropping the file watch when no
// other placement shares the source.
func (s *State) RemoveImage(id string) error {
	img, ok := s.Layout.Image(id)
	if !ok {
		return scene.ErrNotFound
	}
	path := img.Path
	if err := s.Layout.RemoveImage(id); err != nil {
		return err
	}
	if s.Watcher != nil && !s.pathInUse(path) {
		s.Watcher.Unwatch(path)
	}
	s.SetModified(true)
	s.Emit(EventLayoutChanged, nil)
	return nil
}

// DuplicateImage copies a placed image. The copy shares the source file,
// so no new watch is needed.
func (s *State) DuplicateImage(id string) error {
	if _, err := s.Layout.Duplicate(id); err != nil {
		return err
	}
	s.SetModified(true)
	s.Emit(EventLayoutChanged, nil)
	return nil
}

func (s *State) pathInUse(path string) bool {
	for _, img := range s.Layout.Images {
		if img.Path == path {
			return true
		}
	}
	return false
}

// NewProject discards the current document and starts an empty one using
// the preference defaults.
func (s *State) NewProject() {
	prefs := s.Config.Get()
	s.replaceLayout(newLayoutFromPrefs(prefs))

	s.mu.Lock()
	s.ProjectPath = ""
	s.ProjectName = "Untitled"
	s.Modified = false
	s.createdAt = time.Now().UTC()
	s.mu.Unlock()

	s.Emit(EventProjectLoaded, "")
}

// LoadProject replaces the document with a saved one.
func (s *State) LoadProject(path string) error {
	f, err := project.Load(path)
	if err != nil {
		return err
	}
	s.replaceLayout(f.Layout())

	s.mu.Lock()
	s.ProjectPath = path
	s.ProjectName = f.Name
	s.Modified = false
	s.createdAt = f.CreatedAt
	s.mu.Unlock()

	if err := s.Config.AddRecentFile(path); err != nil {
		log.Printf("app: recent files: %v", err)
	}
	s.Emit(EventProjectLoaded, path)
	return nil
}

// replaceLayout swaps in a new layout, rebinding the interaction machine
// and the file watches.
func (s *State) replaceLayout(lay *scene.Layout) {
	if s.Watcher != nil {
		for _, img := range s.Layout.Images {
			s.Watcher.Unwatch(img.Path)
		}
		for _, img := range lay.Images {
			if err := s.Watcher.Watch(img.Path); err != nil {
				log.Printf("app: watch %s: %v", img.Path, err)
			}
		}
	}
	s.mu.Lock()
	s.Layout = lay
	s.Machine = interact.NewMachine(lay, s.Snapper)
	s.mu.Unlock()
}

// SaveProject writes the document to path, rotating backups.
func (s *State) SaveProject(path string) error {
	s.mu.RLock()
	f := project.Snapshot(s.ProjectName, s.Layout)
	f.CreatedAt = s.createdAt
	s.mu.RUnlock()

	if err := project.Save(path, f); err != nil {
		return err
	}

	s.mu.Lock()
	s.ProjectPath = path
	s.Modified = false
	s.mu.Unlock()

	if s.autoPath != "" {
		project.DeleteAuto(s.autoPath)
	}
	if err := s.Config.AddRecentFile(path); err != nil {
		log.Printf("app: recent files: %v", err)
	}
	s.Emit(EventProjectSaved, path)
	return nil
}

// SetZoom clamps and applies the zoom factor.
func (s *State) SetZoom(zoom float64) {
	if zoom < 0.1 {
		zoom = 0.1
	}
	if zoom > 8 {
		zoom = 8
	}
	s.mu.Lock()
	s.Zoom = zoom
	s.mu.Unlock()
	s.Emit(EventZoomChanged, zoom)
}

// Frame renders the interactive canvas for the current document. The
// compositor works from a snapshot, like Print, so a draw in flight
// never sees a half-applied edit.
func (s *State) Frame() *image.RGBA {
	prefs := s.Config.Get()

	s.mu.RLock()
	snapshot := s.Layout.Clone()
	zoom := s.Zoom
	s.mu.RUnlock()

	opts := render.Options{
		Zoom:           zoom,
		ShowGrid:       prefs.ShowGrid,
		GridSpacingMM:  prefs.GridSpacingMM,
		ShowMargins:    true,
		ShowSelection:  true,
		LowDPIWarnings: prefs.ShowDPIWarnings,
	}
	if box, ok := s.Machine.SelectionBox(); ok {
		opts.SelectionBox = &box
	}
	return render.Frame(snapshot, s.Store, opts)
}

// Print flattens the document at print resolution and submits it to the
// selected printer. The last used settings are remembered.
func (s *State) Print(ctx context.Context, settings printing.Settings) (printing.Job, error) {
	s.mu.RLock()
	snapshot := s.Layout.Clone()
	s.mu.RUnlock()

	composite, err := render.PrintComposite(ctx, snapshot, s.Store, units.PrintDPI)
	if err != nil {
		return printing.Job{}, err
	}
	job, err := s.Printer.PrintImage(ctx, composite, settings)
	if err != nil {
		return printing.Job{}, err
	}

	if err := s.Config.Update(func(p *config.Preferences) {
		p.LastPrint = config.PrintDefaults{
			Printer:   settings.Printer,
			Media:     settings.Media,
			Copies:    settings.Copies,
			FitToPage: settings.FitToPage,
		}
	}); err != nil {
		log.Printf("app: save print settings: %v", err)
	}
	s.Emit(EventPrintSubmitted, job)
	return job, nil
}

// ApplySnapSettings pushes preference changes into the snap engine.
func (s *State) ApplySnapSettings() {
	s.Snapper.SetConfig(snapConfig(s.Config.Get()))
}

// SetPaperSize applies a standard paper size to the page.
func (s *State) SetPaperSize(size paper.Size) {
	s.Layout.Page.SetPaperSize(size)
	s.SetModified(true)
	s.Emit(EventPageChanged, nil)
}

// SetOrientation applies the page orientation.
func (s *State) SetOrientation(o paper.Orientation) {
	s.Layout.Page.SetOrientation(o)
	s.SetModified(true)
	s.Emit(EventPageChanged, nil)
}

// StartAutoSave begins periodic crash-recovery snapshots.
func (s *State) StartAutoSave() {
	prefs := s.Config.Get()
	if !prefs.AutoSaveEnabled || s.autoPath == "" || s.autoSaver != nil {
		return
	}
	interval := time.Duration(prefs.AutoSaveSec) * time.Second
	saver, err := project.NewAutoSaver(interval, func() {
		s.mu.RLock()
		modified := s.Modified
		f := project.Snapshot(s.ProjectName, s.Layout)
		f.CreatedAt = s.createdAt
		s.mu.RUnlock()
		if !modified {
			return
		}
		if err := project.SaveAuto(s.autoPath, f); err != nil {
			log.Printf("app: auto-save: %v", err)
		}
	})
	if err != nil {
		log.Printf("app: auto-save: %v", err)
		return
	}
	s.autoSaver = saver
}

// SaveRecoverySnapshot writes a crash-recovery snapshot immediately,
// regardless of the auto-save schedule. No-op for unmodified documents.
func (s *State) SaveRecoverySnapshot() {
	if s.autoPath == "" {
		return
	}
	s.mu.RLock()
	modified := s.Modified
	f := project.Snapshot(s.ProjectName, s.Layout)
	f.CreatedAt = s.createdAt
	s.mu.RUnlock()
	if !modified {
		return
	}
	if err := project.SaveAuto(s.autoPath, f); err != nil {
		log.Printf("app: recovery snapshot: %v", err)
	}
}

// StopAutoSave halts the snapshot schedule.
func (s *State) StopAutoSave() {
	if s.autoSaver != nil {
		s.autoSaver.Stop()
		s.autoSaver = nil
	}
}

// HasRecovery reports whether a crash-recovery snapshot exists.
func (s *State) HasRecovery() bool {
	return s.autoPath != "" && project.HasAuto(s.autoPath)
}

// LoadRecovery restores the crash-recovery snapshot as an unsaved,
// modified document.
func (s *State) LoadRecovery() error {
	f, err := project.Load(s.autoPath)
	if err != nil {
		return err
	}
	s.replaceLayout(f.Layout())

	s.mu.Lock()
	s.ProjectPath = ""
	s.ProjectName = f.Name
	s.Modified = true
	s.createdAt = f.CreatedAt
	s.mu.Unlock()

	s.Emit(EventProjectLoaded, "")
	return nil
}

// DiscardRecovery deletes the crash-recovery snapshot.
func (s *State) DiscardRecovery() {
	if s.autoPath != "" {
		project.DeleteAuto(s.autoPath)
	}
}

// Close releases background resources and persists the session zoom.
func (s *State) Close() {
	s.StopAutoSave()
	if s.Watcher != nil {
		if err := s.Watcher.Close(); err != nil {
			log.Printf("app: close watcher: %v", err)
		}
	}
	if err := s.Config.Update(func(p *config.Preferences) {
		p.Zoom = s.Zoom
	}); err != nil {
		log.Printf("app: save preferences: %v", err)
	}
}

// SelectionBounds returns the union of the selected images' rotated
// extents, for fitting the view to the selection.
func (s *State) SelectionBounds() (geometry.Rect, bool) {
	sel := s.Layout.SelectedImages()
	if len(sel) == 0 {
		return geometry.Rect{}, false
	}
	var pts []geometry.Point
	for _, img := range sel {
		c := img.RotatedCorners()
		pts = append(pts, c[0], c[1], c[2], c[3])
	}
	return geometry.BoundingBox(pts), true
}
