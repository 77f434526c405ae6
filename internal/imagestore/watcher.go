package imagestore

import (
	"log"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher invalidates cache entries when their source files change on
// disk. Directories are watched rather than files so replace-by-rename
// (the common save pattern of image editors) is still observed.
type Watcher struct {
	store *Store
	fsw   *fsnotify.Watcher

	mu      sync.Mutex
	files   map[string]bool // watched file paths (absolute)
	dirRefs map[string]int  // watched dirs with file refcounts

	onInvalidate func(path string)
	done         chan struct{}
}

// NewWatcher starts a watcher for the store. onInvalidate, if non-nil, is
// called after each invalidation (e.g. to refresh the canvas); it runs on
// the watcher goroutine.
func NewWatcher(store *Store, onInvalidate func(path string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		store:        store,
		fsw:          fsw,
		files:        make(map[string]bool),
		dirRefs:      make(map[string]int),
		onInvalidate: onInvalidate,
		done:         make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Watch registers a source file for change tracking.
func (w *Watcher) Watch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.files[abs] {
		return nil
	}
	dir := filepath.Dir(abs)
	if w.dirRefs[dir] == 0 {
		if err := w.fsw.Add(dir); err != nil {
			return err
		}
	}
	w.files[abs] = true
	w.dirRefs[dir]++
	return nil
}

// Unwatch stops tracking a source file.
func (w *Watcher) Unwatch(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.files[abs] {
		return
	}
	delete(w.files, abs)
	dir := filepath.Dir(abs)
	w.dirRefs[dir]--
	if w.dirRefs[dir] <= 0 {
		delete(w.dirRefs, dir)
		if err := w.fsw.Remove(dir); err != nil {
			log.Printf("imagestore watcher: remove %s: %v", dir, err)
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			w.mu.Lock()
			watched := w.files[abs]
			w.mu.Unlock()
			if !watched {
				continue
			}
			log.Printf("imagestore watcher: %s changed, invalidating", abs)
			w.store.Invalidate(abs)
			if w.onInvalidate != nil {
				w.onInvalidate(abs)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("imagestore watcher: %v", err)
		case <-w.done:
			return
		}
	}
}
