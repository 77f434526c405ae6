package app

import (
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// Reloader watches the running binary and reports when a newer build
// appears, so a development session can restart into it without losing
// the document being edited.
type Reloader struct {
	execPath string
	baseline time.Time
	interval time.Duration
	stopCh   chan struct{}

	onUpgrade func()
}

// NewReloader creates a reloader for the current executable. Returns nil
// when the executable path cannot be resolved.
func NewReloader(interval time.Duration) *Reloader {
	execPath, err := os.Executable()
	if err != nil {
		return nil
	}
	// go build writes a new file while a stale symlink may still point
	// at the old one.
	if real, err := filepath.EvalSymlinks(execPath); err == nil {
		execPath = real
	}
	info, err := os.Stat(execPath)
	if err != nil {
		return nil
	}
	return &Reloader{
		execPath: execPath,
		baseline: info.ModTime(),
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// OnUpgrade sets the callback invoked when a newer binary is detected.
// It runs on a background goroutine.
func (r *Reloader) OnUpgrade(callback func()) {
	r.onUpgrade = callback
}

// Start begins watching in a background goroutine.
func (r *Reloader) Start() {
	r.stopCh = make(chan struct{})
	go r.watchLoop()
}

// Stop halts the watcher.
func (r *Reloader) Stop() {
	close(r.stopCh)
}

// ExecPath returns the watched executable path.
func (r *Reloader) ExecPath() string {
	return r.execPath
}

// ResetBaseline accepts the current binary as the reference version.
// Call when the user declines a restart, so the prompt does not repeat.
func (r *Reloader) ResetBaseline() {
	if info, err := os.Stat(r.execPath); err == nil {
		r.baseline = info.ModTime()
	}
}

func (r *Reloader) watchLoop() {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			if r.upgraded() && r.onUpgrade != nil {
				// Fire once; the callback decides whether to
				// restart or reset the baseline and Start again.
				r.onUpgrade()
				return
			}
		}
	}
}

func (r *Reloader) upgraded() bool {
	info, err := os.Stat(r.execPath)
	if err != nil {
		return false
	}
	return info.ModTime().After(r.baseline)
}

// Restart replaces the current process with the new binary, keeping
// arguments and environment. Does not return on success.
func (r *Reloader) Restart() error {
	return syscall.Exec(r.execPath, os.Args, os.Environ())
}
