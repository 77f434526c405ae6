package project

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
)

const autoSaveName = "autosave" + FileExt

// AutoSavePath returns the crash-recovery file location in the user
// config directory.
func AutoSavePath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("project: no config directory: %w", err)
	}
	return filepath.Join(base, "printlayout", autoSaveName), nil
}

// SaveAuto writes the crash-recovery snapshot. Unlike Save it keeps no
// backups; the file is overwritten in place on every tick.
func SaveAuto(path string, f *File) error {
	f.Version = FormatVersion
	f.ModifiedAt = time.Now().UTC()
	return writeAtomic(path, f)
}

// HasAuto reports whether a recovery snapshot exists.
func HasAuto(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// DeleteAuto removes the recovery snapshot after a clean save or exit.
func DeleteAuto(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("project: remove %s: %v", path, err)
	}
}

// AutoSaver runs a snapshot function on a fixed interval.
type AutoSaver struct {
	c *cron.Cron
}

// NewAutoSaver schedules snapshot every interval. The function runs on
// the scheduler goroutine; it must take its own locks.
func NewAutoSaver(interval time.Duration, snapshot func()) (*AutoSaver, error) {
	if interval < time.Second {
		interval = time.Second
	}
	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", interval), snapshot); err != nil {
		return nil, fmt.Errorf("project: schedule auto-save: %w", err)
	}
	c.Start()
	return &AutoSaver{c: c}, nil
}

// Stop halts the schedule and waits for a running snapshot to finish.
func (a *AutoSaver) Stop() {
	ctx := a.c.Stop()
	<-ctx.Done()
}
