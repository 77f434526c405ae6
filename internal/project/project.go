// Package project persists layouts as versioned JSON documents, keeps
// rotating backups of overwritten files, and drives periodic auto-save.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"printlayout/internal/scene"
)

// FormatVersion is written into every file; loading rejects documents
// from a newer format.
const FormatVersion = 1

// FileExt is the project file extension.
const FileExt = ".plj"

// maxBackups is how many rotated copies of an overwritten file survive.
const maxBackups = 5

var (
	// ErrVersion means the file was written by a newer format version.
	ErrVersion = errors.New("project: file format is too new")
	// ErrFormat means the file is not a valid project document.
	ErrFormat = errors.New("project: invalid file")
)

// File is the on-disk document.
type File struct {
	Version    int                  `json:"version"`
	Name       string               `json:"name"`
	CreatedAt  time.Time            `json:"created_at"`
	ModifiedAt time.Time            `json:"modified_at"`
	Page       *scene.Page          `json:"page"`
	Images     []*scene.PlacedImage `json:"images"`
}

// Snapshot captures a layout into a document ready to save. The layout
// is deep-copied so later edits do not leak into an in-flight save.
func Snapshot(name string, lay *scene.Layout) *File {
	cp := lay.Clone()
	now := time.Now().UTC()
	return &File{
		Version:    FormatVersion,
		Name:       name,
		CreatedAt:  now,
		ModifiedAt: now,
		Page:       cp.Page,
		Images:     cp.Images,
	}
}

// Layout rebuilds a live layout from the document.
func (f *File) Layout() *scene.Layout {
	return scene.Restore(f.Page.Clone(), cloneImages(f.Images))
}

func cloneImages(in []*scene.PlacedImage) []*scene.PlacedImage {
	out := make([]*scene.PlacedImage, len(in))
	for i, img := range in {
		out[i] = img.Clone()
	}
	return out
}

// Save writes the document atomically, rotating backups of any existing
// file first. The document's modification time is refreshed; CreatedAt
// is left as the caller set it.
func Save(path string, f *File) error {
	f.Version = FormatVersion
	f.ModifiedAt = time.Now().UTC()

	if _, err := os.Stat(path); err == nil {
		rotateBackups(path)
	}
	return writeAtomic(path, f)
}

// rotateBackups shifts path.bak.1 .. path.bak.4 up by one, dropping the
// oldest, then moves the current file to path.bak.1. Rotation failures
// are non-fatal; the save itself still proceeds.
func rotateBackups(path string) {
	os.Remove(backupPath(path, maxBackups))
	for n := maxBackups - 1; n >= 1; n-- {
		os.Rename(backupPath(path, n), backupPath(path, n+1))
	}
	os.Rename(path, backupPath(path, 1))
}

func backupPath(path string, n int) string {
	return fmt.Sprintf("%s.bak.%d", path, n)
}

// Backups lists the existing backups of a project file, newest first.
func Backups(path string) []string {
	var out []string
	for n := 1; n <= maxBackups; n++ {
		p := backupPath(path, n)
		if _, err := os.Stat(p); err == nil {
			out = append(out, p)
		}
	}
	return out
}

func writeAtomic(path string, f *File) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("project: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("project: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("project: write: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("project: rename: %w", err)
	}
	return nil
}

// Load reads and validates a project document.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("project: %w", err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if f.Version > FormatVersion {
		return nil, fmt.Errorf("%w: version %d", ErrVersion, f.Version)
	}
	if f.Page == nil {
		return nil, fmt.Errorf("%w: missing page", ErrFormat)
	}
	return &f, nil
}
