// Package config persists user preferences as JSON in the platform
// config directory. Writes go through a temp file rename so a crash
// never leaves a half-written file behind.
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"printlayout/internal/paper"
)

const (
	appDirName = "printlayout"
	fileName   = "preferences.json"

	// MaxRecentFiles caps the recent-files list.
	MaxRecentFiles = 10

	// DefaultAutoSaveSec is the default auto-save interval.
	DefaultAutoSaveSec = 300
)

// PrintDefaults remembers the last used print settings.
type PrintDefaults struct {
	Printer   string `json:"printer"`
	Media     string `json:"media"`
	Copies    int    `json:"copies"`
	FitToPage bool   `json:"fit_to_page"`
}

// Preferences is everything the application remembers between runs.
type Preferences struct {
	DefaultPaperSize   paper.Size        `json:"default_paper_size"`
	DefaultOrientation paper.Orientation `json:"default_orientation"`
	DefaultMarginMM    float64           `json:"default_margin_mm"`

	Zoom         float64 `json:"zoom"`
	WindowWidth  int     `json:"window_width"`
	WindowHeight int     `json:"window_height"`

	RecentFiles []string `json:"recent_files"`

	AutoSaveEnabled bool `json:"auto_save_enabled"`
	AutoSaveSec     int  `json:"auto_save_interval_sec"`

	ShowDPIWarnings bool    `json:"show_dpi_warnings"`
	ShowGrid        bool    `json:"show_grid"`
	SnapToGrid      bool    `json:"snap_to_grid"`
	GridSpacingMM   float64 `json:"grid_spacing_mm"`

	LastPrint PrintDefaults `json:"last_print"`
}

// Default returns the preferences used on first run.
func Default() Preferences {
	return Preferences{
		DefaultPaperSize:   paper.SizeA4,
		DefaultOrientation: paper.Portrait,
		DefaultMarginMM:    25.4,
		Zoom:               1.0,
		WindowWidth:        1280,
		WindowHeight:       860,
		AutoSaveEnabled:    true,
		AutoSaveSec:        DefaultAutoSaveSec,
		ShowDPIWarnings:    true,
		ShowGrid:           false,
		SnapToGrid:         true,
		GridSpacingMM:      10,
		LastPrint:          PrintDefaults{Copies: 1},
	}
}

// Manager loads and saves one preferences file. Safe for concurrent use.
type Manager struct {
	mu    sync.Mutex
	path  string
	prefs Preferences
}

// NewManager creates a manager rooted in the user config directory.
func NewManager() (*Manager, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("config: no config directory: %w", err)
	}
	dir := filepath.Join(base, appDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return NewManagerAt(filepath.Join(dir, fileName)), nil
}

// NewManagerAt creates a manager over an explicit file path.
func NewManagerAt(path string) *Manager {
	return &Manager{path: path, prefs: Default()}
}

// Path returns the preferences file location.
func (m *Manager) Path() string {
	return m.path
}

// Load reads the preferences file. A missing file yields defaults; a
// corrupt one is logged and replaced by defaults rather than failing
// startup.
func (m *Manager) Load() Preferences {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("config: read %s: %v", m.path, err)
		}
		m.prefs = Default()
		return m.prefs
	}
	prefs := Default()
	if err := json.Unmarshal(data, &prefs); err != nil {
		log.Printf("config: corrupt preferences at %s, using defaults: %v", m.path, err)
		prefs = Default()
	}
	m.prefs = sanitize(prefs)
	return m.prefs
}

// Get returns the current preferences.
func (m *Manager) Get() Preferences {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prefs
}

// Update applies fn to the preferences and saves the result.
func (m *Manager) Update(fn func(*Preferences)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.prefs)
	m.prefs = sanitize(m.prefs)
	return m.saveLocked()
}

// Save writes the current preferences to disk.
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveLocked()
}

func (m *Manager) saveLocked() error {
	data, err := json.MarshalIndent(m.prefs, "", "  ")
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("config: write: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("config: rename: %w", err)
	}
	return nil
}

// AddRecentFile moves the path to the front of the recent list, dropping
// duplicates and trimming to MaxRecentFiles, then saves.
func (m *Manager) AddRecentFile(path string) error {
	return m.Update(func(p *Preferences) {
		recent := make([]string, 0, MaxRecentFiles)
		recent = append(recent, path)
		for _, r := range p.RecentFiles {
			if r == path {
				continue
			}
			recent = append(recent, r)
			if len(recent) == MaxRecentFiles {
				break
			}
		}
		p.RecentFiles = recent
	})
}

// RemoveRecentFile drops a path from the recent list, for entries that
// no longer exist on disk.
func (m *Manager) RemoveRecentFile(path string) error {
	return m.Update(func(p *Preferences) {
		out := p.RecentFiles[:0]
		for _, r := range p.RecentFiles {
			if r != path {
				out = append(out, r)
			}
		}
		p.RecentFiles = out
	})
}

// sanitize clamps loaded values into their valid ranges.
func sanitize(p Preferences) Preferences {
	if p.Zoom <= 0 {
		p.Zoom = 1
	}
	if p.AutoSaveSec <= 0 {
		p.AutoSaveSec = DefaultAutoSaveSec
	}
	if p.GridSpacingMM <= 0 {
		p.GridSpacingMM = 10
	}
	if p.DefaultMarginMM < 0 {
		p.DefaultMarginMM = 25.4
	}
	if p.LastPrint.Copies < 1 {
		p.LastPrint.Copies = 1
	}
	if len(p.RecentFiles) > MaxRecentFiles {
		p.RecentFiles = p.RecentFiles[:MaxRecentFiles]
	}
	return p
}
