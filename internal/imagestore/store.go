package imagestore

import (
	"image"
	"os"
	"sync"
	"time"
)

// Default limits. The budget covers both cache tiers together.
const (
	DefaultBudgetBytes    = 500 << 20 // 500 MB
	DefaultMaxSourceBytes = 256 << 20 // per-source decoded ceiling
)

// Config bounds the store.
type Config struct {
	BudgetBytes    int64
	MaxSourceBytes int64
}

// Source is a decoded source image plus the metadata used for
// invalidation.
type Source struct {
	Image  image.Image
	Width  int
	Height int

	path    string
	modTime time.Time
}

// TransformKey identifies one rendered variant of a source image. Two
// requests with equal keys are served the same cached bitmap.
type TransformKey struct {
	Path        string
	WidthPx     int
	HeightPx    int
	RotationDeg float64
	FlipH       bool
	FlipV       bool
	Opacity     float64
}

type sourceEntry struct {
	src   *Source
	bytes int64
	stamp uint64
	pins  int
}

type transformEntry struct {
	img   *image.RGBA
	bytes int64
	stamp uint64
	pins  int
}

// Store is the two-tier cache. It is safe for concurrent use: lookups of
// resident entries take a read lock, while insert, eviction, and
// invalidation are serialized behind the write lock. Entries pinned by an
// active Lease are never evicted.
type Store struct {
	mu         sync.RWMutex
	cfg        Config
	sources    map[string]*sourceEntry
	transforms map[TransformKey]*transformEntry
	used       int64
	clock      uint64
}

// New creates a store, applying defaults for zero config values.
func New(cfg Config) *Store {
	if cfg.BudgetBytes <= 0 {
		cfg.BudgetBytes = DefaultBudgetBytes
	}
	if cfg.MaxSourceBytes <= 0 {
		cfg.MaxSourceBytes = DefaultMaxSourceBytes
	}
	return &Store{
		cfg:        cfg,
		sources:    make(map[string]*sourceEntry),
		transforms: make(map[TransformKey]*transformEntry),
	}
}

// UsedBytes returns the current resident size of both tiers.
func (s *Store) UsedBytes() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.used
}

func (s *Store) tick() uint64 {
	s.clock++
	return s.clock
}

// Dimensions returns a source's native pixel size, decoding it on first
// access.
func (s *Store) Dimensions(path string) (width, height int, err error) {
	src, err := s.getSource(path, nil)
	if err != nil {
		return 0, 0, err
	}
	return src.Width, src.Height, nil
}

// getSource returns the decoded source for path, decoding and caching on
// miss. A cached entry is invalidated when the file's mtime has changed.
// When lease is non-nil the entry is pinned until the lease is released.
func (s *Store) getSource(path string, lease *Lease) (*Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if e, ok := s.sources[path]; ok {
		if e.src.modTime.Equal(info.ModTime()) {
			e.stamp = s.tick()
			if lease != nil {
				e.pins++
				lease.sources = append(lease.sources, path)
			}
			src := e.src
			s.mu.Unlock()
			return src, nil
		}
		s.removeSourceLocked(path)
	}
	s.mu.Unlock()

	// Decode outside the lock; only a fully decoded entry is inserted, so
	// concurrent readers never observe a partial one.
	img, err := decodeFile(path, s.cfg.MaxSourceBytes)
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	src := &Source{
		Image:   img,
		Width:   bounds.Dx(),
		Height:  bounds.Dy(),
		path:    path,
		modTime: info.ModTime(),
	}
	cost := pixelBytes(src.Width, src.Height)

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.sources[path]; ok {
		// Another goroutine decoded it first; use theirs.
		e.stamp = s.tick()
		if lease != nil {
			e.pins++
			lease.sources = append(lease.sources, path)
		}
		return e.src, nil
	}
	e := &sourceEntry{src: src, bytes: cost, stamp: s.tick()}
	if lease != nil {
		e.pins++
		lease.sources = append(lease.sources, path)
	}
	s.sources[path] = e
	s.used += cost
	s.evictLocked()
	return src, nil
}

// Invalidate drops the source entry and every derived transform entry for
// a path. Used when the file is replaced, removed, or changes on disk.
func (s *Store) Invalidate(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeSourceLocked(path)
	for key, e := range s.transforms {
		if key.Path == path {
			s.used -= e.bytes
			delete(s.transforms, key)
		}
	}
}

func (s *Store) removeSourceLocked(path string) {
	if e, ok := s.sources[path]; ok {
		s.used -= e.bytes
		delete(s.sources, path)
	}
}

// evictLocked removes least-recently-used unpinned entries from both
// tiers until the store is within budget. Pinned entries are skipped; if
// only pinned entries remain the store stays temporarily over budget
// rather than breaking an in-flight render.
func (s *Store) evictLocked() {
	for s.used > s.cfg.BudgetBytes {
		var (
			oldestStamp uint64
			srcPath     string
			trKey       TransformKey
			haveSrc     bool
			haveTr      bool
		)
		for path, e := range s.sources {
			if e.pins > 0 {
				continue
			}
			if !haveSrc && !haveTr || e.stamp < oldestStamp {
				oldestStamp = e.stamp
				srcPath = path
				haveSrc = true
				haveTr = false
			}
		}
		for key, e := range s.transforms {
			if e.pins > 0 {
				continue
			}
			if !haveSrc && !haveTr || e.stamp < oldestStamp {
				oldestStamp = e.stamp
				trKey = key
				haveTr = true
				haveSrc = false
			}
		}
		switch {
		case haveTr:
			s.used -= s.transforms[trKey].bytes
			delete(s.transforms, trKey)
		case haveSrc:
			s.removeSourceLocked(srcPath)
		default:
			return // everything left is pinned
		}
	}
}

// Lease pins the cache entries touched through it for the duration of a
// render, guaranteeing they are not evicted mid-frame. Callers must
// Release it when the render completes.
type Lease struct {
	store    *Store
	sources  []string
	keys     []TransformKey
	released bool
}

// Lease begins a render lease.
func (s *Store) Lease() *Lease {
	return &Lease{store: s}
}

// Source returns the decoded source image for path, pinned until release.
func (le *Lease) Source(path string) (*Source, error) {
	return le.store.getSource(path, le)
}

// Transformed returns the cached bitmap for key, invoking compute to
// produce it on miss. A computed bitmap that cannot fit the budget even
// after eviction is returned uncached rather than failing the render.
func (le *Lease) Transformed(key TransformKey, compute func() (*image.RGBA, error)) (*image.RGBA, error) {
	s := le.store

	s.mu.Lock()
	if e, ok := s.transforms[key]; ok {
		e.stamp = s.tick()
		e.pins++
		le.keys = append(le.keys, key)
		img := e.img
		s.mu.Unlock()
		return img, nil
	}
	s.mu.Unlock()

	img, err := compute()
	if err != nil {
		return nil, err
	}
	cost := int64(len(img.Pix))

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.transforms[key]; ok {
		e.stamp = s.tick()
		e.pins++
		le.keys = append(le.keys, key)
		return e.img, nil
	}
	if cost > s.cfg.BudgetBytes {
		// Larger than the whole budget; serve it directly.
		return img, nil
	}
	e := &transformEntry{img: img, bytes: cost, stamp: s.tick(), pins: 1}
	le.keys = append(le.keys, key)
	s.transforms[key] = e
	s.used += cost
	s.evictLocked()
	return img, nil
}

// Release unpins every entry the lease touched. Safe to call once.
func (le *Lease) Release() {
	if le.released {
		return
	}
	le.released = true

	s := le.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, path := range le.sources {
		if e, ok := s.sources[path]; ok && e.pins > 0 {
			e.pins--
		}
	}
	for _, key := range le.keys {
		if e, ok := s.transforms[key]; ok && e.pins > 0 {
			e.pins--
		}
	}
	s.evictLocked()
}
