// Package snap adjusts proposed drag geometry toward nearby alignment
// targets: grid lines, sibling image edges and centers, the page center,
// and margin boundaries.
package snap

import (
	"math"

	"printlayout/internal/scene"
	"printlayout/internal/units"
	"printlayout/pkg/geometry"
)

// Kind identifies a snap target category. Lower values win ties at equal
// distance: grid over siblings over page center over margins.
type Kind int

const (
	KindGrid Kind = iota
	KindSibling
	KindPageCenter
	KindMargin
	KindNone
)

// DefaultThresholdPx is the screen-space catch radius. It is divided by
// the zoom-dependent DPI so the on-screen radius stays constant.
const DefaultThresholdPx = 6.0

// Config enables individual target categories.
type Config struct {
	GridEnabled   bool
	GridSpacingMM float64
	Siblings      bool
	PageCenter    bool
	Margins       bool
	ThresholdPx   float64
}

// DefaultConfig snaps to everything with a 10mm grid.
func DefaultConfig() Config {
	return Config{
		GridEnabled:   true,
		GridSpacingMM: 10,
		Siblings:      true,
		PageCenter:    true,
		Margins:       true,
		ThresholdPx:   DefaultThresholdPx,
	}
}

// Engine computes snap adjustments against a layout.
type Engine struct {
	cfg Config
}

// New creates an engine.
func New(cfg Config) *Engine {
	if cfg.ThresholdPx <= 0 {
		cfg.ThresholdPx = DefaultThresholdPx
	}
	return &Engine{cfg: cfg}
}

// SetConfig replaces the engine configuration.
func (e *Engine) SetConfig(cfg Config) {
	if cfg.ThresholdPx <= 0 {
		cfg.ThresholdPx = DefaultThresholdPx
	}
	e.cfg = cfg
}

// Config returns the current configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// candidate is a snap line on one axis.
type candidate struct {
	value float64
	kind  Kind
}

// Result is an adjusted rectangle plus the guides that were matched, for
// optional on-canvas feedback.
type Result struct {
	Rect     geometry.Rect
	SnappedX bool
	SnappedY bool
	GuideX   float64
	GuideY   float64
	KindX    Kind
	KindY    Kind
}

// AdjustMove snaps a rectangle being moved. Edges and center on each axis
// are tested against the candidate lines; the nearest within the
// threshold wins and the whole rectangle is shifted by the difference.
// exclude lists image ids that must not contribute sibling candidates
// (the dragged images themselves).
func (e *Engine) AdjustMove(proposed geometry.Rect, lay *scene.Layout, exclude map[string]bool, zoom float64) Result {
	thresholdMM := e.thresholdMM(zoom)
	xCands, yCands := e.collect(lay, exclude)

	res := Result{Rect: proposed, KindX: KindNone, KindY: KindNone}

	xProbes := []float64{proposed.X, proposed.X + proposed.Width/2, proposed.X + proposed.Width}
	if delta, guide, kind, ok := e.best(xProbes, xCands, thresholdMM); ok {
		res.Rect.X += delta
		res.SnappedX = true
		res.GuideX = guide
		res.KindX = kind
	}
	yProbes := []float64{proposed.Y, proposed.Y + proposed.Height/2, proposed.Y + proposed.Height}
	if delta, guide, kind, ok := e.best(yProbes, yCands, thresholdMM); ok {
		res.Rect.Y += delta
		res.SnappedY = true
		res.GuideY = guide
		res.KindY = kind
	}
	return res
}

// Edges selects which rectangle edges a resize is moving.
type Edges struct {
	Left, Right, Top, Bottom bool
}

// AdjustResize snaps only the moving edges of a resize, growing or
// shrinking the rectangle rather than shifting it.
func (e *Engine) AdjustResize(proposed geometry.Rect, moving Edges, lay *scene.Layout, exclude map[string]bool, zoom float64) Result {
	thresholdMM := e.thresholdMM(zoom)
	xCands, yCands := e.collect(lay, exclude)

	res := Result{Rect: proposed, KindX: KindNone, KindY: KindNone}

	if moving.Left {
		if delta, guide, kind, ok := e.best([]float64{proposed.X}, xCands, thresholdMM); ok {
			res.Rect.X += delta
			res.Rect.Width -= delta
			res.SnappedX, res.GuideX, res.KindX = true, guide, kind
		}
	} else if moving.Right {
		right := proposed.X + proposed.Width
		if delta, guide, kind, ok := e.best([]float64{right}, xCands, thresholdMM); ok {
			res.Rect.Width += delta
			res.SnappedX, res.GuideX, res.KindX = true, guide, kind
		}
	}
	if moving.Top {
		if delta, guide, kind, ok := e.best([]float64{proposed.Y}, yCands, thresholdMM); ok {
			res.Rect.Y += delta
			res.Rect.Height -= delta
			res.SnappedY, res.GuideY, res.KindY = true, guide, kind
		}
	} else if moving.Bottom {
		bottom := proposed.Y + proposed.Height
		if delta, guide, kind, ok := e.best([]float64{bottom}, yCands, thresholdMM); ok {
			res.Rect.Height += delta
			res.SnappedY, res.GuideY, res.KindY = true, guide, kind
		}
	}
	return res
}

func (e *Engine) thresholdMM(zoom float64) float64 {
	if zoom <= 0 {
		zoom = 1
	}
	return units.ToMM(e.cfg.ThresholdPx, units.ZoomDPI(zoom))
}

// collect gathers candidate lines for both axes. Grid candidates are
// generated on demand in best; only line targets are collected here.
func (e *Engine) collect(lay *scene.Layout, exclude map[string]bool) (xCands, yCands []candidate) {
	page := lay.Page

	if e.cfg.Siblings {
		for _, img := range lay.Images {
			if exclude[img.ID] || !img.Visible {
				continue
			}
			b := img.Bounds()
			xCands = append(xCands,
				candidate{b.X, KindSibling},
				candidate{b.X + b.Width/2, KindSibling},
				candidate{b.X + b.Width, KindSibling})
			yCands = append(yCands,
				candidate{b.Y, KindSibling},
				candidate{b.Y + b.Height/2, KindSibling},
				candidate{b.Y + b.Height, KindSibling})
		}
	}
	if e.cfg.PageCenter {
		xCands = append(xCands, candidate{page.WidthMM / 2, KindPageCenter})
		yCands = append(yCands, candidate{page.HeightMM / 2, KindPageCenter})
	}
	if e.cfg.Margins {
		printable := page.PrintableArea()
		xCands = append(xCands,
			candidate{printable.X, KindMargin},
			candidate{printable.X + printable.Width, KindMargin})
		yCands = append(yCands,
			candidate{printable.Y, KindMargin},
			candidate{printable.Y + printable.Height, KindMargin})
	}
	return xCands, yCands
}

// best finds the snap with the smallest distance between any probe value
// and any candidate within the threshold. Ties at equal distance are
// broken by kind priority. Returns the delta to add to the probe set.
func (e *Engine) best(probes []float64, cands []candidate, thresholdMM float64) (delta, guide float64, kind Kind, ok bool) {
	bestDist := math.Inf(1)
	kind = KindNone

	consider := func(probe float64, c candidate) {
		d := math.Abs(c.value - probe)
		if d > thresholdMM {
			return
		}
		if d < bestDist-1e-9 || (math.Abs(d-bestDist) <= 1e-9 && c.kind < kind) {
			bestDist = d
			delta = c.value - probe
			guide = c.value
			kind = c.kind
			ok = true
		}
	}

	for _, probe := range probes {
		if e.cfg.GridEnabled && e.cfg.GridSpacingMM > 0 {
			nearest := math.Round(probe/e.cfg.GridSpacingMM) * e.cfg.GridSpacingMM
			consider(probe, candidate{nearest, KindGrid})
		}
		for _, c := range cands {
			consider(probe, c)
		}
	}
	return delta, guide, kind, ok
}
