package sunscope

import (
	"sort"
	"sync"
	"time"
)

// Label is the screen placement of one anchor after a declutter pass.
type Label struct {
	AnchorID string
	Name     string
	// World is the anchor point the label hangs from.
	World Vec3
	// Screen is the projected anchor point in viewport pixels.
	Screen Vec2
	// Size is the unpadded label box.
	Size     Vec2
	Priority float64
	Selected bool
	Visible  bool
}

// Rect returns the label box: centered horizontally on the anchor with its
// bottom edge on the anchor point.
func (l Label) Rect() Rect {
	return Rect{
		X:      l.Screen.X - l.Size.X/2,
		Y:      l.Screen.Y - l.Size.Y,
		Width:  l.Size.X,
		Height: l.Size.Y,
	}
}

// Declutterer decides which anchor labels are shown for a camera pose.
//
// A pass projects every anchor, drops those behind the camera or outside the
// viewport margin, then walks the rest by priority and hides any label whose
// padded box overlaps one already placed. The selected anchor is placed
// first and is never hidden by overlap.
type Declutterer struct {
	mu       sync.Mutex
	cfg      DeclutterConfig
	registry *AnchorRegistry
	selected string
	last     time.Time
	labels   []Label
}

// NewDeclutterer returns a declutterer over reg.
func NewDeclutterer(cfg DeclutterConfig, reg *AnchorRegistry) *Declutterer {
	if reg == nil {
		reg = NewAnchorRegistry()
	}
	return &Declutterer{cfg: cfg, registry: reg}
}

// Config returns the current settings.
func (d *Declutterer) Config() DeclutterConfig {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

// SetConfig replaces the settings and forces the next Tick to run a pass.
func (d *Declutterer) SetConfig(cfg DeclutterConfig) {
	d.mu.Lock()
	d.cfg = cfg
	d.last = time.Time{}
	d.mu.Unlock()
}

// Registry returns the anchor set.
func (d *Declutterer) Registry() *AnchorRegistry { return d.registry }

// SetSelected marks id as the selected anchor. An empty id clears the
// selection. The next Tick runs a pass regardless of throttling.
func (d *Declutterer) SetSelected(id string) {
	d.mu.Lock()
	d.selected = id
	d.last = time.Time{}
	d.mu.Unlock()
}

// Selected returns the selected anchor ID.
func (d *Declutterer) Selected() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.selected
}

// Labels returns the result of the last pass.
func (d *Declutterer) Labels() []Label {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Label(nil), d.labels...)
}

// Tick runs a pass when at least 1/MaxUpdatesPerSecond has elapsed since
// the previous one and reports whether it did. Otherwise it returns the
// cached labels.
func (d *Declutterer) Tick(now time.Time, cam *Camera) ([]Label, bool) {
	d.mu.Lock()
	if !d.last.IsZero() && d.cfg.MaxUpdatesPerSecond > 0 {
		interval := time.Duration(float64(time.Second) / d.cfg.MaxUpdatesPerSecond)
		// A millisecond of slack keeps 60Hz ticks from skipping a 30Hz slot.
		// A clock that stepped back counts as due.
		if elapsed := now.Sub(d.last); elapsed >= 0 && elapsed < interval-time.Millisecond {
			out := append([]Label(nil), d.labels...)
			d.mu.Unlock()
			return out, false
		}
	}
	d.last = now
	d.mu.Unlock()
	return d.Update(cam), true
}

// Update runs a pass immediately and caches the result. Labels come back
// in placement order: selected first, then by descending priority, ties in
// input order. Only labels that survived culling are returned.
func (d *Declutterer) Update(cam *Camera) []Label {
	d.mu.Lock()
	cfg := d.cfg
	selected := d.selected
	d.mu.Unlock()

	labels := declutter(cfg, d.registry.snapshot(), selected, cam)

	d.mu.Lock()
	d.labels = labels
	d.mu.Unlock()
	return append([]Label(nil), labels...)
}

func declutter(cfg DeclutterConfig, entries []anchorEntry, selected string, cam *Camera) []Label {
	if cam == nil {
		return nil
	}
	dist := cam.Position.Len()
	if dist < cfg.MinZoomDistance || dist > cfg.MaxZoomDistance {
		return nil
	}

	entries = boundAnchors(entries, selected, cfg.MaxAnchors)

	vp := cam.ViewProjection()
	view := cam.Viewport
	bounds := view.Inset(cfg.ViewportMargin)
	size := Vec2{X: cfg.LabelWidth, Y: cfg.LabelHeight}

	labels := make([]Label, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		world := e.point(cfg)
		ndc := vp.TransformPoint(world)
		if ndc.Z > 1 {
			continue
		}
		screen := NDCToScreen(ndc, view.Width, view.Height)
		screen.X += view.X
		screen.Y += view.Y
		if !bounds.Contains(screen.X, screen.Y) {
			continue
		}
		labels = append(labels, Label{
			AnchorID: e.ID,
			Name:     e.Name,
			World:    world,
			Screen:   screen,
			Size:     size,
			Priority: e.Priority,
			Selected: selected != "" && e.ID == selected,
		})
	}

	sort.SliceStable(labels, func(i, j int) bool {
		if labels[i].Selected != labels[j].Selected {
			return labels[i].Selected
		}
		return labels[i].Priority > labels[j].Priority
	})

	if !cfg.Enabled {
		for i := range labels {
			labels[i].Visible = true
		}
		return labels
	}

	placed := make([]Rect, 0, len(labels))
	for i := range labels {
		r := labels[i].Rect().Inset(cfg.LabelPadding)
		if !labels[i].Selected && overlapsAny(r, placed) {
			continue
		}
		labels[i].Visible = true
		placed = append(placed, r)
	}
	return labels
}

// boundAnchors keeps at most limit anchors: the selected one plus the
// highest priorities. Input order is preserved.
func boundAnchors(entries []anchorEntry, selected string, limit int) []anchorEntry {
	if limit <= 0 || len(entries) <= limit {
		return entries
	}
	idx := make([]int, len(entries))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ea, eb := &entries[idx[a]], &entries[idx[b]]
		if (ea.ID == selected) != (eb.ID == selected) {
			return ea.ID == selected
		}
		return ea.Priority > eb.Priority
	})
	keep := make([]bool, len(entries))
	for _, i := range idx[:limit] {
		keep[i] = true
	}
	out := make([]anchorEntry, 0, limit)
	for i, e := range entries {
		if keep[i] {
			out = append(out, e)
		}
	}
	return out
}

func overlapsAny(r Rect, placed []Rect) bool {
	for _, p := range placed {
		if r.Intersects(p) {
			return true
		}
	}
	return false
}
