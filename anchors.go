package sunscope

import "sync"

// Anchor is a point of interest that gets a screen label, usually a
// building.
type Anchor struct {
	// ID is the unique key. It is also the selection key.
	ID string
	// Name is the label text.
	Name string
	// Base is the ground-level point under the label.
	Base Vec3
	// Height is the building height. Zero means unknown.
	Height float64
	// Priority orders labels when they compete for space; higher wins.
	Priority float64
	// Mesh, when set, places the label on top of the mesh bounds.
	Mesh *Node
}

// anchorEntry is a registered anchor plus its cached mesh top.
type anchorEntry struct {
	Anchor
	top    Vec3
	hasTop bool
}

// AnchorRegistry is the caller-maintained set of labelled anchors. It is
// safe for concurrent use: the viewer may register buildings while the
// declutter pass reads a snapshot.
type AnchorRegistry struct {
	mu      sync.RWMutex
	entries []*anchorEntry
	index   map[string]*anchorEntry
}

// NewAnchorRegistry returns an empty registry.
func NewAnchorRegistry() *AnchorRegistry {
	return &AnchorRegistry{index: make(map[string]*anchorEntry)}
}

// Register adds a, or replaces the anchor with the same ID. A replaced
// anchor keeps its original input order.
func (r *AnchorRegistry) Register(a Anchor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.index[a.ID]; ok {
		e.Anchor = a
		e.cacheTop()
		return
	}
	e := &anchorEntry{Anchor: a}
	e.cacheTop()
	r.entries = append(r.entries, e)
	r.index[a.ID] = e
}

// Remove deletes the anchor with id and reports whether it existed.
func (r *AnchorRegistry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.index[id]
	if !ok {
		return false
	}
	delete(r.index, id)
	for i, x := range r.entries {
		if x == e {
			copy(r.entries[i:], r.entries[i+1:])
			r.entries[len(r.entries)-1] = nil
			r.entries = r.entries[:len(r.entries)-1]
			break
		}
	}
	return true
}

// SetMesh attaches mesh to the anchor with id and caches its bounding-box
// top. It reports whether the anchor exists.
func (r *AnchorRegistry) SetMesh(id string, mesh *Node) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.index[id]
	if !ok {
		return false
	}
	e.Mesh = mesh
	e.cacheTop()
	return true
}

// Invalidate recomputes cached mesh tops, for use after meshes move or
// resize. An empty id refreshes every anchor.
func (r *AnchorRegistry) Invalidate(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id == "" {
		for _, e := range r.entries {
			e.cacheTop()
		}
		return
	}
	if e, ok := r.index[id]; ok {
		e.cacheTop()
	}
}

// Get returns the anchor with id.
func (r *AnchorRegistry) Get(id string) (Anchor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.index[id]
	if !ok {
		return Anchor{}, false
	}
	return e.Anchor, true
}

// Len returns the number of registered anchors.
func (r *AnchorRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// IDs returns the anchor IDs in input order.
func (r *AnchorRegistry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.ID
	}
	return out
}

// snapshot copies the entries in input order.
func (r *AnchorRegistry) snapshot() []anchorEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]anchorEntry, len(r.entries))
	for i, e := range r.entries {
		out[i] = *e
	}
	return out
}

func (e *anchorEntry) cacheTop() {
	e.hasTop = false
	if e.Mesh == nil {
		return
	}
	b := e.Mesh.WorldBounds()
	if b.Empty() {
		return
	}
	c := b.Center()
	e.top = Vec3{c.X, b.Max.Y, c.Z}
	e.hasTop = true
}

// point returns the world position of the label anchor.
func (e *anchorEntry) point(cfg DeclutterConfig) Vec3 {
	if e.hasTop {
		return e.top.Add(Vec3{Y: cfg.LabelOffset})
	}
	h := e.Height
	if h <= 0 {
		h = cfg.NominalHeight
	}
	return e.Base.Add(Vec3{Y: h + cfg.LabelOffset})
}
