package sunscope

// Scene is the top-level object that owns the node tree and the sun light.
//
// A Scene is shared between the interactive viewer and the export pipeline.
// Only the sun mutator writes to it during an export (the light); the node
// tree must not be edited while an export is running.
type Scene struct {
	root *Node

	// Light is the sun. Required for exports.
	Light *DirectionalLight

	// Ambient is the light level applied to surfaces facing away from the
	// sun and to shadowed ground, in [0, 1].
	Ambient float64

	// GroundColor is the color of the unshadowed ground plane.
	GroundColor Color
	// ShadowColor is multiplied into the ground where shadows fall.
	ShadowColor Color
	// GroundSize is the edge length of the square ground plane centered
	// under the scene. Zero sizes it from the building bounds.
	GroundSize float64
}

// Scene defaults.
const (
	DefaultAmbient = 0.35
)

// NewScene creates a scene with an empty root group and a default sun.
func NewScene() *Scene {
	return &Scene{
		root:        NewGroup("root"),
		Light:       NewDirectionalLight(),
		Ambient:     DefaultAmbient,
		GroundColor: Color{R: 0.78, G: 0.8, B: 0.74, A: 1},
		ShadowColor: Color{R: 0.45, G: 0.47, B: 0.55, A: 1},
	}
}

// Root returns the scene's root group node.
func (s *Scene) Root() *Node {
	return s.root
}

// Traverse visits every visible node depth-first, parents before children.
// Returning false from fn skips that node's children.
func (s *Scene) Traverse(fn func(n *Node) bool) {
	var walk func(n *Node)
	walk = func(n *Node) {
		if !n.Visible {
			return
		}
		if !fn(n) {
			return
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(s.root)
}

// Boxes returns every visible box node in traversal order.
func (s *Scene) Boxes() []*Node {
	var out []*Node
	s.Traverse(func(n *Node) bool {
		if n.Type == NodeTypeBox {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Bounds returns the box enclosing every visible node.
func (s *Scene) Bounds() Box3 {
	return s.root.WorldBounds()
}

// Center returns the ground-level center of the scene contents, the point
// the sun light aims at. An empty scene is centered on the origin.
func (s *Scene) Center() Vec3 {
	b := s.Bounds()
	if b.Empty() {
		return Vec3{}
	}
	c := b.Center()
	c.Y = b.Min.Y
	return c
}

// groundExtent returns the half edge length of the ground plane.
func (s *Scene) groundExtent() float64 {
	if s.GroundSize > 0 {
		return s.GroundSize / 2
	}
	b := s.Bounds()
	if b.Empty() {
		return 100
	}
	w := b.Max.X - b.Min.X
	d := b.Max.Z - b.Min.Z
	if d > w {
		w = d
	}
	if b.Max.Y > w {
		w = b.Max.Y
	}
	return w*1.5 + 20
}
