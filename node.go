package sunscope

import "sync/atomic"

// NodeType distinguishes rendering behavior for a Node.
type NodeType uint8

const (
	NodeTypeGroup NodeType = iota // group node with no visual output
	NodeTypeBox                   // axis-aligned box standing on its position (a building mass)
)

// nodeIDCounter hands out node IDs. Nodes may be built on a loader goroutine
// while the viewer renders, so the counter is atomic.
var nodeIDCounter atomic.Uint32

func nextNodeID() uint32 {
	return nodeIDCounter.Add(1)
}

// Node is the scene graph element. A single flat struct is used for all node
// types.
type Node struct {
	// Identity
	ID   uint32
	Name string
	Type NodeType

	// Hierarchy
	Parent   *Node
	children []*Node

	// Position is the local offset from the parent. For boxes it is the
	// center of the footprint at ground level.
	Position Vec3

	// Size is the box extent along X (width), Y (height) and Z (depth).
	Size Vec3

	// Color is the base surface color of a box.
	Color Color

	// Visible nodes and their descendants are rendered.
	Visible bool
	// CastShadow boxes project a shadow onto the ground.
	CastShadow bool

	// UserData is arbitrary caller data.
	UserData any
}

// nodeDefaults sets the common default field values shared by all constructors.
func nodeDefaults(n *Node) {
	n.ID = nextNodeID()
	n.Color = Color{0.85, 0.85, 0.82, 1}
	n.Visible = true
	n.CastShadow = true
}

// NewGroup creates a group node with no visual representation.
func NewGroup(name string) *Node {
	n := &Node{Name: name, Type: NodeTypeGroup}
	nodeDefaults(n)
	return n
}

// NewBox creates a box node of the given width, height and depth whose base
// is centered on the node position.
func NewBox(name string, width, height, depth float64) *Node {
	n := &Node{Name: name, Type: NodeTypeBox}
	nodeDefaults(n)
	n.Size = Vec3{width, height, depth}
	return n
}

// --- Tree manipulation ---

// AddChild appends child to this node's children.
// If child already has a parent, it is removed from that parent first.
// Panics if child is nil or child is an ancestor of this node (cycle).
func (n *Node) AddChild(child *Node) {
	if child == nil {
		panic("sunscope: cannot add nil child")
	}
	if isAncestor(child, n) {
		panic("sunscope: adding child would create a cycle")
	}
	if child.Parent != nil {
		child.Parent.removeChildByPtr(child)
	}
	child.Parent = n
	n.children = append(n.children, child)
}

// RemoveChild detaches child from this node.
// Panics if child.Parent != n.
func (n *Node) RemoveChild(child *Node) {
	if child.Parent != n {
		panic("sunscope: child's parent is not this node")
	}
	n.removeChildByPtr(child)
	child.Parent = nil
}

// RemoveFromParent detaches this node from its parent.
// No-op if this node has no parent.
func (n *Node) RemoveFromParent() {
	if n.Parent == nil {
		return
	}
	n.Parent.RemoveChild(n)
}

// Children returns the child list. The returned slice MUST NOT be mutated by the caller.
func (n *Node) Children() []*Node {
	return n.children
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int {
	return len(n.children)
}

// --- Geometry ---

// WorldPosition returns the node position accumulated through its parents.
func (n *Node) WorldPosition() Vec3 {
	p := n.Position
	for a := n.Parent; a != nil; a = a.Parent {
		p = p.Add(a.Position)
	}
	return p
}

// LocalBounds returns the world-space box of this node alone. Groups and
// zero-sized boxes are empty.
func (n *Node) LocalBounds() Box3 {
	if n.Type != NodeTypeBox || n.Size == (Vec3{}) {
		return emptyBox
	}
	p := n.WorldPosition()
	hw, hd := n.Size.X/2, n.Size.Z/2
	return Box3{
		Min: Vec3{p.X - hw, p.Y, p.Z - hd},
		Max: Vec3{p.X + hw, p.Y + n.Size.Y, p.Z + hd},
	}
}

// WorldBounds returns the world-space box enclosing this node and all of its
// visible descendants.
func (n *Node) WorldBounds() Box3 {
	b := n.LocalBounds()
	for _, c := range n.children {
		if c.Visible {
			b = b.Union(c.WorldBounds())
		}
	}
	return b
}

// corners returns the eight world-space corners of a box node, bottom face
// first (counter-clockwise seen from above), then the top face.
func (n *Node) corners() [8]Vec3 {
	b := n.LocalBounds()
	return [8]Vec3{
		{b.Min.X, b.Min.Y, b.Min.Z},
		{b.Max.X, b.Min.Y, b.Min.Z},
		{b.Max.X, b.Min.Y, b.Max.Z},
		{b.Min.X, b.Min.Y, b.Max.Z},
		{b.Min.X, b.Max.Y, b.Min.Z},
		{b.Max.X, b.Max.Y, b.Min.Z},
		{b.Max.X, b.Max.Y, b.Max.Z},
		{b.Min.X, b.Max.Y, b.Max.Z},
	}
}

// --- Helpers ---

// isAncestor reports whether candidate is an ancestor of node.
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.Parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// removeChildByPtr removes child from n.children without clearing child.Parent.
// Uses copy+nil to avoid retaining a dangling pointer in the backing array.
func (n *Node) removeChildByPtr(child *Node) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			return
		}
	}
}
