package sunscope

import "testing"

func TestNewBoxDefaults(t *testing.T) {
	n := NewBox("tower", 10, 40, 20)
	if n.ID == 0 {
		t.Error("ID should be non-zero")
	}
	if n.Type != NodeTypeBox {
		t.Errorf("Type = %d, want NodeTypeBox", n.Type)
	}
	if !n.Visible || !n.CastShadow {
		t.Errorf("Visible = %v, CastShadow = %v, want both true", n.Visible, n.CastShadow)
	}
	if n.Size != (Vec3{10, 40, 20}) {
		t.Errorf("Size = %v", n.Size)
	}
}

func TestNodeIDsUnique(t *testing.T) {
	a, b := NewGroup("a"), NewGroup("b")
	if a.ID == b.ID {
		t.Errorf("IDs collide: %d", a.ID)
	}
}

func TestAddChildReparents(t *testing.T) {
	p1, p2 := NewGroup("p1"), NewGroup("p2")
	c := NewBox("c", 1, 1, 1)
	p1.AddChild(c)
	p2.AddChild(c)
	if c.Parent != p2 {
		t.Error("child not moved to p2")
	}
	if p1.NumChildren() != 0 {
		t.Errorf("p1 still has %d children", p1.NumChildren())
	}
	if p2.NumChildren() != 1 {
		t.Errorf("p2 has %d children, want 1", p2.NumChildren())
	}
}

func TestAddChildPanics(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic")
			}
		}()
		NewGroup("g").AddChild(nil)
	})
	t.Run("cycle", func(t *testing.T) {
		a := NewGroup("a")
		b := NewGroup("b")
		a.AddChild(b)
		defer func() {
			if recover() == nil {
				t.Error("expected panic")
			}
		}()
		b.AddChild(a)
	})
}

func TestRemoveFromParent(t *testing.T) {
	p := NewGroup("p")
	c := NewBox("c", 1, 1, 1)
	p.AddChild(c)
	c.RemoveFromParent()
	if c.Parent != nil || p.NumChildren() != 0 {
		t.Errorf("Parent = %v, children = %d", c.Parent, p.NumChildren())
	}
	c.RemoveFromParent() // no-op
}

func TestLocalBoundsBaseCentered(t *testing.T) {
	n := NewBox("b", 10, 30, 6)
	n.Position = Vec3{5, 2, -5}
	got := n.LocalBounds()
	want := Box3{Min: Vec3{0, 2, -8}, Max: Vec3{10, 32, -2}}
	if got != want {
		t.Errorf("LocalBounds = %v, want %v", got, want)
	}
	if !NewGroup("g").LocalBounds().Empty() {
		t.Error("group bounds should be empty")
	}
}

func TestWorldBoundsFollowsParentAndVisibility(t *testing.T) {
	g := NewGroup("g")
	g.Position = Vec3{X: 100}
	a := NewBox("a", 2, 2, 2)
	hidden := NewBox("hidden", 50, 50, 50)
	hidden.Visible = false
	g.AddChild(a)
	g.AddChild(hidden)

	b := g.WorldBounds()
	want := Box3{Min: Vec3{99, 0, -1}, Max: Vec3{101, 2, 1}}
	if b != want {
		t.Errorf("WorldBounds = %v, want %v", b, want)
	}
}
