package sunscope

import "testing"

func TestNewSceneDefaults(t *testing.T) {
	s := NewScene()
	if s.Root() == nil {
		t.Fatal("Root is nil")
	}
	if s.Light == nil {
		t.Fatal("Light is nil")
	}
	if s.Ambient != DefaultAmbient {
		t.Errorf("Ambient = %v, want %v", s.Ambient, DefaultAmbient)
	}
	if c := s.Center(); c != (Vec3{}) {
		t.Errorf("empty scene Center = %v, want origin", c)
	}
}

func TestSceneCenterAtGround(t *testing.T) {
	s := NewScene()
	a := NewBox("a", 10, 80, 10)
	a.Position = Vec3{X: -20}
	b := NewBox("b", 10, 20, 10)
	b.Position = Vec3{X: 20, Z: 10}
	s.Root().AddChild(a)
	s.Root().AddChild(b)

	c := s.Center()
	if c != (Vec3{0, 0, 5}) {
		t.Errorf("Center = %v, want (0, 0, 5)", c)
	}
}

func TestSceneBoxesSkipsHiddenSubtrees(t *testing.T) {
	s := NewScene()
	visible := NewBox("visible", 1, 1, 1)
	group := NewGroup("group")
	group.Visible = false
	group.AddChild(NewBox("inside-hidden", 1, 1, 1))
	s.Root().AddChild(visible)
	s.Root().AddChild(group)

	boxes := s.Boxes()
	if len(boxes) != 1 || boxes[0] != visible {
		t.Errorf("Boxes = %v, want only the visible box", boxes)
	}
}

func TestSceneTraversePrune(t *testing.T) {
	s := NewScene()
	g := NewGroup("g")
	g.AddChild(NewBox("child", 1, 1, 1))
	s.Root().AddChild(g)

	var names []string
	s.Traverse(func(n *Node) bool {
		names = append(names, n.Name)
		return n != g
	})
	want := []string{"root", "g"}
	if len(names) != len(want) {
		t.Fatalf("visited %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("visited[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestGroundExtent(t *testing.T) {
	s := NewScene()
	if got := s.groundExtent(); got != 100 {
		t.Errorf("empty groundExtent = %v, want 100", got)
	}
	s.GroundSize = 300
	if got := s.groundExtent(); got != 150 {
		t.Errorf("groundExtent with GroundSize = %v, want 150", got)
	}
}
