package sunscope

import "testing"

func TestAnchorRegistryOrderAndReplace(t *testing.T) {
	r := NewAnchorRegistry()
	r.Register(Anchor{ID: "a", Name: "A"})
	r.Register(Anchor{ID: "b", Name: "B"})
	r.Register(Anchor{ID: "c", Name: "C"})
	r.Register(Anchor{ID: "a", Name: "A2", Priority: 5})

	ids := r.IDs()
	want := []string{"a", "b", "c"}
	if len(ids) != len(want) {
		t.Fatalf("IDs = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("IDs[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
	a, ok := r.Get("a")
	if !ok || a.Name != "A2" || a.Priority != 5 {
		t.Errorf("Get(a) = %+v, %v; want the replacement", a, ok)
	}
}

func TestAnchorRegistryRemove(t *testing.T) {
	r := NewAnchorRegistry()
	r.Register(Anchor{ID: "a"})
	r.Register(Anchor{ID: "b"})
	if !r.Remove("a") {
		t.Error("Remove(a) = false")
	}
	if r.Remove("a") {
		t.Error("second Remove(a) = true")
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
	if _, ok := r.Get("a"); ok {
		t.Error("removed anchor still present")
	}
}

func TestAnchorPointFromMesh(t *testing.T) {
	cfg := DefaultDeclutterConfig()
	box := NewBox("tower", 10, 40, 10)
	box.Position = Vec3{X: 20, Z: -5}

	r := NewAnchorRegistry()
	r.Register(Anchor{ID: "t", Base: Vec3{X: 20, Z: -5}, Height: 5, Mesh: box})
	e := r.snapshot()[0]
	want := Vec3{20, 40 + cfg.LabelOffset, -5}
	if got := e.point(cfg); got != want {
		t.Errorf("point = %v, want mesh top %v", got, want)
	}

	// The cached top only moves on Invalidate.
	box.Size.Y = 60
	if got := r.snapshot()[0].point(cfg); got != want {
		t.Errorf("point before Invalidate = %v, want cached %v", got, want)
	}
	r.Invalidate("t")
	want.Y = 60 + cfg.LabelOffset
	if got := r.snapshot()[0].point(cfg); got != want {
		t.Errorf("point after Invalidate = %v, want %v", got, want)
	}
}

func TestAnchorPointWithoutMesh(t *testing.T) {
	cfg := DefaultDeclutterConfig()
	r := NewAnchorRegistry()
	r.Register(Anchor{ID: "h", Base: Vec3{X: 1, Z: 2}, Height: 25})
	r.Register(Anchor{ID: "n", Base: Vec3{X: 3, Z: 4}})
	s := r.snapshot()
	if got := s[0].point(cfg); got != (Vec3{1, 25 + cfg.LabelOffset, 2}) {
		t.Errorf("with height: %v", got)
	}
	if got := s[1].point(cfg); got != (Vec3{3, cfg.NominalHeight + cfg.LabelOffset, 4}) {
		t.Errorf("nominal height: %v", got)
	}
}

func TestAnchorSetMesh(t *testing.T) {
	r := NewAnchorRegistry()
	if r.SetMesh("missing", NewBox("b", 1, 1, 1)) {
		t.Error("SetMesh on unknown id = true")
	}
	r.Register(Anchor{ID: "a"})
	box := NewBox("b", 4, 12, 4)
	if !r.SetMesh("a", box) {
		t.Fatal("SetMesh = false")
	}
	e := r.snapshot()[0]
	if !e.hasTop || e.top.Y != 12 {
		t.Errorf("cached top = %v (hasTop %v), want y 12", e.top, e.hasTop)
	}
}

func TestAnchorSnapshotIsCopy(t *testing.T) {
	r := NewAnchorRegistry()
	r.Register(Anchor{ID: "a", Priority: 1})
	s := r.snapshot()
	s[0].Priority = 99
	if a, _ := r.Get("a"); a.Priority != 1 {
		t.Errorf("snapshot aliases the registry: priority %v", a.Priority)
	}
}
