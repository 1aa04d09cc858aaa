package sunscope

import (
	"image/color"
	"math"
	"testing"
)

func TestConvexHullDropsInteriorPoints(t *testing.T) {
	pts := []Vec2{{0, 0}, {4, 0}, {4, 4}, {0, 4}, {2, 2}, {1, 3}}
	hull := convexHull(pts)
	if len(hull) != 4 {
		t.Fatalf("hull has %d points, want 4: %v", len(hull), hull)
	}
	// Shoelace area is positive for counter-clockwise order.
	var area float64
	for i := range hull {
		a, b := hull[i], hull[(i+1)%len(hull)]
		area += a.X*b.Y - b.X*a.Y
	}
	if !approxEqual(area/2, 16, 1e-9) {
		t.Errorf("signed area = %v, want 16", area/2)
	}
}

func TestShadowHullFollowsLight(t *testing.T) {
	b := NewBox("b", 10, 10, 10)
	// Light up and to the east: the shadow falls west.
	toLight := Vec3{1, 1, 0}.Normalize()
	hull := shadowHull(b, toLight, 0)
	if len(hull) != 4 {
		t.Fatalf("hull has %d points, want 4: %v", len(hull), hull)
	}
	minX, maxX := math.Inf(1), math.Inf(-1)
	for _, p := range hull {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		if !approxEqual(p.Y, 0.01, 1e-9) {
			t.Errorf("hull point %v not on the ground", p)
		}
	}
	if !approxEqual(minX, -15, 1e-9) || !approxEqual(maxX, 5, 1e-9) {
		t.Errorf("shadow X range = [%v, %v], want [-15, 5]", minX, maxX)
	}
}

func TestShadeLambert(t *testing.T) {
	base := Color{1, 1, 1, 1}
	up := Vec3{0, 1, 0}
	lit := shade(base, up, up, 1, 0.3, ColorWhite)
	if !approxEqual(lit.R, 1, 1e-9) {
		t.Errorf("face toward light R = %v, want 1", lit.R)
	}
	dark := shade(base, up, Vec3{0, -1, 0}, 1, 0.3, ColorWhite)
	if !approxEqual(dark.R, 0.3, 1e-9) {
		t.Errorf("face away from light R = %v, want ambient 0.3", dark.R)
	}
}

func newTestScene() *Scene {
	s := NewScene()
	s.Root().AddChild(NewBox("a", 20, 40, 20))
	b := NewBox("b", 10, 15, 10)
	b.Position = Vec3{X: 25, Z: 10}
	s.Root().AddChild(b)
	return s
}

func TestSoftwareSurfaceRenderDrawsScene(t *testing.T) {
	s := newTestScene()
	surf := NewSoftwareSurface(64, 48)
	cam := NewCamera(Rect{Width: 64, Height: 48})
	cam.FrameScene(s, DefaultAzimuth, DefaultElevation)

	if err := surf.Render(s, cam); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if surf.RenderCount() != 1 {
		t.Errorf("RenderCount = %d, want 1", surf.RenderCount())
	}
	img := surf.Raster()
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
		t.Fatalf("raster size = %v, want 64x48", b.Size())
	}
	sky := ColorSky.toRGBA()
	if got := img.RGBAAt(32, 24); got == sky {
		t.Error("center pixel is background, want scene content")
	}
}

func TestSoftwareSurfaceRasterIsCopy(t *testing.T) {
	s := newTestScene()
	surf := NewSoftwareSurface(16, 16)
	cam := NewCamera(Rect{Width: 16, Height: 16})
	cam.FrameScene(s, DefaultAzimuth, DefaultElevation)
	if err := surf.Render(s, cam); err != nil {
		t.Fatal(err)
	}
	a := surf.Raster()
	a.SetRGBA(0, 0, color.RGBA{R: 1, G: 2, B: 3, A: 255})
	if b := surf.Raster(); b.RGBAAt(0, 0) == a.RGBAAt(0, 0) {
		t.Error("Raster returned a shared buffer")
	}
}

func TestSoftwareSurfacePixelRatio(t *testing.T) {
	surf := NewSoftwareSurface(40, 30)
	surf.SetPixelRatio(2)
	if w, h := surf.BufferSize(); w != 80 || h != 60 {
		t.Errorf("BufferSize = %dx%d, want 80x60", w, h)
	}
	surf.SetPixelRatio(-1)
	if surf.PixelRatio() != 1 {
		t.Errorf("PixelRatio after -1 = %v, want 1", surf.PixelRatio())
	}
	if err := surf.SetSize(0, 10); err == nil {
		t.Error("SetSize(0, 10) should fail")
	}
	if w, h := surf.Size(); w != 40 || h != 30 {
		t.Errorf("Size after failed SetSize = %dx%d, want 40x30", w, h)
	}
}

func TestSoftwareSurfaceIDsUnique(t *testing.T) {
	if NewSoftwareSurface(1, 1).ID() == NewSoftwareSurface(1, 1).ID() {
		t.Error("surface IDs collide")
	}
}

func TestRenderChangesWithSun(t *testing.T) {
	s := newTestScene()
	surf := NewSoftwareSurface(64, 48)
	cam := NewCamera(Rect{Width: 64, Height: 48})
	cam.FrameScene(s, DefaultAzimuth, DefaultElevation)
	center := s.Center()
	mut := NewSunMutator()

	mut.Apply(s.Light, center, SunVector{Altitude: 0.3, Azimuth: -1.2})
	if err := surf.Render(s, cam); err != nil {
		t.Fatal(err)
	}
	morning := surf.Raster()

	mut.Apply(s.Light, center, SunVector{Altitude: 1.2, Azimuth: 0})
	if err := surf.Render(s, cam); err != nil {
		t.Fatal(err)
	}
	noon := surf.Raster()

	diff := 0
	for i := range morning.Pix {
		if morning.Pix[i] != noon.Pix[i] {
			diff++
		}
	}
	if diff == 0 {
		t.Error("morning and noon frames are identical")
	}
}
