package sunscope

import (
	"math"
	"testing"

	"github.com/tanema/gween/ease"
)

func TestCameraDefaults(t *testing.T) {
	cam := NewCamera(Rect{Width: 800, Height: 600})
	if cam.FOV != DefaultFOV {
		t.Errorf("FOV = %v, want %v", cam.FOV, DefaultFOV)
	}
	if !approxEqual(cam.Aspect, 800.0/600.0, epsilon) {
		t.Errorf("Aspect = %v, want 4/3", cam.Aspect)
	}
	if cam.Up != (Vec3{0, 1, 0}) {
		t.Errorf("Up = %v, want +Y", cam.Up)
	}
}

func TestCameraProjectTargetIsCenter(t *testing.T) {
	cam := NewCamera(Rect{Width: 800, Height: 600})
	ndc := cam.Project(cam.Target)
	if !approxEqual(ndc.X, 0, 1e-9) || !approxEqual(ndc.Y, 0, 1e-9) {
		t.Errorf("Project(target) = %v, want (0, 0, z)", ndc)
	}
	if ndc.Z < -1 || ndc.Z > 1 {
		t.Errorf("target depth = %v, want inside [-1, 1]", ndc.Z)
	}
	s, _ := cam.WorldToScreen(cam.Target)
	if !approxEqual(s.X, 400, 1e-6) || !approxEqual(s.Y, 300, 1e-6) {
		t.Errorf("WorldToScreen(target) = %v, want (400, 300)", s)
	}
}

func TestCameraWorldToScreenViewportOffset(t *testing.T) {
	cam := NewCamera(Rect{X: 10, Y: 20, Width: 800, Height: 600})
	s, _ := cam.WorldToScreen(cam.Target)
	if !approxEqual(s.X, 410, 1e-6) || !approxEqual(s.Y, 320, 1e-6) {
		t.Errorf("WorldToScreen(target) = %v, want (410, 320)", s)
	}
}

func TestCameraBehindIsOutOfRange(t *testing.T) {
	cam := NewCamera(Rect{Width: 800, Height: 600})
	// Twice as far from the target as the camera, on the camera's side.
	behind := cam.Position.Scale(2)
	if z := cam.Project(behind).Z; z <= 1 {
		t.Errorf("depth of point behind camera = %v, want > 1", z)
	}
}

func TestCameraScreenYDown(t *testing.T) {
	cam := NewCamera(Rect{Width: 800, Height: 600})
	low, _ := cam.WorldToScreen(Vec3{})
	high, _ := cam.WorldToScreen(Vec3{Y: 50})
	if high.Y >= low.Y {
		t.Errorf("higher point at screen y %v, lower at %v; want higher above", high.Y, low.Y)
	}
}

func TestCameraSphericalRoundTrip(t *testing.T) {
	cam := NewCamera(Rect{Width: 800, Height: 600})
	cam.Target = Vec3{5, 0, -5}
	cam.SetSpherical(0.3, 0.4, 120)
	az, el, dist := cam.Spherical()
	if !approxEqual(az, 0.3, 1e-9) || !approxEqual(el, 0.4, 1e-9) || !approxEqual(dist, 120, 1e-9) {
		t.Errorf("Spherical = (%v, %v, %v), want (0.3, 0.4, 120)", az, el, dist)
	}
}

func TestCameraSetSphericalClampsElevation(t *testing.T) {
	cam := NewCamera(Rect{Width: 800, Height: 600})
	cam.SetSpherical(0, math.Pi, 100)
	_, el, _ := cam.Spherical()
	if el >= math.Pi/2 {
		t.Errorf("elevation = %v, want below the pole", el)
	}
}

func TestCameraOrbitAndDolly(t *testing.T) {
	cam := NewCamera(Rect{Width: 800, Height: 600})
	cam.SetSpherical(0.5, 0.3, 100)
	cam.Orbit(0.1, 0.05)
	az, el, dist := cam.Spherical()
	if !approxEqual(az, 0.6, 1e-9) || !approxEqual(el, 0.35, 1e-9) {
		t.Errorf("after Orbit = (%v, %v), want (0.6, 0.35)", az, el)
	}
	if !approxEqual(dist, 100, 1e-9) {
		t.Errorf("Orbit changed distance to %v", dist)
	}
	cam.Dolly(0.5)
	if _, _, d := cam.Spherical(); !approxEqual(d, 50, 1e-9) {
		t.Errorf("after Dolly(0.5) distance = %v, want 50", d)
	}
}

func TestCameraOrbitToFinishes(t *testing.T) {
	cam := NewCamera(Rect{Width: 800, Height: 600})
	cam.SetSpherical(0, 0.2, 100)
	cam.OrbitTo(1, 0.5, 150, 1, ease.Linear)
	if !cam.Animating() {
		t.Fatal("Animating = false after OrbitTo")
	}
	cam.Update(0.5)
	az, _, _ := cam.Spherical()
	if !approxEqual(az, 0.5, 1e-3) {
		t.Errorf("halfway azimuth = %v, want 0.5", az)
	}
	cam.Update(0.6)
	if cam.Animating() {
		t.Error("Animating = true after the duration elapsed")
	}
	az, el, dist := cam.Spherical()
	if !approxEqual(az, 1, 1e-3) || !approxEqual(el, 0.5, 1e-3) || !approxEqual(dist, 150, 1e-3) {
		t.Errorf("final pose = (%v, %v, %v), want (1, 0.5, 150)", az, el, dist)
	}
}

func TestCameraOrbitToShortWay(t *testing.T) {
	cam := NewCamera(Rect{Width: 800, Height: 600})
	cam.SetSpherical(3.0, 0.2, 100)
	cam.OrbitTo(-3.0, 0.2, 100, 1, ease.Linear)
	cam.Update(0.5)
	az, _, _ := cam.Spherical()
	// Crossing ±π rather than sweeping through 0.
	if math.Abs(az) < 3 {
		t.Errorf("halfway azimuth = %v, want near ±π", az)
	}
}

func TestCameraFrameSceneFitsBounds(t *testing.T) {
	scene := NewScene()
	scene.Root().AddChild(NewBox("a", 20, 40, 20))
	b := NewBox("b", 10, 10, 10)
	b.Position = Vec3{X: 30, Z: -15}
	scene.Root().AddChild(b)

	cam := NewCamera(Rect{Width: 800, Height: 600})
	cam.FrameScene(scene, DefaultAzimuth, DefaultElevation)

	bounds := scene.Bounds()
	if cam.Target != bounds.Center() {
		t.Errorf("Target = %v, want bounds center %v", cam.Target, bounds.Center())
	}
	for _, n := range scene.Boxes() {
		for _, c := range n.corners() {
			ndc := cam.Project(c)
			if math.Abs(ndc.X) > 1 || math.Abs(ndc.Y) > 1 || ndc.Z > 1 {
				t.Errorf("corner %v of %s projects to %v, outside the frame", c, n.Name, ndc)
			}
		}
	}
}

func TestCameraFrameEmptyScene(t *testing.T) {
	cam := NewCamera(Rect{Width: 800, Height: 600})
	cam.Target = Vec3{9, 9, 9}
	cam.FrameScene(NewScene(), DefaultAzimuth, DefaultElevation)
	if cam.Target != (Vec3{}) {
		t.Errorf("Target = %v, want origin", cam.Target)
	}
	if d := cam.DistanceTo(Vec3{}); !approxEqual(d, 200, 1e-9) {
		t.Errorf("distance = %v, want 200", d)
	}
}
