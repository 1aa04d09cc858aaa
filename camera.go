package sunscope

import (
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// orbitAnim holds active orbit tweens for azimuth, elevation and distance.
type orbitAnim struct {
	tweenAz   *gween.Tween
	tweenEl   *gween.Tween
	tweenDist *gween.Tween
	doneAz    bool
	doneEl    bool
	doneDist  bool
}

// Camera is a perspective camera looking at a target point.
//
// The projection matrix is cached: after changing FOV, Aspect, Near or Far
// call UpdateProjectionMatrix. The view matrix is derived from Position,
// Target and Up on every use.
type Camera struct {
	// Position is the eye position in world space.
	Position Vec3
	// Target is the world-space point the camera looks at.
	Target Vec3
	// Up is the world-space up hint. Defaults to +Y.
	Up Vec3
	// FOV is the vertical field of view in degrees.
	FOV float64
	// Aspect is the viewport width divided by height.
	Aspect float64
	// Near and Far are the clip plane distances.
	Near, Far float64
	// Viewport is the screen-space rectangle this camera renders into.
	Viewport Rect

	proj Mat4

	orbitTween *orbitAnim
}

// Camera defaults.
const (
	DefaultFOV  = 45.0
	DefaultNear = 0.1
	DefaultFar  = 5000.0

	// DefaultAzimuth and DefaultElevation are the home pose used when
	// framing a scene: from the south-east, about 35 degrees up.
	DefaultAzimuth   = math.Pi / 4
	DefaultElevation = 0.6
)

// NewCamera creates a camera for the given viewport, positioned on a
// diagonal above the origin.
func NewCamera(viewport Rect) *Camera {
	c := &Camera{
		Position: Vec3{200, 200, 200},
		Up:       Vec3{0, 1, 0},
		FOV:      DefaultFOV,
		Near:     DefaultNear,
		Far:      DefaultFar,
		Viewport: viewport,
		Aspect:   1,
	}
	if viewport.Height > 0 {
		c.Aspect = viewport.Width / viewport.Height
	}
	c.UpdateProjectionMatrix()
	return c
}

// UpdateProjectionMatrix recomputes the cached projection matrix from FOV,
// Aspect, Near and Far.
func (c *Camera) UpdateProjectionMatrix() {
	aspect := c.Aspect
	if aspect <= 0 {
		aspect = 1
	}
	c.proj = perspectiveMatrix(c.FOV*math.Pi/180, aspect, c.Near, c.Far)
}

// withAspect returns a detached copy of c with its projection rebuilt for
// aspect. The copy carries no orbit animation.
func (c *Camera) withAspect(aspect float64) *Camera {
	cp := *c
	cp.orbitTween = nil
	cp.Aspect = aspect
	cp.UpdateProjectionMatrix()
	return &cp
}

// ProjectionMatrix returns the cached projection matrix.
func (c *Camera) ProjectionMatrix() Mat4 {
	return c.proj
}

// ViewMatrix returns the world-to-view transform for the current pose.
func (c *Camera) ViewMatrix() Mat4 {
	up := c.Up
	if up == (Vec3{}) {
		up = Vec3{0, 1, 0}
	}
	return lookAtMatrix(c.Position, c.Target, up)
}

// ViewProjection returns projection * view.
func (c *Camera) ViewProjection() Mat4 {
	return c.proj.Mul(c.ViewMatrix())
}

// Project maps a world point to normalized device coordinates. X and Y are
// in [-1, 1] inside the frustum; Z greater than 1 means the point is behind
// the camera or beyond the far plane.
func (c *Camera) Project(p Vec3) Vec3 {
	return c.ViewProjection().TransformPoint(p)
}

// NDCToScreen converts normalized device coordinates to pixel coordinates
// within a viewport of the given size (origin top-left, Y down).
func NDCToScreen(ndc Vec3, width, height float64) Vec2 {
	return Vec2{
		X: (ndc.X + 1) / 2 * width,
		Y: (1 - ndc.Y) / 2 * height,
	}
}

// WorldToScreen projects a world point into the camera's viewport. The
// returned depth is the NDC Z value.
func (c *Camera) WorldToScreen(p Vec3) (screen Vec2, depth float64) {
	ndc := c.Project(p)
	s := NDCToScreen(ndc, c.Viewport.Width, c.Viewport.Height)
	s.X += c.Viewport.X
	s.Y += c.Viewport.Y
	return s, ndc.Z
}

// DistanceTo returns the distance from the camera position to p.
func (c *Camera) DistanceTo(p Vec3) float64 {
	return c.Position.Sub(p).Len()
}

// Spherical returns the camera pose around Target as azimuth (radians from
// +Z toward +X), elevation (radians above the horizontal) and distance.
func (c *Camera) Spherical() (azimuth, elevation, distance float64) {
	d := c.Position.Sub(c.Target)
	distance = d.Len()
	if distance == 0 {
		return 0, 0, 0
	}
	azimuth = math.Atan2(d.X, d.Z)
	elevation = math.Asin(clampUnit(d.Y / distance))
	return
}

// SetSpherical places the camera around Target from spherical coordinates.
// Elevation is clamped just short of the poles.
func (c *Camera) SetSpherical(azimuth, elevation, distance float64) {
	const limit = math.Pi/2 - 0.01
	elevation = math.Max(-limit, math.Min(limit, elevation))
	if distance < c.Near {
		distance = c.Near
	}
	cosEl := math.Cos(elevation)
	c.Position = c.Target.Add(Vec3{
		X: distance * cosEl * math.Sin(azimuth),
		Y: distance * math.Sin(elevation),
		Z: distance * cosEl * math.Cos(azimuth),
	})
}

// FrameScene aims the camera at the scene's center from the given azimuth
// and elevation, backing off until the scene bounds fit the vertical field
// of view.
func (c *Camera) FrameScene(s *Scene, azimuth, elevation float64) {
	b := s.Bounds()
	if b.Empty() {
		c.Target = Vec3{}
		c.SetSpherical(azimuth, elevation, 200)
		return
	}
	center := b.Center()
	radius := b.Max.Sub(center).Len()
	half := c.FOV * math.Pi / 360
	if half <= 0 {
		half = DefaultFOV * math.Pi / 360
	}
	c.Target = center
	c.SetSpherical(azimuth, elevation, 1.2*radius/math.Sin(half))
}

// Orbit rotates the camera around Target by the given deltas in radians.
func (c *Camera) Orbit(dAzimuth, dElevation float64) {
	az, el, dist := c.Spherical()
	c.SetSpherical(az+dAzimuth, el+dElevation, dist)
}

// Dolly scales the camera distance to Target by factor.
func (c *Camera) Dolly(factor float64) {
	az, el, dist := c.Spherical()
	c.SetSpherical(az, el, dist*factor)
}

// OrbitTo animates the camera to the given spherical pose over duration
// seconds.
func (c *Camera) OrbitTo(azimuth, elevation, distance float64, duration float32, easeFn ease.TweenFunc) {
	az, el, dist := c.Spherical()
	// Take the short way around.
	for azimuth-az > math.Pi {
		azimuth -= 2 * math.Pi
	}
	for az-azimuth > math.Pi {
		azimuth += 2 * math.Pi
	}
	c.orbitTween = &orbitAnim{
		tweenAz:   gween.New(float32(az), float32(azimuth), duration, easeFn),
		tweenEl:   gween.New(float32(el), float32(elevation), duration, easeFn),
		tweenDist: gween.New(float32(dist), float32(distance), duration, easeFn),
	}
}

// Animating reports whether an OrbitTo animation is in progress.
func (c *Camera) Animating() bool {
	return c.orbitTween != nil
}

// Update advances orbit animations by dt seconds.
func (c *Camera) Update(dt float32) {
	if c.orbitTween == nil {
		return
	}
	o := c.orbitTween
	az, el, dist := c.Spherical()
	if !o.doneAz {
		v, done := o.tweenAz.Update(dt)
		az = float64(v)
		o.doneAz = done
	}
	if !o.doneEl {
		v, done := o.tweenEl.Update(dt)
		el = float64(v)
		o.doneEl = done
	}
	if !o.doneDist {
		v, done := o.tweenDist.Update(dt)
		dist = float64(v)
		o.doneDist = done
	}
	c.SetSpherical(az, el, dist)
	if o.doneAz && o.doneEl && o.doneDist {
		c.orbitTween = nil
	}
}

func clampUnit(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
