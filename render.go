package sunscope

import (
	"cmp"
	"math"
	"slices"

	"github.com/gogpu/gg"
)

// nearW is the smallest clip-space W accepted for a polygon vertex. Polygons
// with any vertex closer to (or behind) the eye are skipped.
const nearW = 1e-3

// face is one polygon queued for painter's-order submission.
type face struct {
	pts   []Vec2
	color Color
	depth float64 // distance from the eye to the face center
	edge  bool    // stroke the outline
}

// projector maps world points to drawing-buffer pixels.
type projector struct {
	vp   Mat4
	w, h float64
}

func (p projector) project(v Vec3) (Vec2, bool) {
	x, y, _, w := p.vp.transformHomogeneous(v)
	if w < nearW {
		return Vec2{}, false
	}
	return NDCToScreen(Vec3{x / w, y / w, 0}, p.w, p.h), true
}

func (p projector) polygon(vs []Vec3) ([]Vec2, bool) {
	out := make([]Vec2, len(vs))
	for i, v := range vs {
		s, ok := p.project(v)
		if !ok {
			return nil, false
		}
		out[i] = s
	}
	return out, true
}

// renderScene draws the ground, the shadows cast by every box, and the boxes
// themselves into dc using the painter's algorithm. width and height are the
// drawing buffer size in pixels.
func renderScene(dc *gg.Context, s *Scene, cam *Camera, width, height float64) error {
	proj := projector{vp: cam.ViewProjection(), w: width, h: height}
	light := s.Light
	if light == nil {
		light = &DirectionalLight{Position: Vec3{0, 1, 0}, Intensity: 0}
	}
	toLight := light.Direction().Scale(-1)
	lcol := light.color()
	boxes := s.Boxes()

	groundY := 0.0
	if b := s.Bounds(); !b.Empty() {
		groundY = b.Min.Y
	}

	// Ground plane.
	center := s.Center()
	ext := s.groundExtent()
	ground := []Vec3{
		{center.X - ext, groundY, center.Z - ext},
		{center.X + ext, groundY, center.Z - ext},
		{center.X + ext, groundY, center.Z + ext},
		{center.X - ext, groundY, center.Z + ext},
	}
	groundLit := shade(s.GroundColor, Vec3{0, 1, 0}, toLight, light.Intensity, s.Ambient, lcol)
	if pts, ok := proj.polygon(ground); ok {
		if err := fillPolygon(dc, pts, groundLit, false); err != nil {
			return err
		}
	}

	// Shadows only exist while the light is above the ground.
	if toLight.Y > 1e-6 {
		shadowCol := multiply(groundLit, s.ShadowColor)
		for _, b := range boxes {
			if !b.CastShadow {
				continue
			}
			hull := shadowHull(b, toLight, groundY)
			if len(hull) < 3 {
				continue
			}
			if pts, ok := proj.polygon(hull); ok {
				if err := fillPolygon(dc, pts, shadowCol, false); err != nil {
					return err
				}
			}
		}
	}

	// Box faces, back to front.
	faces := make([]face, 0, len(boxes)*5)
	for _, b := range boxes {
		faces = appendBoxFaces(faces, b, cam.Position, proj, toLight, light.Intensity, s.Ambient, lcol)
	}
	slices.SortStableFunc(faces, func(a, b face) int {
		return cmp.Compare(b.depth, a.depth)
	})
	for _, f := range faces {
		if err := fillPolygon(dc, f.pts, f.color, f.edge); err != nil {
			return err
		}
	}
	return nil
}

// boxFaces lists the corner indices of the visible-candidate faces of a box
// (bottom omitted) together with their outward normals.
var boxFaces = []struct {
	idx    [4]int
	normal Vec3
}{
	{[4]int{4, 5, 6, 7}, Vec3{0, 1, 0}},  // top
	{[4]int{0, 1, 5, 4}, Vec3{0, 0, -1}}, // north
	{[4]int{1, 2, 6, 5}, Vec3{1, 0, 0}},  // east
	{[4]int{2, 3, 7, 6}, Vec3{0, 0, 1}},  // south
	{[4]int{3, 0, 4, 7}, Vec3{-1, 0, 0}}, // west
}

func appendBoxFaces(dst []face, b *Node, eye Vec3, proj projector, toLight Vec3, intensity, ambient float64, lcol Color) []face {
	cs := b.corners()
	for _, bf := range boxFaces {
		var verts [4]Vec3
		var c Vec3
		for i, ix := range bf.idx {
			verts[i] = cs[ix]
			c = c.Add(cs[ix])
		}
		c = c.Scale(0.25)
		if bf.normal.Dot(eye.Sub(c)) <= 0 {
			continue // back face
		}
		pts, ok := proj.polygon(verts[:])
		if !ok {
			continue
		}
		dst = append(dst, face{
			pts:   pts,
			color: shade(b.Color, bf.normal, toLight, intensity, ambient, lcol),
			depth: eye.Sub(c).Len(),
			edge:  true,
		})
	}
	return dst
}

// shade applies Lambert lighting: ambient plus the light's contribution
// scaled by the cosine between the surface normal and the light direction.
func shade(base Color, normal, toLight Vec3, intensity, ambient float64, lcol Color) Color {
	diffuse := math.Max(0, normal.Dot(toLight)) * intensity
	k := ambient + (1-ambient)*diffuse
	return Color{
		R: clamp01(base.R * k * mix(1, lcol.R, diffuse)),
		G: clamp01(base.G * k * mix(1, lcol.G, diffuse)),
		B: clamp01(base.B * k * mix(1, lcol.B, diffuse)),
		A: base.A,
	}
}

func mix(a, b, t float64) float64 {
	t = clamp01(t)
	return a + (b-a)*t
}

func multiply(a, b Color) Color {
	return Color{R: a.R * b.R, G: a.G * b.G, B: a.B * b.B, A: a.A}
}

// shadowHull projects the box corners along the light rays onto the ground
// plane y = groundY and returns the convex hull of the footprint.
func shadowHull(b *Node, toLight Vec3, groundY float64) []Vec3 {
	cs := b.corners()
	pts := make([]Vec2, 0, len(cs))
	for _, c := range cs {
		t := (c.Y - groundY) / toLight.Y
		pts = append(pts, Vec2{X: c.X - toLight.X*t, Y: c.Z - toLight.Z*t})
	}
	hull := convexHull(pts)
	out := make([]Vec3, len(hull))
	for i, p := range hull {
		// Lift shadows a hair above the ground to keep them in front.
		out[i] = Vec3{p.X, groundY + 0.01, p.Y}
	}
	return out
}

// convexHull returns the hull of pts in counter-clockwise order using
// Andrew's monotone chain.
func convexHull(pts []Vec2) []Vec2 {
	if len(pts) < 3 {
		return pts
	}
	ps := slices.Clone(pts)
	slices.SortFunc(ps, func(a, b Vec2) int {
		if c := cmp.Compare(a.X, b.X); c != 0 {
			return c
		}
		return cmp.Compare(a.Y, b.Y)
	})
	cross := func(o, a, b Vec2) float64 {
		return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
	}
	hull := make([]Vec2, 0, 2*len(ps))
	for _, p := range ps {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(ps) - 2; i >= 0; i-- {
		p := ps[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

func fillPolygon(dc *gg.Context, pts []Vec2, c Color, edge bool) error {
	if len(pts) < 3 {
		return nil
	}
	dc.MoveTo(pts[0].X, pts[0].Y)
	for _, p := range pts[1:] {
		dc.LineTo(p.X, p.Y)
	}
	dc.ClosePath()
	dc.SetRGBA(c.R, c.G, c.B, c.A)
	if !edge {
		return dc.Fill()
	}
	if err := dc.FillPreserve(); err != nil {
		dc.ClearPath()
		return err
	}
	e := c.scale(0.7)
	dc.SetRGBA(e.R, e.G, e.B, e.A)
	dc.SetLineWidth(1)
	return dc.Stroke()
}
