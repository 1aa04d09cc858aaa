package sunscope

// DirectionalLight is a light whose rays run parallel from Position toward
// Target, like sunlight.
type DirectionalLight struct {
	// Position is where the light sits in world space.
	Position Vec3
	// Target is the point the light is aimed at.
	Target Vec3
	// Intensity scales direct lighting. The sun mutator keeps it in
	// (0.6, 1.2] while the sun is up.
	Intensity float64
	// Color tints direct lighting. Zero value means white.
	Color Color
}

// NewDirectionalLight returns a light high above the origin at the
// intensity of a sun 30 degrees up.
func NewDirectionalLight() *DirectionalLight {
	return &DirectionalLight{
		Position:  Vec3{0, 300, 0},
		Intensity: 0.9,
		Color:     ColorWhite,
	}
}

// Direction returns the unit vector pointing from the light toward its
// target.
func (l *DirectionalLight) Direction() Vec3 {
	return l.Target.Sub(l.Position).Normalize()
}

// color returns the light color with the zero value treated as white.
func (l *DirectionalLight) color() Color {
	if l.Color == (Color{}) {
		return ColorWhite
	}
	return l.Color
}

// LightPreset is a fixed light configuration applied in place of the sun.
type LightPreset struct {
	// Offset is the light position relative to the scene center.
	Offset    Vec3
	Intensity float64
	Color     Color
}

// DefaultNightPreset is a dim, cool light almost overhead.
var DefaultNightPreset = LightPreset{
	Offset:    Vec3{50, 300, 50},
	Intensity: 0.15,
	Color:     Color{R: 0.55, G: 0.62, B: 0.9, A: 1},
}
