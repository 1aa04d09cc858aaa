package sunscope

import (
	"math"

	"github.com/phanxgames/sunscope/solar"
)

// SunVector is the sun's position for one sample timestamp, in radians.
type SunVector struct {
	Altitude float64
	Azimuth  float64
}

// SunVectorFrom converts a solar position.
func SunVectorFrom(p solar.Position) SunVector {
	return SunVector{Altitude: p.Altitude, Azimuth: p.Azimuth}
}

// Up reports whether the sun is above the horizon.
func (v SunVector) Up() bool {
	return v.Altitude > 0
}

// Intensity returns the light intensity for the sun's altitude:
// 0.6 + sin(altitude) * 0.6, in (0.6, 1.2] while the sun is up.
func (v SunVector) Intensity() float64 {
	return 0.6 + math.Sin(v.Altitude)*0.6
}

// Offset returns the light position relative to the scene center at the
// given radius. Azimuth is measured from south toward west, so the sun
// sits at +Z (south) when azimuth is 0 and at -X (west) when it is π/2.
func (v SunVector) Offset(radius float64) Vec3 {
	cosAlt := math.Cos(v.Altitude)
	return Vec3{
		X: -radius * cosAlt * math.Sin(v.Azimuth),
		Y: radius * math.Sin(v.Altitude),
		Z: radius * cosAlt * math.Cos(v.Azimuth),
	}
}

// NightMode selects how the sun mutator treats samples with the sun at or
// below the horizon.
type NightMode uint8

const (
	// NightFreeze leaves the light exactly as the previous frame left it.
	NightFreeze NightMode = iota
	// NightPresetMode applies SunMutator.NightPreset.
	NightPresetMode
)

// String returns the config name of the mode.
func (m NightMode) String() string {
	switch m {
	case NightPresetMode:
		return "preset"
	default:
		return "freeze"
	}
}

// ParseNightMode parses a config name. Unknown names report false.
func ParseNightMode(s string) (NightMode, bool) {
	switch s {
	case "", "freeze":
		return NightFreeze, true
	case "preset":
		return NightPresetMode, true
	}
	return NightFreeze, false
}

// DefaultLightRadius is the distance from the scene center at which the sun
// light is placed.
const DefaultLightRadius = 300.0

// SunMutator applies a sun vector to a directional light.
type SunMutator struct {
	// Radius is the light's distance from the scene center.
	Radius float64
	// Night selects the behavior while the sun is down.
	Night NightMode
	// NightPreset is applied in NightPresetMode.
	NightPreset LightPreset
}

// NewSunMutator returns a mutator with the default radius that freezes the
// light at night.
func NewSunMutator() SunMutator {
	return SunMutator{Radius: DefaultLightRadius, NightPreset: DefaultNightPreset}
}

// Apply points light at center from the sun's direction and sets its
// intensity from the altitude. With the sun at or below the horizon the
// light is left untouched (NightFreeze) or set to the night preset.
// Apply reports whether it changed the light.
func (m SunMutator) Apply(light *DirectionalLight, center Vec3, sun SunVector) bool {
	if light == nil {
		return false
	}
	if !sun.Up() {
		if m.Night != NightPresetMode {
			return false
		}
		light.Position = center.Add(m.NightPreset.Offset)
		light.Target = center
		light.Intensity = m.NightPreset.Intensity
		light.Color = m.NightPreset.Color
		return true
	}

	radius := m.Radius
	if radius <= 0 {
		radius = DefaultLightRadius
	}
	light.Position = center.Add(sun.Offset(radius))
	light.Target = center
	light.Intensity = sun.Intensity()
	if m.Night == NightPresetMode {
		light.Color = ColorWhite
	}
	return true
}
