package sunscope

import (
	"math"
	"testing"

	"github.com/phanxgames/sunscope/solar"
)

func TestSunVectorIntensity(t *testing.T) {
	v := SunVector{Altitude: math.Pi / 6}
	if !approxEqual(v.Intensity(), 0.9, 1e-9) {
		t.Errorf("Intensity at 30° = %v, want 0.9", v.Intensity())
	}
	v = SunVector{Altitude: math.Pi / 2}
	if !approxEqual(v.Intensity(), 1.2, 1e-9) {
		t.Errorf("Intensity at zenith = %v, want 1.2", v.Intensity())
	}
}

func TestSunVectorOffsetDirections(t *testing.T) {
	tests := []struct {
		name    string
		azimuth float64
		want    Vec3
	}{
		{"south", 0, Vec3{0, 0, 100}},
		{"west", math.Pi / 2, Vec3{-100, 0, 0}},
		{"east", -math.Pi / 2, Vec3{100, 0, 0}},
		{"north", math.Pi, Vec3{0, 0, -100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SunVector{Altitude: 0, Azimuth: tt.azimuth}.Offset(100)
			if !approxEqual(got.X, tt.want.X, 1e-9) || !approxEqual(got.Y, tt.want.Y, 1e-9) || !approxEqual(got.Z, tt.want.Z, 1e-9) {
				t.Errorf("Offset = %v, want %v", got, tt.want)
			}
		})
	}
	up := SunVector{Altitude: math.Pi / 2}.Offset(100)
	if !approxEqual(up.Y, 100, 1e-9) {
		t.Errorf("zenith offset = %v, want straight up", up)
	}
}

func TestSunVectorFrom(t *testing.T) {
	v := SunVectorFrom(solar.Position{Altitude: 0.4, Azimuth: -0.2})
	if v.Altitude != 0.4 || v.Azimuth != -0.2 {
		t.Errorf("SunVectorFrom = %+v", v)
	}
	if !v.Up() {
		t.Error("Up = false for positive altitude")
	}
	if (SunVector{Altitude: 0}).Up() {
		t.Error("Up = true at the horizon")
	}
}

func TestSunMutatorApply(t *testing.T) {
	light := NewDirectionalLight()
	center := Vec3{10, 0, -10}
	m := NewSunMutator()
	sun := SunVector{Altitude: math.Pi / 6, Azimuth: 0.3}

	if !m.Apply(light, center, sun) {
		t.Fatal("Apply reported no change")
	}
	if light.Target != center {
		t.Errorf("Target = %v, want %v", light.Target, center)
	}
	if d := light.Position.Sub(center).Len(); !approxEqual(d, DefaultLightRadius, 1e-9) {
		t.Errorf("light distance = %v, want %v", d, DefaultLightRadius)
	}
	if !approxEqual(light.Intensity, 0.9, 1e-9) {
		t.Errorf("Intensity = %v, want 0.9", light.Intensity)
	}
}

func TestSunMutatorNightFreeze(t *testing.T) {
	light := NewDirectionalLight()
	m := NewSunMutator()
	m.Apply(light, Vec3{}, SunVector{Altitude: 0.5, Azimuth: 1})
	before := *light

	if m.Apply(light, Vec3{}, SunVector{Altitude: -0.2, Azimuth: 2}) {
		t.Error("Apply reported a change at night")
	}
	if *light != before {
		t.Errorf("light changed at night: %+v, want %+v", *light, before)
	}
}

func TestSunMutatorNightPreset(t *testing.T) {
	light := NewDirectionalLight()
	m := NewSunMutator()
	m.Night = NightPresetMode
	center := Vec3{5, 0, 5}

	if !m.Apply(light, center, SunVector{Altitude: -0.1}) {
		t.Fatal("Apply reported no change")
	}
	if light.Intensity != DefaultNightPreset.Intensity {
		t.Errorf("Intensity = %v, want %v", light.Intensity, DefaultNightPreset.Intensity)
	}
	if light.Position != center.Add(DefaultNightPreset.Offset) {
		t.Errorf("Position = %v", light.Position)
	}

	// Daylight resets the preset tint.
	m.Apply(light, center, SunVector{Altitude: 0.5})
	if light.Color != ColorWhite {
		t.Errorf("Color after sunrise = %v, want white", light.Color)
	}
}

func TestSunMutatorNilLight(t *testing.T) {
	if NewSunMutator().Apply(nil, Vec3{}, SunVector{Altitude: 1}) {
		t.Error("Apply(nil) reported a change")
	}
}

func TestParseNightMode(t *testing.T) {
	tests := []struct {
		in   string
		want NightMode
		ok   bool
	}{
		{"", NightFreeze, true},
		{"freeze", NightFreeze, true},
		{"preset", NightPresetMode, true},
		{"dark", NightFreeze, false},
	}
	for _, tt := range tests {
		got, ok := ParseNightMode(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseNightMode(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
	if NightPresetMode.String() != "preset" || NightFreeze.String() != "freeze" {
		t.Error("String does not round-trip")
	}
}

func TestLightDirection(t *testing.T) {
	l := &DirectionalLight{Position: Vec3{0, 10, 0}}
	if d := l.Direction(); d != (Vec3{0, -1, 0}) {
		t.Errorf("Direction = %v, want down", d)
	}
	if (&DirectionalLight{}).color() != ColorWhite {
		t.Error("zero color should read as white")
	}
}
