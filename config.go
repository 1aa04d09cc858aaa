package sunscope

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"runtime"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// SampleConfig returns the commented sample configuration file.
func SampleConfig() string {
	return sampleConfig
}

// Location is the site being studied.
type Location struct {
	Latitude  float64 `toml:"latitude"`
	Longitude float64 `toml:"longitude"`
	// Timezone is an IANA name; empty uses the local zone.
	Timezone string `toml:"timezone"`
}

// ExportConfig controls animation exports.
type ExportConfig struct {
	// StartHour and EndHour bound the sampling window. Unset means the
	// sunrise and sunset hour of the export date.
	StartHour *float64 `toml:"start_hour"`
	EndHour   *float64 `toml:"end_hour"`

	FrameIntervalMinutes int `toml:"frame_interval_minutes"`
	FrameDelayMs         int `toml:"frame_delay_ms"`
	Width                int `toml:"width"`
	Height               int `toml:"height"`
	// QualityLevel is the palette sampling stride; lower is higher fidelity.
	QualityLevel int `toml:"quality_level"`
	// Supersample renders at a multiple of the output size and downsamples.
	Supersample float64 `toml:"supersample"`
	// Workers bounds concurrent encoding work; 0 means GOMAXPROCS.
	Workers int  `toml:"workers"`
	Dither  bool `toml:"dither"`

	// NightMode is "freeze" (keep the last daylight setup) or "preset".
	NightMode   string  `toml:"night_mode"`
	LightRadius float64 `toml:"light_radius"`

	FilenamePrefix string `toml:"filename_prefix"`
	// FrameDir, when set, receives every composited frame as a PNG.
	FrameDir string `toml:"frame_dir"`
}

// Interval returns the sampling interval.
func (c ExportConfig) Interval() time.Duration {
	return time.Duration(c.FrameIntervalMinutes) * time.Minute
}

// FrameDelay returns the per-frame display time.
func (c ExportConfig) FrameDelay() time.Duration {
	return time.Duration(c.FrameDelayMs) * time.Millisecond
}

// DeclutterConfig controls on-screen building labels.
type DeclutterConfig struct {
	// Enabled hides overlapping labels; disabled shows every on-screen label.
	Enabled bool `toml:"enabled"`
	// Labels are hidden entirely when the camera is closer than
	// MinZoomDistance or farther than MaxZoomDistance from the origin.
	MinZoomDistance float64 `toml:"min_zoom_distance"`
	MaxZoomDistance float64 `toml:"max_zoom_distance"`
	// ViewportMargin extends the on-screen test on every side, in pixels.
	ViewportMargin float64 `toml:"viewport_margin"`
	LabelWidth     float64 `toml:"label_width"`
	LabelHeight    float64 `toml:"label_height"`
	LabelPadding   float64 `toml:"label_padding"`
	// MaxUpdatesPerSecond throttles Tick.
	MaxUpdatesPerSecond float64 `toml:"max_updates_per_second"`
	// MaxAnchors bounds the anchors projected per pass.
	MaxAnchors int `toml:"max_anchors"`
	// NominalHeight and LabelOffset place anchors without a mesh.
	NominalHeight float64 `toml:"nominal_height"`
	LabelOffset   float64 `toml:"label_offset"`
}

// BuildingSpec describes one building mass.
type BuildingSpec struct {
	ID     string  `toml:"id"`
	Name   string  `toml:"name"`
	X      float64 `toml:"x"`
	Z      float64 `toml:"z"`
	Width  float64 `toml:"width"`
	Depth  float64 `toml:"depth"`
	Height float64 `toml:"height"`
	// Priority overrides the label priority (default: height).
	Priority *float64 `toml:"priority"`
}

// Config is the complete configuration.
//
// Sections:
//   - Location: site coordinates and timezone
//   - Export: sampling window, frame timing, output size and encoding
//   - Declutter: label visibility rules
//   - Buildings: the scene's building masses
type Config struct {
	Location  Location        `toml:"location"`
	Export    ExportConfig    `toml:"export"`
	Declutter DeclutterConfig `toml:"declutter"`
	Buildings []BuildingSpec  `toml:"building"`
}

// Configuration defaults. Start and end hours default to the sunrise and
// sunset hour of the export date.
const (
	defaultFrameIntervalMinutes = 30
	defaultFrameDelayMs         = 200
	defaultWidth                = 800
	defaultHeight               = 600
	defaultQualityLevel         = 10
	defaultSupersample          = 1
	defaultNightMode            = "freeze"
	defaultFilenamePrefix       = "sun-study"
	defaultMinZoomDistance      = 20
	defaultMaxZoomDistance      = 1000
	defaultViewportMargin       = 50
	defaultLabelWidth           = 100
	defaultLabelHeight          = 30
	defaultLabelPadding         = 10
	defaultMaxUpdatesPerSecond  = 30
	defaultMaxAnchors           = 512
	defaultNominalHeight        = 10
	defaultLabelOffset          = 3
)

// DefaultConfig returns a Config populated with the defaults.
func DefaultConfig() Config {
	return Config{
		Location: Location{Latitude: 19.076, Longitude: 72.8777, Timezone: "Asia/Kolkata"},
		Export: ExportConfig{
			FrameIntervalMinutes: defaultFrameIntervalMinutes,
			FrameDelayMs:         defaultFrameDelayMs,
			Width:                defaultWidth,
			Height:               defaultHeight,
			QualityLevel:         defaultQualityLevel,
			Supersample:          defaultSupersample,
			NightMode:            defaultNightMode,
			LightRadius:          DefaultLightRadius,
			FilenamePrefix:       defaultFilenamePrefix,
		},
		Declutter: DefaultDeclutterConfig(),
	}
}

// DefaultDeclutterConfig returns the label declutter defaults.
func DefaultDeclutterConfig() DeclutterConfig {
	return DeclutterConfig{
		Enabled:             true,
		MinZoomDistance:     defaultMinZoomDistance,
		MaxZoomDistance:     defaultMaxZoomDistance,
		ViewportMargin:      defaultViewportMargin,
		LabelWidth:          defaultLabelWidth,
		LabelHeight:         defaultLabelHeight,
		LabelPadding:        defaultLabelPadding,
		MaxUpdatesPerSecond: defaultMaxUpdatesPerSecond,
		MaxAnchors:          defaultMaxAnchors,
		NominalHeight:       defaultNominalHeight,
		LabelOffset:         defaultLabelOffset,
	}
}

// LoadConfig reads a TOML file over the defaults and validates the result.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()
	return ParseConfig(file)
}

// SampleSite returns the embedded sample configuration, a small site with
// a few buildings.
func SampleSite() (*Config, error) {
	return ParseConfig(strings.NewReader(sampleConfig))
}

// ParseConfig decodes TOML from r over the defaults and validates the
// result.
func ParseConfig(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	if err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLocation(); err != nil {
		return err
	}
	if err := c.validateExport(); err != nil {
		return err
	}
	if err := c.validateDeclutter(); err != nil {
		return err
	}
	return c.validateBuildings()
}

func (c *Config) validateLocation() error {
	if c.Location.Latitude < -90 || c.Location.Latitude > 90 {
		return errors.New("location.latitude must be between -90 and 90")
	}
	if c.Location.Longitude < -180 || c.Location.Longitude > 180 {
		return errors.New("location.longitude must be between -180 and 180")
	}
	if _, err := c.TimeLocation(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateExport() error {
	e := c.Export
	for name, h := range map[string]*float64{"export.start_hour": e.StartHour, "export.end_hour": e.EndHour} {
		if h != nil && (*h < 0 || *h > 24 || math.IsNaN(*h)) {
			return fmt.Errorf("%s must be between 0 and 24", name)
		}
	}
	if e.FrameIntervalMinutes <= 0 {
		return errors.New("export.frame_interval_minutes must be positive")
	}
	if e.FrameDelayMs < 10 {
		return errors.New("export.frame_delay_ms must be at least 10")
	}
	if e.Width <= 0 || e.Height <= 0 {
		return errors.New("export.width and export.height must be positive")
	}
	if e.QualityLevel < 1 {
		return errors.New("export.quality_level must be at least 1")
	}
	if e.Supersample < 1 || e.Supersample > 4 {
		return errors.New("export.supersample must be between 1 and 4")
	}
	if e.Workers < 0 {
		return errors.New("export.workers must not be negative")
	}
	if _, ok := ParseNightMode(e.NightMode); !ok {
		return fmt.Errorf("export.night_mode %q must be \"freeze\" or \"preset\"", e.NightMode)
	}
	if e.LightRadius <= 0 {
		return errors.New("export.light_radius must be positive")
	}
	return nil
}

func (c *Config) validateDeclutter() error {
	d := c.Declutter
	if d.MinZoomDistance < 0 || d.MaxZoomDistance <= d.MinZoomDistance {
		return errors.New("declutter.max_zoom_distance must exceed min_zoom_distance (>= 0)")
	}
	if d.LabelWidth <= 0 || d.LabelHeight <= 0 || d.LabelPadding < 0 {
		return errors.New("declutter label size must be positive and padding non-negative")
	}
	if d.MaxUpdatesPerSecond <= 0 {
		return errors.New("declutter.max_updates_per_second must be positive")
	}
	if d.MaxAnchors <= 0 {
		return errors.New("declutter.max_anchors must be positive")
	}
	return nil
}

func (c *Config) validateBuildings() error {
	seen := make(map[string]bool, len(c.Buildings))
	for i, b := range c.Buildings {
		if b.ID == "" {
			return fmt.Errorf("building[%d].id must be set", i)
		}
		if seen[b.ID] {
			return fmt.Errorf("building id %q is duplicated", b.ID)
		}
		seen[b.ID] = true
		if b.Width <= 0 || b.Depth <= 0 || b.Height <= 0 {
			return fmt.Errorf("building %q needs positive width, depth and height", b.ID)
		}
	}
	return nil
}

// TimeLocation resolves the configured timezone.
func (c *Config) TimeLocation() (*time.Location, error) {
	if c.Location.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Location.Timezone)
	if err != nil {
		return nil, fmt.Errorf("location.timezone: %w", err)
	}
	return loc, nil
}

// NewExporter builds an exporter from the export section.
func (c *Config) NewExporter() (*Exporter, error) {
	comp, err := NewCompositor()
	if err != nil {
		return nil, err
	}
	night, _ := ParseNightMode(c.Export.NightMode)
	workers := c.Export.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Exporter{
		Encoder: &GIFEncoder{
			Delay:   c.Export.FrameDelay(),
			Quality: c.Export.QualityLevel,
			Workers: workers,
			Dither:  c.Export.Dither,
		},
		Compositor: comp,
		Mutator: SunMutator{
			Radius:      c.Export.LightRadius,
			Night:       night,
			NightPreset: DefaultNightPreset,
		},
	}, nil
}

// Request builds an export request for date from the configuration.
func (c *Config) Request(surf Surface, scene *Scene, cam *Camera, date time.Time) ExportRequest {
	return ExportRequest{
		Surface:        surf,
		Scene:          scene,
		Camera:         cam,
		Date:           date,
		Lat:            c.Location.Latitude,
		Lon:            c.Location.Longitude,
		StartHour:      c.Export.StartHour,
		EndHour:        c.Export.EndHour,
		Interval:       c.Export.Interval(),
		Width:          c.Export.Width,
		Height:         c.Export.Height,
		PixelRatio:     c.Export.Supersample,
		FrameDir:       c.Export.FrameDir,
		FilenamePrefix: c.Export.FilenamePrefix,
	}
}

// BuildScene creates a scene holding one box per building and registers a
// label anchor for each.
func (c *Config) BuildScene() (*Scene, *AnchorRegistry) {
	scene := NewScene()
	reg := NewAnchorRegistry()
	for _, b := range c.Buildings {
		box := NewBox(b.Name, b.Width, b.Height, b.Depth)
		box.Position = Vec3{X: b.X, Z: b.Z}
		box.UserData = b.ID
		scene.Root().AddChild(box)

		priority := b.Height
		if b.Priority != nil {
			priority = *b.Priority
		}
		name := b.Name
		if name == "" {
			name = b.ID
		}
		reg.Register(Anchor{
			ID:       b.ID,
			Name:     name,
			Base:     Vec3{X: b.X, Z: b.Z},
			Height:   b.Height,
			Priority: priority,
			Mesh:     box,
		})
	}
	return scene, reg
}
