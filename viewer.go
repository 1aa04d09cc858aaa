package sunscope

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/tanema/gween/ease"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/phanxgames/sunscope/solar"
)

// whitePixel is a 1x1 white image scaled to draw solid rectangles.
var whitePixel *ebiten.Image

func init() {
	whitePixel = ebiten.NewImage(1, 1)
	whitePixel.Fill(color.White)
}

// Viewer colors.
var (
	labelFill     = Color{0.1, 0.1, 0.12, 0.8}
	labelSelected = Color{1, 0.72, 0.2, 0.95}
	labelText     = ColorWhite
	labelTextDark = Color{0.1, 0.1, 0.1, 1}
	progressTrack = Color{0, 0, 0, 0.6}
	progressFill  = Color{1, 0.72, 0.2, 1}
)

// ViewerOptions configures NewViewer.
type ViewerOptions struct {
	// Width and Height are the window size.
	Width, Height int
	// Date is the day shown and exported. Zero means today in the
	// configured timezone.
	Date time.Time
	// Hour is the initial time of day. Zero means solar noon.
	Hour float64
	// OutDir receives exported animations. Empty means the working
	// directory.
	OutDir string
	// OnExport, when set, replaces writing the asset to OutDir.
	OnExport func(asset *AnimationAsset, req ExportRequest) error
	// ScreenshotDir receives script screenshots. Empty means
	// "screenshots".
	ScreenshotDir string
	// ExitWhenScriptDone closes the window once an attached script
	// finishes.
	ExitWhenScriptDone bool
}

// Viewer is an interactive ebiten host for a sunscope scene. It renders the
// scene on a SoftwareSurface, draws decluttered building labels on top and
// runs exports in the background against the same surface.
//
// Keys: arrows or drag orbit, +/- or wheel zoom, [ ] step the hour, Tab
// cycles the selected building, D toggles decluttering, E exports, Esc
// cancels an export, R resets the camera.
type Viewer struct {
	cfg      *Config
	opts     ViewerOptions
	scene    *Scene
	camera   *Camera
	surface  *SoftwareSurface
	exporter *Exporter
	labels   *Declutterer
	font     *LabelFont
	input    *viewerInput
	fps      fpsCounter

	date     time.Time
	hour     float64
	homeDist float64
	sunUp    bool
	frame    frameTexture
	raster   *image.RGBA
	visible  []Label

	injectQueue []syntheticInput
	script      *ScriptRunner

	job    *ExportJob
	jobReq ExportRequest
	status string
}

// NewViewer builds the scene from cfg and prepares a viewer for it.
func NewViewer(cfg *Config, opts ViewerOptions) (*Viewer, error) {
	if cfg == nil {
		c := DefaultConfig()
		cfg = &c
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Width <= 0 {
		opts.Width = cfg.Export.Width
	}
	if opts.Height <= 0 {
		opts.Height = cfg.Export.Height
	}
	loc, err := cfg.TimeLocation()
	if err != nil {
		return nil, err
	}
	date := opts.Date
	if date.IsZero() {
		date = time.Now().In(loc)
	}
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)

	exp, err := cfg.NewExporter()
	if err != nil {
		return nil, err
	}
	font, err := LoadLabelFont(goregular.TTF, 13)
	if err != nil {
		return nil, err
	}

	scene, reg := cfg.BuildScene()
	viewport := Rect{Width: float64(opts.Width), Height: float64(opts.Height)}
	cam := NewCamera(viewport)
	cam.FrameScene(scene, DefaultAzimuth, DefaultElevation)
	_, _, homeDist := cam.Spherical()

	hour := opts.Hour
	if hour == 0 {
		noon := solar.TimesFor(date, cfg.Location.Latitude, cfg.Location.Longitude).SolarNoon
		hour = float64(noon.Hour()) + float64(noon.Minute())/60
	}

	v := &Viewer{
		cfg:      cfg,
		opts:     opts,
		scene:    scene,
		camera:   cam,
		surface:  NewSoftwareSurface(opts.Width, opts.Height),
		exporter: exp,
		labels:   NewDeclutterer(cfg.Declutter, reg),
		font:     font,
		input:    newViewerInput(),
		date:     date,
		hour:     hour,
		homeDist: homeDist,
	}
	v.applySun()
	return v, nil
}

// Scene returns the viewer's scene.
func (v *Viewer) Scene() *Scene { return v.scene }

// Camera returns the viewer's camera.
func (v *Viewer) Camera() *Camera { return v.camera }

// Run opens the window and blocks until it is closed.
func (v *Viewer) Run(title string) error {
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(v.opts.Width, v.opts.Height)
	return ebiten.RunGame(v)
}

// Update implements ebiten.Game.
func (v *Viewer) Update() error {
	dt := 1.0 / float64(ebiten.TPS())
	busy := v.exporter.Busy(v.surface)

	if v.script != nil {
		v.script.step(v)
	}
	var delta cameraDelta
	if in, ok := v.nextInjected(); ok {
		delta = v.applyInjected(in, busy)
	} else {
		var actions []viewerAction
		delta, actions = v.input.poll(busy)
		for _, a := range actions {
			v.handle(a)
		}
	}

	v.pollJob()

	// An export started this tick already owns the camera and surface.
	busy = v.job != nil || v.exporter.Busy(v.surface)
	if !busy {
		delta.apply(v.camera)
		v.camera.Update(float32(dt))
	}

	// Label positions taken while an export has the surface resized are
	// meaningless.
	if busy {
		v.visible = v.visible[:0]
	} else {
		labels, _ := v.labels.Tick(time.Now(), v.camera)
		v.visible = v.visible[:0]
		for _, l := range labels {
			if l.Visible {
				v.visible = append(v.visible, l)
			}
		}
	}
	v.fps.update(dt)
	if v.script != nil && v.script.Done() {
		if err := v.script.Err(); err != nil {
			return err
		}
		if v.opts.ExitWhenScriptDone {
			return ebiten.Termination
		}
	}
	return nil
}

func (v *Viewer) handle(a viewerAction) {
	switch a {
	case actionNextLabel:
		v.cycleSelection(1)
	case actionPrevLabel:
		v.cycleSelection(-1)
	case actionExport:
		v.startExport()
	case actionCancelExport:
		if v.job != nil {
			v.job.Cancel()
		}
	case actionResetCamera:
		v.camera.OrbitTo(DefaultAzimuth, DefaultElevation, v.homeDist, 0.6, ease.OutCubic)
	case actionHourForward:
		v.hour = math.Min(24, v.hour+hourStep)
		v.applySun()
	case actionHourBack:
		v.hour = math.Max(0, v.hour-hourStep)
		v.applySun()
	case actionToggleDeclutter:
		cfg := v.labels.Config()
		cfg.Enabled = !cfg.Enabled
		v.labels.SetConfig(cfg)
	}
}

// cycleSelection moves the selection through the anchors in input order,
// with one extra stop at "nothing selected".
func (v *Viewer) cycleSelection(step int) {
	ids := v.labels.Registry().IDs()
	if len(ids) == 0 {
		return
	}
	cur := -1
	sel := v.labels.Selected()
	for i, id := range ids {
		if id == sel {
			cur = i
			break
		}
	}
	n := len(ids) + 1
	next := ((cur+1+step)%n+n)%n - 1
	if next < 0 {
		v.labels.SetSelected("")
		return
	}
	v.labels.SetSelected(ids[next])
}

// applySun points the scene light for the current hour.
func (v *Viewer) applySun() {
	t := atHour(v.date, v.hour)
	sun := SunVectorFrom(solar.PositionAt(t, v.cfg.Location.Latitude, v.cfg.Location.Longitude))
	v.sunUp = sun.Up()
	v.surface.Lock()
	v.exporter.Mutator.Apply(v.scene.Light, v.scene.Center(), sun)
	v.surface.Unlock()
}

func (v *Viewer) startExport() {
	if v.job != nil {
		return
	}
	req := v.cfg.Request(v.surface, v.scene, v.camera, v.date)
	job, err := v.exporter.Start(context.Background(), req)
	if err != nil {
		v.status = err.Error()
		Logger().Warn("export not started", "error", err)
		return
	}
	v.job = job
	v.jobReq = req
	v.status = StageValidating
}

func (v *Viewer) pollJob() {
	if v.job == nil {
		return
	}
	select {
	case <-v.job.Done():
	default:
		p := v.job.Latest()
		v.status = fmt.Sprintf("%s (%.0f%%)", p.Stage, p.Fraction*100)
		return
	}
	job := v.job
	v.job = nil
	asset, err := job.Wait()
	if err != nil {
		v.status = job.Latest().Message
		return
	}
	if err := v.saveAsset(asset); err != nil {
		v.status = "Save failed: " + err.Error()
		Logger().Warn("save export", "error", err)
		return
	}
	v.status = fmt.Sprintf("Exported %d frames", asset.FrameCount)
	// The export restored the light it started with; reapply in case the
	// hour changed meanwhile.
	v.applySun()
}

func (v *Viewer) saveAsset(asset *AnimationAsset) error {
	if v.opts.OnExport != nil {
		return v.opts.OnExport(asset, v.jobReq)
	}
	path := filepath.Join(v.opts.OutDir, v.jobReq.Filename(asset.Ext))
	if err := os.WriteFile(path, asset.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	Logger().Info("export saved", "path", path, "bytes", len(asset.Data))
	return nil
}

// Draw implements ebiten.Game.
func (v *Viewer) Draw(screen *ebiten.Image) {
	v.renderFrame()
	v.frame.drawTo(screen)
	for _, l := range v.visible {
		v.drawLabel(screen, l)
	}
	v.drawHUD(screen)
}

// renderFrame redraws the software surface into v.frame. While an export
// holds the surface the previous frame is kept.
func (v *Viewer) renderFrame() {
	if !v.surface.TryLock() {
		return
	}
	defer v.surface.Unlock()
	if err := v.surface.Render(v.scene, v.camera); err != nil {
		Logger().Warn("render", "error", err)
		return
	}
	v.raster = v.surface.Raster()
	v.frame.upload(v.raster)
}

// screenshot writes the last rendered frame, without labels, to the
// screenshot directory as <label>.png.
func (v *Viewer) screenshot(label string) error {
	if v.raster == nil {
		return fmt.Errorf("sunscope: screenshot %q: nothing rendered yet", label)
	}
	dir := v.opts.ScreenshotDir
	if dir == "" {
		dir = "screenshots"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	path := filepath.Join(dir, sanitizeLabel(label)+".png")
	if err := writePNG(path, v.raster); err != nil {
		return err
	}
	Logger().Info("screenshot saved", "path", path)
	return nil
}

func (v *Viewer) drawLabel(screen *ebiten.Image, l Label) {
	r := l.Rect()
	fill, fg := labelFill, labelText
	if l.Selected {
		fill, fg = labelSelected, labelTextDark
	}
	fillRect(screen, r, fill)
	// Stem down to the anchor.
	fillRect(screen, Rect{X: l.Screen.X - 1, Y: r.Y + r.Height - 2, Width: 2, Height: 2}, fill)
	name := l.Name
	if name == "" {
		name = l.AnchorID
	}
	v.font.drawCentered(screen, name, r, fg)
}

func (v *Viewer) drawHUD(screen *ebiten.Image) {
	clock := atHour(v.date, v.hour).Format("Mon 02 Jan 2006 15:04")
	if !v.sunUp {
		clock += " (night)"
	}
	ebitenutil.DebugPrintAt(screen, clock, 6, 4)
	ebitenutil.DebugPrintAt(screen, v.fps.line, 6, 20)
	if v.status != "" {
		ebitenutil.DebugPrintAt(screen, v.status, 6, v.opts.Height-20)
	}
	if v.job != nil {
		p := v.job.Latest()
		w := float64(v.opts.Width) - 12
		track := Rect{X: 6, Y: float64(v.opts.Height) - 30, Width: w, Height: 6}
		fillRect(screen, track, progressTrack)
		track.Width = w * clamp01(p.Fraction)
		fillRect(screen, track, progressFill)
	}
}

// fillRect draws a solid rectangle by scaling whitePixel.
func fillRect(dst *ebiten.Image, r Rect, c Color) {
	if r.Width <= 0 || r.Height <= 0 {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(r.Width, r.Height)
	op.GeoM.Translate(r.X, r.Y)
	op.ColorScale.Scale(float32(c.R*c.A), float32(c.G*c.A), float32(c.B*c.A), float32(c.A))
	dst.DrawImage(whitePixel, op)
}

// Layout implements ebiten.Game.
func (v *Viewer) Layout(_, _ int) (int, int) {
	return v.opts.Width, v.opts.Height
}
