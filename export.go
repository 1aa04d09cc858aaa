package sunscope

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phanxgames/sunscope/solar"
)

// JobState is the lifecycle state of an export job.
type JobState uint8

const (
	JobIdle JobState = iota
	JobValidating
	JobSampling
	JobRendering
	JobEncoding
	JobComplete
	JobFailed
)

var jobStateNames = [...]string{
	JobIdle:       "idle",
	JobValidating: "validating",
	JobSampling:   "sampling",
	JobRendering:  "rendering",
	JobEncoding:   "encoding",
	JobComplete:   "complete",
	JobFailed:     "failed",
}

func (s JobState) String() string {
	if int(s) < len(jobStateNames) {
		return jobStateNames[s]
	}
	return fmt.Sprintf("JobState(%d)", uint8(s))
}

// Terminal reports whether no further transitions follow s.
func (s JobState) Terminal() bool {
	return s == JobComplete || s == JobFailed
}

// Stage labels carried by Progress events.
const (
	StageValidating = "Validating"
	StageSampling   = "Computing sun positions"
	StageEncoding   = "Encoding animation"
	StageComplete   = "Complete"
	StageFailed     = "Failed"
)

// Share of the progress bar spent rendering; encoding fills the rest.
const renderShare = 0.8

// Progress is one event on an export job's stream.
type Progress struct {
	// Fraction is in [0, 1] and never decreases within a job.
	Fraction float64
	Stage    string
	State    JobState
	// Frame is the number of frames rendered so far out of Frames.
	Frame, Frames int
	// Err and Message are set on the terminal event of a failed job.
	Err     error
	Message string
}

// Frame is one composited export frame.
type Frame struct {
	Index    int
	Time     time.Time
	Progress float64
	Image    *image.RGBA
}

// ExportRequest describes one export.
type ExportRequest struct {
	Surface Surface
	Scene   *Scene
	Camera  *Camera

	// Date selects the day; its location is the clock the window is
	// expressed in.
	Date     time.Time
	Lat, Lon float64
	// StartHour and EndHour bound the window. Nil uses the sunrise or
	// sunset hour.
	StartHour, EndHour *float64
	Interval           time.Duration

	// Width and Height are the output size in pixels.
	Width, Height int
	// PixelRatio supersamples each frame. Zero means 1.
	PixelRatio float64
	// Background overrides the surface clear color for the export.
	Background *Color

	// FrameDir, when set, receives every composited frame as a PNG.
	FrameDir       string
	FilenamePrefix string
}

// Filename returns the download name of an asset produced by this request.
func (r ExportRequest) Filename(ext string) string {
	prefix := r.FilenamePrefix
	if prefix == "" {
		prefix = defaultFilenamePrefix
	}
	return AssetFilename(prefix, r.Date, ext)
}

func (r ExportRequest) validate() error {
	switch {
	case r.Surface == nil:
		return &ValidationError{Field: "surface", Reason: "missing"}
	case r.Scene == nil:
		return &ValidationError{Field: "scene", Reason: "missing"}
	case r.Scene.Light == nil:
		return &ValidationError{Field: "scene", Reason: "no directional light"}
	case r.Camera == nil:
		return &ValidationError{Field: "camera", Reason: "missing"}
	case r.Date.IsZero():
		return &ValidationError{Field: "date", Reason: "missing"}
	case r.Width <= 0 || r.Height <= 0:
		return &ValidationError{Field: "size", Reason: fmt.Sprintf("%dx%d", r.Width, r.Height)}
	case r.Interval <= 0:
		return &ValidationError{Field: "interval", Reason: fmt.Sprintf("must be positive, got %v", r.Interval)}
	case r.PixelRatio < 0 || math.IsNaN(r.PixelRatio):
		return &ValidationError{Field: "pixel ratio", Reason: fmt.Sprintf("%v", r.PixelRatio)}
	case math.IsNaN(r.Lat) || r.Lat < -90 || r.Lat > 90:
		return &ValidationError{Field: "latitude", Reason: fmt.Sprintf("%v out of range", r.Lat)}
	case math.IsNaN(r.Lon) || r.Lon < -180 || r.Lon > 180:
		return &ValidationError{Field: "longitude", Reason: fmt.Sprintf("%v out of range", r.Lon)}
	}
	for _, h := range []*float64{r.StartHour, r.EndHour} {
		if h != nil && (math.IsNaN(*h) || *h < 0 || *h > 24) {
			return &ValidationError{Field: "window", Reason: fmt.Sprintf("hour %v outside 0-24", *h)}
		}
	}
	return nil
}

// Exporter runs export jobs. The zero value is usable: missing parts fall
// back to solar.Calculator, NewGIFEncoder, NewCompositor and
// NewSunMutator.
type Exporter struct {
	Solar      SolarProvider
	Encoder    *GIFEncoder
	Compositor *Compositor
	Mutator    SunMutator
	// Logger overrides the package logger.
	Logger *slog.Logger
}

// NewExporter returns an exporter with the default encoder, compositor and
// mutator.
func NewExporter() (*Exporter, error) {
	comp, err := NewCompositor()
	if err != nil {
		return nil, err
	}
	return &Exporter{
		Solar:      solar.Calculator{},
		Encoder:    NewGIFEncoder(),
		Compositor: comp,
		Mutator:    NewSunMutator(),
	}, nil
}

func (e *Exporter) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return Logger()
}

// Busy reports whether an export is running against surf.
func (e *Exporter) Busy(surf Surface) bool {
	if surf == nil {
		return false
	}
	return activeExports.busy(surf.ID())
}

// Start validates req and launches the export in its own goroutine.
// Validation failures and a busy surface return *ValidationError before any
// state is touched. Everything after that, including missing sun data, is
// reported through the job.
//
// Cancelling ctx aborts the job at the next frame boundary; the surface is
// restored either way.
func (e *Exporter) Start(ctx context.Context, req ExportRequest) (*ExportJob, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	comp := e.Compositor
	if comp == nil {
		var err error
		if comp, err = NewCompositor(); err != nil {
			return nil, err
		}
	}
	enc := e.Encoder
	if enc == nil {
		enc = NewGIFEncoder()
	}
	sp := e.Solar
	if sp == nil {
		sp = solar.Calculator{}
	}
	mut := e.Mutator
	if mut == (SunMutator{}) {
		mut = NewSunMutator()
	}

	id := uuid.NewString()
	surfID := req.Surface.ID()
	if !activeExports.acquire(surfID, id) {
		return nil, &ValidationError{Field: "surface", Err: ErrExportInProgress}
	}

	ctx, cancel := context.WithCancel(ctx)
	j := &ExportJob{
		id:        id,
		surfaceID: surfID,
		req:       req,
		solar:     sp,
		encoder:   enc,
		comp:      comp,
		mutator:   mut,
		log:       e.logger().With("job", id, "surface", surfID),
		cancel:    cancel,
		events:    make(chan Progress, eventBuffer),
		done:      make(chan struct{}),
	}
	go j.run(ctx)
	return j, nil
}

// Run starts an export, passes every event to fn (which may be nil) and
// blocks until the job ends.
func (e *Exporter) Run(ctx context.Context, req ExportRequest, fn func(Progress)) (*AnimationAsset, error) {
	j, err := e.Start(ctx, req)
	if err != nil {
		return nil, err
	}
	for p := range j.Events() {
		if fn != nil {
			fn(p)
		}
	}
	return j.Wait()
}

const eventBuffer = 64

// ExportJob is a running or finished export.
type ExportJob struct {
	id        string
	surfaceID string
	req       ExportRequest
	solar     SolarProvider
	encoder   *GIFEncoder
	comp      *Compositor
	mutator   SunMutator
	log       *slog.Logger
	cancel    context.CancelFunc

	events chan Progress
	done   chan struct{}

	mu     sync.Mutex
	state  JobState
	latest Progress
	asset  *AnimationAsset
	err    error
	stats  exportStats
}

// ID returns the job's unique identifier.
func (j *ExportJob) ID() string { return j.id }

// State returns the current state.
func (j *ExportJob) State() JobState {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Latest returns the most recent event.
func (j *ExportJob) Latest() Progress {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.latest
}

// Events returns the progress stream. Slow readers see the newest events:
// when the buffer is full the oldest pending event is dropped. The terminal
// event is always delivered, then the channel is closed.
func (j *ExportJob) Events() <-chan Progress { return j.events }

// Done is closed when the job ends.
func (j *ExportJob) Done() <-chan struct{} { return j.done }

// Cancel aborts the job at the next frame boundary.
func (j *ExportJob) Cancel() { j.cancel() }

// Wait blocks until the job ends and returns its asset or error. A failed
// job never returns a partial asset.
func (j *ExportJob) Wait() (*AnimationAsset, error) {
	<-j.done
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.asset, j.err
}

func (j *ExportJob) setState(s JobState) {
	j.mu.Lock()
	j.state = s
	j.mu.Unlock()
}

// emit records p as the latest event and queues it. Fractions are clamped
// so the stream never moves backwards.
func (j *ExportJob) emit(p Progress) {
	j.mu.Lock()
	p.State = j.state
	if p.Fraction < j.latest.Fraction {
		p.Fraction = j.latest.Fraction
	}
	if p.Frames == 0 {
		p.Frames = j.latest.Frames
	}
	j.latest = p
	j.mu.Unlock()

	select {
	case j.events <- p:
		return
	default:
	}
	// Full: drop the oldest. This goroutine is the only sender, so a slot
	// is free afterwards.
	select {
	case <-j.events:
	default:
	}
	select {
	case j.events <- p:
	default:
	}
}

func (j *ExportJob) run(ctx context.Context) {
	defer j.cancel()
	started := time.Now()
	asset, err := j.execute(ctx)

	j.mu.Lock()
	j.stats.total = time.Since(started)
	stats := j.stats
	if err != nil {
		j.state = JobFailed
		j.err = err
	} else {
		j.state = JobComplete
		j.asset = asset
	}
	j.mu.Unlock()
	// The surface frees up only once State is terminal.
	activeExports.release(j.surfaceID, j.id)

	if err != nil {
		j.log.Warn("export failed", "error", err, "elapsed", stats.total)
		j.emit(Progress{Stage: StageFailed, Err: err, Message: failureMessage(err), Frame: stats.frames})
	} else {
		j.log.Info("export complete",
			"frames", asset.FrameCount,
			"bytes", len(asset.Data),
			"duration", asset.TotalDuration,
			"elapsed", stats.total)
		j.emit(Progress{Fraction: 1, Stage: StageComplete, Frame: asset.FrameCount, Frames: asset.FrameCount})
	}
	stats.log(j.log)
	close(j.events)
	close(j.done)
}

func (j *ExportJob) execute(ctx context.Context) (*AnimationAsset, error) {
	req := j.req

	j.setState(JobValidating)
	j.emit(Progress{Stage: StageValidating})
	checkSceneShape(j.log, req.Scene)
	if err := ctx.Err(); err != nil {
		return nil, canceled(err)
	}

	j.setState(JobSampling)
	j.emit(Progress{Stage: StageSampling})
	t0 := time.Now()
	times, err := SunTimes(j.solar, req.Date, req.Lat, req.Lon)
	if err != nil {
		return nil, err
	}
	startHour, endHour := ResolveWindow(times, req.Date, req.StartHour, req.EndHour)
	stamps, err := Schedule(req.Date, startHour, endHour, req.Interval)
	if err != nil {
		return nil, err
	}
	suns := make([]SunVector, len(stamps))
	for i, t := range stamps {
		suns[i] = SunVectorFrom(j.solar.Position(t, req.Lat, req.Lon))
	}
	j.mu.Lock()
	j.stats.sampling = time.Since(t0)
	j.mu.Unlock()

	n := len(stamps)
	j.log.Info("export started",
		"frames", n,
		"date", req.Date.Format(time.DateOnly),
		"window", formatHour(startHour)+"-"+formatHour(endHour),
		"size", fmt.Sprintf("%dx%d", req.Width, req.Height))

	j.setState(JobRendering)
	j.emit(Progress{Fraction: 0, Stage: renderStage(0, n), Frames: n})

	restoreLight := j.saveLight()
	defer restoreLight()

	center := req.Scene.Center()
	ratio := req.PixelRatio
	if ratio <= 0 {
		ratio = 1
	}
	images := make([]*image.RGBA, 0, n)
	for i, t := range stamps {
		if err := ctx.Err(); err != nil {
			return nil, canceled(err)
		}
		f, err := j.renderFrame(i, t, n, suns[i], center, ratio, startHour, endHour)
		if err != nil {
			return nil, err
		}
		images = append(images, f.Image)
		j.emit(Progress{
			Fraction: renderShare * float64(i+1) / float64(n),
			Stage:    renderStage(i+1, n),
			Frame:    i + 1,
			Frames:   n,
		})
		runtime.Gosched()
	}

	j.setState(JobEncoding)
	j.emit(Progress{Fraction: renderShare, Stage: StageEncoding, Frame: n, Frames: n})
	t0 = time.Now()
	asset, err := j.encoder.Encode(ctx, images, func(p float64) {
		j.emit(Progress{Fraction: renderShare + (1-renderShare)*p, Stage: StageEncoding, Frame: n, Frames: n})
	})
	j.mu.Lock()
	j.stats.encoding = time.Since(t0)
	j.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if asset.FrameCount != n {
		return nil, &EncodingError{Frame: -1, Err: fmt.Errorf("encoded %d frames, want %d", asset.FrameCount, n)}
	}
	return asset, nil
}

// renderFrame applies the sun, captures and composites frame i. The surface
// stays locked from the light change through the capture so the viewer
// never draws a half-configured frame.
func (j *ExportJob) renderFrame(i int, t time.Time, n int, sun SunVector, center Vec3, ratio, startHour, endHour float64) (Frame, error) {
	req := j.req
	t0 := time.Now()

	raw, err := j.withSurface(func() (*image.RGBA, error) {
		j.mutator.Apply(req.Scene.Light, center, sun)
		return capture(req.Surface, req.Scene, req.Camera, req.Width, req.Height, ratio, req.Background)
	})
	if err != nil {
		return Frame{}, &RenderError{Frame: i, Err: err}
	}
	t1 := time.Now()

	progress := 1.0
	if n > 1 {
		progress = float64(i) / float64(n-1)
	}
	img, err := j.comp.Compose(raw, OverlayInfo{
		Time:      t,
		Date:      req.Date,
		Progress:  progress,
		StartHour: startHour,
		EndHour:   endHour,
	})
	if err != nil {
		return Frame{}, &RenderError{Frame: i, Err: err}
	}
	t2 := time.Now()

	if req.FrameDir != "" {
		prefix := req.FilenamePrefix
		if prefix == "" {
			prefix = defaultFilenamePrefix
		}
		if _, err := writeFramePNG(req.FrameDir, prefix, i, t, img); err != nil {
			return Frame{}, &RenderError{Frame: i, Err: err}
		}
	}

	j.mu.Lock()
	j.stats.rendering += t1.Sub(t0)
	j.stats.composing += t2.Sub(t1)
	j.stats.frames++
	j.mu.Unlock()

	j.log.Debug("frame rendered",
		"frame", i,
		"time", t.Format("15:04"),
		"altitude", sun.Altitude*180/math.Pi,
		"azimuth", sun.Azimuth*180/math.Pi,
		"render", t1.Sub(t0),
		"compose", t2.Sub(t1))
	return Frame{Index: i, Time: t, Progress: progress, Image: img}, nil
}

// withSurface runs fn with the surface locked when it supports locking.
func (j *ExportJob) withSurface(fn func() (*image.RGBA, error)) (*image.RGBA, error) {
	if l, ok := j.req.Surface.(sync.Locker); ok {
		l.Lock()
		defer l.Unlock()
	}
	return fn()
}

// saveLight snapshots the scene light and returns a func that puts it back.
func (j *ExportJob) saveLight() func() {
	light := j.req.Scene.Light
	saved := *light
	return func() {
		if l, ok := j.req.Surface.(sync.Locker); ok {
			l.Lock()
			defer l.Unlock()
		}
		*light = saved
	}
}

func renderStage(i, n int) string {
	if i < 1 {
		i = 1
	}
	return fmt.Sprintf("Rendering frame %d/%d", i, n)
}

func canceled(err error) error {
	return fmt.Errorf("sunscope: export canceled: %w", err)
}

// failureMessage turns a job error into a sentence for the user.
func failureMessage(err error) string {
	var (
		de *DataError
		ee *EmptyResultError
		ve *ValidationError
		re *RenderError
		ce *EncodingError
	)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "Export canceled."
	case errors.As(err, &de):
		return fmt.Sprintf("The sun does not rise or set on %s at this location.", de.Date)
	case errors.As(err, &ee):
		return fmt.Sprintf("No frames between %s and %s. Check the time window.",
			formatHour(ee.StartHour), formatHour(ee.EndHour))
	case errors.As(err, &ve):
		return "The export settings are invalid: " + ve.Error()
	case errors.As(err, &re):
		return fmt.Sprintf("Rendering failed at frame %d.", re.Frame+1)
	case errors.As(err, &ce):
		return "The animation could not be encoded."
	}
	return "Export failed: " + err.Error()
}

// exportRegistry tracks which surfaces have a job running.
type exportRegistry struct {
	mu     sync.Mutex
	active map[string]string
}

var activeExports = &exportRegistry{active: make(map[string]string)}

func (r *exportRegistry) acquire(surfaceID, jobID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.active[surfaceID]; ok {
		return false
	}
	r.active[surfaceID] = jobID
	return true
}

func (r *exportRegistry) release(surfaceID, jobID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active[surfaceID] == jobID {
		delete(r.active, surfaceID)
	}
}

func (r *exportRegistry) busy(surfaceID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.active[surfaceID]
	return ok
}
