package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/phanxgames/sunscope"
)

type exportFlags struct {
	date        string
	start       float64
	end         float64
	interval    int
	delay       int
	width       int
	height      int
	supersample float64
	night       string
	out         string
	framesDir   string
	noProgress  bool
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var f exportFlags

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render the day's sun path as an animated GIF",
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg := *base
			if err := f.apply(cmd, &cfg); err != nil {
				return err
			}
			return runExport(cmd, &cfg, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.date, "date", "d", "", "Day to export as YYYY-MM-DD (default today)")
	flags.Float64Var(&f.start, "start", 0, "Window start hour (default sunrise hour)")
	flags.Float64Var(&f.end, "end", 0, "Window end hour (default sunset hour)")
	flags.IntVar(&f.interval, "interval", 0, "Minutes between frames")
	flags.IntVar(&f.delay, "delay", 0, "Display time per frame in milliseconds")
	flags.IntVar(&f.width, "width", 0, "Output width in pixels")
	flags.IntVar(&f.height, "height", 0, "Output height in pixels")
	flags.Float64Var(&f.supersample, "supersample", 0, "Render at this multiple of the output size")
	flags.StringVar(&f.night, "night", "", "Night behavior: freeze or preset")
	flags.StringVarP(&f.out, "out", "o", "", "Output file or directory (default working directory)")
	flags.StringVar(&f.framesDir, "frames-dir", "", "Also write every frame as a PNG here")
	flags.BoolVar(&f.noProgress, "no-progress", false, "Disable the progress bar")
	return cmd
}

// apply copies explicitly set flags over the configuration and validates
// the result.
func (f exportFlags) apply(cmd *cobra.Command, cfg *sunscope.Config) error {
	flags := cmd.Flags()
	if flags.Changed("start") {
		v := f.start
		cfg.Export.StartHour = &v
	}
	if flags.Changed("end") {
		v := f.end
		cfg.Export.EndHour = &v
	}
	if flags.Changed("interval") {
		cfg.Export.FrameIntervalMinutes = f.interval
	}
	if flags.Changed("delay") {
		cfg.Export.FrameDelayMs = f.delay
	}
	if flags.Changed("width") {
		cfg.Export.Width = f.width
	}
	if flags.Changed("height") {
		cfg.Export.Height = f.height
	}
	if flags.Changed("supersample") {
		cfg.Export.Supersample = f.supersample
	}
	if flags.Changed("night") {
		cfg.Export.NightMode = f.night
	}
	if f.framesDir != "" {
		cfg.Export.FrameDir = f.framesDir
	}
	return cfg.Validate()
}

func runExport(cmd *cobra.Command, cfg *sunscope.Config, f exportFlags) error {
	date, err := resolveDate(cfg, f.date)
	if err != nil {
		return err
	}

	scene, _ := cfg.BuildScene()
	w, h := cfg.Export.Width, cfg.Export.Height
	surf := sunscope.NewSoftwareSurface(w, h)
	cam := sunscope.NewCamera(sunscope.Rect{Width: float64(w), Height: float64(h)})
	cam.FrameScene(scene, sunscope.DefaultAzimuth, sunscope.DefaultElevation)

	exp, err := cfg.NewExporter()
	if err != nil {
		return err
	}
	req := cfg.Request(surf, scene, cam, date)
	target, err := outputPath(f.out, req.Filename("gif"))
	if err != nil {
		return err
	}

	lock := flock.New(target + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another export is writing %s", target)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lock.Path())
	}()

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	report := newProgressReporter(cmd.ErrOrStderr(), !f.noProgress && isTerminal(os.Stderr))
	started := time.Now()
	asset, err := exp.Run(runCtx, req, report.update)
	report.finish()
	if err != nil {
		return err
	}

	if err := os.WriteFile(target, asset.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d frames, %s playback, %d KiB) in %s\n",
		target, asset.FrameCount, asset.TotalDuration, len(asset.Data)/1024,
		time.Since(started).Round(time.Millisecond))
	return nil
}

// outputPath resolves --out: empty or an existing directory gets the
// default file name.
func outputPath(out, name string) (string, error) {
	out = strings.TrimSpace(out)
	if out == "" {
		return name, nil
	}
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		return filepath.Join(out, name), nil
	}
	dir := filepath.Dir(out)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory %q: %w", dir, err)
	}
	return out, nil
}

// progressReporter renders export progress as a bar on terminals and as
// one line per stage elsewhere.
type progressReporter struct {
	w         io.Writer
	bar       *progressbar.ProgressBar
	lastStage string
}

func newProgressReporter(w io.Writer, interactive bool) *progressReporter {
	r := &progressReporter{w: w}
	if interactive {
		r.bar = progressbar.NewOptions(100,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetWidth(30),
			progressbar.OptionSetDescription(sunscope.StageValidating),
			progressbar.OptionClearOnFinish(),
		)
	}
	return r
}

func (r *progressReporter) update(p sunscope.Progress) {
	if r.bar != nil {
		r.bar.Describe(p.Stage)
		_ = r.bar.Set(int(p.Fraction * 100))
		return
	}
	stage := p.Stage
	if strings.HasPrefix(stage, "Rendering") {
		stage = "Rendering"
	}
	if stage == r.lastStage {
		return
	}
	r.lastStage = stage
	if p.Err != nil {
		fmt.Fprintf(r.w, "%s: %s\n", stage, p.Message)
		return
	}
	fmt.Fprintf(r.w, "%s...\n", stage)
}

func (r *progressReporter) finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
}
