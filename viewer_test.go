package sunscope

import (
	"testing"
	"time"
)

func newTestViewer(t *testing.T) *Viewer {
	t.Helper()
	cfg, err := SampleSite()
	if err != nil {
		t.Fatal(err)
	}
	cfg.Export.Width, cfg.Export.Height = 64, 48
	cfg.Export.StartHour, cfg.Export.EndHour = hours(10), hours(14)
	cfg.Export.FrameIntervalMinutes = 120
	v, err := NewViewer(cfg, ViewerOptions{
		Width:  640,
		Height: 480,
		Date:   time.Date(2024, 6, 21, 0, 0, 0, 0, ist),
		Hour:   12,
		OnExport: func(*AnimationAsset, ExportRequest) error {
			return nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestViewerExportTickSuppressesLabels(t *testing.T) {
	v := newTestViewer(t)

	v.InjectOrbit(0, 0, 1, 1)
	if err := v.Update(); err != nil {
		t.Fatal(err)
	}
	if len(v.visible) == 0 {
		t.Fatal("no labels visible before the export")
	}
	pose := v.camera.Position

	v.InjectExport()
	if err := v.Update(); err != nil {
		t.Fatal(err)
	}
	job := v.job
	if job == nil {
		t.Fatalf("export not started: %s", v.status)
	}
	t.Cleanup(func() { job.Wait() })

	if len(v.visible) != 0 {
		t.Errorf("%d labels published on the tick that started the export", len(v.visible))
	}
	if v.camera.Position != pose {
		t.Errorf("camera moved to %v while the export starts", v.camera.Position)
	}
}

func TestViewerResumesAfterExport(t *testing.T) {
	v := newTestViewer(t)
	v.InjectExport()
	if err := v.Update(); err != nil {
		t.Fatal(err)
	}
	if v.job == nil {
		t.Fatalf("export not started: %s", v.status)
	}
	if _, err := v.job.Wait(); err != nil {
		t.Fatalf("export: %v", err)
	}

	v.InjectOrbit(0.2, 0, 1, 1)
	if err := v.Update(); err != nil {
		t.Fatal(err)
	}
	if v.job != nil {
		t.Error("finished job still attached")
	}
	if v.status != "Exported 3 frames" {
		t.Errorf("status = %q, want Exported 3 frames", v.status)
	}
	az, _, _ := v.camera.Spherical()
	if !approxEqual(az, DefaultAzimuth+0.2, 1e-9) {
		t.Errorf("azimuth = %v, want the orbit applied after the export", az)
	}
}
