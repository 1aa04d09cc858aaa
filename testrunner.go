package sunscope

import (
	"encoding/json"
	"fmt"
	"math"
)

// scriptStep is a single action in a viewer script.
type scriptStep struct {
	Action    string  `json:"action"`
	Label     string  `json:"label,omitempty"`
	ID        string  `json:"id,omitempty"`
	Hour      float64 `json:"hour,omitempty"`
	Azimuth   float64 `json:"azimuth,omitempty"`   // degrees
	Elevation float64 `json:"elevation,omitempty"` // degrees
	Zoom      float64 `json:"zoom,omitempty"`
	Frames    int     `json:"frames,omitempty"`
}

// viewerScript is the top-level JSON structure for a viewer script.
type viewerScript struct {
	Steps []scriptStep `json:"steps"`
}

// scriptTarget is what a ScriptRunner drives. Viewer implements it.
type scriptTarget interface {
	pendingInputs() int
	exporting() bool
	screenshot(label string) error
	injectStep(st scriptStep)
}

// ScriptRunner plays a scripted sequence of viewer inputs, waits and
// screenshots across frames, for reproducible visual checks of a site.
//
// Steps: "orbit" (azimuth, elevation in degrees, zoom, frames), "hour",
// "select" (id), "export", "await_export", "wait" (frames) and
// "screenshot" (label).
type ScriptRunner struct {
	steps     []scriptStep
	cursor    int
	waitCount int
	done      bool
	err       error
}

// LoadScript parses a JSON viewer script.
func LoadScript(jsonData []byte) (*ScriptRunner, error) {
	var script viewerScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("parse viewer script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse viewer script: no steps")
	}
	for i, st := range script.Steps {
		switch st.Action {
		case "orbit", "hour", "select", "export", "await_export", "wait", "screenshot":
		default:
			return nil, fmt.Errorf("parse viewer script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &ScriptRunner{steps: script.Steps}, nil
}

// Done reports whether every step has run.
func (r *ScriptRunner) Done() bool {
	return r.done
}

// Err returns the first screenshot error, if any.
func (r *ScriptRunner) Err() error {
	return r.err
}

// step advances the runner by one frame.
func (r *ScriptRunner) step(t scriptTarget) {
	if r.done {
		return
	}
	// Let queued inputs drain before advancing.
	if t.pendingInputs() > 0 {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	if st.Action == "await_export" && t.exporting() {
		return
	}
	r.cursor++

	switch st.Action {
	case "screenshot":
		if err := t.screenshot(st.Label); err != nil && r.err == nil {
			r.err = err
		}
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	case "await_export":
	default:
		t.injectStep(st)
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 && t.pendingInputs() == 0 {
		r.done = true
	}
}

// SetScript attaches a script runner; it advances once per Update.
func (v *Viewer) SetScript(r *ScriptRunner) {
	v.script = r
}

func (v *Viewer) pendingInputs() int { return len(v.injectQueue) }

func (v *Viewer) exporting() bool { return v.job != nil }

func (v *Viewer) injectStep(st scriptStep) {
	switch st.Action {
	case "orbit":
		v.InjectOrbit(st.Azimuth*math.Pi/180, st.Elevation*math.Pi/180, st.Zoom, st.Frames)
	case "hour":
		v.InjectHour(st.Hour)
	case "select":
		v.InjectSelect(st.ID)
	case "export":
		v.InjectExport()
	}
}
