package sunscope

import "math"

// syntheticInput is one queued viewer input. Injected inputs are consumed
// one per tick and replace real keyboard and mouse input for that tick.
type syntheticInput struct {
	delta    cameraDelta
	action   viewerAction
	selectID *string
	hour     *float64
}

// injectAction queues a discrete viewer action. Consumes one tick.
func (v *Viewer) injectAction(a viewerAction) {
	v.injectQueue = append(v.injectQueue, syntheticInput{delta: cameraDelta{dolly: 1}, action: a})
}

// InjectExport queues an export start, as if E were pressed.
func (v *Viewer) InjectExport() {
	v.injectAction(actionExport)
}

// InjectSelect queues selecting the anchor with id. An empty id clears the
// selection.
func (v *Viewer) InjectSelect(id string) {
	v.injectQueue = append(v.injectQueue, syntheticInput{delta: cameraDelta{dolly: 1}, selectID: &id})
}

// InjectHour queues setting the time of day.
func (v *Viewer) InjectHour(hour float64) {
	h := math.Max(0, math.Min(24, hour))
	v.injectQueue = append(v.injectQueue, syntheticInput{delta: cameraDelta{dolly: 1}, hour: &h})
}

// InjectOrbit queues a camera orbit of dAzimuth and dElevation radians
// spread evenly over frames ticks, followed by zoom factor on the last
// tick. Minimum frames is 1.
func (v *Viewer) InjectOrbit(dAzimuth, dElevation, zoom float64, frames int) {
	if frames < 1 {
		frames = 1
	}
	if zoom <= 0 {
		zoom = 1
	}
	for i := 1; i <= frames; i++ {
		d := cameraDelta{
			azimuth:   dAzimuth / float64(frames),
			elevation: dElevation / float64(frames),
			dolly:     1,
		}
		if i == frames {
			d.dolly = zoom
		}
		v.injectQueue = append(v.injectQueue, syntheticInput{delta: d})
	}
}

// nextInjected pops one queued input. ok is false when the queue is empty.
func (v *Viewer) nextInjected() (in syntheticInput, ok bool) {
	if len(v.injectQueue) == 0 {
		return syntheticInput{}, false
	}
	in = v.injectQueue[0]
	copy(v.injectQueue, v.injectQueue[1:])
	v.injectQueue = v.injectQueue[:len(v.injectQueue)-1]
	return in, true
}

// applyInjected performs one synthetic input and returns its camera move
// for the caller to apply once it knows no export holds the camera.
func (v *Viewer) applyInjected(in syntheticInput, busy bool) cameraDelta {
	if in.selectID != nil {
		v.labels.SetSelected(*in.selectID)
	}
	if in.hour != nil && !busy {
		v.hour = *in.hour
		v.applySun()
	}
	if in.action != actionNone {
		v.handle(in.action)
	}
	return in.delta
}
