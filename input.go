package sunscope

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const (
	defaultDragDeadZone = 4.0 // pixels
	orbitRadPerPixel    = 0.008
	orbitRadPerTick     = 0.025
	dollyPerWheelStep   = 0.9
	dollyPerTick        = 0.98
	hourStep            = 0.25
)

// viewerAction is a discrete command produced by one tick of input.
type viewerAction uint8

const (
	actionNone viewerAction = iota
	actionNextLabel
	actionPrevLabel
	actionExport
	actionCancelExport
	actionResetCamera
	actionHourForward
	actionHourBack
	actionToggleDeclutter
)

// pointerState tracks a left-button drag on the viewer.
type pointerState struct {
	down     bool
	startX   float64
	startY   float64
	lastX    float64
	lastY    float64
	dragging bool
}

// cameraDelta is continuous camera movement requested this tick.
type cameraDelta struct {
	azimuth, elevation float64
	dolly              float64 // multiplicative; 1 means no change
}

// viewerInput turns keyboard and mouse state into camera moves and
// actions.
type viewerInput struct {
	pointer  pointerState
	deadZone float64
}

func newViewerInput() *viewerInput {
	return &viewerInput{deadZone: defaultDragDeadZone}
}

// poll reads this tick's input. Camera movement is suppressed when locked.
func (in *viewerInput) poll(locked bool) (cameraDelta, []viewerAction) {
	d := cameraDelta{dolly: 1}
	var actions []viewerAction

	just := func(k ebiten.Key, a viewerAction) {
		if inpututil.IsKeyJustPressed(k) {
			actions = append(actions, a)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		if ebiten.IsKeyPressed(ebiten.KeyShift) {
			actions = append(actions, actionPrevLabel)
		} else {
			actions = append(actions, actionNextLabel)
		}
	}
	just(ebiten.KeyE, actionExport)
	just(ebiten.KeyEscape, actionCancelExport)
	just(ebiten.KeyD, actionToggleDeclutter)
	if !locked {
		just(ebiten.KeyR, actionResetCamera)
		just(ebiten.KeyBracketRight, actionHourForward)
		just(ebiten.KeyBracketLeft, actionHourBack)
	}

	mx, my := ebiten.CursorPosition()
	x, y := float64(mx), float64(my)
	p := &in.pointer
	pressed := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	switch {
	case pressed && !p.down:
		*p = pointerState{down: true, startX: x, startY: y, lastX: x, lastY: y}
	case pressed && p.down:
		if !p.dragging && math.Hypot(x-p.startX, y-p.startY) > in.deadZone {
			p.dragging = true
		}
		if p.dragging && !locked {
			d.azimuth -= (x - p.lastX) * orbitRadPerPixel
			d.elevation += (y - p.lastY) * orbitRadPerPixel
		}
		p.lastX, p.lastY = x, y
	case !pressed && p.down:
		*p = pointerState{}
	}

	if locked {
		return d, actions
	}
	if ebiten.IsKeyPressed(ebiten.KeyLeft) {
		d.azimuth -= orbitRadPerTick
	}
	if ebiten.IsKeyPressed(ebiten.KeyRight) {
		d.azimuth += orbitRadPerTick
	}
	if ebiten.IsKeyPressed(ebiten.KeyUp) {
		d.elevation += orbitRadPerTick
	}
	if ebiten.IsKeyPressed(ebiten.KeyDown) {
		d.elevation -= orbitRadPerTick
	}
	if ebiten.IsKeyPressed(ebiten.KeyEqual) {
		d.dolly *= dollyPerTick
	}
	if ebiten.IsKeyPressed(ebiten.KeyMinus) {
		d.dolly /= dollyPerTick
	}
	if _, wy := ebiten.Wheel(); wy != 0 {
		d.dolly *= math.Pow(dollyPerWheelStep, wy)
	}
	return d, actions
}

// apply moves cam by d.
func (d cameraDelta) apply(cam *Camera) {
	if d.azimuth != 0 || d.elevation != 0 {
		cam.Orbit(d.azimuth, d.elevation)
	}
	if d.dolly != 1 {
		cam.Dolly(d.dolly)
	}
}
