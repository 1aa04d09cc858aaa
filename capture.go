package sunscope

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/anthonynsimon/bild/transform"
)

// CaptureOptions configures one Capture.
type CaptureOptions struct {
	// Width and Height are the output size in pixels.
	Width, Height int
	// PixelRatio renders at Width*PixelRatio x Height*PixelRatio and
	// downsamples to the output size. Zero means 1.
	PixelRatio float64
	// Background, when non-nil, replaces the surface clear color for this
	// capture only.
	Background *Color
}

// surfaceState is the part of a surface that a capture changes.
type surfaceState struct {
	width, height int
	pixelRatio    float64
	background    Color
}

func saveSurfaceState(surf Surface) surfaceState {
	w, h := surf.Size()
	return surfaceState{
		width:      w,
		height:     h,
		pixelRatio: surf.PixelRatio(),
		background: surf.Background(),
	}
}

// restore puts the surface back. Every setter runs even if an earlier one
// fails.
func (st surfaceState) restore(surf Surface) error {
	surf.SetPixelRatio(st.pixelRatio)
	err := surf.SetSize(st.width, st.height)
	surf.SetBackground(st.background)
	if err != nil {
		return fmt.Errorf("sunscope: restore surface size: %w", err)
	}
	return nil
}

// Capture renders one frame of scene from cam at the requested size and
// returns it as a new image.
//
// The surface's size, pixel ratio and background are saved before anything
// changes and restored on every return path, including a failing or
// panicking Render. A render error is returned as is, after restoration.
// Surfaces implementing sync.Locker are locked for the whole capture.
//
// cam is only read: the frame is rendered from a copy with the output
// aspect, so labels may keep projecting through cam during an export.
func Capture(surf Surface, scene *Scene, cam *Camera, opts CaptureOptions) (img *image.RGBA, err error) {
	if surf == nil || scene == nil || cam == nil {
		return nil, &ValidationError{Reason: "capture needs a surface, a scene and a camera"}
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, &ValidationError{Field: "size", Reason: fmt.Sprintf("%dx%d", opts.Width, opts.Height)}
	}
	ratio := opts.PixelRatio
	if ratio <= 0 {
		ratio = 1
	}

	if l, ok := surf.(sync.Locker); ok {
		l.Lock()
		defer l.Unlock()
	}
	return capture(surf, scene, cam, opts.Width, opts.Height, ratio, opts.Background)
}

// capture does the work of Capture on an already validated request. The
// caller holds the surface lock, if any.
func capture(surf Surface, scene *Scene, cam *Camera, width, height int, ratio float64, bg *Color) (img *image.RGBA, err error) {
	saved := saveSurfaceState(surf)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sunscope: render panicked: %v", r)
		}
		if rerr := saved.restore(surf); rerr != nil {
			err = errors.Join(err, rerr)
		}
		if err != nil {
			img = nil
		}
	}()

	surf.SetPixelRatio(ratio)
	if err := surf.SetSize(width, height); err != nil {
		return nil, err
	}
	if bg != nil {
		surf.SetBackground(*bg)
	}
	view := cam.withAspect(float64(width) / float64(height))

	if err := surf.Render(scene, view); err != nil {
		return nil, err
	}

	raster := surf.Raster()
	if b := raster.Bounds(); b.Dx() != width || b.Dy() != height {
		raster = transform.Resize(raster, width, height, transform.Lanczos)
	}
	return raster, nil
}
