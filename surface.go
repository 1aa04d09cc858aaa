package sunscope

import (
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/gogpu/gg"
	"github.com/google/uuid"
)

// Surface is the shared render target used by both the interactive viewer
// and the export pipeline. Size is the logical size; the drawing buffer is
// Size * PixelRatio pixels.
//
// Implementations that also implement sync.Locker are held locked for the
// whole of a Capture scope.
type Surface interface {
	// ID identifies the surface for single-flight export locking.
	ID() string
	// Render draws the scene from the camera into the drawing buffer.
	Render(scene *Scene, cam *Camera) error
	// Size returns the logical size in pixels.
	Size() (width, height int)
	// SetSize changes the logical size. Both dimensions must be positive.
	SetSize(width, height int) error
	// PixelRatio returns the drawing buffer scale.
	PixelRatio() float64
	// SetPixelRatio changes the drawing buffer scale.
	SetPixelRatio(ratio float64)
	// Background returns the clear color.
	Background() Color
	// SetBackground changes the clear color.
	SetBackground(c Color)
	// Raster returns a copy of the drawing buffer.
	Raster() *image.RGBA
}

// SoftwareSurface is a CPU Surface backed by a gg drawing context.
//
// SoftwareSurface is not safe for concurrent use on its own: callers that
// share it across goroutines hold Lock around their Render and Raster calls
// (Capture does this automatically).
type SoftwareSurface struct {
	sync.Mutex

	id         string
	width      int
	height     int
	pixelRatio float64
	background Color

	dc      *gg.Context
	renders int
}

var _ Surface = (*SoftwareSurface)(nil)

// NewSoftwareSurface creates a surface of the given logical size at pixel
// ratio 1.
func NewSoftwareSurface(width, height int) *SoftwareSurface {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	return &SoftwareSurface{
		id:         uuid.NewString(),
		width:      width,
		height:     height,
		pixelRatio: 1,
		background: ColorSky,
		dc:         gg.NewContext(width, height),
	}
}

// ID returns the surface's unique identifier.
func (s *SoftwareSurface) ID() string {
	return s.id
}

// Size returns the logical size in pixels.
func (s *SoftwareSurface) Size() (width, height int) {
	return s.width, s.height
}

// SetSize changes the logical size. The drawing buffer is reallocated on the
// next Render.
func (s *SoftwareSurface) SetSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("sunscope: invalid surface size %dx%d", width, height)
	}
	s.width = width
	s.height = height
	return nil
}

// PixelRatio returns the drawing buffer scale.
func (s *SoftwareSurface) PixelRatio() float64 {
	return s.pixelRatio
}

// SetPixelRatio changes the drawing buffer scale. Non-positive values
// reset it to 1.
func (s *SoftwareSurface) SetPixelRatio(ratio float64) {
	if ratio <= 0 || math.IsNaN(ratio) {
		ratio = 1
	}
	s.pixelRatio = ratio
}

// Background returns the clear color.
func (s *SoftwareSurface) Background() Color {
	return s.background
}

// SetBackground changes the clear color.
func (s *SoftwareSurface) SetBackground(c Color) {
	s.background = c
}

// BufferSize returns the drawing buffer size in device pixels.
func (s *SoftwareSurface) BufferSize() (width, height int) {
	return bufferDim(s.width, s.pixelRatio), bufferDim(s.height, s.pixelRatio)
}

// Render clears the drawing buffer to the background and draws the scene.
func (s *SoftwareSurface) Render(scene *Scene, cam *Camera) error {
	if scene == nil || cam == nil {
		return fmt.Errorf("sunscope: render needs a scene and a camera")
	}
	bw, bh := s.BufferSize()
	if err := s.dc.Resize(bw, bh); err != nil {
		return fmt.Errorf("sunscope: resize drawing buffer: %w", err)
	}
	bg := s.background
	s.dc.ClearWithColor(gg.RGBA2(bg.R, bg.G, bg.B, bg.A))
	s.renders++
	return renderScene(s.dc, scene, cam, float64(bw), float64(bh))
}

// RenderCount returns the number of Render calls made so far.
func (s *SoftwareSurface) RenderCount() int {
	return s.renders
}

// Raster returns a copy of the drawing buffer.
func (s *SoftwareSurface) Raster() *image.RGBA {
	return s.dc.Image().(*image.RGBA)
}

func bufferDim(logical int, ratio float64) int {
	d := int(math.Round(float64(logical) * ratio))
	if d < 1 {
		d = 1
	}
	return d
}
