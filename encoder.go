package sunscope

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"runtime"
	"sync"
	"time"

	"github.com/ericpauley/go-quantize/quantize"
	"golang.org/x/sync/errgroup"
)

// AnimationAsset is an encoded animation. It is never modified after the
// encoder returns it.
type AnimationAsset struct {
	// Data is the encoded file.
	Data []byte
	// FrameCount is the number of frames in Data.
	FrameCount int
	// FrameDelay is the display time of each frame.
	FrameDelay time.Duration
	// TotalDuration is FrameCount * FrameDelay.
	TotalDuration time.Duration
	// Width and Height are the frame size in pixels.
	Width, Height int
	// MIMEType and Ext describe the encoding ("image/gif", "gif").
	MIMEType string
	Ext      string
}

// TotalDurationMs returns the total play time in milliseconds.
func (a *AnimationAsset) TotalDurationMs() int64 {
	return a.TotalDuration.Milliseconds()
}

// Encoder defaults.
const (
	DefaultFrameDelay = 200 * time.Millisecond
	DefaultQuality    = 10
	maxPaletteColors  = 256
)

// GIFEncoder turns a sequence of equally sized frames into an animated GIF.
//
// Each frame gets its own palette built by median cut over a sample of its
// pixels. Frames are quantized concurrently; the GIF stream is written once
// every frame is ready.
type GIFEncoder struct {
	// Delay is the display time of every frame. GIF stores delays in
	// hundredths of a second, so Delay is rounded to 10ms.
	Delay time.Duration
	// Quality is the pixel sampling stride used to build palettes: 1
	// samples every pixel (best colors, slowest), larger values sample
	// fewer pixels.
	Quality int
	// Workers bounds concurrent frame quantization. Zero means GOMAXPROCS.
	Workers int
	// LoopCount follows image/gif: 0 loops forever, -1 plays once.
	LoopCount int
	// Dither enables Floyd-Steinberg error diffusion.
	Dither bool
}

// NewGIFEncoder returns an encoder with the default delay and quality.
func NewGIFEncoder() *GIFEncoder {
	return &GIFEncoder{Delay: DefaultFrameDelay, Quality: DefaultQuality}
}

// Encode quantizes and encodes frames, reporting encoding progress in
// [0, 1] to progress (which may be nil). progress is called from one
// goroutine at a time with non-decreasing values, ending at 1 on success.
//
// Any encoder failure returns *EncodingError and no asset. Cancelling ctx
// stops the remaining quantization work and returns the context error.
func (e *GIFEncoder) Encode(ctx context.Context, frames []*image.RGBA, progress func(float64)) (*AnimationAsset, error) {
	if len(frames) == 0 {
		return nil, &EncodingError{Frame: -1, Err: errors.New("no frames")}
	}
	bounds := frames[0].Bounds()
	for i, f := range frames {
		if f == nil {
			return nil, &EncodingError{Frame: i, Err: errors.New("nil frame")}
		}
		if f.Bounds().Size() != bounds.Size() {
			return nil, &EncodingError{Frame: i, Err: fmt.Errorf("size %v differs from %v", f.Bounds().Size(), bounds.Size())}
		}
	}
	if bounds.Dx() >= 1<<16 || bounds.Dy() >= 1<<16 {
		return nil, &EncodingError{Frame: -1, Err: fmt.Errorf("frame size %v too large for GIF", bounds.Size())}
	}

	delay := e.Delay
	if delay <= 0 {
		delay = DefaultFrameDelay
	}
	stride := e.Quality
	if stride < 1 {
		stride = 1
	}
	workers := e.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	rep := &progressReporter{fn: progress}
	// Quantization dominates; the final write accounts for the last tenth.
	const quantizeShare = 0.9

	paletted := make([]*image.Paletted, len(frames))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	var done int
	var doneMu sync.Mutex
	for i, f := range frames {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pal := buildPalette(f, stride, maxPaletteColors)
			paletted[i] = remap(f, pal, e.Dither)

			doneMu.Lock()
			done++
			frac := quantizeShare * float64(done) / float64(len(frames))
			doneMu.Unlock()
			rep.report(frac)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("sunscope: encoding canceled: %w", ctxErr)
		}
		return nil, &EncodingError{Frame: -1, Err: err}
	}

	cs := int((delay + 5*time.Millisecond) / (10 * time.Millisecond))
	delays := make([]int, len(paletted))
	for i := range delays {
		delays[i] = cs
	}
	anim := &gif.GIF{
		Image:     paletted,
		Delay:     delays,
		LoopCount: e.LoopCount,
		Config: image.Config{
			Width:  bounds.Dx(),
			Height: bounds.Dy(),
		},
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, anim); err != nil {
		return nil, &EncodingError{Frame: -1, Err: err}
	}
	rep.report(1)

	return &AnimationAsset{
		Data:          buf.Bytes(),
		FrameCount:    len(frames),
		FrameDelay:    delay,
		TotalDuration: time.Duration(len(frames)) * delay,
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		MIMEType:      "image/gif",
		Ext:           "gif",
	}, nil
}

// progressReporter serializes progress callbacks and drops values that would
// move progress backwards.
type progressReporter struct {
	mu   sync.Mutex
	fn   func(float64)
	last float64
}

func (r *progressReporter) report(v float64) {
	if r.fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if v < r.last {
		return
	}
	r.last = v
	r.fn(v)
}

// buildPalette builds a palette of at most maxColors colors by median cut
// over every stride-th pixel of img.
func buildPalette(img *image.RGBA, stride, maxColors int) color.Palette {
	q := quantize.MedianCutQuantizer{Aggregation: quantize.Mean}
	return q.Quantize(make(color.Palette, 0, maxColors), sampleEvery(img, stride))
}

// sampleEvery returns every stride-th pixel of img, row-major, as a
// one-row image. A stride of 1 returns img itself.
func sampleEvery(img *image.RGBA, stride int) image.Image {
	if stride <= 1 {
		return img
	}
	b := img.Bounds()
	n := (b.Dx()*b.Dy() + stride - 1) / stride
	out := image.NewRGBA(image.Rect(0, 0, n, 1))
	i, j := 0, 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			if i%stride == 0 {
				copy(out.Pix[j*4:j*4+4], row[x*4:x*4+4])
				j++
			}
			i++
		}
	}
	return out
}

// remap maps img onto pal, with Floyd-Steinberg error diffusion when
// dither is set.
func remap(img *image.RGBA, pal color.Palette, dither bool) *image.Paletted {
	b := img.Bounds()
	dst := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), pal)
	if dither {
		draw.FloydSteinberg.Draw(dst, dst.Bounds(), img, b.Min)
		return dst
	}
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
