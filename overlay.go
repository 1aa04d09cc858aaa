package sunscope

import (
	"fmt"
	"image"
	"math"
	"sync"
	"time"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// OverlayInfo is everything the compositor needs to annotate one frame.
type OverlayInfo struct {
	// Time is the frame's sample timestamp; the clock shows it in its own
	// location.
	Time time.Time
	// Date is the job's date.
	Date time.Time
	// Progress is the frame's position in the job, in [0, 1].
	Progress float64
	// StartHour and EndHour bound the export window.
	StartHour, EndHour float64
}

// fonts are parsed once and shared; FontSource is safe for concurrent use
// and faces are cheap to create.
var (
	fontsOnce    sync.Once
	regularFont  *text.FontSource
	boldFont     *text.FontSource
	fontsLoadErr error
)

func loadFonts() (regular, bold *text.FontSource, err error) {
	fontsOnce.Do(func() {
		regularFont, fontsLoadErr = text.NewFontSource(goregular.TTF)
		if fontsLoadErr != nil {
			fontsLoadErr = fmt.Errorf("sunscope: load regular font: %w", fontsLoadErr)
			return
		}
		boldFont, fontsLoadErr = text.NewFontSource(gobold.TTF)
		if fontsLoadErr != nil {
			fontsLoadErr = fmt.Errorf("sunscope: load bold font: %w", fontsLoadErr)
		}
	})
	return regularFont, boldFont, fontsLoadErr
}

// Overlay palette.
var (
	overlayPanel  = gg.RGBA2(0, 0, 0, 0.6)
	overlayText   = gg.RGB(1, 1, 1)
	overlayMuted  = gg.RGBA2(1, 1, 1, 0.75)
	overlayTrack  = gg.RGBA2(1, 1, 1, 0.35)
	overlayAccent = gg.RGB(1, 0.72, 0.2)
	overlayNorth  = gg.RGB(0.9, 0.2, 0.2)
)

// Compositor draws the clock badge, north marker and timeline onto captured
// frames. Output depends only on the frame and the OverlayInfo.
type Compositor struct {
	regular *text.FontSource
	bold    *text.FontSource

	// TimeLayout and DateLayout format the clock badge.
	TimeLayout string
	DateLayout string
}

// NewCompositor loads the embedded fonts and returns a compositor.
func NewCompositor() (*Compositor, error) {
	regular, bold, err := loadFonts()
	if err != nil {
		return nil, err
	}
	return &Compositor{
		regular:    regular,
		bold:       bold,
		TimeLayout: "15:04",
		DateLayout: "Mon, 02 Jan 2006",
	}, nil
}

// Compose returns a copy of frame with the overlay layers drawn on top.
// The input frame is not modified.
func (c *Compositor) Compose(frame *image.RGBA, info OverlayInfo) (*image.RGBA, error) {
	if frame == nil {
		return nil, fmt.Errorf("sunscope: compose: nil frame")
	}
	dc := gg.NewContextForImage(frame)
	defer dc.Close()

	w := float64(dc.Width())
	h := float64(dc.Height())
	// Layout is designed at 600px tall and scaled with the frame.
	s := h / 600
	margin := 16 * s

	if err := c.drawClock(dc, info, margin, s); err != nil {
		return nil, err
	}
	if err := c.drawNorth(dc, w, margin, s); err != nil {
		return nil, err
	}
	if err := c.drawTimeline(dc, info, w, h, margin, s); err != nil {
		return nil, err
	}

	out, ok := dc.Image().(*image.RGBA)
	if !ok {
		return nil, fmt.Errorf("sunscope: compose: unexpected image type %T", dc.Image())
	}
	return out, nil
}

func (c *Compositor) drawClock(dc *gg.Context, info OverlayInfo, margin, s float64) error {
	bw, bh := 190*s, 66*s
	dc.DrawRoundedRectangle(margin, margin, bw, bh, 8*s)
	dc.SetColor(overlayPanel.Color())
	if err := dc.Fill(); err != nil {
		return err
	}

	dc.SetFont(c.bold.Face(28 * s))
	dc.SetColor(overlayText.Color())
	dc.DrawString(info.Time.Format(c.TimeLayout), margin+12*s, margin+34*s)

	date := info.Date
	if date.IsZero() {
		date = info.Time
	}
	dc.SetFont(c.regular.Face(13 * s))
	dc.SetColor(overlayMuted.Color())
	dc.DrawString(date.Format(c.DateLayout), margin+12*s, margin+55*s)
	return nil
}

func (c *Compositor) drawNorth(dc *gg.Context, w, margin, s float64) error {
	r := 24 * s
	cx, cy := w-margin-r, margin+r
	dc.DrawCircle(cx, cy, r)
	dc.SetColor(overlayPanel.Color())
	if err := dc.Fill(); err != nil {
		return err
	}

	// Arrow pointing up the screen toward north.
	dc.MoveTo(cx, cy-r*0.75)
	dc.LineTo(cx+r*0.35, cy+r*0.1)
	dc.LineTo(cx, cy-r*0.05)
	dc.LineTo(cx-r*0.35, cy+r*0.1)
	dc.ClosePath()
	dc.SetColor(overlayNorth.Color())
	if err := dc.Fill(); err != nil {
		return err
	}

	dc.SetFont(c.bold.Face(11 * s))
	dc.SetColor(overlayText.Color())
	dc.DrawStringAnchored("N", cx, cy+r*0.65, 0.5, 0)
	return nil
}

func (c *Compositor) drawTimeline(dc *gg.Context, info OverlayInfo, w, h, margin, s float64) error {
	x0 := margin + 40*s
	x1 := w - margin - 40*s
	y := h - margin - 18*s
	th := 6 * s

	// Panel behind the bar.
	dc.DrawRoundedRectangle(margin, y-22*s, w-2*margin, 44*s, 8*s)
	dc.SetColor(overlayPanel.Color())
	if err := dc.Fill(); err != nil {
		return err
	}

	// Track.
	dc.DrawRoundedRectangle(x0, y-th/2, x1-x0, th, th/2)
	dc.SetColor(overlayTrack.Color())
	if err := dc.Fill(); err != nil {
		return err
	}

	p := clamp01(info.Progress)
	if math.IsNaN(info.Progress) {
		p = 0
	}
	mx := x0 + p*(x1-x0)
	if mx > x0 {
		dc.DrawRoundedRectangle(x0, y-th/2, mx-x0, th, th/2)
		dc.SetColor(overlayAccent.Color())
		if err := dc.Fill(); err != nil {
			return err
		}
	}

	// Boundary ticks.
	dc.SetColor(overlayText.Color())
	dc.SetLineWidth(1.5 * s)
	for _, x := range []float64{x0, x1} {
		dc.DrawLine(x, y-8*s, x, y+8*s)
		if err := dc.Stroke(); err != nil {
			return err
		}
	}
	dc.SetFont(c.regular.Face(11 * s))
	dc.DrawStringAnchored(formatHour(info.StartHour), x0, y-11*s, 0.5, 0)
	dc.DrawStringAnchored(formatHour(info.EndHour), x1, y-11*s, 0.5, 0)

	// Progress marker.
	dc.DrawCircle(mx, y, 7*s)
	dc.SetColor(overlayText.Color())
	if err := dc.FillPreserve(); err != nil {
		dc.ClearPath()
		return err
	}
	dc.SetColor(overlayAccent.Color())
	dc.SetLineWidth(2 * s)
	return dc.Stroke()
}
