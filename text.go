package sunscope

import (
	"bytes"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
)

// LabelFont wraps Ebitengine's text/v2 for drawing building labels in the
// viewer.
type LabelFont struct {
	face *text.GoTextFace
	lh   float64
}

// LoadLabelFont loads a TrueType font from raw TTF/OTF data at the given size.
func LoadLabelFont(ttfData []byte, size float64) (*LabelFont, error) {
	source, err := text.NewGoTextFaceSource(bytes.NewReader(ttfData))
	if err != nil {
		return nil, fmt.Errorf("sunscope: failed to parse TTF data: %w", err)
	}
	face := &text.GoTextFace{Source: source, Size: size}
	m := face.Metrics()
	return &LabelFont{face: face, lh: m.HAscent + m.HDescent + m.HLineGap}, nil
}

// MeasureString returns the width and height of the rendered text.
func (f *LabelFont) MeasureString(s string) (width, height float64) {
	return text.Measure(s, f.face, f.lh)
}

// LineHeight returns the vertical distance between baselines.
func (f *LabelFont) LineHeight() float64 {
	return f.lh
}

// Face returns the underlying GoTextFace.
func (f *LabelFont) Face() *text.GoTextFace {
	return f.face
}

// drawCentered draws s centered in r. Text wider than r overflows both
// sides evenly.
func (f *LabelFont) drawCentered(dst *ebiten.Image, s string, r Rect, c Color) {
	op := &text.DrawOptions{}
	op.ColorScale.Scale(float32(c.R), float32(c.G), float32(c.B), float32(c.A))
	op.LineSpacing = f.lh
	op.PrimaryAlign = text.AlignCenter
	op.SecondaryAlign = text.AlignCenter
	op.GeoM.Translate(r.X+r.Width/2, r.Y+r.Height/2)
	text.Draw(dst, s, f.face, op)
}
