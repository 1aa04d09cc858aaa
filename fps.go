package sunscope

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
)

// fpsCounter formats the viewer's FPS/TPS line, refreshed about twice a
// second so the digits stay readable.
type fpsCounter struct {
	elapsed float64
	line    string
}

func (f *fpsCounter) update(dt float64) string {
	f.elapsed += dt
	if f.line != "" && f.elapsed < 0.5 {
		return f.line
	}
	f.elapsed = 0
	f.line = fmt.Sprintf("FPS: %.1f  TPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS())
	return f.line
}
