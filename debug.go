package sunscope

import (
	"log/slog"
	"time"
)

// exportStats holds per-job timings, logged at Debug when the job ends.
type exportStats struct {
	sampling  time.Duration
	rendering time.Duration
	composing time.Duration
	encoding  time.Duration
	total     time.Duration
	frames    int
}

// perFrame returns the mean render+compose time per frame.
func (s exportStats) perFrame() time.Duration {
	if s.frames == 0 {
		return 0
	}
	return (s.rendering + s.composing) / time.Duration(s.frames)
}

func (s exportStats) log(l *slog.Logger) {
	l.Debug("export timings",
		"sampling", s.sampling,
		"render", s.rendering,
		"compose", s.composing,
		"encode", s.encoding,
		"total", s.total,
		"frames", s.frames,
		"per_frame", s.perFrame())
}

// Scene shape thresholds above which the software renderer slows down
// enough to warn about.
const (
	debugMaxTreeDepth = 32
	debugMaxBoxes     = 5000
)

// checkSceneShape warns when the scene is deep or large enough to make
// per-frame painter sorting expensive.
func checkSceneShape(l *slog.Logger, s *Scene) {
	boxes, depth := 0, 0
	var walk func(n *Node, d int)
	walk = func(n *Node, d int) {
		depth = max(depth, d)
		if n.Type == NodeTypeBox {
			boxes++
		}
		for _, c := range n.Children() {
			walk(c, d+1)
		}
	}
	walk(s.Root(), 1)
	if depth > debugMaxTreeDepth {
		l.Warn("scene tree is deep", "depth", depth, "threshold", debugMaxTreeDepth)
	}
	if boxes > debugMaxBoxes {
		l.Warn("scene has many boxes", "boxes", boxes, "threshold", debugMaxBoxes)
	}
}
