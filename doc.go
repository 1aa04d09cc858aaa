// Package sunscope renders sun and shadow studies of a building site and
// exports them as animations.
//
// A site is a [Scene] of box-shaped buildings lit by one [DirectionalLight]
// standing in for the sun. The [solar] package computes where the sun is
// for a date and coordinates; [SunMutator] turns that into a light pose.
//
// # Exporting
//
// An [Exporter] samples the day with [Schedule], renders one frame per
// sample on a shared [Surface] with [Capture], stamps each frame with a
// clock, north marker and timeline via [Compositor], and encodes the
// result with [GIFEncoder]:
//
//	cfg, _ := sunscope.SampleSite()
//	scene, _ := cfg.BuildScene()
//	surf := sunscope.NewSoftwareSurface(800, 600)
//	cam := sunscope.NewCamera(sunscope.Rect{Width: 800, Height: 600})
//	cam.FrameScene(scene, sunscope.DefaultAzimuth, sunscope.DefaultElevation)
//
//	exp, _ := cfg.NewExporter()
//	asset, err := exp.Run(ctx, cfg.Request(surf, scene, cam, date), func(p sunscope.Progress) {
//		fmt.Printf("%3.0f%% %s\n", p.Fraction*100, p.Stage)
//	})
//
// The surface is the same one an interactive view draws on. Capture saves
// its size, pixel ratio and background before a frame and restores them
// on every return path. Only one export may run per surface at a time;
// [Exporter.Busy] reports whether one is in flight.
//
// # Labels
//
// A [Declutterer] projects the anchors in an [AnchorRegistry] through the
// camera and decides which building labels fit on screen without
// overlapping. The selected building always keeps its label.
//
// # Viewer
//
// [Viewer] is an [ebiten.Game] hosting all of the above in a window.
//
// [ebiten.Game]: https://pkg.go.dev/github.com/hajimehoshi/ebiten/v2#Game
package sunscope
