package sunscope

import (
	"bytes"
	"image/color"
	"testing"
	"time"
)

func testOverlayInfo() OverlayInfo {
	at := time.Date(2024, 6, 21, 9, 30, 0, 0, ist)
	return OverlayInfo{
		Time:      at,
		Date:      at,
		Progress:  0.25,
		StartHour: 6,
		EndHour:   18,
	}
}

func TestComposeDeterministic(t *testing.T) {
	comp, err := NewCompositor()
	if err != nil {
		t.Fatal(err)
	}
	frame := solidFrame(240, 180, color.RGBA{40, 120, 60, 255})
	a, err := comp.Compose(frame, testOverlayInfo())
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	b, err := comp.Compose(frame, testOverlayInfo())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Error("same frame and info produced different output")
	}
	if a.Bounds() != frame.Bounds() {
		t.Errorf("output bounds = %v, want %v", a.Bounds(), frame.Bounds())
	}
}

func TestComposeLeavesInputAlone(t *testing.T) {
	comp, err := NewCompositor()
	if err != nil {
		t.Fatal(err)
	}
	frame := solidFrame(240, 180, color.RGBA{40, 120, 60, 255})
	before := append([]byte(nil), frame.Pix...)
	out, err := comp.Compose(frame, testOverlayInfo())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(frame.Pix, before) {
		t.Error("Compose modified its input")
	}
	if bytes.Equal(out.Pix, before) {
		t.Error("Compose drew nothing")
	}
}

func TestComposeProgressMovesMarker(t *testing.T) {
	comp, err := NewCompositor()
	if err != nil {
		t.Fatal(err)
	}
	frame := solidFrame(240, 180, color.RGBA{40, 120, 60, 255})
	early := testOverlayInfo()
	early.Progress = 0
	late := testOverlayInfo()
	late.Progress = 1
	a, err := comp.Compose(frame, early)
	if err != nil {
		t.Fatal(err)
	}
	b, err := comp.Compose(frame, late)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(a.Pix, b.Pix) {
		t.Error("timeline does not reflect progress")
	}
}

func TestComposeNilFrame(t *testing.T) {
	comp, err := NewCompositor()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := comp.Compose(nil, testOverlayInfo()); err == nil {
		t.Error("Compose(nil) succeeded")
	}
}
