package sunscope

import (
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSanitizeLabel(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "unlabeled"},
		{"   ", "unlabeled"},
		{"sun-study", "sun-study"},
		{"Tower A/roof", "Tower_A_roof"},
		{"v1.2", "v1.2"},
		{"a:b*c", "a_b_c"},
	}
	for _, tt := range tests {
		if got := sanitizeLabel(tt.in); got != tt.want {
			t.Errorf("sanitizeLabel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAssetFilename(t *testing.T) {
	date := time.Date(2024, 6, 21, 15, 0, 0, 0, ist)
	if got := AssetFilename("sun-study", date, "gif"); got != "sun-study-2024-06-21.gif" {
		t.Errorf("AssetFilename = %q", got)
	}
	if got := AssetFilename("site", date, ".gif"); got != "site-2024-06-21.gif" {
		t.Errorf("leading dot: %q", got)
	}
}

func TestWriteFramePNG(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "frames")
	at := time.Date(2024, 6, 21, 7, 30, 0, 0, ist)
	img := solidFrame(4, 3, color.RGBA{1, 2, 3, 255})

	path, err := writeFramePNG(dir, "study", 7, at, img)
	if err != nil {
		t.Fatalf("writeFramePNG: %v", err)
	}
	if filepath.Base(path) != "study_007_0730.png" {
		t.Errorf("name = %q", filepath.Base(path))
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	decoded, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 4 || b.Dy() != 3 {
		t.Errorf("size = %v, want 4x3", b.Size())
	}
}
