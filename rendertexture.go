package sunscope

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// frameTexture is the GPU copy of the viewer's software frame. The image is
// reallocated only when the frame size changes.
type frameTexture struct {
	image *ebiten.Image
	w, h  int
}

// upload copies raster into the texture.
func (ft *frameTexture) upload(raster *image.RGBA) {
	b := raster.Bounds()
	if ft.image == nil || ft.w != b.Dx() || ft.h != b.Dy() {
		if ft.image != nil {
			ft.image.Deallocate()
		}
		ft.image = ebiten.NewImage(b.Dx(), b.Dy())
		ft.w, ft.h = b.Dx(), b.Dy()
	}
	if raster.Stride == 4*b.Dx() {
		ft.image.WritePixels(raster.Pix[raster.PixOffset(b.Min.X, b.Min.Y):][:4*b.Dx()*b.Dy()])
		return
	}
	pix := make([]byte, 0, 4*b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		o := raster.PixOffset(b.Min.X, y)
		pix = append(pix, raster.Pix[o:o+4*b.Dx()]...)
	}
	ft.image.WritePixels(pix)
}

// drawTo draws the texture at the top-left of dst.
func (ft *frameTexture) drawTo(dst *ebiten.Image) {
	if ft.image == nil {
		return
	}
	dst.DrawImage(ft.image, nil)
}
