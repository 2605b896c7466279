package utils

import (
	"image"
	"image/draw"

	"github.com/fogleman/gg"
)

// RoundCorners returns a copy of img clipped to a rounded rectangle of the
// given corner radius. Pixels outside the shape become fully transparent. The
// radius is clamped to half the shorter side; radius <= 0 returns an exact
// copy. The input is never modified.
//
// The result keeps the input's color model for RGBA, NRGBA, RGBA64 and
// NRGBA64 images; any other model is returned as *image.NRGBA.
func RoundCorners(img image.Image, radius int) image.Image {
	if img == nil {
		return nil
	}
	b := img.Bounds()
	if radius <= 0 || b.Empty() {
		return copyImage(img)
	}
	radius = min(radius, min(b.Dx(), b.Dy())/2)

	dc := gg.NewContext(b.Dx(), b.Dy())
	dc.DrawRoundedRectangle(0, 0, float64(b.Dx()), float64(b.Dy()), float64(radius))
	dc.Fill()
	mask := dc.AsMask()

	dst := newLike(img, b)
	draw.DrawMask(dst, b, img, b.Min, mask, image.Point{}, draw.Src)
	return dst
}

// newLike allocates a transparent image with img's color model.
func newLike(img image.Image, b image.Rectangle) draw.Image {
	switch img.(type) {
	case *image.RGBA:
		return image.NewRGBA(b)
	case *image.RGBA64:
		return image.NewRGBA64(b)
	case *image.NRGBA64:
		return image.NewNRGBA64(b)
	default:
		return image.NewNRGBA(b)
	}
}

func copyImage(img image.Image) image.Image {
	switch src := img.(type) {
	case *image.RGBA:
		return &image.RGBA{Pix: append([]uint8(nil), src.Pix...), Stride: src.Stride, Rect: src.Rect}
	case *image.NRGBA:
		return &image.NRGBA{Pix: append([]uint8(nil), src.Pix...), Stride: src.Stride, Rect: src.Rect}
	case *image.RGBA64:
		return &image.RGBA64{Pix: append([]uint8(nil), src.Pix...), Stride: src.Stride, Rect: src.Rect}
	case *image.NRGBA64:
		return &image.NRGBA64{Pix: append([]uint8(nil), src.Pix...), Stride: src.Stride, Rect: src.Rect}
	case *image.Gray:
		return &image.Gray{Pix: append([]uint8(nil), src.Pix...), Stride: src.Stride, Rect: src.Rect}
	default:
		dst := image.NewNRGBA(img.Bounds())
		draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
		return dst
	}
}
