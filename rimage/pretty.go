package rimage

import (
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// ToPrettyPicture renders the raster as a false color image: empty cells are black and
// filled cells run through the hue wheel from their minimum to their maximum value.
func (r *Raster) ToPrettyPicture() *image.NRGBA {
	lo, hi := r.MinMax()
	span := hi - lo
	img := image.NewNRGBA(r.Bounds())
	black := color.NRGBA{0, 0, 0, 255}
	for y := 0; y < r.Height(); y++ {
		for x := 0; x < r.Width(); x++ {
			v := r.data.At(y, x)
			if v <= 0 {
				img.SetNRGBA(x, y, black)
				continue
			}
			ratio := 0.0
			if span > 0 {
				ratio = (v - lo) / span
			}
			hue := 30 + (200.0 * ratio)
			cr, cg, cb := colorful.Hsv(hue, 1.0, 1.0).Clamped().RGB255()
			img.SetNRGBA(x, y, color.NRGBA{cr, cg, cb, 255})
		}
	}
	return img
}

// ToGray16 encodes the raster as 16 bit gray, value times scale per level, for lossless dumps.
func (r *Raster) ToGray16(scale float64) *image.Gray16 {
	img := image.NewGray16(r.Bounds())
	for y := 0; y < r.Height(); y++ {
		for x := 0; x < r.Width(); x++ {
			v := r.data.At(y, x) * scale
			if v <= 0 {
				continue
			}
			if v > 65535 {
				v = 65535
			}
			img.SetGray16(x, y, color.Gray16{uint16(v + 0.5)})
		}
	}
	return img
}
