package rimage

import (
	"math"
)

// neighbors8 lists the offsets of the 8-connected neighborhood.
var neighbors8 = [8][2]int{{-1, -1}, {0, -1}, {1, -1}, {-1, 0}, {1, 0}, {-1, 1}, {0, 1}, {1, 1}}

// neighbors4 lists the offsets of the 4-connected neighborhood.
var neighbors4 = [4][2]int{{0, -1}, {-1, 0}, {1, 0}, {0, 1}}

// Dilate applies iterations of a 3x3 square grayscale dilation: each cell takes the maximum of
// its neighborhood. Cells outside the raster do not take part.
func (r *Raster) Dilate(iterations int) *Raster {
	return r.morpho(iterations, math.Max)
}

// Erode applies iterations of a 3x3 square grayscale erosion: each cell takes the minimum of
// its neighborhood. Cells outside the raster do not take part.
func (r *Raster) Erode(iterations int) *Raster {
	return r.morpho(iterations, math.Min)
}

func (r *Raster) morpho(iterations int, pick func(a, b float64) float64) *Raster {
	src := r.Clone()
	for it := 0; it < iterations; it++ {
		dst := src.Clone()
		for y := 0; y < src.Height(); y++ {
			for x := 0; x < src.Width(); x++ {
				v := src.data.At(y, x)
				for _, d := range neighbors8 {
					nx, ny := x+d[0], y+d[1]
					if !src.In(nx, ny) {
						continue
					}
					v = pick(v, src.data.At(ny, nx))
				}
				dst.data.Set(y, x, v)
			}
		}
		src = dst
	}
	return src
}
