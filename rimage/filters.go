package rimage

import (
	"math"

	"github.com/yanioaioan/swooz/utils"
)

// Helper function for convolving rasters, when used with i, dx := range makeRangeArray(n)
// i is the position within the kernel and dx gives the offset within the raster.
// If length is even, then the origin is to the right of middle i.e. 4 -> {-2, -1, 0, 1}.
func makeRangeArray(length int) []int {
	if length <= 0 {
		return make([]int, 0)
	}
	rangeArray := make([]int, length)
	var span int
	if length%2 == 0 {
		oddArr := makeRangeArray(length - 1)
		span = length / 2
		rangeArray = append([]int{-span}, oddArr...)
	} else {
		span = (length - 1) / 2
		for i := 0; i < span; i++ {
			rangeArray[length-1-i] = span - i
			rangeArray[i] = -span + i
		}
	}
	return rangeArray
}

// GaussianWeight returns an unnormalized gaussian of the given sigma. Filters divide by the
// total weight, so normalization would cancel out.
func GaussianWeight(sigma float64) func(d2 float64) float64 {
	if sigma <= 0 {
		return func(d2 float64) float64 {
			return 1
		}
	}
	inv := -0.5 / (sigma * sigma)
	return func(d2 float64) float64 {
		return math.Exp(d2 * inv)
	}
}

// BilateralParams controls the edge preserving smoothing. The values follow the conventions
// of the usual bilateral filter API: a diameter <= 0 derives the radius from sigmaSpace,
// and non-positive sigmas fall back to 1.
type BilateralParams struct {
	Diameter   int     `json:"diameter"`
	SigmaColor float64 `json:"sigma_color"`
	SigmaSpace float64 `json:"sigma_space"`
}

// Radius returns the half size of the square neighborhood visited by the filter.
func (p BilateralParams) Radius() int {
	sigmaSpace := p.SigmaSpace
	if sigmaSpace <= 0 {
		sigmaSpace = 1
	}
	radius := p.Diameter / 2
	if p.Diameter <= 0 {
		radius = int(math.Round(sigmaSpace * 1.5))
	}
	return max(radius, 1)
}

// BilateralFilter smooths filled cells with weights that fall off with both spatial distance
// and value difference, so sharp depth steps survive. Empty cells neither contribute nor change.
// Only offsets within the disc of the filter radius are visited.
func (r *Raster) BilateralFilter(params BilateralParams) *Raster {
	sigmaColor, sigmaSpace := params.SigmaColor, params.SigmaSpace
	if sigmaColor <= 0 {
		sigmaColor = 1
	}
	if sigmaSpace <= 0 {
		sigmaSpace = 1
	}
	radius := params.Radius()
	spaceWeight := GaussianWeight(sigmaSpace)
	colorWeight := GaussianWeight(sigmaColor)
	offsets := makeRangeArray(2*radius + 1)

	out := r.Clone()
	utils.ParallelForEach(r.Height(), func(y int) {
		for x := 0; x < r.Width(); x++ {
			center := r.data.At(y, x)
			if center <= 0 {
				continue
			}
			var val, weight float64
			for _, dy := range offsets {
				for _, dx := range offsets {
					d2 := float64(dx*dx + dy*dy)
					if d2 > float64(radius*radius) || !r.In(x+dx, y+dy) {
						continue
					}
					v := r.data.At(y+dy, x+dx)
					if v <= 0 {
						continue
					}
					diff := v - center
					w := spaceWeight(d2) * colorWeight(diff*diff)
					val += w * v
					weight += w
				}
			}
			out.data.Set(y, x, val/weight)
		}
	})
	return out
}
