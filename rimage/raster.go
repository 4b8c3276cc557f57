package rimage

import (
	"image"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Raster is a fixed size grid of scalar samples, stored row major in a gonum matrix with one
// row per raster row. A value <= 0 means the cell holds no sample.
type Raster struct {
	data *mat.Dense
}

// NewRaster returns a width x height raster with every cell empty. Both sizes must be positive.
func NewRaster(width, height int) *Raster {
	return &Raster{data: mat.NewDense(height, width, nil)}
}

// NewRasterFromDense wraps m, rows being the raster rows.
func NewRasterFromDense(m *mat.Dense) *Raster {
	return &Raster{data: m}
}

// Width returns the number of columns.
func (r *Raster) Width() int {
	_, c := r.data.Dims()
	return c
}

// Height returns the number of rows.
func (r *Raster) Height() int {
	rows, _ := r.data.Dims()
	return rows
}

// Bounds returns the rectangle covered by the raster.
func (r *Raster) Bounds() image.Rectangle {
	return image.Rect(0, 0, r.Width(), r.Height())
}

// In reports whether (x, y) is inside the raster.
func (r *Raster) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < r.Width() && y < r.Height()
}

// At returns the value of column x, row y, 0 when outside.
func (r *Raster) At(x, y int) float64 {
	if !r.In(x, y) {
		return 0
	}
	return r.data.At(y, x)
}

// Set stores the value of column x, row y. Writes outside the raster are ignored.
func (r *Raster) Set(x, y int, v float64) {
	if r.In(x, y) {
		r.data.Set(y, x, v)
	}
}

// Filled reports whether the cell holds a sample.
func (r *Raster) Filled(x, y int) bool {
	return r.At(x, y) > 0
}

// Dense exposes the underlying matrix.
func (r *Raster) Dense() *mat.Dense {
	return r.data
}

// Clone returns a deep copy.
func (r *Raster) Clone() *Raster {
	return &Raster{data: mat.DenseCopyOf(r.data)}
}

// NumFilled returns how many cells hold a sample.
func (r *Raster) NumFilled() int {
	n := 0
	for y := 0; y < r.Height(); y++ {
		for x := 0; x < r.Width(); x++ {
			if r.data.At(y, x) > 0 {
				n++
			}
		}
	}
	return n
}

// Footprint returns the filled mask of the raster.
func (r *Raster) Footprint() [][]bool {
	out := make([][]bool, r.Height())
	for y := range out {
		out[y] = make([]bool, r.Width())
		for x := range out[y] {
			out[y][x] = r.data.At(y, x) > 0
		}
	}
	return out
}

// MinMax returns the smallest and largest filled values, both 0 for an empty raster.
func (r *Raster) MinMax() (float64, float64) {
	lo, hi := 0.0, 0.0
	first := true
	for y := 0; y < r.Height(); y++ {
		for x := 0; x < r.Width(); x++ {
			v := r.data.At(y, x)
			if v <= 0 {
				continue
			}
			if first || v < lo {
				lo = v
			}
			if first || v > hi {
				hi = v
			}
			first = false
		}
	}
	return lo, hi
}

// TemporalMean fuses same-sized rasters: every cell becomes the mean of the values > 0 found at
// that cell across rasters, or 0 when no raster has a sample there.
func TemporalMean(rasters []*Raster) (*Raster, error) {
	if len(rasters) == 0 {
		return nil, errors.New("no raster to fuse")
	}
	w, h := rasters[0].Width(), rasters[0].Height()
	for i, r := range rasters {
		if r.Width() != w || r.Height() != h {
			return nil, errors.Errorf("raster %d is %dx%d, expected %dx%d", i, r.Width(), r.Height(), w, h)
		}
	}
	out := NewRaster(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float64
			n := 0
			for _, r := range rasters {
				if v := r.data.At(y, x); v > 0 {
					sum += v
					n++
				}
			}
			if n > 0 {
				out.data.Set(y, x, sum/float64(n))
			}
		}
	}
	return out, nil
}

// ClearCells returns a copy with every listed cell emptied. Cells outside are ignored.
func (r *Raster) ClearCells(cells []image.Point) *Raster {
	out := r.Clone()
	for _, c := range cells {
		out.Set(c.X, c.Y, 0)
	}
	return out
}

// MaskWith returns a copy where every cell empty in mask is emptied.
func (r *Raster) MaskWith(mask *Raster) *Raster {
	out := r.Clone()
	for y := 0; y < r.Height(); y++ {
		for x := 0; x < r.Width(); x++ {
			if !mask.Filled(x, y) {
				out.data.Set(y, x, 0)
			}
		}
	}
	return out
}
