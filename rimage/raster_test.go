package rimage

import (
	"image"
	"testing"

	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

// fillRect sets every cell of r inside rect to v.
func fillRect(r *Raster, rect image.Rectangle, v float64) {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			r.Set(x, y, v)
		}
	}
}

func TestRasterAccessors(t *testing.T) {
	r := NewRaster(5, 3)
	test.That(t, r.Width(), test.ShouldEqual, 5)
	test.That(t, r.Height(), test.ShouldEqual, 3)
	r.Set(4, 2, 1.5)
	r.Set(5, 2, 9)
	test.That(t, r.At(4, 2), test.ShouldEqual, 1.5)
	test.That(t, r.At(5, 2), test.ShouldEqual, 0.0)
	test.That(t, r.Filled(4, 2), test.ShouldBeTrue)
	test.That(t, r.NumFilled(), test.ShouldEqual, 1)
	test.That(t, r.Dense().At(2, 4), test.ShouldEqual, 1.5)

	c := r.Clone()
	c.Set(0, 0, 2)
	test.That(t, r.At(0, 0), test.ShouldEqual, 0.0)
	lo, hi := c.MinMax()
	test.That(t, lo, test.ShouldEqual, 1.5)
	test.That(t, hi, test.ShouldEqual, 2.0)
}

func TestTemporalMean(t *testing.T) {
	a, b, c := NewRaster(3, 1), NewRaster(3, 1), NewRaster(3, 1)
	a.Set(0, 0, 1)
	b.Set(0, 0, 3)
	c.Set(0, 0, -1)
	a.Set(1, 0, 4)

	fused, err := TemporalMean([]*Raster{a, b, c})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, fused.At(0, 0), test.ShouldEqual, 2.0)
	test.That(t, fused.At(1, 0), test.ShouldEqual, 4.0)
	test.That(t, fused.At(2, 0), test.ShouldEqual, 0.0)

	_, err = TemporalMean([]*Raster{a, NewRaster(2, 1)})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = TemporalMean(nil)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestClearCellsAndMask(t *testing.T) {
	r := NewRaster(4, 4)
	fillRect(r, r.Bounds(), 1)
	cleared := r.ClearCells([]image.Point{{1, 1}, {10, 10}})
	test.That(t, cleared.At(1, 1), test.ShouldEqual, 0.0)
	test.That(t, cleared.NumFilled(), test.ShouldEqual, 15)
	test.That(t, r.NumFilled(), test.ShouldEqual, 16)

	masked := r.MaskWith(cleared)
	test.That(t, masked.At(1, 1), test.ShouldEqual, 0.0)
	test.That(t, masked.At(2, 2), test.ShouldEqual, 1.0)
}

func TestDilateThenErodeRestoresFootprint(t *testing.T) {
	for _, iterations := range []int{3, 4} {
		r := NewRaster(40, 30)
		rect := image.Rect(12, 10, 25, 19)
		fillRect(r, rect, 0.12)

		dilated := r.Dilate(iterations)
		test.That(t, dilated.NumFilled(), test.ShouldEqual, (rect.Dx()+2*iterations)*(rect.Dy()+2*iterations))

		closed := dilated.Erode(iterations)
		test.That(t, closed.Footprint(), test.ShouldResemble, r.Footprint())
		test.That(t, mat.EqualApprox(closed.Dense(), r.Dense(), 1e-12), test.ShouldBeTrue)
	}
}

func TestDilateAtEdge(t *testing.T) {
	r := NewRaster(10, 10)
	fillRect(r, image.Rect(0, 0, 4, 4), 1)
	closed := r.Dilate(3).Erode(3)
	test.That(t, closed.Footprint(), test.ShouldResemble, r.Footprint())
}

func TestKeepLargestComponent(t *testing.T) {
	r := NewRaster(10, 6)
	fillRect(r, image.Rect(0, 0, 2, 2), 1)
	fillRect(r, image.Rect(4, 1, 9, 5), 2)
	// touches the big blob only diagonally
	r.Set(3, 0, 3)

	kept, err := r.KeepLargestComponent(4)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, kept.NumFilled(), test.ShouldEqual, 20)
	test.That(t, kept.At(0, 0), test.ShouldEqual, 0.0)
	test.That(t, kept.At(3, 0), test.ShouldEqual, 0.0)
	test.That(t, kept.At(4, 1), test.ShouldEqual, 2.0)

	kept8, err := r.KeepLargestComponent(8)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, kept8.NumFilled(), test.ShouldEqual, 21)

	_, err = r.KeepLargestComponent(6)
	test.That(t, err, test.ShouldNotBeNil)

	empty, err := NewRaster(3, 3).KeepLargestComponent(4)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, empty.NumFilled(), test.ShouldEqual, 0)
}

func TestExpandContours(t *testing.T) {
	r := NewRaster(9, 9)
	fillRect(r, image.Rect(3, 3, 6, 6), 1)

	same := r.ExpandContours(0, 2)
	test.That(t, same.NumFilled(), test.ShouldEqual, 9)

	grown := r.ExpandContours(1, 2)
	// corners of the ring see a single filled neighbor and stay empty
	test.That(t, grown.NumFilled(), test.ShouldEqual, 9+12)
	test.That(t, grown.At(2, 2), test.ShouldEqual, 0.0)
	test.That(t, grown.At(2, 4), test.ShouldEqual, 1.0)

	grownAll := r.ExpandContours(1, 1)
	test.That(t, grownAll.NumFilled(), test.ShouldEqual, 25)
}

func TestExpandAveragesNeighbors(t *testing.T) {
	r := NewRaster(3, 1)
	r.Set(0, 0, 1)
	r.Set(2, 0, 3)
	grown := r.ExpandContours(1, 2)
	test.That(t, grown.At(1, 0), test.ShouldEqual, 2.0)
}

func TestEraseContours(t *testing.T) {
	r := NewRaster(9, 9)
	fillRect(r, image.Rect(2, 2, 7, 7), 1)

	test.That(t, r.EraseContours(0, 0).NumFilled(), test.ShouldEqual, 25)
	test.That(t, r.EraseContours(1, 1).NumFilled(), test.ShouldEqual, 9)
	// with connex 4 only the four corners have enough empty neighbors
	test.That(t, r.EraseContours(1, 4).NumFilled(), test.ShouldEqual, 21)

	full := NewRaster(4, 4)
	fillRect(full, full.Bounds(), 1)
	test.That(t, full.EraseContours(1, 1).NumFilled(), test.ShouldEqual, 4)
}

func TestBilateralFilter(t *testing.T) {
	params := BilateralParams{Diameter: -1, SigmaColor: 200, SigmaSpace: 0}
	test.That(t, params.Radius(), test.ShouldEqual, 2)
	test.That(t, BilateralParams{Diameter: 7}.Radius(), test.ShouldEqual, 3)

	r := NewRaster(12, 12)
	fillRect(r, image.Rect(2, 2, 10, 10), 0.1)
	r.Set(5, 5, 0.2)

	smoothed := r.BilateralFilter(params)
	test.That(t, smoothed.Footprint(), test.ShouldResemble, r.Footprint())
	test.That(t, smoothed.At(5, 5), test.ShouldBeLessThan, 0.2)
	test.That(t, smoothed.At(5, 5), test.ShouldBeGreaterThan, 0.1)
	test.That(t, smoothed.At(2, 2), test.ShouldAlmostEqual, 0.1, 1e-12)

	// a large value step survives a small color sigma
	step := NewRaster(10, 1)
	fillRect(step, image.Rect(0, 0, 5, 1), 0.1)
	fillRect(step, image.Rect(5, 0, 10, 1), 0.5)
	sharp := step.BilateralFilter(BilateralParams{Diameter: 5, SigmaColor: 0.01, SigmaSpace: 2})
	test.That(t, sharp.At(4, 0), test.ShouldAlmostEqual, 0.1, 1e-6)
	test.That(t, sharp.At(5, 0), test.ShouldAlmostEqual, 0.5, 1e-6)
}

func TestMakeRangeArray(t *testing.T) {
	test.That(t, makeRangeArray(5), test.ShouldResemble, []int{-2, -1, 0, 1, 2})
	test.That(t, makeRangeArray(4), test.ShouldResemble, []int{-2, -1, 0, 1})
	test.That(t, makeRangeArray(0), test.ShouldResemble, []int{})
}

func TestToPrettyPicture(t *testing.T) {
	r := NewRaster(4, 2)
	r.Set(0, 0, 0.1)
	r.Set(3, 1, 0.2)
	img := r.ToPrettyPicture()
	test.That(t, img.Bounds(), test.ShouldResemble, image.Rect(0, 0, 4, 2))
	test.That(t, img.NRGBAAt(1, 0).R, test.ShouldEqual, uint8(0))
	test.That(t, img.NRGBAAt(0, 0), test.ShouldNotResemble, img.NRGBAAt(3, 1))

	g := r.ToGray16(10000)
	test.That(t, g.Gray16At(3, 1).Y, test.ShouldEqual, uint16(2000))
}
