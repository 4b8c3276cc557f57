package fusion

import (
	"image"
	"testing"

	"go.viam.com/test"

	"github.com/yanioaioan/swooz/rimage"
)

func makeRaster(rect image.Rectangle, v float64) *rimage.Raster {
	r := rimage.NewRaster(20, 20)
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			r.Set(x, y, v)
		}
	}
	return r
}

func TestFuseStageOrder(t *testing.T) {
	rasters := []*rimage.Raster{makeRaster(image.Rect(5, 5, 15, 15), 0.15)}
	var stages []string
	hook := func(stage string, _ *rimage.Raster) { stages = append(stages, stage) }

	_, err := Fuse(rasters, DefaultParams(), hook)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, stages, test.ShouldResemble, []string{
		StageTemporalMean, StageDeletion, StageLargestComponent, StageExpand, StageBilateral, StageErase,
	})

	params := DefaultParams()
	params.Dilate = 3
	params.Erode = 3
	params.UseBilateral = false
	stages = nil
	_, err = Fuse(rasters, params, hook)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, stages, test.ShouldResemble, []string{
		StageTemporalMean, StageDeletion, StageLargestComponent, StageExpand, StageDilate, StageErode, StageErase,
	})

	// fewer than three iterations disables the stage
	params.Dilate = 2
	params.Erode = 2
	stages = nil
	_, err = Fuse(rasters, params, hook)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, stages, test.ShouldNotContain, StageDilate)
	test.That(t, stages, test.ShouldNotContain, StageErode)
}

func TestFuseCleansRaster(t *testing.T) {
	a := makeRaster(image.Rect(5, 5, 15, 15), 0.15)
	a.Set(0, 0, 0.3)
	b := makeRaster(image.Rect(5, 5, 15, 15), 0.17)

	params := DefaultParams()
	params.ExpandAmount = 0
	params.UseBilateral = false
	params.DeletedCells = []image.Point{{X: 5, Y: 5}, {X: 50, Y: 50}}

	fused, err := Fuse([]*rimage.Raster{a, b}, params, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, fused.At(0, 0), test.ShouldEqual, 0.0)
	test.That(t, fused.At(5, 5), test.ShouldEqual, 0.0)
	test.That(t, fused.At(10, 10), test.ShouldAlmostEqual, 0.16)
	test.That(t, fused.NumFilled(), test.ShouldEqual, 99)

	// the inputs are left untouched
	test.That(t, a.At(0, 0), test.ShouldEqual, 0.3)
	test.That(t, a.At(5, 5), test.ShouldEqual, 0.15)
}

func TestFuseBilateralKeepsFootprint(t *testing.T) {
	a := makeRaster(image.Rect(5, 5, 15, 15), 0.15)
	a.Set(10, 10, 0.2)

	params := DefaultParams()
	var beforeSmoothing, afterSmoothing *rimage.Raster
	hook := func(stage string, r *rimage.Raster) {
		switch stage {
		case StageExpand:
			beforeSmoothing = r
		case StageBilateral:
			afterSmoothing = r
		}
	}
	_, err := Fuse([]*rimage.Raster{a}, params, hook)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, afterSmoothing.Footprint(), test.ShouldResemble, beforeSmoothing.Footprint())
	test.That(t, afterSmoothing.At(10, 10), test.ShouldBeLessThan, 0.2)
	test.That(t, afterSmoothing.At(10, 10), test.ShouldBeGreaterThan, 0.15)
}

func TestFuseErrors(t *testing.T) {
	_, err := Fuse(nil, DefaultParams(), nil)
	test.That(t, err, test.ShouldNotBeNil)

	params := DefaultParams()
	params.Connectivity = 6
	_, err = Fuse([]*rimage.Raster{makeRaster(image.Rect(0, 0, 2, 2), 1)}, params, nil)
	test.That(t, err, test.ShouldNotBeNil)

	params = DefaultParams()
	params.ExpandAmount = -1
	test.That(t, params.Validate(), test.ShouldNotBeNil)
}

func TestValidateReportsCountsInOrder(t *testing.T) {
	params := DefaultParams()
	params.Dilate = -1
	params.EraseConnex = -2
	for i := 0; i < 20; i++ {
		err := params.Validate()
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "dilate")
	}
	params.Dilate = 0
	test.That(t, params.Validate().Error(), test.ShouldContainSubstring, "erase_connex")
}
