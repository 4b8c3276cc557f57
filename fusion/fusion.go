// Package fusion merges the per frame radial rasters of a capture into one clean raster.
package fusion

import (
	"image"

	"github.com/pkg/errors"

	"github.com/yanioaioan/swooz/rimage"
)

// Stage names reported to a StageHook, in pipeline order.
const (
	StageTemporalMean     = "temporal_mean"
	StageDeletion         = "deletion"
	StageLargestComponent = "largest_component"
	StageExpand           = "expand"
	StageDilate           = "dilate"
	StageErode            = "erode"
	StageBilateral        = "bilateral"
	StageErase            = "erase"
)

// minMorphologyIterations is the iteration count below which dilation and erosion are skipped.
const minMorphologyIterations = 3

// StageHook observes the raster produced by each stage. It must not modify it.
type StageHook func(stage string, raster *rimage.Raster)

// Params configures every stage of the pipeline.
type Params struct {
	DeletedCells []image.Point          `json:"-"`
	Connectivity int                    `json:"connectivity"`
	ExpandAmount int                    `json:"expand_amount"`
	ExpandConnex int                    `json:"expand_connex"`
	Dilate       int                    `json:"dilate"`
	Erode        int                    `json:"erode"`
	UseBilateral bool                   `json:"use_bilateral"`
	Bilateral    rimage.BilateralParams `json:"bilateral"`
	EraseAmount  int                    `json:"erase_amount"`
	EraseConnex  int                    `json:"erase_connex"`
}

// DefaultParams returns the parameters used for live captures.
func DefaultParams() Params {
	return Params{
		Connectivity: 4,
		ExpandAmount: 5,
		ExpandConnex: 2,
		UseBilateral: true,
		Bilateral:    rimage.BilateralParams{Diameter: -1, SigmaColor: 200, SigmaSpace: 0},
	}
}

// Validate ensures all parts of the params are valid.
func (p Params) Validate() error {
	if p.Connectivity != 4 && p.Connectivity != 8 {
		return errors.Errorf("connectivity must be 4 or 8, got %d", p.Connectivity)
	}
	counts := []struct {
		name  string
		value int
	}{
		{"expand_amount", p.ExpandAmount},
		{"expand_connex", p.ExpandConnex},
		{"dilate", p.Dilate},
		{"erode", p.Erode},
		{"erase_amount", p.EraseAmount},
		{"erase_connex", p.EraseConnex},
	}
	for _, c := range counts {
		if c.value < 0 {
			return errors.Errorf("%s cannot be negative, got %d", c.name, c.value)
		}
	}
	if p.ExpandConnex > 8 || p.EraseConnex > 8 {
		return errors.New("contour connex cannot exceed 8")
	}
	return nil
}

// Fuse runs the pipeline over same sized rasters:
// temporal mean, manual deletion, largest component, contour expansion, dilation and erosion
// when at least three iterations are asked, bilateral smoothing masked back to the footprint
// it started from, and contour erasure. hook may be nil.
func Fuse(rasters []*rimage.Raster, params Params, hook StageHook) (*rimage.Raster, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if hook == nil {
		hook = func(string, *rimage.Raster) {}
	}

	fused, err := rimage.TemporalMean(rasters)
	if err != nil {
		return nil, errors.Wrap(err, "temporal fusion failed")
	}
	hook(StageTemporalMean, fused)

	fused = fused.ClearCells(params.DeletedCells)
	hook(StageDeletion, fused)

	fused, err = fused.KeepLargestComponent(params.Connectivity)
	if err != nil {
		return nil, err
	}
	hook(StageLargestComponent, fused)

	fused = fused.ExpandContours(params.ExpandAmount, params.ExpandConnex)
	hook(StageExpand, fused)

	if params.Dilate >= minMorphologyIterations {
		fused = fused.Dilate(params.Dilate)
		hook(StageDilate, fused)
	}
	if params.Erode >= minMorphologyIterations {
		fused = fused.Erode(params.Erode)
		hook(StageErode, fused)
	}

	if params.UseBilateral {
		fused = fused.BilateralFilter(params.Bilateral).MaskWith(fused)
		hook(StageBilateral, fused)
	}

	fused = fused.EraseContours(params.EraseAmount, params.EraseConnex)
	hook(StageErase, fused)
	return fused, nil
}
