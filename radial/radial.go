// Package radial unwraps a face point cloud onto a cylindrical raster around a vertical axis
// and lifts a raster back into a textured triangle surface.
package radial

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/yanioaioan/swooz/pointcloud"
	"github.com/yanioaioan/swooz/rimage"
	"github.com/yanioaioan/swooz/utils"
)

// Params sizes the raster and the cylinder.
type Params struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Radius float64 `json:"radius"`
}

// DefaultParams returns a 350 x 200 raster around a 15cm cylinder.
func DefaultParams() Params {
	return Params{Width: 350, Height: 200, Radius: 0.15}
}

// Validate ensures all parts of the params are valid.
func (p Params) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return errors.Errorf("raster size must be positive, got %dx%d", p.Width, p.Height)
	}
	if p.Radius <= 0 || math.IsNaN(p.Radius) || math.IsInf(p.Radius, 0) {
		return errors.Errorf("cylinder radius must be positive and finite, got %v", p.Radius)
	}
	return nil
}

// Cylinder is a vertical axis placed Radius behind the front of a bounding box, with the
// vertical extent of that box.
type Cylinder struct {
	Axis   r3.Vector
	Radius float64
	MinY   float64
	SpanY  float64
}

// NewCylinder derives the projection cylinder of a bounding box.
func NewCylinder(bbox pointcloud.BoundingBox, radius float64) Cylinder {
	center := bbox.Center()
	return Cylinder{
		Axis:   r3.Vector{X: center.X, Y: 0, Z: bbox.Min.Z + radius},
		Radius: radius,
		MinY:   bbox.Min.Y,
		SpanY:  bbox.Max.Y - bbox.Min.Y,
	}
}

// Angle returns the angle of p around the axis, 0 facing the camera and positive to the right.
func (cy Cylinder) Angle(p r3.Vector) float64 {
	return math.Atan2(p.X-cy.Axis.X, -(p.Z - cy.Axis.Z))
}

// Distance returns the distance of p from the axis.
func (cy Cylinder) Distance(p r3.Vector) float64 {
	return math.Hypot(p.X-cy.Axis.X, p.Z-cy.Axis.Z)
}

// Cell returns the raster cell of p, clamped into the raster.
func (cy Cylinder) Cell(p r3.Vector, width, height int) (int, int) {
	col := int(math.Floor((cy.Angle(p) + math.Pi/2) / math.Pi * float64(width)))
	row := 0
	if cy.SpanY > 0 {
		row = int(math.Floor((p.Y - cy.MinY) / cy.SpanY * float64(height)))
	}
	return utils.ClampInt(col, 0, width-1), utils.ClampInt(row, 0, height-1)
}

// CellCenter returns the angle and height of the center of a cell.
func (cy Cylinder) CellCenter(col, row, width, height int) (float64, float64) {
	theta := (float64(col)+0.5)/float64(width)*math.Pi - math.Pi/2
	y := cy.MinY + (float64(row)+0.5)/float64(height)*cy.SpanY
	return theta, y
}

// Lift returns the point at angle theta, height y and distance rho from the axis.
func (cy Cylinder) Lift(theta, y, rho float64) r3.Vector {
	return r3.Vector{
		X: cy.Axis.X + rho*math.Sin(theta),
		Y: y,
		Z: cy.Axis.Z - rho*math.Cos(theta),
	}
}

// Project bins every point of cloud into a width x height raster by angle around the cylinder
// of bbox and by height inside bbox. A cell holds the distance to the axis of the outermost
// point binned there. The second result has one point per filled cell, lifted back at the
// cell center in row major order, carrying the color of the winning point when the cloud is
// colored.
func Project(cloud *pointcloud.Cloud, bbox pointcloud.BoundingBox, params Params) (*rimage.Raster, *pointcloud.Cloud, error) {
	if err := params.Validate(); err != nil {
		return nil, nil, err
	}
	if bbox.Empty() {
		return nil, nil, errors.New("cannot project with an empty bounding box")
	}
	cy := NewCylinder(bbox, params.Radius)
	raster := rimage.NewRaster(params.Width, params.Height)
	winners := make([]int, params.Width*params.Height)
	for i := range winners {
		winners[i] = -1
	}

	for i, p := range cloud.Points() {
		col, row := cy.Cell(p, params.Width, params.Height)
		rho := cy.Distance(p)
		if rho <= 0 {
			continue
		}
		if rho > raster.At(col, row) {
			raster.Set(col, row, rho)
			winners[row*params.Width+col] = i
		}
	}

	colors := cloud.Colors()
	reprojected := pointcloud.NewWithPrealloc(raster.NumFilled(), cloud.HasColor())
	for row := 0; row < params.Height; row++ {
		for col := 0; col < params.Width; col++ {
			rho := raster.At(col, row)
			if rho <= 0 {
				continue
			}
			theta, y := cy.CellCenter(col, row, params.Width, params.Height)
			p := cy.Lift(theta, y, rho)
			var err error
			if cloud.HasColor() {
				err = reprojected.AppendColored(p, colors[winners[row*params.Width+col]])
			} else {
				err = reprojected.Append(p)
			}
			if err != nil {
				return nil, nil, err
			}
		}
	}
	return raster, reprojected, nil
}
