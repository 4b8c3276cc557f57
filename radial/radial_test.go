package radial

import (
	"image/color"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/yanioaioan/swooz/pointcloud"
)

const (
	cylRadius = 0.15
	cylAngle  = 1.2
)

// makeHalfCylinder samples a cylinder of radius cylRadius around the vertical axis x=0, z=1,
// restricted to the angles facing the camera.
func makeHalfCylinder(t *testing.T) *pointcloud.Cloud {
	t.Helper()
	cloud := pointcloud.New()
	for i := 0; i < 400; i++ {
		theta := -cylAngle + 2*cylAngle*float64(i)/399
		for j := 0; j < 100; j++ {
			y := -0.1 + 0.2*float64(j)/99
			p := r3.Vector{X: cylRadius * math.Sin(theta), Y: y, Z: 1 - cylRadius*math.Cos(theta)}
			test.That(t, cloud.Append(p), test.ShouldBeNil)
		}
	}
	return cloud
}

func TestParamsValidate(t *testing.T) {
	test.That(t, DefaultParams().Validate(), test.ShouldBeNil)
	test.That(t, Params{Width: 0, Height: 10, Radius: 1}.Validate(), test.ShouldNotBeNil)
	test.That(t, Params{Width: 10, Height: 10, Radius: 0}.Validate(), test.ShouldNotBeNil)
	test.That(t, Params{Width: 10, Height: 10, Radius: math.Inf(1)}.Validate(), test.ShouldNotBeNil)
}

func TestCylinderFromBoundingBox(t *testing.T) {
	bb := pointcloud.BoundingBox{Min: r3.Vector{X: -1, Y: -2, Z: 3}, Max: r3.Vector{X: 3, Y: 2, Z: 5}}
	cy := NewCylinder(bb, 0.5)
	test.That(t, cy.Axis.X, test.ShouldEqual, 1)
	test.That(t, cy.Axis.Z, test.ShouldEqual, 3.5)
	test.That(t, cy.Angle(r3.Vector{X: 1, Z: 3}), test.ShouldAlmostEqual, 0)
	test.That(t, cy.Angle(r3.Vector{X: 2, Z: 3.5}), test.ShouldAlmostEqual, math.Pi/2)

	col, row := cy.Cell(r3.Vector{X: 1, Y: -2, Z: 3}, 10, 4)
	test.That(t, col, test.ShouldEqual, 5)
	test.That(t, row, test.ShouldEqual, 0)
	col, row = cy.Cell(r3.Vector{X: 1, Y: 2, Z: 3}, 10, 4)
	test.That(t, col, test.ShouldEqual, 5)
	test.That(t, row, test.ShouldEqual, 3)
}

func TestProjectKeepsOutermostSample(t *testing.T) {
	cloud := pointcloud.New()
	test.That(t, cloud.AppendColored(r3.Vector{X: 0, Y: 0, Z: 1}, color.NRGBA{R: 255, A: 255}), test.ShouldBeNil)
	test.That(t, cloud.AppendColored(r3.Vector{X: 0, Y: 0, Z: 1.05}, color.NRGBA{G: 255, A: 255}), test.ShouldBeNil)
	test.That(t, cloud.AppendColored(r3.Vector{X: 0, Y: 1, Z: 1}, color.NRGBA{B: 255, A: 255}), test.ShouldBeNil)
	bb := cloud.BoundingBox()

	raster, reprojected, err := Project(cloud, bb, Params{Width: 8, Height: 4, Radius: 0.2})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, raster.NumFilled(), test.ShouldEqual, 2)
	test.That(t, raster.At(4, 0), test.ShouldAlmostEqual, 0.2)
	test.That(t, raster.At(4, 3), test.ShouldAlmostEqual, 0.2)

	test.That(t, reprojected.Size(), test.ShouldEqual, 2)
	test.That(t, reprojected.HasColor(), test.ShouldBeTrue)
	c, err := reprojected.Color(0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c, test.ShouldResemble, color.NRGBA{R: 255, A: 255})
}

func TestProjectRejectsBadInput(t *testing.T) {
	cloud := pointcloud.NewFromPoints([]r3.Vector{{Z: 1}})
	_, _, err := Project(cloud, pointcloud.NewBoundingBox(), DefaultParams())
	test.That(t, err, test.ShouldNotBeNil)
	_, _, err = Project(cloud, cloud.BoundingBox(), Params{})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestRoundTripHalfCylinder(t *testing.T) {
	cloud := makeHalfCylinder(t)
	bb := cloud.BoundingBox()
	params := Params{Width: 60, Height: 20, Radius: cylRadius}

	raster, reprojected, err := Project(cloud, bb, params)
	test.That(t, err, test.ShouldBeNil)

	minCol := int(math.Floor((-cylAngle + math.Pi/2) / math.Pi * 60))
	maxCol := int(math.Floor((cylAngle + math.Pi/2) / math.Pi * 60))
	cols := maxCol - minCol + 1
	test.That(t, raster.NumFilled(), test.ShouldEqual, cols*20)
	test.That(t, reprojected.Size(), test.ShouldEqual, cols*20)
	for row := 0; row < 20; row++ {
		for col := minCol; col <= maxCol; col++ {
			test.That(t, raster.At(col, row), test.ShouldAlmostEqual, cylRadius, 1e-5)
		}
	}

	surface, err := Unproject(raster, bb, bb, params)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(surface.Vertices), test.ShouldEqual, cols*20)
	test.That(t, len(surface.Triangles), test.ShouldEqual, (cols-1)*19*2)
	for _, uv := range surface.TexCoords {
		test.That(t, uv.X, test.ShouldBeGreaterThanOrEqualTo, 0)
		test.That(t, uv.X, test.ShouldBeLessThanOrEqualTo, 1)
		test.That(t, uv.Y, test.ShouldBeGreaterThanOrEqualTo, 0)
		test.That(t, uv.Y, test.ShouldBeLessThanOrEqualTo, 1)
	}

	m, err := surface.Mesh()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.NumPoints(), test.ShouldEqual, cols*20)
	got := m.BoundingBox()
	test.That(t, got.Min.X, test.ShouldAlmostEqual, bb.Min.X, 0.01)
	test.That(t, got.Max.X, test.ShouldAlmostEqual, bb.Max.X, 0.01)
	test.That(t, got.Min.Y, test.ShouldAlmostEqual, bb.Min.Y, 0.01)
	test.That(t, got.Max.Y, test.ShouldAlmostEqual, bb.Max.Y, 0.01)
	test.That(t, got.Min.Z, test.ShouldAlmostEqual, bb.Min.Z, 0.01)

	for i := 0; i < m.NumTriangles(); i++ {
		n, err := m.TriangleNormal(i)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, n.Z, test.ShouldBeLessThan, 0)
	}
	border, err := m.IsVertexOnBorder(0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, border, test.ShouldBeTrue)
}

func TestUnprojectDropsIsolatedCells(t *testing.T) {
	cloud := makeHalfCylinder(t)
	bb := cloud.BoundingBox()
	params := Params{Width: 60, Height: 20, Radius: cylRadius}
	raster, _, err := Project(cloud, bb, params)
	test.That(t, err, test.ShouldBeNil)
	filled := raster.NumFilled()

	// a lonely cell far from the filled band gets a vertex but no triangle
	raster.Set(0, 10, cylRadius)
	surface, err := Unproject(raster, bb, bb, params)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(surface.Vertices), test.ShouldEqual, filled+1)
	m, err := surface.Mesh()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.NumPoints(), test.ShouldEqual, filled)

	_, err = Unproject(raster, bb, bb, Params{Width: 10, Height: 20, Radius: cylRadius})
	test.That(t, err, test.ShouldNotBeNil)
}
