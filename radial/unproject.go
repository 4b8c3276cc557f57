package radial

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/yanioaioan/swooz/mesh"
	"github.com/yanioaioan/swooz/pointcloud"
	"github.com/yanioaioan/swooz/rimage"
	"github.com/yanioaioan/swooz/utils"
)

// Surface is the triangulated lift of a raster: one vertex per filled cell in row major order,
// one texture coordinate per vertex and two triangles per fully filled 2x2 block.
type Surface struct {
	Vertices  []r3.Vector
	TexCoords []r2.Point
	Triangles [][3]int
}

// Unproject lifts every filled cell of raster back onto the cylinder of bbox. Texture
// coordinates place each vertex inside faceBBox, u growing to the right and v growing
// upwards. Every 2x2 block of filled cells is split along the same diagonal into two
// triangles wound to face the camera.
func Unproject(raster *rimage.Raster, bbox, faceBBox pointcloud.BoundingBox, params Params) (*Surface, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if raster.Width() != params.Width || raster.Height() != params.Height {
		return nil, errors.Errorf("raster is %dx%d but params expect %dx%d",
			raster.Width(), raster.Height(), params.Width, params.Height)
	}
	if bbox.Empty() {
		return nil, errors.New("cannot unproject with an empty bounding box")
	}
	cy := NewCylinder(bbox, params.Radius)
	faceSize := faceBBox.Size()

	index := make([]int, params.Width*params.Height)
	surface := &Surface{}
	for row := 0; row < params.Height; row++ {
		for col := 0; col < params.Width; col++ {
			rho := raster.At(col, row)
			if rho <= 0 {
				index[row*params.Width+col] = -1
				continue
			}
			theta, y := cy.CellCenter(col, row, params.Width, params.Height)
			p := cy.Lift(theta, y, rho)
			index[row*params.Width+col] = len(surface.Vertices)
			surface.Vertices = append(surface.Vertices, p)
			surface.TexCoords = append(surface.TexCoords, r2.Point{
				X: normalize(p.X, faceBBox.Min.X, faceSize.X),
				Y: 1 - normalize(p.Y, faceBBox.Min.Y, faceSize.Y),
			})
		}
	}

	for row := 0; row+1 < params.Height; row++ {
		for col := 0; col+1 < params.Width; col++ {
			a := index[row*params.Width+col]
			b := index[row*params.Width+col+1]
			c := index[(row+1)*params.Width+col]
			d := index[(row+1)*params.Width+col+1]
			if a < 0 || b < 0 || c < 0 || d < 0 {
				continue
			}
			surface.Triangles = append(surface.Triangles, [3]int{a, c, b}, [3]int{b, c, d})
		}
	}
	return surface, nil
}

func normalize(v, lo, span float64) float64 {
	if span <= 0 {
		return 0.5
	}
	return utils.Clamp((v-lo)/span, 0, 1)
}

// Mesh builds a mesh from the surface, drops vertices no triangle uses and computes normals.
func (s *Surface) Mesh() (*mesh.Mesh, error) {
	m, err := mesh.New(s.Vertices, s.Triangles)
	if err != nil {
		return nil, err
	}
	if err := m.SetTextureCoordinates(s.TexCoords); err != nil {
		return nil, err
	}
	m.DeletePointsWithNoFaces()
	m.UpdateNormals()
	return m, nil
}
