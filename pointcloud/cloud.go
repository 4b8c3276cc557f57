// Package pointcloud defines the ordered, optionally colored point cloud used by the
// reconstruction pipeline, along with bounding boxes, scoring and frame accumulation.
package pointcloud

import (
	"image/color"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/yanioaioan/swooz/spatialmath"
)

// ErrIndexOutOfRange is returned by accessors given an index outside of the cloud.
var ErrIndexOutOfRange = errors.New("point index out of range")

// ErrColorMismatch is returned when appending would leave a cloud partially colored.
var ErrColorMismatch = errors.New("cloud colors must be present for every point or for none")

// Cloud is an ordered sequence of 3D points with an optional parallel sequence of colors.
// The color slice is either empty or exactly as long as the point slice.
type Cloud struct {
	points []r3.Vector
	colors []color.NRGBA
}

// New returns an empty cloud.
func New() *Cloud {
	return &Cloud{}
}

// NewWithPrealloc returns an empty cloud with room for size points.
func NewWithPrealloc(size int, colored bool) *Cloud {
	c := &Cloud{points: make([]r3.Vector, 0, size)}
	if colored {
		c.colors = make([]color.NRGBA, 0, size)
	}
	return c
}

// NewFromPoints wraps a copy of pts in an uncolored cloud.
func NewFromPoints(pts []r3.Vector) *Cloud {
	return &Cloud{points: append([]r3.Vector(nil), pts...)}
}

// Size returns the number of points.
func (c *Cloud) Size() int {
	return len(c.points)
}

// HasColor reports whether every point carries a color. An empty cloud has no color.
func (c *Cloud) HasColor() bool {
	return len(c.colors) > 0
}

// Append adds an uncolored point. It fails on a colored cloud.
func (c *Cloud) Append(p r3.Vector) error {
	if len(c.colors) > 0 {
		return ErrColorMismatch
	}
	c.points = append(c.points, p)
	return nil
}

// AppendColored adds a colored point. It fails on a non-empty uncolored cloud.
func (c *Cloud) AppendColored(p r3.Vector, col color.NRGBA) error {
	if len(c.points) > 0 && len(c.colors) == 0 {
		return ErrColorMismatch
	}
	c.points = append(c.points, p)
	c.colors = append(c.colors, col)
	return nil
}

// Point returns the point at index i.
func (c *Cloud) Point(i int) (r3.Vector, error) {
	if i < 0 || i >= len(c.points) {
		return r3.Vector{}, errors.Wrapf(ErrIndexOutOfRange, "index %d, size %d", i, len(c.points))
	}
	return c.points[i], nil
}

// Color returns the color of the point at index i.
func (c *Cloud) Color(i int) (color.NRGBA, error) {
	if i < 0 || i >= len(c.colors) {
		return color.NRGBA{}, errors.Wrapf(ErrIndexOutOfRange, "color index %d, colored size %d", i, len(c.colors))
	}
	return c.colors[i], nil
}

// Points returns the underlying points. The slice must not be modified.
func (c *Cloud) Points() []r3.Vector {
	return c.points
}

// Colors returns the underlying colors, nil for an uncolored cloud.
func (c *Cloud) Colors() []color.NRGBA {
	return c.colors
}

// Union appends every point of other. Colors survive only when both clouds are colored or
// when the receiver was empty; otherwise the result is uncolored.
func (c *Cloud) Union(other *Cloud) {
	if other == nil || other.Size() == 0 {
		return
	}
	if c.Size() == 0 {
		c.points = append(c.points[:0], other.points...)
		c.colors = append(c.colors[:0], other.colors...)
		return
	}
	if c.HasColor() && other.HasColor() {
		c.colors = append(c.colors, other.colors...)
	} else {
		c.colors = nil
	}
	c.points = append(c.points, other.points...)
}

// Part returns a copy of the points in [start, end).
func (c *Cloud) Part(start, end int) (*Cloud, error) {
	if start < 0 || end > len(c.points) || start > end {
		return nil, errors.Wrapf(ErrIndexOutOfRange, "part [%d, %d) of %d points", start, end, len(c.points))
	}
	out := &Cloud{points: append([]r3.Vector(nil), c.points[start:end]...)}
	if c.HasColor() {
		out.colors = append([]color.NRGBA(nil), c.colors[start:end]...)
	}
	return out, nil
}

// Reduce returns a decimated copy keeping ceil(n*factor) evenly spaced points in their
// original order. A factor of 1 or more returns a full copy.
func (c *Cloud) Reduce(factor float64) (*Cloud, error) {
	if factor <= 0 || math.IsNaN(factor) {
		return nil, errors.Errorf("reduction factor must be positive, got %v", factor)
	}
	n := c.Size()
	if factor >= 1 || n == 0 {
		return c.Clone(), nil
	}
	keep := int(math.Ceil(float64(n) * factor))
	out := NewWithPrealloc(keep, c.HasColor())
	for k := 0; k < keep; k++ {
		i := k * n / keep
		out.points = append(out.points, c.points[i])
		if c.HasColor() {
			out.colors = append(out.colors, c.colors[i])
		}
	}
	return out, nil
}

// Transform returns a copy with motion applied to every point.
func (c *Cloud) Transform(motion spatialmath.RigidMotion) *Cloud {
	out := &Cloud{
		points: make([]r3.Vector, len(c.points)),
		colors: append([]color.NRGBA(nil), c.colors...),
	}
	rm := motion.Matrix()
	for i, p := range c.points {
		out.points[i] = rm.Mul(p).Add(motion.Translation)
	}
	return out
}

// Clone returns a deep copy.
func (c *Cloud) Clone() *Cloud {
	return &Cloud{
		points: append([]r3.Vector(nil), c.points...),
		colors: append([]color.NRGBA(nil), c.colors...),
	}
}

// Reset empties the cloud.
func (c *Cloud) Reset() {
	c.points = c.points[:0]
	c.colors = nil
}

// Centroid returns the mean point, the zero vector for an empty cloud.
func (c *Cloud) Centroid() r3.Vector {
	var sum r3.Vector
	if len(c.points) == 0 {
		return sum
	}
	for _, p := range c.points {
		sum = sum.Add(p)
	}
	n := float64(len(c.points))
	return r3.Vector{X: sum.X / n, Y: sum.Y / n, Z: sum.Z / n}
}

// BoundingBox returns the extents of the cloud.
func (c *Cloud) BoundingBox() BoundingBox {
	bb := NewBoundingBox()
	for _, p := range c.points {
		bb.Extend(p)
	}
	return bb
}
