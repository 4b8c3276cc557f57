package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
)

// BoundingBox is the axis aligned extent of a set of points.
type BoundingBox struct {
	Min r3.Vector `json:"min"`
	Max r3.Vector `json:"max"`
}

// NewBoundingBox returns an empty box that any point will extend.
func NewBoundingBox() BoundingBox {
	inf := math.Inf(1)
	return BoundingBox{
		Min: r3.Vector{X: inf, Y: inf, Z: inf},
		Max: r3.Vector{X: -inf, Y: -inf, Z: -inf},
	}
}

// Extend grows the box to contain p.
func (bb *BoundingBox) Extend(p r3.Vector) {
	bb.Min.X = math.Min(bb.Min.X, p.X)
	bb.Min.Y = math.Min(bb.Min.Y, p.Y)
	bb.Min.Z = math.Min(bb.Min.Z, p.Z)
	bb.Max.X = math.Max(bb.Max.X, p.X)
	bb.Max.Y = math.Max(bb.Max.Y, p.Y)
	bb.Max.Z = math.Max(bb.Max.Z, p.Z)
}

// Merge grows the box to contain other.
func (bb *BoundingBox) Merge(other BoundingBox) {
	if other.Empty() {
		return
	}
	bb.Extend(other.Min)
	bb.Extend(other.Max)
}

// Empty reports whether no point was ever added.
func (bb BoundingBox) Empty() bool {
	return bb.Min.X > bb.Max.X || bb.Min.Y > bb.Max.Y || bb.Min.Z > bb.Max.Z
}

// Center returns the middle of the box.
func (bb BoundingBox) Center() r3.Vector {
	return bb.Min.Add(bb.Max).Mul(0.5)
}

// Size returns the extent along each axis.
func (bb BoundingBox) Size() r3.Vector {
	if bb.Empty() {
		return r3.Vector{}
	}
	return bb.Max.Sub(bb.Min)
}

// Contains reports whether p is inside the box, borders included.
func (bb BoundingBox) Contains(p r3.Vector) bool {
	return p.X >= bb.Min.X && p.X <= bb.Max.X &&
		p.Y >= bb.Min.Y && p.Y <= bb.Max.Y &&
		p.Z >= bb.Min.Z && p.Z <= bb.Max.Z
}
