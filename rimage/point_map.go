// Package rimage holds the image side of the pipeline: organized point maps from depth
// sensors, background masking, and the float rasters the fusion stages operate on.
package rimage

import (
	"image"
	"image/color"

	"github.com/golang/geo/r3"

	"github.com/yanioaioan/swooz/pointcloud"
)

// PointMap is an organized grid of 3D points in camera coordinates (meters, X right, Y down,
// Z forward), one per depth pixel. A point with Z == 0 means the sensor returned no sample.
type PointMap struct {
	width  int
	height int
	data   []r3.Vector
}

// NewPointMap returns an empty point map.
func NewPointMap(width, height int) *PointMap {
	return &PointMap{
		width:  width,
		height: height,
		data:   make([]r3.Vector, width*height),
	}
}

// Width returns the number of columns.
func (pm *PointMap) Width() int {
	return pm.width
}

// Height returns the number of rows.
func (pm *PointMap) Height() int {
	return pm.height
}

// Bounds returns the rectangle covered by the map.
func (pm *PointMap) Bounds() image.Rectangle {
	return image.Rect(0, 0, pm.width, pm.height)
}

// In reports whether (x, y) is inside the map.
func (pm *PointMap) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < pm.width && y < pm.height
}

func (pm *PointMap) kxy(x, y int) int {
	return (y * pm.width) + x
}

// At returns the point at pixel (x, y), the zero vector when outside the map.
func (pm *PointMap) At(x, y int) r3.Vector {
	if !pm.In(x, y) {
		return r3.Vector{}
	}
	return pm.data[pm.kxy(x, y)]
}

// Set stores the point at pixel (x, y). Writes outside the map are ignored.
func (pm *PointMap) Set(x, y int, p r3.Vector) {
	if pm.In(x, y) {
		pm.data[pm.kxy(x, y)] = p
	}
}

// Valid reports whether the pixel holds a sample.
func (pm *PointMap) Valid(x, y int) bool {
	return pm.At(x, y).Z != 0
}

// NumValid returns how many pixels hold a sample.
func (pm *PointMap) NumValid() int {
	n := 0
	for _, p := range pm.data {
		if p.Z != 0 {
			n++
		}
	}
	return n
}

// CloudFromRegion builds a colored cloud from the samples inside rect whose depth is within
// [zMin, zMax]. The region is clipped to the map. Points keep row-major pixel order.
func (pm *PointMap) CloudFromRegion(img image.Image, rect image.Rectangle, zMin, zMax float64) *pointcloud.Cloud {
	rect = rect.Intersect(pm.Bounds())
	cloud := pointcloud.NewWithPrealloc(rect.Dx()*rect.Dy(), true)
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			p := pm.data[pm.kxy(x, y)]
			if p.Z == 0 || p.Z < zMin || p.Z > zMax {
				continue
			}
			//nolint:errcheck
			cloud.AppendColored(p, color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA))
		}
	}
	return cloud
}

// RegionBoundingBox returns the cloud-space extents of the samples inside rect whose depth is
// within [zMin, zMax].
func (pm *PointMap) RegionBoundingBox(rect image.Rectangle, zMin, zMax float64) pointcloud.BoundingBox {
	rect = rect.Intersect(pm.Bounds())
	bb := pointcloud.NewBoundingBox()
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			p := pm.data[pm.kxy(x, y)]
			if p.Z == 0 || p.Z < zMin || p.Z > zMax {
				continue
			}
			bb.Extend(p)
		}
	}
	return bb
}

// NearestPoint returns the valid sample of rect closest to the camera along Z, and its pixel.
func (pm *PointMap) NearestPoint(rect image.Rectangle) (r3.Vector, image.Point, bool) {
	rect = rect.Intersect(pm.Bounds())
	var best r3.Vector
	var bestPx image.Point
	found := false
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			p := pm.data[pm.kxy(x, y)]
			if p.Z == 0 {
				continue
			}
			if !found || p.Z < best.Z {
				best, bestPx, found = p, image.Pt(x, y), true
			}
		}
	}
	return best, bestPx, found
}
