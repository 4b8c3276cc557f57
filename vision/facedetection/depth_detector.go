package facedetection

import (
	"image"
	"image/color"

	"github.com/golang/geo/r3"

	"github.com/yanioaioan/swooz/rimage"
)

// DefaultMinFacePixels is the smallest foreground blob accepted as a face.
const DefaultMinFacePixels = 400

// DepthDetector expects the background to have been blacked out already. The face is the
// bounding box of the largest 4-connected group of non black pixels, and the nose tip is the
// sample closest to the camera inside the face.
type DepthDetector struct {
	MinPixels int
}

// NewDepthDetector returns a detector rejecting blobs smaller than minPixels. A non positive
// value selects DefaultMinFacePixels.
func NewDepthDetector(minPixels int) *DepthDetector {
	if minPixels <= 0 {
		minPixels = DefaultMinFacePixels
	}
	return &DepthDetector{MinPixels: minPixels}
}

// DetectFace returns the bounding box of the largest foreground blob.
func (dd *DepthDetector) DetectFace(img image.Image) (image.Rectangle, bool) {
	bounds := img.Bounds()
	width := bounds.Dx()
	seen := make([]bool, width*bounds.Dy())
	index := func(pt image.Point) int {
		return (pt.Y-bounds.Min.Y)*width + pt.X - bounds.Min.X
	}

	var best image.Rectangle
	bestCount := 0
	queue := []image.Point{}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			pt := image.Pt(x, y)
			if seen[index(pt)] {
				continue
			}
			seen[index(pt)] = true
			if !isForeground(img.At(x, y)) {
				continue
			}
			queue = append(queue[:0], pt)
			box := image.Rectangle{Min: pt, Max: pt.Add(image.Pt(1, 1))}
			count := 0
			for len(queue) != 0 {
				cur := queue[0]
				queue = queue[1:]
				count++
				box = box.Union(image.Rectangle{Min: cur, Max: cur.Add(image.Pt(1, 1))})
				for _, n := range []image.Point{{cur.X, cur.Y - 1}, {cur.X, cur.Y + 1}, {cur.X - 1, cur.Y}, {cur.X + 1, cur.Y}} {
					if !n.In(bounds) || seen[index(n)] {
						continue
					}
					seen[index(n)] = true
					if isForeground(img.At(n.X, n.Y)) {
						queue = append(queue, n)
					}
				}
			}
			if count > bestCount {
				best, bestCount = box, count
			}
		}
	}
	if bestCount < dd.MinPixels {
		return image.Rectangle{}, false
	}
	return best, true
}

// NoseTip returns the valid sample of region closest to the camera.
func (dd *DepthDetector) NoseTip(points *rimage.PointMap, region image.Rectangle) (r3.Vector, image.Point, bool) {
	return points.NearestPoint(region)
}

func isForeground(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r|g|b != 0
}
