package facedetection

import (
	"image"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/yanioaioan/swooz/rimage"
)

// landmarkSearchRadius is how far around a landmark pixel a missing depth sample is looked for.
const landmarkSearchRadius = 2

// TemplateLandmarkDetector places the 68 point facial layout (jaw, brows, nose, eyes, mouth)
// at fixed positions relative to the face rectangle and lifts them with the point map.
type TemplateLandmarkDetector struct {
	layout []r2.Point
}

// NewTemplateLandmarkDetector returns a detector using the average frontal face layout.
func NewTemplateLandmarkDetector() *TemplateLandmarkDetector {
	return &TemplateLandmarkDetector{layout: frontalLayout()}
}

// Layout returns the landmark positions relative to the face rectangle, in [0,1]^2.
func (tl *TemplateLandmarkDetector) Layout() []r2.Point {
	return tl.layout
}

// Landmarks lifts every template position inside face to camera space.
func (tl *TemplateLandmarkDetector) Landmarks(img image.Image, points *rimage.PointMap, face image.Rectangle) ([]r3.Vector, error) {
	if face.Empty() {
		return nil, errors.New("empty face rectangle")
	}
	out := make([]r3.Vector, len(tl.layout))
	found := 0
	for i, rel := range tl.layout {
		px := image.Pt(
			face.Min.X+int(math.Round(rel.X*float64(face.Dx()-1))),
			face.Min.Y+int(math.Round(rel.Y*float64(face.Dy()-1))),
		)
		if p, ok := validAround(points, px); ok {
			out[i] = p
			found++
		}
	}
	if found == 0 {
		return nil, errors.New("no landmark has a depth sample")
	}
	return out, nil
}

func validAround(points *rimage.PointMap, px image.Point) (r3.Vector, bool) {
	for radius := 0; radius <= landmarkSearchRadius; radius++ {
		for dy := -radius; dy <= radius; dy++ {
			for dx := -radius; dx <= radius; dx++ {
				if p := points.At(px.X+dx, px.Y+dy); p.Z != 0 {
					return p, true
				}
			}
		}
	}
	return r3.Vector{}, false
}

func ellipse(center r2.Point, rx, ry float64, n int) []r2.Point {
	out := make([]r2.Point, n)
	for i := range out {
		a := math.Pi + 2*math.Pi*float64(i)/float64(n)
		out[i] = r2.Point{X: center.X + rx*math.Cos(a), Y: center.Y + ry*math.Sin(a)}
	}
	return out
}

func line(from, to r2.Point, n int) []r2.Point {
	out := make([]r2.Point, n)
	for i := range out {
		t := float64(i) / float64(n-1)
		out[i] = from.Add(to.Sub(from).Mul(t))
	}
	return out
}

func frontalLayout() []r2.Point {
	layout := make([]r2.Point, 0, NumLandmarks)
	// jaw, ear to ear through the chin
	for i := 0; i < 17; i++ {
		a := math.Pi * float64(i) / 16
		layout = append(layout, r2.Point{X: 0.5 - 0.45*math.Cos(a), Y: 0.35 + 0.6*math.Sin(a)})
	}
	layout = append(layout, line(r2.Point{X: 0.15, Y: 0.27}, r2.Point{X: 0.42, Y: 0.25}, 5)...)
	layout = append(layout, line(r2.Point{X: 0.58, Y: 0.25}, r2.Point{X: 0.85, Y: 0.27}, 5)...)
	layout = append(layout, line(r2.Point{X: 0.5, Y: 0.35}, r2.Point{X: 0.5, Y: 0.6}, 4)...)
	layout = append(layout, line(r2.Point{X: 0.4, Y: 0.65}, r2.Point{X: 0.6, Y: 0.65}, 5)...)
	layout = append(layout, ellipse(r2.Point{X: 0.3, Y: 0.38}, 0.07, 0.03, 6)...)
	layout = append(layout, ellipse(r2.Point{X: 0.7, Y: 0.38}, 0.07, 0.03, 6)...)
	layout = append(layout, ellipse(r2.Point{X: 0.5, Y: 0.8}, 0.15, 0.06, 12)...)
	layout = append(layout, ellipse(r2.Point{X: 0.5, Y: 0.8}, 0.1, 0.03, 8)...)
	return layout
}
