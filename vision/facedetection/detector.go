// Package facedetection defines how the avatar pipeline locates a face, its nose tip and its
// landmarks in a frame, and provides depth based implementations that need no trained model.
package facedetection

import (
	"image"

	"github.com/golang/geo/r3"

	"github.com/yanioaioan/swooz/rimage"
)

// NumLandmarks is the size of the landmark set returned by a LandmarkDetector.
const NumLandmarks = 68

// Detector finds the face and its nose tip in a frame.
type Detector interface {
	// DetectFace returns the face rectangle of a background-removed color image.
	DetectFace(img image.Image) (image.Rectangle, bool)
	// NoseTip returns the nose tip inside region, both in camera space and in pixels.
	NoseTip(points *rimage.PointMap, region image.Rectangle) (r3.Vector, image.Point, bool)
}

// LandmarkDetector finds NumLandmarks facial landmarks inside a face rectangle. Landmarks
// without a depth sample are returned as the zero vector.
type LandmarkDetector interface {
	Landmarks(img image.Image, points *rimage.PointMap, face image.Rectangle) ([]r3.Vector, error)
}
