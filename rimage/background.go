package rimage

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
)

// foregroundPercentile picks the depth taken as the front of the scene.
const foregroundPercentile = 2

// ForegroundDepth returns the depth of the dominant foreground of the map.
func ForegroundDepth(pm *PointMap) (float64, error) {
	depths := make(stats.Float64Data, 0, len(pm.data))
	for _, p := range pm.data {
		if p.Z != 0 {
			depths = append(depths, p.Z)
		}
	}
	if len(depths) == 0 {
		return 0, errors.New("point map has no valid samples")
	}
	front, err := stats.Percentile(depths, foregroundPercentile)
	if err != nil {
		// too few samples for the percentile to be defined
		return stats.Min(depths)
	}
	return front, nil
}

// RemoveBackground returns a copy of img where every pixel without a sample, or whose sample
// lies farther than distance behind the foreground, is black. img must have the map's size.
func RemoveBackground(img image.Image, pm *PointMap, distance float64) (*image.NRGBA, error) {
	if img.Bounds().Dx() != pm.Width() || img.Bounds().Dy() != pm.Height() {
		return nil, errors.Errorf("image is %v but point map is %dx%d", img.Bounds().Size(), pm.Width(), pm.Height())
	}
	front, err := ForegroundDepth(pm)
	if err != nil {
		return nil, err
	}
	limit := front + distance

	out := image.NewNRGBA(pm.Bounds())
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	black := color.NRGBA{0, 0, 0, 255}
	for y := 0; y < pm.Height(); y++ {
		for x := 0; x < pm.Width(); x++ {
			z := pm.At(x, y).Z
			if z == 0 || z > limit {
				out.SetNRGBA(x, y, black)
			}
		}
	}
	return out, nil
}

// ResizeToMatch resamples img to width x height. The image is returned unchanged when it
// already has that size.
func ResizeToMatch(img image.Image, width, height int) image.Image {
	if img.Bounds().Dx() == width && img.Bounds().Dy() == height {
		return img
	}
	return imaging.Resize(img, width, height, imaging.Linear)
}

// CropImage returns a copy of the part of img inside rect.
func CropImage(img image.Image, rect image.Rectangle) *image.NRGBA {
	return imaging.Crop(img, rect)
}
