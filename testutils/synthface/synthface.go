// Package synthface renders depth and color frames of a synthetic head, an ellipsoid with a
// nose bump in front of a far wall, as seen by a pinhole camera.
package synthface

import (
	"image"
	"image/color"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/yanioaioan/swooz/rimage"
	"github.com/yanioaioan/swooz/rimage/transform"
)

// unitsPerMeter is the depth image scale: one level per millimeter.
const unitsPerMeter = 1000

// Params describes the scene. Distances are in meters.
type Params struct {
	Width  int
	Height int
	Focal  float64

	// Center of the head ellipsoid, and its semi axes.
	Center        r3.Vector
	SemiAxes      r3.Vector
	NoseHeight    float64
	NoseSigma     float64
	NoseOffsetY   float64
	BackgroundZ   float64
	JitterMeters  float64
	SkinColor     color.NRGBA
	BackdropColor color.NRGBA
}

// DefaultParams returns a 200 x 160 frame of a head 80cm away from the camera.
func DefaultParams() Params {
	return Params{
		Width:         200,
		Height:        160,
		Focal:         300,
		Center:        r3.Vector{X: 0, Y: 0, Z: 0.8},
		SemiAxes:      r3.Vector{X: 0.08, Y: 0.11, Z: 0.06},
		NoseHeight:    0.02,
		NoseSigma:     0.012,
		NoseOffsetY:   0.01,
		BackgroundZ:   2.5,
		JitterMeters:  0.002,
		SkinColor:     color.NRGBA{R: 224, G: 172, B: 150, A: 255},
		BackdropColor: color.NRGBA{R: 70, G: 90, B: 120, A: 255},
	}
}

// Intrinsics returns the camera the frames are rendered with.
func (p Params) Intrinsics() *transform.PinholeCameraIntrinsics {
	return &transform.PinholeCameraIntrinsics{
		Width:  p.Width,
		Height: p.Height,
		Fx:     p.Focal,
		Fy:     p.Focal,
		Ppx:    float64(p.Width) / 2,
		Ppy:    float64(p.Height) / 2,
	}
}

// Frame is one rendered view.
type Frame struct {
	Color  *image.NRGBA
	Depth  *image.Gray16
	Points *rimage.PointMap
}

// Jitter returns the head displacement used for a frame. Frame 0 is not displaced.
func (p Params) Jitter(frameIndex int) r3.Vector {
	k := float64(frameIndex)
	return r3.Vector{
		X: p.JitterMeters * math.Sin(1.3*k),
		Y: p.JitterMeters * math.Sin(0.7*k),
		Z: 0.5 * p.JitterMeters * math.Sin(2.1*k),
	}
}

// Surface returns the depth of the head at camera space (x, y) and whether (x, y) is on it.
func (p Params) Surface(center r3.Vector, x, y float64) (float64, bool) {
	dx := (x - center.X) / p.SemiAxes.X
	dy := (y - center.Y) / p.SemiAxes.Y
	inside := 1 - dx*dx - dy*dy
	if inside <= 0 {
		return 0, false
	}
	z := center.Z - p.SemiAxes.Z*math.Sqrt(inside)
	nx, ny := x-center.X, y-center.Y-p.NoseOffsetY
	z -= p.NoseHeight * math.Exp(-(nx*nx+ny*ny)/(2*p.NoseSigma*p.NoseSigma))
	return z, true
}

// Generate renders frame frameIndex.
func Generate(p Params, frameIndex int) (*Frame, error) {
	intrinsics := p.Intrinsics()
	if err := intrinsics.CheckValid(); err != nil {
		return nil, err
	}
	if p.BackgroundZ <= p.Center.Z {
		return nil, errors.New("background must be behind the head")
	}
	center := p.Center.Add(p.Jitter(frameIndex))

	colorImg := image.NewNRGBA(image.Rect(0, 0, p.Width, p.Height))
	depth := image.NewGray16(image.Rect(0, 0, p.Width, p.Height))
	for v := 0; v < p.Height; v++ {
		for u := 0; u < p.Width; u++ {
			rx := (float64(u) - intrinsics.Ppx) / intrinsics.Fx
			ry := (float64(v) - intrinsics.Ppy) / intrinsics.Fy

			// the ray meets the surface where z matches the surface depth at (rx*z, ry*z)
			z := center.Z - p.SemiAxes.Z
			onHead := false
			for i := 0; i < 6; i++ {
				next, ok := p.Surface(center, rx*z, ry*z)
				if !ok {
					onHead = false
					break
				}
				z, onHead = next, true
			}
			if !onHead {
				z = p.BackgroundZ
				colorImg.SetNRGBA(u, v, p.BackdropColor)
			} else {
				colorImg.SetNRGBA(u, v, shade(p.SkinColor, (z-(center.Z-p.SemiAxes.Z-p.NoseHeight))/p.SemiAxes.Z))
			}
			depth.SetGray16(u, v, color.Gray16{Y: uint16(math.Round(z * unitsPerMeter))})
		}
	}

	points, err := intrinsics.PointMapFromDepth(depth, unitsPerMeter)
	if err != nil {
		return nil, err
	}
	return &Frame{Color: colorImg, Depth: depth, Points: points}, nil
}

// shade darkens c as depth grows, t being 0 at the front of the head.
func shade(c color.NRGBA, t float64) color.NRGBA {
	f := 1 - 0.4*math.Max(0, math.Min(1, t))
	return color.NRGBA{
		R: uint8(float64(c.R) * f),
		G: uint8(float64(c.G) * f),
		B: uint8(float64(c.B) * f),
		A: c.A,
	}
}

// UnitsPerMeter returns the scale of the depth images produced by Generate.
func UnitsPerMeter() float64 {
	return unitsPerMeter
}
