// Package transform converts between depth pixels and camera space points.
package transform

import (
	"encoding/json"
	"fmt"
	"image"
	"os"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/yanioaioan/swooz/rimage"
)

// ErrNoIntrinsics is returned when a camera has no usable intrinsic parameters.
var ErrNoIntrinsics = errors.New("camera intrinsic parameters are not available")

// NewNoIntrinsicsError is used when the intrinsics are not defined.
func NewNoIntrinsicsError(msg string) error {
	return errors.Wrap(ErrNoIntrinsics, msg)
}

// PinholeCameraIntrinsics describes the depth camera. Frames of a capture share one set.
type PinholeCameraIntrinsics struct {
	Width  int     `json:"width_px"`
	Height int     `json:"height_px"`
	Fx     float64 `json:"fx"`
	Fy     float64 `json:"fy"`
	Ppx    float64 `json:"ppx"`
	Ppy    float64 `json:"ppy"`
}

// CheckValid reports a missing or unusable camera as ErrNoIntrinsics.
func (params *PinholeCameraIntrinsics) CheckValid() error {
	switch {
	case params == nil:
		return NewNoIntrinsicsError("intrinsics do not exist")
	case params.Width <= 0 || params.Height <= 0:
		return NewNoIntrinsicsError(fmt.Sprintf("image size must be positive, got %dx%d", params.Width, params.Height))
	case params.Fx <= 0 || params.Fy <= 0:
		return NewNoIntrinsicsError(fmt.Sprintf("focal lengths must be positive, got (%v, %v)", params.Fx, params.Fy))
	case params.Ppx < 0 || params.Ppy < 0:
		return NewNoIntrinsicsError(fmt.Sprintf("principal point must not be negative, got (%v, %v)", params.Ppx, params.Ppy))
	default:
		return nil
	}
}

// NewPinholeCameraIntrinsicsFromJSONFile reads and validates the intrinsics stored at jsonPath.
func NewPinholeCameraIntrinsicsFromJSONFile(jsonPath string) (*PinholeCameraIntrinsics, error) {
	//nolint:gosec
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read intrinsics")
	}
	intrinsics := &PinholeCameraIntrinsics{}
	if err := json.Unmarshal(data, intrinsics); err != nil {
		return nil, errors.Wrapf(err, "cannot parse intrinsics %q", jsonPath)
	}
	if err := intrinsics.CheckValid(); err != nil {
		return nil, err
	}
	return intrinsics, nil
}

// WriteToJSONFile stores the intrinsics next to captured frames.
func (params *PinholeCameraIntrinsics) WriteToJSONFile(jsonPath string) error {
	data, err := json.MarshalIndent(params, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(jsonPath, data, 0o600)
}

// PixelToPoint transforms a pixel with depth z (meters) to a 3D point in camera space.
func (params *PinholeCameraIntrinsics) PixelToPoint(x, y, z float64) r3.Vector {
	return r3.Vector{
		X: (x - params.Ppx) * z / params.Fx,
		Y: (y - params.Ppy) * z / params.Fy,
		Z: z,
	}
}

// PointToPixel projects a 3D camera space point to the image plane.
func (params *PinholeCameraIntrinsics) PointToPixel(p r3.Vector) r2.Point {
	if p.Z == 0 {
		return r2.Point{X: params.Ppx, Y: params.Ppy}
	}
	return r2.Point{
		X: p.X*params.Fx/p.Z + params.Ppx,
		Y: p.Y*params.Fy/p.Z + params.Ppy,
	}
}

// PointMapFromDepth lifts every depth pixel to a camera space point. Depth levels are divided by
// unitsPerMeter, so a millimeter depth image uses 1000. A zero level yields an empty sample.
func (params *PinholeCameraIntrinsics) PointMapFromDepth(depth *image.Gray16, unitsPerMeter float64) (*rimage.PointMap, error) {
	if err := params.CheckValid(); err != nil {
		return nil, err
	}
	if unitsPerMeter <= 0 {
		return nil, errors.Errorf("units per meter must be positive, got %v", unitsPerMeter)
	}
	b := depth.Bounds()
	if b.Dx() != params.Width || b.Dy() != params.Height {
		return nil, errors.Errorf("depth dimension and intrinsics don't match Depth(%d,%d) != Intrinsics(%d,%d)",
			b.Dx(), b.Dy(), params.Width, params.Height)
	}
	pm := rimage.NewPointMap(params.Width, params.Height)
	for y := 0; y < params.Height; y++ {
		for x := 0; x < params.Width; x++ {
			level := depth.Gray16At(b.Min.X+x, b.Min.Y+y).Y
			if level == 0 {
				continue
			}
			pm.Set(x, y, params.PixelToPoint(float64(x), float64(y), float64(level)/unitsPerMeter))
		}
	}
	return pm, nil
}
