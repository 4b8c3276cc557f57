package avatar

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/yanioaioan/swooz/rimage"
	"github.com/yanioaioan/swooz/rimage/transform"
)

// IntrinsicsFileName is the camera description stored next to recorded frames.
const IntrinsicsFileName = "intrinsics.json"

// DepthUnitsPerMeter is the scale of recorded depth images, one level per millimeter.
const DepthUnitsPerMeter = 1000

// FrameSource yields synchronized color and depth frames. NextFrame returns io.EOF once the
// source is exhausted.
type FrameSource interface {
	NextFrame(ctx context.Context) (image.Image, *rimage.PointMap, error)
}

// ColorFileName returns the name of the color image of frame i.
func ColorFileName(i int) string {
	return fmt.Sprintf("color_%04d.png", i)
}

// DepthFileName returns the name of the 16 bit millimeter depth image of frame i.
func DepthFileName(i int) string {
	return fmt.Sprintf("depth_%04d.png", i)
}

// DirectorySource replays frames recorded in a directory as color_NNNN.png and
// depth_NNNN.png pairs numbered from 0, with the camera in intrinsics.json.
type DirectorySource struct {
	dir        string
	intrinsics *transform.PinholeCameraIntrinsics
	next       int
}

// NewDirectorySource opens a recorded capture.
func NewDirectorySource(dir string) (*DirectorySource, error) {
	intrinsics, err := transform.NewPinholeCameraIntrinsicsFromJSONFile(filepath.Join(dir, IntrinsicsFileName))
	if err != nil {
		return nil, err
	}
	return &DirectorySource{dir: dir, intrinsics: intrinsics}, nil
}

// Intrinsics returns the camera of the capture.
func (ds *DirectorySource) Intrinsics() *transform.PinholeCameraIntrinsics {
	return ds.intrinsics
}

// NextFrame reads the next pair of images.
func (ds *DirectorySource) NextFrame(ctx context.Context) (image.Image, *rimage.PointMap, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	colorPath := filepath.Join(ds.dir, ColorFileName(ds.next))
	if _, err := os.Stat(colorPath); errors.Is(err, os.ErrNotExist) {
		return nil, nil, io.EOF
	}
	colorImg, err := rimage.ReadImageFromFile(colorPath)
	if err != nil {
		return nil, nil, err
	}
	depth, err := rimage.ReadDepthFromFile(filepath.Join(ds.dir, DepthFileName(ds.next)))
	if err != nil {
		return nil, nil, err
	}
	points, err := ds.intrinsics.PointMapFromDepth(depth, DepthUnitsPerMeter)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "frame %d", ds.next)
	}
	ds.next++
	return colorImg, points, nil
}

// WriteFrame records frame i in dir the way DirectorySource reads it back.
func WriteFrame(dir string, i int, colorImg image.Image, depth *image.Gray16) error {
	if err := rimage.WriteImageToFile(filepath.Join(dir, ColorFileName(i)), colorImg); err != nil {
		return err
	}
	return rimage.WriteImageToFile(filepath.Join(dir, DepthFileName(i)), depth)
}
