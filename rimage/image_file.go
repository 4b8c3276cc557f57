package rimage

import (
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// WriteImageToFile writes img to path, the format following the extension.
func WriteImageToFile(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if filepath.Ext(path) == ".png" {
		// keep all 16 bits of depth images
		if g16, ok := img.(*image.Gray16); ok {
			return writePNG16(path, g16)
		}
	}
	return imaging.Save(img, path)
}

func writePNG16(path string, img *image.Gray16) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return png.Encode(f, img)
}

// ReadImageFromFile reads a color image.
func ReadImageFromFile(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %q", path)
	}
	return img, nil
}

// ReadDepthFromFile reads a 16 bit gray depth png, one level per depth unit.
func ReadDepthFromFile(path string) (*image.Gray16, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	//nolint:errcheck
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %q", path)
	}
	if g16, ok := img.(*image.Gray16); ok {
		return g16, nil
	}
	out := image.NewGray16(img.Bounds())
	for y := img.Bounds().Min.Y; y < img.Bounds().Max.Y; y++ {
		for x := img.Bounds().Min.X; x < img.Bounds().Max.X; x++ {
			out.Set(x, y, img.At(x, y))
		}
	}
	return out, nil
}
