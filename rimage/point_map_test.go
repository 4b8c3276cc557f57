package rimage

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

// makeScene returns a 20x20 map with a near square in the middle and a far wall around it.
func makeScene() (*PointMap, *image.NRGBA) {
	pm := NewPointMap(20, 20)
	img := image.NewNRGBA(pm.Bounds())
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			z := 2.5
			c := color.NRGBA{100, 100, 100, 255}
			if x >= 5 && x < 15 && y >= 5 && y < 15 {
				z = 0.8 + 0.001*float64(x)
				c = color.NRGBA{200, 150, 120, 255}
			}
			pm.Set(x, y, r3.Vector{X: float64(x) * 0.01, Y: float64(y) * 0.01, Z: z})
			img.SetNRGBA(x, y, c)
		}
	}
	pm.Set(0, 0, r3.Vector{})
	return pm, img
}

func TestPointMapAccessors(t *testing.T) {
	pm, _ := makeScene()
	test.That(t, pm.Width(), test.ShouldEqual, 20)
	test.That(t, pm.Valid(0, 0), test.ShouldBeFalse)
	test.That(t, pm.Valid(1, 0), test.ShouldBeTrue)
	test.That(t, pm.At(-1, 3), test.ShouldResemble, r3.Vector{})
	test.That(t, pm.NumValid(), test.ShouldEqual, 399)

	p, px, ok := pm.NearestPoint(image.Rect(0, 0, 20, 20))
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, px, test.ShouldResemble, image.Pt(5, 5))
	test.That(t, p.Z, test.ShouldAlmostEqual, 0.805, 1e-12)

	_, _, ok = NewPointMap(3, 3).NearestPoint(image.Rect(0, 0, 3, 3))
	test.That(t, ok, test.ShouldBeFalse)
}

func TestCloudFromRegion(t *testing.T) {
	pm, img := makeScene()
	cloud := pm.CloudFromRegion(img, image.Rect(3, 3, 17, 17), 0.3, 1.4)
	test.That(t, cloud.Size(), test.ShouldEqual, 100)
	test.That(t, cloud.HasColor(), test.ShouldBeTrue)
	c, err := cloud.Color(0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c, test.ShouldResemble, color.NRGBA{200, 150, 120, 255})

	clipped := pm.CloudFromRegion(img, image.Rect(-5, -5, 40, 40), 0, 10)
	test.That(t, clipped.Size(), test.ShouldEqual, 399)

	bb := pm.RegionBoundingBox(image.Rect(0, 0, 20, 20), 0.3, 1.4)
	test.That(t, bb.Min.X, test.ShouldAlmostEqual, 0.05, 1e-12)
	test.That(t, bb.Max.Y, test.ShouldAlmostEqual, 0.14, 1e-12)
}

func TestRemoveBackground(t *testing.T) {
	pm, img := makeScene()
	fg, err := RemoveBackground(img, pm, 1.5)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, fg.NRGBAAt(10, 10), test.ShouldResemble, color.NRGBA{200, 150, 120, 255})
	test.That(t, fg.NRGBAAt(1, 1), test.ShouldResemble, color.NRGBA{0, 0, 0, 255})
	test.That(t, fg.NRGBAAt(0, 0), test.ShouldResemble, color.NRGBA{0, 0, 0, 255})

	keepAll, err := RemoveBackground(img, pm, 5)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, keepAll.NRGBAAt(1, 1), test.ShouldResemble, color.NRGBA{100, 100, 100, 255})

	_, err = RemoveBackground(image.NewNRGBA(image.Rect(0, 0, 3, 3)), pm, 1.5)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = RemoveBackground(image.NewNRGBA(image.Rect(0, 0, 3, 3)), NewPointMap(3, 3), 1.5)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestResizeAndCrop(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 40, 30))
	test.That(t, ResizeToMatch(img, 40, 30), test.ShouldEqual, img)
	resized := ResizeToMatch(img, 20, 15)
	test.That(t, resized.Bounds().Size(), test.ShouldResemble, image.Pt(20, 15))

	crop := CropImage(img, image.Rect(5, 5, 15, 10))
	test.That(t, crop.Bounds().Size(), test.ShouldResemble, image.Pt(10, 5))
}

func TestImageFiles(t *testing.T) {
	dir := t.TempDir()
	depth := image.NewGray16(image.Rect(0, 0, 4, 4))
	depth.SetGray16(1, 2, color.Gray16{1234})
	path := filepath.Join(dir, "depth.png")
	test.That(t, WriteImageToFile(path, depth), test.ShouldBeNil)
	back, err := ReadDepthFromFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, back.Gray16At(1, 2).Y, test.ShouldEqual, uint16(1234))

	colorPath := filepath.Join(dir, "nested", "color.png")
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.SetNRGBA(2, 2, color.NRGBA{10, 20, 30, 255})
	test.That(t, WriteImageToFile(colorPath, img), test.ShouldBeNil)
	read, err := ReadImageFromFile(colorPath)
	test.That(t, err, test.ShouldBeNil)
	r, g, b, _ := read.At(2, 2).RGBA()
	test.That(t, []uint32{r >> 8, g >> 8, b >> 8}, test.ShouldResemble, []uint32{10, 20, 30})

	annotated := AnnotateDetection(img, image.Rect(0, 0, 3, 3), image.Rect(1, 1, 2, 2), "frame 0")
	test.That(t, annotated.Bounds(), test.ShouldResemble, img.Bounds())
}
