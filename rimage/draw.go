package rimage

import (
	"image"
	"image/color"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	regularOnce sync.Once
	regular     *truetype.Font
)

// Font returns the Go regular font, parsed on first use.
func Font() *truetype.Font {
	regularOnce.Do(func() {
		f, err := truetype.Parse(goregular.TTF)
		if err != nil {
			panic(err)
		}
		regular = f
	})
	return regular
}

var (
	faceColor    = color.NRGBA{G: 255, A: 255}
	noseColor    = color.NRGBA{R: 255, A: 255}
	captionColor = color.NRGBA{R: 255, G: 255, A: 255}
)

// DrawString writes text with its top left corner at p.
func DrawString(dc *gg.Context, text string, p image.Point, c color.Color, size float64) {
	dc.SetFontFace(truetype.NewFace(Font(), &truetype.Options{Size: size}))
	dc.SetColor(c)
	dc.DrawStringAnchored(text, float64(p.X), float64(p.Y), 0, 1)
}

// DrawRectangleEmpty outlines r.
func DrawRectangleEmpty(dc *gg.Context, r image.Rectangle, c color.Color, width float64) {
	dc.SetColor(c)
	dc.SetLineWidth(width)
	dc.DrawRectangle(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
	dc.Stroke()
}

// AnnotateDetection returns a copy of img with the face rectangle in green, the nose rectangle
// in red and caption in the top left corner. Empty rectangles and captions are skipped. Text
// size follows the image height.
func AnnotateDetection(img image.Image, face, nose image.Rectangle, caption string) image.Image {
	dc := gg.NewContextForImage(img)
	textSize := max(float64(img.Bounds().Dy())/30, 8)
	if !face.Empty() {
		DrawRectangleEmpty(dc, face, faceColor, 2)
		DrawString(dc, "face", image.Pt(face.Min.X+2, face.Min.Y+2), faceColor, textSize*0.8)
	}
	if !nose.Empty() {
		DrawRectangleEmpty(dc, nose, noseColor, 1)
	}
	if caption != "" {
		DrawString(dc, caption, image.Pt(4, 4), captionColor, textSize)
	}
	return dc.Image()
}
