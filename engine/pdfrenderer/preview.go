package pdfrenderer

import (
	"image"
	"io"

	"github.com/disintegration/imaging"
)

// Fit scales a rendered page to exactly width x height pixels
func Fit(img image.Image, width, height int) image.Image {
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return img
	}
	return imaging.Resize(img, width, height, imaging.Lanczos)
}

// EncodePNG writes the preview image as PNG
func EncodePNG(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.PNG)
}
