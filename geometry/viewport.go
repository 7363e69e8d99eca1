package geometry

import (
	"fmt"
	"math"
)

// ComputeScale returns the factor that fits a page into the viewport while keeping its aspect ratio
func ComputeScale(pageWidth, pageHeight, viewportWidth, viewportHeight float64) (float64, error) {
	if pageWidth <= 0 || pageHeight <= 0 {
		return 0, fmt.Errorf("page size %gx%g: %w", pageWidth, pageHeight, ErrInvalidGeometry)
	}
	if viewportWidth <= 0 || viewportHeight <= 0 {
		return 0, fmt.Errorf("viewport size %gx%g: %w", viewportWidth, viewportHeight, ErrInvalidGeometry)
	}
	return math.Min(viewportHeight/pageHeight, viewportWidth/pageWidth), nil
}

// ToPageSpace converts a viewport rectangle into page units
func ToPageSpace(r Rect, scale float64) Rect {
	return Rect{X0: r.X0 / scale, Y0: r.Y0 / scale, X1: r.X1 / scale, Y1: r.Y1 / scale}
}

// ToViewportSpace converts a page rectangle into viewport pixels
func ToViewportSpace(r Rect, scale float64) Rect {
	return r.Scale(scale)
}

// Viewport is the fixed-size preview surface the pages are fitted into
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Bounds returns the viewport as a rectangle anchored at the origin
func (v Viewport) Bounds() Rect {
	return Rect{X1: v.Width, Y1: v.Height}
}

// Fit computes the scale for a page of the given bounds and the pixel size of the fitted preview
func (v Viewport) Fit(page Rect) (scale float64, width, height int, err error) {
	scale, err = ComputeScale(page.Width(), page.Height(), v.Width, v.Height)
	if err != nil {
		return 0, 0, 0, err
	}
	width = int(math.Round(page.Width() * scale))
	height = int(math.Round(page.Height() * scale))
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return scale, width, height, nil
}
