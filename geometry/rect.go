package geometry

import (
	"fmt"
	"math"
)

// Rect is an axis-aligned rectangle, either in viewport pixels or in page units.
// Page space has its origin at the top-left corner of the page's media box, y grows downwards.
type Rect struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// NewRect creates a normalized rectangle from two corner points
func NewRect(x0, y0, x1, y1 float64) Rect {
	return Rect{X0: x0, Y0: y0, X1: x1, Y1: y1}.Normalize()
}

// Normalize returns the rectangle with X0<=X1 and Y0<=Y1
func (r Rect) Normalize() Rect {
	if r.X0 > r.X1 {
		r.X0, r.X1 = r.X1, r.X0
	}
	if r.Y0 > r.Y1 {
		r.Y0, r.Y1 = r.Y1, r.Y0
	}
	return r
}

// Width returns the horizontal extent of the normalized rectangle
func (r Rect) Width() float64 {
	n := r.Normalize()
	return n.X1 - n.X0
}

// Height returns the vertical extent of the normalized rectangle
func (r Rect) Height() float64 {
	n := r.Normalize()
	return n.Y1 - n.Y0
}

// Empty reports whether the rectangle has no area
func (r Rect) Empty() bool {
	return r.Width() <= 0 || r.Height() <= 0
}

// Scale multiplies every coordinate by f
func (r Rect) Scale(f float64) Rect {
	return Rect{X0: r.X0 * f, Y0: r.Y0 * f, X1: r.X1 * f, Y1: r.Y1 * f}
}

// Round rounds every coordinate to the given number of decimals
func (r Rect) Round(decimals int) Rect {
	p := math.Pow(10, float64(decimals))
	round := func(v float64) float64 { return math.Round(v*p) / p }
	return Rect{X0: round(r.X0), Y0: round(r.Y0), X1: round(r.X1), Y1: round(r.Y1)}
}

func (r Rect) String() string {
	return fmt.Sprintf("[%.2f %.2f %.2f %.2f]", r.X0, r.Y0, r.X1, r.Y1)
}
